package billstore

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"dauchez-konnector/lib/billstore/db"
	"dauchez-konnector/lib/scrapers/dauchez"
)

// Store keeps downloaded bill files in a directory and indexes their
// metadata in a sql database so a later run can skip documents it
// already holds.
type Store struct {
	db  *sql.DB
	qry *db.Queries
	dir string
}

func NewStore(database *sql.DB, dir string) (Store, error) {
	_, err := database.Exec(db.Schema)
	if err != nil {
		return Store{}, fmt.Errorf("apply bill schema: %w", err)
	}
	err = os.MkdirAll(dir, 0o755)
	if err != nil {
		return Store{}, err
	}
	return Store{
		db:  database,
		qry: db.New(database),
		dir: dir,
	}, nil
}

type SaveOptions struct {
	// keywords used to match bills against bank operation labels
	Identifiers []string
	// optional content type hint for the stored files
	ContentType string
}

// SaveBills drains each document's content stream into the store. A
// document whose filename is already indexed is skipped without
// rewriting the file. Every stream is closed before returning, also on
// error.
func (s Store) SaveBills(ctx context.Context, docs []dauchez.Document, opts SaveOptions) error {
	for i, doc := range docs {
		err := s.saveBill(ctx, doc, opts)
		if err != nil {
			for _, remaining := range docs[i+1:] {
				remaining.Content.Close()
			}
			return err
		}
	}
	return nil
}

func (s Store) saveBill(ctx context.Context, doc dauchez.Document, opts SaveOptions) error {
	defer doc.Content.Close()

	exists, err := s.qry.BillExists(ctx, doc.Filename)
	if err != nil {
		return err
	}
	if exists {
		slog.DebugContext(ctx, "bill already saved", "filename", doc.Filename)
		return nil
	}

	path := filepath.Join(s.dir, doc.Filename)
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	_, err = io.Copy(file, doc.Content)
	if err != nil {
		file.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", doc.Filename, err)
	}
	err = file.Close()
	if err != nil {
		os.Remove(path)
		return err
	}

	err = s.qry.CreateBill(ctx, db.Bill{
		Filename:    doc.Filename,
		Date:        doc.Date.Unix(),
		Title:       doc.Title,
		Amount:      doc.Amount,
		Currency:    doc.Currency,
		Vendor:      doc.Vendor,
		FileUrl:     doc.FileUrl,
		ContentType: opts.ContentType,
		ImportDate:  doc.Metadata.ImportDate.Unix(),
		Version:     int64(doc.Metadata.Version),
	})
	if err != nil {
		os.Remove(path)
		return err
	}

	slog.InfoContext(ctx, "saved bill", "filename", doc.Filename, "amount", doc.Amount)
	return nil
}

// List returns the indexed bills, oldest first.
func (s Store) List(ctx context.Context) ([]db.Bill, error) {
	return s.qry.ListBills(ctx)
}
