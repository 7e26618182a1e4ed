package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Bill struct {
	Filename    string
	Date        int64
	Title       string
	Amount      float64
	Currency    string
	Vendor      string
	FileUrl     string
	ContentType string
	ImportDate  int64
	Version     int64
}

const createBill = `
INSERT INTO bills (filename, date, title, amount, currency, vendor, file_url, content_type, import_date, version)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateBill(ctx context.Context, arg Bill) error {
	_, err := q.db.ExecContext(ctx, createBill,
		arg.Filename,
		arg.Date,
		arg.Title,
		arg.Amount,
		arg.Currency,
		arg.Vendor,
		arg.FileUrl,
		arg.ContentType,
		arg.ImportDate,
		arg.Version,
	)
	return err
}

const billExists = `
SELECT COUNT(*) FROM bills WHERE filename = ?
`

func (q *Queries) BillExists(ctx context.Context, filename string) (bool, error) {
	row := q.db.QueryRowContext(ctx, billExists, filename)
	var count int64
	err := row.Scan(&count)
	return count > 0, err
}

const listBills = `
SELECT filename, date, title, amount, currency, vendor, file_url, content_type, import_date, version
FROM bills
ORDER BY date ASC, filename ASC
`

func (q *Queries) ListBills(ctx context.Context) ([]Bill, error) {
	rows, err := q.db.QueryContext(ctx, listBills)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Bill
	for rows.Next() {
		var b Bill
		err := rows.Scan(
			&b.Filename,
			&b.Date,
			&b.Title,
			&b.Amount,
			&b.Currency,
			&b.Vendor,
			&b.FileUrl,
			&b.ContentType,
			&b.ImportDate,
			&b.Version,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}
