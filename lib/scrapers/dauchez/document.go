package dauchez

import (
	"context"
	"fmt"
	"io"
	"time"

	"dauchez-konnector/lib/timezone"

	"go.opentelemetry.io/otel/codes"
)

const Vendor = "dauchez"
const Currency = "€"

// DocumentVersion marks the document structure so stored documents can
// be migrated if the shape ever changes.
const DocumentVersion = 1

type Metadata struct {
	ImportDate time.Time
	Version    int
}

// A Document is a Bill together with its downloaded file. Content is a
// pass-through stream over the HTTP response body, it is never buffered
// here; the consumer owns it and must close it.
type Document struct {
	Bill
	Filename string
	Content  io.ReadCloser
	Currency string
	Vendor   string
	Metadata Metadata
}

// Filename is deterministic: the same date, amount and vendor reference
// always produce the same name. The amount is always rendered with two
// decimals.
func Filename(date time.Time, amount float64, vendorRef string) string {
	name := fmt.Sprintf("%s_%s_%.2f%s", date.Format("2006-01-02"), Vendor, amount, Currency)
	if vendorRef != "" {
		name += "_" + vendorRef
	}
	return name + ".pdf"
}

// FetchDocument downloads the bill's file relative to the extranet
// root and wraps the bill into a Document.
func (c *Client) FetchDocument(ctx context.Context, bill Bill) (Document, error) {
	ctx, span := tracer.Start(ctx, "client:FetchDocument")
	defer span.End()

	if bill.FileUrl == "" {
		return Document{}, fmt.Errorf("bill %q has no file to download", bill.Title)
	}

	res, err := c.Http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(bill.FileUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to download bill file")
		return Document{}, fmt.Errorf("download %s: %w", bill.FileUrl, ErrVendorDown)
	}
	if res.StatusCode() >= 400 {
		res.RawBody().Close()
		span.SetStatus(codes.Error, "bill file download returned an error status")
		return Document{}, fmt.Errorf("download %s (status %d): %w", bill.FileUrl, res.StatusCode(), ErrVendorDown)
	}

	return Document{
		Bill:     bill,
		Filename: Filename(bill.Date, bill.Amount, ""),
		Content:  res.RawBody(),
		Currency: Currency,
		Vendor:   Vendor,
		Metadata: Metadata{
			ImportDate: timezone.Now(),
			Version:    DocumentVersion,
		},
	}, nil
}
