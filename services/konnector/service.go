package konnector

import (
	"context"
	"log/slog"

	"dauchez-konnector/lib/billstore"
	"dauchez-konnector/lib/scrapers/dauchez"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/konnector")

type Credentials struct {
	Username string
	Password string
}

// Sink receives the finished document set; billstore.Store implements
// it. Ownership of the document streams transfers to the sink.
type Sink interface {
	SaveBills(ctx context.Context, docs []dauchez.Document, opts billstore.SaveOptions) error
}

type Service struct {
	client *dauchez.Client
	sink   Sink
}

func NewService(client *dauchez.Client, sink Sink) Service {
	return Service{
		client: client,
		sink:   sink,
	}
}

// Run executes one full connector run: authenticate, prime the
// session, fetch and extract the listing, download each linked bill in
// listing order and hand everything to the sink. The first failing
// stage aborts the run; nothing reaches the sink in that case.
func (s Service) Run(ctx context.Context, creds Credentials) error {
	ctx, span := tracer.Start(ctx, "service:Run")
	defer span.End()

	slog.InfoContext(ctx, "authenticating")
	err := s.client.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to login")
		return err
	}
	slog.InfoContext(ctx, "successfully logged in")

	err = s.client.PrimeSession(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to prime session")
		return err
	}

	slog.InfoContext(ctx, "fetching the list of documents")
	bills, err := s.client.FetchListing(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch listing")
		return err
	}
	slog.InfoContext(ctx, "parsed listing", "bills", len(bills))

	// one download at a time, in listing order; the session state on
	// the server is not known to tolerate concurrent fetches
	var docs []dauchez.Document
	for _, bill := range bills {
		if bill.FileUrl == "" {
			continue
		}
		doc, err := s.client.FetchDocument(ctx, bill)
		if err != nil {
			for _, open := range docs {
				open.Content.Close()
			}
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to fetch document")
			return err
		}
		docs = append(docs, doc)
	}

	slog.InfoContext(ctx, "saving documents", "count", len(docs))
	err = s.sink.SaveBills(ctx, docs, billstore.SaveOptions{
		Identifiers: []string{dauchez.Vendor},
		ContentType: "application/pdf",
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save documents")
		return err
	}

	return nil
}
