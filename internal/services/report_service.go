// Package services – ReportService
//
// ReportService renders the customer's PDF guide and hands it to a Blobstore,
// returning the download URL that the agent relays to the customer.
package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/opc-agent/internal/report"
	"github.com/tbourn/opc-agent/internal/storage"
)

// Blobstore stores a named file and returns its public URL.
type Blobstore interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
}

// ReportRenderer turns report input into PDF bytes.
type ReportRenderer interface {
	Render(in report.Input) ([]byte, error)
}

// ReportService generates and stores reports.
type ReportService struct {
	Renderer ReportRenderer
	Store    Blobstore
}

// NewReportService constructs a ReportService.
func NewReportService(r ReportRenderer, store Blobstore) *ReportService {
	return &ReportService{Renderer: r, Store: store}
}

// Generate renders in and stores it under a content-addressed name.
func (s *ReportService) Generate(ctx context.Context, in report.Input) (string, error) {
	tr := otel.Tracer("services/ReportService")
	ctx, span := tr.Start(ctx, "Generate")
	defer span.End()

	pdf, err := s.Renderer.Render(in)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	name := storage.ReportName(pdf)
	span.SetAttributes(
		attribute.String("report.name", name),
		attribute.Int("report.bytes", len(pdf)),
	)

	url, err := s.Store.Put(ctx, name, pdf)
	if err != nil {
		span.RecordError(err, trace.WithAttributes(attribute.String("report.name", name)))
		return "", fmt.Errorf("store report: %w", err)
	}
	return url, nil
}
