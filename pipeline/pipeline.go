// Package pipeline reads source rows, enriches them one at a time, and
// writes one output record per row.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-enrich-books/enrich"
	"github.com/aluiziolira/go-enrich-books/metrics"
	"github.com/aluiziolira/go-enrich-books/models"
	"github.com/aluiziolira/go-enrich-books/parser"
	"github.com/aluiziolira/go-enrich-books/productapi"
)

// Row error codes for failures that are not product API errors.
const (
	CodeInvalidRow   = "InvalidRow"
	CodeHTTPError    = "HTTPError"
	CodeNoDetailPage = "NoDetailPage"
	CodeScrapeError  = "ScrapeError"
	CodeError        = "Error"
)

// Enricher turns a title and author into an enriched item.
type Enricher interface {
	Enrich(ctx context.Context, title, author string) (*models.Item, error)
}

// Pipeline processes rows strictly in order. A failed row becomes an error
// record; only output errors stop the run.
type Pipeline struct {
	enricher Enricher
	writer   OutputWriter
	metrics  *metrics.Metrics
}

// NewPipeline builds a pipeline writing to writer.
func NewPipeline(enricher Enricher, writer OutputWriter, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		enricher: enricher,
		writer:   writer,
		metrics:  m,
	}
}

// Run enriches rows and writes a record for each. Cancelling ctx stops the
// run between rows; the result is marked interrupted.
func (p *Pipeline) Run(ctx context.Context, rows []models.InputRow) (*models.RunResult, error) {
	result := &models.RunResult{
		StartTime:    time.Now(),
		ErrorsByCode: make(map[string]int),
	}
	defer func() {
		result.EndTime = time.Now()
	}()

	for i := range rows {
		if ctx.Err() != nil {
			result.Interrupted = true
			break
		}

		rec, err := p.process(ctx, &rows[i])
		if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			// The row was cut short by the interrupt; it is not recorded.
			result.Interrupted = true
			break
		}

		if err := p.writer.Write(rec); err != nil {
			return result, fmt.Errorf("write row %d: %w", rows[i].Line, err)
		}
		result.RowCount++
		p.record(result, rec, i+1, len(rows))
	}

	return result, nil
}

// process enriches one row. The returned error is the enrichment failure
// already captured in the record.
func (p *Pipeline) process(ctx context.Context, row *models.InputRow) (*models.Record, error) {
	rec := &models.Record{
		Row:               *row,
		TransformedAuthor: parser.TransformAuthor(row.Creator),
	}
	if err := parser.ValidateRow(row); err != nil {
		rec.ErrCode, rec.ErrMessage = CodeInvalidRow, err.Error()
		return rec, nil
	}

	item, err := p.enricher.Enrich(ctx, row.Title, rec.TransformedAuthor)
	if err != nil {
		rec.ErrCode, rec.ErrMessage = rowError(err)
		return rec, err
	}
	rec.Item = item
	return rec, nil
}

func (p *Pipeline) record(result *models.RunResult, rec *models.Record, n, total int) {
	status := "ok"
	if rec.Failed() {
		status = "error"
		result.ErrorCount++
		result.ErrorsByCode[rec.ErrCode]++
	} else {
		result.SuccessCount++
	}
	p.metrics.IncRow(status)

	attrs := []any{
		slog.Int("row", n),
		slog.Int("total", total),
		slog.String("identifier", rec.Row.Identifier),
		slog.String("status", status),
	}
	if rec.Failed() {
		attrs = append(attrs, slog.String("code", rec.ErrCode), slog.String("message", rec.ErrMessage))
		slog.Warn("row failed", attrs...)
		return
	}
	slog.Info("row enriched", attrs...)
}

// rowError maps err to the code and message written for a failed row.
func rowError(err error) (string, string) {
	var apiErr *productapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.RowCode(), apiErr.Message
	}
	var httpErr *productapi.HTTPError
	if errors.As(err, &httpErr) {
		return CodeHTTPError, httpErr.Error()
	}
	if errors.Is(err, enrich.ErrNoDetailPage) {
		return CodeNoDetailPage, err.Error()
	}
	var scrapeErr *enrich.ScrapeError
	if errors.As(err, &scrapeErr) {
		return CodeScrapeError, err.Error()
	}
	return CodeError, err.Error()
}
