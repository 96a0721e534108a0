package pipeline

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/aluiziolira/go-enrich-books/models"
	"github.com/aluiziolira/go-enrich-books/parser"
)

// OutputWriter defines the interface for data output.
type OutputWriter interface {
	Write(rec *models.Record) error
	Close() error
	Validate() error
}

// Header returns the output column names.
func Header(withVolume bool) []string {
	header := []string{"identifier", "title"}
	if withVolume {
		header = append(header, "volume")
	}
	return append(header,
		"creator", "details", "transformed_author",
		"amzn-Author", "amzn-Title", "DetailPageURL",
		"TotalNew", "TotalUsed", "TotalCollectible",
		"LowestNewPrice", "LowestUsedPrice", "LowestCollectiblePrice",
		"SoldByAmzn", "SoldByAmznNew",
	)
}

// FormatRecord renders rec as output fields. A failed record is exactly
// its error code and message.
func FormatRecord(rec *models.Record, withVolume bool) []string {
	if rec.Failed() || rec.Item == nil {
		return []string{rec.ErrCode, rec.ErrMessage}
	}

	row := rec.Row
	out := []string{row.Identifier, row.Title}
	if withVolume {
		out = append(out, row.Volume)
	}
	item := rec.Item
	return append(out,
		row.Creator, row.Details, rec.TransformedAuthor,
		item.Author, item.Title, item.DetailPageURL,
		strconv.Itoa(item.TotalNew), strconv.Itoa(item.TotalUsed), strconv.Itoa(item.TotalCollectible),
		item.LowestNewPrice.String(), item.LowestUsedPrice.String(), item.LowestCollectiblePrice.String(),
		parser.FormatBool(item.SoldByPlatform), parser.FormatBool(item.SoldByPlatformNew),
	)
}

// TSVWriter writes records as tab-separated rows.
type TSVWriter struct {
	file       *os.File
	writer     *csv.Writer
	withVolume bool
	mu         sync.Mutex
}

// NewTSVWriter creates filename and writes the header row.
func NewTSVWriter(filename string, withVolume bool) (*TSVWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create tsv file: %w", err)
	}

	writer := csv.NewWriter(f)
	writer.Comma = '\t'
	if err := writer.Write(Header(withVolume)); err != nil {
		f.Close()
		return nil, fmt.Errorf("write tsv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return nil, fmt.Errorf("flush tsv header: %w", err)
	}

	return &TSVWriter{
		file:       f,
		writer:     writer,
		withVolume: withVolume,
	}, nil
}

// Write appends one row and flushes it.
func (tw *TSVWriter) Write(rec *models.Record) error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if err := tw.writer.Write(FormatRecord(rec, tw.withVolume)); err != nil {
		return fmt.Errorf("write tsv record: %w", err)
	}
	tw.writer.Flush()
	if err := tw.writer.Error(); err != nil {
		return fmt.Errorf("flush tsv record: %w", err)
	}
	return nil
}

// Close flushes and closes the file handle.
func (tw *TSVWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	tw.writer.Flush()
	if err := tw.writer.Error(); err != nil {
		tw.file.Close()
		return fmt.Errorf("flush tsv writer: %w", err)
	}
	return tw.file.Close()
}

// Validate ensures the file has content.
func (tw *TSVWriter) Validate() error {
	info, err := tw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat tsv file: %w", err)
	}
	if info.Size() <= 0 {
		return fmt.Errorf("tsv file is empty")
	}
	return nil
}

// JSONWriter writes newline-delimited JSON records.
type JSONWriter struct {
	file    *os.File
	writer  *bufio.Writer
	encoder *json.Encoder
	records int
	mu      sync.Mutex
}

// NewJSONWriter initialises the JSON writer.
func NewJSONWriter(filename string) (*JSONWriter, error) {
	if err := ensureDir(filename); err != nil {
		return nil, err
	}

	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create json file: %w", err)
	}

	buffer := bufio.NewWriter(f)
	return &JSONWriter{
		file:    f,
		writer:  buffer,
		encoder: json.NewEncoder(buffer),
	}, nil
}

// Write appends one record in JSONL format.
func (jw *JSONWriter) Write(rec *models.Record) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.encoder.Encode(rec); err != nil {
		return fmt.Errorf("encode json record: %w", err)
	}
	if err := jw.writer.Flush(); err != nil {
		return fmt.Errorf("flush json writer: %w", err)
	}
	jw.records++
	return nil
}

// Close flushes buffers and closes the underlying file.
func (jw *JSONWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	if err := jw.writer.Flush(); err != nil {
		jw.file.Close()
		return fmt.Errorf("flush json writer: %w", err)
	}
	return jw.file.Close()
}

// Validate ensures written records reached the file. A run with no rows
// leaves it empty.
func (jw *JSONWriter) Validate() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	info, err := jw.file.Stat()
	if err != nil {
		return fmt.Errorf("stat json file: %w", err)
	}
	if jw.records > 0 && info.Size() <= 0 {
		return fmt.Errorf("json file is empty")
	}
	return nil
}

// DualWriter writes every record to both a TSV and a JSONL file.
type DualWriter struct {
	tsvWriter  *TSVWriter
	jsonWriter *JSONWriter
	mu         sync.Mutex
}

// NewDualWriter creates both output files.
func NewDualWriter(tsvFilename, jsonFilename string, withVolume bool) (*DualWriter, error) {
	tsvWriter, err := NewTSVWriter(tsvFilename, withVolume)
	if err != nil {
		return nil, fmt.Errorf("create tsv writer: %w", err)
	}

	jsonWriter, err := NewJSONWriter(jsonFilename)
	if err != nil {
		tsvWriter.Close()
		return nil, fmt.Errorf("create json writer: %w", err)
	}

	return &DualWriter{
		tsvWriter:  tsvWriter,
		jsonWriter: jsonWriter,
	}, nil
}

// Write writes rec to both outputs.
func (dw *DualWriter) Write(rec *models.Record) error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if err := dw.tsvWriter.Write(rec); err != nil {
		return fmt.Errorf("tsv write failed: %w", err)
	}
	if err := dw.jsonWriter.Write(rec); err != nil {
		return fmt.Errorf("json write failed: %w", err)
	}
	return nil
}

// Close closes both writers.
func (dw *DualWriter) Close() error {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	var errs []error
	if err := dw.tsvWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("tsv close failed: %w", err))
	}
	if err := dw.jsonWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("json close failed: %w", err))
	}
	return errors.Join(errs...)
}

// Validate validates both output files.
func (dw *DualWriter) Validate() error {
	var errs []error
	if err := dw.tsvWriter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tsv validation failed: %w", err))
	}
	if err := dw.jsonWriter.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("json validation failed: %w", err))
	}
	return errors.Join(errs...)
}

// NewWriter opens the writer for format: tsv, json, or dual. The JSONL
// file sits next to filename with a .jsonl extension.
func NewWriter(format, filename string, withVolume bool) (OutputWriter, error) {
	switch format {
	case "", "tsv":
		return NewTSVWriter(filename, withVolume)
	case "json":
		return NewJSONWriter(JSONPath(filename))
	case "dual":
		return NewDualWriter(filename, JSONPath(filename), withVolume)
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// JSONPath is the JSONL companion of a TSV output path.
func JSONPath(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jsonl"
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
