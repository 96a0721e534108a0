package pipeline

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aluiziolira/go-enrich-books/models"
)

// Input is the parsed source spreadsheet.
type Input struct {
	Rows      []models.InputRow
	HasVolume bool
}

// ReadRows reads a tab-separated source file. The header row names the
// columns; when it does not name identifier, title, creator, and details
// the positional layout identifier, title, creator, details is assumed. A
// volume column is picked up only when the header names it. Short rows
// leave missing fields empty.
func ReadRows(path string) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &Input{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read source header: %w", err)
	}
	cols := resolveColumns(header)

	input := &Input{HasVolume: cols.volume >= 0}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}
		line, _ := reader.FieldPos(0)
		input.Rows = append(input.Rows, models.InputRow{
			Line:       line,
			Identifier: field(record, cols.identifier),
			Title:      field(record, cols.title),
			Volume:     field(record, cols.volume),
			Creator:    field(record, cols.creator),
			Details:    field(record, cols.details),
		})
	}
	return input, nil
}

type columns struct {
	identifier, title, volume, creator, details int
}

func resolveColumns(header []string) columns {
	named := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := named[name]; !dup {
			named[name] = i
		}
	}

	cols := columns{identifier: 0, title: 1, volume: -1, creator: 2, details: 3}
	id, okID := named["identifier"]
	title, okTitle := named["title"]
	creator, okCreator := named["creator"]
	details, okDetails := named["details"]
	if okID && okTitle && okCreator && okDetails {
		cols = columns{identifier: id, title: title, volume: -1, creator: creator, details: details}
	}
	if v, ok := named["volume"]; ok {
		cols.volume = v
	}
	return cols
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
