package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/aluiziolira/go-enrich-books/models"
)

// ValidateRow ensures an input row has what the product search needs.
func ValidateRow(row *models.InputRow) error {
	if row == nil {
		return fmt.Errorf("row is nil")
	}
	if strings.TrimSpace(row.Title) == "" {
		return fmt.Errorf("row %d missing title", row.Line)
	}
	return nil
}

// ParsePrice reads a displayed price such as "$1,234.50", "£9.99" or
// "EUR 12,50" into a known price. Currency markers are ignored.
func ParsePrice(text string) (models.Price, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(text) {
		if unicode.IsDigit(r) || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	digits := strings.Trim(b.String(), ".,")
	if digits == "" {
		return models.Price{}, fmt.Errorf("no amount in price %q", text)
	}

	whole, frac := digits, ""
	lastDot := strings.LastIndexByte(digits, '.')
	lastComma := strings.LastIndexByte(digits, ',')
	sep := lastDot
	if lastComma > sep {
		sep = lastComma
	}
	// A trailing group of one or two digits is the decimal part; three
	// digits after a lone separator is a thousands group.
	if sep >= 0 && len(digits)-sep-1 <= 2 {
		whole, frac = digits[:sep], digits[sep+1:]
	}
	whole = strings.NewReplacer(".", "", ",", "").Replace(whole)
	if whole == "" {
		whole = "0"
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return models.Price{}, fmt.Errorf("parse price %q: %w", text, err)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return models.Price{}, fmt.Errorf("parse price %q: %w", text, err)
	}
	return models.PriceFromCents(units*100 + cents), nil
}

// FormatBool renders flags the way the output spreadsheet expects.
func FormatBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}
