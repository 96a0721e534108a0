package parser

import (
	"testing"

	"github.com/aluiziolira/go-enrich-books/models"
)

func TestValidateRow(t *testing.T) {
	tests := []struct {
		name    string
		row     *models.InputRow
		wantErr bool
	}{
		{name: "valid row", row: &models.InputRow{Line: 2, Title: "Some Title"}},
		{name: "missing title", row: &models.InputRow{Line: 3, Identifier: "id1"}, wantErr: true},
		{name: "blank title", row: &models.InputRow{Line: 4, Title: "   "}, wantErr: true},
		{name: "nil row", row: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRow(tt.row)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRow() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input   string
		want    models.Price
		wantErr bool
	}{
		{input: "$9.99", want: models.PriceFromCents(999)},
		{input: "$1,234.50", want: models.PriceFromCents(123450)},
		{input: "$1,234", want: models.PriceFromCents(123400)},
		{input: "EUR 12,50", want: models.PriceFromCents(1250)},
		{input: "£0.5", want: models.PriceFromCents(50)},
		{input: "  $12  ", want: models.PriceFromCents(1200)},
		{input: "$0.00", want: models.PriceFromCents(0)},
		{input: "Too low to display", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePrice(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePrice(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatBool(t *testing.T) {
	if FormatBool(true) != "True" || FormatBool(false) != "False" {
		t.Fatalf("FormatBool = %q/%q", FormatBool(true), FormatBool(false))
	}
}

func TestTransformAuthor(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "Doe, Jane", want: "Jane Doe"},
		{input: "Doe, Jane, 1950-", want: "Jane Doe"},
		{input: "Doe, Jane 1901-1980", want: "Jane Doe"},
		{input: "Smith, John (Editor)", want: "John Smith"},
		{input: "Plato; Jowett, Benjamin", want: "Plato"},
		{input: "Homer (Poet)", want: "Homer"},
		{input: "  Plato  ", want: "Plato"},
		{input: "Brontë, Charlotte", want: "Charlotte Brontë"},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := TransformAuthor(tt.input); got != tt.want {
				t.Errorf("TransformAuthor(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseOfferLabels(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   OfferSummary
	}{
		{
			name:   "count with price",
			labels: []string{"3 New from $9.99"},
			want:   OfferSummary{New: ConditionOffers{Count: 3, Lowest: models.PriceFromCents(999)}},
		},
		{
			name:   "count without price stays unknown",
			labels: []string{"12 Used"},
			want:   OfferSummary{Used: ConditionOffers{Count: 12}},
		},
		{
			name:   "several conditions in one label",
			labels: []string{"2 New from $15.00 5 Used from $4.25 1 Collectible"},
			want: OfferSummary{
				New:         ConditionOffers{Count: 2, Lowest: models.PriceFromCents(1500)},
				Used:        ConditionOffers{Count: 5, Lowest: models.PriceFromCents(425)},
				Collectible: ConditionOffers{Count: 1},
			},
		},
		{
			name:   "price in a later label pairs with the previous condition",
			labels: []string{"4 Used", "from $2.10"},
			want:   OfferSummary{Used: ConditionOffers{Count: 4, Lowest: models.PriceFromCents(210)}},
		},
		{
			name:   "repeated count keeps last value and lowest price",
			labels: []string{"2 New from $8.00", "6 New from $11.00"},
			want:   OfferSummary{New: ConditionOffers{Count: 6, Lowest: models.PriceFromCents(800)}},
		},
		{
			name:   "thousands separator in count",
			labels: []string{"1,204 Used from $0.99"},
			want:   OfferSummary{Used: ConditionOffers{Count: 1204, Lowest: models.PriceFromCents(99)}},
		},
		{
			name:   "price before any condition is ignored",
			labels: []string{"from $3.00", "See all buying options"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseOfferLabels(tt.labels); got != tt.want {
				t.Errorf("ParseOfferLabels(%q) = %+v, want %+v", tt.labels, got, tt.want)
			}
		})
	}
}
