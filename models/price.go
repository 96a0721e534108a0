package models

import (
	"encoding/json"
	"fmt"
)

// Price is an amount in minor currency units. The zero value is an unknown
// price, which is distinct from a known price of zero.
type Price struct {
	Cents int64
	Known bool
}

// PriceFromCents returns a known price.
func PriceFromCents(cents int64) Price {
	return Price{Cents: cents, Known: true}
}

// String renders the price as "12.50", or "" when unknown.
func (p Price) String() string {
	if !p.Known {
		return ""
	}
	sign := ""
	cents := p.Cents
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Lowest returns the smaller of two prices, ignoring unknown ones. Two
// unknown prices yield an unknown price.
func (p Price) Lowest(other Price) Price {
	switch {
	case !p.Known:
		return other
	case !other.Known:
		return p
	case other.Cents < p.Cents:
		return other
	default:
		return p
	}
}

// MarshalJSON encodes an unknown price as null.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Known {
		return []byte("null"), nil
	}
	return json.Marshal(p.String())
}
