package parser

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-enrich-books/models"
)

// Condition is an offer condition shown on a product page.
type Condition int

const (
	New Condition = iota
	Used
	Collectible
)

func (c Condition) String() string {
	switch c {
	case New:
		return "New"
	case Used:
		return "Used"
	case Collectible:
		return "Collectible"
	default:
		return "Unknown"
	}
}

// ConditionOffers is the count and lowest price for one condition.
type ConditionOffers struct {
	Count  int
	Lowest models.Price
}

// OfferSummary holds the offers read from one block of a product page.
type OfferSummary struct {
	New         ConditionOffers
	Used        ConditionOffers
	Collectible ConditionOffers
}

// Get returns the offers for c.
func (s *OfferSummary) Get(c Condition) *ConditionOffers {
	switch c {
	case Used:
		return &s.Used
	case Collectible:
		return &s.Collectible
	default:
		return &s.New
	}
}

var (
	conditionLabel = regexp.MustCompile(`(\d[\d,]*)\s+(New|Used|Collectible)\b`)
	fromPrice      = regexp.MustCompile(`(?i)\bfrom\s*([^\d\s]{0,5}\s?\d[\d.,]*)`)
)

type labelToken struct {
	pos       int
	condition Condition
	count     int
	price     string
	isPrice   bool
}

// ParseOfferLabels reads labels such as "3 New from $9.99" or "12 Used"
// in document order. A "from <price>" is paired with the closest condition
// label before it, including one from an earlier label. A count with no
// price keeps an unknown price. Repeated counts for one condition keep the
// last value.
func ParseOfferLabels(labels []string) OfferSummary {
	var summary OfferSummary
	last := -1
	for _, label := range labels {
		for _, tok := range tokenize(label) {
			if !tok.isPrice {
				offers := summary.Get(tok.condition)
				offers.Count = tok.count
				last = int(tok.condition)
				continue
			}
			if last < 0 {
				continue
			}
			price, err := ParsePrice(tok.price)
			if err != nil {
				continue
			}
			offers := summary.Get(Condition(last))
			offers.Lowest = offers.Lowest.Lowest(price)
		}
	}
	return summary
}

func tokenize(label string) []labelToken {
	var tokens []labelToken
	for _, m := range conditionLabel.FindAllStringSubmatchIndex(label, -1) {
		count, err := strconv.Atoi(strings.ReplaceAll(label[m[2]:m[3]], ",", ""))
		if err != nil {
			continue
		}
		tokens = append(tokens, labelToken{
			pos:       m[0],
			condition: conditionFromWord(label[m[4]:m[5]]),
			count:     count,
		})
	}
	for _, m := range fromPrice.FindAllStringSubmatchIndex(label, -1) {
		tokens = append(tokens, labelToken{
			pos:     m[0],
			price:   label[m[2]:m[3]],
			isPrice: true,
		})
	}
	sort.SliceStable(tokens, func(i, j int) bool { return tokens[i].pos < tokens[j].pos })
	return tokens
}

func conditionFromWord(word string) Condition {
	switch word {
	case "Used":
		return Used
	case "Collectible":
		return Collectible
	default:
		return New
	}
}
