package productapi

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-enrich-books/models"
	"github.com/aluiziolira/go-enrich-books/parser"
)

// Element names are matched on their local part, so documents with or
// without the service namespace decode the same way.

type errorElement struct {
	Code    string `xml:"Code"`
	Message string `xml:"Message"`
}

type itemsDocument struct {
	Items struct {
		Item []itemElement `xml:"Item"`
	} `xml:"Items"`
}

type itemElement struct {
	ASIN           string `xml:"ASIN"`
	DetailPageURL  string `xml:"DetailPageURL"`
	ItemAttributes struct {
		Author []string `xml:"Author"`
		Title  []string `xml:"Title"`
	} `xml:"ItemAttributes"`
	OfferSummary struct {
		LowestNewPrice         *priceElement `xml:"LowestNewPrice"`
		LowestUsedPrice        *priceElement `xml:"LowestUsedPrice"`
		LowestCollectiblePrice *priceElement `xml:"LowestCollectiblePrice"`
		TotalNew               string        `xml:"TotalNew"`
		TotalUsed              string        `xml:"TotalUsed"`
		TotalCollectible       string        `xml:"TotalCollectible"`
	} `xml:"OfferSummary"`
	AlternateVersions struct {
		AlternateVersion []struct {
			ASIN string `xml:"ASIN"`
		} `xml:"AlternateVersion"`
	} `xml:"AlternateVersions"`
	Offers struct {
		Offer []offerElement `xml:"Offer"`
	} `xml:"Offers"`
}

type priceElement struct {
	Amount         string `xml:"Amount"`
	CurrencyCode   string `xml:"CurrencyCode"`
	FormattedPrice string `xml:"FormattedPrice"`
}

type offerElement struct {
	Merchant *struct {
		Name string `xml:"Name"`
	} `xml:"Merchant"`
	OfferAttributes *struct {
		Condition string `xml:"Condition"`
	} `xml:"OfferAttributes"`
}

// DecodeSearch returns the identifier of the first item in an ItemSearch
// response.
func DecodeSearch(r io.Reader) (string, error) {
	item, raw, err := decodeFirstItem(r)
	if err != nil {
		return "", err
	}
	asin := strings.TrimSpace(item.ASIN)
	if asin == "" {
		return "", noItems(raw)
	}
	return asin, nil
}

// DecodeLookup returns the first item of an ItemLookup response. storefront
// is the merchant name that counts as the platform selling directly.
func DecodeLookup(r io.Reader, storefront string) (*models.Item, error) {
	el, _, err := decodeFirstItem(r)
	if err != nil {
		return nil, err
	}

	item := &models.Item{
		ASIN:          strings.TrimSpace(el.ASIN),
		DetailPageURL: strings.TrimSpace(el.DetailPageURL),
		Author:        lastText(el.ItemAttributes.Author),
		Title:         lastText(el.ItemAttributes.Title),
	}

	summary := el.OfferSummary
	if item.TotalNew, err = parseCount("TotalNew", summary.TotalNew); err != nil {
		return nil, err
	}
	if item.TotalUsed, err = parseCount("TotalUsed", summary.TotalUsed); err != nil {
		return nil, err
	}
	if item.TotalCollectible, err = parseCount("TotalCollectible", summary.TotalCollectible); err != nil {
		return nil, err
	}
	item.LowestNewPrice = summary.LowestNewPrice.price()
	item.LowestUsedPrice = summary.LowestUsedPrice.price()
	item.LowestCollectiblePrice = summary.LowestCollectiblePrice.price()

	for _, v := range el.AlternateVersions.AlternateVersion {
		if asin := strings.TrimSpace(v.ASIN); asin != "" {
			item.AlternateASINs = append(item.AlternateASINs, asin)
		}
	}

	// Each offer with a merchant overwrites the platform flag; the
	// condition flag is only updated while the flag is set.
	for _, offer := range el.Offers.Offer {
		if offer.Merchant != nil {
			item.SoldByPlatform = strings.TrimSpace(offer.Merchant.Name) == storefront
		}
		if item.SoldByPlatform && offer.OfferAttributes != nil {
			item.SoldByPlatformNew = strings.TrimSpace(offer.OfferAttributes.Condition) == "New"
		}
	}

	return item, nil
}

// DecodeErrors returns the first error element of a response document as a
// classified error. It returns nil when the document reports no error and a
// plain decode error when the document is not well formed.
func DecodeErrors(data []byte) error {
	errs, err := scanErrors(data)
	if len(errs) > 0 {
		first := errs[0]
		return MapError(&Error{
			Code:    strings.TrimSpace(first.Code),
			Message: strings.TrimSpace(first.Message),
			Raw:     data,
		})
	}
	return err
}

func decodeFirstItem(r io.Reader) (*itemElement, []byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	if err := DecodeErrors(data); err != nil {
		return nil, data, err
	}

	var doc itemsDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, data, fmt.Errorf("decode response: %w", err)
	}
	if len(doc.Items.Item) == 0 {
		return nil, data, noItems(data)
	}
	return &doc.Items.Item[0], data, nil
}

func scanErrors(data []byte) ([]errorElement, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var found []errorElement
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return found, nil
		}
		if err != nil {
			return found, fmt.Errorf("decode response: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "Error" {
			continue
		}
		var el errorElement
		if err := dec.DecodeElement(&el, &start); err != nil {
			return found, fmt.Errorf("decode error element: %w", err)
		}
		found = append(found, el)
	}
}

func noItems(raw []byte) error {
	return &Error{
		Kind:    KindNoExactMatchesFound,
		Code:    "AWS.ECommerceService.NoExactMatches",
		Message: "response contained no items",
		Raw:     raw,
	}
}

func (p *priceElement) price() models.Price {
	if p == nil {
		return models.Price{}
	}
	if cents, err := strconv.ParseInt(strings.TrimSpace(p.Amount), 10, 64); err == nil {
		return models.PriceFromCents(cents)
	}
	if price, err := parser.ParsePrice(p.FormattedPrice); err == nil {
		return price
	}
	return models.Price{}
}

func parseCount(field, text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", field, err)
	}
	return n, nil
}

func lastText(values []string) string {
	for i := len(values) - 1; i >= 0; i-- {
		if v := strings.TrimSpace(values[i]); v != "" {
			return v
		}
	}
	return ""
}
