package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-enrich-books/config"
	"github.com/aluiziolira/go-enrich-books/models"
	"github.com/aluiziolira/go-enrich-books/parser"
)

const kindleVersion = "Kindle"

// Parse extracts offer counts and lowest prices from a product page. The
// version swatches and the other-offers panel are independent sources:
// their counts are summed and their prices reduced to the lowest known
// value. Missing blocks contribute nothing.
func Parse(doc *goquery.Document, sel config.Selectors) *models.ScrapeResult {
	var result models.ScrapeResult

	doc.Find(sel.Versions).Each(func(_ int, version *goquery.Selection) {
		if sel.KindleBonus && sel.VersionName != "" {
			name := strings.TrimSpace(version.Find(sel.VersionName).First().Text())
			if name == kindleVersion {
				result.TotalNew++
			}
		}
		addOffers(&result, parser.ParseOfferLabels(labelTexts(version.Find(sel.VersionLabels))))
	})

	if panel := doc.Find(sel.OffersPanel).First(); panel.Length() > 0 {
		addOffers(&result, parser.ParseOfferLabels(labelTexts(panel.Find(sel.OffersLabels))))
	}

	return &result
}

func addOffers(result *models.ScrapeResult, s parser.OfferSummary) {
	result.TotalNew += s.New.Count
	result.TotalUsed += s.Used.Count
	result.TotalCollectible += s.Collectible.Count
	result.LowestNewPrice = result.LowestNewPrice.Lowest(s.New.Lowest)
	result.LowestUsedPrice = result.LowestUsedPrice.Lowest(s.Used.Lowest)
	result.LowestCollectiblePrice = result.LowestCollectiblePrice.Lowest(s.Collectible.Lowest)
}

func labelTexts(sel *goquery.Selection) []string {
	texts := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(s.Text()))
	})
	return texts
}
