// Package models defines data structures for the enrichment run.
package models

import "time"

// InputRow is one record of the source spreadsheet.
type InputRow struct {
	Line       int    `json:"line"`
	Identifier string `json:"identifier"`
	Title      string `json:"title"`
	Volume     string `json:"volume,omitempty"`
	Creator    string `json:"creator"`
	Details    string `json:"details"`
}

// Item is the normalized result of a product lookup, optionally merged with
// scraped availability.
type Item struct {
	ASIN                   string   `json:"asin"`
	DetailPageURL          string   `json:"detail_page_url"`
	Author                 string   `json:"author"`
	Title                  string   `json:"title"`
	TotalNew               int      `json:"total_new"`
	TotalUsed              int      `json:"total_used"`
	TotalCollectible       int      `json:"total_collectible"`
	LowestNewPrice         Price    `json:"lowest_new_price"`
	LowestUsedPrice        Price    `json:"lowest_used_price"`
	LowestCollectiblePrice Price    `json:"lowest_collectible_price"`
	SoldByPlatform         bool     `json:"sold_by_platform"`
	SoldByPlatformNew      bool     `json:"sold_by_platform_new"`
	AlternateASINs         []string `json:"alternate_asins,omitempty"`
}

// WithScrape returns a copy of the item whose counts and lowest prices are
// replaced by the scraped values. The receiver is left untouched.
func (it *Item) WithScrape(s *ScrapeResult) *Item {
	merged := *it
	if it.AlternateASINs != nil {
		merged.AlternateASINs = append([]string(nil), it.AlternateASINs...)
	}
	if s == nil {
		return &merged
	}
	merged.TotalNew = s.TotalNew
	merged.TotalUsed = s.TotalUsed
	merged.TotalCollectible = s.TotalCollectible
	merged.LowestNewPrice = s.LowestNewPrice
	merged.LowestUsedPrice = s.LowestUsedPrice
	merged.LowestCollectiblePrice = s.LowestCollectiblePrice
	return &merged
}

// ScrapeResult holds the per-condition counts and lowest prices read from a
// product detail page.
type ScrapeResult struct {
	TotalNew               int   `json:"total_new"`
	TotalUsed              int   `json:"total_used"`
	TotalCollectible       int   `json:"total_collectible"`
	LowestNewPrice         Price `json:"lowest_new_price"`
	LowestUsedPrice        Price `json:"lowest_used_price"`
	LowestCollectiblePrice Price `json:"lowest_collectible_price"`
}

// Record is one output row: either an enriched item or a failure.
type Record struct {
	Row               InputRow `json:"row"`
	TransformedAuthor string   `json:"transformed_author"`
	Item              *Item    `json:"item,omitempty"`
	ErrCode           string   `json:"error_code,omitempty"`
	ErrMessage        string   `json:"error_message,omitempty"`
}

// Failed reports whether the record carries an error instead of an item.
func (r *Record) Failed() bool {
	return r.ErrCode != ""
}

// RunResult summarises a whole enrichment run.
type RunResult struct {
	StartTime    time.Time
	EndTime      time.Time
	RowCount     int
	SuccessCount int
	ErrorCount   int
	ErrorsByCode map[string]int
	Interrupted  bool
	OutputFile   string
}
