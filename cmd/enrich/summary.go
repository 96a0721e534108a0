package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/aluiziolira/go-enrich-books/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// summaryRows lays out the run result and the counter totals gathered from
// the metrics registry.
func summaryRows(result *models.RunResult, totals map[string]float64) [][]string {
	rows := [][]string{
		{"Rows processed", strconv.Itoa(result.RowCount)},
		{"Succeeded", strconv.Itoa(result.SuccessCount)},
		{"Failed", strconv.Itoa(result.ErrorCount)},
	}

	codes := make([]string, 0, len(result.ErrorsByCode))
	for code := range result.ErrorsByCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		rows = append(rows, []string{"  " + code, strconv.Itoa(result.ErrorsByCode[code])})
	}

	rows = append(rows,
		[]string{"API calls", formatCount(totals["enrich_api_calls_total"])},
		[]string{"Scrape retries", formatCount(totals["enrich_scrape_retries_total"])},
	)
	if n := totals["enrich_unparsed_error_messages_total"]; n > 0 {
		rows = append(rows, []string{"Unparsed API messages", formatCount(n)})
	}

	duration := result.EndTime.Sub(result.StartTime).Round(time.Millisecond)
	rows = append(rows, []string{"Duration", duration.String()})
	if result.Interrupted {
		rows = append(rows, []string{"Interrupted", "yes"})
	}
	rows = append(rows, []string{"Output file", result.OutputFile})
	return rows
}

func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}

// summaryTable renders rows as a two-column metric/value table. Counts are
// right-aligned; headers keep their case.
func summaryTable(rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.AppendHeader(table.Row{"Metric", "Value"})
	for _, row := range rows {
		var metric, value string
		if len(row) > 0 {
			metric = row[0]
		}
		if len(row) > 1 {
			value = row[1]
		}
		tw.AppendRow(table.Row{metric, value})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func printSummary(w io.Writer, result *models.RunResult, totals map[string]float64) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Enrichment complete")
	fmt.Fprintln(w, summaryTable(summaryRows(result, totals)))
}
