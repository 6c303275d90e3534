// Package cli provides CLI utilities for Kaimono.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/hyperjump/kaimono/internal/insights"
	"github.com/hyperjump/kaimono/internal/models"
	"github.com/hyperjump/kaimono/pkg/utils"
)

// OutputFormat is the format for CLI output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// WriteAnswer writes a question's answer and its supporting matches to w in
// the given format. Use OutputJSON for parseable output consumable by other
// apps.
func WriteAnswer(w io.Writer, question, answer string, matches []models.Match, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"question": question,
			"answer":   answer,
			"matches":  matches,
		})
	}
	writeAnswerText(w, answer, matches)
	return nil
}

func writeAnswerText(w io.Writer, answer string, matches []models.Match) {
	fmt.Fprintf(w, "\n%s\n\n", color.CyanString(answer))
	if len(matches) == 0 {
		return
	}
	fmt.Fprintf(w, "Based on %d matching records:\n", len(matches))
	for _, m := range matches {
		line := fmt.Sprintf("  %.4f  %s", m.Score, utils.Truncate(m.Metadata.Text, 80))
		if m.Metadata.Merchant != nil && *m.Metadata.Merchant != "" {
			line += fmt.Sprintf("  (%s", *m.Metadata.Merchant)
			if m.Metadata.Date != nil {
				line += ", " + *m.Metadata.Date
			}
			line += ")"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
}

// WriteInsights writes a spending report to w in the given format.
func WriteInsights(w io.Writer, rep insights.Report, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	fmt.Fprintf(w, "\n%s\n", color.CyanString("Spending insights"))
	fmt.Fprintf(w, "  Records: %d (%d priced)\n", rep.RecordCount, rep.PricedCount)
	fmt.Fprintf(w, "  Total spend: %.2f   Mean: %.2f\n", rep.TotalSpend, rep.MeanSpend)
	if rep.FirstDate != "" {
		fmt.Fprintf(w, "  Dates: %s to %s\n", rep.FirstDate, rep.LastDate)
	}
	if len(rep.TopMerchants) > 0 {
		fmt.Fprintf(w, "\n%s\n", color.YellowString("Top merchants"))
		for _, ms := range rep.TopMerchants {
			fmt.Fprintf(w, "  %-24s %8.2f  (%d purchases)\n", ms.Merchant, ms.Total, ms.Count)
		}
	}
	if len(rep.TopItems) > 0 {
		fmt.Fprintf(w, "\n%s\n", color.YellowString("Top items"))
		for _, ic := range rep.TopItems {
			fmt.Fprintf(w, "  %-24s x%d\n", ic.Item, ic.Count)
		}
	}
	fmt.Fprintln(w)
	return nil
}

// PrintAnswer prints an answer to stdout in text format.
func PrintAnswer(question, answer string, matches []models.Match) {
	_ = WriteAnswer(os.Stdout, question, answer, matches, OutputText)
}
