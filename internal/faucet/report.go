package faucet

import (
	"fmt"
	"html"
	"strings"

	"rotchain-bot/internal/domain"
)

const reportMaxLines = 10

// FormatReport summarizes a run for the chat.
func FormatReport(report domain.ProbeReport) string {
	if len(report.Results) == 0 {
		return "🚰 Faucet: no endpoints configured."
	}

	total := len(report.Results)
	lines := []string{fmt.Sprintf("🚰 Faucet run: OK %d/%d endpoints", report.Succeeded(), total)}
	for _, r := range report.Results[:min(total, reportMaxLines)] {
		lines = append(lines, fmt.Sprintf("• %s %s → %d (%d ms)",
			r.Method, html.EscapeString(r.URL), r.Status, r.Elapsed.Milliseconds()))
	}
	if total > reportMaxLines {
		lines = append(lines, fmt.Sprintf("… and %d more endpoints.", total-reportMaxLines))
	}
	return strings.Join(lines, "\n")
}
