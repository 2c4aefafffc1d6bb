package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Refresh Cycle Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.CycleID != "" {
		sb.WriteString(fmt.Sprintf("Cycle: %s | Trigger: %s | State: %s | Duration: %s\n\n",
			r.CycleID, r.Trigger, r.State, r.Duration))
	} else {
		sb.WriteString(fmt.Sprintf("State: %s\n\n", r.State))
	}
	if r.Error != "" {
		sb.WriteString(fmt.Sprintf("**Cycle failed:** %s\n\n", r.Error))
	}

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Records | %d |\n", r.Records))
	sb.WriteString(fmt.Sprintf("| Changed | %d |\n", r.Changed))
	sb.WriteString(fmt.Sprintf("| Added | %d |\n", r.Added))
	sb.WriteString(fmt.Sprintf("| Dropped | %d |\n", r.Dropped))
	sb.WriteString(fmt.Sprintf("| Filtered | %d |\n", r.Filtered))
	sb.WriteString(fmt.Sprintf("| Failed Queries | %d |\n", r.FailedQueries))
	sb.WriteString(fmt.Sprintf("| Enrichment Errors | %d |\n", r.EnrichErrors))
	sb.WriteString(fmt.Sprintf("| Cache Errors | %d |\n", r.CacheErrors))
	sb.WriteString("\n")

	if r.FailedOpen {
		sb.WriteString("Previous snapshot unavailable; every record was treated as changed.\n\n")
	}

	// Top movers
	sb.WriteString("## Top Movers (1h)\n\n")
	if len(r.TopMovers) > 0 {
		sb.WriteString("| Ticker | Address | Price (SOL) | Change 1h | Change 24h | Volume 24h | Liquidity |\n")
		sb.WriteString("|--------|---------|-------------|-----------|------------|------------|-----------|\n")
		for _, t := range r.TopMovers {
			sb.WriteString(fmt.Sprintf("| %s | %s | %.9g | %.2f%% | %.2f%% | %.2f | %.2f |\n",
				escapeCell(t.Ticker), t.Address, t.Price,
				t.PriceChange1h, t.PriceChange24h, t.Volume24h, t.Liquidity))
		}
	} else {
		sb.WriteString("No records available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
