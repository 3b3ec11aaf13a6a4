package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/etnz/exposure"
)

// RecalcMarkdown renders a saved analysis next to its recalculation under
// the current policy: the headline figures side by side, then the assets
// whose stability class changed.
func RecalcMarkdown(saved, fresh *exposure.ExposureReport) string {
	var b strings.Builder
	ConditionalBlock(&b, func(w io.Writer) bool { return renderRecalcSummary(w, saved, fresh) })
	ConditionalBlock(&b, func(w io.Writer) bool { return renderStabilityChanges(w, saved, fresh) })
	return b.String()
}

func renderRecalcSummary(w io.Writer, saved, fresh *exposure.ExposureReport) bool {
	fmt.Fprintf(w, "# Recalculation of %s\n\n", saved.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(w, "| Metric | Saved | Recalculated |")
	fmt.Fprintln(w, "|:---|---:|---:|")

	row := func(name, was, now string) {
		fmt.Fprintf(w, "| %s | %s | %s |\n", name, was, now)
	}
	row("Total Portfolio Value", saved.TotalPortfolioValue.String(), fresh.TotalPortfolioValue.String())
	row("Stable Value", saved.StableValue.String(), fresh.StableValue.String())
	row("Non-Stable Value", saved.NonStableValue.String(), fresh.NonStableValue.String())
	row("Neutral Value", saved.NeutralValue.String(), fresh.NeutralValue.String())
	row("Margin Exposure", saved.MarginExposure.String(), fresh.MarginExposure.String())
	row("Risk Level",
		string(exposure.NewExposureSummary(saved).RiskLevel),
		string(exposure.NewExposureSummary(fresh).RiskLevel))
	return true
}

// renderStabilityChanges lists the assets whose class flipped between the
// two runs. Recalculation keeps the asset set, so additions and removals
// cannot occur, only reclassification.
func renderStabilityChanges(w io.Writer, saved, fresh *exposure.ExposureReport) bool {
	var rows [][3]string
	for _, symbol := range sortedKeys(fresh.ConsolidatedAssets) {
		was, ok := saved.ConsolidatedAssets[symbol]
		if !ok {
			continue
		}
		now := fresh.ConsolidatedAssets[symbol]
		if was.Stability == now.Stability {
			continue
		}
		rows = append(rows, [3]string{symbol, was.Stability.String(), now.Stability.String()})
	}
	if len(rows) == 0 {
		return false
	}

	fmt.Fprint(w, "\n## Stability Changes\n\n")
	fmt.Fprintln(w, "| Symbol | Was | Now |")
	fmt.Fprintln(w, "|:---|:---|:---|")
	for _, r := range rows {
		fmt.Fprintf(w, "| %s | %s | %s |\n", r[0], r[1], r[2])
	}
	return true
}
