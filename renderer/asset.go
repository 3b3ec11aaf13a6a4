package renderer

import (
	"fmt"
	"strings"

	"github.com/etnz/exposure"
)

// AssetMarkdown renders the drill-down view of a single consolidated asset:
// its headline figures, the per-platform breakdown, and the margin book when
// the asset carries one.
func AssetMarkdown(a *exposure.ConsolidatedAsset) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", a.Symbol)
	if a.Hint != "" {
		fmt.Fprintf(&b, "Classified %s (upstream hint %q).\n\n", a.Stability, a.Hint)
	} else {
		fmt.Fprintf(&b, "Classified %s.\n\n", a.Stability)
	}

	fmt.Fprintln(&b, "| Metric | Value |")
	fmt.Fprintln(&b, "|:---|---:|")
	fmt.Fprintf(&b, "| Total Value | %s |\n", a.TotalValueUSD)
	if !a.TotalQuantity.IsZero() {
		fmt.Fprintf(&b, "| Quantity | %s |\n", a.TotalQuantity)
	}
	if !a.CurrentPrice.IsZero() {
		fmt.Fprintf(&b, "| Current Price | %s |\n", a.CurrentPrice)
	}
	if !a.ImpliedPrice.IsZero() {
		fmt.Fprintf(&b, "| Implied Price | %s |\n", a.ImpliedPrice)
	}
	fmt.Fprintf(&b, "| Of Portfolio | %s |\n", a.PercentageOfPortfolio)
	if a.PercentageOfNonStable != 0 {
		fmt.Fprintf(&b, "| Of Non-Stable | %s |\n", a.PercentageOfNonStable)
	}

	if len(a.Platforms) > 0 {
		fmt.Fprint(&b, "\n## Platforms\n\n")
		fmt.Fprintln(&b, "| Platform | Value |")
		fmt.Fprintln(&b, "|:---|---:|")
		for _, platform := range sortedKeys(a.Platforms) {
			fmt.Fprintf(&b, "| %s | %s |\n", platform, a.Platforms[platform])
		}
	}

	if d := a.MarginDetail; d != nil {
		fmt.Fprint(&b, "\n## Margin\n\n")
		fmt.Fprintln(&b, "| Metric | Value |")
		fmt.Fprintln(&b, "|:---|---:|")
		fmt.Fprintf(&b, "| Gross Notional | %s |\n", d.GrossNotional)
		fmt.Fprintf(&b, "| Margin Used | %s |\n", d.MarginUsed)
		fmt.Fprintf(&b, "| Net Quantity | %s |\n", d.NetQuantity)
		fmt.Fprintf(&b, "| Unrealized PnL | %s |\n", d.UnrealizedPnL.SignedString())
		if d.DeltaNeutral {
			fmt.Fprintln(&b, "| Delta Neutral | yes |")
		}
		for _, symbol := range sortedKeys(d.Collateral) {
			fmt.Fprintf(&b, "| Collateral (%s) | %s |\n", symbol, d.Collateral[symbol])
		}
		if len(d.Sources) > 0 {
			fmt.Fprintf(&b, "\nHeld on %s.\n", strings.Join(d.Sources, ", "))
		}
	}

	return b.String()
}
