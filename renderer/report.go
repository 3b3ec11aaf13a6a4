package renderer

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/etnz/exposure"
	md "github.com/nao1215/markdown"
)

// ReportRenderOptions holds configuration for rendering an exposure report.
type ReportRenderOptions struct {
	// DustItemizeFloor stops the dust line from naming every symbol once
	// the bucket is worth more than this; zero always itemizes. Callers
	// usually pass the policy's dust aggregation threshold.
	DustItemizeFloor exposure.Money
}

// ReportMarkdown renders a full exposure report to a markdown string: the
// headline figures, one table per stability class, the margin books, the
// dust line and any reconciliation warnings.
func ReportMarkdown(r *exposure.ExposureReport, opts ReportRenderOptions) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Exposure Report")
	if !r.Timestamp.IsZero() {
		doc.PlainText(fmt.Sprintf("Generated at %s.", r.Timestamp.Format("2006-01-02 15:04:05")))
	}
	doc.PlainText(exposure.NewExposureSummary(r).String())

	headline := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{
			md.Bold("Total Portfolio Value"),
			md.Bold(r.TotalPortfolioValue.String()),
			"",
		},
		Rows: [][]string{
			{"Stable Value", r.StableValue.String(), r.StablePercentage.String()},
			{"Non-Stable Value", r.NonStableValue.String(), r.NonStablePercentage.String()},
		},
	}
	if !r.NeutralValue.IsZero() {
		headline.Rows = append(headline.Rows, []string{
			"Neutral Value",
			r.NeutralValue.String(),
			"",
		})
	}
	if !r.MarginExposure.IsZero() {
		headline.Rows = append(headline.Rows, []string{
			"Margin Exposure",
			r.MarginExposure.String(),
			"",
		})
	}
	if !r.UnrealizedPnL.IsZero() {
		headline.Rows = append(headline.Rows, []string{
			"Unrealized PnL",
			r.UnrealizedPnL.SignedString(),
			"",
		})
	}
	doc.Table(headline)

	// Dust stays out of the class tables; it gets its own line below.
	dust := make(map[string]bool, len(r.Dust.Symbols))
	for _, symbol := range r.Dust.Symbols {
		dust[symbol] = true
	}

	renderClassTable(doc, "Stable Assets", r.StableAssets(), dust, false)
	renderClassTable(doc, "Non-Stable Assets", r.NonStableAssets(), dust, true)
	renderClassTable(doc, "Neutral Assets", r.NeutralAssets(), dust, false)

	if margin := r.MarginAssets(); len(margin) > 0 {
		doc.H2("Margin Books")
		table := md.TableSet{
			Alignment: []md.TableAlignment{
				md.AlignLeft,
				md.AlignRight,
				md.AlignRight,
				md.AlignRight,
				md.AlignRight,
				md.AlignLeft,
			},
			Header: []string{"Symbol", "Exposure", "Margin Used", "Net Quantity", "Unrealized PnL", "Platforms"},
		}
		for _, asset := range margin {
			d := asset.MarginDetail
			symbol := asset.Symbol
			if d.DeltaNeutral {
				symbol += " (delta-neutral)"
			}
			table.Rows = append(table.Rows, []string{
				symbol,
				d.ExposureValue().String(),
				moneyCell(d.MarginUsed),
				qtyCell(d.NetQuantity),
				d.UnrealizedPnL.SignedString(),
				strings.Join(d.Sources, ", "),
			})
		}
		doc.Table(table)
	}

	if r.Dust.Count > 0 {
		doc.H2("Dust")
		line := fmt.Sprintf("%d holdings below the reporting floor, %s in total",
			r.Dust.Count, r.Dust.TotalValueUSD)
		if opts.DustItemizeFloor.IsZero() || r.Dust.TotalValueUSD.LessThan(opts.DustItemizeFloor) {
			line += ": " + strings.Join(r.Dust.Symbols, ", ")
		}
		doc.PlainText(line + ".")
	}

	if len(r.Adjustments) > 0 {
		doc.H2("Reconciliation Warnings")
		var lines []string
		for _, adj := range r.Adjustments {
			lines = append(lines, Adjustment(adj))
		}
		doc.OrderedList(lines...)
	}

	return doc.String()
}

// renderClassTable writes one stability-class section. Dust symbols are
// skipped; when nothing is left the whole section is omitted.
func renderClassTable(doc *md.Markdown, title string, assets []*exposure.ConsolidatedAsset, dust map[string]bool, groupShare bool) {
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Symbol", "Value", "Price", "Portfolio"},
	}
	if groupShare {
		table.Alignment = append(table.Alignment, md.AlignRight)
		table.Header = append(table.Header, "Of Non-Stable")
	}

	for _, asset := range assets {
		if dust[asset.Symbol] {
			continue
		}
		row := []string{
			asset.Symbol,
			asset.TotalValueUSD.String(),
			moneyCell(asset.CurrentPrice),
			asset.PercentageOfPortfolio.String(),
		}
		if groupShare {
			row = append(row, pctCell(asset.PercentageOfNonStable))
		}
		table.Rows = append(table.Rows, row)
	}
	if len(table.Rows) == 0 {
		return
	}

	doc.H2(title)
	doc.Table(table)
}
