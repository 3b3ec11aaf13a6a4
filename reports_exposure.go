package exposure

import (
	"sort"
	"time"
)

// ExposureReport is the final output of an analysis run: classified,
// reconciled assets folded into portfolio-level totals. It exposes data
// only; rendering belongs to the renderer package.
//
// The report upholds two invariants, both covered by tests: the three
// class values sum to the portfolio total, and every asset's platform map
// sums to its total value. Everything the accessors serve is derived from
// exported fields, so a report decoded from disk behaves exactly like a
// freshly built one.
type ExposureReport struct {
	// Timestamp is stamped by the Tracker when the analysis ran.
	Timestamp time.Time `json:"analysis_timestamp"`

	// TotalPortfolioValue is supplied by the caller: the engine never
	// recomputes account equity, it only breaks it down.
	TotalPortfolioValue Money `json:"total_portfolio_value"`
	StableValue         Money `json:"stable_value"`
	NonStableValue      Money `json:"non_stable_value"`
	// NeutralValue is the remainder the engine cannot attribute: balances
	// of unknown composition plus anything upstream never itemized.
	NeutralValue Money `json:"neutral_value"`
	// MarginExposure is the gross face value of the consolidated margin
	// books, as opposed to the collateral counted in the totals above.
	MarginExposure Money `json:"margin_exposure"`
	UnrealizedPnL  Money `json:"total_unrealized_pnl"`

	StablePercentage    Percent `json:"stable_percentage"`
	NonStablePercentage Percent `json:"non_stable_percentage"`

	AssetCount          int `json:"asset_count"`
	StableAssetCount    int `json:"stable_asset_count"`
	NonStableAssetCount int `json:"non_stable_asset_count"`
	NeutralAssetCount   int `json:"neutral_asset_count"`

	// ConsolidatedAssets holds every asset, dust included.
	ConsolidatedAssets map[string]*ConsolidatedAsset `json:"consolidated_assets"`

	// Dust aggregates the assets below the policy's major floor; their
	// value stays inside the class totals above.
	Dust DustBucket `json:"dust"`

	// Adjustments surface reconciliation demands the spot balances could
	// not cover. Empty on consistent input.
	Adjustments []Adjustment `json:"adjustments,omitempty"`

	// PricesSnapshot is the price map the run used, kept so a later run
	// can reload and recompute the same analysis.
	PricesSnapshot map[string]Money `json:"crypto_prices_snapshot,omitempty"`
}

// DustBucket aggregates sub-threshold holdings into one line.
type DustBucket struct {
	Count         int      `json:"count"`
	TotalValueUSD Money    `json:"total_value_usd"`
	Symbols       []string `json:"symbols,omitempty"`
}

// assets returns the report's assets matching keep, largest first.
func (r *ExposureReport) assets(keep func(*ConsolidatedAsset) bool) []*ConsolidatedAsset {
	var out []*ConsolidatedAsset
	for _, a := range sortedAssets(r.ConsolidatedAssets) {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

// StableAssets returns the stable assets, largest first.
func (r *ExposureReport) StableAssets() []*ConsolidatedAsset {
	return r.assets(func(a *ConsolidatedAsset) bool { return a.Stability.IsStable() })
}

// NonStableAssets returns the volatile assets, largest first.
func (r *ExposureReport) NonStableAssets() []*ConsolidatedAsset {
	return r.assets(func(a *ConsolidatedAsset) bool { return a.Stability.IsVolatile() })
}

// NeutralAssets returns the unknown-composition assets, largest first.
func (r *ExposureReport) NeutralAssets() []*ConsolidatedAsset {
	return r.assets(func(a *ConsolidatedAsset) bool { return a.Stability.IsMixed() })
}

// MarginAssets returns the assets carrying a margin book, largest first.
func (r *ExposureReport) MarginAssets() []*ConsolidatedAsset {
	return r.assets(func(a *ConsolidatedAsset) bool { return a.MarginDetail != nil })
}

// MajorAssets returns the assets above the policy's major floor, largest
// first, across all classes.
func (r *ExposureReport) MajorAssets() []*ConsolidatedAsset {
	dust := make(map[string]bool, len(r.Dust.Symbols))
	for _, s := range r.Dust.Symbols {
		dust[s] = true
	}
	return r.assets(func(a *ConsolidatedAsset) bool { return !dust[a.Symbol] })
}

// NewExposureReport folds a classified, reconciled asset map into the
// final report. totalPortfolioValue is the externally supplied account
// equity; a non-positive total yields zero percentages rather than an
// error, one bad upstream number must not abort the whole report.
func NewExposureReport(consolidated map[string]*ConsolidatedAsset, adjustments []Adjustment, prices map[string]Money, totalPortfolioValue Money, policy Policy) *ExposureReport {
	r := &ExposureReport{
		TotalPortfolioValue: totalPortfolioValue,
		ConsolidatedAssets:  consolidated,
		Adjustments:         adjustments,
		PricesSnapshot:      prices,
	}

	assets := sortedAssets(consolidated)
	floor := M(policy.MajorAssetFloor)

	var nonStableGroup []*ConsolidatedAsset
	for _, a := range assets {
		a.CurrentPrice, a.ImpliedPrice = resolvePrice(a, prices)
		a.PercentageOfPortfolio = PercentOf(a.TotalValueUSD, totalPortfolioValue)

		switch a.Stability {
		case Stable:
			r.StableAssetCount++
			r.StableValue = r.StableValue.Add(a.TotalValueUSD)
		case Volatile:
			r.NonStableAssetCount++
			r.NonStableValue = r.NonStableValue.Add(a.TotalValueUSD)
			nonStableGroup = append(nonStableGroup, a)
		default:
			r.NeutralAssetCount++
		}

		if a.MarginDetail != nil {
			r.MarginExposure = r.MarginExposure.Add(a.MarginDetail.ExposureValue())
			r.UnrealizedPnL = r.UnrealizedPnL.Add(a.MarginDetail.UnrealizedPnL)
		}

		if !a.TotalValueUSD.Abs().GreaterThanOrEqual(floor) {
			r.Dust.Count++
			r.Dust.TotalValueUSD = r.Dust.TotalValueUSD.Add(a.TotalValueUSD)
			r.Dust.Symbols = append(r.Dust.Symbols, a.Symbol)
		}
	}

	// The neutral share is a remainder, not a sum: it also captures value
	// upstream reported in the total but never itemized as a holding.
	r.NeutralValue = totalPortfolioValue.Sub(r.StableValue).Sub(r.NonStableValue)
	r.StablePercentage = PercentOf(r.StableValue, totalPortfolioValue)
	r.NonStablePercentage = PercentOf(r.NonStableValue, totalPortfolioValue)

	r.AssetCount = len(assets)

	groupPercentages(nonStableGroup)

	return r
}

// resolvePrice picks the display price for an asset: the market price when
// the snapshot has one, otherwise the price its own value and quantity
// imply, otherwise $1.00 for recognized stablecoins.
func resolvePrice(a *ConsolidatedAsset, prices map[string]Money) (current, implied Money) {
	if p, ok := prices[a.Symbol]; ok && p.IsPositive() {
		return p, Money{}
	}
	if implied = a.ImpliedUnitPrice(); implied.IsPositive() {
		return implied, implied
	}
	if a.Stability.IsStable() {
		return M(1), Money{}
	}
	return Money{}, Money{}
}

// groupPercentages fills PercentageOfNonStable. The denominator sums
// positive values only: with a borrowed (negative) asset in the group, a
// full sum would shrink the base and push long positions past 100%.
// Negative assets themselves carry no percentage.
func groupPercentages(group []*ConsolidatedAsset) {
	var positive Money
	for _, a := range group {
		if a.TotalValueUSD.IsPositive() {
			positive = positive.Add(a.TotalValueUSD)
		}
	}
	for _, a := range group {
		if a.TotalValueUSD.IsPositive() {
			a.PercentageOfNonStable = PercentOf(a.TotalValueUSD, positive)
		} else {
			a.PercentageOfNonStable = 0
		}
	}
}

// sortedAssets returns the assets ordered by descending value, symbol as
// tie break, so every traversal of the report is deterministic.
func sortedAssets(consolidated map[string]*ConsolidatedAsset) []*ConsolidatedAsset {
	assets := make([]*ConsolidatedAsset, 0, len(consolidated))
	for _, a := range consolidated {
		assets = append(assets, a)
	}
	sort.Slice(assets, func(i, j int) bool {
		if !assets[i].TotalValueUSD.Equal(assets[j].TotalValueUSD) {
			return assets[j].TotalValueUSD.LessThan(assets[i].TotalValueUSD)
		}
		return assets[i].Symbol < assets[j].Symbol
	})
	return assets
}
