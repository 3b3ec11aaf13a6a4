package exposure

import "time"

// Tracker encapsulates everything required to turn raw platform holdings
// into a consolidated exposure analysis. It combines the policy driving
// aggregation, reconciliation and classification with the clock used to
// stamp generated reports, and serves as the single entry point for
// producing and refreshing exposure reports.
type Tracker struct {
	Policy Policy

	// Now supplies report timestamps. It defaults to time.Now and exists
	// so tests can pin the clock.
	Now func() time.Time
}

// NewTracker creates a tracker operating under the given policy.
func NewTracker(policy Policy) *Tracker {
	return &Tracker{Policy: policy, Now: time.Now}
}

func (t *Tracker) now() time.Time {
	if t.Now == nil {
		return time.Now()
	}
	return t.Now()
}

// Analyze runs the full consolidation pipeline over raw holdings and
// returns the resulting exposure report.
//
// Holdings are aggregated per symbol, merged across platforms, reconciled
// against double-counted margin collateral, and classified as stable or
// volatile. Prices provide the market quotes recorded in the report's
// snapshot; symbols without a quote fall back to the price implied by
// their own aggregated value. When totalPortfolioValue is zero the sum of
// the reconciled asset values is used instead.
func (t *Tracker) Analyze(holdings []RawHolding, prices map[string]Money, totalPortfolioValue Money) *ExposureReport {
	groups := t.Policy.Aggregate(holdings)
	consolidated := t.Policy.Consolidate(groups)
	reconciled, adjustments := t.Policy.Reconcile(consolidated)
	t.Policy.ClassifyAssets(reconciled)

	if totalPortfolioValue.IsZero() {
		totalPortfolioValue = TotalValue(reconciled)
	}

	report := NewExposureReport(reconciled, adjustments, prices, totalPortfolioValue, t.Policy)
	report.Timestamp = t.now()
	return report
}

// Recalculate rebuilds a report from its own consolidated assets, applying
// the tracker's current policy. Classification, percentages, dust grouping
// and the headline figures are recomputed; aggregation and reconciliation
// results are preserved as recorded, since the raw positions behind them
// are no longer available.
func (t *Tracker) Recalculate(saved *ExposureReport) *ExposureReport {
	consolidated := make(map[string]*ConsolidatedAsset, len(saved.ConsolidatedAssets))
	for symbol, asset := range saved.ConsolidatedAssets {
		consolidated[symbol] = asset.clone()
	}
	t.Policy.ClassifyAssets(consolidated)

	report := NewExposureReport(consolidated, saved.Adjustments, saved.PricesSnapshot, saved.TotalPortfolioValue, t.Policy)
	report.Timestamp = t.now()
	return report
}

// TotalValue sums the consolidated value of every asset in the map.
func TotalValue(consolidated map[string]*ConsolidatedAsset) Money {
	var total Money
	for _, asset := range consolidated {
		total = total.Add(asset.TotalValueUSD)
	}
	return total
}
