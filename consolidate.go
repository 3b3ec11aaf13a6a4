package exposure

import (
	"maps"
	"slices"
	"sort"
)

// MarginDetail describes the margin book behind a consolidated asset.
type MarginDetail struct {
	// NetQuantity is the signed sum of position sizes across sources.
	NetQuantity Quantity `json:"net_quantity"`
	// GrossNotional is the summed face value of the open positions.
	GrossNotional Money `json:"gross_notional"`
	// MarginUsed is the collateral backing the book; for reserve assets it
	// is the idle collateral itself.
	MarginUsed Money `json:"margin_used"`
	// UnrealizedPnL is the summed open PnL.
	UnrealizedPnL Money `json:"unrealized_pnl"`
	// Sources lists the contributing platforms, sorted.
	Sources []string `json:"sources"`
	// DeltaNeutral is set when every underlying of the book nets out
	// within the policy ratio; such books are classified stable.
	DeltaNeutral bool `json:"delta_neutral,omitempty"`

	// Collateral is the margin collateral demand by collateral symbol.
	// The reconciler debits unified-platform spot balances from it.
	Collateral map[string]Money `json:"collateral,omitempty"`
}

// ExposureValue is the gross exposure the book represents: its face value
// when known, otherwise the collateral backing it.
func (d *MarginDetail) ExposureValue() Money {
	if d.GrossNotional.IsPositive() {
		return d.GrossNotional
	}
	return d.MarginUsed
}

func (d *MarginDetail) clone() *MarginDetail {
	if d == nil {
		return nil
	}
	c := *d
	c.Sources = slices.Clone(d.Sources)
	c.Collateral = maps.Clone(d.Collateral)
	return &c
}

// ConsolidatedAsset is the engine's view of one asset across every platform
// and wallet, after wrapped-token normalization.
type ConsolidatedAsset struct {
	Symbol        string   `json:"symbol"`
	TotalValueUSD Money    `json:"total_value_usd"`
	TotalQuantity Quantity `json:"total_quantity"`
	// Stability is assigned by the classifier stage.
	Stability Stability `json:"is_stable"`
	// Platforms maps each platform to its signed value contribution; the
	// entries always sum to TotalValueUSD.
	Platforms map[string]Money `json:"platforms"`
	// MarginDetail is nil unless the asset originated from margin or
	// perpetual positions.
	MarginDetail *MarginDetail `json:"margin_detail,omitempty"`

	// Hint is the upstream category when one exists; "stable" short
	// circuits classification for earn buckets, reserve collateral and
	// delta-neutral books.
	Hint string `json:"hint,omitempty"`

	// Fields below are filled by the report builder.
	CurrentPrice          Money   `json:"current_price"`
	ImpliedPrice          Money   `json:"implied_price,omitzero"`
	PercentageOfPortfolio Percent `json:"percentage_of_portfolio"`
	PercentageOfNonStable Percent `json:"percentage_of_non_stable,omitempty"`
}

// PlatformSum returns the sum of per-platform contributions. It must equal
// TotalValueUSD for every asset the engine emits.
func (a *ConsolidatedAsset) PlatformSum() Money {
	var total Money
	for _, v := range a.Platforms {
		total = total.Add(v)
	}
	return total
}

// ImpliedUnitPrice returns value/quantity when both are positive, else $0.
func (a *ConsolidatedAsset) ImpliedUnitPrice() Money {
	if a.TotalQuantity.IsPositive() && a.TotalValueUSD.IsPositive() {
		return a.TotalValueUSD.Div(a.TotalQuantity)
	}
	return Money{}
}

func (a *ConsolidatedAsset) clone() *ConsolidatedAsset {
	c := *a
	c.Platforms = maps.Clone(a.Platforms)
	c.MarginDetail = a.MarginDetail.clone()
	return &c
}

// contribute adds a platform's share to the asset, keeping the platform
// map and the total in lockstep.
func (a *ConsolidatedAsset) contribute(platform string, value Money) {
	a.Platforms[platform] = a.Platforms[platform].Add(value)
	a.TotalValueUSD = a.TotalValueUSD.Add(value)
}

// Consolidate merges aggregated groups into one asset per symbol. Spot
// groups merge by unwrapped symbol; margin books and idle reserves become
// synthetic MARGIN_* and MARGIN_RESERVE_* assets per platform, valued at
// the collateral that backs them (face value stays in MarginDetail, so a
// 10x leveraged book never inflates the portfolio total).
func (p Policy) Consolidate(groups map[GroupKey]*AggregatedGroup) map[string]*ConsolidatedAsset {
	consolidated := make(map[string]*ConsolidatedAsset)

	asset := func(symbol string) *ConsolidatedAsset {
		a, ok := consolidated[symbol]
		if !ok {
			a = &ConsolidatedAsset{Symbol: symbol, Platforms: make(map[string]Money)}
			consolidated[symbol] = a
		}
		return a
	}

	deltaNeutral := p.deltaNeutralPlatforms(groups)

	for _, g := range groups {
		if !g.Bucket.IsMargin() {
			a := asset(p.Unwrap(g.Symbol))
			a.TotalQuantity = a.TotalQuantity.Add(g.NetQuantity)
			if g.StableHint {
				a.Hint = "stable"
			}
			for platform, s := range g.Platforms {
				a.contribute(platform, s.Value)
			}
			continue
		}

		for platform, s := range g.Platforms {
			if s.MarginUsed.IsPositive() || s.GrossNotional.IsPositive() {
				a := asset(MarginSymbol(platform, false))
				a.contribute(platform, s.MarginUsed)
				if a.MarginDetail == nil {
					a.MarginDetail = &MarginDetail{DeltaNeutral: deltaNeutral[platform]}
				}
				d := a.MarginDetail
				d.NetQuantity = d.NetQuantity.Add(s.NetQuantity)
				d.GrossNotional = d.GrossNotional.Add(s.GrossNotional)
				d.MarginUsed = d.MarginUsed.Add(s.MarginUsed)
				d.UnrealizedPnL = d.UnrealizedPnL.Add(s.UnrealizedPnL)
				d.addSource(platform)
				d.addCollateral(s.Collateral)
				if d.DeltaNeutral {
					a.Hint = "stable"
				}
			}
			if s.Reserve.IsPositive() {
				a := asset(MarginSymbol(platform, true))
				a.contribute(platform, s.Reserve)
				a.Hint = "stable"
				if a.MarginDetail == nil {
					a.MarginDetail = &MarginDetail{DeltaNeutral: true}
				}
				a.MarginDetail.MarginUsed = a.MarginDetail.MarginUsed.Add(s.Reserve)
				a.MarginDetail.addSource(platform)
				if !s.MarginUsed.IsPositive() && !s.GrossNotional.IsPositive() {
					a.MarginDetail.addCollateral(s.Collateral)
				}
			}
		}
	}

	return consolidated
}

func (d *MarginDetail) addSource(platform string) {
	if slices.Contains(d.Sources, platform) {
		return
	}
	d.Sources = append(d.Sources, platform)
	sort.Strings(d.Sources)
}

func (d *MarginDetail) addCollateral(demand map[string]Money) {
	if len(demand) == 0 {
		return
	}
	if d.Collateral == nil {
		d.Collateral = make(map[string]Money)
	}
	for symbol, amount := range demand {
		d.Collateral[symbol] = d.Collateral[symbol].Add(amount)
	}
}

// deltaNeutralPlatforms inspects every platform's whole margin book: a book
// is delta neutral when each of its underlying symbols nets out within the
// policy ratio of its gross. Empty books don't qualify.
func (p Policy) deltaNeutralPlatforms(groups map[GroupKey]*AggregatedGroup) map[string]bool {
	type book struct {
		positions bool
		neutral   bool
	}
	books := make(map[string]*book)

	for _, g := range groups {
		if !g.Bucket.IsMargin() {
			continue
		}
		for platform, s := range g.Platforms {
			b, ok := books[platform]
			if !ok {
				b = &book{neutral: true}
				books[platform] = b
			}
			if !s.GrossNotional.IsPositive() {
				continue
			}
			b.positions = true
			ratio := s.NetNotional.Abs().AsFloat() / s.GrossNotional.AsFloat()
			if ratio > p.DeltaNeutralRatio {
				b.neutral = false
			}
		}
	}

	neutral := make(map[string]bool, len(books))
	for platform, b := range books {
		neutral[platform] = b.positions && b.neutral
	}
	return neutral
}
