package exposure

import "sort"

// This file implements the margin offset reconciler, the de-duplication
// stage of the pipeline. Unified-margin exchanges report collateral twice:
// once inside the spot balance (the coins are still in the account) and
// once as margin backing open positions. Reconciliation debits the spot
// side so each collateral dollar is represented exactly once.

// Adjustment records a reconciliation subtraction that could not be applied
// in full: the platform's margin book claims more collateral than its spot
// balance shows. The residual is absorbed (the spot contribution floors at
// zero) but the inconsistency is surfaced to the caller as data.
type Adjustment struct {
	Platform   string `json:"platform"`
	Collateral string `json:"collateral"`
	// Requested is the collateral demand, Applied what the spot balance
	// could cover, Residual the difference.
	Requested Money `json:"requested"`
	Applied   Money `json:"applied"`
	Residual  Money `json:"residual"`
}

// offset is one pending spot debit.
type offset struct {
	platform   string
	collateral string
	amount     Money
}

// Reconcile relocates margin collateral out of the spot balances of
// unified-margin platforms. It returns a fresh consolidated map, leaving
// the input untouched, plus the adjustments for demands the spot side could
// not cover.
//
// Non-unified platforms (Binance above all: its margin wallets are funded
// separately from spot) are left alone, and the synthetic MARGIN_* assets
// keep carrying the collateral value, so the reconciled map sums to the
// true account equity.
func (p Policy) Reconcile(consolidated map[string]*ConsolidatedAsset) (map[string]*ConsolidatedAsset, []Adjustment) {
	out := make(map[string]*ConsolidatedAsset, len(consolidated))
	for symbol, a := range consolidated {
		out[symbol] = a.clone()
	}

	var offsets []offset
	for _, a := range out {
		if a.MarginDetail == nil || len(a.MarginDetail.Collateral) == 0 {
			continue
		}
		// A synthetic margin asset has exactly one contributing platform.
		for platform := range a.Platforms {
			if !p.IsUnifiedMargin(platform) {
				continue
			}
			for symbol, amount := range a.MarginDetail.Collateral {
				if amount.IsPositive() {
					offsets = append(offsets, offset{platform: platform, collateral: symbol, amount: amount})
				}
			}
		}
	}
	sort.Slice(offsets, func(i, j int) bool {
		if offsets[i].platform != offsets[j].platform {
			return offsets[i].platform < offsets[j].platform
		}
		if offsets[i].collateral != offsets[j].collateral {
			return offsets[i].collateral < offsets[j].collateral
		}
		return offsets[i].amount.LessThan(offsets[j].amount)
	})

	var adjustments []Adjustment
	for _, o := range offsets {
		applied := applyOffset(out[p.Unwrap(o.collateral)], o.platform, o.amount)
		if residual := o.amount.Sub(applied); residual.IsPositive() {
			adjustments = append(adjustments, Adjustment{
				Platform:   o.platform,
				Collateral: o.collateral,
				Requested:  o.amount,
				Applied:    applied,
				Residual:   residual,
			})
		}
	}
	return out, adjustments
}

// applyOffset debits up to amount from the platform's contribution to the
// spot asset, floored at zero, and returns how much was actually applied.
// Quantity shrinks proportionally at the asset's implied price.
func applyOffset(spot *ConsolidatedAsset, platform string, amount Money) Money {
	if spot == nil {
		return Money{}
	}
	available, ok := spot.Platforms[platform]
	if !ok || !available.IsPositive() {
		return Money{}
	}
	applied := amount.Min(available)

	impliedPrice := M(1)
	if spot.TotalQuantity.IsPositive() {
		impliedPrice = spot.TotalValueUSD.Div(spot.TotalQuantity)
	}

	spot.Platforms[platform] = available.Sub(applied)
	spot.TotalValueUSD = spot.TotalValueUSD.Sub(applied)
	spot.TotalQuantity = spot.TotalQuantity.Sub(applied.DivPrice(impliedPrice))
	return applied
}
