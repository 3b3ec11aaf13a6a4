package exposure

// This file implements the position aggregator, the first stage of the
// pipeline: raw holdings are folded into per (bucket, symbol) groups with
// netted quantities and reconstructed average prices. The aggregator is a
// pure function; malformed numeric input was already coerced to zero at the
// import boundary, so nothing here can fail.

// Bucket is the aggregation family of a group.
type Bucket int

const (
	// SpotBucket holds plain balances, keyed by their own symbol.
	SpotBucket Bucket = iota
	// CEXMargin holds margin books of known centralized exchanges.
	CEXMargin
	// DEXMargin holds margin books of everything else, typically on-chain
	// perpetual platforms.
	DEXMargin
)

func (b Bucket) String() string {
	switch b {
	case CEXMargin:
		return "cex_margin"
	case DEXMargin:
		return "dex_margin"
	default:
		return "spot"
	}
}

// IsMargin reports whether the bucket aggregates margin positions.
func (b Bucket) IsMargin() bool { return b == CEXMargin || b == DEXMargin }

// GroupKey identifies one aggregation group.
type GroupKey struct {
	Bucket Bucket
	Symbol string
}

// PlatformSlice is one platform's contribution to an aggregated group.
type PlatformSlice struct {
	// Value is the signed spot value contributed by the platform.
	Value Money
	// NetQuantity is the signed position size the platform reported.
	NetQuantity Quantity
	// NetNotional and GrossNotional describe the platform's margin book
	// for this symbol: directional net and absolute face value.
	NetNotional   Money
	GrossNotional Money
	// MarginUsed is collateral posted against open positions; Reserve is
	// collateral parked for margin trading but not posted.
	MarginUsed Money
	Reserve    Money
	// UnrealizedPnL sums the open PnL reported by the platform.
	UnrealizedPnL Money
	// Collateral tracks how much margin collateral the platform consumed,
	// by collateral symbol. The reconciler debits spot balances from it.
	Collateral map[string]Money
}

func (s *PlatformSlice) collateralDemand(symbol string, amount Money) {
	if !amount.IsPositive() {
		return
	}
	if s.Collateral == nil {
		s.Collateral = make(map[string]Money)
	}
	s.Collateral[symbol] = s.Collateral[symbol].Add(amount)
}

// AggregatedGroup is the netted view of one (bucket, symbol) pair across
// every platform that reported it.
type AggregatedGroup struct {
	Bucket Bucket
	Symbol string

	// NetQuantity is the signed sum of quantities; AbsSize the sum of
	// their absolute values (the denominator of the average price).
	NetQuantity Quantity
	AbsSize     Quantity
	// GrossNotional is the summed face value of margin positions.
	GrossNotional Money
	// MarginUsed is the summed posted collateral, floored per position.
	MarginUsed Money
	// UnrealizedPnL is the summed open PnL.
	UnrealizedPnL Money
	// StableHint is set when any contributing source flagged the asset
	// class as stable (earn buckets, reserve collateral).
	StableHint bool

	// Platforms holds the per-platform slices of the group.
	Platforms map[string]*PlatformSlice

	priceVolume Money // Σ reference price × |quantity|
}

// AvgPrice returns the quantity-weighted average reference price across the
// group's positions, or $0 when no sized position carried a price.
func (g *AggregatedGroup) AvgPrice() Money {
	if g.AbsSize.IsZero() {
		return Money{}
	}
	return g.priceVolume.Div(g.AbsSize)
}

// ExposureValue is the gross exposure metric of a margin group: the face
// value of its book when known, otherwise the collateral backing it.
func (g *AggregatedGroup) ExposureValue() Money {
	if g.GrossNotional.IsPositive() {
		return g.GrossNotional
	}
	return g.MarginUsed
}

// SpotValue is the signed value of a spot group summed over platforms.
func (g *AggregatedGroup) SpotValue() Money {
	var total Money
	for _, s := range g.Platforms {
		total = total.Add(s.Value)
	}
	return total
}

func (g *AggregatedGroup) slice(platform string) *PlatformSlice {
	s, ok := g.Platforms[platform]
	if !ok {
		s = &PlatformSlice{}
		g.Platforms[platform] = s
	}
	return s
}

// Aggregate groups raw holdings by (bucket, symbol) and nets them. Margin
// and reserve holdings bucket by platform family: platforms matching the
// policy's CEX tokens land in CEXMargin, everything else in DEXMargin. Spot
// holdings pass through in SpotBucket keyed by their normalized symbol.
func (p Policy) Aggregate(holdings []RawHolding) map[GroupKey]*AggregatedGroup {
	groups := make(map[GroupKey]*AggregatedGroup)

	for _, h := range holdings {
		symbol := NormalizeSymbol(h.Symbol)
		if symbol == "" && h.Category == MarginReserve {
			// reserves frequently arrive as bare collateral amounts
			symbol = NormalizeSymbol(p.DefaultCollateral)
		}
		if symbol == "" {
			continue
		}

		key := GroupKey{Bucket: p.bucketOf(h), Symbol: symbol}
		g, ok := groups[key]
		if !ok {
			g = &AggregatedGroup{
				Bucket:    key.Bucket,
				Symbol:    symbol,
				Platforms: make(map[string]*PlatformSlice),
			}
			groups[key] = g
		}
		g.StableHint = g.StableHint || h.StableHint

		qty := h.SignedQuantity()
		g.NetQuantity = g.NetQuantity.Add(qty)
		g.AbsSize = g.AbsSize.Add(qty.Abs())
		g.priceVolume = g.priceVolume.Add(qty.Abs().Mul(h.ReferencePrice))
		g.UnrealizedPnL = g.UnrealizedPnL.Add(h.UnrealizedPnL)

		s := g.slice(h.Platform)
		s.UnrealizedPnL = s.UnrealizedPnL.Add(h.UnrealizedPnL)

		switch h.Category {
		case MarginPosition:
			margin := h.MarginUsed.Floor()
			g.MarginUsed = g.MarginUsed.Add(margin)
			g.GrossNotional = g.GrossNotional.Add(h.Notional())
			s.MarginUsed = s.MarginUsed.Add(margin)
			s.NetQuantity = s.NetQuantity.Add(qty)
			s.NetNotional = s.NetNotional.Add(h.SignedNotional())
			s.GrossNotional = s.GrossNotional.Add(h.Notional())
			s.collateralDemand(p.CollateralSymbol(h), margin)
		case MarginReserve:
			reserve := h.MarginUsed.Floor()
			if reserve.IsZero() {
				reserve = h.ValueUSD.Floor()
			}
			g.MarginUsed = g.MarginUsed.Add(reserve)
			s.Reserve = s.Reserve.Add(reserve)
			s.collateralDemand(p.CollateralSymbol(h), reserve)
		default:
			s.Value = s.Value.Add(h.ValueUSD)
		}
	}
	return groups
}

// bucketOf routes a holding to its aggregation family.
func (p Policy) bucketOf(h RawHolding) Bucket {
	if !h.Category.IsMargin() {
		return SpotBucket
	}
	if p.IsCEX(h.Platform) {
		return CEXMargin
	}
	return DEXMargin
}
