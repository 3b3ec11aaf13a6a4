package exposure

import "testing"

func TestAggregate_SpotNetting(t *testing.T) {
	p := DefaultPolicy()
	holdings := []RawHolding{
		{Symbol: "ETH", Platform: "Binance", ValueUSD: M(3000), Quantity: Q(1), ReferencePrice: M(3000)},
		{Symbol: "eth", Platform: "Aave", ValueUSD: M(-1500), Quantity: Q(-0.5), ReferencePrice: M(3000)},
	}

	groups := p.Aggregate(holdings)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	g := groups[GroupKey{Bucket: SpotBucket, Symbol: "ETH"}]
	if g == nil {
		t.Fatal("missing spot ETH group")
	}
	if !g.NetQuantity.Equal(Q(0.5)) {
		t.Errorf("NetQuantity = %v, want 0.5", g.NetQuantity)
	}
	if !g.SpotValue().Equal(M(1500)) {
		t.Errorf("SpotValue() = %v, want $1,500", g.SpotValue())
	}
	if !g.AvgPrice().Equal(M(3000)) {
		t.Errorf("AvgPrice() = %v, want $3,000", g.AvgPrice())
	}
	if v := g.Platforms["Binance"].Value; !v.Equal(M(3000)) {
		t.Errorf("Binance slice value = %v, want $3,000", v)
	}
	if v := g.Platforms["Aave"].Value; !v.Equal(M(-1500)) {
		t.Errorf("Aave slice value = %v, want -$1,500", v)
	}
}

func TestAggregate_MarginBook(t *testing.T) {
	p := DefaultPolicy()
	holdings := []RawHolding{
		{Symbol: "BTC", Platform: "Bybit", Category: MarginPosition,
			ValueUSD: M(10000), Quantity: Q(0.1), MarginUsed: M(1000), UnrealizedPnL: M(50)},
		{Symbol: "BTC", Platform: "Bybit", Category: MarginPosition, Direction: Short,
			ValueUSD: M(8000), Quantity: Q(-0.08), MarginUsed: M(800), UnrealizedPnL: M(-20)},
	}

	groups := p.Aggregate(holdings)
	g := groups[GroupKey{Bucket: CEXMargin, Symbol: "BTC"}]
	if g == nil {
		t.Fatal("missing cex_margin BTC group")
	}
	if !g.GrossNotional.Equal(M(18000)) {
		t.Errorf("GrossNotional = %v, want $18,000", g.GrossNotional)
	}
	if !g.MarginUsed.Equal(M(1800)) {
		t.Errorf("MarginUsed = %v, want $1,800", g.MarginUsed)
	}
	if !g.NetQuantity.Equal(Q(0.02)) {
		t.Errorf("NetQuantity = %v, want 0.02", g.NetQuantity)
	}
	if !g.UnrealizedPnL.Equal(M(30)) {
		t.Errorf("UnrealizedPnL = %v, want $30", g.UnrealizedPnL)
	}
	if !g.ExposureValue().Equal(M(18000)) {
		t.Errorf("ExposureValue() = %v, want the gross notional", g.ExposureValue())
	}

	s := g.Platforms["Bybit"]
	if s == nil {
		t.Fatal("missing Bybit slice")
	}
	// long +10000, short -8000
	if !s.NetNotional.Equal(M(2000)) {
		t.Errorf("slice NetNotional = %v, want $2,000", s.NetNotional)
	}
	if !s.GrossNotional.Equal(M(18000)) {
		t.Errorf("slice GrossNotional = %v, want $18,000", s.GrossNotional)
	}
	// no explicit collateral on BTC positions: the policy default takes it
	if got := s.Collateral["USDC"]; !got.Equal(M(1800)) {
		t.Errorf("collateral demand = %v, want $1,800 USDC", got)
	}
}

func TestAggregate_Bucketing(t *testing.T) {
	p := DefaultPolicy()
	holdings := []RawHolding{
		{Symbol: "BTC", Platform: "Bybit", Category: MarginPosition, ValueUSD: M(1000), MarginUsed: M(100)},
		{Symbol: "BTC", Platform: "hyperliquid", Category: MarginPosition, ValueUSD: M(1000), MarginUsed: M(100)},
		{Symbol: "BTC", Platform: "cold storage", ValueUSD: M(1000), Quantity: Q(0.01)},
	}

	groups := p.Aggregate(holdings)
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3: cex margin, dex margin and spot stay apart", len(groups))
	}
	for _, key := range []GroupKey{
		{Bucket: CEXMargin, Symbol: "BTC"},
		{Bucket: DEXMargin, Symbol: "BTC"},
		{Bucket: SpotBucket, Symbol: "BTC"},
	} {
		if groups[key] == nil {
			t.Errorf("missing group %v/%s", key.Bucket, key.Symbol)
		}
	}
}

func TestAggregate_QuantityFromNotional(t *testing.T) {
	p := DefaultPolicy()
	holdings := []RawHolding{
		// no explicit size: derive it from notional and price, signed by side
		{Symbol: "BTC", Platform: "Bybit", Category: MarginPosition, Direction: Short,
			ValueUSD: M(5000), ReferencePrice: M(50000), MarginUsed: M(500)},
	}

	g := p.Aggregate(holdings)[GroupKey{Bucket: CEXMargin, Symbol: "BTC"}]
	if g == nil {
		t.Fatal("missing cex_margin BTC group")
	}
	if !g.NetQuantity.Equal(Q(-0.1)) {
		t.Errorf("NetQuantity = %v, want -0.1", g.NetQuantity)
	}
	if s := g.Platforms["Bybit"]; !s.NetNotional.Equal(M(-5000)) {
		t.Errorf("NetNotional = %v, want -$5,000", s.NetNotional)
	}
}

func TestAggregate_Reserves(t *testing.T) {
	p := DefaultPolicy()
	holdings := []RawHolding{
		// reserves often arrive as a bare amount with no symbol at all
		{Platform: "Bybit", Category: MarginReserve, ValueUSD: M(500)},
		{Symbol: "USDT", Platform: "Bybit", Category: MarginReserve, MarginUsed: M(250), ValueUSD: M(9999)},
	}

	groups := p.Aggregate(holdings)

	g := groups[GroupKey{Bucket: CEXMargin, Symbol: "USDC"}]
	if g == nil {
		t.Fatal("symbol-less reserve should land on the default collateral")
	}
	if s := g.Platforms["Bybit"]; !s.Reserve.Equal(M(500)) {
		t.Errorf("Reserve = %v, want $500", s.Reserve)
	}

	g = groups[GroupKey{Bucket: CEXMargin, Symbol: "USDT"}]
	if g == nil {
		t.Fatal("missing USDT reserve group")
	}
	// the explicit margin figure wins over the usd value
	if s := g.Platforms["Bybit"]; !s.Reserve.Equal(M(250)) {
		t.Errorf("Reserve = %v, want $250", s.Reserve)
	}
}

func TestAggregate_SkipsAndFloors(t *testing.T) {
	p := DefaultPolicy()
	holdings := []RawHolding{
		{Symbol: "", Platform: "Binance", ValueUSD: M(1000)},
		{Symbol: "BTC", Platform: "Bybit", Category: MarginPosition, ValueUSD: M(1000), MarginUsed: M(-300)},
	}

	groups := p.Aggregate(holdings)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1: a symbol-less spot holding is dropped", len(groups))
	}
	g := groups[GroupKey{Bucket: CEXMargin, Symbol: "BTC"}]
	if !g.MarginUsed.IsZero() {
		t.Errorf("MarginUsed = %v, want $0: negative margin floors at zero", g.MarginUsed)
	}
	if !g.GrossNotional.Equal(M(1000)) {
		t.Errorf("GrossNotional = %v, want $1,000", g.GrossNotional)
	}
}
