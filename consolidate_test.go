package exposure

import (
	"slices"
	"testing"
)

func TestConsolidate_UnwrapsSpot(t *testing.T) {
	p := DefaultPolicy()
	holdings := []RawHolding{
		{Symbol: "ETH", Platform: "Binance", ValueUSD: M(2000), Quantity: Q(1)},
		{Symbol: "WETH", Platform: "arb_wallet", ValueUSD: M(2000), Quantity: Q(1)},
		{Symbol: "WSTETH", Platform: "main_wallet", ValueUSD: M(1200), Quantity: Q(0.5)},
	}

	consolidated := p.Consolidate(p.Aggregate(holdings))
	if len(consolidated) != 1 {
		t.Fatalf("got %d assets, want 1: wrapped variants merge into the underlying", len(consolidated))
	}
	a := consolidated["ETH"]
	if a == nil {
		t.Fatal("missing consolidated ETH")
	}
	if !a.TotalValueUSD.Equal(M(5200)) {
		t.Errorf("TotalValueUSD = %v, want $5,200", a.TotalValueUSD)
	}
	if !a.TotalQuantity.Equal(Q(2.5)) {
		t.Errorf("TotalQuantity = %v, want 2.5", a.TotalQuantity)
	}
	if len(a.Platforms) != 3 {
		t.Errorf("got %d platforms, want 3", len(a.Platforms))
	}
	if !a.PlatformSum().Equal(a.TotalValueUSD) {
		t.Errorf("PlatformSum() = %v, want %v", a.PlatformSum(), a.TotalValueUSD)
	}
	if a.MarginDetail != nil {
		t.Errorf("spot asset carries a margin detail")
	}
}

func TestConsolidate_StableHint(t *testing.T) {
	p := DefaultPolicy()
	holdings := []RawHolding{
		{Symbol: "EARNBASKET", Platform: "Binance", ValueUSD: M(300), StableHint: true},
	}

	a := p.Consolidate(p.Aggregate(holdings))["EARNBASKET"]
	if a == nil {
		t.Fatal("missing consolidated EARNBASKET")
	}
	if a.Hint != "stable" {
		t.Errorf("Hint = %q, want \"stable\"", a.Hint)
	}
}

func TestConsolidate_MarginBook(t *testing.T) {
	p := DefaultPolicy()
	holdings := []RawHolding{
		{Symbol: "BTC", Platform: "Bybit", Category: MarginPosition,
			ValueUSD: M(10000), Quantity: Q(0.1), MarginUsed: M(1000), UnrealizedPnL: M(50)},
		{Symbol: "BTC", Platform: "Bybit", Category: MarginPosition,
			ValueUSD: M(8000), Quantity: Q(-0.08), MarginUsed: M(800), UnrealizedPnL: M(-20)},
	}

	consolidated := p.Consolidate(p.Aggregate(holdings))
	a := consolidated["MARGIN_BYBIT"]
	if a == nil {
		t.Fatal("missing consolidated MARGIN_BYBIT")
	}
	// valued at collateral, never at face value
	if !a.TotalValueUSD.Equal(M(1800)) {
		t.Errorf("TotalValueUSD = %v, want the $1,800 collateral", a.TotalValueUSD)
	}
	if v := a.Platforms["Bybit"]; !v.Equal(M(1800)) {
		t.Errorf("Platforms[Bybit] = %v, want $1,800", v)
	}
	d := a.MarginDetail
	if d == nil {
		t.Fatal("missing margin detail")
	}
	if !d.GrossNotional.Equal(M(18000)) {
		t.Errorf("GrossNotional = %v, want $18,000", d.GrossNotional)
	}
	if !d.NetQuantity.Equal(Q(0.02)) {
		t.Errorf("NetQuantity = %v, want 0.02", d.NetQuantity)
	}
	if !d.UnrealizedPnL.Equal(M(30)) {
		t.Errorf("UnrealizedPnL = %v, want $30", d.UnrealizedPnL)
	}
	if !slices.Equal(d.Sources, []string{"Bybit"}) {
		t.Errorf("Sources = %v, want [Bybit]", d.Sources)
	}
	// |net| / gross = 2000/18000, above the 10% default ratio
	if d.DeltaNeutral {
		t.Errorf("DeltaNeutral = true, want false")
	}
	if a.Hint != "" {
		t.Errorf("Hint = %q, want none for a directional book", a.Hint)
	}
	if !d.ExposureValue().Equal(M(18000)) {
		t.Errorf("ExposureValue() = %v, want $18,000", d.ExposureValue())
	}
	if got := d.Collateral["USDC"]; !got.Equal(M(1800)) {
		t.Errorf("Collateral[USDC] = %v, want $1,800", got)
	}
}

func TestConsolidate_DeltaNeutral(t *testing.T) {
	p := DefaultPolicy()
	long := RawHolding{Symbol: "ETH", Platform: "hyperliquid", Category: MarginPosition,
		ValueUSD: M(10000), Quantity: Q(4), MarginUsed: M(1000)}
	short := RawHolding{Symbol: "ETH", Platform: "hyperliquid", Category: MarginPosition,
		ValueUSD: M(9500), Quantity: Q(-3.8), MarginUsed: M(950)}

	t.Run("hedged book is stable", func(t *testing.T) {
		a := p.Consolidate(p.Aggregate([]RawHolding{long, short}))["MARGIN_HYPERLIQUID"]
		if a == nil {
			t.Fatal("missing consolidated MARGIN_HYPERLIQUID")
		}
		if !a.MarginDetail.DeltaNeutral {
			t.Errorf("DeltaNeutral = false, want true: |net| 500 over gross 19500")
		}
		if a.Hint != "stable" {
			t.Errorf("Hint = %q, want \"stable\"", a.Hint)
		}
	})

	t.Run("one directional symbol breaks the book", func(t *testing.T) {
		skew := RawHolding{Symbol: "BTC", Platform: "hyperliquid", Category: MarginPosition,
			ValueUSD: M(5000), Quantity: Q(0.05), MarginUsed: M(500)}
		a := p.Consolidate(p.Aggregate([]RawHolding{long, short, skew}))["MARGIN_HYPERLIQUID"]
		if a == nil {
			t.Fatal("missing consolidated MARGIN_HYPERLIQUID")
		}
		if a.MarginDetail.DeltaNeutral {
			t.Errorf("DeltaNeutral = true, want false: the BTC leg is one-sided")
		}
		if a.Hint != "" {
			t.Errorf("Hint = %q, want none", a.Hint)
		}
	})

	t.Run("empty book does not qualify", func(t *testing.T) {
		reserve := RawHolding{Symbol: "USDC", Platform: "hyperliquid", Category: MarginReserve, ValueUSD: M(100)}
		a := p.Consolidate(p.Aggregate([]RawHolding{reserve}))["MARGIN_RESERVE_HYPERLIQUID"]
		if a == nil {
			t.Fatal("missing consolidated MARGIN_RESERVE_HYPERLIQUID")
		}
		// reserves are idle collateral, stable by nature
		if a.Hint != "stable" {
			t.Errorf("Hint = %q, want \"stable\"", a.Hint)
		}
	})
}

func TestConsolidate_CollateralOnce(t *testing.T) {
	p := DefaultPolicy()
	// a position and a reserve on the same symbol and platform share one
	// aggregation slice; their collateral demand must surface exactly once
	holdings := []RawHolding{
		{Symbol: "ETH", Platform: "Bybit", Category: MarginPosition,
			ValueUSD: M(4000), Quantity: Q(2), MarginUsed: M(1000)},
		{Symbol: "ETH", Platform: "Bybit", Category: MarginReserve, ValueUSD: M(500)},
	}

	consolidated := p.Consolidate(p.Aggregate(holdings))

	book := consolidated["MARGIN_BYBIT"]
	if book == nil {
		t.Fatal("missing consolidated MARGIN_BYBIT")
	}
	if got := book.MarginDetail.Collateral["USDC"]; !got.Equal(M(1500)) {
		t.Errorf("book collateral demand = %v, want $1,500 USDC", got)
	}

	reserve := consolidated["MARGIN_RESERVE_BYBIT"]
	if reserve == nil {
		t.Fatal("missing consolidated MARGIN_RESERVE_BYBIT")
	}
	if !reserve.TotalValueUSD.Equal(M(500)) {
		t.Errorf("reserve TotalValueUSD = %v, want $500", reserve.TotalValueUSD)
	}
	if len(reserve.MarginDetail.Collateral) != 0 {
		t.Errorf("reserve carries collateral demand %v, want none", reserve.MarginDetail.Collateral)
	}
}
