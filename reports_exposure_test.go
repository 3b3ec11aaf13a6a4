package exposure

import (
	"encoding/json"
	"slices"
	"testing"
)

// reportFixture builds a classified asset map with one stable coin, three
// volatile assets (one borrowed) and a neutral CEX balance.
func reportFixture() map[string]*ConsolidatedAsset {
	consolidated := map[string]*ConsolidatedAsset{
		"USDC": {Symbol: "USDC", TotalValueUSD: M(2000), TotalQuantity: Q(2000),
			Platforms: map[string]Money{"Bybit": M(2000)}},
		"BTC": {Symbol: "BTC", TotalValueUSD: M(1000), TotalQuantity: Q(0.02),
			Platforms: map[string]Money{"Binance": M(1000)}},
		"ETH": {Symbol: "ETH", TotalValueUSD: M(500), TotalQuantity: Q(0.25),
			Platforms: map[string]Money{"main_wallet": M(500)}},
		"AAVE": {Symbol: "AAVE", TotalValueUSD: M(-300), TotalQuantity: Q(-1),
			Platforms: map[string]Money{"Aave": M(-300)}},
		"CEX_MIXED_BINANCE": {Symbol: "CEX_MIXED_BINANCE", TotalValueUSD: M(400),
			Platforms: map[string]Money{"Binance": M(400)}},
	}
	DefaultPolicy().ClassifyAssets(consolidated)
	return consolidated
}

func TestNewExposureReport_ClassTotals(t *testing.T) {
	prices := map[string]Money{"BTC": M(50000)}
	r := NewExposureReport(reportFixture(), nil, prices, M(3600), DefaultPolicy())

	if !r.StableValue.Equal(M(2000)) {
		t.Errorf("StableValue = %v, want $2,000", r.StableValue)
	}
	if !r.NonStableValue.Equal(M(1200)) {
		t.Errorf("NonStableValue = %v, want $1,200", r.NonStableValue)
	}
	// the neutral share is the remainder, here the CEX mixed balance
	if !r.NeutralValue.Equal(M(400)) {
		t.Errorf("NeutralValue = %v, want $400", r.NeutralValue)
	}
	sum := r.StableValue.Add(r.NonStableValue).Add(r.NeutralValue)
	if !sum.Equal(r.TotalPortfolioValue) {
		t.Errorf("class values sum to %v, want the %v total", sum, r.TotalPortfolioValue)
	}

	if r.AssetCount != 5 || r.StableAssetCount != 1 || r.NonStableAssetCount != 3 || r.NeutralAssetCount != 1 {
		t.Errorf("counts = %d/%d/%d/%d, want 5 assets, 1 stable, 3 non-stable, 1 neutral",
			r.AssetCount, r.StableAssetCount, r.NonStableAssetCount, r.NeutralAssetCount)
	}

	if want := Percent(100.0 * 2000 / 3600); !r.StablePercentage.Equal(want) {
		t.Errorf("StablePercentage = %v, want %v", r.StablePercentage, want)
	}
	if want := Percent(100.0 * 1200 / 3600); !r.NonStablePercentage.Equal(want) {
		t.Errorf("NonStablePercentage = %v, want %v", r.NonStablePercentage, want)
	}
}

func TestNewExposureReport_AssetFigures(t *testing.T) {
	prices := map[string]Money{"BTC": M(50000)}
	r := NewExposureReport(reportFixture(), nil, prices, M(3600), DefaultPolicy())
	assets := r.ConsolidatedAssets

	// quoted symbol: market price, no implied price
	if a := assets["BTC"]; !a.CurrentPrice.Equal(M(50000)) || !a.ImpliedPrice.IsZero() {
		t.Errorf("BTC prices = %v/%v, want $50,000 market and no implied", a.CurrentPrice, a.ImpliedPrice)
	}
	// unquoted symbol: the price its own value and quantity imply
	if a := assets["ETH"]; !a.CurrentPrice.Equal(M(2000)) || !a.ImpliedPrice.Equal(M(2000)) {
		t.Errorf("ETH prices = %v/%v, want the implied $2,000", a.CurrentPrice, a.ImpliedPrice)
	}
	// borrowed position: negative quantity implies nothing
	if a := assets["AAVE"]; !a.CurrentPrice.IsZero() {
		t.Errorf("AAVE price = %v, want $0", a.CurrentPrice)
	}

	if want := Percent(100.0 * 1000 / 3600); !assets["BTC"].PercentageOfPortfolio.Equal(want) {
		t.Errorf("BTC portfolio share = %v, want %v", assets["BTC"].PercentageOfPortfolio, want)
	}
	if want := Percent(100.0 * -300 / 3600); !assets["AAVE"].PercentageOfPortfolio.Equal(want) {
		t.Errorf("AAVE portfolio share = %v, want %v", assets["AAVE"].PercentageOfPortfolio, want)
	}

	// group shares divide by the positive values only: a borrowed leg must
	// not push the long legs past 100%
	if want := Percent(100.0 * 1000 / 1500); !assets["BTC"].PercentageOfNonStable.Equal(want) {
		t.Errorf("BTC non-stable share = %v, want %v", assets["BTC"].PercentageOfNonStable, want)
	}
	if want := Percent(100.0 * 500 / 1500); !assets["ETH"].PercentageOfNonStable.Equal(want) {
		t.Errorf("ETH non-stable share = %v, want %v", assets["ETH"].PercentageOfNonStable, want)
	}
	if got := assets["AAVE"].PercentageOfNonStable; !got.Equal(0) {
		t.Errorf("AAVE non-stable share = %v, want 0", got)
	}
}

func TestNewExposureReport_Dust(t *testing.T) {
	consolidated := map[string]*ConsolidatedAsset{
		"USDC": {Symbol: "USDC", TotalValueUSD: M(2000), Platforms: map[string]Money{"Bybit": M(2000)}},
		"DOGE": {Symbol: "DOGE", TotalValueUSD: M(1), Platforms: map[string]Money{"Binance": M(1)}},
		"SHIB": {Symbol: "SHIB", TotalValueUSD: M(0.5), Platforms: map[string]Money{"Binance": M(0.5)}},
		"PEPE": {Symbol: "PEPE", TotalValueUSD: M(0.3), Platforms: map[string]Money{"main_wallet": M(0.3)}},
		"BONK": {Symbol: "BONK", TotalValueUSD: M(-0.2), Platforms: map[string]Money{"Aave": M(-0.2)}},
	}
	DefaultPolicy().ClassifyAssets(consolidated)

	r := NewExposureReport(consolidated, nil, nil, M(2001.6), DefaultPolicy())

	if r.Dust.Count != 3 {
		t.Fatalf("Dust.Count = %d, want 3: a whole dollar is not dust", r.Dust.Count)
	}
	if !r.Dust.TotalValueUSD.Equal(M(0.6)) {
		t.Errorf("Dust.TotalValueUSD = %v, want $0.60", r.Dust.TotalValueUSD)
	}
	// largest first, like every other traversal
	if want := []string{"SHIB", "PEPE", "BONK"}; !slices.Equal(r.Dust.Symbols, want) {
		t.Errorf("Dust.Symbols = %v, want %v", r.Dust.Symbols, want)
	}

	var major []string
	for _, a := range r.MajorAssets() {
		major = append(major, a.Symbol)
	}
	if want := []string{"USDC", "DOGE"}; !slices.Equal(major, want) {
		t.Errorf("MajorAssets() = %v, want %v", major, want)
	}
}

func TestExposureReport_Accessors(t *testing.T) {
	r := NewExposureReport(reportFixture(), nil, nil, M(3600), DefaultPolicy())

	symbols := func(assets []*ConsolidatedAsset) []string {
		var out []string
		for _, a := range assets {
			out = append(out, a.Symbol)
		}
		return out
	}

	if got, want := symbols(r.NonStableAssets()), []string{"BTC", "ETH", "AAVE"}; !slices.Equal(got, want) {
		t.Errorf("NonStableAssets() = %v, want %v", got, want)
	}
	if got, want := symbols(r.StableAssets()), []string{"USDC"}; !slices.Equal(got, want) {
		t.Errorf("StableAssets() = %v, want %v", got, want)
	}
	if got, want := symbols(r.NeutralAssets()), []string{"CEX_MIXED_BINANCE"}; !slices.Equal(got, want) {
		t.Errorf("NeutralAssets() = %v, want %v", got, want)
	}
	if got := r.MarginAssets(); len(got) != 0 {
		t.Errorf("MarginAssets() = %v, want none", symbols(got))
	}
}

func TestExposureReport_DecodedBehavesLikeFresh(t *testing.T) {
	fresh := NewExposureReport(reportFixture(), nil, map[string]Money{"BTC": M(50000)}, M(3600), DefaultPolicy())

	data, err := json.Marshal(fresh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded ExposureReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	symbols := func(assets []*ConsolidatedAsset) []string {
		var out []string
		for _, a := range assets {
			out = append(out, a.Symbol)
		}
		return out
	}
	if got, want := symbols(decoded.NonStableAssets()), symbols(fresh.NonStableAssets()); !slices.Equal(got, want) {
		t.Errorf("decoded NonStableAssets() = %v, want %v", got, want)
	}
	if got, want := symbols(decoded.StableAssets()), symbols(fresh.StableAssets()); !slices.Equal(got, want) {
		t.Errorf("decoded StableAssets() = %v, want %v", got, want)
	}
	if !decoded.NonStableValue.Equal(fresh.NonStableValue) {
		t.Errorf("decoded NonStableValue = %v, want %v", decoded.NonStableValue, fresh.NonStableValue)
	}
	if p, ok := decoded.PricesSnapshot["BTC"]; !ok || !p.Equal(M(50000)) {
		t.Errorf("decoded PricesSnapshot[BTC] = %v, want $50,000", p)
	}
}
