package exposure

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Policy carries every lookup table and threshold the engine consults.
// The tables are configuration, not code: they can be extended from a YAML
// file without touching the aggregation algorithm. The zero value is not
// usable; start from DefaultPolicy.
type Policy struct {
	// StableBases are stablecoin tickers matched exactly or as a prefix
	// ("USDC" matches "USDC.E").
	StableBases []string `yaml:"stable_bases"`
	// WrappedTokens maps wrapped or staked tickers to their underlying
	// asset so WETH on Arbitrum merges with ETH on mainnet.
	WrappedTokens map[string]string `yaml:"wrapped_tokens"`
	// NeutralSymbols are sentinels for balances of unknown composition,
	// typically whole-account CEX totals.
	NeutralSymbols []string `yaml:"neutral_symbols"`
	// UnifiedMarginPlatforms share one collateral pool between spot and
	// margin trading; only these take part in offset reconciliation.
	UnifiedMarginPlatforms []string `yaml:"unified_margin_platforms"`
	// CEXTokens route margin positions into the cex_margin bucket when
	// one of them appears in the platform name.
	CEXTokens []string `yaml:"cex_tokens"`
	// DefaultCollateral is the symbol assumed for margin collateral when
	// no other resolution succeeds.
	DefaultCollateral string `yaml:"default_collateral"`

	// MajorAssetFloor is the USD value under which an asset is left out
	// of the major-assets breakdown.
	MajorAssetFloor float64 `yaml:"major_asset_floor"`
	// DustAggregation is the USD value under which assets fold into a
	// single dust line.
	DustAggregation float64 `yaml:"dust_aggregation"`
	// DeltaNeutralRatio is the max |net|/gross notional ratio per
	// underlying for a margin book to count as delta neutral.
	DeltaNeutralRatio float64 `yaml:"delta_neutral_ratio"`
}

// DefaultPolicy returns the stock tables. They mirror the symbols and
// platforms the upstream fetchers are known to produce.
func DefaultPolicy() Policy {
	return Policy{
		StableBases: []string{
			"USDC", "USDT", "DAI", "FDUSD", "USDE", "FRAX", "TUSD",
			"PYUSD", "GUSD", "PAX", "BUSD", "GHO", "CRVUSD",
			"USDP", "USDD", "LUSD", "SUSD", "MIM", "HUSD", "USDAI",
			"USDT0", "USDR", "USDL", "USDX", "USDM", "EUSD", "CUSDC",
		},
		WrappedTokens: map[string]string{
			"WETH":   "ETH",
			"WBTC":   "BTC",
			"WSOL":   "SOL",
			"STETH":  "ETH",
			"WSTETH": "ETH",
			"CBETH":  "ETH",
			"RETH":   "ETH",
			"WBETH":  "ETH",
			"WAVAX":  "AVAX",
			"WMATIC": "MATIC",
			"WBNB":   "BNB",
		},
		NeutralSymbols: []string{
			"CEX_MIXED_BINANCE", "CEX_MIXED_OKX",
			"CEX_MIXED_BYBIT", "CEX_MIXED_BACKPACK",
		},
		UnifiedMarginPlatforms: []string{"bybit", "okx", "backpack"},
		CEXTokens: []string{
			"binance", "bybit", "okx", "backpack", "kraken",
			"coinbase", "bitget", "gate", "kucoin", "htx",
		},
		DefaultCollateral: "USDC",
		MajorAssetFloor:   1.0,
		DustAggregation:   5.0,
		DeltaNeutralRatio: 0.10,
	}
}

// ReadPolicy decodes a YAML policy from r, on top of the defaults: a file
// only needs the tables it overrides.
func ReadPolicy(r io.Reader) (Policy, error) {
	p := DefaultPolicy()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if err == io.EOF {
			return p, nil
		}
		return Policy{}, fmt.Errorf("cannot parse policy: %w", err)
	}
	return p, nil
}

// IsStableBase reports whether the (normalized) symbol matches or extends
// one of the stablecoin bases.
func (p Policy) IsStableBase(symbol string) bool {
	for _, base := range p.StableBases {
		if symbol == base || strings.HasPrefix(symbol, base) {
			return true
		}
	}
	return false
}

// IsNeutralSymbol reports whether the symbol is a registered sentinel for
// an unknown-composition balance.
func (p Policy) IsNeutralSymbol(symbol string) bool {
	for _, s := range p.NeutralSymbols {
		if strings.EqualFold(symbol, s) {
			return true
		}
	}
	return false
}

// IsUnifiedMargin reports whether the platform draws spot and margin from
// one collateral pool. Binance is deliberately absent from the default
// table: its margin wallets are funded separately from spot.
func (p Policy) IsUnifiedMargin(platform string) bool {
	name := strings.ToLower(platform)
	for _, token := range p.UnifiedMarginPlatforms {
		if strings.Contains(name, token) {
			return true
		}
	}
	return false
}

// IsCEX reports whether the platform name belongs to a known centralized
// exchange.
func (p Policy) IsCEX(platform string) bool {
	name := strings.ToLower(platform)
	for _, token := range p.CEXTokens {
		if strings.Contains(name, token) {
			return true
		}
	}
	return false
}

// Unwrap resolves a wrapped or staked ticker to its underlying asset, or
// returns the symbol unchanged.
func (p Policy) Unwrap(symbol string) string {
	if base, ok := p.WrappedTokens[symbol]; ok {
		return base
	}
	return symbol
}

// CollateralSymbol resolves the collateral behind a margin holding:
// the explicit field when the source reports one, then a stablecoin token
// found inside the position symbol, then the quote asset, and finally the
// policy default.
func (p Policy) CollateralSymbol(h RawHolding) string {
	if h.Collateral != "" {
		return NormalizeSymbol(h.Collateral)
	}
	symbol := NormalizeSymbol(h.Symbol)
	for _, base := range p.StableBases {
		if strings.Contains(symbol, base) {
			return base
		}
	}
	if h.QuoteAsset != "" {
		return NormalizeSymbol(h.QuoteAsset)
	}
	return p.DefaultCollateral
}
