package exposure

import "fmt"

// Category tells the engine how a raw holding participates in aggregation.
type Category int

const (
	// Spot is a plain balance: coins in a wallet or an exchange account.
	Spot Category = iota
	// MarginPosition is an open margin or perpetual-futures position.
	MarginPosition
	// MarginReserve is collateral earmarked for margin trading but not
	// posted against an open position.
	MarginReserve
)

func (c Category) String() string {
	switch c {
	case MarginPosition:
		return "margin_position"
	case MarginReserve:
		return "margin_reserve"
	default:
		return "spot"
	}
}

// ParseCategory parses a string into a Category.
func ParseCategory(v string) (Category, error) {
	switch v {
	case "spot", "":
		return Spot, nil
	case "margin_position":
		return MarginPosition, nil
	case "margin_reserve":
		return MarginReserve, nil
	default:
		return Spot, fmt.Errorf("unknown holding category: %q", v)
	}
}

// IsMargin reports whether the category participates in margin bucketing.
func (c Category) IsMargin() bool { return c == MarginPosition || c == MarginReserve }

// Direction is the side of a margin position as reported by the source.
type Direction int

const (
	// Unspecified means the source did not report a side.
	Unspecified Direction = iota
	Long
	Short
	Flat
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	case Flat:
		return "flat"
	default:
		return ""
	}
}

// ParseDirection parses a side string; unknown values map to Unspecified
// rather than failing, bad data must never abort an analysis.
func ParseDirection(v string) Direction {
	switch v {
	case "long", "buy":
		return Long
	case "short", "sell":
		return Short
	case "flat":
		return Flat
	default:
		return Unspecified
	}
}

// Sign returns the quantity sign the direction implies. Unspecified
// defaults to +1: sources that omit the side report net-long books, and
// the original behavior is preserved here.
func (d Direction) Sign() int {
	if d == Short {
		return -1
	}
	return 1
}

// RawHolding is one observation of an asset at a single source: an exchange
// sub-account, a blockchain wallet, or a perpetual-futures account. It is
// built once at the import boundary (see ImportHoldings) and never mutated.
type RawHolding struct {
	// Symbol is the uppercased ticker, possibly composite ("ETH+USDC").
	Symbol string
	// Platform is the reporting source, e.g. "Binance", "Hyperliquid".
	Platform string
	Category Category
	// Chain is informational only; it never affects netting.
	Chain string

	// ValueUSD is signed: negative means borrowed or short. For margin
	// positions it carries the signed notional.
	ValueUSD Money
	// Quantity is signed with the same convention as ValueUSD.
	Quantity Quantity
	// Direction is the explicit side when the source reports one.
	Direction Direction
	// ReferencePrice is the source's own price mark; zero means unknown.
	ReferencePrice Money
	// UnrealizedPnL is zero for non-margin holdings.
	UnrealizedPnL Money
	// MarginUsed is the collateral posted against the position.
	MarginUsed Money

	// Collateral is the explicit collateral symbol when the source
	// reports one; reconciliation falls back to scanning Symbol and then
	// to QuoteAsset when empty.
	Collateral string
	// QuoteAsset is the quote leg of the instrument ("USDT" for BTCUSDT).
	QuoteAsset string

	// StableHint is set when the source already knows the asset class,
	// e.g. an exchange "stable earn" bucket.
	StableHint bool
}

// SignedQuantity returns the holding quantity with a usable sign: the
// explicit quantity when present, otherwise a quantity derived from the
// notional value and reference price, signed by Direction.
func (h RawHolding) SignedQuantity() Quantity {
	if !h.Quantity.IsZero() {
		return h.Quantity
	}
	derived := h.ValueUSD.Abs().DivPrice(h.ReferencePrice)
	if h.Direction.Sign() < 0 {
		return derived.Neg()
	}
	return derived
}

// Notional returns the unsigned face value of the holding.
func (h RawHolding) Notional() Money { return h.ValueUSD.Abs() }

// SignedNotional returns the face value signed by the position side. A
// negative reported value is trusted as-is; otherwise the sign comes from
// the quantity, then from the declared direction.
func (h RawHolding) SignedNotional() Money {
	if h.ValueUSD.IsNegative() {
		return h.ValueUSD
	}
	if h.Quantity.IsNegative() || (h.Quantity.IsZero() && h.Direction == Short) {
		return h.ValueUSD.Neg()
	}
	return h.ValueUSD
}
