package exposure

import (
	"bytes"
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Money represents a USD monetary value with fixed-precision arithmetic.
//
// USD is the single reporting currency of the whole engine: every raw
// holding arrives already valued in dollars, so Money carries no currency
// tag. The zero value is $0.
type Money struct {
	value decimal.Decimal // as major unit value
}

func M[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T) Money {
	return Money{value: newDecimal(value)}
}

// usd returns the USD currency definition used for display formatting.
func usd() *money.Currency {
	// to get a never nil currency I need to call the Money constructor
	return money.New(0, money.USD).Currency()
}

// String returns the display representation of the value, e.g. "$1,234.56".
func (m Money) String() string {
	cur := usd()
	dec := m.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.Round(0).IntPart())
}

// Simple wrappers around decimal.Decimal.

func (m Money) Equal(n Money) bool              { return m.value.Equal(n.value) }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) LessThan(n Money) bool           { return m.value.LessThan(n.value) }
func (m Money) LessThanOrEqual(n Money) bool    { return m.value.LessThanOrEqual(n.value) }
func (m Money) GreaterThan(n Money) bool        { return m.value.GreaterThan(n.value) }
func (m Money) GreaterThanOrEqual(n Money) bool { return m.value.GreaterThanOrEqual(n.value) }
func (m Money) Neg() Money                      { return Money{value: m.value.Neg()} }
func (m Money) Abs() Money                      { return Money{value: m.value.Abs()} }
func (m Money) Add(n Money) Money               { return Money{value: m.value.Add(n.value)} }
func (m Money) Sub(n Money) Money               { return Money{value: m.value.Sub(n.value)} }
func (m Money) Mul(q Quantity) Money            { return Money{value: m.value.Mul(q.value)} }

// Div divides the value by a quantity. Division by zero returns $0 rather
// than panicking: every denominator in the engine is data-derived.
func (m Money) Div(q Quantity) Money {
	if q.value.IsZero() {
		return Money{}
	}
	return Money{value: m.value.Div(q.value)}
}

// DivPrice returns the quantity m dollars buy at price n. A zero price
// returns a zero quantity.
func (m Money) DivPrice(n Money) Quantity {
	if n.value.IsZero() {
		return Quantity{}
	}
	return Quantity{value: m.value.Div(n.value)}
}

// Min returns the smaller of m and n.
func (m Money) Min(n Money) Money {
	if m.value.LessThan(n.value) {
		return m
	}
	return n
}

// Floor returns m, floored at zero when negative.
func (m Money) Floor() Money {
	if m.value.IsNegative() {
		return Money{}
	}
	return m
}

// AsFloat returns the value as a float64, for epsilon comparisons only;
// all accounting stays in decimal.
func (m Money) AsFloat() float64 { return m.value.InexactFloat64() }

// SignedString returns the display representation with an explicit sign.
// Zero is represented as "-".
func (m Money) SignedString() string {
	if m.value.IsZero() {
		return "-"
	}
	if m.value.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}

// MarshalJSON writes the value as a plain JSON number, the shape analysis
// documents use for every dollar amount.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.value.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted numeric string; anything
// else is an error for the caller's coercion layer to absorb.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		m.value = decimal.Decimal{}
		return nil
	}
	v, err := decimal.NewFromString(string(data))
	if err != nil {
		return fmt.Errorf("invalid money value %q: %w", string(data), err)
	}
	m.value = v
	return nil
}
