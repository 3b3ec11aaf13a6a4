package exposure

import (
	"fmt"
	"math"
)

type Percent float64

// PercentOf returns part/whole expressed as a percentage. A zero or
// negative whole yields 0, never a division error.
func PercentOf(part, whole Money) Percent {
	if !whole.IsPositive() {
		return 0
	}
	return Percent(100 * part.AsFloat() / whole.AsFloat())
}

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", float64(p))
}

func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", float64(p))
	if res == "+0.00%" {
		return "-"
	}
	return res
}

// MarshalJSON writes the percentage as a plain number rounded to a sane
// display precision; analysis documents never need more.
func (p Percent) MarshalJSON() ([]byte, error) {
	v := math.Round(float64(p)*1e6) / 1e6
	return []byte(fmt.Sprintf("%g", v)), nil
}
