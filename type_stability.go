package exposure

import (
	"bytes"
	"fmt"
)

// Stability is the tri-state risk classification of an asset.
//
// Mixed does not mean "half stable": it means the composition of the
// position is unknown or ambiguous (a CEX account balance whose holdings
// the engine cannot see, a pooled basket). Callers must treat it as a
// distinct state, never coerce it to Volatile.
type Stability int

const (
	// Mixed is the zero value: composition unknown or ambiguous.
	Mixed Stability = iota
	// Stable assets are pegged to a fiat value (stablecoins).
	Stable
	// Volatile assets carry market price risk.
	Volatile
)

func (s Stability) IsStable() bool   { return s == Stable }
func (s Stability) IsVolatile() bool { return s == Volatile }
func (s Stability) IsMixed() bool    { return s == Mixed }

func (s Stability) String() string {
	switch s {
	case Stable:
		return "stable"
	case Volatile:
		return "volatile"
	default:
		return "mixed"
	}
}

// ParseStability parses a string into a Stability.
func ParseStability(v string) (Stability, error) {
	switch v {
	case "stable":
		return Stable, nil
	case "volatile":
		return Volatile, nil
	case "mixed":
		return Mixed, nil
	default:
		return Mixed, fmt.Errorf("unknown stability class: %q", v)
	}
}

// MarshalJSON encodes the classification the way analysis documents carry
// it: true for stable, false for volatile, null for mixed.
func (s Stability) MarshalJSON() ([]byte, error) {
	switch s {
	case Stable:
		return []byte("true"), nil
	case Volatile:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts the tri-state boolean encoding and, for tolerance,
// the textual class names.
func (s *Stability) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true":
		*s = Stable
	case "false":
		*s = Volatile
	case "null":
		*s = Mixed
	default:
		parsed, err := ParseStability(string(bytes.Trim(bytes.TrimSpace(data), `"`)))
		if err != nil {
			return err
		}
		*s = parsed
	}
	return nil
}
