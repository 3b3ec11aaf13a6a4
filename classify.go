package exposure

import "strings"

// This file implements the stable/volatile classifier. Classification is
// pure symbol surgery over the policy tables: it never looks at values or
// platforms, so the same symbol always lands in the same class.

// NormalizeSymbol cleans a raw ticker for comparison: whitespace trimmed,
// anything from the first "(" or "." dropped, spaces and parentheses
// removed, uppercased. "usdc.e" and "USDC (bridged)" both become "USDC".
func NormalizeSymbol(symbol string) string {
	cleaned := strings.TrimSpace(symbol)
	if i := strings.Index(cleaned, "("); i >= 0 {
		cleaned = cleaned[:i]
	}
	if i := strings.Index(cleaned, "."); i >= 0 {
		cleaned = cleaned[:i]
	}
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ")", "")
	return strings.ToUpper(cleaned)
}

// MarginSymbol builds the synthetic ticker under which a platform's margin
// book is consolidated, e.g. "MARGIN_BYBIT_FUTURES". Reserve symbols carry
// idle collateral: "MARGIN_RESERVE_BYBIT_FUTURES".
func MarginSymbol(platform string, reserve bool) string {
	var b strings.Builder
	lastUnderscore := true // also trims leading separators
	for _, r := range strings.ToUpper(strings.TrimSpace(platform)) {
		switch {
		case r >= 'A' && r <= 'Z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	base := strings.TrimSuffix(b.String(), "_")
	if base == "" {
		base = "UNKNOWN"
	}
	if reserve {
		return "MARGIN_RESERVE_" + base
	}
	return "MARGIN_" + base
}

// Classify assigns the tri-state classification for a symbol. hint is the
// upstream category when the source already knows the asset class ("stable"
// forces Stable); pass "" when there is none.
//
// Composite symbols ("ETH+USDC", "BTC/USD", "SOL-PERP") classify as
// volatile unless every "+"-separated part is individually a recognized
// stablecoin. Registered neutral sentinels classify as Mixed; any other
// unmatched symbol is volatile, never Mixed.
func (p Policy) Classify(symbol, hint string) Stability {
	clean := NormalizeSymbol(symbol)
	if clean == "" {
		return Volatile
	}
	if p.IsNeutralSymbol(clean) {
		return Mixed
	}
	if strings.ContainsAny(clean, "+/-") {
		if allStableParts(p, clean) {
			return Stable
		}
		return Volatile
	}
	if p.isStablePart(clean) || strings.EqualFold(hint, "stable") {
		return Stable
	}
	return Volatile
}

// allStableParts reports whether the composite is a pure stablecoin basket:
// joined with "+" only, every part recognized stable on its own.
func allStableParts(p Policy, composite string) bool {
	if strings.ContainsAny(composite, "/-") {
		return false
	}
	parts := strings.Split(composite, "+")
	seen := false
	for _, part := range parts {
		if part == "" {
			continue
		}
		seen = true
		if !p.isStablePart(part) {
			return false
		}
	}
	return seen
}

// ClassifyAssets runs the classifier over a consolidated map, in place.
// This is the third pipeline stage; it only ever reads symbols and hints,
// so running it before or after reconciliation gives the same classes.
func (p Policy) ClassifyAssets(consolidated map[string]*ConsolidatedAsset) {
	for _, a := range consolidated {
		a.Stability = p.Classify(a.Symbol, a.Hint)
	}
}

// isStablePart runs the base-stable checks on a separator-free symbol:
// stablecoin base match or prefix, the "USD" substring, and the STABLE_
// sentinel affixes upstream buckets use.
func (p Policy) isStablePart(symbol string) bool {
	if p.IsStableBase(symbol) {
		return true
	}
	if strings.Contains(symbol, "USD") {
		return true
	}
	return strings.HasPrefix(symbol, "STABLE_") || strings.HasSuffix(symbol, "_STABLE")
}
