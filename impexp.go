package exposure

import (
	"bufio"
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// this file contains the functions that bring external holdings data into
// the engine: the JSONL import/export format for raw holdings, and the
// nested portfolio documents that balance collectors produce.

// ImportHoldings reads raw holdings from 'r' in the import/export format.
//
// The import format is a JSONL file, where each line is a JSON object
// representing one raw holding. Numeric fields accept plain or quoted
// numbers and default to zero when missing. 'category' accepts "spot",
// "margin_position" and "margin_reserve" (empty means spot); 'direction'
// accepts "long"/"buy", "short"/"sell" and "flat".
func ImportHoldings(r io.Reader) ([]RawHolding, error) {

	// the readable version of the format can be summarized by one type.
	type jholding struct {
		Symbol         string   `json:"symbol"`
		Platform       string   `json:"platform"`
		Category       string   `json:"category"`
		Chain          string   `json:"chain,omitempty"`
		ValueUSD       Money    `json:"value_usd"`
		Quantity       Quantity `json:"quantity,omitzero"`
		Direction      string   `json:"direction,omitempty"`
		ReferencePrice Money    `json:"reference_price,omitzero"`
		UnrealizedPnL  Money    `json:"unrealized_pnl,omitzero"`
		MarginUsed     Money    `json:"margin_used,omitzero"`
		Collateral     string   `json:"collateral,omitempty"`
		QuoteAsset     string   `json:"quote_asset,omitempty"`
		StableHint     bool     `json:"stable_hint,omitempty"`
	}

	var holdings []RawHolding
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var jh jholding
		if err := json.Unmarshal(line, &jh); err != nil {
			return nil, fmt.Errorf("cannot parse line for holdings import format: %q: %w", string(line), err)
		}
		category, err := ParseCategory(jh.Category)
		if err != nil {
			return nil, fmt.Errorf("cannot parse line for holdings import format: %q: %w", string(line), err)
		}
		holdings = append(holdings, RawHolding{
			Symbol:         jh.Symbol,
			Platform:       jh.Platform,
			Category:       category,
			Chain:          jh.Chain,
			ValueUSD:       jh.ValueUSD,
			Quantity:       jh.Quantity,
			Direction:      ParseDirection(jh.Direction),
			ReferencePrice: jh.ReferencePrice,
			UnrealizedPnL:  jh.UnrealizedPnL,
			MarginUsed:     jh.MarginUsed,
			Collateral:     jh.Collateral,
			QuoteAsset:     jh.QuoteAsset,
			StableHint:     jh.StableHint,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read holdings import format: %w", err)
	}
	return holdings, nil
}

// ExportHoldings writes holdings to 'w' in the import/export format, one
// JSON object per line. The output reads back through ImportHoldings.
func ExportHoldings(w io.Writer, holdings []RawHolding) error {

	type jholding struct {
		Symbol         string   `json:"symbol"`
		Platform       string   `json:"platform"`
		Category       string   `json:"category"`
		Chain          string   `json:"chain,omitempty"`
		ValueUSD       Money    `json:"value_usd"`
		Quantity       Quantity `json:"quantity,omitzero"`
		Direction      string   `json:"direction,omitempty"`
		ReferencePrice Money    `json:"reference_price,omitzero"`
		UnrealizedPnL  Money    `json:"unrealized_pnl,omitzero"`
		MarginUsed     Money    `json:"margin_used,omitzero"`
		Collateral     string   `json:"collateral,omitempty"`
		QuoteAsset     string   `json:"quote_asset,omitempty"`
		StableHint     bool     `json:"stable_hint,omitempty"`
	}

	for _, h := range holdings {
		jh := jholding{
			Symbol:         h.Symbol,
			Platform:       h.Platform,
			Category:       h.Category.String(),
			Chain:          h.Chain,
			ValueUSD:       h.ValueUSD,
			Quantity:       h.Quantity,
			Direction:      h.Direction.String(),
			ReferencePrice: h.ReferencePrice,
			UnrealizedPnL:  h.UnrealizedPnL,
			MarginUsed:     h.MarginUsed,
			Collateral:     h.Collateral,
			QuoteAsset:     h.QuoteAsset,
			StableHint:     h.StableHint,
		}
		data, err := json.Marshal(jh)
		if err != nil {
			return fmt.Errorf("cannot marshal holding %q: %w", h.Symbol, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("cannot write holdings format: %w", err)
		}
	}
	return nil
}

// PortfolioSnapshot is the flattened content of a portfolio data document:
// the raw holdings it describes, the total portfolio value the collector
// computed, and the spot prices recorded at collection time.
type PortfolioSnapshot struct {
	Holdings   []RawHolding
	TotalValue Money
	Prices     map[string]Money
}

// ImportPortfolioDocument reads a nested portfolio data document from 'r'
// and flattens it into a PortfolioSnapshot.
//
// The document is the JSON object balance collectors produce: a
// "platforms" object mapping platform names to their "assets", "positions"
// and "reserves", an optional "wallets" list for on-chain balances, a
// "crypto_prices" object, and the collector's "total_portfolio_value".
// Collectors disagree on field names and types, so values are coerced
// leniently: numbers may be quoted, use a comma decimal separator, or be
// missing entirely. Only a structurally unparseable document returns an
// error.
func (p Policy) ImportPortfolioDocument(r io.Reader) (*PortfolioSnapshot, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("cannot parse portfolio document: %w", err)
	}

	snap := &PortfolioSnapshot{Prices: make(map[string]Money)}
	snap.TotalValue = asMoney(lookupScalar(doc, "$.total_portfolio_value"))
	if snap.TotalValue.IsZero() {
		snap.TotalValue = asMoney(lookupScalar(doc, "$.total_value_usd"))
	}

	if prices, ok := lookup(doc, "$.crypto_prices").(map[string]any); ok {
		for symbol, v := range prices {
			if price := asMoney(v); price.IsPositive() {
				snap.Prices[NormalizeSymbol(symbol)] = price
			}
		}
	}

	if platforms, ok := lookup(doc, "$.platforms").(map[string]any); ok {
		for _, name := range sortedKeys(platforms) {
			entry, ok := platforms[name].(map[string]any)
			if !ok {
				continue
			}
			snap.Holdings = append(snap.Holdings, platformHoldings(name, entry, snap.Prices)...)
		}
	}

	if wallets, ok := lookup(doc, "$.wallets").([]any); ok {
		for _, v := range wallets {
			entry, ok := v.(map[string]any)
			if !ok {
				continue
			}
			snap.Holdings = append(snap.Holdings, p.walletHoldings(entry, snap.Prices)...)
		}
	}

	return snap, nil
}

// platformHoldings flattens one platform entry: spot assets, open margin
// positions and idle margin collateral. Positions without an explicit
// margin figure receive a pro-rata share of the account's margin equity,
// weighted by notional, the way unified-margin exchanges fund them; equity
// left over once every position is funded becomes a margin reserve.
func platformHoldings(platform string, entry map[string]any, prices map[string]Money) []RawHolding {
	var holdings []RawHolding

	for _, v := range asList(pick(entry, "assets", "balances")) {
		asset, ok := v.(map[string]any)
		if !ok {
			continue
		}
		h := spotHolding(platform, asset)
		if h.Symbol == "" && h.ValueUSD.IsZero() {
			continue
		}
		holdings = append(holdings, h)
	}

	accountValue := pickMoney(entry, "account_value", "margin_account_value", "futures_balance", "margin_balance")

	var positions []RawHolding
	var grossNotional, explicitMargin Money
	for _, v := range asList(pick(entry, "positions", "open_positions")) {
		pos, ok := v.(map[string]any)
		if !ok {
			continue
		}
		h := RawHolding{
			Symbol:         pickString(pos, "symbol", "coin", "asset", "instrument"),
			Platform:       platform,
			Category:       MarginPosition,
			Direction:      ParseDirection(strings.ToLower(pickString(pos, "side", "direction"))),
			Quantity:       pickQuantity(pos, "size", "contracts", "quantity", "amount"),
			ValueUSD:       pickMoney(pos, "notional", "position_value", "usd_value", "value"),
			ReferencePrice: pickMoney(pos, "entry_price", "avg_entry_price", "mark_price", "price"),
			UnrealizedPnL:  pickMoney(pos, "unrealized_pnl", "pnl"),
			MarginUsed:     pickMoney(pos, "margin_used", "margin", "position_margin", "initial_margin").Floor(),
			Collateral:     pickString(pos, "collateral", "margin_coin", "margin_asset"),
			QuoteAsset:     pickString(pos, "quote_asset", "quote"),
		}
		if h.Symbol == "" {
			continue
		}
		if h.ValueUSD.IsZero() && !h.Quantity.IsZero() {
			// reconstruct the face value from the size and the best price
			// the document offers
			price := h.ReferencePrice
			if price.IsZero() {
				price = prices[NormalizeSymbol(h.Symbol)]
			}
			h.ValueUSD = h.Quantity.Abs().Mul(price)
		}
		if h.ValueUSD.IsZero() && h.MarginUsed.IsZero() {
			continue
		}
		// some sources encode the side only in the sign of the size
		if h.Direction == Unspecified && h.Quantity.IsNegative() {
			h.Direction = Short
		}
		positions = append(positions, h)
		grossNotional = grossNotional.Add(h.Notional())
		explicitMargin = explicitMargin.Add(h.MarginUsed)
	}

	allocationBase := accountValue
	if !allocationBase.IsPositive() {
		allocationBase = explicitMargin
	}
	var marginTotal Money
	for i := range positions {
		if !positions[i].MarginUsed.IsPositive() && allocationBase.IsPositive() && grossNotional.IsPositive() {
			weight := positions[i].Notional().DivPrice(grossNotional)
			positions[i].MarginUsed = allocationBase.Mul(weight)
		}
		marginTotal = marginTotal.Add(positions[i].MarginUsed)
	}
	holdings = append(holdings, positions...)

	for _, v := range asList(pick(entry, "reserves", "margin_reserves")) {
		res, ok := v.(map[string]any)
		if !ok {
			continue
		}
		h := RawHolding{
			Symbol:   pickString(res, "coin", "symbol", "collateral"),
			Platform: platform,
			Category: MarginReserve,
			ValueUSD: pickMoney(res, "usd_value", "value", "amount"),
			Quantity: pickQuantity(res, "total", "amount", "quantity"),
		}
		if h.ValueUSD.IsZero() {
			continue
		}
		marginTotal = marginTotal.Add(h.ValueUSD)
		holdings = append(holdings, h)
	}

	if accountValue.IsPositive() {
		if residual := accountValue.Sub(marginTotal); residual.IsPositive() {
			holdings = append(holdings, RawHolding{
				Platform: platform,
				Category: MarginReserve,
				ValueUSD: residual,
			})
		}
	}

	return holdings
}

// walletHoldings flattens one on-chain wallet entry. Wallet documents are
// the least regular input: some itemize assets, some report only a native
// balance plus a token map. A combined wallet total is never attributed to
// the native coin, since it includes every token the wallet holds.
func (p Policy) walletHoldings(entry map[string]any, prices map[string]Money) []RawHolding {
	chain := strings.ToLower(asString(entry["chain"]))
	platform := pickString(entry, "name", "wallet", "address")
	if platform == "" {
		platform = "wallet"
		if chain != "" {
			platform = "wallet_" + chain
		}
	}

	// perpetual platforms surface in wallet scans with positions attached;
	// route them through the platform path
	if proto := asString(entry["platform"]); proto != "" {
		return platformHoldings(proto, entry, prices)
	}

	var holdings []RawHolding
	for _, v := range asList(pick(entry, "assets", "balances")) {
		asset, ok := v.(map[string]any)
		if !ok {
			continue
		}
		h := spotHolding(platform, asset)
		if h.Chain == "" {
			h.Chain = chain
		}
		if h.Symbol == "" && h.ValueUSD.IsZero() {
			continue
		}
		holdings = append(holdings, h)
	}

	if symbol := pickString(entry, "native_symbol", "symbol"); symbol != "" {
		h := RawHolding{
			Symbol:   symbol,
			Platform: platform,
			Chain:    chain,
			Quantity: pickQuantity(entry, "native_balance", "balance", "amount"),
			ValueUSD: pickMoney(entry, "native_value_usd", "value_usd", "usd_value"),
		}
		if h.ValueUSD.IsZero() && h.Quantity.IsPositive() {
			h.ValueUSD = h.Quantity.Mul(prices[NormalizeSymbol(symbol)])
		}
		if !h.ValueUSD.IsZero() || !h.Quantity.IsZero() {
			holdings = append(holdings, h)
		}
	}

	if tokens, ok := entry["token_balances"].(map[string]any); ok {
		for _, symbol := range sortedKeys(tokens) {
			qty := asQuantity(tokens[symbol])
			if !qty.IsPositive() {
				continue
			}
			normalized := NormalizeSymbol(symbol)
			price := prices[normalized]
			if price.IsZero() && p.IsStableBase(normalized) {
				// wallet token maps carry no valuation; a known stablecoin
				// is worth a dollar
				price = M(1)
			}
			if price.IsZero() {
				continue
			}
			holdings = append(holdings, RawHolding{
				Symbol:   normalized,
				Platform: platform,
				Chain:    chain,
				Quantity: qty,
				ValueUSD: qty.Mul(price),
			})
		}
	}

	return holdings
}

// spotHolding builds a spot holding from one asset object, trying the
// field names the different collectors use.
func spotHolding(platform string, asset map[string]any) RawHolding {
	return RawHolding{
		Symbol:     pickString(asset, "coin", "symbol", "asset"),
		Platform:   platform,
		Chain:      asString(asset["chain"]),
		ValueUSD:   pickMoney(asset, "usd_value", "equity", "value_usd", "value"),
		Quantity:   pickQuantity(asset, "total", "amount", "quantity", "balance"),
		StableHint: asBool(pick(asset, "stable", "is_stable")),
	}
}

// lookup evaluates a jsonpath query against the decoded document,
// returning nil when the path matches nothing.
func lookup(doc any, path string) any {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil
	}
	return v
}

// lookupScalar evaluates a query expected to yield a single value. jsonpath
// is never clear about whether it answers with a list of one value or the
// value itself, so the one-element list form is unwrapped here.
func lookupScalar(doc any, path string) any {
	v := lookup(doc, path)
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil
		}
		return list[0]
	}
	return v
}

// pick returns the first present, non-null value among the given keys.
func pick(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// pickString returns the first key holding a non-empty string.
func pickString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := asString(obj[k]); s != "" {
			return s
		}
	}
	return ""
}

// pickMoney returns the first key holding a non-zero amount, mirroring the
// way collectors fall back across field names.
func pickMoney(obj map[string]any, keys ...string) Money {
	for _, k := range keys {
		if m := asMoney(obj[k]); !m.IsZero() {
			return m
		}
	}
	return Money{}
}

// pickQuantity returns the first key holding a non-zero quantity.
func pickQuantity(obj map[string]any, keys ...string) Quantity {
	for _, k := range keys {
		if q := asQuantity(obj[k]); !q.IsZero() {
			return q
		}
	}
	return Quantity{}
}

// asList coerces a decoded JSON value to a list; anything else is empty.
func asList(v any) []any {
	list, _ := v.([]any)
	return list
}

// sortedKeys returns the keys of m in ascending order.
func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func asString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asMoney(v any) Money { return Money{value: asDecimal(v)} }

func asQuantity(v any) Quantity { return Quantity{value: asDecimal(v)} }

// asDecimal coerces a decoded JSON value into a decimal. Collectors
// disagree on types: numbers arrive as json.Number or float64, and some
// APIs quote them, sometimes with a comma decimal separator. Anything else
// is zero.
func asDecimal(v any) decimal.Decimal {
	switch t := v.(type) {
	case json.Number:
		if d, err := decimal.NewFromString(t.String()); err == nil {
			return d
		}
	case float64:
		return decimal.NewFromFloat(t)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(t), ",", ".")
		s = strings.ReplaceAll(s, " ", "")
		if s == "" {
			return decimal.Decimal{}
		}
		if d, err := decimal.NewFromString(s); err == nil {
			return d
		}
	}
	return decimal.Decimal{}
}
