// Package exposure provides a set of functions and types for consolidating
// raw balances from exchanges, blockchain wallets, and perpetual-futures
// platforms into a single, de-duplicated portfolio exposure view. It is
// designed to be pure and deterministic: it consumes already-fetched data
// and never performs I/O itself.
//
// The core functionalities include:
//   - Position Aggregation: grouping raw spot and margin holdings by
//     category and symbol, netting signed quantities and reconstructing
//     weighted-average reference prices across platforms.
//   - Margin Offset Reconciliation: relocating collateral consumed by open
//     margin positions out of the spot stablecoin balances of unified-margin
//     accounts, so the same dollar is never counted twice.
//   - Stable/Volatile Classification: a tri-state classification of each
//     consolidated asset (stable, volatile, or mixed) that handles wrapped
//     tokens, pooled composite symbols, and upstream category hints.
//   - Exposure Reporting: folding classified assets into portfolio-level
//     totals and per-asset percentages, with explicit handling of borrowed
//     (negative) balances and dust holdings.
//   - Data Persistence: encoding and decoding analysis documents to a
//     versioned, human-readable JSON format that later runs reload for
//     comparison and recalculation.
//
// This package serves as the foundational logic for the `pxs` command-line
// tool; all rendering and file handling live in the separate renderer and
// cmd packages.
package exposure
