// Package valuation rebuilds the valuation history of an accumulation portfolio
// from its transaction log and its price feed.
//
// Compute is a pure function of its inputs and Options: it orders the
// transactions, builds a price index, folds the transactions through a
// per-symbol ledger and emits one Snapshot per transaction. Nothing is cached
// between calls and no package-level state is read, so concurrent calls with
// different Options are safe.
package valuation
