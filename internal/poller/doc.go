// Package poller implements the Reconciliation Driver.
//
// The driver runs one cycle at a time on a fixed interval: it reads the
// watchlist from the store, processes each collection sequentially
// (fetch snapshot, filter by watermark, reconcile, publish, advance
// watermark), then runs one alert-matching pass. A failure inside one
// collection is captured as an Outcome and never aborts the cycle or
// touches another collection's state.
package poller
