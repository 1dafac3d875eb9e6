// Package model defines shared data types used across the watcher.
//
// Conventions:
//   - Prices: float64 SOL, as returned by the marketplace API
//   - Timestamps: int64 seconds since Unix epoch (chain block time)
//   - IDs: string collection symbols and token mints, uuid.UUID for events
package model
