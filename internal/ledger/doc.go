// Package ledger implements the listing ledger: the durable per-token
// "currently listed at price P" record and the reconciliation that
// turns activity records into diff events.
//
// Records must be applied in ascending block-time order so the stored
// price always reflects the newest record. All operations are
// idempotent: replaying an already-applied record produces no event and
// leaves the ledger unchanged.
package ledger
