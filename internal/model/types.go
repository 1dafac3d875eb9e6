package model

// -----------------------------------------------------------------------------
// Marketplace Types
// -----------------------------------------------------------------------------

// ActivityKind is the type of a marketplace activity record.
type ActivityKind string

const (
	// ActivityList is a token listed for sale (new or re-priced).
	ActivityList ActivityKind = "list"

	// ActivityDelist is a token removed from sale.
	ActivityDelist ActivityKind = "delist"
)

// Activity is a single record from a collection's activity feed.
// Activities are ephemeral: they are consumed to update the ledger
// and never stored verbatim.
type Activity struct {
	Collection string       // Collection symbol (e.g., "degods")
	TokenMint  string       // Token mint address
	Kind       ActivityKind // list or delist
	Price      float64      // Listing price in SOL (zero for delist)
	Seller     string       // Seller wallet address
	BlockTime  int64        // Chain block time (seconds since epoch)
}

// TokenMeta is display metadata for a token, fetched on demand to
// enrich notifications. Either field may be empty.
type TokenMeta struct {
	Name  string
	Image string
}

// -----------------------------------------------------------------------------
// Durable State Types
// -----------------------------------------------------------------------------

// LedgerEntry is the durable per-token listing record. An entry exists
// iff the token is currently believed listed; its absence means "not
// listed" or "never seen". The collection symbol and token mint live in
// the store key, not the value.
type LedgerEntry struct {
	Price        float64 `json:"price"`
	Seller       string  `json:"seller"`
	LastNotified int64   `json:"last_notified"` // block time of the last surfaced notification
}

// Alert is a one-shot price alert owned by a user. Alerts are unique by
// collection per user and removed automatically once triggered.
type Alert struct {
	Collection  string  `json:"collection"`
	TargetPrice float64 `json:"target_price"`
}
