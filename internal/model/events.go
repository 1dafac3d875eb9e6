package model

import "github.com/google/uuid"

// EventType distinguishes the members of the Event union.
type EventType string

const (
	EventNewListing     EventType = "new_listing"
	EventPriceUpdate    EventType = "price_update"
	EventDelist         EventType = "delist"
	EventAlertTriggered EventType = "alert_triggered"
)

// Event is a single change detected by a reconciliation pass. Events are
// produced at most once per logical change and consumed once by the sink.
// Type indicates which fields are populated.
type Event struct {
	ID   uuid.UUID // Unique per emission, for downstream dedup
	Type EventType

	// Listing fields (new_listing, price_update, delist)
	Collection string
	TokenMint  string
	Price      float64 // Current price (zero for delist)
	OldPrice   float64 // price_update only
	Seller     string
	BlockTime  int64 // Originating record's block time

	// Display enrichment, best effort (may be empty)
	TokenName  string
	TokenImage string

	// Alert fields (alert_triggered)
	UserID      string
	TargetPrice float64
	FloorPrice  float64
}

// NewListing builds a new_listing event from an activity record.
func NewListing(act Activity) Event {
	return Event{
		ID:         uuid.New(),
		Type:       EventNewListing,
		Collection: act.Collection,
		TokenMint:  act.TokenMint,
		Price:      act.Price,
		Seller:     act.Seller,
		BlockTime:  act.BlockTime,
	}
}

// PriceUpdate builds a price_update event from an activity record and
// the previously stored price.
func PriceUpdate(act Activity, oldPrice float64) Event {
	ev := NewListing(act)
	ev.Type = EventPriceUpdate
	ev.OldPrice = oldPrice
	return ev
}

// Delist builds a delist event from an activity record and the entry
// being removed.
func Delist(act Activity, removed LedgerEntry) Event {
	return Event{
		ID:         uuid.New(),
		Type:       EventDelist,
		Collection: act.Collection,
		TokenMint:  act.TokenMint,
		OldPrice:   removed.Price,
		Seller:     removed.Seller,
		BlockTime:  act.BlockTime,
	}
}

// AlertTriggered builds an alert_triggered event.
func AlertTriggered(userID string, alert Alert, floor float64) Event {
	return Event{
		ID:          uuid.New(),
		Type:        EventAlertTriggered,
		Collection:  alert.Collection,
		UserID:      userID,
		TargetPrice: alert.TargetPrice,
		FloorPrice:  floor,
	}
}
