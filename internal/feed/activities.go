package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/nftwatch/mewatch/internal/model"
)

// activityWire is the wire format for one activity record.
type activityWire struct {
	Type       string  `json:"type"`
	TokenMint  string  `json:"tokenMint"`
	Collection string  `json:"collection"`
	Price      float64 `json:"price"`
	Seller     string  `json:"seller"`
	BlockTime  int64   `json:"blockTime"`
}

func (w activityWire) toModel(symbol string) model.Activity {
	collection := w.Collection
	if collection == "" {
		collection = symbol
	}
	return model.Activity{
		Collection: collection,
		TokenMint:  w.TokenMint,
		Kind:       model.ActivityKind(w.Type),
		Price:      w.Price,
		Seller:     w.Seller,
		BlockTime:  w.BlockTime,
	}
}

// Activities fetches the newest activity records for a collection.
// The upstream returns records newest-first; ordering is preserved.
// Records without a token mint are dropped.
func (c *Client) Activities(ctx context.Context, symbol string) ([]model.Activity, error) {
	query := url.Values{}
	query.Set("offset", "0")
	query.Set("limit", strconv.Itoa(c.activityLimit))

	body, err := c.doWithRetry(ctx, "/collections/"+symbol+"/activities", query)
	if err != nil {
		return nil, err
	}

	var wire []activityWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("parse activities: %w", err)
	}

	out := make([]model.Activity, 0, len(wire))
	for _, w := range wire {
		if w.TokenMint == "" {
			continue
		}
		out = append(out, w.toModel(symbol))
	}
	return out, nil
}
