package feed

import (
	"context"
	"encoding/json"
	"fmt"
)

// lamportsPerSol converts on-chain lamport amounts to SOL.
const lamportsPerSol = 1_000_000_000

// statsWire is the wire format for collection stats.
type statsWire struct {
	Symbol       string  `json:"symbol"`
	FloorPrice   float64 `json:"floorPrice"` // lamports
	ListedCount  int     `json:"listedCount"`
	VolumeAll    float64 `json:"volumeAll"`
	AvgPrice24hr float64 `json:"avgPrice24hr"`
}

// FloorPrice fetches a collection's current floor price in SOL. This is
// the reference price alert targets are compared against.
func (c *Client) FloorPrice(ctx context.Context, symbol string) (float64, error) {
	body, err := c.doWithRetry(ctx, "/collections/"+symbol+"/stats", nil)
	if err != nil {
		return 0, err
	}

	var wire statsWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return 0, fmt.Errorf("parse stats: %w", err)
	}

	return wire.FloorPrice / lamportsPerSol, nil
}
