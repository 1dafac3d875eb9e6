package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nftwatch/mewatch/internal/model"
)

// tokenWire is the wire format for token metadata.
type tokenWire struct {
	MintAddress string `json:"mintAddress"`
	Name        string `json:"name"`
	Image       string `json:"image"`
}

// Token fetches display metadata for a token mint. Used to enrich
// notifications; callers treat failures as "no metadata", never fatal.
func (c *Client) Token(ctx context.Context, mint string) (*model.TokenMeta, error) {
	body, err := c.doWithRetry(ctx, "/tokens/"+mint, nil)
	if err != nil {
		return nil, err
	}

	var wire tokenWire
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("parse token metadata: %w", err)
	}

	return &model.TokenMeta{Name: wire.Name, Image: wire.Image}, nil
}
