package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nftwatch/mewatch/internal/model"
)

// Embed colors matching the notification palette.
const (
	colorGreen = 0x2ECC71 // new listing
	colorBlue  = 0x3498DB // price update
	colorRed   = 0xE74C3C // delist
	colorGold  = 0xF1C40F // alert triggered
)

const itemURLBase = "https://magiceden.io/item-details/"

// DiscordSink posts events to a Discord webhook as rich embeds.
type DiscordSink struct {
	webhookURL string
	httpClient *http.Client
	logger     *slog.Logger
}

// DiscordOption configures a DiscordSink.
type DiscordOption func(*DiscordSink)

// NewDiscordSink creates a webhook sink.
func NewDiscordSink(webhookURL string, opts ...DiscordOption) *DiscordSink {
	s := &DiscordSink{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) DiscordOption {
	return func(s *DiscordSink) {
		s.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) DiscordOption {
	return func(s *DiscordSink) {
		s.logger = logger
	}
}

// Wire shapes for the webhook payload.

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

type embed struct {
	Title     string       `json:"title"`
	Color     int          `json:"color"`
	Timestamp string       `json:"timestamp,omitempty"`
	Fields    []embedField `json:"fields,omitempty"`
	Thumbnail *embedImage  `json:"thumbnail,omitempty"`
	Footer    *embedFooter `json:"footer,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedImage struct {
	URL string `json:"url"`
}

type embedFooter struct {
	Text string `json:"text"`
}

// Publish renders the event as an embed and posts it to the webhook.
func (s *DiscordSink) Publish(ctx context.Context, ev model.Event) error {
	payload := webhookPayload{Embeds: []embed{renderEmbed(ev)}}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook rejected event: status %d", resp.StatusCode)
	}
	return nil
}

func renderEmbed(ev model.Event) embed {
	name := ev.TokenName
	if name == "" {
		name = ev.TokenMint
	}

	e := embed{
		Footer: &embedFooter{Text: "mewatch"},
	}
	if ev.BlockTime > 0 {
		e.Timestamp = time.Unix(ev.BlockTime, 0).UTC().Format(time.RFC3339)
	}
	if ev.TokenImage != "" {
		e.Thumbnail = &embedImage{URL: ev.TokenImage}
	}

	switch ev.Type {
	case model.EventNewListing:
		e.Title = "New Listing: " + name
		e.Color = colorGreen
		e.Fields = listingFields(ev)
		e.Fields = append(e.Fields, embedField{
			Name:  "Price",
			Value: fmt.Sprintf("**%g SOL**", ev.Price),
		})

	case model.EventPriceUpdate:
		e.Title = "Price Update: " + name
		e.Color = colorBlue
		e.Fields = listingFields(ev)
		e.Fields = append(e.Fields, embedField{
			Name:  "Price Change",
			Value: fmt.Sprintf("`%g` SOL -> **%g SOL**", ev.OldPrice, ev.Price),
		})

	case model.EventDelist:
		e.Title = "Delisted: " + name
		e.Color = colorRed
		e.Fields = listingFields(ev)

	case model.EventAlertTriggered:
		e.Title = "Price Alert: " + ev.Collection
		e.Color = colorGold
		e.Fields = []embedField{
			{Name: "User", Value: ev.UserID, Inline: true},
			{Name: "Target", Value: fmt.Sprintf("%g SOL", ev.TargetPrice), Inline: true},
			{Name: "Floor", Value: fmt.Sprintf("**%g SOL**", ev.FloorPrice), Inline: true},
		}
	}

	return e
}

func listingFields(ev model.Event) []embedField {
	return []embedField{
		{Name: "Collection", Value: ev.Collection, Inline: true},
		{Name: "Seller", Value: "`" + ev.Seller + "`", Inline: true},
		{Name: "Link", Value: "[View on Magic Eden](" + itemURLBase + ev.TokenMint + ")"},
	}
}

var _ Sink = (*DiscordSink)(nil)
