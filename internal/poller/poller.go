package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/nftwatch/mewatch/internal/alerts"
	"github.com/nftwatch/mewatch/internal/ledger"
	"github.com/nftwatch/mewatch/internal/model"
	"github.com/nftwatch/mewatch/internal/notify"
	"github.com/nftwatch/mewatch/internal/observability"
	"github.com/nftwatch/mewatch/internal/seencache"
	"github.com/nftwatch/mewatch/internal/watermark"
)

// Watchlist provides the collections to poll each cycle.
type Watchlist interface {
	List(ctx context.Context) ([]string, error)
}

// Feed fetches marketplace data for one collection.
type Feed interface {
	Activities(ctx context.Context, symbol string) ([]model.Activity, error)
	Token(ctx context.Context, mint string) (*model.TokenMeta, error)
}

// Reconciliation modes.
const (
	ModeLedger = "ledger"
	ModeSeen   = "seen"
)

// Config holds driver configuration.
type Config struct {
	Interval       time.Duration // Poll interval (default: 60s)
	FetchTimeout   time.Duration // Per-fetch timeout (default: 30s)
	RecordPause    time.Duration // Pause between records, for rate limits (default: 1s)
	PublishTimeout time.Duration // Per-event sink timeout (default: 10s)
	Mode           string        // ModeLedger or ModeSeen
	SeenCap        int           // Seen-set cardinality cap per collection
	SeenTTL        time.Duration // Seen-set lazy expiry window
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:       60 * time.Second,
		FetchTimeout:   30 * time.Second,
		RecordPause:    1 * time.Second,
		PublishTimeout: 10 * time.Second,
		Mode:           ModeLedger,
		SeenCap:        500,
		SeenTTL:        24 * time.Hour,
	}
}

// Driver orchestrates reconciliation cycles.
type Driver struct {
	cfg       Config
	feed      Feed
	watchlist Watchlist
	marks     *watermark.Tracker
	book      *ledger.Ledger
	seen      *seencache.Store
	matcher   *alerts.Matcher
	sink      notify.Sink
	metrics   *observability.Metrics
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.RWMutex
	lastCycle time.Time
}

// New creates a Driver. matcher and metrics may be nil.
func New(
	cfg Config,
	feed Feed,
	watchlist Watchlist,
	marks *watermark.Tracker,
	book *ledger.Ledger,
	seen *seencache.Store,
	matcher *alerts.Matcher,
	sink notify.Sink,
	metrics *observability.Metrics,
	logger *slog.Logger,
) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		cfg:       cfg,
		feed:      feed,
		watchlist: watchlist,
		marks:     marks,
		book:      book,
		seen:      seen,
		matcher:   matcher,
		sink:      sink,
		metrics:   metrics,
		logger:    logger,
	}
}

// Start begins the polling loop.
func (d *Driver) Start(ctx context.Context) error {
	d.ctx, d.cancel = context.WithCancel(ctx)

	d.wg.Add(1)
	go d.run()

	d.logger.Info("reconciliation driver started",
		"interval", d.cfg.Interval,
		"mode", d.cfg.Mode,
	)
	return nil
}

// Stop gracefully shuts down the driver. The loop only exits between
// cycles or at a record boundary, so already-written state is safe.
func (d *Driver) Stop(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("reconciliation driver stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastCycle returns the completion time of the most recent cycle.
func (d *Driver) LastCycle() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastCycle
}

// run is the main polling loop. Cycles never overlap: each one finishes
// before the ticker is consulted again.
func (d *Driver) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	// Poll immediately on start.
	d.runCycle()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.runCycle()
		}
	}
}

// runCycle processes every tracked collection sequentially, then runs
// one alert pass.
func (d *Driver) runCycle() {
	start := time.Now()

	symbols, err := d.watchlist.List(d.ctx)
	if err != nil {
		d.logger.Error("cycle aborted, watchlist unavailable", "err", err)
		return
	}
	if d.metrics != nil {
		d.metrics.TrackedTotal.Set(float64(len(symbols)))
	}

	var events, failures int
	for _, symbol := range symbols {
		if d.ctx.Err() != nil {
			return
		}

		out := d.processCollection(d.ctx, symbol)
		events += out.Events
		if out.Err != nil {
			failures++
			d.logger.Error("collection failed this cycle",
				"collection", out.Collection,
				"processed", out.Processed,
				"err", out.Err,
			)
		} else if out.Events > 0 {
			d.logger.Info("collection reconciled",
				"collection", out.Collection,
				"fresh", out.Fresh,
				"events", out.Events,
			)
		}
	}

	events += d.runAlerts()

	d.mu.Lock()
	d.lastCycle = time.Now()
	d.mu.Unlock()

	if d.metrics != nil {
		d.metrics.CyclesTotal.Inc()
		d.metrics.CycleDuration.Observe(time.Since(start).Seconds())
		d.metrics.LastCycleUnix.SetToCurrentTime()
	}

	d.logger.Info("poll cycle complete",
		"collections", len(symbols),
		"events", events,
		"failures", failures,
		"duration", time.Since(start),
	)
}

// processCollection runs one reconciliation pass for one collection.
// All failures are captured in the Outcome; nothing here may abort the
// cycle loop.
func (d *Driver) processCollection(ctx context.Context, symbol string) Outcome {
	out := Outcome{Collection: symbol}

	mark, err := d.marks.Get(ctx, symbol)
	if err != nil {
		out.Err = fmt.Errorf("read watermark: %w", err)
		d.countStoreError()
		return out
	}

	fetchCtx, cancel := context.WithTimeout(ctx, d.cfg.FetchTimeout)
	activities, err := d.feed.Activities(fetchCtx, symbol)
	cancel()
	if err != nil {
		// Soft failure: skip this collection, watermark unchanged.
		out.Err = fmt.Errorf("fetch activities: %w", err)
		if d.metrics != nil {
			d.metrics.FetchErrors.Inc()
		}
		return out
	}
	if len(activities) == 0 {
		return out
	}

	fresh := filterFresh(activities, mark)
	out.Fresh = len(fresh)

	if len(fresh) == 0 {
		// Nothing newer than the mark. The mark stays put: it only
		// moves forward, and only after a processed batch.
		return out
	}

	switch d.cfg.Mode {
	case ModeSeen:
		d.reconcileSeen(ctx, symbol, fresh, &out)
	default:
		d.reconcileLedger(ctx, symbol, fresh, &out)
	}
	return out
}

// reconcileLedger applies fresh records to the listing ledger in block
// time order, publishing each resulting event before moving on. A store
// failure aborts the remaining batch so the watermark never moves past
// an unprocessed record.
func (d *Driver) reconcileLedger(ctx context.Context, symbol string, fresh []model.Activity, out *Outcome) {
	var maxTime int64

	for _, act := range fresh {
		ev, err := d.book.Apply(ctx, act)
		if err != nil {
			out.Err = fmt.Errorf("reconcile %s: %w", act.TokenMint, err)
			d.countStoreError()
			return
		}
		out.Processed++
		if d.metrics != nil {
			d.metrics.RecordsProcessed.Inc()
		}

		if ev != nil {
			d.enrich(ctx, ev)
			d.publish(ctx, *ev)
			out.Events++
		}

		maxTime = act.BlockTime
		if !d.pause(ctx) {
			return
		}
	}

	if err := d.marks.Advance(ctx, symbol, maxTime); err != nil {
		out.Err = err
		d.countStoreError()
		return
	}
	out.Advanced = true
}

// reconcileSeen applies fresh records to the seen-set cache: a listing
// is announced once per (token, price) sighting within the TTL. Delist
// records carry no state in this mode. Eviction runs after the batch,
// before the set is saved.
func (d *Driver) reconcileSeen(ctx context.Context, symbol string, fresh []model.Activity, out *Outcome) {
	set, err := d.seen.Load(ctx, symbol)
	if err != nil {
		out.Err = err
		d.countStoreError()
		return
	}

	now := time.Now()
	var maxTime int64

	for _, act := range fresh {
		if act.Kind == model.ActivityList {
			key := seencache.Key(act.TokenMint, act.Price)
			if !set.HasSeen(key, now, d.cfg.SeenTTL) {
				ev := model.NewListing(act)
				d.enrich(ctx, &ev)
				d.publish(ctx, ev)
				out.Events++
			}
			set.MarkSeen(key, now)
		}
		out.Processed++
		if d.metrics != nil {
			d.metrics.RecordsProcessed.Inc()
		}

		maxTime = act.BlockTime
		if !d.pause(ctx) {
			return
		}
	}

	set.Evict(d.cfg.SeenCap)
	if err := d.seen.Save(ctx, symbol, set); err != nil {
		out.Err = err
		d.countStoreError()
		return
	}

	if err := d.marks.Advance(ctx, symbol, maxTime); err != nil {
		out.Err = err
		d.countStoreError()
		return
	}
	out.Advanced = true
}

// runAlerts performs one alert-matching pass and publishes the
// triggered events. Returns the number of events published.
func (d *Driver) runAlerts() int {
	if d.matcher == nil {
		return 0
	}

	events := d.matcher.Run(d.ctx)
	for _, ev := range events {
		d.publish(d.ctx, ev)
		if d.metrics != nil {
			d.metrics.AlertsFired.Inc()
		}
	}
	return len(events)
}

// enrich attaches token display metadata to a listing event, best
// effort. A metadata failure never blocks the event.
func (d *Driver) enrich(ctx context.Context, ev *model.Event) {
	if ev.TokenMint == "" {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, d.cfg.FetchTimeout)
	defer cancel()

	meta, err := d.feed.Token(fetchCtx, ev.TokenMint)
	if err != nil {
		d.logger.Debug("token metadata unavailable", "mint", ev.TokenMint, "err", err)
		return
	}
	ev.TokenName = meta.Name
	ev.TokenImage = meta.Image
}

// publish hands an event to the sink with a bounded timeout. Delivery
// failures are logged, not propagated: state transitions are already
// durable and idempotent, so at-least-once is acceptable.
func (d *Driver) publish(ctx context.Context, ev model.Event) {
	pubCtx, cancel := context.WithTimeout(ctx, d.cfg.PublishTimeout)
	defer cancel()

	if err := d.sink.Publish(pubCtx, ev); err != nil {
		d.logger.Warn("event delivery failed",
			"type", ev.Type,
			"collection", ev.Collection,
			"err", err,
		)
		if d.metrics != nil {
			d.metrics.PublishErrors.Inc()
		}
		return
	}
	if d.metrics != nil {
		d.metrics.EventsEmitted.WithLabelValues(string(ev.Type)).Inc()
	}
}

// pause sleeps the inter-record interval, returning false if the
// context was cancelled while waiting.
func (d *Driver) pause(ctx context.Context) bool {
	if d.cfg.RecordPause <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d.cfg.RecordPause):
		return true
	}
}

func (d *Driver) countStoreError() {
	if d.metrics != nil {
		d.metrics.StoreErrors.Inc()
	}
}

// filterFresh returns the records newer than the watermark, sorted
// ascending by block time. Earlier price changes must be superseded by
// later ones, so processing order matters.
func filterFresh(activities []model.Activity, mark int64) []model.Activity {
	fresh := make([]model.Activity, 0, len(activities))
	for _, act := range activities {
		if act.BlockTime > mark {
			fresh = append(fresh, act)
		}
	}
	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].BlockTime < fresh[j].BlockTime
	})
	return fresh
}
