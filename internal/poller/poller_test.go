package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nftwatch/mewatch/internal/alerts"
	"github.com/nftwatch/mewatch/internal/ledger"
	"github.com/nftwatch/mewatch/internal/model"
	"github.com/nftwatch/mewatch/internal/seencache"
	"github.com/nftwatch/mewatch/internal/store/memory"
	"github.com/nftwatch/mewatch/internal/watermark"
)

// fakeFeed serves canned activity snapshots per collection.
type fakeFeed struct {
	activities map[string][]model.Activity
	errs       map[string]error
	floors     map[string]float64
	meta       map[string]*model.TokenMeta
}

func (f *fakeFeed) Activities(_ context.Context, symbol string) ([]model.Activity, error) {
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.activities[symbol], nil
}

func (f *fakeFeed) FloorPrice(_ context.Context, symbol string) (float64, error) {
	floor, ok := f.floors[symbol]
	if !ok {
		return 0, errors.New("no stats")
	}
	return floor, nil
}

func (f *fakeFeed) Token(_ context.Context, mint string) (*model.TokenMeta, error) {
	if m, ok := f.meta[mint]; ok {
		return m, nil
	}
	return nil, errors.New("no metadata")
}

// fixedWatchlist returns a static symbol list.
type fixedWatchlist []string

func (w fixedWatchlist) List(context.Context) ([]string, error) {
	return w, nil
}

// collectSink records published events.
type collectSink struct {
	mu     sync.Mutex
	events []model.Event
}

func (s *collectSink) Publish(_ context.Context, ev model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *collectSink) all() []model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Event(nil), s.events...)
}

func listAct(symbol, mint string, price float64, blockTime int64) model.Activity {
	return model.Activity{
		Collection: symbol,
		TokenMint:  mint,
		Kind:       model.ActivityList,
		Price:      price,
		Seller:     "S1",
		BlockTime:  blockTime,
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RecordPause = 0
	cfg.FetchTimeout = time.Second
	cfg.PublishTimeout = time.Second
	return cfg
}

type harness struct {
	driver *Driver
	kv     *memory.KV
	marks  *watermark.Tracker
	book   *ledger.Ledger
	sink   *collectSink
}

func newHarness(t *testing.T, cfg Config, feed *fakeFeed, symbols []string) *harness {
	t.Helper()
	kv := memory.New()
	marks := watermark.New(kv)
	book := ledger.New(kv, 0)
	seen := seencache.NewStore(kv)
	sink := &collectSink{}
	matcher := alerts.NewMatcher(alerts.NewManager(kv), feed, nil)

	d := New(cfg, feed, fixedWatchlist(symbols), marks, book, seen, matcher, sink, nil, nil)
	d.ctx, d.cancel = context.WithCancel(context.Background())
	t.Cleanup(d.cancel)

	return &harness{driver: d, kv: kv, marks: marks, book: book, sink: sink}
}

func TestProcessCollection_NewListingThenPriceUpdate(t *testing.T) {
	// Watermark 100; feed returns list(A,10,110) then list(A,8,120),
	// newest first like the real API.
	feed := &fakeFeed{activities: map[string][]model.Activity{
		"degods": {
			listAct("degods", "A", 8, 120),
			listAct("degods", "A", 10, 110),
		},
	}}

	h := newHarness(t, testConfig(), feed, []string{"degods"})
	ctx := context.Background()
	if err := h.marks.Advance(ctx, "degods", 100); err != nil {
		t.Fatalf("seed watermark: %v", err)
	}

	out := h.driver.processCollection(ctx, "degods")
	if out.Err != nil {
		t.Fatalf("processCollection failed: %v", out.Err)
	}

	events := h.sink.all()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != model.EventNewListing || events[0].Price != 10 {
		t.Errorf("first event = %v %v, want new_listing at 10", events[0].Type, events[0].Price)
	}
	if events[1].Type != model.EventPriceUpdate || events[1].OldPrice != 10 || events[1].Price != 8 {
		t.Errorf("second event = %+v, want price_update 10 -> 8", events[1])
	}

	entry, err := h.book.Entry(ctx, "degods", "A")
	if err != nil {
		t.Fatalf("Entry failed: %v", err)
	}
	if entry == nil || entry.Price != 8 {
		t.Errorf("final ledger price = %+v, want 8", entry)
	}

	mark, err := h.marks.Get(ctx, "degods")
	if err != nil {
		t.Fatalf("Get watermark: %v", err)
	}
	if mark != 120 {
		t.Errorf("watermark = %d, want 120", mark)
	}
}

func TestProcessCollection_Delist(t *testing.T) {
	feed := &fakeFeed{activities: map[string][]model.Activity{
		"degods": {
			listAct("degods", "A", 8, 120),
			listAct("degods", "A", 10, 110),
		},
	}}

	h := newHarness(t, testConfig(), feed, []string{"degods"})
	ctx := context.Background()
	if err := h.marks.Advance(ctx, "degods", 100); err != nil {
		t.Fatalf("seed watermark: %v", err)
	}

	out := h.driver.processCollection(ctx, "degods")
	if out.Err != nil {
		t.Fatalf("first pass failed: %v", out.Err)
	}

	feed.activities["degods"] = []model.Activity{
		{Collection: "degods", TokenMint: "A", Kind: model.ActivityDelist, BlockTime: 130},
	}

	out = h.driver.processCollection(ctx, "degods")
	if out.Err != nil {
		t.Fatalf("second pass failed: %v", out.Err)
	}

	events := h.sink.all()
	last := events[len(events)-1]
	if last.Type != model.EventDelist {
		t.Errorf("last event = %v, want delist", last.Type)
	}

	entry, err := h.book.Entry(ctx, "degods", "A")
	if err != nil {
		t.Fatalf("Entry failed: %v", err)
	}
	if entry != nil {
		t.Errorf("ledger entry survives delist: %+v", entry)
	}
}

func TestProcessCollection_ReplayEmitsNothing(t *testing.T) {
	feed := &fakeFeed{activities: map[string][]model.Activity{
		"degods": {listAct("degods", "A", 10, 110)},
	}}

	h := newHarness(t, testConfig(), feed, []string{"degods"})
	ctx := context.Background()
	if err := h.marks.Advance(ctx, "degods", 100); err != nil {
		t.Fatalf("seed watermark: %v", err)
	}

	out := h.driver.processCollection(ctx, "degods")
	if out.Events != 1 {
		t.Fatalf("first pass events = %d, want 1", out.Events)
	}

	// Same snapshot again: everything is at or below the watermark now.
	out = h.driver.processCollection(ctx, "degods")
	if out.Events != 0 || out.Fresh != 0 {
		t.Errorf("replay pass = %+v, want no fresh records and no events", out)
	}
}

func TestProcessCollection_FetchFailureSkipsEntity(t *testing.T) {
	feed := &fakeFeed{
		errs: map[string]error{"broken": errors.New("timeout")},
		activities: map[string][]model.Activity{
			"degods": {listAct("degods", "A", 10, 110)},
		},
	}

	h := newHarness(t, testConfig(), feed, []string{"broken", "degods"})
	ctx := context.Background()
	for _, s := range []string{"broken", "degods"} {
		if err := h.marks.Advance(ctx, s, 100); err != nil {
			t.Fatalf("seed watermark: %v", err)
		}
	}

	h.driver.runCycle()

	// The broken collection must not stall the healthy one.
	events := h.sink.all()
	if len(events) != 1 || events[0].Collection != "degods" {
		t.Fatalf("events = %+v, want one from degods", events)
	}

	// The failed collection's watermark is untouched.
	mark, err := h.marks.Get(ctx, "broken")
	if err != nil {
		t.Fatalf("Get watermark: %v", err)
	}
	if mark != 100 {
		t.Errorf("broken watermark = %d, want 100", mark)
	}
}

func TestProcessCollection_StoreFailureHaltsBatchNotCycle(t *testing.T) {
	feed := &fakeFeed{activities: map[string][]model.Activity{
		"degods": {
			listAct("degods", "B", 5, 120),
			listAct("degods", "A", 10, 110),
		},
		"okay_bears": {listAct("okay_bears", "C", 3, 115)},
	}}

	h := newHarness(t, testConfig(), feed, []string{"degods", "okay_bears"})
	ctx := context.Background()
	for _, s := range []string{"degods", "okay_bears"} {
		if err := h.marks.Advance(ctx, s, 100); err != nil {
			t.Fatalf("seed watermark: %v", err)
		}
	}

	// Ledger writes for degods fail; everything else succeeds.
	h.kv.FailSet = "ledger:degods:"
	h.kv.FailErr = errors.New("write refused")

	h.driver.runCycle()

	// degods aborted without advancing its watermark.
	mark, err := h.marks.Get(ctx, "degods")
	if err != nil {
		t.Fatalf("Get watermark: %v", err)
	}
	if mark != 100 {
		t.Errorf("degods watermark = %d, want 100 (unchanged)", mark)
	}

	// okay_bears was unaffected.
	mark, err = h.marks.Get(ctx, "okay_bears")
	if err != nil {
		t.Fatalf("Get watermark: %v", err)
	}
	if mark != 115 {
		t.Errorf("okay_bears watermark = %d, want 115", mark)
	}
}

func TestProcessCollection_WatermarkNeverMovesBackward(t *testing.T) {
	// A snapshot of stale records must not touch the mark.
	feed := &fakeFeed{activities: map[string][]model.Activity{
		"degods": {
			listAct("degods", "A", 10, 90),
			listAct("degods", "B", 5, 80),
		},
	}}

	h := newHarness(t, testConfig(), feed, []string{"degods"})
	ctx := context.Background()
	if err := h.marks.Advance(ctx, "degods", 1000); err != nil {
		t.Fatalf("seed watermark: %v", err)
	}

	out := h.driver.processCollection(ctx, "degods")
	if out.Err != nil {
		t.Fatalf("processCollection failed: %v", out.Err)
	}
	if out.Fresh != 0 || out.Advanced || out.Events != 0 {
		t.Fatalf("outcome = %+v, want nothing fresh and no advance", out)
	}

	mark, err := h.marks.Get(ctx, "degods")
	if err != nil {
		t.Fatalf("Get watermark: %v", err)
	}
	if mark != 1000 {
		t.Errorf("watermark = %d, want 1000 (unchanged)", mark)
	}
}

func TestReconcileSeen_DedupsAndBounds(t *testing.T) {
	cfg := testConfig()
	cfg.Mode = ModeSeen
	cfg.SeenCap = 3

	feed := &fakeFeed{activities: map[string][]model.Activity{
		"degods": {
			listAct("degods", "A", 10, 110),
			listAct("degods", "A", 10, 115), // same (token, price): deduped
			listAct("degods", "B", 5, 120),
		},
	}}

	h := newHarness(t, cfg, feed, []string{"degods"})
	ctx := context.Background()
	if err := h.marks.Advance(ctx, "degods", 100); err != nil {
		t.Fatalf("seed watermark: %v", err)
	}

	out := h.driver.processCollection(ctx, "degods")
	if out.Err != nil {
		t.Fatalf("processCollection failed: %v", out.Err)
	}

	events := h.sink.all()
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2 (A@10 once, B@5 once)", len(events))
	}
	for _, ev := range events {
		if ev.Type != model.EventNewListing {
			t.Errorf("seen mode emitted %v, want new_listing only", ev.Type)
		}
	}

	// A price change is a distinct key and announces again.
	feed.activities["degods"] = []model.Activity{listAct("degods", "A", 8, 130)}
	out = h.driver.processCollection(ctx, "degods")
	if out.Err != nil {
		t.Fatalf("processCollection failed: %v", out.Err)
	}
	if got := len(h.sink.all()); got != 3 {
		t.Errorf("events after price change = %d, want 3", got)
	}
}

func TestRunAlerts_PublishesAndConsumes(t *testing.T) {
	feed := &fakeFeed{floors: map[string]float64{"degods": 4.9}}

	kv := memory.New()
	mgr := alerts.NewManager(kv)
	ctx := context.Background()
	if err := mgr.Add(ctx, "user1", "degods", 5); err != nil {
		t.Fatalf("Add alert: %v", err)
	}

	sink := &collectSink{}
	d := New(testConfig(), feed, fixedWatchlist(nil),
		watermark.New(kv), ledger.New(kv, 0), seencache.NewStore(kv),
		alerts.NewMatcher(mgr, feed, nil), sink, nil, nil)
	d.ctx, d.cancel = context.WithCancel(ctx)
	defer d.cancel()

	if got := d.runAlerts(); got != 1 {
		t.Fatalf("runAlerts = %d, want 1", got)
	}
	events := sink.all()
	if len(events) != 1 || events[0].Type != model.EventAlertTriggered {
		t.Fatalf("events = %+v, want one alert_triggered", events)
	}

	// One-shot: the alert is gone.
	if got := d.runAlerts(); got != 0 {
		t.Errorf("second runAlerts = %d, want 0", got)
	}
}

func TestStartStop(t *testing.T) {
	feed := &fakeFeed{activities: map[string][]model.Activity{}}
	h := newHarness(t, testConfig(), feed, []string{"degods"})

	// Replace the pre-wired context: Start installs its own.
	h.driver.cancel()
	if err := h.driver.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// The immediate first cycle should complete quickly.
	deadline := time.Now().Add(2 * time.Second)
	for h.driver.LastCycle().IsZero() {
		if time.Now().After(deadline) {
			t.Fatal("first cycle did not complete")
		}
		time.Sleep(10 * time.Millisecond)
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.driver.Stop(stopCtx); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}
