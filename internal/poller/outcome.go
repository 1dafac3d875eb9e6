package poller

// Outcome is the result of processing one collection in one cycle.
// The driver aggregates and logs outcomes instead of letting a single
// collection's failure propagate.
type Outcome struct {
	Collection string
	Fresh      int   // records newer than the watermark
	Processed  int   // records reconciled before any failure
	Events     int   // events handed to the sink
	Advanced   bool  // watermark moved this cycle
	Err        error // nil on success; fetch or store failure otherwise
}
