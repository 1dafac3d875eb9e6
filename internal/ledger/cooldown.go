package ledger

import "time"

// Suppress reports whether a price change at eventTime should be
// suppressed because the last surfaced notification was less than
// window ago. Suppressed changes still update the stored price, but
// do not advance the last-notified time, so a burst of changes still
// surfaces once window has elapsed since the last surfaced one.
// A zero (or negative) window disables suppression.
func Suppress(lastNotified, eventTime int64, window time.Duration) bool {
	if window <= 0 {
		return false
	}
	return eventTime-lastNotified < int64(window/time.Second)
}
