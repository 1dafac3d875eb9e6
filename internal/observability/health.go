package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Pinger verifies a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves a JSON health summary: store reachability and
// the time of the last completed poll cycle.
func HealthHandler(store Pinger, lastCycle func() time.Time) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ok"
		code := http.StatusOK

		var storeStatus string
		if store != nil {
			if err := store.Ping(ctx); err != nil {
				storeStatus = err.Error()
				status = "degraded"
				code = http.StatusServiceUnavailable
			} else {
				storeStatus = "ok"
			}
		}

		resp := map[string]any{
			"status": status,
			"store":  storeStatus,
		}
		if lastCycle != nil {
			if t := lastCycle(); !t.IsZero() {
				resp["last_cycle"] = t.UTC().Format(time.RFC3339)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(resp)
	})
}
