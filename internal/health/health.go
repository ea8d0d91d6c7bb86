// Package health implements the two HTTP routes spec.md §6 requires:
// a liveness check that is always 200, and a database check that
// probes the pool with a trivial query.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type statusBody struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Handler always replies 200 with a JSON status body.
func Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(statusBody{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// DBHandler returns a handler that replies 200 if a trivial SQL probe
// against pool succeeds, 503 otherwise.
func DBHandler(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := pool.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(statusBody{Status: "unavailable", Timestamp: time.Now().UTC().Format(time.RFC3339)})
			return
		}
		_ = json.NewEncoder(w).Encode(statusBody{Status: "ok", Timestamp: time.Now().UTC().Format(time.RFC3339)})
	}
}
