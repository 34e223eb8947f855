// Package adminsrv exposes the daemon's localhost-only operator surface:
// a health endpoint reporting last-tick freshness and the active key, and
// a Prometheus scrape endpoint. It holds no authentication of its own and
// must never be bound to a public interface.
package adminsrv

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/driftforge/keyrotate/internal/keyring"
)

// Status is the mutable health snapshot the daemon updates after each tick.
type Status struct {
	mu              sync.RWMutex
	lastTickAt      int64
	activeKeyPrefix string
}

// RecordTick updates the snapshot after a tick completes.
func (s *Status) RecordTick(now int64, activeKeyID *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTickAt = now
	s.activeKeyPrefix = "-"
	if activeKeyID != nil && len(*activeKeyID) >= 8 {
		s.activeKeyPrefix = (*activeKeyID)[:8]
	}
}

func (s *Status) snapshot() (int64, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTickAt, s.activeKeyPrefix
}

type healthResponse struct {
	LastTickAt      int64  `json:"last_tick_at"`
	ActiveKeyPrefix string `json:"active_key_prefix"`
}

// NewRouter builds the admin chi.Router. Callers must bind it to a
// loopback address only (e.g. 127.0.0.1:9797).
func NewRouter(status *Status) chi.Router {
	r := chi.NewRouter()
	r.Use(recoverMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		lastTick, prefix := status.snapshot()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(healthResponse{LastTickAt: lastTick, ActiveKeyPrefix: prefix})
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// recoverMiddleware is a minimal inline panic guard; this surface is small
// enough (two read-only endpoints) that it doesn't need the teacher's
// full middleware stack.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				w.WriteHeader(http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// StatusFromKeyring returns the current time and kr's active key id, the
// two arguments RecordTick takes.
func StatusFromKeyring(kr *keyring.Keyring) (int64, *string) {
	return time.Now().UnixMilli(), kr.ActiveKeyID
}
