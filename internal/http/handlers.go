package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports ready once the store answers a query.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.store.ListOwners(ctx); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Readiness check failed", log.FieldError, err)
		writeError(w, r, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// ledgerChanged drops the owner's materialization marks and announces the
// change. Publishing is best effort.
func (s *Server) ledgerChanged(ctx context.Context, owner core.Owner, months ...time.Time) {
	s.marks.Forget(owner.String())
	if s.events == nil {
		return
	}
	seen := make(map[time.Time]bool, len(months))
	for _, m := range months {
		if seen[m] {
			continue
		}
		seen[m] = true
		if err := s.events.PublishLedgerChanged(ctx, owner, m); err != nil {
			log.FromContext(ctx).ErrorContext(ctx, "Failed to publish ledger change",
				log.FieldOwner, owner,
				log.FieldError, err)
		}
	}
}
