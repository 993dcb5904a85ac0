package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/period"
)

func monthOf(t time.Time) time.Time {
	return period.MonthStart(period.Of(t.UTC()))
}

func (s *Server) handleSavings(w http.ResponseWriter, r *http.Request) {
	p, err := parseMonthParams(r, s.now().UTC())
	if err != nil {
		respondError(w, r, log.OpRead, err)
		return
	}

	balance, err := s.savings.ComputeSavings(r.Context(), ownerFrom(r), p.Year, p.Month)
	if err != nil {
		respondError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, savingsResponse{Year: p.Year, Month: p.Month, Savings: core.FormatAmount(balance)})
}

// handleDashboard builds the month summary. For the current month the
// owner's recurring expenses are materialized first, at most once per mark TTL.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	now := s.now().UTC()
	p, err := parseMonthParams(r, now)
	if err != nil {
		respondError(w, r, log.OpRead, err)
		return
	}

	owner := ownerFrom(r)
	if isCurrentMonth(p, now) && !s.marks.Marked(owner.String(), p.Year, p.Month) {
		if _, err := s.materialize(r, owner, now); err != nil {
			respondError(w, r, log.OpMaterialize, err)
			return
		}
	}

	summary, err := s.dashboard.BuildDashboard(r.Context(), owner, p.Year, p.Month)
	if err != nil {
		respondError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboard(summary))
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	p, err := parseMonthParams(r, s.now().UTC())
	if err != nil {
		respondError(w, r, log.OpRead, err)
		return
	}

	insights, err := s.insights.DeriveInsights(r.Context(), ownerFrom(r), p.Year, p.Month)
	if err != nil {
		respondError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, toInsights(insights))
}

func (s *Server) handleGenerateRecurring(w http.ResponseWriter, r *http.Request) {
	created, err := s.materialize(r, ownerFrom(r), s.now().UTC())
	if err != nil {
		respondError(w, r, log.OpMaterialize, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{Created: created})
}

// materialize runs the materializer for today's month and marks it done.
func (s *Server) materialize(r *http.Request, owner core.Owner, today time.Time) (int, error) {
	created, err := s.recurring.MaterializeForCurrentMonth(r.Context(), owner, today)
	if err != nil {
		return 0, err
	}
	year, month := period.Of(today)
	s.marks.Mark(owner.String(), year, month)
	if created > 0 {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Recurring expenses materialized",
			log.FieldOwner, owner,
			"created", created)
	}
	return created, nil
}
