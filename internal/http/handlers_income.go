package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	p, err := parseMonthParams(r, s.now().UTC())
	if err != nil {
		respondError(w, r, log.OpRead, err)
		return
	}

	income, err := s.store.GetIncome(r.Context(), ownerFrom(r), p.Start())
	if err != nil {
		respondError(w, r, log.OpRead, err)
		return
	}

	resp := incomeEnvelope{Year: p.Year, Month: p.Month}
	if income != nil {
		resp.Income = toIncome(*income)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpsertIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}
	if req.Amount == nil {
		respondError(w, r, log.OpUpdate, core.ErrInvalidAmount)
		return
	}
	p, err := resolveMonth(req.Year, req.Month, s.now().UTC())
	if err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}

	owner := ownerFrom(r)
	income, err := s.store.UpsertIncome(r.Context(), owner, p.Start(), req.Amount.Decimal)
	if err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Income saved",
		log.NewFields().WithPeriod(owner.String(), p.Year, p.Month).ToSlice()...)
	s.ledgerChanged(r.Context(), owner, p.Start())
	writeJSON(w, http.StatusOK, toIncome(income))
}
