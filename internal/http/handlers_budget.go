package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	p, err := parseMonthParams(r, s.now().UTC())
	if err != nil {
		respondError(w, r, log.OpList, err)
		return
	}

	budgets, err := s.store.ListBudgets(r.Context(), ownerFrom(r), p.Start())
	if err != nil {
		respondError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgets(budgets))
}

// handleUpsertBudget creates or replaces the budget of (category, month).
func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}
	if req.Category == nil {
		respondError(w, r, log.OpUpdate, core.ErrInvalidCategory)
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

	var b core.Budget
	if err := req.apply(&b); err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}

	owner := ownerFrom(r)
	saved, err := s.store.UpsertBudget(r.Context(), owner, b.Category, p.Start(), b.Amount)
	if err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Budget saved",
		log.NewFields().WithPeriod(owner.String(), p.Year, p.Month).ToSlice()...)
	writeJSON(w, http.StatusOK, toBudget(saved))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}

	owner := ownerFrom(r)
	b, err := s.store.GetBudget(r.Context(), owner, id)
	if err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}
	if req.Year != nil || req.Month != nil {
		p, err := resolveMonth(req.Year, req.Month, b.Month)
		if err != nil {
			respondError(w, r, log.OpUpdate, err)
			return
		}
		b.Month = p.Start()
	}
	if err := req.apply(&b); err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}

	saved, err := s.store.UpdateBudget(r.Context(), b)
	if err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudget(saved))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, r, log.OpDelete, err)
		return
	}
	if err := s.store.DeleteBudget(r.Context(), ownerFrom(r), id); err != nil {
		respondError(w, r, log.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
