package http

import (
	"net/http"

	"fintrack/internal/log"
	"fintrack/internal/period"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	p, err := parseMonthParams(r, s.now().UTC())
	if err != nil {
		respondError(w, r, log.OpList, err)
		return
	}

	start, end := period.MonthRange(p.Year, p.Month)
	expenses, err := s.store.ListExpenses(r.Context(), ownerFrom(r), start, end)
	if err != nil {
		respondError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenses(expenses))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, log.OpCreate, err)
		return
	}

	owner := ownerFrom(r)
	e, err := req.newExpense(owner)
	if err != nil {
		respondError(w, r, log.OpCreate, err)
		return
	}

	created, err := s.store.CreateExpense(r.Context(), e)
	if err != nil {
		respondError(w, r, log.OpCreate, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		log.FieldOwner, owner,
		"id", created.ID,
		log.FieldCategory, created.Category,
		log.FieldAmount, created.Amount.StringFixed(2))
	s.ledgerChanged(r.Context(), owner, monthOf(created.Date))
	writeJSON(w, http.StatusCreated, toExpense(created))
}

// handleUpdateExpense applies a partial update.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}

	owner := ownerFrom(r)
	current, err := s.store.GetExpense(r.Context(), owner, id)
	if err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}

	updated := current
	if err := req.apply(&updated); err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}
	saved, err := s.store.UpdateExpense(r.Context(), updated)
	if err != nil {
		respondError(w, r, log.OpUpdate, err)
		return
	}

	s.ledgerChanged(r.Context(), owner, monthOf(current.Date), monthOf(saved.Date))
	writeJSON(w, http.StatusOK, toExpense(saved))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		respondError(w, r, log.OpDelete, err)
		return
	}

	owner := ownerFrom(r)
	current, err := s.store.GetExpense(r.Context(), owner, id)
	if err != nil {
		respondError(w, r, log.OpDelete, err)
		return
	}
	if err := s.store.DeleteExpense(r.Context(), owner, id); err != nil {
		respondError(w, r, log.OpDelete, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted", log.FieldOwner, owner, "id", id)
	s.ledgerChanged(r.Context(), owner, monthOf(current.Date))
	w.WriteHeader(http.StatusNoContent)
}
