package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	if month := r.URL.Query().Get("month"); month != "" {
		budgets, err := s.repos.Budgets.ListByMonth(r.Context(), month)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, budgets)
		return
	}
	budgets, err := s.repos.Budgets.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var in storage.BudgetInput
	if !decodeBody(w, r, &in) {
		return
	}
	budget, err := s.repos.Budgets.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.LogEntityWrite(r.Context(), "budget", budget.ID, applog.OpCreate)
	writeJSON(w, http.StatusCreated, budget)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	budget, err := s.repos.Budgets.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if budget == nil {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, budget)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var patch storage.BudgetPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	budget, err := s.repos.Budgets.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	if budget == nil {
		writeNotFound(w)
		return
	}
	s.logger.LogEntityWrite(r.Context(), "budget", budget.ID, applog.OpUpdate)
	writeJSON(w, http.StatusOK, budget)
}

func (s *Server) handleRemoveBudget(w http.ResponseWriter, r *http.Request) {
	removed, err := s.repos.Budgets.Remove(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
}

func (s *Server) handleBudgetSpent(w http.ResponseWriter, r *http.Request) {
	spent, found, err := s.stats.BudgetSpent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"spent": spent})
}
