package http

import (
	"net/http"

	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	if month := r.URL.Query().Get("month"); month != "" {
		txs, err := s.repos.Transactions.ListByMonth(r.Context(), month)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, txs)
		return
	}
	txs, err := s.repos.Transactions.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in storage.TransactionInput
	if !decodeBody(w, r, &in) {
		return
	}
	tx, err := s.repos.Transactions.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.LogEntityWrite(r.Context(), "transaction", tx.ID, applog.OpCreate)
	writeJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.repos.Transactions.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if tx == nil {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var patch storage.TransactionPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	tx, err := s.repos.Transactions.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	if tx == nil {
		writeNotFound(w)
		return
	}
	s.logger.LogEntityWrite(r.Context(), "transaction", tx.ID, applog.OpUpdate)
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleRemoveTransaction(w http.ResponseWriter, r *http.Request) {
	removed, err := s.repos.Transactions.Remove(r.Context(), r.PathValue("id"))
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
