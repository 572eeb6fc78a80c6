package http

import (
	"net/http"

	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.repos.Accounts.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var in storage.AccountInput
	if !decodeBody(w, r, &in) {
		return
	}
	account, err := s.repos.Accounts.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.LogEntityWrite(r.Context(), "account", account.ID, applog.OpCreate)
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := s.repos.Accounts.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if account == nil {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var patch storage.AccountPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	account, err := s.repos.Accounts.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	if account == nil {
		writeNotFound(w)
		return
	}
	s.logger.LogEntityWrite(r.Context(), "account", account.ID, applog.OpUpdate)
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleRemoveAccount(w http.ResponseWriter, r *http.Request) {
	removed, err := s.repos.Accounts.Remove(r.Context(), r.PathValue("id"))
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
