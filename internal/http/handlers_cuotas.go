package http

import (
	"net/http"

	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

func (s *Server) handleListCuotas(w http.ResponseWriter, r *http.Request) {
	cuotas, err := s.repos.Cuotas.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cuotas)
}

func (s *Server) handleCreateCuota(w http.ResponseWriter, r *http.Request) {
	var in storage.CuotaInput
	if !decodeBody(w, r, &in) {
		return
	}
	cuota, err := s.repos.Cuotas.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.LogEntityWrite(r.Context(), "cuota", cuota.ID, applog.OpCreate)
	writeJSON(w, http.StatusCreated, cuota)
}

func (s *Server) handleGetCuota(w http.ResponseWriter, r *http.Request) {
	cuota, err := s.repos.Cuotas.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if cuota == nil {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, cuota)
}

func (s *Server) handleUpdateCuota(w http.ResponseWriter, r *http.Request) {
	var patch storage.CuotaPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	cuota, err := s.repos.Cuotas.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	if cuota == nil {
		writeNotFound(w)
		return
	}
	s.logger.LogEntityWrite(r.Context(), "cuota", cuota.ID, applog.OpUpdate)
	writeJSON(w, http.StatusOK, cuota)
}

func (s *Server) handleRemoveCuota(w http.ResponseWriter, r *http.Request) {
	removed, err := s.repos.Cuotas.Remove(r.Context(), r.PathValue("id"))
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

func (s *Server) handleRegisterPayment(w http.ResponseWriter, r *http.Request) {
	cuota, err := s.repos.Cuotas.RegisterPayment(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if cuota == nil {
		writeNotFound(w)
		return
	}
	s.logger.LogEntityWrite(r.Context(), "cuota", cuota.ID, applog.OpUpdate)
	writeJSON(w, http.StatusOK, cuota)
}
