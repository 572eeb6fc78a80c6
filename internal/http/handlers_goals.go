package http

import (
	"net/http"

	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.goals.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, goals)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var in storage.GoalInput
	if !decodeBody(w, r, &in) {
		return
	}
	goal, err := s.goals.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.LogEntityWrite(r.Context(), "goal", goal.ID, applog.OpCreate)
	writeJSON(w, http.StatusCreated, goal)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := s.goals.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if goal == nil {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, goal)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var patch storage.GoalPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	goal, err := s.goals.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	if goal == nil {
		writeNotFound(w)
		return
	}
	s.logger.LogEntityWrite(r.Context(), "goal", goal.ID, applog.OpUpdate)
	writeJSON(w, http.StatusOK, goal)
}

func (s *Server) handleRemoveGoal(w http.ResponseWriter, r *http.Request) {
	removed, err := s.goals.Remove(r.Context(), r.PathValue("id"))
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
