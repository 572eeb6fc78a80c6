package http

import (
	"net/http"

	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.repos.Categories.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in storage.CategoryInput
	if !decodeBody(w, r, &in) {
		return
	}
	category, err := s.repos.Categories.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.LogEntityWrite(r.Context(), "category", category.ID, applog.OpCreate)
	writeJSON(w, http.StatusCreated, category)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := s.repos.Categories.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if category == nil {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var patch storage.CategoryPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	category, err := s.repos.Categories.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	if category == nil {
		writeNotFound(w)
		return
	}
	s.logger.LogEntityWrite(r.Context(), "category", category.ID, applog.OpUpdate)
	writeJSON(w, http.StatusOK, category)
}

// handleRemoveCategory reports removed=false with 200 for protected
// categories, which exist but refuse deletion. Unknown ids are 404.
func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	category, err := s.repos.Categories.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if category == nil {
		writeNotFound(w)
		return
	}
	removed, err := s.repos.Categories.Remove(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

func (s *Server) handleAddSubcategory(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &in) {
		return
	}
	category, err := s.repos.Categories.AddSubcategory(r.Context(), r.PathValue("id"), in.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	if category == nil {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, category)
}

func (s *Server) handleRemoveSubcategory(w http.ResponseWriter, r *http.Request) {
	category, err := s.repos.Categories.RemoveSubcategory(r.Context(), r.PathValue("id"), r.PathValue("name"))
	if err != nil {
		writeError(w, err)
		return
	}
	if category == nil {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, category)
}
