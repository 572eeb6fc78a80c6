package http

import (
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.repos.Investments.ListPositions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleCreatePosition(w http.ResponseWriter, r *http.Request) {
	var in storage.PositionInput
	if !decodeBody(w, r, &in) {
		return
	}
	position, err := s.repos.Investments.CreatePosition(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.LogEntityWrite(r.Context(), "position", position.ID, applog.OpCreate)
	writeJSON(w, http.StatusCreated, position)
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	position, err := s.repos.Investments.GetPosition(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if position == nil {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, position)
}

func (s *Server) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	var patch storage.PositionPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	position, err := s.repos.Investments.UpdatePosition(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	if position == nil {
		writeNotFound(w)
		return
	}
	s.logger.LogEntityWrite(r.Context(), "position", position.ID, applog.OpUpdate)
	writeJSON(w, http.StatusOK, position)
}

func (s *Server) handleRemovePosition(w http.ResponseWriter, r *http.Request) {
	removed, err := s.repos.Investments.RemovePosition(r.Context(), r.PathValue("id"))
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

func (s *Server) handleAddSnapshot(w http.ResponseWriter, r *http.Request) {
	var in storage.SnapshotInput
	if !decodeBody(w, r, &in) {
		return
	}
	snapshot, err := s.repos.Investments.AddSnapshot(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.LogEntityWrite(r.Context(), "snapshot", snapshot.ID, applog.OpCreate)
	writeJSON(w, http.StatusCreated, snapshot)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	assetType := core.AssetType(r.PathValue("assetType"))
	if !core.ValidAssetType(assetType) {
		writeError(w, core.ErrInvalidAssetType)
		return
	}
	snapshots, err := s.repos.Investments.ListSnapshots(r.Context(), assetType, r.PathValue("ticker"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}

func (s *Server) handleGetRefs(w http.ResponseWriter, r *http.Request) {
	assetType := core.AssetType(r.PathValue("assetType"))
	if !core.ValidAssetType(assetType) {
		writeError(w, core.ErrInvalidAssetType)
		return
	}
	refs, err := s.repos.Investments.Refs(r.Context(), assetType, r.PathValue("ticker"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refs)
}
