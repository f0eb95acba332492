package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tordrt/schemadraft/internal/schema"
	"github.com/tordrt/schemadraft/internal/store"
)

type saveSchemaRequest struct {
	Code string          `json:"code"`
	Data json.RawMessage `json:"data"`
}

// handleSaveSchema stores {code, data} under code, replacing any snapshot
// already saved there.
func (s *Server) handleSaveSchema(w http.ResponseWriter, r *http.Request) {
	var req saveSchemaRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Missing code or data")
		return
	}
	if req.Code == "" || len(req.Data) == 0 || string(req.Data) == "null" {
		writeError(w, http.StatusBadRequest, "Missing code or data")
		return
	}

	tables, err := decodeSchemaField(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing code or data")
		return
	}

	if err := s.store.Save(r.Context(), req.Code, schema.New(tables...)); err != nil {
		s.logger.Error("failed to save schema", "code", req.Code, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save schema")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleLoadSchema returns {data: tables} for ?code=.
func (s *Server) handleLoadSchema(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "Missing code")
		return
	}

	snap, err := s.store.Load(r.Context(), code)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Schema not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to load schema", "code", code, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve schema")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": snap.Schema})
}
