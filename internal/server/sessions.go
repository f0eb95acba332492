package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tordrt/schemadraft/internal/codegen"
	"github.com/tordrt/schemadraft/internal/layout"
	"github.com/tordrt/schemadraft/internal/reconcile"
	"github.com/tordrt/schemadraft/internal/schema"
	"github.com/tordrt/schemadraft/internal/store"
)

// sessionView is the JSON form of a session's state.
type sessionView struct {
	ID        string         `json:"id"`
	Version   uint64         `json:"version"`
	Status    string         `json:"status"`
	Streaming bool           `json:"streaming"`
	Schema    *schema.Schema `json:"schema"`
}

func viewOf(sess *reconcile.Session) sessionView {
	return sessionView{
		ID:        sess.ID(),
		Version:   sess.Version(),
		Status:    sess.Status(),
		Streaming: sess.Streaming(),
		Schema:    sess.Snapshot(),
	}
}

type createSessionRequest struct {
	// Code seeds the session from a shared snapshot.
	Code string `json:"code,omitempty"`
	// Tables seeds the session directly.
	Tables json.RawMessage `json:"tables,omitempty"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": s.sessions.IDs()})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	initial := schema.Empty()
	switch {
	case req.Code != "":
		snap, err := s.store.Load(r.Context(), req.Code)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Schema not found")
			return
		}
		if err != nil {
			s.logger.Error("failed to load schema", "code", req.Code, "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to retrieve schema")
			return
		}
		initial = snap.Schema
	case len(req.Tables) > 0:
		tables, err := decodeSchemaField(req.Tables)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid tables")
			return
		}
		initial = schema.New(tables...)
	}

	sess := s.sessions.Create(initial)
	writeJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(sess))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if err := s.sessions.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	s.dropDiagram(id)
	w.WriteHeader(http.StatusNoContent)
}

type applyRequest struct {
	Mode          string          `json:"mode"`
	Tables        json.RawMessage `json:"tables"`
	RemovedTables []string        `json:"removedTables"`
}

type applyResponse struct {
	sessionView
	Changed bool `json:"changed"`
}

// handleApply folds one author delivery into the session.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req applyRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	mode, err := reconcile.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tables, err := decodeSchemaField(req.Tables)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tables")
		return
	}

	_, changed := sess.Apply(reconcile.Update{Mode: mode, Tables: tables, Removed: req.RemovedTables})
	writeJSON(w, http.StatusOK, applyResponse{sessionView: viewOf(sess), Changed: changed})
}

type sessionGenerateRequest struct {
	Description string `json:"description"`
	Mode        string `json:"mode"`
}

// handleSessionGenerate asks the provider for tables and applies them to the
// session. In update mode the current schema is sent along as context.
func (s *Server) handleSessionGenerate(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req sessionGenerateRequest
	if err := readJSON(w, r, &req); err != nil || req.Description == "" {
		writeError(w, http.StatusBadRequest, "Description is required")
		return
	}
	mode, err := reconcile.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var current *schema.Schema
	if mode == reconcile.ModeUpdate {
		current = sess.Snapshot()
	}

	sess.SetStreaming(true, mode)
	tables := s.provider.RequestSchema(r.Context(), req.Description, current)
	_, changed := sess.Apply(reconcile.Update{Mode: mode, Tables: tables})
	sess.SetStreaming(false, "")

	writeJSON(w, http.StatusOK, applyResponse{sessionView: viewOf(sess), Changed: changed})
}

func (s *Server) handleSetStreaming(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Streaming bool   `json:"streaming"`
		Mode      string `json:"mode"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	var mode reconcile.Mode
	if req.Mode != "" {
		m, err := reconcile.ParseMode(req.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		mode = m
	}
	sess.SetStreaming(req.Streaming, mode)
	writeJSON(w, http.StatusOK, viewOf(sess))
}

// handleCode renders the session schema in the requested format.
func (s *Server) handleCode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	format, err := codegen.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	snapshot := sess.Snapshot()
	etag := fmt.Sprintf("%q", string(format)+"-"+snapshot.Digest())
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", codegen.FileName(format)))
	if err := codegen.Write(w, format, snapshot); err != nil {
		s.logger.Error("failed to write generated code", "format", format, "error", err)
	}
}

// handleDiagram lays out the current schema, keeping positions from
// earlier calls.
func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	d := s.diagram(sess.ID())
	d.mu.Lock()
	diagram := d.layout.Update(sess.Snapshot())
	d.mu.Unlock()

	writeJSON(w, http.StatusOK, diagram)
}

// handleMoveNode pins a table node where the user dropped it.
func (s *Server) handleMoveNode(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var pos layout.Position
	if err := readJSON(w, r, &pos); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid position")
		return
	}

	d := s.diagram(sess.ID())
	d.mu.Lock()
	d.layout.Move(chi.URLParam(r, "table"), pos)
	d.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// handleShare saves the session schema under a share code, generating one
// when the request does not name it.
func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if r.ContentLength != 0 {
		if err := readJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if req.Code == "" {
		req.Code = store.NewCode()
	}

	if err := s.store.Save(r.Context(), req.Code, sess.Snapshot()); err != nil {
		s.logger.Error("failed to save schema", "code", req.Code, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save schema")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"code": req.Code})
}
