package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tordrt/schemadraft/internal/provider"
	"github.com/tordrt/schemadraft/internal/schema"
)

type generateRequest struct {
	Description   string          `json:"description"`
	CurrentSchema json.RawMessage `json:"currentSchema,omitempty"`
}

type tablesEnvelope struct {
	Tables []*schema.Table `json:"tables"`
}

// handleGenerateSchema asks the provider for tables and answers
// {schema: {tables: [...]}}.
func (s *Server) handleGenerateSchema(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := readJSON(w, r, &req); err != nil || req.Description == "" {
		writeError(w, http.StatusBadRequest, "Description is required")
		return
	}

	var current *schema.Schema
	if len(req.CurrentSchema) > 0 {
		tables, err := decodeSchemaField(req.CurrentSchema)
		if err != nil {
			s.logger.Warn("ignoring unreadable currentSchema", "error", err)
		} else if len(tables) > 0 {
			current = schema.New(tables...)
		}
	}

	tables, err := s.provider.Generate(r.Context(), req.Description, current)
	if err != nil {
		if errors.Is(err, provider.ErrEmptyDescription) {
			writeError(w, http.StatusBadRequest, "Description is required")
			return
		}
		s.logger.Error("error generating schema", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate schema")
		return
	}
	if tables == nil {
		tables = []*schema.Table{}
	}
	writeJSON(w, http.StatusOK, map[string]tablesEnvelope{"schema": {Tables: tables}})
}
