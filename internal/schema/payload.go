package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// tablesDocument is the object form of a schema payload: {"tables": [...]}.
type tablesDocument struct {
	Tables []json.RawMessage `json:"tables"`
}

// DecodeTables parses a schema payload. It accepts either a bare array of
// tables or an object with a "tables" array. Entries that fail to decode or
// carry no name are dropped rather than failing the whole payload.
func DecodeTables(data []byte) ([]*Table, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var raw []json.RawMessage
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode table list: %w", err)
		}
	case '{':
		var doc tablesDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode schema document: %w", err)
		}
		raw = doc.Tables
	default:
		return nil, fmt.Errorf("decode schema: expected JSON array or object")
	}

	tables := make([]*Table, 0, len(raw))
	for _, item := range raw {
		var t Table
		if err := json.Unmarshal(item, &t); err != nil {
			continue
		}
		if t.Name == "" {
			continue
		}
		tables = append(tables, &t)
	}
	return tables, nil
}

// DecodeYAMLTables is the YAML counterpart of DecodeTables.
func DecodeYAMLTables(data []byte) ([]*Table, error) {
	var list []*Table
	if err := yaml.Unmarshal(data, &list); err == nil {
		return withoutNameless(list), nil
	}

	var doc struct {
		Tables []*Table `yaml:"tables"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml schema: %w", err)
	}
	return withoutNameless(doc.Tables), nil
}

func withoutNameless(tables []*Table) []*Table {
	out := tables[:0]
	for _, t := range tables {
		if t != nil && t.Name != "" {
			out = append(out, t)
		}
	}
	return out
}

// ReadFile loads a schema from a .json, .yaml or .yml file.
func ReadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var tables []*Table
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		tables, err = DecodeYAMLTables(data)
	default:
		tables, err = DecodeTables(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return New(tables...), nil
}

// WriteFile stores s as an indented JSON array, or YAML for .yaml/.yml paths.
func WriteFile(path string, s *Schema) error {
	MustNotBeNil(s)

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(s.Tables())
	default:
		data, err = json.MarshalIndent(s, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}
	return nil
}
