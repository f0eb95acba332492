// Package schema holds the in-memory model of a database design: an ordered,
// name-keyed collection of tables.
//
// A Schema value is never modified after construction. WithUpserted and
// WithRemoved return new Schema values that share unchanged *Table pointers
// with their source, so consumers can skip tables whose pointer did not move.
package schema

import (
	"encoding/json"
	"errors"
)

// ErrNilSchema is the panic value used when a nil *Schema reaches code that
// requires one. It marks a caller bug, not a data problem.
var ErrNilSchema = errors.New("schema: nil *Schema")

// Schema represents a complete database design
type Schema struct {
	tables []*Table
	index  map[string]int
}

// New builds a Schema from tables in order. Nil tables and tables without a
// name are skipped. When a name repeats, the later table replaces the earlier
// one at the earlier position.
func New(tables ...*Table) *Schema {
	s := &Schema{index: make(map[string]int, len(tables))}
	for _, t := range tables {
		s.put(t)
	}
	return s
}

// Empty returns a schema with no tables.
func Empty() *Schema {
	return New()
}

// MustNotBeNil panics with ErrNilSchema when s is nil.
func MustNotBeNil(s *Schema) {
	if s == nil {
		panic(ErrNilSchema)
	}
}

func (s *Schema) put(t *Table) bool {
	if t == nil || t.Name == "" {
		return false
	}
	if i, ok := s.index[t.Name]; ok {
		s.tables[i] = t
		return true
	}
	s.index[t.Name] = len(s.tables)
	s.tables = append(s.tables, t)
	return true
}

func (s *Schema) clone() *Schema {
	c := &Schema{
		tables: make([]*Table, len(s.tables)),
		index:  make(map[string]int, len(s.index)),
	}
	copy(c.tables, s.tables)
	for k, v := range s.index {
		c.index[k] = v
	}
	return c
}

// Len returns the number of tables.
func (s *Schema) Len() int {
	return len(s.tables)
}

// Get returns the table with the given name.
func (s *Schema) Get(name string) (*Table, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.tables[i], true
}

// Has reports whether a table with the given name exists.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Tables returns the tables in insertion order. The returned slice is a copy;
// the tables it points to are shared.
func (s *Schema) Tables() []*Table {
	out := make([]*Table, len(s.tables))
	copy(out, s.tables)
	return out
}

// Names returns the table names in insertion order.
func (s *Schema) Names() []string {
	names := make([]string, len(s.tables))
	for i, t := range s.tables {
		names[i] = t.Name
	}
	return names
}

// WithUpserted returns a new Schema where t replaces the table of the same
// name in place, or is appended when the name is new. A nil or nameless
// table yields s itself.
func (s *Schema) WithUpserted(t *Table) *Schema {
	if t == nil || t.Name == "" {
		return s
	}
	c := s.clone()
	c.put(t)
	return c
}

// WithRemoved returns a new Schema without the named table. Removing a name
// that is not present yields s itself.
func (s *Schema) WithRemoved(name string) *Schema {
	if !s.Has(name) {
		return s
	}
	kept := make([]*Table, 0, len(s.tables)-1)
	for _, t := range s.tables {
		if t.Name != name {
			kept = append(kept, t)
		}
	}
	return New(kept...)
}

// MarshalJSON encodes the schema as an array of tables.
func (s *Schema) MarshalJSON() ([]byte, error) {
	if s == nil || s.tables == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.tables)
}

// UnmarshalJSON decodes an array of tables, skipping invalid entries.
func (s *Schema) UnmarshalJSON(data []byte) error {
	tables, err := DecodeTables(data)
	if err != nil {
		return err
	}
	*s = *New(tables...)
	return nil
}

// Resolves reports whether fk points at a table present in s that declares
// the referenced column. Dangling references are not errors; consumers that
// can check existence simply leave them out.
func (s *Schema) Resolves(fk *ForeignKey) bool {
	if fk == nil {
		return false
	}
	t, ok := s.Get(fk.Table)
	if !ok {
		return false
	}
	_, ok = t.Column(fk.Column)
	return ok
}
