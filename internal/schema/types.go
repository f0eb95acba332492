package schema

import (
	"bytes"
	"encoding/json"
)

// Column represents a table column
type Column struct {
	Name         string      `json:"name" yaml:"name"`
	Type         string      `json:"type" yaml:"type"`
	Nullable     bool        `json:"nullable" yaml:"nullable"`
	DefaultValue string      `json:"defaultValue,omitempty" yaml:"defaultValue,omitempty"`
	IsPrimaryKey bool        `json:"isPrimaryKey" yaml:"isPrimaryKey"`
	IsUnique     bool        `json:"isUnique" yaml:"isUnique"`
	ForeignKey   *ForeignKey `json:"foreignKey,omitempty" yaml:"foreignKey,omitempty"`
}

// UnmarshalJSON accepts a defaultValue given as any JSON scalar. Numbers and
// booleans keep their literal text, so 0 becomes "0" and false "false".
func (c *Column) UnmarshalJSON(data []byte) error {
	type plain Column
	var aux struct {
		plain
		DefaultValue json.RawMessage `json:"defaultValue,omitempty"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = Column(aux.plain)
	c.DefaultValue = defaultText(aux.DefaultValue)
	return nil
}

func defaultText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// ForeignKey points a column at another table's column
type ForeignKey struct {
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column" yaml:"column"`
}

// CurrentTimestamp is the default-value sentinel rendered as a "now" default
// by the declarative generators.
const CurrentTimestamp = "CURRENT_TIMESTAMP"

// RendersNullable reports whether generated code should treat the column as
// nullable. Primary key columns never render nullable.
func (c Column) RendersNullable() bool {
	return c.Nullable && !c.IsPrimaryKey
}

// HasDefault reports whether the column carries a default value.
func (c Column) HasDefault() bool {
	return c.DefaultValue != ""
}

// Table represents a database table. A Table is treated as immutable once it
// has been placed in a Schema; replace it wholesale instead of editing it.
type Table struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []Column `json:"columns" yaml:"columns"`
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// PrimaryKey returns the primary key columns in declaration order.
func (t *Table) PrimaryKey() []Column {
	var pk []Column
	for _, c := range t.Columns {
		if c.IsPrimaryKey {
			pk = append(pk, c)
		}
	}
	return pk
}

// HasCompositeKey reports whether more than one column is flagged as primary key.
func (t *Table) HasCompositeKey() bool {
	return len(t.PrimaryKey()) > 1
}
