// Package reconcile folds incoming table updates into a session's schema.
//
// Merge is a pure function over immutable schema values. Session owns one
// schema per design and is the single entry point through which updates are
// applied, in arrival order, with change notifications fanned out to
// subscribers.
package reconcile

import (
	"fmt"

	"github.com/tordrt/schemadraft/internal/schema"
)

// Mode selects how an Update combines with the current schema.
type Mode string

const (
	// ModeFull replaces the whole schema with the incoming tables.
	ModeFull Mode = "full"
	// ModeUpdate upserts incoming tables by name and drops removed names,
	// keeping every other table as is.
	ModeUpdate Mode = "update"
)

// ParseMode maps a wire value to a Mode. The empty string means full.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeFull:
		return ModeFull, nil
	case ModeUpdate:
		return ModeUpdate, nil
	default:
		return "", fmt.Errorf("unknown reconcile mode %q (want %q or %q)", s, ModeFull, ModeUpdate)
	}
}

// Update is one delivery from the schema author. A zero Mode means full.
type Update struct {
	Mode    Mode
	Tables  []*schema.Table
	Removed []string
}

// validTables returns the incoming tables that carry a name.
func (u Update) validTables() []*schema.Table {
	out := make([]*schema.Table, 0, len(u.Tables))
	for _, t := range u.Tables {
		if t != nil && t.Name != "" {
			out = append(out, t)
		}
	}
	return out
}

// Merge combines current with u and returns the resulting schema.
//
// When the update changes nothing, Merge returns current itself; callers
// compare the returned pointer with current to decide whether anything
// happened. In update mode every table that was neither upserted nor removed
// keeps its *schema.Table pointer. Nameless incoming tables are skipped.
func Merge(current *schema.Schema, u Update) *schema.Schema {
	schema.MustNotBeNil(current)

	incoming := u.validTables()

	if u.Mode == "" || u.Mode == ModeFull {
		if len(incoming) == 0 {
			return current
		}
		return schema.New(incoming...)
	}

	next := current
	for _, name := range u.Removed {
		next = next.WithRemoved(name)
	}
	for _, t := range incoming {
		next = next.WithUpserted(t)
	}
	return next
}
