package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/schemadraft/internal/schema"
)

func tbl(name string, cols ...string) *schema.Table {
	t := &schema.Table{Name: name}
	for _, c := range cols {
		t.Columns = append(t.Columns, schema.Column{Name: c, Type: "TEXT"})
	}
	return t
}

func TestMergeUpdatePreservesUntouchedTablesByReference(t *testing.T) {
	a, b, c := tbl("a", "id"), tbl("b", "id"), tbl("c", "id")
	current := schema.New(a, b, c)

	b2 := tbl("b", "id", "renamed")
	next := Merge(current, Update{Mode: ModeUpdate, Tables: []*schema.Table{b2}})

	tables := next.Tables()
	require.Len(t, tables, 3)
	assert.Same(t, a, tables[0])
	assert.Same(t, b2, tables[1])
	assert.Same(t, c, tables[2])

	assert.Equal(t, []string{"a", "b", "c"}, current.Names())
	got, _ := current.Get("b")
	assert.Same(t, b, got, "source schema must not change")
}

func TestMergeUpdateAppendsNewTables(t *testing.T) {
	current := schema.New(tbl("a"), tbl("b"))

	next := Merge(current, Update{Mode: ModeUpdate, Tables: []*schema.Table{tbl("z"), tbl("a", "x"), tbl("c")}})

	assert.Equal(t, []string{"a", "b", "z", "c"}, next.Names())
}

func TestMergeUpdateReplacesWholesale(t *testing.T) {
	current := schema.New(tbl("a", "id", "name", "email"))

	next := Merge(current, Update{Mode: ModeUpdate, Tables: []*schema.Table{tbl("a", "id")}})

	got, ok := next.Get("a")
	require.True(t, ok)
	assert.Len(t, got.Columns, 1)
}

func TestMergeRemoval(t *testing.T) {
	a, b, c := tbl("a"), tbl("b"), tbl("c")
	current := schema.New(a, b, c)

	t.Run("absent name is a no-op", func(t *testing.T) {
		next := Merge(current, Update{Mode: ModeUpdate, Removed: []string{"missing"}})
		assert.Same(t, current, next)
	})

	t.Run("present name drops exactly that table", func(t *testing.T) {
		next := Merge(current, Update{Mode: ModeUpdate, Removed: []string{"b"}})
		assert.Equal(t, []string{"a", "c"}, next.Names())
		tables := next.Tables()
		assert.Same(t, a, tables[0])
		assert.Same(t, c, tables[1])
	})

	t.Run("removing twice equals removing once", func(t *testing.T) {
		once := Merge(current, Update{Mode: ModeUpdate, Removed: []string{"b"}})
		twice := Merge(once, Update{Mode: ModeUpdate, Removed: []string{"b"}})
		assert.Same(t, once, twice)
	})

	t.Run("remove and re-add in one update", func(t *testing.T) {
		b2 := tbl("b", "x")
		next := Merge(current, Update{Mode: ModeUpdate, Tables: []*schema.Table{b2}, Removed: []string{"b"}})
		assert.Equal(t, []string{"a", "c", "b"}, next.Names())
	})
}

func TestMergeNoOpReturnsSameReference(t *testing.T) {
	current := schema.New(tbl("a"))

	tests := []struct {
		name string
		u    Update
	}{
		{"empty update", Update{Mode: ModeUpdate}},
		{"empty full", Update{Mode: ModeFull}},
		{"full with only removals", Update{Mode: ModeFull, Removed: []string{"a"}}},
		{"only nameless tables", Update{Mode: ModeUpdate, Tables: []*schema.Table{{}, nil}}},
		{"full with only nameless tables", Update{Mode: ModeFull, Tables: []*schema.Table{{Columns: []schema.Column{{Name: "id"}}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Same(t, current, Merge(current, tt.u))
		})
	}
}

func TestMergeSkipsNamelessTables(t *testing.T) {
	current := schema.New(tbl("a"))

	next := Merge(current, Update{Mode: ModeUpdate, Tables: []*schema.Table{{}, tbl("b"), nil}})

	assert.Equal(t, []string{"a", "b"}, next.Names())
}

func TestMergeFullReplacesEverything(t *testing.T) {
	current := schema.New(tbl("a"), tbl("b"))

	next := Merge(current, Update{Mode: ModeFull, Tables: []*schema.Table{tbl("c"), tbl("a")}})

	assert.Equal(t, []string{"c", "a"}, next.Names())
}

func TestMergeZeroModeIsFull(t *testing.T) {
	current := schema.New(tbl("a"), tbl("b"))

	next := Merge(current, Update{Tables: []*schema.Table{tbl("c")}})
	assert.Equal(t, []string{"c"}, next.Names())

	same := Merge(current, Update{Removed: []string{"a"}})
	assert.Same(t, current, same)
}

func TestMergeFullIsIdempotent(t *testing.T) {
	incoming := []*schema.Table{tbl("users", "id"), tbl("posts", "id", "user_id")}

	first := Merge(schema.Empty(), Update{Mode: ModeFull, Tables: incoming})
	second := Merge(first, Update{Mode: ModeFull, Tables: incoming})

	changed, removed := Diff(first, second)
	assert.Empty(t, changed)
	assert.Empty(t, removed)
	assert.Equal(t, first.Names(), second.Names())
}

func TestMergeLaterDuplicateWins(t *testing.T) {
	first := tbl("a", "one")
	second := tbl("a", "two")

	next := Merge(schema.Empty(), Update{Mode: ModeUpdate, Tables: []*schema.Table{first, tbl("b"), second}})

	assert.Equal(t, []string{"a", "b"}, next.Names())
	got, _ := next.Get("a")
	assert.Same(t, second, got)
}

func TestMergeNilCurrentPanics(t *testing.T) {
	assert.PanicsWithValue(t, schema.ErrNilSchema, func() {
		Merge(nil, Update{Mode: ModeUpdate})
	})
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeFull, false},
		{"full", ModeFull, false},
		{"update", ModeUpdate, false},
		{"patch", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiff(t *testing.T) {
	a := tbl("a", "id")
	prev := schema.New(a, tbl("b", "id"), tbl("c", "id"))
	next := schema.New(a, tbl("b", "id"), tbl("d", "id"))

	changed, removed := Diff(prev, next)
	assert.Equal(t, []string{"d"}, changed, "b was rebuilt with the same content")
	assert.Equal(t, []string{"c"}, removed)
}
