// Package layout places schema tables on a fixed virtual canvas and derives
// relationship edges for diagram rendering.
//
// Layout keeps positions across updates: a table that was already placed
// stays where it is, and only newly introduced tables get a fresh grid cell.
package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/tordrt/schemadraft/internal/schema"
)

// Canvas is the virtual drawing area tables are spread over.
type Canvas struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	NodeWidth  float64 `json:"nodeWidth"`
	TopPadding float64 `json:"topPadding"`
}

// DefaultCanvas returns the 1400x1000 canvas with 200-wide nodes.
func DefaultCanvas() Canvas {
	return Canvas{Width: 1400, Height: 1000, NodeWidth: 200, TopPadding: 120}
}

// Position is the top-left corner of a node.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// GridPosition places table index out of total tables in a ceil(sqrt(total))
// column grid, centered horizontally in its cell.
func (c Canvas) GridPosition(index, total int) Position {
	if total <= 0 {
		return Position{X: 0, Y: c.TopPadding}
	}
	cols := int(math.Ceil(math.Sqrt(float64(total))))
	rows := int(math.Ceil(float64(total) / float64(cols)))
	cellW := c.Width / float64(cols)
	cellH := c.Height / float64(rows)

	return Position{
		X: float64(index%cols)*cellW + (cellW-c.NodeWidth)/2,
		Y: float64(index/cols)*cellH + c.TopPadding,
	}
}

// Edge is one foreign key drawn between two table nodes.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle"`
	TargetHandle string `json:"targetHandle"`
	Label        string `json:"label"`
}

// BuildEdges returns one edge per foreign key whose target table and column
// exist in s, in table then column order. Dangling references are skipped.
func BuildEdges(s *schema.Schema) []Edge {
	schema.MustNotBeNil(s)

	var edges []Edge
	for _, t := range s.Tables() {
		for _, col := range t.Columns {
			fk := col.ForeignKey
			if !s.Resolves(fk) {
				continue
			}
			edges = append(edges, Edge{
				ID:           t.Name + "-" + col.Name + "-" + fk.Table + "-" + fk.Column,
				Source:       t.Name,
				Target:       fk.Table,
				SourceHandle: t.Name + "-" + col.Name + "-source",
				TargetHandle: fk.Table + "-" + fk.Column + "-target",
				Label:        col.Name + " → " + fk.Column,
			})
		}
	}
	return edges
}

// EdgeFingerprint summarizes the drawable relationships of s as a sorted
// list of "table.column->target.column" entries joined by "|". Two schemas
// with equal fingerprints produce the same edges.
func EdgeFingerprint(s *schema.Schema) string {
	schema.MustNotBeNil(s)

	var parts []string
	for _, t := range s.Tables() {
		for _, col := range t.Columns {
			if !s.Resolves(col.ForeignKey) {
				continue
			}
			parts = append(parts, t.Name+"."+col.Name+"->"+col.ForeignKey.Table+"."+col.ForeignKey.Column)
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}
