package layout

import (
	"github.com/tordrt/schemadraft/internal/schema"
)

// Node is a table placed on the canvas.
type Node struct {
	ID       string        `json:"id"`
	Position Position      `json:"position"`
	Table    *schema.Table `json:"data"`
}

// Diagram is the render-ready result of one Layout.Update call.
type Diagram struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	// FitView asks the viewer to refit the viewport; set only when the
	// number of tables changed since the previous update.
	FitView bool `json:"fitView"`
	// Refreshed names the nodes whose table content changed.
	Refreshed []string `json:"refreshed,omitempty"`
}

// Layout tracks node positions and cached edges across schema updates.
// It is not safe for concurrent use.
type Layout struct {
	canvas    Canvas
	positions map[string]Position
	nodes     map[string]Node
	edgeKey   string
	edges     []Edge
	count     int
	primed    bool
}

// New creates a Layout on the given canvas.
func New(c Canvas) *Layout {
	return &Layout{
		canvas:    c,
		positions: make(map[string]Position),
		nodes:     make(map[string]Node),
	}
}

// Update lays out s. Tables seen in earlier updates keep their position;
// new tables get the grid cell for their index. Edges are rebuilt only when
// the edge fingerprint moves.
func (l *Layout) Update(s *schema.Schema) Diagram {
	schema.MustNotBeNil(s)

	tables := s.Tables()
	total := len(tables)

	d := Diagram{
		Nodes:   make([]Node, 0, total),
		FitView: total != l.count,
	}

	seen := make(map[string]struct{}, total)
	for i, t := range tables {
		seen[t.Name] = struct{}{}

		pos, placed := l.positions[t.Name]
		if !placed {
			pos = l.canvas.GridPosition(i, total)
			l.positions[t.Name] = pos
		}

		node, cached := l.nodes[t.Name]
		switch {
		case !cached || node.Table.Fingerprint() != t.Fingerprint():
			node = Node{ID: t.Name, Position: pos, Table: t}
			d.Refreshed = append(d.Refreshed, t.Name)
		case node.Position != pos:
			node.Position = pos
		}
		l.nodes[t.Name] = node
		d.Nodes = append(d.Nodes, node)
	}

	for name := range l.positions {
		if _, ok := seen[name]; !ok {
			delete(l.positions, name)
			delete(l.nodes, name)
		}
	}

	if key := EdgeFingerprint(s); !l.primed || key != l.edgeKey {
		l.edgeKey = key
		l.edges = BuildEdges(s)
		l.primed = true
	}
	d.Edges = l.edges
	l.count = total
	return d
}

// Move pins a table to p, as after a user drag. Unknown tables are ignored.
func (l *Layout) Move(table string, p Position) {
	if _, ok := l.positions[table]; !ok {
		return
	}
	l.positions[table] = p
	if node, ok := l.nodes[table]; ok {
		node.Position = p
		l.nodes[table] = node
	}
}
