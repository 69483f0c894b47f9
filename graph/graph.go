package graph

import (
	"errors"
	"fmt"

	"github.com/hupe1980/lmflux/core"
)

var (
	// ErrUnknownNode is returned when an edge references a node that is not in the graph.
	ErrUnknownNode = errors.New("unknown node")

	// ErrDuplicateNode is returned when a node id is added twice.
	ErrDuplicateNode = errors.New("duplicate node")
)

// NodeKind distinguishes leaves from groups.
type NodeKind int

const (
	// Leaf is a plain node.
	Leaf NodeKind = iota
	// Group is a node owning a nested graph.
	Group
)

func (k NodeKind) String() string {
	if k == Group {
		return "group"
	}
	return "leaf"
}

// Node is a graph vertex. Value carries the payload of specialised graphs
// (a runnable task, an agent).
type Node struct {
	ID    string
	Name  string
	Kind  NodeKind
	Sub   *Graph
	Value any
}

// NewLeaf creates a leaf node with a generated id.
func NewLeaf(name string, value any) *Node {
	return &Node{ID: core.NewID(), Name: name, Kind: Leaf, Value: value}
}

// NewGroup creates a group node owning a fresh sub-graph.
func NewGroup(name string, optFns ...func(o *Options)) *Node {
	return &Node{ID: core.NewID(), Name: name, Kind: Group, Sub: New(optFns...)}
}

func (n *Node) String() string {
	id := n.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("<Node %q (%s)>", n.Name, id)
}

// Edge is a directed connection between two nodes of the same graph.
type Edge struct {
	From     string
	To       string
	Label    string
	Metadata map[string]string
}

// WithLabel sets the display label of an edge.
func WithLabel(label string) func(e *Edge) {
	return func(e *Edge) { e.Label = label }
}

// WithMetadata attaches a metadata entry to an edge.
func WithMetadata(key, value string) func(e *Edge) {
	return func(e *Edge) {
		if e.Metadata == nil {
			e.Metadata = map[string]string{}
		}
		e.Metadata[key] = value
	}
}

// Options configures a Graph.
type Options struct {
	// BoundaryLabels draws start and end nodes around the graph.
	BoundaryLabels bool
	StartLabel     string
	EndLabel       string

	// Loopback, when non-empty, draws a labelled edge from the end node back
	// to the start node. It implies BoundaryLabels.
	Loopback string
}

// WithBoundaryLabels draws start and end nodes with the given labels.
func WithBoundaryLabels(start, end string) func(o *Options) {
	return func(o *Options) {
		o.BoundaryLabels = true
		o.StartLabel = start
		o.EndLabel = end
	}
}

// WithLoopback draws a labelled edge from the end node back to the start node.
func WithLoopback(label string) func(o *Options) {
	return func(o *Options) {
		o.BoundaryLabels = true
		o.Loopback = label
	}
}

// Graph is a directed graph of nodes kept in insertion order.
type Graph struct {
	id    string
	nodes map[string]*Node
	order []string
	edges []Edge
	opts  Options
}

// New creates an empty graph.
func New(optFns ...func(o *Options)) *Graph {
	opts := Options{StartLabel: "start", EndLabel: "end"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Graph{
		id:    core.NewID(),
		nodes: map[string]*Node{},
		opts:  opts,
	}
}

// SetLoopback draws a labelled edge from the end node back to the start node.
func (g *Graph) SetLoopback(label string) {
	WithLoopback(label)(&g.opts)
}

// ID returns the graph id used for boundary node ids.
func (g *Graph) ID() string { return g.id }

// AddNode adds n to the graph.
func (g *Graph) AddNode(n *Node) error {
	if n == nil || n.ID == "" {
		return errors.New("graph: node must have an id")
	}
	if _, ok := g.nodes[n.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}
	if n.Kind == Group && n.Sub == nil {
		n.Sub = New()
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

// AddEdge connects from → to. Both nodes must already be in the graph.
func (g *Graph) AddEdge(from, to string, optFns ...func(e *Edge)) error {
	for _, id := range []string{from, to} {
		if _, ok := g.nodes[id]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownNode, id)
		}
	}
	e := Edge{From: from, To: to}
	for _, fn := range optFns {
		fn(&e)
	}
	if e.Label == "" && e.Metadata != nil {
		e.Label = e.Metadata["label"]
	}
	g.edges = append(g.edges, e)
	return nil
}

// Node looks up a node by id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// FindByName returns the first node (in insertion order) with the given name.
func (g *Graph) FindByName(name string) (*Node, bool) {
	for _, id := range g.order {
		if n := g.nodes[id]; n.Name == name {
			return n, true
		}
	}
	return nil, false
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// Edges returns a copy of the edges in insertion order.
func (g *Graph) Edges() []Edge {
	return append([]Edge(nil), g.edges...)
}

// Successors returns the ids of nodes reachable by one edge from id.
func (g *Graph) Successors(id string) []string {
	var out []string
	for _, e := range g.edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}

// Predecessors returns the ids of nodes with an edge into id.
func (g *Graph) Predecessors(id string) []string {
	var out []string
	for _, e := range g.edges {
		if e.To == id {
			out = append(out, e.From)
		}
	}
	return out
}

// Snapshot captures the graph (recursively) for rendering.
func (g *Graph) Snapshot() Snapshot {
	s := Snapshot{
		ID:      g.id,
		Options: g.opts,
		Edges:   g.Edges(),
		Nodes:   make([]NodeSnapshot, 0, len(g.order)),
	}
	for _, id := range g.order {
		n := g.nodes[id]
		ns := NodeSnapshot{ID: n.ID, Name: n.Name, Kind: n.Kind}
		if n.Kind == Group && n.Sub != nil {
			sub := n.Sub.Snapshot()
			ns.Sub = &sub
		}
		s.Nodes = append(s.Nodes, ns)
	}
	return s
}

// Mermaid renders the graph as a Mermaid flow chart.
func (g *Graph) Mermaid(direction string) string {
	return Mermaid(g.Snapshot(), direction)
}
