package avr

// CallGraph is a directed multigraph-with-dedup of base function names.
// Edges are unlabelled and duplicates are suppressed; self-loops on
// recursive nodes are expected and preserved.
//
// Successor order follows insertion order, which matters because
// StackPathSearch enumerates successors in that order when it picks a
// maximal branch.
type CallGraph struct {
	nodes     map[string]bool
	order     []string
	edges     map[string][]string
	edgeSeen  map[string]map[string]bool
}

// NewCallGraph returns an empty, mutable call graph.
func NewCallGraph() *CallGraph {
	return &CallGraph{
		nodes:    make(map[string]bool),
		edges:    make(map[string][]string),
		edgeSeen: make(map[string]map[string]bool),
	}
}

// AddNode registers name as a node if it isn't already present.
func (g *CallGraph) AddNode(name string) {
	if g.nodes[name] {
		return
	}
	g.nodes[name] = true
	g.order = append(g.order, name)
	g.edges[name] = nil
	g.edgeSeen[name] = make(map[string]bool)
}

// AddEdge adds from->to, creating either endpoint as a node if needed and
// suppressing duplicate edges.
func (g *CallGraph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	if g.edgeSeen[from][to] {
		return
	}
	g.edgeSeen[from][to] = true
	g.edges[from] = append(g.edges[from], to)
}

// Nodes returns all node names in insertion order.
func (g *CallGraph) Nodes() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// HasNode reports whether name is a node in the graph.
func (g *CallGraph) HasNode(name string) bool {
	return g.nodes[name]
}

// Successors returns the out-edges of name in insertion order, or nil if
// name has none (or does not exist).
func (g *CallGraph) Successors(name string) []string {
	return g.edges[name]
}

// HasEdge reports whether the edge from->to exists.
func (g *CallGraph) HasEdge(from, to string) bool {
	return g.edgeSeen[from] != nil && g.edgeSeen[from][to]
}

// EdgeCount returns the total number of distinct edges in the graph.
func (g *CallGraph) EdgeCount() int {
	n := 0
	for _, succ := range g.edges {
		n += len(succ)
	}
	return n
}
