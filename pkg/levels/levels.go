// Package levels assigns each node its distance from a root node along
// outgoing edges, and lays nodes out in rows by that distance.
//
// The assignment is a label-correcting relaxation over a worklist with set
// semantics: a node re-enters the worklist whenever its level strictly
// decreases. Levels are bounded below by zero, so it terminates on graphs
// with cycles.
package levels

import (
	"slices"
	"strings"

	"github.com/matzehuels/micograph/pkg/graph"
)

// RowHeight is the default vertical distance between levels.
const RowHeight = 90

// Graph is the view of a graph needed for level assignment.
type Graph interface {
	// Nodes returns all nodes.
	Nodes() []*graph.Node
	// Node returns the node with the given id.
	Node(id string) (*graph.Node, bool)
	// Successors returns the ids of the targets of edges leaving id.
	Successors(id string) []string
}

// Assign sets DependencyLevel on every node of g: 0 for the root, the length
// of the shortest outgoing path from the root otherwise, and
// graph.LevelUnreached for unreachable nodes. Nodes not moved by the user are
// placed at Y = level * rowHeight. It reports false if the root is missing.
func Assign(g Graph, rootID string, rowHeight float64) bool {
	for _, n := range g.Nodes() {
		n.DependencyLevel = graph.LevelUnreached
	}
	root, ok := g.Node(rootID)
	if !ok {
		return false
	}
	root.DependencyLevel = 0

	fringe := map[string]struct{}{rootID: {}}
	for len(fringe) > 0 {
		var id string
		for id = range fringe {
			break
		}
		delete(fringe, id)
		n, ok := g.Node(id)
		if !ok {
			continue
		}
		for _, tid := range g.Successors(id) {
			t, ok := g.Node(tid)
			if !ok || t.DependencyLevel <= n.DependencyLevel+1 {
				continue
			}
			t.DependencyLevel = n.DependencyLevel + 1
			if !t.WasMovedByUser {
				t.Y = float64(t.DependencyLevel) * rowHeight
			}
			fringe[tid] = struct{}{}
		}
	}
	return true
}

// Maps adapts the node and edge maps kept by reconcilers. Successors are
// read from each node's outgoing edge set.
type Maps struct {
	NodeMap map[string]*graph.Node
	EdgeMap map[string]*graph.Edge
}

// Nodes implements Graph.
func (m Maps) Nodes() []*graph.Node {
	out := make([]*graph.Node, 0, len(m.NodeMap))
	for _, n := range m.NodeMap {
		out = append(out, n)
	}
	return out
}

// Node implements Graph.
func (m Maps) Node(id string) (*graph.Node, bool) {
	n, ok := m.NodeMap[id]
	return n, ok
}

// Successors implements Graph.
func (m Maps) Successors(id string) []string {
	n, ok := m.NodeMap[id]
	if !ok {
		return nil
	}
	var out []string
	for _, eid := range n.Outgoing() {
		if e, ok := m.EdgeMap[eid]; ok {
			out = append(out, e.Target)
		}
	}
	return out
}

// EdgeIndex is satisfied by objectcache.GraphObjectCache.
type EdgeIndex interface {
	Node(id string) (*graph.Node, bool)
	EdgesBySource(id string) []*graph.Edge
}

// FromIndex adapts an edge index plus the node list it was built from.
func FromIndex(idx EdgeIndex, nodes []*graph.Node) Graph {
	return indexGraph{idx: idx, nodes: nodes}
}

type indexGraph struct {
	idx   EdgeIndex
	nodes []*graph.Node
}

func (g indexGraph) Nodes() []*graph.Node                { return g.nodes }
func (g indexGraph) Node(id string) (*graph.Node, bool) { return g.idx.Node(id) }
func (g indexGraph) Successors(id string) []string {
	edges := g.idx.EdgesBySource(id)
	out := make([]string, len(edges))
	for i, e := range edges {
		out[i] = e.Target
	}
	return out
}

// Tiers groups nodes by level in ascending order, each tier sorted by id.
// Unreached nodes come last.
func Tiers(nodes []*graph.Node) [][]*graph.Node {
	byLevel := map[int][]*graph.Node{}
	var keys []int
	for _, n := range nodes {
		if _, ok := byLevel[n.DependencyLevel]; !ok {
			keys = append(keys, n.DependencyLevel)
		}
		byLevel[n.DependencyLevel] = append(byLevel[n.DependencyLevel], n)
	}
	slices.Sort(keys)
	out := make([][]*graph.Node, len(keys))
	for i, k := range keys {
		tier := byLevel[k]
		slices.SortFunc(tier, func(a, b *graph.Node) int { return strings.Compare(a.ID, b.ID) })
		out[i] = tier
	}
	return out
}
