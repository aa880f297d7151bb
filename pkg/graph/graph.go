// Package graph implements the dependency graph over conversion node ids
// and its deterministic topological linearization.
package graph

import (
	"fmt"

	"github.com/architect-io/hcl2cdk/pkg/errors"
)

// Graph is a directed graph of node ids. Edges run from a referencee to its
// referencer, so a topological sort yields dependencies first. Nodes
// remember their registration order; all iteration is deterministic.
type Graph struct {
	nodes map[string]*Node
	order []string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// AddNode registers a node under its id.
func (g *Graph) AddNode(node *Node) error {
	if _, exists := g.nodes[node.ID]; exists {
		return fmt.Errorf("node %s already exists", node.ID)
	}
	node.order = len(g.order)
	g.nodes[node.ID] = node
	g.order = append(g.order, node.ID)
	return nil
}

// GetNode returns a node by id, or nil.
func (g *Graph) GetNode(id string) *Node {
	return g.nodes[id]
}

// HasNode reports whether id is registered.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of registered nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// NodeIDs returns all node ids in registration order.
func (g *Graph) NodeIDs() []string {
	ids := make([]string, len(g.order))
	copy(ids, g.order)
	return ids
}

// AddEdge records that dependent references dependency. Both endpoints must
// be registered.
func (g *Graph) AddEdge(dependencyID, dependentID string) error {
	dependency := g.GetNode(dependencyID)
	if dependency == nil {
		return errors.MissingNode(dependentID, dependencyID)
	}
	dependent := g.GetNode(dependentID)
	if dependent == nil {
		return errors.MissingNode(dependencyID, dependentID)
	}

	dependent.addDependency(dependencyID)
	dependency.addDependent(dependentID)
	return nil
}

// TopologicalSort returns nodes in dependency order. Each round selects
// every node whose dependencies are all resolved and appends them in
// registration order; a round that makes no progress means the remaining
// nodes form one or more cycles.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	resolved := make(map[string]bool, len(g.order))
	result := make([]*Node, 0, len(g.order))

	for len(result) < len(g.order) {
		var ready []*Node
		for _, id := range g.order {
			if resolved[id] {
				continue
			}
			if node := g.nodes[id]; node.ready(resolved) {
				ready = append(ready, node)
			}
		}
		for _, node := range ready {
			resolved[node.ID] = true
			result = append(result, node)
		}
		if len(ready) == 0 {
			var unvisited []string
			for _, id := range g.order {
				if !resolved[id] {
					unvisited = append(unvisited, id)
				}
			}
			return nil, errors.CycleDetected(unvisited)
		}
	}

	return result, nil
}
