// Package graph holds the resource declarations of one project and the
// dependency edges between them.
//
// Nodes are added in realization order: a node may only depend on nodes that
// are already in the graph, so every graph is a DAG by construction. Once a
// graph is sealed it can no longer be changed.
package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmcastellanojimenez/ekscompose/pkg/types"
)

var (
	// ErrDuplicateNode is returned when a node name is already taken
	ErrDuplicateNode = errors.New("duplicate node")

	// ErrUnknownDependency is returned when a dependency is not in the graph
	ErrUnknownDependency = errors.New("unknown dependency")

	// ErrCycle is returned when the dependency edges contain a cycle
	ErrCycle = errors.New("dependency cycle")

	// ErrSealed is returned when adding to a sealed graph
	ErrSealed = errors.New("graph is sealed")
)

// Properties are the declared properties of a resource
type Properties map[string]any

// Node is a resource declaration
type Node struct {
	Name       string             `json:"name" yaml:"name"`
	Kind       types.ResourceKind `json:"kind" yaml:"kind"`
	Properties Properties         `json:"properties,omitempty" yaml:"properties,omitempty"`
	DependsOn  []string           `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
}

// Edge is a directed dependency: From must be realized after To
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Graph is an ordered set of nodes with dependency edges
type Graph struct {
	name   string
	nodes  []*Node
	index  map[string]*Node
	sealed bool
}

// New creates an empty graph
func New(name string) *Graph {
	return &Graph{
		name:  name,
		index: make(map[string]*Node),
	}
}

// Name returns the graph name
func (g *Graph) Name() string {
	return g.name
}

// Add appends a node. Every dependency must already be in the graph.
func (g *Graph) Add(node Node) (*Node, error) {
	if g.sealed {
		return nil, fmt.Errorf("add %s: %w", node.Name, ErrSealed)
	}
	if node.Name == "" {
		return nil, fmt.Errorf("add node: name is required")
	}
	if !node.Kind.Valid() {
		return nil, fmt.Errorf("add %s: invalid kind %q", node.Name, node.Kind)
	}
	if _, exists := g.index[node.Name]; exists {
		return nil, fmt.Errorf("add %s: %w", node.Name, ErrDuplicateNode)
	}

	deps := make([]string, 0, len(node.DependsOn))
	seen := make(map[string]bool, len(node.DependsOn))
	for _, dep := range node.DependsOn {
		if _, exists := g.index[dep]; !exists {
			return nil, fmt.Errorf("add %s: %w: %s", node.Name, ErrUnknownDependency, dep)
		}
		if seen[dep] {
			continue
		}
		seen[dep] = true
		deps = append(deps, dep)
	}

	n := &Node{
		Name:       node.Name,
		Kind:       node.Kind,
		Properties: node.Properties,
		DependsOn:  deps,
	}
	if n.Properties == nil {
		n.Properties = Properties{}
	}

	g.nodes = append(g.nodes, n)
	g.index[n.Name] = n

	return n, nil
}

// Seal prevents further changes to the graph
func (g *Graph) Seal() {
	g.sealed = true
}

// Sealed reports whether the graph is sealed
func (g *Graph) Sealed() bool {
	return g.sealed
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node returns the node with the given name
func (g *Graph) Node(name string) (Node, bool) {
	n, exists := g.index[name]
	if !exists {
		return Node{}, false
	}
	return *n, true
}

// Nodes returns all nodes in insertion order
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, len(g.nodes))
	for i, n := range g.nodes {
		nodes[i] = *n
	}
	return nodes
}

// OfKind returns the nodes of a kind in insertion order
func (g *Graph) OfKind(kind types.ResourceKind) []Node {
	nodes := []Node{}
	for _, n := range g.nodes {
		if n.Kind == kind {
			nodes = append(nodes, *n)
		}
	}
	return nodes
}

// Edges returns all dependency edges in insertion order
func (g *Graph) Edges() []Edge {
	edges := []Edge{}
	for _, n := range g.nodes {
		for _, dep := range n.DependsOn {
			edges = append(edges, Edge{From: n.Name, To: dep})
		}
	}
	return edges
}

// DependenciesOf returns the names a node depends on
func (g *Graph) DependenciesOf(name string) []string {
	n, exists := g.index[name]
	if !exists {
		return nil
	}
	deps := make([]string, len(n.DependsOn))
	copy(deps, n.DependsOn)
	return deps
}

// TopologicalOrder returns node names so that every node comes after its
// dependencies. Ties are broken by insertion order.
func (g *Graph) TopologicalOrder() ([]string, error) {
	pending := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string, len(g.nodes))
	for _, n := range g.nodes {
		pending[n.Name] = len(n.DependsOn)
		for _, dep := range n.DependsOn {
			dependents[dep] = append(dependents[dep], n.Name)
		}
	}

	order := make([]string, 0, len(g.nodes))
	done := make(map[string]bool, len(g.nodes))
	for len(order) < len(g.nodes) {
		progressed := false
		for _, n := range g.nodes {
			if done[n.Name] || pending[n.Name] > 0 {
				continue
			}
			done[n.Name] = true
			order = append(order, n.Name)
			for _, dependent := range dependents[n.Name] {
				pending[dependent]--
			}
			progressed = true
		}
		if !progressed {
			return nil, ErrCycle
		}
	}

	return order, nil
}

// Validate checks that names are unique, every dependency resolves and the
// edges form a DAG
func (g *Graph) Validate() error {
	names := make(map[string]bool, len(g.nodes))
	for _, n := range g.nodes {
		if names[n.Name] {
			return fmt.Errorf("validate %s: %w", n.Name, ErrDuplicateNode)
		}
		names[n.Name] = true
	}

	for _, n := range g.nodes {
		for _, dep := range n.DependsOn {
			if !names[dep] {
				return fmt.Errorf("validate %s: %w: %s", n.Name, ErrUnknownDependency, dep)
			}
		}
	}

	if _, err := g.TopologicalOrder(); err != nil {
		return fmt.Errorf("validate graph %s: %w", g.name, err)
	}

	return nil
}

// Digest returns a stable hash of the nodes and edges
func (g *Graph) Digest() (string, error) {
	data, err := json.Marshal(struct {
		Name  string `json:"name"`
		Nodes []Node `json:"nodes"`
	}{
		Name:  g.name,
		Nodes: g.Nodes(),
	})
	if err != nil {
		return "", fmt.Errorf("marshal graph: %w", err)
	}

	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
