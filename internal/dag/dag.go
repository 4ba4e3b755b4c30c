// Package dag provides directed acyclic graph operations over module
// dependencies: cycle detection, topological install order and parallel
// install levels.
package dag

import (
	"fmt"
	"sort"
)

// Node is one module in the graph, keyed by its full module name.
type Node struct {
	// ID is the unique identifier (full module name).
	ID string
	// Data holds arbitrary node data, typically the resolved buildspec.
	Data interface{}
}

// Graph is a directed acyclic graph of module dependencies.
type Graph struct {
	nodes   map[string]*Node
	edges   map[string][]string // dependency -> dependents
	parents map[string][]string // dependent -> dependencies
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a module to the graph, updating its data if it exists.
func (g *Graph) AddNode(id string, data interface{}) {
	if _, exists := g.nodes[id]; !exists {
		g.nodes[id] = &Node{ID: id, Data: data}
		g.edges[id] = []string{}
		g.parents[id] = []string{}
		return
	}
	g.nodes[id].Data = data
}

// AddEdge records that dependent requires dependency. Both modules must
// already be nodes; self-loops are rejected.
func (g *Graph) AddEdge(dependency, dependent string) error {
	if _, exists := g.nodes[dependency]; !exists {
		return fmt.Errorf("dependency module %q does not exist", dependency)
	}
	if _, exists := g.nodes[dependent]; !exists {
		return fmt.Errorf("dependent module %q does not exist", dependent)
	}
	if dependency == dependent {
		return fmt.Errorf("module %q depends on itself", dependency)
	}

	if !contains(g.edges[dependency], dependent) {
		g.edges[dependency] = append(g.edges[dependency], dependent)
	}
	if !contains(g.parents[dependent], dependency) {
		g.parents[dependent] = append(g.parents[dependent], dependency)
	}
	return nil
}

// GetNode returns a node by ID.
func (g *Graph) GetNode(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// Dependencies returns the modules the given module requires.
func (g *Graph) Dependencies(id string) []string {
	return g.parents[id]
}

// Dependents returns the modules that require the given module.
func (g *Graph) Dependents(id string) []string {
	return g.edges[id]
}

// NodeCount returns the number of modules in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of dependency edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, dependents := range g.edges {
		count += len(dependents)
	}
	return count
}

// HasCycle reports whether the graph contains a cycle, along with the cycle
// path for diagnosis.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := make(map[string]string)

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, next := range g.edges[id] {
			if !visited[next] {
				path[next] = id
				if dfs(next) {
					return true
				}
			} else if recStack[next] {
				cyclePath = []string{next}
				for curr := id; curr != next; curr = path[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{next}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	for id := range g.nodes {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}
	return false, nil
}

// TopologicalSort returns the modules in install order: dependencies before
// dependents. Fails if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("dependency cycle detected: %v", cyclePath)
	}

	visited := make(map[string]bool)
	var result []*Node

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, dep := range g.parents[id] {
			visit(dep)
		}
		result = append(result, g.nodes[id])
	}

	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		visit(id)
	}
	return result, nil
}

// InstallLevels groups modules by install level: modules at level N can be
// built in parallel once level N-1 is installed. Level 0 holds modules with
// no dependencies.
func (g *Graph) InstallLevels() ([][]string, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("dependency cycle detected: %v", cyclePath)
	}

	assigned := make(map[string]int)

	var level func(id string) int
	level = func(id string) int {
		if l, ok := assigned[id]; ok {
			return l
		}
		deps := g.parents[id]
		if len(deps) == 0 {
			assigned[id] = 0
			return 0
		}
		max := 0
		for _, dep := range deps {
			if l := level(dep); l > max {
				max = l
			}
		}
		assigned[id] = max + 1
		return max + 1
	}

	maxLevel := 0
	for id := range g.nodes {
		if l := level(id); l > maxLevel {
			maxLevel = l
		}
	}

	levels := make([][]string, maxLevel+1)
	for id, l := range assigned {
		levels[l] = append(levels[l], id)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Roots returns the modules with no dependencies.
func (g *Graph) Roots() []string {
	var roots []string
	for id := range g.nodes {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// Leaves returns the modules nothing depends on.
func (g *Graph) Leaves() []string {
	var leaves []string
	for id := range g.nodes {
		if len(g.edges[id]) == 0 {
			leaves = append(leaves, id)
		}
	}
	sort.Strings(leaves)
	return leaves
}

func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
