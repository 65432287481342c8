// Package resolver resolves the descriptors a project depends on: the
// inheritance chain formed by parent blocks and the module graph formed by
// aggregator descriptors.
package resolver

import (
	"fmt"
	"sort"
)

// ModuleGraph represents the aggregation graph of a workspace.
// Nodes are project directories; an edge runs from an aggregator to each
// of its modules.
type ModuleGraph struct {
	nodes map[string]*ModuleNode
}

// ModuleNode represents a project in the module graph.
type ModuleNode struct {
	// Dir is the absolute project directory
	Dir string

	// Modules lists the directories this project aggregates, in declaration order
	Modules []string

	// Aggregators lists projects that aggregate this one
	Aggregators []string
}

// NewModuleGraph creates a new empty module graph.
func NewModuleGraph() *ModuleGraph {
	return &ModuleGraph{
		nodes: make(map[string]*ModuleNode),
	}
}

// AddNode adds a node to the graph. Returns the node for further modification.
func (g *ModuleGraph) AddNode(dir string) *ModuleNode {
	if existing, ok := g.nodes[dir]; ok {
		return existing
	}
	node := &ModuleNode{Dir: dir}
	g.nodes[dir] = node
	return node
}

// GetNode returns a node by directory, or nil if not found.
func (g *ModuleGraph) GetNode(dir string) *ModuleNode {
	return g.nodes[dir]
}

// HasNode returns true if the graph has a node for dir.
func (g *ModuleGraph) HasNode(dir string) bool {
	_, ok := g.nodes[dir]
	return ok
}

// AddModule adds an edge from aggregator to module.
func (g *ModuleGraph) AddModule(aggregator, module string) {
	aggNode := g.AddNode(aggregator)
	modNode := g.AddNode(module)

	for _, m := range aggNode.Modules {
		if m == module {
			return
		}
	}
	aggNode.Modules = append(aggNode.Modules, module)
	modNode.Aggregators = append(modNode.Aggregators, aggregator)
}

// TopologicalSort returns the project directories with every aggregator
// before its modules. Returns a *CycleError if the graph contains a cycle.
func (g *ModuleGraph) TopologicalSort() ([]string, error) {
	// Kahn's algorithm
	inDegree := make(map[string]int, len(g.nodes))
	for dir, node := range g.nodes {
		inDegree[dir] = len(node.Aggregators)
	}

	var queue []string
	for dir, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, dir)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]
		result = append(result, dir)

		for _, m := range g.nodes[dir].Modules {
			inDegree[m]--
			if inDegree[m] == 0 {
				queue = append(queue, m)
			}
		}
	}

	if len(result) != len(g.nodes) {
		var cycle []string
		for dir, degree := range inDegree {
			if degree > 0 {
				cycle = append(cycle, dir)
			}
		}
		sort.Strings(cycle)
		return nil, &CycleError{Kind: "module", Members: cycle}
	}

	return result, nil
}

// FindAggregators returns all projects that aggregate dir.
func (g *ModuleGraph) FindAggregators(dir string) []string {
	node := g.nodes[dir]
	if node == nil {
		return nil
	}

	result := make([]string, len(node.Aggregators))
	copy(result, node.Aggregators)
	sort.Strings(result)
	return result
}

// AllNodes returns all project directories in the graph.
func (g *ModuleGraph) AllNodes() []string {
	dirs := make([]string, 0, len(g.nodes))
	for dir := range g.nodes {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// CycleError indicates a circular parent or module reference.
type CycleError struct {
	Kind    string // "parent" or "module"
	Members []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular %s reference detected involving: %v", e.Kind, e.Members)
}
