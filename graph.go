package tinystore

import (
	"sync"
)

// ReactiveGraph records which dependent stores derive from which upstreams
type ReactiveGraph struct {
	// Using adjacency list representation for better memory efficiency
	downstream map[string][]string
	upstream   map[string][]string
	mu         sync.RWMutex
}

// NewReactiveGraph creates a new reactive dependency graph
func NewReactiveGraph() *ReactiveGraph {
	return &ReactiveGraph{
		downstream: make(map[string][]string),
		upstream:   make(map[string][]string),
	}
}

// AddDependency adds a reactive dependency relationship
func (g *ReactiveGraph) AddDependency(dependent string, dependency string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	// dependency -> dependent
	g.downstream[dependency] = appendUnique(g.downstream[dependency], dependent)

	// dependent -> dependency
	g.upstream[dependent] = appendUnique(g.upstream[dependent], dependency)
}

// RemoveDependency removes a reactive dependency relationship
func (g *ReactiveGraph) RemoveDependency(dependent string, dependency string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeLocked(dependent, dependency)
}

func (g *ReactiveGraph) removeLocked(dependent string, dependency string) {
	g.downstream[dependency] = removeElement(g.downstream[dependency], dependent)
	if len(g.downstream[dependency]) == 0 {
		delete(g.downstream, dependency)
	}

	g.upstream[dependent] = removeElement(g.upstream[dependent], dependency)
	if len(g.upstream[dependent]) == 0 {
		delete(g.upstream, dependent)
	}
}

// FindDependents performs iterative traversal to find all transitive dependents
func (g *ReactiveGraph) FindDependents(start string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	stack := make([]string, 0, 32)
	stack = append(stack, start)

	dependents := make([]string, 0, 32)
	visited := make(map[string]bool, 32)

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if visited[current] {
			continue
		}
		visited[current] = true

		if current != start {
			dependents = append(dependents, current)
		}

		for _, dep := range g.downstream[current] {
			if !visited[dep] {
				stack = append(stack, dep)
			}
		}
	}

	return dependents
}

// GetDirectDependents returns only direct dependents (no recursion)
func (g *ReactiveGraph) GetDirectDependents(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if deps, exists := g.downstream[id]; exists {
		result := make([]string, len(deps))
		copy(result, deps)
		return result
	}
	return nil
}

// GetUpstreams returns the direct upstreams of a dependent store
func (g *ReactiveGraph) GetUpstreams(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if deps, exists := g.upstream[id]; exists {
		result := make([]string, len(deps))
		copy(result, deps)
		return result
	}
	return nil
}

// Export returns a copy of the upstream -> dependents adjacency list
func (g *ReactiveGraph) Export() map[string][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string][]string, len(g.downstream))
	for k, v := range g.downstream {
		out[k] = append([]string(nil), v...)
	}
	return out
}

func appendUnique[T comparable](slice []T, item T) []T {
	for _, existing := range slice {
		if existing == item {
			return slice
		}
	}
	return append(slice, item)
}

func removeElement[T comparable](slice []T, item T) []T {
	for i, existing := range slice {
		if existing == item {
			return append(slice[:i], slice[i+1:]...)
		}
	}
	return slice
}
