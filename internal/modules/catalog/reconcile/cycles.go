package reconcile

import (
	"github.com/google/uuid"
)

// FindCycleEdges returns the edges, in input order, that would close a cycle in the
// base→extension graph of their root. Edges are admitted one at a time, so exactly
// one edge per cycle is reported and the admitted remainder is acyclic per root.
// An edge whose base is its own extension is always reported.
func FindCycleEdges(edges []ExtensionEdge) []ExtensionEdge {
	adj := make(map[uuid.UUID]map[uuid.UUID][]uuid.UUID)
	var out []ExtensionEdge
	for _, e := range edges {
		g := adj[e.Key.Root]
		if g == nil {
			g = make(map[uuid.UUID][]uuid.UUID)
			adj[e.Key.Root] = g
		}
		if reachable(g, e.Key.Extension, e.Key.Base) {
			out = append(out, e)
			continue
		}
		g[e.Key.Base] = append(g[e.Key.Base], e.Key.Extension)
	}
	return out
}

// reachable reports whether to can be reached from from by following g.
func reachable(g map[uuid.UUID][]uuid.UUID, from, to uuid.UUID) bool {
	if from == to {
		return true
	}
	seen := map[uuid.UUID]struct{}{from: {}}
	stack := []uuid.UUID{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range g[n] {
			if next == to {
				return true
			}
			if _, ok := seen[next]; ok {
				continue
			}
			seen[next] = struct{}{}
			stack = append(stack, next)
		}
	}
	return false
}
