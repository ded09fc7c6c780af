// Package stn implements the Simple Temporal Network propagator: a
// node per timepoint variable plus a reference origin, directed
// distance edges u->v meaning v-u<=w, and incremental shortest-path
// propagation (queue-based relaxation, negative cycles detected by a
// per-node relaxation counter).
package stn

import (
	"math"

	"github.com/gokando/tempnet/internal/engine"
)

// origin is the reference timepoint every other timepoint is measured
// against. Key 0 is reserved by the engine's registry as the "no
// entity" sentinel, which makes it a safe, collision-free choice for a
// virtual graph node that is never a real registered entity.
const origin engine.Key = 0

type edge struct {
	to     engine.Key
	weight float64
}

// graph is the distance graph backing one Propagator. adj holds the
// network as posted; radj holds the same edges reversed, so that a
// shortest-path run over radj from origin yields the reverse-graph
// distances the lower bounds derive from.
type graph struct {
	adj   map[engine.Key][]edge
	radj  map[engine.Key][]edge
	nodes map[engine.Key]bool
}

func newGraph() *graph {
	g := &graph{adj: make(map[engine.Key][]edge), radj: make(map[engine.Key][]edge), nodes: make(map[engine.Key]bool)}
	g.nodes[origin] = true
	return g
}

// addEdge posts (or tightens) a directed edge u->v weighted w, keeping
// only the tightest (minimal) weight seen for any given ordered pair.
// Reports whether the graph actually changed.
func (g *graph) addEdge(u, v engine.Key, w float64) bool {
	g.nodes[u] = true
	g.nodes[v] = true
	for i, e := range g.adj[u] {
		if e.to == v {
			if w < e.weight {
				g.adj[u][i].weight = w
				g.updateReverse(v, u, w)
				return true
			}
			return false
		}
	}
	g.adj[u] = append(g.adj[u], edge{to: v, weight: w})
	g.radj[v] = append(g.radj[v], edge{to: u, weight: w})
	return true
}

func (g *graph) updateReverse(v, u engine.Key, w float64) {
	for i, e := range g.radj[v] {
		if e.to == u {
			g.radj[v][i].weight = w
			return
		}
	}
	g.radj[v] = append(g.radj[v], edge{to: u, weight: w})
}

// ensureNode seeds a timepoint's initial distance-to-origin edges from
// its own domain bounds: origin->t weighted ub (t-origin<=ub) and
// t->origin weighted -lb (origin-t<=-lb, i.e. t>=lb). Harmless to call
// repeatedly; addEdge already dedupes and only tightens.
func (g *graph) ensureNode(t engine.Key, lb, ub float64) {
	if !math.IsInf(ub, 1) {
		g.addEdge(origin, t, ub)
	}
	if !math.IsInf(lb, -1) {
		g.addEdge(t, origin, -lb)
	}
}

// shortestPaths runs a queue-based Bellman-Ford (Shortest Path Faster
// Algorithm) from origin over adj, returning the distance map and
// whether a negative cycle reachable from origin was detected. A node
// relaxed more than len(nodes) times cannot be converging and marks a
// negative cycle.
func shortestPaths(adj map[engine.Key][]edge, nodes map[engine.Key]bool) (map[engine.Key]float64, bool) {
	dist := make(map[engine.Key]float64, len(nodes))
	for n := range nodes {
		dist[n] = math.Inf(1)
	}
	dist[origin] = 0

	queue := []engine.Key{origin}
	inQueue := map[engine.Key]bool{origin: true}
	relaxCount := map[engine.Key]int{}
	limit := len(nodes)

	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		inQueue[u] = false
		for _, e := range adj[u] {
			nd := dist[u] + e.weight
			if nd < dist[e.to] {
				dist[e.to] = nd
				if !inQueue[e.to] {
					queue = append(queue, e.to)
					inQueue[e.to] = true
					relaxCount[e.to]++
					if relaxCount[e.to] > limit {
						return dist, true
					}
				}
			}
		}
	}
	return dist, false
}

// all returns bounds for every known node, used by a single propagation
// step so the two SPFA runs above are shared across all timepoints
// rather than repeated once per node.
func (g *graph) all() (lb, ub map[engine.Key]float64, negCycle bool) {
	fwd, negFwd := shortestPaths(g.adj, g.nodes)
	rev, negRev := shortestPaths(g.radj, g.nodes)
	lb = make(map[engine.Key]float64, len(g.nodes))
	ub = make(map[engine.Key]float64, len(g.nodes))
	for n := range g.nodes {
		if d, ok := fwd[n]; ok {
			ub[n] = d
		} else {
			ub[n] = math.Inf(1)
		}
		if d, ok := rev[n]; ok {
			lb[n] = -d
		} else {
			lb[n] = math.Inf(-1)
		}
	}
	return lb, ub, negFwd || negRev
}
