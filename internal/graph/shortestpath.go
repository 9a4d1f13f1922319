package graph

import (
	"fmt"
	"math"
)

// nodeIDs returns every vertex id plus Outside.
func (g *Graph) nodeIDs() []VertexID {
	ids := make([]VertexID, 0, len(g.vertexIDs)+1)
	ids = append(ids, g.vertexIDs...)
	return append(ids, Outside)
}

// computeShortestPaths runs Floyd-Warshall over all vertices and edges using the
// factor-weighted edge costs. Parallel edges keep the cheapest one.
func (g *Graph) computeShortestPaths() {
	nodeIDs := g.nodeIDs()

	dist := make(map[VertexID]map[VertexID]float64, len(nodeIDs))
	next := make(map[VertexID]map[VertexID]*Edge, len(nodeIDs))
	for _, i := range nodeIDs {
		dist[i] = make(map[VertexID]float64, len(nodeIDs))
		next[i] = make(map[VertexID]*Edge, len(nodeIDs))
		for _, j := range nodeIDs {
			dist[i][j] = math.Inf(1)
		}
		dist[i][i] = 0
	}
	for _, e := range g.edges {
		if c := e.Cost(); c < dist[e.U][e.V] {
			dist[e.U][e.V] = c
			next[e.U][e.V] = e
		}
	}
	for _, k := range nodeIDs {
		for _, i := range nodeIDs {
			for _, j := range nodeIDs {
				if d := dist[i][k] + dist[k][j]; d < dist[i][j] {
					dist[i][j] = d
					next[i][j] = next[i][k]
				}
			}
		}
	}

	g.dist = dist
	g.nextEdge = next
	g.pathCache = make(map[[2]VertexID]PathInfo) // clear stale cache
}

func (g *Graph) ensureShortestPaths() {
	if g.dist == nil {
		g.computeShortestPaths()
	}
}

func (g *Graph) reconstructPath(u, v VertexID) ([]VertexID, []EdgeID) {
	route := []VertexID{u}
	var edges []EdgeID
	for u != v {
		e, ok := g.nextEdge[u][v]
		if !ok || e == nil {
			return nil, nil // no path
		}
		u = e.V
		route = append(route, u)
		edges = append(edges, e.ID)
	}
	return route, edges
}

// GetShortestPath returns the cheapest path between start and end, using a cache.
// Returns an error wrapping ErrNoPath if no path exists.
func (g *Graph) GetShortestPath(start, end VertexID) (PathInfo, error) {
	if start == end {
		return PathInfo{Route: []VertexID{start}, Cost: 0}, nil
	}
	g.ensureShortestPaths()
	key := [2]VertexID{start, end}
	if p, ok := g.pathCache[key]; ok {
		return p, nil
	}
	d, ok := g.dist[start][end]
	if !ok || math.IsInf(d, 1) {
		return PathInfo{}, fmt.Errorf("from %d to %d: %w", start, end, ErrNoPath)
	}
	route, edges := g.reconstructPath(start, end)
	p := PathInfo{Route: route, Edges: edges, Cost: d}
	g.pathCache[key] = p
	return p, nil
}
