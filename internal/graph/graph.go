// Package graph provides the navigation graph agents route over. Vertices are
// subrooms, edges are crossings between them, and every edge carries named cost
// factors written by sensors. The traversal cost of an edge is its length times
// the product of all its factors.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cxd309/ped-engine/internal/geometry"
)

// VertexID, EdgeID are int aliases used as identifiers. Vertex ids are unique
// subroom ids; edge ids are exit (door) ids.
type (
	VertexID = int
	EdgeID   = int
)

// Outside is the virtual vertex edges leaving the building lead to. It has no
// subroom.
const Outside VertexID = -1

// minEdgeLength keeps zero-length crossings from making routes free.
const minEdgeLength = 1e-3

// ErrNoPath is returned when no route connects two vertices.
var ErrNoPath = errors.New("no path")

// Vertex is a subroom in the navigation graph.
type Vertex struct {
	ID      VertexID
	Subroom *geometry.Subroom
}

// Edge is a directed crossing from subroom U to subroom V through Line.
// Length is optional: if zero it is derived from the subroom centroids.
type Edge struct {
	ID      EdgeID        `json:"edge_id"`
	U       VertexID      `json:"u"`
	V       VertexID      `json:"v"` // Outside for crossings that leave the building
	Line    geometry.Line `json:"line"`
	Length  float64       `json:"length,omitempty"` // metres
	factors map[string]float64
}

// Factor returns the factor stored under name, 1 if none.
func (e *Edge) Factor(name string) float64 {
	if f, ok := e.factors[name]; ok {
		return f
	}
	return 1
}

// Factors returns a copy of all named factors.
func (e *Edge) Factors() map[string]float64 {
	out := make(map[string]float64, len(e.factors))
	for k, v := range e.factors {
		out[k] = v
	}
	return out
}

// Cost returns Length times the product of all factors.
func (e *Edge) Cost() float64 {
	c := e.Length
	for _, f := range e.factors {
		c *= f
	}
	return c
}

// GraphData is the serialisable input representation of the navigation graph.
// Vertices are taken from the building's subrooms.
type GraphData struct {
	Edges []Edge `json:"edges"`
}

// PathInfo holds the result of a shortest-path computation.
type PathInfo struct {
	Route []VertexID // ordered vertex ids from start to end
	Edges []EdgeID   // edges taken, len(Route)-1 of them
	Cost  float64    // total factor-weighted cost
}

// Graph is a directed weighted graph with cached shortest-path computation.
// Each agent owns its own Graph (see Clone); it is not safe for concurrent use.
type Graph struct {
	vertices  map[VertexID]*Vertex
	vertexIDs []VertexID // sorted, Outside last
	edges     []*Edge
	edgeMap   map[EdgeID]*Edge
	// Floyd-Warshall tables; nil until first needed, reset when costs change.
	dist     map[VertexID]map[VertexID]float64
	nextEdge map[VertexID]map[VertexID]*Edge
	// Path cache; cleared whenever the tables are recomputed.
	pathCache map[[2]VertexID]PathInfo
}

// NewGraph builds a Graph over subrooms from GraphData, returning an error if
// any edge references an unknown subroom or repeats an id.
func NewGraph(subrooms []*geometry.Subroom, data GraphData) (*Graph, error) {
	g := &Graph{
		vertices:  make(map[VertexID]*Vertex),
		edgeMap:   make(map[EdgeID]*Edge),
		pathCache: make(map[[2]VertexID]PathInfo),
	}
	for _, s := range subrooms {
		if err := g.AddVertex(&Vertex{ID: s.UniqueID(), Subroom: s}); err != nil {
			return nil, err
		}
	}
	for _, e := range data.Edges {
		if err := g.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// AddVertex adds a vertex to the graph. Returns an error if the id already exists.
func (g *Graph) AddVertex(v *Vertex) error {
	if v.ID == Outside {
		return fmt.Errorf("vertex id %d is reserved", Outside)
	}
	if _, exists := g.vertices[v.ID]; exists {
		return fmt.Errorf("vertex %d already exists", v.ID)
	}
	g.vertices[v.ID] = v
	g.vertexIDs = append(g.vertexIDs, v.ID)
	sort.Ints(g.vertexIDs)
	g.dist = nil // invalidate cached paths
	return nil
}

// AddEdge adds a directed edge to the graph. Returns an error if the edge id
// already exists or either endpoint is missing.
func (g *Graph) AddEdge(e Edge) error {
	if _, exists := g.edgeMap[e.ID]; exists {
		return fmt.Errorf("edge %d already exists", e.ID)
	}
	src, ok := g.vertices[e.U]
	if !ok {
		return fmt.Errorf("edge %d: source vertex %d not found", e.ID, e.U)
	}
	dst, ok := g.vertices[e.V]
	if !ok && e.V != Outside {
		return fmt.Errorf("edge %d: target vertex %d not found", e.ID, e.V)
	}
	if e.Length <= 0 {
		e.Length = src.Subroom.Centroid().Sub(e.Line.Centre()).Len()
		if dst != nil {
			e.Length += e.Line.Centre().Sub(dst.Subroom.Centroid()).Len()
		}
	}
	e.Length = max(e.Length, minEdgeLength)
	e.factors = make(map[string]float64)

	edge := &e
	g.edges = append(g.edges, edge)
	g.edgeMap[e.ID] = edge
	g.dist = nil // invalidate cached paths
	return nil
}

// Clone returns a deep copy of the graph's edges and factors. Vertex values and
// their subrooms are shared since they are immutable.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		vertices:  make(map[VertexID]*Vertex, len(g.vertices)),
		vertexIDs: append([]VertexID(nil), g.vertexIDs...),
		edgeMap:   make(map[EdgeID]*Edge, len(g.edges)),
		pathCache: make(map[[2]VertexID]PathInfo),
	}
	for id, v := range g.vertices {
		c.vertices[id] = v
	}
	for _, e := range g.edges {
		cp := *e
		cp.factors = e.Factors()
		c.edges = append(c.edges, &cp)
		c.edgeMap[cp.ID] = &cp
	}
	return c
}

// Vertex returns the vertex with the given id, or nil for Outside and unknown ids.
func (g *Graph) Vertex(id VertexID) *Vertex {
	return g.vertices[id]
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge {
	return g.edges
}

// GetEdgeByID looks up an edge by its ID.
func (g *Graph) GetEdgeByID(id EdgeID) (*Edge, error) {
	e, ok := g.edgeMap[id]
	if !ok {
		return nil, fmt.Errorf("edge %d not found", id)
	}
	return e, nil
}

// SetFactor stores factor under name on edge id. Cached paths are dropped only
// if the value actually changes.
func (g *Graph) SetFactor(id EdgeID, name string, factor float64) error {
	e, err := g.GetEdgeByID(id)
	if err != nil {
		return err
	}
	if old, ok := e.factors[name]; ok && old == factor {
		return nil
	}
	e.factors[name] = factor
	g.dist = nil // invalidate cached paths
	return nil
}

// GetNextEdge returns the first edge on the cheapest path from u toward dest.
func (g *Graph) GetNextEdge(u, dest VertexID) (*Edge, error) {
	path, err := g.GetShortestPath(u, dest)
	if err != nil {
		return nil, err
	}
	if len(path.Edges) == 0 {
		return nil, fmt.Errorf("already at destination %d", dest)
	}
	return g.GetEdgeByID(path.Edges[0])
}

// GetPathToEdge returns the cheapest path from u that ends by crossing edge id.
func (g *Graph) GetPathToEdge(u VertexID, id EdgeID) (PathInfo, error) {
	e, err := g.GetEdgeByID(id)
	if err != nil {
		return PathInfo{}, err
	}
	head, err := g.GetShortestPath(u, e.U)
	if err != nil {
		return PathInfo{}, err
	}
	return PathInfo{
		Route: append(append([]VertexID(nil), head.Route...), e.V),
		Edges: append(append([]EdgeID(nil), head.Edges...), e.ID),
		Cost:  head.Cost + e.Cost(),
	}, nil
}
