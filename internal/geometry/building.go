package geometry

import (
	"fmt"
	"sort"

	"github.com/dhconnelly/rtreego"
)

// rtree fan-out used for both indexes.
const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50
	boundsPadding    = 1e-6
)

// BuildingData is the serialisable description of the walkable geometry.
type BuildingData struct {
	Subrooms []Subroom `json:"subrooms"`
	Walls    []Line    `json:"walls"`
}

// Building answers subroom and wall lookups through two r-trees.
// It is read-only after construction and safe for concurrent queries.
type Building struct {
	subrooms     []*Subroom
	subroomByUID map[int]*Subroom
	walls        []Line
	subroomIndex *rtreego.Rtree
	wallIndex    *rtreego.Rtree
}

type indexedSubroom struct {
	subroom *Subroom
	rect    rtreego.Rect
}

func (s *indexedSubroom) Bounds() rtreego.Rect { return s.rect }

type indexedWall struct {
	line Line
	rect rtreego.Rect
}

func (w *indexedWall) Bounds() rtreego.Rect { return w.rect }

// NewBuilding validates data and builds the spatial indexes.
func NewBuilding(data BuildingData) (*Building, error) {
	b := &Building{
		subroomByUID: make(map[int]*Subroom, len(data.Subrooms)),
		walls:        append([]Line(nil), data.Walls...),
	}

	subSpatials := make([]rtreego.Spatial, 0, len(data.Subrooms))
	for i := range data.Subrooms {
		s := data.Subrooms[i]
		if err := s.validate(); err != nil {
			return nil, err
		}
		if _, exists := b.subroomByUID[s.UniqueID()]; exists {
			return nil, fmt.Errorf("subroom %d/%d already exists", s.RoomID, s.SubroomID)
		}
		rect, err := BoundingRect(s.Min, s.Max)
		if err != nil {
			return nil, fmt.Errorf("subroom %d/%d bounds: %w", s.RoomID, s.SubroomID, err)
		}
		sub := &s
		b.subrooms = append(b.subrooms, sub)
		b.subroomByUID[sub.UniqueID()] = sub
		subSpatials = append(subSpatials, &indexedSubroom{subroom: sub, rect: rect})
	}

	wallSpatials := make([]rtreego.Spatial, 0, len(data.Walls))
	for i, w := range data.Walls {
		lower, upper := w.Bounds()
		rect, err := BoundingRect(lower, upper)
		if err != nil {
			return nil, fmt.Errorf("wall %d bounds: %w", i, err)
		}
		wallSpatials = append(wallSpatials, &indexedWall{line: w, rect: rect})
	}

	b.subroomIndex = rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren, subSpatials...)
	b.wallIndex = rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren, wallSpatials...)
	return b, nil
}

// SubroomAt returns the subroom containing p. Points on a shared border resolve
// to the subroom with the smallest unique id.
func (b *Building) SubroomAt(p Vec) (*Subroom, error) {
	rect, err := BoundingRect(p, p)
	if err != nil {
		return nil, err
	}
	var found *Subroom
	for _, sp := range b.subroomIndex.SearchIntersect(rect) {
		sub := sp.(*indexedSubroom).subroom
		if !sub.Contains(p) {
			continue
		}
		if found == nil || sub.UniqueID() < found.UniqueID() {
			found = sub
		}
	}
	if found == nil {
		return nil, fmt.Errorf("(%.2f, %.2f): %w", p[0], p[1], ErrOutsideBuilding)
	}
	return found, nil
}

// Subroom looks up a subroom by its unique id.
func (b *Building) Subroom(uid int) (*Subroom, bool) {
	s, ok := b.subroomByUID[uid]
	return s, ok
}

// Subrooms returns all subrooms ordered by unique id.
func (b *Building) Subrooms() []*Subroom {
	out := append([]*Subroom(nil), b.subrooms...)
	sort.Slice(out, func(i, j int) bool { return out[i].UniqueID() < out[j].UniqueID() })
	return out
}

// WallsWithin returns the walls whose distance to p is at most radius.
func (b *Building) WallsWithin(p Vec, radius float64) []Line {
	lower := p.Sub(Vec{radius, radius})
	upper := p.Add(Vec{radius, radius})
	rect, err := BoundingRect(lower, upper)
	if err != nil {
		return nil
	}
	var out []Line
	for _, sp := range b.wallIndex.SearchIntersect(rect) {
		w := sp.(*indexedWall).line
		if w.DistTo(p) <= radius {
			out = append(out, w)
		}
	}
	return out
}

// BoundingRect builds an r-tree rectangle, padding degenerate extents since
// rtreego rejects zero-length sides.
func BoundingRect(lower, upper Vec) (rtreego.Rect, error) {
	origin := rtreego.Point{lower[0] - boundsPadding, lower[1] - boundsPadding}
	lengths := []float64{
		upper[0] - lower[0] + 2*boundsPadding,
		upper[1] - lower[1] + 2*boundsPadding,
	}
	return rtreego.NewRect(origin, lengths)
}
