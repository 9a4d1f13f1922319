package geometry

// Line is a directed segment, used for walls and for crossings (doors, goal lines).
type Line struct {
	P1 Vec `json:"p1"`
	P2 Vec `json:"p2"`
}

// Centre returns the midpoint of the segment.
func (l Line) Centre() Vec {
	return l.P1.Add(l.P2).Mul(0.5)
}

// Length returns the length of the segment in metres.
func (l Line) Length() float64 {
	return l.P2.Sub(l.P1).Len()
}

// ShortestPoint returns the point of the segment closest to p.
func (l Line) ShortestPoint(p Vec) Vec {
	d := l.P2.Sub(l.P1)
	lenSq := d.LenSqr()
	if lenSq == 0 {
		return l.P1
	}
	t := p.Sub(l.P1).Dot(d) / lenSq
	switch {
	case t <= 0:
		return l.P1
	case t >= 1:
		return l.P2
	}
	return l.P1.Add(d.Mul(t))
}

// DistTo returns the distance from p to the segment.
func (l Line) DistTo(p Vec) float64 {
	return p.Sub(l.ShortestPoint(p)).Len()
}

// Bounds returns the lower-left and upper-right corners of the segment's bounding box.
func (l Line) Bounds() (Vec, Vec) {
	lower := Vec{min(l.P1[0], l.P2[0]), min(l.P1[1], l.P2[1])}
	upper := Vec{max(l.P1[0], l.P2[0]), max(l.P1[1], l.P2[1])}
	return lower, upper
}
