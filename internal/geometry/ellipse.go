package geometry

// Ellipse is the oriented body shape of an agent.
type Ellipse struct {
	Center Vec     `json:"center"`
	V      Vec     `json:"v"`  // current velocity, m/s
	V0     float64 `json:"v0"` // base desired speed, m/s
	EA     float64 `json:"ea"` // semi-axis in walking direction, metres
	EB     float64 `json:"eb"` // semi-axis in shoulder direction, metres
	CosPhi float64 `json:"cos_phi"`
	SinPhi float64 `json:"sin_phi"`
}

// Orientation returns the heading as a unit vector.
func (e Ellipse) Orientation() Vec {
	return Vec{e.CosPhi, e.SinPhi}
}

// Radius returns the larger semi-axis, used as the circular collision radius.
func (e Ellipse) Radius() float64 {
	return max(e.EA, e.EB)
}
