package agent

import (
	"math"

	"github.com/cxd309/ped-engine/internal/geometry"
)

// DesiredDirection returns the current desired direction e0.
func (a *Agent) DesiredDirection() geometry.Vec { return a.e0 }

// InitDesiredDirection points e0 straight at target without smoothing. It is
// meant for spawning.
func (a *Agent) InitDesiredDirection(target geometry.Vec) {
	a.e0 = geometry.Normalized(target.Sub(a.Pos()))
}

// UpdateDesiredDirection turns e0 towards target with a first-order lag:
//
//	e0 += (normalize(target-pos) - e0) * (1 - exp(-t/tau))
//
// where t is the number of calls since the last ResetSmoothing times deltaT.
func (a *Agent) UpdateDesiredDirection(target geometry.Vec) geometry.Vec {
	next := geometry.Normalized(target.Sub(a.Pos()))
	t := float64(a.newOrientationDelay) * a.deltaT
	a.newOrientationDelay++
	a.e0 = a.e0.Add(next.Sub(a.e0).Mul(1 - math.Exp(-t/a.tau)))
	return a.e0
}

// ResetSmoothing restarts the turning lag; call it when a new target is assigned.
func (a *Agent) ResetSmoothing() {
	a.newOrientationDelay = 0
}

// LastE0 returns the last desired direction stored with SetLastE0.
func (a *Agent) LastE0() geometry.Vec { return a.lastE0 }

// SetLastE0 stores a desired direction for later comparison.
func (a *Agent) SetLastE0(e0 geometry.Vec) { a.lastE0 = e0 }

// Orientation returns the heading as a unit vector.
func (a *Agent) Orientation() geometry.Vec { return a.ellipse.Orientation() }

// SetOrientation sets the heading from a unit vector.
func (a *Agent) SetOrientation(o geometry.Vec) {
	a.ellipse.CosPhi = o[0]
	a.ellipse.SinPhi = o[1]
}

// UpdateOrientation derives the heading from the velocity. Velocities below
// geometry.Eps in both components keep the previous heading.
func (a *Agent) UpdateOrientation() {
	v := a.ellipse.V
	if math.Abs(v[0]) > geometry.Eps || math.Abs(v[1]) > geometry.Eps {
		a.SetOrientation(geometry.Normalized(v))
	}
}
