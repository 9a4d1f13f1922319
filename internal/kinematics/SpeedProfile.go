package kinematics

import "math"

// LogisticGate measures how far elevation is from the level z:
//
//	2/(1+exp(-smoothFactor*angle*(z-elevation)²)) - 1
//
// The gate is 0 on the level and tends to 1 away from it for positive
// smoothFactor and angle.
func LogisticGate(smoothFactor, angle, z, elevation float64) float64 {
	d := z - elevation
	return 2.0/(1+math.Exp(-smoothFactor*angle*d*d)) - 1
}

// BlendSpeed mixes the base speed and the transition speed with the product of
// the two level gates: (1-f*g)*base + f*g*transition.
func BlendSpeed(base, transition, f, g float64) float64 {
	fg := f * g
	return (1-fg)*base + fg*transition
}
