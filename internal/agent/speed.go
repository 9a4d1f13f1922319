package agent

import (
	"math"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/cxd309/ped-engine/internal/geometry"
	"github.com/cxd309/ped-engine/internal/kinematics"
)

// defaultSmoothFactor is the smoothing sharpness used outside stairs and
// escalators. Changing it changes every trajectory.
const defaultSmoothFactor = 15.0

// EffectiveDesiredSpeed returns the desired speed in a subroom of type kind when
// the target lies delta metres above (positive) or below (negative) the agent.
// Escalators add the belt speed of the subroom the agent stands in.
func (a *Agent) EffectiveDesiredSpeed(kind geometry.SubroomType, delta float64) float64 {
	return a.selectV0(kind, delta, a.beltSpeed)
}

// SelectSmoothFactor returns the smoothing sharpness matching EffectiveDesiredSpeed.
func (a *Agent) SelectSmoothFactor(kind geometry.SubroomType, delta float64) float64 {
	switch kind {
	case geometry.SubroomEscalatorUp:
		return a.smoothFactorEscalatorUp
	case geometry.SubroomEscalatorDown:
		return a.smoothFactorEscalatorDown
	case geometry.SubroomStair:
		if delta < 0 {
			return a.smoothFactorDownStairs
		}
		return a.smoothFactorUpStairs
	case geometry.SubroomFloor, geometry.SubroomCorridor, geometry.SubroomEntrance,
		geometry.SubroomLobby, geometry.SubroomOpenArea, geometry.SubroomUnknown:
		return defaultSmoothFactor
	}
	return defaultSmoothFactor
}

// EffectiveV0 returns the desired speed at the agent's position, blending the
// base speed and the stair/escalator speed with two logistic gates against the
// subroom's maximum and minimum elevation. Without an exit line (for example
// right after spawning) it is max(0, V0).
func (a *Agent) EffectiveV0() float64 {
	base := math.Max(0, a.ellipse.V0)
	if a.exitLine == nil || a.building == nil {
		return base
	}
	sub, err := a.building.SubroomAt(a.Pos())
	if err != nil {
		log.Debugf("agent %d: no subroom for desired speed: %v", a.id, err)
		return base
	}

	z := sub.Elevation(a.Pos())
	delta := sub.Elevation(a.exitLine.Centre()) - z
	smoothFactor := a.SelectSmoothFactor(sub.Type, delta)
	transition := a.selectV0(sub.Type, delta, func() float64 { return sub.EscalatorSpeed })
	alpha := math.Acos(lo.Clamp(sub.CosAngleWithHorizontal(), -1, 1))

	f := kinematics.LogisticGate(smoothFactor, alpha, sub.MaxElevation(), z)
	g := kinematics.LogisticGate(smoothFactor, alpha, sub.MinElevation(), z)
	return kinematics.BlendSpeed(a.ellipse.V0, transition, f, g)
}

func (a *Agent) selectV0(kind geometry.SubroomType, delta float64, belt func() float64) float64 {
	switch kind {
	case geometry.SubroomEscalatorUp:
		return a.v0EscalatorUp + belt()
	case geometry.SubroomEscalatorDown:
		return a.v0EscalatorDown + belt()
	case geometry.SubroomStair:
		if math.Abs(delta) < 1 {
			return math.Max(0, a.ellipse.V0)
		}
		if delta < 0 {
			return a.v0DownStairs
		}
		return a.v0UpStairs
	case geometry.SubroomFloor, geometry.SubroomCorridor, geometry.SubroomEntrance,
		geometry.SubroomLobby, geometry.SubroomOpenArea, geometry.SubroomUnknown:
		return a.ellipse.V0
	}
	return a.ellipse.V0
}

func (a *Agent) beltSpeed() float64 {
	if a.building == nil {
		return 0
	}
	sub, err := a.building.SubroomAt(a.Pos())
	if err != nil {
		return 0
	}
	return sub.EscalatorSpeed
}

// V0UpStairs returns the desired speed walking up stairs.
func (a *Agent) V0UpStairs() float64 { return a.v0UpStairs }

// V0DownStairs returns the desired speed walking down stairs.
func (a *Agent) V0DownStairs() float64 { return a.v0DownStairs }

// V0EscalatorUp returns the desired speed on an upward escalator, excluding the belt.
func (a *Agent) V0EscalatorUp() float64 { return a.v0EscalatorUp }

// V0EscalatorDown returns the desired speed on a downward escalator, excluding the belt.
func (a *Agent) V0EscalatorDown() float64 { return a.v0EscalatorDown }
