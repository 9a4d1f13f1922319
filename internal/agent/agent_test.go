package agent

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxd309/ped-engine/internal/geometry"
	"github.com/cxd309/ped-engine/internal/goal"
)

type stubRouter struct {
	exit  int
	calls int
}

func (r *stubRouter) FindExit(a *Agent) int {
	r.calls++
	a.SetExitIndex(r.exit)
	return r.exit
}

// stairBuilding is a floor at z=0 (x in [-10, 0]), a stair rising 0.3 m per
// metre (x in [0, 10]), an upper floor at z=3 and an upward escalator.
func stairBuilding(t *testing.T) *geometry.Building {
	t.Helper()
	b, err := geometry.NewBuilding(geometry.BuildingData{
		Subrooms: []geometry.Subroom{
			{RoomID: 1, SubroomID: 0, Type: geometry.SubroomFloor, Min: geometry.Vec{-10, 0}, Max: geometry.Vec{0, 4}},
			{RoomID: 1, SubroomID: 2, Type: geometry.SubroomStair, Min: geometry.Vec{0, 0}, Max: geometry.Vec{10, 4}, A: 0.3},
			{RoomID: 2, SubroomID: 0, Type: geometry.SubroomFloor, Min: geometry.Vec{10, 0}, Max: geometry.Vec{20, 4}, C: 3},
			{RoomID: 3, SubroomID: 0, Type: geometry.SubroomEscalatorUp, Min: geometry.Vec{20, 0}, Max: geometry.Vec{25, 4}, C: 3, EscalatorSpeed: 0.5},
		},
	})
	require.NoError(t, err)
	return b
}

func newTestAgent(t *testing.T, pos geometry.Vec) (*Agent, *Factory) {
	t.Helper()
	f := NewFactory(stairBuilding(t), nil)
	a := f.New(Spec{Position: pos, FinalDestination: FinalDestinationOut, Group: NoGroup, Parameters: DefaultParameters()})
	return a, f
}

func TestFactoryIDs(t *testing.T) {
	f := NewFactory(nil, nil)
	a := f.New(Spec{Parameters: DefaultParameters()})
	b := f.New(Spec{Parameters: DefaultParameters()})
	assert.Equal(t, 1, a.ID())
	assert.Equal(t, 2, b.ID())
	assert.Equal(t, 2, f.AgentsCreated())

	// factories do not share counters
	other := NewFactory(nil, nil)
	assert.Equal(t, 1, other.New(Spec{}).ID())
}

func TestSetID(t *testing.T) {
	a, _ := newTestAgent(t, geometry.Vec{-5, 2})

	err := a.SetID(0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidIdentity))
	assert.Equal(t, 1, a.ID())

	assert.Error(t, a.SetID(-3))
	require.NoError(t, a.SetID(42))
	assert.Equal(t, 42, a.ID())
}

func TestFactoryDefaults(t *testing.T) {
	a, _ := newTestAgent(t, geometry.Vec{-5, 2})

	assert.Equal(t, NoExit, a.ExitIndex())
	assert.False(t, a.HasExitLine())
	assert.Equal(t, FinalDestinationOut, a.FinalDestination())
	assert.Equal(t, NoGroup, a.Group())
	assert.Equal(t, -1, a.LastGoalID())
	assert.True(t, geometry.IsUnset(a.WaitingPos()))
	assert.Equal(t, 1.2, a.V0())
	assert.Equal(t, 0.5, a.Tau())
	assert.Equal(t, 1.0, a.T())
	assert.Equal(t, 0.01, a.DeltaT())
	assert.Equal(t, 1.0, a.Mass())
}

func TestParametersValidate(t *testing.T) {
	assert.NoError(t, DefaultParameters().Validate())

	tests := []struct {
		name   string
		mutate func(*Parameters)
	}{
		{"zero tau", func(p *Parameters) { p.Tau = 0 }},
		{"NaN tau", func(p *Parameters) { p.Tau = math.NaN() }},
		{"zero timestep", func(p *Parameters) { p.DeltaT = 0 }},
		{"negative turning time", func(p *Parameters) { p.T = -1 }},
		{"negative ea", func(p *Parameters) { p.EA = -0.1 }},
		{"infinite eb", func(p *Parameters) { p.EB = math.Inf(1) }},
		{"NaN v0", func(p *Parameters) { p.V0 = math.NaN() }},
		{"infinite stairs speed", func(p *Parameters) { p.V0DownStairs = math.Inf(-1) }},
		{"NaN smooth factor", func(p *Parameters) { p.SmoothFactorEscalatorUp = math.NaN() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParameters()
			tt.mutate(&p)
			assert.Error(t, p.Validate())
		})
	}
}

func TestPremovement(t *testing.T) {
	f := NewFactory(nil, nil)
	assert.Equal(t, math.MaxFloat64, f.MinPremovementTime())

	a := f.New(Spec{Premovement: 4})
	f.New(Spec{Premovement: 2.5})
	assert.Equal(t, 2.5, f.MinPremovementTime())

	a.SetPremovementTime(1)
	assert.Equal(t, 1.0, f.MinPremovementTime())
	assert.True(t, a.InPremovement(0.5))
	assert.True(t, a.InPremovement(1))
	assert.False(t, a.InPremovement(1.01))
}

func TestExitLineIsCopied(t *testing.T) {
	a, _ := newTestAgent(t, geometry.Vec{-5, 2})
	line := geometry.Line{P1: geometry.Vec{0, 0}, P2: geometry.Vec{0, 4}}
	a.SetExitLine(&line)
	line.P1 = geometry.Vec{9, 9}

	got, ok := a.ExitLine()
	require.True(t, ok)
	assert.Equal(t, geometry.Vec{0, 0}, got.P1)
	assert.InDelta(t, 5, a.DistanceToNextTarget(), 1e-12)

	a.SetExitLine(nil)
	assert.False(t, a.HasExitLine())
}

func TestMentalMap(t *testing.T) {
	a, _ := newTestAgent(t, geometry.Vec{5, 2})

	uid, ok := a.UniqueSubroomID()
	require.True(t, ok)
	assert.Equal(t, 1002, uid)
	assert.Equal(t, NoDecision, a.NextDestination())

	a.SetExitIndex(7)
	assert.Equal(t, 7, a.NextDestination())
	assert.True(t, a.HasVisited(1002))

	a.SetPos(geometry.Vec{15, 2})
	assert.Equal(t, NoDecision, a.NextDestination())
	assert.False(t, a.HasVisited(2000))
	assert.Equal(t, geometry.Vec{5, 2}, a.LastPosition())

	a.SetExitIndex(3)
	assert.Equal(t, "1:2:7>2:0:3>", a.Path())

	a.SetPos(geometry.Vec{50, 2})
	assert.Equal(t, NoDecision, a.NextDestination())
}

func TestFindRoute(t *testing.T) {
	a, _ := newTestAgent(t, geometry.Vec{-5, 2})
	assert.Equal(t, NoExit, a.FindRoute())

	r := &stubRouter{exit: 4}
	f := NewFactory(stairBuilding(t), map[int]Router{1: r})
	b := f.New(Spec{Position: geometry.Vec{-5, 2}, RouterID: 1})
	assert.Equal(t, 4, b.FindRoute())
	assert.Equal(t, 1, r.calls)
	assert.Equal(t, 4, b.NextDestination())

	c := f.New(Spec{Position: geometry.Vec{-5, 2}, RouterID: 9})
	assert.Equal(t, NoExit, c.FindRoute())
	assert.Equal(t, 1, r.calls)
}

func TestWaitingState(t *testing.T) {
	a, _ := newTestAgent(t, geometry.Vec{-5, 2})

	a.StartWaiting()
	a.SetWaitingPos(geometry.Vec{1, 1})
	assert.True(t, a.IsWaiting())
	assert.Equal(t, geometry.Vec{1, 1}, a.WaitingPos())

	a.EndWaiting()
	assert.False(t, a.IsWaiting())
	assert.True(t, geometry.IsUnset(a.WaitingPos()))
}

func TestIsInsideWaitingAreaWaiting(t *testing.T) {
	goals, err := goal.NewRegistry([]goal.Goal{
		{ID: 1, Kind: goal.KindWaitingArea, Door: 10, WaitingTime: 5, MinPeds: 1},
		{ID: 2, Kind: goal.KindStandard, Door: 11},
	})
	require.NoError(t, err)

	a, _ := newTestAgent(t, geometry.Vec{-5, 2})
	a.SetFinalDestination(1)
	assert.False(t, a.IsInsideWaitingAreaWaiting(goals, 0))

	a.EnterGoal()
	assert.Equal(t, 1, a.LastGoalID())
	assert.True(t, a.IsInsideWaitingAreaWaiting(goals, 0))

	g, _ := goals.Get(1)
	g.Enter(2)
	assert.True(t, a.IsInsideWaitingAreaWaiting(goals, 6.9))
	assert.False(t, a.IsInsideWaitingAreaWaiting(goals, 7))

	a.SetFinalDestination(2)
	assert.False(t, a.IsInsideWaitingAreaWaiting(goals, 0))

	a.LeaveGoal()
	assert.False(t, a.InsideGoal())
}

func TestString(t *testing.T) {
	a, _ := newTestAgent(t, geometry.Vec{-5, 2})
	s := a.String()
	assert.Contains(t, s, "------> ped 1 <-------")
	assert.Contains(t, s, ">> Destination [ -1 ]")
	assert.Contains(t, s, ">> Position [-5.00, 2.00]")
}

func TestElevation(t *testing.T) {
	a, _ := newTestAgent(t, geometry.Vec{5, 2})
	assert.InDelta(t, 1.5, a.Elevation(), 1e-12)
	a.SetPos(geometry.Vec{100, 0})
	assert.Equal(t, 0.0, a.Elevation())
}
