package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxd309/ped-engine/internal/agent"
	"github.com/cxd309/ped-engine/internal/geometry"
	"github.com/cxd309/ped-engine/internal/graph"
)

// hall is a floor (1000) connected to a lobby (1001), a stair (1002) and a
// second floor (2000); the stair connects on to the floor and the outside.
func hall(t *testing.T) (*geometry.Building, *graph.Graph) {
	t.Helper()
	b, err := geometry.NewBuilding(geometry.BuildingData{Subrooms: []geometry.Subroom{
		{RoomID: 1, SubroomID: 0, Type: geometry.SubroomFloor, Min: geometry.Vec{0, 0}, Max: geometry.Vec{10, 10}},
		{RoomID: 1, SubroomID: 1, Type: geometry.SubroomLobby, Min: geometry.Vec{10, 0}, Max: geometry.Vec{20, 10}},
		{RoomID: 1, SubroomID: 2, Type: geometry.SubroomStair, Min: geometry.Vec{0, 10}, Max: geometry.Vec{10, 20}},
		{RoomID: 2, SubroomID: 0, Type: geometry.SubroomFloor, Min: geometry.Vec{10, 10}, Max: geometry.Vec{20, 20}},
	}})
	require.NoError(t, err)
	g, err := graph.NewGraph(b.Subrooms(), graph.GraphData{Edges: []graph.Edge{
		{ID: 1, U: 1000, V: 1001, Length: 1},
		{ID: 2, U: 1000, V: 1002, Length: 1},
		{ID: 3, U: 1002, V: 2000, Length: 1},
		{ID: 4, U: 1002, V: graph.Outside, Length: 1},
		{ID: 5, U: 1001, V: 1000, Length: 1},
		{ID: 6, U: 1002, V: 1002, Length: 1},
	}})
	require.NoError(t, err)
	return b, g
}

func factors(t *testing.T, g *graph.Graph, name string) map[int]float64 {
	t.Helper()
	out := make(map[int]float64)
	for _, e := range g.Edges() {
		out[e.ID] = e.Factor(name)
	}
	return out
}

func TestSubroomTypeSensor(t *testing.T) {
	b, g := hall(t)
	a := agent.NewFactory(b, nil).New(agent.Spec{Position: geometry.Vec{5, 5}})

	s := SubroomTypeSensor{}
	s.Execute(a, g)

	want := map[int]float64{
		1: 3, // floor -> lobby
		2: 3, // floor -> stair
		3: 1, // stair -> floor
		4: 1, // leaves the building
		5: 1, // lobby -> floor
		6: 1, // same type
	}
	assert.Equal(t, want, factors(t, g, SubroomTypeSensorName))

	// idempotent
	s.Execute(a, g)
	assert.Equal(t, want, factors(t, g, SubroomTypeSensorName))
}

func TestLastDestinationsSensor(t *testing.T) {
	b, g := hall(t)
	a := agent.NewFactory(b, nil).New(agent.Spec{Position: geometry.Vec{15, 5}})
	a.SetExitIndex(5) // decided in 1001
	a.SetPos(geometry.Vec{5, 5})
	a.SetExitIndex(2) // decided in 1000

	LastDestinationsSensor{}.Execute(a, g)
	assert.Equal(t, map[int]float64{1: 2, 2: 1, 3: 1, 4: 1, 5: 2, 6: 1}, factors(t, g, LastDestinationsSensorName))
}

func TestManager(t *testing.T) {
	_, err := NewManager([]string{"nope"})
	assert.Error(t, err)

	m, err := NewManager([]string{SubroomTypeSensorName, LastDestinationsSensorName, SubroomTypeSensorName})
	require.NoError(t, err)
	assert.Equal(t, []string{SubroomTypeSensorName, LastDestinationsSensorName}, m.Names())

	b, g := hall(t)
	a := agent.NewFactory(b, nil).New(agent.Spec{Position: geometry.Vec{5, 5}})
	a.SetExitIndex(1)
	m.Execute(a, g)

	e, err := g.GetEdgeByID(5)
	require.NoError(t, err)
	assert.InDelta(t, 2, e.Cost(), 1e-12) // lobby -> visited floor
	e, err = g.GetEdgeByID(1)
	require.NoError(t, err)
	assert.InDelta(t, 3, e.Cost(), 1e-12)

	var none *Manager
	none.Execute(a, g)
}

func TestNew(t *testing.T) {
	s, err := New(SubroomTypeSensorName)
	require.NoError(t, err)
	assert.Equal(t, SubroomTypeSensorName, s.Name())

	s, err = New(LastDestinationsSensorName)
	require.NoError(t, err)
	assert.Equal(t, LastDestinationsSensorName, s.Name())

	_, err = New("")
	assert.Error(t, err)
}
