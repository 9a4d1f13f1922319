package geometry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoRoomData() BuildingData {
	return BuildingData{
		Subrooms: []Subroom{
			{RoomID: 1, SubroomID: 0, Type: SubroomFloor, Min: Vec{0, 0}, Max: Vec{5, 4}},
			{RoomID: 1, SubroomID: 2, Type: SubroomStair, Min: Vec{5, 0}, Max: Vec{10, 4}, A: 0.3, C: -1.5},
		},
		Walls: []Line{
			{P1: Vec{0, 0}, P2: Vec{10, 0}},
			{P1: Vec{0, 4}, P2: Vec{10, 4}},
		},
	}
}

func TestNewBuilding(t *testing.T) {
	b, err := NewBuilding(twoRoomData())
	require.NoError(t, err)

	subs := b.Subrooms()
	require.Len(t, subs, 2)
	assert.Equal(t, 1000, subs[0].UniqueID())
	assert.Equal(t, 1002, subs[1].UniqueID())

	s, ok := b.Subroom(1002)
	require.True(t, ok)
	assert.Equal(t, SubroomStair, s.Type)
	_, ok = b.Subroom(7)
	assert.False(t, ok)
}

func TestNewBuildingRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		sub  Subroom
	}{
		{"unknown type", Subroom{Type: "ramp", Min: Vec{0, 0}, Max: Vec{1, 1}}},
		{"empty extent", Subroom{Type: SubroomFloor, Min: Vec{1, 1}, Max: Vec{1, 2}}},
		{"subroom id too large", Subroom{SubroomID: 1000, Type: SubroomFloor, Min: Vec{0, 0}, Max: Vec{1, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilding(BuildingData{Subrooms: []Subroom{tt.sub}})
			assert.Error(t, err)
		})
	}

	dup := BuildingData{Subrooms: []Subroom{
		{RoomID: 1, Type: SubroomFloor, Min: Vec{0, 0}, Max: Vec{1, 1}},
		{RoomID: 1, Type: SubroomFloor, Min: Vec{2, 0}, Max: Vec{3, 1}},
	}}
	_, err := NewBuilding(dup)
	assert.Error(t, err)
}

func TestSubroomAt(t *testing.T) {
	b, err := NewBuilding(twoRoomData())
	require.NoError(t, err)

	s, err := b.SubroomAt(Vec{2, 2})
	require.NoError(t, err)
	assert.Equal(t, 1000, s.UniqueID())

	s, err = b.SubroomAt(Vec{7, 1})
	require.NoError(t, err)
	assert.Equal(t, 1002, s.UniqueID())

	// shared border resolves to the smallest unique id
	s, err = b.SubroomAt(Vec{5, 2})
	require.NoError(t, err)
	assert.Equal(t, 1000, s.UniqueID())

	_, err = b.SubroomAt(Vec{20, 2})
	assert.True(t, errors.Is(err, ErrOutsideBuilding))
}

func TestWallsWithin(t *testing.T) {
	b, err := NewBuilding(twoRoomData())
	require.NoError(t, err)

	assert.Len(t, b.WallsWithin(Vec{3, 0.1}, 0.5), 1)
	assert.Len(t, b.WallsWithin(Vec{3, 2}, 0.5), 0)
	assert.Len(t, b.WallsWithin(Vec{3, 2}, 2), 2)
}

func TestSubroomElevation(t *testing.T) {
	s := Subroom{Type: SubroomStair, Min: Vec{0, 0}, Max: Vec{10, 2}, A: 0.3}

	assert.InDelta(t, 1.5, s.Elevation(Vec{5, 1}), 1e-12)
	assert.InDelta(t, 0, s.MinElevation(), 1e-12)
	assert.InDelta(t, 3, s.MaxElevation(), 1e-12)
	assert.InDelta(t, 1/1.0440306508910551, s.CosAngleWithHorizontal(), 1e-9)
	assert.Equal(t, Vec{5, 1}, s.Centroid())
	assert.True(t, s.Contains(Vec{10, 2}))
	assert.False(t, s.Contains(Vec{10.01, 2}))
}
