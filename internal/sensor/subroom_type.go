package sensor

import (
	log "github.com/sirupsen/logrus"

	"github.com/cxd309/ped-engine/internal/agent"
	"github.com/cxd309/ped-engine/internal/geometry"
	"github.com/cxd309/ped-engine/internal/graph"
)

// SubroomTypeSensorName is the factor key written by SubroomTypeSensor.
const SubroomTypeSensorName = "subroom_type"

const (
	neutralFactor   = 1.0
	subroomTypeCost = 3.0
	revisitPenalty  = 2.0
)

// SubroomTypeSensor prefers crossings that keep the agent on the same kind of
// subroom or lead onto a floor. Any other transition costs three times as much.
type SubroomTypeSensor struct{}

func (SubroomTypeSensor) Name() string { return SubroomTypeSensorName }

func (s SubroomTypeSensor) Execute(a *agent.Agent, g *graph.Graph) {
	for _, e := range g.Edges() {
		if err := g.SetFactor(e.ID, s.Name(), subroomTypeFactor(g.Vertex(e.U), g.Vertex(e.V))); err != nil {
			log.Warnf("agent %d: %s: %v", a.ID(), s.Name(), err)
		}
	}
}

func subroomTypeFactor(src, dst *graph.Vertex) float64 {
	if dst == nil || src == nil {
		return neutralFactor
	}
	switch {
	case dst.Subroom.Type == src.Subroom.Type:
		return neutralFactor
	case dst.Subroom.Type == geometry.SubroomFloor:
		return neutralFactor
	}
	return subroomTypeCost
}
