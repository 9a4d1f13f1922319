package sensor

import (
	log "github.com/sirupsen/logrus"

	"github.com/cxd309/ped-engine/internal/agent"
	"github.com/cxd309/ped-engine/internal/graph"
)

// LastDestinationsSensorName is the factor key written by LastDestinationsSensor.
const LastDestinationsSensorName = "last_destinations"

// LastDestinationsSensor penalises crossings back into subrooms the agent has
// already made a decision in.
type LastDestinationsSensor struct{}

func (LastDestinationsSensor) Name() string { return LastDestinationsSensorName }

func (s LastDestinationsSensor) Execute(a *agent.Agent, g *graph.Graph) {
	for _, e := range g.Edges() {
		factor := neutralFactor
		if e.V != graph.Outside && a.HasVisited(e.V) {
			factor = revisitPenalty
		}
		if err := g.SetFactor(e.ID, s.Name(), factor); err != nil {
			log.Warnf("agent %d: %s: %v", a.ID(), s.Name(), err)
		}
	}
}
