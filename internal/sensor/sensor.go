// Package sensor holds the perception components that write named cost factors
// onto an agent's navigation graph before it routes.
package sensor

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/cxd309/ped-engine/internal/agent"
	"github.com/cxd309/ped-engine/internal/graph"
)

// Sensor updates edge factors of g for agent a. Factors are stored under the
// sensor's Name, so executing a sensor twice gives the same costs as once.
type Sensor interface {
	Name() string
	Execute(a *agent.Agent, g *graph.Graph)
}

// New returns the sensor registered under name.
func New(name string) (Sensor, error) {
	switch name {
	case SubroomTypeSensorName:
		return SubroomTypeSensor{}, nil
	case LastDestinationsSensorName:
		return LastDestinationsSensor{}, nil
	default:
		return nil, fmt.Errorf("unknown sensor %q", name)
	}
}

// Manager runs an ordered list of sensors.
type Manager struct {
	sensors []Sensor
}

// NewManager builds a manager from sensor names, in order. Duplicates are ignored.
func NewManager(names []string) (*Manager, error) {
	m := &Manager{}
	for _, name := range lo.Uniq(names) {
		s, err := New(name)
		if err != nil {
			return nil, err
		}
		m.sensors = append(m.sensors, s)
	}
	return m, nil
}

// Add appends s to the list.
func (m *Manager) Add(s Sensor) {
	m.sensors = append(m.sensors, s)
}

// Names returns the names of the configured sensors in execution order.
func (m *Manager) Names() []string {
	return lo.Map(m.sensors, func(s Sensor, _ int) string { return s.Name() })
}

// Execute runs every sensor on g for a.
func (m *Manager) Execute(a *agent.Agent, g *graph.Graph) {
	if m == nil {
		return
	}
	for _, s := range m.sensors {
		s.Execute(a, g)
	}
}
