//go:build js && wasm

// Command wasm runs pedestrian evacuations in the browser. It registers
//
//	runSimulation(jsonString) -> jsonString
//
// The argument describes the building subrooms and walls, the navigation
// graph of doors, the goals, the operational model and the agents to place.
// The result holds one row of agent positions, velocities and exits per
// timestep plus the time and goal at which each agent left. Invalid input,
// such as an agent outside the building, yields {"error": "..."}.
package main

import (
	"syscall/js"

	log "github.com/sirupsen/logrus"

	"github.com/cxd309/ped-engine/internal/engine"
)

func main() {
	log.SetLevel(log.WarnLevel)
	js.Global().Set("runSimulation", js.FuncOf(runSimulation))
	select {} // keep the WASM module alive until the page is closed
}

func runSimulation(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return map[string]any{"error": "no input provided"}
	}

	result, err := engine.RunJSON(args[0].String())
	if err != nil {
		return map[string]any{"error": err.Error()}
	}
	return result
}
