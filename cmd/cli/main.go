// Command ped-engine reads a SimulationInput (JSON or YAML) from a file argument
// (or JSON from stdin), runs the simulation, and writes the SimulationLog JSON
// to stdout or --output.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cheggaaa/pb"
	log "github.com/sirupsen/logrus"
	"github.com/ttacon/chalk"
	"github.com/urfave/cli"

	"github.com/cxd309/ped-engine/internal/engine"
)

func main() {
	app := cli.NewApp()
	app.Name = "ped-engine"
	app.Usage = "Pedestrian motion and navigation simulator"
	app.Description = "Runs a pedestrian simulation and writes the per-step log as JSON"

	app.Commands = []cli.Command{
		{
			Name:      "run",
			Aliases:   []string{"r"},
			Usage:     "Run a simulation",
			ArgsUsage: "[input.json|input.yaml]",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "output, o", Value: "", Usage: "Write the log to this file instead of stdout"},
				cli.BoolFlag{Name: "debug", Usage: "Enable debug logging"},
				cli.BoolFlag{Name: "progress", Usage: "Show a progress bar on stderr"},
			},
			Action: run,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, chalk.Red.Color("Error: "+err.Error()))
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	log.SetOutput(os.Stderr)
	if c.Bool("debug") {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	input, err := readInput(c.Args().First())
	if err != nil {
		return err
	}

	sim, err := engine.NewSimulation(input)
	if err != nil {
		return fmt.Errorf("simulation error: %w", err)
	}

	var bar *pb.ProgressBar
	if c.Bool("progress") {
		bar = pb.New(sim.Steps())
		bar.Output = os.Stderr
		bar.SetWidth(80)
		bar.Start()
		sim.OnStep = func(engine.SimulationLogRow) { bar.Increment() }
	}

	simLog, err := sim.Run()
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("simulation error: %w", err)
	}

	out := io.Writer(os.Stdout)
	if path := c.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := json.NewEncoder(out).Encode(simLog); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	fmt.Fprint(os.Stderr, chalk.Green, "Simulation ", sim.ID(), " done: ", chalk.Reset)
	fmt.Fprintf(os.Stderr, "%d agents left, %d remaining\n", len(simLog.Exits), len(sim.Agents()))
	return nil
}

func readInput(path string) (engine.SimulationInput, error) {
	if path != "" {
		return engine.LoadInput(path)
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return engine.SimulationInput{}, fmt.Errorf("reading input: %w", err)
	}
	return engine.ParseInput(data, ".json")
}
