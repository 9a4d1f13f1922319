package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadInput reads a SimulationInput from path. Files ending in .yaml or .yml
// are parsed as YAML, anything else as JSON. YAML is converted to JSON first so
// both formats share the same unmarshalers.
func LoadInput(path string) (SimulationInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SimulationInput{}, fmt.Errorf("reading input: %w", err)
	}
	return ParseInput(data, filepath.Ext(path))
}

// ParseInput decodes data in the format named by ext (".json", ".yaml", ".yml").
func ParseInput(data []byte, ext string) (SimulationInput, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return SimulationInput{}, fmt.Errorf("invalid input YAML: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return SimulationInput{}, fmt.Errorf("converting YAML input: %w", err)
		}
		data = converted
	}

	var input SimulationInput
	if err := json.Unmarshal(data, &input); err != nil {
		return SimulationInput{}, fmt.Errorf("invalid input JSON: %w", err)
	}
	return input, nil
}
