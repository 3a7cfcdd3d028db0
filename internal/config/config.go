// Package config loads the optional JSON configuration file.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Config mirrors the command-line flags. Flags override file values.
type Config struct {
	Output string   `json:"output,omitempty" jsonschema:"title=Output,description=Path of the binary file to write,default=test.bin"`
	Words  []string `json:"words,omitempty" jsonschema:"title=Words,description=Instruction words as integer literals (e.g. 0x00C000EF); replaces the built-in program"`
	Debug  bool     `json:"debug,omitempty" jsonschema:"title=Debug,description=Enable debug logging"`
}

// Load reads and strictly decodes a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return &cfg, nil
}
