// Package config holds the tool configuration shared by the CLI and the
// diagnostic API server.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the tool configuration
type Config struct {
	OutputFile string `yaml:"output_file"` // File to write the report to, "" means stdout
	Format     string `yaml:"format"`      // Report format (text, json, binary, hash)
	Extended   bool   `yaml:"extended"`    // Include drives, adapters and artifacts in the snapshot
	LogLevel   string `yaml:"log_level"`   // Log level (debug, info, warn, error)
	ServeHost  string `yaml:"serve_host"`  // Bind address for the diagnostic API server
	ServePort  string `yaml:"serve_port"`  // Port for the diagnostic API server
	PrettyJSON bool   `yaml:"pretty_json"` // Indent JSON output
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Format:    "text",
		Extended:  true,
		LogLevel:  "info",
		ServeHost: "127.0.0.1",
		ServePort: "8735",
	}
}

// LoadConfigFromFile loads configuration from a YAML file, starting from the
// defaults so absent keys keep their default values.
func LoadConfigFromFile(filePath string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filePath)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", filePath, err)
	}
	return cfg, nil
}

// ServeAddr joins the configured host and port into a listen address.
func (c Config) ServeAddr() string {
	return c.ServeHost + ":" + c.ServePort
}
