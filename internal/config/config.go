// internal/config/config.go
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Console ConsoleConfig `yaml:"console"`
	Serial  SerialConfig  `yaml:"serial"`
	Log     LogConfig     `yaml:"log"`
}

// ---- CONSOLE ----

type ConsoleConfig struct {
	USART  uint8  `yaml:"usart"`
	Baud   uint32 `yaml:"baud"`
	Output string `yaml:"output"` // buffered | direct
	Prompt string `yaml:"prompt"` // single character, empty = no prompt
}

// ---- SERIAL DEVICE ----

type SerialConfig struct {
	Device        string           `yaml:"device"`
	Devices       map[uint8]string `yaml:"devices"` // usart id => device path
	ReadTimeoutMs int              `yaml:"read_timeout_ms"`
}

// ---- LOGGING ----

type LogConfig struct {
	Level string `yaml:"level"` // debug | info | warn | error
}

// Load reads a YAML configuration file. Missing fields keep their zero
// value; call Normalize and Validate afterwards.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}
