// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// helper to build a valid config quickly
func valid() *Config {
	cfg := &Config{}
	Normalize(cfg)
	return cfg
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "console.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// ---- tests ----

func TestLoad(t *testing.T) {
	path := writeFile(t, `
console:
  usart: 2
  baud: 57600
  output: direct
  prompt: ">"
serial:
  devices:
    2: /dev/ttyUSB1
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint8(2), cfg.Console.USART)
	require.Equal(t, uint32(57600), cfg.Console.Baud)
	require.Equal(t, "direct", cfg.Console.Output)
	require.Equal(t, ">", cfg.Console.Prompt)
	require.Equal(t, "/dev/ttyUSB1", cfg.Serial.Devices[2])
	require.Equal(t, "debug", cfg.Log.Level)

	Normalize(cfg)
	require.NoError(t, Validate(cfg))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "read config")
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeFile(t, "console: [unterminated"))
	require.ErrorContains(t, err, "parse config")
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := valid()
	require.Equal(t, uint32(DefaultBaud), cfg.Console.Baud)
	require.Equal(t, DefaultOutput, cfg.Console.Output)
	require.Equal(t, DefaultReadTimeoutMs, cfg.Serial.ReadTimeoutMs)
	require.Equal(t, DefaultLogLevel, cfg.Log.Level)
	require.NoError(t, Validate(cfg))
}

func TestNormalize_Nil(t *testing.T) {
	Normalize(nil)
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"baud", func(c *Config) { c.Console.Baud = 12345 }},
		{"output", func(c *Config) { c.Console.Output = "ring" }},
		{"long prompt", func(c *Config) { c.Console.Prompt = ">>" }},
		{"non-ascii prompt", func(c *Config) { c.Console.Prompt = "\xff" }},
		{"empty device", func(c *Config) { c.Serial.Devices = map[uint8]string{1: ""} }},
		{"negative timeout", func(c *Config) { c.Serial.ReadTimeoutMs = -1 }},
		{"log level", func(c *Config) { c.Log.Level = "trace" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			require.Error(t, Validate(cfg))
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	require.Error(t, Validate(nil))
}
