// internal/config/validate.go
package config

import (
	"fmt"
)

var supportedBauds = map[uint32]bool{
	9600:   true,
	19200:  true,
	38400:  true,
	57600:  true,
	115200: true,
	230400: true,
	460800: true,
	921600: true,
}

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ------------------------------------------------------------
	// CONSOLE
	// ------------------------------------------------------------

	if !supportedBauds[cfg.Console.Baud] {
		return fmt.Errorf("console: unsupported baud %d", cfg.Console.Baud)
	}

	switch cfg.Console.Output {
	case "buffered", "direct":
	default:
		return fmt.Errorf("console: output must be \"buffered\" or \"direct\", got %q", cfg.Console.Output)
	}

	if len(cfg.Console.Prompt) > 1 {
		return fmt.Errorf("console: prompt must be a single character, got %q", cfg.Console.Prompt)
	}
	if len(cfg.Console.Prompt) == 1 && cfg.Console.Prompt[0] > 0x7F {
		return fmt.Errorf("console: prompt must be ASCII")
	}

	// ------------------------------------------------------------
	// SERIAL
	// ------------------------------------------------------------

	for id, dev := range cfg.Serial.Devices {
		if dev == "" {
			return fmt.Errorf("serial: empty device path for usart %d", id)
		}
	}

	if cfg.Serial.ReadTimeoutMs < 0 {
		return fmt.Errorf("serial: read_timeout_ms must not be negative")
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log: unknown level %q", cfg.Log.Level)
	}

	return nil
}
