// internal/config/normalize.go
package config

const (
	DefaultBaud          = 115200
	DefaultOutput        = "buffered"
	DefaultLogLevel      = "info"
	DefaultReadTimeoutMs = 100
)

// Normalize fills in defaults for fields left empty.
// It is allowed to mutate configuration and must run before Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Console.Baud == 0 {
		cfg.Console.Baud = DefaultBaud
	}
	if cfg.Console.Output == "" {
		cfg.Console.Output = DefaultOutput
	}
	if cfg.Serial.ReadTimeoutMs == 0 {
		cfg.Serial.ReadTimeoutMs = DefaultReadTimeoutMs
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
}
