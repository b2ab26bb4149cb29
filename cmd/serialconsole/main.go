// cmd/serialconsole/main.go
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	console "github.com/luhtfiimanal/go-serial-console"
	"github.com/luhtfiimanal/go-serial-console/internal/config"
)

type options struct {
	configPath string
	device     string
	usart      uint8
	baud       uint32
	output     string
	prompt     string
	verbose    bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&options{})
}

func newRootCmdWith(o *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "serialconsole",
		Short:         "Line-oriented console over a serial port",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "YAML configuration file")
	pf.Uint8Var(&o.usart, "usart", 0, "USART id to bind")
	pf.Uint32Var(&o.baud, "baud", config.DefaultBaud, "line speed")
	pf.StringVar(&o.output, "output", config.DefaultOutput, "output policy: buffered or direct")
	pf.StringVar(&o.prompt, "prompt", "", "prompt character, empty for none")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newRunCmd(o), newLocalCmd(o))
	return root
}

// load reads the configuration file if one was given and lets explicitly
// set flags override it.
func (o *options) load(cmd *cobra.Command) (*config.Config, error) {
	cfg := &config.Config{}
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("usart") {
		cfg.Console.USART = o.usart
	}
	if flags.Changed("baud") || cfg.Console.Baud == 0 {
		cfg.Console.Baud = o.baud
	}
	if flags.Changed("output") || cfg.Console.Output == "" {
		cfg.Console.Output = o.output
	}
	if flags.Changed("prompt") {
		cfg.Console.Prompt = o.prompt
	}
	if flags.Changed("device") {
		cfg.Serial.Device = o.device
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}

	config.Normalize(cfg)
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// idlePoll is how long ReadLine sleeps between polls while no command is
// ready.
const idlePoll = time.Millisecond

func idle() { time.Sleep(idlePoll) }

func consoleConfig(cfg *config.Config, logger *slog.Logger) console.Config {
	cc := console.Config{Logger: logger, Yield: idle}
	if cfg.Console.Output == "direct" {
		cc.Output = console.OutputDirect
	}
	if cfg.Console.Prompt != "" {
		cc.Prompt = cfg.Console.Prompt[0]
	}
	return cc
}

func readTimeout(cfg *config.Config) time.Duration {
	return time.Duration(cfg.Serial.ReadTimeoutMs) * time.Millisecond
}
