// cmd/serialconsole/run.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	console "github.com/luhtfiimanal/go-serial-console"
	"github.com/luhtfiimanal/go-serial-console/serialdev"
)

func newRunCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Serve the console on a serial device",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Log.Level)

			port := serialdev.New(serialdev.Config{
				Device:      cfg.Serial.Device,
				Devices:     cfg.Serial.Devices,
				ReadTimeout: readTimeout(cfg),
				Logger:      logger,
			})
			defer port.Close()

			c := console.New(port, consoleConfig(cfg, logger))
			if err := c.EarlyInit(cfg.Console.USART, cfg.Console.Baud, nil); err != nil {
				return err
			}
			if err := c.Init(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ctx, cancel := context.WithCancel(ctx)
			defer cancel()
			go func() {
				select {
				case <-port.Done():
					cancel()
				case <-ctx.Done():
				}
			}()

			fmt.Fprintf(os.Stderr, "%s usart %d at %d baud, %s output\n",
				color.GreenString("serving"), cfg.Console.USART, cfg.Console.Baud, cfg.Console.Output)

			if err := serve(ctx, c, os.Stderr); err != nil {
				return err
			}
			select {
			case <-port.Done():
				return port.Err()
			default:
				return nil
			}
		},
	}
	cmd.Flags().StringVarP(&o.device, "device", "d", "", "serial device path (default: derived from --usart)")
	return cmd
}
