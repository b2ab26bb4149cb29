// cmd/serialconsole/local.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	console "github.com/luhtfiimanal/go-serial-console"
)

// ctrlC arrives as a plain byte once the terminal is in raw mode.
const ctrlC = 0x03

func newLocalCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "local",
		Short: "Serve the console on this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.load(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Log.Level)

			fd := int(os.Stdin.Fd())
			if term.IsTerminal(fd) {
				oldState, err := term.MakeRaw(fd)
				if err != nil {
					return fmt.Errorf("raw mode: %w", err)
				}
				defer term.Restore(fd, oldState)
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			drv := newTermDriver(os.Stdin, os.Stdout, cancel)
			c := console.New(drv, consoleConfig(cfg, logger))
			if err := c.EarlyInit(cfg.Console.USART, cfg.Console.Baud, nil); err != nil {
				return err
			}
			if err := c.Init(); err != nil {
				return err
			}

			c.Log("%s\n", color.YellowString("local console, ctrl-c to quit"))
			if err := serve(ctx, c, io.Discard); err != nil {
				return err
			}
			return drv.Err()
		},
	}
}

// termDriver binds the console to a reader/writer pair, typically the
// controlling terminal. A reader goroutine stands in for the receive
// interrupt.
type termDriver struct {
	in     io.Reader
	out    io.Writer
	cancel func()

	wmu sync.Mutex
	irq console.IRQHandler

	mu  sync.Mutex
	err error
}

func newTermDriver(in io.Reader, out io.Writer, cancel func()) *termDriver {
	return &termDriver{in: in, out: out, cancel: cancel}
}

func (d *termDriver) EarlyInit(cfg *console.USARTConfig, _ console.PinMapping) error {
	if d.in == nil || d.out == nil {
		return errors.New("terminal not available")
	}
	cfg.Putc = d.putc
	cfg.Getc = d.getc
	return nil
}

func (d *termDriver) Init(cfg *console.USARTConfig) error {
	if cfg.IRQHandler == nil {
		return errors.New("no irq handler")
	}
	d.irq = cfg.IRQHandler
	go d.receive()
	return nil
}

func (d *termDriver) receive() {
	buf := make([]byte, 64)
	for {
		n, err := d.in.Read(buf)
		for _, b := range buf[:n] {
			if b == ctrlC {
				d.cancel()
				return
			}
			d.irq(console.StatusRXNE, uint32(b))
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				d.mu.Lock()
				d.err = err
				d.mu.Unlock()
			}
			d.cancel()
			return
		}
	}
}

// Err returns the read error that ended the session, if any.
func (d *termDriver) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *termDriver) putc(b byte) {
	d.wmu.Lock()
	defer d.wmu.Unlock()
	d.out.Write([]byte{b})
}

func (d *termDriver) getc() byte {
	var b [1]byte
	if _, err := io.ReadFull(d.in, b[:]); err != nil {
		return 0
	}
	return b[0]
}
