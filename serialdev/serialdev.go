// Package serialdev binds a console.Console to a host serial port.
//
// Port implements console.Driver. EarlyInit opens and configures the
// device from the console's USART configuration and installs the transmit
// and receive primitives; Init starts a receive loop that plays the part of
// the receive interrupt, calling the installed IRQ handler once per byte
// with console.StatusRXNE set.
//
// On Linux the port is driven through raw termios and poll(2), with a
// self-pipe so that Close unblocks the receive loop immediately. Other
// platforms use github.com/tarm/serial.
package serialdev

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	console "github.com/luhtfiimanal/go-serial-console"
)

var (
	// ErrNotMapped is returned by Init when EarlyInit did not succeed.
	ErrNotMapped = errors.New("serialdev: device not mapped")
	// ErrNoHandler is returned by Init when no IRQ handler is installed.
	ErrNoHandler = errors.New("serialdev: no irq handler")
	// ErrClosed is reported by Err once the port has been closed.
	ErrClosed = errors.New("serialdev: port closed")
)

// Config holds the host side of the binding.
type Config struct {
	// Device overrides the device path for every USART id.
	Device string
	// Devices maps USART ids to device paths under console.MapAuto.
	Devices map[uint8]string
	// ReadTimeout bounds a single read on platforms without poll(2).
	// Zero selects 100ms.
	ReadTimeout time.Duration
	Logger      *slog.Logger
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

// resolve picks the device path bound to usart.
func (c Config) resolve(usart uint8, mapping console.PinMapping) (string, error) {
	if c.Device != "" {
		return c.Device, nil
	}
	if dev, ok := c.Devices[usart]; ok {
		return dev, nil
	}
	if mapping != console.MapAuto {
		return "", fmt.Errorf("serialdev: no device for usart %d", usart)
	}
	return defaultDevice(usart), nil
}

// checkFormat rejects frame formats a host serial port cannot produce.
func checkFormat(u *console.USARTConfig) error {
	if u.Mode != console.ModeUART {
		return fmt.Errorf("serialdev: unsupported mode %d", u.Mode)
	}
	if u.WordLength != console.WordLength8 {
		return fmt.Errorf("serialdev: unsupported word length %#x", u.WordLength)
	}
	return nil
}
