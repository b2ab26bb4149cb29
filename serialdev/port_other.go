//go:build !linux

package serialdev

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/tarm/serial"

	console "github.com/luhtfiimanal/go-serial-console"
)

// Port is a serial port opened through github.com/tarm/serial.
// Close may be called from any goroutine.
type Port struct {
	cfg Config
	log *slog.Logger

	port      *serial.Port
	name      string
	done      chan struct{}
	closeOnce sync.Once

	irq      console.IRQHandler
	loopDone chan struct{}
	errMu    sync.Mutex
	err      error
}

// New returns an unopened port. The device is opened by EarlyInit.
func New(cfg Config) *Port {
	return &Port{
		cfg:      cfg,
		log:      cfg.logger(),
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
}

func defaultDevice(usart uint8) string {
	if runtime.GOOS == "windows" {
		return fmt.Sprintf("COM%d", int(usart)+1)
	}
	return fmt.Sprintf("/dev/ttyS%d", usart)
}

// EarlyInit opens the device bound to u.USART with the line format and baud
// rate from u, and installs u.Putc and u.Getc.
func (p *Port) EarlyInit(u *console.USARTConfig, mapping console.PinMapping) error {
	if p.port != nil {
		return fmt.Errorf("serialdev: usart %d already mapped", u.USART)
	}
	if err := checkFormat(u); err != nil {
		return err
	}
	dev, err := p.cfg.resolve(u.USART, mapping)
	if err != nil {
		return err
	}

	timeout := p.cfg.ReadTimeout
	if timeout == 0 {
		timeout = 100 * time.Millisecond
	}
	sc := &serial.Config{
		Name:        dev,
		Baud:        int(u.BaudRate),
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
		ReadTimeout: timeout,
	}
	if u.Parity&console.ParityEnabled != 0 {
		sc.Parity = serial.ParityEven
	}
	if u.StopBits == console.StopBits2 {
		sc.StopBits = serial.Stop2
	}

	port, err := serial.OpenPort(sc)
	if err != nil {
		return fmt.Errorf("open failed: %w", err)
	}
	p.port = port
	p.name = dev

	u.Putc = p.putc
	u.Getc = p.getc
	p.log.Debug("serial device opened", "device", dev, "usart", u.USART, "baud", u.BaudRate)
	return nil
}

// Init starts the receive loop that feeds u.IRQHandler.
func (p *Port) Init(u *console.USARTConfig) error {
	if p.port == nil {
		return ErrNotMapped
	}
	if u.IRQHandler == nil {
		return ErrNoHandler
	}
	if p.irq != nil {
		return fmt.Errorf("serialdev: usart %d already running", u.USART)
	}
	p.irq = u.IRQHandler
	go p.receiveLoop()
	return nil
}

// receiveLoop reads with a timeout so that Close is noticed between reads.
func (p *Port) receiveLoop() {
	defer close(p.loopDone)
	buf := make([]byte, 256)
	for {
		select {
		case <-p.done:
			return
		default:
		}
		n, err := p.port.Read(buf)
		for _, b := range buf[:n] {
			p.irq(console.StatusRXNE, uint32(b))
		}
		if err != nil && !errors.Is(err, io.EOF) {
			p.fail(fmt.Errorf("read: %w", err))
			return
		}
	}
}

func (p *Port) fail(err error) {
	select {
	case <-p.done:
		return
	default:
	}
	p.errMu.Lock()
	p.err = err
	p.errMu.Unlock()
	p.log.Error("serial receive loop stopped", "device", p.name, "error", err)
}

func (p *Port) putc(b byte) {
	if _, err := p.port.Write([]byte{b}); err != nil {
		p.log.Debug("serial write failed", "error", err)
	}
}

// getc reads one byte, waiting up to the read timeout. It must not be used
// while the receive loop runs.
func (p *Port) getc() byte {
	var b [1]byte
	if n, err := p.port.Read(b[:]); n == 0 || err != nil {
		return 0
	}
	return b[0]
}

// Done is closed when the receive loop has exited.
func (p *Port) Done() <-chan struct{} { return p.loopDone }

// Err returns the error that stopped the receive loop, ErrClosed after
// Close, or nil while it is running.
func (p *Port) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	if p.err != nil {
		return p.err
	}
	select {
	case <-p.done:
		return ErrClosed
	default:
		return nil
	}
}

// Close closes the serial port and stops the receive loop.
// Safe to call multiple times; subsequent calls are no-ops.
func (p *Port) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		if p.irq != nil {
			<-p.loopDone
		}
		if p.port != nil {
			err = p.port.Close()
		}
	})
	return err
}
