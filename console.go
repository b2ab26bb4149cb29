package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync/atomic"
)

// CommandSize is the capacity of the command line buffer.
const CommandSize = 128

// Config holds the console options. The zero value selects buffered output,
// no prompt, runtime.Gosched as the yield primitive and a panicking halt.
type Config struct {
	Output OutputPolicy
	// Prompt is printed, followed by a space, before each ReadLine.
	// Zero disables the prompt.
	Prompt byte
	// Yield relinquishes the calling task while ReadLine polls. Programs
	// running under an OS should pass a short sleep.
	Yield func()
	// Halt reports an unrecoverable error and must not return.
	Halt   func(err error)
	Logger *slog.Logger
}

// Console is a serial-line console bound to one USART.
//
// Log, Flush, ShowPrompt and ReadLine belong to the task context and must
// not be called concurrently. HandleIRQ belongs to the interrupt context and
// may run concurrently with them.
type Console struct {
	driver Driver
	usart  USARTConfig
	out    output
	yield  func()
	halt   func(error)
	log    *slog.Logger

	promptChar byte
	hasPrompt  bool

	mapped      bool
	initialized atomic.Bool
	usartID     uint8

	// ready is set by the line editor on carriage return and cleared by the
	// line reader after it copied the command out. The editor leaves length
	// and command alone while ready is set.
	ready   atomic.Bool
	length  int
	command [CommandSize]byte
}

// New returns a console bound to driver. EarlyInit and Init must succeed
// before output can be transmitted.
func New(driver Driver, cfg Config) *Console {
	c := &Console{
		driver:     driver,
		out:        newOutput(cfg.Output),
		yield:      cfg.Yield,
		halt:       cfg.Halt,
		log:        cfg.Logger,
		promptChar: cfg.Prompt,
		hasPrompt:  cfg.Prompt != 0,
	}
	if c.log == nil {
		c.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.yield == nil {
		c.yield = runtime.Gosched
	}
	if c.halt == nil {
		c.halt = func(err error) {
			c.log.Error("console halted", "error", err)
			panic(err)
		}
	}
	return c
}

// EarlyInit configures the USART for 8N1 without flow control, installs
// handler (or the built-in line editor when handler is nil) and runs the
// driver's early initialization with automatic pin mapping. A console is
// mapped at most once; console state is left untouched when the driver fails.
func (c *Console) EarlyInit(usart uint8, speed uint32, handler IRQHandler) error {
	if c.driver == nil {
		return fmt.Errorf("%w: no driver", ErrInit)
	}
	if c.mapped {
		return fmt.Errorf("%w: usart %d already mapped", ErrInit, c.usart.USART)
	}

	u := USARTConfig{
		SetMask:       SetAll,
		USART:         usart,
		Mode:          ModeUART,
		BaudRate:      speed,
		WordLength:    WordLength8,
		StopBits:      StopBits1,
		Parity:        ParityDisabled,
		HWFlowControl: FlowControlDisabled,
		OptionsCR1:    CR1TxEnable | CR1RxEnable | CR1Enable | CR1RxIRQEnable,
		IRQHandler:    handler,
	}
	if handler == nil {
		u.IRQHandler = c.HandleIRQ
	}

	if err := c.driver.EarlyInit(&u, MapAuto); err != nil {
		c.log.Error("usart early init failed", "usart", usart, "error", err)
		return fmt.Errorf("%w: early init usart %d: %w", ErrInit, usart, err)
	}

	c.out.reset()
	c.resetCommand()
	c.usart = u
	c.mapped = true
	c.log.Debug("usart mapped", "usart", usart, "baud", speed)
	return nil
}

// Init completes device bring-up. EarlyInit must have succeeded first.
func (c *Console) Init() error {
	if !c.mapped {
		return fmt.Errorf("%w: usart %d not mapped", ErrInit, c.usart.USART)
	}
	if err := c.driver.Init(&c.usart); err != nil {
		c.log.Error("usart init failed", "usart", c.usart.USART, "error", err)
		return fmt.Errorf("%w: init usart %d: %w", ErrInit, c.usart.USART, err)
	}
	c.usartID = c.usart.USART
	c.initialized.Store(true)
	c.log.Info("console ready", "usart", c.usartID, "output", c.outputPolicy())
	return nil
}

// Initialized reports whether Init succeeded.
func (c *Console) Initialized() bool { return c.initialized.Load() }

// USART returns the id of the bound USART once Init succeeded.
func (c *Console) USART() uint8 { return c.usartID }

func (c *Console) outputPolicy() OutputPolicy {
	if _, ok := c.out.(*directOutput); ok {
		return OutputDirect
	}
	return OutputBuffered
}

// Log formats and queues output. It never blocks on the line under
// OutputBuffered; call Flush to transmit.
func (c *Console) Log(format string, args ...any) {
	render(c.out, format, args)
	c.out.logged(c.transmit)
}

// Flush transmits buffered output. Flushing before the driver installed its
// transmit primitive halts the console.
func (c *Console) Flush() {
	c.out.flush(c.transmit)
}

// ShowPrompt prints the prompt character and a space when a prompt is
// configured.
func (c *Console) ShowPrompt() {
	if !c.hasPrompt {
		return
	}
	c.Log("%c ", c.promptChar)
	c.Flush()
}

// Panicf prints the message, flushes it and halts. It does not return.
func (c *Console) Panicf(format string, args ...any) {
	c.Log(format, args...)
	c.Flush()
	c.fatal(errors.New(string(Format(nil, format, args...))))
}

func (c *Console) fatal(err error) {
	c.halt(err)
	select {}
}

func (c *Console) transmit(p []byte) {
	putc := c.usart.Putc
	if putc == nil {
		c.fatal(ErrNoTransmitter)
	}
	for _, b := range p {
		putc(b)
	}
}

// ReadLine blocks until the line editor completed a command and copies it
// into dst. See ReadLineContext.
func (c *Console) ReadLine(dst []byte) (int, error) {
	return c.ReadLineContext(context.Background(), dst)
}

// ReadLineContext shows the prompt, then yields until a command is
// available or ctx is done. The command is copied into dst and the console
// is reset for the next one. If the command was longer than dst, the
// truncated prefix is copied and ErrStorageInsufficient is returned.
func (c *Console) ReadLineContext(ctx context.Context, dst []byte) (int, error) {
	if ctx == nil || dst == nil {
		return 0, ErrInvalidArgument
	}
	c.ShowPrompt()
	for {
		if n, ok, err := c.TryReadLine(dst); ok {
			return n, err
		}
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		c.yield()
	}
}

// TryReadLine takes the completed command if there is one. ok is false
// when no command is ready; nothing is copied or reset in that case.
func (c *Console) TryReadLine(dst []byte) (n int, ok bool, err error) {
	if dst == nil {
		return 0, false, ErrInvalidArgument
	}
	if !c.ready.Load() {
		return 0, false, nil
	}
	n = copy(dst, c.command[:c.length])
	if c.length > len(dst) {
		err = fmt.Errorf("%w: command is %d bytes, buffer %d", ErrStorageInsufficient, c.length, len(dst))
	}
	c.resetCommand()
	return n, true, err
}

func (c *Console) resetCommand() {
	clear(c.command[:])
	c.length = 0
	c.ready.Store(false)
}
