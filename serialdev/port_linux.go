//go:build linux

package serialdev

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"

	console "github.com/luhtfiimanal/go-serial-console"
)

// Port is a Linux serial port driven in raw mode.
// Close may be called from any goroutine.
type Port struct {
	cfg Config
	log *slog.Logger

	fd        int
	file      *os.File
	pipeR     int // self-pipe read fd
	pipeW     int // self-pipe write fd
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
		fd:       -1,
		pipeR:    -1,
		pipeW:    -1,
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
}

func defaultDevice(usart uint8) string {
	return fmt.Sprintf("/dev/ttyS%d", usart)
}

// EarlyInit opens the device bound to u.USART, programs the line format and
// baud rate from u, and installs u.Putc and u.Getc.
func (p *Port) EarlyInit(u *console.USARTConfig, mapping console.PinMapping) error {
	if p.file != nil {
		return fmt.Errorf("serialdev: usart %d already mapped", u.USART)
	}
	if err := checkFormat(u); err != nil {
		return err
	}
	dev, err := p.cfg.resolve(u.USART, mapping)
	if err != nil {
		return err
	}

	fd, err := syscall.Open(dev, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0666)
	if err != nil {
		return fmt.Errorf("open failed: %w", err)
	}
	if err := p.configure(fd, u); err != nil {
		syscall.Close(fd)
		return err
	}

	// Turn back into blocking mode now that config is done
	syscall.SetNonblock(fd, false)

	// Create self-pipe for killability
	pipeFds := make([]int, 2)
	if err := unix.Pipe(pipeFds); err != nil {
		syscall.Close(fd)
		return fmt.Errorf("pipe: %w", err)
	}

	p.fd = fd
	p.file = os.NewFile(uintptr(fd), dev)
	p.pipeR, p.pipeW = pipeFds[0], pipeFds[1]

	u.Putc = p.putc
	u.Getc = p.getc
	p.log.Debug("serial device opened", "device", dev, "usart", u.USART, "baud", u.BaudRate)
	return nil
}

func (p *Port) configure(fd int, u *console.USARTConfig) error {
	termios, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return fmt.Errorf("get termios: %w", err)
	}

	// Raw mode
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	termios.Oflag &^= unix.OPOST
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	termios.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CRTSCTS
	termios.Cflag |= unix.CS8 | unix.CLOCAL

	if u.Parity&console.ParityEnabled != 0 {
		termios.Cflag |= unix.PARENB
	}
	if u.StopBits == console.StopBits2 {
		termios.Cflag |= unix.CSTOPB
	}
	if u.HWFlowControl&(console.FlowControlCTS|console.FlowControlRTS) != 0 {
		termios.Cflag |= unix.CRTSCTS
	}
	if u.OptionsCR1&console.CR1RxEnable != 0 {
		termios.Cflag |= unix.CREAD
	} else {
		termios.Cflag &^= unix.CREAD
	}

	// Baud rate
	baud, ok := baudToUnix(u.BaudRate)
	if !ok {
		p.log.Warn("unsupported baud rate, using 115200", "baud", u.BaudRate)
	}
	termios.Cflag &^= unix.CBAUD
	termios.Cflag |= baud
	termios.Ispeed = baud
	termios.Ospeed = baud

	// Set VMIN=1, VTIME=0 for immediate reads
	termios.Cc[unix.VMIN] = 1
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, termios); err != nil {
		return fmt.Errorf("set termios: %w", err)
	}
	return nil
}

// Init starts the receive loop that feeds u.IRQHandler.
func (p *Port) Init(u *console.USARTConfig) error {
	if p.file == nil {
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

// receiveLoop waits for input or the close signal and hands every received
// byte to the IRQ handler.
func (p *Port) receiveLoop() {
	defer close(p.loopDone)
	buf := make([]byte, 256)
	for {
		// Use poll to wait for data or kill signal
		pfd := []unix.PollFd{
			{Fd: int32(p.fd), Events: unix.POLLIN},
			{Fd: int32(p.pipeR), Events: unix.POLLIN},
		}
		_, err := unix.Poll(pfd, -1)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			p.fail(fmt.Errorf("poll: %w", err))
			return
		}
		// Check killability
		select {
		case <-p.done:
			return
		default:
		}
		if pfd[1].Revents&unix.POLLIN != 0 {
			return
		}
		if pfd[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 {
			n, err := p.file.Read(buf)
			if err != nil {
				p.fail(fmt.Errorf("read: %w", err))
				return
			}
			for _, b := range buf[:n] {
				p.irq(console.StatusRXNE, uint32(b))
			}
		}
	}
}

func (p *Port) fail(err error) {
	select {
	case <-p.done:
		// errors caused by Close are not interesting
		return
	default:
	}
	p.errMu.Lock()
	p.err = err
	p.errMu.Unlock()
	p.log.Error("serial receive loop stopped", "device", p.file.Name(), "error", err)
}

func (p *Port) putc(b byte) {
	if _, err := p.file.Write([]byte{b}); err != nil {
		p.log.Debug("serial write failed", "error", err)
	}
}

// getc reads one byte, blocking. It must not be used while the receive
// loop runs.
func (p *Port) getc() byte {
	var b [1]byte
	if _, err := p.file.Read(b[:]); err != nil {
		p.log.Debug("serial read failed", "error", err)
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

// Close closes the serial port and unblocks the receive loop.
// Safe to call multiple times; subsequent calls are no-ops.
func (p *Port) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		// Wake up poll using self-pipe
		if p.pipeW >= 0 {
			unix.Write(p.pipeW, []byte{1})
		}
		if p.irq != nil {
			<-p.loopDone
		}
		if p.file != nil {
			err = p.file.Close()
		}
		if p.pipeR >= 0 {
			unix.Close(p.pipeR)
		}
		if p.pipeW >= 0 {
			unix.Close(p.pipeW)
		}
	})
	return err
}

func baudToUnix(baud uint32) (uint32, bool) {
	switch baud {
	case 9600:
		return unix.B9600, true
	case 19200:
		return unix.B19200, true
	case 38400:
		return unix.B38400, true
	case 57600:
		return unix.B57600, true
	case 115200:
		return unix.B115200, true
	case 230400:
		return unix.B230400, true
	case 460800:
		return unix.B460800, true
	case 921600:
		return unix.B921600, true
	default:
		return unix.B115200, false // fallback
	}
}
