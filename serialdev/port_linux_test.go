//go:build linux

package serialdev

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/creack/pty"
	"github.com/stretchr/testify/require"

	console "github.com/luhtfiimanal/go-serial-console"
)

// wire collects everything the console transmits on the master side.
type wire struct {
	ch  chan byte
	buf strings.Builder
}

func readWire(master *os.File) *wire {
	w := &wire{ch: make(chan byte, 1024)}
	go func() {
		buf := make([]byte, 128)
		for {
			n, err := master.Read(buf)
			for _, b := range buf[:n] {
				w.ch <- b
			}
			if err != nil {
				close(w.ch)
				return
			}
		}
	}()
	return w
}

// expect waits until want has been received after everything read so far.
func (w *wire) expect(t *testing.T, want string) {
	t.Helper()
	deadline := time.After(500 * time.Millisecond)
	for !strings.HasSuffix(w.buf.String(), want) {
		select {
		case b, ok := <-w.ch:
			require.True(t, ok, "wire closed, got %q", w.buf.String())
			w.buf.WriteByte(b)
		case <-deadline:
			t.Fatalf("timeout waiting for %q, got %q", want, w.buf.String())
		}
	}
}

func openConsole(t *testing.T, policy console.OutputPolicy) (*os.File, *Port, *console.Console) {
	t.Helper()
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	port := New(Config{Device: slave.Name()})
	t.Cleanup(func() { port.Close() })

	c := console.New(port, console.Config{Output: policy})
	require.NoError(t, c.EarlyInit(2, 115200, nil))
	require.NoError(t, c.Init())
	require.True(t, c.Initialized())
	require.Equal(t, uint8(2), c.USART())
	return master, port, c
}

func TestPort_ReadLineOverPTY(t *testing.T) {
	master, _, c := openConsole(t, console.OutputBuffered)
	w := readWire(master)

	_, err := master.Write([]byte("ping\r"))
	require.NoError(t, err)

	buf := make([]byte, console.CommandSize)
	n, err := c.ReadLine(buf)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf[:n]))

	w.expect(t, "ping\r\n")
}

func TestPort_LogReachesMaster(t *testing.T) {
	master, _, c := openConsole(t, console.OutputBuffered)
	w := readWire(master)

	c.Log("pong %d\n", 7)
	c.Flush()

	w.expect(t, "pong 7\n\r")
}

func TestPort_DirectOutput(t *testing.T) {
	master, _, c := openConsole(t, console.OutputDirect)
	w := readWire(master)

	c.Log("id=%x", 0xbeef)

	w.expect(t, "id=0xbeef")
}

func TestPort_BackspaceEcho(t *testing.T) {
	master, _, c := openConsole(t, console.OutputBuffered)
	w := readWire(master)

	_, err := master.Write([]byte("ab\x7fc\r"))
	require.NoError(t, err)

	buf := make([]byte, 8)
	n, err := c.ReadLine(buf)
	require.NoError(t, err)
	require.Equal(t, "ac", string(buf[:n]))

	w.expect(t, "ab\b \bc\r\n")
}

func TestPort_CloseStopsReceiveLoop(t *testing.T) {
	_, port, _ := openConsole(t, console.OutputBuffered)

	require.NoError(t, port.Err())
	require.NoError(t, port.Close())

	select {
	case <-port.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for receive loop to exit after Close")
	}
	require.ErrorIs(t, port.Err(), ErrClosed)

	// Should be a no-op due to closeOnce
	require.NoError(t, port.Close())
}

func TestPort_ErrorPropagation(t *testing.T) {
	master, port, _ := openConsole(t, console.OutputBuffered)

	// Simulate device disconnect by closing master
	require.NoError(t, master.Close())

	select {
	case <-port.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for receive loop to exit after disconnect")
	}
	require.Error(t, port.Err())
	require.NotErrorIs(t, port.Err(), ErrClosed)
}

func TestPort_EarlyInitMissingDevice(t *testing.T) {
	port := New(Config{Device: "/dev/does-not-exist-serialdev"})
	c := console.New(port, console.Config{})

	err := c.EarlyInit(0, 115200, nil)
	require.ErrorIs(t, err, console.ErrInit)
	require.ErrorContains(t, err, "open failed")
}

func TestPort_InitRequiresEarlyInit(t *testing.T) {
	port := New(Config{})
	err := port.Init(&console.USARTConfig{IRQHandler: func(uint32, uint32) {}})
	require.ErrorIs(t, err, ErrNotMapped)
}

func TestPort_CustomHandler(t *testing.T) {
	master, slave, err := pty.Open()
	require.NoError(t, err)
	t.Cleanup(func() { master.Close(); slave.Close() })

	port := New(Config{Devices: map[uint8]string{3: slave.Name()}})
	t.Cleanup(func() { port.Close() })

	got := make(chan [2]uint32, 4)
	c := console.New(port, console.Config{})
	require.NoError(t, c.EarlyInit(3, 9600, func(sr, dr uint32) {
		got <- [2]uint32{sr, dr}
	}))
	require.NoError(t, c.Init())

	_, err = master.Write([]byte("x"))
	require.NoError(t, err)

	select {
	case ev := <-got:
		require.Equal(t, console.StatusRXNE, ev[0]&console.StatusRXNE)
		require.Equal(t, uint32('x'), ev[1])
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timeout waiting for custom handler")
	}
}

func TestConfig_Resolve(t *testing.T) {
	cfg := Config{Devices: map[uint8]string{1: "/dev/ttyUSB0"}}

	dev, err := cfg.resolve(1, console.MapCustom)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyUSB0", dev)

	dev, err = cfg.resolve(4, console.MapAuto)
	require.NoError(t, err)
	require.Equal(t, "/dev/ttyS4", dev)

	_, err = cfg.resolve(4, console.MapCustom)
	require.Error(t, err)
}
