package console

const (
	backspace = 0x08
	del       = 0x7f
)

var (
	eraseEcho = []byte{backspace, ' ', backspace}
	crlfEcho  = []byte{'\r', '\n'}
)

// HandleIRQ is the built-in line editor. The driver calls it from its
// receive interrupt with the status and data registers.
//
// Bytes arriving while a completed command waits for ReadLine are dropped
// without echo. Printable bytes beyond CommandSize are echoed but not stored.
func (c *Console) HandleIRQ(sr, dr uint32) {
	if sr&StatusRXNE == 0 {
		return
	}
	if c.ready.Load() {
		return
	}

	b := byte(dr)
	switch b {
	case backspace, del:
		if c.length > 0 {
			c.echo(eraseEcho)
			c.length--
			c.command[c.length] = 0
		}
	case '\r':
		c.echo(crlfEcho)
		c.ready.Store(true)
	default:
		if c.length < CommandSize {
			c.command[c.length] = b
			c.length++
		}
		c.echo([]byte{b})
	}
}

// echo writes straight to the transmit primitive. The ring belongs to the
// task context, so the interrupt path never goes through it.
func (c *Console) echo(p []byte) {
	putc := c.usart.Putc
	if putc == nil {
		return
	}
	for _, b := range p {
		putc(b)
	}
}
