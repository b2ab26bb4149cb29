package console

// OutputPolicy selects how Log output reaches the transmit primitive.
type OutputPolicy uint8

const (
	// OutputBuffered accumulates output in a RingSize ring drained by Flush.
	// The oldest bytes are overwritten when the ring is full.
	OutputBuffered OutputPolicy = iota
	// OutputDirect renders each Log call into a ScratchSize scratch area and
	// transmits it synchronously. Flush is a no-op.
	OutputDirect
)

func (p OutputPolicy) String() string {
	switch p {
	case OutputBuffered:
		return "buffered"
	case OutputDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// ScratchSize is the number of bytes a single Log call may produce under
// OutputDirect. Anything beyond it is dropped.
const ScratchSize = 127

// output is the Output Channel. Formatted bytes go in through the sink
// methods; logged runs at the end of every Log call and flush on Flush.
// tx pushes bytes to the transmit primitive.
type output interface {
	sink
	reset()
	logged(tx func([]byte))
	flush(tx func([]byte))
}

func newOutput(p OutputPolicy) output {
	if p == OutputDirect {
		return &directOutput{}
	}
	return &bufferedOutput{}
}

type bufferedOutput struct {
	ring
}

func (o *bufferedOutput) logged(func([]byte)) {}

func (o *bufferedOutput) flush(tx func([]byte)) { o.drain(tx) }

type directOutput struct {
	n       int
	scratch [ScratchSize]byte
}

func (o *directOutput) reset() { o.n = 0 }

func (o *directOutput) putByte(c byte) {
	if o.n < len(o.scratch) {
		o.scratch[o.n] = c
		o.n++
	}
}

func (o *directOutput) putBytes(p []byte) {
	o.n += copy(o.scratch[o.n:], p)
}

func (o *directOutput) logged(tx func([]byte)) {
	n := o.n
	o.n = 0
	tx(o.scratch[:n])
}

func (o *directOutput) flush(func([]byte)) {}
