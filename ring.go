package console

// RingSize is the number of slots in the output ring. One slot always stays
// empty, so the ring holds at most RingSize-1 bytes.
const RingSize = 512

// ring is the buffered output store. When full, writes drop the oldest byte.
// It is only touched from task context.
type ring struct {
	start int // oldest unread byte
	end   int // next write offset
	buf   [RingSize]byte
}

func (r *ring) reset() {
	r.start, r.end = 0, 0
	clear(r.buf[:])
}

func (r *ring) used() int {
	return (r.end - r.start + RingSize) % RingSize
}

func (r *ring) free() int {
	return RingSize - 1 - r.used()
}

func (r *ring) putByte(c byte) {
	r.buf[r.end] = c
	r.end = (r.end + 1) % RingSize
	if r.end == r.start {
		r.start = (r.start + 1) % RingSize
	}
}

// putBytes copies p in at most two contiguous segments per lap: up to the
// end of the backing array, then from its start.
func (r *ring) putBytes(p []byte) {
	for len(p) > 0 {
		n := min(len(p), RingSize-r.end)
		free := r.free()
		copy(r.buf[r.end:], p[:n])
		r.end = (r.end + n) % RingSize
		if n > free {
			// overtook the reader: the ring is now full
			r.start = (r.end + 1) % RingSize
		}
		p = p[n:]
	}
}

// drain hands every pending byte, oldest first, to tx in at most two
// segments and empties the ring. tx is called even when the ring is empty.
func (r *ring) drain(tx func([]byte)) {
	start, end := r.start, r.end
	r.start = r.end
	if end >= start {
		tx(r.buf[start:end])
		return
	}
	tx(r.buf[start:])
	tx(r.buf[:end])
}
