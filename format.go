package console

// sink receives rendered bytes. Implementations decide what happens when
// they run out of room; rendering never fails.
type sink interface {
	putByte(c byte)
	putBytes(p []byte)
}

var newline = []byte("\n\r")

// Format appends the rendering of format and args to dst using the console
// conversion rules and returns the extended slice.
//
// Supported conversions:
//
//	%d       32-bit integer, decimal
//	%ld %lld 64-bit integer, decimal
//	%x       32-bit integer, lowercase hexadecimal prefixed with 0x
//	%c       the low byte of an integer
//	%s       string, []byte, error or String() value up to the first NUL
//	%%       a literal percent sign
//
// Any other conversion, a missing argument or an argument of an unsupported
// type renders '?'. A '\n' in format not already followed by '\r' renders
// as "\n\r".
func Format(dst []byte, format string, args ...any) []byte {
	s := appendSink{buf: dst}
	render(&s, format, args)
	return s.buf
}

type appendSink struct{ buf []byte }

func (s *appendSink) putByte(c byte)    { s.buf = append(s.buf, c) }
func (s *appendSink) putBytes(p []byte) { s.buf = append(s.buf, p...) }

func render(s sink, format string, args []any) {
	next := 0
	arg := func() (any, bool) {
		if next >= len(args) {
			return nil, false
		}
		a := args[next]
		next++
		return a, true
	}

	for i := 0; i < len(format); i++ {
		c := format[i]
		switch {
		case c == '%':
			i++
			if i >= len(format) {
				s.putByte('?')
				return
			}
			switch format[i] {
			case 'd':
				a, _ := arg()
				putDecimal(s, a, 32)
			case 'l':
				switch {
				case i+2 < len(format) && format[i+1] == 'l' && format[i+2] == 'd':
					i += 2
				case i+1 < len(format) && format[i+1] == 'd':
					i++
				default:
					s.putByte('?')
					continue
				}
				a, _ := arg()
				putDecimal(s, a, 64)
			case 'x':
				a, _ := arg()
				putHex(s, a)
			case 'c':
				a, _ := arg()
				putChar(s, a)
			case 's':
				a, _ := arg()
				putString(s, a)
			case '%':
				s.putByte('%')
			default:
				s.putByte('?')
			}
		case c == '\n' && (i+1 >= len(format) || format[i+1] != '\r'):
			s.putBytes(newline)
		default:
			s.putByte(c)
		}
	}
}

// integer returns the magnitude and sign of arg after truncating it to bits.
// Signed types keep their sign; unsigned types render unsigned.
func integer(arg any, bits int) (mag uint64, neg, ok bool) {
	var (
		v      int64
		u      uint64
		signed = true
	)
	switch a := arg.(type) {
	case int:
		v = int64(a)
	case int8:
		v = int64(a)
	case int16:
		v = int64(a)
	case int32:
		v = int64(a)
	case int64:
		v = a
	case uint:
		u, signed = uint64(a), false
	case uint8:
		u, signed = uint64(a), false
	case uint16:
		u, signed = uint64(a), false
	case uint32:
		u, signed = uint64(a), false
	case uint64:
		u, signed = a, false
	case uintptr:
		u, signed = uint64(a), false
	default:
		return 0, false, false
	}

	if !signed {
		if bits == 32 {
			u = uint64(uint32(u))
		}
		return u, false, true
	}
	if bits == 32 {
		v = int64(int32(v))
	}
	if v < 0 {
		return uint64(-v), true, true
	}
	return uint64(v), false, true
}

func putDecimal(s sink, arg any, bits int) {
	mag, neg, ok := integer(arg, bits)
	if !ok {
		s.putByte('?')
		return
	}
	if neg {
		s.putByte('-')
	}
	putDigits(s, mag, 10)
}

func putHex(s sink, arg any) {
	mag, neg, ok := integer(arg, 32)
	if !ok {
		s.putByte('?')
		return
	}
	v := uint32(mag)
	if neg {
		v = -v
	}
	s.putBytes([]byte{'0', 'x'})
	putDigits(s, uint64(v), 16)
}

func putDigits(s sink, v uint64, base uint64) {
	// 20 digits hold the largest uint64 in base 10.
	var buf [20]byte
	i := len(buf)
	for {
		i--
		d := byte(v % base)
		if d < 0xa {
			buf[i] = '0' + d
		} else {
			buf[i] = 'a' + d - 0xa
		}
		v /= base
		if v == 0 {
			break
		}
	}
	s.putBytes(buf[i:])
}

func putChar(s sink, arg any) {
	mag, neg, ok := integer(arg, 32)
	if !ok {
		s.putByte('?')
		return
	}
	v := uint32(mag)
	if neg {
		v = -v
	}
	s.putByte(byte(v))
}

func putString(s sink, arg any) {
	var str string
	switch a := arg.(type) {
	case string:
		str = a
	case []byte:
		str = string(a)
	case error:
		str = a.Error()
	case interface{ String() string }:
		str = a.String()
	default:
		s.putByte('?')
		return
	}
	for i := 0; i < len(str); i++ {
		if str[i] == 0 {
			str = str[:i]
			break
		}
	}
	s.putBytes([]byte(str))
}
