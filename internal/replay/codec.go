package replay

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// Hash is a sha256 checksum.
type Hash [sha256.Size]byte

func hashOf(b []byte) Hash { return sha256.Sum256(b) }

// encoder writes little endian values. Strings are prefixed with their
// length as a 7 bit encoded integer.
type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) u8(v uint8) { e.buf.WriteByte(v) }

func (e *encoder) boolean(v bool) {
	if v {
		e.u8(1)
	} else {
		e.u8(0)
	}
}

func (e *encoder) i32(v int32) { e.u32(uint32(v)) }

func (e *encoder) u32(v uint32) {
	e.buf.Write(binary.LittleEndian.AppendUint32(nil, v))
}

func (e *encoder) i64(v int64) {
	e.buf.Write(binary.LittleEndian.AppendUint64(nil, uint64(v)))
}

func (e *encoder) f32(v float32) { e.u32(math.Float32bits(v)) }

func (e *encoder) f64(v float64) {
	e.buf.Write(binary.LittleEndian.AppendUint64(nil, math.Float64bits(v)))
}

func (e *encoder) str(s string) {
	e.buf.Write(binary.AppendUvarint(nil, uint64(len(s))))
	e.buf.WriteString(s)
}

func (e *encoder) bytes(b []byte) {
	e.i32(int32(len(b)))
	e.buf.Write(b)
}

func (e *encoder) hash(h Hash) { e.buf.Write(h[:]) }

// decoder reads what encoder writes. The first failure sticks and every
// later read returns a zero value.
type decoder struct {
	r   *bytes.Reader
	err error
}

func newDecoder(b []byte) *decoder { return &decoder{r: bytes.NewReader(b)} }

func (d *decoder) read(n int) []byte {
	if nil != d.err {
		return make([]byte, n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); nil != err {
		d.err = errors.Wrapf(ErrCorrupted, "unexpected end of data reading %d bytes", n)
	}
	return b
}

func (d *decoder) u8() uint8 { return d.read(1)[0] }

func (d *decoder) boolean() bool { return d.u8() != 0 }

func (d *decoder) i32() int32 { return int32(d.u32()) }

func (d *decoder) u32() uint32 { return binary.LittleEndian.Uint32(d.read(4)) }

func (d *decoder) i64() int64 { return int64(binary.LittleEndian.Uint64(d.read(8))) }

func (d *decoder) f32() float32 { return math.Float32frombits(d.u32()) }

func (d *decoder) f64() float64 { return math.Float64frombits(binary.LittleEndian.Uint64(d.read(8))) }

func (d *decoder) length(n uint64) int {
	if n > uint64(d.r.Len()) {
		if nil == d.err {
			d.err = errors.Wrapf(ErrCorrupted, "length %d exceeds the remaining %d bytes", n, d.r.Len())
		}
		return 0
	}
	return int(n)
}

func (d *decoder) str() string {
	if nil != d.err {
		return ""
	}
	n, err := binary.ReadUvarint(d.r)
	if nil != err {
		d.err = errors.Wrap(ErrCorrupted, "bad string length")
		return ""
	}
	return string(d.read(d.length(n)))
}

func (d *decoder) bytes() []byte {
	n := d.i32()
	if n < 0 {
		if nil == d.err {
			d.err = errors.Wrapf(ErrCorrupted, "negative length %d", n)
		}
		return nil
	}
	return d.read(d.length(uint64(n)))
}

func (d *decoder) hash() Hash {
	var h Hash
	copy(h[:], d.read(len(h)))
	return h
}

// count reads a non negative element count. Every element takes at least a
// byte, which bounds the count by the data left.
func (d *decoder) count() int {
	n := d.i32()
	if n < 0 {
		if nil == d.err {
			d.err = errors.Wrapf(ErrCorrupted, "negative count %d", n)
		}
		return 0
	}
	return d.length(uint64(n))
}
