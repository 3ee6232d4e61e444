package postcard

import (
	"fmt"
	"math"
)

// Reader consumes a postcard-encoded byte stream.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps b for sequential decoding. b is not copied; the caller
// must not mutate it while the Reader is in use.
func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Remaining reports how many bytes are left unconsumed.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

// Done reports whether the stream has been fully consumed.
func (r *Reader) Done() bool {
	return r.pos >= len(r.buf)
}

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return fmt.Errorf("postcard: need %d bytes, have %d", n, r.Remaining())
	}
	return nil
}

// U8 reads a single raw byte.
func (r *Reader) U8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

// Bool reads a single byte as a bool (any nonzero value is true).
func (r *Reader) Bool() (bool, error) {
	v, err := r.U8()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// Uvarint reads an unsigned LEB128 varint.
func (r *Reader) Uvarint() (uint64, error) {
	var result uint64
	var shift uint
	for {
		if shift >= 70 {
			return 0, fmt.Errorf("postcard: varint overflow")
		}
		b, err := r.U8()
		if err != nil {
			return 0, fmt.Errorf("postcard: truncated varint: %w", err)
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

// Varint reads a zigzag+LEB128 signed 64-bit varint.
func (r *Reader) Varint() (int64, error) {
	u, err := r.Uvarint()
	if err != nil {
		return 0, err
	}
	return zigzagDecode64(u), nil
}

// Varint32 reads a zigzag+LEB128 signed 32-bit varint (used for the Genre
// selection state and similar i32-ranged fields).
func (r *Reader) Varint32() (int32, error) {
	u, err := r.Uvarint()
	if err != nil {
		return 0, err
	}
	return zigzagDecode32(uint32(u)), nil
}

// F32 reads an IEEE-754 little-endian 32-bit float.
func (r *Reader) F32() (float32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	bits := uint32(r.buf[r.pos]) | uint32(r.buf[r.pos+1])<<8 | uint32(r.buf[r.pos+2])<<16 | uint32(r.buf[r.pos+3])<<24
	r.pos += 4
	return math.Float32frombits(bits), nil
}

// F64 reads an IEEE-754 little-endian 64-bit float.
func (r *Reader) F64() (float64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	var bits uint64
	for i := 0; i < 8; i++ {
		bits |= uint64(r.buf[r.pos+i]) << (8 * i)
	}
	r.pos += 8
	return math.Float64frombits(bits), nil
}

// String reads a (varint length, utf-8 bytes) string.
func (r *Reader) String() (string, error) {
	n, err := r.Uvarint()
	if err != nil {
		return "", err
	}
	if err := r.need(int(n)); err != nil {
		return "", fmt.Errorf("postcard: truncated string: %w", err)
	}
	s := string(r.buf[r.pos : r.pos+int(n)])
	r.pos += int(n)
	return s, nil
}

// ByteSlice reads a (varint length, raw bytes) byte vec.
func (r *Reader) ByteSlice() ([]byte, error) {
	n, err := r.Uvarint()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, fmt.Errorf("postcard: truncated byte slice: %w", err)
	}
	b := make([]byte, n)
	copy(b, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return b, nil
}

// VecLen reads the element count prefix for a vec.
func (r *Reader) VecLen() (int, error) {
	n, err := r.Uvarint()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// OptionTag reads an option<T> tag byte: false means None (and nothing else
// to read), true means Some (caller reads the inner value next).
func (r *Reader) OptionTag() (bool, error) {
	tag, err := r.U8()
	if err != nil {
		return false, err
	}
	if tag != 0 && tag != 1 {
		return false, fmt.Errorf("postcard: invalid option tag %d", tag)
	}
	return tag == 1, nil
}

// OptionString reads option<string>.
func (r *Reader) OptionString() (*string, error) {
	some, err := r.OptionTag()
	if err != nil || !some {
		return nil, err
	}
	s, err := r.String()
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// OptionStringSlice reads option<vec<string>>.
func (r *Reader) OptionStringSlice() ([]string, error) {
	some, err := r.OptionTag()
	if err != nil || !some {
		return nil, err
	}
	return r.StringSlice()
}

// StringSlice reads vec<string>.
func (r *Reader) StringSlice() ([]string, error) {
	n, err := r.VecLen()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		s, err := r.String()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// OptionI64 reads option<i64>.
func (r *Reader) OptionI64() (*int64, error) {
	some, err := r.OptionTag()
	if err != nil || !some {
		return nil, err
	}
	v, err := r.Varint()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// OptionF32 reads option<f32>.
func (r *Reader) OptionF32() (*float32, error) {
	some, err := r.OptionTag()
	if err != nil || !some {
		return nil, err
	}
	v, err := r.F32()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// StringMap reads map<string,string>.
func (r *Reader) StringMap() (map[string]string, error) {
	n, err := r.VecLen()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, n)
	for i := 0; i < n; i++ {
		k, err := r.String()
		if err != nil {
			return nil, err
		}
		v, err := r.String()
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func zigzagDecode64(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1)
}

func zigzagDecode32(u uint32) int32 {
	return int32(u>>1) ^ -int32(u&1)
}
