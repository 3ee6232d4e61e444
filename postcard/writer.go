package postcard

import (
	"math"
)

// Writer accumulates a postcard-encoded byte stream.
type Writer struct {
	buf []byte
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// Bytes returns the accumulated encoded bytes.
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Raw appends bytes verbatim (used when re-emitting an opaque payload, e.g.
// the preserved Range filter bounds).
func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}

// Uvarint writes n as an unsigned LEB128 varint.
func (w *Writer) Uvarint(n uint64) {
	for n >= 0x80 {
		w.buf = append(w.buf, byte(n)|0x80)
		n >>= 7
	}
	w.buf = append(w.buf, byte(n))
}

// Varint writes n as a zigzag+LEB128 signed varint.
func (w *Writer) Varint(n int64) {
	w.Uvarint(zigzagEncode64(n))
}

// Varint32 writes a 32-bit signed value with the same zigzag convention.
func (w *Writer) Varint32(n int32) {
	w.Uvarint(uint64(zigzagEncode32(n)))
}

// U8 writes a raw byte.
func (w *Writer) U8(v uint8) {
	w.buf = append(w.buf, v)
}

// Bool writes a bool as a single byte (0 or 1).
func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
	} else {
		w.U8(0)
	}
}

// F32 writes an IEEE-754 little-endian 32-bit float.
func (w *Writer) F32(v float32) {
	bits := math.Float32bits(v)
	w.buf = append(w.buf, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
}

// F64 writes an IEEE-754 little-endian 64-bit float.
func (w *Writer) F64(v float64) {
	bits := math.Float64bits(v)
	for i := 0; i < 8; i++ {
		w.buf = append(w.buf, byte(bits>>(8*i)))
	}
}

// String writes a (varint length, utf-8 bytes) string.
func (w *Writer) String(s string) {
	w.Uvarint(uint64(len(s)))
	w.buf = append(w.buf, s...)
}

// ByteSlice writes a (varint length, raw bytes) byte vec.
func (w *Writer) ByteSlice(b []byte) {
	w.Uvarint(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

// VecLen writes the element count prefix for a vec; callers then write each
// element themselves.
func (w *Writer) VecLen(n int) {
	w.Uvarint(uint64(n))
}

// OptionNone writes the None tag for an option<T>.
func (w *Writer) OptionNone() {
	w.U8(0)
}

// OptionSome writes the Some tag for an option<T>; callers then write the
// inner value themselves.
func (w *Writer) OptionSome() {
	w.U8(1)
}

// OptionString writes option<string>.
func (w *Writer) OptionString(s *string) {
	if s == nil {
		w.OptionNone()
		return
	}
	w.OptionSome()
	w.String(*s)
}

// OptionStringSlice writes option<vec<string>>.
func (w *Writer) OptionStringSlice(ss []string) {
	if ss == nil {
		w.OptionNone()
		return
	}
	w.OptionSome()
	w.VecLen(len(ss))
	for _, s := range ss {
		w.String(s)
	}
}

// StringSlice writes vec<string> (no outer option).
func (w *Writer) StringSlice(ss []string) {
	w.VecLen(len(ss))
	for _, s := range ss {
		w.String(s)
	}
}

// OptionI64 writes option<i64>.
func (w *Writer) OptionI64(v *int64) {
	if v == nil {
		w.OptionNone()
		return
	}
	w.OptionSome()
	w.Varint(*v)
}

// OptionF32 writes option<f32>.
func (w *Writer) OptionF32(v *float32) {
	if v == nil {
		w.OptionNone()
		return
	}
	w.OptionSome()
	w.F32(*v)
}

// StringMap writes map<string,string>.
func (w *Writer) StringMap(m map[string]string) {
	w.VecLen(len(m))
	for k, v := range m {
		w.String(k)
		w.String(v)
	}
}

func zigzagEncode64(n int64) uint64 {
	return uint64((n << 1) ^ (n >> 63))
}

func zigzagEncode32(n int32) uint32 {
	return uint32((n << 1) ^ (n >> 31))
}
