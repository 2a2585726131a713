package format

import "encoding/binary"

// byteReader walks a byte slice with bounds checking. The first overrun
// latches failed; all subsequent reads return zero values so decoders can
// check the flag once at the end instead of after every field.
type byteReader struct {
	data   []byte
	off    int
	failed bool
}

func newByteReader(data []byte) *byteReader {
	return &byteReader{data: data}
}

func (r *byteReader) bytes(n int) []byte {
	if r.failed || n < 0 || r.off+n > len(r.data) {
		r.failed = true
		return make([]byte, max(n, 0))
	}
	out := make([]byte, n)
	copy(out, r.data[r.off:r.off+n])
	r.off += n
	return out
}

func (r *byteReader) u8() uint8 {
	if r.failed || r.off+1 > len(r.data) {
		r.failed = true
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

func (r *byteReader) u16() uint16 {
	if r.failed || r.off+2 > len(r.data) {
		r.failed = true
		return 0
	}
	v := binary.BigEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

func (r *byteReader) u32() uint32 {
	if r.failed || r.off+4 > len(r.data) {
		r.failed = true
		return 0
	}
	v := binary.BigEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *byteReader) i64() int64 {
	if r.failed || r.off+8 > len(r.data) {
		r.failed = true
		return 0
	}
	v := binary.BigEndian.Uint64(r.data[r.off:])
	r.off += 8
	return int64(v)
}

// byteWriter builds big-endian binary structures.
type byteWriter struct {
	buf []byte
}

func (w *byteWriter) bytes(b []byte)  { w.buf = append(w.buf, b...) }
func (w *byteWriter) u8(v uint8)      { w.buf = append(w.buf, v) }
func (w *byteWriter) u16(v uint16)    { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }
func (w *byteWriter) u32(v uint32)    { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }
func (w *byteWriter) i64(v int64)     { w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v)) }
func (w *byteWriter) bool(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

// fixedBytes appends b zero-padded or truncated to exactly n bytes.
func (w *byteWriter) fixedBytes(b []byte, n int) {
	padded := make([]byte, n)
	copy(padded, b)
	w.buf = append(w.buf, padded...)
}
