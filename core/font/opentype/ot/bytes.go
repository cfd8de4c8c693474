package ot

import (
	"errors"
)

// Reading bytes from a font's binary representation

var errBufferBounds = errors.New("internal inconsistency: buffer bounds error")

func u16(b []byte) uint16 {
	_ = b[1] // Bounds check hint to compiler
	return uint16(b[0])<<8 | uint16(b[1])<<0
}

func u32(b []byte) uint32 {
	_ = b[3] // Bounds check hint to compiler
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])<<0
}

// --- Locations, i.e. byte segments/slices ----------------------------------

// binarySegm is a segment of byte data. We use it throughout this package to
// navigate the font's binary data. A binarySegm never carries a cursor: every
// read states its offset explicitly, and nested structures are addressed by
// composing offsets (see link16 and link32).
type binarySegm []byte

// Size returns the length of b in bytes.
func (b binarySegm) Size() int {
	return len(b)
}

// view returns n bytes at the given offset.
// The byte segment returned is a sub-slice of b.
func (b binarySegm) view(offset, n int) (binarySegm, error) {
	if offset < 0 || n < 0 || offset+n > len(b) {
		return nil, errBufferBounds
	}
	return b[offset : offset+n], nil
}

// from returns the tail of b starting at offset.
func (b binarySegm) from(offset int) (binarySegm, error) {
	if offset < 0 || offset > len(b) {
		return nil, errBufferBounds
	}
	return b[offset:], nil
}

func (b binarySegm) u8(i int) (uint8, error) {
	if i < 0 || i >= len(b) {
		return 0, errBufferBounds
	}
	return b[i], nil
}

// u16 returns the uint16 in b at the relative offset i.
func (b binarySegm) u16(i int) (uint16, error) {
	buf, err := b.view(i, 2)
	if err != nil {
		return 0, err
	}
	return u16(buf), nil
}

func (b binarySegm) i16(i int) (int16, error) {
	n, err := b.u16(i)
	return int16(n), err
}

// u32 returns the uint32 in b at the relative offset i.
func (b binarySegm) u32(i int) (uint32, error) {
	buf, err := b.view(i, 4)
	if err != nil {
		return 0, err
	}
	return u32(buf), nil
}

func (b binarySegm) i32(i int) (int32, error) {
	n, err := b.u32(i)
	return int32(n), err
}

// fixed reads a signed 16.16 fixed-point number.
func (b binarySegm) fixed(i int) (float64, error) {
	n, err := b.i32(i)
	if err != nil {
		return 0, err
	}
	return float64(n) / 65536.0, nil
}

func (b binarySegm) tag(i int) (Tag, error) {
	n, err := b.u32(i)
	return Tag(n), err
}

// U16 is a convenience accessor which returns 0 for out-of-bounds reads.
func (b binarySegm) U16(i int) uint16 {
	n, err := b.u16(i)
	if err != nil {
		return 0
	}
	return n
}

// U32 is a convenience accessor which returns 0 for out-of-bounds reads.
func (b binarySegm) U32(i int) uint32 {
	n, err := b.u32(i)
	if err != nil {
		return 0
	}
	return n
}

// fieldReader collects the first error of a sequence of reads at fixed offsets
// of a record, so that decoders do not have to check every single field.
type fieldReader struct {
	b   binarySegm
	err error
}

func (r *fieldReader) u16(off int) uint16 {
	n, err := r.b.u16(off)
	if r.err == nil {
		r.err = err
	}
	return n
}

func (r *fieldReader) i16(off int) int16 {
	return int16(r.u16(off))
}

func (r *fieldReader) u32(off int) uint32 {
	n, err := r.b.u32(off)
	if r.err == nil {
		r.err = err
	}
	return n
}

func (r *fieldReader) fixed(off int) float64 {
	n, err := r.b.fixed(off)
	if r.err == nil {
		r.err = err
	}
	return n
}

// --- Link ------------------------------------------------------------------

// link16 is an offset relative to a base location. Reading the link does not
// move anything: Jump composes base and offset into the destination segment.
type link16 struct {
	base   binarySegm
	offset uint16
}

// parseLink16 reads an Offset16 at offset off within b. The link's
// destination is relative to base, which often, but not always, equals b.
func parseLink16(b binarySegm, off int, base binarySegm) (link16, error) {
	n, err := b.u16(off)
	if err != nil {
		return link16{}, err
	}
	return link16{base: base, offset: n}, nil
}

// IsNull returns true for NULL offsets, which OpenType uses for absent structures.
func (l16 link16) IsNull() bool {
	return l16.offset == 0 || len(l16.base) == 0
}

// Jump returns the destination segment of the link.
func (l16 link16) Jump() (binarySegm, error) {
	if l16.IsNull() {
		return nil, errBufferBounds
	}
	return l16.base.from(int(l16.offset))
}

type link32 struct {
	base   binarySegm
	offset uint32
}

func parseLink32(b binarySegm, off int, base binarySegm) (link32, error) {
	n, err := b.u32(off)
	if err != nil {
		return link32{}, err
	}
	return link32{base: base, offset: n}, nil
}

func (l32 link32) IsNull() bool {
	return l32.offset == 0 || len(l32.base) == 0
}

func (l32 link32) Jump() (binarySegm, error) {
	if l32.IsNull() || l32.offset > uint32(len(l32.base)) {
		return nil, errBufferBounds
	}
	return l32.base[l32.offset:], nil
}

// --- Arrays ----------------------------------------------------------------

// array is a type for a linear sequence of equal-sized records. Its length is
// not a compile-time constant but read from a count field of the enclosing
// record.
type array struct {
	recordSize int
	length     int
	loc        binarySegm
}

// parseArray reads a uint16 count at offset off in b, followed immediately by
// count records of recordSize bytes each.
func parseArray(b binarySegm, off int, recordSize int) (array, error) {
	n, err := b.u16(off)
	if err != nil {
		return array{}, err
	}
	return viewArray(b, off+2, int(n), recordSize)
}

// viewArray interprets n records of recordSize bytes at offset off within b.
// The count n has been read by the caller from some other field.
func viewArray(b binarySegm, off, n, recordSize int) (array, error) {
	loc, err := b.view(off, n*recordSize)
	if err != nil {
		return array{}, err
	}
	return array{recordSize: recordSize, length: n, loc: loc}, nil
}

// Len returns the number of entries in the array.
func (a array) Len() int {
	return a.length
}

// Size of array a in bytes.
func (a array) Size() int {
	return a.length * a.recordSize
}

// Get returns item #i as a byte segment, or an empty segment if i is out of range.
func (a array) Get(i int) binarySegm {
	if i < 0 || i >= a.length {
		return binarySegm{}
	}
	b, _ := a.loc.view(i*a.recordSize, a.recordSize)
	return b
}

// u16s interprets the array as a sequence of uint16.
func (a array) u16s() []uint16 {
	r := make([]uint16, a.length)
	for i := range r {
		r[i] = a.Get(i).U16(0)
	}
	return r
}

// glyphs interprets the array as a sequence of glyph IDs.
func (a array) glyphs() []GlyphIndex {
	r := make([]GlyphIndex, a.length)
	for i := range r {
		r[i] = GlyphIndex(a.Get(i).U16(0))
	}
	return r
}

// offsets16 resolves every entry of an array of Offset16 relative to base.
// NULL offsets yield nil segments.
func (a array) offsets16(base binarySegm) ([]binarySegm, error) {
	r := make([]binarySegm, a.length)
	for i := range r {
		link := link16{base: base, offset: a.Get(i).U16(0)}
		if link.IsNull() {
			continue
		}
		b, err := link.Jump()
		if err != nil {
			return nil, err
		}
		r[i] = b
	}
	return r, nil
}
