// Copyright 2026 Marcel Schaible
// Licensed under the MIT license. See license text in the LICENSE file.

package pyrtl

import "strconv"

// MaxWidth is the largest supported wire width in bits.
//
const MaxWidth = 64

// A BitVector is a fixed-width unsigned value. The zero value is a
// zero-width vector and is not valid as a circuit value; all circuit-level
// values are built with a width in [1, MaxWidth]. No operation produces a
// value outside [0, 2^width): results are explicitly masked to the result
// width.
//
type BitVector struct {
	width int
	v     uint64
}

// widthMask returns a mask covering the low w bits.
//
func widthMask(w int) uint64 {
	return ^uint64(0) >> uint(64-w)
}

func validWidth(w int) bool { return w >= 1 && w <= MaxWidth }

// NewBitVector returns a BitVector of the given width holding v.
// It returns an error if the width is not in [1, MaxWidth] or if v does
// not fit in width bits.
//
func NewBitVector(width int, v uint64) (BitVector, error) {
	if !validWidth(width) {
		return BitVector{}, newErrorf(KindGraphConstruction, "invalid width %d", width)
	}
	if v&^widthMask(width) != 0 {
		return BitVector{}, newErrorf(KindGraphConstruction, "value %d does not fit in %d bits", v, width)
	}
	return BitVector{width: width, v: v}, nil
}

// bv builds a BitVector, truncating v to width. Internal helper for
// evaluation where widths have already been validated.
//
func bv(width int, v uint64) BitVector {
	return BitVector{width: width, v: v & widthMask(width)}
}

// Width returns the width of b in bits.
//
func (b BitVector) Width() int { return b.width }

// Uint64 returns the value of b.
//
func (b BitVector) Uint64() uint64 { return b.v }

func (b BitVector) String() string {
	return strconv.FormatUint(b.v, 10) + "'" + strconv.Itoa(b.width)
}

func (b BitVector) checkSameWidth(o BitVector) {
	if b.width != o.width {
		panic(newErrorf(KindGraphConstruction, "width mismatch: %d != %d", b.width, o.width))
	}
}

// Add returns b + o truncated to the operand width. Both operands must
// have the same width.
//
func (b BitVector) Add(o BitVector) BitVector {
	b.checkSameWidth(o)
	return bv(b.width, b.v+o.v)
}

// Sub returns b - o truncated to the operand width (two's complement
// wrap-around).
//
func (b BitVector) Sub(o BitVector) BitVector {
	b.checkSameWidth(o)
	return bv(b.width, b.v-o.v)
}

// And returns the bitwise AND of b and o.
//
func (b BitVector) And(o BitVector) BitVector {
	b.checkSameWidth(o)
	return bv(b.width, b.v&o.v)
}

// Or returns the bitwise OR of b and o.
//
func (b BitVector) Or(o BitVector) BitVector {
	b.checkSameWidth(o)
	return bv(b.width, b.v|o.v)
}

// Xor returns the bitwise XOR of b and o.
//
func (b BitVector) Xor(o BitVector) BitVector {
	b.checkSameWidth(o)
	return bv(b.width, b.v^o.v)
}

// Not returns the bitwise complement of b, masked to b's width.
//
func (b BitVector) Not() BitVector {
	return bv(b.width, ^b.v)
}

// Eq returns a 1-bit vector holding 1 if b == o.
//
func (b BitVector) Eq(o BitVector) BitVector {
	b.checkSameWidth(o)
	if b.v == o.v {
		return bv(1, 1)
	}
	return bv(1, 0)
}

// Lt returns a 1-bit vector holding 1 if b < o (unsigned).
//
func (b BitVector) Lt(o BitVector) BitVector {
	b.checkSameWidth(o)
	if b.v < o.v {
		return bv(1, 1)
	}
	return bv(1, 0)
}

// Concat returns b concatenated above lo: b becomes the high bits. The
// combined width must not exceed MaxWidth.
//
func (b BitVector) Concat(lo BitVector) BitVector {
	w := b.width + lo.width
	if w > MaxWidth {
		panic(newErrorf(KindGraphConstruction, "concat width %d exceeds %d bits", w, MaxWidth))
	}
	return bv(w, b.v<<uint(lo.width)|lo.v)
}

// Slice returns bits [lo, hi) of b, bit 0 being the least significant.
//
func (b BitVector) Slice(lo, hi int) BitVector {
	if lo < 0 || hi <= lo || hi > b.width {
		panic(newErrorf(KindGraphConstruction, "slice [%d:%d) out of range for width %d", lo, hi, b.width))
	}
	return bv(hi-lo, b.v>>uint(lo))
}
