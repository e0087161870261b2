package kdf

import "math"

// halfToFloat64 widens an IEEE 754 binary16 value.
func halfToFloat64(h uint16) float64 {
	sign := uint32(h>>15) & 0x1
	exp := uint32(h>>10) & 0x1F
	frac := uint32(h & 0x3FF)

	var bits uint32
	switch {
	case exp == 0 && frac == 0:
		bits = sign << 31
	case exp == 0:
		// subnormal: shift until the implicit bit appears
		e := uint32(127 - 15 + 1)
		for frac&0x400 == 0 {
			frac <<= 1
			e--
		}
		frac &= 0x3FF
		bits = sign<<31 | e<<23 | frac<<13
	case exp == 0x1F:
		bits = sign<<31 | 0x7F800000 | frac<<13
	default:
		bits = sign<<31 | (exp+127-15)<<23 | frac<<13
	}
	return float64(math.Float32frombits(bits))
}
