package encoding

import (
	"encoding/binary"
)

func write1(dst []byte, code byte, n uint8) []byte {
	return append(dst, code, n)
}

func write2(dst []byte, code byte, n uint16) []byte {
	return append(dst, code, byte(n>>8), byte(n))
}

func write4(dst []byte, code byte, n uint32) []byte {
	return append(
		dst,
		code,
		byte(n>>24),
		byte(n>>16),
		byte(n>>8),
		byte(n),
	)
}

func write8(dst []byte, code byte, n uint64) []byte {
	return append(
		dst,
		code,
		byte(n>>56),
		byte(n>>48),
		byte(n>>40),
		byte(n>>32),
		byte(n>>24),
		byte(n>>16),
		byte(n>>8),
		byte(n),
	)
}

// Skip returns the size of the encoded value at the beginning of b.
func Skip(b []byte) int {
	if b[0] >= IntSmallValue && b[0] < Uint8Value {
		return 1
	}

	switch b[0] {
	case NullValue, FalseValue, TrueValue:
		return 1
	case Int8Value, Uint8Value:
		return 2
	case Int16Value, Uint16Value:
		return 3
	case Int32Value, Uint32Value, FactorValue:
		return 5
	case Int64Value, Uint64Value, Float64Value:
		return 9
	case TextValue:
		l, n := binary.Uvarint(b[1:])
		return n + int(l) + 1
	case TupleValue:
		l, n := binary.Uvarint(b[1:])
		n++
		for i := 0; i < int(l); i++ {
			n += Skip(b[n:])
		}
		return n
	}

	panic("unreachable")
}

// EncodeTupleHeader starts a tuple of n values. The values themselves
// must be appended right after.
func EncodeTupleHeader(dst []byte, n int) []byte {
	dst = append(dst, TupleValue)
	return binary.AppendUvarint(dst, uint64(n))
}

// SplitTuple returns the encoded elements of the tuple at the beginning of b.
func SplitTuple(b []byte) [][]byte {
	l, n := binary.Uvarint(b[1:])
	n++
	parts := make([][]byte, 0, l)
	for i := 0; i < int(l); i++ {
		sz := Skip(b[n:])
		parts = append(parts, b[n:n+sz])
		n += sz
	}
	return parts
}
