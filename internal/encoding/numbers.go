package encoding

import (
	"fmt"
	"math"
)

func EncodeInt(dst []byte, n int64) []byte {
	if n >= 0 {
		return EncodeUint(dst, uint64(n))
	}

	if n >= -32 {
		return append(dst, byte(n+int64(IntSmallValue)+32))
	}

	if n >= math.MinInt8 {
		return write1(dst, Int8Value, uint8(int8(n))+math.MaxInt8+1)
	}
	if n >= math.MinInt16 {
		return write2(dst, Int16Value, uint16(int16(n))+math.MaxInt16+1)
	}
	if n >= math.MinInt32 {
		return write4(dst, Int32Value, uint32(int32(n))+math.MaxInt32+1)
	}
	return write8(dst, Int64Value, uint64(n)+math.MaxInt64+1)
}

func EncodeUint(dst []byte, n uint64) []byte {
	if n <= 31 {
		return append(dst, byte(n+uint64(IntSmallValue)+32))
	}

	if n <= math.MaxUint8 {
		return write1(dst, Uint8Value, uint8(n))
	}
	if n <= math.MaxUint16 {
		return write2(dst, Uint16Value, uint16(n))
	}
	if n <= math.MaxUint32 {
		return write4(dst, Uint32Value, uint32(n))
	}
	return write8(dst, Uint64Value, n)
}

func DecodeInt(b []byte) (int64, int) {
	if b[0] >= IntSmallValue && b[0] < IntSmallValue+64 {
		return int64(b[0]) - int64(IntSmallValue) - 32, 1
	}

	switch b[0] {
	case Uint8Value:
		return int64(b[1]), 2
	case Uint16Value:
		return int64(DecodeUint16(b[1:])), 3
	case Uint32Value:
		return int64(DecodeUint32(b[1:])), 5
	case Uint64Value:
		return int64(DecodeUint64(b[1:])), 9
	case Int8Value:
		return int64(int8(b[1] - (math.MaxInt8 + 1))), 2
	case Int16Value:
		return int64(int16(DecodeUint16(b[1:]) - (math.MaxInt16 + 1))), 3
	case Int32Value:
		return int64(int32(DecodeUint32(b[1:]) - (math.MaxInt32 + 1))), 5
	case Int64Value:
		return int64(DecodeUint64(b[1:]) - (math.MaxInt64 + 1)), 9
	}

	panic(fmt.Sprintf("invalid type %0x", b[0]))
}

func DecodeUint16(b []byte) uint16 {
	return (uint16(b[0]) << 8) | uint16(b[1])
}

func DecodeUint32(b []byte) uint32 {
	return (uint32(b[0]) << 24) |
		(uint32(b[1]) << 16) |
		(uint32(b[2]) << 8) |
		uint32(b[3])
}

func DecodeUint64(b []byte) uint64 {
	return (uint64(b[0]) << 56) |
		(uint64(b[1]) << 48) |
		(uint64(b[2]) << 40) |
		(uint64(b[3]) << 32) |
		(uint64(b[4]) << 24) |
		(uint64(b[5]) << 16) |
		(uint64(b[6]) << 8) |
		uint64(b[7])
}

// EncodeFloat64 writes x so that the byte order matches the numeric order.
// All NaN payloads share one encoding and negative zero is written as zero,
// which keeps the encoding faithful to value equality.
func EncodeFloat64(dst []byte, x float64) []byte {
	if math.IsNaN(x) {
		x = math.NaN()
	}
	if x == 0 {
		x = 0
	}

	fb := math.Float64bits(x)
	if x >= 0 || math.IsNaN(x) {
		fb ^= 1 << 63
	} else {
		fb ^= 1<<64 - 1
	}
	return write8(dst, Float64Value, fb)
}

func DecodeFloat64(b []byte) (float64, int) {
	x := DecodeUint64(b[1:])

	if (x & (1 << 63)) != 0 {
		x ^= 1 << 63
	} else {
		x ^= 1<<64 - 1
	}
	return math.Float64frombits(x), 9
}

// EncodeFactor writes the level code of a factor value.
func EncodeFactor(dst []byte, code int) []byte {
	return write4(dst, FactorValue, uint32(code))
}

func DecodeFactor(b []byte) (int, int) {
	return int(DecodeUint32(b[1:])), 5
}
