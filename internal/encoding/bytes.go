package encoding

import (
	"encoding/binary"
)

func EncodeText(dst []byte, x string) []byte {
	// encode the length as a varint
	buf := make([]byte, binary.MaxVarintLen64+1)
	buf[0] = TextValue
	n := binary.PutUvarint(buf[1:], uint64(len(x)))

	dst = append(dst, buf[:n+1]...)
	return append(dst, x...)
}

func DecodeText(b []byte) (string, int) {
	// skip type
	b = b[1:]
	// decode the length as a varint
	l, n := binary.Uvarint(b)
	return string(b[n : n+int(l)]), 1 + n + int(l)
}

func EncodeNull(dst []byte) []byte {
	return append(dst, NullValue)
}

func EncodeBoolean(dst []byte, x bool) []byte {
	if x {
		return append(dst, TrueValue)
	}

	return append(dst, FalseValue)
}

func DecodeBoolean(b []byte) bool {
	return b[0] == TrueValue
}
