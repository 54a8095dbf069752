package encoding

import (
	"time"
)

var epoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC).UnixMicro()

// EncodeTimestamp writes t with microsecond precision, relative to 2000-01-01.
func EncodeTimestamp(dst []byte, t time.Time) []byte {
	return EncodeInt(dst, t.UnixMicro()-epoch)
}

func DecodeTimestamp(b []byte) (time.Time, int) {
	x, n := DecodeInt(b)
	return time.UnixMicro(epoch + x).UTC(), n
}
