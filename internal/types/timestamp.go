package types

import (
	"strconv"
	"time"

	"github.com/chaisql/tally/internal/encoding"
	"github.com/cockroachdb/errors"
	"github.com/dromara/carbon/v2"
)

var _ Value = NewTimestampValue(time.Time{})

type TimestampValue time.Time

// NewTimestampValue returns a timestamp value, converted to UTC and
// truncated to the microsecond.
func NewTimestampValue(x time.Time) TimestampValue {
	return TimestampValue(x.UTC().Truncate(time.Microsecond))
}

func (v TimestampValue) V() any {
	return time.Time(v)
}

func (v TimestampValue) Type() Type {
	return TypeTimestamp
}

func (v TimestampValue) String() string {
	return strconv.Quote(time.Time(v).Format(time.RFC3339Nano))
}

func (v TimestampValue) MarshalJSON() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v TimestampValue) EncodeAsKey(dst []byte) []byte {
	return encoding.EncodeTimestamp(dst, time.Time(v))
}

// ParseTimestamp parses s in any of the layouts understood by carbon.
// Timestamps without a zone are considered UTC.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("invalid timestamp")
	}

	c := carbon.Parse(s, "UTC")
	if c.Error != nil || c.IsInvalid() {
		return time.Time{}, errors.Newf("invalid timestamp %q", s)
	}

	return c.StdTime().UTC(), nil
}
