package encoding

// Type tags used to prefix encoded values.
// They are sorted from the smallest to largest so that encoded group keys
// compare the same way as the values they were built from.
// A block of 64 is reserved for small integers in the range [-32, 31].
const (
	// Null
	NullValue byte = 2

	// Booleans
	FalseValue byte = 5
	TrueValue  byte = 6

	// Negative integers
	Int64Value byte = 12
	Int32Value byte = 13
	Int16Value byte = 14
	Int8Value  byte = 15

	// Contiguous block of 64 integers.
	// Types from 16 to 79 represent
	// values from -32 to 31
	IntSmallValue byte = 16

	// Positive integers
	Uint8Value  byte = 80
	Uint16Value byte = 81
	Uint32Value byte = 82
	Uint64Value byte = 83

	// Floating point numbers
	Float64Value byte = 90

	// Factor level codes
	FactorValue byte = 94

	// Text
	TextValue byte = 98

	// Tuples of values
	TupleValue byte = 110
)
