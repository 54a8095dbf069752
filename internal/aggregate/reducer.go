package aggregate

import (
	"math"
	"sort"
	"strconv"

	"github.com/aclements/go-moremath/stats"
	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
)

// Kind is the capability class of a reducer.
type Kind uint8

const (
	// KindNumeric reducers compute a statistic from the values.
	KindNumeric Kind = iota + 1
	// KindCount reducers count values.
	KindCount
	// KindPositional reducers pick a value by its position in the partition.
	KindPositional
	// KindOrdered reducers pick a value by its rank. They accept any
	// type with a total order: numbers, text, timestamps and ordered factors.
	KindOrdered
)

func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindCount:
		return "count"
	case KindPositional:
		return "positional"
	case KindOrdered:
		return "ordered"
	}
	return "unknown"
}

// A Reducer turns the values of a partition into a single value.
// The set of reducers is closed: they are obtained through the
// constructors of this package.
type Reducer interface {
	Name() string
	Kind() Kind

	params() []string
	// resultColumn validates the source column and returns the definition of the result.
	// Column-less reducers receive a column of type TypeAny.
	resultColumn(src dataset.Column) (dataset.Column, error)
	// reduce is never called with an empty slice, nor with missing values.
	reduce(values []types.Value) types.Value
	// empty is the result for a partition left without values.
	empty() types.Value
}

func mismatch(r Reducer, src dataset.Column) error {
	return errors.Wrapf(types.ErrTypeMismatch, "%s() cannot process %s column %q", r.Name(), src.Type, src.Name)
}

func isNumeric(t types.Type) bool {
	return t == types.TypeInteger || t == types.TypeDouble || t == types.TypeBoolean
}

func floats(values []types.Value) []float64 {
	xs := make([]float64, len(values))
	for i, v := range values {
		xs[i] = types.AsFloat64(v)
	}
	return xs
}

type baseReducer struct{}

func (baseReducer) params() []string    { return nil }
func (baseReducer) empty() types.Value { return types.NewNullValue() }

// Mean returns the arithmetic mean, computed with Welford's running update.
func Mean() Reducer { return meanReducer{} }

type meanReducer struct{ baseReducer }

func (meanReducer) Name() string { return "mean" }
func (meanReducer) Kind() Kind   { return KindNumeric }

func (r meanReducer) resultColumn(src dataset.Column) (dataset.Column, error) {
	if !isNumeric(src.Type) {
		return dataset.Column{}, mismatch(r, src)
	}
	return dataset.Column{Type: types.TypeDouble}, nil
}

func (meanReducer) reduce(values []types.Value) types.Value {
	return types.NewDoubleValue(mean(floats(values)))
}

// Sum returns the sum of the values. Integer and boolean columns sum to
// integers; an integer sum that overflows is missing. Double sums use
// Neumaier's compensated summation.
func Sum() Reducer { return sumReducer{} }

type sumReducer struct{ baseReducer }

func (sumReducer) Name() string { return "sum" }
func (sumReducer) Kind() Kind   { return KindNumeric }

func (r sumReducer) resultColumn(src dataset.Column) (dataset.Column, error) {
	switch src.Type {
	case types.TypeInteger, types.TypeBoolean:
		return dataset.Column{Type: types.TypeInteger}, nil
	case types.TypeDouble:
		return dataset.Column{Type: types.TypeDouble}, nil
	}
	return dataset.Column{}, mismatch(r, src)
}

func (sumReducer) reduce(values []types.Value) types.Value {
	if values[0].Type() == types.TypeDouble {
		return types.NewDoubleValue(neumaierSum(floats(values)))
	}

	var total int64
	for _, v := range values {
		x := int64(types.AsFloat64(v))
		if v.Type() == types.TypeInteger {
			x = types.AsInt64(v)
		}
		var ok bool
		total, ok = addChecked(total, x)
		if !ok {
			return types.NewNullValue()
		}
	}
	return types.NewIntegerValue(total)
}

// StdDev returns the sample standard deviation (n-1 denominator).
// Partitions with less than two values give a missing value.
func StdDev() Reducer { return varianceReducer{sd: true} }

// Variance returns the sample variance (n-1 denominator).
func Variance() Reducer { return varianceReducer{} }

type varianceReducer struct {
	baseReducer
	sd bool
}

func (r varianceReducer) Name() string {
	if r.sd {
		return "sd"
	}
	return "var"
}

func (varianceReducer) Kind() Kind { return KindNumeric }

func (r varianceReducer) resultColumn(src dataset.Column) (dataset.Column, error) {
	if !isNumeric(src.Type) {
		return dataset.Column{}, mismatch(r, src)
	}
	return dataset.Column{Type: types.TypeDouble}, nil
}

func (r varianceReducer) reduce(values []types.Value) types.Value {
	if len(values) < 2 {
		return types.NewNullValue()
	}

	var w welford
	for _, v := range values {
		w.add(types.AsFloat64(v))
	}

	variance := w.variance()
	if r.sd {
		return types.NewDoubleValue(math.Sqrt(variance))
	}
	return types.NewDoubleValue(variance)
}

// QuantileType names a sample quantile definition from Hyndman and Fan (1996).
type QuantileType int

const (
	// Type7 interpolates linearly between the order statistics at
	// (n-1)p. It is the default of R and NumPy.
	Type7 QuantileType = 7
	// Type8 is the approximately median-unbiased definition.
	Type8 QuantileType = 8
)

// DefaultQuantileType is used when no type is requested.
const DefaultQuantileType = Type7

// Quantile returns the p-th sample quantile using the given definition.
func Quantile(p float64, t QuantileType) (Reducer, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return nil, errors.Wrapf(ErrInvalidReducerInput, "quantile probability %v outside [0, 1]", p)
	}
	if t != Type7 && t != Type8 {
		return nil, errors.Wrapf(ErrInvalidReducerInput, "unsupported quantile type %d", t)
	}
	return quantileReducer{p: p, t: t}, nil
}

// Median returns the type 7 quantile at 0.5.
func Median() Reducer { return quantileReducer{p: 0.5, t: Type7, median: true} }

type quantileReducer struct {
	baseReducer
	p      float64
	t      QuantileType
	median bool
}

func (r quantileReducer) Name() string {
	if r.median {
		return "median"
	}
	return "quantile"
}

func (quantileReducer) Kind() Kind { return KindNumeric }

func (r quantileReducer) params() []string {
	if r.median {
		return nil
	}
	ps := []string{strconv.FormatFloat(r.p, 'g', -1, 64)}
	if r.t != DefaultQuantileType {
		ps = append(ps, "type = "+strconv.Itoa(int(r.t)))
	}
	return ps
}

func (r quantileReducer) resultColumn(src dataset.Column) (dataset.Column, error) {
	if !isNumeric(src.Type) {
		return dataset.Column{}, mismatch(r, src)
	}
	return dataset.Column{Type: types.TypeDouble}, nil
}

func (r quantileReducer) reduce(values []types.Value) types.Value {
	xs := floats(values)
	for _, x := range xs {
		if math.IsNaN(x) {
			return types.NewDoubleValue(math.NaN())
		}
	}

	if r.t == Type8 {
		sort.Float64s(xs)
		return types.NewDoubleValue(stats.Sample{Xs: xs, Sorted: true}.Quantile(r.p))
	}
	return types.NewDoubleValue(quantile7(xs, r.p))
}

// Min returns the smallest value.
func Min() Reducer { return extremeReducer{} }

// Max returns the largest value.
func Max() Reducer { return extremeReducer{max: true} }

// extremeReducer accepts every ordered type. Factors must be ordered.
type extremeReducer struct {
	baseReducer
	max bool
}

func (r extremeReducer) Name() string {
	if r.max {
		return "max"
	}
	return "min"
}

func (extremeReducer) Kind() Kind { return KindOrdered }

func (r extremeReducer) resultColumn(src dataset.Column) (dataset.Column, error) {
	switch src.Type {
	case types.TypeInteger, types.TypeDouble, types.TypeBoolean, types.TypeTimestamp, types.TypeText:
		return dataset.Column{Type: src.Type}, nil
	case types.TypeFactor:
		if src.Levels.Ordered() {
			return dataset.Column{Type: src.Type, Levels: src.Levels}, nil
		}
		return dataset.Column{}, errors.Wrapf(types.ErrTypeMismatch, "%s() requires an ordered factor, %q is unordered", r.Name(), src.Name)
	}
	return dataset.Column{}, mismatch(r, src)
}

// reduce returns NaN if any double value is NaN.
func (r extremeReducer) reduce(values []types.Value) types.Value {
	best := values[0]
	for _, v := range values {
		if v.Type() == types.TypeDouble && math.IsNaN(types.AsFloat64(v)) {
			return v
		}
		c, _ := types.Compare(v, best)
		if (r.max && c > 0) || (!r.max && c < 0) {
			best = v
		}
	}
	return best
}

// First returns the first value of the partition, in dataset order.
func First() Reducer { return positionalReducer{name: "first", n: 1} }

// Last returns the last value of the partition, in dataset order.
func Last() Reducer { return positionalReducer{name: "last", n: -1} }

// Nth returns the n-th value of the partition, counting from 1. Negative
// positions count from the end. Positions out of range give a missing value.
func Nth(n int) (Reducer, error) {
	if n == 0 {
		return nil, errors.Wrap(ErrInvalidReducerInput, "nth position must not be 0")
	}
	return positionalReducer{name: "nth", n: n}, nil
}

type positionalReducer struct {
	baseReducer
	name string
	n    int
}

func (r positionalReducer) Name() string { return r.name }
func (positionalReducer) Kind() Kind     { return KindPositional }

func (r positionalReducer) params() []string {
	if r.name == "nth" {
		return []string{strconv.Itoa(r.n)}
	}
	return nil
}

func (r positionalReducer) resultColumn(src dataset.Column) (dataset.Column, error) {
	if src.Type == types.TypeAny {
		return dataset.Column{}, mismatch(r, src)
	}
	return dataset.Column{Type: src.Type, Levels: src.Levels}, nil
}

func (r positionalReducer) reduce(values []types.Value) types.Value {
	i := r.n - 1
	if r.n < 0 {
		i = len(values) + r.n
	}
	if i < 0 || i >= len(values) {
		return types.NewNullValue()
	}
	return values[i]
}

// Count returns the number of values. Without a source column it counts rows.
func Count() Reducer { return countReducer{} }

type countReducer struct{}

func (countReducer) Name() string       { return "count" }
func (countReducer) Kind() Kind         { return KindCount }
func (countReducer) params() []string   { return nil }
func (countReducer) empty() types.Value { return types.NewIntegerValue(0) }

func (countReducer) resultColumn(dataset.Column) (dataset.Column, error) {
	return dataset.Column{Type: types.TypeInteger}, nil
}

func (countReducer) reduce(values []types.Value) types.Value {
	return types.NewIntegerValue(int64(len(values)))
}

// CountDistinct returns the number of distinct values.
func CountDistinct() Reducer { return countDistinctReducer{} }

type countDistinctReducer struct{}

func (countDistinctReducer) Name() string       { return "count_distinct" }
func (countDistinctReducer) Kind() Kind         { return KindCount }
func (countDistinctReducer) params() []string   { return nil }
func (countDistinctReducer) empty() types.Value { return types.NewIntegerValue(0) }

func (r countDistinctReducer) resultColumn(src dataset.Column) (dataset.Column, error) {
	if src.Type == types.TypeAny {
		return dataset.Column{}, mismatch(r, src)
	}
	return dataset.Column{Type: types.TypeInteger}, nil
}

func (countDistinctReducer) reduce(values []types.Value) types.Value {
	seen := make(map[string]struct{}, len(values))
	var buf []byte
	for _, v := range values {
		buf = v.EncodeAsKey(buf[:0])
		seen[string(buf)] = struct{}{}
	}
	return types.NewIntegerValue(int64(len(seen)))
}
