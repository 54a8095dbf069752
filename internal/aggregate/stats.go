package aggregate

import (
	"math"
	"sort"

	"golang.org/x/exp/constraints"
)

// welford accumulates a running mean and sum of squared deviations.
type welford struct {
	n    int
	mean float64
	m2   float64
}

func (w *welford) add(x float64) {
	w.n++
	d := x - w.mean
	w.mean += d / float64(w.n)
	w.m2 += d * (x - w.mean)
}

// variance returns the sample variance.
func (w *welford) variance() float64 {
	return w.m2 / float64(w.n-1)
}

// mean uses Welford's update, falling back to a compensated sum when
// infinities make the running update undefined.
func mean(xs []float64) float64 {
	var w welford
	for _, x := range xs {
		w.add(x)
	}
	if !math.IsNaN(w.mean) {
		return w.mean
	}

	for _, x := range xs {
		if math.IsNaN(x) {
			return math.NaN()
		}
	}
	return neumaierSum(xs) / float64(len(xs))
}

func neumaierSum(xs []float64) float64 {
	var sum, c float64
	for _, x := range xs {
		t := sum + x
		if math.Abs(sum) >= math.Abs(x) {
			c += (sum - t) + x
		} else {
			c += (x - t) + sum
		}
		sum = t
	}
	if math.IsInf(sum, 0) || math.IsNaN(sum) {
		return sum
	}
	return sum + c
}

// quantile7 implements definition 7 of Hyndman and Fan:
// linear interpolation between the order statistics around (n-1)p.
func quantile7(xs []float64, p float64) float64 {
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	h := float64(len(sorted)-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	if h == lo {
		return sorted[i]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// addChecked returns a+b and whether the addition did not overflow.
func addChecked[T constraints.Signed](a, b T) (T, bool) {
	c := a + b
	if (b > 0 && c < a) || (b < 0 && c > a) {
		return 0, false
	}
	return c, true
}
