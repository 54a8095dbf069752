// Package splitapply implements the split-apply-combine helpers of base R
// and plyr on top of the aggregation engine: tapply, ddply and the
// formula interface of aggregate.
package splitapply

import (
	"slices"
	"sort"
	"strings"

	"github.com/chaisql/tally/internal/aggregate"
	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/expr"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
)

// Tapply applies the reducer to the value column within each combination
// of the index columns. Rows with a missing index are ignored.
// With one index, the result has one row per index value, sorted.
// With two indices, the result is a cross table: one row per value of the
// first index, one column per value of the second, both sorted. Empty
// cells are missing. A value of the second index equal to the name of the
// first is labelled second=value.
func Tapply(ds *dataset.Dataset, value string, index []string, r aggregate.Reducer, policy aggregate.MissingPolicy) (*dataset.Dataset, error) {
	if len(index) == 0 || len(index) > 2 {
		return nil, errors.Newf("tapply takes one or two indices, got %d", len(index))
	}

	ds, err := omitMissing(ds, index)
	if err != nil {
		return nil, err
	}

	name := value
	for _, k := range index {
		if k == name {
			name = r.Name()
		}
	}

	res, err := aggregate.Aggregate(ds, index, []aggregate.Aggregation{
		{Name: name, Column: value, Reducer: r, Policy: policy},
	}, aggregate.WithSortedGroups())
	if err != nil || len(index) == 1 {
		return res, err
	}

	return crossTable(res)
}

// crossTable pivots a (row key, column key, value) table sorted by keys.
func crossTable(long *dataset.Dataset) (*dataset.Dataset, error) {
	cell := long.Schema().Column(2)

	var labels []string
	columnOf := make(map[string]int)
	seen := make(map[string]bool)
	var colKeys []types.Value
	for i := 0; i < long.Len(); i++ {
		v := long.Value(i, 1)
		l := types.Format(v)
		if !seen[l] {
			seen[l] = true
			colKeys = append(colKeys, v)
		}
	}
	sortValues(colKeys)
	rowName, colName := long.Schema().Column(0).Name, long.Schema().Column(1).Name
	for j, v := range colKeys {
		l := types.Format(v)
		columnOf[l] = j
		// the first column holds the row keys.
		if l == rowName {
			l = colName + "=" + l
		}
		labels = append(labels, l)
	}

	columns := []dataset.Column{long.Schema().Column(0)}
	for _, l := range labels {
		columns = append(columns, dataset.Column{Name: l, Type: cell.Type, Levels: cell.Levels})
	}
	schema, err := dataset.NewSchema(columns...)
	if err != nil {
		return nil, err
	}

	b := dataset.NewBuilder(schema)
	var row []types.Value
	flush := func() error {
		if row == nil {
			return nil
		}
		return b.Append(row...)
	}
	for i := 0; i < long.Len(); i++ {
		key := long.Value(i, 0)
		if row == nil || !types.Equal(row[0], key) {
			if err := flush(); err != nil {
				return nil, err
			}
			row = make([]types.Value, len(columns))
			row[0] = key
			for j := 1; j < len(row); j++ {
				row[j] = types.NewNullValue()
			}
		}
		row[1+columnOf[types.Format(long.Value(i, 1))]] = long.Value(i, 2)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	return b.Dataset(), nil
}

// Ddply summarizes ds by the given keys, with rows sorted by key.
func Ddply(ds *dataset.Dataset, keys []string, aggs []aggregate.Aggregation) (*dataset.Dataset, error) {
	return aggregate.Aggregate(ds, keys, aggs, aggregate.WithSortedGroups())
}

// Formula is a model formula of the form responses ~ terms.
type Formula struct {
	Responses []string
	// AllResponses is set by a dot on the left side: every column that is not a term.
	AllResponses bool
	Terms        []string
	// AllTerms is set by a dot on the right side: every column that is not a response.
	AllTerms bool
}

func (f Formula) String() string {
	var sb strings.Builder
	switch {
	case f.AllResponses:
		sb.WriteString(".")
	case len(f.Responses) == 1:
		sb.WriteString(f.Responses[0])
	default:
		sb.WriteString("cbind(" + strings.Join(f.Responses, ", ") + ")")
	}
	sb.WriteString(" ~ ")
	if f.AllTerms {
		sb.WriteString(".")
	} else {
		sb.WriteString(strings.Join(f.Terms, " + "))
	}
	return sb.String()
}

// resolve expands dots against the schema.
func (f Formula) resolve(s *dataset.Schema) (responses, terms []string, err error) {
	if f.AllResponses && f.AllTerms {
		return nil, nil, errors.New("formula cannot have dots on both sides")
	}

	others := func(exclude []string) []string {
		var names []string
		for _, n := range s.Names() {
			if !slices.Contains(exclude, n) {
				names = append(names, n)
			}
		}
		return names
	}

	responses, terms = f.Responses, f.Terms
	if f.AllResponses {
		responses = others(terms)
	}
	if f.AllTerms {
		terms = others(responses)
	}
	if len(responses) == 0 || len(terms) == 0 {
		return nil, nil, errors.Newf("formula %s has an empty side", f)
	}
	return responses, terms, nil
}

// AggregateFormula applies the reducer to each response within each
// combination of the terms. Rows with a missing value in any column of
// the formula are dropped first. Rows are sorted with the first term
// varying fastest.
func AggregateFormula(ds *dataset.Dataset, f Formula, r aggregate.Reducer) (*dataset.Dataset, error) {
	responses, terms, err := f.resolve(ds.Schema())
	if err != nil {
		return nil, err
	}

	ds, err = omitMissing(ds, append(append([]string(nil), responses...), terms...))
	if err != nil {
		return nil, err
	}

	aggs := make([]aggregate.Aggregation, len(responses))
	for i, y := range responses {
		aggs[i] = aggregate.Aggregation{Name: y, Column: y, Reducer: r, Policy: aggregate.Propagate}
	}

	res, err := aggregate.Aggregate(ds, terms, aggs)
	if err != nil {
		return nil, err
	}

	orderings := make([]dataset.Ordering, len(terms))
	for i, t := range terms {
		orderings[len(terms)-1-i] = dataset.Ordering{Expr: expr.Column(t)}
	}
	return res.Arrange(orderings...)
}

// omitMissing drops the rows holding a missing value in any of the columns.
func omitMissing(ds *dataset.Dataset, columns []string) (*dataset.Dataset, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		var err error
		if idx[i], _, err = ds.Schema().Lookup(c); err != nil {
			return nil, err
		}
	}

	keep := make([]int, 0, ds.Len())
rows:
	for i := 0; i < ds.Len(); i++ {
		for _, c := range idx {
			if types.IsNull(ds.Value(i, c)) {
				continue rows
			}
		}
		keep = append(keep, i)
	}

	if len(keep) == ds.Len() {
		return ds, nil
	}
	return ds.Take(keep), nil
}

func sortValues(values []types.Value) {
	sort.SliceStable(values, func(i, j int) bool {
		c, err := types.Compare(values[i], values[j])
		return err == nil && c < 0
	})
}
