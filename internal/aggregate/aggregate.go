package aggregate

import (
	"sort"
	"time"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

type options struct {
	sorted         bool
	spill          bool
	spillThreshold int
	spillDir       string
	logger         zerolog.Logger
}

// An Option configures Aggregate and Grouped.Summarize.
type Option func(*options)

// WithSortedGroups sorts the result rows by their key values instead of
// the order of first appearance. Missing keys sort last.
func WithSortedGroups() Option {
	return func(o *options) {
		o.sorted = true
	}
}

// WithSpill stores the partition index in a transient pebble store when
// the dataset has at least threshold rows. If dir is empty the store is
// kept in memory.
func WithSpill(threshold int, dir string) Option {
	return func(o *options) {
		o.spill = true
		o.spillThreshold = threshold
		o.spillDir = dir
	}
}

// WithLogger sets the logger used to report partitioning activity.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) options {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o *options) partitioner(n int) Partitioner {
	if o.spill && n >= o.spillThreshold {
		return SpillPartitioner{Dir: o.spillDir, Logger: o.logger}
	}
	return MemoryPartitioner{}
}

// plan is a validated aggregation request.
type plan struct {
	keys   []int
	aggs   []step
	schema *dataset.Schema
}

type step struct {
	agg Aggregation
	// col is the position of the source column, -1 for row counts.
	col int
}

// compile validates the request against the schema. The order of the
// checks determines which error is reported when several apply.
func compile(s *dataset.Schema, keys []string, aggs []Aggregation) (*plan, error) {
	if len(aggs) == 0 {
		return nil, ErrNoAggregations
	}

	names := make(map[string]struct{}, len(aggs))
	for _, a := range aggs {
		if a.Name == "" {
			return nil, errors.New("aggregation without output name")
		}
		if _, ok := names[a.Name]; ok {
			return nil, errors.Wrapf(ErrDuplicateOutputName, "%q", a.Name)
		}
		names[a.Name] = struct{}{}
	}

	for _, a := range aggs {
		if a.Reducer == nil {
			return nil, errors.Newf("aggregation %q has no reducer", a.Name)
		}
		if a.Column == "" {
			continue
		}
		switch a.Policy {
		case Propagate, SkipMissing:
		case PolicyUnset:
			return nil, errors.Wrapf(ErrMissingPolicy, "%s(%s)", a.Reducer.Name(), a.Column)
		default:
			return nil, errors.Newf("invalid missing value policy %d", a.Policy)
		}
	}

	p := plan{
		keys: make([]int, len(keys)),
		aggs: make([]step, len(aggs)),
	}
	seen := make(map[string]struct{}, len(keys))
	for i, k := range keys {
		if _, ok := seen[k]; ok {
			return nil, errors.Wrapf(dataset.ErrDuplicateColumn, "group key %q", k)
		}
		seen[k] = struct{}{}

		idx, _, err := s.Lookup(k)
		if err != nil {
			return nil, err
		}
		p.keys[i] = idx
	}
	for i, a := range aggs {
		p.aggs[i] = step{agg: a, col: -1}
		if a.Column == "" {
			continue
		}
		idx, _, err := s.Lookup(a.Column)
		if err != nil {
			return nil, err
		}
		p.aggs[i].col = idx
	}

	for _, a := range aggs {
		if _, ok := seen[a.Name]; ok {
			return nil, errors.Wrapf(ErrNameCollision, "%q", a.Name)
		}
	}

	columns := make([]dataset.Column, 0, len(keys)+len(aggs))
	for _, idx := range p.keys {
		columns = append(columns, s.Column(idx))
	}
	for _, st := range p.aggs {
		src := dataset.Column{Type: types.TypeAny}
		if st.col >= 0 {
			src = s.Column(st.col)
		}
		c, err := st.agg.Reducer.resultColumn(src)
		if err != nil {
			return nil, err
		}
		c.Name = st.agg.Name
		columns = append(columns, c)
	}

	schema, err := dataset.NewSchema(columns...)
	if err != nil {
		return nil, err
	}
	p.schema = schema

	return &p, nil
}

// apply reduces the values of the partition rows.
func (st *step) apply(ds *dataset.Dataset, rows []int) types.Value {
	if st.col < 0 {
		return types.NewIntegerValue(int64(len(rows)))
	}

	values := make([]types.Value, 0, len(rows))
	for _, i := range rows {
		v := ds.Value(i, st.col)
		if types.IsNull(v) {
			if st.agg.Policy == Propagate {
				return types.NewNullValue()
			}
			continue
		}
		values = append(values, v)
	}

	if len(values) == 0 {
		return st.agg.Reducer.empty()
	}
	return st.agg.Reducer.reduce(values)
}

// run reduces every partition produced by each and assembles the result table.
func (p *plan) run(ds *dataset.Dataset, each func(fn func(Partition) error) error, o *options) (*dataset.Dataset, error) {
	start := time.Now()

	var rows [][]types.Value
	err := each(func(part Partition) error {
		r := make([]types.Value, 0, len(p.keys)+len(p.aggs))
		r = append(r, part.Key...)
		for i := range p.aggs {
			r = append(r, p.aggs[i].apply(ds, part.Rows))
		}
		rows = append(rows, r)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if o.sorted {
		sortByKey(rows, len(p.keys))
	}

	b := dataset.NewBuilder(p.schema)
	for _, r := range rows {
		if err := b.Append(r...); err != nil {
			return nil, err
		}
	}

	o.logger.Debug().
		Int("rows", ds.Len()).
		Int("groups", len(rows)).
		Dur("elapsed", time.Since(start)).
		Msg("aggregated")

	return b.Dataset(), nil
}

// sortByKey sorts result rows by their first n values, missing last.
func sortByKey(rows [][]types.Value, n int) {
	sort.SliceStable(rows, func(a, b int) bool {
		for k := 0; k < n; k++ {
			c, err := types.Compare(rows[a][k], rows[b][k])
			if err != nil || c == 0 {
				continue
			}
			return c < 0
		}
		return false
	})
}

// Aggregate partitions ds by the key columns and computes one row per
// partition: the key values followed by one column per aggregation.
// Rows appear in order of first appearance of their key unless
// WithSortedGroups is used. With no keys, the whole dataset is a single
// partition and the result has exactly one row, even if ds is empty.
// Every validation error is reported before any partition is computed.
func Aggregate(ds *dataset.Dataset, keys []string, aggs []Aggregation, opts ...Option) (*dataset.Dataset, error) {
	p, err := compile(ds.Schema(), keys, aggs)
	if err != nil {
		return nil, err
	}

	o := newOptions(opts)
	part := o.partitioner(ds.Len())
	return p.run(ds, func(fn func(Partition) error) error {
		return partition(part, ds, p.keys, fn)
	}, &o)
}
