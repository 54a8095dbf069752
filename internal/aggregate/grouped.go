package aggregate

import (
	"sort"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
)

// Grouped is a dataset together with its partitioning by a set of key columns.
type Grouped struct {
	ds     *dataset.Dataset
	keys   []string
	keyIdx []int
	groups []Partition
}

// GroupBy partitions ds by the given key columns. Groups are kept in
// order of first appearance of their key.
func GroupBy(ds *dataset.Dataset, keys ...string) (*Grouped, error) {
	g := Grouped{
		ds:     ds,
		keys:   keys,
		keyIdx: make([]int, len(keys)),
	}

	seen := make(map[string]struct{}, len(keys))
	for i, k := range keys {
		if _, ok := seen[k]; ok {
			return nil, errors.Wrapf(dataset.ErrDuplicateColumn, "group key %q", k)
		}
		seen[k] = struct{}{}

		idx, _, err := ds.Schema().Lookup(k)
		if err != nil {
			return nil, err
		}
		g.keyIdx[i] = idx
	}

	err := partition(MemoryPartitioner{}, ds, g.keyIdx, func(p Partition) error {
		g.groups = append(g.groups, p)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &g, nil
}

// Dataset returns the underlying dataset.
func (g *Grouped) Dataset() *dataset.Dataset {
	return g.ds
}

// Keys returns the names of the key columns.
func (g *Grouped) Keys() []string {
	return append([]string(nil), g.keys...)
}

// Len returns the number of groups.
func (g *Grouped) Len() int {
	return len(g.groups)
}

// Groups returns the groups in order of first appearance.
func (g *Grouped) Groups() []Partition {
	return append([]Partition(nil), g.groups...)
}

// Summarize computes one row per group. See Aggregate.
// When WithSpill applies to the dataset, the groups are partitioned
// again through the spill store.
func (g *Grouped) Summarize(aggs []Aggregation, opts ...Option) (*dataset.Dataset, error) {
	p, err := compile(g.ds.Schema(), g.keys, aggs)
	if err != nil {
		return nil, err
	}

	o := newOptions(opts)
	if part, ok := o.partitioner(g.ds.Len()).(SpillPartitioner); ok {
		return p.run(g.ds, func(fn func(Partition) error) error {
			return partition(part, g.ds, p.keys, fn)
		}, &o)
	}

	return p.run(g.ds, func(fn func(Partition) error) error {
		for _, part := range g.groups {
			if err := fn(part); err != nil {
				return err
			}
		}
		return nil
	}, &o)
}

// Count returns the number of rows of each group in a column named n.
// If a key is already named n, the column is named nn.
func (g *Grouped) Count(opts ...Option) (*dataset.Dataset, error) {
	name := "n"
	for _, k := range g.keys {
		if k == name {
			name = "nn"
		}
	}
	return g.Summarize([]Aggregation{{Name: name, Reducer: Count()}}, opts...)
}

// SliceMin keeps, in each group, the rows holding the n smallest values of
// the column, in increasing order. Missing values are never selected.
// With ties, every row tied with the n-th value is kept, so a group may
// keep more than n rows.
func (g *Grouped) SliceMin(column string, n int, withTies bool) (*Grouped, error) {
	return g.slice(column, n, withTies, false)
}

// SliceMax is like SliceMin with the largest values, in decreasing order.
func (g *Grouped) SliceMax(column string, n int, withTies bool) (*Grouped, error) {
	return g.slice(column, n, withTies, true)
}

func (g *Grouped) slice(column string, n int, withTies, desc bool) (*Grouped, error) {
	if n < 0 {
		return nil, errors.Wrapf(ErrInvalidReducerInput, "slice size %d is negative", n)
	}

	col, c, err := g.ds.Schema().Lookup(column)
	if err != nil {
		return nil, err
	}
	if c.Type == types.TypeFactor && !c.Levels.Ordered() {
		return nil, errors.Wrapf(types.ErrTypeMismatch, "cannot rank unordered factor %q", column)
	}

	out := Grouped{keys: g.keys, keyIdx: g.keyIdx}
	var indices []int

	for _, part := range g.groups {
		rows := make([]int, 0, len(part.Rows))
		for _, i := range part.Rows {
			if !types.IsNull(g.ds.Value(i, col)) {
				rows = append(rows, i)
			}
		}

		cmp := func(a, b int) int {
			r, _ := types.Compare(g.ds.Value(a, col), g.ds.Value(b, col))
			if desc {
				return -r
			}
			return r
		}
		sort.SliceStable(rows, func(a, b int) bool {
			return cmp(rows[a], rows[b]) < 0
		})

		keep := n
		if keep > len(rows) {
			keep = len(rows)
		}
		if withTies && keep > 0 {
			// min rank: a row is kept if fewer than n rows sort strictly before it.
			for keep < len(rows) && cmp(rows[keep], rows[keep-1]) == 0 {
				keep++
			}
		}
		if keep == 0 {
			continue
		}

		selected := make([]int, keep)
		for j := range selected {
			selected[j] = len(indices) + j
		}
		indices = append(indices, rows[:keep]...)
		out.groups = append(out.groups, Partition{Key: part.Key, Rows: selected})
	}

	out.ds = g.ds.Take(indices)
	return &out, nil
}
