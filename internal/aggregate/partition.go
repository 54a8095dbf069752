package aggregate

import (
	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/types"
)

// Partition is a maximal set of rows sharing one group key.
type Partition struct {
	// Key holds the group key values, in key order.
	Key []types.Value
	// Rows are the row positions in the dataset, ascending.
	Rows []int
}

// A Partitioner splits a dataset into partitions by the given key columns.
// It calls fn once per partition, in order of first appearance of the keys,
// and stops at the first error. Partitions are disjoint and cover every row.
// Missing values in key columns form their own group.
type Partitioner interface {
	Partition(ds *dataset.Dataset, keys []int, fn func(p Partition) error) error
}

// partition handles the degenerate case of an empty key: the whole dataset,
// even empty, is a single partition.
func partition(p Partitioner, ds *dataset.Dataset, keys []int, fn func(p Partition) error) error {
	if len(keys) > 0 {
		return p.Partition(ds, keys, fn)
	}

	rows := make([]int, ds.Len())
	for i := range rows {
		rows[i] = i
	}
	return fn(Partition{Rows: rows})
}

func keyValues(ds *dataset.Dataset, i int, keys []int) []types.Value {
	values := make([]types.Value, len(keys))
	for k, c := range keys {
		values[k] = ds.Value(i, c)
	}
	return values
}

// MemoryPartitioner groups rows with a hash map keyed by the encoded key tuple.
type MemoryPartitioner struct{}

func (MemoryPartitioner) Partition(ds *dataset.Dataset, keys []int, fn func(p Partition) error) error {
	index := make(map[string]int)
	var groups [][]int
	var buf []byte

	for i := 0; i < ds.Len(); i++ {
		buf = ds.EncodeKey(buf[:0], i, keys)
		g, ok := index[string(buf)]
		if !ok {
			g = len(groups)
			index[string(buf)] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}

	for _, rows := range groups {
		if err := fn(Partition{Key: keyValues(ds, rows[0], keys), Rows: rows}); err != nil {
			return err
		}
	}

	return nil
}
