package aggregate

import (
	"context"
	"encoding/binary"
	"os"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/rs/zerolog"
)

const (
	groupPrefix byte = 'g'
	rowPrefix   byte = 'r'

	defaultSpillBatchSize = 4096
)

// SpillPartitioner keeps the partition index in a transient pebble store
// instead of memory. Group ordinals are assigned in order of first
// appearance and row entries are keyed by (ordinal, row), so iterating
// the store yields the partitions in the same order as MemoryPartitioner.
type SpillPartitioner struct {
	// Dir is the parent directory of the store. If empty, the store lives in memory.
	Dir string
	// BatchSize is the number of writes buffered before a batch is committed.
	BatchSize int
	Logger    zerolog.Logger
}

func (p SpillPartitioner) Partition(ds *dataset.Dataset, keys []int, fn func(p Partition) error) (err error) {
	db, cleanup, err := p.open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cleanup(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	batchSize := p.BatchSize
	if batchSize <= 0 {
		batchSize = defaultSpillBatchSize
	}

	var groups uint64
	var buf, gk, rk []byte
	ord := make([]byte, 8)

	batch := db.NewIndexedBatch()
	for i := 0; i < ds.Len(); i++ {
		buf = ds.EncodeKey(buf[:0], i, keys)
		gk = append(append(gk[:0], groupPrefix), buf...)

		g, found, err := lookupOrdinal(batch, gk)
		if err != nil {
			batch.Close()
			return err
		}
		if !found {
			g = groups
			groups++
			binary.BigEndian.PutUint64(ord, g)
			if err := batch.Set(gk, ord, nil); err != nil {
				batch.Close()
				return err
			}
		}

		rk = appendRowKey(rk[:0], g, i)
		if err := batch.Set(rk, nil, nil); err != nil {
			batch.Close()
			return err
		}

		if int(batch.Count()) >= batchSize {
			if err := batch.Commit(pebble.NoSync); err != nil {
				batch.Close()
				return err
			}
			batch.Close()
			batch = db.NewIndexedBatch()
		}
	}
	if err := batch.Commit(pebble.NoSync); err != nil {
		batch.Close()
		return err
	}
	batch.Close()

	p.Logger.Debug().Int("rows", ds.Len()).Uint64("groups", groups).Msg("partition index spilled")

	it := db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{rowPrefix},
		UpperBound: []byte{rowPrefix + 1},
	})
	defer it.Close()

	var cur uint64
	var rows []int
	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		err := fn(Partition{Key: keyValues(ds, rows[0], keys), Rows: rows})
		rows = nil
		return err
	}

	for it.First(); it.Valid(); it.Next() {
		k := it.Key()
		g := binary.BigEndian.Uint64(k[1:9])
		i := int(binary.BigEndian.Uint64(k[9:17]))
		if g != cur {
			if err := flush(); err != nil {
				return err
			}
			cur = g
		}
		rows = append(rows, i)
	}
	if err := it.Error(); err != nil {
		return err
	}

	return flush()
}

func lookupOrdinal(batch *pebble.Batch, key []byte) (uint64, bool, error) {
	v, closer, err := batch.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	defer closer.Close()

	return binary.BigEndian.Uint64(v), true, nil
}

func appendRowKey(dst []byte, group uint64, row int) []byte {
	dst = append(dst, rowPrefix)
	dst = binary.BigEndian.AppendUint64(dst, group)
	return binary.BigEndian.AppendUint64(dst, uint64(row))
}

// open creates the transient store with fast options.
func (p SpillPartitioner) open() (*pebble.DB, func() error, error) {
	opts := pebble.Options{
		DisableWAL: true,
		Logger:     pebbleLogger{p.Logger.With().Str("component", "spill").Logger()},
	}

	var path string
	if p.Dir == "" {
		opts.FS = vfs.NewMem()
	} else {
		var err error
		path, err = os.MkdirTemp(p.Dir, ".tally-spill-*")
		if err != nil {
			return nil, nil, errors.Wrap(err, "creating spill directory")
		}
	}

	db, err := pebble.Open(path, &opts)
	if err != nil {
		if path != "" {
			_ = os.RemoveAll(path)
		}
		return nil, nil, errors.Wrap(err, "opening spill store")
	}

	return db, func() error {
		err := db.Close()
		if path != "" {
			if rerr := os.RemoveAll(path); rerr != nil && err == nil {
				err = rerr
			}
		}
		return err
	}, nil
}

// pebbleLogger forwards pebble logs to zerolog.
type pebbleLogger struct {
	l zerolog.Logger
}

func (p pebbleLogger) Infof(format string, args ...interface{}) {
	p.l.Debug().Msgf(format, args...)
}

func (p pebbleLogger) Errorf(format string, args ...interface{}) {
	p.l.Error().Msgf(format, args...)
}

func (p pebbleLogger) Fatalf(format string, args ...interface{}) {
	p.l.Fatal().Msgf(format, args...)
}

func (p pebbleLogger) Eventf(ctx context.Context, format string, args ...interface{}) {}

func (p pebbleLogger) IsTracingEnabled(ctx context.Context) bool {
	return false
}
