package loader

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/multierr"
)

const snapshotVersion = 1

// snapshot is the msgpack representation of a dataset. Each column
// stores its values in the slice matching its type, and a validity
// slice marking the missing ones.
type snapshot struct {
	Version int              `msgpack:"version"`
	Rows    int              `msgpack:"rows"`
	Columns []snapshotColumn `msgpack:"columns"`
}

type snapshotColumn struct {
	Name    string    `msgpack:"name"`
	Type    string    `msgpack:"type"`
	Levels  []string  `msgpack:"levels,omitempty"`
	Ordered bool      `msgpack:"ordered,omitempty"`
	Valid   []bool    `msgpack:"valid"`
	Bools   []bool    `msgpack:"bools,omitempty"`
	Ints    []int64   `msgpack:"ints,omitempty"`
	Floats  []float64 `msgpack:"floats,omitempty"`
	Strings []string  `msgpack:"strings,omitempty"`
	Codes   []int32   `msgpack:"codes,omitempty"`
	Times   []int64   `msgpack:"times,omitempty"`
}

// WriteSnapshot encodes ds to w.
func WriteSnapshot(w io.Writer, ds *dataset.Dataset) error {
	snap := snapshot{
		Version: snapshotVersion,
		Rows:    ds.Len(),
		Columns: make([]snapshotColumn, ds.Schema().Len()),
	}

	for j, c := range ds.Schema().Columns() {
		sc := snapshotColumn{
			Name:  c.Name,
			Type:  c.Type.String(),
			Valid: make([]bool, ds.Len()),
		}
		if c.Levels != nil {
			sc.Levels = c.Levels.Labels()
			sc.Ordered = c.Levels.Ordered()
		}

		for i := 0; i < ds.Len(); i++ {
			v := ds.Value(i, j)
			sc.Valid[i] = !types.IsNull(v)

			switch c.Type {
			case types.TypeBoolean:
				sc.Bools = append(sc.Bools, sc.Valid[i] && types.AsBool(v))
			case types.TypeInteger:
				var x int64
				if sc.Valid[i] {
					x = types.AsInt64(v)
				}
				sc.Ints = append(sc.Ints, x)
			case types.TypeDouble:
				var x float64
				if sc.Valid[i] {
					x = types.AsFloat64(v)
				}
				sc.Floats = append(sc.Floats, x)
			case types.TypeText:
				var s string
				if sc.Valid[i] {
					s = types.AsString(v)
				}
				sc.Strings = append(sc.Strings, s)
			case types.TypeFactor:
				var code int32
				if sc.Valid[i] {
					code = int32(v.(types.FactorValue).Code())
				}
				sc.Codes = append(sc.Codes, code)
			case types.TypeTimestamp:
				var t int64
				if sc.Valid[i] {
					t = types.AsTime(v).UnixMicro()
				}
				sc.Times = append(sc.Times, t)
			default:
				return errors.Errorf("cannot snapshot %s column %q", c.Type, c.Name)
			}
		}

		snap.Columns[j] = sc
	}

	return msgpack.NewEncoder(w).Encode(&snap)
}

// ReadSnapshot decodes a dataset written by WriteSnapshot.
func ReadSnapshot(r io.Reader) (*dataset.Dataset, error) {
	var snap snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return nil, errors.Wrap(err, "invalid snapshot")
	}
	if snap.Version != snapshotVersion {
		return nil, errors.Errorf("unsupported snapshot version %d", snap.Version)
	}

	columns := make([]dataset.Column, len(snap.Columns))
	values := make([][]types.Value, len(snap.Columns))
	for j, sc := range snap.Columns {
		t, err := types.ParseType(sc.Type)
		if err != nil {
			return nil, err
		}
		c := dataset.Column{Name: sc.Name, Type: t}
		if t == types.TypeFactor {
			if c.Levels, err = types.NewLevels(sc.Levels, sc.Ordered); err != nil {
				return nil, err
			}
		}
		if len(sc.Valid) != snap.Rows {
			return nil, errors.Wrapf(dataset.ErrLengthMismatch, "column %q", sc.Name)
		}

		col := make([]types.Value, snap.Rows)
		for i := range col {
			if !sc.Valid[i] {
				col[i] = types.NewNullValue()
				continue
			}

			var v types.Value
			switch {
			case t == types.TypeBoolean && i < len(sc.Bools):
				v = types.NewBooleanValue(sc.Bools[i])
			case t == types.TypeInteger && i < len(sc.Ints):
				v = types.NewIntegerValue(sc.Ints[i])
			case t == types.TypeDouble && i < len(sc.Floats):
				v = types.NewDoubleValue(sc.Floats[i])
			case t == types.TypeText && i < len(sc.Strings):
				v = types.NewTextValue(sc.Strings[i])
			case t == types.TypeFactor && i < len(sc.Codes) && int(sc.Codes[i]) < c.Levels.Len():
				v = types.NewTextValue(c.Levels.Label(int(sc.Codes[i])))
			case t == types.TypeTimestamp && i < len(sc.Times):
				v = types.NewTimestampValue(time.UnixMicro(sc.Times[i]))
			default:
				return nil, errors.Errorf("corrupted snapshot column %q at row %d", sc.Name, i+1)
			}
			col[i] = v
		}

		columns[j], values[j] = c, col
	}

	schema, err := dataset.NewSchema(columns...)
	if err != nil {
		return nil, err
	}
	return dataset.New(schema, values)
}

// SaveSnapshot writes ds to path, compressed if the path ends
// with .gz or .zst.
func SaveSnapshot(path string, ds *dataset.Dataset) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	var w io.WriteCloser
	switch {
	case strings.HasSuffix(path, ".gz"):
		w = gzip.NewWriter(f)
	case strings.HasSuffix(path, ".zst"):
		if w, err = zstd.NewWriter(f); err != nil {
			return err
		}
	default:
		return WriteSnapshot(f, ds)
	}

	if err := WriteSnapshot(w, ds); err != nil {
		return multierr.Append(err, w.Close())
	}
	return w.Close()
}
