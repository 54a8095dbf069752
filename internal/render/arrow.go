package render

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
)

var allocator = memory.NewGoAllocator()

// ArrowSchema returns the arrow schema of ds. Factors are stored as
// strings and timestamps with a microsecond precision.
func ArrowSchema(s *dataset.Schema) (*arrow.Schema, error) {
	fields := make([]arrow.Field, s.Len())
	for i, c := range s.Columns() {
		var t arrow.DataType
		switch c.Type {
		case types.TypeBoolean:
			t = arrow.FixedWidthTypes.Boolean
		case types.TypeInteger:
			t = arrow.PrimitiveTypes.Int64
		case types.TypeDouble:
			t = arrow.PrimitiveTypes.Float64
		case types.TypeTimestamp:
			t = arrow.FixedWidthTypes.Timestamp_us
		case types.TypeText, types.TypeFactor:
			t = arrow.BinaryTypes.String
		default:
			return nil, errors.Errorf("column %q: unsupported type %s", c.Name, c.Type)
		}
		fields[i] = arrow.Field{Name: c.Name, Type: t, Nullable: true}
	}
	return arrow.NewSchema(fields, nil), nil
}

// Record converts ds into an arrow record. The caller must release it.
func Record(ds *dataset.Dataset) (arrow.Record, error) {
	schema, err := ArrowSchema(ds.Schema())
	if err != nil {
		return nil, err
	}

	b := array.NewRecordBuilder(allocator, schema)
	defer b.Release()

	for j := range schema.Fields() {
		fb := b.Field(j)
		fb.Reserve(ds.Len())

		for i := 0; i < ds.Len(); i++ {
			v := ds.Value(i, j)
			if types.IsNull(v) {
				fb.AppendNull()
				continue
			}

			switch fb := fb.(type) {
			case *array.BooleanBuilder:
				fb.Append(types.AsBool(v))
			case *array.Int64Builder:
				fb.Append(types.AsInt64(v))
			case *array.Float64Builder:
				fb.Append(types.AsFloat64(v))
			case *array.TimestampBuilder:
				fb.Append(arrow.Timestamp(types.AsTime(v).UnixMicro()))
			case *array.StringBuilder:
				fb.Append(types.AsString(v))
			}
		}
	}

	return b.NewRecord(), nil
}

// Parquet writes ds as a snappy compressed Parquet file.
func Parquet(w io.Writer, ds *dataset.Dataset) error {
	rec, err := Record(ds)
	if err != nil {
		return err
	}
	defer rec.Release()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithStats(true),
	)
	writer, err := pqarrow.NewFileWriter(rec.Schema(), w, props, pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		return errors.Wrap(err, "failed to create Parquet writer")
	}

	if err := writer.Write(rec); err != nil {
		writer.Close()
		return errors.Wrap(err, "failed to write record batch")
	}
	return writer.Close()
}

// Arrow writes ds as an Arrow IPC stream.
func Arrow(w io.Writer, ds *dataset.Dataset) error {
	rec, err := Record(ds)
	if err != nil {
		return err
	}
	defer rec.Release()

	writer := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()), ipc.WithAllocator(allocator))
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}
