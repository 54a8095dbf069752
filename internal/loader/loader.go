// Package loader reads datasets from delimited text, JSON, SQL databases
// and msgpack snapshots.
package loader

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownFormat is returned when the format of a file cannot be determined.
var ErrUnknownFormat = errors.New("unknown dataset format")

// Format of a dataset file.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatCSV
	FormatTSV
	FormatJSON
	FormatSnapshot
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatTSV:
		return "tsv"
	case FormatJSON:
		return "json"
	case FormatSnapshot:
		return "tally"
	}
	return "unknown"
}

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "csv":
		return FormatCSV, nil
	case "tsv", "tab":
		return FormatTSV, nil
	case "json", "jsonl", "ndjson":
		return FormatJSON, nil
	case "tally", "snapshot", "msgpack":
		return FormatSnapshot, nil
	}
	return FormatUnknown, errors.Wrapf(ErrUnknownFormat, "%q", s)
}

// FormatFromPath guesses the format from the file extension,
// ignoring a trailing .gz or .zst.
func FormatFromPath(path string) Format {
	name := strings.ToLower(filepath.Base(path))
	name = strings.TrimSuffix(name, ".gz")
	name = strings.TrimSuffix(name, ".zst")

	switch filepath.Ext(name) {
	case ".csv":
		return FormatCSV
	case ".tsv", ".tab":
		return FormatTSV
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON
	case ".tally", ".msgpack":
		return FormatSnapshot
	}
	return FormatUnknown
}

// DefaultNAStrings are the fields read as missing values in delimited files.
var DefaultNAStrings = []string{"NA", ""}

// Options control how datasets are read.
type Options struct {
	// Format overrides the format guessed from the file name.
	Format Format
	// NAStrings are the fields read as missing values. Defaults to DefaultNAStrings.
	NAStrings []string
	// Factors lists the text columns to convert to factors with sorted levels.
	Factors []string
	// Types overrides the inferred type of delimited columns.
	Types  map[string]types.Type
	Logger zerolog.Logger
}

func (o *Options) naStrings() []string {
	if o.NAStrings == nil {
		return DefaultNAStrings
	}
	return o.NAStrings
}

// Open reads the dataset stored at path.
func Open(ctx context.Context, path string, opts Options) (*dataset.Dataset, error) {
	format := opts.Format
	if format == FormatUnknown {
		format = FormatFromPath(path)
	}
	if format == FormatUnknown {
		return nil, errors.WithHint(errors.Wrapf(ErrUnknownFormat, "%s", path), "use one of the .csv, .tsv, .jsonl or .tally extensions")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ds, err := Load(ctx, f, format, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}

	opts.Logger.Debug().
		Str("path", path).
		Stringer("format", format).
		Int("rows", ds.Len()).
		Int("columns", ds.Schema().Len()).
		Msg("Loaded dataset")
	return ds, nil
}

// Load reads a dataset of the given format from r. Gzip and zstd
// compressed input is detected from its magic bytes.
func Load(ctx context.Context, r io.Reader, format Format, opts Options) (*dataset.Dataset, error) {
	r, closeFn, err := decompress(r)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	var ds *dataset.Dataset
	switch format {
	case FormatCSV:
		ds, err = readDelimited(ctx, r, ',', &opts)
	case FormatTSV:
		ds, err = readDelimited(ctx, r, '\t', &opts)
	case FormatJSON:
		ds, err = readJSON(ctx, r)
	case FormatSnapshot:
		ds, err = ReadSnapshot(r)
	default:
		return nil, errors.Wrapf(ErrUnknownFormat, "%s", format)
	}
	if err != nil {
		return nil, err
	}

	return asFactors(ds, opts.Factors)
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

func decompress(r io.Reader) (io.Reader, func(), error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(4)

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, errors.Wrap(err, "invalid gzip stream")
		}
		return zr, func() { _ = zr.Close() }, nil
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, errors.Wrap(err, "invalid zstd stream")
		}
		return zr, zr.Close, nil
	}

	return br, func() {}, nil
}

// asFactors converts the named text columns to factors with sorted levels.
func asFactors(ds *dataset.Dataset, names []string) (*dataset.Dataset, error) {
	for _, name := range names {
		_, c, err := ds.Schema().Lookup(name)
		if err != nil {
			return nil, err
		}
		if c.Type == types.TypeFactor {
			continue
		}
		if c.Type != types.TypeText {
			return nil, errors.Wrapf(types.ErrTypeMismatch, "cannot convert %s column %q to a factor", c.Type, name)
		}

		values, err := ds.Values(name)
		if err != nil {
			return nil, err
		}
		levels, err := types.NewLevels(dataset.FactorLevels(values), false)
		if err != nil {
			return nil, err
		}

		c = dataset.Column{Name: name, Type: types.TypeFactor, Levels: levels}
		factors := make([]types.Value, len(values))
		for i, v := range values {
			if factors[i], err = dataset.Coerce(c, v); err != nil {
				return nil, err
			}
		}
		if ds, err = ds.WithColumn(c, factors); err != nil {
			return nil, err
		}
	}

	return ds, nil
}

// OpenAll reads the datasets concurrently. Paths are keyed by dataset name.
func OpenAll(ctx context.Context, paths map[string]string, opts Options) (map[string]*dataset.Dataset, error) {
	type result struct {
		name string
		ds   *dataset.Dataset
	}
	results := make(chan result, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for name, path := range paths {
		g.Go(func() error {
			ds, err := Open(ctx, path, opts)
			if err != nil {
				return errors.Wrapf(err, "dataset %q", name)
			}
			results <- result{name, ds}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(results)

	all := make(map[string]*dataset.Dataset, len(paths))
	for r := range results {
		all[r.name] = r.ds
	}
	return all, nil
}
