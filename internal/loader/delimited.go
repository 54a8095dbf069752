package loader

import (
	"context"
	"encoding/csv"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
)

// inferenceOrder is the order in which column types are tried.
var inferenceOrder = []types.Type{
	types.TypeBoolean,
	types.TypeInteger,
	types.TypeDouble,
	types.TypeTimestamp,
	types.TypeText,
}

// readDelimited reads a file with a header row. Each column gets the
// first type of inferenceOrder able to parse all of its fields.
func readDelimited(ctx context.Context, r io.Reader, comma rune, opts *Options) (*dataset.Dataset, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, err
	}
	header = slices.Clone(header)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	fields := make([][]string, len(header))
	for n := 0; ; n++ {
		if n%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for i, f := range record {
			fields[i] = append(fields[i], f)
		}
	}

	na := opts.naStrings()
	columns := make([]dataset.Column, len(header))
	values := make([][]types.Value, len(header))
	for i, name := range header {
		t, ok := opts.Types[name]
		if !ok {
			t = inferType(fields[i], na)
		}

		columns[i], values[i], err = parseColumn(name, t, fields[i], na)
		if err != nil {
			return nil, err
		}
	}

	schema, err := dataset.NewSchema(columns...)
	if err != nil {
		return nil, err
	}
	return dataset.New(schema, values)
}

func inferType(fields []string, na []string) types.Type {
	var present []string
	for _, f := range fields {
		if !slices.Contains(na, f) {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return types.TypeBoolean
	}

	for _, t := range inferenceOrder {
		ok := true
		for _, f := range present {
			if _, ok = parseField(t, f); !ok {
				break
			}
		}
		if ok {
			return t
		}
	}
	return types.TypeText
}

func parseColumn(name string, t types.Type, fields []string, na []string) (dataset.Column, []types.Value, error) {
	c := dataset.Column{Name: name, Type: t}
	parseAs := t
	if t == types.TypeFactor {
		parseAs = types.TypeText
	}

	values := make([]types.Value, len(fields))
	for i, f := range fields {
		if slices.Contains(na, f) {
			values[i] = types.NewNullValue()
			continue
		}

		v, ok := parseField(parseAs, f)
		if !ok {
			return c, nil, errors.Wrapf(types.ErrTypeMismatch, "column %q, row %d: cannot parse %q as %s", name, i+1, f, t)
		}
		values[i] = v
	}

	if t == types.TypeFactor {
		levels, err := types.NewLevels(dataset.FactorLevels(values), false)
		if err != nil {
			return c, nil, err
		}
		c.Levels = levels
	}
	return c, values, nil
}

func parseField(t types.Type, f string) (types.Value, bool) {
	switch t {
	case types.TypeBoolean:
		switch f {
		case "TRUE", "True", "true", "T":
			return types.NewBooleanValue(true), true
		case "FALSE", "False", "false", "F":
			return types.NewBooleanValue(false), true
		}
	case types.TypeInteger:
		if i, err := strconv.ParseInt(f, 10, 64); err == nil {
			return types.NewIntegerValue(i), true
		}
	case types.TypeDouble:
		if x, err := strconv.ParseFloat(f, 64); err == nil {
			return types.NewDoubleValue(x), true
		}
	case types.TypeTimestamp:
		if tm, err := types.ParseTimestamp(f); err == nil {
			return types.NewTimestampValue(tm), true
		}
	case types.TypeText:
		return types.NewTextValue(f), true
	}
	return nil, false
}
