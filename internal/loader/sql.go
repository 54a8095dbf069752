package loader

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/row"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/mattn/go-sqlite3"
)

// SQLDrivers lists the database/sql drivers LoadSQL can use.
var SQLDrivers = []string{"duckdb", "sqlite3"}

// LoadSQL runs query against the database and returns its result set.
func LoadSQL(ctx context.Context, driver, dsn, query string, opts Options) (*dataset.Dataset, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.WithHintf(err, "supported drivers are %v", SQLDrivers)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	columns := make([][]types.Value, len(names))
	dest := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range dest {
		ptrs[i] = &dest[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		for i, x := range dest {
			v, err := sqlValue(x)
			if err != nil {
				return nil, errors.Wrapf(err, "column %q", names[i])
			}
			columns[i] = append(columns[i], v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ds, err := dataset.FromColumns(names, columns)
	if err != nil {
		return nil, err
	}

	opts.Logger.Debug().Str("driver", driver).Int("rows", ds.Len()).Msg("Loaded query result")
	return asFactors(ds, opts.Factors)
}

// sqlValue converts a value returned by a driver.
func sqlValue(x any) (types.Value, error) {
	switch v := x.(type) {
	case int8:
		return types.NewIntegerValue(int64(v)), nil
	case int16:
		return types.NewIntegerValue(int64(v)), nil
	case uint8:
		return types.NewIntegerValue(int64(v)), nil
	case uint16:
		return types.NewIntegerValue(int64(v)), nil
	case uint32:
		return types.NewIntegerValue(int64(v)), nil
	case uint64:
		if v > math.MaxInt64 {
			return types.NewDoubleValue(float64(v)), nil
		}
		return types.NewIntegerValue(int64(v)), nil
	case float32:
		return types.NewDoubleValue(float64(v)), nil
	case interface{ Float64() float64 }:
		// decimals
		return types.NewDoubleValue(v.Float64()), nil
	}

	val, err := row.NewValue(x)
	if err != nil {
		// unknown driver types are kept as text
		return types.NewTextValue(fmt.Sprint(x)), nil
	}
	return val, nil
}
