// Package datasets bundles the sample datasets used in the documentation.
//
// flights is a sample of departures from the New York airports in 2013.
// Cancelled flights have missing dep_time, dep_delay, arr_delay and air_time.
// housing lists dwelling sales of four Norwegian cities, with city and type
// stored as factors.
package datasets

import (
	"bytes"
	"context"
	"embed"
	"sort"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/loader"
	"github.com/cockroachdb/errors"
)

// ErrUnknownDataset is returned when loading a dataset that doesn't exist.
var ErrUnknownDataset = errors.New("unknown dataset")

//go:embed data/*.csv
var files embed.FS

var factors = map[string][]string{
	"flights": nil,
	"housing": {"city", "type"},
}

var (
	mu    sync.Mutex
	cache = make(map[string]*dataset.Dataset)
)

// Names returns the names of the bundled datasets, sorted.
func Names() []string {
	names := make([]string, 0, len(factors))
	for name := range factors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load returns the bundled dataset with the given name.
// Datasets are parsed once and shared, which is safe since they are immutable.
func Load(name string) (*dataset.Dataset, error) {
	mu.Lock()
	defer mu.Unlock()

	if ds, ok := cache[name]; ok {
		return ds, nil
	}

	f, ok := factors[name]
	if !ok {
		err := errors.Wrapf(ErrUnknownDataset, "%q", name)
		for _, n := range Names() {
			if levenshtein.ComputeDistance(name, n) <= len(name)/3+1 {
				return nil, errors.WithHintf(err, "did you mean %s?", n)
			}
		}
		return nil, err
	}

	data, err := files.ReadFile("data/" + name + ".csv")
	if err != nil {
		return nil, err
	}

	ds, err := loader.Load(context.Background(), bytes.NewReader(data), loader.FormatCSV, loader.Options{Factors: f})
	if err != nil {
		return nil, errors.Wrapf(err, "dataset %q", name)
	}

	cache[name] = ds
	return ds, nil
}
