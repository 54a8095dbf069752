// Package catalog keeps track of the datasets available by name:
// the bundled datasets and the ones loaded from files.
package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/datasets"
	"github.com/chaisql/tally/internal/loader"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

var (
	// ErrDatasetNotFound is returned when no dataset is registered with a given name.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrDatasetAlreadyExists is returned when registering a name twice.
	ErrDatasetAlreadyExists = errors.New("dataset already exists")
)

// Catalog maps names to datasets. Registered datasets shadow the
// bundled ones. It is safe for concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	datasets map[string]*dataset.Dataset
	sources  map[string]string
	logger   zerolog.Logger
}

func New(logger zerolog.Logger) *Catalog {
	return &Catalog{
		datasets: make(map[string]*dataset.Dataset),
		sources:  make(map[string]string),
		logger:   logger,
	}
}

// Register adds ds under name.
func (c *Catalog) Register(name string, ds *dataset.Dataset) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.datasets[name]; ok {
		return errors.Wrapf(ErrDatasetAlreadyExists, "%q", name)
	}
	c.datasets[name] = ds
	return nil
}

// Replace adds ds under name, replacing any dataset with the same name.
func (c *Catalog) Replace(name string, ds *dataset.Dataset) {
	c.mu.Lock()
	c.datasets[name] = ds
	delete(c.sources, name)
	c.mu.Unlock()
}

// Drop removes a registered dataset. Bundled datasets cannot be dropped.
func (c *Catalog) Drop(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.datasets[name]; !ok {
		return errors.Wrapf(ErrDatasetNotFound, "%q", name)
	}
	delete(c.datasets, name)
	delete(c.sources, name)
	return nil
}

// Get returns the dataset registered under name, or the bundled
// dataset with that name.
func (c *Catalog) Get(name string) (*dataset.Dataset, error) {
	c.mu.RLock()
	ds, ok := c.datasets[name]
	c.mu.RUnlock()
	if ok {
		return ds, nil
	}

	ds, err := datasets.Load(name)
	if errors.Is(err, datasets.ErrUnknownDataset) {
		err = errors.Wrapf(ErrDatasetNotFound, "%q", name)
		if guess := c.closest(name); guess != "" {
			err = errors.WithHintf(err, "did you mean %s?", guess)
		}
		return nil, err
	}
	return ds, err
}

// Source returns the path a dataset was loaded from, or an empty string
// for bundled and in-memory datasets.
func (c *Catalog) Source(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sources[name]
}

// Names returns the names of every available dataset, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.datasets))
	for name := range c.datasets {
		names = append(names, name)
	}
	for _, name := range datasets.Names() {
		if _, ok := c.datasets[name]; !ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Open loads the file at path and registers it under name,
// replacing any previous dataset with the same name.
func (c *Catalog) Open(ctx context.Context, name, path string, opts loader.Options) (*dataset.Dataset, error) {
	ds, err := loader.Open(ctx, path, opts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.datasets[name] = ds
	c.sources[name] = path
	c.mu.Unlock()

	c.logger.Debug().Str("dataset", name).Str("path", path).Int("rows", ds.Len()).Msg("dataset loaded")
	return ds, nil
}

// OpenAll loads the given files concurrently and registers them.
// Nothing is registered if any file fails to load.
func (c *Catalog) OpenAll(ctx context.Context, paths map[string]string, opts loader.Options) error {
	loaded, err := loader.OpenAll(ctx, paths, opts)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for name, ds := range loaded {
		c.datasets[name] = ds
		c.sources[name] = paths[name]
	}

	c.logger.Debug().Int("datasets", len(loaded)).Msg("datasets loaded")
	return nil
}

func (c *Catalog) closest(name string) string {
	best, bestDist := "", len(name)/3+2
	for _, n := range c.Names() {
		if d := levenshtein.ComputeDistance(name, n); d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}
