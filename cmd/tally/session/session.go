// Package session holds what the tally commands and the shell share:
// the configuration, the dataset catalog and the output settings.
package session

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chaisql/tally/internal/aggregate"
	"github.com/chaisql/tally/internal/catalog"
	"github.com/chaisql/tally/internal/config"
	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/loader"
	"github.com/chaisql/tally/internal/logger"
	"github.com/chaisql/tally/internal/parser"
	"github.com/chaisql/tally/internal/render"
	"github.com/chaisql/tally/internal/stream"
	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ErrNoDataset is returned when running a pipeline that names no dataset
// while no default dataset is set.
var ErrNoDataset = errors.New("no dataset selected")

// Options override the configuration with command line flags.
type Options struct {
	ConfigFile string
	LogLevel   string
	Format     string
	MaxRows    int
}

// Session is the state shared by the commands of a tally invocation.
type Session struct {
	Config  *config.Config
	Catalog *catalog.Catalog
	Format  render.Format
	Render  render.Options

	logger zerolog.Logger
}

// Open loads the configuration, sets up the global logger and
// loads the datasets listed in the configuration.
func Open(ctx context.Context, opts Options) (*Session, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	logger.Setup(cfg.Log.Level, cfg.Log.Format)

	return New(ctx, cfg, opts)
}

// New creates a session from an already loaded configuration.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Session, error) {
	name := cfg.Output.Format
	if opts.Format != "" {
		name = opts.Format
	}
	format, err := render.ParseFormat(name)
	if err != nil {
		return nil, err
	}

	maxRows := cfg.Output.MaxRows
	if opts.MaxRows > 0 {
		maxRows = opts.MaxRows
	}

	s := Session{
		Config:  cfg,
		Catalog: catalog.New(logger.Get("catalog")),
		Format:  format,
		Render:  render.Options{MaxRows: maxRows},
		logger:  logger.Get("session"),
	}

	if len(cfg.Datasets) > 0 {
		if err := s.Catalog.OpenAll(ctx, cfg.Datasets, s.LoaderOptions()); err != nil {
			return nil, err
		}
	}

	return &s, nil
}

// LoaderOptions returns the options used to read dataset files.
func (s *Session) LoaderOptions() loader.Options {
	return loader.Options{
		NAStrings: s.Config.Loader.NAStrings,
		Logger:    logger.Get("loader"),
	}
}

// AggregateOptions returns the options passed to the aggregation engine.
func (s *Session) AggregateOptions(sorted bool) []aggregate.Option {
	opts := []aggregate.Option{aggregate.WithLogger(logger.Get("aggregate"))}
	if sorted {
		opts = append(opts, aggregate.WithSortedGroups())
	}
	if s.Config.Engine.SpillThreshold > 0 {
		opts = append(opts, aggregate.WithSpill(s.Config.Engine.SpillThreshold, s.Config.Engine.SpillDir))
	}
	return opts
}

// Dataset returns the dataset referenced by ref: the path of an existing
// file, loaded and registered under its base name, or a catalog name.
func (s *Session) Dataset(ctx context.Context, ref string) (*dataset.Dataset, error) {
	if ref == "" {
		return nil, errors.WithHint(ErrNoDataset, "pass a dataset name or a file path")
	}

	if fi, err := os.Stat(ref); err == nil && !fi.IsDir() {
		return s.Catalog.Open(ctx, DatasetName(ref), ref, s.LoaderOptions())
	}

	return s.Catalog.Get(ref)
}

// Use resolves ref like Dataset and returns the name under which the
// dataset can be referenced afterwards.
func (s *Session) Use(ctx context.Context, ref string) (string, error) {
	if _, err := s.Dataset(ctx, ref); err != nil {
		return "", err
	}
	if fi, err := os.Stat(ref); err == nil && !fi.IsDir() {
		return DatasetName(ref), nil
	}
	return ref, nil
}

// Run parses and runs a pipeline. Pipelines that don't start with a
// dataset name read the dataset referenced by current.
func (s *Session) Run(ctx context.Context, pipeline, current string) (*stream.Frame, error) {
	p, err := parser.ParsePipeline(pipeline)
	if err != nil {
		return nil, err
	}

	return s.RunPipeline(ctx, p, current)
}

// RunPipeline runs an already parsed pipeline.
func (s *Session) RunPipeline(ctx context.Context, p *parser.Pipeline, current string) (*stream.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ref := current
	if p.Source != "" {
		ref = p.Source
	}
	if ref == "" {
		return nil, errors.WithHint(ErrNoDataset, "start the pipeline with a dataset name, as in flights %>% head()")
	}

	ds, err := s.Dataset(ctx, ref)
	if err != nil {
		return nil, err
	}
	if p.Stream == nil {
		return &stream.Frame{Dataset: ds}, nil
	}

	s.logger.Debug().Str("pipeline", p.String()).Msg("running pipeline")
	return p.Stream.Run(ds, s.AggregateOptions(false)...)
}

// Exec runs the semicolon separated pipelines read from r
// and writes each result to w.
func (s *Session) Exec(ctx context.Context, r io.Reader, w io.Writer, current string) error {
	input, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "failed to read pipelines")
	}

	return parser.ParsePipelines(string(input), func(p *parser.Pipeline) error {
		frame, err := s.RunPipeline(ctx, p, current)
		if err != nil {
			return err
		}
		return s.Write(w, frame.Dataset)
	})
}

// Write renders ds to w with the session output settings.
func (s *Session) Write(w io.Writer, ds *dataset.Dataset) error {
	return render.Render(w, ds, s.Format, s.Render)
}

// DatasetName returns the name under which the file at path is registered:
// its base name without extensions.
func DatasetName(path string) string {
	name := filepath.Base(path)
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name
}

// CanReadFromStandardInput returns whether the standard input is a pipe.
func CanReadFromStandardInput() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeNamedPipe != 0
}
