// Package api serves the aggregation engine over HTTP.
package api

import (
	"context"
	"time"

	"github.com/chaisql/tally/internal/aggregate"
	"github.com/chaisql/tally/internal/catalog"
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

// Config holds the server settings.
type Config struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// SpillThreshold enables the pebble partitioner for datasets with at
	// least that many rows. Zero disables it.
	SpillThreshold int
	SpillDir       string
}

// Server is the HTTP API server.
type Server struct {
	app     *fiber.App
	catalog *catalog.Catalog
	cfg     Config
	logger  zerolog.Logger
	started time.Time
}

// NewServer creates a server answering queries against the datasets of c.
func NewServer(cfg Config, c *catalog.Catalog, logger zerolog.Logger) *Server {
	logger = logger.With().Str("component", "api").Logger()

	app := fiber.New(fiber.Config{
		AppName:               "tally",
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestID())
	app.Use(requestLogger(logger))

	s := Server{
		app:     app,
		catalog: c,
		cfg:     cfg,
		logger:  logger,
		started: time.Now(),
	}
	s.registerRoutes()
	return &s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) registerRoutes() {
	s.app.Get("/health", s.healthHandler)

	v1 := s.app.Group("/api/v1")
	v1.Get("/datasets", s.listDatasetsHandler)
	v1.Get("/datasets/:name/schema", s.schemaHandler)
	v1.Post("/aggregate", s.aggregateHandler)
	v1.Post("/pipeline", s.pipelineHandler)
}

// ListenAndServe serves requests on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("starting HTTP server")
		errc <- s.app.Listen(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return errors.Wrap(err, "server shutdown failed")
	}
	return nil
}

func (s *Server) aggregateOptions(sorted bool) []aggregate.Option {
	opts := []aggregate.Option{aggregate.WithLogger(s.logger)}
	if sorted {
		opts = append(opts, aggregate.WithSortedGroups())
	}
	if s.cfg.SpillThreshold > 0 {
		opts = append(opts, aggregate.WithSpill(s.cfg.SpillThreshold, s.cfg.SpillDir))
	}
	return opts
}

func (s *Server) healthHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":     "ok",
		"uptime_sec": time.Since(s.started).Seconds(),
	})
}

// requestID tags each request with a unique id, reusing the one sent by
// the client if any.
func requestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Locals("request_id", id)
		return c.Next()
	}
}

func requestLogger(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			} else {
				status = statusOf(err)
			}
		}

		e := logger.Debug()
		switch {
		case status >= 500:
			e = logger.Error().Err(err)
		case status >= 400:
			e = logger.Warn().Err(err)
		}
		id, _ := c.Locals("request_id").(string)
		e.Str("request_id", id).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request")
		return err
	}
}
