package api

import (
	"bytes"
	"encoding/json"

	"github.com/chaisql/tally/internal/aggregate"
	"github.com/chaisql/tally/internal/catalog"
	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/parser"
	"github.com/chaisql/tally/internal/render"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// ColumnInfo describes a column in responses.
type ColumnInfo struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Levels  []string `json:"levels,omitempty"`
	Ordered bool     `json:"ordered,omitempty"`
}

// DatasetInfo is an entry of the dataset list.
type DatasetInfo struct {
	Name    string `json:"name"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	Source  string `json:"source,omitempty"`
}

// DatasetListResponse is the response of GET /api/v1/datasets.
type DatasetListResponse struct {
	Datasets []DatasetInfo `json:"datasets"`
	Count    int           `json:"count"`
}

// SchemaResponse is the response of GET /api/v1/datasets/:name/schema.
type SchemaResponse struct {
	Name    string       `json:"name"`
	Rows    int          `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
}

// AggregateRequest is the body of POST /api/v1/aggregate.
type AggregateRequest struct {
	Dataset      string   `json:"dataset"`
	GroupBy      []string `json:"group_by"`
	Aggregations []string `json:"aggregations"`
	SortGroups   bool     `json:"sort_groups"`
}

// PipelineRequest is the body of POST /api/v1/pipeline. The dataset may
// also be named at the head of the pipeline.
type PipelineRequest struct {
	Dataset  string `json:"dataset"`
	Pipeline string `json:"pipeline"`
}

// ResultResponse holds a result table. Rows are objects keyed by column
// name, missing values are null.
type ResultResponse struct {
	Columns  []ColumnInfo    `json:"columns"`
	Rows     json.RawMessage `json:"rows"`
	RowCount int             `json:"row_count"`
	Groups   []string        `json:"groups,omitempty"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}

func (s *Server) listDatasetsHandler(c *fiber.Ctx) error {
	names := s.catalog.Names()
	resp := DatasetListResponse{Datasets: make([]DatasetInfo, 0, len(names))}
	for _, name := range names {
		ds, err := s.catalog.Get(name)
		if err != nil {
			return err
		}
		resp.Datasets = append(resp.Datasets, DatasetInfo{
			Name:    name,
			Rows:    ds.Len(),
			Columns: ds.Schema().Len(),
			Source:  s.catalog.Source(name),
		})
	}
	resp.Count = len(resp.Datasets)
	return c.JSON(resp)
}

func (s *Server) schemaHandler(c *fiber.Ctx) error {
	name := c.Params("name")
	ds, err := s.catalog.Get(name)
	if err != nil {
		return err
	}

	return c.JSON(SchemaResponse{
		Name:    name,
		Rows:    ds.Len(),
		Columns: columnInfos(ds.Schema()),
	})
}

func (s *Server) aggregateHandler(c *fiber.Ctx) error {
	var req AggregateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if req.Dataset == "" {
		return fiber.NewError(fiber.StatusBadRequest, "dataset is required")
	}

	aggs := make([]aggregate.Aggregation, len(req.Aggregations))
	for i, a := range req.Aggregations {
		agg, err := parser.ParseAggregation(a)
		if err != nil {
			return errors.Wrapf(err, "aggregation %d", i+1)
		}
		aggs[i] = agg
	}

	ds, err := s.catalog.Get(req.Dataset)
	if err != nil {
		return err
	}

	res, err := aggregate.Aggregate(ds, req.GroupBy, aggs, s.aggregateOptions(req.SortGroups)...)
	if err != nil {
		return err
	}

	return sendResult(c, res, nil)
}

func (s *Server) pipelineHandler(c *fiber.Ctx) error {
	var req PipelineRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}

	p, err := parser.ParsePipeline(req.Pipeline)
	if err != nil {
		return err
	}

	name := req.Dataset
	switch {
	case p.Source != "" && name != "" && p.Source != name:
		return fiber.NewError(fiber.StatusBadRequest, "pipeline reads "+p.Source+" but dataset is "+name)
	case p.Source != "":
		name = p.Source
	case name == "":
		return fiber.NewError(fiber.StatusBadRequest, "dataset is required")
	}

	ds, err := s.catalog.Get(name)
	if err != nil {
		return err
	}
	if p.Stream == nil {
		return sendResult(c, ds, nil)
	}

	frame, err := p.Stream.Run(ds, s.aggregateOptions(false)...)
	if err != nil {
		return err
	}

	var groups []string
	if frame.Grouped() {
		groups = frame.Groups.Keys()
	}
	return sendResult(c, frame.Dataset, groups)
}

func sendResult(c *fiber.Ctx, ds *dataset.Dataset, groups []string) error {
	var buf bytes.Buffer
	if err := render.JSON(&buf, ds); err != nil {
		return err
	}

	return c.JSON(ResultResponse{
		Columns:  columnInfos(ds.Schema()),
		Rows:     json.RawMessage(bytes.TrimSpace(buf.Bytes())),
		RowCount: ds.Len(),
		Groups:   groups,
	})
}

func columnInfos(s *dataset.Schema) []ColumnInfo {
	infos := make([]ColumnInfo, s.Len())
	for i, col := range s.Columns() {
		infos[i] = ColumnInfo{Name: col.Name, Type: col.Type.String()}
		if col.Type == types.TypeFactor && col.Levels != nil {
			infos[i].Levels = col.Levels.Labels()
			infos[i].Ordered = col.Levels.Ordered()
		}
	}
	return infos
}

// statusOf maps engine errors to HTTP status codes.
func statusOf(err error) int {
	var pe *parser.ParseError
	switch {
	case errors.Is(err, catalog.ErrDatasetNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &pe),
		errors.IsAny(err,
			aggregate.ErrDuplicateOutputName,
			aggregate.ErrNameCollision,
			aggregate.ErrInvalidReducerInput,
			aggregate.ErrMissingPolicy,
			aggregate.ErrNoAggregations,
			dataset.ErrUnknownColumn,
			dataset.ErrDuplicateColumn,
			types.ErrTypeMismatch,
		):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

func errorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := statusOf(err)
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}

		resp := ErrorResponse{Error: err.Error(), Hint: errors.FlattenHints(err)}
		if code >= fiber.StatusInternalServerError {
			logger.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		}
		return c.Status(code).JSON(resp)
	}
}
