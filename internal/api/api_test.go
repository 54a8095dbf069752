package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/chaisql/tally/internal/api"
	"github.com/chaisql/tally/internal/catalog"
	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/types"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func setupServer(t *testing.T) *fiber.App {
	t.Helper()

	c := catalog.New(zerolog.Nop())
	ds, err := dataset.FromColumns([]string{"g", "x"}, [][]types.Value{
		{types.NewTextValue("a"), types.NewTextValue("b"), types.NewTextValue("a")},
		{types.NewIntegerValue(1), types.NewNullValue(), types.NewIntegerValue(3)},
	})
	require.NoError(t, err)
	require.NoError(t, c.Register("small", ds))

	return api.NewServer(api.Config{}, c, zerolog.Nop()).App()
}

func do(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

type result struct {
	Columns []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
	Groups   []string         `json:"groups"`
}

func TestHealth(t *testing.T) {
	app := setupServer(t)

	resp, body := do(t, app, "GET", "/health", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `"status":"ok"`)
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, "abc", resp.Header.Get("X-Request-ID"))
}

func TestDatasets(t *testing.T) {
	app := setupServer(t)

	resp, body := do(t, app, "GET", "/api/v1/datasets", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list api.DatasetListResponse
	require.NoError(t, json.Unmarshal(body, &list))
	require.Equal(t, 3, list.Count)
	require.Equal(t, api.DatasetInfo{Name: "flights", Rows: 120, Columns: 11}, list.Datasets[0])
	require.Equal(t, api.DatasetInfo{Name: "small", Rows: 3, Columns: 2}, list.Datasets[2])

	resp, body = do(t, app, "GET", "/api/v1/datasets/housing/schema", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var schema api.SchemaResponse
	require.NoError(t, json.Unmarshal(body, &schema))
	require.Equal(t, 60, schema.Rows)
	require.Equal(t, api.ColumnInfo{Name: "city", Type: "factor", Levels: []string{"Bergen", "Oslo", "Stavanger", "Trondheim"}}, schema.Columns[0])

	resp, body = do(t, app, "GET", "/api/v1/datasets/flight/schema", nil)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	var e api.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	require.Contains(t, e.Error, "dataset not found")
	require.Equal(t, "did you mean flights?", e.Hint)
}

func TestAggregate(t *testing.T) {
	app := setupServer(t)

	t.Run("grouped", func(t *testing.T) {
		resp, body := do(t, app, "POST", "/api/v1/aggregate", api.AggregateRequest{
			Dataset:      "flights",
			GroupBy:      []string{"carrier"},
			Aggregations: []string{"n = count()", "delayed = count(dep_delay, na = skip)"},
			SortGroups:   true,
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

		var res result
		require.NoError(t, json.Unmarshal(body, &res))
		require.Equal(t, 6, res.RowCount)
		require.Len(t, res.Rows, 6)
		require.Equal(t, "carrier", res.Columns[0].Name)
		require.Equal(t, "AA", res.Rows[0]["carrier"])
		require.EqualValues(t, 25, res.Rows[0]["n"])
		require.Equal(t, "WN", res.Rows[5]["carrier"])
		require.EqualValues(t, 26, res.Rows[5]["n"])
	})

	t.Run("missing values", func(t *testing.T) {
		resp, body := do(t, app, "POST", "/api/v1/aggregate", api.AggregateRequest{
			Dataset:      "small",
			GroupBy:      []string{"g"},
			Aggregations: []string{"s = sum(x, na = propagate)", "k = sum(x, na = skip)"},
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

		var res result
		require.NoError(t, json.Unmarshal(body, &res))
		require.Equal(t, []map[string]any{
			{"g": "a", "s": float64(4), "k": float64(4)},
			{"g": "b", "s": nil, "k": nil},
		}, res.Rows)
	})

	tests := []struct {
		name   string
		req    api.AggregateRequest
		status int
		hint   string
	}{
		{"no dataset", api.AggregateRequest{Aggregations: []string{"n = count()"}}, fiber.StatusBadRequest, ""},
		{"unknown dataset", api.AggregateRequest{Dataset: "nope", Aggregations: []string{"n = count()"}}, fiber.StatusNotFound, ""},
		{"parse error", api.AggregateRequest{Dataset: "small", Aggregations: []string{"m = meen(x)"}}, fiber.StatusBadRequest, "did you mean mean()?"},
		{"missing policy", api.AggregateRequest{Dataset: "small", Aggregations: []string{"m = mean(x)"}}, fiber.StatusBadRequest, ""},
		{"unknown column", api.AggregateRequest{Dataset: "small", GroupBy: []string{"h"}, Aggregations: []string{"n = count()"}}, fiber.StatusBadRequest, ""},
		{"duplicate name", api.AggregateRequest{Dataset: "small", Aggregations: []string{"n = count()", "n = count()"}}, fiber.StatusBadRequest, ""},
		{"no aggregations", api.AggregateRequest{Dataset: "small"}, fiber.StatusBadRequest, ""},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resp, body := do(t, app, "POST", "/api/v1/aggregate", test.req)
			require.Equal(t, test.status, resp.StatusCode, string(body))

			var e api.ErrorResponse
			require.NoError(t, json.Unmarshal(body, &e))
			require.NotEmpty(t, e.Error)
			if test.hint != "" {
				require.Equal(t, test.hint, e.Hint)
			}
		})
	}
}

func TestPipeline(t *testing.T) {
	app := setupServer(t)

	t.Run("source in pipeline", func(t *testing.T) {
		resp, body := do(t, app, "POST", "/api/v1/pipeline", api.PipelineRequest{
			Pipeline: "flights %>% filter(carrier == 'UA') %>% count()",
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

		var res result
		require.NoError(t, json.Unmarshal(body, &res))
		require.Equal(t, []map[string]any{{"n": float64(14)}}, res.Rows)
	})

	t.Run("grouped result", func(t *testing.T) {
		resp, body := do(t, app, "POST", "/api/v1/pipeline", api.PipelineRequest{
			Dataset:  "small",
			Pipeline: "group_by(g) %>% slice_max(x)",
		})
		require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

		var res result
		require.NoError(t, json.Unmarshal(body, &res))
		require.Equal(t, []string{"g"}, res.Groups)
		require.Equal(t, 1, res.RowCount)
		require.Equal(t, "a", res.Rows[0]["g"])
		require.EqualValues(t, 3, res.Rows[0]["x"])
	})

	tests := []struct {
		name   string
		req    api.PipelineRequest
		status int
	}{
		{"conflicting source", api.PipelineRequest{Dataset: "small", Pipeline: "flights %>% head()"}, fiber.StatusBadRequest},
		{"no dataset", api.PipelineRequest{Pipeline: "head()"}, fiber.StatusBadRequest},
		{"unknown verb", api.PipelineRequest{Dataset: "small", Pipeline: "fliter(x > 1)"}, fiber.StatusBadRequest},
		{"unknown column", api.PipelineRequest{Dataset: "small", Pipeline: "filter(y > 1)"}, fiber.StatusBadRequest},
		{"unknown dataset", api.PipelineRequest{Pipeline: "nope %>% head()"}, fiber.StatusNotFound},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			resp, body := do(t, app, "POST", "/api/v1/pipeline", test.req)
			require.Equal(t, test.status, resp.StatusCode, string(body))
		})
	}
}
