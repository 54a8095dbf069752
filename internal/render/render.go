// Package render writes datasets as text tables, CSV, JSON, Parquet or Arrow streams.
package render

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/types"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/cockroachdb/errors"
)

// Format is an output format.
type Format uint8

const (
	FormatText Format = iota
	FormatCSV
	FormatJSON
	FormatParquet
	FormatArrow
)

// Formats lists the names accepted by ParseFormat.
var Formats = []string{"text", "csv", "json", "parquet", "arrow"}

func (f Format) String() string {
	return Formats[f]
}

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	for i, name := range Formats {
		if strings.EqualFold(s, name) {
			return Format(i), nil
		}
	}
	return FormatText, errors.WithHintf(errors.Errorf("unknown output format %q", s), "use one of %s", strings.Join(Formats, ", "))
}

// Options control text rendering.
type Options struct {
	// MaxRows truncates text tables. Zero or less prints every row.
	MaxRows int
	// Color enables styling of the headers.
	Color bool
}

// Render writes ds to w in the given format.
func Render(w io.Writer, ds *dataset.Dataset, format Format, opts Options) error {
	switch format {
	case FormatText:
		return Text(w, ds, opts)
	case FormatCSV:
		return CSV(w, ds)
	case FormatJSON:
		return JSON(w, ds)
	case FormatParquet:
		return Parquet(w, ds)
	case FormatArrow:
		return Arrow(w, ds)
	}
	return errors.Errorf("unknown output format %d", format)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	numberStyle = cellStyle.Align(lipgloss.Right)
	typeStyle   = lipgloss.NewStyle().Faint(true).Padding(0, 1)
)

// typeAbbrev returns the short type names printed under the column names.
func typeAbbrev(c dataset.Column) string {
	switch c.Type {
	case types.TypeBoolean:
		return "<lgl>"
	case types.TypeInteger:
		return "<int>"
	case types.TypeDouble:
		return "<dbl>"
	case types.TypeTimestamp:
		return "<dttm>"
	case types.TypeText:
		return "<chr>"
	case types.TypeFactor:
		return "<fct>"
	}
	return "<" + c.Type.String() + ">"
}

// Text writes ds as a table. Missing values are printed as NA.
func Text(w io.Writer, ds *dataset.Dataset, opts Options) error {
	columns := ds.Schema().Columns()

	n := ds.Len()
	if opts.MaxRows > 0 && n > opts.MaxRows {
		n = opts.MaxRows
	}

	headers := make([]string, len(columns))
	abbrevs := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.Name
		abbrevs[i] = typeAbbrev(c)
	}

	rows := make([][]string, 0, n+1)
	rows = append(rows, abbrevs)
	for i := 0; i < n; i++ {
		row := make([]string, len(columns))
		for j := range columns {
			row[j] = types.Format(ds.Value(i, j))
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderRow(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			var s lipgloss.Style
			switch {
			case row == table.HeaderRow:
				s = headerStyle
			case row == 0:
				s = typeStyle
			case columns[col].Type.IsNumber():
				s = numberStyle
			default:
				s = cellStyle
			}
			if !opts.Color {
				s = s.UnsetBold().UnsetFaint()
			}
			return s
		})

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %d x %d\n", ds.Len(), len(columns))
	fmt.Fprintln(bw, t.Render())
	if n < ds.Len() {
		fmt.Fprintf(bw, "# %d more rows\n", ds.Len()-n)
	}
	return bw.Flush()
}

// CSV writes ds with a header row. Missing values are written as NA.
func CSV(w io.Writer, ds *dataset.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Schema().Names()); err != nil {
		return err
	}

	record := make([]string, ds.Schema().Len())
	for i := 0; i < ds.Len(); i++ {
		for j := range record {
			record[j] = csvField(ds.Value(i, j))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// csvField formats v without losing precision.
func csvField(v types.Value) string {
	switch t := v.(type) {
	case types.DoubleValue:
		return strconv.FormatFloat(float64(t), 'g', -1, 64)
	case types.TimestampValue:
		return types.AsTime(t).Format(time.RFC3339Nano)
	}
	return types.Format(v)
}

// JSON writes ds as an array of objects.
func JSON(w io.Writer, ds *dataset.Dataset) error {
	bw := bufio.NewWriter(w)
	bw.WriteByte('[')

	err := ds.Iterate(func(r dataset.Row) error {
		if r.Index() > 0 {
			bw.WriteString(",\n")
		}
		data, err := r.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = bw.Write(data)
		return err
	})
	if err != nil {
		return err
	}

	bw.WriteString("]\n")
	return bw.Flush()
}
