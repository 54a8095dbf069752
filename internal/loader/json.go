package loader

import (
	"bufio"
	"context"
	"encoding/json"
	"io"

	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/row"
	"github.com/cockroachdb/errors"
)

// readJSON reads either a stream of JSON objects, one per line or not,
// or an array of objects. Columns are the union of the object keys in
// first-seen order.
func readJSON(ctx context.Context, r io.Reader) (*dataset.Dataset, error) {
	rd := bufio.NewReader(r)

	// read first non-white space byte to determine
	// whether we are reading from a json stream or
	// an array of json objects.
	c, err := readByteIgnoreWhitespace(rd)
	if errors.Is(err, io.EOF) {
		return dataset.FromRows(nil)
	}
	if err != nil {
		return nil, err
	}
	if err := rd.UnreadByte(); err != nil {
		return nil, err
	}

	dec := json.NewDecoder(rd)
	var rows []row.Row

	decode := func() error {
		if len(rows)%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		cb := row.NewColumnBuffer()
		if err := dec.Decode(cb); err != nil {
			return err
		}
		rows = append(rows, cb)
		return nil
	}

	switch c {
	case '{': // json stream
		for {
			err := decode()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, errors.Wrapf(err, "object %d", len(rows)+1)
			}
		}
	case '[': // array of json objects
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		for dec.More() {
			if err := decode(); err != nil {
				return nil, errors.Wrapf(err, "object %d", len(rows)+1)
			}
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Errorf("found %q, expected '{' or '['", c)
	}

	return dataset.FromRows(rows)
}

func readByteIgnoreWhitespace(r *bufio.Reader) (byte, error) {
	for {
		c, err := r.ReadByte()
		if err != nil {
			return c, err
		}

		if c != '\n' && c != '\r' && c != ' ' && c != '\t' {
			return c, nil
		}
	}
}
