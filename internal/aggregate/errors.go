package aggregate

import (
	"github.com/chaisql/tally/internal/dataset"
	"github.com/chaisql/tally/internal/types"
	"github.com/cockroachdb/errors"
)

// Errors returned by Aggregate. All of them are detected before any
// partition is computed.
var (
	ErrDuplicateOutputName = errors.New("duplicate output name")
	ErrNameCollision       = errors.New("output name collides with a group key")
	ErrInvalidReducerInput = errors.New("invalid reducer input")
	ErrMissingPolicy       = errors.New("missing value policy not set")
	ErrNoAggregations      = errors.New("no aggregations")

	ErrUnknownColumn = dataset.ErrUnknownColumn
	ErrTypeMismatch  = types.ErrTypeMismatch
)
