package index

import (
	"errors"
	"fmt"
)

// ErrNonPositiveLimit indicates a search was attempted with a result limit
// of zero or less. This is validated at the Store boundary: passing it
// through to the underlying index would not fail, it would just return zero
// rows for every query.
var ErrNonPositiveLimit = errors.New("max results must be a positive integer")

// SearchError wraps a failure inside the search pipeline (embedding, filter
// resolution, or the index query itself). Callers above the tool boundary
// convert it into text for the model; it never crashes a query turn.
type SearchError struct {
	Op  string // operation that failed, e.g. "query", "resolve course"
	Err error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %s: %v", e.Op, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}
