package frame

import (
	"errors"
	"fmt"
)

// ErrSchema is matched by every error caused by the shape of the working
// table rather than by the engine, e.g. a referenced column that does not
// exist.
var ErrSchema = errors.New("schema error")

// MissingColumnError reports a column referenced by an operation that the
// table does not have. It is raised at the point of use; nothing validates
// columns upfront.
type MissingColumnError struct {
	Table  string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing column %q in table %s", e.Column, e.Table)
}

// Unwrap lets errors.Is(err, ErrSchema) match.
func (e *MissingColumnError) Unwrap() error { return ErrSchema }
