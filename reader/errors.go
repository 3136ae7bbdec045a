package reader

import (
	"fmt"
	"strings"
)

// SourceResolutionError reports dataset paths that could not be resolved or
// read at planning time. It is never retried.
type SourceResolutionError struct {
	Paths []string
	Err   error
}

func (e *SourceResolutionError) Error() string {
	return fmt.Sprintf("unable to resolve dataset source %s: %v", strings.Join(e.Paths, ", "), e.Err)
}

func (e *SourceResolutionError) Unwrap() error {
	return e.Err
}

// SchemaMismatchError reports a requested column that is absent from the
// dataset schema.
type SchemaMismatchError struct {
	Column string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("column %q is not part of the dataset schema", e.Column)
}
