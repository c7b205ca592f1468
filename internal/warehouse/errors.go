package warehouse

import (
	"errors"
	"fmt"
	"strings"
)

// Standard warehouse errors.
var (
	ErrQueryFailed       = errors.New("warehouse query failed")
	ErrMissingColumn     = errors.New("result is missing a required column")
	ErrUnsupportedDriver = errors.New("unsupported warehouse driver")
)

// QueryError is returned when the warehouse rejects or fails a statement.
type QueryError struct {
	Driver string
	SQL    string
	Err    error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %s query failed: %v", e.Driver, firstLine(e.SQL), e.Err)
}

// Unwrap returns the driver error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// Is matches ErrQueryFailed.
func (e *QueryError) Is(target error) bool {
	return target == ErrQueryFailed
}

func newQueryError(driver, sql string, err error) *QueryError {
	return &QueryError{Driver: driver, SQL: sql, Err: err}
}

// firstLine shortens a statement for error messages.
func firstLine(sql string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(sql), "\n")
	if len(line) > 80 {
		line = line[:80] + "..."
	}
	return fmt.Sprintf("%q", strings.TrimSpace(line))
}
