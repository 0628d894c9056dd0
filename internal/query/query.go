package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tabletalk/tabletalk/internal/dataset"
)

type Request struct {
	SQL      string
	RowLimit int
}

type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

type Engine interface {
	Execute(ctx context.Context, ds *dataset.Dataset, request Request) (Result, error)
}

// ExecutionError marks a grammar or semantic failure raised by the database
// while running generated SQL. It is a category of its own: callers must
// never present it as a translation failure.
type ExecutionError struct {
	Detail string
	cause  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %s", e.Detail)
}

func (e *ExecutionError) Unwrap() error { return e.cause }

func NewExecutionError(detail string, cause error) *ExecutionError {
	return &ExecutionError{Detail: detail, cause: cause}
}

func IsExecutionError(err error) bool {
	var execErr *ExecutionError
	return errors.As(err, &execErr)
}
