// Package sandbox runs client-supplied SQL artifacts against a throwaway
// database that exists only for the duration of one run.
package sandbox

import (
	"context"
	"fmt"
	"time"
)

type Run struct {
	TableDefinition string
	SeedStatements  []string
	Query           string
	// RowLimit caps the rows returned by the query. Zero means unlimited.
	RowLimit int
}

type Result struct {
	Columns  []string
	Rows     []map[string]any
	Duration time.Duration
}

type Stage string

const (
	StageOpen   Stage = "open"
	StageSchema Stage = "schema"
	StageSeed   Stage = "seed"
	StageQuery  Stage = "query"
)

// StageError reports which step of a run failed. Statement is the 1-based
// index of the failing seed statement and zero for every other stage.
type StageError struct {
	Stage     Stage
	Statement int
	Err       error
}

func (e *StageError) Error() string {
	if e.Stage == StageSeed {
		return fmt.Sprintf("seed statement %d: %v", e.Statement, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type Runner interface {
	Run(ctx context.Context, run Run) (Result, error)
}
