// Package synth turns a natural-language prompt into a runnable SQL
// playground: a query, the table definition it expects, and seed rows.
package synth

import (
	"context"
	"fmt"
)

// Artifacts is the three-part output of a synthesis call. The fields are
// passed through exactly as the model produced them; the execution endpoint
// validates them independently.
type Artifacts struct {
	Query           string   `json:"query"`
	TableDefinition string   `json:"table_definition"`
	SeedStatements  []string `json:"seed_statements"`
}

type Result struct {
	Artifacts
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (Result, error)
}

// MalformedResponseError marks a completion that could not be parsed as the
// expected JSON object after fence stripping. The defect is upstream; the
// caller cannot fix it by changing their prompt.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
