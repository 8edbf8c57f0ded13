package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/sqlscratch/sqlscratch/internal/sandbox"
)

// Engine satisfies sandbox.Runner with a fresh in-memory DuckDB instance per
// run. The instance is closed on every exit path; no state survives a run.
type Engine struct {
	// open returns a database handle with empty state. Tests may override it.
	open func() (*sql.DB, error)
}

func NewEngine() *Engine {
	return &Engine{open: openInMemory}
}

func openInMemory() (*sql.DB, error) {
	return sql.Open("duckdb", "")
}

func (e *Engine) Run(ctx context.Context, run sandbox.Run) (sandbox.Result, error) {
	if strings.TrimSpace(run.TableDefinition) == "" {
		return sandbox.Result{}, fmt.Errorf("table definition is required")
	}
	if strings.TrimSpace(run.Query) == "" {
		return sandbox.Result{}, fmt.Errorf("query is required")
	}

	start := time.Now()
	db, err := e.open()
	if err != nil {
		return sandbox.Result{}, &sandbox.StageError{Stage: sandbox.StageOpen, Err: fmt.Errorf("open sandbox database: %w", err)}
	}
	defer func() { _ = db.Close() }()

	if _, err := db.ExecContext(ctx, run.TableDefinition); err != nil {
		return sandbox.Result{}, &sandbox.StageError{Stage: sandbox.StageSchema, Err: err}
	}

	for index, statement := range run.SeedStatements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return sandbox.Result{}, &sandbox.StageError{Stage: sandbox.StageSeed, Statement: index + 1, Err: err}
		}
	}

	sqlText := stripTrailingSemicolons(run.Query)
	if run.RowLimit > 0 {
		sqlText = fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT %d", sqlText, run.RowLimit)
	}

	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return sandbox.Result{}, &sandbox.StageError{Stage: sandbox.StageQuery, Err: err}
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return sandbox.Result{}, &sandbox.StageError{Stage: sandbox.StageQuery, Err: err}
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return sandbox.Result{}, &sandbox.StageError{Stage: sandbox.StageQuery, Err: err}
		}
		rowMap := make(map[string]any, len(columns))
		for i, column := range columns {
			rowMap[column] = normalizeValue(values[i])
		}
		resultRows = append(resultRows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return sandbox.Result{}, &sandbox.StageError{Stage: sandbox.StageQuery, Err: err}
	}

	return sandbox.Result{
		Columns:  columns,
		Rows:     resultRows,
		Duration: time.Since(start),
	}, nil
}

func normalizeValue(value any) any {
	switch typed := value.(type) {
	case []byte:
		return string(typed)
	default:
		return typed
	}
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
