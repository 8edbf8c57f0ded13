package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sqlscratch/sqlscratch/internal/observability"
	"github.com/sqlscratch/sqlscratch/internal/sandbox"
)

// Pointer fields distinguish an absent artifact from an empty one: a request
// without seed_statements is invalid, a request with an empty array is not.
type executeRequest struct {
	Query           *string   `json:"query"`
	TableDefinition *string   `json:"table_definition"`
	SeedStatements  *[]string `json:"seed_statements"`
	RowLimit        int       `json:"row_limit"`
}

type executeResponse struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
	Stats   map[string]any   `json:"stats"`
}

func handleExecute(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Runner == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "EXECUTE_NOT_CONFIGURED", "sandbox runner is not configured", false, nil)
		return
	}

	var req executeRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid execution request body", false, map[string]any{"details": err.Error()})
		return
	}

	if req.Query == nil || strings.TrimSpace(*req.Query) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_INPUT", "query is required", false, nil)
		return
	}
	if req.TableDefinition == nil || strings.TrimSpace(*req.TableDefinition) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_INPUT", "table_definition is required", false, nil)
		return
	}
	if req.SeedStatements == nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_INPUT", "seed_statements must be an array", false, nil)
		return
	}

	rowLimit := req.RowLimit
	if rowLimit <= 0 {
		rowLimit = deps.DefaultRowLimit
	}

	start := time.Now()
	result, err := deps.Runner.Run(r.Context(), sandbox.Run{
		TableDefinition: *req.TableDefinition,
		SeedStatements:  *req.SeedStatements,
		Query:           *req.Query,
		RowLimit:        rowLimit,
	})
	if err != nil {
		handleRunError(deps, w, r, err, time.Since(start))
		return
	}

	observability.ObserveSandboxRun("ok", result.Duration)
	writeJSON(w, http.StatusOK, executeResponse{
		Columns: result.Columns,
		Rows:    result.Rows,
		Stats: map[string]any{
			"duration_ms":     result.Duration.Milliseconds(),
			"row_count":       len(result.Rows),
			"seed_statements": len(*req.SeedStatements),
		},
	})
}

func handleRunError(deps Dependencies, w http.ResponseWriter, r *http.Request, err error, elapsed time.Duration) {
	if deps.Logger != nil {
		deps.Logger.WarnContext(r.Context(), "sandbox_run_failed", slog.Any("error", err))
	}

	var stageErr *sandbox.StageError
	if !errors.As(err, &stageErr) {
		observability.ObserveSandboxRun("error", elapsed)
		writeError(r.Context(), w, http.StatusInternalServerError, "SANDBOX_FAILED", err.Error(), false, nil)
		return
	}

	observability.ObserveSandboxRun(string(stageErr.Stage), elapsed)

	code := "SANDBOX_FAILED"
	var extra map[string]any
	switch stageErr.Stage {
	case sandbox.StageOpen:
		code = "SANDBOX_OPEN_FAILED"
	case sandbox.StageSchema:
		code = "SCHEMA_FAILED"
	case sandbox.StageSeed:
		code = "SEED_FAILED"
		extra = map[string]any{"statement": stageErr.Statement}
	case sandbox.StageQuery:
		code = "QUERY_FAILED"
	}
	writeError(r.Context(), w, http.StatusInternalServerError, code, err.Error(), false, extra)
}
