package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sqlscratch/sqlscratch/internal/observability"
	"github.com/sqlscratch/sqlscratch/internal/synth"
)

type synthesizeRequest struct {
	Prompt string `json:"prompt"`
}

func handleSynthesize(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Generator == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SYNTHESIS_NOT_CONFIGURED", "synthesis is not configured", false, nil)
		return
	}

	var req synthesizeRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		observability.ObserveSynthesis("invalid_input", 0)
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid synthesis request body", false, map[string]any{"details": err.Error()})
		return
	}

	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		observability.ObserveSynthesis("invalid_input", 0)
		writeError(r.Context(), w, http.StatusBadRequest, "PROMPT_REQUIRED", "prompt is required", false, nil)
		return
	}

	if deps.Logger != nil {
		deps.Logger.InfoContext(r.Context(), "synthesis_request", slog.Int("prompt_chars", len(prompt)))
	}

	start := time.Now()
	result, err := deps.Generator.Generate(r.Context(), prompt)
	elapsed := time.Since(start)
	if err != nil {
		var malformed *synth.MalformedResponseError
		if errors.As(err, &malformed) {
			observability.ObserveSynthesis("malformed_response", elapsed)
			if deps.Logger != nil {
				deps.Logger.ErrorContext(r.Context(), "synthesis_parse_failed", slog.Any("error", err))
			}
			writeError(r.Context(), w, http.StatusInternalServerError, "MALFORMED_UPSTREAM_RESPONSE", err.Error(), false, nil)
			return
		}
		observability.ObserveSynthesis("upstream_error", elapsed)
		if deps.Logger != nil {
			deps.Logger.ErrorContext(r.Context(), "synthesis_upstream_failed", slog.Any("error", err))
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "UPSTREAM_ERROR", err.Error(), false, nil)
		return
	}

	observability.ObserveSynthesis("ok", elapsed)
	if deps.Logger != nil {
		deps.Logger.InfoContext(r.Context(), "synthesis_completed",
			slog.String("model", result.Model),
			slog.Int("seed_statements", len(result.SeedStatements)),
			slog.String("duration", elapsed.String()),
		)
	}
	writeJSON(w, http.StatusOK, result)
}
