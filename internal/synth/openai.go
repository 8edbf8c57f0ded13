package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	SeedRows    int
}

type OpenAIGenerator struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	seedRows    int
	client      *http.Client
}

func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = "gpt-5"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	seedRows := cfg.SeedRows
	if seedRows <= 0 {
		seedRows = 5
	}
	return &OpenAIGenerator{
		baseURL:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		model:       model,
		temperature: cfg.Temperature,
		seedRows:    seedRows,
		client:      &http.Client{Timeout: timeout},
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (Result, error) {
	body, err := json.Marshal(buildChatPayload(g.model, g.temperature, g.seedRows, prompt))
	if err != nil {
		return Result{}, fmt.Errorf("marshal chat payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("request chat completion: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read chat response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return Result{}, fmt.Errorf("chat completion failed status=%d body=%s", resp.StatusCode, string(rawRespBody))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return Result{}, fmt.Errorf("decode chat completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return Result{}, fmt.Errorf("empty chat completion choices")
	}

	artifacts, err := parseArtifacts(parsed.Choices[0].Message.Content)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Artifacts: artifacts,
		Provider:  "openai-compatible",
		Model:     g.model,
	}, nil
}

func buildChatPayload(model string, temperature float64, seedRows int, prompt string) map[string]any {
	systemPrompt := "You design small self-contained SQL playgrounds. " +
		"Given a user request you invent one table, seed it with sample rows, and write the query that answers the request. " +
		"DuckDB is the target engine; it accepts PostgreSQL-like SQL. " +
		"Return ONLY a JSON object. No markdown, no explanation."
	userPrompt := fmt.Sprintf(
		"User request:\n%s\n\nRespond with a single JSON object with exactly these keys:\n"+
			"- \"query\": one SELECT statement answering the request.\n"+
			"- \"table_definition\": one CREATE TABLE statement the query runs against.\n"+
			"- \"seed_statements\": an array of %d INSERT statements with realistic, varied values.\n\n"+
			"Rules:\n- The query must reference only the created table.\n- Every INSERT must satisfy the table definition.\n- Output raw JSON only.",
		prompt,
		seedRows,
	)

	return map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"temperature": temperature,
	}
}

// parseArtifacts normalizes the completion text and decodes the artifact
// object. Fields are kept exactly as parsed, including a nil seed array.
func parseArtifacts(content string) (Artifacts, error) {
	normalized := stripFences(content)
	var artifacts Artifacts
	if err := json.Unmarshal([]byte(normalized), &artifacts); err != nil {
		return Artifacts{}, &MalformedResponseError{Err: err}
	}
	return artifacts, nil
}

// stripFences removes one enclosing Markdown code fence, tolerating a
// language tag on the opening line. Unfenced text passes through unchanged.
func stripFences(value string) string {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	newline := strings.IndexByte(trimmed, '\n')
	if newline < 0 {
		return ""
	}
	trimmed = strings.TrimSpace(trimmed[newline+1:])
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
