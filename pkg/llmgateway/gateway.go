package llmgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultMaxSchemaRetries is the default re-prompt budget for
// ResponseSchema/parameter-schema violations (§4.2 "N internal retries").
const DefaultMaxSchemaRetries = 2

// Config configures a Gateway's connection to the upstream OpenAI-compatible
// chat-completions endpoint.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration

	// MaxConcurrent bounds in-flight completions; excess calls queue until a
	// slot frees (§5 "bounded-concurrency admission control"). 0 = unbounded.
	MaxConcurrent int
}

// Gateway implements the §4.2 C2 contract over a single HTTP client.
type Gateway struct {
	cfg    Config
	client *http.Client
	sem    chan struct{}
}

// New creates a Gateway against cfg.BaseURL.
func New(cfg Config) *Gateway {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	g := &Gateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.MaxConcurrent > 0 {
		g.sem = make(chan struct{}, cfg.MaxConcurrent)
	}
	return g
}

// acquire blocks until an admission slot is free, or ctx is cancelled.
func (g *Gateway) acquire(ctx context.Context) error {
	if g.sem == nil {
		return nil
	}
	select {
	case g.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrTransport, ctx.Err())
	}
}

func (g *Gateway) release() {
	if g.sem != nil {
		<-g.sem
	}
}

// Complete implements §4.2's one exported operation. A ResponseSchema, when
// set, is enforced by re-prompting internally (up to opts.MaxSchemaRetries,
// default DefaultMaxSchemaRetries) before returning ErrSchemaViolation.
func (g *Gateway) Complete(ctx context.Context, messages []Message, opts Options) (*Response, error) {
	if err := g.acquire(ctx); err != nil {
		return nil, err
	}
	defer g.release()

	maxRetries := opts.MaxSchemaRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxSchemaRetries
	}

	working := append([]Message(nil), messages...)
	var lastSchemaErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		resp, err := g.completeOnce(ctx, working, opts)
		if err != nil {
			return nil, err
		}

		if opts.ResponseSchema != "" && len(resp.ToolCalls) == 0 {
			if verr := validateAgainstSchema(opts.ResponseSchema, resp.Content); verr != nil {
				lastSchemaErr = verr
				slog.Warn("llmgateway: response schema violation, re-prompting",
					"attempt", attempt, "error", verr)
				working = append(working, Message{
					Role:    RoleAssistant,
					Content: resp.Content,
				}, Message{
					Role: RoleUser,
					Content: fmt.Sprintf(
						"Your previous response did not conform to the required JSON schema: %v. "+
							"Respond again with ONLY JSON that validates against the schema.", verr),
				})
				continue
			}
		}

		if terr := g.validateToolCallArguments(opts.Tools, resp.ToolCalls); terr != nil {
			return nil, terr
		}

		return resp, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, lastSchemaErr)
}

func (g *Gateway) validateToolCallArguments(tools []ToolDefinition, calls []ToolCall) error {
	byName := make(map[string]ToolDefinition, len(tools))
	for _, t := range tools {
		byName[t.Name] = t
	}
	for _, call := range calls {
		def, ok := byName[call.Name]
		if !ok || def.ParametersSchema == "" {
			continue
		}
		if err := validateAgainstSchema(def.ParametersSchema, call.Arguments); err != nil {
			return fmt.Errorf("%w: tool %q: %v", ErrSchemaViolation, call.Name, err)
		}
	}
	return nil
}

// chatCompletionRequest/response mirror the OpenAI chat-completions wire
// format, the lingua franca the wider example pack's LLM clients target.
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Tools       []wireTool    `json:"tools,omitempty"`
	ToolChoice  any           `json:"tool_choice,omitempty"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

type wireTool struct {
	Type     string           `json:"type"`
	Function wireToolFunction `json:"function"`
}

type wireToolFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type wireToolCall struct {
	ID       string               `json:"id"`
	Type     string               `json:"type"`
	Function wireToolCallFunction `json:"function"`
}

type wireToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message wireMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

func (g *Gateway) completeOnce(ctx context.Context, messages []Message, opts Options) (*Response, error) {
	req := chatCompletionRequest{
		Model:       g.cfg.Model,
		Temperature: opts.Temperature,
	}
	for _, m := range messages {
		wm := wireMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID, Name: m.ToolName}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: wireToolCallFunction{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		req.Messages = append(req.Messages, wm)
	}
	for _, t := range opts.Tools {
		params := json.RawMessage(t.ParametersSchema)
		if len(params) == 0 {
			params = json.RawMessage(`{"type":"object"}`)
		}
		req.Tools = append(req.Tools, wireTool{
			Type: "function",
			Function: wireToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  params,
			},
		})
	}
	switch opts.ToolChoice.Mode {
	case "required":
		req.ToolChoice = "required"
	case "named":
		req.ToolChoice = map[string]any{
			"type":     "function",
			"function": map[string]string{"name": opts.ToolChoice.Name},
		}
	case "auto":
		if len(opts.Tools) > 0 {
			req.ToolChoice = "auto"
		}
	}

	var result chatCompletionResponse
	err := withBackoff(ctx, func() error {
		body, mErr := json.Marshal(req)
		if mErr != nil {
			return backoff.Permanent(fmt.Errorf("llmgateway: marshal request: %w", mErr))
		}

		httpReq, rErr := http.NewRequestWithContext(ctx, http.MethodPost,
			g.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
		if rErr != nil {
			return backoff.Permanent(fmt.Errorf("llmgateway: build request: %w", rErr))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if g.cfg.APIKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+g.cfg.APIKey)
		}

		resp, dErr := g.client.Do(httpReq)
		if dErr != nil {
			return fmt.Errorf("%w: %v", ErrTransport, dErr)
		}
		defer resp.Body.Close()

		raw, rdErr := io.ReadAll(resp.Body)
		if rdErr != nil {
			return fmt.Errorf("%w: reading body: %v", ErrTransport, rdErr)
		}

		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return backoff.Permanent(fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode))
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, string(raw))
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("llmgateway: status %d: %s", resp.StatusCode, string(raw)))
		}

		if uErr := json.Unmarshal(raw, &result); uErr != nil {
			return backoff.Permanent(fmt.Errorf("llmgateway: decode response: %w", uErr))
		}
		if result.Error != nil {
			if result.Error.Code == "content_filter" {
				return backoff.Permanent(fmt.Errorf("%w: %s", ErrContentFiltered, result.Error.Message))
			}
			return backoff.Permanent(fmt.Errorf("llmgateway: upstream error %s: %s", result.Error.Code, result.Error.Message))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("llmgateway: upstream returned no choices")
	}

	choice := result.Choices[0].Message
	resp := &Response{Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return resp, nil
}

// withBackoff retries op on ErrRateLimited/ErrTransport with bounded
// exponential backoff (§4.2, §7 TransportRetryable), matching pkg/store's
// withRetry idiom.
func withBackoff(ctx context.Context, op func() error) error {
	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4)
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransport) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(policy, ctx))
}
