// Package llm provides an HTTP client for the LLM provider's
// chat-completions API, used for application risk assessment.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/mblcrm/lendgate/internal/domain/call"
	"github.com/mblcrm/lendgate/internal/domain/risk"
)

const systemPrompt = `You are a credit risk analyst for a government micro-business lending program.
Given application facts, respond with JSON only: {"score": 0-100, "flags": [...], "narrative": "..."}.
Higher scores mean higher risk.`

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a new LLM client.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type assessmentPayload struct {
	Score     int      `json:"score"`
	Flags     []string `json:"flags"`
	Narrative string   `json:"narrative"`
}

// AssessRisk scores a loan application via the model.
func (c *Client) AssessRisk(ctx context.Context, req risk.Request) (risk.Assessment, error) {
	prompt := fmt.Sprintf(
		"Business: %s\nRequested amount: $%.2f\nYears in business: %d\nSummary: %s",
		req.BusinessName, req.RequestedAmount, req.YearsInBusiness, req.Summary,
	)

	chatReq := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	}
	chatReq.ResponseFormat.Type = "json_object"

	body, err := json.Marshal(chatReq)
	if err != nil {
		return risk.Assessment{}, fmt.Errorf("marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return risk.Assessment{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return risk.Assessment{}, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return risk.Assessment{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return risk.Assessment{}, call.NewHTTPError(resp.StatusCode, data)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(data, &chatResp); err != nil {
		return risk.Assessment{}, fmt.Errorf("unmarshal chat response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return risk.Assessment{}, fmt.Errorf("chat response has no choices")
	}

	var payload assessmentPayload
	if err := json.Unmarshal([]byte(chatResp.Choices[0].Message.Content), &payload); err != nil {
		return risk.Assessment{}, fmt.Errorf("parse assessment payload: %w", err)
	}
	if payload.Score < 0 {
		payload.Score = 0
	}
	if payload.Score > 100 {
		payload.Score = 100
	}

	return risk.Assessment{
		ApplicationID: req.ApplicationID,
		Score:         payload.Score,
		Band:          risk.BandFor(payload.Score),
		Flags:         payload.Flags,
		Narrative:     payload.Narrative,
	}, nil
}
