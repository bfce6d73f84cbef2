// Package einverify provides the HTTP client for the EIN verification
// service.
package einverify

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
	"github.com/mblcrm/lendgate/internal/domain/ein"
)

// Client talks to the EIN verification API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new EIN verification client. The timeout bounds each
// attempt; the retry loop above decides how many attempts happen.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type verifyRequest struct {
	EIN       string `json:"ein"`
	LegalName string `json:"legal_name"`
}

type verifyResponse struct {
	MatchStatus string `json:"match_status"`
	EntityType  string `json:"entity_type"`
	NameControl string `json:"name_control"`
}

// Verify checks the EIN/legal-name pair against the verification service.
func (c *Client) Verify(ctx context.Context, rawEIN, legalName string) (ein.Verification, error) {
	body, err := json.Marshal(verifyRequest{EIN: ein.Normalize(rawEIN), LegalName: legalName})
	if err != nil {
		return ein.Verification{}, fmt.Errorf("marshal verify request: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/v1/verify", body)
	if err != nil {
		return ein.Verification{}, err
	}

	var resp verifyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return ein.Verification{}, fmt.Errorf("unmarshal verify response: %w", err)
	}

	return ein.Verification{
		EIN:         ein.Normalize(rawEIN),
		LegalName:   legalName,
		MatchStatus: resp.MatchStatus,
		EntityType:  resp.EntityType,
		NameControl: resp.NameControl,
		VerifiedAt:  time.Now().UTC(),
	}, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, call.NewHTTPError(resp.StatusCode, data)
	}

	return data, nil
}
