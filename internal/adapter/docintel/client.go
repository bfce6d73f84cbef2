// Package docintel provides an HTTP client for Azure Document Intelligence.
// Analysis is asynchronous on the Azure side: a begin-analyze request
// returns an operation URL which is polled until it resolves. The whole
// begin+poll cycle is one logical attempt to the retry layer.
package docintel

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
	"github.com/mblcrm/lendgate/internal/domain/document"
)

// Client talks to the Document Intelligence REST API.
type Client struct {
	baseURL      string
	apiKey       string
	pollInterval time.Duration
	httpClient   *http.Client
}

// NewClient creates a new Document Intelligence client. The timeout bounds
// the whole begin+poll cycle.
func NewClient(baseURL, apiKey string, timeout, pollInterval time.Duration) *Client {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		pollInterval: pollInterval,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type analyzeResult struct {
	Status   string `json:"status"`
	Analysis struct {
		DocType    string  `json:"docType"`
		Confidence float64 `json:"confidence"`
		Pages      int     `json:"pages"`
		Warnings   []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"warnings"`
	} `json:"analyzeResult"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze submits the document and polls the returned operation until it
// succeeds or fails.
func (c *Client) Analyze(ctx context.Context, fileName string, content []byte) (document.Analysis, error) {
	opURL, err := c.beginAnalyze(ctx, content)
	if err != nil {
		return document.Analysis{}, err
	}

	for {
		result, err := c.pollOperation(ctx, opURL)
		if err != nil {
			return document.Analysis{}, err
		}

		switch result.Status {
		case "succeeded":
			return toAnalysis(fileName, result), nil
		case "failed":
			return document.Analysis{}, fmt.Errorf("analysis failed: %s: %s", result.Error.Code, result.Error.Message)
		}

		t := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return document.Analysis{}, ctx.Err()
		case <-t.C:
		}
	}
}

// beginAnalyze submits the document and returns the operation location.
func (c *Client) beginAnalyze(ctx context.Context, content []byte) (string, error) {
	url := c.baseURL + "/documentintelligence/documentModels/prebuilt-document:analyze?api-version=2024-02-29"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", call.NewHTTPError(resp.StatusCode, data)
	}

	opURL := resp.Header.Get("Operation-Location")
	if opURL == "" {
		return "", fmt.Errorf("begin analyze: missing Operation-Location header")
	}
	return opURL, nil
}

func (c *Client) pollOperation(ctx context.Context, opURL string) (*analyzeResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create poll request: %w", err)
	}
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("poll request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read poll response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, call.NewHTTPError(resp.StatusCode, data)
	}

	var result analyzeResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("unmarshal poll response: %w", err)
	}
	return &result, nil
}

func toAnalysis(fileName string, r *analyzeResult) document.Analysis {
	a := document.Analysis{
		FileName:       fileName,
		Classification: r.Analysis.DocType,
		Confidence:     r.Analysis.Confidence,
		Pages:          r.Analysis.Pages,
		AnalyzedAt:     time.Now().UTC(),
	}
	for _, w := range r.Analysis.Warnings {
		a.Anomalies = append(a.Anomalies, document.Anomaly{
			Code:        w.Code,
			Severity:    document.SeverityWarning,
			Description: w.Message,
		})
	}
	return a
}
