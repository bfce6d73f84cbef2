// Package msgraph provides an HTTP client for the Microsoft Graph
// endpoints the CRM uses: online meetings and Teams channel messages.
package msgraph

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
	"github.com/mblcrm/lendgate/internal/domain/meeting"
)

// Client talks to the Microsoft Graph API.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient creates a new Graph client.
func NewClient(baseURL, accessToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type graphMeetingRequest struct {
	Subject       string `json:"subject"`
	StartDateTime string `json:"startDateTime"`
	EndDateTime   string `json:"endDateTime"`
}

type graphMeetingResponse struct {
	ID            string `json:"id"`
	Subject       string `json:"subject"`
	StartDateTime string `json:"startDateTime"`
	EndDateTime   string `json:"endDateTime"`
	JoinWebURL    string `json:"joinWebUrl"`
}

// CreateMeeting schedules an online meeting on behalf of the organizer.
func (c *Client) CreateMeeting(ctx context.Context, req meeting.Request) (meeting.Meeting, error) {
	body, err := json.Marshal(graphMeetingRequest{
		Subject:       req.Subject,
		StartDateTime: req.Start.UTC().Format(time.RFC3339),
		EndDateTime:   req.End.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return meeting.Meeting{}, fmt.Errorf("marshal meeting request: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/me/onlineMeetings", body)
	if err != nil {
		return meeting.Meeting{}, err
	}

	var resp graphMeetingResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return meeting.Meeting{}, fmt.Errorf("unmarshal meeting response: %w", err)
	}

	start, _ := time.Parse(time.RFC3339, resp.StartDateTime)
	end, _ := time.Parse(time.RFC3339, resp.EndDateTime)
	return meeting.Meeting{
		ID:      resp.ID,
		Subject: resp.Subject,
		Start:   start,
		End:     end,
		JoinURL: resp.JoinWebURL,
	}, nil
}

type channelMessageRequest struct {
	Body struct {
		Content string `json:"content"`
	} `json:"body"`
}

// SendChannelMessage posts a notification to a Teams channel.
func (c *Client) SendChannelMessage(ctx context.Context, msg meeting.ChannelMessage) (struct{}, error) {
	var req channelMessageRequest
	req.Body.Content = msg.Text

	body, err := json.Marshal(req)
	if err != nil {
		return struct{}{}, fmt.Errorf("marshal channel message: %w", err)
	}

	path := fmt.Sprintf("/teams/channels/%s/messages", msg.Channel)
	if _, err := c.doRequest(ctx, http.MethodPost, path, body); err != nil {
		return struct{}{}, err
	}
	return struct{}{}, nil
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
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

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
