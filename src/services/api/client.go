// Package api is the typed client for the chat backend's REST surface.
// Every failure, transport or HTTP, comes back as a models.GatewayError
// with a message fit for direct display.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"termchat/src/models"
)

// Client issues the four backend operations. It holds no conversation
// state, and every call is attempted exactly once; resubmitting after a
// failure is the user's call, not this layer's.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListSessions fetches the stored session summaries. An empty list is a
// normal answer, not an error.
func (c *Client) ListSessions(ctx context.Context) ([]models.SessionSummary, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/sessions", nil)
	if err != nil {
		return nil, err
	}
	var sessions []models.SessionSummary
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, &models.GatewayError{
			Kind:    models.GatewayRejected,
			Message: "the backend sent an unreadable session list",
		}
	}
	return sessions, nil
}

// FetchHistory returns the prompt/response pairs stored for a session.
// A session with no prior turns yields an empty list.
func (c *Client) FetchHistory(ctx context.Context, sessionID string) ([]models.HistoryRecord, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/history/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return nil, err
	}
	var records []models.HistoryRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, &models.GatewayError{
			Kind:    models.GatewayRejected,
			Message: "the backend sent unreadable history",
		}
	}
	return records, nil
}

type generateRequest struct {
	Prompt    string           `json:"prompt"`
	SessionID string           `json:"session_id"`
	History   []models.Message `json:"history"`
}

// Generate submits the prompt plus the full prior message list, so the
// backend can rebuild context, and returns the completed response text.
func (c *Client) Generate(ctx context.Context, prompt, sessionID string, history []models.Message) (string, error) {
	if history == nil {
		history = []models.Message{}
	}
	payload, err := json.Marshal(generateRequest{Prompt: prompt, SessionID: sessionID, History: history})
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, "/api/generate", payload)
	if err != nil {
		return "", err
	}
	result := gjson.GetBytes(body, "result")
	if !result.Exists() {
		return "", &models.GatewayError{
			Kind:    models.GatewayRejected,
			Message: "the backend sent no result",
		}
	}
	return result.String(), nil
}

// DeleteSession removes a stored session and all of its history.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(sessionID), nil)
	return err
}

// do runs one request and normalizes every failure into a GatewayError.
func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.GatewayError{
			Kind:    models.GatewayConnectivity,
			Message: "could not reach the backend, is it running?",
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &models.GatewayError{
			Kind:    models.GatewayConnectivity,
			Message: "the connection dropped while reading the backend's answer",
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp.StatusCode, body)
	}
	return body, nil
}

// newStatusError maps a non-2xx answer to a GatewayError. The backend's
// detail string, when present, is surfaced verbatim so rate-limit hints
// reach the user unmodified.
func newStatusError(status int, body []byte) *models.GatewayError {
	kind := models.GatewayRejected
	message := fmt.Sprintf("the backend rejected the request (HTTP %d)", status)
	if status == http.StatusTooManyRequests {
		kind = models.GatewayRateLimited
		message = "too many requests, give it a moment"
	}
	if detail := gjson.GetBytes(body, "detail"); detail.Exists() && detail.String() != "" {
		message = detail.String()
	}
	return &models.GatewayError{Kind: kind, Status: status, Message: message}
}
