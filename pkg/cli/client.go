package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"retail-insights/internal/assistant"
	"retail-insights/internal/domain"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	HTTPStatus int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (HTTP %d): %s", e.HTTPStatus, e.Message)
}

// Client is a thin HTTP client for the retail insights API.
type Client struct {
	host string
	http *http.Client
}

// NewClient creates a Client for the given host URL.
func NewClient(host string) *Client {
	return &Client{
		host: strings.TrimRight(host, "/"),
		http: &http.Client{Timeout: 5 * time.Minute},
	}
}

// LoadResponse is the result of loading a dataset.
type LoadResponse struct {
	Session domain.Session  `json:"session"`
	Schema  domain.Metadata `json:"schema"`
}

// LoadDataset asks the server to ingest a CSV and open a session.
func (c *Client) LoadDataset(ctx context.Context, path, table string) (*LoadResponse, error) {
	var out LoadResponse
	err := c.do(ctx, http.MethodPost, "/v1/datasets", map[string]string{"path": path, "table": table}, &out)
	return &out, err
}

// Schema fetches the current dataset's schema.
func (c *Client) Schema(ctx context.Context) (*domain.Metadata, error) {
	var out domain.Metadata
	err := c.do(ctx, http.MethodGet, "/v1/datasets/current/schema", nil, &out)
	return &out, err
}

// Ask sends a question to a session.
func (c *Client) Ask(ctx context.Context, sessionID, question string) (*assistant.Answer, error) {
	var out assistant.Answer
	err := c.do(ctx, http.MethodPost, "/v1/sessions/"+sessionID+"/ask", map[string]string{"question": question}, &out)
	return &out, err
}

// Summarize requests an executive summary for a session's dataset.
func (c *Client) Summarize(ctx context.Context, sessionID string) (*assistant.Summary, error) {
	var out assistant.Summary
	err := c.do(ctx, http.MethodPost, "/v1/sessions/"+sessionID+"/summary", nil, &out)
	return &out, err
}

// History fetches a session's transcript.
func (c *Client) History(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	var out struct {
		Messages []domain.ChatMessage `json:"messages"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/sessions/"+sessionID+"/history", nil, &out)
	return out.Messages, err
}

// ClearHistory deletes a session's transcript.
func (c *Client) ClearHistory(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/sessions/"+sessionID+"/history", nil, nil)
}

// Queries fetches a session's query log.
func (c *Client) Queries(ctx context.Context, sessionID string) ([]domain.QueryLogEntry, error) {
	var out struct {
		Queries []domain.QueryLogEntry `json:"queries"`
	}
	err := c.do(ctx, http.MethodGet, "/v1/sessions/"+sessionID+"/queries", nil, &out)
	return out.Queries, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.host+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &errBody) == nil && errBody.Error != "" {
			msg = errBody.Error
		}
		return &APIError{HTTPStatus: resp.StatusCode, Message: msg}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
