// Package client is a Go client for the quiz HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ardikafs/kartusoal/internal/model"
)

// APIError is a non-2xx response from the server, carrying its
// localized message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client calls the quiz API over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the API at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) post(ctx context.Context, path string, reqBody, respBody any) error {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, respBody)
}

func (c *Client) get(ctx context.Context, path string, respBody any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, respBody)
}

func (c *Client) do(req *http.Request, respBody any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil || apiErr.Error == "" {
			apiErr.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}
	if respBody == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Start creates or resumes the session for (identity, codeName). The
// bool reports whether the server created a new session.
func (c *Client) Start(ctx context.Context, identity, codeName string) (model.Session, bool, error) {
	var resp struct {
		Session model.Session `json:"session"`
		IsNew   bool          `json:"isNew"`
	}
	err := c.post(ctx, "/api/session/start", map[string]string{
		"session_id": identity,
		"code_name":  codeName,
	}, &resp)
	if err != nil {
		return model.Session{}, false, err
	}
	return resp.Session, resp.IsNew, nil
}

// Verify lists the sessions stored for an identity. The bool is false
// when the identity has none.
func (c *Client) Verify(ctx context.Context, identity string) ([]model.Session, bool, error) {
	var resp struct {
		Valid    bool            `json:"valid"`
		Sessions []model.Session `json:"sessions"`
	}
	err := c.post(ctx, "/api/session/verify", map[string]string{
		"session_id": identity,
	}, &resp)
	if err != nil {
		return nil, false, err
	}
	return resp.Sessions, resp.Valid, nil
}

// Advance moves the session to the given question position.
func (c *Client) Advance(ctx context.Context, identity, codeName string, number int) (model.Session, error) {
	var resp struct {
		Session model.Session `json:"session"`
	}
	err := c.post(ctx, "/api/session/update", map[string]any{
		"session":        identity,
		"code_name":      codeName,
		"current_number": number,
	}, &resp)
	if err != nil {
		return model.Session{}, err
	}
	return resp.Session, nil
}

// Delete removes the session for (identity, codeName).
func (c *Client) Delete(ctx context.Context, identity, codeName string) error {
	return c.post(ctx, "/api/session/delete", map[string]string{
		"session_id": identity,
		"code_name":  codeName,
	}, nil)
}

// CodeNames lists the topics available in the catalog.
func (c *Client) CodeNames(ctx context.Context) ([]string, error) {
	var resp struct {
		Data []string `json:"data"`
	}
	if err := c.get(ctx, "/api/codenames", &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
