package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openconsole/openconsole/pkg/types"
)

// Client is an HTTP client for the openconsole API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new openconsole API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("api error (%d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("api error: status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// CreateSession creates a new console session.
func (c *Client) CreateSession(ctx context.Context, req types.CreateSessionRequest) (*types.SessionInfo, error) {
	var info types.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/sessions", req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// CreateTerminal creates or reattaches a terminal session.
func (c *Client) CreateTerminal(ctx context.Context, req types.ReattachTerminalRequest) (*types.SessionInfo, error) {
	var info types.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/sessions/terminal", req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// ListSessions returns all registered sessions.
func (c *Client) ListSessions(ctx context.Context) ([]types.SessionInfo, error) {
	var infos []types.SessionInfo
	if err := c.do(ctx, http.MethodGet, "/sessions", nil, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// GetSession returns one session by handle.
func (c *Client) GetSession(ctx context.Context, handle string) (*types.SessionInfo, error) {
	var info types.SessionInfo
	if err := c.do(ctx, http.MethodGet, "/sessions/"+handle, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// StartSession spawns the session's child process.
func (c *Client) StartSession(ctx context.Context, handle string) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+handle+"/start", nil, nil)
}

// InterruptSession requests termination of the session's child.
func (c *Client) InterruptSession(ctx context.Context, handle string) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+handle+"/interrupt", nil, nil)
}

// WriteStdin queues input for the session.
func (c *Client) WriteStdin(ctx context.Context, handle string, req types.WriteStdinRequest) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+handle+"/stdin", req, nil)
}

// SetSize changes the session's terminal dimensions.
func (c *Client) SetSize(ctx context.Context, handle string, cols, rows int) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+handle+"/size",
		types.ResizeRequest{Cols: cols, Rows: rows}, nil)
}

// SetCaption updates the session's caption.
func (c *Client) SetCaption(ctx context.Context, handle, caption string) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+handle+"/caption",
		types.SetTextRequest{Text: caption}, nil)
}

// SetTitle updates the session's title.
func (c *Client) SetTitle(ctx context.Context, handle, title string) error {
	return c.do(ctx, http.MethodPost, "/sessions/"+handle+"/title",
		types.SetTextRequest{Text: title}, nil)
}

// GetBuffer returns the session's retained output.
func (c *Client) GetBuffer(ctx context.Context, handle string) (string, error) {
	var resp types.BufferResponse
	if err := c.do(ctx, http.MethodGet, "/sessions/"+handle+"/buffer", nil, &resp); err != nil {
		return "", err
	}
	return resp.Buffer, nil
}

// EraseBuffer clears the session's retained output.
func (c *Client) EraseBuffer(ctx context.Context, handle string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+handle+"/buffer", nil, nil)
}

// ReapSession removes the session and its persisted output.
func (c *Client) ReapSession(ctx context.Context, handle string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+handle, nil, nil)
}

// PublicKey fetches the daemon's PEM-encoded input-encryption key.
func (c *Client) PublicKey(ctx context.Context) (string, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/publickey", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error: status %d", resp.StatusCode)
	}
	pem, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read public key: %w", err)
	}
	return string(pem), nil
}
