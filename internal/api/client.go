package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sadopc/focusflow/internal/pomodoro"
)

const (
	apiPrefix      = "/api/v1"
	defaultTimeout = 10 * time.Second
)

// Client talks to the FocusFlow REST backend. It implements both
// pomodoro.SessionService and pomodoro.TaskService. Failed calls are logged
// and returned; nothing is retried.
type Client struct {
	baseURL string
	client  *http.Client
}

// Error is a non-2xx response from the backend.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Detail)
}

// NewClient builds a client for baseURL, which gets an /api/v1 suffix if it
// lacks one. A zero timeout uses the 10s default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: NormalizeBaseURL(baseURL),
		client:  &http.Client{Timeout: timeout},
	}
}

// NormalizeBaseURL trims trailing slashes and makes sure the URL ends with
// the API prefix.
func NormalizeBaseURL(raw string) string {
	u := strings.TrimRight(raw, "/")
	if strings.HasSuffix(u, apiPrefix) {
		return u
	}
	return u + apiPrefix
}

func (c *Client) BaseURL() string { return c.baseURL }

// do sends one request. A nil out discards the body; a JSON null body leaves
// out untouched.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	err := c.roundTrip(ctx, method, path, query, in, out)
	if err != nil {
		log.Printf("%s %s: %v", method, path, err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode, Detail: errorDetail(respBody)}
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", pomodoro.ErrNotFound, apiErr)
		}
		if resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest {
			return fmt.Errorf("%w: %w", pomodoro.ErrInvalidInput, apiErr)
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorDetail pulls a message out of the backend's {"detail": ...} body.
// Validation errors carry a list of objects rather than a string.
func errorDetail(body []byte) string {
	var e struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &e) != nil || len(e.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}
	var s string
	if json.Unmarshal(e.Detail, &s) == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(e.Detail, &items) == nil && len(items) > 0 {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			msgs = append(msgs, it.Msg)
		}
		return strings.Join(msgs, "; ")
	}
	return string(e.Detail)
}

// IsNotFound reports whether err is a 404 from the backend or the local store.
func IsNotFound(err error) bool {
	return errors.Is(err, pomodoro.ErrNotFound)
}
