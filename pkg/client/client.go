// Package client is a Go SDK for the user directory REST API. Each method
// issues exactly one HTTP request; there is no retry, caching or request
// de-duplication.
package client

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
)

// User mirrors the API representation of a directory entry.
type User struct {
	ID        string    `json:"id"`
	User      string    `json:"user"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	Mobile    int64     `json:"mobile"`
	Interest  []string  `json:"interest"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserInput is the body of create and update calls. Nil fields are omitted,
// so on update they are left unchanged by the server. A non-nil Interest
// pointing at an empty slice clears the list.
type UserInput struct {
	User     *string   `json:"user,omitempty"`
	Email    *string   `json:"email,omitempty"`
	Age      *int      `json:"age,omitempty"`
	Mobile   *int64    `json:"mobile,omitempty"`
	Interest *[]string `json:"interest,omitempty"`
}

// APIError is returned for every non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Error: %d", e.Status)
}

// Client talks to one API base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New returns a client for baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// ListUsers returns all users.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var env envelope[[]User]
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []User{}, nil
	}
	return env.Data, nil
}

// GetUser returns the user with id.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var env envelope[*User]
	if err := c.do(ctx, http.MethodGet, userPath(id), nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// CreateUser creates a user and returns it with its assigned id.
func (c *Client) CreateUser(ctx context.Context, in UserInput) (*User, error) {
	var env envelope[*User]
	if err := c.do(ctx, http.MethodPost, "/api/users", in, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// UpdateUser changes the fields set in in and returns the updated user.
func (c *Client) UpdateUser(ctx context.Context, id string, in UserInput) (*User, error) {
	var env envelope[*User]
	if err := c.do(ctx, http.MethodPut, userPath(id), in, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// DeleteUser removes the user with id.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, userPath(id), nil, nil)
}

// Health reports whether the API answers its health probe.
func (c *Client) Health(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("unexpected health status %q", out.Status)
	}
	return nil
}

func userPath(id string) string {
	return "/api/users/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env envelope[json.RawMessage]
		if err := json.NewDecoder(resp.Body).Decode(&env); err == nil {
			apiErr.Message = env.Message
		}
		return apiErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
