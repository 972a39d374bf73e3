// Package client is the Go consumer of the task API. It keeps the
// caller's token pair in a TokenStore, attaches the access token to
// every request, and when a call comes back 401 it refreshes the
// access token and retries the call exactly once.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"taskman/models"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

// Client talks to one task API server on behalf of one user.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
}

func New(baseURL string, tokens TokenStore) *Client {
	return &Client{
		baseURL: baseURL,
		http:    http.DefaultClient,
		tokens:  tokens,
	}
}

// NewWithHTTPClient is New with a caller-supplied transport, e.g. one
// with a timeout.
func NewWithHTTPClient(baseURL string, tokens TokenStore, hc *http.Client) *Client {
	c := New(baseURL, tokens)
	c.http = hc
	return c
}

// Register creates an account and returns the new user's id.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	var resp struct {
		UserID string `json:"userId"`
	}
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, body, &resp); err != nil {
		return "", err
	}
	return resp.UserID, nil
}

// Login authenticates and saves the issued token pair in the store.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var pair models.TokenPair
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &pair); err != nil {
		return err
	}
	return c.tokens.Save(pair)
}

// Logout tells the server goodbye and drops the stored pair.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil); err != nil {
		return err
	}
	return c.tokens.Save(models.TokenPair{})
}

// ListOptions mirror the task listing query parameters. Zero values
// are omitted and the server applies its defaults.
type ListOptions struct {
	Search string
	Status string
	Page   int
	Limit  int
}

func (c *Client) ListTasks(ctx context.Context, opts ListOptions) ([]models.Task, error) {
	q := url.Values{}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}

	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", q, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, title, description string) (models.Task, error) {
	var task models.Task
	body := map[string]string{"title": title, "description": description}
	err := c.do(ctx, http.MethodPost, "/tasks", nil, body, &task)
	return task, err
}

func (c *Client) GetTask(ctx context.Context, id int64) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tasks/%d", id), nil, nil, &task)
	return task, err
}

// TaskUpdate carries the fields to change; nil fields are not sent.
type TaskUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

func (c *Client) UpdateTask(ctx context.Context, id int64, update TaskUpdate) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/tasks/%d", id), nil, update, &task)
	return task, err
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil, nil)
}

func (c *Client) ToggleTask(ctx context.Context, id int64) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/tasks/%d/toggle", id), nil, nil, &task)
	return task, err
}

// do performs one API call. On a 401 it makes at most one recovery
// attempt: refresh the access token, retry the original request once.
// If the refresh itself fails, the original 401 is returned unchanged
// and the stored tokens are left alone.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	pair, err := c.tokens.Load()
	if err != nil {
		return fmt.Errorf("load tokens: %w", err)
	}

	status, payload, err := c.send(ctx, method, path, query, body, pair.AccessToken)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && pair.RefreshToken != "" {
		access, refreshErr := c.refresh(ctx, pair.RefreshToken)
		if refreshErr != nil {
			return apiError(status, payload)
		}
		pair.AccessToken = access
		if err := c.tokens.Save(pair); err != nil {
			return fmt.Errorf("save tokens: %w", err)
		}
		status, payload, err = c.send(ctx, method, path, query, body, access)
		if err != nil {
			return err
		}
	}

	if status < 200 || status > 299 {
		return apiError(status, payload)
	}
	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any, accessToken string) (int, []byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, payload, nil
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (string, error) {
	body := map[string]string{"refreshToken": refreshToken}
	status, payload, err := c.send(ctx, http.MethodPost, "/auth/refresh", nil, body, "")
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", apiError(status, payload)
	}
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(payload, &resp); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	return resp.AccessToken, nil
}

func apiError(status int, payload []byte) error {
	var body struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(payload, &body)
	return &APIError{StatusCode: status, Message: body.Message}
}
