// Package client is a Go client for the keyshelf HTTP API. It attaches the
// stored bearer token to every request and turns non-2xx responses into
// *APIError values. A 401 clears the stored token; callers use LoginRedirect
// to send the user back through the identity service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultTimeout = 30 * time.Second

// ErrUnauthorized matches any *APIError with status 401.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a normalized error response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Is reports 401 errors as ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// Credential mirrors the service's JSON representation of an API key.
type Credential struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Key         string `json:"key"`
	BaseURL     string `json:"baseUrl"`
	Model       string `json:"model"`
	Description string `json:"description"`
	Category    string `json:"category"`
	IsActive    bool   `json:"isActive"`
	OwnerID     string `json:"ownerId"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// CredentialFields is the body of create and update calls. Nil fields are
// omitted; on update the service keeps their stored value.
type CredentialFields struct {
	Name        *string `json:"name,omitempty"`
	Key         *string `json:"key,omitempty"`
	BaseURL     *string `json:"baseUrl,omitempty"`
	Model       *string `json:"model,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// Health is the health endpoint payload.
type Health struct {
	Status  string `json:"status"`
	Storage string `json:"storage"`
	Time    string `json:"time"`
}

// Client talks to one keyshelf deployment.
type Client struct {
	baseURL    string
	httpClient *http.Client
	loginURL   string

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLoginURL sets the identity service login page used by LoginRedirect.
func WithLoginURL(loginURL string) Option {
	return func(c *Client) { c.loginURL = loginURL }
}

// New creates a Client for baseURL, e.g. "http://127.0.0.1:3001/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the stored token; it is empty after a 401.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the stored token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// LoginRedirect returns the login page URL carrying returnURL as the
// redirect parameter. It returns "" when no login URL is configured.
func (c *Client) LoginRedirect(returnURL string) string {
	if c.loginURL == "" {
		return ""
	}
	sep := "?"
	if strings.Contains(c.loginURL, "?") {
		sep = "&"
	}
	return c.loginURL + sep + "redirect=" + url.QueryEscape(returnURL)
}

// ListCredentials returns the caller's API keys.
func (c *Client) ListCredentials(ctx context.Context) ([]Credential, error) {
	var out []Credential
	if err := c.do(ctx, http.MethodGet, "/api-keys", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCredential returns one API key.
func (c *Client) GetCredential(ctx context.Context, id string) (Credential, error) {
	var out Credential
	err := c.do(ctx, http.MethodGet, "/api-keys/"+url.PathEscape(id), nil, &out)
	return out, err
}

// CreateCredential stores a new API key.
func (c *Client) CreateCredential(ctx context.Context, fields CredentialFields) (Credential, error) {
	var out Credential
	err := c.do(ctx, http.MethodPost, "/api-keys", fields, &out)
	return out, err
}

// UpdateCredential changes the supplied fields of an API key.
func (c *Client) UpdateCredential(ctx context.Context, id string, fields CredentialFields) (Credential, error) {
	var out Credential
	err := c.do(ctx, http.MethodPut, "/api-keys/"+url.PathEscape(id), fields, &out)
	return out, err
}

// DeleteCredential removes an API key.
func (c *Client) DeleteCredential(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api-keys/"+url.PathEscape(id), nil, nil)
}

// Health calls the unauthenticated health endpoint.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var out Health
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &APIError{Status: http.StatusInternalServerError, Message: err.Error()}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return &APIError{Status: http.StatusInternalServerError, Message: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &APIError{Status: http.StatusInternalServerError, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.SetToken("")
		return &APIError{Status: http.StatusUnauthorized, Message: "Unauthorized"}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &APIError{Status: http.StatusInternalServerError, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

// errorMessage prefers the service's {"error": "..."} body.
func errorMessage(resp *http.Response) string {
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		return body.Error
	}
	return fmt.Sprintf("HTTP error! Status: %d", resp.StatusCode)
}
