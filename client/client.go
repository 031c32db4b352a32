// Package client provides a typed Go SDK for the Eternal family store REST API.
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
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/Dans272/Eternal---Family-Story-Preservation-up/internal/models"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("eternal: service unavailable")

// Client is the top-level API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker

	People       *CollectionService[models.Person]
	Trees        *CollectionService[models.Tree]
	Posts        *CollectionService[models.Post]
	PostTags     *TagService
	MediaTags    *TagService
	Import       *ImportService
	SyncFailures *SyncFailureService
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the API key for authentication.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithCircuitBreaker routes every request through a circuit breaker that
// opens after consecutive transport failures or 5xx responses. Client errors
// (4xx) do not count against it.
func WithCircuitBreaker(name string, maxFailures uint32, openFor time.Duration) Option {
	return func(c *Client) {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     openFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			IsSuccessful: func(err error) bool {
				var apiErr *APIError
				if errors.As(err, &apiErr) {
					return apiErr.StatusCode < http.StatusInternalServerError
				}
				return err == nil
			},
		})
	}
}

// New creates a client for the given base URL (e.g. "http://localhost:3030").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	c.People = &CollectionService[models.Person]{c: c, plural: "people"}
	c.Trees = &CollectionService[models.Tree]{c: c, plural: "trees"}
	c.Posts = &CollectionService[models.Post]{c: c, plural: "posts"}
	c.PostTags = &TagService{c: c, entity: "posts"}
	c.MediaTags = &TagService{c: c, entity: "media"}
	c.Import = &ImportService{c: c}
	c.SyncFailures = &SyncFailureService{c: c}
	return c
}

// Health returns the liveness check response.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.get(ctx, "/api/v1/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// OwnerID returns the owner the API key belongs to.
func (c *Client) OwnerID(ctx context.Context) (string, error) {
	var resp struct {
		OwnerID string `json:"owner_id"`
	}
	if err := c.get(ctx, "/api/v1/owner", nil, &resp); err != nil {
		return "", err
	}
	return resp.OwnerID, nil
}

// do executes an HTTP request with a JSON body and decodes the JSON response.
func (c *Client) do(ctx context.Context, method, path string, body any, result any) error {
	if body == nil {
		return c.doRaw(ctx, method, path, "", nil, result)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.doRaw(ctx, method, path, "application/json", data, result)
}

// doRaw sends data as-is, through the circuit breaker when one is set.
func (c *Client) doRaw(ctx context.Context, method, path, contentType string, data []byte, result any) error {
	if c.breaker == nil {
		return c.send(ctx, method, path, contentType, data, result)
	}

	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.send(ctx, method, path, contentType, data, result)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path, contentType string, data []byte, result any) error {
	var bodyReader io.Reader
	if data != nil {
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := parseAPIError(resp.StatusCode, respBody)
		if apiErr.RequestID == "" {
			apiErr.RequestID = requestID
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// get is a convenience wrapper for GET requests with query parameters.
func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// post is a convenience wrapper for POST requests.
func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// put is a convenience wrapper for PUT requests.
func (c *Client) put(ctx context.Context, path string, body any, result any) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

// patch is a convenience wrapper for PATCH requests.
func (c *Client) patch(ctx context.Context, path string, body any, result any) error {
	return c.do(ctx, http.MethodPatch, path, body, result)
}

// del is a convenience wrapper for DELETE requests.
func (c *Client) del(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
