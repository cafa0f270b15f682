package strapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/minecom/minedash/internal/config"
)

// TokenSource returns the bearer token for the request context, or an empty
// string if the request is anonymous.
type TokenSource func(ctx context.Context) string

// UnauthorizedHandler is called whenever the API answers with 401.
type UnauthorizedHandler func(ctx context.Context)

// Client is a Strapi REST API client.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	tokenSource    TokenSource
	onUnauthorized UnauthorizedHandler
	validate       *validator.Validate
}

// Option configures a Client.
type Option func(*Client)

// WithTokenSource sets the function used to look up the bearer token.
func WithTokenSource(src TokenSource) Option {
	return func(c *Client) {
		c.tokenSource = src
	}
}

// WithUnauthorizedHandler sets the hook called on 401 responses.
func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(c *Client) {
		c.onUnauthorized = h
	}
}

// WithHTTPClient replaces the underlying http client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a new Strapi client.
func New(cfg *config.StrapiConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{
		baseURL:    cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type requestOptions struct {
	headers http.Header
}

// RequestOption modifies a single request.
type RequestOption func(*requestOptions)

// WithHeader overrides a request header. It wins over the headers set by the client.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		o.headers.Set(key, value)
	}
}

// WithToken authenticates a single request with the given token.
func WithToken(token string) RequestOption {
	return WithHeader("Authorization", "Bearer "+token)
}

// Get issues a GET request and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post issues a POST request with a JSON body and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPost, path, body, out, opts...)
}

// Put issues a PUT request with a JSON body and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodPut, path, body, out, opts...)
}

// Delete issues a DELETE request and decodes the response into out.
func (c *Client) Delete(ctx context.Context, path string, out any, opts ...RequestOption) error {
	return c.do(ctx, http.MethodDelete, path, nil, out, opts...)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, opts ...RequestOption) error {
	resp, err := c.doRequest(ctx, method, path, body, opts...)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}

// doRequest performs an HTTP request to the Strapi API.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, opts ...RequestOption) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.tokenSource != nil {
		if token := c.tokenSource(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	ro := &requestOptions{headers: make(http.Header)}
	for _, opt := range opts {
		opt(ro)
	}
	for key, values := range ro.headers {
		req.Header[key] = values
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(resp.Body)
		httpErr := parseHTTPError(resp.StatusCode, bodyBytes)

		if resp.StatusCode == http.StatusUnauthorized && c.onUnauthorized != nil {
			log.Warn("Strapi rejected the session token", "method", method, "path", path)
			c.onUnauthorized(ctx)
		}
		return nil, httpErr
	}

	return resp, nil
}

// check validates a decoded record against its validate tags.
func (c *Client) check(path string, v any) error {
	if err := c.validate.Struct(v); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return fmt.Errorf("cannot validate %s: %w", reflect.TypeOf(v), err)
		}
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}
