package strapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError is returned for every non-2xx answer of the API.
type HTTPError struct {
	StatusCode int
	Name       string
	Message    string
}

func (e *HTTPError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("strapi request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("strapi request failed with status %d: %s", e.StatusCode, e.Message)
}

// TransportError wraps failures that happened before a response was received.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("error performing %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError is returned when a response body does not match the expected record shape.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("error decoding response of %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// errorEnvelope is the error body Strapi sends, e.g.
// {"data":null,"error":{"status":400,"name":"ValidationError","message":"..."}}
type errorEnvelope struct {
	Error struct {
		Status  int    `json:"status"`
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

func parseHTTPError(status int, body []byte) *HTTPError {
	httpErr := &HTTPError{StatusCode: status}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		httpErr.Name = env.Error.Name
		httpErr.Message = env.Error.Message
		return httpErr
	}

	httpErr.Name = http.StatusText(status)
	httpErr.Message = strings.TrimSpace(string(body))
	return httpErr
}

// IsUnauthorized reports whether err is a 401 answer of the API.
func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusUnauthorized
}

// Message returns the server supplied message of err, or fallback if there is none.
func Message(err error, fallback string) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Message != "" {
		return httpErr.Message
	}
	return fallback
}
