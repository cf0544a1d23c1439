package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a client for the face-recognition attendance service API.
// All face detection, matching and confidence scoring happens on the
// service; the client only submits images and interprets results.
type Client struct {
	Url       string
	parsedURL *url.URL
	token     string
	httpc     *http.Client
}

// New creates an attendance service client without a credential.
// Authenticated calls fail until a credential is attached via Login,
// FaceLogin or SetCredential.
func New(rawURL string) (*Client, error) {
	apiURL := strings.TrimRight(rawURL, "/") + "/api"
	parsed, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid attendance service URL: %w", err)
	}
	return &Client{
		Url:       apiURL,
		parsedURL: parsed,
		httpc:     &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// NewFromCredential creates a client with an existing bearer credential,
// e.g. one restored from the session store.
func NewFromCredential(rawURL, credential string) (*Client, error) {
	c, err := New(rawURL)
	if err != nil {
		return nil, err
	}
	c.token = credential
	return c, nil
}

// SetCredential attaches an opaque bearer credential to the client.
// Pass an empty string to detach it.
func (c *Client) SetCredential(credential string) {
	c.token = credential
}

// Credential returns the currently attached bearer credential.
func (c *Client) Credential() string {
	return c.token
}

// resolveURL builds a full URL from the base API URL and the given path
// segments. If the last segment contains a query string (e.g.
// "attendance/history?user_id=abc"), it is split so JoinPath only receives
// the path portion and the query is appended.
func (c *Client) resolveURL(pathSegments ...string) string {
	if len(pathSegments) == 0 {
		return c.parsedURL.String()
	}
	last := pathSegments[len(pathSegments)-1]
	if pathPart, query, ok := strings.Cut(last, "?"); ok {
		pathSegments[len(pathSegments)-1] = pathPart
		result := c.parsedURL.JoinPath(pathSegments...)
		result.RawQuery = query
		return result.String()
	}
	return c.parsedURL.JoinPath(pathSegments...).String()
}

// Error is a structured error response from the attendance service.
// Status carries the HTTP status code, Detail the service-provided reason.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("attendance service returned status %d: %s", e.Status, e.Detail)
}

// newError builds an Error from a non-2xx response body. The service
// reports failures as {"detail": "..."}; anything else is passed through
// verbatim.
func newError(status int, body []byte) *Error {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return &Error{Status: status, Detail: payload.Detail}
	}
	return &Error{Status: status, Detail: strings.TrimSpace(string(body))}
}

// IsAuthError returns true if the error indicates a rejected or missing
// credential (401) or insufficient role (403).
func IsAuthError(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

// IsValidationError returns true if the error is a client-correctable
// rejection (400), e.g. duplicate username or an unreadable image.
func IsValidationError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest
}

// IsNotFoundError returns true if the error indicates a 404 Not Found response.
func IsNotFoundError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Detail returns the service-provided failure reason, or the plain error
// text for transport errors.
func Detail(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
