package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cinehub/cinehub/internal/domain"
	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds every request end to end
	DefaultTimeout = 15 * time.Second

	// PathPrefix is appended to the configured origin
	PathPrefix = "/api"

	// HeaderRequestID correlates a call with backend logs
	HeaderRequestID = "X-Request-ID"

	// MaxResponseSize caps how much of a response body is read
	MaxResponseSize = 8 << 20
)

// Request describes one call to the backend, relative to the base URL
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any

	// Anonymous requests never carry the Authorization header
	Anonymous bool

	token       string // Overrides the client default when set
	sentToken   string // Token actually attached by Client.Do
	sentSession uint64 // Client session the token belonged to
	retried     bool   // Already replayed once after a refresh
}

// replay returns a copy of r bound to token and marked as retried
func (r *Request) replay(token string) *Request {
	cp := *r
	cp.token = token
	cp.sentToken = ""
	cp.sentSession = 0
	cp.retried = true
	return &cp
}

// RequestFunc issues a request and returns the raw JSON response body
type RequestFunc func(ctx context.Context, req *Request) (json.RawMessage, error)

// Client is the HTTP core: one base URL, one timeout and the default
// bearer token shared by every call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu      sync.RWMutex
	token   string
	session uint64 // Bumped by SetAuthToken, kept across refreshes
}

// NewClient creates a client rooted at baseURL (already including /api)
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// SetAuthToken sets the default bearer token for a new session; an empty
// token removes it
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	c.token = token
	c.session++
	c.mu.Unlock()
}

// rotateAuthToken swaps in a refreshed token, but only while session is
// still the current one
func (c *Client) rotateAuthToken(session uint64, token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != session {
		return false
	}
	c.token = token
	return true
}

// endSession removes the token if session is still the current one
func (c *Client) endSession(session uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != session {
		return false
	}
	c.token = ""
	c.session++
	return true
}

func (c *Client) authState() (string, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token, c.session
}

// AuthToken returns the current default bearer token ("" if none)
func (c *Client) AuthToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Do performs the request. Non-2xx responses and transport failures are
// returned as *HTTPError; nothing else escapes from the network layer.
func (c *Client) Do(ctx context.Context, req *Request) (json.RawMessage, error) {
	reqURL := c.baseURL + req.Path
	if len(req.Query) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, req.Query.Encode())
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, domain.NewValidationError("failed to encode request: %v", err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, reqURL, body)
	if err != nil {
		return nil, &HTTPError{Method: req.Method, Path: req.Path, Err: err}
	}

	reqID := uuid.NewString()
	httpReq.Header.Set(HeaderRequestID, reqID)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	current, session := c.authState()
	token := req.token
	if token == "" {
		token = current
	}
	if token != "" && !req.Anonymous {
		httpReq.Header.Set("Authorization", "Bearer "+token)
		req.sentToken = token
		req.sentSession = session
	}

	c.logger.Debug("api request", "method", req.Method, "path", req.Path, "request_id", reqID, "retried", req.retried)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("api request failed", "method", req.Method, "path", req.Path, "request_id", reqID, "error", err)
		return nil, &HTTPError{Method: req.Method, Path: req.Path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, &HTTPError{Method: req.Method, Path: req.Path, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	if len(respBody) > MaxResponseSize {
		c.logger.Error("api response too large", "method", req.Method, "path", req.Path, "request_id", reqID, "status", resp.StatusCode)
		return nil, &HTTPError{Method: req.Method, Path: req.Path, Status: resp.StatusCode, Err: fmt.Errorf("response exceeds %d bytes", MaxResponseSize)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		level := slog.LevelWarn
		if resp.StatusCode >= 500 {
			level = slog.LevelError
		}
		c.logger.Log(ctx, level, "api request error",
			"method", req.Method,
			"path", req.Path,
			"request_id", reqID,
			"status", resp.StatusCode,
			"body", truncate(respBody, 512),
		)
		return nil, &HTTPError{
			Method: req.Method,
			Path:   req.Path,
			Status: resp.StatusCode,
			Body:   respBody,
		}
	}

	return respBody, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
