// Package metabase implements a client for the subset of the Metabase REST
// API that the MCP server exposes: dashboards, cards, databases,
// collections and native query execution.
package metabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"metabasemcp/auth"
)

// Auth header names understood by Metabase.
const (
	hdrAPIKey  = "X-API-KEY"
	hdrSession = "X-Metabase-Session"
)

// Client is a Metabase API client.  All methods are safe for concurrent
// use.
type Client struct {
	baseURL string
	cl      *http.Client
	prov    auth.Provider
	logger  *slog.Logger

	// session token for username/password mode; empty until the first
	// successful login.  Guarded by mu; loginMu serialises the login call
	// itself so that concurrent first requests produce at most one login.
	mu      sync.Mutex
	loginMu sync.Mutex
	session string
}

// Option is a functional option for New.
type Option func(*Client)

// WithLogger sets the logger.  A nil logger falls back to slog.Default().
func WithLogger(lg *slog.Logger) Option {
	return func(c *Client) {
		if lg != nil {
			c.logger = lg
		}
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(cl *http.Client) Option {
	return func(c *Client) {
		if cl != nil {
			c.cl = cl
		}
	}
}

// New creates a Metabase client for the instance at baseURL, authenticating
// with the given provider.
func New(baseURL string, prov auth.Provider, opt ...Option) (*Client, error) {
	if prov == nil {
		return nil, errors.New("metabase: nil auth provider")
	}
	if err := prov.Validate(); err != nil {
		return nil, err
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("metabase: invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("metabase: invalid base URL %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("metabase: invalid base URL %q: missing host", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		cl:      http.DefaultClient,
		prov:    prov,
		logger:  slog.Default(),
	}
	for _, o := range opt {
		o(c)
	}
	return c, nil
}

// SiteURL returns the base URL of the Metabase instance without a trailing
// slash, suitable for building deep links into the web application.
func (c *Client) SiteURL() string {
	return c.baseURL
}

// APIError is a non-2xx response from the Metabase API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("metabase API error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("metabase API error: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

const maxErrBody = 512

// apiMessage extracts the human readable error message from a Metabase
// error body.  Metabase responds with a bare string, a {"message": ...}
// object, or an {"errors": {field: problem}} map depending on the
// endpoint.
func apiMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}
	var obj struct {
		Message string         `json:"message"`
		Errors  map[string]any `json:"errors"`
	}
	if err := json.Unmarshal(body, &obj); err == nil {
		if obj.Message != "" {
			return obj.Message
		}
		if len(obj.Errors) > 0 {
			parts := make([]string, 0, len(obj.Errors))
			for field, problem := range obj.Errors {
				parts = append(parts, fmt.Sprintf("%s: %v", field, problem))
			}
			return strings.Join(parts, "; ")
		}
	}
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return s
	}
	if len(body) > maxErrBody {
		body = body[:maxErrBody]
	}
	return string(body)
}

// do performs an authenticated API call, resolving the session first.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	if err := c.ensureSession(ctx); err != nil {
		return nil, err
	}
	return c.roundTrip(ctx, method, path, query, body)
}

// roundTrip performs a single API call without resolving the session.
// Used by do and by the login call itself.
func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("metabase: %s %s: encode body: %w", method, path, err)
		}
		rdr = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return nil, fmt.Errorf("metabase: %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.cl.Do(req)
	if err != nil {
		return nil, fmt.Errorf("metabase: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("metabase: %s %s: read response: %w", method, path, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: apiMessage(data)}
	}
	return data, nil
}

// authorize attaches the credential header to the request.  In session mode
// the header is only present once a login has succeeded; the login request
// itself goes out bare.
func (c *Client) authorize(req *http.Request) {
	switch c.prov.Type() {
	case auth.TypeAPIKey:
		req.Header.Set(hdrAPIKey, c.prov.APIKey())
	case auth.TypeUserPass:
		if tok := c.token(); tok != "" {
			req.Header.Set(hdrSession, tok)
		}
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

func (c *Client) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

func (c *Client) put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, path, nil, body)
}

func (c *Client) del(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}
