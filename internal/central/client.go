// Package central provides an HTTP client for the Central backend API.
//
// Relative request URLs are resolved under the API version path (/v1) and
// carry the session's bearer token. Error responses in the Problem shape
// {"code": 404.1, "message": "..."} come back as *ProblemError; anything else
// that fails is a *StatusError, *TransportError or *ValidationError.
package central

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"
)

// APIVersionPath is the path prefix of every versioned API endpoint.
const APIVersionPath = "/v1"

// DefaultMaxUploadSize bounds request bodies with a declared size.
const DefaultMaxUploadSize int64 = 100 << 20

// Client is an HTTP client for the Central API. Thread-safe.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
	maxUpload int64

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the timeout of the underlying *http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithMaxUploadSize sets the largest body size accepted for uploads.
// Zero disables the check.
func WithMaxUploadSize(n int64) Option {
	return func(c *Client) { c.maxUpload = n }
}

// New creates a client for the server at baseURL (e.g. "https://central.example.org").
func New(baseURL string, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("central: parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("central: base url %q must be absolute", baseURL)
	}
	c := &Client{
		base:      base,
		http:      &http.Client{Timeout: 30 * time.Second},
		userAgent: "central-admin",
		maxUpload: DefaultMaxUploadSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// SetToken sets the bearer token. An empty token removes authentication.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// ------------------------------------------------------------------
// Requests
// ------------------------------------------------------------------

// Request describes one API call. URL may be relative ("projects/1"),
// host-rooted ("/v1/projects/1", "/version.txt") or absolute.
type Request struct {
	Method string
	URL    string
	Query  url.Values
	Header http.Header

	// JSON is marshalled as the request body when non-nil.
	JSON any

	// Body is sent as-is when JSON is nil. Size is its declared length and
	// is checked against the client's maximum upload size.
	Body        io.Reader
	ContentType string
	Size        int64
}

// Response is a fully-read API response.
type Response struct {
	Status    int
	Header    http.Header
	Body      []byte
	RequestID string
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("central: decode response: %w", err)
	}
	return nil
}

// Do sends req and reads the whole response. Error statuses are returned as
// *ProblemError or *StatusError together with the response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	body, contentType, err := c.body(req)
	if err != nil {
		return nil, err
	}

	u, err := c.Resolve(req.URL)
	if err != nil {
		return nil, err
	}
	if len(req.Query) > 0 {
		q := u.Query()
		for k, vs := range req.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("central: build request: %w", err)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.Body != nil && req.JSON == nil && req.Size > 0 {
		httpReq.ContentLength = req.Size
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	requestID := xid.New().String()
	httpReq.Header.Set("X-Request-Id", requestID)
	if c.authenticates(u) {
		if token := c.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Method: method, URL: u.Redacted(), Err: err}
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Method: method, URL: u.Redacted(), Err: fmt.Errorf("read body: %w", err)}
	}

	resp := &Response{
		Status:    httpResp.StatusCode,
		Header:    httpResp.Header,
		Body:      data,
		RequestID: requestID,
	}
	if resp.Status >= 400 {
		return resp, errorFor(resp)
	}
	return resp, nil
}

func (c *Client) body(req Request) (io.Reader, string, error) {
	if req.JSON != nil {
		data, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("central: marshal request: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
	if req.Body == nil {
		return nil, "", nil
	}
	if c.maxUpload > 0 && req.Size > c.maxUpload {
		return nil, "", &ValidationError{Msg: fmt.Sprintf(
			"The file is too large: %s exceeds the limit of %s.", formatSize(req.Size), formatSize(c.maxUpload))}
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return req.Body, contentType, nil
}

// Resolve turns a request URL into an absolute URL on the configured server.
// Paths without a leading slash are placed under the API version path.
func (c *Client) Resolve(raw string) (*url.URL, error) {
	ref, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("central: parse url %q: %w", raw, err)
	}
	if ref.IsAbs() {
		return ref, nil
	}
	path, rawPath := ref.Path, ref.EscapedPath()
	if !strings.HasPrefix(path, "/") {
		path = APIVersionPath + "/" + path
		rawPath = APIVersionPath + "/" + rawPath
	}
	u := *c.base
	u.Path = c.base.Path + path
	u.RawPath = c.base.EscapedPath() + rawPath
	u.RawQuery = ref.RawQuery
	u.Fragment = ""
	return &u, nil
}

// authenticates reports whether the bearer token may be sent to u: only to
// the versioned API on the configured origin.
func (c *Client) authenticates(u *url.URL) bool {
	if !strings.EqualFold(u.Scheme, c.base.Scheme) || !strings.EqualFold(u.Host, c.base.Host) {
		return false
	}
	return strings.HasPrefix(u.Path, c.base.Path+APIVersionPath+"/")
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
