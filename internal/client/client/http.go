package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/dmitrijs2005/qrattend/internal/common"
	"github.com/dmitrijs2005/qrattend/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
)

const maxResponseBody = 4 << 20

// CredentialSource yields the persisted user id / credential pair used for
// the single basic-auth retry after an authorization failure.
type CredentialSource interface {
	Credentials(ctx context.Context) (user string, secret string, ok bool)
}

// RequestOptions are per-request overrides merged over the client defaults.
type RequestOptions struct {
	Method string
	Header http.Header
	Query  url.Values
	Body   any
	// NoRetry disables the basic-auth retry on 401/403.
	NoRetry bool
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// HTTPClient talks JSON to the attendance API. Cookies set by the server are
// kept in a jar and sent back automatically, like a browser with
// credentials: "include".
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
	header  http.Header
	creds   CredentialSource
	log     logging.Logger
}

type Option func(*HTTPClient)

// WithCredentials enables the basic-auth retry using src.
func WithCredentials(src CredentialSource) Option {
	return func(c *HTTPClient) { c.creds = src }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// WithTimeout bounds every request, retries included separately.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.http.Timeout = d }
}

// WithTransport replaces the underlying round tripper.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *HTTPClient) { c.http.Transport = rt }
}

func NewHTTPClient(baseURL string, opts ...Option) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", baseURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	c := &HTTPClient{
		baseURL: u,
		http:    &http.Client{Jar: jar},
		header: http.Header{
			"Content-Type": {"application/json"},
			"Accept":       {"application/json"},
		},
		log: logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request sends one request and, on 401/403, at most one retry with basic
// auth built from the credential source. Transport failures are returned as
// errors wrapping ErrUnavailable; any HTTP status is returned as a Response.
func (c *HTTPClient) Request(ctx context.Context, path string, opts RequestOptions) (*Response, error) {
	var payload []byte
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		payload = b
	}

	resp, err := c.do(ctx, path, opts, payload, nil)
	if err != nil {
		return nil, err
	}

	if !denied(resp.StatusCode) || opts.NoRetry || c.creds == nil || opts.Header.Get("Authorization") != "" {
		return resp, nil
	}

	user, secret, ok := c.creds.Credentials(ctx)
	if !ok {
		return resp, nil
	}

	c.log.Debug(ctx, "retrying with basic auth", "path", path, "status", resp.StatusCode)
	return c.do(ctx, path, opts, payload, &basicAuth{user: user, secret: secret})
}

type basicAuth struct {
	user   string
	secret string
}

func denied(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func (c *HTTPClient) do(ctx context.Context, path string, opts RequestOptions, payload []byte, auth *basicAuth) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}

	u := c.baseURL.JoinPath(path)
	if len(opts.Query) > 0 {
		u.RawQuery = opts.Query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header = c.header.Clone()
	req.Header.Set(common.RequestIDHeaderName, uuid.NewString())
	for k, vs := range opts.Header {
		req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), vs...)
	}
	if auth != nil {
		req.SetBasicAuth(auth.user, auth.secret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUnavailable, err)
	}

	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
