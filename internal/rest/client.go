package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/roach88/querycodec/internal/odata"
	"github.com/roach88/querycodec/internal/queryir"
	"github.com/roach88/querycodec/internal/querystring"
)

const (
	maxResponseBody = 32 << 20
	maxErrorBody    = 512
)

// Client talks to an OData-style REST service. Every request goes through
// the client's Interceptor.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	interceptor *Interceptor
	codec       *querystring.Codec
	compiler    *odata.Compiler
	session     *SessionAuth
	base        http.RoundTripper
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCodec sets the codec used by ListQuery. Default: compat codec.
func WithCodec(codec *querystring.Codec) ClientOption {
	return func(c *Client) {
		c.codec = codec
	}
}

// WithCompiler sets the compiler used by ListQuery, typically to supply
// values for BoundEquals aliases. Default: odata.NewCompiler().
func WithCompiler(compiler *odata.Compiler) ClientOption {
	return func(c *Client) {
		c.compiler = compiler
	}
}

// WithBaseTransport sets the transport requests are sent on after the
// interceptor runs. Default: http.DefaultTransport.
func WithBaseTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.base = rt
	}
}

// WithSession keeps the login session in a. Login and Logout update it,
// and it becomes the interceptor's AuthProvider unless one is set.
func WithSession(a *SessionAuth) ClientOption {
	return func(c *Client) {
		c.session = a
	}
}

// NewClient creates a client for the service rooted at baseURL. ic may be
// nil for default headers only; it is copied, so later changes to it have
// no effect.
func NewClient(baseURL string, ic *Interceptor, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		codec:    querystring.New(),
		compiler: odata.NewCompiler(),
	}
	for _, opt := range opts {
		opt(c)
	}

	interceptor := Interceptor{}
	if ic != nil {
		interceptor = *ic
	}
	if interceptor.Auth == nil && c.session != nil {
		interceptor.Auth = c.session
	}
	c.interceptor = &interceptor
	c.httpClient = &http.Client{
		Transport: &Transport{Base: c.base, Interceptor: c.interceptor},
	}
	return c
}

// URL resolves a collection path against the base URL.
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

// List fetches a collection. query, if not empty, is appended after "?"
// as is.
func (c *Client) List(ctx context.Context, path, query string) (odata.Envelope, error) {
	target := c.URL(path)
	if query != "" {
		target += "?" + query
	}

	data, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		return odata.Envelope{}, fmt.Errorf("list %s: %w", path, err)
	}
	env, err := odata.ParseEnvelope(data)
	if err != nil {
		return odata.Envelope{}, fmt.Errorf("list %s: %w", path, err)
	}
	return env, nil
}

// ListQuery compiles q and fetches its collection, sending the options as
// a codec-encoded query string (filter=s...&top=n20). Servers read it
// with DecodeQuery.
func (c *Client) ListQuery(ctx context.Context, q queryir.Query) (odata.Envelope, error) {
	opts, err := c.compiler.Compile(q)
	if err != nil {
		return odata.Envelope{}, fmt.Errorf("list query: %w", err)
	}
	return c.List(ctx, opts.From, c.codec.Encode(opts.Value()))
}

// ListOData fetches the collection of opts using standard OData system
// query options ($filter=...).
func (c *Client) ListOData(ctx context.Context, opts odata.Options) (odata.Envelope, error) {
	return c.List(ctx, opts.From, opts.Encode())
}

// Get fetches one entity and decodes it into dst.
func (c *Client) Get(ctx context.Context, path, id string, dst any) error {
	if id == "" {
		return fmt.Errorf("get %s: empty id", path)
	}
	data, err := c.do(ctx, http.MethodGet, odata.EntityURL(c.URL(path), id), nil)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("get %s: decode: %w", path, err)
	}
	return nil
}

// Save creates model in the collection when id is empty and replaces the
// entity otherwise. The body is prepared by the interceptor. The server's
// representation is returned, or nil when the response has no body.
func (c *Client) Save(ctx context.Context, path, id string, model map[string]any) (map[string]any, error) {
	method := http.MethodPost
	if id != "" {
		method = http.MethodPut
	}
	out, err := c.write(ctx, method, odata.EntityURL(c.URL(path), id), model)
	if err != nil {
		return nil, fmt.Errorf("save %s: %w", path, err)
	}
	return out, nil
}

// Patch updates the given attributes of an existing entity.
func (c *Client) Patch(ctx context.Context, path, id string, attrs map[string]any) (map[string]any, error) {
	if id == "" {
		return nil, fmt.Errorf("patch %s: empty id", path)
	}
	out, err := c.write(ctx, http.MethodPatch, odata.EntityURL(c.URL(path), id), attrs)
	if err != nil {
		return nil, fmt.Errorf("patch %s: %w", path, err)
	}
	return out, nil
}

// Delete removes an entity.
func (c *Client) Delete(ctx context.Context, path, id string) error {
	if id == "" {
		return fmt.Errorf("delete %s: empty id", path)
	}
	if _, err := c.do(ctx, http.MethodDelete, odata.EntityURL(c.URL(path), id), nil); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (c *Client) write(ctx context.Context, method, target string, model map[string]any) (map[string]any, error) {
	body, err := c.interceptor.PrepareBody(model)
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// do sends one request and returns the response body. Non-2xx responses
// become *StatusError.
func (c *Client) do(ctx context.Context, method, target string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(data))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &StatusError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       msg,
		}
	}
	return data, nil
}

// ErrNoSession is returned by session operations on a client built
// without WithSession.
var ErrNoSession = errors.New("client has no session storage")

// Login posts creds to the session collection at path and stores the
// session the server returns. No Authorization header is sent.
func (c *Client) Login(ctx context.Context, path string, creds Credentials) (Session, error) {
	body, err := json.Marshal(creds)
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}
	data, err := c.do(WithoutAuth(ctx), http.MethodPost, c.URL(path), body)
	if err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, fmt.Errorf("login: decode: %w", err)
	}
	if s.SID == "" {
		return Session{}, fmt.Errorf("login: response has no sid")
	}
	if c.session != nil {
		if err := c.session.Save(ctx, s); err != nil {
			return Session{}, fmt.Errorf("login: %w", err)
		}
	}
	return s, nil
}

// Logout deletes the current session on the server and forgets it
// locally. The local session is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context, path string) error {
	if c.session == nil {
		return ErrNoSession
	}
	s, ok, err := c.session.Load(ctx)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if !ok {
		return nil
	}

	_, delErr := c.do(ctx, http.MethodDelete, odata.EntityURL(c.URL(path), s.SID), nil)
	if err := c.session.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if delErr != nil {
		return fmt.Errorf("logout: %w", delErr)
	}
	return nil
}

// Authenticate checks the stored session with the server. A session the
// server rejects (401, 403 or 404) is cleared and reported as false;
// other failures are returned as errors and leave the session in place.
func (c *Client) Authenticate(ctx context.Context, path string) (bool, error) {
	if c.session == nil {
		return false, ErrNoSession
	}
	s, ok, err := c.session.Load(ctx)
	if err != nil || !ok {
		return false, err
	}

	var fresh Session
	err = c.Get(ctx, path, s.SID, &fresh)
	switch {
	case IsStatus(err, http.StatusUnauthorized), IsStatus(err, http.StatusForbidden), IsStatus(err, http.StatusNotFound):
		if clearErr := c.session.Clear(ctx); clearErr != nil {
			return false, fmt.Errorf("authenticate: %w", clearErr)
		}
		return false, nil
	case err != nil:
		return false, fmt.Errorf("authenticate: %w", err)
	}

	if fresh.SID == "" {
		fresh.SID = s.SID
	}
	if err := c.session.Save(ctx, fresh); err != nil {
		return false, fmt.Errorf("authenticate: %w", err)
	}
	return true, nil
}
