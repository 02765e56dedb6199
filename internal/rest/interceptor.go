package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	// DefaultAccept is sent when a request has no Accept header.
	DefaultAccept = "application/json; charset=utf-8"

	// DefaultContentType is sent on writes that have no Content-Type.
	DefaultContentType = "application/json; charset=utf-8"

	// DefaultRequestIDHeader carries the request id when RequestID is set.
	DefaultRequestIDHeader = "X-Request-ID"

	// AuthScheme prefixes the session token in the Authorization header.
	AuthScheme = "AuthSession"
)

// DefaultStripFields are server-managed fields removed from every write
// body.
var DefaultStripFields = []string{
	"@odata.context",
	"@odata.etag",
	"__CreatedOn",
	"__ModifiedOn",
	"__Owner",
}

// AuthProvider supplies the session token for outgoing requests. It
// reports false when there is no session.
type AuthProvider interface {
	Token(ctx context.Context) (string, bool, error)
}

// AuthProviderFunc adapts a function to AuthProvider.
type AuthProviderFunc func(ctx context.Context) (string, bool, error)

// Token calls f(ctx).
func (f AuthProviderFunc) Token(ctx context.Context) (string, bool, error) {
	return f(ctx)
}

// Interceptor holds what every request of a client gets: default headers,
// authorization and write-body cleanup. The zero value sets only the
// default Accept and Content-Type headers.
type Interceptor struct {
	// Auth supplies the session token. Requests that already carry an
	// Authorization header, and requests whose context was marked with
	// WithoutAuth, are left alone.
	Auth AuthProvider

	// StripFields are removed from write bodies in addition to
	// DefaultStripFields.
	StripFields []string

	// Adjust, if set, rewrites a write body after stripping.
	Adjust func(body map[string]any) map[string]any

	Accept      string // Default: DefaultAccept
	ContentType string // Default: DefaultContentType

	// RequestID, if set, tags each request with a fresh id under
	// RequestIDHeader (default DefaultRequestIDHeader).
	RequestID       IDGenerator
	RequestIDHeader string
}

type skipAuthKey struct{}

// WithoutAuth marks ctx so the interceptor does not add Authorization.
// Logging in uses it: there is no session yet, and a stale one must not
// be sent.
func WithoutAuth(ctx context.Context) context.Context {
	return context.WithValue(ctx, skipAuthKey{}, true)
}

func authSkipped(ctx context.Context) bool {
	skip, _ := ctx.Value(skipAuthKey{}).(bool)
	return skip
}

// Prepare sets headers on req in place. Existing headers always win.
func (i *Interceptor) Prepare(req *http.Request) error {
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", orDefault(i.Accept, DefaultAccept))
	}

	if i.Auth != nil && req.Header.Get("Authorization") == "" && !authSkipped(req.Context()) {
		token, ok, err := i.Auth.Token(req.Context())
		if err != nil {
			return fmt.Errorf("auth token: %w", err)
		}
		if ok {
			req.Header.Set("Authorization", AuthScheme+" "+token)
		}
	}

	if isWrite(req.Method) && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", orDefault(i.ContentType, DefaultContentType))
	}

	if i.RequestID != nil {
		header := orDefault(i.RequestIDHeader, DefaultRequestIDHeader)
		if req.Header.Get(header) == "" {
			req.Header.Set(header, i.RequestID.Generate())
		}
	}
	return nil
}

// PrepareBody builds a write body from model: stripped fields are
// removed from a shallow copy, Adjust is applied, and the result is
// encoded as JSON. model itself is not modified.
func (i *Interceptor) PrepareBody(model map[string]any) ([]byte, error) {
	body := make(map[string]any, len(model))
	for k, v := range model {
		body[k] = v
	}
	for _, f := range DefaultStripFields {
		delete(body, f)
	}
	for _, f := range i.StripFields {
		delete(body, f)
	}
	if i.Adjust != nil {
		body = i.Adjust(body)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func isWrite(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
