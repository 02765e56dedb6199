package rest

import (
	"log/slog"
	"net/http"
)

// Transport is an http.RoundTripper that runs every request through an
// Interceptor before handing it to Base.
type Transport struct {
	Base        http.RoundTripper // Default: http.DefaultTransport
	Interceptor *Interceptor
}

// RoundTrip prepares a clone of req and sends it. The caller's request is
// never modified.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	if t.Interceptor != nil {
		if err := t.Interceptor.Prepare(out); err != nil {
			if req.Body != nil {
				req.Body.Close()
			}
			slog.Warn("request not prepared", "method", req.Method, "url", req.URL.String(), "error", err)
			return nil, err
		}
	}

	slog.Debug("sending request",
		"method", out.Method,
		"url", out.URL.String(),
		"request_id", out.Header.Get(t.requestIDHeader()))

	resp, err := t.base().RoundTrip(out)
	if err != nil {
		slog.Warn("request failed", "method", out.Method, "url", out.URL.String(), "error", err)
		return nil, err
	}
	return resp, nil
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) requestIDHeader() string {
	if t.Interceptor == nil {
		return DefaultRequestIDHeader
	}
	return orDefault(t.Interceptor.RequestIDHeader, DefaultRequestIDHeader)
}
