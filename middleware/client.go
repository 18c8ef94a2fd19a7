package middleware

import (
	"net/http"

	"github.com/zerbitx/mockit/session"
)

// Transport is an http.RoundTripper that forwards the bound session id on
// outbound requests so instrumented calls made further down the chain run
// under the same mock session.
type Transport struct {
	// Base performs the actual round trip. http.DefaultTransport when nil.
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper. The request is cloned before the
// header is added; an unbound context passes through untouched.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	id := session.CurrentID(req.Context())
	if id == "" {
		return base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set(HeaderSessionID, id)

	return base.RoundTrip(clone)
}
