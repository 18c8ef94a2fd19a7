// Package middleware binds mock sessions to inbound requests and carries
// them out again on HTTP calls and background jobs.
package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber"
	"github.com/sirupsen/logrus"

	"github.com/zerbitx/mockit/matcher"
	"github.com/zerbitx/mockit/session"
	"github.com/zerbitx/mockit/store"
)

const (
	// HeaderSessionID carries the session id on inbound and outbound HTTP
	// requests.
	HeaderSessionID = "X-Mockit-Id"

	// HeaderSessionIDLegacy is accepted on inbound requests from older
	// clients. HeaderSessionID wins when both are present.
	HeaderSessionIDLegacy = "X-Mock-Id"

	scopeLocal = "mockit_scope"
)

// SessionBinder returns a fiber middleware that establishes the session
// scope for each request. An explicit session header is authoritative;
// without one the stored mapping rules are scanned in order and the first
// live match binds its id. Mapping failures are logged and the request
// proceeds unbound. The scope this middleware creates is torn down when the
// request ends, on every exit path.
func SessionBinder(st *store.Store, logger logrus.FieldLogger) fiber.Handler {
	return func(c *fiber.Ctx) {
		scope, ok := Scope(c)
		if !ok {
			scope = session.NewScope()
			c.Locals(scopeLocal, scope)
			defer scope.Reset()
		}

		if id := headerSessionID(c, logger); id != "" {
			logger.WithField("mock_id", id).Info("setting mock_id from request header")
			scope.Bind(id)
		} else if scope.ID() == "" {
			attemptMapping(c, st, scope, logger)
		}

		c.Next()
	}
}

// Scope returns the session scope bound to the request, if any.
func Scope(c *fiber.Ctx) (*session.Scope, bool) {
	scope, ok := c.Locals(scopeLocal).(*session.Scope)
	return scope, ok
}

// RequestContext returns a context carrying the request's session scope,
// suitable for store and dispatch calls made while serving the request.
// It derives from the fasthttp request context so backend calls observe
// the request's cancellation and deadline.
func RequestContext(c *fiber.Ctx) context.Context {
	ctx := context.Context(c.Fasthttp)

	if scope, ok := Scope(c); ok {
		ctx = session.WithScope(ctx, scope)
	}

	return ctx
}

func headerSessionID(c *fiber.Ctx, logger logrus.FieldLogger) string {
	primary := c.Get(HeaderSessionID)
	legacy := c.Get(HeaderSessionIDLegacy)

	if legacy != "" && primary == "" {
		logger.Warn("Mockit Deprecation: Switch to using X-Mockit-Id instead of X-Mock-Id")
		return legacy
	}

	return primary
}

func attemptMapping(c *fiber.Ctx, st *store.Store, scope *session.Scope, logger logrus.FieldLogger) {
	ctx := session.WithScope(context.Context(c.Fasthttp), scope)

	mappings, err := st.ReadMappings(ctx)
	if err != nil {
		logger.WithError(err).Error("mapping lookup failed, skipping mappings")
		return
	}

	req := requestAttributes(c)
	now := time.Now()

	for _, m := range mappings {
		if m.Expired(now) {
			continue
		}

		if matcher.Match(m, req) {
			logger.WithField("mock_id", m.ID).Info("mapping matched request, setting mock_id")
			scope.Bind(m.ID)
			return
		}
	}
}

func requestAttributes(c *fiber.Ctx) matcher.Request {
	return matcher.Request{
		Path:          c.Path(),
		RemoteAddress: c.IP(),
		// rules written against the underscored form (X_Foo) must find
		// the wire header (X-Foo)
		Header: func(name string) string {
			return c.Get(strings.ReplaceAll(name, "_", "-"))
		},
		Params: matcher.ParseQuery(string(c.Fasthttp.URI().QueryString())),
	}
}
