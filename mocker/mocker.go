// Package mocker decides, per instrumented call, whether the real
// implementation runs or a registered substitute handler takes its place
// based on the overrides stored for the current session.
package mocker

import (
	"context"
	"reflect"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/zerbitx/mockit/store"
)

type (
	// Invocation is everything a substitute handler gets about the call it
	// replaces: the stored overrides, the original receiver and arguments,
	// and a callable that performs the real operation.
	Invocation struct {
		Target    interface{}
		Overrides store.Document
		Args      []interface{}
		Original  func() (interface{}, error)
	}

	// Handler substitutes an instrumented operation. Its result becomes
	// the call's result.
	Handler func(ctx context.Context, inv Invocation) (interface{}, error)

	// Mocker dispatches instrumented calls. Application wiring registers
	// one handler per service key and routes calls through Call.
	Mocker struct {
		store    *store.Store
		logger   logrus.FieldLogger
		handlers map[string]Handler
	}

	// Option is a function that can modify a default Mocker
	Option func(m *Mocker)
)

// New returns a Mocker reading overrides from the given store.
func New(st *store.Store, options ...Option) *Mocker {
	m := &Mocker{
		store:    st,
		logger:   logrus.StandardLogger(),
		handlers: map[string]Handler{},
	}

	for _, applyOption := range options {
		applyOption(m)
	}

	return m
}

// WithLogger overrides the default logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Mocker) {
		m.logger = l
	}
}

// Register installs the substitute handler for a service key.
func (m *Mocker) Register(service string, h Handler) {
	m.logger.WithField("service", service).Info("registering mock handler")
	m.handlers[service] = h
}

// Call runs exactly one of the substitute handler or the original
// operation. The substitute runs when the current session has overrides
// stored for the service and a handler is registered; in every other case,
// including a failed override lookup, the original runs.
func (m *Mocker) Call(ctx context.Context, service string, target interface{}, original func() (interface{}, error), args ...interface{}) (interface{}, error) {
	handler, registered := m.handlers[service]
	if !registered {
		return original()
	}

	overrides, ok, err := m.store.Read(ctx, service)
	if err != nil {
		m.logger.WithError(err).WithField("service", service).Error("override lookup failed, calling original")
		return original()
	}

	if !ok {
		return original()
	}

	m.logger.WithField("service", service).Debug("dispatching to mock handler")

	return handler(ctx, Invocation{
		Target:    target,
		Overrides: overrides,
		Args:      args,
		Original:  original,
	})
}

// ServiceKey derives the stable service key for a client value: the snake
// case of its concrete type name.
func ServiceKey(v interface{}) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return ""
	}

	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return snakeCase(t.Name())
}

func snakeCase(name string) string {
	var b strings.Builder

	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			// break before an upper that follows a lower, or that starts
			// the tail of an acronym (HTTPClient -> http_client)
			if i > 0 && (unicode.IsLower(runes[i-1]) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}

		b.WriteRune(r)
	}

	return b.String()
}
