// Package store persists mock override documents and request mapping rules
// on a pluggable key-value backend with TTL expiry.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/zerbitx/mockit/session"
)

// Document is an opaque override payload, round-tripped verbatim.
type Document map[string]interface{}

const (
	keyPrefix          = "mockit"
	servicesKeyPrefix  = "mockit:services"
	mappingsKey        = "mockit:mappings"
	defaultOverrideTTL = 600 * time.Second
	defaultMappingTTL  = 3600 * time.Second
)

type (
	// Store wraps the backend with the mockit key schema, the per-session
	// service registry and the mapping registry.
	Store struct {
		backend     Backend
		logger      logrus.FieldLogger
		overrideTTL time.Duration
		mappingTTL  time.Duration
		now         func() time.Time
	}

	// Option is a function that can modify a default Store
	Option func(s *Store)
)

// New returns a Store on the given backend.
func New(backend Backend, options ...Option) *Store {
	s := &Store{
		backend:     backend,
		logger:      logrus.StandardLogger(),
		overrideTTL: defaultOverrideTTL,
		mappingTTL:  defaultMappingTTL,
		now:         time.Now,
	}

	for _, applyOption := range options {
		applyOption(s)
	}

	return s
}

// WithLogger overrides the default logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithOverrideTTL sets the default TTL applied to override writes
func WithOverrideTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.overrideTTL = ttl
	}
}

// WithMappingTTL sets the default TTL applied to new mapping rules
func WithMappingTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.mappingTTL = ttl
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// OverrideKey derives the storage key for a session/service pair. The
// derivation is deterministic: any two callers computing the key for the
// same pair agree without coordination.
func OverrideKey(sessionID, service string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, sessionID, service)
}

func servicesKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", servicesKeyPrefix, sessionID)
}

// Write persists the overrides for a service under the session bound to ctx.
// A ttl <= 0 falls back to the configured default. The service is also
// tracked in the per-session registry so DeleteAll can find it later; a
// registry failure is logged but does not fail the primary write.
func (s *Store) Write(ctx context.Context, service string, overrides Document, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.overrideTTL
	}

	raw, err := json.Marshal(overrides)
	if err != nil {
		return fmt.Errorf("marshal overrides for %s: %w", service, err)
	}

	key := OverrideKey(session.CurrentID(ctx), service)
	s.logger.WithFields(logrus.Fields{"key": key, "ttl": ttl}).Info("setting override")

	if err := s.backend.Write(ctx, key, string(raw), ttl); err != nil {
		return fmt.Errorf("write override %s: %w", key, err)
	}

	if scope, ok := session.ScopeFrom(ctx); ok {
		scope.MemoDrop(key)
	}

	mockID := session.CurrentID(ctx)
	if mockID == "" {
		return nil
	}

	if err := s.addServiceForMock(ctx, mockID, service); err != nil {
		s.logger.WithError(err).WithField("key", key).Error("failed to update service registry")
	}

	return nil
}

// Read returns the overrides stored for a service under the session bound
// to ctx. A missing key or a stored payload that fails to parse both read
// as absent; parse failures are logged, never surfaced. Reads are memoized
// within the unit of work's scope.
func (s *Store) Read(ctx context.Context, service string) (Document, bool, error) {
	key := OverrideKey(session.CurrentID(ctx), service)

	scope, scoped := session.ScopeFrom(ctx)

	raw, ok := "", false
	if scoped {
		raw, ok = scope.MemoGet(key)
	}

	if !ok {
		var err error
		raw, ok, err = s.backend.Read(ctx, key)
		if err != nil {
			return nil, false, fmt.Errorf("read override %s: %w", key, err)
		}

		if !ok {
			return nil, false, nil
		}

		if scoped {
			scope.MemoPut(key, raw)
		}
	}

	doc := Document{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		s.logger.WithError(err).WithField("key", key).Error("malformed override payload, treating as absent")
		return nil, false, nil
	}

	return doc, true, nil
}

// Delete removes the overrides for a service under the session bound to
// ctx, and drops the service from the session's registry when one is bound.
func (s *Store) Delete(ctx context.Context, service string) error {
	key := OverrideKey(session.CurrentID(ctx), service)

	if err := s.backend.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete override %s: %w", key, err)
	}

	if scope, ok := session.ScopeFrom(ctx); ok {
		scope.MemoDrop(key)
	}

	mockID := session.CurrentID(ctx)
	if mockID == "" {
		return nil
	}

	if err := s.removeServiceForMock(ctx, mockID, service); err != nil {
		s.logger.WithError(err).WithField("key", key).Error("failed to update service registry")
	}

	return nil
}

// DeleteAll removes every override the registry lists for the session bound
// to ctx, the registry itself, and any mapping rules owned by the session.
// When no session is bound it is a no-op, so an unbound teardown can never
// wipe unrelated data.
func (s *Store) DeleteAll(ctx context.Context) error {
	mockID := session.CurrentID(ctx)
	if mockID == "" {
		return nil
	}

	services, err := s.readServicesForMock(ctx, mockID)
	if err != nil {
		return err
	}

	scope, scoped := session.ScopeFrom(ctx)

	for _, svc := range services {
		key := OverrideKey(mockID, svc)
		if err := s.backend.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete override %s: %w", key, err)
		}

		if scoped {
			scope.MemoDrop(key)
		}
	}

	if err := s.backend.Delete(ctx, servicesKey(mockID)); err != nil {
		return fmt.Errorf("delete service registry for %s: %w", mockID, err)
	}

	return s.DeleteMapping(ctx, mockID)
}

func (s *Store) addServiceForMock(ctx context.Context, mockID, service string) error {
	services, err := s.readServicesForMock(ctx, mockID)
	if err != nil {
		return err
	}

	for _, svc := range services {
		if svc == service {
			return nil
		}
	}

	services = append(services, service)

	return s.writeServicesForMock(ctx, mockID, services)
}

func (s *Store) removeServiceForMock(ctx context.Context, mockID, service string) error {
	services, err := s.readServicesForMock(ctx, mockID)
	if err != nil {
		return err
	}

	kept := services[:0]
	for _, svc := range services {
		if svc != service {
			kept = append(kept, svc)
		}
	}

	return s.writeServicesForMock(ctx, mockID, kept)
}

func (s *Store) readServicesForMock(ctx context.Context, mockID string) ([]string, error) {
	raw, ok, err := s.backend.Read(ctx, servicesKey(mockID))
	if err != nil {
		return nil, fmt.Errorf("read service registry for %s: %w", mockID, err)
	}

	if !ok {
		return nil, nil
	}

	var services []string
	if err := json.Unmarshal([]byte(raw), &services); err != nil {
		s.logger.WithError(err).WithField("key", servicesKey(mockID)).Error("malformed service registry, treating as empty")
		return nil, nil
	}

	return services, nil
}

func (s *Store) writeServicesForMock(ctx context.Context, mockID string, services []string) error {
	raw, err := json.Marshal(services)
	if err != nil {
		return fmt.Errorf("marshal service registry for %s: %w", mockID, err)
	}

	return s.backend.Write(ctx, servicesKey(mockID), string(raw), 0)
}
