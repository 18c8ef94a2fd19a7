package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type (
	// Match is the set of optional predicates a mapping rule applies to an
	// inbound request. String values under Headers and Params are treated
	// as regular expressions; any other type requires stringified equality.
	Match struct {
		Path          string                 `json:"path,omitempty"`
		RemoteAddress string                 `json:"remote_address,omitempty"`
		Headers       map[string]interface{} `json:"headers,omitempty"`
		Params        map[string]interface{} `json:"params,omitempty"`
	}

	// Mapping binds match criteria to a session id. Mappings are stored as
	// a single ordered JSON list under one key; insertion order is
	// preserved across pruning so the oldest matching rule wins.
	Mapping struct {
		ID        string `json:"id"`
		Match     Match  `json:"match"`
		CreatedAt int64  `json:"created_at,omitempty"`
		TTL       int64  `json:"ttl,omitempty"`
	}
)

// Expired reports whether the mapping has outlived its ttl at the given
// time. A mapping missing either created_at or ttl never expires.
func (m Mapping) Expired(now time.Time) bool {
	if m.TTL == 0 || m.CreatedAt == 0 {
		return false
	}

	return m.CreatedAt+m.TTL < now.Unix()
}

// WriteMapping appends a rule binding the match criteria to mockID.
// Expired rules are pruned on the way through. The whole list is rewritten;
// concurrent writers race read-modify-write and the last persist wins.
func (s *Store) WriteMapping(ctx context.Context, match Match, mockID string, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.mappingTTL
	}

	mappings, err := s.ReadMappings(ctx)
	if err != nil {
		return err
	}

	now := s.now()

	kept := mappings[:0]
	for _, m := range mappings {
		if !m.Expired(now) {
			kept = append(kept, m)
		}
	}

	kept = append(kept, Mapping{
		ID:        mockID,
		Match:     match,
		CreatedAt: now.Unix(),
		TTL:       int64(ttl / time.Second),
	})

	return s.writeMappings(ctx, kept)
}

// ReadMappings returns all live mapping rules in insertion order. Malformed
// storage reads as an empty list. When pruning removed expired entries the
// pruned list is persisted back, so expired rules heal out of storage on
// the next read.
func (s *Store) ReadMappings(ctx context.Context) ([]Mapping, error) {
	raw, ok, err := s.backend.Read(ctx, mappingsKey)
	if err != nil {
		return nil, fmt.Errorf("read mappings: %w", err)
	}

	if !ok {
		return nil, nil
	}

	var mappings []Mapping
	if err := json.Unmarshal([]byte(raw), &mappings); err != nil {
		s.logger.WithError(err).WithField("key", mappingsKey).Error("malformed mappings, treating as empty")
		return nil, nil
	}

	originalSize := len(mappings)
	now := s.now()

	kept := mappings[:0]
	for _, m := range mappings {
		if !m.Expired(now) {
			kept = append(kept, m)
		}
	}

	if len(kept) != originalSize {
		if err := s.writeMappings(ctx, kept); err != nil {
			s.logger.WithError(err).Error("failed to persist pruned mappings")
		}
	}

	return kept, nil
}

// DeleteMapping removes every rule owned by mockID and rewrites the list.
func (s *Store) DeleteMapping(ctx context.Context, mockID string) error {
	mappings, err := s.ReadMappings(ctx)
	if err != nil {
		return err
	}

	kept := mappings[:0]
	for _, m := range mappings {
		if m.ID != mockID {
			kept = append(kept, m)
		}
	}

	return s.writeMappings(ctx, kept)
}

func (s *Store) writeMappings(ctx context.Context, mappings []Mapping) error {
	if mappings == nil {
		mappings = []Mapping{}
	}

	raw, err := json.Marshal(mappings)
	if err != nil {
		return fmt.Errorf("marshal mappings: %w", err)
	}

	if err := s.backend.Write(ctx, mappingsKey, string(raw), 0); err != nil {
		return fmt.Errorf("write mappings: %w", err)
	}

	return nil
}
