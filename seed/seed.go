// Package seed loads pre-registered overrides and mapping rules from a
// YAML file at startup, so a mock environment can come up ready to serve
// without a round of registration calls.
package seed

import (
	"context"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/zerbitx/mockit/session"
	"github.com/zerbitx/mockit/store"
)

type (
	// Seed is the root of the seed file.
	Seed struct {
		// Sessions maps session id -> service key -> override document.
		Sessions map[string]map[string]map[string]interface{} `yaml:"sessions"`
		Mappings []Mapping                                    `yaml:"mappings"`
	}

	// Mapping declares a mapping rule; ID defaults to a fresh session id.
	Mapping struct {
		ID    string `yaml:"id"`
		TTL   int    `yaml:"ttl"`
		Match Match  `yaml:"match"`
	}

	// Match mirrors store.Match in YAML form.
	Match struct {
		Path          string                 `yaml:"path"`
		RemoteAddress string                 `yaml:"remote_address"`
		Headers       map[string]interface{} `yaml:"headers"`
		Params        map[string]interface{} `yaml:"params"`
	}
)

// Load decodes a seed file.
func Load(r io.Reader) (Seed, error) {
	s := Seed{}
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}

	return s, nil
}

// Apply writes every seeded override and mapping into the store. Seeded
// writes use the store's default TTLs unless the entry sets its own.
func (s Seed) Apply(ctx context.Context, st *store.Store) error {
	for id, services := range s.Sessions {
		sessionCtx := session.With(ctx, id)

		for svc, overrides := range services {
			doc, ok := normalize(overrides).(map[string]interface{})
			if !ok {
				return fmt.Errorf("seed overrides for %s/%s are not a document", id, svc)
			}

			if err := st.Write(sessionCtx, svc, store.Document(doc), 0); err != nil {
				return err
			}
		}
	}

	for _, m := range s.Mappings {
		id := m.ID
		if id == "" {
			id = session.NewID()
		}

		match := store.Match{
			Path:          m.Match.Path,
			RemoteAddress: m.Match.RemoteAddress,
			Headers:       normalizeMap(m.Match.Headers),
			Params:        normalizeMap(m.Match.Params),
		}

		if err := st.WriteMapping(ctx, match, id, time.Duration(m.TTL)*time.Second); err != nil {
			return err
		}
	}

	return nil
}

// normalize rewrites yaml.v2's map[interface{}]interface{} values into
// string-keyed maps so the documents marshal to JSON.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := map[string]interface{}{}
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalize(val)
		}

		return out
	case map[string]interface{}:
		for k, val := range t {
			t[k] = normalize(val)
		}

		return t
	case []interface{}:
		for i := range t {
			t[i] = normalize(t[i])
		}

		return t
	default:
		return v
	}
}

func normalizeMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}

	out, _ := normalize(m).(map[string]interface{})

	return out
}
