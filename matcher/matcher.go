// Package matcher evaluates mapping rules against inbound request
// attributes. Evaluation is pure and fail-closed: an invalid pattern or a
// missing value makes the predicate vote false, never panic or error.
package matcher

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/zerbitx/mockit/store"
)

// Request is the transport-agnostic view of an inbound request the matcher
// evaluates rules against.
type Request struct {
	Path          string
	RemoteAddress string
	// Header looks a header up by name, case-insensitively, returning ""
	// when absent.
	Header func(name string) string
	// Params are the parsed query parameters, last value winning on
	// duplicate keys.
	Params map[string]string
}

// Match reports whether every predicate the rule specifies holds for the
// request. Absent predicate categories vote true.
func Match(m store.Mapping, req Request) bool {
	return matchPath(m.Match, req) &&
		matchRemote(m.Match, req) &&
		matchHeaders(m.Match, req) &&
		matchParams(m.Match, req)
}

func matchPath(match store.Match, req Request) bool {
	if match.Path == "" {
		return true
	}

	return safeRegexMatch(req.Path, match.Path)
}

func matchRemote(match store.Match, req Request) bool {
	if match.RemoteAddress == "" {
		return true
	}

	return req.RemoteAddress == match.RemoteAddress
}

func matchHeaders(match store.Match, req Request) bool {
	for name, pattern := range match.Headers {
		observed := ""
		if req.Header != nil {
			observed = req.Header(name)
		}

		if !matchValueWithPattern(observed, pattern) {
			return false
		}
	}

	return true
}

func matchParams(match store.Match, req Request) bool {
	for name, pattern := range match.Params {
		if !matchValueWithPattern(req.Params[name], pattern) {
			return false
		}
	}

	return true
}

// matchValueWithPattern applies the two-mode semantics: a string pattern is
// a regex tested against the observed value, anything else requires exact
// stringified equality. A missing observed value is compared as ""; a null
// rule value never matches.
func matchValueWithPattern(observed string, pattern interface{}) bool {
	if pattern == nil {
		return false
	}

	if s, ok := pattern.(string); ok {
		return safeRegexMatch(observed, s)
	}

	return observed == stringify(pattern)
}

func safeRegexMatch(value, pattern string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}

	return re.MatchString(value)
}

// stringify renders a literal rule value the way it appears on the wire.
// JSON numbers decode as float64; integral ones must print without an
// exponent or trailing zeros.
func stringify(v interface{}) string {
	switch n := v.(type) {
	case float64:
		if n == float64(int64(n)) {
			return fmt.Sprintf("%d", int64(n))
		}

		return fmt.Sprintf("%v", n)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ParseQuery parses a raw query string into a flat map, splitting on "&"
// then "=" left to right; the last value wins on duplicate keys.
func ParseQuery(raw string) map[string]string {
	params := map[string]string{}
	if raw == "" {
		return params
	}

	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}

		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 2 {
			params[kv[0]] = kv[1]
		} else {
			params[kv[0]] = ""
		}
	}

	return params
}
