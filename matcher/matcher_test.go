package matcher_test

import (
	"github.com/zerbitx/mockit/matcher"
	"github.com/zerbitx/mockit/store"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func request(path string) matcher.Request {
	return matcher.Request{Path: path}
}

func withHeaders(path string, headers map[string]string) matcher.Request {
	return matcher.Request{
		Path: path,
		Header: func(name string) string {
			return headers[name]
		},
	}
}

func mapping(match store.Match) store.Mapping {
	return store.Mapping{ID: "abc123", Match: match}
}

var _ = Describe("Match", func() {
	It("matches a path regex", func() {
		m := mapping(store.Match{Path: "^/loan/.*/details$"})

		Expect(matcher.Match(m, request("/loan/123/details"))).To(BeTrue())
		Expect(matcher.Match(m, request("/loan/abc"))).To(BeFalse())
	})

	It("matches everything when no predicates are specified", func() {
		Expect(matcher.Match(mapping(store.Match{}), request("/anything"))).To(BeTrue())
	})

	It("returns false for an invalid path regex", func() {
		m := mapping(store.Match{Path: "["})

		Expect(matcher.Match(m, request("/anything"))).To(BeFalse())
	})

	It("returns false for an invalid header regex", func() {
		m := mapping(store.Match{Headers: map[string]interface{}{"X-Foo": "["}})

		Expect(matcher.Match(m, withHeaders("/anything", map[string]string{"X-Foo": "bar"}))).To(BeFalse())
	})

	It("returns false for an invalid params regex", func() {
		m := mapping(store.Match{Params: map[string]interface{}{"q": "["}})
		req := matcher.Request{Path: "/anything", Params: matcher.ParseQuery("q=find")}

		Expect(matcher.Match(m, req)).To(BeFalse())
	})

	It("matches on remote_address when provided", func() {
		m := mapping(store.Match{Path: ".*", RemoteAddress: "9.9.9.9"})

		Expect(matcher.Match(m, matcher.Request{Path: "/anything", RemoteAddress: "9.9.9.9"})).To(BeTrue())
		Expect(matcher.Match(m, matcher.Request{Path: "/anything", RemoteAddress: "1.1.1.1"})).To(BeFalse())
	})

	It("matches on header values when provided", func() {
		m := mapping(store.Match{Path: ".*", Headers: map[string]interface{}{"X-Foo": "^bar$"}})

		Expect(matcher.Match(m, withHeaders("/anything", map[string]string{"X-Foo": "bar"}))).To(BeTrue())
		Expect(matcher.Match(m, withHeaders("/anything", map[string]string{"X-Foo": "baz"}))).To(BeFalse())
	})

	It("matches on query params when provided", func() {
		m := mapping(store.Match{Path: ".*", Params: map[string]interface{}{"q": "^find$"}})

		Expect(matcher.Match(m, matcher.Request{Path: "/anything", Params: matcher.ParseQuery("q=find")})).To(BeTrue())
		Expect(matcher.Match(m, matcher.Request{Path: "/anything", Params: matcher.ParseQuery("q=lose")})).To(BeFalse())
	})

	It("requires stringified equality for literal header values", func() {
		m := mapping(store.Match{Headers: map[string]interface{}{"X-Foo": float64(123)}})

		Expect(matcher.Match(m, withHeaders("/anything", map[string]string{"X-Foo": "123"}))).To(BeTrue())
		Expect(matcher.Match(m, withHeaders("/anything", map[string]string{"X-Foo": "1234"}))).To(BeFalse())
	})

	It("requires stringified equality for literal param values", func() {
		m := mapping(store.Match{Params: map[string]interface{}{"page": float64(2)}})

		Expect(matcher.Match(m, matcher.Request{Path: "/anything", Params: matcher.ParseQuery("page=2")})).To(BeTrue())
		Expect(matcher.Match(m, matcher.Request{Path: "/anything", Params: matcher.ParseQuery("page=20")})).To(BeFalse())
	})

	It("compares missing values as empty strings", func() {
		literal := mapping(store.Match{Params: map[string]interface{}{"q": float64(1)}})
		Expect(matcher.Match(literal, request("/anything"))).To(BeFalse())

		emptyOK := mapping(store.Match{Params: map[string]interface{}{"q": "^$"}})
		Expect(matcher.Match(emptyOK, request("/anything"))).To(BeTrue())
	})

	It("never matches a null rule value", func() {
		headerRule := mapping(store.Match{Headers: map[string]interface{}{"X-Foo": nil}})
		Expect(matcher.Match(headerRule, request("/anything"))).To(BeFalse())
		Expect(matcher.Match(headerRule, withHeaders("/anything", map[string]string{"X-Foo": ""}))).To(BeFalse())

		paramRule := mapping(store.Match{Params: map[string]interface{}{"q": nil}})
		Expect(matcher.Match(paramRule, request("/anything"))).To(BeFalse())
		Expect(matcher.Match(paramRule, matcher.Request{Path: "/anything", Params: matcher.ParseQuery("q=")})).To(BeFalse())
	})

	It("requires every specified predicate to hold", func() {
		m := mapping(store.Match{
			Path:    "^/loans",
			Headers: map[string]interface{}{"X-Foo": "^bar$"},
		})

		Expect(matcher.Match(m, withHeaders("/loans/1", map[string]string{"X-Foo": "bar"}))).To(BeTrue())
		Expect(matcher.Match(m, withHeaders("/loans/1", map[string]string{"X-Foo": "nope"}))).To(BeFalse())
		Expect(matcher.Match(m, withHeaders("/other", map[string]string{"X-Foo": "bar"}))).To(BeFalse())
	})
})

var _ = Describe("ParseQuery", func() {
	It("parses pairs left to right", func() {
		Expect(matcher.ParseQuery("a=1&b=2")).To(Equal(map[string]string{"a": "1", "b": "2"}))
	})

	It("lets the last value win on duplicate keys", func() {
		Expect(matcher.ParseQuery("a=1&a=2")).To(Equal(map[string]string{"a": "2"}))
	})

	It("keeps a key without a value", func() {
		Expect(matcher.ParseQuery("flag")).To(Equal(map[string]string{"flag": ""}))
	})

	It("returns an empty map for an empty query", func() {
		Expect(matcher.ParseQuery("")).To(BeEmpty())
	})
})
