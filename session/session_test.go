package session_test

import (
	"context"

	"github.com/zerbitx/mockit/session"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Scope", func() {
	It("starts unbound", func() {
		Expect(session.NewScope().ID()).To(BeEmpty())
	})

	It("binds an id", func() {
		scope := session.NewScope()
		scope.Bind("abc123")

		Expect(scope.ID()).To(Equal("abc123"))
	})

	It("lets the last write win", func() {
		scope := session.NewScope()
		scope.Bind("first")
		scope.Bind("second")

		Expect(scope.ID()).To(Equal("second"))
	})

	It("clears the id and memo on Reset", func() {
		scope := session.NewScope()
		scope.Bind("abc123")
		scope.MemoPut("some:key", "value")

		scope.Reset()

		Expect(scope.ID()).To(BeEmpty())
		_, ok := scope.MemoGet("some:key")
		Expect(ok).To(BeFalse())
	})

	It("is safe to Reset twice", func() {
		scope := session.NewScope()
		scope.Reset()
		scope.Reset()

		Expect(scope.ID()).To(BeEmpty())
	})

	It("memoizes values until dropped", func() {
		scope := session.NewScope()
		scope.MemoPut("some:key", "value")

		v, ok := scope.MemoGet("some:key")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("value"))

		scope.MemoDrop("some:key")

		_, ok = scope.MemoGet("some:key")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Context plumbing", func() {
	It("returns an empty id without a scope", func() {
		Expect(session.CurrentID(context.Background())).To(BeEmpty())
	})

	It("reads the bound id back through the context", func() {
		scope := session.NewScope()
		ctx := session.WithScope(context.Background(), scope)

		scope.Bind("abc123")

		Expect(session.CurrentID(ctx)).To(Equal("abc123"))
	})

	It("sees binds made after the context was built", func() {
		scope := session.NewScope()
		ctx := session.WithScope(context.Background(), scope)

		Expect(session.CurrentID(ctx)).To(BeEmpty())

		scope.Bind("late")

		Expect(session.CurrentID(ctx)).To(Equal("late"))
	})

	It("builds a bound context with With", func() {
		ctx := session.With(context.Background(), "abc123")

		Expect(session.CurrentID(ctx)).To(Equal("abc123"))
	})

	It("generates unique session ids", func() {
		Expect(session.NewID()).NotTo(Equal(session.NewID()))
	})
})
