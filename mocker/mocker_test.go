package mocker_test

import (
	"context"

	"github.com/zerbitx/mockit/mocker"
	"github.com/zerbitx/mockit/session"
	"github.com/zerbitx/mockit/store"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type PaymentService struct{}

type HTTPClient struct{}

var _ = Describe("Mocker", func() {
	var (
		st  *store.Store
		m   *mocker.Mocker
		ctx context.Context

		originalCalls   int
		substituteCalls int
	)

	original := func() (interface{}, error) {
		originalCalls++
		return "real", nil
	}

	BeforeEach(func() {
		st = store.New(store.NewMemory(), store.WithLogger(quietLogger()))
		m = mocker.New(st, mocker.WithLogger(quietLogger()))
		ctx = session.With(context.Background(), "abc123")

		originalCalls = 0
		substituteCalls = 0

		m.Register("payment_service", func(_ context.Context, inv mocker.Invocation) (interface{}, error) {
			substituteCalls++
			return inv.Overrides["message"], nil
		})
	})

	It("runs the original when no override is stored", func() {
		result, err := m.Call(ctx, "payment_service", nil, original)

		Expect(err).ShouldNot(HaveOccurred())
		Expect(result).To(Equal("real"))
		Expect(originalCalls).To(Equal(1))
		Expect(substituteCalls).To(BeZero())
	})

	It("runs the substitute when an override is stored", func() {
		Expect(st.Write(ctx, "payment_service", store.Document{"message": "mocked"}, 0)).To(Succeed())

		result, err := m.Call(ctx, "payment_service", nil, original)

		Expect(err).ShouldNot(HaveOccurred())
		Expect(result).To(Equal("mocked"))
		Expect(substituteCalls).To(Equal(1))
		Expect(originalCalls).To(BeZero())
	})

	It("runs the original when no handler is registered", func() {
		Expect(st.Write(ctx, "loan_service", store.Document{"message": "mocked"}, 0)).To(Succeed())

		result, err := m.Call(ctx, "loan_service", nil, original)

		Expect(err).ShouldNot(HaveOccurred())
		Expect(result).To(Equal("real"))
		Expect(originalCalls).To(Equal(1))
	})

	It("ignores overrides stored for another session", func() {
		other := session.With(context.Background(), "other")
		Expect(st.Write(other, "payment_service", store.Document{"message": "mocked"}, 0)).To(Succeed())

		result, err := m.Call(ctx, "payment_service", nil, original)

		Expect(err).ShouldNot(HaveOccurred())
		Expect(result).To(Equal("real"))
	})

	It("passes the receiver, args and original through the invocation", func() {
		Expect(st.Write(ctx, "payment_service", store.Document{"message": "mocked"}, 0)).To(Succeed())

		target := &PaymentService{}
		var got mocker.Invocation
		m.Register("payment_service", func(_ context.Context, inv mocker.Invocation) (interface{}, error) {
			got = inv
			return inv.Original()
		})

		result, err := m.Call(ctx, "payment_service", target, original, "amount", 100)

		Expect(err).ShouldNot(HaveOccurred())
		Expect(result).To(Equal("real"))
		Expect(got.Target).To(BeIdenticalTo(target))
		Expect(got.Args).To(Equal([]interface{}{"amount", 100}))
		Expect(got.Overrides).To(Equal(store.Document{"message": "mocked"}))
		Expect(originalCalls).To(Equal(1))
	})
})

var _ = Describe("ServiceKey", func() {
	It("snake cases the concrete type name", func() {
		Expect(mocker.ServiceKey(PaymentService{})).To(Equal("payment_service"))
	})

	It("dereferences pointers", func() {
		Expect(mocker.ServiceKey(&PaymentService{})).To(Equal("payment_service"))
	})

	It("keeps acronyms together", func() {
		Expect(mocker.ServiceKey(HTTPClient{})).To(Equal("http_client"))
	})

	It("returns empty for nil", func() {
		Expect(mocker.ServiceKey(nil)).To(BeEmpty())
	})
})
