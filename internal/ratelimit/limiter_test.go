package ratelimit_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/service-router/internal/ratelimit"
)

func TestRateLimit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RateLimit Suite")
}

var _ = Describe("Limiter", func() {
	var limiter *ratelimit.Limiter

	Describe("New", func() {
		It("should fall back to defaults for non-positive settings", func() {
			limiter = ratelimit.New(0, 0)

			result := limiter.Allow("client")
			Expect(result.Allowed).To(BeTrue())
			Expect(result.Limit).To(Equal(ratelimit.DefaultMaxRequests))
		})
	})

	Describe("Allow", func() {
		BeforeEach(func() {
			limiter = ratelimit.New(3, 60*time.Second)
		})

		It("should admit requests below the limit", func() {
			for i := 0; i < 3; i++ {
				Expect(limiter.Allow("client").Allowed).To(BeTrue())
			}
		})

		It("should reject the request that exceeds the limit", func() {
			for i := 0; i < 3; i++ {
				limiter.Allow("client")
			}

			result := limiter.Allow("client")
			Expect(result.Allowed).To(BeFalse())
			Expect(result.Limit).To(Equal(3))
		})

		It("should report the remaining budget", func() {
			Expect(limiter.Allow("client").Remaining).To(Equal(2))
			Expect(limiter.Allow("client").Remaining).To(Equal(1))
			Expect(limiter.Allow("client").Remaining).To(Equal(0))
		})

		It("should set RetryAfter on rejection", func() {
			for i := 0; i < 3; i++ {
				limiter.Allow("client")
			}

			result := limiter.Allow("client")
			Expect(result.RetryAfter).To(BeNumerically(">", 0))
			Expect(result.RetryAfter).To(BeNumerically("<=", 60*time.Second))
		})

		It("should track keys independently", func() {
			for i := 0; i < 3; i++ {
				limiter.Allow("alpha")
			}

			Expect(limiter.Allow("alpha").Allowed).To(BeFalse())
			Expect(limiter.Allow("beta").Allowed).To(BeTrue())
		})
	})

	Describe("Sliding window expiry", func() {
		It("should readmit once old timestamps slide out", func() {
			limiter = ratelimit.New(2, 100*time.Millisecond)

			Expect(limiter.Allow("client").Allowed).To(BeTrue())
			Expect(limiter.Allow("client").Allowed).To(BeTrue())
			Expect(limiter.Allow("client").Allowed).To(BeFalse())

			time.Sleep(150 * time.Millisecond)

			Expect(limiter.Allow("client").Allowed).To(BeTrue())
		})
	})

	Describe("Reset", func() {
		It("should clear the recorded attempts for a key", func() {
			limiter = ratelimit.New(2, 60*time.Second)

			limiter.Allow("client")
			limiter.Allow("client")
			Expect(limiter.Allow("client").Allowed).To(BeFalse())

			limiter.Reset("client")

			Expect(limiter.Allow("client").Allowed).To(BeTrue())
		})

		It("should be a no-op for an unknown key", func() {
			limiter = ratelimit.New(2, 60*time.Second)
			limiter.Reset("missing")
		})
	})
})
