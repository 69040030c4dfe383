package circuitbreaker_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/service-router/internal/circuitbreaker"
)

var _ = Describe("Registry", func() {
	var registry *circuitbreaker.Registry

	BeforeEach(func() {
		registry = circuitbreaker.NewRegistry(3, 100*time.Millisecond)
	})

	Describe("GetBreaker", func() {
		It("should create a breaker on first use", func() {
			cb := registry.GetBreaker("users|GET")
			Expect(cb).NotTo(BeNil())
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})

		It("should return the same breaker for the same key", func() {
			first := registry.GetBreaker("users|GET")
			second := registry.GetBreaker("users|GET")
			Expect(first).To(BeIdenticalTo(second))
		})

		It("should keep breakers independent per key", func() {
			users := registry.GetBreaker("users|GET")
			orders := registry.GetBreaker("orders|POST")

			users.RecordFailure()
			users.RecordFailure()
			users.RecordFailure()

			Expect(users.State()).To(Equal(circuitbreaker.StateOpen))
			Expect(orders.State()).To(Equal(circuitbreaker.StateClosed))
		})
	})

	Describe("Reset", func() {
		It("should discard all breakers", func() {
			cb := registry.GetBreaker("users|GET")
			cb.RecordFailure()
			cb.RecordFailure()
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))

			registry.Reset()

			fresh := registry.GetBreaker("users|GET")
			Expect(fresh.State()).To(Equal(circuitbreaker.StateClosed))
		})
	})

	Describe("Stats", func() {
		It("should report the state of every breaker", func() {
			registry.GetBreaker("users|GET")
			orders := registry.GetBreaker("orders|POST")
			orders.RecordFailure()
			orders.RecordFailure()
			orders.RecordFailure()

			stats := registry.Stats()
			Expect(stats).To(HaveLen(2))
			Expect(stats["users|GET"]).To(Equal(circuitbreaker.StateClosed))
			Expect(stats["orders|POST"]).To(Equal(circuitbreaker.StateOpen))
		})
	})
})
