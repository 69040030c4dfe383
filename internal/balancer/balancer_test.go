package balancer_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/service-router/internal/balancer"
	"github.com/angeloszaimis/service-router/internal/endpoint"
	"github.com/angeloszaimis/service-router/internal/strategy"
)

func TestBalancer(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Balancer Suite")
}

var _ = Describe("Balancer", func() {
	var (
		b         *balancer.Balancer
		endpoints []*endpoint.Endpoint
	)

	BeforeEach(func() {
		b = balancer.New()
		endpoints = []*endpoint.Endpoint{
			endpoint.New("10.0.0.1", 9001, "users-1", 1),
			endpoint.New("10.0.0.2", 9002, "users-2", 1),
		}
	})

	Describe("Select", func() {
		It("should return an endpoint from the list", func() {
			chosen, err := b.Select("users", strategy.TypeRoundRobin, endpoints)
			Expect(err).NotTo(HaveOccurred())
			Expect(endpoints).To(ContainElement(chosen))
		})

		It("should fail on an empty endpoint list", func() {
			_, err := b.Select("users", strategy.TypeRoundRobin, nil)
			Expect(err).To(HaveOccurred())
		})

		It("should fail on an unknown strategy", func() {
			_, err := b.Select("users", "linear-probing", endpoints)
			Expect(err).To(HaveOccurred())
		})

		It("should keep round-robin state per service", func() {
			first, _ := b.Select("users", strategy.TypeRoundRobin, endpoints)
			second, _ := b.Select("users", strategy.TypeRoundRobin, endpoints)
			Expect(second).NotTo(Equal(first))

			// A different service starts its own cursor
			other, _ := b.Select("orders", strategy.TypeRoundRobin, endpoints)
			Expect(other).To(Equal(first))
		})

		It("should keep state per strategy within a service", func() {
			b.Select("users", strategy.TypeRoundRobin, endpoints)
			b.Select("users", strategy.TypeRoundRobin, endpoints)

			// Weighted selection is unaffected by the round-robin cursor
			chosen, err := b.Select("users", strategy.TypeWeightedRoundRobin, endpoints)
			Expect(err).NotTo(HaveOccurred())
			Expect(endpoints).To(ContainElement(chosen))
		})
	})
})
