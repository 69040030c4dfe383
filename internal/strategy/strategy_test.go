package strategy_test

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/service-router/internal/endpoint"
	"github.com/angeloszaimis/service-router/internal/strategy"
)

func TestStrategy(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Strategy Suite")
}

func makeEndpoints(count int) []*endpoint.Endpoint {
	endpoints := make([]*endpoint.Endpoint, 0, count)
	for i := 0; i < count; i++ {
		endpoints = append(endpoints, endpoint.New("10.0.0.1", 9000+i, "instance", 1))
	}
	return endpoints
}

var _ = Describe("New", func() {
	It("should create every registered strategy", func() {
		for _, t := range strategy.Types() {
			s, err := strategy.New(t)
			Expect(err).NotTo(HaveOccurred())
			Expect(s).NotTo(BeNil())
		}
	})

	It("should fail for an unknown strategy name", func() {
		s, err := strategy.New("linear-probing")
		Expect(err).To(HaveOccurred())
		Expect(s).To(BeNil())
	})
})

var _ = Describe("Known", func() {
	It("should recognize registered strategy names", func() {
		Expect(strategy.Known(strategy.TypeRoundRobin)).To(BeTrue())
		Expect(strategy.Known(strategy.TypeLeastConn)).To(BeTrue())
		Expect(strategy.Known("linear-probing")).To(BeFalse())
	})
})

var _ = Describe("RoundRobinStrategy", func() {
	var s strategy.Strategy

	BeforeEach(func() {
		s = strategy.NewRoundRobinStrategy()
	})

	It("should return nil for an empty endpoint list", func() {
		Expect(s.Select(nil)).To(BeNil())
	})

	It("should visit each endpoint exactly once per cycle", func() {
		endpoints := makeEndpoints(3)

		seen := make(map[*endpoint.Endpoint]int)
		for i := 0; i < 3; i++ {
			seen[s.Select(endpoints)]++
		}

		for _, e := range endpoints {
			Expect(seen[e]).To(Equal(1))
		}
	})

	It("should cycle back to the first endpoint", func() {
		endpoints := makeEndpoints(2)

		first := s.Select(endpoints)
		s.Select(endpoints)
		Expect(s.Select(endpoints)).To(Equal(first))
	})
})

var _ = Describe("RandomStrategy", func() {
	var s strategy.Strategy

	BeforeEach(func() {
		s = strategy.NewRandomStrategy()
	})

	It("should return nil for an empty endpoint list", func() {
		Expect(s.Select(nil)).To(BeNil())
	})

	It("should always pick one of the given endpoints", func() {
		endpoints := makeEndpoints(3)

		for i := 0; i < 50; i++ {
			Expect(endpoints).To(ContainElement(s.Select(endpoints)))
		}
	})
})

var _ = Describe("LeastConnStrategy", func() {
	var s strategy.Strategy

	BeforeEach(func() {
		s = strategy.NewLeastConnStrategy()
	})

	It("should return nil for an empty endpoint list", func() {
		Expect(s.Select(nil)).To(BeNil())
	})

	It("should pick the endpoint with the fewest active connections", func() {
		endpoints := makeEndpoints(3)
		endpoints[0].IncrementConn()
		endpoints[0].IncrementConn()
		endpoints[1].IncrementConn()

		Expect(s.Select(endpoints)).To(Equal(endpoints[2]))
	})

	It("should pick the first endpoint when counts are tied", func() {
		endpoints := makeEndpoints(3)

		Expect(s.Select(endpoints)).To(Equal(endpoints[0]))
	})
})

var _ = Describe("LeastResponseStrategy", func() {
	var s strategy.Strategy

	BeforeEach(func() {
		s = strategy.NewLeastResponseStrategy()
	})

	It("should return nil for an empty endpoint list", func() {
		Expect(s.Select(nil)).To(BeNil())
	})

	It("should prefer an endpoint with no recorded responses", func() {
		endpoints := makeEndpoints(2)
		endpoints[0].RecordResponse(5 * time.Millisecond)

		Expect(s.Select(endpoints)).To(Equal(endpoints[1]))
	})

	It("should pick the endpoint with the lowest load-adjusted latency", func() {
		endpoints := makeEndpoints(2)
		endpoints[0].RecordResponse(100 * time.Millisecond)
		endpoints[1].RecordResponse(10 * time.Millisecond)

		Expect(s.Select(endpoints)).To(Equal(endpoints[1]))
	})

	It("should account for active connections", func() {
		endpoints := makeEndpoints(2)
		endpoints[0].RecordResponse(10 * time.Millisecond)
		endpoints[1].RecordResponse(10 * time.Millisecond)
		endpoints[0].IncrementConn()
		endpoints[0].IncrementConn()

		Expect(s.Select(endpoints)).To(Equal(endpoints[1]))
	})
})

var _ = Describe("WeightedRoundRobinStrategy", func() {
	var s strategy.Strategy

	BeforeEach(func() {
		s = strategy.NewWeightedRoundRobinStrategy()
	})

	It("should return nil for an empty endpoint list", func() {
		Expect(s.Select(nil)).To(BeNil())
	})

	It("should distribute selections proportionally to weights", func() {
		heavy := endpoint.New("10.0.0.1", 9000, "heavy", 3)
		light := endpoint.New("10.0.0.2", 9000, "light", 1)
		endpoints := []*endpoint.Endpoint{heavy, light}

		counts := make(map[*endpoint.Endpoint]int)
		for i := 0; i < 40; i++ {
			counts[s.Select(endpoints)]++
		}

		Expect(counts[heavy]).To(Equal(30))
		Expect(counts[light]).To(Equal(10))
	})

	It("should interleave rather than burst the heavy endpoint", func() {
		heavy := endpoint.New("10.0.0.1", 9000, "heavy", 2)
		light := endpoint.New("10.0.0.2", 9000, "light", 1)
		endpoints := []*endpoint.Endpoint{heavy, light}

		picks := make([]*endpoint.Endpoint, 0, 3)
		for i := 0; i < 3; i++ {
			picks = append(picks, s.Select(endpoints))
		}

		Expect(picks).To(ContainElement(light))
	})

	It("should forget endpoints that drop out of the list", func() {
		endpoints := makeEndpoints(3)
		for i := 0; i < 5; i++ {
			s.Select(endpoints)
		}

		remaining := endpoints[:2]
		Expect(remaining).To(ContainElement(s.Select(remaining)))
	})
})
