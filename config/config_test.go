package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/service-router/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

const validConfig = `
server:
  address: ":8080"
  environment: "dev"

registry:
  endpoints:
    - "localhost:2379"
  namespace: "/services"
  cache_ttl: "30s"

health_check:
  interval: "10s"
  timeout: "5s"
  path: "/health"

circuit_breaker:
  failure_threshold: 5
  recovery_timeout: "60s"

rate_limit:
  max_requests: 100
  window: "60s"

strategy:
  type: "round-robin"

routes:
  - path: "/api/users/*"
    service: "users"
    method: "GET"
    strategy: "least-conn"
    timeout: "5s"
    retry_count: 2
    circuit_breaker: true
    rate_limit: true
    priority: 10
  - path: "/api/orders"
    service: "orders"
    match: "prefix"

logging:
  level: "info"
`

var _ = Describe("Config", func() {
	var tempDir string

	writeConfig := func(content string) {
		configPath := filepath.Join(tempDir, "config.yaml")
		err := os.WriteFile(configPath, []byte(content), 0644)
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tempDir)
		Expect(err).NotTo(HaveOccurred())
	}

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	Describe("Load", func() {
		Context("with a valid config file", func() {
			BeforeEach(func() {
				writeConfig(validConfig)
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())
			})

			It("should parse the registry settings", func() {
				cfg, _ := config.Load()
				Expect(cfg.Registry.Endpoints).To(ConsistOf("localhost:2379"))
				Expect(cfg.Registry.Namespace).To(Equal("/services"))
				Expect(cfg.Registry.CacheTTL).To(Equal("30s"))
			})

			It("should parse the route rules", func() {
				cfg, _ := config.Load()
				Expect(cfg.Routes).To(HaveLen(2))
				Expect(cfg.Routes[0].Service).To(Equal("users"))
				Expect(cfg.Routes[0].Strategy).To(Equal("least-conn"))
				Expect(cfg.Routes[0].RetryCount).To(Equal(2))
				Expect(cfg.Routes[0].CircuitBreaker).To(BeTrue())
				Expect(cfg.Routes[0].Priority).To(Equal(10))
				Expect(cfg.Routes[1].Match).To(Equal("prefix"))
			})

			It("should parse the strategy and policy settings", func() {
				cfg, _ := config.Load()
				Expect(cfg.Strategy.Type).To(Equal("round-robin"))
				Expect(cfg.CircuitBreaker.FailureThreshold).To(Equal(5))
				Expect(cfg.RateLimit.MaxRequests).To(Equal(100))
			})
		})

		Context("without routes", func() {
			It("should fail validation", func() {
				writeConfig(`
server:
  address: ":8080"
  environment: "dev"

logging:
  level: "info"
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})
	})
})

var _ = Describe("Validate", func() {
	newValidConfig := func() *config.Config {
		return &config.Config{
			Server: config.ServerConfig{
				Address:     ":8080",
				Environment: config.EnvDev,
			},
			Registry: config.RegistryConfig{
				Endpoints: []string{"localhost:2379"},
				Namespace: "/services",
				CacheTTL:  "30s",
			},
			HealthCheck: config.HealthCheckConfig{
				Interval: "10s",
				Timeout:  "5s",
				Path:     "/health",
			},
			CircuitBreaker: config.CircuitBreakerConfig{
				FailureThreshold: 5,
				RecoveryTimeout:  "60s",
			},
			RateLimit: config.RateLimitConfig{
				MaxRequests: 100,
				Window:      "60s",
			},
			Strategy: config.StrategyConfig{Type: "round-robin"},
			Routes: []config.RouteConfig{
				{Path: "/api/users/*", Service: "users"},
			},
			Logging: config.LoggingConfig{Level: config.LogLevelInfo},
		}
	}

	It("should accept a complete configuration", func() {
		Expect(newValidConfig().Validate()).To(Succeed())
	})

	It("should reject an unknown environment", func() {
		cfg := newValidConfig()
		cfg.Server.Environment = "sandbox"
		Expect(cfg.Validate()).NotTo(Succeed())
	})

	It("should reject a server address without a port", func() {
		cfg := newValidConfig()
		cfg.Server.Address = "localhost"
		Expect(cfg.Validate()).NotTo(Succeed())
	})

	It("should reject an empty registry endpoint list", func() {
		cfg := newValidConfig()
		cfg.Registry.Endpoints = nil
		Expect(cfg.Validate()).NotTo(Succeed())
	})

	It("should reject a malformed cache TTL", func() {
		cfg := newValidConfig()
		cfg.Registry.CacheTTL = "soon"
		Expect(cfg.Validate()).NotTo(Succeed())
	})

	It("should reject a non-positive failure threshold", func() {
		cfg := newValidConfig()
		cfg.CircuitBreaker.FailureThreshold = 0
		Expect(cfg.Validate()).NotTo(Succeed())
	})

	It("should reject an unknown logging level", func() {
		cfg := newValidConfig()
		cfg.Logging.Level = "verbose"
		Expect(cfg.Validate()).NotTo(Succeed())
	})

	It("should reject an unknown strategy type", func() {
		cfg := newValidConfig()
		cfg.Strategy.Type = "linear-probing"
		Expect(cfg.Validate()).NotTo(Succeed())
	})

	Describe("route validation", func() {
		It("should reject a route without a path", func() {
			cfg := newValidConfig()
			cfg.Routes[0].Path = ""
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject a route without a service", func() {
			cfg := newValidConfig()
			cfg.Routes[0].Service = ""
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject an unknown match type", func() {
			cfg := newValidConfig()
			cfg.Routes[0].Match = "fuzzy"
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject an unknown route strategy", func() {
			cfg := newValidConfig()
			cfg.Routes[0].Strategy = "linear-probing"
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject a malformed route timeout", func() {
			cfg := newValidConfig()
			cfg.Routes[0].Timeout = "fast"
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject a negative retry count", func() {
			cfg := newValidConfig()
			cfg.Routes[0].RetryCount = -1
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should accept optional fields left empty", func() {
			cfg := newValidConfig()
			cfg.Routes[0].Method = ""
			cfg.Routes[0].Match = ""
			cfg.Routes[0].Strategy = ""
			Expect(cfg.Validate()).To(Succeed())
		})
	})
})
