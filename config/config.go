package config

import (
	"log/slog"
	"net"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type RegistryConfig struct {
	Endpoints []string `mapstructure:"endpoints"`
	Namespace string   `mapstructure:"namespace"`
	CacheTTL  string   `mapstructure:"cache_ttl"`
}

type HealthCheckConfig struct {
	Interval string `mapstructure:"interval"`
	Timeout  string `mapstructure:"timeout"`
	Path     string `mapstructure:"path"`
}

type CircuitBreakerConfig struct {
	FailureThreshold int    `mapstructure:"failure_threshold"`
	RecoveryTimeout  string `mapstructure:"recovery_timeout"`
}

type RateLimitConfig struct {
	MaxRequests int    `mapstructure:"max_requests"`
	Window      string `mapstructure:"window"`
}

type StrategyConfig struct {
	Type string `mapstructure:"type"`
}

type RouteConfig struct {
	Path           string `mapstructure:"path"`
	Service        string `mapstructure:"service"`
	Method         string `mapstructure:"method"`
	Match          string `mapstructure:"match"`
	Strategy       string `mapstructure:"strategy"`
	Weight         int    `mapstructure:"weight"`
	Timeout        string `mapstructure:"timeout"`
	RetryCount     int    `mapstructure:"retry_count"`
	CircuitBreaker bool   `mapstructure:"circuit_breaker"`
	RateLimit      bool   `mapstructure:"rate_limit"`
	AuthRequired   bool   `mapstructure:"auth_required"`
	Priority       int    `mapstructure:"priority"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Registry       RegistryConfig       `mapstructure:"registry"`
	HealthCheck    HealthCheckConfig    `mapstructure:"health_check"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`
	Strategy       StrategyConfig       `mapstructure:"strategy"`
	Routes         []RouteConfig        `mapstructure:"routes"`
	Logging        LoggingConfig        `mapstructure:"logging"`
}

func Load() (*Config, error) {
	viper.SetDefault("server.environment", EnvDev)
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("registry.endpoints", []string{"localhost:2379"})
	viper.SetDefault("registry.namespace", "/services")
	viper.SetDefault("registry.cache_ttl", "30s")
	viper.SetDefault("health_check.interval", "10s")
	viper.SetDefault("health_check.timeout", "5s")
	viper.SetDefault("health_check.path", "/health")
	viper.SetDefault("circuit_breaker.failure_threshold", 5)
	viper.SetDefault("circuit_breaker.recovery_timeout", "60s")
	viper.SetDefault("rate_limit.max_requests", 100)
	viper.SetDefault("rate_limit.window", "60s")
	viper.SetDefault("strategy.type", "round-robin")
	viper.SetDefault("logging.level", LogLevelInfo)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Error("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", viper.ConfigFileUsed()))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Registry,
			validation.Required,
			validation.By(func(value interface{}) error {
				rc, ok := value.(RegistryConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a RegistryConfig")
				}
				return validation.ValidateStruct(&rc,
					validation.Field(&rc.Endpoints,
						validation.Required,
						validation.Length(1, 0),
						validation.Each(validation.By(validateHostPort)),
					),
					validation.Field(&rc.CacheTTL,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.HealthCheck,
			validation.Required,
			validation.By(func(value interface{}) error {
				hc, ok := value.(HealthCheckConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a HealthCheckConfig")
				}
				return validation.ValidateStruct(&hc,
					validation.Field(&hc.Interval,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&hc.Timeout,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.CircuitBreaker,
			validation.Required,
			validation.By(func(value interface{}) error {
				cb, ok := value.(CircuitBreakerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a CircuitBreakerConfig")
				}
				return validation.ValidateStruct(&cb,
					validation.Field(&cb.FailureThreshold,
						validation.Required,
						validation.Min(1),
					),
					validation.Field(&cb.RecoveryTimeout,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.RateLimit,
			validation.Required,
			validation.By(func(value interface{}) error {
				rl, ok := value.(RateLimitConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a RateLimitConfig")
				}
				return validation.ValidateStruct(&rl,
					validation.Field(&rl.MaxRequests,
						validation.Required,
						validation.Min(1),
					),
					validation.Field(&rl.Window,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Strategy,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(StrategyConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a StrategyConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Type,
						validation.Required,
						validation.In("round-robin", "random", "least-conn", "least-response", "weighted-round-robin"),
					),
				)
			}),
		),
		validation.Field(&c.Routes,
			validation.Required,
			validation.Length(1, 0),
			validation.Each(validation.By(validateRouteConfig)),
		),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	return nil
}

func validateRouteConfig(value interface{}) error {
	route, ok := value.(RouteConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a RouteConfig")
	}

	if route.Path == "" {
		return validation.NewError("validation_empty_path", "route path cannot be empty")
	}

	if route.Service == "" {
		return validation.NewError("validation_empty_service", "route service cannot be empty")
	}

	if route.Match != "" {
		if err := validation.Validate(route.Match,
			validation.In("glob", "exact", "prefix", "regex")); err != nil {
			return validation.NewError("validation_invalid_match", "match must be one of glob, exact, prefix, regex")
		}
	}

	if route.Strategy != "" {
		if err := validation.Validate(route.Strategy,
			validation.In("round-robin", "random", "least-conn", "least-response", "weighted-round-robin")); err != nil {
			return validation.NewError("validation_invalid_strategy", "unknown load balancing strategy")
		}
	}

	if route.Timeout != "" {
		if err := validateDuration(route.Timeout); err != nil {
			return err
		}
	}

	if route.RetryCount < 0 {
		return validation.NewError("validation_invalid_retry_count", "retry count cannot be negative")
	}

	return nil
}
