package route

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/angeloszaimis/service-router/internal/strategy"
)

// MatchType selects the path pattern syntax for a rule.
type MatchType string

const (
	MatchGlob   MatchType = "glob" // path.Match syntax, the default
	MatchExact  MatchType = "exact"
	MatchPrefix MatchType = "prefix"
	MatchRegex  MatchType = "regex"
)

// MethodAny matches every HTTP method.
const MethodAny = "*"

// DefaultTimeout bounds the downstream relay when a rule does not set one.
const DefaultTimeout = 30 * time.Second

// Rule maps a path pattern and method to a target service with its
// per-route policy. Rules are immutable once added to a Table.
type Rule struct {
	PathPattern    string
	Service        string
	Method         string
	Match          MatchType
	Strategy       strategy.Type
	Weight         int
	Timeout        time.Duration
	RetryCount     int
	CircuitBreaker bool
	RateLimit      bool
	AuthRequired   bool
	Priority       int

	regex *regexp.Regexp
}

// Key identifies the rule for circuit breaker and rate limiter state.
func (r *Rule) Key() string {
	return r.Service + "|" + r.Method
}

// normalize fills defaults and compiles the pattern. Called by Table.Add.
func (r *Rule) normalize(defaultStrategy strategy.Type) error {
	if r.PathPattern == "" {
		return fmt.Errorf("route for service %q: empty path pattern", r.Service)
	}
	if r.Service == "" {
		return fmt.Errorf("route %q: empty service name", r.PathPattern)
	}

	if r.Method == "" {
		r.Method = MethodAny
	} else {
		r.Method = strings.ToUpper(r.Method)
	}

	if r.Match == "" {
		r.Match = MatchGlob
	}

	if r.Strategy == "" {
		r.Strategy = defaultStrategy
	}
	if !strategy.Known(r.Strategy) {
		return fmt.Errorf("route %q: unknown strategy %q", r.PathPattern, r.Strategy)
	}

	if r.Timeout <= 0 {
		r.Timeout = DefaultTimeout
	}
	if r.RetryCount < 0 {
		r.RetryCount = 0
	}

	switch r.Match {
	case MatchGlob:
		if _, err := path.Match(r.PathPattern, "/"); err != nil {
			return fmt.Errorf("route %q: bad glob pattern: %w", r.PathPattern, err)
		}
	case MatchRegex:
		re, err := regexp.Compile(r.PathPattern)
		if err != nil {
			return fmt.Errorf("route %q: bad regex pattern: %w", r.PathPattern, err)
		}
		r.regex = re
	case MatchExact, MatchPrefix:
	default:
		return fmt.Errorf("route %q: unknown match type %q", r.PathPattern, r.Match)
	}

	return nil
}

// matchesMethod reports whether the rule accepts the method.
func (r *Rule) matchesMethod(method string) bool {
	return r.Method == MethodAny || r.Method == strings.ToUpper(method)
}

// matchesPath reports whether the rule's pattern matches the path.
func (r *Rule) matchesPath(requestPath string) bool {
	switch r.Match {
	case MatchExact:
		return r.PathPattern == requestPath
	case MatchPrefix:
		return strings.HasPrefix(requestPath, r.PathPattern)
	case MatchRegex:
		return r.regex.MatchString(requestPath)
	default:
		ok, err := path.Match(r.PathPattern, requestPath)
		return err == nil && ok
	}
}
