package route

import (
	"sync"

	"github.com/angeloszaimis/service-router/internal/strategy"
)

// Table is the ordered route rule set. Rules are kept sorted by
// descending priority; equal priorities preserve registration order.
type Table struct {
	mutex           sync.RWMutex
	rules           []*Rule
	defaultStrategy strategy.Type
}

func NewTable(defaultStrategy strategy.Type) *Table {
	if defaultStrategy == "" {
		defaultStrategy = strategy.DefaultType
	}

	return &Table{
		defaultStrategy: defaultStrategy,
	}
}

// Add validates and registers a rule. The rule must not be mutated after
// a successful Add.
func (t *Table) Add(rule Rule) error {
	if err := rule.normalize(t.defaultStrategy); err != nil {
		return err
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	idx := len(t.rules)
	for i, existing := range t.rules {
		if existing.Priority < rule.Priority {
			idx = i
			break
		}
	}

	t.rules = append(t.rules, nil)
	copy(t.rules[idx+1:], t.rules[idx:])
	t.rules[idx] = &rule

	return nil
}

// Match resolves a path and method to the highest-priority matching rule.
// Returns nil when no rule matches.
func (t *Table) Match(path, method string) *Rule {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	for _, rule := range t.rules {
		if rule.matchesMethod(method) && rule.matchesPath(path) {
			return rule
		}
	}

	return nil
}

// Rules returns the rules in match order.
func (t *Table) Rules() []*Rule {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	rules := make([]*Rule, len(t.rules))
	copy(rules, t.rules)
	return rules
}

// Len returns the number of registered rules.
func (t *Table) Len() int {
	t.mutex.RLock()
	defer t.mutex.RUnlock()
	return len(t.rules)
}
