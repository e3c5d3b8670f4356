package internal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// ValueRule is one named check applied to a raw field value.
type ValueRule struct {
	Message string
	Check   func(value any) bool
}

// RuleRegistry holds named rule-sets keyed by rule-set name (conventionally a
// field type). Additional rule-sets may be registered at runtime.
type RuleRegistry struct {
	mu    sync.RWMutex
	rules map[string][]ValueRule
}

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}$`)
	ssnPattern   = regexp.MustCompile(`^\d{3}-?\d{2}-?\d{4}$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// NewRuleRegistry creates a registry populated with the built-in rule-sets.
func NewRuleRegistry() *RuleRegistry {
	r := &RuleRegistry{rules: make(map[string][]ValueRule)}
	r.MustRegister("required", []ValueRule{
		{Message: "value is required", Check: func(v any) bool {
			s, ok := v.(string)
			if ok {
				return strings.TrimSpace(s) != ""
			}
			return v != nil
		}},
	})
	r.MustRegister("email", []ValueRule{
		{Message: "value is not a valid email address", Check: stringMatches(emailPattern)},
	})
	r.MustRegister("tel", []ValueRule{
		{Message: "value is not a valid phone number", Check: stringMatches(phonePattern)},
	})
	r.MustRegister("ssn", []ValueRule{
		{Message: "value is not a valid SSN", Check: stringMatches(ssnPattern)},
	})
	r.MustRegister("zip", []ValueRule{
		{Message: "value is not a valid ZIP code", Check: stringMatches(zipPattern)},
	})
	r.MustRegister("number", []ValueRule{
		{Message: "value is not numeric", Check: func(v any) bool {
			_, err := coerceFloat(v)
			return err == nil
		}},
	})
	r.MustRegister("integer", []ValueRule{
		{Message: "value is not an integer", Check: func(v any) bool {
			switch n := v.(type) {
			case int, int32, int64:
				return true
			case float64:
				return n == float64(int64(n))
			case string:
				_, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
				return err == nil
			default:
				return false
			}
		}},
	})
	r.MustRegister("date", []ValueRule{
		{Message: "value is not a parseable date", Check: func(v any) bool {
			_, err := coerceTime(v)
			return err == nil
		}},
	})
	return r
}

// Register adds or replaces a named rule-set. Every rule must carry a message
// and a check.
func (r *RuleRegistry) Register(name string, rules []ValueRule) error {
	if name == "" {
		return fmt.Errorf("rule-set name must not be empty")
	}
	for i, rule := range rules {
		if rule.Check == nil {
			return fmt.Errorf("rule %d of rule-set %q has no check", i, name)
		}
		if rule.Message == "" {
			return fmt.Errorf("rule %d of rule-set %q has no message", i, name)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[name] = rules
	return nil
}

// MustRegister registers a rule-set and panics on a malformed definition.
// Intended for built-ins constructed at startup.
func (r *RuleRegistry) MustRegister(name string, rules []ValueRule) {
	if err := r.Register(name, rules); err != nil {
		panic(err)
	}
}

// Apply runs the named rule-set against a value and returns every failing
// rule's message. An unknown rule-set yields no messages.
func (r *RuleRegistry) Apply(name string, value any) []string {
	r.mu.RLock()
	rules := r.rules[name]
	r.mu.RUnlock()

	var msgs []string
	for _, rule := range rules {
		if !rule.Check(value) {
			msgs = append(msgs, rule.Message)
		}
	}
	return msgs
}

// Has reports whether a rule-set is registered under name.
func (r *RuleRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rules[name]
	return ok
}

func stringMatches(pattern *regexp.Regexp) func(any) bool {
	return func(v any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		return pattern.MatchString(strings.TrimSpace(s))
	}
}
