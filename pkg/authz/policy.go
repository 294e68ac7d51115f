package authz

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/openboard-dev/openboard/pkg/membership"
)

// Policy is an immutable Action → Rule table. Construct a new Policy to
// change rules; live swaps go through a Source such as Reloader.
type Policy struct {
	rules map[Action]Rule
}

// Source yields the policy to evaluate against. Policy itself is a Source,
// so callers that never reload can pass one directly.
type Source interface {
	Current() *Policy
}

// DefaultPolicy returns the built-in minimum-role table.
func DefaultPolicy() *Policy {
	return &Policy{rules: defaultRules()}
}

// Current implements Source.
func (p *Policy) Current() *Policy { return p }

// Rule returns the rule for an action, with ok=false for unknown actions.
func (p *Policy) Rule(action Action) (Rule, bool) {
	rule, ok := p.rules[action]
	return rule, ok
}

// Decide is the pure decision function: (role, action, isAuthor) → decision.
// It performs no I/O. An unknown action or an unknown role denies.
func (p *Policy) Decide(role membership.Role, action Action, isAuthor bool) Decision {
	rule, ok := p.rules[action]
	if !ok {
		return Decision{Allowed: false, Reason: DenyUnknownAction}
	}
	if rule.OwnershipOverride && isAuthor {
		return Allow()
	}
	if role.AtLeast(rule.MinRole) {
		return Allow()
	}
	return DenyRole(rule.MinRole, role)
}

// policyFile is the YAML shape of a policy override file. Only rules for
// known actions may be overridden; the action set itself is fixed in code.
type policyFile struct {
	Actions map[Action]Rule `yaml:"actions"`
}

// LoadPolicyFile reads role-minimum overrides from a YAML file and applies
// them on top of the default table.
func LoadPolicyFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return parsePolicy(data)
}

func parsePolicy(data []byte) (*Policy, error) {
	var file policyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}

	rules := defaultRules()
	for action, rule := range file.Actions {
		if _, ok := rules[action]; !ok {
			return nil, fmt.Errorf("policy file references unknown action %q", action)
		}
		if !rule.MinRole.Valid() {
			return nil, fmt.Errorf("policy file sets invalid role %q for action %q", rule.MinRole, action)
		}
		rules[action] = rule
	}

	return &Policy{rules: rules}, nil
}
