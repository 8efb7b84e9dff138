package alarms

import (
	"io"
	"time"

	"github.com/WispAyr/overwatch-sub002/pkg/types"
	"gopkg.in/yaml.v2"
)

const DefaultPolicyName string = "default"

// StateBudget holds the response time budget, in minutes, for each
// non-terminal lifecycle state.
type StateBudget struct {
	New       int `yaml:"new"`
	Triage    int `yaml:"triage"`
	Active    int `yaml:"active"`
	Contained int `yaml:"contained"`
	Resolved  int `yaml:"resolved"`
}

// Policy maps severities to their state budgets.
type Policy map[types.Severity]StateBudget

type Config struct {
	Policies map[string]Policy `yaml:"policies"`
}

func DefaultConfig() *Config {
	return &Config{
		Policies: map[string]Policy{
			DefaultPolicyName: {
				types.SeverityCritical: {New: 2, Triage: 2, Active: 5, Contained: 15, Resolved: 60},
				types.SeverityMajor:    {New: 5, Triage: 5, Active: 15, Contained: 30, Resolved: 120},
				types.SeverityMinor:    {New: 15, Triage: 15, Active: 60, Contained: 240, Resolved: 480},
				types.SeverityInfo:     {New: 60, Triage: 60, Active: 240, Contained: 480, Resolved: 1440},
			},
		},
	}
}

func LoadConfig(data io.Reader) (*Config, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = yaml.Unmarshal(buf, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.Policies == nil {
		cfg.Policies = map[string]Policy{}
	}
	if _, ok := cfg.Policies[DefaultPolicyName]; !ok {
		cfg.Policies[DefaultPolicyName] = DefaultConfig().Policies[DefaultPolicyName]
	}

	return cfg, nil
}

// Budget returns the response time budget for an alarm in the given state,
// or false when the state carries no SLA clock. Unknown policies and
// severities fall back to the default policy's critical budgets.
func (c *Config) Budget(policyName string, severity types.Severity, state types.State) (time.Duration, bool) {
	if state.IsTerminal() || state == types.StateSnoozed {
		return 0, false
	}

	policy, ok := c.Policies[policyName]
	if !ok {
		policy = c.Policies[DefaultPolicyName]
	}

	budget, ok := policy[severity]
	if !ok {
		budget = c.Policies[DefaultPolicyName][types.SeverityCritical]
	}

	minutes := 0

	switch state {
	case types.StateNew:
		minutes = budget.New
	case types.StateTriage:
		minutes = budget.Triage
	case types.StateActive:
		minutes = budget.Active
	case types.StateContained:
		minutes = budget.Contained
	case types.StateResolved:
		minutes = budget.Resolved
	}

	return time.Duration(minutes) * time.Minute, true
}
