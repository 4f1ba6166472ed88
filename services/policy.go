package services

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"contract-review-api/utils"
)

// ValueThreshold maps a minimum contract value to the approvers it requires.
type ValueThreshold struct {
	Amount    float64  `json:"amount"`
	Approvers []string `json:"approvers"`
}

// RiskTierApprovers holds the approver sets for the high and medium risk
// tiers.
type RiskTierApprovers struct {
	High   []string `json:"high"`
	Medium []string `json:"medium"`
}

// RoutingPolicy is the configured rule set mapping contract value and risk
// score to required approvers. It is configuration, not per-review state.
type RoutingPolicy struct {
	AutoApproveBelowRisk int               `json:"auto_approve_below_risk"`
	ValueThresholds      []ValueThreshold  `json:"value_thresholds"`
	RiskThresholds       RiskTierApprovers `json:"risk_thresholds"`
	DefaultApprover      string            `json:"default_approver"`
}

// DefaultPolicy returns the policy used when no policy file is configured.
func DefaultPolicy() *RoutingPolicy {
	return &RoutingPolicy{
		AutoApproveBelowRisk: 40,
		ValueThresholds:      []ValueThreshold{},
		RiskThresholds:       RiskTierApprovers{},
	}
}

// LoadPolicy reads the routing policy JSON file at path. An empty path
// returns the default policy. Thresholds are sorted descending by amount so
// the resolver can take the first match.
func LoadPolicy(path string) (*RoutingPolicy, error) {
	if path == "" {
		return DefaultPolicy(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read routing policy: %w", err)
	}

	policy := DefaultPolicy()
	if err := json.Unmarshal(data, policy); err != nil {
		return nil, fmt.Errorf("failed to parse routing policy: %w", err)
	}

	if err := policy.Validate(); err != nil {
		return nil, err
	}

	sort.SliceStable(policy.ValueThresholds, func(i, j int) bool {
		return policy.ValueThresholds[i].Amount > policy.ValueThresholds[j].Amount
	})
	return policy, nil
}

// Validate rejects policies with out-of-range thresholds or non-email
// approver entries.
func (p *RoutingPolicy) Validate() error {
	if p.AutoApproveBelowRisk < 0 || p.AutoApproveBelowRisk > 100 {
		return fmt.Errorf("auto_approve_below_risk must be in [0, 100], got %d", p.AutoApproveBelowRisk)
	}
	for _, threshold := range p.ValueThresholds {
		if threshold.Amount < 0 {
			return fmt.Errorf("value threshold amount must not be negative, got %v", threshold.Amount)
		}
		if err := validateApproverList(threshold.Approvers); err != nil {
			return err
		}
	}
	if err := validateApproverList(p.RiskThresholds.High); err != nil {
		return err
	}
	if err := validateApproverList(p.RiskThresholds.Medium); err != nil {
		return err
	}
	if p.DefaultApprover != "" && !utils.ValidateEmail(p.DefaultApprover) {
		return fmt.Errorf("default_approver is not a valid email: %s", p.DefaultApprover)
	}
	return nil
}

func validateApproverList(approvers []string) error {
	for _, approver := range approvers {
		if !utils.ValidateEmail(approver) {
			return fmt.Errorf("approver is not a valid email: %s", approver)
		}
	}
	return nil
}
