package services

import (
	"os"
	"path/filepath"
	"testing"
)

func writePolicyFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}
	return path
}

func TestLoadPolicyEmptyPathReturnsDefault(t *testing.T) {
	policy, err := LoadPolicy("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if policy.AutoApproveBelowRisk != 40 {
		t.Fatalf("unexpected default threshold: %d", policy.AutoApproveBelowRisk)
	}
	if len(policy.ValueThresholds) != 0 {
		t.Fatalf("default policy must have no value thresholds: %v", policy.ValueThresholds)
	}
}

func TestLoadPolicySortsThresholdsDescending(t *testing.T) {
	path := writePolicyFile(t, `{
		"auto_approve_below_risk": 35,
		"value_thresholds": [
			{"amount": 50000, "approvers": ["manager@co.com"]},
			{"amount": 500000, "approvers": ["cfo@co.com"]},
			{"amount": 200000, "approvers": ["legal@co.com"]}
		],
		"risk_thresholds": {"high": ["risk@co.com"]},
		"default_approver": "fallback@co.com"
	}`)

	policy, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	amounts := []float64{
		policy.ValueThresholds[0].Amount,
		policy.ValueThresholds[1].Amount,
		policy.ValueThresholds[2].Amount,
	}
	if amounts[0] != 500000 || amounts[1] != 200000 || amounts[2] != 50000 {
		t.Fatalf("thresholds not sorted descending: %v", amounts)
	}
	if policy.AutoApproveBelowRisk != 35 {
		t.Fatalf("unexpected threshold: %d", policy.AutoApproveBelowRisk)
	}
}

func TestLoadPolicyRejectsBadJSON(t *testing.T) {
	path := writePolicyFile(t, `{"auto_approve_below_risk": `)
	if _, err := LoadPolicy(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadPolicyMissingFile(t *testing.T) {
	if _, err := LoadPolicy(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected read error")
	}
}

func TestPolicyValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*RoutingPolicy)
	}{
		{"threshold above 100", func(p *RoutingPolicy) { p.AutoApproveBelowRisk = 101 }},
		{"negative threshold", func(p *RoutingPolicy) { p.AutoApproveBelowRisk = -1 }},
		{"negative amount", func(p *RoutingPolicy) {
			p.ValueThresholds = []ValueThreshold{{Amount: -5, Approvers: []string{"a@co.com"}}}
		}},
		{"bad threshold approver", func(p *RoutingPolicy) {
			p.ValueThresholds = []ValueThreshold{{Amount: 100, Approvers: []string{"nope"}}}
		}},
		{"bad tier approver", func(p *RoutingPolicy) { p.RiskThresholds.High = []string{"nope"} }},
		{"bad default approver", func(p *RoutingPolicy) { p.DefaultApprover = "nope" }},
	}

	for _, tc := range cases {
		policy := DefaultPolicy()
		tc.mutate(policy)
		if err := policy.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
	}

	if err := testPolicy().Validate(); err != nil {
		t.Fatalf("valid policy rejected: %v", err)
	}
}
