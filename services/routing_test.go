package services

import (
	"reflect"
	"testing"
)

func testPolicy() *RoutingPolicy {
	return &RoutingPolicy{
		AutoApproveBelowRisk: 50,
		ValueThresholds: []ValueThreshold{
			{Amount: 500000, Approvers: []string{"cfo@co.com", "legal@co.com"}},
			{Amount: 200000, Approvers: []string{"legal@co.com"}},
			{Amount: 50000, Approvers: []string{"manager@co.com"}},
		},
		RiskThresholds: RiskTierApprovers{
			High:   []string{"risk@co.com", "legal@co.com"},
			Medium: []string{"manager@co.com"},
		},
		DefaultApprover: "fallback@co.com",
	}
}

func TestResolveRoutingAutoApproveTakesPrecedence(t *testing.T) {
	// Below the threshold, value and configured approvers are irrelevant.
	for _, value := range []float64{0, 100000, 10000000} {
		decision := ResolveRouting(49, value, testPolicy())
		if !decision.AutoApprove {
			t.Fatalf("value %v: expected auto-approve for risk below threshold", value)
		}
		if decision.Reason != RouteReasonAutoApprovedByRisk {
			t.Fatalf("value %v: expected policy reason, got %s", value, decision.Reason)
		}
		if len(decision.Approvers) != 0 {
			t.Fatalf("value %v: expected no approvers, got %v", value, decision.Approvers)
		}
	}
}

func TestResolveRoutingFirstValueThresholdOnly(t *testing.T) {
	// 600000 meets all three thresholds but only the highest contributes.
	decision := ResolveRouting(50, 600000, testPolicy())

	if decision.AutoApprove {
		t.Fatal("expected routed decision")
	}
	expected := []string{"cfo@co.com", "legal@co.com", "manager@co.com"}
	if !reflect.DeepEqual(decision.Approvers, expected) {
		t.Fatalf("unexpected approvers: %v", decision.Approvers)
	}
}

func TestResolveRoutingHighTierWinsOverMedium(t *testing.T) {
	decision := ResolveRouting(75, 300000, testPolicy())

	if decision.AutoApprove {
		t.Fatal("expected routed decision")
	}
	// Value 300000 matches the 200000 threshold; risk 75 adds the high tier.
	// legal@co.com appears in both and must be deduplicated.
	expected := []string{"legal@co.com", "risk@co.com"}
	if !reflect.DeepEqual(decision.Approvers, expected) {
		t.Fatalf("unexpected approvers: %v", decision.Approvers)
	}
}

func TestResolveRoutingDedupeIsCaseInsensitive(t *testing.T) {
	policy := testPolicy()
	policy.ValueThresholds = []ValueThreshold{
		{Amount: 100, Approvers: []string{"Legal@Co.com"}},
	}
	policy.RiskThresholds.High = []string{"legal@co.com", "risk@co.com"}

	decision := ResolveRouting(80, 200, policy)

	expected := []string{"legal@co.com", "risk@co.com"}
	if !reflect.DeepEqual(decision.Approvers, expected) {
		t.Fatalf("unexpected approvers: %v", decision.Approvers)
	}
}

func TestResolveRoutingDefaultApproverFallback(t *testing.T) {
	policy := testPolicy()
	policy.ValueThresholds = nil
	policy.RiskThresholds = RiskTierApprovers{}

	decision := ResolveRouting(55, 10, policy)
	// Risk 55 is above the auto-approve threshold but below the medium tier,
	// and no value threshold matches: the default approver catches it.
	if decision.AutoApprove {
		t.Fatal("expected routed decision via default approver")
	}
	if !reflect.DeepEqual(decision.Approvers, []string{"fallback@co.com"}) {
		t.Fatalf("unexpected approvers: %v", decision.Approvers)
	}
}

func TestResolveRoutingEmptyRoutingIsDistinctAutoApproval(t *testing.T) {
	policy := testPolicy()
	policy.ValueThresholds = nil
	policy.RiskThresholds = RiskTierApprovers{}
	policy.DefaultApprover = ""

	decision := ResolveRouting(55, 10, policy)

	if !decision.AutoApprove {
		t.Fatal("expected auto-approval when nobody can be routed to")
	}
	if decision.Reason != RouteReasonAutoApprovedEmpty {
		t.Fatalf("expected empty-routing reason, got %s", decision.Reason)
	}
}

func TestResolveRoutingMediumTier(t *testing.T) {
	decision := ResolveRouting(55, 10, testPolicy())

	if decision.AutoApprove {
		t.Fatal("expected routed decision")
	}
	if !reflect.DeepEqual(decision.Approvers, []string{"manager@co.com"}) {
		t.Fatalf("unexpected approvers: %v", decision.Approvers)
	}
}
