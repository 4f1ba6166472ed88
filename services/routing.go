package services

import "strings"

// Risk tiers that add approvers independently of contract value.
const (
	highRiskTier   = 70
	mediumRiskTier = 40
)

// RouteReason records why a routing decision came out the way it did. The
// two auto-approval reasons are deliberately distinct: "below the risk
// threshold" and "no policy matched anyone" are different situations even
// though both skip the approver step.
type RouteReason string

const (
	RouteReasonRouted             RouteReason = "routed"
	RouteReasonAutoApprovedByRisk RouteReason = "auto_approved_by_policy"
	RouteReasonAutoApprovedEmpty  RouteReason = "auto_approved_by_empty_routing"
)

// RouteDecision is the outcome of resolving a routing policy.
type RouteDecision struct {
	AutoApprove bool        `json:"auto_approve"`
	Reason      RouteReason `json:"reason"`
	Approvers   []string    `json:"approvers"`
}

// ResolveRouting applies the routing policy to a scored contract. The
// auto-approve risk threshold takes precedence over everything else; after
// that, at most one value threshold and at most one risk tier contribute
// approvers, the combined set is deduplicated case-insensitively, and an
// empty result falls back to the default approver when one is configured.
func ResolveRouting(riskScore int, contractValue float64, policy *RoutingPolicy) RouteDecision {
	if riskScore < policy.AutoApproveBelowRisk {
		return RouteDecision{
			AutoApprove: true,
			Reason:      RouteReasonAutoApprovedByRisk,
			Approvers:   []string{},
		}
	}

	approvers := make([]string, 0, 4)

	// Thresholds are sorted descending at load time; the first one the value
	// meets wins, the rest are ignored.
	for _, threshold := range policy.ValueThresholds {
		if contractValue >= threshold.Amount {
			approvers = append(approvers, threshold.Approvers...)
			break
		}
	}

	if riskScore >= highRiskTier {
		approvers = append(approvers, policy.RiskThresholds.High...)
	} else if riskScore >= mediumRiskTier {
		approvers = append(approvers, policy.RiskThresholds.Medium...)
	}

	approvers = dedupeEmails(approvers)

	if len(approvers) == 0 && policy.DefaultApprover != "" {
		approvers = append(approvers, strings.ToLower(strings.TrimSpace(policy.DefaultApprover)))
	}

	if len(approvers) == 0 {
		return RouteDecision{
			AutoApprove: true,
			Reason:      RouteReasonAutoApprovedEmpty,
			Approvers:   []string{},
		}
	}

	return RouteDecision{
		AutoApprove: false,
		Reason:      RouteReasonRouted,
		Approvers:   approvers,
	}
}

// dedupeEmails lowercases addresses and removes duplicates while keeping
// first-appearance order.
func dedupeEmails(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	result := make([]string, 0, len(emails))
	for _, email := range emails {
		normalized := strings.ToLower(strings.TrimSpace(email))
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		result = append(result, normalized)
	}
	return result
}
