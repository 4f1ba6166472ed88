package services

import (
	"strconv"
	"strings"

	"contract-review-api/models"
)

// Field keys expected in a contract's field-value map. Missing or
// unparseable values default to zero.
const (
	FieldContractValue = "contract_value"
	FieldTermMonths    = "term_months"
)

const (
	baseRiskScore = 30
	maxRiskScore  = 100

	highValueThreshold     = 250000
	moderateValueThreshold = 100000
	longTermMonths         = 24
)

// Contract categories that carry elevated structural risk.
var complexCategories = map[string]bool{
	"license":       true,
	"partnership":   true,
	"acquisition":   true,
	"joint_venture": true,
	"ip_transfer":   true,
}

// AssessRisk scores a contract from its category and field values. The
// scoring is additive and order-independent: identical inputs always produce
// the identical score and factor list. The returned score is in [30, 100].
func AssessRisk(category string, fields map[string]string) (int, []models.RiskFactor) {
	score := baseRiskScore
	factors := make([]models.RiskFactor, 0, 3)

	value := ContractValue(fields)
	switch {
	case value > highValueThreshold:
		factors = append(factors, models.RiskFactor{
			Factor:      "High Contract Value",
			Impact:      25,
			Description: "Contract value exceeds 250,000",
		})
	case value > moderateValueThreshold:
		factors = append(factors, models.RiskFactor{
			Factor:      "Moderate Contract Value",
			Impact:      15,
			Description: "Contract value exceeds 100,000",
		})
	}

	if complexCategories[strings.ToLower(strings.TrimSpace(category))] {
		factors = append(factors, models.RiskFactor{
			Factor:      "Complex Contract Type",
			Impact:      10,
			Description: "Category requires specialist review",
		})
	}

	if TermMonths(fields) > longTermMonths {
		factors = append(factors, models.RiskFactor{
			Factor:      "Long Term Agreement",
			Impact:      10,
			Description: "Term length exceeds 24 months",
		})
	}

	for _, factor := range factors {
		score += factor.Impact
	}
	if score > maxRiskScore {
		score = maxRiskScore
	}
	return score, factors
}

// ContractValue parses the monetary value from a field-value map.
func ContractValue(fields map[string]string) float64 {
	value, _ := strconv.ParseFloat(strings.TrimSpace(fields[FieldContractValue]), 64)
	return value
}

// TermMonths parses the term length from a field-value map.
func TermMonths(fields map[string]string) int {
	months, _ := strconv.Atoi(strings.TrimSpace(fields[FieldTermMonths]))
	return months
}
