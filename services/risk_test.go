package services

import (
	"reflect"
	"testing"
)

func TestAssessRiskHighValueComplexLongTerm(t *testing.T) {
	fields := map[string]string{
		FieldContractValue: "300000",
		FieldTermMonths:    "36",
	}

	score, factors := AssessRisk("license", fields)

	if score != 75 {
		t.Fatalf("expected score 75, got %d", score)
	}
	if len(factors) != 3 {
		t.Fatalf("expected 3 factors, got %d", len(factors))
	}

	names := []string{factors[0].Factor, factors[1].Factor, factors[2].Factor}
	expected := []string{"High Contract Value", "Complex Contract Type", "Long Term Agreement"}
	if !reflect.DeepEqual(names, expected) {
		t.Fatalf("unexpected factors: %v", names)
	}
}

func TestAssessRiskSimpleLowValue(t *testing.T) {
	fields := map[string]string{
		FieldContractValue: "50000",
		FieldTermMonths:    "6",
	}

	score, factors := AssessRisk("service", fields)

	if score != 30 {
		t.Fatalf("expected base score 30, got %d", score)
	}
	if len(factors) != 0 {
		t.Fatalf("expected no factors, got %v", factors)
	}
}

func TestAssessRiskModerateValue(t *testing.T) {
	fields := map[string]string{
		FieldContractValue: "150000",
		FieldTermMonths:    "12",
	}

	score, factors := AssessRisk("service", fields)

	if score != 45 {
		t.Fatalf("expected score 45, got %d", score)
	}
	if len(factors) != 1 || factors[0].Factor != "Moderate Contract Value" {
		t.Fatalf("unexpected factors: %v", factors)
	}
}

func TestAssessRiskMissingFieldsDefaultToZero(t *testing.T) {
	score, factors := AssessRisk("service", map[string]string{})

	if score != 30 {
		t.Fatalf("expected base score 30, got %d", score)
	}
	if len(factors) != 0 {
		t.Fatalf("expected no factors, got %v", factors)
	}
}

func TestAssessRiskDeterministic(t *testing.T) {
	fields := map[string]string{
		FieldContractValue: "300000",
		FieldTermMonths:    "36",
	}

	firstScore, firstFactors := AssessRisk("partnership", fields)
	for i := 0; i < 50; i++ {
		score, factors := AssessRisk("partnership", fields)
		if score != firstScore {
			t.Fatalf("score changed between runs: %d vs %d", firstScore, score)
		}
		if !reflect.DeepEqual(factors, firstFactors) {
			t.Fatalf("factors changed between runs")
		}
	}
}

func TestAssessRiskBounds(t *testing.T) {
	cases := []struct {
		name     string
		category string
		fields   map[string]string
	}{
		{"empty", "", nil},
		{"maximal", "license", map[string]string{FieldContractValue: "99999999", FieldTermMonths: "120"}},
		{"garbage", "x", map[string]string{FieldContractValue: "not-a-number", FieldTermMonths: "??"}},
	}

	for _, tc := range cases {
		score, _ := AssessRisk(tc.category, tc.fields)
		if score < 30 || score > 100 {
			t.Fatalf("%s: score %d out of [30, 100]", tc.name, score)
		}
	}
}

func TestAssessRiskCategoryCaseInsensitive(t *testing.T) {
	score, _ := AssessRisk("  License ", map[string]string{})
	if score != 40 {
		t.Fatalf("expected 40 for complex category, got %d", score)
	}
}
