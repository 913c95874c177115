package core

import (
	"testing"
	"time"
)

func validRule() *CorrelationRule {
	return &CorrelationRule{
		Name: "Brute force",
		Conditions: []Condition{
			{Field: "type", Operator: OpEquals, Value: "failed_login"},
		},
		CorrelationFields: []string{"user"},
		Threshold:         5,
		TimeWindow:        5 * time.Minute,
		Severity:          "high",
	}
}

func TestCorrelationRuleValidate(t *testing.T) {
	if err := validRule().Validate(); err != nil {
		t.Fatalf("valid rule rejected: %v", err)
	}
}

func TestCorrelationRuleValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CorrelationRule)
	}{
		{"empty name", func(r *CorrelationRule) { r.Name = "" }},
		{"no conditions", func(r *CorrelationRule) { r.Conditions = nil }},
		{"zero threshold", func(r *CorrelationRule) { r.Threshold = 0 }},
		{"negative threshold", func(r *CorrelationRule) { r.Threshold = -1 }},
		{"zero window", func(r *CorrelationRule) { r.TimeWindow = 0 }},
		{"condition missing field", func(r *CorrelationRule) { r.Conditions[0].Field = "" }},
		{"unknown operator", func(r *CorrelationRule) { r.Conditions[0].Operator = "almost" }},
		{"missing value", func(r *CorrelationRule) { r.Conditions[0].Value = nil }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rule := validRule()
			tc.mutate(rule)
			if err := rule.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestExistsOperatorNeedsNoValue(t *testing.T) {
	rule := validRule()
	rule.Conditions = []Condition{{Field: "session", Operator: OpExists}}
	if err := rule.Validate(); err != nil {
		t.Fatalf("exists condition without value rejected: %v", err)
	}
}

func TestOperatorValid(t *testing.T) {
	for _, op := range []Operator{OpEquals, OpContains, OpRegex, OpGt, OpLt, OpGte, OpLte, OpExists} {
		if !op.Valid() {
			t.Errorf("%s reported invalid", op)
		}
	}
	if Operator("like").Valid() {
		t.Error("unknown operator reported valid")
	}
}
