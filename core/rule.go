package core

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Operator is a condition comparison operator. Operators form a closed set;
// anything outside it fails rule validation rather than silently matching
// nothing.
type Operator string

const (
	OpEquals   Operator = "equals"
	OpContains Operator = "contains"
	OpRegex    Operator = "regex"
	OpGt       Operator = "gt"
	OpLt       Operator = "lt"
	OpGte      Operator = "gte"
	OpLte      Operator = "lte"
	OpExists   Operator = "exists"
)

// Valid reports whether op is a known operator.
func (op Operator) Valid() bool {
	switch op {
	case OpEquals, OpContains, OpRegex, OpGt, OpLt, OpGte, OpLte, OpExists:
		return true
	}
	return false
}

// Condition is a single field comparison inside a correlation rule.
// Conditions on a rule are OR'd together.
type Condition struct {
	Field    string      `json:"field" yaml:"field" validate:"required"`
	Operator Operator    `json:"operator" yaml:"operator" validate:"required"`
	Value    interface{} `json:"value,omitempty" yaml:"value,omitempty"`
}

// Action types dispatched when a correlation rule fires.
const (
	ActionAlert   = "alert"
	ActionEnrich  = "enrich"
	ActionBlock   = "block"
	ActionIsolate = "isolate"
	ActionCustom  = "custom"
)

// CorrelationRule describes a multi-event detection: events matching any of
// the rule's conditions are grouped into time windows keyed by the
// correlation fields, and the rule fires when a window accumulates Threshold
// events.
type CorrelationRule struct {
	ID                string        `json:"id" yaml:"id"`
	Name              string        `json:"name" yaml:"name" validate:"required"`
	Description       string        `json:"description,omitempty" yaml:"description,omitempty"`
	Enabled           bool          `json:"enabled" yaml:"enabled"`
	Conditions        []Condition   `json:"conditions" yaml:"conditions" validate:"required,min=1,dive"`
	CorrelationFields []string      `json:"correlation_fields" yaml:"correlation_fields"`
	Threshold         int           `json:"threshold" yaml:"threshold" validate:"required,min=1"`
	TimeWindow        time.Duration `json:"time_window" yaml:"time_window" validate:"required,min=1"`
	Severity          string        `json:"severity" yaml:"severity"`
	Action            string        `json:"action" yaml:"action"`
	CreatedAt         time.Time     `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt         time.Time     `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

var ruleValidator = validator.New()

// Validate checks structural validity of the rule. Operator values are
// checked here rather than via validator tags so the error names the
// offending condition.
func (r *CorrelationRule) Validate() error {
	if err := ruleValidator.Struct(r); err != nil {
		return fmt.Errorf("invalid correlation rule: %w", err)
	}
	for i, cond := range r.Conditions {
		if !cond.Operator.Valid() {
			return fmt.Errorf("invalid correlation rule: condition %d has unknown operator %q", i, cond.Operator)
		}
		if cond.Operator != OpExists && cond.Value == nil {
			return fmt.Errorf("invalid correlation rule: condition %d (%s) requires a value", i, cond.Operator)
		}
	}
	return nil
}
