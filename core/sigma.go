package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule input formats accepted by SigmaRule parsing.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// LogSource scopes a SIGMA rule to events from a particular product,
// service, or category. Empty dimensions match everything.
type LogSource struct {
	Product  string `json:"product,omitempty" yaml:"product,omitempty"`
	Service  string `json:"service,omitempty" yaml:"service,omitempty"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

// Empty reports whether no logsource dimension is set.
func (ls LogSource) Empty() bool {
	return ls.Product == "" && ls.Service == "" && ls.Category == ""
}

// SigmaDetection holds the detection logic of a SIGMA rule: a selection
// block, an optional filter block, and a condition string combining them.
type SigmaDetection struct {
	Selection map[string]interface{} `json:"selection" yaml:"selection"`
	Filter    map[string]interface{} `json:"filter,omitempty" yaml:"filter,omitempty"`
	Condition string                 `json:"condition" yaml:"condition"`
}

// SigmaRule is a declarative single-event detection rule in the SIGMA style.
type SigmaRule struct {
	ID             string          `json:"id,omitempty" yaml:"id,omitempty"`
	Title          string          `json:"title" yaml:"title"`
	Description    string          `json:"description,omitempty" yaml:"description,omitempty"`
	Status         string          `json:"status,omitempty" yaml:"status,omitempty"`
	Author         string          `json:"author,omitempty" yaml:"author,omitempty"`
	LogSource      LogSource       `json:"logsource" yaml:"logsource"`
	Detection      *SigmaDetection `json:"detection" yaml:"detection"`
	Level          string          `json:"level" yaml:"level"`
	Tags           []string        `json:"tags,omitempty" yaml:"tags,omitempty"`
	References     []string        `json:"references,omitempty" yaml:"references,omitempty"`
	FalsePositives []string        `json:"falsepositives,omitempty" yaml:"falsepositives,omitempty"`
}

// Size guard against rule bombs; real SIGMA rules are a few KB.
const maxSigmaRuleSize = 1024 * 1024

// ParseSigmaRule parses SIGMA rule content in the given format ("yaml" or
// "json") and validates the fields every rule must carry. Malformed content
// fails the parse; the caller must not register the rule.
func ParseSigmaRule(content []byte, format string) (*SigmaRule, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("sigma rule content is empty")
	}
	if len(content) > maxSigmaRuleSize {
		return nil, fmt.Errorf("sigma rule exceeds maximum size of %d bytes", maxSigmaRuleSize)
	}

	var rule SigmaRule
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatYAML, "yml", "":
		if err := yaml.Unmarshal(content, &rule); err != nil {
			return nil, fmt.Errorf("failed to parse sigma YAML: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(content, &rule); err != nil {
			return nil, fmt.Errorf("failed to parse sigma JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported sigma rule format %q", format)
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return &rule, nil
}

// Validate checks the required fields of a SIGMA rule: title, logsource,
// detection (with selection and condition), and level.
func (r *SigmaRule) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("sigma rule missing required field: title")
	}
	if r.LogSource.Empty() {
		return fmt.Errorf("sigma rule %q missing required field: logsource", r.Title)
	}
	if r.Detection == nil {
		return fmt.Errorf("sigma rule %q missing required field: detection", r.Title)
	}
	if len(r.Detection.Selection) == 0 {
		return fmt.Errorf("sigma rule %q detection has no selection block", r.Title)
	}
	if strings.TrimSpace(r.Detection.Condition) == "" {
		return fmt.Errorf("sigma rule %q detection has no condition", r.Title)
	}
	if strings.TrimSpace(r.Level) == "" {
		return fmt.Errorf("sigma rule %q missing required field: level", r.Title)
	}
	return nil
}
