package core

import "time"

// CorrelationMatch is produced exactly once per correlation window, at the
// moment its threshold is crossed. It is an immutable value describing the
// firing rule, the contributing events, and the aggregated correlation-field
// value sets observed in the window.
type CorrelationMatch struct {
	ID                string              `json:"id"`
	RuleID            string              `json:"rule_id"`
	RuleName          string              `json:"rule_name"`
	WindowID          string              `json:"window_id"`
	Events            []*Event            `json:"events"`
	Severity          string              `json:"severity"`
	Action            string              `json:"action"`
	Confidence        int                 `json:"confidence"`
	CorrelationValues map[string][]string `json:"correlation_values,omitempty"`
	MatchedAt         time.Time           `json:"matched_at"`
}

// RuleMatch is the transient result of a SIGMA rule matching a single event.
// It is converted 1:1 into a DetectionAlert and never persisted beyond the
// verdict cache.
type RuleMatch struct {
	Rule              *SigmaRule `json:"rule"`
	Event             *LogEvent  `json:"event"`
	MatchedConditions []string   `json:"matched_conditions"`
	Confidence        int        `json:"confidence"`
}

// DetectionAlert is the alert shape both engines publish. It always carries
// the rule id and the raw contributing event data so downstream enrichment
// can trace back to source without re-querying storage.
type DetectionAlert struct {
	ID                string                 `json:"id"`
	RuleID            string                 `json:"rule_id"`
	RuleName          string                 `json:"rule_name"`
	Severity          string                 `json:"severity"`
	Timestamp         time.Time              `json:"timestamp"`
	Source            string                 `json:"source,omitempty"`
	Destination       string                 `json:"destination,omitempty"`
	Confidence        int                    `json:"confidence"`
	MatchedConditions []string               `json:"matched_conditions,omitempty"`
	MitreTechniques   []string               `json:"mitre_techniques,omitempty"`
	MitreTactics      []string               `json:"mitre_tactics,omitempty"`
	EventData         map[string]interface{} `json:"event_data,omitempty"`
	Events            []*Event               `json:"events,omitempty"`
	CorrelationValues map[string][]string    `json:"correlation_values,omitempty"`
}
