package detect

import (
	"time"

	"argus/core"
	"argus/metrics"
	"argus/notify"

	"github.com/google/uuid"
)

// EnrichmentRequest asks an external enrichment pipeline to annotate the
// events that produced a match.
type EnrichmentRequest struct {
	RuleID            string              `json:"rule_id"`
	MatchID           string              `json:"match_id"`
	Events            []*core.Event       `json:"events"`
	CorrelationValues map[string][]string `json:"correlation_values,omitempty"`
	RequestedAt       time.Time           `json:"requested_at"`
}

// BlockRequest carries the network/identity entities extracted from the
// contributing events for an external blocking system.
type BlockRequest struct {
	RuleID      string    `json:"rule_id"`
	MatchID     string    `json:"match_id"`
	IPs         []string  `json:"ips,omitempty"`
	Users       []string  `json:"users,omitempty"`
	Domains     []string  `json:"domains,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// IsolateRequest names the hosts an external EDR should isolate.
type IsolateRequest struct {
	RuleID      string    `json:"rule_id"`
	MatchID     string    `json:"match_id"`
	Hosts       []string  `json:"hosts,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// entity field candidates checked in the contributing events' data payloads
var (
	ipFields     = []string{"source_ip", "src_ip", "ip", "client_ip", "remote_addr"}
	userFields   = []string{"user", "username", "account", "user_name"}
	domainFields = []string{"domain", "dns_query", "url_domain"}
	hostFields   = []string{"host", "hostname", "computer", "dest_host"}
)

// dispatchAction publishes the typed, fire-and-forget action event for a
// match. Unknown action strings fall through to the custom topic so no
// configured response is silently swallowed.
func (e *CorrelationEngine) dispatchAction(match *core.CorrelationMatch) {
	action := match.Action
	if action == "" {
		action = core.ActionAlert
	}
	now := e.now()

	switch action {
	case core.ActionAlert:
		alert := correlationAlert(match, now)
		metrics.AlertsGenerated.WithLabelValues("correlation", alert.Severity).Inc()
		e.bus.Publish(notify.TopicAlert, alert)

	case core.ActionEnrich:
		e.bus.Publish(notify.TopicEnrichRequest, &EnrichmentRequest{
			RuleID:            match.RuleID,
			MatchID:           match.ID,
			Events:            match.Events,
			CorrelationValues: match.CorrelationValues,
			RequestedAt:       now,
		})

	case core.ActionBlock:
		e.bus.Publish(notify.TopicBlockRequest, &BlockRequest{
			RuleID:      match.RuleID,
			MatchID:     match.ID,
			IPs:         extractEntities(match.Events, ipFields),
			Users:       extractEntities(match.Events, userFields),
			Domains:     extractEntities(match.Events, domainFields),
			RequestedAt: now,
		})

	case core.ActionIsolate:
		e.bus.Publish(notify.TopicIsolateRequest, &IsolateRequest{
			RuleID:      match.RuleID,
			MatchID:     match.ID,
			Hosts:       extractEntities(match.Events, hostFields),
			RequestedAt: now,
		})

	default:
		e.bus.Publish(notify.TopicCustomAction, match)
	}

	metrics.ActionsDispatched.WithLabelValues(action).Inc()
}

// correlationAlert converts a match 1:1 into the alert shape downstream
// consumers expect. The raw contributing events ride along so enrichment can
// trace back to source data without storage lookups.
func correlationAlert(match *core.CorrelationMatch, now time.Time) *core.DetectionAlert {
	return &core.DetectionAlert{
		ID:                uuid.New().String(),
		RuleID:            match.RuleID,
		RuleName:          match.RuleName,
		Severity:          match.Severity,
		Timestamp:         now,
		Confidence:        match.Confidence,
		Events:            match.Events,
		CorrelationValues: match.CorrelationValues,
	}
}

// extractEntities collects distinct string values for any of the candidate
// fields across the contributing events, preserving first-seen order.
func extractEntities(events []*core.Event, fields []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, ev := range events {
		for _, field := range fields {
			v, ok := core.EventFieldValue(ev, field)
			if !ok {
				continue
			}
			s, ok := v.(string)
			if !ok || s == "" {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
