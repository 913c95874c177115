package detect

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"argus/core"
	"argus/metrics"
	"argus/notify"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SigmaEngineConfig holds the sigma engine tunables.
type SigmaEngineConfig struct {
	// VerdictCacheSize caps the per-event verdict cache (LRU).
	VerdictCacheSize int
}

// DefaultSigmaEngineConfig returns production defaults.
func DefaultSigmaEngineConfig() SigmaEngineConfig {
	return SigmaEngineConfig{VerdictCacheSize: defaultVerdictCacheSize}
}

// SigmaEngine evaluates single events against a corpus of declarative
// SIGMA-style rules, independent of correlation or time.
//
// Rules are compiled once at load and replaced atomically on re-load.
// Evaluation is stateless apart from the verdict cache; all public methods
// are safe for concurrent use.
type SigmaEngine struct {
	mu       sync.RWMutex
	rules    map[string]*core.SigmaRule
	compiled map[string]*CompiledRule
	order    []string // load order; evaluation follows it

	cache  *verdictCache
	bus    *notify.Bus
	logger *zap.SugaredLogger

	evaluations int64
	ruleEvals   int64 // individual rule evaluations; cache hits skip these
	matches     int64
	evalErrors  int64
}

// NewSigmaEngine creates a sigma engine.
func NewSigmaEngine(cfg SigmaEngineConfig, bus *notify.Bus, logger *zap.SugaredLogger) (*SigmaEngine, error) {
	cache, err := newVerdictCache(cfg.VerdictCacheSize)
	if err != nil {
		return nil, err
	}
	return &SigmaEngine{
		rules:    make(map[string]*core.SigmaRule),
		compiled: make(map[string]*CompiledRule),
		cache:    cache,
		bus:      bus,
		logger:   logger,
	}, nil
}

// LoadRule parses, validates, and compiles rule content ("yaml" or "json").
// A rule id is generated when absent. Re-loading an existing id replaces
// both the raw and compiled forms atomically; malformed content fails the
// load and registers nothing.
func (e *SigmaEngine) LoadRule(content []byte, format string) (*core.SigmaRule, error) {
	rule, err := core.ParseSigmaRule(content, format)
	if err != nil {
		return nil, err
	}
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	compiled, err := compileSigmaRule(rule)
	if err != nil {
		return nil, fmt.Errorf("failed to compile sigma rule %s: %w", rule.ID, err)
	}

	e.mu.Lock()
	_, replaced := e.rules[rule.ID]
	e.rules[rule.ID] = rule
	e.compiled[rule.ID] = compiled
	if !replaced {
		e.order = append(e.order, rule.ID)
	}
	e.mu.Unlock()

	// Any cached verdict may involve the old rule version.
	e.cache.purge()

	topic := notify.TopicRuleAdded
	if replaced {
		topic = notify.TopicRuleUpdated
	}
	e.bus.Publish(topic, rule)
	e.logger.Infow("Sigma rule loaded",
		"rule_id", rule.ID, "title", rule.Title, "level", rule.Level, "replaced", replaced)
	return rule, nil
}

// RemoveRule deletes a rule. Returns false for unknown ids.
func (e *SigmaEngine) RemoveRule(ruleID string) bool {
	e.mu.Lock()
	_, exists := e.rules[ruleID]
	if !exists {
		e.mu.Unlock()
		return false
	}
	delete(e.rules, ruleID)
	delete(e.compiled, ruleID)
	for i, id := range e.order {
		if id == ruleID {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
	e.mu.Unlock()

	e.cache.purge()
	e.bus.Publish(notify.TopicRuleRemoved, ruleID)
	return true
}

// GetRule returns the raw rule by id.
func (e *SigmaEngine) GetRule(ruleID string) (*core.SigmaRule, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rule, exists := e.rules[ruleID]
	return rule, exists
}

// GetAllRules returns all raw rules in load order.
func (e *SigmaEngine) GetAllRules() []*core.SigmaRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rules := make([]*core.SigmaRule, 0, len(e.order))
	for _, id := range e.order {
		rules = append(rules, e.rules[id])
	}
	return rules
}

// EvaluateEvent evaluates one event against every loaded rule and returns
// the alerts produced. Verdicts are cached by the event's significant
// fields; a cache hit returns the prior alert set without re-running any
// rule. Per-rule evaluation errors are logged, counted, and treated as
// "no match" without disturbing the remaining rules.
func (e *SigmaEngine) EvaluateEvent(event *core.LogEvent) []*core.DetectionAlert {
	if event == nil {
		return nil
	}
	start := time.Now()
	atomic.AddInt64(&e.evaluations, 1)
	metrics.EventsProcessed.WithLabelValues("sigma").Inc()

	key := e.cache.key(event)
	if alerts, ok := e.cache.get(key); ok {
		return alerts
	}

	e.mu.RLock()
	order := make([]string, len(e.order))
	copy(order, e.order)
	compiled := make([]*CompiledRule, 0, len(order))
	for _, id := range order {
		compiled = append(compiled, e.compiled[id])
	}
	e.mu.RUnlock()

	// Non-nil so a cached "no alerts" verdict is distinguishable from a miss.
	alerts := make([]*core.DetectionAlert, 0)
	for _, cr := range compiled {
		alert := e.evaluateRuleIsolated(cr, event)
		if alert != nil {
			alerts = append(alerts, alert)
		}
	}

	e.cache.add(key, alerts)

	metrics.EvaluationDuration.WithLabelValues("sigma").Observe(time.Since(start).Seconds())
	for _, alert := range alerts {
		atomic.AddInt64(&e.matches, 1)
		metrics.AlertsGenerated.WithLabelValues("sigma", alert.Severity).Inc()
		e.bus.Publish(notify.TopicAlert, alert)
	}
	return alerts
}

// evaluateRuleIsolated evaluates one compiled rule, converting panics and
// matcher errors into logged evaluation errors.
func (e *SigmaEngine) evaluateRuleIsolated(cr *CompiledRule, event *core.LogEvent) (alert *core.DetectionAlert) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&e.evalErrors, 1)
			metrics.EvaluationErrors.WithLabelValues("sigma", cr.Rule.ID).Inc()
			e.logger.Errorw("Sigma rule evaluation panicked",
				"rule_id", cr.Rule.ID, "event_id", event.ID, "panic", r)
			alert = nil
		}
	}()

	atomic.AddInt64(&e.ruleEvals, 1)

	if !logsourceMatches(cr.Rule.LogSource, event) {
		return nil
	}

	verdicts := make(map[string]bool, len(cr.Matchers))
	var matchedBlocks []string
	for _, bm := range cr.Matchers {
		ok, err := matchBlock(bm, event)
		if err != nil {
			atomic.AddInt64(&e.evalErrors, 1)
			metrics.EvaluationErrors.WithLabelValues("sigma", cr.Rule.ID).Inc()
			e.logger.Warnw("Sigma matcher evaluation failed",
				"rule_id", cr.Rule.ID, "block", bm.name, "error", err)
			return nil
		}
		verdicts[bm.name] = ok
		if ok && !bm.exclude {
			matchedBlocks = append(matchedBlocks, bm.name)
		}
	}

	if !evaluateCondition(cr.Condition, cr.Matchers, verdicts) {
		return nil
	}

	match := &core.RuleMatch{
		Rule:              cr.Rule,
		Event:             event,
		MatchedConditions: matchedBlocks,
		Confidence:        sigmaConfidence(cr.Rule),
	}
	return e.matchToAlert(match)
}

// logsourceMatches checks product/service/category applicability. A rule
// dimension that the event cannot satisfy (absent or different) skips the
// rule before any detection logic runs.
func logsourceMatches(ls core.LogSource, event *core.LogEvent) bool {
	if ls.Product != "" && !strings.EqualFold(ls.Product, eventLogsourceValue(event, "Product")) {
		return false
	}
	if ls.Service != "" && !strings.EqualFold(ls.Service, eventLogsourceValue(event, "Service")) {
		return false
	}
	if ls.Category != "" && !strings.EqualFold(ls.Category, eventLogsourceValue(event, "Category")) {
		return false
	}
	return true
}

// eventLogsourceValue extracts a logsource dimension from the event data,
// falling back to the envelope fields parsers commonly fill.
func eventLogsourceValue(event *core.LogEvent, dimension string) string {
	for _, key := range []string{dimension, strings.ToLower(dimension)} {
		if v, ok := event.Data[key]; ok {
			if s, isString := v.(string); isString {
				return s
			}
		}
	}
	switch dimension {
	case "Product":
		return event.Provider
	case "Service":
		return event.Channel
	}
	return ""
}

// sigmaConfidence is the deterministic score for a sigma match: base 75,
// adjusted by rule maturity and declared false-positive notes, clamped to
// [0,100].
func sigmaConfidence(rule *core.SigmaRule) int {
	score := 75
	switch strings.ToLower(rule.Status) {
	case "stable":
		score += 20
	case "test":
		score += 10
	case "experimental":
		score -= 10
	}
	score -= 5 * len(rule.FalsePositives)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// source/destination field candidates in sigma event payloads
var (
	sigmaSourceFields = []string{"SourceIp", "source_ip", "src_ip", "IpAddress", "User"}
	sigmaDestFields   = []string{"DestinationIp", "dest_ip", "destination_ip", "TargetHost"}
)

// matchToAlert converts a RuleMatch 1:1 into the published alert shape,
// carrying the raw event data and the MITRE mapping derived from tags.
func (e *SigmaEngine) matchToAlert(match *core.RuleMatch) *core.DetectionAlert {
	techniques, tactics := mitreFromTags(match.Rule.Tags)
	return &core.DetectionAlert{
		ID:                uuid.New().String(),
		RuleID:            match.Rule.ID,
		RuleName:          match.Rule.Title,
		Severity:          match.Rule.Level,
		Timestamp:         match.Event.Timestamp,
		Source:            firstStringField(match.Event, sigmaSourceFields),
		Destination:       firstStringField(match.Event, sigmaDestFields),
		Confidence:        match.Confidence,
		MatchedConditions: match.MatchedConditions,
		MitreTechniques:   techniques,
		MitreTactics:      tactics,
		EventData:         match.Event.Data,
	}
}

func firstStringField(event *core.LogEvent, fields []string) string {
	for _, field := range fields {
		if v, ok := event.Data[field]; ok {
			if s, isString := v.(string); isString && s != "" {
				return s
			}
		}
	}
	return ""
}

// SigmaStatistics is a read-only snapshot of engine state. The cache hit
// rate is tracked, not estimated.
type SigmaStatistics struct {
	TotalRules       int            `json:"total_rules"`
	RulesByLevel     map[string]int `json:"rules_by_level"`
	RulesByStatus    map[string]int `json:"rules_by_status"`
	Evaluations      int64          `json:"evaluations"`
	RuleEvaluations  int64          `json:"rule_evaluations"`
	Matches          int64          `json:"matches"`
	EvaluationErrors int64          `json:"evaluation_errors"`
	CacheSize        int            `json:"cache_size"`
	CacheHitRate     float64        `json:"cache_hit_rate"`
}

// GetStatistics returns a snapshot of engine statistics.
func (e *SigmaEngine) GetStatistics() SigmaStatistics {
	e.mu.RLock()
	stats := SigmaStatistics{
		TotalRules:    len(e.rules),
		RulesByLevel:  make(map[string]int),
		RulesByStatus: make(map[string]int),
	}
	for _, rule := range e.rules {
		stats.RulesByLevel[strings.ToLower(rule.Level)]++
		if rule.Status != "" {
			stats.RulesByStatus[strings.ToLower(rule.Status)]++
		}
	}
	e.mu.RUnlock()

	stats.Evaluations = atomic.LoadInt64(&e.evaluations)
	stats.RuleEvaluations = atomic.LoadInt64(&e.ruleEvals)
	stats.Matches = atomic.LoadInt64(&e.matches)
	stats.EvaluationErrors = atomic.LoadInt64(&e.evalErrors)
	stats.CacheSize = e.cache.len()
	stats.CacheHitRate = e.cache.hitRate()
	return stats
}
