package detect

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"argus/core"
	"argus/metrics"
	"argus/notify"
	"argus/util"
	"argus/util/goroutine"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CorrelationEngineConfig holds the correlation engine tunables.
type CorrelationEngineConfig struct {
	// EventBufferSize caps the diagnostic event buffer; the oldest half is
	// dropped when exceeded. The buffer is not authoritative state.
	EventBufferSize int

	// BatchChunkSize is the number of events per chunk in ProcessEvents.
	BatchChunkSize int

	// BatchConcurrency bounds concurrent chunk evaluation.
	BatchConcurrency int

	// CleanupInterval is how often expired windows are evicted.
	CleanupInterval time.Duration

	// MatchHistoryLimit caps the retained match history; oldest trimmed.
	MatchHistoryLimit int
}

// DefaultCorrelationEngineConfig returns production defaults.
func DefaultCorrelationEngineConfig() CorrelationEngineConfig {
	return CorrelationEngineConfig{
		EventBufferSize:   100000,
		BatchChunkSize:    1000,
		BatchConcurrency:  10,
		CleanupInterval:   time.Minute,
		MatchHistoryLimit: 10000,
	}
}

// CorrelationWindow is the ephemeral per-rule accumulation of events sharing
// constrained correlation-field values within a time span. Windows are owned
// exclusively by the engine; snapshots handed out via GetActiveWindows are
// copies.
type CorrelationWindow struct {
	ID          string                         `json:"id"`
	RuleID      string                         `json:"rule_id"`
	StartTime   time.Time                      `json:"start_time"`
	EndTime     time.Time                      `json:"end_time"`
	Events      []*core.Event                  `json:"events"`
	FieldValues map[string]map[string]struct{} `json:"-"`
	Matched     bool                           `json:"matched"`
}

// ruleEntry pairs a rule with its live windows.
type ruleEntry struct {
	rule    *core.CorrelationRule
	windows []*CorrelationWindow
}

// CorrelationEngine maintains live correlation state per rule and decides
// when a set of related events constitutes a match.
//
// Thread-safety: all state is guarded by a single engine mutex, so window
// mutation during evaluation cannot race the periodic cleanup. ProcessEvents
// fans chunks out through a bounded worker pool; each ProcessEvent call
// still serializes on the engine mutex.
type CorrelationEngine struct {
	mu        sync.RWMutex
	rules     map[string]*ruleEntry
	ruleOrder []string // registration order; evaluation follows it
	buffer    []*core.Event
	matches   []*core.CorrelationMatch

	config CorrelationEngineConfig
	bus    *notify.Bus
	logger *zap.SugaredLogger
	pool   *core.WorkerPool

	cleanupCancel context.CancelFunc
	cleanupWg     sync.WaitGroup
	shutdownOnce  sync.Once

	// now is injectable for window-expiry tests
	now func() time.Time

	eventsProcessed int64
	evalErrors      int64
}

// NewCorrelationEngine creates and starts a correlation engine. The cleanup
// worker and batch pool run until Shutdown is called.
func NewCorrelationEngine(cfg CorrelationEngineConfig, bus *notify.Bus, logger *zap.SugaredLogger) *CorrelationEngine {
	def := DefaultCorrelationEngineConfig()
	if cfg.EventBufferSize <= 0 {
		cfg.EventBufferSize = def.EventBufferSize
	}
	if cfg.BatchChunkSize <= 0 {
		cfg.BatchChunkSize = def.BatchChunkSize
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = def.BatchConcurrency
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	if cfg.MatchHistoryLimit <= 0 {
		cfg.MatchHistoryLimit = def.MatchHistoryLimit
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &CorrelationEngine{
		rules:         make(map[string]*ruleEntry),
		config:        cfg,
		bus:           bus,
		logger:        logger,
		cleanupCancel: cancel,
		now:           func() time.Time { return time.Now().UTC() },
	}

	e.pool = core.NewWorkerPool(ctx, cfg.BatchConcurrency, cfg.BatchConcurrency*2, "correlation-batch", logger)
	e.pool.Start()

	e.cleanupWg.Add(1)
	go e.cleanupLoop(ctx)

	return e
}

// AddRule registers a rule. Evaluation order follows registration order.
func (e *CorrelationEngine) AddRule(rule *core.CorrelationRule) error {
	if rule == nil {
		return fmt.Errorf("cannot add nil correlation rule")
	}
	if err := rule.Validate(); err != nil {
		return err
	}
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	e.mu.Lock()
	if _, exists := e.rules[rule.ID]; exists {
		e.mu.Unlock()
		return fmt.Errorf("correlation rule %s already exists", rule.ID)
	}
	e.rules[rule.ID] = &ruleEntry{rule: rule}
	e.ruleOrder = append(e.ruleOrder, rule.ID)
	e.mu.Unlock()

	e.logger.Infow("Correlation rule added", "rule_id", rule.ID, "name", rule.Name)
	e.bus.Publish(notify.TopicRuleAdded, rule)
	return nil
}

// UpdateRule replaces a rule and discards all of its in-flight windows.
// Partially accumulated correlations are intentionally dropped on update; no
// window state migrates across rule versions.
func (e *CorrelationEngine) UpdateRule(rule *core.CorrelationRule) bool {
	if rule == nil || rule.ID == "" {
		return false
	}
	if err := rule.Validate(); err != nil {
		e.logger.Warnw("Rejected correlation rule update", "rule_id", rule.ID, "error", err)
		return false
	}

	e.mu.Lock()
	entry, exists := e.rules[rule.ID]
	if !exists {
		e.mu.Unlock()
		return false
	}
	dropped := len(entry.windows)
	entry.rule = rule
	entry.windows = nil
	e.mu.Unlock()

	metrics.ActiveWindows.Sub(float64(dropped))

	e.logger.Infow("Correlation rule updated, in-flight windows reset",
		"rule_id", rule.ID, "windows_dropped", dropped)
	e.bus.Publish(notify.TopicRuleUpdated, rule)
	return true
}

// RemoveRule deletes a rule and its windows. Returns false for unknown ids.
func (e *CorrelationEngine) RemoveRule(ruleID string) bool {
	e.mu.Lock()
	entry, exists := e.rules[ruleID]
	if !exists {
		e.mu.Unlock()
		return false
	}
	metrics.ActiveWindows.Sub(float64(len(entry.windows)))
	delete(e.rules, ruleID)
	for i, id := range e.ruleOrder {
		if id == ruleID {
			e.ruleOrder = append(e.ruleOrder[:i], e.ruleOrder[i+1:]...)
			break
		}
	}
	e.mu.Unlock()

	e.logger.Infow("Correlation rule removed", "rule_id", ruleID)
	e.bus.Publish(notify.TopicRuleRemoved, ruleID)
	return true
}

// GetRule returns a rule by id.
func (e *CorrelationEngine) GetRule(ruleID string) (*core.CorrelationRule, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	entry, exists := e.rules[ruleID]
	if !exists {
		return nil, false
	}
	return entry.rule, true
}

// GetAllRules returns all rules in registration order.
func (e *CorrelationEngine) GetAllRules() []*core.CorrelationRule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rules := make([]*core.CorrelationRule, 0, len(e.ruleOrder))
	for _, id := range e.ruleOrder {
		rules = append(rules, e.rules[id].rule)
	}
	return rules
}

// ProcessEvent evaluates one event against every enabled rule and returns
// any correlation matches it produced. A panic or error inside one rule's
// evaluation is isolated: it is logged and counted, and the remaining rules
// still run.
func (e *CorrelationEngine) ProcessEvent(event *core.Event) []*core.CorrelationMatch {
	if event == nil {
		return nil
	}
	start := time.Now()

	e.mu.Lock()
	e.bufferEvent(event)

	var produced []*core.CorrelationMatch
	for _, ruleID := range e.ruleOrder {
		entry := e.rules[ruleID]
		if !entry.rule.Enabled {
			continue
		}
		if match := e.evaluateRuleIsolated(entry, event); match != nil {
			produced = append(produced, match)
			e.recordMatch(match)
		}
	}
	e.mu.Unlock()

	atomic.AddInt64(&e.eventsProcessed, 1)
	metrics.EventsProcessed.WithLabelValues("correlation").Inc()
	metrics.EvaluationDuration.WithLabelValues("correlation").Observe(time.Since(start).Seconds())

	// Dispatch outside the lock; subscribers must never block evaluation.
	for _, match := range produced {
		e.bus.Publish(notify.TopicCorrelationMatch, match)
		e.dispatchAction(match)
	}
	return produced
}

// ProcessEvents evaluates a batch of events in fixed-size chunks through the
// bounded worker pool. No cross-chunk ordering of results is preserved.
func (e *CorrelationEngine) ProcessEvents(events []*core.Event) []*core.CorrelationMatch {
	if len(events) == 0 {
		return nil
	}

	var (
		resultMu sync.Mutex
		results  []*core.CorrelationMatch
		wg       sync.WaitGroup
	)

	for offset := 0; offset < len(events); offset += e.config.BatchChunkSize {
		end := offset + e.config.BatchChunkSize
		if end > len(events) {
			end = len(events)
		}
		chunk := events[offset:end]

		wg.Add(1)
		task := func() {
			defer wg.Done()
			var chunkMatches []*core.CorrelationMatch
			for _, ev := range chunk {
				chunkMatches = append(chunkMatches, e.ProcessEvent(ev)...)
			}
			if len(chunkMatches) > 0 {
				resultMu.Lock()
				results = append(results, chunkMatches...)
				resultMu.Unlock()
			}
		}
		if err := e.pool.Submit(task); err != nil {
			// Pool shut down mid-batch; run the chunk inline so callers
			// never lose events.
			task()
		}
	}

	wg.Wait()
	return results
}

// evaluateRuleIsolated runs one rule against one event, converting panics
// into logged evaluation errors. Caller holds the engine lock.
func (e *CorrelationEngine) evaluateRuleIsolated(entry *ruleEntry, event *core.Event) (match *core.CorrelationMatch) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&e.evalErrors, 1)
			metrics.EvaluationErrors.WithLabelValues("correlation", entry.rule.ID).Inc()
			e.logger.Errorw("Correlation rule evaluation panicked",
				"rule_id", entry.rule.ID,
				"event_id", event.ID,
				"panic", r)
			match = nil
		}
	}()
	return e.evaluateRule(entry, event)
}

// evaluateRule applies the rule's conditions and window logic to the event.
// Caller holds the engine lock.
func (e *CorrelationEngine) evaluateRule(entry *ruleEntry, event *core.Event) *core.CorrelationMatch {
	rule := entry.rule

	matched := false
	for _, cond := range rule.Conditions {
		if e.evaluateCondition(cond, event, rule.ID) {
			matched = true
			break
		}
	}
	if !matched {
		return nil
	}

	// Join every applicable open window; open a new one if none apply.
	joined := e.joinWindows(entry, event)
	if len(joined) == 0 {
		joined = []*CorrelationWindow{e.openWindow(rule, event)}
		entry.windows = append(entry.windows, joined[0])
	}

	// The first window (in iteration order) to reach the threshold fires,
	// exactly once.
	for _, w := range entry.windows {
		if w.Matched || len(w.Events) < rule.Threshold {
			continue
		}
		w.Matched = true
		return e.buildMatch(rule, w)
	}
	return nil
}

// joinWindows adds the event to every in-bounds window whose field
// constraints accept it and returns the windows joined.
func (e *CorrelationEngine) joinWindows(entry *ruleEntry, event *core.Event) []*CorrelationWindow {
	rule := entry.rule
	var joined []*CorrelationWindow
	for _, w := range entry.windows {
		if w.Matched {
			// Retained until cleanup, but never reused after firing.
			continue
		}
		if event.Timestamp.Before(w.StartTime) || event.Timestamp.After(w.EndTime) {
			continue
		}
		if !windowAccepts(w, rule.CorrelationFields, event) {
			continue
		}

		w.Events = append(w.Events, event)
		for _, field := range rule.CorrelationFields {
			if v, ok := core.EventFieldValue(event, field); ok {
				w.FieldValues[field][stringify(v)] = struct{}{}
			}
		}
		// The window never grows past its configured duration relative to
		// its first event.
		if bound := event.Timestamp.Add(rule.TimeWindow); bound.Before(w.EndTime) {
			w.EndTime = bound
		}
		joined = append(joined, w)
	}
	return joined
}

// windowAccepts reports whether the event's correlation-field values are
// compatible with the window: a field with no recorded value yet is a
// wildcard, an established set must already contain the event's value.
func windowAccepts(w *CorrelationWindow, fields []string, event *core.Event) bool {
	for _, field := range fields {
		set := w.FieldValues[field]
		if len(set) == 0 {
			continue
		}
		v, ok := core.EventFieldValue(event, field)
		if !ok {
			return false
		}
		if _, present := set[stringify(v)]; !present {
			return false
		}
	}
	return true
}

// openWindow creates a window seeded with the event's field values.
func (e *CorrelationEngine) openWindow(rule *core.CorrelationRule, event *core.Event) *CorrelationWindow {
	w := &CorrelationWindow{
		ID:          uuid.New().String(),
		RuleID:      rule.ID,
		StartTime:   event.Timestamp,
		EndTime:     event.Timestamp.Add(rule.TimeWindow),
		Events:      []*core.Event{event},
		FieldValues: make(map[string]map[string]struct{}, len(rule.CorrelationFields)),
	}
	for _, field := range rule.CorrelationFields {
		w.FieldValues[field] = make(map[string]struct{})
		if v, ok := core.EventFieldValue(event, field); ok {
			w.FieldValues[field][stringify(v)] = struct{}{}
		}
	}
	metrics.ActiveWindows.Inc()
	return w
}

// buildMatch assembles the immutable match value for a fired window.
func (e *CorrelationEngine) buildMatch(rule *core.CorrelationRule, w *CorrelationWindow) *core.CorrelationMatch {
	values := make(map[string][]string, len(w.FieldValues))
	for field, set := range w.FieldValues {
		vals := make([]string, 0, len(set))
		for v := range set {
			vals = append(vals, v)
		}
		values[field] = vals
	}

	events := make([]*core.Event, len(w.Events))
	copy(events, w.Events)

	return &core.CorrelationMatch{
		ID:                uuid.New().String(),
		RuleID:            rule.ID,
		RuleName:          rule.Name,
		WindowID:          w.ID,
		Events:            events,
		Severity:          rule.Severity,
		Action:            rule.Action,
		Confidence:        scoreConfidence(rule, w),
		CorrelationValues: values,
		MatchedAt:         e.now(),
	}
}

// scoreConfidence is the deterministic 0-100 heuristic over window state:
// base 70, volume bonuses past 2x and 5x the threshold, up to 10 for
// correlation-field convergence, 5 for tight temporal clustering.
func scoreConfidence(rule *core.CorrelationRule, w *CorrelationWindow) int {
	score := 70

	count := len(w.Events)
	if count > 2*rule.Threshold {
		score += 10
	}
	if count > 5*rule.Threshold {
		score += 10
	}

	if n := len(rule.CorrelationFields); n > 0 {
		converged := 0
		for _, field := range rule.CorrelationFields {
			if len(w.FieldValues[field]) == 1 {
				converged++
			}
		}
		score += converged * 10 / n
	}

	if count > 1 && rule.TimeWindow > 0 {
		span := w.Events[count-1].Timestamp.Sub(w.Events[0].Timestamp)
		if span < rule.TimeWindow/10 {
			score += 5
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// evaluateCondition applies one operator to one event field. Missing fields
// never match (and never panic); a bad regex counts as an evaluation error
// for the rule and matches nothing.
func (e *CorrelationEngine) evaluateCondition(cond core.Condition, event *core.Event, ruleID string) bool {
	value, ok := core.EventFieldValue(event, cond.Field)
	if cond.Operator == core.OpExists {
		return ok
	}
	if !ok {
		return false
	}

	switch cond.Operator {
	case core.OpEquals:
		return valuesEqual(value, cond.Value)
	case core.OpContains:
		s, okS := value.(string)
		sub, okSub := cond.Value.(string)
		return okS && okSub && strings.Contains(s, sub)
	case core.OpRegex:
		s, okS := value.(string)
		expr, okE := cond.Value.(string)
		if !okS || !okE {
			return false
		}
		pattern, err := util.CompileRegex(expr)
		if err != nil {
			atomic.AddInt64(&e.evalErrors, 1)
			metrics.EvaluationErrors.WithLabelValues("correlation", ruleID).Inc()
			e.logger.Warnw("Invalid regex in correlation condition",
				"rule_id", ruleID, "pattern", expr, "error", err)
			return false
		}
		match, err := pattern.Match(s)
		if err != nil {
			atomic.AddInt64(&e.evalErrors, 1)
			metrics.EvaluationErrors.WithLabelValues("correlation", ruleID).Inc()
			e.logger.Warnw("Regex evaluation failed",
				"rule_id", ruleID, "pattern", expr, "error", err)
			return false
		}
		return match
	case core.OpGt:
		return compareNumbers(value, cond.Value, func(a, b float64) bool { return a > b })
	case core.OpLt:
		return compareNumbers(value, cond.Value, func(a, b float64) bool { return a < b })
	case core.OpGte:
		return compareNumbers(value, cond.Value, func(a, b float64) bool { return a >= b })
	case core.OpLte:
		return compareNumbers(value, cond.Value, func(a, b float64) bool { return a <= b })
	}
	return false
}

// bufferEvent appends to the diagnostic buffer, dropping the oldest half at
// capacity. Caller holds the engine lock.
func (e *CorrelationEngine) bufferEvent(event *core.Event) {
	e.buffer = append(e.buffer, event)
	if len(e.buffer) > e.config.EventBufferSize {
		half := len(e.buffer) / 2
		e.buffer = append(e.buffer[:0], e.buffer[half:]...)
	}
}

// recordMatch appends to the capped match history. Caller holds the lock.
func (e *CorrelationEngine) recordMatch(match *core.CorrelationMatch) {
	e.matches = append(e.matches, match)
	if len(e.matches) > e.config.MatchHistoryLimit {
		overflow := len(e.matches) - e.config.MatchHistoryLimit
		e.matches = append(e.matches[:0], e.matches[overflow:]...)
	}
}

// GetActiveWindows returns snapshot copies of live windows, optionally
// filtered by rule id ("" for all rules).
func (e *CorrelationEngine) GetActiveWindows(ruleID string) []*CorrelationWindow {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []*CorrelationWindow
	appendWindows := func(entry *ruleEntry) {
		for _, w := range entry.windows {
			out = append(out, snapshotWindow(w))
		}
	}

	if ruleID != "" {
		if entry, exists := e.rules[ruleID]; exists {
			appendWindows(entry)
		}
		return out
	}
	for _, id := range e.ruleOrder {
		appendWindows(e.rules[id])
	}
	return out
}

func snapshotWindow(w *CorrelationWindow) *CorrelationWindow {
	events := make([]*core.Event, len(w.Events))
	copy(events, w.Events)
	values := make(map[string]map[string]struct{}, len(w.FieldValues))
	for field, set := range w.FieldValues {
		cp := make(map[string]struct{}, len(set))
		for v := range set {
			cp[v] = struct{}{}
		}
		values[field] = cp
	}
	return &CorrelationWindow{
		ID:          w.ID,
		RuleID:      w.RuleID,
		StartTime:   w.StartTime,
		EndTime:     w.EndTime,
		Events:      events,
		FieldValues: values,
		Matched:     w.Matched,
	}
}

// GetRecentMatches returns up to limit matches, newest last.
func (e *CorrelationEngine) GetRecentMatches(limit int) []*core.CorrelationMatch {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if limit <= 0 || limit > len(e.matches) {
		limit = len(e.matches)
	}
	out := make([]*core.CorrelationMatch, limit)
	copy(out, e.matches[len(e.matches)-limit:])
	return out
}

// GetMatchesByRule returns up to limit matches for one rule, newest last.
func (e *CorrelationEngine) GetMatchesByRule(ruleID string, limit int) []*core.CorrelationMatch {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []*core.CorrelationMatch
	for _, m := range e.matches {
		if m.RuleID == ruleID {
			out = append(out, m)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// CorrelationStatistics is a read-only snapshot of engine state.
type CorrelationStatistics struct {
	TotalRules       int   `json:"total_rules"`
	EnabledRules     int   `json:"enabled_rules"`
	ActiveWindows    int   `json:"active_windows"`
	TotalMatches     int   `json:"total_matches"`
	BufferedEvents   int   `json:"buffered_events"`
	EventsProcessed  int64 `json:"events_processed"`
	EvaluationErrors int64 `json:"evaluation_errors"`
}

// GetStatistics returns a snapshot of engine statistics.
func (e *CorrelationEngine) GetStatistics() CorrelationStatistics {
	e.mu.RLock()
	stats := CorrelationStatistics{
		TotalRules:     len(e.rules),
		TotalMatches:   len(e.matches),
		BufferedEvents: len(e.buffer),
	}
	for _, entry := range e.rules {
		if entry.rule.Enabled {
			stats.EnabledRules++
		}
		stats.ActiveWindows += len(entry.windows)
	}
	e.mu.RUnlock()

	stats.EventsProcessed = atomic.LoadInt64(&e.eventsProcessed)
	stats.EvaluationErrors = atomic.LoadInt64(&e.evalErrors)
	return stats
}

// Shutdown stops the cleanup worker and the batch pool. Idempotent; tasks
// already executing run to completion and queued ones are drained by the
// pool before Stop returns, so an in-flight ProcessEvents batch always
// completes.
func (e *CorrelationEngine) Shutdown() {
	e.shutdownOnce.Do(func() {
		e.cleanupCancel()
		e.cleanupWg.Wait()
		e.pool.Stop()
		e.logger.Info("Correlation engine stopped")
	})
}

// cleanupLoop periodically evicts expired windows. It is the only code path
// permitted to delete windows.
func (e *CorrelationEngine) cleanupLoop(ctx context.Context) {
	defer e.cleanupWg.Done()
	defer goroutine.Recover("correlation-cleanup", e.logger)

	ticker := time.NewTicker(e.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.evictExpiredWindows()
		}
	}
}

// evictExpiredWindows removes every window whose end time has passed,
// matched or not.
func (e *CorrelationEngine) evictExpiredWindows() {
	now := e.now()

	e.mu.Lock()
	evicted := 0
	for _, entry := range e.rules {
		kept := entry.windows[:0]
		for _, w := range entry.windows {
			if w.EndTime.Before(now) {
				evicted++
				continue
			}
			kept = append(kept, w)
		}
		entry.windows = kept
	}
	e.mu.Unlock()

	if evicted > 0 {
		metrics.ActiveWindows.Sub(float64(evicted))
		metrics.WindowsEvicted.Add(float64(evicted))
		e.logger.Debugw("Evicted expired correlation windows", "count", evicted)
	}
}

// stringify normalizes a correlation-field value for set membership.
func stringify(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// valuesEqual compares loosely enough to survive JSON decoding: numerics
// compare as float64, everything else via DeepEqual.
func valuesEqual(a, b interface{}) bool {
	if fa, okA := toFloat(a); okA {
		if fb, okB := toFloat(b); okB {
			return fa == fb
		}
	}
	return reflect.DeepEqual(a, b)
}

// compareNumbers compares two values as numbers, parsing strings when
// necessary. Non-numeric operands never match.
func compareNumbers(a, b interface{}, cmp func(float64, float64) bool) bool {
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if !okA || !okB {
		return false
	}
	return cmp(fa, fb)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		if parsed, err := strconv.ParseFloat(n, 64); err == nil {
			return parsed, true
		}
	}
	return 0, false
}
