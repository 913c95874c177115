package detect

import (
	"strings"
	"sync/atomic"
	"testing"

	"argus/core"
	"argus/notify"

	"go.uber.org/zap"
)

func newTestSigmaEngine(t *testing.T) *SigmaEngine {
	t.Helper()
	logger := zap.NewNop().Sugar()
	engine, err := NewSigmaEngine(SigmaEngineConfig{VerdictCacheSize: 128}, notify.NewBus(logger), logger)
	if err != nil {
		t.Fatalf("NewSigmaEngine failed: %v", err)
	}
	return engine
}

func mustLoadRule(t *testing.T, engine *SigmaEngine, content string) *core.SigmaRule {
	t.Helper()
	rule, err := engine.LoadRule([]byte(content), core.FormatYAML)
	if err != nil {
		t.Fatalf("LoadRule failed: %v", err)
	}
	return rule
}

const failedLogonRuleYAML = `
title: Multiple failed logons
id: rule-failed-logon
status: stable
logsource:
  product: windows
  service: security
detection:
  selection:
    EventID: 4625
  condition: selection
level: high
tags:
  - attack.t1110
  - attack.credential_access
`

func windowsLogonEvent() *core.LogEvent {
	ev := core.NewLogEvent()
	ev.Provider = "windows"
	ev.Channel = "security"
	ev.EventID = 4625
	ev.Computer = "WS01"
	ev.Data["User"] = "alice"
	return ev
}

func TestLoadRuleValidation(t *testing.T) {
	engine := newTestSigmaEngine(t)

	cases := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"missing title", "logsource:\n  product: windows\ndetection:\n  selection:\n    EventID: 1\n  condition: selection\nlevel: low\n"},
		{"missing logsource", "title: t\ndetection:\n  selection:\n    EventID: 1\n  condition: selection\nlevel: low\n"},
		{"missing condition", "title: t\nlogsource:\n  product: windows\ndetection:\n  selection:\n    EventID: 1\nlevel: low\n"},
		{"missing level", "title: t\nlogsource:\n  product: windows\ndetection:\n  selection:\n    EventID: 1\n  condition: selection\n"},
		{"not yaml", "{{{{"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := engine.LoadRule([]byte(tc.content), core.FormatYAML); err == nil {
				t.Error("expected load error")
			}
		})
	}
	if got := len(engine.GetAllRules()); got != 0 {
		t.Fatalf("failed loads registered %d rules", got)
	}
}

func TestLoadRuleAssignsID(t *testing.T) {
	engine := newTestSigmaEngine(t)
	rule := mustLoadRule(t, engine, strings.Replace(failedLogonRuleYAML, "id: rule-failed-logon\n", "", 1))
	if rule.ID == "" {
		t.Fatal("loaded rule has empty id")
	}
}

func TestLoadRuleReplacesExisting(t *testing.T) {
	engine := newTestSigmaEngine(t)
	mustLoadRule(t, engine, failedLogonRuleYAML)
	updated := strings.Replace(failedLogonRuleYAML, "level: high", "level: critical", 1)
	rule := mustLoadRule(t, engine, updated)

	if got := len(engine.GetAllRules()); got != 1 {
		t.Fatalf("expected 1 rule after re-load, got %d", got)
	}
	stored, ok := engine.GetRule(rule.ID)
	if !ok || stored.Level != "critical" {
		t.Fatalf("re-load did not replace rule, level = %q", stored.Level)
	}
}

func TestEvaluateEventMatch(t *testing.T) {
	engine := newTestSigmaEngine(t)
	mustLoadRule(t, engine, failedLogonRuleYAML)

	alerts := engine.EvaluateEvent(windowsLogonEvent())
	if len(alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerts))
	}
	alert := alerts[0]
	if alert.Severity != "high" {
		t.Errorf("severity = %s, want high", alert.Severity)
	}
	if alert.RuleID != "rule-failed-logon" {
		t.Errorf("rule id = %s", alert.RuleID)
	}
	// stable status: base 75 plus 20
	if alert.Confidence != 95 {
		t.Errorf("confidence = %d, want 95", alert.Confidence)
	}
	if len(alert.MitreTechniques) != 1 || !strings.HasPrefix(alert.MitreTechniques[0], "T1110") {
		t.Errorf("mitre techniques = %v", alert.MitreTechniques)
	}
	if len(alert.MitreTactics) != 1 || alert.MitreTactics[0] != "Credential Access" {
		t.Errorf("mitre tactics = %v", alert.MitreTactics)
	}
}

func TestLogsourceShortCircuit(t *testing.T) {
	engine := newTestSigmaEngine(t)
	mustLoadRule(t, engine, failedLogonRuleYAML)

	ev := windowsLogonEvent()
	ev.Provider = "linux"
	if alerts := engine.EvaluateEvent(ev); len(alerts) != 0 {
		t.Fatalf("wrong product produced %d alerts", len(alerts))
	}

	ev = windowsLogonEvent()
	ev.Channel = "application"
	if alerts := engine.EvaluateEvent(ev); len(alerts) != 0 {
		t.Fatalf("wrong service produced %d alerts", len(alerts))
	}
}

func TestSelectionAndNotFilter(t *testing.T) {
	engine := newTestSigmaEngine(t)
	mustLoadRule(t, engine, `
title: Suspicious command excluding service accounts
logsource:
  product: windows
detection:
  selection:
    CommandLine: "cmd.exe /c *"
  filter:
    User: SYSTEM
  condition: selection and not filter
level: medium
`)

	ev := core.NewLogEvent()
	ev.Provider = "windows"
	ev.Data["CommandLine"] = "cmd.exe /c whoami"
	ev.Data["User"] = "alice"
	if alerts := engine.EvaluateEvent(ev); len(alerts) != 1 {
		t.Fatalf("expected 1 alert for non-excluded user, got %d", len(alerts))
	}

	filtered := core.NewLogEvent()
	filtered.Provider = "windows"
	filtered.Data["CommandLine"] = "cmd.exe /c whoami"
	filtered.Data["User"] = "SYSTEM"
	if alerts := engine.EvaluateEvent(filtered); len(alerts) != 0 {
		t.Fatalf("filter block did not exclude, got %d alerts", len(alerts))
	}
}

func TestVerdictCacheIdempotence(t *testing.T) {
	engine := newTestSigmaEngine(t)
	mustLoadRule(t, engine, failedLogonRuleYAML)

	ev := windowsLogonEvent()
	first := engine.EvaluateEvent(ev)
	evalsAfterFirst := atomic.LoadInt64(&engine.ruleEvals)

	second := engine.EvaluateEvent(ev)
	if got := atomic.LoadInt64(&engine.ruleEvals); got != evalsAfterFirst {
		t.Fatalf("cache hit re-ran rules: %d evaluations, want %d", got, evalsAfterFirst)
	}

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("alert counts differ: %d vs %d", len(first), len(second))
	}
	if first[0].ID != second[0].ID {
		t.Error("cached evaluation returned a different alert")
	}
}

func TestCachePurgedOnRuleChange(t *testing.T) {
	engine := newTestSigmaEngine(t)
	mustLoadRule(t, engine, failedLogonRuleYAML)

	ev := windowsLogonEvent()
	engine.EvaluateEvent(ev)
	evals := atomic.LoadInt64(&engine.ruleEvals)

	mustLoadRule(t, engine, `
title: Account lockout
id: rule-lockout
logsource:
  product: windows
  service: security
detection:
  selection:
    EventID: 4740
  condition: selection
level: medium
`)

	engine.EvaluateEvent(ev)
	if got := atomic.LoadInt64(&engine.ruleEvals); got <= evals {
		t.Fatal("rule change did not purge verdict cache")
	}
}

func TestRemoveSigmaRule(t *testing.T) {
	engine := newTestSigmaEngine(t)
	rule := mustLoadRule(t, engine, failedLogonRuleYAML)

	if !engine.RemoveRule(rule.ID) {
		t.Fatal("RemoveRule returned false")
	}
	if engine.RemoveRule(rule.ID) {
		t.Error("RemoveRule returned true twice")
	}
	if alerts := engine.EvaluateEvent(windowsLogonEvent()); len(alerts) != 0 {
		t.Fatalf("removed rule still produced %d alerts", len(alerts))
	}
}

func TestSigmaConfidenceByStatus(t *testing.T) {
	cases := []struct {
		status         string
		falsePositives int
		want           int
	}{
		{"stable", 0, 95},
		{"test", 0, 85},
		{"experimental", 0, 65},
		{"experimental", 2, 55},
		{"", 0, 75},
	}
	for _, tc := range cases {
		rule := &core.SigmaRule{Status: tc.status, FalsePositives: make([]string, tc.falsePositives)}
		if got := sigmaConfidence(rule); got != tc.want {
			t.Errorf("sigmaConfidence(%q, %d fps) = %d, want %d", tc.status, tc.falsePositives, got, tc.want)
		}
	}
}

func TestSigmaStatistics(t *testing.T) {
	engine := newTestSigmaEngine(t)
	mustLoadRule(t, engine, failedLogonRuleYAML)

	ev := windowsLogonEvent()
	engine.EvaluateEvent(ev)
	engine.EvaluateEvent(ev)

	stats := engine.GetStatistics()
	if stats.TotalRules != 1 {
		t.Errorf("TotalRules = %d, want 1", stats.TotalRules)
	}
	if stats.RulesByLevel["high"] != 1 {
		t.Errorf("RulesByLevel = %v", stats.RulesByLevel)
	}
	if stats.Evaluations != 2 {
		t.Errorf("Evaluations = %d, want 2", stats.Evaluations)
	}
	if stats.CacheHitRate <= 0 {
		t.Errorf("CacheHitRate = %f, want > 0", stats.CacheHitRate)
	}
	if stats.Matches != 1 {
		t.Errorf("Matches = %d, want 1 (cache hit must not recount)", stats.Matches)
	}
}
