package detect

import (
	"strings"
	"testing"

	"argus/core"
)

func kqlTestRule(selection, filter map[string]interface{}, condition string) *core.SigmaRule {
	return &core.SigmaRule{
		Title:     "kql test",
		LogSource: core.LogSource{Product: "windows", Service: "sysmon"},
		Detection: &core.SigmaDetection{
			Selection: selection,
			Filter:    filter,
			Condition: condition,
		},
		Level: "medium",
	}
}

func TestTranslateToKQLBasic(t *testing.T) {
	rule := kqlTestRule(map[string]interface{}{
		"EventID": 1,
	}, nil, "selection")

	query, err := TranslateToKQL(rule)
	if err != nil {
		t.Fatalf("TranslateToKQL failed: %v", err)
	}
	for _, want := range []string{
		`Product == "windows"`,
		`Channel == "sysmon"`,
		`EventID == 1`,
	} {
		if !strings.Contains(query, want) {
			t.Errorf("query %q missing %q", query, want)
		}
	}
}

func TestTranslateToKQLFieldAliases(t *testing.T) {
	rule := kqlTestRule(map[string]interface{}{
		"Image":       `C:\Windows\cmd.exe`,
		"CommandLine": "whoami",
	}, nil, "selection")

	query, err := TranslateToKQL(rule)
	if err != nil {
		t.Fatalf("TranslateToKQL failed: %v", err)
	}
	if !strings.Contains(query, "ProcessName =~") {
		t.Errorf("Image was not aliased to ProcessName: %q", query)
	}
	if !strings.Contains(query, "ProcessCommandLine =~") {
		t.Errorf("CommandLine was not aliased: %q", query)
	}
	if strings.Contains(query, "Image") {
		t.Errorf("raw field name leaked into query: %q", query)
	}
}

func TestTranslateToKQLContains(t *testing.T) {
	rule := kqlTestRule(map[string]interface{}{
		"CommandLine": "*mimikatz*",
	}, nil, "selection")

	query, err := TranslateToKQL(rule)
	if err != nil {
		t.Fatalf("TranslateToKQL failed: %v", err)
	}
	if !strings.Contains(query, `ProcessCommandLine contains "mimikatz"`) {
		t.Errorf("double-sided wildcard did not become contains: %q", query)
	}
}

func TestTranslateToKQLWildcardRegex(t *testing.T) {
	rule := kqlTestRule(map[string]interface{}{
		"CommandLine": "cmd.exe /c *",
	}, nil, "selection")

	query, err := TranslateToKQL(rule)
	if err != nil {
		t.Fatalf("TranslateToKQL failed: %v", err)
	}
	if !strings.Contains(query, "matches regex") {
		t.Errorf("trailing wildcard did not become a regex clause: %q", query)
	}
}

func TestTranslateToKQLMultiValueOr(t *testing.T) {
	rule := kqlTestRule(map[string]interface{}{
		"User": []interface{}{"alice", "bob"},
	}, nil, "selection")

	query, err := TranslateToKQL(rule)
	if err != nil {
		t.Fatalf("TranslateToKQL failed: %v", err)
	}
	if !strings.Contains(query, `(AccountName =~ "alice" or AccountName =~ "bob")`) {
		t.Errorf("value list did not become an OR group: %q", query)
	}
}

func TestTranslateToKQLFilterNegated(t *testing.T) {
	rule := kqlTestRule(
		map[string]interface{}{"EventID": 1},
		map[string]interface{}{"User": "SYSTEM"},
		"selection and not filter",
	)

	query, err := TranslateToKQL(rule)
	if err != nil {
		t.Fatalf("TranslateToKQL failed: %v", err)
	}
	if !strings.Contains(query, `not (AccountName =~ "SYSTEM")`) {
		t.Errorf("filter block was not negated: %q", query)
	}
}

func TestTranslateToKQLRejectsInvalidRule(t *testing.T) {
	if _, err := TranslateToKQL(nil); err == nil {
		t.Error("expected error for nil rule")
	}
	if _, err := TranslateToKQL(&core.SigmaRule{Title: "no detection"}); err == nil {
		t.Error("expected error for rule without detection")
	}
}
