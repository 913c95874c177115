package detect

import (
	"testing"

	"argus/core"
)

func compileTestRule(t *testing.T, selection, filter map[string]interface{}, condition string) *CompiledRule {
	t.Helper()
	rule := &core.SigmaRule{
		Title:     "compile test",
		LogSource: core.LogSource{Product: "windows"},
		Detection: &core.SigmaDetection{
			Selection: selection,
			Filter:    filter,
			Condition: condition,
		},
		Level: "low",
	}
	compiled, err := compileSigmaRule(rule)
	if err != nil {
		t.Fatalf("compileSigmaRule failed: %v", err)
	}
	return compiled
}

func TestWildcardSelection(t *testing.T) {
	compiled := compileTestRule(t, map[string]interface{}{
		"CommandLine": "cmd.exe /c *",
	}, nil, "selection")

	cases := []struct {
		cmdline string
		want    bool
	}{
		{"cmd.exe /c dir", true},
		{"CMD.EXE /C DIR", true}, // wildcard matching is case-insensitive
		{"powershell.exe -enc abc", false},
		{"prefix cmd.exe /c dir", false}, // anchored, not substring
	}
	for _, tc := range cases {
		ev := core.NewLogEvent()
		ev.Data["CommandLine"] = tc.cmdline
		got, err := matchBlock(compiled.Matchers[0], ev)
		if err != nil {
			t.Fatalf("matchBlock(%q) error: %v", tc.cmdline, err)
		}
		if got != tc.want {
			t.Errorf("matchBlock(%q) = %v, want %v", tc.cmdline, got, tc.want)
		}
	}
}

func TestSingleCharacterWildcard(t *testing.T) {
	compiled := compileTestRule(t, map[string]interface{}{
		"FileName": "report?.docx",
	}, nil, "selection")

	ev := core.NewLogEvent()
	ev.Data["FileName"] = "report1.docx"
	if ok, _ := matchBlock(compiled.Matchers[0], ev); !ok {
		t.Error("? did not match a single character")
	}

	ev.Data["FileName"] = "report12.docx"
	if ok, _ := matchBlock(compiled.Matchers[0], ev); ok {
		t.Error("? matched more than one character")
	}
}

func TestValueListIsOr(t *testing.T) {
	compiled := compileTestRule(t, map[string]interface{}{
		"Image": []interface{}{"*\\mimikatz.exe", "*\\procdump.exe"},
	}, nil, "selection")

	ev := core.NewLogEvent()
	ev.Data["Image"] = `C:\tools\procdump.exe`
	if ok, _ := matchBlock(compiled.Matchers[0], ev); !ok {
		t.Error("second value in list did not match")
	}

	ev.Data["Image"] = `C:\Windows\notepad.exe`
	if ok, _ := matchBlock(compiled.Matchers[0], ev); ok {
		t.Error("unlisted value matched")
	}
}

func TestFieldsAreAnd(t *testing.T) {
	compiled := compileTestRule(t, map[string]interface{}{
		"EventID": 1,
		"User":    "alice",
	}, nil, "selection")

	ev := core.NewLogEvent()
	ev.EventID = 1
	ev.Data["User"] = "alice"
	if ok, _ := matchBlock(compiled.Matchers[0], ev); !ok {
		t.Error("both fields matching should accept")
	}

	ev.Data["User"] = "bob"
	if ok, _ := matchBlock(compiled.Matchers[0], ev); ok {
		t.Error("one field mismatching should reject")
	}
}

func TestMissingFieldRejects(t *testing.T) {
	compiled := compileTestRule(t, map[string]interface{}{
		"User": "alice",
	}, nil, "selection")

	ev := core.NewLogEvent()
	if ok, _ := matchBlock(compiled.Matchers[0], ev); ok {
		t.Error("missing field matched")
	}
}

func TestNumericEquality(t *testing.T) {
	compiled := compileTestRule(t, map[string]interface{}{
		"EventID": 4625,
	}, nil, "selection")

	// YAML decodes ints, JSON decodes float64; both must match the
	// envelope's int.
	ev := core.NewLogEvent()
	ev.EventID = 4625
	if ok, _ := matchBlock(compiled.Matchers[0], ev); !ok {
		t.Error("int EventID did not match")
	}

	ev2 := core.NewLogEvent()
	ev2.Data["EventID"] = 4625.0
	if ok, _ := matchBlock(compiled.Matchers[0], ev2); !ok {
		t.Error("float payload EventID did not match")
	}
}

func TestDottedFieldPath(t *testing.T) {
	compiled := compileTestRule(t, map[string]interface{}{
		"process.name": "sshd",
	}, nil, "selection")

	ev := core.NewLogEvent()
	ev.Data["process"] = map[string]interface{}{"name": "sshd"}
	if ok, _ := matchBlock(compiled.Matchers[0], ev); !ok {
		t.Error("dotted path did not resolve into nested payload")
	}
}

func TestEvaluateConditionForms(t *testing.T) {
	matchers := []blockMatcher{
		{name: "selection"},
		{name: "filter", exclude: true},
	}

	cases := []struct {
		condition string
		verdicts  map[string]bool
		want      bool
	}{
		{"selection", map[string]bool{"selection": true}, true},
		{"selection", map[string]bool{"selection": false}, false},
		{"selection and not filter", map[string]bool{"selection": true, "filter": false}, true},
		{"selection and not filter", map[string]bool{"selection": true, "filter": true}, false},
		{"selection and not filter", map[string]bool{"selection": false, "filter": false}, false},
		// fallback: AND of effective verdicts
		{"all of them", map[string]bool{"selection": true, "filter": false}, true},
		{"all of them", map[string]bool{"selection": true, "filter": true}, false},
	}
	for _, tc := range cases {
		if got := evaluateCondition(tc.condition, matchers, tc.verdicts); got != tc.want {
			t.Errorf("evaluateCondition(%q, %v) = %v, want %v", tc.condition, tc.verdicts, got, tc.want)
		}
	}
}
