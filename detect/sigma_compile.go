package detect

import (
	"fmt"
	"strings"

	"argus/core"
	"argus/util"
)

// fieldMatcher is one compiled field condition inside a detection block.
// Declared values are OR'd; wildcard values carry a compiled pattern.
type fieldMatcher struct {
	field    string
	values   []interface{}
	patterns []*util.Pattern // parallel to values; nil for non-wildcard entries
}

// blockMatcher is a compiled detection block. All field matchers inside a
// block are AND'd. Exclude blocks (the optional `filter`) have their verdict
// negated by the condition evaluator.
type blockMatcher struct {
	name    string
	exclude bool
	fields  []fieldMatcher
}

// CompiledRule is the evaluated form of a SigmaRule: an ordered matcher list
// plus the raw condition string. Compiled once at load time and replaced
// atomically on re-load.
type CompiledRule struct {
	Rule      *core.SigmaRule
	Matchers  []blockMatcher
	Condition string
}

// compileSigmaRule builds the matcher list for a validated rule. Wildcard
// patterns that fail to compile fail the load; they would otherwise poison
// every evaluation.
func compileSigmaRule(rule *core.SigmaRule) (*CompiledRule, error) {
	matchers := make([]blockMatcher, 0, 2)

	selection, err := compileBlock("selection", false, rule.Detection.Selection)
	if err != nil {
		return nil, err
	}
	matchers = append(matchers, selection)

	if len(rule.Detection.Filter) > 0 {
		filter, err := compileBlock("filter", true, rule.Detection.Filter)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, filter)
	}

	return &CompiledRule{
		Rule:      rule,
		Matchers:  matchers,
		Condition: strings.TrimSpace(rule.Detection.Condition),
	}, nil
}

func compileBlock(name string, exclude bool, block map[string]interface{}) (blockMatcher, error) {
	bm := blockMatcher{name: name, exclude: exclude}
	for field, declared := range block {
		values, ok := declared.([]interface{})
		if !ok {
			values = []interface{}{declared}
		}

		fm := fieldMatcher{
			field:    field,
			values:   values,
			patterns: make([]*util.Pattern, len(values)),
		}
		for i, v := range values {
			s, isString := v.(string)
			if !isString || !strings.ContainsAny(s, "*?") {
				continue
			}
			pattern, err := util.CompileWildcard(s)
			if err != nil {
				return blockMatcher{}, fmt.Errorf("block %s field %s: %w", name, field, err)
			}
			fm.patterns[i] = pattern
		}
		bm.fields = append(bm.fields, fm)
	}
	return bm, nil
}

// matchBlock evaluates a block against an event: every field matcher must
// accept (AND), each field accepting if any declared value matches (OR).
// Returns the raw verdict; exclusion is applied by the condition evaluator.
func matchBlock(bm blockMatcher, event *core.LogEvent) (bool, error) {
	for _, fm := range bm.fields {
		actual, found := logEventFieldValue(event, fm.field)
		if !found {
			return false, nil
		}

		matched := false
		for i, expected := range fm.values {
			ok, err := matchValue(actual, expected, fm.patterns[i])
			if err != nil {
				return false, err
			}
			if ok {
				matched = true
				break
			}
		}
		if !matched {
			return false, nil
		}
	}
	return true, nil
}

// matchValue compares one actual value against one declared value: compiled
// wildcard pattern, numeric equality, or case-insensitive string equality.
func matchValue(actual, expected interface{}, pattern *util.Pattern) (bool, error) {
	if pattern != nil {
		s, ok := actual.(string)
		if !ok {
			s = stringify(actual)
		}
		return pattern.Match(s)
	}

	if valuesEqual(actual, expected) {
		return true, nil
	}
	as, aok := actual.(string)
	es, eok := expected.(string)
	if aok && eok {
		return strings.EqualFold(as, es), nil
	}
	return false, nil
}

// evaluateCondition applies the rule's condition string to raw block
// verdicts. Only "selection" and "selection and not filter" are
// special-cased; anything else falls back to AND of all effective verdicts
// (exclude blocks negated). This is a documented restriction, not a general
// boolean-expression evaluator.
func evaluateCondition(condition string, matchers []blockMatcher, verdicts map[string]bool) bool {
	switch strings.ToLower(condition) {
	case "selection":
		return verdicts["selection"]
	case "selection and not filter":
		return verdicts["selection"] && !verdicts["filter"]
	default:
		for _, bm := range matchers {
			effective := verdicts[bm.name]
			if bm.exclude {
				effective = !effective
			}
			if !effective {
				return false
			}
		}
		return true
	}
}

// logEventFieldValue resolves a field against a LogEvent: the data payload
// first (dotted paths supported), then the envelope fields.
func logEventFieldValue(event *core.LogEvent, field string) (interface{}, bool) {
	if v, ok := core.ResolveField(event.Data, field); ok {
		return v, true
	}

	switch field {
	case "EventID", "event_id":
		if event.EventID != 0 {
			return event.EventID, true
		}
	case "Provider", "provider":
		if event.Provider != "" {
			return event.Provider, true
		}
	case "Channel", "channel":
		if event.Channel != "" {
			return event.Channel, true
		}
	case "Level", "level":
		if event.Level != "" {
			return event.Level, true
		}
	case "Computer", "computer":
		if event.Computer != "" {
			return event.Computer, true
		}
	}
	return nil, false
}
