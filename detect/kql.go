package detect

import (
	"fmt"
	"sort"
	"strings"

	"argus/core"
	"argus/util"
)

// TranslateToKQL renders a sigma rule as a Kusto query string for hunting in
// external stores. The translation covers the same restricted condition
// forms the evaluator accepts; the logsource becomes leading equality
// clauses and the detection blocks become where-clauses.
func TranslateToKQL(rule *core.SigmaRule) (string, error) {
	if rule == nil {
		return "", fmt.Errorf("nil rule")
	}
	if err := rule.Validate(); err != nil {
		return "", fmt.Errorf("cannot translate invalid rule: %w", err)
	}

	var clauses []string
	if c := logsourceKQL(rule.LogSource); c != "" {
		clauses = append(clauses, c)
	}

	selection, err := blockKQL(rule.Detection.Selection)
	if err != nil {
		return "", fmt.Errorf("selection: %w", err)
	}
	clauses = append(clauses, selection)

	condition := strings.ToLower(strings.TrimSpace(rule.Detection.Condition))
	if len(rule.Detection.Filter) > 0 && strings.Contains(condition, "not filter") {
		filter, err := blockKQL(rule.Detection.Filter)
		if err != nil {
			return "", fmt.Errorf("filter: %w", err)
		}
		clauses = append(clauses, fmt.Sprintf("not (%s)", filter))
	}

	return strings.Join(clauses, " and "), nil
}

// kqlFieldAliases maps common sigma field names to their KQL column names.
var kqlFieldAliases = map[string]string{
	"Image":             "ProcessName",
	"CommandLine":       "ProcessCommandLine",
	"ParentImage":       "ParentProcessName",
	"ParentCommandLine": "ParentProcessCommandLine",
	"User":              "AccountName",
	"TargetFilename":    "FileName",
	"DestinationIp":     "RemoteIP",
	"DestinationPort":   "RemotePort",
	"SourceIp":          "LocalIP",
	"EventID":           "EventID",
}

func kqlField(field string) string {
	if alias, ok := kqlFieldAliases[field]; ok {
		return alias
	}
	return field
}

func logsourceKQL(ls core.LogSource) string {
	var parts []string
	if ls.Product != "" {
		parts = append(parts, fmt.Sprintf("Product == %s", kqlString(ls.Product)))
	}
	if ls.Service != "" {
		parts = append(parts, fmt.Sprintf("Channel == %s", kqlString(ls.Service)))
	}
	if ls.Category != "" {
		parts = append(parts, fmt.Sprintf("Category == %s", kqlString(ls.Category)))
	}
	return strings.Join(parts, " and ")
}

// blockKQL renders one detection block. Fields are AND'd; multiple declared
// values for a field are OR'd inside parentheses. Output order is sorted by
// field name so translation is deterministic.
func blockKQL(block map[string]interface{}) (string, error) {
	fields := make([]string, 0, len(block))
	for field := range block {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var parts []string
	for _, field := range fields {
		declared := block[field]
		values, ok := declared.([]interface{})
		if !ok {
			values = []interface{}{declared}
		}
		if len(values) == 0 {
			return "", fmt.Errorf("field %s has no values", field)
		}

		column := kqlField(field)
		terms := make([]string, 0, len(values))
		for _, v := range values {
			terms = append(terms, valueKQL(column, v))
		}
		if len(terms) == 1 {
			parts = append(parts, terms[0])
		} else {
			parts = append(parts, "("+strings.Join(terms, " or ")+")")
		}
	}
	return strings.Join(parts, " and "), nil
}

// valueKQL renders one field/value comparison. Values wrapped in wildcards
// on both sides become substring checks; any other wildcard use becomes an
// anchored regex; plain values become case-insensitive equality.
func valueKQL(column string, value interface{}) string {
	s, isString := value.(string)
	if !isString {
		return fmt.Sprintf("%s == %s", column, stringify(value))
	}

	if strings.ContainsAny(s, "*?") {
		trimmed := strings.Trim(s, "*")
		if strings.HasPrefix(s, "*") && strings.HasSuffix(s, "*") &&
			len(s) > 1 && !strings.ContainsAny(trimmed, "*?") {
			return fmt.Sprintf("%s contains %s", column, kqlString(trimmed))
		}
		return fmt.Sprintf("%s matches regex %s", column, kqlString(util.WildcardToRegex(s)))
	}
	return fmt.Sprintf("%s =~ %s", column, kqlString(s))
}

func kqlString(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
