package detect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"argus/core"
	"argus/util"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// correlationRuleFile is the on-disk envelope for correlation rules.
type correlationRuleFile struct {
	Rules []core.CorrelationRule `json:"rules" yaml:"rules"`
}

// LoadCorrelationRules loads correlation rules from a JSON or YAML file.
// JSON files are validated against rules_schema.json when that file exists
// next to the rules file. Rules whose regex conditions fail to compile are
// skipped with an error log rather than failing the whole load.
func LoadCorrelationRules(filename string, logger *zap.SugaredLogger) ([]core.CorrelationRule, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read correlation rules file: %w", err)
	}

	isYAML := strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
	if !isYAML {
		schemaFilename := filepath.Join(filepath.Dir(filename), "rules_schema.json")
		schemaData, err := os.ReadFile(schemaFilename)
		if err != nil {
			logger.Warnf("Schema file not found, skipping validation: %v", err)
		} else {
			schemaLoader := gojsonschema.NewBytesLoader(schemaData)
			documentLoader := gojsonschema.NewBytesLoader(data)

			result, err := gojsonschema.Validate(schemaLoader, documentLoader)
			if err != nil {
				return nil, fmt.Errorf("failed to validate correlation rules against schema: %w", err)
			}
			if !result.Valid() {
				var errors []string
				for _, desc := range result.Errors() {
					errors = append(errors, desc.String())
				}
				return nil, fmt.Errorf("correlation rules validation failed: %s", strings.Join(errors, "; "))
			}
		}
	}

	var file correlationRuleFile
	if isYAML {
		err = yaml.Unmarshal(data, &file)
	} else {
		err = json.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal correlation rules: %w", err)
	}

	rules := dropInvalidRegexRules(file.Rules, logger)
	logger.Infof("Loaded %d correlation rules from %s", len(rules), filename)
	return rules, nil
}

// dropInvalidRegexRules pre-compiles every regex condition and returns only
// the rules whose patterns all compile.
func dropInvalidRegexRules(rules []core.CorrelationRule, logger *zap.SugaredLogger) []core.CorrelationRule {
	var valid []core.CorrelationRule
	for _, rule := range rules {
		ok := true
		for i, cond := range rule.Conditions {
			if cond.Operator != core.OpRegex {
				continue
			}
			pattern, isString := cond.Value.(string)
			if !isString {
				logger.Errorf("Non-string regex pattern in rule %s condition %d, skipping rule", rule.ID, i)
				ok = false
				break
			}
			if _, err := util.CompileRegex(pattern); err != nil {
				logger.Errorf("Invalid regex pattern in rule %s condition %d: %v, skipping rule", rule.ID, i, err)
				ok = false
				break
			}
		}
		if ok {
			valid = append(valid, rule)
		}
	}
	return valid
}

// LoadSigmaRuleDir loads every .yml/.yaml/.json sigma rule under dir into
// the engine, non-recursively, in lexical order. Files that fail to parse,
// validate, or compile are logged and skipped; the count of loaded rules is
// returned.
func LoadSigmaRuleDir(dir string, engine *SigmaEngine, logger *zap.SugaredLogger) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read sigma rules directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	loaded := 0
	for _, name := range names {
		format := sigmaFileFormat(name)
		if format == "" {
			continue
		}
		path := filepath.Join(dir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Errorw("Failed to read sigma rule file", "path", path, "error", err)
			continue
		}
		if _, err := engine.LoadRule(content, format); err != nil {
			logger.Errorw("Failed to load sigma rule", "path", path, "error", err)
			continue
		}
		loaded++
	}

	logger.Infof("Loaded %d sigma rules from %s", loaded, dir)
	return loaded, nil
}

func sigmaFileFormat(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yml", ".yaml":
		return core.FormatYAML
	case ".json":
		return core.FormatJSON
	default:
		return ""
	}
}
