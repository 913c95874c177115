// Package cmd provides the command-line interface for Argus.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"argus/core"
	"argus/detect"
	"argus/notify"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// CLI output formatters
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
)

// Global flags for rules commands
var (
	outputJSON bool
	noColor    bool
	quiet      bool
)

// NewRulesCmd creates the root rules command with all subcommands.
func NewRulesCmd() *cobra.Command {
	rulesCmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate detection rules",
		Long: `Inspect and validate detection rules before deploying them.

The lint subcommand parses and compiles every sigma rule in a directory and
reports rules the engine would reject at load time.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
	}

	rulesCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	rulesCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rulesCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress non-essential output")

	rulesCmd.AddCommand(newLintCmd())
	rulesCmd.AddCommand(newTranslateCmd())

	return rulesCmd
}

// lintResult is one file's outcome, also used for JSON output.
type lintResult struct {
	File  string `json:"file"`
	Title string `json:"title,omitempty"`
	Level string `json:"level,omitempty"`
	Error string `json:"error,omitempty"`
}

// newLintCmd creates the 'lint' subcommand
func newLintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint <dir>",
		Short: "Validate every sigma rule file in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results, failures, err := lintDir(args[0])
			if err != nil {
				return err
			}

			if outputJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				printLintResults(results)
			}

			if failures > 0 {
				return fmt.Errorf("%d of %d rule files failed validation", failures, len(results))
			}
			return nil
		},
	}
	return cmd
}

// lintDir parses and compiles every rule file under dir, returning per-file
// results and the failure count.
func lintDir(dir string) ([]lintResult, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rules directory: %w", err)
	}

	logger := zap.NewNop().Sugar()
	engine, err := detect.NewSigmaEngine(detect.DefaultSigmaEngineConfig(), notify.NewBus(logger), logger)
	if err != nil {
		return nil, 0, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".yml" || ext == ".yaml" || ext == ".json" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var results []lintResult
	failures := 0
	for _, name := range names {
		result := lintFile(engine, filepath.Join(dir, name))
		if result.Error != "" {
			failures++
		}
		results = append(results, result)
	}
	return results, failures, nil
}

// lintFile runs a file through the same parse and compile path the engine
// uses at startup, so lint failures are exactly the load failures.
func lintFile(engine *detect.SigmaEngine, path string) lintResult {
	result := lintResult{File: path}

	content, err := os.ReadFile(path)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	format := core.FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = core.FormatJSON
	}

	rule, err := engine.LoadRule(content, format)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Title = rule.Title
	result.Level = rule.Level
	return result
}

func printLintResults(results []lintResult) {
	for _, r := range results {
		if r.Error != "" {
			errorColor.Printf("FAIL  %s\n", r.File)
			fmt.Printf("      %s\n", r.Error)
			continue
		}
		if quiet {
			continue
		}
		successColor.Printf("OK    ")
		fmt.Printf("%s", r.File)
		if r.Title != "" {
			infoColor.Printf("  (%s, %s)", r.Title, r.Level)
		}
		fmt.Println()
	}

	if !quiet {
		ok := 0
		for _, r := range results {
			if r.Error == "" {
				ok++
			}
		}
		fmt.Println()
		if ok == len(results) {
			successColor.Printf("%d rule files validated\n", ok)
		} else {
			warningColor.Printf("%d of %d rule files validated\n", ok, len(results))
		}
	}
}

// newTranslateCmd creates the 'translate' subcommand
func newTranslateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate <file>",
		Short: "Translate a sigma rule file to a KQL query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			format := core.FormatYAML
			if strings.EqualFold(filepath.Ext(path), ".json") {
				format = core.FormatJSON
			}
			rule, err := core.ParseSigmaRule(content, format)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", path, err)
			}

			query, err := detect.TranslateToKQL(rule)
			if err != nil {
				return fmt.Errorf("failed to translate %s: %w", path, err)
			}

			if outputJSON {
				return json.NewEncoder(os.Stdout).Encode(map[string]string{
					"rule_id": rule.ID,
					"title":   rule.Title,
					"kql":     query,
				})
			}
			if !quiet {
				infoColor.Printf("%s\n", rule.Title)
			}
			fmt.Println(query)
			return nil
		},
	}
	return cmd
}
