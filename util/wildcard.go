// Package util provides pattern-matching helpers shared by the detection
// engines.
package util

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
)

// DefaultMatchTimeout bounds regex backtracking so a pathological pattern
// blocks only its own evaluation.
const DefaultMatchTimeout = 500 * time.Millisecond

// regex metacharacters that must be escaped when compiling wildcard patterns
var regexMetaReplacer = strings.NewReplacer(
	`\`, `\\`,
	`.`, `\.`,
	`+`, `\+`,
	`(`, `\(`,
	`)`, `\)`,
	`[`, `\[`,
	`]`, `\]`,
	`{`, `\{`,
	`}`, `\}`,
	`^`, `\^`,
	`$`, `\$`,
	`|`, `\|`,
	`?`, `\?`,
)

// Pattern is a compiled, timeout-protected matcher built from either a
// wildcard expression or a raw regular expression.
type Pattern struct {
	re  *regexp2.Regexp
	src string
}

// compiled pattern cache; wildcard compilation happens on every rule load
// and patterns repeat heavily across rule corpora
var (
	patternCache   = make(map[string]*Pattern)
	patternCacheMu sync.RWMutex
)

// WildcardToRegex converts a SIGMA-style wildcard pattern to an anchored,
// case-insensitive regex source: metacharacters are escaped, `*` becomes
// `.*` and `?` becomes `.`.
func WildcardToRegex(pattern string) string {
	escaped := regexMetaReplacer.Replace(pattern)
	escaped = strings.ReplaceAll(escaped, "*", ".*")
	escaped = strings.ReplaceAll(escaped, `\?`, ".")
	return "(?i)^" + escaped + "$"
}

// CompileWildcard compiles a wildcard pattern into a timeout-protected
// matcher. Compiled patterns are cached by source.
func CompileWildcard(pattern string) (*Pattern, error) {
	return compile(WildcardToRegex(pattern))
}

// CompileRegex compiles a raw regular expression into a timeout-protected
// matcher.
func CompileRegex(expr string) (*Pattern, error) {
	return compile(expr)
}

func compile(src string) (*Pattern, error) {
	patternCacheMu.RLock()
	p, ok := patternCache[src]
	patternCacheMu.RUnlock()
	if ok {
		return p, nil
	}

	patternCacheMu.Lock()
	defer patternCacheMu.Unlock()
	if p, ok := patternCache[src]; ok {
		return p, nil
	}

	re, err := regexp2.Compile(src, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern %q: %w", src, err)
	}
	re.MatchTimeout = DefaultMatchTimeout

	p = &Pattern{re: re, src: src}
	patternCache[src] = p
	return p, nil
}

// Match reports whether the input matches. A backtracking timeout is
// returned as an error so callers can treat the rule as non-matching and
// keep evaluating others.
func (p *Pattern) Match(input string) (bool, error) {
	match, err := p.re.MatchString(input)
	if err != nil {
		return false, fmt.Errorf("pattern %q evaluation failed: %w", p.src, err)
	}
	return match, nil
}

// String returns the compiled regex source.
func (p *Pattern) String() string {
	return p.src
}
