package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWildcardToRegex(t *testing.T) {
	cases := []struct {
		pattern string
		want    string
	}{
		{"cmd.exe", `(?i)^cmd\.exe$`},
		{"cmd.exe /c *", `(?i)^cmd\.exe /c .*$`},
		{"report?.docx", `(?i)^report.\.docx$`},
		{`C:\Windows\*`, `(?i)^C:\\Windows\\.*$`},
		{"a+b(c)", `(?i)^a\+b\(c\)$`},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, WildcardToRegex(tc.pattern), "pattern %q", tc.pattern)
	}
}

func TestCompileWildcardMatch(t *testing.T) {
	p, err := CompileWildcard("cmd.exe /c *")
	require.NoError(t, err)

	cases := []struct {
		input string
		want  bool
	}{
		{"cmd.exe /c dir", true},
		{"CMD.EXE /C DIR", true},
		{"cmd.exe /c", false}, // trailing * needs the space-delimited tail
		{"powershell.exe", false},
		{"x cmd.exe /c dir", false},
	}
	for _, tc := range cases {
		ok, err := p.Match(tc.input)
		require.NoError(t, err)
		assert.Equal(t, tc.want, ok, "input %q", tc.input)
	}
}

func TestQuestionMarkMatchesExactlyOne(t *testing.T) {
	p, err := CompileWildcard("log?.txt")
	require.NoError(t, err)

	ok, err := p.Match("log1.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Match("log12.txt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLiteralDotsNotWild(t *testing.T) {
	p, err := CompileWildcard("a.b")
	require.NoError(t, err)

	ok, err := p.Match("axb")
	require.NoError(t, err)
	assert.False(t, ok, "dot must match literally, not as regex any")
}

func TestCompileRegex(t *testing.T) {
	p, err := CompileRegex(`^/etc/.*\.conf$`)
	require.NoError(t, err)

	ok, err := p.Match("/etc/nginx.conf")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.Match("/var/log/syslog")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompileRegexInvalid(t *testing.T) {
	_, err := CompileRegex("([unclosed")
	assert.Error(t, err)
}

func TestPatternCacheReturnsSameInstance(t *testing.T) {
	a, err := CompileWildcard("*cache-check*")
	require.NoError(t, err)
	b, err := CompileWildcard("*cache-check*")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestPatternString(t *testing.T) {
	p, err := CompileRegex("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", p.String())
}
