package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallArgsBalancesNesting(t *testing.T) {
	line := `await page.click('div:has(span, a) > li:nth-child(2)', { force: (true) });`
	open := strings.Index(line, "(")
	args, end, ok := callArgs(line, open)
	require.True(t, ok)
	assert.Equal(t, `'div:has(span, a) > li:nth-child(2)', { force: (true) }`, args)
	assert.Equal(t, ");", line[end:])

	parts := splitArgs(args)
	require.Len(t, parts, 2)
	value, quote, ok := stringLiteral(parts[0])
	require.True(t, ok)
	assert.Equal(t, "div:has(span, a) > li:nth-child(2)", value)
	assert.Equal(t, byte('\''), quote)
}

func TestCallArgsUnclosed(t *testing.T) {
	_, _, ok := callArgs(`chromium.launch({`, len("chromium.launch"))
	assert.False(t, ok)
}

func TestStringLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{`'#a'`, "#a", true},
		{` "a[title=\"x\"]" `, `a[title=\"x\"]`, true},
		{"`#static`", "#static", true},
		{"`#${id}`", "", false},
		{`sel`, "", false},
		{`'a' + b`, "", false},
	}
	for _, tt := range tests {
		got, _, ok := stringLiteral(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestRenameIdent(t *testing.T) {
	line := `await page2.goto('page2.html'); obj.page2 = page2x + page2;`
	assert.Equal(t, `await page.goto('page2.html'); obj.page2 = page2x + page;`, renameIdent(line, "page2", "page"))
}

func TestStatementEnd(t *testing.T) {
	lines := []string{
		"const browser = await chromium.launch({",
		"  slowMo: 50, // comment (",
		"});",
		"const x = 1;",
	}
	assert.Equal(t, 2, statementEnd(lines, 0))
	assert.Equal(t, 3, statementEnd(lines, 3))
}

func TestQuoteAt(t *testing.T) {
	line := `page.check("#a") + page.check('#b')`
	assert.Equal(t, byte('"'), quoteAt(line, strings.Index(line, "#a")))
	assert.Equal(t, byte('\''), quoteAt(line, strings.Index(line, "#b")))
	assert.Equal(t, byte(0), quoteAt(line, strings.Index(line, "+")))
}
