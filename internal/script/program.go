package script

import (
	"regexp"
	"strings"
)

// Program is the statement-level view of a generated script. Imports are
// complete require statements; Body holds every other line, unindented
// relative to the async wrapper.
type Program struct {
	Imports []string
	Body    []string
	// Wrapped makes Render enclose Body in a single async IIFE.
	Wrapped bool
}

var (
	requireStmt = regexp.MustCompile(`^(?:const|let|var)\s+(\{[^}]*\}|[A-Za-z_$][\w$]*)\s*=\s*require\(\s*['"]([^'"]+)['"]\s*\)(?:\.[A-Za-z_$][\w$]*)*\s*;?$`)
	bareRequire = regexp.MustCompile(`^require\(\s*['"]([^'"]+)['"]\s*\)\s*;?$`)

	esNamed     = regexp.MustCompile(`^import\s+\{([^}]*)\}\s+from\s+['"]([^'"]+)['"]\s*;?$`)
	esDefault   = regexp.MustCompile(`^import\s+([A-Za-z_$][\w$]*)\s+from\s+['"]([^'"]+)['"]\s*;?$`)
	esNamespace = regexp.MustCompile(`^import\s+\*\s+as\s+([A-Za-z_$][\w$]*)\s+from\s+['"]([^'"]+)['"]\s*;?$`)
	esBare      = regexp.MustCompile(`^import\s+['"]([^'"]+)['"]\s*;?$`)
	esAlias     = regexp.MustCompile(`\s+as\s+`)
)

// Parse splits code into a Program. Import statements are hoisted out of the
// body; ES module imports are rewritten to require calls since the script runs
// as CommonJS.
func Parse(code string) *Program {
	p := &Program{}
	code = strings.ReplaceAll(code, "\r\n", "\n")
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimRight(expandLeadingTabs(line), " \t")
		if stmt, ok := importStatement(strings.TrimSpace(line)); ok {
			p.Imports = append(p.Imports, stmt)
			continue
		}
		p.Body = append(p.Body, line)
	}
	return p
}

// importStatement normalizes an import line, reporting false for any other
// statement.
func importStatement(line string) (string, bool) {
	switch {
	case requireStmt.MatchString(line), bareRequire.MatchString(line):
		return withSemicolon(line), true
	case esNamed.MatchString(line):
		m := esNamed.FindStringSubmatch(line)
		names := esAlias.ReplaceAllString(strings.TrimSpace(m[1]), ": ")
		return "const { " + names + " } = require('" + m[2] + "');", true
	case esNamespace.MatchString(line):
		m := esNamespace.FindStringSubmatch(line)
		return "const " + m[1] + " = require('" + m[2] + "');", true
	case esDefault.MatchString(line):
		m := esDefault.FindStringSubmatch(line)
		return "const " + m[1] + " = require('" + m[2] + "');", true
	case esBare.MatchString(line):
		m := esBare.FindStringSubmatch(line)
		return "require('" + m[1] + "');", true
	}
	return "", false
}

func withSemicolon(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if !strings.HasSuffix(stmt, ";") {
		stmt += ";"
	}
	return stmt
}

func expandLeadingTabs(line string) string {
	indent := indentOf(line)
	if !strings.Contains(indent, "\t") {
		return line
	}
	return strings.ReplaceAll(indent, "\t", "  ") + line[len(indent):]
}

// importModule returns the module name and binding text of an import line.
func importModule(stmt string) (module, binding string) {
	if m := requireStmt.FindStringSubmatch(stmt); m != nil {
		return m[2], m[1]
	}
	if m := bareRequire.FindStringSubmatch(stmt); m != nil {
		return m[1], ""
	}
	return "", ""
}

// Render prints the program. Runs of blank lines collapse to one and blank
// lines at either end of the body are dropped.
func (p *Program) Render() string {
	var b strings.Builder
	for _, stmt := range p.Imports {
		b.WriteString(stmt)
		b.WriteByte('\n')
	}

	body := tidy(p.Body)
	if len(p.Imports) > 0 && len(body) > 0 {
		b.WriteByte('\n')
	}

	indent := ""
	if p.Wrapped {
		b.WriteString("(async () => {\n")
		indent = "  "
	}
	for _, line := range body {
		if line != "" {
			b.WriteString(indent)
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}
	if p.Wrapped {
		b.WriteString("})();\n")
	}
	return b.String()
}

func tidy(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if len(out) == 0 || out[len(out)-1] == "" {
				continue
			}
			line = ""
		}
		out = append(out, line)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

// insertLines returns lines with extra inserted before index at.
func insertLines(lines []string, at int, extra ...string) []string {
	out := make([]string, 0, len(lines)+len(extra))
	out = append(out, lines[:at]...)
	out = append(out, extra...)
	return append(out, lines[at:]...)
}

// dedent strips the indentation common to every non-blank line.
func dedent(lines []string) []string {
	common := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(indentOf(line))
		if common < 0 || n < common {
			common = n
		}
	}
	if common <= 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out[i] = line[common:]
	}
	return out
}
