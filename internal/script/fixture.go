package script

import (
	"regexp"
	"strings"
)

var (
	firstCheckbox = regexp.MustCompile(`#checkboxes\s*>?\s*input(?:\[type=['"]?checkbox['"]?\])?:(?:nth-child\(1\)|first-child|first-of-type|nth-of-type\(1\))`)
	lastCheckbox  = regexp.MustCompile(`#checkboxes\s*>?\s*input(?:\[type=['"]?checkbox['"]?\])?:(?:nth-child\(3\)|last-child|last-of-type|nth-of-type\(2\))`)
	checkboxHint  = regexp.MustCompile(`(?i)checkbox`)
)

const checkboxesPath = "/checkboxes"

// FixtureRule repairs positional selectors for the /checkboxes page of the
// target site. The page renders an unchecked box followed by a checked one,
// so attribute selectors survive markup changes that break :nth-child.
type FixtureRule struct{}

func (FixtureRule) Name() string { return "fixture" }

func (FixtureRule) Apply(p *Program, scenario string) {
	if !checkboxHint.MatchString(scenario) && !strings.Contains(strings.Join(p.Body, "\n"), checkboxesPath) {
		return
	}
	for i, line := range p.Body {
		line = replaceSelector(line, firstCheckbox, `#checkboxes input[type=%scheckbox%s]:not([checked])`)
		p.Body[i] = replaceSelector(line, lastCheckbox, `#checkboxes input[type=%scheckbox%s][checked]`)
	}
	p.Body = waitAfterCheckboxesVisit(p.Body)
}

// replaceSelector substitutes every match of re, choosing attribute quotes
// that do not terminate the enclosing string literal.
func replaceSelector(line string, re *regexp.Regexp, format string) string {
	matches := re.FindAllStringIndex(line, -1)
	for k := len(matches) - 1; k >= 0; k-- {
		start, end := matches[k][0], matches[k][1]
		q := `"`
		if quoteAt(line, start) == '"' {
			q = `'`
		}
		line = line[:start] + strings.ReplaceAll(format, "%s", q) + line[end:]
	}
	return line
}

func waitAfterCheckboxesVisit(lines []string) []string {
	for i := 0; i < len(lines); i++ {
		m := gotoCall.FindStringSubmatchIndex(lines[i])
		if m == nil {
			continue
		}
		value, _, ok := firstStringArg(lines[i], m[1]-1)
		if !ok || !visitsCheckboxes(value) {
			continue
		}
		receiver := lines[i][m[2]:m[3]]
		end := statementEnd(lines, i)
		next := end + 1
		for next < len(lines) && strings.TrimSpace(lines[next]) == "" {
			next++
		}
		if next < len(lines) && containsWait(lines[next], "#checkboxes") {
			continue
		}
		lines = insertLines(lines, end+1, indentOf(lines[i])+"await "+receiver+".waitForSelector('#checkboxes');")
		i = end + 1
	}
	return lines
}

func visitsCheckboxes(url string) bool {
	i := strings.Index(url, checkboxesPath)
	if i < 0 {
		return false
	}
	rest := url[i+len(checkboxesPath):]
	return rest == "" || strings.ContainsAny(rest[:1], "/?#")
}
