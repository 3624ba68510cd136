package script

import (
	"regexp"
	"strings"
)

var (
	fencedBlock = regexp.MustCompile("```[a-zA-Z]*\\r?\\n([\\s\\S]*?)```")
	fenceLine   = regexp.MustCompile("^```[\\w+-]*$")
)

// Sanitize reduces a model answer to code: the body of the first fenced block
// when there is one, otherwise the text with any stray leading or trailing
// fence lines removed.
func Sanitize(raw string) string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	if len(lines) > 0 && fenceLine.MatchString(strings.TrimSpace(lines[0])) {
		lines = lines[1:]
	}
	if n := len(lines); n > 0 && fenceLine.MatchString(strings.TrimSpace(lines[n-1])) {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
