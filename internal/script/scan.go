package script

import "strings"

// callArgs returns the text between the parenthesis at s[open] and its
// matching close, honouring quotes, template literals and nesting. ok is false
// when the call is not closed on this line.
func callArgs(s string, open int) (args string, end int, ok bool) {
	if open < 0 || open >= len(s) || s[open] != '(' {
		return "", 0, false
	}
	depth := 0
	for i := open; i < len(s); i++ {
		switch c := s[i]; c {
		case '\'', '"', '`':
			j := skipString(s, i)
			if j < 0 {
				return "", 0, false
			}
			i = j
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				if c != ')' {
					return "", 0, false
				}
				return s[open+1 : i], i, true
			}
		}
	}
	return "", 0, false
}

// skipString returns the index of the quote closing the literal opened at
// s[start], or -1 when it is unterminated.
func skipString(s string, start int) int {
	quote := s[start]
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return -1
}

// splitArgs splits an argument list on top-level commas.
func splitArgs(args string) []string {
	var (
		out   []string
		depth int
		last  int
	)
	for i := 0; i < len(args); i++ {
		switch c := args[i]; c {
		case '\'', '"', '`':
			j := skipString(args, i)
			if j < 0 {
				return append(out, args[last:])
			}
			i = j
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, args[last:i])
				last = i + 1
			}
		}
	}
	return append(out, args[last:])
}

// stringLiteral reports whether arg is a single plain string literal and
// returns its raw contents and quote character. Template literals with
// substitutions are not plain.
func stringLiteral(arg string) (value string, quote byte, ok bool) {
	arg = strings.TrimSpace(arg)
	if len(arg) < 2 {
		return "", 0, false
	}
	quote = arg[0]
	if quote != '\'' && quote != '"' && quote != '`' {
		return "", 0, false
	}
	if skipString(arg, 0) != len(arg)-1 {
		return "", 0, false
	}
	value = arg[1 : len(arg)-1]
	if quote == '`' && strings.Contains(value, "${") {
		return "", 0, false
	}
	return value, quote, true
}

// firstStringArg extracts the first argument of the call whose '(' is at
// s[open] when that argument is a plain string literal.
func firstStringArg(s string, open int) (value string, quote byte, ok bool) {
	args, _, ok := callArgs(s, open)
	if !ok {
		return "", 0, false
	}
	return stringLiteral(splitArgs(args)[0])
}

// depthDelta is the net bracket depth a line opens, ignoring string contents.
func depthDelta(line string) int {
	depth := 0
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\'', '"', '`':
			j := skipString(line, i)
			if j < 0 {
				return depth
			}
			i = j
		case '/':
			if i+1 < len(line) && line[i+1] == '/' {
				return depth
			}
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	return depth
}

// statementEnd returns the index of the line that closes the statement
// beginning at lines[i].
func statementEnd(lines []string, i int) int {
	depth := 0
	for j := i; j < len(lines); j++ {
		depth += depthDelta(lines[j])
		if depth <= 0 {
			return j
		}
	}
	return i
}

// isIdentByte reports whether c may appear in a JavaScript identifier.
func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// renameIdent replaces whole-word uses of from with to, skipping property
// accesses such as obj.from and text inside string literals.
func renameIdent(line, from, to string) string {
	if from == to || !strings.Contains(line, from) {
		return line
	}
	var b strings.Builder
	for i := 0; i < len(line); {
		c := line[i]
		if c == '\'' || c == '"' || c == '`' {
			j := skipString(line, i)
			if j < 0 {
				b.WriteString(line[i:])
				break
			}
			b.WriteString(line[i : j+1])
			i = j + 1
			continue
		}
		if strings.HasPrefix(line[i:], from) &&
			(i == 0 || !isIdentByte(line[i-1]) && line[i-1] != '.') &&
			(i+len(from) == len(line) || !isIdentByte(line[i+len(from)])) {
			b.WriteString(to)
			i += len(from)
			continue
		}
		b.WriteByte(c)
		i++
	}
	return b.String()
}

// quoteAt returns the quote character of the string literal containing
// position pos, or 0 when pos is outside any literal.
func quoteAt(line string, pos int) byte {
	for i := 0; i < len(line) && i < pos; i++ {
		c := line[i]
		if c != '\'' && c != '"' && c != '`' {
			continue
		}
		j := skipString(line, i)
		if j < 0 {
			return c
		}
		if pos < j {
			return c
		}
		i = j
	}
	return 0
}

func indentOf(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}
