package script

import (
	"regexp"
	"strconv"
	"strings"
)

// Rule is one normalization step. Rules leave anything they cannot parse
// untouched and never fail.
type Rule interface {
	Name() string
	Apply(p *Program, scenario string)
}

const (
	chromiumImport = "const { chromium } = require('playwright');"
	assertImport   = "const assert = require('assert');"
)

var (
	chromiumUse = regexp.MustCompile(`(?:^|[^\w$.])chromium\.`)

	iifeOpen  = regexp.MustCompile(`^\(\s*async\s*(?:\(\s*\)\s*=>|function\s*[\w$]*\s*\(\s*\))\s*\{\s*$`)
	iifeClose = regexp.MustCompile(`^\}\s*\)\s*\(\s*\)(?:\.catch\(.*\))?\s*;?$`)
	iifeChain = regexp.MustCompile(`^\}\s*\)\s*\(\s*\)\s*\.(?:catch|then|finally)\(`)

	launchDecl  = regexp.MustCompile(`^(\s*)(?:(?:const|let|var)\s+)?([A-Za-z_$][\w$]*)\s*=\s*await\s+[A-Za-z_$][\w$.]*\.launch\(`)
	contextDecl = regexp.MustCompile(`^(\s*)(?:(?:const|let|var)\s+)?([A-Za-z_$][\w$]*)\s*=\s*await\s+([A-Za-z_$][\w$]*)\.newContext\(`)
	pageDecl    = regexp.MustCompile(`^(\s*)(?:(?:const|let|var)\s+)?([A-Za-z_$][\w$]*)\s*=\s*await\s+([A-Za-z_$][\w$]*)\.newPage\(`)
	frameDecl   = regexp.MustCompile(`^\s*(?:(?:const|let|var)\s+)?([A-Za-z_$][\w$]*)\s*=\s*(?:await\s+)?[A-Za-z_$][\w$]*\.(?:frame\(|mainFrame\(|waitForEvent\(\s*['"](?:page|popup)['"])`)

	assignedName = regexp.MustCompile(`(?:^|[^\w$.])([A-Za-z_$][\w$]*)\s*=(?:[^=>]|$)`)
	pageLikeName = regexp.MustCompile(`^(?:page|frame|popup)[\w$]*$|(?:Page|Frame|Popup)$`)

	closeChain   = regexp.MustCompile(`^\s*\.(?:catch|then|finally)\(`)
	finallyBlock = regexp.MustCompile(`(?:^|[^\w$.])finally\s*\{`)
	awaitBefore  = regexp.MustCompile(`(?:^|[^\w$.])(await)\s*$`)
	braceless    = regexp.MustCompile(`(?:\)|(?:^|[^\w$.])else)$`)

	launchCall     = regexp.MustCompile(`\.launch\(`)
	headlessValue  = regexp.MustCompile(`headless\s*:\s*(?:true|false|[A-Za-z_$][\w$.]*|'[^']*'|"[^"]*")`)
	headlessLine   = regexp.MustCompile(`^(\s*)headless\s*:`)
	gotoCall       = regexp.MustCompile(`(?:^|[^\w$.])([A-Za-z_$][\w$]*)\.goto\(`)
	legacyIdle     = regexp.MustCompile("(['\"`])networkidle[02](['\"`])")
	interaction    = regexp.MustCompile(`(?:^|[^\w$.])([A-Za-z_$][\w$]*)\.(?:click|fill|check|uncheck|selectOption|textContent|innerText)\(`)
	waitCall       = regexp.MustCompile(`\.waitForSelector\(`)
	waitStatement  = regexp.MustCompile(`^await\s+[A-Za-z_$][\w$]*\.waitFor[A-Za-z]*\(`)
	checkedLog     = regexp.MustCompile(`console\.log\(\s*(await\s+[^;]*?\.isChecked\([^;]*?\))\s*\)`)
	checkedAssign  = regexp.MustCompile(`(?:^|[^\w$.])([A-Za-z_$][\w$]*)\s*=\s*await\s+[^;]*\.isChecked\(`)
	destructureKey = regexp.MustCompile(`^\s*([A-Za-z_$][\w$]*)\s*(?::\s*([A-Za-z_$][\w$]*))?\s*$`)
)

// declaration is a browser, context or page assignment found in the body.
type declaration struct {
	index    int
	indent   string
	name     string
	receiver string
}

func findDeclarations(lines []string, re *regexp.Regexp) []declaration {
	var out []declaration
	for i, line := range lines {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		d := declaration{index: i, indent: m[1], name: m[2]}
		if len(m) > 3 {
			d.receiver = m[3]
		}
		out = append(out, d)
	}
	return out
}

type fenceRule struct{}

func (fenceRule) Name() string { return "fence" }

func (fenceRule) Apply(p *Program, _ string) {
	body := p.Body[:0:0]
	for _, line := range p.Body {
		if fenceLine.MatchString(strings.TrimSpace(line)) {
			continue
		}
		body = append(body, line)
	}
	p.Body = body
}

type importRule struct{}

func (importRule) Name() string { return "imports" }

func (importRule) Apply(p *Program, _ string) {
	var chromiumBound, playwright, hasAssert bool
	for _, stmt := range p.Imports {
		module, binding := importModule(stmt)
		if strings.Contains(module, "playwright") {
			playwright = true
		}
		if module == "assert" || module == "node:assert" || strings.HasPrefix(module, "assert/") || strings.HasPrefix(module, "node:assert/") {
			hasAssert = true
		}
		if bindsName(binding, "chromium") {
			chromiumBound = true
		}
	}

	body := strings.Join(p.Body, "\n")
	if !chromiumBound && (!playwright || chromiumUse.MatchString(body) || !strings.Contains(body, ".launch(")) {
		p.Imports = append([]string{chromiumImport}, p.Imports...)
	}
	if !hasAssert {
		p.Imports = append(p.Imports, assertImport)
	}
}

// bindsName reports whether a require binding introduces the local name.
func bindsName(binding, name string) bool {
	binding = strings.TrimSpace(binding)
	if !strings.HasPrefix(binding, "{") {
		return binding == name
	}
	for _, part := range strings.Split(strings.Trim(binding, "{}"), ",") {
		m := destructureKey.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		local := m[1]
		if m[2] != "" {
			local = m[2]
		}
		if local == name {
			return true
		}
	}
	return false
}

type wrapRule struct{}

func (wrapRule) Name() string { return "wrap" }

func (wrapRule) Apply(p *Program, _ string) {
	body := dedent(p.Body)
	var opens, closes, tails []int
	for i := 0; i < len(body); i++ {
		line := body[i]
		switch {
		case iifeOpen.MatchString(line):
			opens = append(opens, i)
		case iifeClose.MatchString(line):
			closes = append(closes, i)
		case iifeChain.MatchString(line):
			// })().catch(err => { ... }); spans several lines and goes
			// with the wrapper.
			closes = append(closes, i)
			end := blockEnd(body, i, strings.IndexByte(line, '.'))
			for j := i + 1; j <= end; j++ {
				tails = append(tails, j)
			}
			i = end
		}
	}
	if len(opens) > 0 && len(opens) == len(closes) {
		drop := make(map[int]bool, len(opens)*2+len(tails))
		for _, i := range append(append(opens, closes...), tails...) {
			drop[i] = true
		}
		kept := make([]string, 0, len(body))
		for i, line := range body {
			if !drop[i] {
				kept = append(kept, line)
			}
		}
		body = dedent(kept)
	}
	p.Body = body
	p.Wrapped = true
}

// blockEnd returns the line where the brackets opened from lines[i][from:]
// are balanced again.
func blockEnd(lines []string, i, from int) int {
	depth := depthDelta(lines[i][from:])
	j := i
	for depth > 0 && j+1 < len(lines) {
		j++
		depth += depthDelta(lines[j])
	}
	return j
}

type lifecycleRule struct{}

func (lifecycleRule) Name() string { return "lifecycle" }

func (lifecycleRule) Apply(p *Program, _ string) {
	lines := p.Body

	launches := findDeclarations(lines, launchDecl)
	if len(launches) == 0 {
		lines = insertLines(lines, 0, "const browser = await chromium.launch();")
		launches = findDeclarations(lines, launchDecl)
	}
	launch := launches[0]
	browser := launch.name

	context := ""
	for _, d := range findDeclarations(lines, contextDecl) {
		if d.receiver == browser {
			context = d.name
			break
		}
	}
	if context == "" {
		context = "context"
		at := statementEnd(lines, launch.index) + 1
		lines = insertLines(lines, at, launch.indent+"const context = await "+browser+".newContext();")
	}

	directPage := regexp.MustCompile(`(^|[^\w$.])` + regexp.QuoteMeta(browser) + `\.newPage\(`)
	for i, line := range lines {
		lines[i] = directPage.ReplaceAllString(line, "${1}"+literalReplacement(context)+".newPage(")
	}

	hasPage := false
	for _, d := range findDeclarations(lines, pageDecl) {
		if d.receiver == context {
			hasPage = true
			break
		}
	}
	if !hasPage {
		for _, d := range findDeclarations(lines, contextDecl) {
			if d.name == context {
				at := statementEnd(lines, d.index) + 1
				lines = insertLines(lines, at, d.indent+"const page = await "+context+".newPage();")
				break
			}
		}
	}

	p.Body = placeClose(lines, browser)
}

// placeClose leaves exactly one close call on browser. A close inside a
// finally block or an arrow callback is kept where it is. Otherwise every
// close is removed and one is added back as the last statement of the block
// that launched the browser.
func placeClose(lines []string, browser string) []string {
	sites := findCloses(lines, browser)
	keep := -1
	for k, s := range sites {
		if s.inFinally || s.callback {
			keep = k
			break
		}
	}

	stmt := ""
	drop := map[int]bool{}
	for k := len(sites) - 1; k >= 0; k-- {
		s := sites[k]
		if k == keep || s.callback {
			continue
		}
		line := lines[s.line]
		if s.multiline {
			if strings.TrimSpace(line[:s.start]) != "" {
				continue
			}
			for j := s.line; j <= statementEnd(lines, s.line); j++ {
				drop[j] = true
			}
			continue
		}
		if s.chained && stmt == "" {
			stmt = closeText(line[s.start:s.end])
		}
		if lines[s.line] = cutStatement(line, s.start, s.end); lines[s.line] == "" {
			drop[s.line] = true
		}
	}

	kept := make([]string, 0, len(lines)+1)
	for i, line := range lines {
		if !drop[i] {
			kept = append(kept, line)
		}
	}
	kept = tidy(kept)
	if keep >= 0 {
		return kept
	}

	launches := findDeclarations(kept, launchDecl)
	if len(launches) == 0 {
		return kept
	}
	launch := launches[0]
	if stmt == "" {
		stmt = "await " + browser + ".close();"
	}
	stmt = launch.indent + stmt
	if launch.indent == "" {
		return append(kept, stmt)
	}
	for j := statementEnd(kept, launch.index) + 1; j < len(kept); j++ {
		if strings.TrimSpace(kept[j]) != "" && len(indentOf(kept[j])) < len(launch.indent) {
			return insertLines(kept, j, stmt)
		}
	}
	return append(kept, stmt)
}

// closeSite is one browser.close() call. start and end bound its statement,
// including a leading await, a chained handler and the semicolon.
type closeSite struct {
	line, start, end int
	chained          bool
	multiline        bool
	inFinally        bool
	callback         bool
}

func findCloses(lines []string, browser string) []closeSite {
	call := regexp.MustCompile(`(?:^|[^\w$.])(` + regexp.QuoteMeta(browser) + `)\.close\(`)
	finals := finallyBlocks(lines)

	var sites []closeSite
	for i, line := range lines {
		for _, m := range call.FindAllStringSubmatchIndex(line, -1) {
			if quoteAt(line, m[2]) != 0 {
				continue
			}
			s := closeSite{line: i, start: m[2]}
			if a := awaitBefore.FindStringSubmatchIndex(line[:m[2]]); a != nil {
				s.start = a[2]
			}

			_, end, ok := callArgs(line, m[1]-1)
			if ok {
				if c := closeChain.FindStringIndex(line[end+1:]); c != nil {
					s.chained = true
					_, end, ok = callArgs(line, end+c[1])
				}
			}
			if ok {
				end++
				if rest := strings.TrimLeft(line[end:], " \t"); strings.HasPrefix(rest, ";") {
					end = len(line) - len(rest) + 1
				}
			} else {
				s.multiline = true
				end = len(line)
			}
			s.end = end

			s.callback = strings.HasSuffix(strings.TrimRight(line[:s.start], " \t"), "=>")
			s.inFinally = finals.contain(i, s.start)
			sites = append(sites, s)
		}
	}
	return sites
}

// block is a brace-delimited region opened at lines[line][pos].
type block struct{ line, pos, end int }

type blocks []block

func finallyBlocks(lines []string) blocks {
	var out blocks
	for i, line := range lines {
		for _, m := range finallyBlock.FindAllStringIndex(line, -1) {
			open := m[1] - 1
			if quoteAt(line, open) != 0 {
				continue
			}
			out = append(out, block{line: i, pos: open, end: blockEnd(lines, i, open)})
		}
	}
	return out
}

func (bs blocks) contain(line, pos int) bool {
	for _, b := range bs {
		if line > b.line && line <= b.end || line == b.line && pos > b.pos {
			return true
		}
	}
	return false
}

// cutStatement removes line[start:end]. A braceless if or else left without
// a body gets an empty one.
func cutStatement(line string, start, end int) string {
	left := strings.TrimRight(line[:start], " \t")
	right := line[end:]
	if strings.TrimSpace(left) == "" {
		if rest := strings.TrimSpace(right); rest != "" {
			return indentOf(line) + rest
		}
		return ""
	}
	if braceless.MatchString(left) {
		left += " {}"
	}
	return left + right
}

func closeText(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if !strings.HasPrefix(stmt, "await ") {
		stmt = "await " + stmt
	}
	if !strings.HasSuffix(stmt, ";") {
		stmt += ";"
	}
	return stmt
}

type launchOptionsRule struct {
	headless bool
}

func (launchOptionsRule) Name() string { return "launch-options" }

func (r launchOptionsRule) Apply(p *Program, _ string) {
	option := "headless: " + strconv.FormatBool(r.headless)
	for i := 0; i < len(p.Body); i++ {
		line := p.Body[i]
		loc := launchCall.FindStringIndex(line)
		if loc == nil {
			continue
		}
		open := loc[1] - 1
		args, end, ok := callArgs(line, open)
		if !ok {
			p.Body = r.applyMultiline(p.Body, i, option)
			continue
		}

		trimmed := strings.TrimSpace(args)
		var replaced string
		switch {
		case trimmed == "":
			replaced = "{ " + option + " }"
		case strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") && len(splitArgs(trimmed)) == 1:
			inner := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
			switch {
			case headlessValue.MatchString(inner):
				replaced = "{ " + headlessValue.ReplaceAllString(inner, option) + " }"
			case inner == "":
				replaced = "{ " + option + " }"
			default:
				replaced = "{ " + option + ", " + inner + " }"
			}
		default:
			continue
		}
		p.Body[i] = line[:open+1] + replaced + line[end:]
	}
}

// applyMultiline handles a launch whose option object spans several lines.
func (launchOptionsRule) applyMultiline(lines []string, i int, option string) []string {
	line := lines[i]
	loc := launchCall.FindStringIndex(line)
	if strings.TrimSpace(line[loc[1]:]) != "{" {
		return lines
	}
	end := statementEnd(lines, i)
	if end == i {
		return lines
	}
	for j := i + 1; j < end; j++ {
		if headlessLine.MatchString(lines[j]) {
			lines[j] = headlessValue.ReplaceAllString(lines[j], option)
			return lines
		}
	}
	indent := indentOf(line) + "  "
	if i+1 < end {
		indent = indentOf(lines[i+1])
	}
	return insertLines(lines, i+1, indent+option+",")
}

type urlRule struct {
	root string
}

func (urlRule) Name() string { return "urls" }

func (r urlRule) Apply(p *Program, _ string) {
	root := strings.TrimRight(r.root, "/")
	for i, line := range p.Body {
		line = legacyIdle.ReplaceAllString(line, "${1}networkidle${2}")
		if root != "" {
			line = r.absolutize(line, root)
		}
		p.Body[i] = line
	}
}

func (urlRule) absolutize(line, root string) string {
	for from := 0; ; {
		loc := gotoCall.FindStringIndex(line[from:])
		if loc == nil {
			return line
		}
		open := from + loc[1] - 1
		from = open + 1
		args, _, ok := callArgs(line, open)
		if !ok {
			continue
		}
		first := splitArgs(args)[0]
		value, quote, ok := stringLiteral(first)
		if !ok || !strings.HasPrefix(value, "/") || strings.HasPrefix(value, "//") {
			continue
		}
		start := open + 1 + len(first) - len(strings.TrimLeft(first, " \t"))
		end := start + len(strings.TrimSpace(first))
		lit := string(quote) + root + value + string(quote)
		line = line[:start] + lit + line[end:]
		from = start + len(lit)
	}
}

type waitRule struct {
	lookback int
}

func (waitRule) Name() string { return "waits" }

func (r waitRule) Apply(p *Program, _ string) {
	isPage := pageReceivers(p.Body)
	out := make([]string, 0, len(p.Body))
	for _, line := range p.Body {
		type target struct{ receiver, literal string }
		var missing []target
		seen := map[string]bool{}
		for _, m := range interaction.FindAllStringSubmatchIndex(line, -1) {
			receiver := line[m[2]:m[3]]
			if !isPage(receiver) {
				continue
			}
			open := m[1] - 1
			value, quote, ok := firstStringArg(line, open)
			if !ok || seen[value] {
				continue
			}
			seen[value] = true
			if r.waitedFor(out, line[:m[0]], value) {
				continue
			}
			missing = append(missing, target{
				receiver: receiver,
				literal:  string(quote) + value + string(quote),
			})
		}
		for _, t := range missing {
			out = append(out, indentOf(line)+"await "+t.receiver+".waitForSelector("+t.literal+");")
		}
		out = append(out, line)
	}
	p.Body = out
}

// pageReceivers reports whether a name holds a page or frame. Names created
// with newPage, frame or a popup event qualify, as do unassigned names such
// as function parameters that look like one. Locators and element handles
// have no waitForSelector and never qualify.
func pageReceivers(lines []string) func(string) bool {
	pages := map[string]bool{}
	assigned := map[string]bool{}
	for _, line := range lines {
		if m := pageDecl.FindStringSubmatch(line); m != nil {
			pages[m[2]] = true
		}
		if m := frameDecl.FindStringSubmatch(line); m != nil {
			pages[m[1]] = true
		}
		for _, m := range assignedName.FindAllStringSubmatchIndex(line, -1) {
			if quoteAt(line, m[2]) == 0 {
				assigned[line[m[2]:m[3]]] = true
			}
		}
	}
	return func(name string) bool {
		return pages[name] || !assigned[name] && pageLikeName.MatchString(name)
	}
}

// waitedFor reports whether selector already has a wait in the run of wait
// statements directly above, in the lookback statements before that run, or
// earlier on the same line.
func (r waitRule) waitedFor(above []string, prefix, selector string) bool {
	if containsWait(prefix, selector) {
		return true
	}
	k := len(above) - 1
	for ; k >= 0; k-- {
		trimmed := strings.TrimSpace(above[k])
		if trimmed != "" && !waitStatement.MatchString(trimmed) {
			break
		}
		if containsWait(trimmed, selector) {
			return true
		}
	}
	for n := 0; k >= 0 && n < r.lookback; k-- {
		if strings.TrimSpace(above[k]) == "" {
			continue
		}
		if containsWait(above[k], selector) {
			return true
		}
		n++
	}
	return false
}

func containsWait(line, selector string) bool {
	for _, loc := range waitCall.FindAllStringIndex(line, -1) {
		if value, _, ok := firstStringArg(line, loc[1]-1); ok && value == selector {
			return true
		}
	}
	return false
}

type labelRule struct{}

func (labelRule) Name() string { return "labels" }

func (labelRule) Apply(p *Program, _ string) {
	var vars []string
	seen := map[string]bool{}
	for i, line := range p.Body {
		p.Body[i] = checkedLog.ReplaceAllString(line, "console.log('CHECKED=' + ${1})")
		for _, m := range checkedAssign.FindAllStringSubmatch(line, -1) {
			if !seen[m[1]] {
				seen[m[1]] = true
				vars = append(vars, m[1])
			}
		}
	}
	for _, v := range vars {
		bare := regexp.MustCompile(`console\.log\(\s*` + regexp.QuoteMeta(v) + `\s*\)`)
		for i, line := range p.Body {
			p.Body[i] = bare.ReplaceAllString(line, "console.log('CHECKED=' + "+literalReplacement(v)+")")
		}
	}
}

type dedupeRule struct{}

func (dedupeRule) Name() string { return "dedupe" }

func (dedupeRule) Apply(p *Program, _ string) {
	seen := make(map[string]bool, len(p.Imports))
	imports := p.Imports[:0:0]
	for _, stmt := range p.Imports {
		if seen[stmt] {
			continue
		}
		seen[stmt] = true
		imports = append(imports, stmt)
	}
	p.Imports = imports

	lines, browser := keepOne(p.Body, launchDecl, func([]declaration) int { return 0 })
	if browser != "" {
		lines = placeClose(lines, browser)
	}

	var context string
	lines, context = keepOne(lines, contextDecl, preferReceiver(browser))
	lines, _ = keepOne(lines, pageDecl, preferReceiver(context))
	p.Body = lines
}

// preferReceiver picks the first declaration created from receiver, falling
// back to the first declaration.
func preferReceiver(receiver string) func([]declaration) int {
	return func(decls []declaration) int {
		for i, d := range decls {
			if receiver != "" && d.receiver == receiver {
				return i
			}
		}
		return 0
	}
}

// keepOne removes all but one declaration matched by re and renames the
// identifiers of the removed ones to the kept name.
func keepOne(lines []string, re *regexp.Regexp, pick func([]declaration) int) ([]string, string) {
	decls := findDeclarations(lines, re)
	if len(decls) == 0 {
		return lines, ""
	}
	keep := decls[pick(decls)]
	if len(decls) == 1 {
		return lines, keep.name
	}

	drop := map[int]bool{}
	var renames []string
	for _, d := range decls {
		if d.index == keep.index {
			continue
		}
		for j := d.index; j <= statementEnd(lines, d.index); j++ {
			drop[j] = true
		}
		if d.name != keep.name {
			renames = append(renames, d.name)
		}
	}

	out := make([]string, 0, len(lines))
	for i, line := range lines {
		if drop[i] {
			continue
		}
		for _, from := range renames {
			line = renameIdent(line, from, keep.name)
		}
		out = append(out, line)
	}
	return out, keep.name
}

// literalReplacement escapes identifier text for use in a regexp template.
func literalReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}
