package script

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline() *Pipeline {
	return NewPipeline(Options{TargetSite: "https://example.test/"})
}

var samples = map[string]string{
	"bare statements": `await page.goto('/login');
await page.fill('#username', 'tomsmith');
await page.click('button[type="submit"]');`,

	"wrapped with direct page": `const { chromium } = require('playwright');

(async () => {
  const browser = await chromium.launch({ headless: true });
  const page = await browser.newPage();
  await page.goto('/checkboxes');
  const checkbox = await page.$('#checkboxes input');
  await checkbox.check();
  console.log(await checkbox.isChecked());
  await browser.close();
})();`,

	"es module imports": `import { chromium } from 'playwright';
import assert from 'assert';

(async function () {
	const browser = await chromium.launch();
	const context = await browser.newContext();
	const page = await context.newPage();
	await page.goto("/", { waitUntil: "networkidle2" });
	assert.ok(await page.textContent("h1"));
	await browser.close();
})();`,

	"try finally": `const { chromium } = require('playwright');
(async () => {
  let browser;
  try {
    browser = await chromium.launch();
    const page = await browser.newPage();
    await page.goto('/');
  } finally {
    await browser.close();
  }
})();`,

	"named main function": `const { chromium } = require('playwright');
async function main() {
  const browser = await chromium.launch();
  const page = await browser.newPage();
  await page.click('text=Login');
  await browser.close();
}
main();`,

	"duplicate declarations": `const { chromium } = require('playwright');
const { chromium } = require('playwright');
(async () => {
  const browser = await chromium.launch();
  const context = await browser.newContext();
  const page = await context.newPage();
  const page2 = await browser.newPage();
  await page2.goto('https://example.test/');
  await browser.close();
  await browser.close();
})();`,

	"multiline launch": "const { chromium } = require('playwright');\r\n(async () => {\r\n  const browser = await chromium.launch({\r\n    slowMo: 50,\r\n  });\r\n  const page = await browser.newPage();\r\n  await page.check('#a'); await page.uncheck('#b');\r\n})();",

	"locator receivers": `const { chromium } = require('playwright');
(async () => {
  const browser = await chromium.launch();
  const page = await browser.newPage();
  await page.goto('/login');
  const input = page.locator('#username');
  await input.fill('tomsmith');
  const password = await page.$('#password');
  await password.fill('SuperSecretPassword!');
  await page.getByRole('button').click();
  await browser.close();
})();`,

	"inline finally close": `const { chromium } = require('playwright');
(async () => {
  const browser = await chromium.launch();
  try {
    const page = await browser.newPage();
    await page.goto('/');
  } finally { await browser.close(); }
})();`,

	"close with catch handler": `(async () => {
  const browser = await chromium.launch();
  const page = await browser.newPage();
  await page.goto('/');
  await browser.close().catch(() => {});
  console.log('done');
})();`,

	"wrapper with catch block": `const { chromium } = require('playwright');

(async () => {
  const browser = await chromium.launch();
  const page = await browser.newPage();
  await page.goto('/');
  await browser.close();
})().catch((err) => {
  console.error(err);
  process.exit(1);
});`,

	"fenced leftovers": "```js\nawait page.goto('/');\nawait page.click('a:has-text(\"Home, sweet\")');\n```",

	"empty": "",
}

func TestNormalizeIsIdempotent(t *testing.T) {
	p := newTestPipeline()
	for name, in := range samples {
		t.Run(name, func(t *testing.T) {
			once := p.Normalize(in, "")
			assert.Equal(t, once, p.Normalize(once, ""))
		})
	}
}

func TestNormalizeInvariants(t *testing.T) {
	p := newTestPipeline()
	pageLine := regexp.MustCompile(`(?m)^\s*(?:const|let|var)\s+\w+\s*=\s*await\s+\w+\.newPage\(`)
	closeCall := regexp.MustCompile(`\bbrowser\.close\(`)
	for name, in := range samples {
		t.Run(name, func(t *testing.T) {
			out := p.Normalize(in, "")
			assert.Len(t, closeCall.FindAllString(out, -1), 1, out)
			assert.Equal(t, 1, strings.Count(out, "(async () => {"), out)
			assert.Equal(t, 1, strings.Count(out, "})("), out)
			assert.NotContains(t, out, "process.exit", out)
			assert.True(t, strings.HasSuffix(out, "})();\n"), out)
			assert.Len(t, pageLine.FindAllString(out, -1), 1, out)
			assert.Equal(t, 1, strings.Count(out, "require('playwright')"), out)
			assert.NotContains(t, out, "```")
		})
	}
}

func TestNormalizeBareStatements(t *testing.T) {
	out := newTestPipeline().Normalize(samples["bare statements"], "log in")

	want := `const { chromium } = require('playwright');
const assert = require('assert');

(async () => {
  const browser = await chromium.launch({ headless: false });
  const context = await browser.newContext();
  const page = await context.newPage();
  await page.goto('https://example.test/login');
  await page.waitForSelector('#username');
  await page.fill('#username', 'tomsmith');
  await page.waitForSelector('button[type="submit"]');
  await page.click('button[type="submit"]');
  await browser.close();
})();
`
	assert.Equal(t, want, out)
}

func TestNormalizeRoutesPagesThroughContext(t *testing.T) {
	out := newTestPipeline().Normalize(samples["wrapped with direct page"], "")

	assert.Contains(t, out, "  const context = await browser.newContext();\n  const page = await context.newPage();\n")
	assert.NotContains(t, out, "browser.newPage(")
	assert.Contains(t, out, "chromium.launch({ headless: false })")
	assert.Contains(t, out, "console.log('CHECKED=' + await checkbox.isChecked());")
	assert.Contains(t, out, "const assert = require('assert');")
}

func TestNormalizeLeavesLocatorsAlone(t *testing.T) {
	out := newTestPipeline().Normalize(samples["locator receivers"], "")

	assert.NotContains(t, out, "waitForSelector", out)
	assert.Contains(t, out, "  await input.fill('tomsmith');\n")
	assert.Contains(t, out, "  await password.fill('SuperSecretPassword!');\n")
}

func TestNormalizeConvertsESImports(t *testing.T) {
	out := newTestPipeline().Normalize(samples["es module imports"], "")

	assert.True(t, strings.HasPrefix(out, "const { chromium } = require('playwright');\nconst assert = require('assert');\n\n"), out)
	assert.NotContains(t, out, "import ")
	assert.Contains(t, out, `await page.goto("https://example.test/", { waitUntil: "networkidle" });`)
	assert.Contains(t, out, `  await page.waitForSelector("h1");`+"\n"+`  assert.ok(await page.textContent("h1"));`)
}

func TestNormalizeKeepsCloseInLaunchBlock(t *testing.T) {
	out := newTestPipeline().Normalize(samples["named main function"], "")
	assert.Contains(t, out, "    await page.click('text=Login');\n    await browser.close();\n  }\n  main();\n")

	out = newTestPipeline().Normalize(samples["close with catch handler"], "")
	assert.True(t, strings.HasSuffix(out, "  console.log('done');\n  await browser.close().catch(() => {});\n})();\n"), out)
}

func TestNormalizeKeepsCloseInFinally(t *testing.T) {
	out := newTestPipeline().Normalize(samples["try finally"], "")
	assert.Contains(t, out, "    await page.goto('https://example.test/');\n  } finally {\n    await browser.close();\n  }\n})();\n")

	out = newTestPipeline().Normalize(samples["inline finally close"], "")
	assert.Contains(t, out, "    await page.goto('https://example.test/');\n  } finally { await browser.close(); }\n})();\n")

	in := `const browser = await chromium.launch();
const page = await browser.newPage();
try {
  await page.goto('/');
  await browser.close();
} finally {
  await browser.close();
}
await browser.close();`
	out = newTestPipeline().Normalize(in, "")
	assert.Contains(t, out, "  try {\n    await page.goto('https://example.test/');\n  } finally {\n    await browser.close();\n  }\n})();\n")
}

func TestNormalizeRemovesInlineCloses(t *testing.T) {
	in := `const browser = await chromium.launch();
const page = await browser.newPage();
page.on('close', () => console.log('closed')); await browser.close();
if (process.env.CI) await browser.close();
await page.goto('/');`
	out := newTestPipeline().Normalize(in, "")

	assert.Contains(t, out, "  page.on('close', () => console.log('closed'));\n  if (process.env.CI) {}\n")
	assert.True(t, strings.HasSuffix(out, "  await page.goto('https://example.test/');\n  await browser.close();\n})();\n"), out)
}

func TestNormalizeKeepsCloseCallback(t *testing.T) {
	in := `const browser = await chromium.launch();
const page = await browser.newPage();
await page.goto('/').finally(() => browser.close());
await browser.close();`
	out := newTestPipeline().Normalize(in, "")

	assert.Contains(t, out, "await page.goto('https://example.test/').finally(() => browser.close());\n})();\n")
	assert.Equal(t, 1, strings.Count(out, "browser.close("))
}

func TestNormalizeUnwrapsWrapperWithCatchBlock(t *testing.T) {
	out := newTestPipeline().Normalize(samples["wrapper with catch block"], "")

	assert.NotContains(t, out, "console.error(err)")
	assert.True(t, strings.HasSuffix(out, "  await page.goto('https://example.test/');\n  await browser.close();\n})();\n"), out)
}

func TestNormalizeDedupesDeclarations(t *testing.T) {
	out := newTestPipeline().Normalize(samples["duplicate declarations"], "")

	assert.NotContains(t, out, "page2")
	assert.Contains(t, out, "await page.goto('https://example.test/');")
	assert.Equal(t, 1, strings.Count(out, ".newContext("))
}

func TestNormalizeMultilineLaunch(t *testing.T) {
	out := newTestPipeline().Normalize(samples["multiline launch"], "")

	assert.Contains(t, out, "chromium.launch({\n    headless: false,\n    slowMo: 50,\n  });\n  const context = await browser.newContext();\n")
	assert.Contains(t, out, "  await page.waitForSelector('#a');\n  await page.waitForSelector('#b');\n  await page.check('#a'); await page.uncheck('#b');\n")
}

func TestLaunchOptions(t *testing.T) {
	tests := []struct {
		name     string
		headless bool
		in       string
		want     string
	}{
		{"no args", false, "chromium.launch()", "chromium.launch({ headless: false })"},
		{"configured headless", true, "chromium.launch()", "chromium.launch({ headless: true })"},
		{"object without headless", false, "chromium.launch({ slowMo: 50 })", "chromium.launch({ headless: false, slowMo: 50 })"},
		{"existing headless forced", false, "chromium.launch({ headless: true, slowMo: 50 })", "chromium.launch({ headless: false, slowMo: 50 })"},
		{"empty object", false, "chromium.launch({})", "chromium.launch({ headless: false })"},
		{"non-object argument", false, "chromium.launch(opts)", "chromium.launch(opts)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := "const browser = await " + tt.in + ";"
			prog := &Program{Body: []string{line}}
			launchOptionsRule{headless: tt.headless}.Apply(prog, "")
			assert.Equal(t, "const browser = await "+tt.want+";", prog.Body[0])
		})
	}
}

func TestURLRewrite(t *testing.T) {
	for _, root := range []string{"https://example.test", "https://example.test/"} {
		prog := &Program{Body: []string{
			`await page.goto("/checkboxes");`,
			"await page.goto('https://other.test/a'); await page.goto(`/b`);",
			`await page.waitForLoadState('networkidle0');`,
		}}
		urlRule{root: root}.Apply(prog, "")
		assert.Equal(t, []string{
			`await page.goto("https://example.test/checkboxes");`,
			"await page.goto('https://other.test/a'); await page.goto(`https://example.test/b`);",
			`await page.waitForLoadState('networkidle');`,
		}, prog.Body, root)
	}
}

func TestWaitInsertion(t *testing.T) {
	rule := waitRule{lookback: DefaultLookback}

	t.Run("inserted before unguarded interaction", func(t *testing.T) {
		prog := &Program{Body: []string{"  await page.click('#go');"}}
		rule.Apply(prog, "")
		assert.Equal(t, []string{"  await page.waitForSelector('#go');", "  await page.click('#go');"}, prog.Body)
	})

	t.Run("existing wait in run is reused", func(t *testing.T) {
		body := []string{
			"await page.waitForSelector('#go');",
			"await page.waitForTimeout(100);",
			"await page.click('#go');",
		}
		prog := &Program{Body: append([]string(nil), body...)}
		rule.Apply(prog, "")
		assert.Equal(t, body, prog.Body)
	})

	t.Run("wait within lookback statements", func(t *testing.T) {
		body := []string{
			"await page.waitForSelector('#name');",
			"await page.fill('#name', 'a');",
			"",
			"await page.fill('#name', 'b');",
		}
		prog := &Program{Body: append([]string(nil), body...)}
		rule.Apply(prog, "")
		assert.Equal(t, body, prog.Body)
	})

	t.Run("wait outside lookback is repeated", func(t *testing.T) {
		prog := &Program{Body: []string{
			"await page.waitForSelector('#name');",
			"await page.fill('#name', 'a');",
			"const a = 1;",
			"const b = 2;",
			"const c = 3;",
			"await page.fill('#name', 'b');",
		}}
		rule.Apply(prog, "")
		assert.Equal(t, 2, strings.Count(strings.Join(prog.Body, "\n"), "waitForSelector('#name')"))
	})

	t.Run("selector with commas and parentheses", func(t *testing.T) {
		prog := &Program{Body: []string{`await page.click('ul:has(li, a) > li:nth-child(2)', { timeout: 500 });`}}
		rule.Apply(prog, "")
		require.Len(t, prog.Body, 2)
		assert.Equal(t, `await page.waitForSelector('ul:has(li, a) > li:nth-child(2)');`, prog.Body[0])
	})

	t.Run("locator and element handle receivers are skipped", func(t *testing.T) {
		body := []string{
			"const page = await context.newPage();",
			"const input = page.locator('#username');",
			"await input.fill('tomsmith');",
			"const submit = page.getByRole('button', { name: 'Login' });",
			"await submit.click();",
			"const handle = await page.$('#password');",
			"await handle.fill('SuperSecretPassword!');",
			"const [first] = await page.$$('input');",
			"await first.check();",
		}
		prog := &Program{Body: append([]string(nil), body...)}
		rule.Apply(prog, "")
		assert.Equal(t, body, prog.Body)
	})

	t.Run("page and frame receivers get waits", func(t *testing.T) {
		prog := &Program{Body: []string{
			"const login = await context.newPage();",
			"await login.fill('#username', 'tomsmith');",
			"const frame = page.frame('editor');",
			"await frame.click('#save');",
		}}
		rule.Apply(prog, "")
		assert.Equal(t, []string{
			"const login = await context.newPage();",
			"await login.waitForSelector('#username');",
			"await login.fill('#username', 'tomsmith');",
			"const frame = page.frame('editor');",
			"await frame.waitForSelector('#save');",
			"await frame.click('#save');",
		}, prog.Body)
	})

	t.Run("dynamic selectors are skipped", func(t *testing.T) {
		body := []string{"await page.click(`#row-${i}`);", "await page.click(selector);", "await page.mouse.click(10, 20);"}
		prog := &Program{Body: append([]string(nil), body...)}
		rule.Apply(prog, "")
		assert.Equal(t, body, prog.Body)
	})
}

func TestLabels(t *testing.T) {
	prog := &Program{Body: []string{
		"const checked = await page.isChecked('#checkboxes input:nth-child(1)');",
		"console.log(checked);",
		"console.log(await page.isChecked('#b'));",
		"console.log('CHECKED=' + checked);",
	}}
	labelRule{}.Apply(prog, "")
	assert.Equal(t, "console.log('CHECKED=' + checked);", prog.Body[1])
	assert.Equal(t, "console.log('CHECKED=' + await page.isChecked('#b'));", prog.Body[2])
	assert.Equal(t, "console.log('CHECKED=' + checked);", prog.Body[3])
}

func TestFixtureRepair(t *testing.T) {
	p := NewPipeline(Options{TargetSite: "https://example.test", FixtureRepair: true})
	in := `await page.goto('/checkboxes');
await page.check('#checkboxes input:nth-child(1)');
console.log(await page.isChecked("#checkboxes input:last-child"));`

	out := p.Normalize(in, "toggle the first checkbox")

	assert.NotContains(t, out, "nth-child")
	assert.NotContains(t, out, "last-child")
	assert.Contains(t, out, "  await page.goto('https://example.test/checkboxes');\n  await page.waitForSelector('#checkboxes');\n")
	assert.Contains(t, out, `await page.check('#checkboxes input[type="checkbox"]:not([checked])');`)
	assert.Contains(t, out, `await page.isChecked("#checkboxes input[type='checkbox'][checked]")`)
	assert.Equal(t, out, p.Normalize(out, "toggle the first checkbox"))
	assert.Contains(t, p.RuleNames(), "fixture")
}

func TestFixtureRepairDisabledByDefault(t *testing.T) {
	out := newTestPipeline().Normalize("await page.check('#checkboxes input:nth-child(1)');", "checkbox")
	assert.Contains(t, out, "nth-child(1)")
	assert.NotContains(t, newTestPipeline().RuleNames(), "fixture")
}

func TestWithRulesRunsOnlyGivenRules(t *testing.T) {
	out := WithRules(fenceRule{}).Normalize("```js\nconsole.log(1);\n```", "")
	assert.Equal(t, "console.log(1);\n", out)
}
