package generator

import (
	"regexp"
	"strings"
)

var checkboxScenario = regexp.MustCompile(`(?i)checkbox`)

const checkboxScript = `const { chromium } = require('playwright');
(async () => {
  const browser = await chromium.launch();
  const page = await browser.newPage();
  await page.goto('{{site}}/checkboxes');
  const checkboxes = await page.$$('input[type=checkbox]');
  if (checkboxes.length === 0) {
    console.error('NO_CHECKBOXES');
    await browser.close();
    process.exit(1);
  }
  await checkboxes[0].check();
  const checked = await checkboxes[0].isChecked();
  console.log('CHECKED=' + checked);
  await browser.close();
})();
`

const smokeScript = `const { chromium } = require('playwright');
(async () => {
  const browser = await chromium.launch();
  const page = await browser.newPage();
  await page.goto('{{site}}');
  console.log('FALLBACK_TEST');
  await browser.close();
})();
`

// CannedScript returns the built-in script used when no model produced code:
// a checkbox toggle for checkbox scenarios, otherwise a page-load smoke test.
func CannedScript(scenario, targetSite string) string {
	tmpl := smokeScript
	if checkboxScenario.MatchString(scenario) {
		tmpl = checkboxScript
	}
	return strings.ReplaceAll(tmpl, "{{site}}", strings.TrimRight(targetSite, "/"))
}
