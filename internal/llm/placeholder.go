package llm

import "strings"

// PlaceholderMarker prefixes PlaceholderScript so callers can recognise it.
const PlaceholderMarker = "/* AI fallback: no LLM available."

// PlaceholderScript is returned when no candidate produced an answer. It is a
// complete, runnable script that only logs a sentinel value.
const PlaceholderScript = PlaceholderMarker + ` Replace with LLM output if desired. */
const { chromium } = require('playwright');
(async () => {
  const browser = await chromium.launch();
  const page = await browser.newPage();
  await page.goto('https://the-internet.herokuapp.com');
  console.log('FALLBACK_TEST');
  await browser.close();
})();`

// IsPlaceholder reports whether text is (or embeds) the placeholder script.
func IsPlaceholder(text string) bool {
	return strings.Contains(text, PlaceholderMarker)
}
