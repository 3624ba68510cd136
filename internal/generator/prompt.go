package generator

import "fmt"

const generationPrompt = `You are an assistant that writes Playwright tests in JavaScript (CommonJS).
Target site: %s
Scenario: %s
Produce a single, executable Node.js test script using Playwright (chromium). Include required imports, clear steps, and console.log assertions. Keep it concise and only return code.`

const suggestionPrompt = `You are a testing assistant. Given this scenario:
%s
and this Playwright test:
%s
Provide 5 concise edge-case or negative test ideas, one per line.`

// GenerationPrompt asks the model for a complete script for scenario.
func GenerationPrompt(targetSite, scenario string) string {
	return fmt.Sprintf(generationPrompt, targetSite, scenario)
}

// SuggestionPrompt asks the model for follow-up test ideas.
func SuggestionPrompt(scenario, script string) string {
	return fmt.Sprintf(suggestionPrompt, scenario, script)
}
