package generator

import "strings"

// heuristic maps scenario keywords to follow-up test ideas.
type heuristic struct {
	keywords []string
	ideas    []string
}

var heuristics = []heuristic{
	{
		keywords: []string{"checkbox", "check", "toggle"},
		ideas: []string{
			"Uncheck an already checked box and assert CHECKED=false",
			"Toggle the same checkbox twice and assert it returns to its initial state",
			"Verify the second checkbox keeps its state when the first one changes",
		},
	},
	{
		keywords: []string{"login", "log in", "sign in", "password", "username"},
		ideas: []string{
			"Submit the form with an empty username and expect a validation message",
			"Use a wrong password and assert the error flash is shown",
			"Log out after a successful login and assert the secure page is no longer reachable",
		},
	},
	{
		keywords: []string{"form", "input", "fill", "type", "enter"},
		ideas: []string{
			"Fill the field with a very long string and check it is truncated or rejected",
			"Enter special characters and assert they are echoed back escaped",
		},
	},
	{
		keywords: []string{"dropdown", "select", "option"},
		ideas: []string{
			"Select each option in turn and assert the selected value",
			"Assert the placeholder option cannot be selected",
		},
	},
	{
		keywords: []string{"upload", "file"},
		ideas: []string{
			"Submit the upload form without choosing a file",
			"Upload a file with a non-ASCII name and assert it is listed",
		},
	},
	{
		keywords: []string{"link", "navigate", "click", "page"},
		ideas: []string{
			"Navigate back after following the link and assert the original page is restored",
			"Assert the target page returns without a console error",
		},
	},
}

var genericIdeas = []string{
	"Reload the page mid-scenario and assert the state is consistent",
	"Run the scenario with JavaScript disabled and assert a graceful failure",
	"Run the scenario on a narrow mobile viewport",
}

// HeuristicSuggestions derives edge-case ideas from scenario keywords alone.
// It is used when no model answered the suggestion prompt.
func HeuristicSuggestions(scenario string) []string {
	lower := strings.ToLower(scenario)
	var out []string
	for _, h := range heuristics {
		for _, kw := range h.keywords {
			if strings.Contains(lower, kw) {
				out = append(out, h.ideas...)
				break
			}
		}
	}
	out = append(out, genericIdeas...)
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}
