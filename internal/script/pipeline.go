// Package script turns model output into a runnable Playwright CommonJS
// program.
package script

import "strings"

// DefaultLookback is how many statements above a wait run are searched for an
// existing wait on the same selector.
const DefaultLookback = 3

// maxPasses bounds the fixpoint loop in Normalize.
const maxPasses = 4

// Options configures a Pipeline.
type Options struct {
	// TargetSite is the root that relative navigations are resolved against.
	TargetSite string
	// Headless is forced onto every browser launch.
	Headless bool
	Lookback int
	// FixtureRepair enables FixtureRule.
	FixtureRepair bool
}

// Pipeline applies an ordered list of rules to generated code.
type Pipeline struct {
	rules []Rule
}

// NewPipeline builds the standard rule list for opts.
func NewPipeline(opts Options) *Pipeline {
	if opts.Lookback <= 0 {
		opts.Lookback = DefaultLookback
	}
	rules := []Rule{
		fenceRule{},
		importRule{},
		wrapRule{},
		lifecycleRule{},
		launchOptionsRule{headless: opts.Headless},
		urlRule{root: opts.TargetSite},
		waitRule{lookback: opts.Lookback},
		labelRule{},
		dedupeRule{},
	}
	if opts.FixtureRepair {
		rules = append(rules, FixtureRule{})
	}
	return &Pipeline{rules: rules}
}

// WithRules returns a pipeline running exactly rules, in order.
func WithRules(rules ...Rule) *Pipeline {
	return &Pipeline{rules: rules}
}

// RuleNames lists the rules in application order.
func (p *Pipeline) RuleNames() []string {
	names := make([]string, len(p.rules))
	for i, r := range p.rules {
		names[i] = r.Name()
	}
	return names
}

// Normalize applies every rule to code and renders the result. The rule pass
// repeats until the output stops changing, so normalizing an already
// normalized script returns it unchanged.
func (p *Pipeline) Normalize(code, scenarioHint string) string {
	out := strings.TrimSpace(code)
	for i := 0; i < maxPasses; i++ {
		prog := Parse(out)
		for _, r := range p.rules {
			r.Apply(prog, scenarioHint)
		}
		next := prog.Render()
		if next == out {
			break
		}
		out = next
	}
	return out
}
