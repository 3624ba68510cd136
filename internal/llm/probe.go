package llm

import "strings"

// Target is one concrete (URL, dialect) pair the gateway is willing to try.
type Target struct {
	URL     string  `json:"url"`
	Dialect Dialect `json:"dialect"`
	// Label names where the URL came from: configured, host, loopback or remote.
	Label string `json:"label"`
}

// Classification is the dialect inferred from a configured URL's shape.
type Classification struct {
	Dialect Dialect
	// HostRoot is the URL with any recognized dialect suffix stripped.
	HostRoot string
}

// Classify inspects the path suffix of a configured base URL.
func Classify(rawURL string) Classification {
	base := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	switch {
	case strings.HasSuffix(base, chatSuffix):
		return Classification{Dialect: DialectChat, HostRoot: strings.TrimSuffix(base, chatSuffix)}
	case strings.HasSuffix(base, completionSuffix):
		return Classification{Dialect: DialectCompletion, HostRoot: strings.TrimSuffix(base, completionSuffix)}
	case strings.HasSuffix(base, nativeSuffix):
		return Classification{Dialect: DialectNative, HostRoot: strings.TrimSuffix(base, nativeSuffix)}
	default:
		return Classification{Dialect: DialectUnknown, HostRoot: base}
	}
}

// LoopbackVariant swaps a "localhost" host for the loopback literal. Sandboxed
// callers sometimes fail to resolve localhost while 127.0.0.1 works.
func LoopbackVariant(hostRoot string) string {
	return strings.Replace(hostRoot, "://localhost", "://127.0.0.1", 1)
}

// Candidates enumerates the ordered local targets for a configured base URL.
// An empty URL yields no candidates.
func Candidates(rawURL string) []Target {
	base := strings.TrimRight(strings.TrimSpace(rawURL), "/")
	if base == "" {
		return nil
	}

	c := Classify(base)
	host := c.HostRoot
	loopback := LoopbackVariant(host)

	var targets []Target
	switch c.Dialect {
	case DialectChat, DialectCompletion:
		sibling, siblingSuffix := DialectCompletion, completionSuffix
		if c.Dialect == DialectCompletion {
			sibling, siblingSuffix = DialectChat, chatSuffix
		}
		targets = []Target{
			{URL: base, Dialect: c.Dialect, Label: "configured"},
			{URL: host + siblingSuffix, Dialect: sibling, Label: "host"},
			{URL: host + nativeSuffix, Dialect: DialectNative, Label: "host"},
			{URL: loopback + siblingSuffix, Dialect: sibling, Label: "loopback"},
			{URL: loopback + nativeSuffix, Dialect: DialectNative, Label: "loopback"},
		}
	case DialectNative:
		targets = []Target{{URL: base, Dialect: DialectNative, Label: "configured"}}
	default:
		targets = []Target{
			{URL: host + chatSuffix, Dialect: DialectChat, Label: "host"},
			{URL: host + completionSuffix, Dialect: DialectCompletion, Label: "host"},
			{URL: host + nativeSuffix, Dialect: DialectNative, Label: "host"},
		}
	}
	return dedupeTargets(targets)
}

func dedupeTargets(targets []Target) []Target {
	seen := make(map[string]bool, len(targets))
	out := targets[:0]
	for _, t := range targets {
		key := string(t.Dialect) + " " + t.URL
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
