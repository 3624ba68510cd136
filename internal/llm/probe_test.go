package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func urls(targets []Target) []string {
	out := make([]string, len(targets))
	for i, t := range targets {
		out[i] = string(t.Dialect) + " " + t.URL
	}
	return out
}

func TestClassify(t *testing.T) {
	tests := []struct {
		in      string
		dialect Dialect
		host    string
	}{
		{"http://localhost:1234/v1/chat/completions", DialectChat, "http://localhost:1234"},
		{"http://localhost:1234/v1/completions/", DialectCompletion, "http://localhost:1234"},
		{"http://localhost:11434/api/generate", DialectNative, "http://localhost:11434"},
		{"http://localhost:11434", DialectUnknown, "http://localhost:11434"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c := Classify(tt.in)
			assert.Equal(t, tt.dialect, c.Dialect)
			assert.Equal(t, tt.host, c.HostRoot)
		})
	}
}

func TestCandidatesChatURL(t *testing.T) {
	got := Candidates("http://localhost:1234/v1/chat/completions")
	assert.Equal(t, []string{
		"chat http://localhost:1234/v1/chat/completions",
		"completion http://localhost:1234/v1/completions",
		"native http://localhost:1234/api/generate",
		"completion http://127.0.0.1:1234/v1/completions",
		"native http://127.0.0.1:1234/api/generate",
	}, urls(got))
	assert.Equal(t, "configured", got[0].Label)
	assert.Equal(t, "loopback", got[4].Label)
}

func TestCandidatesCompletionURLUsesChatSibling(t *testing.T) {
	got := Candidates("http://localhost:1234/v1/completions")
	assert.Equal(t, []string{
		"completion http://localhost:1234/v1/completions",
		"chat http://localhost:1234/v1/chat/completions",
		"native http://localhost:1234/api/generate",
		"chat http://127.0.0.1:1234/v1/chat/completions",
		"native http://127.0.0.1:1234/api/generate",
	}, urls(got))
}

func TestCandidatesLoopbackHostIsNotDuplicated(t *testing.T) {
	got := Candidates("http://127.0.0.1:1234/v1/chat/completions")
	assert.Len(t, got, 3)
}

func TestCandidatesNativeURLOnly(t *testing.T) {
	got := Candidates("http://localhost:11434/api/generate")
	assert.Equal(t, []string{"native http://localhost:11434/api/generate"}, urls(got))
}

func TestCandidatesBareHost(t *testing.T) {
	got := Candidates("http://gpu-box:8080/")
	assert.Equal(t, []string{
		"chat http://gpu-box:8080/v1/chat/completions",
		"completion http://gpu-box:8080/v1/completions",
		"native http://gpu-box:8080/api/generate",
	}, urls(got))
}

func TestCandidatesEmpty(t *testing.T) {
	assert.Empty(t, Candidates(""))
	assert.Empty(t, Candidates("   "))
}
