package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Dialect is a request/response JSON convention spoken by a model server.
type Dialect string

const (
	DialectChat       Dialect = "chat"
	DialectCompletion Dialect = "completion"
	DialectNative     Dialect = "native"
	DialectUnknown    Dialect = "unknown"
)

// Path suffixes that identify a dialect from a URL.
const (
	chatSuffix       = "/v1/chat/completions"
	completionSuffix = "/v1/completions"
	nativeSuffix     = "/api/generate"
)

// GenerationOptions are the sampling knobs sent with every request.
type GenerationOptions struct {
	MaxTokens   int
	Temperature float64
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

type nativeOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict"`
}

type nativeRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options nativeOptions `json:"options"`
}

// nativeResponse covers the answer field names used by different native
// servers. They are read in declaration order.
type nativeResponse struct {
	Response      *string `json:"response"`
	Text          *string `json:"text"`
	GeneratedText *string `json:"generated_text"`
}

// BuildRequest renders the JSON body for the dialect.
func BuildRequest(d Dialect, model, prompt string, opts GenerationOptions) ([]byte, error) {
	var payload any
	switch d {
	case DialectChat:
		payload = chatRequest{
			Model:       model,
			Messages:    []chatMessage{{Role: "user", Content: prompt}},
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
		}
	case DialectCompletion:
		payload = completionRequest{
			Model:       model,
			Prompt:      prompt,
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
		}
	case DialectNative:
		payload = nativeRequest{
			Model:  model,
			Prompt: prompt,
			Stream: false,
			Options: nativeOptions{
				Temperature: opts.Temperature,
				NumPredict:  opts.MaxTokens,
			},
		}
	default:
		return nil, fmt.Errorf("no request shape for dialect %q", d)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", d, err)
	}
	return body, nil
}

// ExtractText pulls the answer out of a response body. An answer that is
// missing or blank is reported as an error so callers treat it as no answer.
func ExtractText(d Dialect, body []byte) (string, error) {
	var text string
	switch d {
	case DialectChat:
		var resp chatResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("decode chat response: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("chat response has no choices")
		}
		text = resp.Choices[0].Message.Content
	case DialectCompletion:
		var resp completionResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("decode completion response: %w", err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("completion response has no choices")
		}
		text = resp.Choices[0].Text
	case DialectNative:
		var resp nativeResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", fmt.Errorf("decode native response: %w", err)
		}
		for _, candidate := range []*string{resp.Response, resp.Text, resp.GeneratedText} {
			if candidate != nil && strings.TrimSpace(*candidate) != "" {
				text = *candidate
				break
			}
		}
	default:
		return "", fmt.Errorf("no response shape for dialect %q", d)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s response has an empty answer", d)
	}
	return text, nil
}
