package models

import (
	"time"

	"github.com/google/uuid"
)

// Attempt summarizes one model endpoint the gateway tried.
type Attempt struct {
	URL        string `json:"url"`
	Dialect    string `json:"dialect"`
	Label      string `json:"label"`
	Outcome    string `json:"outcome"`
	Reason     string `json:"reason,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	LatencyMS  int64  `json:"latency_ms"`
}

// Generation is a produced script together with how it was obtained.
type Generation struct {
	ID       uuid.UUID `json:"id"`
	Scenario string    `json:"scenario"`
	Script   string    `json:"code"`

	// Source is "<label>:<dialect>" of the endpoint that answered, or
	// "canned" when a built-in script was returned.
	Source      string    `json:"source"`
	Canned      bool      `json:"canned"`
	Suggestions []string  `json:"suggestions"`
	Attempts    []Attempt `json:"attempts,omitempty"`

	ScriptHash string    `json:"script_hash"`
	LatencyMS  int64     `json:"latency_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// RunResult is the outcome of executing a script once. A failing script is
// reported here, never as an error.
type RunResult struct {
	ID           uuid.UUID  `json:"id"`
	GenerationID *uuid.UUID `json:"generation_id,omitempty"`
	Pass         bool       `json:"pass"`
	ExitCode     int        `json:"exitCode"`
	Stdout       string     `json:"stdout"`
	Stderr       string     `json:"stderr"`
	TimedOut     bool       `json:"timed_out"`
	DurationMS   int64      `json:"duration_ms"`
	StartedAt    time.Time  `json:"started_at"`
}

// GenerateRequest is the body of the generate endpoints.
type GenerateRequest struct {
	Scenario string `json:"scenario" binding:"required"`
}

// RunRequest is the body of the run endpoint.
type RunRequest struct {
	Code         string     `json:"code" binding:"required"`
	GenerationID *uuid.UUID `json:"generation_id,omitempty"`
}

// GenerateResponse is returned by the generate endpoint.
type GenerateResponse struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Suggestions []string  `json:"suggestions"`
	Source      string    `json:"source"`
	Canned      bool      `json:"canned"`
}

// GenerateAndRunResponse is returned by the generate-and-run endpoint.
type GenerateAndRunResponse struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	Suggestions []string   `json:"suggestions"`
	Result      *RunResult `json:"result"`
}
