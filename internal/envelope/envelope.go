// Package envelope provides a standardized response wrapper for all tool
// responses. Every tool response carries the same metadata shape: which
// analysis tier produced the result, how confident the server is in it,
// whether the result was truncated, and what the caller could ask next.
package envelope

// Analysis describes how the result was produced.
type Analysis struct {
	TierUsed   string   `json:"tierUsed"`             // semantic, syntax, text, hybrid
	Confidence float64  `json:"confidence"`           // 0.0 - 1.0
	Degraded   bool     `json:"degraded,omitempty"`   // a higher tier was attempted and fell through
	Attempts   []string `json:"attempts,omitempty"`   // tier:reason for each failed attempt
	BuildState string   `json:"buildState,omitempty"` // success, warning, failure
}

// Truncation describes result trimming.
type Truncation struct {
	IsTruncated bool   `json:"isTruncated"`
	Shown       int    `json:"shown,omitempty"`
	Total       int    `json:"total,omitempty"`
	Reason      string `json:"reason,omitempty"` // "max-results", "max-summary-lines"
}

// Meta holds response metadata.
type Meta struct {
	Analysis   *Analysis   `json:"analysis,omitempty"`
	Truncation *Truncation `json:"truncation,omitempty"`
}

// SuggestedCall represents a recommended follow-up tool call.
type SuggestedCall struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params,omitempty"`
	Reason string                 `json:"reason,omitempty"`
}

// Warning represents a non-fatal issue.
type Warning struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ErrorDetail is the structured error surface. Kind is one of the stable
// error taxonomy constants; Alternatives lists fallback approaches the
// caller can try instead.
type ErrorDetail struct {
	Kind         string   `json:"kind"`
	Message      string   `json:"message"`
	CanRetry     bool     `json:"canRetry"`
	Suggestion   string   `json:"suggestion,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// Response is the standard envelope for all tool responses.
type Response struct {
	SchemaVersion      string          `json:"schemaVersion"`
	Data               interface{}     `json:"data"`
	Meta               *Meta           `json:"meta,omitempty"`
	Warnings           []Warning       `json:"warnings,omitempty"`
	Error              *ErrorDetail    `json:"error,omitempty"`
	SuggestedNextCalls []SuggestedCall `json:"suggestedNextCalls,omitempty"`
}

// CurrentSchemaVersion is the current envelope schema version.
const CurrentSchemaVersion = "1.0"
