package envelope

import (
	"fmt"

	"refx/internal/errors"
	"refx/internal/strategy"
)

// Builder constructs Response envelopes using a fluent API.
type Builder struct {
	resp *Response
}

// New creates a new envelope builder.
func New() *Builder {
	return &Builder{
		resp: &Response{
			SchemaVersion: CurrentSchemaVersion,
		},
	}
}

// Data sets the tool-specific payload.
func (b *Builder) Data(data interface{}) *Builder {
	b.resp.Data = data
	return b
}

// FromStrategy populates analysis metadata from a tier selection result.
// Every analysis response reports which tier answered, even when only the
// lowest tier ran.
func (b *Builder) FromStrategy(r *strategy.Result) *Builder {
	if r == nil {
		return b
	}

	a := &Analysis{
		TierUsed:   string(r.TierUsed),
		Confidence: r.Confidence,
		Degraded:   r.Degraded,
	}
	for _, at := range r.Attempts {
		if !at.Succeeded {
			a.Attempts = append(a.Attempts, fmt.Sprintf("%s: %s", at.Tier, at.Reason))
		}
	}
	b.meta().Analysis = a

	if r.Degraded {
		b.Warn("degraded-analysis",
			fmt.Sprintf("result produced by the %s tier after higher tiers fell through", r.TierUsed))
	}
	return b
}

// Tier records the producing tier directly, for operations that do not go
// through the strategy selector.
func (b *Builder) Tier(tier string, confidence float64) *Builder {
	if b.meta().Analysis == nil {
		b.meta().Analysis = &Analysis{}
	}
	b.meta().Analysis.TierUsed = tier
	b.meta().Analysis.Confidence = confidence
	return b
}

// BuildState records the most recent build validation status on the
// analysis metadata.
func (b *Builder) BuildState(status string) *Builder {
	if b.meta().Analysis == nil {
		b.meta().Analysis = &Analysis{}
	}
	b.meta().Analysis.BuildState = status
	return b
}

// Truncated marks the response as trimmed.
func (b *Builder) Truncated(shown, total int, reason string) *Builder {
	b.meta().Truncation = &Truncation{
		IsTruncated: true,
		Shown:       shown,
		Total:       total,
		Reason:      reason,
	}
	return b
}

// Warn appends a non-fatal warning.
func (b *Builder) Warn(code, message string) *Builder {
	b.resp.Warnings = append(b.resp.Warnings, Warning{Code: code, Message: message})
	return b
}

// Suggest appends a recommended follow-up call.
func (b *Builder) Suggest(tool string, params map[string]interface{}, reason string) *Builder {
	b.resp.SuggestedNextCalls = append(b.resp.SuggestedNextCalls, SuggestedCall{
		Tool:   tool,
		Params: params,
		Reason: reason,
	})
	return b
}

// FromErr sets the structured error detail from any error value. Typed
// errors keep their kind, retryability, suggestion, and alternatives; other
// errors surface as internal.
func (b *Builder) FromErr(err error) *Builder {
	if err == nil {
		return b
	}
	re := errors.AsRefactorError(err)
	b.resp.Error = &ErrorDetail{
		Kind:         string(re.Kind),
		Message:      re.Message,
		CanRetry:     re.CanRetry,
		Suggestion:   re.Suggestion,
		Alternatives: re.Alternatives,
	}
	return b
}

// Build returns the completed response.
func (b *Builder) Build() *Response {
	return b.resp
}

func (b *Builder) meta() *Meta {
	if b.resp.Meta == nil {
		b.resp.Meta = &Meta{}
	}
	return b.resp.Meta
}
