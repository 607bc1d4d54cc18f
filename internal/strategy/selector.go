// Package strategy implements the tiered analysis selector. A request is
// attempted at the highest-fidelity tier available and degrades through
// syntax-only and text-pattern analysis; an analysis request never returns
// nothing. Advancement is driven by a typed "insufficient" signal, not by a
// catch-all exception handler, so genuine bugs stay visible in the attempt
// record.
package strategy

import (
	"context"
	"fmt"
	"log/slog"
)

// Tier identifies one of the fallback analysis modes, ordered by fidelity.
type Tier string

const (
	// TierSemantic resolves symbols against the full compilation graph
	TierSemantic Tier = "semantic"
	// TierSyntax answers from single-file parse trees
	TierSyntax Tier = "syntax"
	// TierText answers from text-pattern matching
	TierText Tier = "text"
	// TierHybrid merges partial results from more than one tier
	TierHybrid Tier = "hybrid"
)

// confidence is the score reported for an answer produced wholly by one tier.
var confidence = map[Tier]float64{
	TierSemantic: 0.95,
	TierSyntax:   0.7,
	TierText:     0.4,
}

// InsufficientError is the typed signal a tier returns when it cannot fully
// answer. Partial carries whatever the tier did manage to compute.
type InsufficientError struct {
	Reason  string
	Partial map[string]interface{}
}

// Error implements the error interface.
func (e *InsufficientError) Error() string {
	return "insufficient information: " + e.Reason
}

// Insufficient creates an InsufficientError without partial data.
func Insufficient(format string, args ...interface{}) *InsufficientError {
	return &InsufficientError{Reason: fmt.Sprintf(format, args...)}
}

// Attempt records one tier's try at the request.
type Attempt struct {
	Tier      Tier   `json:"tier"`
	Succeeded bool   `json:"succeeded"`
	Reason    string `json:"reason,omitempty"`
}

// Result is the selector's answer. TierUsed is always populated so callers can
// distinguish a degraded answer from a failure.
type Result struct {
	TierUsed   Tier                   `json:"tierUsed"`
	Confidence float64                `json:"confidence"`
	Payload    map[string]interface{} `json:"payload"`
	Degraded   bool                   `json:"degraded"`
	Attempts   []Attempt              `json:"attempts,omitempty"`
}

// Func runs one tier's attempt at the logical request.
type Func func(ctx context.Context) (map[string]interface{}, error)

// Strategy pairs a tier with its implementation.
type Strategy struct {
	Tier Tier
	Run  Func
}

// Selector walks an ordered strategy list.
type Selector struct {
	logger *slog.Logger
}

// NewSelector creates a selector.
func NewSelector(logger *slog.Logger) *Selector {
	return &Selector{logger: logger}
}

// Select attempts each strategy in order. A tier is never retried. The first
// tier to answer wins and tags the result; when every tier falls short the
// partial results are merged into a Hybrid answer, higher-fidelity data
// winning per field. Only context cancellation aborts the walk.
func (s *Selector) Select(ctx context.Context, strategies []Strategy) (*Result, error) {
	type partial struct {
		tier Tier
		data map[string]interface{}
	}

	var attempts []Attempt
	var partials []partial

	for i, st := range strategies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		payload, err := st.Run(ctx)
		if err == nil {
			attempts = append(attempts, Attempt{Tier: st.Tier, Succeeded: true})
			return &Result{
				TierUsed:   st.Tier,
				Confidence: confidence[st.Tier],
				Payload:    payload,
				Degraded:   i > 0,
				Attempts:   attempts,
			}, nil
		}

		if ins, ok := err.(*InsufficientError); ok {
			s.logger.Debug("tier insufficient, advancing", "tier", st.Tier, "reason", ins.Reason)
			attempts = append(attempts, Attempt{Tier: st.Tier, Reason: ins.Reason})
			if len(ins.Partial) > 0 {
				partials = append(partials, partial{tier: st.Tier, data: ins.Partial})
			}
			continue
		}

		// A genuine error also advances (the request must still get an
		// answer) but is logged loudly and kept verbatim in the record.
		s.logger.Warn("tier failed, advancing", "tier", st.Tier, "error", err)
		attempts = append(attempts, Attempt{Tier: st.Tier, Reason: err.Error()})
	}

	// All tiers exhausted: return the best partial result, never nothing.
	switch len(partials) {
	case 0:
		last := TierText
		if len(strategies) > 0 {
			last = strategies[len(strategies)-1].Tier
		}
		return &Result{
			TierUsed: last,
			Payload:  map[string]interface{}{},
			Degraded: true,
			Attempts: attempts,
		}, nil
	case 1:
		return &Result{
			TierUsed:   partials[0].tier,
			Confidence: confidence[partials[0].tier] / 2,
			Payload:    partials[0].data,
			Degraded:   true,
			Attempts:   attempts,
		}, nil
	default:
		// Merge in attempt order: earlier (higher-fidelity) tiers win any
		// field present in more than one source.
		merged := make(map[string]interface{})
		for _, p := range partials {
			for k, v := range p.data {
				if _, exists := merged[k]; !exists {
					merged[k] = v
				}
			}
		}
		return &Result{
			TierUsed:   TierHybrid,
			Confidence: confidence[partials[0].tier] / 2,
			Payload:    merged,
			Degraded:   true,
			Attempts:   attempts,
		}, nil
	}
}
