package strategy

import (
	"context"
	"errors"
	"testing"

	"refx/internal/logging"
)

func run(t *testing.T, strategies []Strategy) *Result {
	t.Helper()
	res, err := NewSelector(logging.Discard()).Select(context.Background(), strategies)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	return res
}

func ok(payload map[string]interface{}) Func {
	return func(ctx context.Context) (map[string]interface{}, error) {
		return payload, nil
	}
}

func insufficient(reason string, partial map[string]interface{}) Func {
	return func(ctx context.Context) (map[string]interface{}, error) {
		return nil, &InsufficientError{Reason: reason, Partial: partial}
	}
}

func TestHighestTierWins(t *testing.T) {
	called := false
	res := run(t, []Strategy{
		{Tier: TierSemantic, Run: ok(map[string]interface{}{"answer": 42})},
		{Tier: TierSyntax, Run: func(ctx context.Context) (map[string]interface{}, error) {
			called = true
			return nil, nil
		}},
	})

	if res.TierUsed != TierSemantic {
		t.Errorf("tierUsed = %s, want semantic", res.TierUsed)
	}
	if res.Degraded {
		t.Error("first-tier answer should not be degraded")
	}
	if called {
		t.Error("lower tier must not run after a success")
	}
}

func TestFallbackOnInsufficient(t *testing.T) {
	res := run(t, []Strategy{
		{Tier: TierSemantic, Run: insufficient("no compilation graph", nil)},
		{Tier: TierSyntax, Run: ok(map[string]interface{}{"answer": "from syntax"})},
	})

	if res.TierUsed != TierSyntax {
		t.Errorf("tierUsed = %s, want syntax", res.TierUsed)
	}
	if !res.Degraded {
		t.Error("fallback answers are degraded")
	}
	if len(res.Attempts) != 2 {
		t.Errorf("attempts = %d, want 2", len(res.Attempts))
	}
}

func TestGenuineErrorStillAdvances(t *testing.T) {
	res := run(t, []Strategy{
		{Tier: TierSemantic, Run: func(ctx context.Context) (map[string]interface{}, error) {
			return nil, errors.New("nil pointer somewhere")
		}},
		{Tier: TierText, Run: ok(map[string]interface{}{"answer": "textual"})},
	})

	if res.TierUsed != TierText {
		t.Errorf("tierUsed = %s, want text", res.TierUsed)
	}
	if res.Attempts[0].Reason != "nil pointer somewhere" {
		t.Errorf("genuine error must stay visible in attempts, got %q", res.Attempts[0].Reason)
	}
}

func TestTierUsedAlwaysPopulated(t *testing.T) {
	res := run(t, []Strategy{
		{Tier: TierSemantic, Run: insufficient("a", nil)},
		{Tier: TierSyntax, Run: insufficient("b", nil)},
		{Tier: TierText, Run: insufficient("c", nil)},
	})

	if res.TierUsed == "" {
		t.Fatal("tierUsed must always be populated")
	}
	if res.Payload == nil {
		t.Error("payload must never be nil, even when empty")
	}
}

func TestNoTierRetriedTwice(t *testing.T) {
	counts := make(map[Tier]int)
	counting := func(tier Tier) Func {
		return func(ctx context.Context) (map[string]interface{}, error) {
			counts[tier]++
			return nil, Insufficient("never enough")
		}
	}

	run(t, []Strategy{
		{Tier: TierSemantic, Run: counting(TierSemantic)},
		{Tier: TierSyntax, Run: counting(TierSyntax)},
		{Tier: TierText, Run: counting(TierText)},
	})

	for tier, n := range counts {
		if n != 1 {
			t.Errorf("tier %s ran %d times, want 1", tier, n)
		}
	}
}

func TestHybridMergePrecedence(t *testing.T) {
	res := run(t, []Strategy{
		{Tier: TierSemantic, Run: insufficient("partial only", map[string]interface{}{
			"kind": "class",
		})},
		{Tier: TierSyntax, Run: insufficient("partial only", map[string]interface{}{
			"kind": "unknown",
			"line": 12,
		})},
		{Tier: TierText, Run: insufficient("partial only", map[string]interface{}{
			"line":    99,
			"matches": 3,
		})},
	})

	if res.TierUsed != TierHybrid {
		t.Fatalf("tierUsed = %s, want hybrid", res.TierUsed)
	}
	if res.Payload["kind"] != "class" {
		t.Errorf("semantic data must win: kind = %v", res.Payload["kind"])
	}
	if res.Payload["line"] != 12 {
		t.Errorf("syntax data must win over text: line = %v", res.Payload["line"])
	}
	if res.Payload["matches"] != 3 {
		t.Errorf("text-only field must survive: matches = %v", res.Payload["matches"])
	}
}

func TestSinglePartialKeepsItsTier(t *testing.T) {
	res := run(t, []Strategy{
		{Tier: TierSemantic, Run: insufficient("x", nil)},
		{Tier: TierSyntax, Run: insufficient("y", map[string]interface{}{"line": 4})},
	})

	if res.TierUsed != TierSyntax {
		t.Errorf("tierUsed = %s, want syntax (only contributor)", res.TierUsed)
	}
}

func TestCancellationAbortsSelection(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSelector(logging.Discard()).Select(ctx, []Strategy{
		{Tier: TierText, Run: ok(nil)},
	})
	if err == nil {
		t.Error("expected cancellation error")
	}
}
