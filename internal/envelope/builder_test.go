package envelope

import (
	"errors"
	"testing"

	refxerrors "refx/internal/errors"
	"refx/internal/strategy"
)

func TestBuilderCarriesStrategyMetadata(t *testing.T) {
	r := &strategy.Result{
		TierUsed:   strategy.TierSyntax,
		Confidence: 0.7,
		Degraded:   true,
		Attempts: []strategy.Attempt{
			{Tier: strategy.TierSemantic, Reason: "build failed"},
			{Tier: strategy.TierSyntax, Succeeded: true},
		},
	}

	resp := New().Data(map[string]int{"matches": 3}).FromStrategy(r).Build()

	if resp.SchemaVersion != CurrentSchemaVersion {
		t.Errorf("schemaVersion = %q", resp.SchemaVersion)
	}
	a := resp.Meta.Analysis
	if a == nil {
		t.Fatal("analysis metadata missing")
	}
	if a.TierUsed != "syntax" || a.Confidence != 0.7 || !a.Degraded {
		t.Errorf("analysis = %+v", a)
	}
	if len(a.Attempts) != 1 || a.Attempts[0] != "semantic: build failed" {
		t.Errorf("attempts = %v, want the failed semantic attempt only", a.Attempts)
	}
	if len(resp.Warnings) != 1 || resp.Warnings[0].Code != "degraded-analysis" {
		t.Errorf("degraded result must warn, got %v", resp.Warnings)
	}
}

func TestBuilderNonDegradedHasNoWarning(t *testing.T) {
	r := &strategy.Result{TierUsed: strategy.TierSemantic, Confidence: 0.95}
	resp := New().FromStrategy(r).Build()
	if len(resp.Warnings) != 0 {
		t.Errorf("warnings = %v, want none", resp.Warnings)
	}
}

func TestBuilderTypedError(t *testing.T) {
	err := refxerrors.NewBuildValidationFailed(3, "Program.cs(10,5): error CS0103")

	resp := New().FromErr(err).Build()

	if resp.Error == nil {
		t.Fatal("error detail missing")
	}
	if resp.Error.Kind != "BUILD_VALIDATION_FAILED" {
		t.Errorf("kind = %q", resp.Error.Kind)
	}
	if resp.Error.CanRetry {
		t.Error("build validation failures are not retryable")
	}
	if resp.Error.Suggestion == "" {
		t.Error("suggestion lost")
	}
	if len(resp.Error.Alternatives) == 0 {
		t.Error("alternatives lost")
	}
}

func TestBuilderPlainErrorIsInternal(t *testing.T) {
	resp := New().FromErr(errors.New("boom")).Build()
	if resp.Error == nil || resp.Error.Kind != string(refxerrors.Internal) {
		t.Errorf("error = %+v, want internal kind", resp.Error)
	}
}

func TestBuilderTruncationAndSuggestions(t *testing.T) {
	resp := New().
		Data([]string{"a", "b"}).
		Truncated(2, 10, "max-results").
		Suggest("find_symbol", map[string]interface{}{"name": "Order"}, "narrow the search").
		Build()

	tr := resp.Meta.Truncation
	if tr == nil || !tr.IsTruncated || tr.Shown != 2 || tr.Total != 10 {
		t.Errorf("truncation = %+v", tr)
	}
	if len(resp.SuggestedNextCalls) != 1 || resp.SuggestedNextCalls[0].Tool != "find_symbol" {
		t.Errorf("suggestedNextCalls = %+v", resp.SuggestedNextCalls)
	}
}

func TestBuilderBuildState(t *testing.T) {
	resp := New().BuildState("warning").Build()
	if resp.Meta.Analysis == nil || resp.Meta.Analysis.BuildState != "warning" {
		t.Errorf("analysis = %+v", resp.Meta.Analysis)
	}
}
