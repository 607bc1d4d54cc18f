package mcp

import (
	"context"
	"encoding/json"

	"refx/internal/audit"
	"refx/internal/autofix"
	"refx/internal/batch"
	"refx/internal/delta"
	"refx/internal/envelope"
	"refx/internal/errors"
	"refx/internal/refactor"
	"refx/internal/strategy"
)

func (s *Server) toolRenameSymbol(ctx context.Context, params map[string]interface{}) (*envelope.Response, error) {
	oldName, err := requireString(params, "oldName")
	if err != nil {
		return nil, err
	}
	newName, err := requireString(params, "newName")
	if err != nil {
		return nil, err
	}

	if stringParam(params, "scope") == string(refactor.ScopeWorkspace) {
		return s.renameWorkspace(ctx, params, oldName, newName)
	}

	code, err := requireString(params, "code")
	if err != nil {
		return nil, err
	}
	out, err := s.engine.RenameSymbol(ctx, code, oldName, newName)
	return s.refactorResponse("rename_symbol", oldName, code, out, err)
}

// renameWorkspace renames across every file of a workspace. The build gate
// runs first: renaming through a broken build would make confirmed-reference
// resolution meaningless.
func (s *Server) renameWorkspace(ctx context.Context, params map[string]interface{}, oldName, newName string) (*envelope.Response, error) {
	path, err := requireString(params, "path")
	if err != nil {
		return nil, err
	}
	if err := s.guardBuild(ctx, path); err != nil {
		s.record(audit.Entry{Tool: "rename_symbol", Target: oldName, Succeeded: false})
		return nil, err
	}

	g, err := s.analysis.LoadGraph(ctx, path)
	if err != nil {
		return nil, err
	}
	out, err := s.engine.RenameSymbolInGraph(ctx, g, oldName, newName, stringParam(params, "kind"))
	return s.refactorResponse("rename_symbol", oldName, "", out, err)
}

func (s *Server) toolExtractMethod(ctx context.Context, params map[string]interface{}) (*envelope.Response, error) {
	code, err := requireString(params, "code")
	if err != nil {
		return nil, err
	}
	selection, err := requireString(params, "selection")
	if err != nil {
		return nil, err
	}
	newName, err := requireString(params, "newName")
	if err != nil {
		return nil, err
	}

	out, err := s.engine.ExtractMethod(ctx, code, selection, newName)
	return s.refactorResponse("extract_method", newName, code, out, err)
}

func (s *Server) toolExtractInterface(ctx context.Context, params map[string]interface{}) (*envelope.Response, error) {
	code, err := requireString(params, "code")
	if err != nil {
		return nil, err
	}
	className, err := requireString(params, "className")
	if err != nil {
		return nil, err
	}
	interfaceName, err := requireString(params, "interfaceName")
	if err != nil {
		return nil, err
	}

	out, err := s.engine.ExtractInterface(ctx, code, className, interfaceName, stringSliceParam(params, "members"))
	return s.refactorResponse("extract_interface", className, code, out, err)
}

func (s *Server) toolIntroduceVariable(ctx context.Context, params map[string]interface{}) (*envelope.Response, error) {
	code, err := requireString(params, "code")
	if err != nil {
		return nil, err
	}
	expression, err := requireString(params, "expression")
	if err != nil {
		return nil, err
	}
	name, err := requireString(params, "name")
	if err != nil {
		return nil, err
	}

	out, err := s.engine.IntroduceVariable(ctx, code, expression, name,
		refactor.Placement(stringParam(params, "scope")))
	return s.refactorResponse("introduce_variable", expression, code, out, err)
}

func (s *Server) toolAutoFix(ctx context.Context, params map[string]interface{}) (*envelope.Response, error) {
	code, err := requireString(params, "code")
	if err != nil {
		return nil, err
	}

	summary := autofix.Apply(code, stringSliceParam(params, "fixes"))
	s.record(audit.Entry{
		Tool:        "auto_fix",
		ChangeCount: summary.TotalChanges,
		Succeeded:   true,
	})
	return envelope.New().
		Data(summary).
		Tier(string(strategy.TierText), 1.0).
		Build(), nil
}

func (s *Server) toolBatchRefactor(ctx context.Context, params map[string]interface{}) (*envelope.Response, error) {
	code, err := requireString(params, "code")
	if err != nil {
		return nil, err
	}

	raw, ok := params["operations"]
	if !ok {
		return nil, errors.NewConfiguration("operations", "required")
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.NewConfiguration("operations", "not serializable")
	}
	var ops []batch.Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, errors.NewConfiguration("operations", "malformed: "+err.Error())
	}

	res := s.orchestrator.Run(ctx, code, ops)
	s.record(audit.Entry{
		Tool:      "batch_refactor",
		BatchID:   res.BatchID,
		Succeeded: res.Succeeded,
	})

	b := envelope.New().Data(res).Tier(string(strategy.TierSyntax), confidenceSyntax)
	if !res.Succeeded {
		b.Warn("rolled-back", "a step failed; no changes were applied")
	}
	return b.Build(), nil
}

// confidenceSyntax is the score reported for purely syntactic rewrites.
const confidenceSyntax = 0.7

// refactorOutcome is a refactoring result plus the line-level delta between
// the input and the modified code, for callers that apply changes themselves.
type refactorOutcome struct {
	*refactor.Outcome
	Delta *delta.RefactoringDelta `json:"delta,omitempty"`
}

// refactorResponse records the outcome in the audit log and shapes the
// envelope shared by all single-operation refactoring tools. original is the
// input source the delta is computed against; workspace operations pass ""
// and report per-unit contents instead.
func (s *Server) refactorResponse(tool, target, original string, out *refactor.Outcome, err error) (*envelope.Response, error) {
	if err != nil {
		s.record(audit.Entry{Tool: tool, Target: target, Succeeded: false})
		return nil, err
	}

	s.record(audit.Entry{
		Tool:        tool,
		Target:      target,
		TierUsed:    string(strategy.TierSyntax),
		ChangeCount: out.ChangeCount,
		Succeeded:   true,
	})

	payload := refactorOutcome{Outcome: out}
	if original != "" {
		payload.Delta = delta.Diff("", original, out.ModifiedCode)
	}

	b := envelope.New().Data(payload).Tier(string(strategy.TierSyntax), confidenceSyntax)
	for _, c := range out.Conflicts {
		b.Warn("conflict", c)
	}
	if out.ChangeCount == 0 {
		b.Suggest("find_symbol",
			map[string]interface{}{"name": target},
			"nothing matched; confirm the exact name before retrying")
	}
	return b.Build(), nil
}

func (s *Server) record(e audit.Entry) {
	if err := s.auditLog.Record(e); err != nil {
		s.logger.Warn("audit record failed", "error", err)
	}
}
