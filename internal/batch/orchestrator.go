// Package batch runs a sequence of refactoring operations as a single
// all-or-nothing unit. Each step sees the output of the previous one; any
// failure discards every change and reports the initial code unchanged.
package batch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"refx/internal/autofix"
	"refx/internal/delta"
	"refx/internal/errors"
	"refx/internal/refactor"
)

// Operation kinds accepted by the orchestrator.
const (
	OpRenameSymbol      = "rename_symbol"
	OpExtractMethod     = "extract_method"
	OpExtractInterface  = "extract_interface"
	OpIntroduceVariable = "introduce_variable"
	OpAutoFix           = "auto_fix"
)

// Operation describes one step of a batch. Target is the symbol, selection,
// class, or expression the operation acts on; NewName is the name it
// introduces. auto_fix steps take neither: they run the mechanical fixes
// named in Fixes (all of them when empty) over the working copy. MustExist
// turns a zero-match rename into a failed step instead of a no-op.
type Operation struct {
	Kind      string             `json:"kind"`
	Target    string             `json:"target,omitempty"`
	NewName   string             `json:"newName,omitempty"`
	Members   []string           `json:"members,omitempty"`
	Placement refactor.Placement `json:"placement,omitempty"`
	Fixes     []string           `json:"fixes,omitempty"`
	MustExist bool               `json:"mustExist,omitempty"`
}

// StepResult records the outcome of one step. A failed step carries the
// error message and the kind that produced it.
type StepResult struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	Succeeded   bool   `json:"succeeded"`
	ChangeCount int    `json:"changeCount"`
	Error       string `json:"error,omitempty"`
}

// Result is the outcome of a whole batch. When Succeeded is false, FinalCode
// is the initial code byte for byte and FailedStep indexes the step that
// broke the batch; otherwise FailedStep is -1 and Delta describes the net
// change from the initial code to FinalCode.
type Result struct {
	BatchID    string                  `json:"batchId"`
	Succeeded  bool                    `json:"succeeded"`
	FinalCode  string                  `json:"finalCode"`
	Steps      []StepResult            `json:"steps"`
	FailedStep int                     `json:"failedStep"`
	Delta      *delta.RefactoringDelta `json:"delta,omitempty"`
}

// Orchestrator threads source code through a sequence of engine operations.
type Orchestrator struct {
	engine *refactor.Engine
	logger *slog.Logger
}

// NewOrchestrator creates a batch orchestrator around an engine.
func NewOrchestrator(engine *refactor.Engine, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{engine: engine, logger: logger}
}

// Run executes ops in order against initialCode. The working copy advances
// only on success; the first failure, including context cancellation between
// steps, rolls the batch back to initialCode. An empty batch succeeds.
func (o *Orchestrator) Run(ctx context.Context, initialCode string, ops []Operation) *Result {
	res := &Result{
		BatchID:    uuid.NewString(),
		Succeeded:  true,
		FinalCode:  initialCode,
		FailedStep: -1,
	}

	working := initialCode
	for i, op := range ops {
		step := StepResult{ID: uuid.NewString(), Kind: op.Kind}

		if err := ctx.Err(); err != nil {
			step.Error = "batch cancelled before step executed"
			res.Steps = append(res.Steps, step)
			return o.fail(res, initialCode, i)
		}

		out, err := o.apply(ctx, working, op)
		if err != nil {
			step.Error = err.Error()
			res.Steps = append(res.Steps, step)
			o.logger.Warn("batch step failed, rolling back",
				"batchId", res.BatchID, "step", i, "kind", op.Kind,
				"errorKind", string(errors.KindOf(err)))
			return o.fail(res, initialCode, i)
		}

		step.Succeeded = true
		step.ChangeCount = out.ChangeCount
		res.Steps = append(res.Steps, step)
		working = out.ModifiedCode
	}

	res.FinalCode = working
	res.Delta = delta.Diff("", initialCode, working)
	o.logger.Info("batch applied", "batchId", res.BatchID, "steps", len(ops))
	return res
}

func (o *Orchestrator) apply(ctx context.Context, code string, op Operation) (*refactor.Outcome, error) {
	if op.Kind != OpAutoFix {
		if op.Target == "" {
			return nil, errors.NewConfiguration("target", "required for "+op.Kind)
		}
		if op.NewName == "" {
			return nil, errors.NewConfiguration("newName", "required for "+op.Kind)
		}
	}

	switch op.Kind {
	case OpAutoFix:
		summary := autofix.Apply(code, op.Fixes)
		return &refactor.Outcome{
			ModifiedCode: summary.FixedCode,
			ChangeCount:  summary.TotalChanges,
		}, nil
	case OpRenameSymbol:
		out, err := o.engine.RenameSymbol(ctx, code, op.Target, op.NewName)
		if err == nil && op.MustExist && out.ChangeCount == 0 {
			return nil, errors.NewNotFound("symbol", op.Target)
		}
		return out, err
	case OpExtractMethod:
		return o.engine.ExtractMethod(ctx, code, op.Target, op.NewName)
	case OpExtractInterface:
		return o.engine.ExtractInterface(ctx, code, op.Target, op.NewName, op.Members)
	case OpIntroduceVariable:
		return o.engine.IntroduceVariable(ctx, code, op.Target, op.NewName, op.Placement)
	default:
		return nil, errors.NewConfiguration("kind", fmt.Sprintf("unknown operation %q", op.Kind))
	}
}

// fail marks the batch rolled back. FinalCode was never advanced past
// initialCode on the result, so rollback is just not committing.
func (o *Orchestrator) fail(res *Result, initialCode string, step int) *Result {
	res.Succeeded = false
	res.FinalCode = initialCode
	res.FailedStep = step
	return res
}
