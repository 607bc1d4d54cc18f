package mcp

import (
	"context"

	"refx/internal/analysis"
	"refx/internal/envelope"
)

func (s *Server) toolFindSymbol(ctx context.Context, params map[string]interface{}) (*envelope.Response, error) {
	path, err := requireString(params, "path")
	if err != nil {
		return nil, err
	}
	name, err := requireString(params, "name")
	if err != nil {
		return nil, err
	}

	res, err := s.analysis.FindSymbol(ctx, path, name, stringParam(params, "kind"))
	if err != nil {
		return nil, err
	}

	b := envelope.New().Data(res.Payload).FromStrategy(res)
	annotateMatches(b, res.Payload, name)
	return b.Build(), nil
}

func (s *Server) toolGetClassContext(ctx context.Context, params map[string]interface{}) (*envelope.Response, error) {
	path, err := requireString(params, "path")
	if err != nil {
		return nil, err
	}
	className, err := requireString(params, "className")
	if err != nil {
		return nil, err
	}

	res, err := s.analysis.GetClassContext(ctx, path, className)
	if err != nil {
		return nil, err
	}

	b := envelope.New().Data(res.Payload).FromStrategy(res)
	if _, ok := res.Payload["class"]; !ok {
		b.Suggest("find_symbol",
			map[string]interface{}{"path": path, "name": className},
			"no declaration found; locate the exact name first")
	}
	return b.Build(), nil
}

func (s *Server) toolAnalyzeProjectStructure(ctx context.Context, params map[string]interface{}) (*envelope.Response, error) {
	path, err := requireString(params, "path")
	if err != nil {
		return nil, err
	}

	ps, err := s.analysis.AnalyzeProjectStructure(ctx, path)
	if err != nil {
		return nil, err
	}

	b := envelope.New().Data(ps)
	if len(ps.DuplicateNames) > 0 {
		b.Warn("duplicate-file-names",
			"workspace contains files sharing a logical name; stable synthetic ids disambiguate them")
	}
	return b.Build(), nil
}

func (s *Server) toolAnalyzeSolution(ctx context.Context, params map[string]interface{}) (*envelope.Response, error) {
	path, err := requireString(params, "path")
	if err != nil {
		return nil, err
	}

	report, err := s.analysis.AnalyzeSolution(ctx, path)
	if err != nil {
		return nil, err
	}

	b := envelope.New().Data(report)
	if len(report.DuplicateNames) > 0 {
		b.Warn("duplicate-file-names",
			"solution contains files sharing a logical name; stable synthetic ids disambiguate them")
	}
	return b.Build(), nil
}

func (s *Server) toolValidateBuild(ctx context.Context, params map[string]interface{}) (*envelope.Response, error) {
	path, err := requireString(params, "path")
	if err != nil {
		return nil, err
	}

	res, err := s.validateBuild(ctx, path)
	if err != nil {
		return nil, err
	}

	b := envelope.New().Data(res).BuildState(string(res.Status))
	if res.ErrorCount > 0 {
		b.Suggest("auto_fix", nil, "mechanical fixes may clear simple build errors")
	}
	return b.Build(), nil
}

// annotateMatches adds truncation metadata and follow-up suggestions to a
// symbol search response.
func annotateMatches(b *envelope.Builder, payload map[string]interface{}, name string) {
	total, _ := payload["total"].(int)
	if truncated, _ := payload["truncated"].(bool); truncated {
		shown := total
		if matches, ok := payload["matches"].([]analysis.SymbolMatch); ok {
			shown = len(matches)
		}
		b.Truncated(shown, total, "max-results")
		b.Suggest("find_symbol",
			map[string]interface{}{"name": name, "kind": "class"},
			"narrow the search with a kind filter")
	}
	if total == 0 {
		b.Suggest("analyze_project_structure", nil,
			"no matches; inspect the workspace layout to check the name")
	}
}
