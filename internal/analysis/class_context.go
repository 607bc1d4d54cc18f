package analysis

import (
	"context"
	"strings"

	"refx/internal/buildgate"
	"refx/internal/graph"
	"refx/internal/strategy"
	"refx/internal/syntax"
)

// maxSnippetLines bounds the source excerpt returned with a class context.
const maxSnippetLines = 80

// ClassContext is the shaped payload for one type declaration.
type ClassContext struct {
	Name        string        `json:"name"`
	Kind        string        `json:"kind"`
	Path        string        `json:"path"`
	SyntheticID string        `json:"syntheticId,omitempty"`
	Line        int           `json:"line"`
	EndLine     int           `json:"endLine"`
	Namespace   string        `json:"namespace,omitempty"`
	Signature   string        `json:"signature,omitempty"`
	BaseTypes   []string      `json:"baseTypes,omitempty"`
	Members     []SymbolMatch `json:"members,omitempty"`
	Snippet     string        `json:"snippet,omitempty"`
	References  int           `json:"references,omitempty"` // semantic tier only
}

// GetClassContext returns the declaration, members, and source excerpt of
// one named type. The semantic tier additionally counts references across
// the workspace; without a passing build the answer degrades to the syntax
// view.
func (s *Service) GetClassContext(ctx context.Context, root, className string) (*strategy.Result, error) {
	return s.selector.Select(ctx, []strategy.Strategy{
		{Tier: strategy.TierSemantic, Run: func(ctx context.Context) (map[string]interface{}, error) {
			return s.classSemantic(ctx, root, className)
		}},
		{Tier: strategy.TierSyntax, Run: func(ctx context.Context) (map[string]interface{}, error) {
			return s.classSyntax(ctx, root, className)
		}},
		{Tier: strategy.TierText, Run: func(ctx context.Context) (map[string]interface{}, error) {
			return s.findText(ctx, root, className)
		}},
	})
}

func (s *Service) classSemantic(ctx context.Context, root, className string) (map[string]interface{}, error) {
	if s.gate == nil {
		return nil, strategy.Insufficient("no build runner configured")
	}
	build, err := s.gate.Validate(ctx, root)
	if err != nil {
		return nil, strategy.Insufficient("build validation unavailable: %v", err)
	}
	if build.Status == buildgate.StatusFailure {
		return nil, strategy.Insufficient("build failed with %d error(s)", build.ErrorCount)
	}

	g, err := s.LoadGraph(ctx, root)
	if err != nil {
		return nil, err
	}
	cc, err := classContextFrom(g, className)
	if err != nil {
		return nil, err
	}
	cc.References = countReferences(g, className)
	return map[string]interface{}{"class": cc}, nil
}

func (s *Service) classSyntax(ctx context.Context, root, className string) (map[string]interface{}, error) {
	g, err := s.LoadGraph(ctx, root)
	if err != nil {
		return nil, err
	}
	cc, err := classContextFrom(g, className)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"class": cc}, nil
}

// classContextFrom shapes a ClassContext from graph symbols, or reports the
// type as insufficient for this tier when no declaration exists.
func classContextFrom(g *graph.CompilationGraph, className string) (*ClassContext, error) {
	var decl *syntax.Symbol
	for _, sym := range g.SymbolsNamed(className) {
		if isTypeKind(sym.Kind) {
			s := sym
			decl = &s
			break
		}
	}
	if decl == nil {
		return nil, strategy.Insufficient("no type declaration named %s", className)
	}

	id, _ := g.SyntheticID(decl.Path)
	cc := &ClassContext{
		Name:        decl.Name,
		Kind:        decl.Kind,
		Path:        decl.Path,
		SyntheticID: id,
		Line:        decl.Line,
		EndLine:     decl.EndLine,
		Namespace:   decl.Namespace,
		Signature:   decl.Signature,
		BaseTypes:   baseTypesFrom(decl.Signature),
	}

	for _, sym := range g.SymbolsInUnit(id) {
		if sym.Container != className {
			continue
		}
		cc.Members = append(cc.Members, SymbolMatch{
			Name:      sym.Name,
			Kind:      sym.Kind,
			Path:      sym.Path,
			Line:      sym.Line,
			Container: sym.Container,
			Signature: sym.Signature,
		})
	}

	if unit, ok := g.UnitByID(id); ok {
		cc.Snippet = excerpt(unit.Content, decl.Line, decl.EndLine)
	}
	return cc, nil
}

// baseTypesFrom parses the base list out of a declaration signature, e.g.
// "public class Order : Entity, IAuditable" yields [Entity IAuditable].
func baseTypesFrom(signature string) []string {
	if w := strings.Index(signature, " where "); w >= 0 {
		signature = signature[:w]
	}
	idx := strings.Index(signature, ":")
	if idx < 0 {
		return nil
	}
	var types []string
	for _, part := range strings.Split(signature[idx+1:], ",") {
		if t := strings.TrimSpace(part); t != "" {
			types = append(types, t)
		}
	}
	return types
}

func isTypeKind(kind string) bool {
	switch kind {
	case "class", "interface", "struct", "record", "enum":
		return true
	}
	return false
}

// countReferences counts occurrences of name across all units, declaration
// included.
func countReferences(g *graph.CompilationGraph, name string) int {
	total := 0
	for _, unit := range g.Units() {
		total += strings.Count(unit.Content, name)
	}
	return total
}

// excerpt returns the 1-indexed line range of content, capped at
// maxSnippetLines.
func excerpt(content string, startLine, endLine int) string {
	lines := strings.Split(content, "\n")
	if startLine < 1 {
		startLine = 1
	}
	if endLine > len(lines) {
		endLine = len(lines)
	}
	if endLine < startLine {
		return ""
	}
	if endLine-startLine+1 > maxSnippetLines {
		endLine = startLine + maxSnippetLines - 1
	}
	return strings.Join(lines[startLine-1:endLine], "\n")
}
