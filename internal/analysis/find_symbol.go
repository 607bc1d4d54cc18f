package analysis

import (
	"bufio"
	"context"
	"os"
	"strings"

	"refx/internal/buildgate"
	"refx/internal/graph"
	"refx/internal/strategy"
)

// SymbolMatch is one hit in a symbol search.
type SymbolMatch struct {
	Name        string `json:"name"`
	Kind        string `json:"kind,omitempty"`
	Path        string `json:"path"`
	SyntheticID string `json:"syntheticId,omitempty"`
	Line        int    `json:"line"`
	Container   string `json:"container,omitempty"`
	Namespace   string `json:"namespace,omitempty"`
	Signature   string `json:"signature,omitempty"`
	LineText    string `json:"lineText,omitempty"` // text-tier matches only
}

// FindSymbol locates declarations of name under root. kind narrows the
// search ("class", "method", ...); empty matches any kind. The semantic tier
// needs a passing build, the syntax tier needs parseable files, and the text
// tier always answers.
func (s *Service) FindSymbol(ctx context.Context, root, name, kind string) (*strategy.Result, error) {
	return s.selector.Select(ctx, []strategy.Strategy{
		{Tier: strategy.TierSemantic, Run: func(ctx context.Context) (map[string]interface{}, error) {
			return s.findSemantic(ctx, root, name, kind)
		}},
		{Tier: strategy.TierSyntax, Run: func(ctx context.Context) (map[string]interface{}, error) {
			return s.findSyntax(ctx, root, name, kind)
		}},
		{Tier: strategy.TierText, Run: func(ctx context.Context) (map[string]interface{}, error) {
			return s.findText(ctx, root, name)
		}},
	})
}

// findSemantic answers against the full compilation graph, gated on a
// passing build so the graph is known to reflect compilable code.
func (s *Service) findSemantic(ctx context.Context, root, name, kind string) (map[string]interface{}, error) {
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
	matches := matchSymbols(g, name, kind)
	return s.matchPayload(matches, string(strategy.TierSemantic)), nil
}

// findSyntax answers from parse trees alone, no build required.
func (s *Service) findSyntax(ctx context.Context, root, name, kind string) (map[string]interface{}, error) {
	g, err := s.LoadGraph(ctx, root)
	if err != nil {
		return nil, err
	}
	matches := matchSymbols(g, name, kind)
	if len(matches) == 0 {
		// Nothing declared under this name; let the text tier look for
		// occurrences that are not declarations.
		return nil, &strategy.InsufficientError{
			Reason:  "no declaration named " + name,
			Partial: map[string]interface{}{"matches": []SymbolMatch{}, "total": 0},
		}
	}
	return s.matchPayload(matches, string(strategy.TierSyntax)), nil
}

// findText scans raw lines for the name. This tier always produces an
// answer, possibly an empty one.
func (s *Service) findText(ctx context.Context, root, name string) (map[string]interface{}, error) {
	files, err := s.SourceFiles(ctx, root)
	if err != nil {
		return nil, err
	}

	var matches []SymbolMatch
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			s.logger.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		line := 0
		for scanner.Scan() {
			line++
			text := scanner.Text()
			if strings.Contains(text, name) {
				matches = append(matches, SymbolMatch{
					Name:     name,
					Path:     path,
					Line:     line,
					LineText: strings.TrimSpace(text),
				})
			}
		}
		f.Close()
	}
	return s.matchPayload(matches, string(strategy.TierText)), nil
}

// matchSymbols filters graph symbols by name and optional kind.
func matchSymbols(g *graph.CompilationGraph, name, kind string) []SymbolMatch {
	var matches []SymbolMatch
	for _, sym := range g.SymbolsNamed(name) {
		if kind != "" && sym.Kind != kind {
			continue
		}
		id, _ := g.SyntheticID(sym.Path)
		matches = append(matches, SymbolMatch{
			Name:        sym.Name,
			Kind:        sym.Kind,
			Path:        sym.Path,
			SyntheticID: id,
			Line:        sym.Line,
			Container:   sym.Container,
			Namespace:   sym.Namespace,
			Signature:   sym.Signature,
		})
	}
	return matches
}

// matchPayload applies the result limit and shapes the tier payload.
func (s *Service) matchPayload(matches []SymbolMatch, source string) map[string]interface{} {
	total := len(matches)
	truncated := false
	if s.limits.MaxResults > 0 && total > s.limits.MaxResults {
		matches = matches[:s.limits.MaxResults]
		truncated = true
	}
	return map[string]interface{}{
		"matches":   matches,
		"total":     total,
		"truncated": truncated,
		"source":    source,
	}
}
