package graph

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"refx/internal/syntax"
)

// Builder assembles compilation graphs from file paths or in-memory sources.
type Builder struct {
	extractor *syntax.Extractor
	logger    *slog.Logger
}

// NewBuilder creates a graph builder.
func NewBuilder(logger *slog.Logger) *Builder {
	return &Builder{
		extractor: syntax.NewExtractor(),
		logger:    logger,
	}
}

// Build reads every path, resolves identity collisions, and derives the symbol
// table. A path that cannot be read is skipped with a logged warning; one
// missing file must not abort analysis of hundreds of others.
func (b *Builder) Build(ctx context.Context, paths []string) (*CompilationGraph, error) {
	var units []SourceUnit
	var skipped []string

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			b.logger.Warn("skipping unreadable file", "path", path, "error", err)
			skipped = append(skipped, path)
			continue
		}
		units = append(units, SourceUnit{OriginalPath: path, Content: string(content)})
	}

	g, err := b.BuildFromSources(ctx, units)
	if err != nil {
		return nil, err
	}
	g.skipped = skipped
	return g, nil
}

// BuildFromSources assembles a graph from in-memory sources. Each input's
// OriginalPath is the caller-visible identity; SyntheticID is assigned here.
func (b *Builder) BuildFromSources(ctx context.Context, sources []SourceUnit) (*CompilationGraph, error) {
	g := &CompilationGraph{
		byID:    make(map[string]*SourceUnit),
		byPath:  make(map[string]string),
		symbols: make(map[string][]syntax.Symbol),
	}

	ids := assignSyntheticIDs(sources)

	for i := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		src := sources[i]
		id := ids[i]
		if id != logicalName(src.OriginalPath) {
			g.collisions++
		}

		if _, dup := g.byPath[src.OriginalPath]; dup {
			// Same original path listed twice; the first occurrence wins.
			b.logger.Warn("duplicate input path ignored", "path", src.OriginalPath)
			continue
		}

		unit := &SourceUnit{
			OriginalPath: src.OriginalPath,
			SyntheticID:  id,
			Content:      src.Content,
		}
		g.units = append(g.units, unit)
		g.byID[id] = unit
		g.byPath[src.OriginalPath] = id

		symbols, err := b.extractor.ExtractSource(ctx, src.OriginalPath, []byte(src.Content))
		if err != nil {
			// An unparsable file stays in the graph for text-tier analysis
			// but contributes no symbols.
			b.logger.Warn("symbol extraction failed", "path", src.OriginalPath, "error", err)
			continue
		}
		g.symbols[id] = symbols
	}

	return g, nil
}

// logicalName is the file name without its directory.
func logicalName(path string) string {
	return filepath.Base(path)
}

// assignSyntheticIDs resolves logical-name collisions. Groups sharing a name
// get a suffix derived from each file's directory segment; if directory
// segments also collide, an ordinal counter is the deterministic tie-break.
// Collisions are always resolved by suffixing, never by dropping a file.
func assignSyntheticIDs(sources []SourceUnit) []string {
	groups := make(map[string][]int)
	for i, src := range sources {
		name := logicalName(src.OriginalPath)
		groups[name] = append(groups[name], i)
	}

	ids := make([]string, len(sources))
	for name, members := range groups {
		if len(members) == 1 {
			ids[members[0]] = name
			continue
		}

		// Ordinals follow sorted path order, so an id never depends on the
		// order the inputs arrived in.
		sort.Slice(members, func(i, j int) bool {
			return sources[members[i]].OriginalPath < sources[members[j]].OriginalPath
		})

		seen := make(map[string]int, len(members))
		for _, idx := range members {
			candidate := suffixWithDir(name, sources[idx].OriginalPath)
			if n, taken := seen[candidate]; taken {
				seen[candidate] = n + 1
				candidate = suffixWithOrdinal(candidate, n+1)
			} else {
				seen[candidate] = 1
			}
			ids[idx] = candidate
		}
	}
	return ids
}

// suffixWithDir appends the immediate directory segment to a logical name:
// WebApp/Program.cs -> Program~WebApp.cs.
func suffixWithDir(name, fullPath string) string {
	dir := filepath.Base(filepath.Dir(fullPath))
	if dir == "." || dir == string(filepath.Separator) || dir == "" {
		dir = "root"
	}
	return stemOf(name) + "~" + dir + extOf(name)
}

func suffixWithOrdinal(id string, n int) string {
	return stemOf(id) + "~" + fmt.Sprintf("%d", n) + extOf(id)
}

func stemOf(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func extOf(name string) string {
	return filepath.Ext(name)
}
