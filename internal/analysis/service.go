// Package analysis implements the read-only analysis operations: symbol
// search, class context, and project/solution structure. Symbol search runs
// through the tiered strategy selector so an answer always comes back, tagged
// with the tier that produced it.
package analysis

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"refx/internal/buildgate"
	"refx/internal/config"
	"refx/internal/errors"
	"refx/internal/graph"
	"refx/internal/strategy"
)

// Service answers analysis requests over a workspace on disk.
type Service struct {
	selector *strategy.Selector
	builder  *graph.Builder
	gate     *buildgate.Gate
	limits   config.LimitsConfig
	logger   *slog.Logger
}

// NewService creates an analysis service. gate may be nil, in which case the
// semantic tier is never available and every answer degrades to syntax or
// text.
func NewService(gate *buildgate.Gate, limits config.LimitsConfig, logger *slog.Logger) *Service {
	return &Service{
		selector: strategy.NewSelector(logger),
		builder:  graph.NewBuilder(logger),
		gate:     gate,
		limits:   limits,
		logger:   logger,
	}
}

// SourceFiles lists the C# files under root, skipping build output and dot
// directories. Exceeding the configured file limit is a hard error so a
// misdirected path cannot stall the server.
func (s *Service) SourceFiles(ctx context.Context, root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if d.IsDir() {
			name := d.Name()
			if name == "bin" || name == "obj" || (strings.HasPrefix(name, ".") && path != root) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".cs") {
			files = append(files, path)
			if len(files) > s.limits.MaxFiles {
				return errors.NewResourceLimit(s.limits.MaxFiles, "workspace file count")
			}
		}
		return nil
	})
	if err != nil {
		if errors.KindOf(err) == errors.ResourceLimitExceeded || ctx.Err() != nil {
			return nil, err
		}
		return nil, errors.NewProjectDiscoveryFailed(root).WithCause(err)
	}
	return files, nil
}

// LoadGraph builds the compilation graph for the workspace.
func (s *Service) LoadGraph(ctx context.Context, root string) (*graph.CompilationGraph, error) {
	files, err := s.SourceFiles(ctx, root)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(ctx, files)
}
