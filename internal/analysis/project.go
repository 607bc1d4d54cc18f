package analysis

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"refx/internal/errors"
	"refx/internal/graph"
)

// ProjectInfo describes one discovered project file.
type ProjectInfo struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	IsTest bool   `json:"isTest"`
}

// DuplicateName groups files sharing one logical file name.
type DuplicateName struct {
	Name  string   `json:"name"`
	Paths []string `json:"paths"`
}

// ProjectStructure is the shaped answer for a workspace overview.
type ProjectStructure struct {
	Root            string          `json:"root"`
	Solutions       []string        `json:"solutions,omitempty"`
	Projects        []ProjectInfo   `json:"projects,omitempty"`
	SourceFileCount int             `json:"sourceFileCount"`
	SymbolCounts    map[string]int  `json:"symbolCounts,omitempty"`
	Namespaces      []string        `json:"namespaces,omitempty"`
	DuplicateNames  []DuplicateName `json:"duplicateNames,omitempty"`
}

// AnalyzeProjectStructure summarizes the workspace: build targets, source
// files, symbol counts by kind, namespaces, and logical file-name
// collisions.
func (s *Service) AnalyzeProjectStructure(ctx context.Context, root string) (*ProjectStructure, error) {
	solutions, projects, err := discoverBuildFiles(ctx, root)
	if err != nil {
		return nil, err
	}

	g, err := s.LoadGraph(ctx, root)
	if err != nil {
		return nil, err
	}

	ps := &ProjectStructure{
		Root:            root,
		Solutions:       solutions,
		SourceFileCount: g.Len(),
		SymbolCounts:    map[string]int{},
		DuplicateNames:  duplicateNames(filePaths(g)),
	}
	for _, p := range projects {
		ps.Projects = append(ps.Projects, ProjectInfo{
			Name:   strings.TrimSuffix(filepath.Base(p), filepath.Ext(p)),
			Path:   p,
			IsTest: isTestProject(p),
		})
	}

	seen := map[string]bool{}
	for _, sym := range g.Symbols() {
		ps.SymbolCounts[sym.Kind]++
		if sym.Namespace != "" && !seen[sym.Namespace] {
			seen[sym.Namespace] = true
			ps.Namespaces = append(ps.Namespaces, sym.Namespace)
		}
	}
	sort.Strings(ps.Namespaces)
	return ps, nil
}

// SolutionReport is the shaped answer for one solution file.
type SolutionReport struct {
	Path            string          `json:"path"`
	Projects        []ProjectInfo   `json:"projects"`
	SourceFileCount int             `json:"sourceFileCount"`
	DuplicateNames  []DuplicateName `json:"duplicateNames,omitempty"`
}

// projectLine matches Project("{guid}") = "Name", "rel\path.csproj", ... in
// a solution file.
var projectLine = regexp.MustCompile(`Project\("\{[^}]+\}"\)\s*=\s*"([^"]+)",\s*"([^"]+\.csproj)"`)

// AnalyzeSolution parses a .sln file and reports its projects plus the
// logical file-name collisions across the whole solution.
func (s *Service) AnalyzeSolution(ctx context.Context, slnPath string) (*SolutionReport, error) {
	data, err := os.ReadFile(slnPath)
	if err != nil {
		return nil, errors.NewProjectDiscoveryFailed(slnPath).WithCause(err)
	}

	report := &SolutionReport{Path: slnPath}
	slnDir := filepath.Dir(slnPath)
	for _, m := range projectLine.FindAllStringSubmatch(string(data), -1) {
		rel := filepath.FromSlash(strings.ReplaceAll(m[2], `\`, "/"))
		report.Projects = append(report.Projects, ProjectInfo{
			Name:   m[1],
			Path:   filepath.Join(slnDir, rel),
			IsTest: isTestProject(rel),
		})
	}
	if len(report.Projects) == 0 {
		return nil, errors.Newf(errors.ProjectDiscoveryFailed, "no projects declared in %q", slnPath).
			WithSuggestion("Check the file is a Visual Studio solution")
	}

	files, err := s.SourceFiles(ctx, slnDir)
	if err != nil {
		return nil, err
	}
	report.SourceFileCount = len(files)
	report.DuplicateNames = duplicateNames(files)
	return report, nil
}

// discoverBuildFiles finds solution and project files under root.
func discoverBuildFiles(ctx context.Context, root string) (solutions, projects []string, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
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
		switch strings.ToLower(filepath.Ext(path)) {
		case ".sln":
			solutions = append(solutions, path)
		case ".csproj":
			projects = append(projects, path)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, err
		}
		return nil, nil, errors.NewProjectDiscoveryFailed(root).WithCause(err)
	}
	sort.Strings(solutions)
	sort.Strings(projects)
	return solutions, projects, nil
}

func isTestProject(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	return strings.Contains(base, "test") || strings.Contains(base, "spec")
}

func filePaths(g *graph.CompilationGraph) []string {
	paths := make([]string, 0, g.Len())
	for _, unit := range g.Units() {
		paths = append(paths, unit.OriginalPath)
	}
	return paths
}

// duplicateNames groups paths by base file name and keeps groups larger
// than one, sorted for stable output.
func duplicateNames(paths []string) []DuplicateName {
	byName := map[string][]string{}
	for _, p := range paths {
		name := filepath.Base(p)
		byName[name] = append(byName[name], p)
	}

	var dups []DuplicateName
	for name, group := range byName {
		if len(group) < 2 {
			continue
		}
		sort.Strings(group)
		dups = append(dups, DuplicateName{Name: name, Paths: group})
	}
	sort.Slice(dups, func(i, j int) bool { return dups[i].Name < dups[j].Name })
	return dups
}
