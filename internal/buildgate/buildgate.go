// Package buildgate decides whether deep analysis is safe to attempt on a
// codebase. It locates the most appropriate build target under a path and,
// when a build runner is available, inspects the external build's outcome
// before any semantic work is allowed to proceed.
package buildgate

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Status is the outcome of build validation.
type Status string

const (
	// StatusSuccess means a target was found and the build is clean
	StatusSuccess Status = "success"
	// StatusWarning means analysis may proceed in degraded mode
	StatusWarning Status = "warning"
	// StatusFailure is a hard stop for downstream analysis
	StatusFailure Status = "failure"
)

// Result is the pre-flight validation report.
type Result struct {
	Status         Status   `json:"status"`
	ChosenTarget   string   `json:"chosenTarget,omitempty"`
	ErrorSummary   string   `json:"errorSummary,omitempty"`
	ErrorCount     int      `json:"errorCount"`
	FailedProjects []string `json:"failedProjects,omitempty"`
}

// maxSummaryLines caps how many build error lines survive into ErrorSummary.
const maxSummaryLines = 12

// outputDirs are path segments that denote build output and are never
// searched for project files.
var outputDirs = map[string]bool{
	"bin": true,
	"obj": true,
}

// Gate validates build targets. The runner is optional: without one the gate
// only performs discovery and never reports Failure.
type Gate struct {
	runner       ExecRunner
	buildCommand string
	logger       *slog.Logger
}

// NewGate creates a build gate. buildCommand is the external build invocation
// (e.g. "dotnet build"); empty disables the build pass.
func NewGate(runner ExecRunner, buildCommand string, logger *slog.Logger) *Gate {
	return &Gate{runner: runner, buildCommand: buildCommand, logger: logger}
}

// Validate locates the best build target under path and reports whether deep
// analysis should proceed. Solution files win over project files; among
// projects, non-test projects are preferred. Nothing found is a Warning, not
// a Failure: syntax- and text-tier analysis can still answer.
func (g *Gate) Validate(ctx context.Context, path string) (*Result, error) {
	solutions, projects, err := discoverTargets(ctx, path)
	if err != nil {
		return nil, err
	}

	target := chooseTarget(solutions, projects)
	if target == "" {
		g.logger.Warn("no build target found", "path", path)
		return &Result{
			Status:       StatusWarning,
			ErrorSummary: "no solution or project file found; analysis will run in degraded mode",
		}, nil
	}

	result := &Result{Status: StatusSuccess, ChosenTarget: target}

	if g.buildCommand == "" || g.runner == nil {
		return result, nil
	}

	fields := strings.Fields(g.buildCommand)
	if _, err := g.runner.LookPath(fields[0]); err != nil {
		g.logger.Warn("build tool not available, skipping build pass", "command", fields[0])
		return result, nil
	}

	args := append(fields[1:], target)
	stdout, stderr, runErr := g.runner.Run(ctx, filepath.Dir(target), fields[0], args...)
	output := stdout
	if stderr != "" {
		output += "\n" + stderr
	}

	count, summary, failed := parseBuildErrors(output)
	if runErr != nil && count == 0 {
		// The build tool itself failed without reporting compiler errors.
		count = 1
		summary = firstLines(output, maxSummaryLines)
	}

	if count > 0 {
		result.Status = StatusFailure
		result.ErrorCount = count
		result.ErrorSummary = summary
		result.FailedProjects = failed
	}

	return result, nil
}

// discoverTargets walks path recursively collecting .sln and .csproj files,
// skipping build output directories.
func discoverTargets(ctx context.Context, path string) (solutions, projects []string, err error) {
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if outputDirs[strings.ToLower(name)] || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".sln":
			solutions = append(solutions, p)
		case ".csproj":
			projects = append(projects, p)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	sort.Strings(solutions)
	sort.Strings(projects)
	return solutions, projects, nil
}

// chooseTarget prefers solutions over projects and non-test projects over
// test projects.
func chooseTarget(solutions, projects []string) string {
	if len(solutions) > 0 {
		return solutions[0]
	}
	for _, p := range projects {
		if !isTestProject(p) {
			return p
		}
	}
	if len(projects) > 0 {
		return projects[0]
	}
	return ""
}

func isTestProject(path string) bool {
	name := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	return strings.Contains(name, "test") || strings.Contains(name, "spec")
}

// errorLine matches MSBuild-style compiler error lines:
//
//	Program.cs(12,5): error CS0103: The name 'foo' does not exist ... [Web.csproj]
var errorLine = regexp.MustCompile(`(?m)^.*: error [A-Z]+\d+:.*$`)

// projectSuffix extracts the trailing [Project.csproj] marker MSBuild appends.
var projectSuffix = regexp.MustCompile(`\[([^\[\]]+\.csproj)\]\s*$`)

// parseBuildErrors extracts the error count, a truncated summary of the most
// informative lines, and the set of failed projects from build output.
func parseBuildErrors(output string) (count int, summary string, failedProjects []string) {
	lines := errorLine.FindAllString(output, -1)
	count = len(lines)
	if count == 0 {
		return 0, "", nil
	}

	seen := make(map[string]bool)
	for _, line := range lines {
		if m := projectSuffix.FindStringSubmatch(line); m != nil {
			name := filepath.Base(m[1])
			if !seen[name] {
				seen[name] = true
				failedProjects = append(failedProjects, name)
			}
		}
	}
	sort.Strings(failedProjects)

	if len(lines) > maxSummaryLines {
		truncated := lines[:maxSummaryLines]
		summary = strings.Join(truncated, "\n") + "\n... and more"
	} else {
		summary = strings.Join(lines, "\n")
	}
	return count, summary, failedProjects
}

func firstLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
