// Package refactor implements the symbol refactoring engine: rename,
// extract-method, extract-interface, and introduce-variable as pure
// text-to-text transformations validated against a compilation graph. Source
// units are never mutated in place; every operation returns new code, which
// is what makes batch rollback trivial.
package refactor

import (
	"log/slog"
	"regexp"

	"refx/internal/syntax"
)

// Outcome is the result of one refactoring operation. Conflicts being
// non-empty means the operation is semantically ambiguous but the returned
// code is still syntactically valid; callers must check both ChangeCount and
// Conflicts.
type Outcome struct {
	ModifiedCode      string            `json:"modifiedCode"`
	ModifiedUnits     map[string]string `json:"modifiedUnits,omitempty"` // originalPath -> new content, workspace ops only
	ExtractedArtifact string            `json:"extractedArtifact,omitempty"`
	UsedIdentifiers   []string          `json:"usedIdentifiers,omitempty"`
	ReturnType        string            `json:"returnType,omitempty"`
	ChangeCount       int               `json:"changeCount"`
	Conflicts         []string          `json:"conflicts,omitempty"`
}

// Scope controls where a rename looks for occurrences.
type Scope string

const (
	// ScopeSingleFile renames syntactic occurrences in one unit
	ScopeSingleFile Scope = "single-file"
	// ScopeWorkspace renames the declaration and every confirmed reference
	// across all units of a compilation graph
	ScopeWorkspace Scope = "workspace"
)

// Placement controls where introduce-variable puts the declaration.
type Placement string

const (
	// PlacementLocal declares inside the enclosing method
	PlacementLocal Placement = "local"
	// PlacementField declares a private field on the enclosing type
	PlacementField Placement = "field"
	// PlacementProperty declares a property on the enclosing type
	PlacementProperty Placement = "property"
)

// Engine performs refactoring operations. It borrows a compilation graph for
// the duration of one operation and never holds state across operations.
type Engine struct {
	parser *syntax.Parser
	logger *slog.Logger
}

// NewEngine creates a refactoring engine.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		parser: syntax.NewParser(),
		logger: logger,
	}
}

// identifierPattern is the shape of a legal C# identifier.
var identifierPattern = regexp.MustCompile(`^@?[\p{L}_][\p{L}\p{Nd}_]*$`)

// ValidIdentifier reports whether name can be used as a declared name.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// edit is a byte-range replacement inside one source string.
type edit struct {
	start, end int
	text       string
}

// applyEdits replays non-overlapping edits against source. Edits are applied
// back to front so earlier offsets stay valid.
func applyEdits(source string, edits []edit) string {
	// Sort descending by start.
	for i := 1; i < len(edits); i++ {
		for j := i; j > 0 && edits[j].start > edits[j-1].start; j-- {
			edits[j], edits[j-1] = edits[j-1], edits[j]
		}
	}
	out := source
	for _, e := range edits {
		if e.start < 0 || e.end > len(out) || e.start > e.end {
			continue
		}
		out = out[:e.start] + e.text + out[e.end:]
	}
	return out
}
