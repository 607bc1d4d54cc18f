package refactor

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"refx/internal/errors"
	"refx/internal/graph"
	"refx/internal/syntax"
)

// RenameSymbol renames oldName to newName within a single source unit.
// Occurrences are identifier nodes only, so text inside strings and comments
// is never touched. A symbol that does not occur is not an error: "rename
// nothing" is a valid, successful outcome with ChangeCount zero.
func (e *Engine) RenameSymbol(ctx context.Context, source, oldName, newName string) (*Outcome, error) {
	if err := validateRenameArgs(oldName, newName); err != nil {
		return nil, err
	}

	root, err := e.parser.ParseString(ctx, source)
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{ModifiedCode: source}

	if identifierInUse(root, source, newName) {
		outcome.Conflicts = append(outcome.Conflicts,
			"name "+newName+" is already in use in this file")
	}

	modified, count := renameInTree(root, source, oldName, newName)
	outcome.ModifiedCode = modified
	outcome.ChangeCount = count
	return outcome, nil
}

// RenameSymbolInGraph renames oldName across every unit of a compilation
// graph. The declaration must be resolvable in the graph's symbol table: the
// rename targets that resolved identity, not bare text. kind narrows
// resolution ("class", "method", ...); empty matches any kind. An
// unresolvable symbol yields ChangeCount zero, not an error.
func (e *Engine) RenameSymbolInGraph(ctx context.Context, g *graph.CompilationGraph, oldName, newName, kind string) (*Outcome, error) {
	if err := validateRenameArgs(oldName, newName); err != nil {
		return nil, err
	}

	declarations := resolveDeclarations(g, oldName, kind)
	outcome := &Outcome{ModifiedUnits: make(map[string]string)}

	if len(declarations) == 0 {
		return outcome, nil
	}
	if distinctContainers(declarations) > 1 {
		outcome.Conflicts = append(outcome.Conflicts,
			"symbol "+oldName+" resolves to more than one declaration; all occurrences were renamed")
	}

	for _, unit := range g.Units() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		root, err := e.parser.ParseString(ctx, unit.Content)
		if err != nil {
			e.logger.Warn("skipping unparsable unit during rename", "unit", unit.OriginalPath, "error", err)
			continue
		}

		if identifierInUse(root, unit.Content, newName) {
			outcome.Conflicts = append(outcome.Conflicts,
				"name "+newName+" is already in use in "+unit.OriginalPath)
		}

		modified, count := renameInTree(root, unit.Content, oldName, newName)
		if count > 0 {
			outcome.ModifiedUnits[unit.OriginalPath] = modified
			outcome.ChangeCount += count
		}
	}
	return outcome, nil
}

func validateRenameArgs(oldName, newName string) error {
	if oldName == "" {
		return errors.NewConfiguration("oldName", "must not be empty")
	}
	if !ValidIdentifier(newName) {
		return errors.NewConfiguration("newName", "not a valid identifier")
	}
	return nil
}

// renameInTree replaces every identifier node spelled name. Working from the
// parse tree rather than the raw text is what keeps string literals,
// comments, and longer names containing the target untouched.
func renameInTree(root *sitter.Node, source, oldName, newName string) (string, int) {
	var edits []edit
	for _, id := range syntax.Identifiers(root) {
		if syntax.NodeText(id, []byte(source)) != oldName {
			continue
		}
		edits = append(edits, edit{
			start: int(id.StartByte()),
			end:   int(id.EndByte()),
			text:  newName,
		})
	}
	return applyEdits(source, edits), len(edits)
}

// identifierInUse reports whether name already occurs as an identifier.
func identifierInUse(root *sitter.Node, source, name string) bool {
	for _, id := range syntax.Identifiers(root) {
		if syntax.NodeText(id, []byte(source)) == name {
			return true
		}
	}
	return false
}

// resolveDeclarations finds the declarations the rename targets in the
// graph's symbol table.
func resolveDeclarations(g *graph.CompilationGraph, name, kind string) []syntax.Symbol {
	var matches []syntax.Symbol
	for _, sym := range g.SymbolsNamed(name) {
		if kind != "" && sym.Kind != kind {
			continue
		}
		matches = append(matches, sym)
	}
	return matches
}

// distinctContainers counts how many separate declaring scopes the matches
// span; more than one means the name is ambiguous across the workspace.
func distinctContainers(declarations []syntax.Symbol) int {
	seen := make(map[string]bool)
	for _, d := range declarations {
		seen[d.Container+"/"+d.Namespace] = true
	}
	return len(seen)
}
