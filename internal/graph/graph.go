// Package graph builds compilation graphs: the combined, analyzable
// representation of a set of source files plus their derived symbol table.
// Its defining job is to admit many files that share a logical name by giving
// each a unique synthetic identity while preserving the mapping back to every
// file's true path.
package graph

import (
	"refx/internal/syntax"
)

// SourceUnit is one source file inside a compilation graph. Immutable once
// added to a graph.
type SourceUnit struct {
	OriginalPath string `json:"originalPath"`
	SyntheticID  string `json:"syntheticId"`
	Content      string `json:"-"`
}

// CompilationGraph owns a set of SourceUnits and a derived symbol table.
// Created per analysis request and discarded after the request completes.
type CompilationGraph struct {
	units  []*SourceUnit
	byID   map[string]*SourceUnit
	byPath map[string]string // originalPath -> syntheticID
	// symbols are keyed by synthetic ID so same-named files never shadow
	// each other's symbol sets.
	symbols map[string][]syntax.Symbol

	collisions int
	skipped    []string
}

// Len returns the number of units in the graph.
func (g *CompilationGraph) Len() int {
	return len(g.units)
}

// Units returns the units in insertion order.
func (g *CompilationGraph) Units() []*SourceUnit {
	return g.units
}

// SyntheticID resolves an original path to its synthetic identity.
func (g *CompilationGraph) SyntheticID(originalPath string) (string, bool) {
	id, ok := g.byPath[originalPath]
	return id, ok
}

// UnitByPath resolves an original path to its unit. All downstream lookups of
// "the model for file F" go through here so callers never have to know about
// synthetic identities.
func (g *CompilationGraph) UnitByPath(originalPath string) (*SourceUnit, bool) {
	id, ok := g.byPath[originalPath]
	if !ok {
		return nil, false
	}
	return g.byID[id], true
}

// UnitByID resolves a synthetic identity to its unit.
func (g *CompilationGraph) UnitByID(syntheticID string) (*SourceUnit, bool) {
	u, ok := g.byID[syntheticID]
	return u, ok
}

// Symbols returns the derived symbol table across all units.
func (g *CompilationGraph) Symbols() []syntax.Symbol {
	var all []syntax.Symbol
	for _, u := range g.units {
		all = append(all, g.symbols[u.SyntheticID]...)
	}
	return all
}

// SymbolsInUnit returns the symbols derived from one unit.
func (g *CompilationGraph) SymbolsInUnit(syntheticID string) []syntax.Symbol {
	return g.symbols[syntheticID]
}

// SymbolsNamed returns every symbol with the given name across all units.
func (g *CompilationGraph) SymbolsNamed(name string) []syntax.Symbol {
	var matches []syntax.Symbol
	for _, sym := range g.Symbols() {
		if sym.Name == name {
			matches = append(matches, sym)
		}
	}
	return matches
}

// CollisionCount returns how many logical-name collisions were resolved.
func (g *CompilationGraph) CollisionCount() int {
	return g.collisions
}

// SkippedPaths returns input paths that could not be read and were skipped.
func (g *CompilationGraph) SkippedPaths() []string {
	return g.skipped
}
