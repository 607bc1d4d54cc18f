// Package syntax wraps the tree-sitter C# grammar behind a small parsing and
// node-inspection API. It is the syntax provider consumed by the compilation
// graph, the strategy selector, and the refactoring engine; none of those
// packages touch tree-sitter types directly except through the helpers here.
package syntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/csharp"
)

// Parser wraps tree-sitter for C# parsing.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a new tree-sitter parser configured for C#.
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(csharp.GetLanguage())
	return &Parser{parser: p}
}

// Parse parses source code and returns the AST root node.
func (p *Parser) Parse(ctx context.Context, source []byte) (*sitter.Node, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return tree.RootNode(), nil
}

// ParseString is a convenience wrapper over Parse for string sources.
func (p *Parser) ParseString(ctx context.Context, source string) (*sitter.Node, error) {
	return p.Parse(ctx, []byte(source))
}

// HasErrors reports whether the parse tree contains ERROR or MISSING nodes.
// Used by the strategy selector to decide whether syntax-tier answers are
// trustworthy.
func HasErrors(root *sitter.Node) bool {
	if root == nil {
		return true
	}
	return root.HasError()
}

// TypeDeclarationNodeTypes returns the node types that declare types in C#.
func TypeDeclarationNodeTypes() []string {
	return []string{
		"class_declaration",
		"interface_declaration",
		"struct_declaration",
		"record_declaration",
		"enum_declaration",
	}
}

// MemberNodeTypes returns the node types that declare members of a type.
func MemberNodeTypes() []string {
	return []string{
		"method_declaration",
		"property_declaration",
		"field_declaration",
		"constructor_declaration",
		"event_field_declaration",
	}
}
