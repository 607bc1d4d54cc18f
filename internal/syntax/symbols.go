package syntax

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Symbol represents an extracted symbol from source code.
type Symbol struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"` // "class", "interface", "struct", "enum", "method", "property", "field", "constructor"
	Path      string `json:"path"` // Original file path
	Line      int    `json:"line"` // Start line (1-indexed)
	EndLine   int    `json:"endLine"`
	Container string `json:"container,omitempty"` // Parent type name for members
	Signature string `json:"signature,omitempty"` // First line of the declaration
	Namespace string `json:"namespace,omitempty"`
}

// Extractor extracts symbols from C# source using tree-sitter.
type Extractor struct {
	parser *Parser
}

// NewExtractor creates a new symbol extractor.
func NewExtractor() *Extractor {
	return &Extractor{parser: NewParser()}
}

// ExtractSource extracts all symbols from source bytes.
func (e *Extractor) ExtractSource(ctx context.Context, path string, source []byte) ([]Symbol, error) {
	root, err := e.parser.Parse(ctx, source)
	if err != nil {
		return nil, err
	}
	return ExtractFromTree(root, path, source), nil
}

// ExtractFromTree extracts symbols from an already-parsed tree.
func ExtractFromTree(root *sitter.Node, path string, source []byte) []Symbol {
	var symbols []Symbol

	types := FindNodes(root, TypeDeclarationNodeTypes())
	for _, decl := range types {
		name := NameOf(decl, source)
		if name == "" {
			continue
		}
		sym := Symbol{
			Name:      name,
			Kind:      kindOfDeclaration(decl.Type()),
			Path:      path,
			Line:      StartLine(decl),
			EndLine:   EndLine(decl),
			Signature: signatureOf(decl, source),
			Namespace: enclosingNamespace(decl, source),
		}
		symbols = append(symbols, sym)
		symbols = append(symbols, extractMembers(decl, path, source, name)...)
	}

	return symbols
}

// extractMembers pulls member declarations out of a type declaration body.
func extractMembers(typeDecl *sitter.Node, path string, source []byte, container string) []Symbol {
	body := typeDecl.ChildByFieldName("body")
	if body == nil {
		return nil
	}

	var members []Symbol
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		kind := kindOfDeclaration(member.Type())
		if kind == "" {
			continue
		}

		name := memberName(member, source)
		if name == "" {
			continue
		}

		members = append(members, Symbol{
			Name:      name,
			Kind:      kind,
			Path:      path,
			Line:      StartLine(member),
			EndLine:   EndLine(member),
			Container: container,
			Signature: signatureOf(member, source),
		})
	}
	return members
}

// memberName resolves the declared name of a member node. Field declarations
// nest the name inside a variable_declarator instead of a name field.
func memberName(member *sitter.Node, source []byte) string {
	if name := NameOf(member, source); name != "" {
		return name
	}
	if member.Type() == "field_declaration" || member.Type() == "event_field_declaration" {
		declarators := FindNodes(member, []string{"variable_declarator"})
		if len(declarators) > 0 {
			if n := declarators[0].ChildByFieldName("name"); n != nil {
				return NodeText(n, source)
			}
			// Older grammar revisions expose the identifier as the first child.
			if declarators[0].ChildCount() > 0 {
				return NodeText(declarators[0].Child(0), source)
			}
		}
	}
	return ""
}

func kindOfDeclaration(nodeType string) string {
	switch nodeType {
	case "class_declaration":
		return "class"
	case "interface_declaration":
		return "interface"
	case "struct_declaration":
		return "struct"
	case "record_declaration":
		return "record"
	case "enum_declaration":
		return "enum"
	case "method_declaration":
		return "method"
	case "property_declaration":
		return "property"
	case "field_declaration":
		return "field"
	case "event_field_declaration":
		return "event"
	case "constructor_declaration":
		return "constructor"
	default:
		return ""
	}
}

// signatureOf returns the declaration's first line, trimmed.
func signatureOf(node *sitter.Node, source []byte) string {
	text := NodeText(node, source)
	if idx := strings.IndexAny(text, "\n{"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

func enclosingNamespace(node *sitter.Node, source []byte) string {
	ns := EnclosingOfType(node.Parent(), []string{"namespace_declaration", "file_scoped_namespace_declaration"})
	if ns == nil {
		return ""
	}
	return NameOf(ns, source)
}
