package syntax

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// FindNodes walks the tree and returns all nodes whose type is in nodeTypes.
func FindNodes(root *sitter.Node, nodeTypes []string) []*sitter.Node {
	typeSet := make(map[string]bool, len(nodeTypes))
	for _, t := range nodeTypes {
		typeSet[t] = true
	}

	var result []*sitter.Node
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if typeSet[node.Type()] {
			result = append(result, node)
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}
	walk(root)
	return result
}

// NodeText returns the source text spanned by a node.
func NodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if int(end) > len(source) {
		return ""
	}
	return string(source[start:end])
}

// NameOf returns the text of a declaration's "name" field, or "".
func NameOf(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return NodeText(node.ChildByFieldName("name"), source)
}

// StartLine returns the 1-indexed start line of a node.
func StartLine(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// EndLine returns the 1-indexed end line of a node.
func EndLine(node *sitter.Node) int {
	return int(node.EndPoint().Row) + 1
}

// Modifiers returns the modifier keywords attached to a declaration.
func Modifiers(node *sitter.Node, source []byte) []string {
	var mods []string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "modifier" {
			mods = append(mods, NodeText(child, source))
		}
	}
	return mods
}

// IsPublic reports whether a declaration carries the public modifier.
func IsPublic(node *sitter.Node, source []byte) bool {
	for _, m := range Modifiers(node, source) {
		if m == "public" {
			return true
		}
	}
	return false
}

// EnclosingOfType returns the nearest ancestor (including node itself) whose
// type is in nodeTypes, or nil.
func EnclosingOfType(node *sitter.Node, nodeTypes []string) *sitter.Node {
	typeSet := make(map[string]bool, len(nodeTypes))
	for _, t := range nodeTypes {
		typeSet[t] = true
	}
	for n := node; n != nil; n = n.Parent() {
		if typeSet[n.Type()] {
			return n
		}
	}
	return nil
}

// Identifiers returns every identifier node under root, in document order.
func Identifiers(root *sitter.Node) []*sitter.Node {
	return FindNodes(root, []string{"identifier"})
}

// NormalizeExpression strips an expression's whitespace so two renderings of
// the same expression compare equal. Used for structural matching in
// introduce-variable.
func NormalizeExpression(expr string) string {
	return strings.Join(strings.Fields(expr), "")
}
