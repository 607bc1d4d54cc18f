package refactor

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"refx/internal/errors"
	"refx/internal/syntax"
)

// ExtractInterface generates an interface from a class's publicly-visible
// methods and properties, and adds the interface to the class's base list.
// memberNames narrows the selection; empty means every public member. A class
// that does not exist is NotFound.
func (e *Engine) ExtractInterface(ctx context.Context, source, className, interfaceName string, memberNames []string) (*Outcome, error) {
	if className == "" {
		return nil, errors.NewConfiguration("className", "must not be empty")
	}
	if !ValidIdentifier(interfaceName) {
		return nil, errors.NewConfiguration("interfaceName", "not a valid identifier")
	}

	root, err := e.parser.ParseString(ctx, source)
	if err != nil {
		return nil, err
	}
	src := []byte(source)

	class := findClass(root, src, className)
	if class == nil {
		return nil, errors.NewNotFound("class", className)
	}

	outcome := &Outcome{}

	wanted := make(map[string]bool, len(memberNames))
	for _, m := range memberNames {
		wanted[m] = true
	}

	var signatures []string
	for _, member := range publicMembers(class, src) {
		name := memberDeclaredName(member, src)
		if len(wanted) > 0 && !wanted[name] {
			continue
		}
		if sig := interfaceSignature(member, src); sig != "" {
			signatures = append(signatures, sig)
		}
	}

	if len(signatures) == 0 {
		outcome.Conflicts = append(outcome.Conflicts,
			"class "+className+" has no public members matching the request")
	}

	indent := lineIndent(source, int(class.StartByte()))
	artifact := buildInterfaceText(indent, interfaceName, signatures)
	outcome.ExtractedArtifact = artifact

	edits := []edit{
		{start: int(class.StartByte()), end: int(class.StartByte()), text: artifact + "\n\n" + indent},
	}
	if baseEdit, ok := addToBaseList(class, src, interfaceName); ok {
		edits = append(edits, baseEdit)
	} else {
		outcome.Conflicts = append(outcome.Conflicts,
			"class "+className+" already declares "+interfaceName+" in its base list")
	}

	outcome.ModifiedCode = applyEdits(source, edits)
	outcome.ChangeCount = len(edits)
	return outcome, nil
}

// findClass locates a class or record declaration by name.
func findClass(root *sitter.Node, src []byte, name string) *sitter.Node {
	for _, c := range syntax.FindNodes(root, []string{"class_declaration", "record_declaration", "struct_declaration"}) {
		if syntax.NameOf(c, src) == name {
			return c
		}
	}
	return nil
}

// publicMembers returns the class's public method and property declarations.
func publicMembers(class *sitter.Node, src []byte) []*sitter.Node {
	body := class.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var members []*sitter.Node
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		switch member.Type() {
		case "method_declaration", "property_declaration":
			if syntax.IsPublic(member, src) {
				members = append(members, member)
			}
		}
	}
	return members
}

func memberDeclaredName(member *sitter.Node, src []byte) string {
	return syntax.NameOf(member, src)
}

// interfaceSignature renders one member as an interface member.
func interfaceSignature(member *sitter.Node, src []byte) string {
	name := syntax.NameOf(member, src)
	if name == "" {
		return ""
	}

	// Methods expose the return type under "returns" in the grammar;
	// properties under "type". returnTypeOf handles both.
	typ := returnTypeOf(member, src)

	switch member.Type() {
	case "method_declaration":
		params := ""
		if p := member.ChildByFieldName("parameters"); p != nil {
			params = strings.TrimSpace(syntax.NodeText(p, src))
			params = strings.TrimPrefix(params, "(")
			params = strings.TrimSuffix(params, ")")
		}
		return fmt.Sprintf("%s %s(%s);", typ, name, params)
	case "property_declaration":
		accessors := "{ get; set; }"
		if a := member.ChildByFieldName("accessors"); a != nil {
			if !strings.Contains(syntax.NodeText(a, src), "set") {
				accessors = "{ get; }"
			}
		}
		return fmt.Sprintf("%s %s %s", typ, name, accessors)
	}
	return ""
}

// addToBaseList produces the edit that appends interfaceName to the class's
// base list, creating one if the class has none. ok is false when the
// interface is already listed.
func addToBaseList(class *sitter.Node, src []byte, interfaceName string) (edit, bool) {
	if bases := class.ChildByFieldName("bases"); bases != nil {
		text := syntax.NodeText(bases, src)
		if strings.Contains(text, interfaceName) {
			return edit{}, false
		}
		end := int(bases.EndByte())
		return edit{start: end, end: end, text: ", " + interfaceName}, true
	}

	// No base list: insert ": IName" between the name (or type parameters)
	// and the body.
	insertAt := int(class.StartByte())
	if n := class.ChildByFieldName("name"); n != nil {
		insertAt = int(n.EndByte())
	}
	if tp := class.ChildByFieldName("type_parameters"); tp != nil {
		insertAt = int(tp.EndByte())
	}
	return edit{start: insertAt, end: insertAt, text: " : " + interfaceName}, true
}

// buildInterfaceText renders the extracted interface declaration.
func buildInterfaceText(indent, name string, signatures []string) string {
	var b strings.Builder
	b.WriteString(indent + "public interface " + name + "\n")
	b.WriteString(indent + "{\n")
	for _, sig := range signatures {
		b.WriteString(indent + "    " + sig + "\n")
	}
	b.WriteString(indent + "}")
	return b.String()
}
