package refactor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"refx/internal/errors"
	"refx/internal/syntax"
)

// ExtractMethod pulls selectedText out of its enclosing method into a new
// method named newName, replacing the selection with a call. The selection
// must match verbatim: exact text match is a deliberate contract so the wrong
// statement is never extracted. Absent text is NotFound.
func (e *Engine) ExtractMethod(ctx context.Context, source, selectedText, newName string) (*Outcome, error) {
	if strings.TrimSpace(selectedText) == "" {
		return nil, errors.NewConfiguration("selectedText", "must not be empty")
	}
	if !ValidIdentifier(newName) {
		return nil, errors.NewConfiguration("newName", "not a valid identifier")
	}

	selStart := strings.Index(source, selectedText)
	if selStart < 0 {
		return nil, errors.NewNotFound("selection", truncateForMessage(selectedText)).
			WithSuggestion("The selection must match the source text exactly, including whitespace")
	}
	selEnd := selStart + len(selectedText)

	root, err := e.parser.ParseString(ctx, source)
	if err != nil {
		return nil, err
	}

	src := []byte(source)
	enclosing := enclosingMethodAt(root, selStart, selEnd)
	if enclosing == nil {
		return nil, errors.New(errors.NotFound, "selection is not inside a method body").
			WithSuggestion("Select one or more complete statements inside a method")
	}

	outcome := &Outcome{}
	if container := syntax.EnclosingOfType(enclosing, syntax.TypeDeclarationNodeTypes()); container != nil {
		if methodExists(container, src, newName) {
			outcome.Conflicts = append(outcome.Conflicts,
				"method "+newName+" already exists in "+syntax.NameOf(container, src))
		}
	}

	declared := declarationsIn(enclosing, src)
	used := freeIdentifiers(root, src, selStart, selEnd, declared)
	outcome.UsedIdentifiers = namesOf(used)

	returns := containsReturnStatement(root, selStart, selEnd)
	returnType := "void"
	if returns {
		returnType = returnTypeOf(enclosing, src)
	}
	outcome.ReturnType = returnType

	params := make([]string, len(used))
	args := make([]string, len(used))
	for i, u := range used {
		params[i] = u.Type + " " + u.Name
		args[i] = u.Name
	}

	indent := lineIndent(source, int(enclosing.StartByte()))
	call := newName + "(" + strings.Join(args, ", ") + ");"
	if returns && returnType != "void" {
		call = "return " + call
	}

	method := buildMethodText(indent, returnType, newName, params, selectedText)

	edits := []edit{
		{start: selStart, end: selEnd, text: call},
		{start: int(enclosing.EndByte()), end: int(enclosing.EndByte()), text: "\n\n" + method},
	}
	outcome.ModifiedCode = applyEdits(source, edits)
	outcome.ExtractedArtifact = method
	outcome.ChangeCount = 2
	return outcome, nil
}

// declaration is a name declared in the enclosing method (parameter or local)
// together with its declared type and position.
type declaration struct {
	Name  string
	Type  string
	Start int
}

// enclosingMethodAt finds the innermost method or constructor whose span
// covers [start, end).
func enclosingMethodAt(root *sitter.Node, start, end int) *sitter.Node {
	var best *sitter.Node
	for _, m := range syntax.FindNodes(root, []string{"method_declaration", "constructor_declaration", "local_function_statement"}) {
		if int(m.StartByte()) <= start && end <= int(m.EndByte()) {
			if best == nil || m.StartByte() > best.StartByte() {
				best = m
			}
		}
	}
	return best
}

// declarationsIn collects parameters and local declarations of a method.
func declarationsIn(method *sitter.Node, src []byte) []declaration {
	var decls []declaration

	if params := method.ChildByFieldName("parameters"); params != nil {
		for _, p := range syntax.FindNodes(params, []string{"parameter"}) {
			name := syntax.NameOf(p, src)
			typ := fieldOrFallbackType(p, src)
			if name != "" {
				decls = append(decls, declaration{Name: name, Type: typ, Start: int(p.StartByte())})
			}
		}
	}

	for _, local := range syntax.FindNodes(method, []string{"variable_declaration"}) {
		typ := strings.TrimSpace(syntax.NodeText(local.ChildByFieldName("type"), src))
		for _, vd := range syntax.FindNodes(local, []string{"variable_declarator"}) {
			name := declaratorName(vd, src)
			if name != "" {
				decls = append(decls, declaration{Name: name, Type: typ, Start: int(vd.StartByte())})
			}
		}
	}

	return decls
}

// freeIdentifiers returns the declarations referenced inside [start, end) but
// declared outside it, ordered by first use in the selection.
func freeIdentifiers(root *sitter.Node, src []byte, start, end int, decls []declaration) []declaration {
	byName := make(map[string]declaration, len(decls))
	for _, d := range decls {
		byName[d.Name] = d
	}

	firstUse := make(map[string]int)
	for _, id := range syntax.Identifiers(root) {
		pos := int(id.StartByte())
		if pos < start || pos >= end {
			continue
		}
		name := syntax.NodeText(id, src)
		decl, isDeclared := byName[name]
		if !isDeclared {
			continue
		}
		// Declared inside the selection: not free.
		if decl.Start >= start && decl.Start < end {
			continue
		}
		if _, seen := firstUse[name]; !seen {
			firstUse[name] = pos
		}
	}

	var used []declaration
	for name := range firstUse {
		used = append(used, byName[name])
	}
	sort.Slice(used, func(i, j int) bool {
		return firstUse[used[i].Name] < firstUse[used[j].Name]
	})
	return used
}

func namesOf(decls []declaration) []string {
	names := make([]string, len(decls))
	for i, d := range decls {
		names[i] = d.Name
	}
	return names
}

// containsReturnStatement reports whether the selection span covers an actual
// return statement. Identifiers that merely contain "return" do not count.
func containsReturnStatement(root *sitter.Node, start, end int) bool {
	for _, r := range syntax.FindNodes(root, []string{"return_statement"}) {
		if int(r.StartByte()) >= start && int(r.EndByte()) <= end {
			return true
		}
	}
	return false
}

// returnTypeOf reads a method's declared return type; the extracted method
// returns whatever the enclosing method returns when the selection contains
// a return statement.
func returnTypeOf(method *sitter.Node, src []byte) string {
	if t := method.ChildByFieldName("type"); t != nil {
		return strings.TrimSpace(syntax.NodeText(t, src))
	}
	if t := method.ChildByFieldName("returns"); t != nil {
		return strings.TrimSpace(syntax.NodeText(t, src))
	}
	return "void"
}

// fieldOrFallbackType reads a parameter's type, falling back to the child
// preceding the name when the grammar exposes no field.
func fieldOrFallbackType(param *sitter.Node, src []byte) string {
	if t := param.ChildByFieldName("type"); t != nil {
		return strings.TrimSpace(syntax.NodeText(t, src))
	}
	if param.NamedChildCount() >= 2 {
		return strings.TrimSpace(syntax.NodeText(param.NamedChild(0), src))
	}
	return "object"
}

func declaratorName(vd *sitter.Node, src []byte) string {
	if n := vd.ChildByFieldName("name"); n != nil {
		return syntax.NodeText(n, src)
	}
	if vd.ChildCount() > 0 {
		return syntax.NodeText(vd.Child(0), src)
	}
	return ""
}

// methodExists reports whether the type body already declares a method named name.
func methodExists(typeDecl *sitter.Node, src []byte, name string) bool {
	for _, m := range syntax.FindNodes(typeDecl, []string{"method_declaration"}) {
		if syntax.NameOf(m, src) == name {
			return true
		}
	}
	return false
}

// buildMethodText renders the extracted method, re-indenting the selection
// one level below the method header.
func buildMethodText(indent, returnType, name string, params []string, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%sprivate %s %s(%s)\n", indent, returnType, name, strings.Join(params, ", "))
	b.WriteString(indent + "{\n")
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		b.WriteString(indent + "    " + strings.TrimSpace(line) + "\n")
	}
	b.WriteString(indent + "}")
	return b.String()
}

// lineIndent returns the leading whitespace of the line containing pos.
func lineIndent(source string, pos int) string {
	lineStart := strings.LastIndexByte(source[:pos], '\n') + 1
	i := lineStart
	for i < len(source) && (source[i] == ' ' || source[i] == '\t') {
		i++
	}
	return source[lineStart:i]
}

func truncateForMessage(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
