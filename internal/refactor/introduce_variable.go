package refactor

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"refx/internal/errors"
	"refx/internal/syntax"
)

// statementNodeTypes are the C# statement forms a declaration can precede.
var statementNodeTypes = []string{
	"local_declaration_statement",
	"expression_statement",
	"return_statement",
	"if_statement",
	"for_statement",
	"foreach_statement",
	"while_statement",
	"do_statement",
	"switch_statement",
	"throw_statement",
}

// IntroduceVariable replaces occurrences of expression with a named variable
// and inserts its declaration at the requested placement. The expression is
// matched structurally (whitespace-insensitive), not verbatim; call
// expressions get an inferred placeholder type since their result type is not
// syntactically obvious.
func (e *Engine) IntroduceVariable(ctx context.Context, source, expression, name string, placement Placement) (*Outcome, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, errors.NewConfiguration("expression", "must not be empty")
	}
	if !ValidIdentifier(name) {
		return nil, errors.NewConfiguration("name", "not a valid identifier")
	}
	switch placement {
	case PlacementLocal, PlacementField, PlacementProperty:
	case "":
		placement = PlacementLocal
	default:
		return nil, errors.NewConfiguration("scope", "must be local, field, or property")
	}

	root, err := e.parser.ParseString(ctx, source)
	if err != nil {
		return nil, err
	}
	src := []byte(source)

	matches := matchExpressions(root, src, expression)
	if len(matches) == 0 {
		return nil, errors.NewNotFound("expression", truncateForMessage(expression)).
			WithSuggestion("The expression is matched structurally; check it appears in the target code")
	}

	outcome := &Outcome{}
	if identifierInUse(root, source, name) {
		outcome.Conflicts = append(outcome.Conflicts,
			"name "+name+" is already in use in this file")
	}

	exprType := inferExpressionType(matches[0], src)
	exprText := syntax.NodeText(matches[0], src)

	var edits []edit
	for _, m := range matches {
		edits = append(edits, edit{start: int(m.StartByte()), end: int(m.EndByte()), text: name})
	}

	decl, declEdit, err := declarationEdit(source, src, matches[0], placement, exprType, name, exprText)
	if err != nil {
		return nil, err
	}
	edits = append(edits, declEdit)

	outcome.ModifiedCode = applyEdits(source, edits)
	outcome.ExtractedArtifact = decl
	outcome.ReturnType = exprType
	outcome.ChangeCount = len(edits)
	return outcome, nil
}

// matchExpressions finds non-overlapping expression nodes structurally equal
// to the requested expression, outermost match winning.
func matchExpressions(root *sitter.Node, src []byte, expression string) []*sitter.Node {
	target := syntax.NormalizeExpression(expression)

	var matches []*sitter.Node
	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if isExpressionNode(node.Type()) && syntax.NormalizeExpression(syntax.NodeText(node, src)) == target {
			matches = append(matches, node)
			return // outermost wins; do not match inside a match
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}
	walk(root)
	return matches
}

func isExpressionNode(nodeType string) bool {
	return strings.HasSuffix(nodeType, "_expression") ||
		strings.HasSuffix(nodeType, "_literal") ||
		nodeType == "interpolated_string_expression"
}

// inferExpressionType picks a declared type for the variable. Literals map to
// their obvious types; calls and everything else fall back to var, the
// inferred placeholder.
func inferExpressionType(expr *sitter.Node, src []byte) string {
	switch expr.Type() {
	case "integer_literal":
		return "int"
	case "real_literal":
		return "double"
	case "string_literal", "verbatim_string_literal", "raw_string_literal", "interpolated_string_expression":
		return "string"
	case "boolean_literal":
		return "bool"
	case "character_literal":
		return "char"
	case "object_creation_expression":
		if t := expr.ChildByFieldName("type"); t != nil {
			return strings.TrimSpace(syntax.NodeText(t, src))
		}
		return "var"
	default:
		return "var"
	}
}

// declarationEdit renders the declaration text and the edit that inserts it
// at the nearest enclosing scope matching the requested placement.
func declarationEdit(source string, src []byte, firstMatch *sitter.Node, placement Placement, exprType, name, exprText string) (string, edit, error) {
	switch placement {
	case PlacementLocal:
		stmt := syntax.EnclosingOfType(firstMatch, statementNodeTypes)
		if stmt == nil {
			return "", edit{}, errors.New(errors.NotFound, "expression is not inside a statement").
				WithSuggestion("Use scope=field for expressions outside method bodies")
		}
		indent := lineIndent(source, int(stmt.StartByte()))
		decl := exprType + " " + name + " = " + exprText + ";"
		at := int(stmt.StartByte())
		return decl, edit{start: at, end: at, text: decl + "\n" + indent}, nil

	case PlacementField, PlacementProperty:
		class := syntax.EnclosingOfType(firstMatch, syntax.TypeDeclarationNodeTypes())
		if class == nil {
			return "", edit{}, errors.New(errors.NotFound, "expression is not inside a type declaration")
		}
		body := class.ChildByFieldName("body")
		if body == nil {
			return "", edit{}, errors.New(errors.NotFound, "type declaration has no body")
		}

		classIndent := lineIndent(source, int(class.StartByte()))
		memberIndent := classIndent + "    "

		var decl string
		if placement == PlacementField {
			decl = "private " + fieldType(exprType) + " " + name + " = " + exprText + ";"
		} else {
			decl = "private " + fieldType(exprType) + " " + name + " => " + exprText + ";"
		}

		// Insert just after the opening brace of the type body.
		at := int(body.StartByte()) + 1
		return decl, edit{start: at, end: at, text: "\n" + memberIndent + decl}, nil
	}
	return "", edit{}, errors.NewConfiguration("scope", "unsupported placement")
}

// fieldType maps the local-only var placeholder to object for member
// declarations, where var is not legal.
func fieldType(t string) string {
	if t == "var" {
		return "object"
	}
	return t
}
