package mcp

import (
	"context"

	"refx/internal/envelope"
)

// Tool describes one tool exposed to the client.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// ToolHandler handles a tool call and returns an envelope response.
type ToolHandler func(ctx context.Context, params map[string]interface{}) (*envelope.Response, error)

func (s *Server) registerTools() {
	s.tools["find_symbol"] = s.toolFindSymbol
	s.tools["get_class_context"] = s.toolGetClassContext
	s.tools["analyze_project_structure"] = s.toolAnalyzeProjectStructure
	s.tools["analyze_solution"] = s.toolAnalyzeSolution
	s.tools["validate_build"] = s.toolValidateBuild
	s.tools["rename_symbol"] = s.toolRenameSymbol
	s.tools["extract_method"] = s.toolExtractMethod
	s.tools["extract_interface"] = s.toolExtractInterface
	s.tools["introduce_variable"] = s.toolIntroduceVariable
	s.tools["auto_fix"] = s.toolAutoFix
	s.tools["batch_refactor"] = s.toolBatchRefactor
}

// ToolDefinitions returns the schema for every registered tool.
func (s *Server) ToolDefinitions() []Tool {
	pathProp := map[string]interface{}{
		"type":        "string",
		"description": "Workspace directory to analyze",
	}
	codeProp := map[string]interface{}{
		"type":        "string",
		"description": "C# source text to operate on",
	}

	return []Tool{
		{
			Name:        "find_symbol",
			Description: "Locate declarations of a symbol by exact name. Answers semantically when the build passes, degrading through syntax and text analysis otherwise; the response reports which tier produced it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProp,
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Exact symbol name",
					},
					"kind": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"class", "interface", "struct", "enum", "method", "property", "field", "constructor"},
						"description": "Restrict matches to one declaration kind",
					},
				},
				"required": []string{"path", "name"},
			},
		},
		{
			Name:        "get_class_context",
			Description: "Get a type declaration with its members and a source excerpt. With a passing build, also counts references across the workspace.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProp,
					"className": map[string]interface{}{
						"type":        "string",
						"description": "Exact type name",
					},
				},
				"required": []string{"path", "className"},
			},
		},
		{
			Name:        "analyze_project_structure",
			Description: "Summarize a workspace: solutions, projects, source file count, symbol counts by kind, namespaces, and duplicate logical file names.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProp,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "analyze_solution",
			Description: "Parse a .sln file and report its projects plus duplicate file names across the solution.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Path to the .sln file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "validate_build",
			Description: "Run pre-flight build validation on a workspace and report success, warning, or failure with an error summary. Results are cached by content fingerprint.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProp,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "rename_symbol",
			Description: "Rename a symbol. Given source text, renames syntactic occurrences in it; given a workspace path with scope=workspace, renames the declaration and confirmed references across all files. Renaming a name that does not occur is a successful no-op.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"code": codeProp,
					"path": pathProp,
					"oldName": map[string]interface{}{
						"type":        "string",
						"description": "Current symbol name",
					},
					"newName": map[string]interface{}{
						"type":        "string",
						"description": "Replacement name (must be a valid identifier)",
					},
					"kind": map[string]interface{}{
						"type":        "string",
						"description": "Declaration kind filter for workspace renames",
					},
					"scope": map[string]interface{}{
						"type":    "string",
						"enum":    []string{"single-file", "workspace"},
						"default": "single-file",
					},
				},
				"required": []string{"oldName", "newName"},
			},
		},
		{
			Name:        "extract_method",
			Description: "Extract a verbatim code selection into a new private method and replace the selection with a call. Reports the identifiers the selection uses and the inferred return type.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"code": codeProp,
					"selection": map[string]interface{}{
						"type":        "string",
						"description": "Exact text of the statements to extract",
					},
					"newName": map[string]interface{}{
						"type":        "string",
						"description": "Name for the extracted method",
					},
				},
				"required": []string{"code", "selection", "newName"},
			},
		},
		{
			Name:        "extract_interface",
			Description: "Generate an interface from a class's public members and add it to the class's base list. An explicit member list narrows what is included.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"code": codeProp,
					"className": map[string]interface{}{
						"type": "string",
					},
					"interfaceName": map[string]interface{}{
						"type": "string",
					},
					"members": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Member names to include; defaults to all public members",
					},
				},
				"required": []string{"code", "className", "interfaceName"},
			},
		},
		{
			Name:        "introduce_variable",
			Description: "Replace occurrences of an expression with a named variable. Matching is structural (whitespace-insensitive); the declaration goes to the enclosing method, or to the type as a field or property.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"code": codeProp,
					"expression": map[string]interface{}{
						"type":        "string",
						"description": "Expression to replace",
					},
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Variable name to introduce",
					},
					"scope": map[string]interface{}{
						"type":    "string",
						"enum":    []string{"local", "field", "property"},
						"default": "local",
					},
				},
				"required": []string{"code", "expression", "name"},
			},
		},
		{
			Name:        "auto_fix",
			Description: "Apply mechanical style fixes: strip trailing whitespace, collapse blank lines, and rewrite null comparisons to pattern syntax.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"code": codeProp,
					"fixes": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Fix names to run; defaults to all",
					},
				},
				"required": []string{"code"},
			},
		},
		{
			Name:        "batch_refactor",
			Description: "Run a sequence of refactoring operations atomically. Each step sees the previous step's output; any failure discards every change and returns the original code.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"code": codeProp,
					"operations": map[string]interface{}{
						"type":        "array",
						"description": "Ordered operations to apply",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"kind": map[string]interface{}{
									"type": "string",
									"enum": []string{"rename_symbol", "extract_method", "extract_interface", "introduce_variable", "auto_fix"},
								},
								"target": map[string]interface{}{
									"type":        "string",
									"description": "Symbol, selection, class, or expression the operation acts on; unused by auto_fix",
								},
								"newName": map[string]interface{}{
									"type":        "string",
									"description": "Name the operation introduces; unused by auto_fix",
								},
								"members": map[string]interface{}{
									"type":  "array",
									"items": map[string]interface{}{"type": "string"},
								},
								"placement": map[string]interface{}{
									"type": "string",
									"enum": []string{"local", "field", "property"},
								},
								"fixes": map[string]interface{}{
									"type":        "array",
									"items":       map[string]interface{}{"type": "string"},
									"description": "Fix names for auto_fix steps; defaults to all",
								},
								"mustExist": map[string]interface{}{
									"type":        "boolean",
									"description": "Fail the batch when a rename matches nothing instead of passing through unchanged",
								},
							},
							"required": []string{"kind"},
						},
					},
				},
				"required": []string{"code", "operations"},
			},
		},
	}
}
