package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"refx/internal/envelope"
	"refx/internal/errors"
)

// handleMessage processes one incoming message and returns a response, or
// nil for notifications.
func (s *Server) handleMessage(ctx context.Context, msg *Message) *Message {
	if msg.IsRequest() {
		return s.handleRequest(ctx, msg)
	}
	if msg.IsNotification() {
		s.handleNotification(msg)
		return nil
	}
	return NewErrorMessage(msg.Id, InvalidRequest, "invalid message: not a request or notification", nil)
}

func (s *Server) handleRequest(ctx context.Context, msg *Message) *Message {
	s.logger.Debug("handling request", "method", msg.Method, "id", msg.Id)

	switch msg.Method {
	case "initialize":
		return NewResultMessage(msg.Id, s.handleInitialize(msg))
	case "tools/list":
		return NewResultMessage(msg.Id, map[string]interface{}{
			"tools": s.ToolDefinitions(),
		})
	case "tools/call":
		return s.handleCallTool(ctx, msg)
	default:
		return NewErrorMessage(msg.Id, MethodNotFound, fmt.Sprintf("method not found: %s", msg.Method), nil)
	}
}

func (s *Server) handleNotification(msg *Message) {
	switch msg.Method {
	case "notifications/initialized":
		s.logger.Info("client initialized")
	default:
		s.logger.Debug("ignoring notification", "method", msg.Method)
	}
}

// handleCallTool executes a tool and wraps its envelope response into the
// tools/call content shape. Tool failures are successful JSON-RPC responses
// carrying the structured error envelope; only malformed requests produce
// protocol errors.
func (s *Server) handleCallTool(ctx context.Context, msg *Message) *Message {
	params, ok := msg.Params.(map[string]interface{})
	if !ok {
		return NewErrorMessage(msg.Id, InvalidParams, "invalid params: expected object", nil)
	}
	toolName, ok := params["name"].(string)
	if !ok {
		return NewErrorMessage(msg.Id, InvalidParams, "invalid params: name is required", nil)
	}
	args, ok := params["arguments"].(map[string]interface{})
	if !ok {
		args = make(map[string]interface{})
	}

	handler, exists := s.tools[toolName]
	if !exists {
		return NewErrorMessage(msg.Id, MethodNotFound, fmt.Sprintf("unknown tool: %s", toolName), nil)
	}

	s.logger.Info("calling tool", "tool", toolName)

	resp, err := handler(ctx, args)
	if err != nil {
		re := errors.AsRefactorError(err)
		s.logger.Warn("tool failed", "tool", toolName, "kind", string(re.Kind), "error", re.Message)
		resp = envelope.New().FromErr(err).Build()
	}

	jsonBytes, err := json.Marshal(resp)
	if err != nil {
		return NewErrorMessage(msg.Id, InternalError, fmt.Sprintf("marshal response: %v", err), nil)
	}
	return NewResultMessage(msg.Id, map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": string(jsonBytes),
			},
		},
	})
}

// ServerCapabilities describes what this server supports.
type ServerCapabilities struct {
	Tools *ToolsCapability `json:"tools,omitempty"`
}

// ToolsCapability describes the tools capability.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ServerInfo identifies the server to the client.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeResult is the response to the initialize request.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ServerInfo         `json:"serverInfo"`
}

func (s *Server) handleInitialize(msg *Message) *InitializeResult {
	if params, ok := msg.Params.(map[string]interface{}); ok {
		s.logger.Info("initializing", "clientInfo", params["clientInfo"])
	}
	return &InitializeResult{
		ProtocolVersion: "2024-11-05",
		Capabilities: ServerCapabilities{
			Tools: &ToolsCapability{},
		},
		ServerInfo: ServerInfo{
			Name:    "refx",
			Version: s.version,
		},
	}
}
