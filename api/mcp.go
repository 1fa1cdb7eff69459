/*
mcp.go - Tool-calling endpoints for LLM clients

PURPOSE:
  Serves the vacation tools over plain HTTP in the shapes OpenAI clients
  expect, plus the JSON-RPC MCP endpoint.

ENDPOINTS:
  GET    /mcp             OpenAI function list
  GET    /mcp/            Agent Builder tool list
  GET    /mcp/tools       Agent Builder tool list
  POST   /mcp             Call a tool {"name","arguments"}
  POST   /mcp/            Call a tool
  POST   /mcp/tools/call  Call a tool
  POST   /mcp/rpc         JSON-RPC 2.0 MCP
  GET    /mcp/health      Liveness (no auth)

ERRORS:
  Unknown tool or missing arguments: 400 {"error": message}.
  Backend faults: 200 with isError true and "Error: ..." text.

SEE ALSO:
  - mcp/tools.go: Tool definitions and dialects
  - mcp/executor.go: Tool execution
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/warp/vacation-engine/mcp"
)

// MCPHealth reports the MCP surface as up.
func (h *Handler) MCPHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "protocol": "mcp"})
}

// ListOpenAITools answers GET /mcp.
func (h *Handler) ListOpenAITools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mcp.OpenAITools())
}

// ListAgentBuilderTools answers GET /mcp/ and GET /mcp/tools.
func (h *Handler) ListAgentBuilderTools(w http.ResponseWriter, r *http.Request) {
	list := mcp.AgentBuilderTools()
	h.Logger.WithFields(logrus.Fields{
		"list_id": list.ID,
		"tools":   len(list.Tools),
	}).Debug("mcp tools listed")
	writeJSON(w, http.StatusOK, list)
}

// CallTool runs one tool call.
func (h *Handler) CallTool(w http.ResponseWriter, r *http.Request) {
	var req ToolCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.Tools.Call(r.Context(), req.Name, req.Arguments)
	if err != nil {
		var callErr *mcp.CallError
		if errors.As(err, &callErr) {
			writeError(w, http.StatusBadRequest, callErr.Message, nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Tool call failed", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
