/*
rpc.go - MCP over JSON-RPC 2.0

PURPOSE:
  Serves the vacation tools to MCP clients. Two transports share one
  dispatcher:
    - Run:       newline-delimited JSON-RPC over a stream (stdio)
    - ServeHTTP: one JSON-RPC message per POST body (/mcp/rpc)

METHODS:
  initialize, ping, tools/list, tools/call
  Notifications (no id) are accepted and never answered.

SESSION:
  On a stream, tools/list and tools/call are rejected until initialize has
  been called. HTTP is stateless and skips that check.

SEE ALSO:
  - protocol.go: Wire types
  - executor.go: Tool execution
*/
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// maxMessageSize bounds one JSON-RPC message.
const maxMessageSize = 1024 * 1024

// RPCServer answers MCP JSON-RPC requests.
type RPCServer struct {
	Executor *Executor
	Logger   logrus.FieldLogger
	Name     string
	Version  string
}

func NewRPCServer(executor *Executor, logger logrus.FieldLogger) *RPCServer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RPCServer{
		Executor: executor,
		Logger:   logger,
		Name:     ServerLabel,
		Version:  "1.0.0",
	}
}

type session struct {
	requireInit bool
	initialized bool
}

// =============================================================================
// TRANSPORTS
// =============================================================================

// Run reads requests from input until EOF and writes responses to output.
func (s *RPCServer) Run(ctx context.Context, input io.Reader, output io.Writer) error {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, 0, 64*1024), maxMessageSize)
	encoder := json.NewEncoder(output)
	sess := &session{requireInit: true}

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		resp := s.handleMessage(ctx, sess, line)
		if resp == nil {
			continue
		}
		if err := encoder.Encode(resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	return scanner.Err()
}

// ServeHTTP handles one JSON-RPC message per request. Notifications get
// 202 Accepted with no body.
func (s *RPCServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessageSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	resp := s.handleMessage(r.Context(), &session{}, body)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.Logger.WithError(err).Warn("failed to write rpc response")
	}
}

// =============================================================================
// DISPATCH
// =============================================================================

// handleMessage returns nil when no response is due.
func (s *RPCServer) handleMessage(ctx context.Context, sess *session, data []byte) *rpcResponse {
	var req rpcRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(json.RawMessage("null"), codeParseError, "parse error: "+err.Error())
	}
	if req.JSONRPC != "2.0" {
		if req.isNotification() {
			return nil
		}
		return errorResponse(req.ID, codeInvalidRequest, "unsupported JSON-RPC version")
	}
	if req.isNotification() {
		return nil
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(sess, &req)
	case "ping":
		return resultResponse(req.ID, map[string]any{})
	case "tools/list", "tools/call":
		if sess.requireInit && !sess.initialized {
			return errorResponse(req.ID, codeInvalidRequest, "server not initialized (call initialize first)")
		}
		if req.Method == "tools/list" {
			return s.handleToolsList(&req)
		}
		return s.handleToolsCall(ctx, &req)
	default:
		return errorResponse(req.ID, codeMethodNotFound, "unknown method: "+req.Method)
	}
}

func (s *RPCServer) handleInitialize(sess *session, req *rpcRequest) *rpcResponse {
	if len(req.Params) == 0 {
		return errorResponse(req.ID, codeInvalidParams, "params required for initialize")
	}
	var params initializeParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "invalid initialize params: "+err.Error())
	}

	sess.initialized = true
	s.Logger.WithFields(logrus.Fields{
		"client":           params.ClientInfo.Name,
		"client_version":   params.ClientInfo.Version,
		"protocol_version": params.ProtocolVersion,
	}).Info("mcp_session_initialized")

	return resultResponse(req.ID, initializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities:    serverCapabilities{Tools: &toolCapability{}},
		ServerInfo:      serverInfo{Name: s.Name, Version: s.Version},
	})
}

func (s *RPCServer) handleToolsList(req *rpcRequest) *rpcResponse {
	tools := Tools()
	descriptions := make([]toolDescription, len(tools))
	for i, t := range tools {
		descriptions[i] = toolDescription{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}
	}
	return resultResponse(req.ID, toolsListResult{Tools: descriptions})
}

func (s *RPCServer) handleToolsCall(ctx context.Context, req *rpcRequest) *rpcResponse {
	if len(req.Params) == 0 {
		return errorResponse(req.ID, codeInvalidParams, "params required for tools/call")
	}
	var params toolsCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "invalid tools/call params: "+err.Error())
	}
	if _, ok := LookupTool(params.Name); !ok {
		return errorResponse(req.ID, codeInvalidParams, "unknown tool: "+params.Name)
	}

	result, err := s.Executor.Call(ctx, params.Name, params.Arguments)
	if err != nil {
		var callErr *CallError
		if errors.As(err, &callErr) {
			// Missing arguments are reported to the model, not the client.
			result = TextResult("Error: " + callErr.Message)
			result.IsError = true
			return resultResponse(req.ID, result)
		}
		return errorResponse(req.ID, codeInternalError, err.Error())
	}
	return resultResponse(req.ID, result)
}

func resultResponse(id json.RawMessage, result any) *rpcResponse {
	return &rpcResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func errorResponse(id json.RawMessage, code int, message string) *rpcResponse {
	return &rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}}
}
