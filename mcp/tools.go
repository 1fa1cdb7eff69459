/*
tools.go - Tool definitions for LLM tool-calling clients

PURPOSE:
  Declares the three vacation tools once and renders them in each dialect
  a client may ask for:
    - OpenAI function calling: {"type":"function","function":{...}}
    - Agent Builder list:      {"id":"mcpl_...","type":"mcp_list_tools",...}
    - MCP tools/list:          {"name","description","inputSchema"}

TOOLS:
  check_vacation_balance(employee_id)
  request_vacation(employee_id, start_date, end_date)
  list_vacation_requests(employee_id)

SEE ALSO:
  - executor.go: Tool execution and text rendering
  - rpc.go: JSON-RPC 2.0 server (stdio and HTTP)
  - api/mcp.go: HTTP dialect handlers
*/
package mcp

import (
	"strings"

	"github.com/google/uuid"
)

// Tool names
const (
	ToolCheckBalance  = "check_vacation_balance"
	ToolRequest       = "request_vacation"
	ToolListRequests  = "list_vacation_requests"
	ServerLabel       = "vacation-mcp"
	jsonSchemaDialect = "https://json-schema.org/draft/2020-12/schema"
)

// Tool describes one callable tool.
type Tool struct {
	Name        string
	Description string
	InputSchema Schema
}

// Schema is the subset of JSON Schema the tools need.
type Schema struct {
	Schema               string              `json:"$schema,omitempty"`
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required"`
	AdditionalProperties *bool               `json:"additionalProperties,omitempty"`
}

// Property is a single string argument.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

func stringProperty(description string) Property {
	return Property{Type: "string", Description: description}
}

// Tools returns the tool definitions in a stable order.
func Tools() []Tool {
	return []Tool{
		{
			Name:        ToolCheckBalance,
			Description: "Check available vacation hours for an employee (0-120 hours). Returns the number of hours available.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"employee_id": stringProperty("Employee identifier (e.g., 'alice', 'bob')"),
				},
				Required: []string{"employee_id"},
			},
		},
		{
			Name:        ToolRequest,
			Description: "Request vacation time off. Validates balance and dates. Returns status (Approved/Declined) and reason if declined.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"employee_id": stringProperty("Employee identifier"),
					"start_date":  stringProperty("Start date in ISO format (YYYY-MM-DD), weekdays only"),
					"end_date":    stringProperty("End date in ISO format (YYYY-MM-DD), weekdays only"),
				},
				Required: []string{"employee_id", "start_date", "end_date"},
			},
		},
		{
			Name:        ToolListRequests,
			Description: "List all vacation requests for an employee. Returns a list of requests with status, dates, and hours.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Property{
					"employee_id": stringProperty("Employee identifier"),
				},
				Required: []string{"employee_id"},
			},
		},
	}
}

// =============================================================================
// DIALECTS
// =============================================================================

// OpenAIFunction is one entry of an OpenAI function-calling tool list.
type OpenAIFunction struct {
	Type     string             `json:"type"`
	Function OpenAIFunctionSpec `json:"function"`
}

type OpenAIFunctionSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Parameters  Schema `json:"parameters"`
}

// OpenAIToolList is the GET /mcp body.
type OpenAIToolList struct {
	Tools []OpenAIFunction `json:"tools"`
}

// OpenAITools renders the tools for OpenAI function calling.
func OpenAITools() OpenAIToolList {
	tools := Tools()
	out := make([]OpenAIFunction, len(tools))
	for i, t := range tools {
		out[i] = OpenAIFunction{
			Type: "function",
			Function: OpenAIFunctionSpec{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.InputSchema,
			},
		}
	}
	return OpenAIToolList{Tools: out}
}

// AgentBuilderTool is one tool in an Agent Builder listing. Annotations is
// always null.
type AgentBuilderTool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema Schema `json:"input_schema"`
	Annotations any    `json:"annotations"`
}

// AgentBuilderToolList is the GET /mcp/ and GET /mcp/tools body.
type AgentBuilderToolList struct {
	ID          string             `json:"id"`
	Type        string             `json:"type"`
	ServerLabel string             `json:"server_label"`
	Tools       []AgentBuilderTool `json:"tools"`
}

// AgentBuilderTools renders the tools with a fresh listing id. Schemas gain
// $schema and additionalProperties:false.
func AgentBuilderTools() AgentBuilderToolList {
	tools := Tools()
	out := make([]AgentBuilderTool, len(tools))
	for i, t := range tools {
		schema := t.InputSchema
		schema.Schema = jsonSchemaDialect
		closed := false
		schema.AdditionalProperties = &closed

		out[i] = AgentBuilderTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		}
	}
	return AgentBuilderToolList{
		ID:          NewListID(),
		Type:        "mcp_list_tools",
		ServerLabel: ServerLabel,
		Tools:       out,
	}
}

// NewListID returns "mcpl_" followed by 32 hex characters.
func NewListID() string {
	return "mcpl_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// LookupTool finds a tool by name.
func LookupTool(name string) (Tool, bool) {
	for _, t := range Tools() {
		if t.Name == name {
			return t, true
		}
	}
	return Tool{}, false
}
