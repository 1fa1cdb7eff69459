package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/warp/vacation-engine/vacation"
)

// Backend is what the tools call into. *vacation.Service satisfies it for
// the in-process server; client.Client satisfies it for the stdio proxy.
type Backend interface {
	GetBalanceHours(ctx context.Context, employeeID vacation.EmployeeID) (int, error)
	CreateRequest(ctx context.Context, employeeID vacation.EmployeeID, startISO, endISO string) (vacation.Request, error)
	ListRequests(ctx context.Context, employeeID vacation.EmployeeID) ([]vacation.Request, error)
}

// =============================================================================
// RESULTS
// =============================================================================

// Content is a text content block.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is a tool call result. IsError marks backend faults.
type Result struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// TextResult wraps text in a single content block.
func TextResult(text string) Result {
	return Result{Content: []Content{{Type: "text", Text: text}}}
}

// Text joins the text of all content blocks.
func (r Result) Text() string {
	parts := make([]string, len(r.Content))
	for i, c := range r.Content {
		parts[i] = c.Text
	}
	return strings.Join(parts, "\n")
}

// CallError rejects a call before it reaches the backend: unknown tool or
// missing arguments. Message is shown to the caller verbatim.
type CallError struct {
	Message string
}

func (e *CallError) Error() string { return e.Message }

// Messages for rejected calls.
const (
	msgEmployeeRequired = "employee_id is required"
	msgRequestRequired  = "employee_id, start_date, and end_date are all required"
)

type employeeArgs struct {
	EmployeeID string `json:"employee_id" validate:"required"`
}

type requestArgs struct {
	EmployeeID string `json:"employee_id" validate:"required"`
	StartDate  string `json:"start_date" validate:"required"`
	EndDate    string `json:"end_date" validate:"required"`
}

// =============================================================================
// EXECUTOR
// =============================================================================

// Executor runs tool calls against a Backend.
type Executor struct {
	Backend  Backend
	Logger   logrus.FieldLogger
	validate *validator.Validate
}

func NewExecutor(backend Backend, logger logrus.FieldLogger) *Executor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Executor{
		Backend:  backend,
		Logger:   logger,
		validate: validator.New(),
	}
}

// Call runs the named tool. A *CallError means the call was rejected.
// Backend faults are not errors: they come back as a Result with IsError set
// and "Error: ..." text, so the model can read them.
func (e *Executor) Call(ctx context.Context, name string, arguments json.RawMessage) (Result, error) {
	switch name {
	case ToolCheckBalance:
		var args employeeArgs
		if err := e.decode(arguments, &args, msgEmployeeRequired); err != nil {
			return Result{}, err
		}
		hours, err := e.Backend.GetBalanceHours(ctx, vacation.EmployeeID(args.EmployeeID))
		if err != nil {
			return e.fault(name, err), nil
		}
		e.Logger.WithFields(logrus.Fields{
			"tool":        name,
			"employee_id": args.EmployeeID,
			"hours":       hours,
		}).Info("mcp_tool_called")
		return TextResult(RenderBalance(args.EmployeeID, hours)), nil

	case ToolRequest:
		var args requestArgs
		if err := e.decode(arguments, &args, msgRequestRequired); err != nil {
			return Result{}, err
		}
		req, err := e.Backend.CreateRequest(ctx, vacation.EmployeeID(args.EmployeeID), args.StartDate, args.EndDate)
		if err != nil {
			return e.fault(name, err), nil
		}
		e.Logger.WithFields(logrus.Fields{
			"tool":        name,
			"employee_id": args.EmployeeID,
			"start":       args.StartDate,
			"end":         args.EndDate,
			"status":      req.Status,
		}).Info("mcp_tool_called")
		return TextResult(RenderDecision(req)), nil

	case ToolListRequests:
		var args employeeArgs
		if err := e.decode(arguments, &args, msgEmployeeRequired); err != nil {
			return Result{}, err
		}
		list, err := e.Backend.ListRequests(ctx, vacation.EmployeeID(args.EmployeeID))
		if err != nil {
			return e.fault(name, err), nil
		}
		e.Logger.WithFields(logrus.Fields{
			"tool":        name,
			"employee_id": args.EmployeeID,
			"count":       len(list),
		}).Info("mcp_tool_called")
		return TextResult(RenderList(args.EmployeeID, list)), nil

	default:
		return Result{}, &CallError{Message: "Unknown tool: " + name}
	}
}

// decode fills dst from arguments. Absent arguments decode to the zero value
// and then fail validation with missing.
func (e *Executor) decode(arguments json.RawMessage, dst any, missing string) error {
	if len(arguments) > 0 && string(arguments) != "null" {
		if err := json.Unmarshal(arguments, dst); err != nil {
			return &CallError{Message: missing}
		}
	}
	if err := e.validate.Struct(dst); err != nil {
		return &CallError{Message: missing}
	}
	return nil
}

func (e *Executor) fault(name string, err error) Result {
	e.Logger.WithError(err).WithField("tool", name).Error("mcp_tool_error")
	result := TextResult("Error: " + err.Error())
	result.IsError = true
	return result
}

// =============================================================================
// TEXT RENDERING
// =============================================================================

func RenderBalance(employeeID string, hours int) string {
	return fmt.Sprintf("Employee %s has %d hours of vacation available.", employeeID, hours)
}

func RenderDecision(req vacation.Request) string {
	text := fmt.Sprintf("Vacation request %s: Status is %s", req.ID, req.Status)
	if req.Reason != "" {
		text += ". Reason: " + req.Reason
	}
	return text
}

func RenderList(employeeID string, list []vacation.Request) string {
	if len(list) == 0 {
		return "No vacation requests found for employee " + employeeID
	}
	lines := []string{fmt.Sprintf("Vacation requests for %s:", employeeID)}
	for _, r := range list {
		lines = append(lines, fmt.Sprintf("  - Request %s: %s to %s (%d days, %d hours) - Status: %s",
			r.ID, r.StartDate, r.EndDate, r.TotalDays, r.TotalHours, r.Status))
		if r.Reason != "" {
			lines = append(lines, "    Reason: "+r.Reason)
		}
	}
	return strings.Join(lines, "\n")
}
