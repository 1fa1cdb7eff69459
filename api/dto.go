/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures of the REST contract. Field names are
  camelCase to match existing clients; the domain types stay free of JSON
  tags.

NAMING CONVENTION:
  - *DTO: Records returned to clients
  - *Request: Request body types from clients
  - *Response: Response wrappers

VALIDATION:
  Request bodies carry go-playground/validator tags and are checked by
  ValidationHelper before reaching the service.

SEE ALSO:
  - handlers.go: Uses these types
  - validation.go: ValidationHelper
*/
package api

import (
	"encoding/json"

	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// BALANCE
// =============================================================================

// BalanceResponse is the GET /balance body.
type BalanceResponse struct {
	HoursAvailable int `json:"hoursAvailable"`
}

// =============================================================================
// VACATION REQUESTS
// =============================================================================

// CreateVacationRequest is the POST /vacation-requests body. Dates are not
// format-checked here: a malformed date is a Declined decision, not a 400.
type CreateVacationRequest struct {
	EmployeeID string `json:"employeeId" validate:"required"`
	StartDate  string `json:"startDate" validate:"required"`
	EndDate    string `json:"endDate" validate:"required"`
}

// RequestResponse is the decision returned by POST /vacation-requests.
// Reason is null when approved.
type RequestResponse struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Reason *string `json:"reason"`
}

// VacationRequestDTO is one entry of GET /vacation-requests.
type VacationRequestDTO struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employeeId"`
	StartDate  string  `json:"startDate"`
	EndDate    string  `json:"endDate"`
	TotalDays  int     `json:"totalDays"`
	TotalHours int     `json:"totalHours"`
	Status     string  `json:"status"`
	Reason     *string `json:"reason"`
}

func toRequestResponse(req vacation.Request) RequestResponse {
	return RequestResponse{
		ID:     req.ID,
		Status: string(req.Status),
		Reason: optional(req.Reason),
	}
}

func toVacationRequestDTO(req vacation.Request) VacationRequestDTO {
	return VacationRequestDTO{
		ID:         req.ID,
		EmployeeID: string(req.EmployeeID),
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		TotalDays:  req.TotalDays,
		TotalHours: req.TotalHours,
		Status:     string(req.Status),
		Reason:     optional(req.Reason),
	}
}

// =============================================================================
// MCP
// =============================================================================

// ToolCallRequest is the body of the HTTP tool-call endpoints.
type ToolCallRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the POST /admin/scenarios/load body.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
