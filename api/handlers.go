/*
handlers.go - HTTP API handlers for the vacation service

PURPOSE:
  Exposes balance reads, request adjudication and request history over
  REST. Handles HTTP request/response and JSON serialization, and delegates
  every decision to the vacation service.

ENDPOINTS:
  GET    /health              Liveness (no auth)
  GET    /balance             Balance of X-Employee-Id
  POST   /vacation-requests   Adjudicate a request (always 201)
  GET    /vacation-requests   Approved requests of X-Employee-Id

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call the vacation service
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Missing X-Employee-Id, invalid body
  - 500: Ledger faults
  A Declined request is not an error: it is a 201 with a reason.

SEE ALSO:
  - dto.go: Request/response data structures
  - mcp.go: Tool-calling endpoints
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/warp/vacation-engine/mcp"
	"github.com/warp/vacation-engine/vacation"
)

// EmployeeHeader names the employee for balance and list calls.
const EmployeeHeader = "X-Employee-Id"

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// VacationService is the slice of *vacation.Service the handlers use.
type VacationService interface {
	GetBalanceHours(ctx context.Context, employeeID vacation.EmployeeID) (int, error)
	CreateRequest(ctx context.Context, employeeID vacation.EmployeeID, startISO, endISO string) (vacation.Request, error)
	ListRequests(ctx context.Context, employeeID vacation.EmployeeID) ([]vacation.Request, error)
	SeedAll(ctx context.Context, balances map[string]int) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service VacationService
	Tools   *mcp.Executor
	RPC     *mcp.RPCServer
	Logger  logrus.FieldLogger

	// Resetter clears the ledger before a scenario loads, normally the
	// *vacation.Service so the reset waits for in-flight requests. Nil
	// disables scenario loading.
	Resetter vacation.Resetter

	validation *ValidationHelper

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a handler over svc with MCP tools bound to the same
// service.
func NewHandler(svc VacationService, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	tools := mcp.NewExecutor(svc, logger)
	return &Handler{
		Service:    svc,
		Tools:      tools,
		RPC:        mcp.NewRPCServer(tools, logger),
		Logger:     logger,
		validation: NewValidationHelper(),
	}
}

// =============================================================================
// HEALTH
// =============================================================================

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// BALANCE HANDLERS
// =============================================================================

// GetBalance returns the clamped balance of the employee in X-Employee-Id.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeFromHeader(w, r)
	if !ok {
		return
	}

	hours, err := h.Service.GetBalanceHours(r.Context(), employeeID)
	if err != nil {
		h.Logger.WithError(err).WithField("employee_id", employeeID).Error("balance lookup failed")
		writeError(w, http.StatusInternalServerError, "Failed to get balance", err)
		return
	}

	h.Logger.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"hours":       hours,
	}).Info("balance_checked")
	writeJSON(w, http.StatusOK, BalanceResponse{HoursAvailable: hours})
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// CreateVacationRequest adjudicates a request. Approved and Declined are both
// 201 Created; the body says which.
func (h *Handler) CreateVacationRequest(w http.ResponseWriter, r *http.Request) {
	var req CreateVacationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := h.validation.ValidateStruct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Details: validationDetails(err),
		})
		return
	}

	decision, err := h.Service.CreateRequest(r.Context(), vacation.EmployeeID(req.EmployeeID), req.StartDate, req.EndDate)
	if err != nil {
		h.Logger.WithError(err).WithField("employee_id", req.EmployeeID).Error("vacation request failed")
		writeError(w, http.StatusInternalServerError, "Failed to create vacation request", err)
		return
	}

	writeJSON(w, http.StatusCreated, toRequestResponse(decision))
}

// ListVacationRequests returns the approved requests of the employee in
// X-Employee-Id, oldest first.
func (h *Handler) ListVacationRequests(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := employeeFromHeader(w, r)
	if !ok {
		return
	}

	list, err := h.Service.ListRequests(r.Context(), employeeID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list vacation requests", err)
		return
	}

	dtos := make([]VacationRequestDTO, len(list))
	for i, req := range list {
		dtos[i] = toVacationRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func employeeFromHeader(w http.ResponseWriter, r *http.Request) (vacation.EmployeeID, bool) {
	id := strings.TrimSpace(r.Header.Get(EmployeeHeader))
	if id == "" {
		writeError(w, http.StatusBadRequest, "Missing X-Employee-Id header", nil)
		return "", false
	}
	return vacation.EmployeeID(id), true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
