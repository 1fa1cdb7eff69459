/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
	Provides pre-built ledger states for demos and manual testing of
	tool-calling clients. Each scenario resets the ledger, seeds balances
	and optionally books approved requests through the normal adjudicator.

AVAILABLE SCENARIOS:

	demo:          alice 80h, bob 16h (the startup seed)
	full-balance:  alice, bob and carol at the 120h cap
	booked-week:   alice 80h with 2024-01-01..2024-01-05 already approved
	empty:         no balances; every request is declined

USAGE VIA API (admin routes must be enabled):

	GET  /admin/scenarios
	POST /admin/scenarios/load  {"scenario_id": "booked-week"}
	POST /admin/reset

NOTE:

	Scenarios reset the ledger. Only use in development/demo environments.

SEE ALSO:
  - server.go: Admin route group
  - vacation/service.go: SeedAll
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type booking struct {
	employeeID vacation.EmployeeID
	start, end string
}

type scenario struct {
	ScenarioDTO
	balances map[string]int
	bookings []booking
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "demo",
			Name:        "Demo",
			Description: "alice has 80 hours, bob has 16",
		},
		balances: map[string]int{"alice": 80, "bob": 16},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "full-balance",
			Name:        "Full Balance",
			Description: "alice, bob and carol at the 120 hour cap",
		},
		balances: map[string]int{"alice": 120, "bob": 120, "carol": 120},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "booked-week",
			Name:        "Booked Week",
			Description: "alice has the first week of 2024 approved and 40 hours left",
		},
		balances: map[string]int{"alice": 80, "bob": 16},
		bookings: []booking{{employeeID: "alice", start: "2024-01-01", end: "2024-01-05"}},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "empty",
			Name:        "Empty",
			Description: "No balances; every request is declined for insufficient balance",
		},
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, or null.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	s, ok := findScenario(current)
	if !ok {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, s.ScenarioDTO)
}

// LoadScenario resets the ledger and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
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

	s, ok := findScenario(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}

	if err := h.loadScenario(r.Context(), s); err != nil {
		if errors.Is(err, vacation.ErrResetUnsupported) {
			writeError(w, http.StatusNotImplemented, "Ledger does not support reset", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "scenario": s.ID})
}

// ResetLedger clears all balances and requests.
func (h *Handler) ResetLedger(w http.ResponseWriter, r *http.Request) {
	if err := h.reset(r.Context()); err != nil {
		if errors.Is(err, vacation.ErrResetUnsupported) {
			writeError(w, http.StatusNotImplemented, "Ledger does not support reset", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to reset ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// LOADERS
// =============================================================================

func (h *Handler) reset(ctx context.Context) error {
	if h.Resetter == nil {
		return vacation.ErrResetUnsupported
	}
	if err := h.Resetter.Reset(ctx); err != nil {
		return err
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	return nil
}

func (h *Handler) loadScenario(ctx context.Context, s scenario) error {
	if err := h.reset(ctx); err != nil {
		return err
	}
	if err := h.Service.SeedAll(ctx, s.balances); err != nil {
		return fmt.Errorf("seed balances: %w", err)
	}
	for _, b := range s.bookings {
		req, err := h.Service.CreateRequest(ctx, b.employeeID, b.start, b.end)
		if err != nil {
			return fmt.Errorf("book %s %s..%s: %w", b.employeeID, b.start, b.end, err)
		}
		if !req.Approved() {
			return fmt.Errorf("book %s %s..%s: %s", b.employeeID, b.start, b.end, req.Reason)
		}
	}

	h.mu.Lock()
	h.currentScenario = s.ID
	h.mu.Unlock()

	h.Logger.WithFields(logrus.Fields{
		"scenario": s.ID,
		"balances": len(s.balances),
		"bookings": len(s.bookings),
	}).Info("scenario_loaded")
	return nil
}
