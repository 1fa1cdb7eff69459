/*
client.go - REST client for the vacation API

PURPOSE:
  Calls a running vacation server over HTTP and returns domain types, so the
  stdio MCP proxy (cmd/vacation-mcp) can run the same tools against a remote
  deployment.

AUTH:
  Every call sends "Authorization: Bearer <APIKey>". Balance and list calls
  also send X-Employee-Id.

ERRORS:
  Non-2xx responses become *APIError carrying the status and the server's
  error message.

SEE ALSO:
  - mcp/executor.go: Backend interface this client satisfies
  - api/handlers.go: The endpoints it calls
*/
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/warp/vacation-engine/vacation"
)

// Client talks to one vacation server.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// New creates a client with a 10 second timeout.
func New(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vacation api: %d %s", e.StatusCode, e.Message)
}

// =============================================================================
// WIRE TYPES
// =============================================================================

type balanceResponse struct {
	HoursAvailable int `json:"hoursAvailable"`
}

type createRequest struct {
	EmployeeID string `json:"employeeId"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}

type decisionResponse struct {
	ID     string  `json:"id"`
	Status string  `json:"status"`
	Reason *string `json:"reason"`
}

type requestRecord struct {
	ID         string  `json:"id"`
	EmployeeID string  `json:"employeeId"`
	StartDate  string  `json:"startDate"`
	EndDate    string  `json:"endDate"`
	TotalDays  int     `json:"totalDays"`
	TotalHours int     `json:"totalHours"`
	Status     string  `json:"status"`
	Reason     *string `json:"reason"`
}

// =============================================================================
// OPERATIONS
// =============================================================================

func (c *Client) GetBalanceHours(ctx context.Context, employeeID vacation.EmployeeID) (int, error) {
	var out balanceResponse
	if err := c.do(ctx, http.MethodGet, "/balance", employeeID, nil, &out); err != nil {
		return 0, err
	}
	return out.HoursAvailable, nil
}

// CreateRequest submits a request. The server's answer only carries id,
// status and reason; the other fields echo the input.
func (c *Client) CreateRequest(ctx context.Context, employeeID vacation.EmployeeID, startISO, endISO string) (vacation.Request, error) {
	body := createRequest{EmployeeID: string(employeeID), StartDate: startISO, EndDate: endISO}
	var out decisionResponse
	if err := c.do(ctx, http.MethodPost, "/vacation-requests", "", body, &out); err != nil {
		return vacation.Request{}, err
	}
	return vacation.Request{
		ID:         out.ID,
		EmployeeID: employeeID,
		StartDate:  startISO,
		EndDate:    endISO,
		Status:     vacation.Status(out.Status),
		Reason:     deref(out.Reason),
	}, nil
}

func (c *Client) ListRequests(ctx context.Context, employeeID vacation.EmployeeID) ([]vacation.Request, error) {
	var out []requestRecord
	if err := c.do(ctx, http.MethodGet, "/vacation-requests", employeeID, nil, &out); err != nil {
		return nil, err
	}
	list := make([]vacation.Request, len(out))
	for i, r := range out {
		list[i] = vacation.Request{
			ID:         r.ID,
			EmployeeID: vacation.EmployeeID(r.EmployeeID),
			StartDate:  r.StartDate,
			EndDate:    r.EndDate,
			TotalDays:  r.TotalDays,
			TotalHours: r.TotalHours,
			Status:     vacation.Status(r.Status),
			Reason:     deref(r.Reason),
		}
	}
	return list, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (c *Client) do(ctx context.Context, method, path string, employeeID vacation.EmployeeID, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if employeeID != "" {
		req.Header.Set("X-Employee-Id", string(employeeID))
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var payload struct {
		Error string `json:"error"`
	}
	message := strings.TrimSpace(string(data))
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		message = payload.Error
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Message: message}
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
