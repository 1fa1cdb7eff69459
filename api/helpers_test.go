package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/warp/vacation-engine/store/memory"
	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const testAPIKey = "test-key"

type testServer struct {
	router  *chi.Mux
	handler *Handler
	ledger  *memory.Memory
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// newTestServer wires the real service over an in-memory ledger seeded with
// alice=80 and bob=16. Request ids are sequential.
func newTestServer(t *testing.T, cfg RouterConfig) *testServer {
	t.Helper()
	ledger := memory.NewMemory()
	seq := 0
	svc := vacation.NewService(ledger,
		vacation.WithLogger(quietLogger()),
		vacation.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("req-%d", seq)
		}),
	)
	require.NoError(t, svc.SeedAll(context.Background(), map[string]int{"alice": 80, "bob": 16}))

	h := NewHandler(svc, quietLogger())
	h.Resetter = svc
	if cfg.APIKey == "" {
		cfg.APIKey = testAPIKey
	}
	return &testServer{router: NewRouter(h, cfg), handler: h, ledger: ledger}
}

type call struct {
	method   string
	path     string
	body     string
	employee string
	token    string // defaults to testAPIKey; "-" sends no Authorization
}

func (s *testServer) do(t *testing.T, c call) *httptest.ResponseRecorder {
	t.Helper()
	return serve(s, newRequest(c))
}

func newRequest(c call) *http.Request {
	var body io.Reader
	if c.body != "" {
		body = strings.NewReader(c.body)
	}
	req := httptest.NewRequest(c.method, c.path, body)
	if c.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.employee != "" {
		req.Header.Set(EmployeeHeader, c.employee)
	}
	switch c.token {
	case "":
		req.Header.Set("Authorization", "Bearer "+testAPIKey)
	case "-":
	default:
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req
}

func serve(s *testServer, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func requestBody(employee, start, end string) string {
	return fmt.Sprintf(`{"employeeId":%q,"startDate":%q,"endDate":%q}`, employee, start, end)
}
