package vacation_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/vacation-engine/store/memory"
	"github.com/warp/vacation-engine/vacation"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func quietLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestService(t *testing.T) (*vacation.Service, *memory.Memory) {
	t.Helper()
	ledger := memory.NewMemory()
	return vacation.NewService(ledger, vacation.WithLogger(quietLogger())), ledger
}

func seed(t *testing.T, svc *vacation.Service, id vacation.EmployeeID, hours int) {
	t.Helper()
	require.NoError(t, svc.SeedBalance(context.Background(), id, hours))
}

func balanceOf(t *testing.T, svc *vacation.Service, id vacation.EmployeeID) int {
	t.Helper()
	hours, err := svc.GetBalanceHours(context.Background(), id)
	require.NoError(t, err)
	return hours
}

// =============================================================================
// APPROVAL
// =============================================================================

func TestCreateRequest_Approved_DeductsBalanceAndRecordsHistory(t *testing.T) {
	// GIVEN: alice has 80 hours
	// WHEN: She requests Mon-Fri 2024-01-01..05
	// THEN: Approved, 5 days / 40 hours, balance 40, history has the request
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, "alice", 80)

	req, err := svc.CreateRequest(ctx, "alice", "2024-01-01", "2024-01-05")
	require.NoError(t, err)

	assert.True(t, req.Approved())
	assert.Equal(t, vacation.StatusApproved, req.Status)
	assert.Empty(t, req.Reason)
	assert.NoError(t, req.DeclineError())
	assert.Equal(t, 5, req.TotalDays)
	assert.Equal(t, 40, req.TotalHours)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, 40, balanceOf(t, svc, "alice"))

	history, err := svc.ListRequests(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, req.ID, history[0].ID)
}

func TestCreateRequest_ApprovalAppendsAtEnd(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, "alice", 120)

	// Later dates first: history keeps creation order, not date order.
	first, err := svc.CreateRequest(ctx, "alice", "2024-03-04", "2024-03-05")
	require.NoError(t, err)
	second, err := svc.CreateRequest(ctx, "alice", "2024-01-08", "2024-01-08")
	require.NoError(t, err)
	require.True(t, first.Approved())
	require.True(t, second.Approved())

	history, err := svc.ListRequests(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, first.ID, history[0].ID)
	assert.Equal(t, second.ID, history[1].ID)
	assert.Equal(t, 120-16-8, balanceOf(t, svc, "alice"))
}

func TestCreateRequest_WeekendDaysAreFree(t *testing.T) {
	svc, _ := newTestService(t)
	seed(t, svc, "alice", 80)

	// Friday to Monday: 2 weekdays
	req, err := svc.CreateRequest(context.Background(), "alice", "2024-01-05", "2024-01-08")
	require.NoError(t, err)

	assert.True(t, req.Approved())
	assert.Equal(t, 2, req.TotalDays)
	assert.Equal(t, 16, req.TotalHours)
	assert.Equal(t, 64, balanceOf(t, svc, "alice"))
}

func TestCreateRequest_ExactBalanceIsEnough(t *testing.T) {
	svc, _ := newTestService(t)
	seed(t, svc, "bob", 16)

	req, err := svc.CreateRequest(context.Background(), "bob", "2024-01-08", "2024-01-09")
	require.NoError(t, err)

	assert.True(t, req.Approved())
	assert.Equal(t, 0, balanceOf(t, svc, "bob"))
}

// =============================================================================
// DECLINES
// =============================================================================

func TestCreateRequest_Declines(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		end       string
		reason    string
		sentinel  error
		wantDays  int
		wantHours int
	}{
		{"end before start", "2024-01-05", "2024-01-01", "end date before start date", vacation.ErrInvalidDateRange, 0, 0},
		{"weekend only", "2024-01-06", "2024-01-07", "No weekdays in requested range", vacation.ErrEmptyRange, 0, 0},
		{"malformed start", "2024-1-1", "2024-01-05", `invalid date "2024-1-1"`, vacation.ErrInvalidDate, 0, 0},
		{"malformed end", "2024-01-01", "next friday", `invalid date "next friday"`, vacation.ErrInvalidDate, 0, 0},
		{"insufficient", "2024-01-01", "2024-01-12", "Insufficient balance", vacation.ErrInsufficientBalance, 10, 80},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t)
			ctx := context.Background()
			seed(t, svc, "carol", 40)

			req, err := svc.CreateRequest(ctx, "carol", tt.start, tt.end)
			require.NoError(t, err, "declines are data, not errors")

			assert.Equal(t, vacation.StatusDeclined, req.Status)
			assert.Equal(t, tt.reason, req.Reason)
			assert.Equal(t, tt.wantDays, req.TotalDays)
			assert.Equal(t, tt.wantHours, req.TotalHours)
			assert.Equal(t, tt.start, req.StartDate)
			assert.Equal(t, tt.end, req.EndDate)
			assert.NotEmpty(t, req.ID)
			assert.True(t, errors.Is(req.DeclineError(), tt.sentinel))

			// No side effects
			assert.Equal(t, 40, balanceOf(t, svc, "carol"))
			history, err := svc.ListRequests(ctx, "carol")
			require.NoError(t, err)
			assert.Empty(t, history)
		})
	}
}

func TestCreateRequest_OverlapDeclined_BalanceUnchanged(t *testing.T) {
	// GIVEN: Balance 80 and an approved request for 2024-01-01..05 (40h)
	// WHEN: Requesting 2024-01-03..04
	// THEN: Declined "Overlapping request exists", days/hours still attached, balance 40
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, "alice", 80)

	first, err := svc.CreateRequest(ctx, "alice", "2024-01-01", "2024-01-05")
	require.NoError(t, err)
	require.True(t, first.Approved())

	second, err := svc.CreateRequest(ctx, "alice", "2024-01-03", "2024-01-04")
	require.NoError(t, err)

	assert.Equal(t, vacation.StatusDeclined, second.Status)
	assert.Equal(t, "Overlapping request exists", second.Reason)
	assert.Equal(t, 2, second.TotalDays)
	assert.Equal(t, 16, second.TotalHours)
	assert.Equal(t, 40, balanceOf(t, svc, "alice"))

	history, err := svc.ListRequests(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestCreateRequest_InsufficientBalance(t *testing.T) {
	// GIVEN: bob has 16 hours
	// WHEN: He requests 3 weekdays (24 hours)
	// THEN: Declined "Insufficient balance", balance still 16
	svc, _ := newTestService(t)
	seed(t, svc, "bob", 16)

	req, err := svc.CreateRequest(context.Background(), "bob", "2024-01-08", "2024-01-10")
	require.NoError(t, err)

	assert.Equal(t, vacation.StatusDeclined, req.Status)
	assert.Equal(t, "Insufficient balance", req.Reason)
	assert.Equal(t, 24, req.TotalHours)
	assert.Equal(t, 16, balanceOf(t, svc, "bob"))
}

func TestCreateRequest_DeclinedRequestsDoNotBlockLaterOnes(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, "bob", 16)

	declined, err := svc.CreateRequest(ctx, "bob", "2024-01-08", "2024-01-12")
	require.NoError(t, err)
	require.False(t, declined.Approved())

	// Same dates, smaller range: the decline was not stored, so no overlap.
	approved, err := svc.CreateRequest(ctx, "bob", "2024-01-08", "2024-01-09")
	require.NoError(t, err)
	assert.True(t, approved.Approved())
}

func TestCreateRequest_UnknownEmployeeHasNoBalance(t *testing.T) {
	svc, _ := newTestService(t)

	req, err := svc.CreateRequest(context.Background(), "nobody", "2024-01-01", "2024-01-01")
	require.NoError(t, err)

	assert.Equal(t, "Insufficient balance", req.Reason)
	assert.Equal(t, 0, balanceOf(t, svc, "nobody"))
}

func TestCreateRequest_UsesRawBalanceNotClampedView(t *testing.T) {
	// GIVEN: A raw ledger balance above the display bound (written directly)
	svc, ledger := newTestService(t)
	ctx := context.Background()
	require.NoError(t, ledger.SetBalance(ctx, "dave", 200))
	assert.Equal(t, 120, balanceOf(t, svc, "dave"))

	// WHEN: Requesting 4 weeks (160 hours)
	req, err := svc.CreateRequest(ctx, "dave", "2024-01-01", "2024-01-26")
	require.NoError(t, err)

	// THEN: Approved against the raw 200
	assert.True(t, req.Approved())
	raw, err := ledger.GetBalance(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, 40, raw)
}

func TestCreateRequest_UniqueIDs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		req, err := svc.CreateRequest(ctx, "eve", "2024-01-06", "2024-01-07")
		require.NoError(t, err)
		require.False(t, seen[req.ID], "duplicate id %s", req.ID)
		seen[req.ID] = true
	}
}

// =============================================================================
// READS
// =============================================================================

func TestReads_AreIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, "alice", 80)
	_, err := svc.CreateRequest(ctx, "alice", "2024-01-01", "2024-01-02")
	require.NoError(t, err)

	firstList, err := svc.ListRequests(ctx, "alice")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 64, balanceOf(t, svc, "alice"))
		list, err := svc.ListRequests(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, firstList, list)
	}
}

func TestListRequests_UnknownEmployeeIsEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	list, err := svc.ListRequests(context.Background(), "ghost")
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

// =============================================================================
// BALANCE BOUNDS
// =============================================================================

func TestSeedBalance_Clamped(t *testing.T) {
	svc, ledger := newTestService(t)
	ctx := context.Background()

	seed(t, svc, "high", 200)
	seed(t, svc, "low", -5)

	assert.Equal(t, 120, balanceOf(t, svc, "high"))
	assert.Equal(t, 0, balanceOf(t, svc, "low"))

	raw, err := ledger.GetBalance(ctx, "high")
	require.NoError(t, err)
	assert.Equal(t, 120, raw, "seeding clamps before writing")
}

func TestGetBalanceHours_ClampsStoredValue(t *testing.T) {
	svc, ledger := newTestService(t)
	ctx := context.Background()
	require.NoError(t, ledger.SetBalance(ctx, "neg", -40))

	assert.Equal(t, 0, balanceOf(t, svc, "neg"))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, vacation.Clamp(-1))
	assert.Equal(t, 0, vacation.Clamp(0))
	assert.Equal(t, 57, vacation.Clamp(57))
	assert.Equal(t, 120, vacation.Clamp(120))
	assert.Equal(t, 120, vacation.Clamp(121))
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestCreateRequest_Concurrent_OnlyOneAffordable(t *testing.T) {
	// GIVEN: 40 hours, 20 concurrent requests for different 5-day weeks (40h each)
	// THEN: Exactly one approval; everything else is Insufficient balance
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, "frank", 40)

	const n = 20
	results := make([]vacation.Request, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start := vacation.NewDate(2024, 1, 1).AddDays(7 * i)
			req, err := svc.CreateRequest(ctx, "frank", start.String(), start.AddDays(4).String())
			assert.NoError(t, err)
			results[i] = req
		}(i)
	}
	wg.Wait()

	approved := 0
	for _, r := range results {
		if r.Approved() {
			approved++
			continue
		}
		assert.Equal(t, "Insufficient balance", r.Reason)
	}
	assert.Equal(t, 1, approved)
	assert.Equal(t, 0, balanceOf(t, svc, "frank"))
}

func TestCreateRequest_Concurrent_SameRange(t *testing.T) {
	// GIVEN: Plenty of balance, many concurrent requests for the same week
	// THEN: Exactly one approval; the rest are overlaps
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed(t, svc, "gina", 120)

	const n = 25
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		approved int
		reasons  = make(map[string]int)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := svc.CreateRequest(ctx, "gina", "2024-01-01", "2024-01-05")
			assert.NoError(t, err)
			mu.Lock()
			defer mu.Unlock()
			if req.Approved() {
				approved++
			} else {
				reasons[req.Reason]++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, approved)
	assert.Equal(t, map[string]int{"Overlapping request exists": n - 1}, reasons)
	assert.Equal(t, 80, balanceOf(t, svc, "gina"))
}

func TestCreateRequest_Concurrent_IndependentEmployees(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	const n = 30
	for i := 0; i < n; i++ {
		seed(t, svc, vacation.EmployeeID(fmt.Sprintf("emp-%d", i)), 8)
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req, err := svc.CreateRequest(ctx, vacation.EmployeeID(fmt.Sprintf("emp-%d", i)), "2024-01-02", "2024-01-02")
			assert.NoError(t, err)
			assert.True(t, req.Approved())
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		assert.Equal(t, 0, balanceOf(t, svc, vacation.EmployeeID(fmt.Sprintf("emp-%d", i))))
	}
}

// =============================================================================
// SEED & RESET
// =============================================================================

// gatedLedger parks the first armed SetBalance until release is closed.
type gatedLedger struct {
	vacation.Ledger
	vacation.Resetter

	armed   atomic.Bool
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedLedger) SetBalance(ctx context.Context, id vacation.EmployeeID, hours int) error {
	if g.armed.Load() {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	return g.Ledger.SetBalance(ctx, id, hours)
}

func TestReset_WaitsForInFlightCommit(t *testing.T) {
	// GIVEN: alice's approval is parked between the balance check and the write
	mem := memory.NewMemory()
	ledger := &gatedLedger{Ledger: mem, Resetter: mem,
		entered: make(chan struct{}), release: make(chan struct{})}
	svc := vacation.NewService(ledger, vacation.WithLogger(quietLogger()))
	ctx := context.Background()
	seed(t, svc, "alice", 80)
	ledger.armed.Store(true)

	created := make(chan vacation.Request, 1)
	go func() {
		req, err := svc.CreateRequest(ctx, "alice", "2024-01-01", "2024-01-05")
		assert.NoError(t, err)
		created <- req
	}()
	<-ledger.entered

	// WHEN: A reset arrives meanwhile
	var resetDone atomic.Bool
	resetErr := make(chan error, 1)
	go func() {
		resetErr <- svc.Reset(ctx)
		resetDone.Store(true)
	}()
	time.Sleep(20 * time.Millisecond)
	assert.False(t, resetDone.Load(), "reset must wait for the commit")

	close(ledger.release)
	req := <-created
	require.NoError(t, <-resetErr)

	// THEN: The commit finished first and the reset cleared it
	assert.True(t, req.Approved())
	assert.Equal(t, 0, balanceOf(t, svc, "alice"))
	history, err := svc.ListRequests(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestReset_Unsupported(t *testing.T) {
	ledger := struct{ vacation.Ledger }{memory.NewMemory()}
	svc := vacation.NewService(ledger, vacation.WithLogger(quietLogger()))

	err := svc.Reset(context.Background())
	assert.ErrorIs(t, err, vacation.ErrResetUnsupported)
}

func TestSeedFresh_MemoryLedgerAlwaysSeeds(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		seeded, err := svc.SeedFresh(ctx, map[string]int{"alice": 80})
		require.NoError(t, err)
		assert.True(t, seeded)
	}
	assert.Equal(t, 80, balanceOf(t, svc, "alice"))
}

