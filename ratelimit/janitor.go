/*
janitor.go - Periodic cleanup for the in-memory limiter

PURPOSE:
  Memory keeps one hit queue per API key it has ever seen. The janitor
  drops queues whose newest hit has left the window so idle keys do not
  accumulate for the life of the process.

USAGE:
  janitor := NewJanitor(limiter, logger)
  janitor.Start()
  // ... later
  janitor.Stop()
*/
package ratelimit

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweep removes keys with no hits inside the window and returns how many
// were removed.
func (m *Memory) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now()
	removed := 0
	for key, q := range m.hits {
		if len(q) == 0 || now.Sub(q[len(q)-1]) > m.Window {
			delete(m.hits, key)
			removed++
		}
	}
	return removed
}

// Keys returns the number of tracked keys.
func (m *Memory) Keys() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hits)
}

// Janitor sweeps a Memory limiter on a fixed interval.
type Janitor struct {
	Limiter  *Memory
	Interval time.Duration
	Logger   logrus.FieldLogger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewJanitor sweeps once per limiter window.
func NewJanitor(limiter *Memory, logger logrus.FieldLogger) *Janitor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Janitor{
		Limiter:  limiter,
		Interval: limiter.Window,
		Logger:   logger,
	}
}

// Start begins sweeping. Calling Start on a running janitor does nothing.
func (j *Janitor) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.ticker != nil {
		return
	}
	j.ticker = time.NewTicker(j.Interval)
	j.stop = make(chan struct{})
	j.wg.Add(1)
	go j.run(j.ticker, j.stop)

	j.Logger.WithField("interval", j.Interval).Debug("rate limit janitor started")
}

// Stop halts sweeping and waits for the goroutine to exit.
func (j *Janitor) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.ticker == nil {
		return
	}
	j.ticker.Stop()
	close(j.stop)
	j.wg.Wait()
	j.ticker = nil
}

func (j *Janitor) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer j.wg.Done()
	for {
		select {
		case <-ticker.C:
			if removed := j.Limiter.Sweep(); removed > 0 {
				j.Logger.WithField("removed", removed).Debug("rate limit keys swept")
			}
		case <-stop:
			return
		}
	}
}
