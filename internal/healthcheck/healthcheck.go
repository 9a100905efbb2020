package healthcheck

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/angeloszaimis/random-image/internal/catalog"
	"github.com/angeloszaimis/random-image/internal/circuitbreaker"
	"github.com/angeloszaimis/random-image/internal/counts"
)

// breakerReporter is implemented by providers that guard upstream calls
// with circuit breakers.
type breakerReporter interface {
	BreakerStates() map[string]circuitbreaker.State
}

// Status is the result of the most recent check.
type Status struct {
	CheckedAt  time.Time      `json:"checked_at"`
	Source     string         `json:"source"`
	Categories map[string]int `json:"categories"`
	Empty      []string       `json:"empty"`
	// Breakers maps listing directories to breaker state, when the
	// provider has any.
	Breakers map[string]string `json:"breakers,omitempty"`
}

// Healthy reports whether at least one category has images.
func (s Status) Healthy() bool {
	return len(s.Empty) < len(s.Categories)
}

type Monitor struct {
	provider  counts.Provider
	logger    *slog.Logger
	mutex     sync.Mutex
	available map[catalog.Category]bool
	now       func() time.Time
}

func NewMonitor(provider counts.Provider, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Monitor{
		provider:  provider,
		logger:    logger,
		available: make(map[catalog.Category]bool),
		now:       time.Now,
	}
}

// Check reads the current table and logs every category whose
// availability changed since the previous check.
func (m *Monitor) Check(ctx context.Context) Status {
	table := m.provider.Counts(ctx)

	m.mutex.Lock()
	defer m.mutex.Unlock()

	status := Status{
		CheckedAt:  m.now(),
		Source:     m.provider.Name(),
		Categories: make(map[string]int, len(table)),
		Empty:      []string{},
	}

	for _, c := range catalog.All() {
		n := table.Get(c)
		status.Categories[c.String()] = n

		ok := n > 0
		if !ok {
			status.Empty = append(status.Empty, c.String())
		}

		prev, seen := m.available[c]
		m.available[c] = ok
		if seen && prev == ok {
			continue
		}

		switch {
		case ok && seen:
			m.logger.Info("Category is back up",
				slog.String("category", c.String()),
				slog.Int("count", n))
		case !ok:
			m.logger.Warn("Category has no images",
				slog.String("category", c.String()),
				slog.String("source", status.Source))
		}
	}

	if reporter, ok := m.provider.(breakerReporter); ok {
		states := reporter.BreakerStates()
		status.Breakers = make(map[string]string, len(states))
		for key, state := range states {
			status.Breakers[key] = state.String()
		}
	}

	return status
}

// Run checks every interval until ctx is done. A non-positive interval
// returns immediately.
func (m *Monitor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Count monitor stopped",
				slog.String("source", m.provider.Name()))
			return

		case <-ticker.C:
			m.Check(ctx)
		}
	}
}

// Handler runs a check and serves the status as JSON. It answers 503 when
// no category has images.
func (m *Monitor) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := m.Check(r.Context())

		code := http.StatusOK
		if !status.Healthy() {
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(status); err != nil {
			m.logger.Warn("Failed to write health status", slog.String("error", err.Error()))
		}
	}
}
