package metrics

import (
	"sort"
	"sync"
	"time"
)

// maxSamples bounds the response time window used for percentiles.
const maxSamples = 1000

type Metrics struct {
	mutex         sync.RWMutex
	requests      map[string]int64
	redirects     map[string]int64
	fetchFailures map[string]int64
	statusCodes   map[int]int64
	responseTimes []time.Duration
	helpResponses int64
	errors        int64
	startTime     time.Time
}

type Snapshot struct {
	TotalRequests int64                      `json:"total_requests"`
	Uptime        time.Duration              `json:"uptime"`
	Source        string                     `json:"source"`
	Kinds         map[string]int64           `json:"kinds"`
	Categories    map[string]CategoryMetrics `json:"categories"`
	HelpResponses int64                      `json:"help_responses"`
	Errors        int64                      `json:"errors"`
	StatusCodes   map[int]int64              `json:"status_codes"`
	AvgResponse   time.Duration              `json:"avg_response"`
	P50Response   time.Duration              `json:"p50_response"`
	P95Response   time.Duration              `json:"p95_response"`
	P99Response   time.Duration              `json:"p99_response"`
}

type CategoryMetrics struct {
	Redirects     int64 `json:"redirects"`
	FetchFailures int64 `json:"fetch_failures"`
}

func (m *Metrics) IncrementRequests(kind string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.requests[kind]++
}

func (m *Metrics) RecordRedirect(category string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.redirects[category]++
}

func (m *Metrics) RecordHelp() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.helpResponses++
}

func (m *Metrics) RecordError() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.errors++
}

func (m *Metrics) RecordFetchFailure(category string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.fetchFailures[category]++
}

func (m *Metrics) RecordResponse(duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.responseTimes = append(m.responseTimes, duration)
	if len(m.responseTimes) > maxSamples {
		m.responseTimes = m.responseTimes[1:]
	}

	m.statusCodes[statusCode]++
}

func (m *Metrics) Snapshot(source string) Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:        time.Since(m.startTime),
		Source:        source,
		Kinds:         make(map[string]int64, len(m.requests)),
		Categories:    make(map[string]CategoryMetrics),
		HelpResponses: m.helpResponses,
		Errors:        m.errors,
		StatusCodes:   make(map[int]int64, len(m.statusCodes)),
	}

	for kind, n := range m.requests {
		snap.Kinds[kind] = n
		snap.TotalRequests += n
	}

	for code, n := range m.statusCodes {
		snap.StatusCodes[code] = n
	}

	for category, n := range m.redirects {
		cm := snap.Categories[category]
		cm.Redirects = n
		snap.Categories[category] = cm
	}
	for category, n := range m.fetchFailures {
		cm := snap.Categories[category]
		cm.FetchFailures = n
		snap.Categories[category] = cm
	}

	if len(m.responseTimes) > 0 {
		sorted := make([]time.Duration, len(m.responseTimes))
		copy(sorted, m.responseTimes)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i] < sorted[j]
		})

		snap.AvgResponse = average(sorted)
		snap.P50Response = percentile(sorted, 0.50)
		snap.P95Response = percentile(sorted, 0.95)
		snap.P99Response = percentile(sorted, 0.99)
	}

	return snap
}

func NewMetrics() *Metrics {
	return &Metrics{
		requests:      make(map[string]int64),
		redirects:     make(map[string]int64),
		fetchFailures: make(map[string]int64),
		statusCodes:   make(map[int]int64),
		startTime:     time.Now(),
	}
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
