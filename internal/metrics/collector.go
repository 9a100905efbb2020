package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/angeloszaimis/random-image/internal/catalog"
)

// KindUnknown collects requests for img values that match no route.
const KindUnknown = "unknown"

type EventType string

const (
	EventRequestReceived   EventType = "request_received"
	EventImageServed       EventType = "image_served"
	EventHelpServed        EventType = "help_served"
	EventErrorServed       EventType = "error_served"
	EventResponseCompleted EventType = "response_completed"
	EventCountFetchFailed  EventType = "count_fetch_failed"
)

type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	Kind       string
	Category   string
	Duration   time.Duration
	StatusCode int
}

type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// Emit queues event without blocking. It is safe to call on a nil
// collector.
func (c *Collector) Emit(event MetricEvent) {
	if c == nil {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- event:
	default:
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventRequestReceived:
		c.metrics.IncrementRequests(normalizeKind(event.Kind))

	case EventImageServed:
		c.metrics.RecordRedirect(event.Category)

	case EventHelpServed:
		c.metrics.RecordHelp()

	case EventErrorServed:
		c.metrics.RecordError()

	case EventResponseCompleted:
		c.metrics.RecordResponse(event.Duration, event.StatusCode)

	case EventCountFetchFailed:
		c.metrics.RecordFetchFailure(event.Category)
	}
}

// normalizeKind keeps the kind key space bounded. A missing kind stays "".
func normalizeKind(kind string) string {
	if kind == "" {
		return ""
	}
	if _, ok := catalog.Lookup(kind); !ok {
		return KindUnknown
	}
	return kind
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot(source string) Snapshot {
	return c.metrics.Snapshot(source)
}
