// Package metrics collects request and upstream statistics for the image
// endpoint.
//
// Events flow through a buffered channel into a single collector goroutine:
//   - Requests per img kind
//   - Redirects served per category
//   - Help and error responses
//   - Count fetch failures per category (or "table" for the counts file)
//   - Response times with percentile calculations (P50, P95, P99)
//
// Emit never blocks; when the buffer is full the event is dropped.
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:     metrics.EventImageServed,
//		Category: "pidh",
//	})
//
//	snapshot := collector.Snapshot("remote")
package metrics
