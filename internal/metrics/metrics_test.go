package metrics_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/random-image/internal/metrics"
)

var _ = Describe("Metrics", func() {
	var m *metrics.Metrics

	BeforeEach(func() {
		m = metrics.NewMetrics()
	})

	Describe("IncrementRequests", func() {
		It("should count requests per kind", func() {
			m.IncrementRequests("h")
			m.IncrementRequests("allua")
			m.IncrementRequests("h")

			snap := m.Snapshot("static")
			Expect(snap.TotalRequests).To(Equal(int64(3)))
			Expect(snap.Kinds["h"]).To(Equal(int64(2)))
			Expect(snap.Kinds["allua"]).To(Equal(int64(1)))
		})
	})

	Describe("RecordRedirect and RecordFetchFailure", func() {
		It("should merge both into per-category metrics", func() {
			m.RecordRedirect("pidh")
			m.RecordRedirect("pidh")
			m.RecordFetchFailure("pidh")
			m.RecordFetchFailure("table")

			snap := m.Snapshot("remote")
			Expect(snap.Categories["pidh"]).To(Equal(metrics.CategoryMetrics{Redirects: 2, FetchFailures: 1}))
			Expect(snap.Categories["table"].FetchFailures).To(Equal(int64(1)))
		})
	})

	Describe("RecordHelp and RecordError", func() {
		It("should count help and error responses", func() {
			m.RecordHelp()
			m.RecordHelp()
			m.RecordError()

			snap := m.Snapshot("static")
			Expect(snap.HelpResponses).To(Equal(int64(2)))
			Expect(snap.Errors).To(Equal(int64(1)))
		})
	})

	Describe("RecordResponse", func() {
		It("should record response time and status code", func() {
			m.RecordResponse(100*time.Millisecond, 302)
			m.RecordResponse(200*time.Millisecond, 200)

			snap := m.Snapshot("static")
			Expect(snap.AvgResponse).To(Equal(150 * time.Millisecond))
			Expect(snap.StatusCodes[302]).To(Equal(int64(1)))
			Expect(snap.StatusCodes[200]).To(Equal(int64(1)))
		})

		It("should calculate percentiles correctly", func() {
			for i := 1; i <= 100; i++ {
				m.RecordResponse(time.Duration(i)*time.Millisecond, 302)
			}

			snap := m.Snapshot("static")
			Expect(snap.P50Response).To(BeNumerically("~", 50*time.Millisecond, 1*time.Millisecond))
			Expect(snap.P95Response).To(BeNumerically("~", 95*time.Millisecond, 1*time.Millisecond))
			Expect(snap.P99Response).To(BeNumerically("~", 99*time.Millisecond, 1*time.Millisecond))
		})

		It("should keep only the most recent 1000 samples", func() {
			for i := 1; i <= 1500; i++ {
				m.RecordResponse(time.Duration(i)*time.Millisecond, 302)
			}

			snap := m.Snapshot("static")
			Expect(snap.AvgResponse).To(BeNumerically(">", 500*time.Millisecond))
			Expect(snap.StatusCodes[302]).To(Equal(int64(1500)))
		})
	})

	Describe("Snapshot", func() {
		It("should carry the source name", func() {
			Expect(m.Snapshot("file").Source).To(Equal("file"))
		})

		It("should handle empty metrics", func() {
			snap := m.Snapshot("static")
			Expect(snap.TotalRequests).To(Equal(int64(0)))
			Expect(snap.Categories).To(BeEmpty())
			Expect(snap.AvgResponse).To(BeZero())
		})

		It("should return independent snapshots", func() {
			m.IncrementRequests("h")
			snap1 := m.Snapshot("static")
			m.IncrementRequests("h")
			snap2 := m.Snapshot("static")

			Expect(snap1.TotalRequests).To(Equal(int64(1)))
			Expect(snap2.TotalRequests).To(Equal(int64(2)))
		})
	})
})
