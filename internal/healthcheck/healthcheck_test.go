package healthcheck_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/random-image/internal/catalog"
	"github.com/angeloszaimis/random-image/internal/counts"
	"github.com/angeloszaimis/random-image/internal/healthcheck"
)

// switchingProvider serves whatever table was set last and counts calls.
type switchingProvider struct {
	mutex sync.Mutex
	table catalog.Table
	calls atomic.Int32
}

func (p *switchingProvider) set(t catalog.Table) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.table = t
}

func (p *switchingProvider) Counts(context.Context) catalog.Table {
	p.calls.Add(1)
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.table.Clone()
}

func (p *switchingProvider) Name() string {
	return "switching"
}

// syncBuffer guards log output written from the monitor goroutine.
type syncBuffer struct {
	mutex sync.Mutex
	buf   bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.buf.String()
}

var _ = Describe("Monitor", func() {
	var (
		provider *switchingProvider
		logs     *syncBuffer
		monitor  *healthcheck.Monitor
	)

	BeforeEach(func() {
		provider = &switchingProvider{table: catalog.Table{catalog.Horizontal: 3, catalog.Vertical: 0}}
		logs = &syncBuffer{}
		monitor = healthcheck.NewMonitor(provider, slog.New(slog.NewTextHandler(logs, nil)))
	})

	Describe("Check", func() {
		It("should report counts and empty categories", func() {
			status := monitor.Check(context.Background())

			Expect(status.Source).To(Equal("switching"))
			Expect(status.Categories).To(HaveLen(8))
			Expect(status.Categories["h"]).To(Equal(3))
			Expect(status.Empty).To(ContainElement("v"))
			Expect(status.Empty).NotTo(ContainElement("h"))
			Expect(status.Healthy()).To(BeTrue())
		})

		It("should log a category that runs out of images once", func() {
			monitor.Check(context.Background())
			Expect(logs.String()).To(ContainSubstring("category=v"))
			Expect(logs.String()).NotTo(ContainSubstring("Category is back up"))

			provider.set(catalog.Table{catalog.Horizontal: 0})
			monitor.Check(context.Background())
			monitor.Check(context.Background())

			Expect(bytes.Count([]byte(logs.String()), []byte("category=h"))).To(Equal(1))
		})

		It("should log a category that comes back", func() {
			monitor.Check(context.Background())

			provider.set(catalog.Table{catalog.Horizontal: 3, catalog.Vertical: 9})
			monitor.Check(context.Background())

			Expect(logs.String()).To(ContainSubstring("Category is back up"))
			Expect(logs.String()).To(ContainSubstring("count=9"))
		})

		It("should be unhealthy when every category is empty", func() {
			provider.set(catalog.NewTable())
			Expect(monitor.Check(context.Background()).Healthy()).To(BeFalse())
		})
	})

	Describe("Run", func() {
		It("should refresh the table on every tick", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			go monitor.Run(ctx, 10*time.Millisecond)

			Eventually(provider.calls.Load).Should(BeNumerically(">=", 3))
		})

		It("should stop when the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				monitor.Run(ctx, 10*time.Millisecond)
				close(done)
			}()

			cancel()
			Eventually(done).Should(BeClosed())
			Expect(logs.String()).To(ContainSubstring("Count monitor stopped"))
		})

		It("should return immediately without an interval", func() {
			done := make(chan struct{})
			go func() {
				monitor.Run(context.Background(), 0)
				close(done)
			}()

			Eventually(done).Should(BeClosed())
			Expect(provider.calls.Load()).To(BeZero())
		})
	})

	Describe("Handler", func() {
		serve := func() *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, "http://img.example.com/health/counts", nil)
			rec := httptest.NewRecorder()
			monitor.Handler().ServeHTTP(rec, req)
			return rec
		}

		It("should serve the status as JSON", func() {
			rec := serve()

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))

			var status healthcheck.Status
			Expect(json.Unmarshal(rec.Body.Bytes(), &status)).To(Succeed())
			Expect(status.Categories["h"]).To(Equal(3))
		})

		It("should include breaker states for a remote provider", func() {
			up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer up.Close()

			remote := counts.NewRemote(counts.RemoteOptions{
				APIURL:           up.URL,
				Owner:            "owner",
				Repo:             "images",
				Root:             "ri",
				BreakerThreshold: 1,
				BreakerTimeout:   time.Hour,
			}, up.Client(), nil, slog.New(slog.NewTextHandler(logs, nil)), nil)
			monitor = healthcheck.NewMonitor(remote, slog.New(slog.NewTextHandler(logs, nil)))

			rec := serve()
			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))

			var status healthcheck.Status
			Expect(json.Unmarshal(rec.Body.Bytes(), &status)).To(Succeed())
			Expect(status.Breakers).To(HaveLen(8))
			Expect(status.Breakers).To(HaveKeyWithValue("ri/pid/h", "OPEN"))
		})

		It("should omit breakers for providers without them", func() {
			Expect(serve().Body.String()).NotTo(ContainSubstring("breakers"))
		})

		It("should answer 503 without any images", func() {
			provider.set(catalog.NewTable())
			Expect(serve().Code).To(Equal(http.StatusServiceUnavailable))
		})
	})
})
