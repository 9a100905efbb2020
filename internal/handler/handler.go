package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/angeloszaimis/random-image/internal/catalog"
	"github.com/angeloszaimis/random-image/internal/counts"
	"github.com/angeloszaimis/random-image/internal/device"
	"github.com/angeloszaimis/random-image/internal/metrics"
	"github.com/angeloszaimis/random-image/internal/selector"
)

const kindParam = "img"

type ImageHandler struct {
	logger      *slog.Logger
	provider    counts.Provider
	selector    *selector.Selector
	collector   *metrics.Collector
	environment string
	now         func() time.Time
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

// outcome is what a dispatched request resolved to.
type outcome struct {
	selection selector.Selection
	served    bool
	mobile    bool
	table     catalog.Table
}

func NewImageHandler(logger *slog.Logger, provider counts.Provider, sel *selector.Selector, collector *metrics.Collector, environment string) *ImageHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &ImageHandler{
		logger:      logger,
		provider:    provider,
		selector:    sel,
		collector:   collector,
		environment: environment,
		now:         time.Now,
	}
}

func (h *ImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	kind := r.URL.Query().Get(kindParam)
	wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

	h.collector.Emit(metrics.MetricEvent{
		Type: metrics.EventRequestReceived,
		Kind: kind,
	})

	defer func() {
		if rec := recover(); rec != nil {
			h.fail(wrapped, r, fmt.Errorf("%v", rec), debug.Stack())
		}

		h.collector.Emit(metrics.MetricEvent{
			Type:       metrics.EventResponseCompleted,
			Kind:       kind,
			Duration:   time.Since(start),
			StatusCode: wrapped.statusCode,
		})
	}()

	res := h.dispatch(r, kind)
	if !res.served {
		h.logger.Info("Serving help page",
			slog.String("kind", kind),
			slog.Bool("mobile", res.mobile),
			slog.String("user_agent", r.UserAgent()))
		h.help(wrapped, res.table)
		return
	}

	h.logger.Info("Redirecting to image",
		slog.String("kind", kind),
		slog.Bool("mobile", res.mobile),
		slog.String("category", res.selection.Category.String()),
		slog.String("location", res.selection.Path))
	h.redirect(wrapped, res.selection)
}

func (h *ImageHandler) dispatch(r *http.Request, kind string) outcome {
	mobile := device.IsMobile(r.UserAgent())
	table := h.provider.Counts(r.Context())

	res := outcome{mobile: mobile, table: table}

	route, ok := catalog.Lookup(kind)
	if !ok {
		return res
	}

	res.selection, res.served = h.selector.PickRoute(route.Resolve(mobile), route.Composite, table)
	return res
}

func (h *ImageHandler) redirect(w http.ResponseWriter, sel selector.Selection) {
	header := w.Header()
	header.Set("Location", sel.Path)
	header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	header.Set("Pragma", "no-cache")
	header.Set("Expires", "0")
	header.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusFound)

	h.collector.Emit(metrics.MetricEvent{
		Type:     metrics.EventImageServed,
		Category: sel.Category.String(),
	})
}

func (h *ImageHandler) help(w http.ResponseWriter, table catalog.Table) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(renderHelp(table, h.provider.Name()))); err != nil {
		h.logger.Warn("Failed to write help page", slog.String("error", err.Error()))
	}

	h.collector.Emit(metrics.MetricEvent{Type: metrics.EventHelpServed})
}

func (h *ImageHandler) fail(w *statusRecorder, r *http.Request, err error, stack []byte) {
	incident := uuid.NewString()

	h.logger.Error("Request failed",
		slog.String("incident", incident),
		slog.String("url", r.URL.String()),
		slog.String("error", err.Error()),
		slog.String("stack", string(stack)))

	h.collector.Emit(metrics.MetricEvent{Type: metrics.EventErrorServed})

	if w.wroteHeader {
		return
	}

	if h.environment != "dev" {
		stack = nil
	}

	header := w.Header()
	for key := range header {
		delete(header, key)
	}
	header.Set("Content-Type", "text/plain; charset=utf-8")
	header.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(renderError(err, incident, r.URL.String(), h.now(), stack)))
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.wroteHeader {
		return
	}
	r.wroteHeader = true
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	return r.ResponseWriter.Write(b)
}
