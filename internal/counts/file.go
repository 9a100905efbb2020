package counts

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/angeloszaimis/random-image/internal/catalog"
	"github.com/angeloszaimis/random-image/internal/metrics"
	"github.com/angeloszaimis/random-image/internal/ttlcache"
)

const (
	DefaultFileURL = "/counts.json"
	DefaultFileTTL = 60 * time.Second
)

// tableKey marks counts file failures in metrics.
const tableKey = "table"

// FileOptions locates the counts document. A relative URL is resolved
// once against Origin, e.g. "https://img.example.com".
type FileOptions struct {
	URL    string
	Origin string
	TTL    time.Duration
}

// File reads the whole table from one JSON document.
type File struct {
	opts       FileOptions
	target     string
	resolveErr error
	client     *http.Client
	cache      *ttlcache.Cache[string, catalog.Table]
	group      singleflight.Group
	logger     *slog.Logger
	collector  *metrics.Collector
}

// NewFile creates a counts file provider. collector may be nil.
func NewFile(opts FileOptions, client *http.Client, clock ttlcache.Clock, logger *slog.Logger, collector *metrics.Collector) *File {
	if opts.URL == "" {
		opts.URL = DefaultFileURL
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultFileTTL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}

	target, err := resolveFileURL(opts.URL, opts.Origin)

	return &File{
		opts:       opts,
		target:     target,
		resolveErr: err,
		client:     client,
		cache:      ttlcache.New[string, catalog.Table](opts.TTL, clock),
		logger:     logger,
		collector:  collector,
	}
}

func (p *File) Name() string {
	return SourceFile
}

// Counts returns the cached table, fetching it at most once per TTL window.
func (p *File) Counts(ctx context.Context) catalog.Table {
	if p.resolveErr != nil {
		return p.fallback(p.resolveErr)
	}

	if t, ok := p.cache.Get(p.target); ok {
		return t.Clone()
	}

	v, err, _ := p.group.Do(p.target, func() (any, error) {
		if t, ok := p.cache.Get(p.target); ok {
			return t, nil
		}

		fetchCtx, cancel := detach(ctx, p.client)
		defer cancel()

		t, err := p.fetch(fetchCtx, p.target)
		if err != nil {
			return nil, err
		}

		p.cache.Set(p.target, t)
		return t, nil
	})
	if err != nil {
		return p.fallback(err)
	}

	return v.(catalog.Table).Clone()
}

func resolveFileURL(rawURL, origin string) (string, error) {
	ref, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, fmt.Errorf("parse counts URL: %w", err)
	}
	if ref.IsAbs() {
		return ref.String(), nil
	}

	if origin == "" {
		return rawURL, ErrNoOrigin
	}

	base, err := url.Parse(origin)
	if err != nil {
		return rawURL, fmt.Errorf("parse origin: %w", err)
	}
	if !base.IsAbs() {
		return rawURL, fmt.Errorf("origin %q: %w", origin, ErrNoOrigin)
	}

	return base.ResolveReference(ref).String(), nil
}

func (p *File) fetch(ctx context.Context, target string) (catalog.Table, error) {
	header := http.Header{}
	header.Set("Accept", "application/json")

	body, err := get(ctx, p.client, target, header)
	if err != nil {
		return nil, err
	}

	var raw map[string]int
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode counts %s: %w", target, err)
	}

	t := catalog.NewTable()
	for key, n := range raw {
		c, ok := catalog.Parse(key)
		if !ok {
			continue
		}
		if n < 0 {
			n = 0
		}
		t[c] = n
	}

	return t, nil
}

func (p *File) fallback(err error) catalog.Table {
	t, cached := p.cache.Stale(p.target)

	p.logger.Warn("Failed to fetch counts file",
		slog.String("url", p.target),
		slog.Bool("cached", cached),
		slog.String("error", err.Error()))

	p.collector.Emit(metrics.MetricEvent{
		Type:     metrics.EventCountFetchFailed,
		Category: tableKey,
	})

	if cached {
		return t.Clone()
	}
	return catalog.NewTable()
}
