package counts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/angeloszaimis/random-image/internal/catalog"
	"github.com/angeloszaimis/random-image/internal/circuitbreaker"
	"github.com/angeloszaimis/random-image/internal/metrics"
	"github.com/angeloszaimis/random-image/internal/ttlcache"
)

const (
	DefaultAPIURL    = "https://api.github.com"
	DefaultRemoteTTL = 5 * time.Minute
)

var numberedAsset = regexp.MustCompile(`^(\d+)\.webp$`)

// RemoteOptions locates the image tree in a GitHub repository.
type RemoteOptions struct {
	APIURL string
	Owner  string
	Repo   string
	Branch string
	// Root is the directory holding the category folders, e.g. "ri".
	Root  string
	Token string
	TTL   time.Duration
	// BreakerThreshold consecutive failures stop calls to a directory for
	// BreakerTimeout. Zero disables the breaker.
	BreakerThreshold int
	BreakerTimeout   time.Duration
}

type listingEntry struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Remote derives each category's count from a directory listing.
type Remote struct {
	opts      RemoteOptions
	client    *http.Client
	cache     *ttlcache.Cache[catalog.Category, int]
	breakers  *circuitbreaker.Registry
	group     singleflight.Group
	logger    *slog.Logger
	collector *metrics.Collector
}

// NewRemote creates a remote provider. collector may be nil.
func NewRemote(opts RemoteOptions, client *http.Client, clock ttlcache.Clock, logger *slog.Logger, collector *metrics.Collector) *Remote {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultRemoteTTL
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Remote{
		opts:      opts,
		client:    client,
		cache:     ttlcache.New[catalog.Category, int](opts.TTL, clock),
		breakers:  circuitbreaker.NewRegistry(opts.BreakerThreshold, opts.BreakerTimeout, clock),
		logger:    logger,
		collector: collector,
	}
}

func (p *Remote) Name() string {
	return SourceRemote
}

// Counts looks up every category concurrently. A failed lookup resolves to
// its own fallback and never affects the others.
func (p *Remote) Counts(ctx context.Context) catalog.Table {
	cats := catalog.All()
	results := make([]int, len(cats))

	var g errgroup.Group
	for i, c := range cats {
		g.Go(func() error {
			results[i] = p.count(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	table := make(catalog.Table, len(cats))
	for i, c := range cats {
		table[c] = results[i]
	}
	return table
}

// BreakerStates exposes breaker state per listing directory.
func (p *Remote) BreakerStates() map[string]circuitbreaker.State {
	return p.breakers.Stats()
}

func (p *Remote) count(ctx context.Context, c catalog.Category) int {
	if n, ok := p.cache.Get(c); ok {
		return n
	}

	dir := p.dir(c)
	v, err, _ := p.group.Do(string(c), func() (any, error) {
		if n, ok := p.cache.Get(c); ok {
			return n, nil
		}

		cb := p.breakers.GetBreaker(dir)
		if !cb.Allow() {
			return 0, errBreakerOpen
		}

		fetchCtx, cancel := detach(ctx, p.client)
		defer cancel()

		n, err := p.fetch(fetchCtx, dir)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				cb.Release()
			} else {
				cb.RecordFailure()
			}
			return 0, err
		}

		cb.RecordSuccess()
		p.cache.Set(c, n)
		return n, nil
	})

	if err == nil {
		return v.(int)
	}

	fallback, cached := p.cache.Stale(c)
	if errors.Is(err, errBreakerOpen) {
		p.logger.Debug("Skipping listing, breaker open",
			slog.String("category", c.String()),
			slog.String("dir", dir))
	} else {
		p.logger.Warn("Failed to fetch directory listing",
			slog.String("category", c.String()),
			slog.String("dir", dir),
			slog.Bool("cached", cached),
			slog.Int("fallback", fallback),
			slog.String("error", err.Error()))
	}

	p.collector.Emit(metrics.MetricEvent{
		Type:     metrics.EventCountFetchFailed,
		Category: c.String(),
	})

	return fallback
}

func (p *Remote) dir(c catalog.Category) string {
	return path.Join(p.opts.Root, c.SubPath())
}

func (p *Remote) listingURL(dir string) string {
	segments := []string{"repos", p.opts.Owner, p.opts.Repo, "contents"}
	for _, s := range strings.Split(dir, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}

	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}

	u := strings.TrimRight(p.opts.APIURL, "/") + "/" + strings.Join(escaped, "/")
	if p.opts.Branch != "" {
		u += "?ref=" + url.QueryEscape(p.opts.Branch)
	}
	return u
}

func (p *Remote) fetch(ctx context.Context, dir string) (int, error) {
	header := http.Header{}
	header.Set("Accept", "application/vnd.github+json")
	if p.opts.Token != "" {
		header.Set("Authorization", "Bearer "+p.opts.Token)
	}

	body, err := get(ctx, p.client, p.listingURL(dir), header)
	if err != nil {
		return 0, err
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return 0, fmt.Errorf("listing %s: %w", dir, ErrNotListing)
	}

	var entries []listingEntry
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return 0, fmt.Errorf("decode listing %s: %w", dir, err)
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}

	return CountFromListing(names), nil
}

// CountFromListing returns the largest N among names of the form N.webp.
// Without numbered names it falls back to the number of entries.
func CountFromListing(names []string) int {
	highest := 0
	numbered := false

	for _, name := range names {
		m := numberedAsset.FindStringSubmatch(name)
		if m == nil {
			continue
		}

		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		numbered = true
		if n > highest {
			highest = n
		}
	}

	if !numbered {
		return len(names)
	}
	return highest
}
