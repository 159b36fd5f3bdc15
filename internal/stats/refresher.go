// Package stats keeps the dashboard figures up to date.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/url"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hostelctl/hostelctl/internal/api"
	"github.com/hostelctl/hostelctl/internal/listing"
	"github.com/hostelctl/hostelctl/internal/model"
)

// DefaultConcurrency bounds the number of requests in flight per refresh.
const DefaultConcurrency = 4

// StatsFunc fetches the dashboard statistics block.
type StatsFunc func(ctx context.Context) (model.DashboardStats, error)

// CountFunc fetches the total number of records in one list.
type CountFunc func(ctx context.Context) (int, error)

// Summary is the last known set of figures.
type Summary struct {
	UpdatedAt time.Time
	Totals    map[string]int
	// Stale names the parts whose last refresh failed; their values are
	// from an earlier refresh, or absent if none succeeded.
	Stale     []string
	Stats     model.DashboardStats
	HaveStats bool
}

// Refresher fetches statistics and list totals concurrently. A part that
// fails keeps its previous value.
type Refresher struct {
	stats       StatsFunc
	counters    map[string]CountFunc
	logger      *slog.Logger
	now         func() time.Time
	current     Summary
	concurrency int
	mu          sync.Mutex
}

// Option customizes a Refresher.
type Option func(*Refresher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Refresher) {
		r.logger = logger
	}
}

// WithConcurrency overrides DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(r *Refresher) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Refresher) {
		r.now = now
	}
}

// New creates a Refresher. stats may be nil when only totals are wanted.
func New(stats StatsFunc, counters map[string]CountFunc, opts ...Option) *Refresher {
	r := &Refresher{
		stats:       stats,
		counters:    counters,
		logger:      slog.Default(),
		now:         time.Now,
		concurrency: DefaultConcurrency,
		current:     Summary{Totals: map[string]int{}},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Refresh fetches every part and returns the merged summary. The returned
// error joins the failures of individual parts; the summary is valid
// either way.
func (r *Refresher) Refresh(ctx context.Context) (Summary, error) {
	var (
		mu        sync.Mutex
		failures  []error
		stale     []string
		stats     model.DashboardStats
		haveStats bool
		totals    = make(map[string]int, len(r.counters))
	)

	fail := func(part string, err error) {
		mu.Lock()
		defer mu.Unlock()
		r.logger.Warn("Statistics refresh failed", "part", part, "error", err)
		failures = append(failures, fmt.Errorf("%s: %w", part, err))
		stale = append(stale, part)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	if r.stats != nil {
		g.Go(func() error {
			s, err := r.stats(gctx)
			if err != nil {
				fail("stats", err)
				return nil
			}
			mu.Lock()
			stats, haveStats = s, true
			mu.Unlock()
			return nil
		})
	}

	for name, count := range r.counters {
		g.Go(func() error {
			n, err := count(gctx)
			if err != nil {
				fail(name, err)
				return nil
			}
			mu.Lock()
			totals[name] = n
			mu.Unlock()
			return nil
		})
	}

	// Parts report failures through fail, so Wait has nothing to return.
	_ = g.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()

	if haveStats {
		r.current.Stats = stats
		r.current.HaveStats = true
	}
	maps.Copy(r.current.Totals, totals)
	slices.Sort(stale)
	r.current.Stale = stale
	r.current.UpdatedAt = r.now()

	r.logger.Debug("Statistics refreshed", "parts", len(r.counters)+1, "failed", len(stale))
	return r.snapshot(), errors.Join(failures...)
}

// Current returns the last known summary without fetching.
func (r *Refresher) Current() Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot()
}

func (r *Refresher) snapshot() Summary {
	s := r.current
	s.Totals = maps.Clone(r.current.Totals)
	s.Stale = slices.Clone(r.current.Stale)
	return s
}

// Count returns a CountFunc reading the unfiltered total of screen.
func Count[T model.Entity](client *api.Client, screen listing.Screen[T]) CountFunc {
	fetch := screen.Fetcher(client, 1)
	return func(ctx context.Context) (int, error) {
		page, err := fetch(ctx, 1, url.Values{})
		if err != nil {
			return 0, err
		}
		return page.Pagination.Total, nil
	}
}

// DefaultCounters counts the lists shown on the dashboard.
func DefaultCounters(client *api.Client) map[string]CountFunc {
	return map[string]CountFunc{
		listing.Tenants.Name:      Count(client, listing.Tenants),
		listing.Rooms.Name:        Count(client, listing.Rooms),
		listing.Beds.Name:         Count(client, listing.Beds),
		listing.Visitors.Name:     Count(client, listing.Visitors),
		listing.RentPayments.Name: Count(client, listing.RentPayments),
		listing.Expenses.Name:     Count(client, listing.Expenses),
	}
}
