// Package listing implements the filter, pagination and list
// reconciliation logic shared by every list screen.
//
// A Controller owns one FilterSet, one Cursor and the reconciled list. A
// reset fetch requests page 1 and replaces the list; an append fetch
// requests the next page and concatenates it. Every reset or filter change
// starts a new epoch, and a completed fetch is only applied if its epoch is
// still current, so a slow append can never land on top of a newer reset.
package listing

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"sync"

	"github.com/hostelctl/hostelctl/internal/model"
)

// DefaultThreshold is the fraction of the list, measured from the end,
// within which scrolling triggers an append fetch.
const DefaultThreshold = 0.5

// FetchFunc retrieves one page. projection holds the filter query
// parameters.
type FetchFunc[T model.Entity] func(ctx context.Context, page int, projection url.Values) (model.ResultPage[T], error)

// Snapshot is an immutable view of a controller for rendering.
type Snapshot[T model.Entity] struct {
	Err        error
	Filters    Filters
	Items      []T
	Pagination model.Pagination
	Cursor     Cursor
	State      State
	// Fetched counts items received from the server before any client-side
	// post-filter, so it can exceed len(Items).
	Fetched int
	Active  int
	// Appended is true when the last merge was an append.
	Appended bool
}

// Controller coordinates filters, pagination and the reconciled list. It
// is safe for concurrent use; the lock is never held across a fetch.
type Controller[T model.Entity] struct {
	pending    error
	lastErr    error
	fetch      FetchFunc[T]
	post       PostFilter[T]
	filters    *FilterSet
	logger     *slog.Logger
	keys       map[int64]struct{}
	name       string
	clientKeys []Key
	items      []T
	pagination model.Pagination
	threshold  float64
	epoch      uint64
	fetched    int
	cursor     Cursor
	state      State
	appended   bool
	mu         sync.Mutex
}

// ControllerOption customizes a Controller.
type ControllerOption[T model.Entity] func(*Controller[T])

// WithPostFilter filters each fetched page locally. Keys names the filters
// the post-filter handles; they are left out of the query projection.
func WithPostFilter[T model.Entity](post PostFilter[T], keys ...Key) ControllerOption[T] {
	return func(c *Controller[T]) {
		c.post = post
		c.clientKeys = append(c.clientKeys, keys...)
	}
}

// WithLogger sets the logger.
func WithLogger[T model.Entity](logger *slog.Logger) ControllerOption[T] {
	return func(c *Controller[T]) {
		c.logger = logger
	}
}

// WithThreshold sets the scroll threshold used by NearEnd.
func WithThreshold[T model.Entity](threshold float64) ControllerOption[T] {
	return func(c *Controller[T]) {
		if threshold > 0 && threshold <= 1 {
			c.threshold = threshold
		}
	}
}

// NewController creates an idle controller. Nothing is fetched until Reset.
func NewController[T model.Entity](name string, fetch FetchFunc[T], filters *FilterSet, opts ...ControllerOption[T]) *Controller[T] {
	c := &Controller[T]{
		name:      name,
		fetch:     fetch,
		filters:   filters,
		logger:    slog.Default(),
		threshold: DefaultThreshold,
		keys:      make(map[int64]struct{}),
		items:     []T{},
		cursor:    initialCursor(),
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name identifies the list in logs.
func (c *Controller[T]) Name() string {
	return c.name
}

// Reset fetches page 1 and, on success, replaces the list with it. It is
// used on first display, on refresh and after a filter change. A result
// overtaken by a newer reset or filter change is discarded.
func (c *Controller[T]) Reset(ctx context.Context) error {
	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.cursor.Loading = true
	c.state = StateLoading
	filters := c.filters.Values()
	projection := c.filters.Projection(c.clientKeys...)
	c.mu.Unlock()

	c.logger.Debug("Fetching list", "list", c.name, "page", 1, "mode", "reset", "query", projection.Encode())
	page, err := c.fetch(ctx, 1, projection)

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		c.logger.Debug("Discarding superseded page", "list", c.name, "page", 1)
		return nil
	}
	if err != nil {
		c.fail(err, 1)
		return err
	}

	c.items = c.items[:0:0]
	c.keys = make(map[int64]struct{}, len(page.Items))
	c.fetched = 0
	c.merge(page, 1, filters)
	c.appended = false
	return nil
}

// LoadMore fetches the next page and appends it. It reports whether a fetch
// was issued: nothing happens while another fetch is in flight, before the
// first successful fetch, or once the last page has been reached.
func (c *Controller[T]) LoadMore(ctx context.Context) (bool, error) {
	c.mu.Lock()
	if !c.cursor.canAppend() {
		c.mu.Unlock()
		return false, nil
	}
	epoch := c.epoch
	next := c.cursor.Page + 1
	c.cursor.Loading = true
	c.state = StateLoading
	filters := c.filters.Values()
	projection := c.filters.Projection(c.clientKeys...)
	c.mu.Unlock()

	c.logger.Debug("Fetching list", "list", c.name, "page", next, "mode", "append", "query", projection.Encode())
	page, err := c.fetch(ctx, next, projection)

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.epoch {
		c.logger.Debug("Discarding superseded page", "list", c.name, "page", next)
		return true, nil
	}
	if err != nil {
		c.fail(err, next)
		return true, err
	}

	c.merge(page, next, filters)
	c.appended = true
	return true, nil
}

// UpdateFilters applies fn to the filter set and rewinds the cursor to
// page 1 with hasMore forced true. Any in-flight fetch is invalidated. The
// caller follows up with Reset to load the new selection.
func (c *Controller[T]) UpdateFilters(fn func(*FilterSet) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := fn(c.filters); err != nil {
		return err
	}
	c.rewind()
	return nil
}

// SetFilter sets one filter and reloads the list.
func (c *Controller[T]) SetFilter(ctx context.Context, key Key, value string) error {
	if err := c.UpdateFilters(func(f *FilterSet) error {
		return f.Set(key, value)
	}); err != nil {
		return err
	}
	return c.Reset(ctx)
}

// ApplyFilters applies several filter changes at once and reloads the list.
// If fn fails nothing is fetched and the filters keep whatever fn changed
// before failing.
func (c *Controller[T]) ApplyFilters(ctx context.Context, fn func(*FilterSet) error) error {
	if err := c.UpdateFilters(fn); err != nil {
		return err
	}
	return c.Reset(ctx)
}

// ClearFilters resets every filter and rewinds the cursor to page 1 with
// hasMore true. It performs no I/O.
func (c *Controller[T]) ClearFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.filters.ClearAll()
	c.rewind()
}

// TakeError returns the most recent fetch failure once; later calls return
// nil until another fetch fails.
func (c *Controller[T]) TakeError() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.pending
	c.pending = nil
	return err
}

// NearEnd reports whether index lies within the scroll threshold of the
// end of the list.
func (c *Controller[T]) NearEnd(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return nearEnd(index, len(c.items), c.threshold)
}

// ShouldLoadMore reports whether scrolling to index should trigger an
// append fetch.
func (c *Controller[T]) ShouldLoadMore(index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cursor.canAppend() && nearEnd(index, len(c.items), c.threshold)
}

// Snapshot returns a copy of the current state.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot[T]{
		Items:      slices.Clone(c.items),
		Cursor:     c.cursor,
		State:      c.state,
		Err:        c.lastErr,
		Pagination: c.pagination,
		Fetched:    c.fetched,
		Active:     c.filters.CountActive(),
		Filters:    c.filters.Values(),
		Appended:   c.appended,
	}
}

// Supports reports whether the list accepts key.
func (c *Controller[T]) Supports(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.filters.Supports(key)
}

// Statuses lists the status values the list accepts.
func (c *Controller[T]) Statuses() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.filters.Statuses()
}

// merge applies a successful page. Callers hold the lock.
func (c *Controller[T]) merge(page model.ResultPage[T], requested int, filters Filters) {
	c.fetched += len(page.Items)

	items := page.Items
	if c.post != nil {
		items = c.post(items, filters)
	}

	for _, item := range items {
		key := item.Key()
		if _, dup := c.keys[key]; dup {
			c.logger.Debug("Dropping duplicate item", "list", c.name, "key", key, "page", requested)
			continue
		}
		c.keys[key] = struct{}{}
		c.items = append(c.items, item)
	}

	c.pagination = page.Pagination
	c.cursor = Cursor{
		Page:    requested,
		HasMore: requested < page.Pagination.TotalPages,
		Trusted: true,
	}
	c.state = StateLoaded
	c.lastErr = nil

	c.logger.Debug("Merged page",
		"list", c.name,
		"page", requested,
		"received", len(page.Items),
		"shown", len(c.items),
		"has_more", c.cursor.HasMore)
}

// fail records a fetch failure without touching the list. Callers hold the
// lock.
func (c *Controller[T]) fail(err error, page int) {
	c.cursor.Loading = false
	c.state = StateFailed
	c.lastErr = err
	c.pending = err
	c.logger.Warn("List fetch failed", "list", c.name, "page", page, "error", err)
}

// rewind invalidates in-flight fetches and returns the cursor to page 1.
// Callers hold the lock.
func (c *Controller[T]) rewind() {
	c.epoch++
	c.cursor = initialCursor()
	if c.state == StateLoading {
		c.state = StateIdle
	}
}

func nearEnd(index, length int, threshold float64) bool {
	if length == 0 || index < 0 {
		return false
	}
	remaining := length - 1 - index
	return float64(remaining) <= threshold*float64(length)
}

// String describes the controller for debugging.
func (c *Controller[T]) String() string {
	s := c.Snapshot()
	return fmt.Sprintf("%s: %d items, page %d, has_more=%t, %s", c.name, len(s.Items), s.Cursor.Page, s.Cursor.HasMore, s.State)
}
