package listing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostelctl/hostelctl/internal/api"
	"github.com/hostelctl/hostelctl/internal/model"
	"github.com/hostelctl/hostelctl/internal/testutil"
)

type item struct {
	Label string
	ID    int64
}

func (i item) Key() int64 { return i.ID }

type fetchCall struct {
	query url.Values
	page  int
}

// fakeServer serves fixed-size pages of sequential items.
type fakeServer struct {
	err      error
	gate     chan struct{}
	calls    []fetchCall
	total    int
	pageSize int
	mu       sync.Mutex
}

func newFakeServer(total, pageSize int) *fakeServer {
	return &fakeServer{total: total, pageSize: pageSize}
}

func (s *fakeServer) fetch(ctx context.Context, page int, query url.Values) (model.ResultPage[item], error) {
	s.mu.Lock()
	s.calls = append(s.calls, fetchCall{page: page, query: query})
	gate := s.gate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return model.ResultPage[item]{}, ctx.Err()
		}
	}

	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return model.ResultPage[item]{}, err
	}

	totalPages := (s.total + s.pageSize - 1) / s.pageSize
	var items []item
	for i := (page-1)*s.pageSize + 1; i <= page*s.pageSize && i <= s.total; i++ {
		items = append(items, item{ID: int64(i), Label: query.Get("status")})
	}
	return model.ResultPage[item]{
		Items: items,
		Pagination: model.Pagination{
			Total:      s.total,
			Page:       page,
			Limit:      s.pageSize,
			TotalPages: totalPages,
		},
	}, nil
}

func (s *fakeServer) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *fakeServer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *fakeServer) lastCall() fetchCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[len(s.calls)-1]
}

var testSpec = FilterSpec{
	Keys:     []Key{KeyStatus, KeyStartDate, KeyEndDate, KeyQuickFilter, KeyMonth, KeyYear, KeySearch},
	Statuses: []string{"PAID", "PENDING"},
}

func newTestController(t *testing.T, srv *fakeServer, opts ...ControllerOption[item]) *Controller[item] {
	t.Helper()
	return NewController("test", srv.fetch, NewFilterSet(testSpec), opts...)
}

func keysOf(items []item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestController_ResetReplacesList(t *testing.T) {
	srv := newFakeServer(45, 20)
	c := newTestController(t, srv)
	ctx := context.Background()

	require.NoError(t, c.Reset(ctx))
	loaded, err := c.LoadMore(ctx)
	require.NoError(t, err)
	require.True(t, loaded)
	require.Len(t, c.Snapshot().Items, 40)

	require.NoError(t, c.Reset(ctx))
	snap := c.Snapshot()
	assert.Len(t, snap.Items, 20)
	assert.Equal(t, int64(1), snap.Items[0].ID)
	assert.Equal(t, 1, snap.Cursor.Page)
	assert.True(t, snap.Cursor.HasMore)
	assert.False(t, snap.Appended)
	assert.Equal(t, StateLoaded, snap.State)
}

func TestController_LoadMoreAppendsUntilLastPage(t *testing.T) {
	srv := newFakeServer(45, 20)
	c := newTestController(t, srv)
	ctx := context.Background()

	require.NoError(t, c.Reset(ctx))

	loaded, err := c.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)
	assert.Equal(t, 2, srv.lastCall().page)

	loaded, err = c.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)

	snap := c.Snapshot()
	require.Len(t, snap.Items, 45)
	assert.Equal(t, int64(21), snap.Items[20].ID)
	assert.Equal(t, 3, snap.Cursor.Page)
	assert.False(t, snap.Cursor.HasMore)
	assert.True(t, snap.Appended)

	calls := srv.callCount()
	loaded, err = c.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, loaded, "no fetch past the last page")
	assert.Equal(t, calls, srv.callCount())
}

func TestController_LoadMoreBeforeFirstFetchIsNoop(t *testing.T) {
	srv := newFakeServer(45, 20)
	c := newTestController(t, srv)

	loaded, err := c.LoadMore(context.Background())
	require.NoError(t, err)
	assert.False(t, loaded)
	assert.Zero(t, srv.callCount())

	snap := c.Snapshot()
	assert.Equal(t, 1, snap.Cursor.Page)
	assert.True(t, snap.Cursor.HasMore)
	assert.False(t, snap.Cursor.Trusted)
	assert.Equal(t, StateIdle, snap.State)
}

func TestController_SingleFlightAppend(t *testing.T) {
	srv := newFakeServer(100, 20)
	c := newTestController(t, srv)
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))

	srv.mu.Lock()
	srv.gate = make(chan struct{})
	gate := srv.gate
	srv.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		loaded, err := c.LoadMore(ctx)
		assert.NoError(t, err)
		assert.True(t, loaded)
	}()

	require.Eventually(t, func() bool { return c.Snapshot().Cursor.Loading }, timeout, tick)

	loaded, err := c.LoadMore(ctx)
	require.NoError(t, err)
	assert.False(t, loaded, "second append must not start while one is in flight")
	assert.False(t, c.ShouldLoadMore(19))

	close(gate)
	<-done

	assert.Equal(t, 2, srv.callCount())
	assert.Len(t, c.Snapshot().Items, 40)
}

func TestController_StaleAppendDiscardedAfterFilterChange(t *testing.T) {
	srv := newFakeServer(100, 20)
	c := newTestController(t, srv)
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))

	srv.mu.Lock()
	srv.gate = make(chan struct{})
	gate := srv.gate
	srv.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.LoadMore(ctx)
	}()
	require.Eventually(t, func() bool { return c.Snapshot().Cursor.Loading }, timeout, tick)

	require.NoError(t, c.UpdateFilters(func(f *FilterSet) error {
		return f.SetStatus("paid")
	}))

	snap := c.Snapshot()
	assert.Equal(t, 1, snap.Cursor.Page)
	assert.True(t, snap.Cursor.HasMore)
	assert.False(t, snap.Cursor.Trusted)

	close(gate)
	<-done

	snap = c.Snapshot()
	assert.Len(t, snap.Items, 20, "the stale page 2 must not be appended")
	assert.Equal(t, 1, snap.Cursor.Page)
	assert.False(t, snap.Cursor.Trusted)

	srv.mu.Lock()
	srv.gate = nil
	srv.mu.Unlock()

	require.NoError(t, c.Reset(ctx))
	snap = c.Snapshot()
	require.Len(t, snap.Items, 20)
	assert.Equal(t, "PAID", snap.Items[0].Label)
	assert.Equal(t, "PAID", srv.lastCall().query.Get("status"))
}

func TestController_StaleResetDiscarded(t *testing.T) {
	srv := newFakeServer(100, 20)
	c := newTestController(t, srv)
	ctx := context.Background()

	srv.mu.Lock()
	srv.gate = make(chan struct{})
	gate := srv.gate
	srv.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- c.Reset(ctx) }()
	require.Eventually(t, func() bool { return srv.callCount() == 1 }, timeout, tick)

	require.NoError(t, c.UpdateFilters(func(f *FilterSet) error {
		return f.SetSearch("ravi")
	}))
	srv.setErr(errors.New("boom"))

	close(gate)
	require.NoError(t, <-done, "a superseded failure is not reported")
	assert.NoError(t, c.TakeError())
	assert.Empty(t, c.Snapshot().Items)
}

func TestController_FailureKeepsListAndSurfacesOnce(t *testing.T) {
	srv := newFakeServer(45, 20)
	c := newTestController(t, srv)
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))

	boom := errors.New("connection refused")
	srv.setErr(boom)

	loaded, err := c.LoadMore(ctx)
	assert.True(t, loaded)
	require.ErrorIs(t, err, boom)

	snap := c.Snapshot()
	assert.Len(t, snap.Items, 20, "list is untouched on failure")
	assert.Equal(t, StateFailed, snap.State)
	assert.False(t, snap.Cursor.Loading)
	assert.Equal(t, 1, snap.Cursor.Page)
	assert.ErrorIs(t, snap.Err, boom)

	assert.ErrorIs(t, c.TakeError(), boom)
	assert.NoError(t, c.TakeError(), "error is surfaced exactly once")

	srv.setErr(nil)
	loaded, err = c.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, loaded, "append is retried after a failure")
	assert.Len(t, c.Snapshot().Items, 40)
	assert.NoError(t, c.Snapshot().Err)
}

func TestController_ServerErrorThroughClient(t *testing.T) {
	srv := testutil.NewAPIServer(t)
	for i := range 5 {
		srv.Seed("rooms", testutil.Record{"room_no": fmt.Sprintf("10%d", i+1)})
	}
	c := Rooms.NewController(srv.Client(t, 2), 2)
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))

	srv.FailNext("rooms", 1)
	loaded, err := c.LoadMore(ctx)
	assert.True(t, loaded)
	require.Error(t, err)

	snap := c.Snapshot()
	assert.Len(t, snap.Items, 2, "list is untouched on a 500")
	assert.Equal(t, StateFailed, snap.State)
	assert.False(t, snap.Cursor.Loading)
	assert.True(t, snap.Cursor.HasMore)

	surfaced := c.TakeError()
	var serverErr *api.ServerError
	require.ErrorAs(t, surfaced, &serverErr)
	assert.Equal(t, http.StatusInternalServerError, serverErr.Status)
	assert.Equal(t, api.KindServer, api.Classify(surfaced))
	assert.Equal(t, api.SeverityCritical, api.SeverityOf(surfaced))
	assert.True(t, api.IsRetryable(surfaced))
	assert.Equal(t, "internal error", api.UserMessage(surfaced))
	assert.NoError(t, c.TakeError(), "one alert per failure")

	loaded, err = c.LoadMore(ctx)
	require.NoError(t, err)
	assert.True(t, loaded)
	snap = c.Snapshot()
	assert.Len(t, snap.Items, 4)
	assert.Equal(t, StateLoaded, snap.State)
	assert.Equal(t, "103", snap.Items[2].RoomNo)
}

func TestController_ResetFailureKeepsPreviousList(t *testing.T) {
	srv := newFakeServer(45, 20)
	c := newTestController(t, srv)
	ctx := context.Background()
	require.NoError(t, c.Reset(ctx))

	srv.setErr(errors.New("timeout"))
	require.Error(t, c.Reset(ctx))
	assert.Len(t, c.Snapshot().Items, 20)
	assert.Error(t, c.TakeError())
}

func TestController_DuplicateKeysDropped(t *testing.T) {
	pages := map[int][]item{
		1: {{ID: 1}, {ID: 2}, {ID: 3}},
		2: {{ID: 3}, {ID: 4}, {ID: 4}},
	}
	fetch := func(_ context.Context, page int, _ url.Values) (model.ResultPage[item], error) {
		return model.ResultPage[item]{
			Items:      pages[page],
			Pagination: model.Pagination{Page: page, Limit: 3, Total: 6, TotalPages: 2},
		}, nil
	}
	c := NewController("dupes", fetch, NewFilterSet(testSpec))
	ctx := context.Background()

	require.NoError(t, c.Reset(ctx))
	_, err := c.LoadMore(ctx)
	require.NoError(t, err)

	snap := c.Snapshot()
	assert.Equal(t, []int64{1, 2, 3, 4}, keysOf(snap.Items))
	assert.Equal(t, 6, snap.Fetched)
}

func TestController_ClearFiltersRewindsWithoutFetching(t *testing.T) {
	srv := newFakeServer(45, 20)
	c := newTestController(t, srv)
	ctx := context.Background()

	require.NoError(t, c.SetFilter(ctx, KeyStatus, "PENDING"))
	_, err := c.LoadMore(ctx)
	require.NoError(t, err)
	calls := srv.callCount()

	c.ClearFilters()

	snap := c.Snapshot()
	assert.Equal(t, calls, srv.callCount())
	assert.Zero(t, snap.Active)
	assert.Equal(t, Filters{Flags: map[Key]bool{}}, snap.Filters)
	assert.Equal(t, 1, snap.Cursor.Page)
	assert.True(t, snap.Cursor.HasMore)
	assert.False(t, snap.Cursor.Trusted)
}

func TestController_SetFilterRejectsUnsupportedKey(t *testing.T) {
	srv := newFakeServer(10, 20)
	c := newTestController(t, srv)

	err := c.SetFilter(context.Background(), KeyRoom, "3")
	require.ErrorIs(t, err, ErrUnsupportedFilter)
	assert.Zero(t, srv.callCount())
	assert.False(t, c.Supports(KeyRoom))
	assert.True(t, c.Supports(KeyStatus))
	assert.Equal(t, []string{"PAID", "PENDING"}, c.Statuses())
}

func TestController_PostFilterIsPageLocal(t *testing.T) {
	srv := newFakeServer(40, 20)
	evenOnly := func(items []item, _ Filters) []item {
		var out []item
		for _, it := range items {
			if it.ID%2 == 0 {
				out = append(out, it)
			}
		}
		return out
	}
	c := newTestController(t, srv, WithPostFilter[item](evenOnly, KeySearch))
	ctx := context.Background()

	require.NoError(t, c.UpdateFilters(func(f *FilterSet) error {
		if err := f.SetSearch("fan"); err != nil {
			return err
		}
		return f.SetStatus("PAID")
	}))
	require.NoError(t, c.Reset(ctx))

	snap := c.Snapshot()
	assert.Len(t, snap.Items, 10)
	assert.Equal(t, 20, snap.Fetched)
	assert.Equal(t, 40, snap.Pagination.Total, "totals describe unfiltered server data")
	assert.True(t, snap.Cursor.HasMore)

	query := srv.lastCall().query
	assert.False(t, query.Has("search"), "client-side keys are not sent")
	assert.Equal(t, "PAID", query.Get("status"))
}

func TestController_NearEnd(t *testing.T) {
	srv := newFakeServer(45, 20)
	c := newTestController(t, srv)
	assert.False(t, c.NearEnd(0), "empty list")

	require.NoError(t, c.Reset(context.Background()))

	tests := []struct {
		name  string
		index int
		want  bool
	}{
		{name: "top", index: 0, want: false},
		{name: "just before half", index: 8, want: false},
		{name: "half way", index: 9, want: true},
		{name: "last", index: 19, want: true},
		{name: "negative", index: -1, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.NearEnd(tt.index))
		})
	}

	assert.True(t, c.ShouldLoadMore(15))
}

func TestController_WithThreshold(t *testing.T) {
	srv := newFakeServer(45, 20)
	c := newTestController(t, srv, WithThreshold[item](0.1))
	require.NoError(t, c.Reset(context.Background()))

	assert.False(t, c.NearEnd(15))
	assert.True(t, c.NearEnd(17))
}

func TestController_MissingPaginationSinglePage(t *testing.T) {
	fetch := func(_ context.Context, page int, _ url.Values) (model.ResultPage[item], error) {
		return model.ResultPage[item]{
			Items:      []item{{ID: 1}},
			Pagination: model.Pagination{Page: page, TotalPages: page, Total: 1},
		}, nil
	}
	c := NewController("single", fetch, NewFilterSet(testSpec))
	require.NoError(t, c.Reset(context.Background()))
	assert.False(t, c.Snapshot().Cursor.HasMore)

	loaded, err := c.LoadMore(context.Background())
	require.NoError(t, err)
	assert.False(t, loaded)
}
