package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostelctl/hostelctl/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL + "/api/v1"
	cfg.Timeout = 2 * time.Second

	client, err := New(cfg, opts...)
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNew_ValidatesConfig(t *testing.T) {
	tests := []struct {
		name  string
		field string
		cfg   Config
	}{
		{name: "missing base URL", cfg: Config{Timeout: time.Second, PageSize: 10}, field: "BaseURL"},
		{name: "bad URL", cfg: Config{BaseURL: "not a url", Timeout: time.Second, PageSize: 10}, field: "BaseURL"},
		{name: "zero timeout", cfg: Config{BaseURL: "http://localhost", PageSize: 10}, field: "Timeout"},
		{name: "page size too large", cfg: Config{BaseURL: "http://localhost", Timeout: time.Second, PageSize: 500}, field: "PageSize"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			require.Error(t, err)

			var validErr *ValidationError
			require.ErrorAs(t, err, &validErr)
			assert.Contains(t, validErr.Fields, tt.field)
		})
	}
}

func TestList_SendsHeadersAndQuery(t *testing.T) {
	var got *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		writeJSON(w, http.StatusOK, `{
			"success": true,
			"data": [{"s_no": 11, "amount": 4500, "status": "PAID", "payment_date": "2024-03-05T10:00:00Z"}],
			"pagination": {"total": 41, "page": 2, "limit": 20, "totalPages": 3}
		}`)
	},
		WithToken("tok-123"),
		WithScope(StaticScope{OrganizationID: "7", LocationID: "3", UserID: "42"}),
		WithRequestIDs(func() string { return "req-1" }),
	)

	projection := url.Values{"status": {"PAID"}, "start_date": {"2024-03-01"}}
	page, err := List[model.Payment](context.Background(), client, RentPayments, 2, 20, projection)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/api/v1/rent-payments", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, "20", q.Get("limit"))
	assert.Equal(t, "PAID", q.Get("status"))
	assert.Equal(t, "2024-03-01", q.Get("start_date"))

	assert.Equal(t, "Bearer tok-123", got.Header.Get("Authorization"))
	assert.Equal(t, "7", got.Header.Get(HeaderOrganizationID))
	assert.Equal(t, "3", got.Header.Get(HeaderLocationID))
	assert.Equal(t, "42", got.Header.Get(HeaderUserID))
	assert.Equal(t, "req-1", got.Header.Get(HeaderRequestID))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, "hostelctl", got.Header.Get("User-Agent"))

	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(11), page.Items[0].Key())
	assert.True(t, decimal.NewFromInt(4500).Equal(page.Items[0].Amount))
	assert.Equal(t, model.Pagination{Total: 41, Page: 2, Limit: 20, TotalPages: 3}, page.Pagination)
	assert.Len(t, projection, 2, "projection is not mutated")
}

func TestList_OmitsEmptyScope(t *testing.T) {
	var header http.Header
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		writeJSON(w, http.StatusOK, `{"data": []}`)
	}, WithScope(StaticScope{OrganizationID: "7"}))

	_, err := List[model.Room](context.Background(), client, Rooms, 1, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "7", header.Get(HeaderOrganizationID))
	assert.Empty(t, header.Values(HeaderLocationID))
	assert.Empty(t, header.Values(HeaderUserID))
	assert.NotEmpty(t, header.Get(HeaderRequestID))
	assert.Empty(t, header.Get("Authorization"))
}

func TestList_MissingPaginationIsFinalPage(t *testing.T) {
	var limit string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		limit = r.URL.Query().Get("limit")
		writeJSON(w, http.StatusOK, `{"data": [{"s_no": 1}, {"s_no": 2}]}`)
	})

	page, err := List[model.Bed](context.Background(), client, Beds, 1, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "20", limit, "client page size is the default limit")
	assert.Len(t, page.Items, 2)
	assert.Equal(t, model.Pagination{Total: 2, Page: 1, Limit: 20, TotalPages: 1}, page.Pagination)
	assert.False(t, page.Pagination.HasMore())
}

func TestList_NullDataIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"data": null, "pagination": {"total": 0, "page": 1, "limit": 20, "totalPages": 0}}`)
	})

	page, err := List[model.Visitor](context.Background(), client, Visitors, 1, 20, nil)
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestDo_ErrorMapping(t *testing.T) {
	tests := []struct {
		check    func(*testing.T, error)
		name     string
		body     string
		status   int
		kind     Kind
		severity Severity
	}{
		{
			name:     "not found",
			status:   http.StatusNotFound,
			body:     `{"success": false, "statusCode": 404, "message": "Tenant not found", "path": "/api/v1/tenants/9", "timestamp": "2024-03-01T00:00:00Z"}`,
			kind:     KindServer,
			severity: SeverityInfo,
			check: func(t *testing.T, err error) {
				t.Helper()
				var serverErr *ServerError
				require.ErrorAs(t, err, &serverErr)
				assert.Equal(t, "Tenant not found", serverErr.Message)
				assert.Equal(t, "/api/v1/tenants/9", serverErr.Path)
				assert.Equal(t, "2024-03-01T00:00:00Z", serverErr.Timestamp)
				assert.Equal(t, "Tenant not found", UserMessage(err))
			},
		},
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"message": "jwt expired"}`,
			kind:     KindServer,
			severity: SeverityWarning,
			check: func(t *testing.T, err error) {
				t.Helper()
				assert.Equal(t, "Your session has expired. Please log in again.", UserMessage(err))
			},
		},
		{
			name:     "conflict",
			status:   http.StatusConflict,
			body:     `{"error": {"code": "BED_OCCUPIED"}, "message": "Bed already occupied"}`,
			kind:     KindServer,
			severity: SeverityConflict,
			check: func(t *testing.T, err error) {
				t.Helper()
				var serverErr *ServerError
				require.ErrorAs(t, err, &serverErr)
				assert.Equal(t, "BED_OCCUPIED", serverErr.Code)
				assert.False(t, IsRetryable(err))
			},
		},
		{
			name:     "server failure with plain body",
			status:   http.StatusBadGateway,
			body:     `upstream unavailable`,
			kind:     KindServer,
			severity: SeverityCritical,
			check: func(t *testing.T, err error) {
				t.Helper()
				assert.Equal(t, "upstream unavailable", UserMessage(err))
				assert.True(t, IsRetryable(err))
			},
		},
		{
			name:     "validation with field details",
			status:   http.StatusBadRequest,
			body:     `{"message": "Validation failed", "error": {"code": "VALIDATION", "details": [{"field": "amount", "message": "must be positive"}]}}`,
			kind:     KindValidation,
			severity: SeverityError,
			check: func(t *testing.T, err error) {
				t.Helper()
				var validErr *ValidationError
				require.ErrorAs(t, err, &validErr)
				assert.Equal(t, map[string]string{"amount": "must be positive"}, validErr.Fields)
				assert.Equal(t, http.StatusBadRequest, validErr.Status)
			},
		},
		{
			name:     "validation with message list",
			status:   http.StatusBadRequest,
			body:     `{"message": ["phone must be numeric", "name should not be empty"]}`,
			kind:     KindValidation,
			severity: SeverityError,
			check: func(t *testing.T, err error) {
				t.Helper()
				var validErr *ValidationError
				require.ErrorAs(t, err, &validErr)
				assert.Equal(t, "must be numeric", validErr.Fields["phone"])
				assert.Equal(t, "should not be empty", validErr.Fields["name"])
			},
		},
		{
			name:     "bad request without details",
			status:   http.StatusBadRequest,
			body:     `{"message": "Invalid location"}`,
			kind:     KindServer,
			severity: SeverityError,
		},
		{
			name:     "explicit failure in 200",
			status:   http.StatusOK,
			body:     `{"success": false, "message": "Location not assigned"}`,
			kind:     KindServer,
			severity: SeverityError,
			check: func(t *testing.T, err error) {
				t.Helper()
				assert.Equal(t, "Location not assigned", UserMessage(err))
			},
		},
		{
			name:     "undecodable 200",
			status:   http.StatusOK,
			body:     `{"data": "oops"}`,
			kind:     KindUnknown,
			severity: SeverityError,
			check: func(t *testing.T, err error) {
				t.Helper()
				var unknownErr *UnknownError
				require.ErrorAs(t, err, &unknownErr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := List[model.Tenant](context.Background(), client, Tenants, 1, 20, nil)
			require.Error(t, err)
			assert.Equal(t, tt.kind, Classify(err))
			assert.Equal(t, tt.severity, SeverityOf(err))
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestDo_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, err := New(Config{BaseURL: base, Timeout: time.Second, PageSize: 20})
	require.NoError(t, err)

	_, err = List[model.Room](context.Background(), client, Rooms, 1, 20, nil)
	require.Error(t, err)
	assert.Equal(t, KindNetwork, Classify(err))
	assert.True(t, IsRetryable(err))
	assert.Equal(t, "Unable to reach the server. Check your connection and try again.", UserMessage(err))
}

func TestDo_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	client, err := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond, PageSize: 20})
	require.NoError(t, err)

	_, err = List[model.Room](context.Background(), client, Rooms, 1, 20, nil)
	require.Error(t, err)
	assert.Equal(t, KindTimeout, Classify(err))
}

func TestDo_Cancelled(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		writeJSON(w, http.StatusOK, `{"data": []}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := List[model.Room](ctx, client, Rooms, 1, 20, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, KindUnknown, Classify(err))
	assert.Equal(t, "Request cancelled.", UserMessage(err))
	assert.Zero(t, hits.Load())
}

func TestDo_ScopeProviderError(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}, WithScope(failingScope{}))

	_, err := List[model.Room](context.Background(), client, Rooms, 1, 20, nil)
	require.ErrorIs(t, err, errNoScope)
	assert.Zero(t, hits.Load())
}

var errNoScope = errors.New("no location selected")

type failingScope struct{}

func (failingScope) Scope(context.Context) (Scope, error) { return Scope{}, errNoScope }

func TestCreate_ValidatesBeforeSending(t *testing.T) {
	var hits atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	})

	_, err := Create(context.Background(), client, Expenses, model.Expense{ExpenseType: "Water"})
	var validErr *ValidationError
	require.ErrorAs(t, err, &validErr)
	assert.Contains(t, validErr.Fields, "expense_date")
	assert.Contains(t, validErr.Fields, "amount")
	assert.Zero(t, validErr.Status)
	assert.Zero(t, hits.Load())
}

func TestCreate_PostsPayload(t *testing.T) {
	var body map[string]any
	var method, contentType string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusCreated, `{"success": true, "data": {"s_no": 99, "expense_type": "Water", "amount": "350.00", "expense_date": "2024-03-02"}}`)
	})

	date, err := model.ParseDate("2024-03-02")
	require.NoError(t, err)

	created, err := Create(context.Background(), client, Expenses, model.Expense{
		ExpenseType:   "Water",
		Amount:        decimal.RequireFromString("350"),
		ExpenseDate:   date,
		PaymentMethod: "UPI",
	})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "2024-03-02", body["expense_date"])
	assert.Equal(t, "UPI", body["payment_method"])
	assert.Equal(t, int64(99), created.SNo)
}

func TestGetAndDelete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/tenants/5"):
			writeJSON(w, http.StatusOK, `{"data": {"s_no": 5, "name": "Meera", "status": "ACTIVE", "pending_rent": "1500"}}`)
		case r.Method == http.MethodDelete && strings.HasSuffix(r.URL.Path, "/expenses/8"):
			writeJSON(w, http.StatusOK, `{"success": true, "message": "Expense deleted"}`)
		default:
			writeJSON(w, http.StatusNotFound, `{"message": "not found"}`)
		}
	})
	ctx := context.Background()

	tenant, err := Get[model.Tenant](ctx, client, Tenants, 5)
	require.NoError(t, err)
	assert.Equal(t, "Meera", tenant.Name)
	assert.True(t, tenant.HasPendingRent())

	msg, err := Delete(ctx, client, Expenses, 8)
	require.NoError(t, err)
	assert.Equal(t, "Expense deleted", msg)

	_, err = Delete(ctx, client, Expenses, 0)
	assert.Equal(t, KindValidation, Classify(err))
}

func TestStats(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/dashboard/stats", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"data": {"total_rooms": 12, "total_beds": 40, "occupied_beds": 31, "monthly_collection": "152000.50"}}`)
	})

	stats, err := client.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalRooms)
	assert.Equal(t, 31, stats.OccupiedBeds)
	assert.Equal(t, "152000.5", stats.MonthlyCollection.String())
}
