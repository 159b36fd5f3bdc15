package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hostelctl/hostelctl/internal/model"
)

// Resource is a collection path relative to the API base URL.
type Resource string

// Known resources.
const (
	Rooms              Resource = "rooms"
	Beds               Resource = "beds"
	Tenants            Resource = "tenants"
	TenantsPendingRent Resource = "tenant-status/pending-rent"
	TenantsCheckedOut  Resource = "tenant-status/checked-out"
	RentPayments       Resource = "rent-payments"
	AdvancePayments    Resource = "advance-payments"
	RefundPayments     Resource = "refund-payments"
	Expenses           Resource = "expenses"
	Visitors           Resource = "visitors"
	Organizations      Resource = "organizations"
	EmployeeSalaries   Resource = "employee-salary"
	DashboardStats     Resource = "dashboard/stats"
)

// Item returns the path of a single record in the collection.
func (r Resource) Item(id int64) string {
	return string(r) + "/" + strconv.FormatInt(id, 10)
}

// List fetches one page of a collection. projection carries the filter
// query parameters; page and limit are added here. A response without a
// pagination block is treated as a single, final page.
func List[T model.Entity](ctx context.Context, c *Client, resource Resource, page, limit int, projection url.Values) (model.ResultPage[T], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = c.pageSize
	}

	query := url.Values{}
	for key, values := range projection {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var env listEnvelope[T]
	if err := c.do(ctx, http.MethodGet, string(resource), query, nil, &env); err != nil {
		return model.ResultPage[T]{}, err
	}

	result := model.ResultPage[T]{Items: env.Data}
	if env.Pagination != nil {
		result.Pagination = *env.Pagination
	} else {
		result.Pagination = model.Pagination{
			Total:      len(env.Data),
			Page:       page,
			Limit:      limit,
			TotalPages: page,
		}
	}
	if result.Items == nil {
		result.Items = []T{}
	}

	return result, nil
}

// Get fetches a single record.
func Get[T any](ctx context.Context, c *Client, resource Resource, id int64) (T, error) {
	var env itemEnvelope[T]
	if err := c.do(ctx, http.MethodGet, resource.Item(id), nil, nil, &env); err != nil {
		var zero T
		return zero, err
	}
	return env.Data, nil
}

// Create validates payload locally and posts it to the collection.
func Create[T any](ctx context.Context, c *Client, resource Resource, payload T) (T, error) {
	var zero T
	if err := Validate(payload); err != nil {
		return zero, err
	}

	var env itemEnvelope[T]
	if err := c.do(ctx, http.MethodPost, string(resource), nil, payload, &env); err != nil {
		return zero, err
	}
	return env.Data, nil
}

// Delete removes a record and returns the server's confirmation message.
func Delete(ctx context.Context, c *Client, resource Resource, id int64) (string, error) {
	if id <= 0 {
		return "", &ValidationError{Message: "invalid id", Fields: map[string]string{"id": "must be positive"}}
	}

	var env messageEnvelope
	if err := c.do(ctx, http.MethodDelete, resource.Item(id), nil, nil, &env); err != nil {
		return "", err
	}
	return env.Message, nil
}

// Stats fetches the dashboard statistics for the current scope.
func (c *Client) Stats(ctx context.Context) (model.DashboardStats, error) {
	var env itemEnvelope[model.DashboardStats]
	if err := c.do(ctx, http.MethodGet, string(DashboardStats), nil, nil, &env); err != nil {
		return model.DashboardStats{}, fmt.Errorf("failed to fetch dashboard stats: %w", err)
	}
	return env.Data, nil
}
