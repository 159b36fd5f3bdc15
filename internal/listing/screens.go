package listing

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/hostelctl/hostelctl/internal/api"
	"github.com/hostelctl/hostelctl/internal/model"
)

// Column describes one rendered column of a list.
type Column struct {
	Title string
	Width int
}

// Screen binds an entity type to its API resource, accepted filters and
// tabular rendering.
type Screen[T model.Entity] struct {
	PostFilter PostFilter[T]
	Row        func(T) []string
	// Route picks the resource from the projected query and may remove
	// parameters it consumed. Nil means Resource.
	Route      func(q url.Values) api.Resource
	Name       string
	Title      string
	Resource   api.Resource
	Columns    []Column
	ClientKeys []Key
	Filters    FilterSpec
}

// Headers returns the column titles.
func (s Screen[T]) Headers() []string {
	headers := make([]string, len(s.Columns))
	for i, col := range s.Columns {
		headers[i] = col.Title
	}
	return headers
}

// Fetcher adapts client into the screen's FetchFunc.
func (s Screen[T]) Fetcher(client *api.Client, limit int) FetchFunc[T] {
	return func(ctx context.Context, page int, projection url.Values) (model.ResultPage[T], error) {
		q := url.Values{}
		for k, v := range projection {
			q[k] = append([]string(nil), v...)
		}
		resource := s.Resource
		if s.Route != nil {
			resource = s.Route(q)
		}
		return api.List[T](ctx, client, resource, page, limit, q)
	}
}

// NewController builds an idle controller for the screen.
func (s Screen[T]) NewController(client *api.Client, limit int, opts ...FilterOption) *Controller[T] {
	filters := NewFilterSet(s.Filters, opts...)

	var ctrlOpts []ControllerOption[T]
	if s.PostFilter != nil {
		ctrlOpts = append(ctrlOpts, WithPostFilter(s.PostFilter, s.ClientKeys...))
	}
	return NewController(s.Name, s.Fetcher(client, limit), filters, ctrlOpts...)
}

var dateKeys = []Key{KeyStartDate, KeyEndDate, KeyQuickFilter}

func keys(groups ...[]Key) []Key {
	var out []Key
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var paymentColumns = []Column{
	{Title: "#", Width: 6},
	{Title: "Tenant", Width: 22},
	{Title: "Amount", Width: 12},
	{Title: "Date", Width: 10},
	{Title: "Method", Width: 10},
	{Title: "Status", Width: 10},
}

func paymentRow(p model.Payment) []string {
	return []string{
		strconv.FormatInt(p.SNo, 10),
		tenantLabel(p.TenantName, p.TenantID),
		Money(p.Amount),
		p.PaymentDate.String(),
		p.PaymentMethod,
		string(p.Status),
	}
}

// RentPayments lists monthly rent collections.
var RentPayments = Screen[model.Payment]{
	Name:     "rent-payments",
	Title:    "Rent Payments",
	Resource: api.RentPayments,
	Filters: FilterSpec{
		Keys:     keys(DateKeys, []Key{KeyStatus, KeyRoom, KeyBed, KeyTenant, KeySearch}),
		Statuses: model.PaymentStatuses,
	},
	Columns: append(paymentColumns[:len(paymentColumns):len(paymentColumns)], Column{Title: "For", Width: 8}),
	Row: func(p model.Payment) []string {
		forPeriod := ""
		if p.ForMonth != 0 && p.ForYear != 0 {
			forPeriod = fmt.Sprintf("%02d/%d", p.ForMonth, p.ForYear)
		}
		return append(paymentRow(p), forPeriod)
	},
}

// AdvancePayments lists security deposits collected at check-in.
var AdvancePayments = Screen[model.Payment]{
	Name:     "advance-payments",
	Title:    "Advance Payments",
	Resource: api.AdvancePayments,
	Filters: FilterSpec{
		Keys:     keys(dateKeys, []Key{KeyStatus, KeyRoom, KeyBed, KeyTenant, KeySearch}),
		Statuses: model.PaymentStatuses,
	},
	Columns: paymentColumns,
	Row:     paymentRow,
}

// RefundPayments lists deposits returned at check-out.
var RefundPayments = Screen[model.Payment]{
	Name:     "refund-payments",
	Title:    "Refund Payments",
	Resource: api.RefundPayments,
	Filters: FilterSpec{
		Keys:     keys(dateKeys, []Key{KeyStatus, KeyRoom, KeyBed, KeyTenant, KeySearch}),
		Statuses: model.PaymentStatuses,
	},
	Columns: paymentColumns,
	Row:     paymentRow,
}

// Expenses lists operating expenses. Date range and type are filtered
// client-side until the server supports them.
var Expenses = Screen[model.Expense]{
	Name:     "expenses",
	Title:    "Expenses",
	Resource: api.Expenses,
	Filters: FilterSpec{
		Keys: keys(DateKeys, []Key{KeyExpenseType, KeySearch}),
	},
	PostFilter: FilterExpenses,
	ClientKeys: ExpenseKeys,
	Columns: []Column{
		{Title: "#", Width: 6},
		{Title: "Type", Width: 16},
		{Title: "Amount", Width: 12},
		{Title: "Date", Width: 10},
		{Title: "Paid To", Width: 18},
		{Title: "Method", Width: 10},
	},
	Row: func(e model.Expense) []string {
		return []string{
			strconv.FormatInt(e.SNo, 10),
			e.ExpenseType,
			Money(e.Amount),
			e.ExpenseDate.String(),
			e.PaidTo,
			e.PaymentMethod,
		}
	},
}

// Tenants lists residents. The pending-rent and checked-out flags switch
// to the dedicated tenant-status endpoints.
var Tenants = Screen[model.Tenant]{
	Name:     "tenants",
	Title:    "Tenants",
	Resource: api.Tenants,
	Filters: FilterSpec{
		Keys:     []Key{KeyStatus, KeyRoom, KeyBed, KeySearch},
		Flags:    []Key{FlagPendingRent, FlagCheckedOut},
		Statuses: model.TenantStatuses,
	},
	Route: func(q url.Values) api.Resource {
		switch {
		case q.Has(string(FlagPendingRent)):
			q.Del(string(FlagPendingRent))
			q.Del(string(FlagCheckedOut))
			return api.TenantsPendingRent
		case q.Has(string(FlagCheckedOut)):
			q.Del(string(FlagCheckedOut))
			return api.TenantsCheckedOut
		default:
			return api.Tenants
		}
	},
	Columns: []Column{
		{Title: "#", Width: 6},
		{Title: "Name", Width: 22},
		{Title: "Room/Bed", Width: 10},
		{Title: "Rent", Width: 12},
		{Title: "Pending", Width: 12},
		{Title: "Check-in", Width: 10},
		{Title: "Status", Width: 11},
	},
	Row: func(t model.Tenant) []string {
		return []string{
			strconv.FormatInt(t.SNo, 10),
			t.Name,
			roomBed(t.RoomNo, t.BedNo),
			Money(t.RentAmount),
			Money(t.PendingRent),
			t.CheckInDate.String(),
			string(t.Status),
		}
	},
}

// Visitors lists the visitor log.
var Visitors = Screen[model.Visitor]{
	Name:     "visitors",
	Title:    "Visitors",
	Resource: api.Visitors,
	Filters: FilterSpec{
		Keys: keys(dateKeys, []Key{KeyRoom, KeyTenant, KeySearch}),
	},
	Columns: []Column{
		{Title: "#", Width: 6},
		{Title: "Visitor", Width: 20},
		{Title: "Phone", Width: 12},
		{Title: "Purpose", Width: 18},
		{Title: "Date", Width: 10},
		{Title: "In", Width: 6},
		{Title: "Out", Width: 6},
	},
	Row: func(v model.Visitor) []string {
		return []string{
			strconv.FormatInt(v.SNo, 10),
			v.VisitorName,
			v.Phone,
			v.Purpose,
			v.VisitDate.String(),
			v.CheckIn,
			v.CheckOut,
		}
	},
}

// Rooms lists rooms with occupancy.
var Rooms = Screen[model.Room]{
	Name:     "rooms",
	Title:    "Rooms",
	Resource: api.Rooms,
	Filters:  FilterSpec{Keys: []Key{KeySearch}},
	Columns: []Column{
		{Title: "#", Width: 6},
		{Title: "Room", Width: 8},
		{Title: "Floor", Width: 6},
		{Title: "Beds", Width: 5},
		{Title: "Vacant", Width: 6},
		{Title: "Rent", Width: 12},
	},
	Row: func(r model.Room) []string {
		return []string{
			strconv.FormatInt(r.SNo, 10),
			r.RoomNo,
			r.Floor,
			strconv.Itoa(r.Capacity),
			strconv.Itoa(r.Vacant()),
			Money(r.Rent),
		}
	},
}

// Beds lists beds, optionally for one room.
var Beds = Screen[model.Bed]{
	Name:     "beds",
	Title:    "Beds",
	Resource: api.Beds,
	Filters:  FilterSpec{Keys: []Key{KeyRoom, KeySearch}},
	Columns: []Column{
		{Title: "#", Width: 6},
		{Title: "Bed", Width: 8},
		{Title: "Room ID", Width: 8},
		{Title: "Occupied", Width: 9},
		{Title: "Tenant ID", Width: 10},
	},
	Row: func(b model.Bed) []string {
		tenant := ""
		if b.TenantID != 0 {
			tenant = strconv.FormatInt(b.TenantID, 10)
		}
		return []string{
			strconv.FormatInt(b.SNo, 10),
			b.BedNo,
			strconv.FormatInt(b.RoomID, 10),
			strconv.FormatBool(b.Occupied),
			tenant,
		}
	},
}

// Organizations lists the organizations visible to the user.
var Organizations = Screen[model.Organization]{
	Name:     "organizations",
	Title:    "Organizations",
	Resource: api.Organizations,
	Filters:  FilterSpec{Keys: []Key{KeyStatus, KeySearch}},
	Columns: []Column{
		{Title: "#", Width: 6},
		{Title: "Name", Width: 24},
		{Title: "Email", Width: 24},
		{Title: "Phone", Width: 12},
		{Title: "Status", Width: 10},
	},
	Row: func(o model.Organization) []string {
		return []string{strconv.FormatInt(o.SNo, 10), o.Name, o.Email, o.Phone, o.Status}
	},
}

// EmployeeSalaries lists staff salary payouts.
var EmployeeSalaries = Screen[model.EmployeeSalary]{
	Name:     "salaries",
	Title:    "Employee Salaries",
	Resource: api.EmployeeSalaries,
	Filters: FilterSpec{
		Keys:     []Key{KeyMonth, KeyYear, KeyStatus, KeySearch},
		Statuses: model.PaymentStatuses,
	},
	Columns: []Column{
		{Title: "#", Width: 6},
		{Title: "Employee", Width: 20},
		{Title: "Role", Width: 12},
		{Title: "Amount", Width: 12},
		{Title: "Period", Width: 8},
		{Title: "Paid On", Width: 10},
		{Title: "Status", Width: 10},
	},
	Row: func(s model.EmployeeSalary) []string {
		return []string{
			strconv.FormatInt(s.SNo, 10),
			s.EmployeeName,
			s.Role,
			Money(s.Amount),
			fmt.Sprintf("%02d/%d", s.Month, s.Year),
			s.PaidOn.String(),
			string(s.Status),
		}
	},
}

// Money formats an amount with two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func tenantLabel(name string, id int64) string {
	if name != "" {
		return name
	}
	if id != 0 {
		return "tenant " + strconv.FormatInt(id, 10)
	}
	return ""
}

func roomBed(room, bed string) string {
	switch {
	case room == "" && bed == "":
		return ""
	case bed == "":
		return room
	default:
		return room + "/" + bed
	}
}
