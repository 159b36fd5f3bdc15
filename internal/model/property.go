package model

import "github.com/shopspring/decimal"

// Room is a room within a PG location.
type Room struct {
	Rent     decimal.Decimal `json:"rent_price"`
	RoomNo   string          `json:"room_no"`
	Floor    string          `json:"floor,omitempty"`
	SNo      int64           `json:"s_no"`
	Capacity int             `json:"bed_count"`
	Occupied int             `json:"occupied_beds"`
}

// Key implements Entity.
func (r Room) Key() int64 { return r.SNo }

// Vacant returns the number of free beds.
func (r Room) Vacant() int {
	return max(0, r.Capacity-r.Occupied)
}

// Bed is a single bed inside a room.
type Bed struct {
	BedNo    string `json:"bed_no"`
	SNo      int64  `json:"s_no"`
	RoomID   int64  `json:"room_id"`
	TenantID int64  `json:"tenant_id,omitempty"`
	Occupied bool   `json:"is_occupied"`
}

// Key implements Entity.
func (b Bed) Key() int64 { return b.SNo }

// Organization owns one or more PG locations.
type Organization struct {
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Status string `json:"status,omitempty"`
	SNo    int64  `json:"s_no"`
}

// Key implements Entity.
func (o Organization) Key() int64 { return o.SNo }

// Visitor is a guest logged at the front desk.
type Visitor struct {
	VisitDate   Date   `json:"visit_date" validate:"required"`
	VisitorName string `json:"visitor_name" validate:"required,max=128"`
	Phone       string `json:"phone_no,omitempty" validate:"omitempty,numeric,min=7,max=15"`
	Purpose     string `json:"purpose,omitempty" validate:"max=256"`
	CheckIn     string `json:"check_in_time,omitempty"`
	CheckOut    string `json:"check_out_time,omitempty"`
	SNo         int64  `json:"s_no,omitempty"`
	TenantID    int64  `json:"tenant_id,omitempty"`
	RoomID      int64  `json:"room_id,omitempty"`
}

// Key implements Entity.
func (v Visitor) Key() int64 { return v.SNo }

// DashboardStats is the summary block shown on the dashboard.
type DashboardStats struct {
	MonthlyCollection decimal.Decimal `json:"monthly_collection"`
	MonthlyExpenses   decimal.Decimal `json:"monthly_expenses"`
	PendingRentAmount decimal.Decimal `json:"pending_rent_amount"`
	TotalRooms        int             `json:"total_rooms"`
	TotalBeds         int             `json:"total_beds"`
	OccupiedBeds      int             `json:"occupied_beds"`
	ActiveTenants     int             `json:"active_tenants"`
	PendingRentCount  int             `json:"pending_rent_count"`
}
