package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// TenantStatus is the occupancy state of a tenant.
type TenantStatus string

// Tenant statuses.
const (
	TenantActive     TenantStatus = "ACTIVE"
	TenantNoticed    TenantStatus = "NOTICE"
	TenantCheckedOut TenantStatus = "CHECKED_OUT"
	TenantInactive   TenantStatus = "INACTIVE"
)

// TenantStatuses lists every known tenant status in display order.
var TenantStatuses = []string{
	string(TenantActive),
	string(TenantNoticed),
	string(TenantCheckedOut),
	string(TenantInactive),
}

// Valid reports whether s is a known tenant status.
func (s TenantStatus) Valid() bool {
	for _, known := range TenantStatuses {
		if strings.EqualFold(string(s), known) {
			return true
		}
	}
	return false
}

// Tenant is a resident of a PG location.
type Tenant struct {
	CheckInDate  Date            `json:"check_in_date"`
	CheckOutDate Date            `json:"check_out_date"`
	RentAmount   decimal.Decimal `json:"rent_amount"`
	PendingRent  decimal.Decimal `json:"pending_rent"`
	Name         string          `json:"name"`
	Phone        string          `json:"phone_no,omitempty"`
	Email        string          `json:"email,omitempty"`
	RoomNo       string          `json:"room_no,omitempty"`
	BedNo        string          `json:"bed_no,omitempty"`
	Status       TenantStatus    `json:"status"`
	SNo          int64           `json:"s_no"`
	RoomID       int64           `json:"room_id,omitempty"`
	BedID        int64           `json:"bed_id,omitempty"`
}

// Key implements Entity.
func (t Tenant) Key() int64 { return t.SNo }

// HasPendingRent reports whether the tenant owes rent.
func (t Tenant) HasPendingRent() bool {
	return t.PendingRent.IsPositive()
}
