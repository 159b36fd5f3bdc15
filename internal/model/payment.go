package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// PaymentKind distinguishes the three payment ledgers.
type PaymentKind string

// Payment kinds.
const (
	PaymentRent    PaymentKind = "RENT"
	PaymentAdvance PaymentKind = "ADVANCE"
	PaymentRefund  PaymentKind = "REFUND"
)

// PaymentStatus is the settlement state of a payment.
type PaymentStatus string

// Payment statuses.
const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentPartial   PaymentStatus = "PARTIAL"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// PaymentStatuses lists every known payment status in display order.
var PaymentStatuses = []string{
	string(PaymentPending),
	string(PaymentPaid),
	string(PaymentPartial),
	string(PaymentFailed),
	string(PaymentCancelled),
}

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	for _, known := range PaymentStatuses {
		if strings.EqualFold(string(s), known) {
			return true
		}
	}
	return false
}

// Payment is a rent, advance or refund payment made by or to a tenant.
type Payment struct {
	PaymentDate   Date            `json:"payment_date"`
	Amount        decimal.Decimal `json:"amount"`
	Kind          PaymentKind     `json:"payment_type,omitempty"`
	Status        PaymentStatus   `json:"status"`
	TenantName    string          `json:"tenant_name,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Remarks       string          `json:"remarks,omitempty"`
	SNo           int64           `json:"s_no"`
	TenantID      int64           `json:"tenant_id"`
	RoomID        int64           `json:"room_id,omitempty"`
	BedID         int64           `json:"bed_id,omitempty"`
	ForMonth      int             `json:"for_month,omitempty"`
	ForYear       int             `json:"for_year,omitempty"`
}

// Key implements Entity.
func (p Payment) Key() int64 { return p.SNo }
