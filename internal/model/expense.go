package model

import "github.com/shopspring/decimal"

// Expense is money spent running a PG location.
type Expense struct {
	ExpenseDate   Date            `json:"expense_date" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"gt=0"`
	ExpenseType   string          `json:"expense_type" validate:"required,max=64"`
	PaidTo        string          `json:"paid_to,omitempty" validate:"max=128"`
	PaymentMethod string          `json:"payment_method,omitempty" validate:"omitempty,oneof=CASH UPI CARD BANK_TRANSFER CHEQUE"`
	Remarks       string          `json:"remarks,omitempty" validate:"max=512"`
	SNo           int64           `json:"s_no,omitempty"`
}

// Key implements Entity.
func (e Expense) Key() int64 { return e.SNo }

// EmployeeSalary is a salary payout to a staff member.
type EmployeeSalary struct {
	PaidOn       Date            `json:"paid_on"`
	Amount       decimal.Decimal `json:"amount"`
	EmployeeName string          `json:"employee_name"`
	Role         string          `json:"role,omitempty"`
	Status       PaymentStatus   `json:"status"`
	SNo          int64           `json:"s_no"`
	Month        int             `json:"month"`
	Year         int             `json:"year"`
}

// Key implements Entity.
func (s EmployeeSalary) Key() int64 { return s.SNo }
