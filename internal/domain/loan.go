package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the payment status of a loan. Only Pending and Paid are ever
// persisted; Overdue is derived from the due date at read time.
type Status string

const (
	StatusPending Status = "Pending"
	StatusPaid    Status = "Paid"
	StatusOverdue Status = "Overdue"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Loan represents a loan record
type Loan struct {
	ID          string          `json:"_id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Company     string          `json:"company" db:"company"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	PhoneNumber string          `json:"phoneNumber" db:"phone_number"`
	DueDate     time.Time       `json:"dueDate" db:"due_date"`
	Status      Status          `json:"status" db:"status"`
	Receipt     *string         `json:"receipt,omitempty" db:"receipt"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// LoanPatch holds the fields of a partial update. Nil fields are left
// untouched. A non-nil Receipt pointing at "" clears the receipt.
type LoanPatch struct {
	Name        *string
	Company     *string
	Amount      *decimal.Decimal
	PhoneNumber *string
	DueDate     *time.Time
	Status      *Status
	Receipt     *string
}

// IsEmpty reports whether the patch changes nothing.
func (p *LoanPatch) IsEmpty() bool {
	return p.Name == nil && p.Company == nil && p.Amount == nil && p.PhoneNumber == nil &&
		p.DueDate == nil && p.Status == nil && p.Receipt == nil
}

// Apply writes the set fields of the patch onto loan.
func (p *LoanPatch) Apply(loan *Loan) {
	if p.Name != nil {
		loan.Name = *p.Name
	}
	if p.Company != nil {
		loan.Company = *p.Company
	}
	if p.Amount != nil {
		loan.Amount = *p.Amount
	}
	if p.PhoneNumber != nil {
		loan.PhoneNumber = *p.PhoneNumber
	}
	if p.DueDate != nil {
		loan.DueDate = *p.DueDate
	}
	if p.Status != nil {
		loan.Status = *p.Status
	}
	if p.Receipt != nil {
		if *p.Receipt == "" {
			loan.Receipt = nil
		} else {
			receipt := *p.Receipt
			loan.Receipt = &receipt
		}
	}
}

// DTOs for requests and responses

type CreateLoanRequest struct {
	Name        string           `json:"name" validate:"required"`
	Company     string           `json:"company" validate:"required"`
	Amount      *decimal.Decimal `json:"amount" validate:"required,gte=0"`
	PhoneNumber string           `json:"phoneNumber" validate:"required"`
	DueDate     string           `json:"dueDate" validate:"required,datetime=2006-01-02"`
	Receipt     string           `json:"receipt" validate:"omitempty,url"`
}

// UpdateLoanRequest is a partial update; absent JSON fields stay nil.
// A blank receipt clears it, so its URL rule is checked by the service.
type UpdateLoanRequest struct {
	Name        *string          `json:"name"`
	Company     *string          `json:"company"`
	Amount      *decimal.Decimal `json:"amount" validate:"omitempty,gte=0"`
	PhoneNumber *string          `json:"phoneNumber"`
	DueDate     *string          `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
	Status      *Status          `json:"status" validate:"omitempty,oneof=Pending Paid"`
	Receipt     *string          `json:"receipt"`
}

// LoanItem is a loan together with its display status.
type LoanItem struct {
	*Loan
	DisplayStatus Status `json:"displayStatus"`
}

// StatusCounts tallies loans per display status.
type StatusCounts struct {
	Pending int `json:"pending"`
	Paid    int `json:"paid"`
	Overdue int `json:"overdue"`
}

// Total returns the number of loans counted.
func (c StatusCounts) Total() int {
	return c.Pending + c.Paid + c.Overdue
}

// ViewCriteria narrows a loan view. Zero dates mean "not set"; the date
// range applies only when both bounds are set.
type ViewCriteria struct {
	SearchTerm string
	StartDate  time.Time
	EndDate    time.Time
}

type LoanView struct {
	Loans  []*LoanItem  `json:"loans"`
	Counts StatusCounts `json:"counts"`
	Total  int          `json:"total"`
}

// Bulk delete outcomes
const (
	BulkOutcomeSuccess = "success"
	BulkOutcomePartial = "partial"
	BulkOutcomeFailed  = "failed"
)

type BulkDeleteResponse struct {
	Outcome   string            `json:"outcome"`
	Requested int               `json:"requested"`
	Deleted   []string          `json:"deleted"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// DailyReport summarizes the book for the scheduler jobs.
type DailyReport struct {
	Date    time.Time    `json:"date"`
	Counts  StatusCounts `json:"counts"`
	Overdue []*Loan      `json:"overdue"`
	DueSoon []*Loan      `json:"dueSoon"`
}
