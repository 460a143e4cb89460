package expense

import (
	"encoding/json"
	"time"

	"github.com/frahmantamala/expense-tracker/internal/core/money"
)

const (
	SourceManual = "manual"
	SourceCamera = "camera"
	SourceEmail  = "email"
)

// Expense is a single spend. Date is kept as "YYYY-MM-DD" text so month
// filtering is a plain prefix match on "YYYY-MM".
type Expense struct {
	ID         int64        `json:"id" gorm:"primaryKey"`
	UserID     int64        `json:"user_id" gorm:"column:user_id;not null;index"`
	Vendor     string       `json:"vendor" gorm:"column:vendor;not null"`
	Amount     money.Amount `json:"amount" gorm:"column:amount;type:numeric(10,2);not null"`
	Date       string       `json:"date" gorm:"column:date;type:varchar(10);not null"`
	CategoryID int64        `json:"category_id" gorm:"column:category_id;not null"`
	Notes      *string      `json:"notes" gorm:"column:notes"`
	ReceiptURL *string      `json:"receipt_url" gorm:"column:receipt_url"`
	Source     string       `json:"source" gorm:"column:source;not null;default:manual"`
	CreatedAt  time.Time    `json:"created_at" gorm:"column:created_at"`
}

func (Expense) TableName() string {
	return "expenses"
}

// Normalize applies the defaults every store uses on insert.
func (e *Expense) Normalize() {
	e.Amount = money.FromDecimal(e.Amount.Decimal)
	e.Notes = emptyToNil(e.Notes)
	e.ReceiptURL = emptyToNil(e.ReceiptURL)
	if e.Source == "" {
		e.Source = SourceManual
	}
}

// NullString tells an absent JSON key apart from an explicit null.
type NullString struct {
	Set   bool
	Value *string
}

func (n *NullString) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// Patch lists the mutable fields of an expense. Nil pointers and unset
// NullStrings leave the stored value untouched.
type Patch struct {
	Vendor     *string
	Amount     *money.Amount
	Date       *string
	CategoryID *int64
	Notes      NullString
	ReceiptURL NullString
	Source     *string
}

func (p Patch) Apply(e *Expense) {
	if p.Vendor != nil {
		e.Vendor = *p.Vendor
	}
	if p.Amount != nil {
		e.Amount = money.FromDecimal(p.Amount.Decimal)
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.CategoryID != nil {
		e.CategoryID = *p.CategoryID
	}
	if p.Notes.Set {
		e.Notes = emptyToNil(p.Notes.Value)
	}
	if p.ReceiptURL.Set {
		e.ReceiptURL = emptyToNil(p.ReceiptURL.Value)
	}
	if p.Source != nil && *p.Source != "" {
		e.Source = *p.Source
	}
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	v := *s
	return &v
}
