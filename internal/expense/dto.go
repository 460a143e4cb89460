package expense

import (
	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/core/common/validation"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/core/money"
)

const (
	msgInvalidExpense = "Invalid expense data"
	msgUpdateFailed   = "Failed to update expense"
)

var (
	ErrExpenseNotFound    = internal.ErrExpenseNotFound
	ErrUnauthorizedAccess = internal.ErrUnauthorizedAccess
)

var sources = []string{expenseDatamodel.SourceManual, expenseDatamodel.SourceCamera, expenseDatamodel.SourceEmail}

// CreateExpenseDTO represents the request payload for creating an expense.
// UserID may be omitted when the request is authenticated.
type CreateExpenseDTO struct {
	UserID     *int64        `json:"user_id"`
	Vendor     string        `json:"vendor"`
	Amount     *money.Amount `json:"amount"`
	Date       string        `json:"date"`
	CategoryID int64         `json:"category_id"`
	Notes      *string       `json:"notes"`
	ReceiptURL *string       `json:"receipt_url"`
	Source     *string       `json:"source"`
}

func (dto CreateExpenseDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("user_id", dto.UserID).PositiveID()
	v.Field("vendor", dto.Vendor).Required().MaxLength(200)
	v.Field("amount", dto.Amount).Required().PositiveAmount()
	v.Field("date", dto.Date).Required().Date()
	v.Field("category_id", dto.CategoryID).Required().PositiveID()
	v.Field("source", dto.Source).OneOf(sources...)
	if err := v.Validate(msgInvalidExpense); err != nil {
		return err
	}
	return nil
}

func (dto CreateExpenseDTO) toDataModel(userID int64) *expenseDatamodel.Expense {
	e := &expenseDatamodel.Expense{
		UserID:     userID,
		Vendor:     dto.Vendor,
		Date:       dto.Date,
		CategoryID: dto.CategoryID,
		Notes:      dto.Notes,
		ReceiptURL: dto.ReceiptURL,
	}
	if dto.Amount != nil {
		e.Amount = *dto.Amount
	}
	if dto.Source != nil {
		e.Source = *dto.Source
	}
	return e
}

// UpdateExpenseDTO carries a partial update. Absent keys keep the stored
// value; notes and receipt_url can be cleared with an explicit null.
type UpdateExpenseDTO struct {
	Vendor     *string                     `json:"vendor"`
	Amount     *money.Amount               `json:"amount"`
	Date       *string                     `json:"date"`
	CategoryID *int64                      `json:"category_id"`
	Notes      expenseDatamodel.NullString `json:"notes"`
	ReceiptURL expenseDatamodel.NullString `json:"receipt_url"`
	Source     *string                     `json:"source"`
}

func (dto UpdateExpenseDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("vendor", dto.Vendor).Custom(func(value interface{}) *internal.ValidationError {
		if s, ok := value.(*string); ok && s != nil && *s == "" {
			return &internal.ValidationError{Field: "vendor", Message: "vendor must not be empty", Code: string(internal.ErrCodeValidationFailed)}
		}
		return nil
	}).MaxLength(200)
	v.Field("amount", dto.Amount).PositiveAmount()
	v.Field("date", dto.Date).Date()
	v.Field("category_id", dto.CategoryID).PositiveID()
	v.Field("source", dto.Source).OneOf(sources...)
	if err := v.Validate(msgUpdateFailed); err != nil {
		return err
	}
	return nil
}

func (dto UpdateExpenseDTO) Patch() expenseDatamodel.Patch {
	return expenseDatamodel.Patch{
		Vendor:     dto.Vendor,
		Amount:     dto.Amount,
		Date:       dto.Date,
		CategoryID: dto.CategoryID,
		Notes:      dto.Notes,
		ReceiptURL: dto.ReceiptURL,
		Source:     dto.Source,
	}
}
