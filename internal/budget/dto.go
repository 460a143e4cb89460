package budget

import (
	"github.com/frahmantamala/expense-tracker/internal/core/common/validation"
	budgetDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/budget"
	"github.com/frahmantamala/expense-tracker/internal/core/money"
)

const msgInvalidBudget = "Invalid budget data"

// CreateBudgetDTO represents the request payload for creating a monthly budget.
type CreateBudgetDTO struct {
	UserID     *int64        `json:"user_id"`
	CategoryID int64         `json:"category_id"`
	Month      string        `json:"month"`
	Budget     *money.Amount `json:"budget"`
}

func (dto CreateBudgetDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("user_id", dto.UserID).PositiveID()
	v.Field("category_id", dto.CategoryID).Required().PositiveID()
	v.Field("month", dto.Month).Required().Month()
	v.Field("budget", dto.Budget).Required().PositiveAmount()
	if err := v.Validate(msgInvalidBudget); err != nil {
		return err
	}
	return nil
}

func (dto CreateBudgetDTO) toDataModel(userID int64) *budgetDatamodel.MonthlyBudget {
	b := &budgetDatamodel.MonthlyBudget{
		UserID:     userID,
		CategoryID: dto.CategoryID,
		Month:      dto.Month,
	}
	if dto.Budget != nil {
		b.Budget = *dto.Budget
	}
	return b
}
