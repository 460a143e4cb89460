package budget

import "github.com/frahmantamala/expense-tracker/internal/core/money"

// MonthlyBudget caps spending for one user, category and month ("2025-01").
// Nothing prevents two rows for the same triple.
type MonthlyBudget struct {
	ID         int64        `json:"id" gorm:"primaryKey"`
	UserID     int64        `json:"user_id" gorm:"column:user_id;not null;index"`
	CategoryID int64        `json:"category_id" gorm:"column:category_id;not null"`
	Month      string       `json:"month" gorm:"column:month;type:varchar(7);not null"`
	Budget     money.Amount `json:"budget" gorm:"column:budget;type:numeric(10,2);not null"`
}

func (MonthlyBudget) TableName() string {
	return "monthly_budgets"
}

// Patch lists the mutable fields of a budget; nil means "keep".
type Patch struct {
	CategoryID *int64
	Month      *string
	Budget     *money.Amount
}

func (p Patch) Apply(b *MonthlyBudget) {
	if p.CategoryID != nil {
		b.CategoryID = *p.CategoryID
	}
	if p.Month != nil {
		b.Month = *p.Month
	}
	if p.Budget != nil {
		b.Budget = money.FromDecimal(p.Budget.Decimal)
	}
}
