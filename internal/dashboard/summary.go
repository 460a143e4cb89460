package dashboard

import (
	categoryDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/category"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/core/money"
)

const (
	RecentLimit = 5

	unknownCategoryName = "Unknown"
	unknownCategoryIcon = "fas fa-question"
)

// Summary is the dashboard view for one user and month.
type Summary struct {
	TotalSpent         money.Figure        `json:"totalSpent"`
	TotalBudget        money.Figure        `json:"totalBudget"`
	RemainingBudget    money.Figure        `json:"remainingBudget"`
	Month              string              `json:"month"`
	CategoryBreakdown  []CategoryBreakdown `json:"categoryBreakdown"`
	RecentTransactions []RecentTransaction `json:"recentTransactions"`
}

// CategoryBreakdown is a category with its activity for the month.
type CategoryBreakdown struct {
	categoryDatamodel.Category
	Spent            money.Figure `json:"spent"`
	Budget           money.Figure `json:"budget"`
	TransactionCount int          `json:"transactionCount"`
}

// RecentTransaction is an expense with its category's display fields.
type RecentTransaction struct {
	expenseDatamodel.Expense
	CategoryName string `json:"category_name"`
	CategoryIcon string `json:"category_icon"`
}
