// Package storage defines the repository contract shared by the in-memory
// store and the gorm-backed store.
//
// Lookups return (nil, nil) when the record does not exist. Updates on an
// unknown id return (nil, nil) as well, and DeleteExpense reports false.
package storage

import (
	budgetDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/budget"
	categoryDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/category"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	ocrlogDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/ocrlog"
	userDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/user"
)

type UserRepository interface {
	GetUser(id int64) (*userDatamodel.User, error)
	GetUserByEmail(email string) (*userDatamodel.User, error)
	CreateUser(u *userDatamodel.User) (*userDatamodel.User, error)
}

type CategoryRepository interface {
	GetCategories() ([]*categoryDatamodel.Category, error)
	GetCategoryByID(id int64) (*categoryDatamodel.Category, error)
	CreateCategory(c *categoryDatamodel.Category) (*categoryDatamodel.Category, error)
}

type ExpenseRepository interface {
	GetExpenseByID(id int64) (*expenseDatamodel.Expense, error)
	GetExpensesByUserID(userID int64) ([]*expenseDatamodel.Expense, error)
	GetExpensesByUserIDAndMonth(userID int64, month string) ([]*expenseDatamodel.Expense, error)
	CreateExpense(e *expenseDatamodel.Expense) (*expenseDatamodel.Expense, error)
	UpdateExpense(id int64, patch expenseDatamodel.Patch) (*expenseDatamodel.Expense, error)
	DeleteExpense(id int64) (bool, error)
}

type BudgetRepository interface {
	GetBudgetsByUserID(userID int64) ([]*budgetDatamodel.MonthlyBudget, error)
	GetBudgetsByUserIDAndMonth(userID int64, month string) ([]*budgetDatamodel.MonthlyBudget, error)
	CreateBudget(b *budgetDatamodel.MonthlyBudget) (*budgetDatamodel.MonthlyBudget, error)
	UpdateBudget(id int64, patch budgetDatamodel.Patch) (*budgetDatamodel.MonthlyBudget, error)
}

type OCRLogRepository interface {
	CreateOCRLog(l *ocrlogDatamodel.OCRLog) (*ocrlogDatamodel.OCRLog, error)
	GetOCRLogsByUserID(userID int64) ([]*ocrlogDatamodel.OCRLog, error)
}

// Repository is the full entity store.
type Repository interface {
	UserRepository
	CategoryRepository
	ExpenseRepository
	BudgetRepository
	OCRLogRepository

	Ping() error
}
