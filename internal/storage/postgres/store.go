package postgres

import (
	"errors"

	"gorm.io/gorm"

	budgetDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/budget"
	categoryDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/category"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	ocrlogDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/ocrlog"
	userDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-tracker/internal/storage"
)

// Store implements storage.Repository on GORM. The same code runs against
// postgres in production and sqlite in tests.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates the tables from the datamodel structs. Postgres
// deployments use the goose migrations instead.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userDatamodel.User{},
		&categoryDatamodel.Category{},
		&expenseDatamodel.Expense{},
		&budgetDatamodel.MonthlyBudget{},
		&ocrlogDatamodel.OCRLog{},
	)
}

// SeedDefaultCategories inserts the default categories when the table is empty.
func (s *Store) SeedDefaultCategories() error {
	var count int64
	if err := s.db.Model(&categoryDatamodel.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaults := categoryDatamodel.Defaults()
	return s.db.Create(&defaults).Error
}

func (s *Store) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// first loads a single row, mapping "no rows" to (nil, nil).
func first[T any](db *gorm.DB, query string, args ...interface{}) (*T, error) {
	var row T
	err := db.Where(query, args...).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ----------------- USERS -----------------

func (s *Store) GetUser(id int64) (*userDatamodel.User, error) {
	return first[userDatamodel.User](s.db, "id = ?", id)
}

func (s *Store) GetUserByEmail(email string) (*userDatamodel.User, error) {
	return first[userDatamodel.User](s.db, "email = ?", email)
}

func (s *Store) CreateUser(u *userDatamodel.User) (*userDatamodel.User, error) {
	if u.Name != nil && *u.Name == "" {
		u.Name = nil
	}
	if err := s.db.Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// ----------------- CATEGORIES -----------------

func (s *Store) GetCategories() ([]*categoryDatamodel.Category, error) {
	categories := []*categoryDatamodel.Category{}
	err := s.db.Order("id ASC").Find(&categories).Error
	return categories, err
}

func (s *Store) GetCategoryByID(id int64) (*categoryDatamodel.Category, error) {
	return first[categoryDatamodel.Category](s.db, "id = ?", id)
}

func (s *Store) CreateCategory(c *categoryDatamodel.Category) (*categoryDatamodel.Category, error) {
	if err := s.db.Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// ----------------- EXPENSES -----------------

func (s *Store) GetExpenseByID(id int64) (*expenseDatamodel.Expense, error) {
	return first[expenseDatamodel.Expense](s.db, "id = ?", id)
}

func (s *Store) GetExpensesByUserID(userID int64) ([]*expenseDatamodel.Expense, error) {
	expenses := []*expenseDatamodel.Expense{}
	err := s.db.Where("user_id = ?", userID).Order("id ASC").Find(&expenses).Error
	return expenses, err
}

func (s *Store) GetExpensesByUserIDAndMonth(userID int64, month string) ([]*expenseDatamodel.Expense, error) {
	expenses := []*expenseDatamodel.Expense{}
	err := s.db.Where("user_id = ? AND date LIKE ?", userID, month+"%").
		Order("id ASC").
		Find(&expenses).Error
	return expenses, err
}

func (s *Store) CreateExpense(e *expenseDatamodel.Expense) (*expenseDatamodel.Expense, error) {
	e.Normalize()
	if err := s.db.Create(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) UpdateExpense(id int64, patch expenseDatamodel.Patch) (*expenseDatamodel.Expense, error) {
	e, err := s.GetExpenseByID(id)
	if err != nil || e == nil {
		return nil, err
	}
	patch.Apply(e)
	if err := s.db.Save(e).Error; err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) DeleteExpense(id int64) (bool, error) {
	result := s.db.Delete(&expenseDatamodel.Expense{}, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// ----------------- BUDGETS -----------------

func (s *Store) GetBudgetsByUserID(userID int64) ([]*budgetDatamodel.MonthlyBudget, error) {
	budgets := []*budgetDatamodel.MonthlyBudget{}
	err := s.db.Where("user_id = ?", userID).Order("id ASC").Find(&budgets).Error
	return budgets, err
}

func (s *Store) GetBudgetsByUserIDAndMonth(userID int64, month string) ([]*budgetDatamodel.MonthlyBudget, error) {
	budgets := []*budgetDatamodel.MonthlyBudget{}
	err := s.db.Where("user_id = ? AND month = ?", userID, month).Order("id ASC").Find(&budgets).Error
	return budgets, err
}

func (s *Store) CreateBudget(b *budgetDatamodel.MonthlyBudget) (*budgetDatamodel.MonthlyBudget, error) {
	if err := s.db.Create(b).Error; err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Store) UpdateBudget(id int64, patch budgetDatamodel.Patch) (*budgetDatamodel.MonthlyBudget, error) {
	b, err := first[budgetDatamodel.MonthlyBudget](s.db, "id = ?", id)
	if err != nil || b == nil {
		return nil, err
	}
	patch.Apply(b)
	if err := s.db.Save(b).Error; err != nil {
		return nil, err
	}
	return b, nil
}

// ----------------- OCR LOGS -----------------

func (s *Store) CreateOCRLog(l *ocrlogDatamodel.OCRLog) (*ocrlogDatamodel.OCRLog, error) {
	if l.RawJSON != nil && *l.RawJSON == "" {
		l.RawJSON = nil
	}
	if err := s.db.Create(l).Error; err != nil {
		return nil, err
	}
	return l, nil
}

func (s *Store) GetOCRLogsByUserID(userID int64) ([]*ocrlogDatamodel.OCRLog, error) {
	logs := []*ocrlogDatamodel.OCRLog{}
	err := s.db.Where("user_id = ?", userID).Order("id ASC").Find(&logs).Error
	return logs, err
}

var _ storage.Repository = (*Store)(nil)
