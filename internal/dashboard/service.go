package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/budget"
	budgetDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/budget"
	categoryDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/category"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/core/money"
	"github.com/frahmantamala/expense-tracker/internal/storage"
)

// Repository is the read side the aggregator needs.
type Repository interface {
	storage.CategoryRepository
	GetExpensesByUserIDAndMonth(userID int64, month string) ([]*expenseDatamodel.Expense, error)
	GetBudgetsByUserIDAndMonth(userID int64, month string) ([]*budgetDatamodel.MonthlyBudget, error)
}

type Option func(*Service)

// WithClock replaces the clock used to pick the default month.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CurrentMonth is the UTC "YYYY-MM" of the service clock.
func (s *Service) CurrentMonth() string {
	return s.now().UTC().Format("2006-01")
}

// Summarize builds the dashboard for userID and month. An empty month means
// the current one.
func (s *Service) Summarize(ctx context.Context, userID int64, month string) (*Summary, error) {
	if month == "" {
		month = s.CurrentMonth()
	}

	var (
		expenses   []*expenseDatamodel.Expense
		budgets    []*budgetDatamodel.MonthlyBudget
		categories []*categoryDatamodel.Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		var err error
		expenses, err = s.repo.GetExpensesByUserIDAndMonth(userID, month)
		if err != nil {
			return fmt.Errorf("load expenses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		var err error
		budgets, err = s.repo.GetBudgetsByUserIDAndMonth(userID, month)
		if err != nil {
			return fmt.Errorf("load budgets: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		var err error
		categories, err = s.repo.GetCategories()
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load dashboard data", "error", err, "user_id", userID, "month", month)
		return nil, internal.NewInternalError("Failed to fetch dashboard summary", err)
	}

	summary := Aggregate(month, expenses, budgets, categories)
	s.logger.Debug("dashboard summarized",
		"user_id", userID,
		"month", month,
		"expenses", len(expenses),
		"budgets", len(budgets),
		"total_spent", summary.TotalSpent.String())
	return summary, nil
}

// Aggregate folds one month of expenses and budgets into a Summary. Every
// category gets a breakdown entry, active or not.
func Aggregate(month string, expenses []*expenseDatamodel.Expense, budgets []*budgetDatamodel.MonthlyBudget, categories []*categoryDatamodel.Category) *Summary {
	totalSpent := money.Zero()
	for _, e := range expenses {
		totalSpent = totalSpent.Plus(e.Amount)
	}
	totalBudget := money.Zero()
	for _, b := range budgets {
		totalBudget = totalBudget.Plus(b.Budget)
	}

	byCategory := make(map[int64]*categoryDatamodel.Category, len(categories))
	breakdown := make([]CategoryBreakdown, 0, len(categories))
	for _, c := range categories {
		byCategory[c.ID] = c

		spent := money.Zero()
		count := 0
		for _, e := range expenses {
			if e.CategoryID == c.ID {
				spent = spent.Plus(e.Amount)
				count++
			}
		}
		limit := money.Zero()
		if b := budget.Latest(budgets, c.ID); b != nil {
			limit = b.Budget
		}

		breakdown = append(breakdown, CategoryBreakdown{
			Category:         *c,
			Spent:            spent.Figure(),
			Budget:           limit.Figure(),
			TransactionCount: count,
		})
	}

	return &Summary{
		TotalSpent:         totalSpent.Figure(),
		TotalBudget:        totalBudget.Figure(),
		RemainingBudget:    totalBudget.Minus(totalSpent).Figure(),
		Month:              month,
		CategoryBreakdown:  breakdown,
		RecentTransactions: recent(expenses, byCategory),
	}
}

func recent(expenses []*expenseDatamodel.Expense, byCategory map[int64]*categoryDatamodel.Category) []RecentTransaction {
	sorted := make([]*expenseDatamodel.Expense, len(expenses))
	copy(sorted, expenses)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})
	if len(sorted) > RecentLimit {
		sorted = sorted[:RecentLimit]
	}

	out := make([]RecentTransaction, 0, len(sorted))
	for _, e := range sorted {
		tx := RecentTransaction{
			Expense:      *e,
			CategoryName: unknownCategoryName,
			CategoryIcon: unknownCategoryIcon,
		}
		if c, ok := byCategory[e.CategoryID]; ok {
			tx.CategoryName = c.Name
			tx.CategoryIcon = c.Icon
		}
		out = append(out, tx)
	}
	return out
}
