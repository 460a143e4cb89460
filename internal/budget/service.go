package budget

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/expense-tracker/internal"
	budgetDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/budget"
	"github.com/frahmantamala/expense-tracker/internal/storage"
)

type Service struct {
	repo   storage.BudgetRepository
	logger *slog.Logger
}

func NewService(repo storage.BudgetRepository, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// ListBudgets returns the user's budgets, restricted to month when set.
func (s *Service) ListBudgets(ctx context.Context, userID int64, month string) ([]*budgetDatamodel.MonthlyBudget, error) {
	var (
		budgets []*budgetDatamodel.MonthlyBudget
		err     error
	)
	if month == "" {
		budgets, err = s.repo.GetBudgetsByUserID(userID)
	} else {
		budgets, err = s.repo.GetBudgetsByUserIDAndMonth(userID, month)
	}
	if err != nil {
		s.logger.Error("failed to list budgets", "error", err, "user_id", userID, "month", month)
		return nil, internal.NewInternalError("Failed to fetch budgets", err)
	}
	return budgets, nil
}

// CreateBudget stores a new budget row. Duplicate (user, category, month)
// rows are accepted; readers pick the most recent one.
func (s *Service) CreateBudget(ctx context.Context, actorID int64, dto CreateBudgetDTO) (*budgetDatamodel.MonthlyBudget, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("budget validation failed", "error", err, "actor_id", actorID)
		return nil, err
	}

	userID := actorID
	if dto.UserID != nil {
		userID = *dto.UserID
	}
	if userID <= 0 {
		return nil, internal.NewValidationFieldError("user_id", msgInvalidBudget, internal.ErrCodeUserIDRequired)
	}

	created, err := s.repo.CreateBudget(dto.toDataModel(userID))
	if err != nil {
		s.logger.Error("failed to create budget", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("Failed to create budget", err)
	}

	s.logger.Info("budget created",
		"budget_id", created.ID,
		"user_id", created.UserID,
		"category_id", created.CategoryID,
		"month", created.Month,
		"budget", created.Budget.String())
	return created, nil
}

// Latest picks the budget with the highest id for categoryID, or nil.
func Latest(budgets []*budgetDatamodel.MonthlyBudget, categoryID int64) *budgetDatamodel.MonthlyBudget {
	var latest *budgetDatamodel.MonthlyBudget
	for _, b := range budgets {
		if b.CategoryID != categoryID {
			continue
		}
		if latest == nil || b.ID > latest.ID {
			latest = b
		}
	}
	return latest
}
