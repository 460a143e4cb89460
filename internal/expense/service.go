package expense

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/expense-tracker/internal"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/core/events"
	"github.com/frahmantamala/expense-tracker/internal/storage"
)

// Service handles expense business logic
type Service struct {
	repo       storage.ExpenseRepository
	categories storage.CategoryRepository
	publisher  events.Publisher
	logger     *slog.Logger
}

// NewService creates a new expense service. publisher may be nil.
func NewService(repo storage.ExpenseRepository, categories storage.CategoryRepository, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		categories: categories,
		publisher:  publisher,
		logger:     logger,
	}
}

// ListExpenses returns the user's expenses, restricted to month ("YYYY-MM") when set.
func (s *Service) ListExpenses(ctx context.Context, userID int64, month string) ([]*expenseDatamodel.Expense, error) {
	var (
		expenses []*expenseDatamodel.Expense
		err      error
	)
	if month == "" {
		expenses, err = s.repo.GetExpensesByUserID(userID)
	} else {
		expenses, err = s.repo.GetExpensesByUserIDAndMonth(userID, month)
	}
	if err != nil {
		s.logger.Error("failed to list expenses", "error", err, "user_id", userID, "month", month)
		return nil, internal.NewInternalError("Failed to fetch expenses", err)
	}
	return expenses, nil
}

// CreateExpense stores a new expense. actorID is the authenticated user, or
// 0 for anonymous requests; it is used when the payload carries no user_id.
func (s *Service) CreateExpense(ctx context.Context, actorID int64, dto CreateExpenseDTO) (*expenseDatamodel.Expense, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("expense validation failed", "error", err, "actor_id", actorID)
		return nil, err
	}

	userID := actorID
	if dto.UserID != nil {
		userID = *dto.UserID
	}
	if userID <= 0 {
		return nil, internal.NewValidationFieldError("user_id", msgInvalidExpense, internal.ErrCodeUserIDRequired)
	}

	created, err := s.repo.CreateExpense(dto.toDataModel(userID))
	if err != nil {
		s.logger.Error("failed to create expense", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("Failed to create expense", err)
	}

	s.logger.Info("expense created",
		"expense_id", created.ID,
		"user_id", created.UserID,
		"category_id", created.CategoryID,
		"amount", created.Amount.String())

	s.publish(ctx, events.EventTypeExpenseCreated, created)
	return created, nil
}

// UpdateExpense applies a partial update. Authenticated callers may only
// touch their own expenses.
func (s *Service) UpdateExpense(ctx context.Context, actorID, expenseID int64, dto UpdateExpenseDTO) (*expenseDatamodel.Expense, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Warn("expense update validation failed", "error", err, "expense_id", expenseID)
		return nil, err
	}
	if err := s.checkOwner(actorID, expenseID); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateExpense(expenseID, dto.Patch())
	if err != nil {
		s.logger.Error("failed to update expense", "error", err, "expense_id", expenseID)
		return nil, internal.NewInternalError(msgUpdateFailed, err)
	}
	if updated == nil {
		return nil, ErrExpenseNotFound
	}

	s.logger.Info("expense updated", "expense_id", updated.ID, "user_id", updated.UserID)

	s.publish(ctx, events.EventTypeExpenseUpdated, updated)
	return updated, nil
}

func (s *Service) DeleteExpense(ctx context.Context, actorID, expenseID int64) error {
	if err := s.checkOwner(actorID, expenseID); err != nil {
		return err
	}

	deleted, err := s.repo.DeleteExpense(expenseID)
	if err != nil {
		s.logger.Error("failed to delete expense", "error", err, "expense_id", expenseID)
		return internal.NewInternalError("Failed to delete expense", err)
	}
	if !deleted {
		return ErrExpenseNotFound
	}

	s.logger.Info("expense deleted", "expense_id", expenseID, "actor_id", actorID)
	return nil
}

func (s *Service) checkOwner(actorID, expenseID int64) error {
	if actorID <= 0 {
		return nil
	}

	existing, err := s.repo.GetExpenseByID(expenseID)
	if err != nil {
		s.logger.Error("failed to get expense", "error", err, "expense_id", expenseID)
		return internal.NewInternalError("Failed to fetch expense", err)
	}
	if existing == nil {
		return ErrExpenseNotFound
	}
	if existing.UserID != actorID {
		s.logger.Warn("unauthorized access to expense",
			"expense_id", expenseID,
			"user_id", actorID,
			"expense_user_id", existing.UserID)
		return ErrUnauthorizedAccess
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, e *expenseDatamodel.Expense) {
	if s.publisher == nil {
		return
	}
	event := events.NewExpenseRecordedEvent(eventType, e.ID, e.UserID, e.CategoryID, e.Date, e.Amount.String())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish expense event", "error", err, "event_type", eventType, "expense_id", e.ID)
	}
}
