package budget

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/expense-tracker/internal/core/events"
	"github.com/frahmantamala/expense-tracker/internal/core/money"
	"github.com/frahmantamala/expense-tracker/internal/storage"
)

// Subscriber is the part of the event bus the alerter needs.
type Subscriber interface {
	Subscribe(eventType string, handler events.Handler)
}

// Alert describes a category whose monthly spend exceeds its budget.
type Alert struct {
	UserID     int64
	CategoryID int64
	Month      string
	Spent      money.Amount
	Budget     money.Amount
}

func (a Alert) Overspend() money.Amount {
	return a.Spent.Minus(a.Budget)
}

// Alerter watches expense events and warns when a category goes over budget.
type Alerter struct {
	expenses storage.ExpenseRepository
	budgets  storage.BudgetRepository
	logger   *slog.Logger
}

func NewAlerter(expenses storage.ExpenseRepository, budgets storage.BudgetRepository, logger *slog.Logger) *Alerter {
	return &Alerter{
		expenses: expenses,
		budgets:  budgets,
		logger:   logger,
	}
}

func (a *Alerter) Register(bus Subscriber) {
	bus.Subscribe(events.EventTypeExpenseCreated, a.HandleExpenseEvent)
	bus.Subscribe(events.EventTypeExpenseUpdated, a.HandleExpenseEvent)
}

func (a *Alerter) HandleExpenseEvent(ctx context.Context, event events.Event) error {
	recorded, ok := event.(*events.ExpenseRecordedEvent)
	if !ok {
		return fmt.Errorf("unexpected event payload %T for %s", event, event.EventType())
	}

	alert, err := a.Check(recorded.UserID, recorded.CategoryID, recorded.Month)
	if err != nil {
		return err
	}
	if alert != nil {
		a.logger.Warn("category over budget",
			"user_id", alert.UserID,
			"category_id", alert.CategoryID,
			"month", alert.Month,
			"spent", alert.Spent.String(),
			"budget", alert.Budget.String(),
			"overspend", alert.Overspend().String(),
			"event_id", event.EventID())
	}
	return nil
}

// Check returns an Alert when spend in the category exceeds its latest
// budget for the month, and nil when there is no budget or no overspend.
func (a *Alerter) Check(userID, categoryID int64, month string) (*Alert, error) {
	budgets, err := a.budgets.GetBudgetsByUserIDAndMonth(userID, month)
	if err != nil {
		return nil, fmt.Errorf("load budgets: %w", err)
	}
	latest := Latest(budgets, categoryID)
	if latest == nil {
		return nil, nil
	}

	expenses, err := a.expenses.GetExpensesByUserIDAndMonth(userID, month)
	if err != nil {
		return nil, fmt.Errorf("load expenses: %w", err)
	}
	spent := money.Zero()
	for _, e := range expenses {
		if e.CategoryID == categoryID {
			spent = spent.Plus(e.Amount)
		}
	}

	if spent.Cmp(latest.Budget.Decimal) <= 0 {
		return nil, nil
	}
	return &Alert{
		UserID:     userID,
		CategoryID: categoryID,
		Month:      month,
		Spent:      spent,
		Budget:     latest.Budget,
	}, nil
}
