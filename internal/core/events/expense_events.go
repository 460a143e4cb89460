package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeExpenseCreated = "expense.created"
	EventTypeExpenseUpdated = "expense.updated"
)

// ExpenseRecordedEvent is published after an expense is created or changed.
// Month is the "YYYY-MM" prefix of the expense date.
type ExpenseRecordedEvent struct {
	BaseEvent
	ExpenseID  int64  `json:"expense_id"`
	UserID     int64  `json:"user_id"`
	CategoryID int64  `json:"category_id"`
	Month      string `json:"month"`
	Amount     string `json:"amount"`
}

func NewExpenseRecordedEvent(eventType string, expenseID, userID, categoryID int64, date, amount string) *ExpenseRecordedEvent {
	month := date
	if len(month) > 7 {
		month = month[:7]
	}
	return &ExpenseRecordedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"expense_id":  expenseID,
				"user_id":     userID,
				"category_id": categoryID,
				"month":       month,
				"amount":      amount,
			},
		},
		ExpenseID:  expenseID,
		UserID:     userID,
		CategoryID: categoryID,
		Month:      month,
		Amount:     amount,
	}
}
