package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/expense-tracker/internal"
	"github.com/frahmantamala/expense-tracker/internal/auth"
	"github.com/frahmantamala/expense-tracker/internal/budget"
	"github.com/frahmantamala/expense-tracker/internal/core/events"
	"github.com/frahmantamala/expense-tracker/internal/core/money"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
)

const (
	demoEmail    = "demo@expense-tracker.local"
	demoPassword = "password"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with a demo account, this month's budgets and a few expenses.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Storage.Driver == internal.StorageMemory {
			return errors.New("seeding the memory store is pointless; use `server --demo` instead")
		}

		lg := logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
		store, closeStore, err := openStorage(cfg.Storage, lg)
		if err != nil {
			return err
		}
		defer closeStore()

		bus := events.NewEventBus(lg)
		defer bus.Wait()

		return seedDemo(cmd.Context(), newServices(cfg, store, bus, lg), lg)
	},
}

type demoExpense struct {
	day        string
	vendor     string
	amount     string
	categoryID int64
	source     string
}

// seedDemo creates the demo account with budgets and expenses for the current
// month. It is a no-op when the account already exists.
func seedDemo(ctx context.Context, svc *Services, lg *slog.Logger) error {
	name := "Demo User"
	session, err := svc.Auth.Signup(ctx, auth.SignupDTO{Email: demoEmail, Password: demoPassword, Name: &name})
	if errors.Is(err, internal.ErrUserExists) {
		lg.Info("demo user already exists; skipping seed", "email", demoEmail)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create demo user: %w", err)
	}
	userID := session.User.ID
	month := svc.Dashboard.CurrentMonth()

	budgets := map[int64]string{1: "400.00", 2: "150.00", 3: "200.00", 6: "120.00"}
	for categoryID, amount := range budgets {
		value := money.MustParse(amount)
		if _, err := svc.Budget.CreateBudget(ctx, userID, budget.CreateBudgetDTO{
			CategoryID: categoryID,
			Month:      month,
			Budget:     &value,
		}); err != nil {
			return fmt.Errorf("failed to seed budget: %w", err)
		}
	}

	expenses := []demoExpense{
		{"02", "Whole Foods Market", "84.12", 1, "manual"},
		{"03", "Shell", "45.00", 2, "manual"},
		{"05", "Starbucks", "6.75", 1, "camera"},
		{"08", "Netflix", "15.49", 4, "email"},
		{"10", "Amazon", "129.99", 3, "manual"},
		{"11", "Electric Company", "98.40", 6, "email"},
	}
	for _, e := range expenses {
		amount := money.MustParse(e.amount)
		source := e.source
		if _, err := svc.Expense.CreateExpense(ctx, userID, expense.CreateExpenseDTO{
			Vendor:     e.vendor,
			Amount:     &amount,
			Date:       month + "-" + e.day,
			CategoryID: e.categoryID,
			Source:     &source,
		}); err != nil {
			return fmt.Errorf("failed to seed expense %s: %w", e.vendor, err)
		}
	}

	lg.Info("seeded demo data", "email", demoEmail, "user_id", userID, "month", month)
	return nil
}
