package expense_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/expense-tracker/internal"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/core/events"
	"github.com/frahmantamala/expense-tracker/internal/core/money"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"github.com/frahmantamala/expense-tracker/internal/storage/memory"
)

func TestExpense(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Expense Suite")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func amount(s string) *money.Amount {
	a := money.MustParse(s)
	return &a
}

func userID(id int64) *int64 { return &id }

func str(s string) *string { return &s }

var _ = Describe("ExpenseService", func() {
	var (
		ctx       context.Context
		store     *memory.Store
		publisher *recordingPublisher
		service   *expense.Service
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memory.NewStore()
		publisher = &recordingPublisher{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = expense.NewService(store, store, publisher, logger)
	})

	create := func(user int64, vendor, amt, date string, categoryID int64) *expenseDatamodel.Expense {
		created, err := service.CreateExpense(ctx, 0, expense.CreateExpenseDTO{
			UserID:     userID(user),
			Vendor:     vendor,
			Amount:     amount(amt),
			Date:       date,
			CategoryID: categoryID,
		})
		Expect(err).NotTo(HaveOccurred())
		return created
	}

	Describe("CreateExpense", func() {
		It("stores a two-digit amount and defaults the source", func() {
			created := create(42, "Cafe", "4.5", "2025-01-10", 1)
			Expect(created.Amount.String()).To(Equal("4.50"))
			Expect(created.Source).To(Equal(expenseDatamodel.SourceManual))
			Expect(created.UserID).To(Equal(int64(42)))
		})

		It("falls back to the authenticated user", func() {
			created, err := service.CreateExpense(ctx, 7, expense.CreateExpenseDTO{
				Vendor: "Cafe", Amount: amount("3"), Date: "2025-01-10", CategoryID: 1,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.UserID).To(Equal(int64(7)))
		})

		It("requires a user id from somewhere", func() {
			_, err := service.CreateExpense(ctx, 0, expense.CreateExpenseDTO{
				Vendor: "Cafe", Amount: amount("3"), Date: "2025-01-10", CategoryID: 1,
			})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
		})

		DescribeTable("rejects non-positive amounts",
			func(raw string) {
				_, err := service.CreateExpense(ctx, 0, expense.CreateExpenseDTO{
					UserID: userID(1), Vendor: "Cafe", Amount: amount(raw), Date: "2025-01-10", CategoryID: 1,
				})
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Message).To(Equal("Invalid expense data"))
				Expect(store.ExpenseCount()).To(Equal(0))
			},
			Entry("zero", "0"),
			Entry("rounds to zero", "0.001"),
			Entry("negative", "-5"),
		)

		It("rejects malformed dates and unknown sources", func() {
			_, err := service.CreateExpense(ctx, 0, expense.CreateExpenseDTO{
				UserID: userID(1), Vendor: "Cafe", Amount: amount("1"), Date: "10/01/2025", CategoryID: 1,
			})
			Expect(err).To(HaveOccurred())

			_, err = service.CreateExpense(ctx, 0, expense.CreateExpenseDTO{
				UserID: userID(1), Vendor: "Cafe", Amount: amount("1"), Date: "2025-01-10", CategoryID: 1, Source: str("fax"),
			})
			Expect(err).To(HaveOccurred())
		})

		It("publishes an expense.created event", func() {
			created := create(42, "Cafe", "12.5", "2025-01-10", 1)
			Expect(publisher.events).To(HaveLen(1))
			event := publisher.events[0].(*events.ExpenseRecordedEvent)
			Expect(event.EventType()).To(Equal(events.EventTypeExpenseCreated))
			Expect(event.ExpenseID).To(Equal(created.ID))
			Expect(event.Month).To(Equal("2025-01"))
			Expect(event.Amount).To(Equal("12.50"))
		})
	})

	Describe("ListExpenses", func() {
		It("filters by month prefix", func() {
			create(42, "Jan", "1", "2025-01-31", 1)
			create(42, "Feb", "1", "2025-02-01", 1)
			create(43, "Other user", "1", "2025-01-15", 1)

			all, err := service.ListExpenses(ctx, 42, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(2))

			jan, err := service.ListExpenses(ctx, 42, "2025-01")
			Expect(err).NotTo(HaveOccurred())
			Expect(jan).To(HaveLen(1))
			Expect(jan[0].Vendor).To(Equal("Jan"))
		})
	})

	Describe("UpdateExpense", func() {
		It("leaves unspecified fields untouched", func() {
			created, err := service.CreateExpense(ctx, 0, expense.CreateExpenseDTO{
				UserID: userID(42), Vendor: "Cafe", Amount: amount("4"), Date: "2025-01-10", CategoryID: 1,
				ReceiptURL: str("https://example.com/r.png"),
			})
			Expect(err).NotTo(HaveOccurred())

			var dto expense.UpdateExpenseDTO
			Expect(json.Unmarshal([]byte(`{"notes":"team lunch"}`), &dto)).To(Succeed())
			updated, err := service.UpdateExpense(ctx, 0, created.ID, dto)
			Expect(err).NotTo(HaveOccurred())
			Expect(*updated.Notes).To(Equal("team lunch"))
			Expect(*updated.ReceiptURL).To(Equal("https://example.com/r.png"))
			Expect(updated.Vendor).To(Equal("Cafe"))
			Expect(updated.Amount.String()).To(Equal("4.00"))
		})

		It("returns not found for an unknown id", func() {
			_, err := service.UpdateExpense(ctx, 0, 999, expense.UpdateExpenseDTO{Vendor: str("x")})
			Expect(err).To(MatchError(expense.ErrExpenseNotFound))
		})

		It("forbids authenticated users from editing other users' expenses", func() {
			created := create(42, "Cafe", "4", "2025-01-10", 1)
			_, err := service.UpdateExpense(ctx, 43, created.ID, expense.UpdateExpenseDTO{Vendor: str("x")})
			Expect(err).To(MatchError(expense.ErrUnauthorizedAccess))
		})

		It("rejects an empty vendor", func() {
			created := create(42, "Cafe", "4", "2025-01-10", 1)
			_, err := service.UpdateExpense(ctx, 0, created.ID, expense.UpdateExpenseDTO{Vendor: str("")})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Message).To(Equal("Failed to update expense"))
		})
	})

	Describe("DeleteExpense", func() {
		It("does not change the store when the id is unknown", func() {
			create(42, "Cafe", "4", "2025-01-10", 1)
			Expect(service.DeleteExpense(ctx, 0, 999)).To(MatchError(expense.ErrExpenseNotFound))
			Expect(store.ExpenseCount()).To(Equal(1))
		})

		It("removes the expense", func() {
			created := create(42, "Cafe", "4", "2025-01-10", 1)
			Expect(service.DeleteExpense(ctx, 42, created.ID)).To(Succeed())
			Expect(store.ExpenseCount()).To(Equal(0))
		})
	})

	Describe("ExportExpenses", func() {
		BeforeEach(func() {
			create(42, "Whole Foods", "67.23", "2025-01-12", 1)
			create(42, "Shell", "32.5", "2025-01-03", 2)
			create(42, "Mystery", "1", "2025-01-20", 99)
			create(42, "February", "10", "2025-02-01", 1)
		})

		It("writes a dated CSV with a total row", func() {
			report, err := service.ExportExpenses(ctx, 42, "2025-01", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(report.ContentType).To(HavePrefix("text/csv"))
			Expect(report.Filename).To(Equal("expenses-42-2025-01.csv"))

			records, err := csv.NewReader(bytes.NewReader(report.Body)).ReadAll()
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(Equal([][]string{
				{"Date", "Vendor", "Category", "Amount", "Notes"},
				{"2025-01-03", "Shell", "Transportation", "32.50", ""},
				{"2025-01-12", "Whole Foods", "Food & Dining", "67.23", ""},
				{"2025-01-20", "Mystery", "Unknown", "1.00", ""},
				{"Total", "", "", "100.73", ""},
			}))
		})

		It("renders plain text", func() {
			report, err := service.ExportExpenses(ctx, 42, "", expense.FormatText)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Rows).To(Equal(4))
			Expect(report.Total.String()).To(Equal("110.73"))
			lines := strings.Split(strings.TrimSpace(string(report.Body)), "\n")
			Expect(lines).To(HaveLen(6))
			Expect(lines[len(lines)-1]).To(HavePrefix("Total"))
		})

		It("rejects unknown formats", func() {
			_, err := service.ExportExpenses(ctx, 42, "", "pdf")
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("Expense Handler", func() {
	var (
		store   *memory.Store
		handler *expense.Handler
	)

	BeforeEach(func() {
		store = memory.NewStore()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		handler = expense.NewHandler(expense.NewService(store, store, nil, logger), logger)
	})

	withID := func(req *http.Request, id string) *http.Request {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	It("creates an expense with a string amount", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/expenses",
			strings.NewReader(`{"user_id":1,"vendor":"Cafe","amount":"12.5","date":"2025-01-10","category_id":1}`))
		w := httptest.NewRecorder()
		handler.CreateExpense(w, req)

		Expect(w.Code).To(Equal(http.StatusCreated))
		var body map[string]interface{}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body["amount"]).To(Equal("12.50"))
		Expect(body["notes"]).To(BeNil())
	})

	It("answers 400 with the generic message for a malformed amount", func() {
		req := httptest.NewRequest(http.MethodPost, "/api/expenses",
			strings.NewReader(`{"user_id":1,"vendor":"Cafe","amount":"twelve","date":"2025-01-10","category_id":1}`))
		w := httptest.NewRecorder()
		handler.CreateExpense(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("Invalid expense data"))
	})

	It("requires a userId on list", func() {
		w := httptest.NewRecorder()
		handler.ListExpenses(w, httptest.NewRequest(http.MethodGet, "/api/expenses", nil))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("User ID required"))
	})

	It("lists an empty array for a user with no expenses", func() {
		w := httptest.NewRecorder()
		handler.ListExpenses(w, httptest.NewRequest(http.MethodGet, "/api/expenses?userId=5&month=2025-01", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(strings.TrimSpace(w.Body.String())).To(Equal("[]"))
	})

	It("deletes and then reports 404", func() {
		created, err := store.CreateExpense(&expenseDatamodel.Expense{UserID: 1, Vendor: "Cafe", Amount: money.MustParse("1"), Date: "2025-01-10", CategoryID: 1})
		Expect(err).NotTo(HaveOccurred())
		id := strconv.FormatInt(created.ID, 10)

		w := httptest.NewRecorder()
		handler.DeleteExpense(w, withID(httptest.NewRequest(http.MethodDelete, "/api/expenses/"+id, nil), id))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"success":true`))

		w = httptest.NewRecorder()
		handler.DeleteExpense(w, withID(httptest.NewRequest(http.MethodDelete, "/api/expenses/"+id, nil), id))
		Expect(w.Code).To(Equal(http.StatusNotFound))
	})

	It("patches notes without touching the receipt url", func() {
		created, err := store.CreateExpense(&expenseDatamodel.Expense{
			UserID: 1, Vendor: "Cafe", Amount: money.MustParse("1"), Date: "2025-01-10", CategoryID: 1,
			ReceiptURL: str("r.png"),
		})
		Expect(err).NotTo(HaveOccurred())
		id := strconv.FormatInt(created.ID, 10)

		w := httptest.NewRecorder()
		req := withID(httptest.NewRequest(http.MethodPatch, "/api/expenses/"+id, strings.NewReader(`{"notes":"n"}`)), id)
		handler.UpdateExpense(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		var body map[string]interface{}
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body["receipt_url"]).To(Equal("r.png"))
		Expect(body["notes"]).To(Equal("n"))
	})

	It("serves the export as an attachment", func() {
		_, err := store.CreateExpense(&expenseDatamodel.Expense{UserID: 1, Vendor: "Cafe", Amount: money.MustParse("2"), Date: "2025-01-10", CategoryID: 1})
		Expect(err).NotTo(HaveOccurred())

		w := httptest.NewRecorder()
		handler.ExportExpenses(w, httptest.NewRequest(http.MethodGet, "/api/expenses/export?userId=1", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Disposition")).To(ContainSubstring("expenses-1-all.csv"))
		Expect(w.Body.String()).To(ContainSubstring("Total,,,2.00,"))
	})
})
