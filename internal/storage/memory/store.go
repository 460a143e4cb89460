// Package memory is the process-lifetime entity store. Data is lost on restart.
package memory

import (
	"slices"
	"strings"
	"sync"
	"time"

	budgetDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/budget"
	categoryDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/category"
	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	ocrlogDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/ocrlog"
	userDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-tracker/internal/core/money"
	"github.com/frahmantamala/expense-tracker/internal/storage"
)

// Store keeps every collection in insertion order and hands out ids from a
// single counter shared by all of them. One lock covers the whole store, held
// for the full body of each operation.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	now    func() time.Time

	users      *table[userDatamodel.User]
	categories *table[categoryDatamodel.Category]
	expenses   *table[expenseDatamodel.Expense]
	budgets    *table[budgetDatamodel.MonthlyBudget]
	ocrLogs    *table[ocrlogDatamodel.OCRLog]
}

type Option func(*Store)

// WithClock overrides the timestamp source used for created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns a store with the default categories already seeded.
func NewStore(opts ...Option) *Store {
	s := &Store{
		nextID:     1,
		now:        time.Now,
		users:      newTable[userDatamodel.User](),
		categories: newTable[categoryDatamodel.Category](),
		expenses:   newTable[expenseDatamodel.Expense](),
		budgets:    newTable[budgetDatamodel.MonthlyBudget](),
		ocrLogs:    newTable[ocrlogDatamodel.OCRLog](),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, c := range categoryDatamodel.Defaults() {
		c.ID = s.allocateID()
		s.categories.put(c.ID, &c)
	}
	return s
}

// allocateID must be called with mu held (or during construction).
func (s *Store) allocateID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *Store) Ping() error {
	return nil
}

// ----------------- USERS -----------------

func (s *Store) GetUser(id int64) (*userDatamodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users.get(id)
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

// GetUserByEmail scans every user; there is no secondary index.
func (s *Store) GetUserByEmail(email string) (*userDatamodel.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users.all() {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (s *Store) CreateUser(in *userDatamodel.User) (*userDatamodel.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := copyUser(in)
	u.ID = s.allocateID()
	if u.Name != nil && *u.Name == "" {
		u.Name = nil
	}
	u.CreatedAt = s.now()
	s.users.put(u.ID, u)
	return copyUser(u), nil
}

// ----------------- CATEGORIES -----------------

func (s *Store) GetCategories() ([]*categoryDatamodel.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.categories.all()
	out := make([]*categoryDatamodel.Category, 0, len(rows))
	for _, c := range rows {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) GetCategoryByID(id int64) (*categoryDatamodel.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories.get(id)
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *Store) CreateCategory(in *categoryDatamodel.Category) (*categoryDatamodel.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *in
	c.ID = s.allocateID()
	s.categories.put(c.ID, &c)
	out := c
	return &out, nil
}

// ----------------- EXPENSES -----------------

func (s *Store) GetExpenseByID(id int64) (*expenseDatamodel.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.expenses.get(id)
	if !ok {
		return nil, nil
	}
	return copyExpense(e), nil
}

func (s *Store) GetExpensesByUserID(userID int64) ([]*expenseDatamodel.Expense, error) {
	return s.filterExpenses(func(e *expenseDatamodel.Expense) bool {
		return e.UserID == userID
	}), nil
}

// GetExpensesByUserIDAndMonth matches month ("YYYY-MM") as a prefix of the date.
func (s *Store) GetExpensesByUserIDAndMonth(userID int64, month string) ([]*expenseDatamodel.Expense, error) {
	return s.filterExpenses(func(e *expenseDatamodel.Expense) bool {
		return e.UserID == userID && strings.HasPrefix(e.Date, month)
	}), nil
}

func (s *Store) filterExpenses(keep func(*expenseDatamodel.Expense) bool) []*expenseDatamodel.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*expenseDatamodel.Expense{}
	for _, e := range s.expenses.all() {
		if keep(e) {
			out = append(out, copyExpense(e))
		}
	}
	return out
}

func (s *Store) CreateExpense(in *expenseDatamodel.Expense) (*expenseDatamodel.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := copyExpense(in)
	e.Normalize()
	e.ID = s.allocateID()
	e.CreatedAt = s.now()
	s.expenses.put(e.ID, e)
	return copyExpense(e), nil
}

func (s *Store) UpdateExpense(id int64, patch expenseDatamodel.Patch) (*expenseDatamodel.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.expenses.get(id)
	if !ok {
		return nil, nil
	}
	updated := copyExpense(current)
	patch.Apply(updated)
	s.expenses.put(id, updated)
	return copyExpense(updated), nil
}

func (s *Store) DeleteExpense(id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.expenses.remove(id), nil
}

// ----------------- BUDGETS -----------------

func (s *Store) GetBudgetsByUserID(userID int64) ([]*budgetDatamodel.MonthlyBudget, error) {
	return s.filterBudgets(func(b *budgetDatamodel.MonthlyBudget) bool {
		return b.UserID == userID
	}), nil
}

// GetBudgetsByUserIDAndMonth matches month exactly, unlike the expense variant.
func (s *Store) GetBudgetsByUserIDAndMonth(userID int64, month string) ([]*budgetDatamodel.MonthlyBudget, error) {
	return s.filterBudgets(func(b *budgetDatamodel.MonthlyBudget) bool {
		return b.UserID == userID && b.Month == month
	}), nil
}

func (s *Store) filterBudgets(keep func(*budgetDatamodel.MonthlyBudget) bool) []*budgetDatamodel.MonthlyBudget {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*budgetDatamodel.MonthlyBudget{}
	for _, b := range s.budgets.all() {
		if keep(b) {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out
}

func (s *Store) CreateBudget(in *budgetDatamodel.MonthlyBudget) (*budgetDatamodel.MonthlyBudget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := *in
	b.ID = s.allocateID()
	b.Budget = money.FromDecimal(b.Budget.Decimal)
	s.budgets.put(b.ID, &b)
	out := b
	return &out, nil
}

func (s *Store) UpdateBudget(id int64, patch budgetDatamodel.Patch) (*budgetDatamodel.MonthlyBudget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.budgets.get(id)
	if !ok {
		return nil, nil
	}
	updated := *current
	patch.Apply(&updated)
	s.budgets.put(id, &updated)
	out := updated
	return &out, nil
}

// ----------------- OCR LOGS -----------------

func (s *Store) CreateOCRLog(in *ocrlogDatamodel.OCRLog) (*ocrlogDatamodel.OCRLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := copyOCRLog(in)
	l.ID = s.allocateID()
	if l.RawJSON != nil && *l.RawJSON == "" {
		l.RawJSON = nil
	}
	l.CreatedAt = s.now()
	s.ocrLogs.put(l.ID, l)
	return copyOCRLog(l), nil
}

func (s *Store) GetOCRLogsByUserID(userID int64) ([]*ocrlogDatamodel.OCRLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*ocrlogDatamodel.OCRLog{}
	for _, l := range s.ocrLogs.all() {
		if l.UserID == userID {
			out = append(out, copyOCRLog(l))
		}
	}
	return out, nil
}

// ----------------- HELPERS -----------------

// table is an id-keyed collection that remembers insertion order.
type table[T any] struct {
	rows  map[int64]*T
	order []int64
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[int64]*T)}
}

func (t *table[T]) put(id int64, row *T) {
	if _, exists := t.rows[id]; !exists {
		t.order = append(t.order, id)
	}
	t.rows[id] = row
}

func (t *table[T]) get(id int64) (*T, bool) {
	row, ok := t.rows[id]
	return row, ok
}

func (t *table[T]) remove(id int64) bool {
	if _, exists := t.rows[id]; !exists {
		return false
	}
	delete(t.rows, id)
	t.order = slices.DeleteFunc(t.order, func(v int64) bool { return v == id })
	return true
}

func (t *table[T]) all() []*T {
	out := make([]*T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

func (t *table[T]) len() int {
	return len(t.rows)
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyUser(u *userDatamodel.User) *userDatamodel.User {
	cp := *u
	cp.Name = copyString(u.Name)
	return &cp
}

func copyExpense(e *expenseDatamodel.Expense) *expenseDatamodel.Expense {
	cp := *e
	cp.Notes = copyString(e.Notes)
	cp.ReceiptURL = copyString(e.ReceiptURL)
	return &cp
}

func copyOCRLog(l *ocrlogDatamodel.OCRLog) *ocrlogDatamodel.OCRLog {
	cp := *l
	cp.RawJSON = copyString(l.RawJSON)
	return &cp
}

// ExpenseCount reports how many expenses are stored.
func (s *Store) ExpenseCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expenses.len()
}

var _ storage.Repository = (*Store)(nil)
