package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"budgethelper/internal/core"
	"budgethelper/internal/currency"
)

type memTransactions struct {
	mu   sync.Mutex
	rows map[core.TransactionType]map[string]core.Transaction
	err  error
}

func newMemTransactions() *memTransactions {
	return &memTransactions{rows: map[core.TransactionType]map[string]core.Transaction{
		core.Income:  {},
		core.Expense: {},
	}}
}

func (m *memTransactions) Insert(ctx context.Context, tx core.Transaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	m.rows[tx.Type][tx.ID] = tx
	return tx.ID, nil
}

func (m *memTransactions) FindByID(ctx context.Context, txType core.TransactionType, id string) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return core.Transaction{}, m.err
	}
	tx, ok := m.rows[txType][id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

func (m *memTransactions) FindAll(ctx context.Context, txType core.TransactionType, userID int64) ([]core.Transaction, error) {
	return m.FindInRange(ctx, txType, userID, time.Time{}, time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))
}

func (m *memTransactions) FindInRange(ctx context.Context, txType core.TransactionType, userID int64, start, end time.Time) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	r := core.DateRange{Start: start, End: end}
	var out []core.Transaction
	for _, tx := range m.rows[txType] {
		if tx.UserID == userID && r.Contains(tx.AddDate) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AddDate.Before(out[j].AddDate) })
	return out, nil
}

func (m *memTransactions) Update(ctx context.Context, tx core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.rows[tx.Type][tx.ID]
	if !ok || old.UserID != tx.UserID {
		return core.ErrNotFound
	}
	m.rows[tx.Type][tx.ID] = tx
	return nil
}

func (m *memTransactions) Delete(ctx context.Context, txType core.TransactionType, userID int64, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.rows[txType][id]
	if !ok || old.UserID != userID {
		return core.ErrNotFound
	}
	delete(m.rows[txType], id)
	return nil
}

func (m *memTransactions) SumByCurrency(ctx context.Context, txType core.TransactionType, userID int64, start, end time.Time) (map[core.Currency]decimal.Decimal, error) {
	txs, err := m.FindInRange(ctx, txType, userID, start, end)
	if err != nil {
		return nil, err
	}
	sums := make(map[core.Currency]decimal.Decimal)
	for _, tx := range txs {
		sums[tx.Currency] = sums[tx.Currency].Add(tx.Amount)
	}
	return sums, nil
}

func (m *memTransactions) add(tx core.Transaction) core.Transaction {
	tx.ID, _ = m.Insert(context.Background(), tx)
	return tx
}

type memCategories struct {
	mu   sync.Mutex
	cats map[string]core.Category
	used map[string]int
	err  error
}

func newMemCategories() *memCategories {
	m := &memCategories{cats: map[string]core.Category{}, used: map[string]int{}}
	for _, c := range []core.Category{
		{ID: "food", Name: "Food", Type: core.Expense, IsDefault: true},
		{ID: "transport", Name: "Transport", Type: core.Expense, IsDefault: true},
		{ID: "salary", Name: "Salary", Type: core.Income, IsDefault: true},
		{ID: "gift", Name: "Gift", Type: core.Income, IsDefault: true},
	} {
		m.cats[c.ID] = c
	}
	return m
}

func (m *memCategories) FindByType(ctx context.Context, userID int64, txType core.TransactionType) ([]core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Category
	for _, c := range m.cats {
		if c.Type == txType && c.VisibleTo(userID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDefault != out[j].IsDefault {
			return out[i].IsDefault
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *memCategories) FindByID(ctx context.Context, id string) (core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return core.Category{}, m.err
	}
	c, ok := m.cats[id]
	if !ok {
		return core.Category{}, core.ErrNotFound
	}
	return c, nil
}

func (m *memCategories) CreateCustom(ctx context.Context, userID int64, name string, txType core.TransactionType) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	owner := userID
	m.cats[id] = core.Category{ID: id, Name: name, Type: txType, UserID: &owner}
	return id, nil
}

func (m *memCategories) DeleteCustom(ctx context.Context, userID int64, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cats[id]
	if !ok || c.IsDefault || c.UserID == nil || *c.UserID != userID {
		return core.ErrNotFound
	}
	delete(m.cats, id)
	return nil
}

func (m *memCategories) Exists(ctx context.Context, userID int64, name string, txType core.TransactionType) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cats {
		if c.Name == name && c.Type == txType && c.VisibleTo(userID) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memCategories) CountUsage(ctx context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used[id], nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[int64]core.User
	finds int
	err   error

	// afterFind runs once the row is read, before Find returns it.
	afterFind func()
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[int64]core.User{}}
}

func (m *memUsers) Find(ctx context.Context, userID int64) (core.User, error) {
	m.mu.Lock()
	m.finds++
	err := m.err
	u, ok := m.users[userID]
	hook := m.afterFind
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return core.User{}, err
	}
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) Create(ctx context.Context, u core.User) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.users[u.UserID]; ok {
		return existing, nil
	}
	m.users[u.UserID] = u
	return u, nil
}

func (m *memUsers) UpdateLanguage(ctx context.Context, userID int64, lang core.Language) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.Language = lang
	m.users[userID] = u
	return nil
}

func (m *memUsers) UpdateCurrency(ctx context.Context, userID int64, cur core.Currency) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	u.DefaultCurrency = cur
	m.users[userID] = u
	return nil
}

// fixedRates serves the static table: USD->UAH 41.5, EUR->UAH 43.5.
type fixedRates struct{ m currency.RateMatrix }

func (f fixedRates) Rates(context.Context) currency.RateMatrix { return f.m }

func newTestConverter() *currency.Converter {
	return currency.NewConverter(fixedRates{m: currency.Fallback(time.Now())})
}

// failingConverter always reports the pair as unavailable.
type failingConverter struct{}

func (failingConverter) Convert(ctx context.Context, amount decimal.Decimal, from, to core.Currency) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	return amount, fmt.Errorf("%s -> %s: %w", from, to, core.ErrConversionUnavailable)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// fixture wires services over in-memory stores with a frozen clock.
type fixture struct {
	txs        *memTransactions
	cats       *memCategories
	users      *memUsers
	userSvc    *UserService
	catSvc     *CategoryService
	txSvc      *TransactionService
	aggregator *Aggregator
	reports    *ReportBuilder
	now        time.Time
}

func newFixture() *fixture {
	f := &fixture{
		txs:   newMemTransactions(),
		cats:  newMemCategories(),
		users: newMemUsers(),
		// Thursday afternoon.
		now: time.Date(2025, 3, 13, 15, 0, 0, 0, time.Local),
	}
	clock := func() time.Time { return f.now }
	conv := newTestConverter()

	f.userSvc = NewUserService(f.users, 100, time.Minute, nil)
	f.catSvc = NewCategoryService(f.cats, nil)
	f.txSvc = NewTransactionService(f.txs, f.catSvc, f.userSvc, nil)
	f.txSvc.now = clock
	f.aggregator = NewAggregator(f.txs, f.cats, conv, f.userSvc, nil)
	f.aggregator.now = clock
	f.reports = NewReportBuilder(f.aggregator, f.txs, conv, f.userSvc, nil)
	f.reports.now = clock
	return f
}

func (f *fixture) tx(txType core.TransactionType, amount string, cur core.Currency, categoryID string, at time.Time) core.Transaction {
	return f.txs.add(core.Transaction{
		Type:       txType,
		UserID:     42,
		Amount:     dec(amount),
		CategoryID: categoryID,
		Currency:   cur,
		AddDate:    at,
		UpdateDate: at,
	})
}
