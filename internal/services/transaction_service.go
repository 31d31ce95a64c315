package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"budgethelper/internal/core"
	"budgethelper/internal/log"
	"budgethelper/internal/ports"
)

// TransactionInput is raw user input for recording or editing a transaction.
type TransactionInput struct {
	UserID      int64
	Type        core.TransactionType
	Amount      string
	CategoryID  string
	Description string
	// Currency is optional; the user's default currency is used when empty.
	Currency string
}

// TransactionService validates and stores incomes and expenses.
type TransactionService struct {
	store      ports.TransactionStore
	categories *CategoryService
	users      *UserService
	now        func() time.Time
	logger     *log.Logger
	audit      *log.StructuredLogger
}

func NewTransactionService(store ports.TransactionStore, categories *CategoryService, users *UserService, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.Default(log.ComponentLedger)
	}
	logger = logger.WithComponent(log.ComponentLedger)
	return &TransactionService{
		store:      store,
		categories: categories,
		users:      users,
		now:        time.Now,
		logger:     logger,
		audit:      log.NewStructuredLogger(logger),
	}
}

// Record validates in and stores a new transaction dated now.
func (s *TransactionService) Record(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	tx, err := s.build(ctx, in)
	if err != nil {
		return core.Transaction{}, err
	}

	now := s.now()
	tx.AddDate = now
	tx.UpdateDate = now

	id, err := s.store.Insert(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record %s: %w", tx.Type, err)
	}
	tx.ID = id

	s.audit.LogTransactionRecorded(ctx, tx.UserID, string(tx.Type), id,
		tx.Amount.StringFixed(2), string(tx.Currency), tx.CategoryID)
	return tx, nil
}

// Update replaces amount, category, description and currency of an existing
// transaction owned by in.UserID. The original add date is kept.
func (s *TransactionService) Update(ctx context.Context, id string, in TransactionInput) (core.Transaction, error) {
	existing, err := s.Get(ctx, in.UserID, in.Type, id)
	if err != nil {
		return core.Transaction{}, err
	}

	tx, err := s.build(ctx, in)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.ID = existing.ID
	tx.AddDate = existing.AddDate
	tx.UpdateDate = s.now()

	if err := s.store.Update(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update %s: %w", tx.Type, err)
	}

	s.logger.InfoContext(ctx, "Transaction updated",
		log.NewFields().WithUser(tx.UserID).
			WithTransaction(string(tx.Type), tx.ID, tx.Amount.StringFixed(2), string(tx.Currency), tx.CategoryID).
			WithOperation(log.OpUpdate).ToSlice()...)
	return tx, nil
}

// Get returns a transaction owned by userID; other users' records are
// reported as not found.
func (s *TransactionService) Get(ctx context.Context, userID int64, txType core.TransactionType, id string) (core.Transaction, error) {
	if !txType.IsValid() {
		return core.Transaction{}, core.ErrInvalidType
	}
	tx, err := s.store.FindByID(ctx, txType, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if tx.UserID != userID {
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID int64, txType core.TransactionType, id string) error {
	if !txType.IsValid() {
		return core.ErrInvalidType
	}
	if err := s.store.Delete(ctx, txType, userID, id); err != nil {
		return fmt.Errorf("delete %s: %w", txType, err)
	}
	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldUserID, userID, log.FieldTxType, string(txType), log.FieldTxID, id)
	return nil
}

// List returns all of the user's transactions of txType, newest first.
func (s *TransactionService) List(ctx context.Context, userID int64, txType core.TransactionType) ([]core.Transaction, error) {
	if !txType.IsValid() {
		return nil, core.ErrInvalidType
	}
	txs, err := s.store.FindAll(ctx, txType, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", txType, err)
	}
	return txs, nil
}

func (s *TransactionService) build(ctx context.Context, in TransactionInput) (core.Transaction, error) {
	if in.UserID == 0 {
		return core.Transaction{}, core.ErrInvalidUser
	}
	if !in.Type.IsValid() {
		return core.Transaction{}, core.ErrInvalidType
	}

	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}

	var cur core.Currency
	if strings.TrimSpace(in.Currency) == "" {
		if cur, err = s.users.Currency(ctx, in.UserID); err != nil {
			return core.Transaction{}, err
		}
	} else if cur, err = core.ParseCurrency(in.Currency); err != nil {
		return core.Transaction{}, err
	}

	if strings.TrimSpace(in.CategoryID) == "" {
		return core.Transaction{}, core.ErrEmptyCategory
	}
	if _, err := s.categories.Resolve(ctx, in.UserID, in.CategoryID, in.Type); err != nil {
		return core.Transaction{}, err
	}

	tx := core.Transaction{
		Type:        in.Type,
		UserID:      in.UserID,
		Amount:      amount,
		CategoryID:  in.CategoryID,
		Description: strings.TrimSpace(in.Description),
		Currency:    cur,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}
