package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"budgethelper/internal/core"
)

// TransactionRepository stores incomes and expenses in their own tables.
type TransactionRepository struct {
	db *DB
}

func tableFor(t core.TransactionType) (string, error) {
	switch t {
	case core.Income:
		return "incomes", nil
	case core.Expense:
		return "expenses", nil
	default:
		return "", core.ErrInvalidType
	}
}

const transactionColumns = "id, user_id, amount_cents, category_id, description, currency, add_date, update_date"

// Insert stores tx and returns its id. A zero AddDate is set to now; an empty
// ID is generated.
func (r *TransactionRepository) Insert(ctx context.Context, tx core.Transaction) (string, error) {
	table, err := tableFor(tx.Type)
	if err != nil {
		return "", err
	}

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	now := time.Now()
	if tx.AddDate.IsZero() {
		tx.AddDate = now
	}
	if tx.UpdateDate.IsZero() {
		tx.UpdateDate = now
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	_, err = r.db.db.ExecContext(ctx,
		"INSERT INTO "+table+" ("+transactionColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		tx.ID, tx.UserID, core.ToCents(tx.Amount), tx.CategoryID, tx.Description,
		string(tx.Currency), core.FormatTimestamp(tx.AddDate), core.FormatTimestamp(tx.UpdateDate))
	if err != nil {
		if isForeignKeyViolation(err) {
			return "", fmt.Errorf("insert %s: %w", table, core.ErrCategoryNotFound)
		}
		if isUniqueViolation(err) {
			return "", fmt.Errorf("insert %s: %w", table, core.ErrAlreadyExists)
		}
		return "", dataErr("insert "+table, err)
	}

	return tx.ID, nil
}

// FindByID returns core.ErrNotFound when no row matches.
func (r *TransactionRepository) FindByID(ctx context.Context, txType core.TransactionType, id string) (core.Transaction, error) {
	table, err := tableFor(txType)
	if err != nil {
		return core.Transaction{}, err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	row := r.db.db.QueryRowContext(ctx, "SELECT "+transactionColumns+" FROM "+table+" WHERE id = ?", id)
	tx, err := scanTransaction(row, txType)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, dataErr("find "+table, err)
	}
	return tx, nil
}

// FindAll returns every transaction of the user, newest first.
func (r *TransactionRepository) FindAll(ctx context.Context, txType core.TransactionType, userID int64) ([]core.Transaction, error) {
	table, err := tableFor(txType)
	if err != nil {
		return nil, err
	}

	return r.query(ctx, txType, "list "+table,
		"SELECT "+transactionColumns+" FROM "+table+" WHERE user_id = ? ORDER BY add_date DESC, id",
		userID)
}

// FindInRange returns the user's transactions with start <= add_date <= end,
// oldest first.
func (r *TransactionRepository) FindInRange(ctx context.Context, txType core.TransactionType, userID int64, start, end time.Time) ([]core.Transaction, error) {
	table, err := tableFor(txType)
	if err != nil {
		return nil, err
	}

	return r.query(ctx, txType, "range "+table,
		"SELECT "+transactionColumns+" FROM "+table+
			" WHERE user_id = ? AND add_date BETWEEN ? AND ? ORDER BY add_date, id",
		userID, core.FormatTimestamp(start), core.FormatTimestamp(end))
}

// Update rewrites the mutable fields of a transaction owned by tx.UserID.
func (r *TransactionRepository) Update(ctx context.Context, tx core.Transaction) error {
	table, err := tableFor(tx.Type)
	if err != nil {
		return err
	}
	if tx.UpdateDate.IsZero() {
		tx.UpdateDate = time.Now()
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	res, err := r.db.db.ExecContext(ctx,
		"UPDATE "+table+" SET amount_cents = ?, category_id = ?, description = ?, currency = ?, update_date = ? WHERE id = ? AND user_id = ?",
		core.ToCents(tx.Amount), tx.CategoryID, tx.Description, string(tx.Currency),
		core.FormatTimestamp(tx.UpdateDate), tx.ID, tx.UserID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("update %s: %w", table, core.ErrCategoryNotFound)
		}
		return dataErr("update "+table, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return dataErr("update "+table, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// Delete removes a transaction owned by userID.
func (r *TransactionRepository) Delete(ctx context.Context, txType core.TransactionType, userID int64, id string) error {
	table, err := tableFor(txType)
	if err != nil {
		return err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	res, err := r.db.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return dataErr("delete "+table, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return dataErr("delete "+table, err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// SumByCurrency returns native totals per currency for the inclusive window.
// Currencies without transactions are absent from the map.
func (r *TransactionRepository) SumByCurrency(ctx context.Context, txType core.TransactionType, userID int64, start, end time.Time) (map[core.Currency]decimal.Decimal, error) {
	table, err := tableFor(txType)
	if err != nil {
		return nil, err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rows, err := r.db.db.QueryContext(ctx,
		"SELECT currency, COALESCE(SUM(amount_cents), 0) FROM "+table+
			" WHERE user_id = ? AND add_date BETWEEN ? AND ? GROUP BY currency",
		userID, core.FormatTimestamp(start), core.FormatTimestamp(end))
	if err != nil {
		return nil, dataErr("sum "+table, err)
	}
	defer rows.Close()

	sums := make(map[core.Currency]decimal.Decimal)
	for rows.Next() {
		var (
			cur   string
			cents int64
		)
		if err := rows.Scan(&cur, &cents); err != nil {
			return nil, dataErr("sum "+table, err)
		}
		sums[core.Currency(cur)] = core.FromCents(cents)
	}
	if err := rows.Err(); err != nil {
		return nil, dataErr("sum "+table, err)
	}
	return sums, nil
}

func (r *TransactionRepository) query(ctx context.Context, txType core.TransactionType, op, q string, args ...any) ([]core.Transaction, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rows, err := r.db.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, dataErr(op, err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows, txType)
		if err != nil {
			return nil, dataErr(op, err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, dataErr(op, err)
	}
	return txs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner, txType core.TransactionType) (core.Transaction, error) {
	var (
		tx                core.Transaction
		cents             int64
		cur, added, updtd string
	)
	if err := s.Scan(&tx.ID, &tx.UserID, &cents, &tx.CategoryID, &tx.Description, &cur, &added, &updtd); err != nil {
		return core.Transaction{}, err
	}

	var err error
	if tx.AddDate, err = core.ParseTimestamp(added); err != nil {
		return core.Transaction{}, fmt.Errorf("parse add_date %q: %w", added, err)
	}
	if tx.UpdateDate, err = core.ParseTimestamp(updtd); err != nil {
		return core.Transaction{}, fmt.Errorf("parse update_date %q: %w", updtd, err)
	}
	tx.Type = txType
	tx.Amount = core.FromCents(cents)
	tx.Currency = core.Currency(cur)
	return tx, nil
}
