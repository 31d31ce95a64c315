package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"budgethelper/internal/core"
)

// CategoryRepository stores default and user-defined categories.
type CategoryRepository struct {
	db *DB
}

const categoryColumns = "id, name, type, is_default, user_id, add_date"

// FindByType lists defaults and the user's own categories of txType,
// defaults first, then alphabetically.
func (r *CategoryRepository) FindByType(ctx context.Context, userID int64, txType core.TransactionType) ([]core.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	rows, err := r.db.db.QueryContext(ctx,
		"SELECT "+categoryColumns+" FROM categories"+
			" WHERE type = ? AND (is_default = 1 OR user_id = ?)"+
			" ORDER BY is_default DESC, name ASC",
		string(txType), userID)
	if err != nil {
		return nil, dataErr("list categories", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, dataErr("list categories", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, dataErr("list categories", err)
	}
	return cats, nil
}

// FindByID returns core.ErrNotFound when the category does not exist.
func (r *CategoryRepository) FindByID(ctx context.Context, id string) (core.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	row := r.db.db.QueryRowContext(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, dataErr("find category", err)
	}
	return c, nil
}

// CreateCustom stores a category owned by userID. A duplicate (name, type,
// owner) yields core.ErrAlreadyExists.
func (r *CategoryRepository) CreateCustom(ctx context.Context, userID int64, name string, txType core.TransactionType) (string, error) {
	id := uuid.NewString()

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	_, err := r.db.db.ExecContext(ctx,
		"INSERT INTO categories ("+categoryColumns+") VALUES (?, ?, ?, 0, ?, ?)",
		id, name, string(txType), userID, core.FormatTimestamp(time.Now()))
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("create category %q: %w", name, core.ErrAlreadyExists)
		}
		return "", dataErr("create category", err)
	}
	return id, nil
}

// DeleteCustom removes a non-default category owned by userID. Default,
// foreign and missing categories yield core.ErrNotFound; a category still
// referenced by transactions yields core.ErrCategoryInUse.
func (r *CategoryRepository) DeleteCustom(ctx context.Context, userID int64, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	res, err := r.db.db.ExecContext(ctx,
		"DELETE FROM categories WHERE id = ? AND user_id = ? AND is_default = 0", id, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("delete category: %w", core.ErrCategoryInUse)
		}
		return dataErr("delete category", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return dataErr("delete category", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// Exists reports whether a category with this exact name and type is visible
// to the user, either as a default or as one of their own.
func (r *CategoryRepository) Exists(ctx context.Context, userID int64, name string, txType core.TransactionType) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int
	err := r.db.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM categories WHERE name = ? AND type = ? AND (is_default = 1 OR user_id = ?)",
		name, string(txType), userID).Scan(&n)
	if err != nil {
		return false, dataErr("category exists", err)
	}
	return n > 0, nil
}

// CountUsage returns how many incomes and expenses reference the category.
func (r *CategoryRepository) CountUsage(ctx context.Context, id string) (int, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int
	err := r.db.db.QueryRowContext(ctx,
		"SELECT (SELECT COUNT(*) FROM incomes WHERE category_id = ?) + (SELECT COUNT(*) FROM expenses WHERE category_id = ?)",
		id, id).Scan(&n)
	if err != nil {
		return 0, dataErr("category usage", err)
	}
	return n, nil
}

func scanCategory(s scanner) (core.Category, error) {
	var (
		c     core.Category
		typ   string
		isDef bool
		owner sql.NullInt64
		added string
	)
	if err := s.Scan(&c.ID, &c.Name, &typ, &isDef, &owner, &added); err != nil {
		return core.Category{}, err
	}

	t, err := core.ParseTimestamp(added)
	if err != nil {
		return core.Category{}, fmt.Errorf("parse add_date %q: %w", added, err)
	}
	c.AddDate = t
	c.Type = core.TransactionType(typ)
	c.IsDefault = isDef
	if owner.Valid {
		id := owner.Int64
		c.UserID = &id
	}
	return c, nil
}
