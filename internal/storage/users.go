package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"budgethelper/internal/core"
)

// UserRepository stores per-user settings.
type UserRepository struct {
	db *DB
}

// Find returns core.ErrNotFound for unknown users.
func (r *UserRepository) Find(ctx context.Context, userID int64) (core.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	return r.find(ctx, userID)
}

// Create inserts u unless the user already exists and returns the stored row.
// Existing settings are never overwritten.
func (r *UserRepository) Create(ctx context.Context, u core.User) (core.User, error) {
	if u.Language == "" {
		u.Language = core.DefaultLanguage
	}
	if u.DefaultCurrency == "" {
		u.DefaultCurrency = core.DefaultCurrency
	}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	_, err := r.db.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO users (user_id, language, username, default_currency, add_date) VALUES (?, ?, ?, ?, ?)",
		u.UserID, string(u.Language), u.Username, string(u.DefaultCurrency), core.FormatTimestamp(time.Now()))
	if err != nil {
		return core.User{}, dataErr("create user", err)
	}

	return r.find(ctx, u.UserID)
}

func (r *UserRepository) UpdateLanguage(ctx context.Context, userID int64, lang core.Language) error {
	return r.update(ctx, "UPDATE users SET language = ? WHERE user_id = ?", string(lang), userID)
}

func (r *UserRepository) UpdateCurrency(ctx context.Context, userID int64, cur core.Currency) error {
	return r.update(ctx, "UPDATE users SET default_currency = ? WHERE user_id = ?", string(cur), userID)
}

func (r *UserRepository) update(ctx context.Context, q string, value string, userID int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	res, err := r.db.db.ExecContext(ctx, q, value, userID)
	if err != nil {
		return dataErr("update user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dataErr("update user", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *UserRepository) find(ctx context.Context, userID int64) (core.User, error) {
	var (
		u         core.User
		lang, cur string
	)
	err := r.db.db.QueryRowContext(ctx,
		"SELECT user_id, language, username, default_currency FROM users WHERE user_id = ?", userID).
		Scan(&u.UserID, &lang, &u.Username, &cur)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrNotFound
	}
	if err != nil {
		return core.User{}, dataErr("find user", err)
	}
	u.Language = core.Language(lang)
	u.DefaultCurrency = core.Currency(cur)
	return u, nil
}
