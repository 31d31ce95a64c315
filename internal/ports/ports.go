// Package ports declares the outbound interfaces the services depend on.
package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"budgethelper/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionStore persists incomes and expenses. The transaction type
	// selects the backing table.
	TransactionStore interface {
		Insert(ctx context.Context, tx core.Transaction) (id string, err error)
		// FindByID returns core.ErrNotFound when no row matches.
		FindByID(ctx context.Context, txType core.TransactionType, id string) (core.Transaction, error)
		FindAll(ctx context.Context, txType core.TransactionType, userID int64) ([]core.Transaction, error)
		// FindInRange returns transactions with start <= add_date <= end, oldest first.
		FindInRange(ctx context.Context, txType core.TransactionType, userID int64, start, end time.Time) ([]core.Transaction, error)
		Update(ctx context.Context, tx core.Transaction) error
		Delete(ctx context.Context, txType core.TransactionType, userID int64, id string) error
		// SumByCurrency returns native totals per currency for the window.
		SumByCurrency(ctx context.Context, txType core.TransactionType, userID int64, start, end time.Time) (map[core.Currency]decimal.Decimal, error)
	}

	CategoryStore interface {
		// FindByType lists defaults and the user's own categories, defaults
		// first, then by name.
		FindByType(ctx context.Context, userID int64, txType core.TransactionType) ([]core.Category, error)
		FindByID(ctx context.Context, id string) (core.Category, error)
		CreateCustom(ctx context.Context, userID int64, name string, txType core.TransactionType) (id string, err error)
		// DeleteCustom removes a non-default category owned by userID.
		DeleteCustom(ctx context.Context, userID int64, id string) error
		Exists(ctx context.Context, userID int64, name string, txType core.TransactionType) (bool, error)
		CountUsage(ctx context.Context, id string) (int, error)
	}

	UserStore interface {
		Find(ctx context.Context, userID int64) (core.User, error)
		// Create inserts the user if missing and returns the stored row.
		Create(ctx context.Context, u core.User) (core.User, error)
		UpdateLanguage(ctx context.Context, userID int64, lang core.Language) error
		UpdateCurrency(ctx context.Context, userID int64, cur core.Currency) error
	}

	// Converter converts amounts between supported currencies.
	Converter interface {
		Convert(ctx context.Context, amount decimal.Decimal, from, to core.Currency) (decimal.Decimal, error)
	}

	// ExportPublisher queues report exports for background rendering.
	ExportPublisher interface {
		PublishReportExport(ctx context.Context, userID int64, period, format string, includeComparison bool) (requestID string, err error)
	}
)
