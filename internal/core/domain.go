package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Ukrainian Language = "uk"
	English   Language = "en"
)

// DefaultLanguage is assigned on first contact.
const DefaultLanguage = Ukrainian

// OtherCategory labels transactions whose category can no longer be resolved.
const OtherCategory = "Other"

// MaxCategoryNameLength bounds custom category names (in runes).
const MaxCategoryNameLength = 50

// MaxDescriptionLength bounds free-text descriptions (in runes).
const MaxDescriptionLength = 500

type (
	TransactionType string

	Language string

	// Transaction is an income or an expense record. Both kinds share a shape
	// and are told apart by Type, which also selects the backing table.
	Transaction struct {
		ID          string
		Type        TransactionType
		UserID      int64
		Amount      decimal.Decimal
		CategoryID  string
		Description string
		Currency    Currency
		AddDate     time.Time
		UpdateDate  time.Time
	}

	Category struct {
		ID        string
		Name      string
		Type      TransactionType
		IsDefault bool
		UserID    *int64 // nil for default categories
		AddDate   time.Time
	}

	User struct {
		UserID          int64
		Language        Language
		Username        string
		DefaultCurrency Currency
	}
)

var (
	ErrNotFound              = errors.New("resource not found")
	ErrAlreadyExists         = errors.New("resource already exists")
	ErrDataAccess            = errors.New("data access failure")
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidCurrency       = errors.New("invalid currency")
	ErrInvalidPeriod         = errors.New("invalid period")
	ErrInvalidType           = errors.New("invalid transaction type")
	ErrInvalidLanguage       = errors.New("invalid language")
	ErrInvalidUser           = errors.New("invalid user id")
	ErrEmptyName             = errors.New("empty category name")
	ErrNameTooLong           = errors.New("category name too long")
	ErrDescriptionTooLong    = errors.New("description too long")
	ErrEmptyCategory         = errors.New("empty category")
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryMismatch      = errors.New("category type does not match transaction type")
	ErrDefaultCategory       = errors.New("default categories cannot be deleted")
	ErrCategoryInUse         = errors.New("category is referenced by transactions")
	ErrConversionUnavailable = errors.New("currency conversion unavailable")
)

// ParseTransactionType validates a transaction type name.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", ErrInvalidType
	}
	return t, nil
}

func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// ParseLanguage validates a language code.
func ParseLanguage(s string) (Language, error) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	if !l.IsValid() {
		return "", ErrInvalidLanguage
	}
	return l, nil
}

func (l Language) IsValid() bool {
	return l == Ukrainian || l == English
}

func (t Transaction) Validate() error {
	if t.UserID == 0 {
		return ErrInvalidUser
	}
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if err := ValidateAmount(t.Amount); err != nil {
		return err
	}
	if !t.Currency.IsValid() {
		return ErrInvalidCurrency
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

// VisibleTo reports whether u may attach transactions to c.
func (c Category) VisibleTo(userID int64) bool {
	if c.IsDefault {
		return true
	}
	return c.UserID != nil && *c.UserID == userID
}

// ValidateCategoryName trims name and checks its length.
func ValidateCategoryName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxCategoryNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

func (u User) Validate() error {
	if u.UserID == 0 {
		return ErrInvalidUser
	}
	if !u.Language.IsValid() {
		return ErrInvalidLanguage
	}
	if !u.DefaultCurrency.IsValid() {
		return ErrInvalidCurrency
	}
	return nil
}
