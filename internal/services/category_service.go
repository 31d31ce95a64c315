package services

import (
	"context"
	"errors"
	"fmt"

	"budgethelper/internal/core"
	"budgethelper/internal/log"
	"budgethelper/internal/ports"
)

// CategoryService manages default and custom categories. Categories that are
// referenced by any transaction cannot be deleted.
type CategoryService struct {
	store  ports.CategoryStore
	logger *log.Logger
}

func NewCategoryService(store ports.CategoryStore, logger *log.Logger) *CategoryService {
	if logger == nil {
		logger = log.Default(log.ComponentCategory)
	}
	return &CategoryService{store: store, logger: logger.WithComponent(log.ComponentCategory)}
}

func (s *CategoryService) List(ctx context.Context, userID int64, txType core.TransactionType) ([]core.Category, error) {
	if !txType.IsValid() {
		return nil, core.ErrInvalidType
	}
	cats, err := s.store.FindByType(ctx, userID, txType)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Create adds a custom category. Names visible to the user already, defaults
// included, yield core.ErrAlreadyExists.
func (s *CategoryService) Create(ctx context.Context, userID int64, name string, txType core.TransactionType) (core.Category, error) {
	if userID == 0 {
		return core.Category{}, core.ErrInvalidUser
	}
	if !txType.IsValid() {
		return core.Category{}, core.ErrInvalidType
	}
	name, err := core.ValidateCategoryName(name)
	if err != nil {
		return core.Category{}, err
	}

	exists, err := s.store.Exists(ctx, userID, name, txType)
	if err != nil {
		return core.Category{}, fmt.Errorf("check category: %w", err)
	}
	if exists {
		return core.Category{}, core.ErrAlreadyExists
	}

	id, err := s.store.CreateCustom(ctx, userID, name, txType)
	if err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}

	s.logger.InfoContext(ctx, "Custom category created",
		log.FieldUserID, userID,
		log.FieldCategoryID, id,
		log.FieldTxType, string(txType))

	owner := userID
	return core.Category{ID: id, Name: name, Type: txType, UserID: &owner}, nil
}

// Delete removes one of the user's custom categories.
func (s *CategoryService) Delete(ctx context.Context, userID int64, id string) error {
	c, err := s.store.FindByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.ErrCategoryNotFound
	}
	if err != nil {
		return fmt.Errorf("load category: %w", err)
	}
	if c.IsDefault {
		return core.ErrDefaultCategory
	}
	if !c.VisibleTo(userID) {
		return core.ErrCategoryNotFound
	}

	n, err := s.store.CountUsage(ctx, id)
	if err != nil {
		return fmt.Errorf("count category usage: %w", err)
	}
	if n > 0 {
		return core.ErrCategoryInUse
	}

	if err := s.store.DeleteCustom(ctx, userID, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.ErrCategoryNotFound
		}
		return fmt.Errorf("delete category: %w", err)
	}

	s.logger.InfoContext(ctx, "Custom category deleted", log.FieldUserID, userID, log.FieldCategoryID, id)
	return nil
}

// Resolve returns a category the user may attach a transaction of txType to.
func (s *CategoryService) Resolve(ctx context.Context, userID int64, id string, txType core.TransactionType) (core.Category, error) {
	c, err := s.store.FindByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return core.Category{}, core.ErrCategoryNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("load category: %w", err)
	}
	if !c.VisibleTo(userID) {
		return core.Category{}, core.ErrCategoryNotFound
	}
	if c.Type != txType {
		return core.Category{}, core.ErrCategoryMismatch
	}
	return c, nil
}
