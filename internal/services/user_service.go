package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"budgethelper/internal/cache"
	"budgethelper/internal/core"
	"budgethelper/internal/log"
	"budgethelper/internal/ports"
)

// UserService manages per-user settings with a read-through cache.
type UserService struct {
	store  ports.UserStore
	cache  *cache.LRUCache[int64, core.User]
	logger *log.Logger

	// fillMu orders cache fills after store reads against writes, so a fill
	// that read the old row can never land after the invalidation.
	fillMu sync.Mutex
}

func NewUserService(store ports.UserStore, size int, ttl time.Duration, logger *log.Logger) *UserService {
	if logger == nil {
		logger = log.Default(log.ComponentUser)
	}
	return &UserService{
		store:  store,
		cache:  cache.NewLRUCache[int64, core.User](size, ttl),
		logger: logger.WithComponent(log.ComponentUser),
	}
}

// Cache exposes the settings cache for registration with a cache.Manager.
func (s *UserService) Cache() *cache.LRUCache[int64, core.User] {
	return s.cache
}

// Ensure creates the user on first contact and returns the stored settings.
func (s *UserService) Ensure(ctx context.Context, userID int64, username string, lang core.Language) (core.User, error) {
	if userID == 0 {
		return core.User{}, core.ErrInvalidUser
	}
	if lang == "" {
		lang = core.DefaultLanguage
	}

	s.fillMu.Lock()
	defer s.fillMu.Unlock()

	u, err := s.store.Create(ctx, core.User{
		UserID:          userID,
		Language:        lang,
		Username:        username,
		DefaultCurrency: core.DefaultCurrency,
	})
	if err != nil {
		return core.User{}, fmt.Errorf("ensure user: %w", err)
	}

	s.cache.Set(userID, u)
	return u, nil
}

// Find returns the user's settings, served from cache when possible.
func (s *UserService) Find(ctx context.Context, userID int64) (core.User, error) {
	if u, ok := s.cache.Get(userID); ok {
		return u, nil
	}

	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if u, ok := s.cache.Get(userID); ok {
		return u, nil
	}

	u, err := s.store.Find(ctx, userID)
	if err != nil {
		return core.User{}, err
	}
	s.cache.Set(userID, u)
	return u, nil
}

// Currency returns the user's default currency, or core.DefaultCurrency for
// users that were never stored.
func (s *UserService) Currency(ctx context.Context, userID int64) (core.Currency, error) {
	u, err := s.Find(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return core.DefaultCurrency, nil
	}
	if err != nil {
		return "", fmt.Errorf("load user currency: %w", err)
	}
	if !u.DefaultCurrency.IsValid() {
		return core.DefaultCurrency, nil
	}
	return u.DefaultCurrency, nil
}

func (s *UserService) SetLanguage(ctx context.Context, userID int64, lang core.Language) error {
	if !lang.IsValid() {
		return core.ErrInvalidLanguage
	}
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	defer s.cache.Delete(userID)

	if err := s.store.UpdateLanguage(ctx, userID, lang); err != nil {
		return fmt.Errorf("update language: %w", err)
	}
	s.logger.InfoContext(ctx, "Language updated", log.FieldUserID, userID, "language", string(lang))
	return nil
}

func (s *UserService) SetCurrency(ctx context.Context, userID int64, cur core.Currency) error {
	if !cur.IsValid() {
		return core.ErrInvalidCurrency
	}
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	defer s.cache.Delete(userID)

	if err := s.store.UpdateCurrency(ctx, userID, cur); err != nil {
		return fmt.Errorf("update currency: %w", err)
	}
	s.logger.InfoContext(ctx, "Default currency updated", log.FieldUserID, userID, log.FieldCurrency, string(cur))
	return nil
}
