package conversation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/vitaplus/vitabot/common"
	"github.com/vitaplus/vitabot/database"
)

const (
	// DefaultMaxAge контексты старше суток считаются устаревшими.
	DefaultMaxAge = 24 * time.Hour

	redisKeyPrefix = "conversation:"
)

// TransitionError ошибка недопустимого перехода состояния.
type TransitionError struct {
	From   State
	To     State
	Reason string
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition from %s to %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return common.ErrInvalidTransition
}

// Persister внешнее хранилище контекстов (Redis).
type Persister interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
}

// Update частичное обновление контекста: обновляются только ненулевые поля.
type Update struct {
	State        *State
	Collected    *CollectedInfo
	Language     string
	ErrorMessage *string
	AdminMode    *bool
}

// Storage хранит контексты диалогов: кэш в памяти под мьютексом
// со сквозной записью во внешнее хранилище.
type Storage struct {
	mu        sync.Mutex
	cache     map[int64]*Context
	persister Persister
	maxAge    time.Duration
}

func NewStorage(persister Persister) *Storage {
	return &Storage{
		cache:     make(map[int64]*Context),
		persister: persister,
		maxAge:    DefaultMaxAge,
	}
}

func redisKey(userID int64) string {
	return fmt.Sprintf("%s%d", redisKeyPrefix, userID)
}

// Load возвращает контекст пользователя: сначала из кэша в памяти,
// при промахе — из внешнего хранилища. Возвращает nil, если контекста нет.
func (s *Storage) Load(ctx context.Context, userID int64) (*Context, error) {
	s.mu.Lock()
	if c, ok := s.cache[userID]; ok {
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()

	if s.persister == nil {
		return nil, nil
	}

	var c Context
	err := s.persister.Get(ctx, redisKey(userID), &c)
	if err != nil {
		if errors.Is(err, database.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load context for user %d: %w", userID, err)
	}

	s.mu.Lock()
	s.cache[userID] = &c
	s.mu.Unlock()
	return &c, nil
}

// Save сохраняет контекст в кэш и внешнее хранилище.
func (s *Storage) Save(ctx context.Context, c *Context) error {
	c.UpdatedAt = time.Now()

	s.mu.Lock()
	s.cache[c.UserID] = c
	s.mu.Unlock()

	return s.persist(ctx, c)
}

// UpdateContext обновляет контекст пользователя, создавая его при отсутствии.
func (s *Storage) UpdateContext(ctx context.Context, userID int64, upd Update) (*Context, error) {
	s.mu.Lock()
	c, ok := s.cache[userID]
	if !ok {
		c = NewContext(userID)
		s.cache[userID] = c
		log.Printf("Created new conversation context for user %d", userID)
	}

	if upd.State != nil {
		c.CurrentState = *upd.State
	}
	if upd.Collected != nil {
		c.Collected = *upd.Collected
	}
	if upd.Language != "" {
		c.Language = upd.Language
	}
	if upd.ErrorMessage != nil {
		c.ErrorMessage = *upd.ErrorMessage
	}
	if upd.AdminMode != nil {
		c.AdminMode = *upd.AdminMode
	}

	now := time.Now()
	c.UpdatedAt = now
	c.LastActivity = now
	s.mu.Unlock()

	return c, s.persist(ctx, c)
}

// Transition переводит пользователя в новое состояние с валидацией перехода.
func (s *Storage) Transition(ctx context.Context, userID int64, newState State) (*Context, error) {
	s.mu.Lock()
	c, ok := s.cache[userID]
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: no context for user %d", common.ErrSessionExpired, userID)
	}

	if err := validateTransition(c, newState); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	log.Printf("Transitioning user %d from %s to %s", userID, c.CurrentState, newState)
	now := time.Now()
	c.CurrentState = newState
	c.UpdatedAt = now
	c.LastActivity = now
	c.ErrorMessage = "" // успешный переход сбрасывает ошибку
	s.mu.Unlock()

	return c, s.persist(ctx, c)
}

func validateTransition(c *Context, newState State) error {
	current := c.CurrentState

	// Подтверждение записи требует полного набора полей
	if newState == StateConfirmBooking {
		if missing := c.MissingBookingFields(); len(missing) > 0 {
			return &TransitionError{
				From:   current,
				To:     newState,
				Reason: "cannot confirm booking without: " + strings.Join(missing, ", "),
			}
		}
	}

	// DONE достижимо только из CONFIRM_BOOKING
	if newState == StateDone && current != StateConfirmBooking {
		return &TransitionError{From: current, To: newState, Reason: "booking not confirmed"}
	}

	for _, allowed := range validTransitions[current] {
		if allowed == newState {
			return nil
		}
	}
	return &TransitionError{From: current, To: newState}
}

// Clear удаляет контекст пользователя.
func (s *Storage) Clear(ctx context.Context, userID int64) error {
	s.mu.Lock()
	delete(s.cache, userID)
	s.mu.Unlock()

	if s.persister == nil {
		return nil
	}
	return s.persister.Delete(ctx, redisKey(userID))
}

// ClearAll очищает кэш в памяти.
func (s *Storage) ClearAll() {
	s.mu.Lock()
	count := len(s.cache)
	s.cache = make(map[int64]*Context)
	s.mu.Unlock()
	log.Printf("Cleared all %d contexts from memory cache", count)
}

// CacheSize количество контекстов в кэше.
func (s *Storage) CacheSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cache)
}

// SetMaxAge переопределяет срок жизни контекста.
func (s *Storage) SetMaxAge(maxAge time.Duration) {
	s.mu.Lock()
	s.maxAge = maxAge
	s.mu.Unlock()
}

// CleanupExpired удаляет контексты без активности дольше maxAge.
// Возвращает число удалённых контекстов.
func (s *Storage) CleanupExpired(ctx context.Context) int {
	s.mu.Lock()
	now := time.Now()
	var expired []int64
	for userID, c := range s.cache {
		if now.Sub(c.LastActivity) > s.maxAge {
			expired = append(expired, userID)
		}
	}
	for _, userID := range expired {
		delete(s.cache, userID)
	}
	s.mu.Unlock()

	for _, userID := range expired {
		if s.persister != nil {
			if err := s.persister.Delete(ctx, redisKey(userID)); err != nil {
				log.Printf("Failed to delete expired context for user %d: %v", userID, err)
			}
		}
	}

	if len(expired) > 0 {
		log.Printf("Cleaned up %d expired contexts", len(expired))
	}
	return len(expired)
}

// RunCleanup периодически вызывает CleanupExpired до отмены ctx.
func (s *Storage) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CleanupExpired(ctx)
		}
	}
}

func (s *Storage) persist(ctx context.Context, c *Context) error {
	if s.persister == nil {
		return nil
	}
	if err := s.persister.Set(ctx, redisKey(c.UserID), c, s.maxAge); err != nil {
		// Потеря персистентности не должна ронять диалог
		log.Printf("Failed to persist context for user %d: %v", c.UserID, err)
	}
	return nil
}
