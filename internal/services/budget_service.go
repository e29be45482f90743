// Package services implements the budget operations on top of storage: ownership
// checks, validation, event publishing and cache invalidation.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"budgeteer/internal/cache"
	"budgeteer/internal/core"
	"budgeteer/internal/log"
	"budgeteer/internal/storage"
)

// Publisher announces month changes to the export worker.
type Publisher interface {
	PublishMonthChanged(ctx context.Context, userID, monthID, operation string) error
	Close() error
}

// BudgetService orchestrates every budget operation for a signed-in user.
// All methods take the caller's user id and never touch rows owned by someone else.
type BudgetService struct {
	store     storage.Store
	publisher Publisher
	insights  cache.Cache[core.Insights]
	logger    *log.Logger
	events    *log.StructuredLogger
	now       func() time.Time
	newID     func() string
}

type Option func(*BudgetService)

// WithPublisher enables month.changed events.
func WithPublisher(p Publisher) Option {
	return func(s *BudgetService) { s.publisher = p }
}

// WithClock overrides the clock that decides the current calendar month.
func WithClock(now func() time.Time) Option {
	return func(s *BudgetService) { s.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(s *BudgetService) { s.logger = l }
}

// WithInsightsCache caches aggregated insights per user.
func WithInsightsCache(c cache.Cache[core.Insights]) Option {
	return func(s *BudgetService) { s.insights = c }
}

// WithIDGenerator overrides id generation. Used by tests.
func WithIDGenerator(f func() string) Option {
	return func(s *BudgetService) { s.newID = f }
}

func NewBudgetService(store storage.Store, opts ...Option) *BudgetService {
	s := &BudgetService{
		store:  store,
		logger: log.Discard(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentBudget)
	s.events = log.NewStructuredLogger(s.logger)
	return s
}

// Store exposes the underlying store for health checks and tooling.
func (s *BudgetService) Store() storage.Store { return s.store }

// CurrentMonth returns the calendar month according to the service clock.
func (s *BudgetService) CurrentMonth() core.YearMonth {
	return core.MonthOf(s.now())
}

// fail logs an unexpected storage error and hides it behind "Failed to <action>".
// Not-found and duplicate errors are translated into their domain kinds.
func (s *BudgetService) fail(ctx context.Context, action string, err error) error {
	var ue *core.UserError
	if errors.As(err, &ue) {
		return err
	}
	s.events.LogError(ctx, "Storage operation failed", err, log.ComponentBudget, action,
		log.NewFields().WithErrorType(log.ErrorTypeDatabase))
	return core.Failed(action, err)
}

// changed invalidates cached aggregates for userID and announces the month change.
// Publishing is best effort: the write already succeeded.
func (s *BudgetService) changed(ctx context.Context, userID, monthID, operation string) {
	if s.insights != nil {
		s.insights.Delete(userID)
	}
	if monthID == "" {
		return
	}
	s.events.LogMonthChanged(ctx, userID, monthID, operation)
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishMonthChanged(ctx, userID, monthID, operation); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish month changed message",
			log.FieldMonthID, monthID, log.FieldError, err)
	}
}

// ownedMonth loads a month owned by userID or returns "Budget month not found".
func (s *BudgetService) ownedMonth(ctx context.Context, userID, monthID string) (core.BudgetMonth, error) {
	m, err := s.store.GetMonth(ctx, userID, monthID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.BudgetMonth{}, core.NotFound("Budget month")
	}
	if err != nil {
		return core.BudgetMonth{}, s.fail(ctx, "load budget month", err)
	}
	return m, nil
}

// ownedCategory loads a category owned by userID or returns "Category not found".
func (s *BudgetService) ownedCategory(ctx context.Context, userID, categoryID string) (core.Category, error) {
	c, err := s.store.GetCategory(ctx, userID, categoryID)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Category{}, core.NotFound("Category")
	}
	if err != nil {
		return core.Category{}, s.fail(ctx, "load category", err)
	}
	return c, nil
}

// Close releases the store and the publisher.
func (s *BudgetService) Close() error {
	var errs []error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	return errors.Join(errs...)
}
