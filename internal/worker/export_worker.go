// Package worker exports budget months to the spreadsheet in the background.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"budgeteer/internal/amqp"
	"budgeteer/internal/core"
	"budgeteer/internal/log"
	"budgeteer/internal/sheets"
	"budgeteer/internal/storage"
)

// Source is the read side of storage the exporter needs.
type Source interface {
	GetUser(ctx context.Context, id string) (core.User, error)
	ListUsers(ctx context.Context) ([]core.User, error)
	GetMonth(ctx context.Context, userID, id string) (core.BudgetMonth, error)
	ListMonths(ctx context.Context, userID string) ([]core.BudgetMonth, error)
	ListAllocations(ctx context.Context, monthID string) ([]core.AllocationDetail, error)
}

// ExportWorker turns month.changed events into spreadsheet rows.
type ExportWorker struct {
	source   Source
	exporter sheets.MonthExporter
	logger   *log.Logger
	now      func() time.Time
	backoff  func() retry.Backoff
}

type Option func(*ExportWorker)

// WithBackoff replaces the retry policy applied to each spreadsheet write.
func WithBackoff(b func() retry.Backoff) Option {
	return func(w *ExportWorker) { w.backoff = b }
}

func WithClock(now func() time.Time) Option {
	return func(w *ExportWorker) { w.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(w *ExportWorker) { w.logger = l }
}

func NewExportWorker(source Source, exporter sheets.MonthExporter, opts ...Option) *ExportWorker {
	w := &ExportWorker{
		source:   source,
		exporter: exporter,
		logger:   log.Discard(),
		now:      time.Now,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(4, retry.WithJitter(250*time.Millisecond, retry.NewExponential(500*time.Millisecond)))
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.WithComponent(log.ComponentWorker)
	return w
}

// HandleMonthChanged reloads the month named by msg and exports it. Months that
// no longer exist are skipped so the message is acknowledged.
func (w *ExportWorker) HandleMonthChanged(ctx context.Context, msg *amqp.MonthChangedMessage) error {
	w.logger.InfoContext(ctx, "Processing month changed message",
		log.FieldUserID, msg.UserID,
		log.FieldMonthID, msg.MonthID,
		log.FieldOperation, msg.Operation)

	user, err := w.source.GetUser(ctx, msg.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		w.logger.WarnContext(ctx, "User no longer exists, skipping export", log.FieldUserID, msg.UserID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	month, err := w.source.GetMonth(ctx, msg.UserID, msg.MonthID)
	if errors.Is(err, storage.ErrNotFound) {
		w.logger.WarnContext(ctx, "Month no longer exists, skipping export", log.FieldMonthID, msg.MonthID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get month: %w", err)
	}
	return w.exportMonth(ctx, user, month)
}

// ExportAll re-exports every month of every user. Failures are logged and
// collected; the remaining months are still attempted.
func (w *ExportWorker) ExportAll(ctx context.Context) (int, error) {
	users, err := w.source.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	var (
		exported int
		errs     []error
	)
	for _, u := range users {
		months, err := w.source.ListMonths(ctx, u.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("list months of %s: %w", u.ID, err))
			continue
		}
		for _, m := range months {
			if err := ctx.Err(); err != nil {
				return exported, err
			}
			if err := w.exportMonth(ctx, u, m); err != nil {
				errs = append(errs, err)
				continue
			}
			exported++
		}
	}

	w.logger.InfoContext(ctx, "Full export completed",
		"users", len(users),
		"exported", exported,
		"errors", len(errs))
	return exported, errors.Join(errs...)
}

// Run performs a full export immediately and then every interval until ctx is done.
// This recovers months whose messages were lost while the worker was down.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := w.ExportAll(ctx); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "Full export had failures", log.FieldError, err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *ExportWorker) exportMonth(ctx context.Context, u core.User, m core.BudgetMonth) error {
	allocations, err := w.source.ListAllocations(ctx, m.ID)
	if err != nil {
		return fmt.Errorf("list allocations of %s: %w", m.ID, err)
	}
	row := sheets.NewMonthRow(u, m, core.Summarize(m, allocations), w.now())

	var ref string
	err = retry.Do(ctx, w.backoff(), func(ctx context.Context) error {
		r, err := w.exporter.ExportMonth(ctx, row)
		if err != nil {
			w.logger.WarnContext(ctx, "Export attempt failed",
				log.FieldMonthID, m.ID,
				log.FieldError, err)
			return retry.RetryableError(err)
		}
		ref = r
		return nil
	})
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to export month",
			log.FieldUserID, u.ID,
			log.FieldMonthID, m.ID,
			log.FieldErrorType, log.ErrorTypeNetwork,
			log.FieldError, err)
		return fmt.Errorf("export month %s: %w", m.ID, err)
	}

	w.logger.InfoContext(ctx, "Exported month",
		log.FieldUserID, u.ID,
		log.FieldMonthID, m.ID,
		log.FieldYear, m.Year,
		log.FieldMonth, m.Month,
		"sheets_ref", ref)
	return nil
}
