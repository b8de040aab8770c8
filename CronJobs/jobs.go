package CronJobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"Invoicing/Billing"
	"Invoicing/Models"
	"Invoicing/Notifications"
	"Invoicing/logger"
)

// OverdueReminder periodically finds sent, unpaid invoices past their due
// date and hands them to the notifier. Overdue is never written back.
type OverdueReminder struct {
	db            *gorm.DB
	notifier      Notifications.Notifier
	now           func() time.Time
	cronScheduler *cron.Cron
	schedule      string
	jobID         cron.EntryID
	mu            sync.Mutex
	log           zerolog.Logger
}

// NewOverdueReminder uses a six-field cron schedule, e.g. "0 0 8 * * *" for 08:00 daily.
func NewOverdueReminder(db *gorm.DB, notifier Notifications.Notifier, schedule string) *OverdueReminder {
	return &OverdueReminder{
		db:            db,
		notifier:      notifier,
		now:           time.Now,
		cronScheduler: cron.New(cron.WithSeconds()),
		schedule:      schedule,
		log:           logger.WithComponent("cron"),
	}
}

// Start schedules the reminder and starts the scheduler.
func (r *OverdueReminder) Start() error {
	if err := r.UpdateSchedule(r.schedule); err != nil {
		return err
	}
	r.cronScheduler.Start()
	r.log.Info().Str("schedule", r.schedule).Msg("overdue reminder scheduler started")
	return nil
}

// Stop waits for a running job to finish.
func (r *OverdueReminder) Stop() {
	<-r.cronScheduler.Stop().Done()
	r.log.Info().Msg("overdue reminder scheduler stopped")
}

// UpdateSchedule replaces the job's schedule.
func (r *OverdueReminder) UpdateSchedule(schedule string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, err := r.cronScheduler.AddFunc(schedule, func() {
		if _, err := r.Run(context.Background()); err != nil {
			r.log.Error().Err(err).Msg("overdue reminder failed")
		}
	})
	if err != nil {
		return fmt.Errorf("error scheduling overdue reminder: %w", err)
	}
	if r.jobID != 0 {
		r.cronScheduler.Remove(r.jobID)
	}
	r.jobID, r.schedule = id, schedule
	return nil
}

// Run performs one pass and returns how many invoices were overdue.
func (r *OverdueReminder) Run(ctx context.Context) (int, error) {
	now := r.now()
	invoices, err := FindOverdue(ctx, r.db, now)
	if err != nil {
		return 0, err
	}
	r.log.Info().Int("count", len(invoices)).Msg("overdue invoices found")
	if err := r.notifier.InvoicesOverdue(ctx, invoices, now); err != nil {
		return len(invoices), fmt.Errorf("failed to notify overdue invoices: %w", err)
	}
	return len(invoices), nil
}

// FindOverdue loads sent, unpaid invoices whose due date is before now,
// oldest first, with clients and lines preloaded.
func FindOverdue(ctx context.Context, db *gorm.DB, now time.Time) ([]Models.Invoice, error) {
	var invoices []Models.Invoice
	err := db.WithContext(ctx).
		Preload("Client").
		Preload("Lines", func(tx *gorm.DB) *gorm.DB { return tx.Order("position") }).
		Where("status = ? AND is_paid = ? AND due_date < ?", Models.InvoiceSent, false, now).
		Order("due_date").
		Find(&invoices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load overdue invoices: %w", err)
	}

	overdue := invoices[:0]
	for i := range invoices {
		if Billing.IsOverdue(&invoices[i], now) {
			overdue = append(overdue, invoices[i])
		}
	}
	return overdue, nil
}
