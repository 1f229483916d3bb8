// Package reminder runs the recurring scan that reminds assignees of tasks that
// are about to fall due.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/teamtask/teamtask-api/internal/models"
	"gorm.io/gorm"
)

const (
	DefaultSchedule = "0 9 * * *"
	DefaultWindow   = 24 * time.Hour
)

// TaskStore is the part of the task repository the scan needs.
type TaskStore interface {
	FindDueForReminder(ctx context.Context, cutoff time.Time, onlyUnreminded bool) ([]models.Task, error)
	MarkReminded(ctx context.Context, id uint64, at time.Time) error
}

// UserLookup resolves assignees.
type UserLookup interface {
	FindByID(ctx context.Context, id uint64) (*models.User, error)
}

// Notifier delivers a best-effort message on the user's preferred channel.
type Notifier interface {
	Notify(user *models.User, subject, body string)
}

// Config controls when and what the scheduler scans.
type Config struct {
	// Schedule is a five field cron expression evaluated in UTC.
	Schedule string
	// Window is how far ahead of now a due date qualifies.
	Window time.Duration
	// RemindOnce stamps reminded tasks so later runs skip them until the due date changes.
	RemindOnce bool
}

// Result summarizes a single scan.
type Result struct {
	Scanned  int
	Reminded int
	Skipped  int
	Failed   int
}

// Scheduler owns the recurring trigger. It holds no global state and can be
// driven directly through RunOnce.
type Scheduler struct {
	tasks    TaskStore
	users    UserLookup
	notifier Notifier
	cfg      Config
	log      *slog.Logger
	now      func() time.Time

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// New validates the schedule and registers the scan. Nothing runs until Start.
func New(tasks TaskStore, users UserLookup, notifier Notifier, cfg Config, log *slog.Logger, opts ...Option) (*Scheduler, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}

	s := &Scheduler{
		tasks:    tasks,
		users:    users,
		notifier: notifier,
		cfg:      cfg,
		log:      log.With("component", "reminder"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	cronLog := cron.PrintfLogger(slog.NewLogLogger(s.log.Handler(), slog.LevelInfo))
	s.cron = cron.New(
		cron.WithLocation(time.UTC),
		cron.WithLogger(cronLog),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if _, err := s.cron.AddFunc(cfg.Schedule, s.run); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", cfg.Schedule, err)
	}

	return s, nil
}

// Start begins firing on the schedule in the background.
func (s *Scheduler) Start() {
	s.log.Info("reminder scheduler started",
		"schedule", s.cfg.Schedule, "window", s.cfg.Window.String(), "remind_once", s.cfg.RemindOnce)
	s.cron.Start()
}

// Stop prevents further runs and waits for a running scan to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	var err error
	s.once.Do(func() {
		done := s.cron.Stop()
		select {
		case <-done.Done():
		case <-ctx.Done():
			err = ctx.Err()
		}
		s.cancel()
		s.log.Info("reminder scheduler stopped")
	})
	return err
}

func (s *Scheduler) run() {
	result, err := s.RunOnce(s.ctx)
	if err != nil {
		s.log.Error("reminder scan aborted", "error", err)
		return
	}
	s.log.Info("reminder scan finished",
		"scanned", result.Scanned, "reminded", result.Reminded,
		"skipped", result.Skipped, "failed", result.Failed)
}

// RunOnce performs a single scan. Per-task failures are logged and counted; only
// a failing task query aborts the scan.
func (s *Scheduler) RunOnce(ctx context.Context) (Result, error) {
	var result Result

	now := s.now().UTC()
	tasks, err := s.tasks.FindDueForReminder(ctx, now.Add(s.cfg.Window), s.cfg.RemindOnce)
	if err != nil {
		return result, fmt.Errorf("failed to query due tasks: %w", err)
	}
	result.Scanned = len(tasks)

	for i := range tasks {
		switch err := s.remind(ctx, &tasks[i], now); {
		case err == nil:
			result.Reminded++
		case errors.Is(err, errSkipped):
			result.Skipped++
		default:
			result.Failed++
			s.log.ErrorContext(ctx, "reminder failed", "task_id", tasks[i].ID, "error", err)
		}
	}

	return result, nil
}

var errSkipped = errors.New("no assignee to remind")

func (s *Scheduler) remind(ctx context.Context, task *models.Task, now time.Time) error {
	if task.AssignedTo == nil {
		return errSkipped
	}

	user, err := s.users.FindByID(ctx, *task.AssignedTo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errSkipped
		}
		return fmt.Errorf("failed to find assignee %d: %w", *task.AssignedTo, err)
	}

	s.notifier.Notify(user, "Task Due", Body(task))

	// Stamped once the send is queued. Delivery is best-effort, so a failed
	// async send is logged by the dispatcher and not retried.
	if s.cfg.RemindOnce {
		if err := s.tasks.MarkReminded(ctx, task.ID, now); err != nil {
			return fmt.Errorf("failed to mark task reminded: %w", err)
		}
	}
	return nil
}

// Body renders the reminder text for a task.
func Body(task *models.Task) string {
	due := "unknown"
	if task.DueDate != nil {
		due = task.DueDate.UTC().Format(time.RFC1123)
	}
	return fmt.Sprintf("Task Due on %s, Title: %s", due, task.Title)
}
