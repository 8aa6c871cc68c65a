package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/derbot/internal/database"
	"github.com/example/derbot/internal/translate"
	"github.com/example/derbot/pkg/models"
	"github.com/go-co-op/gocron"
)

// Defaults for the background jobs
const (
	DefaultReminderHour = 18
	DefaultFillInterval = time.Hour
	DefaultFillBatch    = 20
	dedupeAt            = "03:30"
)

// Notifier delivers streak reminders
type Notifier interface {
	SendReminder(ctx context.Context, user models.User) error
}

// Catalogue is the part of the catalogue the jobs maintain
type Catalogue interface {
	Deduplicate(ctx context.Context) (int, error)
	SetTranslation(ctx context.Context, id int64, lang models.Language, translation string) error
}

// Config tunes the jobs
type Config struct {
	ReminderHour int
	FillInterval time.Duration
	FillBatch    int
}

// Scheduler manages scheduled tasks for the application
type Scheduler struct {
	scheduler  *gocron.Scheduler
	store      *database.Store
	catalogue  Catalogue
	translator translate.Translator
	notifier   Notifier
	logger     *slog.Logger
	cfg        Config
	now        func() time.Time

	// cursors hold the last word id visited by the fill-in job per language.
	cursors map[models.Language]int64
}

// New creates a new scheduler instance
func New(store *database.Store, cat Catalogue, translator translate.Translator, notifier Notifier, logger *slog.Logger, cfg Config) *Scheduler {
	if cfg.ReminderHour < 0 || cfg.ReminderHour > 23 {
		cfg.ReminderHour = DefaultReminderHour
	}
	if cfg.FillInterval <= 0 {
		cfg.FillInterval = DefaultFillInterval
	}
	if cfg.FillBatch <= 0 {
		cfg.FillBatch = DefaultFillBatch
	}
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		store:      store,
		catalogue:  cat,
		translator: translator,
		notifier:   notifier,
		logger:     logger.With(slog.String("component", "scheduler")),
		cfg:        cfg,
		now:        time.Now,
		cursors:    make(map[models.Language]int64),
	}
}

// Start begins running all scheduled tasks
func (s *Scheduler) Start(ctx context.Context) error {
	s.scheduler.SingletonModeAll()

	if _, err := s.scheduler.Every(1).Day().At(fmt.Sprintf("%02d:00", s.cfg.ReminderHour)).Do(s.run, ctx, "reminders", s.SendReminders); err != nil {
		return fmt.Errorf("failed to schedule reminders: %w", err)
	}
	if _, err := s.scheduler.Every(s.cfg.FillInterval).Do(s.run, ctx, "fill_translations", s.FillTranslations); err != nil {
		return fmt.Errorf("failed to schedule translation fill-in: %w", err)
	}
	if _, err := s.scheduler.Every(1).Day().At(dedupeAt).Do(s.run, ctx, "deduplicate", s.catalogue.Deduplicate); err != nil {
		return fmt.Errorf("failed to schedule deduplication: %w", err)
	}

	// Start the scheduler in a non-blocking manner
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) run(ctx context.Context, name string, job func(context.Context) (int, error)) {
	start := s.now()
	n, err := job(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "job failed", slog.String("job", name), slog.Any("error", err))
		return
	}
	s.logger.InfoContext(ctx, "job finished",
		slog.String("job", name),
		slog.Int("count", n),
		slog.Duration("took", s.now().Sub(start)))
}

// SendReminders notifies every user with a running streak who has not
// practised today. It returns the number of reminders sent.
func (s *Scheduler) SendReminders(ctx context.Context) (int, error) {
	y, m, d := s.now().UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	users, err := s.store.Users.GetStreakersInactiveSince(ctx, today)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, user := range users {
		if err := s.notifier.SendReminder(ctx, user); err != nil {
			s.logger.WarnContext(ctx, "reminder failed", slog.Int64("user_id", user.ID), slog.Any("error", err))
			continue
		}
		sent++
	}
	return sent, nil
}

// FillTranslations asks the translator for missing catalogue translations,
// a bounded batch per language. Each run continues after the last word the
// previous run visited and wraps around at the end of the catalogue, so
// words the translator cannot handle do not block the rest. It returns the
// number of filled columns.
func (s *Scheduler) FillTranslations(ctx context.Context) (int, error) {
	filled := 0
	for _, lang := range models.Languages {
		words, err := s.store.Words.GetMissingTranslation(ctx, lang, s.cursors[lang], s.cfg.FillBatch)
		if err != nil {
			return filled, err
		}
		if len(words) < s.cfg.FillBatch {
			s.cursors[lang] = 0
		} else {
			s.cursors[lang] = words[len(words)-1].ID
		}
		for _, w := range words {
			if err := ctx.Err(); err != nil {
				return filled, err
			}
			tr := translate.Suggest(ctx, s.translator, s.logger, w.Word, translate.German, lang)
			if tr == "" {
				continue
			}
			if err := s.catalogue.SetTranslation(ctx, w.ID, lang, tr); err != nil {
				return filled, err
			}
			filled++
		}
	}
	return filled, nil
}
