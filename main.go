package main

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/derbot/internal/access"
	"github.com/example/derbot/internal/bot"
	"github.com/example/derbot/internal/catalogue"
	"github.com/example/derbot/internal/config"
	"github.com/example/derbot/internal/database"
	"github.com/example/derbot/internal/dictionary"
	"github.com/example/derbot/internal/exercise"
	"github.com/example/derbot/internal/grammar"
	"github.com/example/derbot/internal/locales"
	"github.com/example/derbot/internal/nouns"
	"github.com/example/derbot/internal/scheduler"
	"github.com/example/derbot/internal/translate"
	"github.com/example/derbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("bot stopped with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("bot stopped successfully")
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("connected to database", slog.String("driver", store.DriverName()))

	texts, err := locales.Load(cfg.LocalesDir)
	if err != nil {
		return err
	}
	for _, lang := range models.Languages {
		if missing := texts.Missing(lang); len(missing) > 0 {
			logger.Warn("untranslated interface texts", slog.String("language", string(lang)), slog.Any("keys", missing))
		}
	}

	var cat *catalogue.Catalogue
	if cfg.NounsFile != "" {
		index, err := nouns.Load(cfg.NounsFile)
		if err != nil {
			return err
		}
		logger.Info("noun list loaded", slog.Int("nouns", index.Len()))
		cat = catalogue.New(store, index)
	} else {
		cat = catalogue.New(store, nil)
	}

	merged, err := cat.Deduplicate(ctx)
	if err != nil {
		return err
	}
	if merged > 0 {
		logger.Info("merged duplicate catalogue entries", slog.Int("removed", merged))
	}

	dicts := dictionary.New(store, cat, access.Policy{AdminID: cfg.AdminID}, dictionary.Options{SampleWindow: cfg.SampleWindow})

	forms, err := store.Grammar.Forms(ctx)
	if err != nil {
		return err
	}
	engine := exercise.NewEngine(dicts, dicts, grammar.NewTables(forms), rand.New(rand.NewSource(time.Now().UnixNano())))

	var translator translate.Translator = translate.Noop{}
	if cfg.OpenAI.APIKey != "" {
		chat, err := translate.New(translate.Config{APIKey: cfg.OpenAI.APIKey, Model: cfg.OpenAI.Model, URL: cfg.OpenAI.URL})
		if err != nil {
			return err
		}
		translator = chat
	} else {
		logger.Info("OPENAI_API_KEY not set, translation suggestions disabled")
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return err
	}
	logger.Info("authorized on account", slog.String("username", api.Self.UserName))

	b := bot.New(api, bot.Deps{
		Store:        store,
		Catalogue:    cat,
		Dictionaries: dicts,
		Engine:       engine,
		Locales:      texts,
		Translator:   translator,
		Logger:       logger,
	})

	if cfg.EnableScheduler {
		s := scheduler.New(store, cat, translator, b, logger, scheduler.Config{
			ReminderHour: cfg.ReminderHour,
			FillInterval: cfg.FillInterval,
		})
		if err := s.Start(ctx); err != nil {
			return err
		}
		defer s.Stop()
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	logger.Info("bot started, press Ctrl+C to stop")
	b.Run(ctx, updates)
	api.StopReceivingUpdates()
	return nil
}
