// Package bot is the Telegram front end of the tutor: it turns updates into
// calls on the dictionaries and the exercise engine and renders the results.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/example/derbot/internal/access"
	"github.com/example/derbot/internal/apperr"
	"github.com/example/derbot/internal/catalogue"
	"github.com/example/derbot/internal/database"
	"github.com/example/derbot/internal/dictionary"
	"github.com/example/derbot/internal/exercise"
	"github.com/example/derbot/internal/locales"
	"github.com/example/derbot/internal/session"
	"github.com/example/derbot/internal/translate"
	"github.com/example/derbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

// sender is the part of the Telegram client the bot uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Deps are the process-wide collaborators shared by every handler.
type Deps struct {
	Store        *database.Store
	Catalogue    *catalogue.Catalogue
	Dictionaries *dictionary.Service
	Engine       *exercise.Engine
	Locales      *locales.Bundle
	Translator   translate.Translator
	Logger       *slog.Logger
	// HTTPClient downloads imported documents; http.DefaultClient when nil.
	HTTPClient *http.Client
}

// Bot represents the Telegram bot application
type Bot struct {
	api        sender
	store      *database.Store
	catalogue  *catalogue.Catalogue
	dicts      *dictionary.Service
	engine     *exercise.Engine
	sessions   *session.Store
	locales    *locales.Bundle
	translator translate.Translator
	policy     access.Policy
	logger     *slog.Logger
	client     *http.Client
	now        func() time.Time
}

// New creates a new bot instance
func New(api sender, deps Deps) *Bot {
	client := deps.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	translator := deps.Translator
	if translator == nil {
		translator = translate.Noop{}
	}
	return &Bot{
		api:        api,
		store:      deps.Store,
		catalogue:  deps.Catalogue,
		dicts:      deps.Dictionaries,
		engine:     deps.Engine,
		sessions:   session.NewStore(),
		locales:    deps.Locales,
		translator: translator,
		policy:     deps.Dictionaries.Policy(),
		logger:     deps.Logger.With(slog.String("component", "bot")),
		client:     client,
		now:        time.Now,
	}
}

// request is the context of one update.
type request struct {
	ctx    context.Context
	user   *models.User
	state  *session.State
	chatID int64
	log    *slog.Logger
}

func (r *request) lang() models.Language {
	if r.user == nil || !r.user.Language.Valid() {
		return locales.Fallback
	}
	return r.user.Language
}

// Run handles updates one at a time until ctx is done or updates is closed.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes a single update. Failures are logged and turned
// into a message to the learner; they never escape.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	from, chatID := updateSource(update)
	if from == nil || from.IsBot {
		return
	}

	r := &request{
		ctx:    ctx,
		chatID: chatID,
		log: b.logger.With(
			slog.String("trace", uuid.NewString()),
			slog.Int64("user_id", from.ID)),
	}
	defer func() {
		if p := recover(); p != nil {
			r.log.ErrorContext(ctx, "handler panicked", slog.Any("panic", p), slog.String("stack", string(debug.Stack())))
			b.fail(r, apperr.New(apperr.Internal, fmt.Errorf("%v", p), "panic"))
		}
	}()

	user, err := b.store.Users.GetOrCreate(ctx, from.ID)
	if err != nil {
		b.fail(r, err)
		return
	}
	r.user = user
	r.state = b.sessions.Get(user)
	// The stored user is authoritative for the dictionary and level.
	r.state.Scope = user.Scope()
	r.state.Level = user.Level

	switch {
	case update.CallbackQuery != nil:
		err = b.handleCallback(r, update.CallbackQuery)
	case update.Message != nil:
		err = b.handleMessage(r, update.Message)
	}
	if err != nil {
		b.fail(r, err)
	}
}

func updateSource(update tgbotapi.Update) (*tgbotapi.User, int64) {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.Message == nil || cb.Message.Chat == nil {
			return nil, 0
		}
		return cb.From, cb.Message.Chat.ID
	case update.Message != nil:
		if update.Message.Chat == nil {
			return nil, 0
		}
		return update.Message.From, update.Message.Chat.ID
	}
	return nil, 0
}

// fail logs err and tells the learner what went wrong. Input errors keep the
// learner where they are; everything else leaves the current flow.
func (b *Bot) fail(r *request, err error) {
	kind := apperr.KindOf(err)
	level := slog.LevelWarn
	if kind == apperr.Internal || kind == apperr.SchemaMissing {
		level = slog.LevelError
	}
	r.log.Log(r.ctx, level, "request failed", slog.String("kind", kind.String()), slog.Any("error", err))

	if r.chatID == 0 {
		return
	}
	lang := r.lang()
	msg := tgbotapi.NewMessage(r.chatID, b.locales.T(lang, b.errorKey(r, kind)))

	switch kind {
	case apperr.Validation, apperr.Conflict, apperr.NotFound, apperr.External:
	case apperr.EmptyPool:
		b.reset(r)
		msg.ReplyMarkup = b.exerciseKeyboard(lang, r.state.Level)
	default:
		if r.state != nil {
			b.reset(r)
		}
		if r.user != nil && r.user.Language != "" {
			msg.ReplyMarkup = b.mainMenuKeyboard(lang)
		}
	}
	if _, err := b.api.Send(msg); err != nil {
		r.log.WarnContext(r.ctx, "failed to send error message", slog.Any("error", err))
	}
}

func (b *Bot) errorKey(r *request, kind apperr.Kind) string {
	switch kind {
	case apperr.Validation:
		if r.state != nil {
			switch r.state.Await {
			case session.AwaitSharedName:
				return "err_name_length"
			case session.AwaitJoinCode:
				return "err_code"
			}
		}
		return "err_validation"
	case apperr.PermissionDenied:
		return "err_permission"
	case apperr.NotFound:
		return "err_not_found"
	case apperr.EmptyPool:
		return "err_empty_pool"
	case apperr.Conflict:
		return "err_conflict"
	case apperr.External:
		return "err_external"
	}
	return "err_internal"
}

// send delivers a message that stays in the chat.
func (b *Bot) send(r *request, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m, err := b.api.Send(c)
	if err != nil {
		return m, apperr.New(apperr.External, err, "failed to send message")
	}
	return m, nil
}

// sendTracked delivers a message that belongs to the current flow and is
// deleted when the flow is cancelled.
func (b *Bot) sendTracked(r *request, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m, err := b.send(r, c)
	if err == nil {
		r.state.Track(m.MessageID)
	}
	return m, err
}

func (b *Bot) text(r *request, key string, args ...any) string {
	return b.locales.T(r.lang(), key, args...)
}

// reset cancels whatever the learner was doing and deletes its messages.
func (b *Bot) reset(r *request) {
	for _, id := range r.state.Cancel() {
		if _, err := b.api.Request(tgbotapi.NewDeleteMessage(r.chatID, id)); err != nil {
			r.log.DebugContext(r.ctx, "failed to delete message", slog.Int("message_id", id), slog.Any("error", err))
		}
	}
}

// touch records practice for the streak counter.
func (b *Bot) touch(r *request) error {
	if !r.user.Touch(b.now()) {
		return nil
	}
	return b.store.Users.Update(r.ctx, r.user)
}

// SendReminder implements the scheduler.Notifier interface
func (b *Bot) SendReminder(ctx context.Context, user models.User) error {
	msg := tgbotapi.NewMessage(user.ID, b.locales.T(user.Language, "reminder", user.Streak))
	if _, err := b.api.Send(msg); err != nil {
		return apperr.New(apperr.External, err, "failed to send reminder to %d", user.ID)
	}
	b.logger.InfoContext(ctx, "reminder sent", slog.Int64("user_id", user.ID), slog.Int("streak", user.Streak))
	return nil
}
