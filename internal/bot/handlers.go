package bot

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/derbot/internal/apperr"
	"github.com/example/derbot/internal/catalogue"
	"github.com/example/derbot/internal/excel"
	"github.com/example/derbot/internal/session"
	"github.com/example/derbot/internal/translate"
	"github.com/example/derbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// wordsPerPage is the page size of the word list.
const wordsPerPage = 10

func (b *Bot) handleMessage(r *request, message *tgbotapi.Message) error {
	if message.IsCommand() {
		return b.handleCommand(r, message)
	}
	if message.Document != nil {
		return b.handleDocument(r, message)
	}

	text := strings.TrimSpace(message.Text)
	if lang, ok := models.LanguageByLabel(text); ok {
		return b.setLanguage(r, lang)
	}
	if r.user.Language == "" {
		return b.askLanguage(r)
	}
	if key, ok := b.locales.Key(r.user.Language, text, flatKeys(mainMenuKeys)...); ok {
		b.reset(r)
		return b.navigate(r, key)
	}

	if r.state.Await != session.AwaitNone {
		r.state.Track(message.MessageID)
	}
	switch r.state.Await {
	case session.AwaitHeadword:
		return b.receiveHeadword(r, text)
	case session.AwaitTranslation:
		return b.receiveTranslation(r, text)
	case session.AwaitSharedName:
		return b.createShared(r, text)
	case session.AwaitJoinCode:
		return b.joinShared(r, text)
	case session.AwaitAnswer:
		return b.answerTyped(r, text)
	}
	return b.showMainMenu(r, "unknown_input")
}

// handleCommand dispatches slash commands
func (b *Bot) handleCommand(r *request, message *tgbotapi.Message) error {
	switch message.Command() {
	case "start":
		if r.user.Language == "" {
			return b.askLanguage(r)
		}
		b.reset(r)
		return b.showMainMenu(r, "main_menu")
	case "language":
		b.reset(r)
		return b.askLanguage(r)
	case "menu":
		b.reset(r)
		return b.showMainMenu(r, "main_menu")
	case "cancel":
		b.reset(r)
		return b.showMainMenu(r, "cancelled")
	case "stats":
		b.reset(r)
		return b.showStats(r)
	}
	return b.showMainMenu(r, "unknown_input")
}

func (b *Bot) navigate(r *request, key string) error {
	switch key {
	case "btn_practice":
		return b.showLevels(r)
	case "btn_add_word":
		return b.startAddWord(r)
	case "btn_dictionary":
		return b.showDictionaries(r)
	case "btn_my_words":
		return b.showWords(r, 0)
	case "btn_stats":
		return b.showStats(r)
	case "btn_language":
		return b.askLanguage(r)
	}
	return b.showMainMenu(r, "unknown_input")
}

func (b *Bot) askLanguage(r *request) error {
	msg := tgbotapi.NewMessage(r.chatID, b.text(r, "choose_language"))
	msg.ReplyMarkup = languageKeyboard()
	_, err := b.send(r, msg)
	return err
}

func (b *Bot) setLanguage(r *request, lang models.Language) error {
	r.user.Language = lang
	if err := b.store.Users.Update(r.ctx, r.user); err != nil {
		return err
	}
	r.log.InfoContext(r.ctx, "language selected", slog.String("language", string(lang)))
	b.reset(r)

	msg := tgbotapi.NewMessage(r.chatID, b.text(r, "language_set")+"\n\n"+b.text(r, "main_menu"))
	msg.ReplyMarkup = b.mainMenuKeyboard(lang)
	_, err := b.send(r, msg)
	return err
}

// showMainMenu shows the main menu
func (b *Bot) showMainMenu(r *request, key string, args ...any) error {
	if r.user.Language == "" {
		return b.askLanguage(r)
	}
	msg := tgbotapi.NewMessage(r.chatID, b.text(r, key, args...))
	msg.ReplyMarkup = b.mainMenuKeyboard(r.user.Language)
	_, err := b.send(r, msg)
	return err
}

// prompt asks for free text and registers what it will be read as.
func (b *Bot) prompt(r *request, await session.Await, text string, markup any) error {
	msg := tgbotapi.NewMessage(r.chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.sendTracked(r, msg); err != nil {
		return err
	}
	r.state.Expect(await)
	return nil
}

func (b *Bot) startAddWord(r *request) error {
	ok, err := b.dicts.CanWrite(r.ctx, r.state.Scope)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.New(apperr.PermissionDenied, nil, "user %d cannot add to %s", r.user.ID, r.state.Scope)
	}
	return b.prompt(r, session.AwaitHeadword, b.text(r, "ask_headword"), nil)
}

func (b *Bot) receiveHeadword(r *request, text string) error {
	word, article := catalogue.Normalize(text, "")
	if word == "" {
		return apperr.New(apperr.Validation, nil, "empty headword")
	}
	display := strings.TrimSpace(article + " " + word)
	r.state.Draft = &session.Draft{Headword: word, Article: article}

	suggestion, err := b.suggestTranslation(r, word, display)
	if err != nil {
		return err
	}
	if suggestion == "" {
		return b.prompt(r, session.AwaitTranslation, b.text(r, "ask_translation", display), nil)
	}

	r.state.Draft.Translation = suggestion
	confirm := createKeyboard([][]MenuButton{{{Text: b.text(r, "btn_confirm"), CallbackData: encodeCallback(actAdd, "ok")}}})
	return b.prompt(r, session.AwaitTranslation, b.text(r, "suggest_translation", display, suggestion), confirm)
}

// suggestTranslation prefers the catalogue's translation and asks the
// translation provider otherwise.
func (b *Bot) suggestTranslation(r *request, word, display string) (string, error) {
	id, found, err := b.catalogue.ByHeadword(r.ctx, word)
	if err != nil {
		return "", err
	}
	if found {
		tr, err := b.catalogue.TranslationFor(r.ctx, id, r.user.Language)
		if err != nil {
			return "", err
		}
		if tr != "" {
			return tr, nil
		}
	}
	return translate.Suggest(r.ctx, b.translator, r.log, display, translate.German, r.user.Language), nil
}

func (b *Bot) receiveTranslation(r *request, text string) error {
	if r.state.EditWordID != 0 {
		return b.updateTranslation(r, text)
	}
	return b.saveDraft(r, text)
}

func (b *Bot) saveDraft(r *request, translation string) error {
	draft := r.state.Draft
	if draft == nil {
		return b.showMainMenu(r, "unknown_input")
	}
	translation = strings.TrimSpace(translation)
	if translation == "" {
		return apperr.New(apperr.Validation, nil, "empty translation")
	}

	_, created, err := b.dicts.AddWord(r.ctx, r.state.Scope, draft.Headword, translation, r.user.Language, draft.Article)
	if err != nil {
		return err
	}
	display := strings.TrimSpace(draft.Article + " " + draft.Headword)
	r.log.InfoContext(r.ctx, "word added", slog.String("word", display), slog.Bool("created", created))

	r.state.Draft = nil
	text := b.text(r, "word_added", display, translation)
	if !created {
		text = b.text(r, "word_exists", display)
	}
	return b.prompt(r, session.AwaitHeadword, text, nil)
}

func (b *Bot) updateTranslation(r *request, translation string) error {
	id := r.state.EditWordID
	if err := b.dicts.UpdateTranslation(r.ctx, r.state.Scope, id, r.user.Language, translation); err != nil {
		return err
	}
	w, err := b.catalogue.Lookup(r.ctx, id)
	if err != nil {
		return err
	}
	b.reset(r)
	msg := tgbotapi.NewMessage(r.chatID, b.text(r, "translation_updated", wordDisplay(w), strings.TrimSpace(translation)))
	msg.ReplyMarkup = createKeyboard([][]MenuButton{{{Text: b.text(r, "btn_back"), CallbackData: encodeCallback(actWords, 0)}}})
	_, err = b.send(r, msg)
	return err
}

func wordDisplay(w *models.Word) string {
	if a := w.Article(); a != "" {
		return a + " " + w.Word
	}
	return w.Word
}

func (b *Bot) scopeName(r *request, scope models.Scope) (string, error) {
	switch scope.Flavour {
	case models.FlavourGlobal:
		return b.text(r, "dict_global"), nil
	case models.FlavourShared:
		d, err := b.dicts.Shared(r.ctx, scope.SharedID)
		if err != nil {
			return "", err
		}
		return "👥 " + d.Name, nil
	}
	return b.text(r, "dict_personal"), nil
}

func (b *Bot) showDictionaries(r *request) error {
	name, err := b.scopeName(r, r.state.Scope)
	if err != nil {
		return err
	}
	text := b.text(r, "choose_dictionary", name)

	shared, err := b.dicts.SharedOf(r.ctx, r.user.ID)
	if err != nil {
		return err
	}
	rows := [][]MenuButton{{
		{Text: b.text(r, "dict_personal"), CallbackData: encodeCallback(actDict, "p")},
		{Text: b.text(r, "dict_global"), CallbackData: encodeCallback(actDict, "g")},
	}}
	for _, d := range shared {
		rows = append(rows, []MenuButton{{Text: "👥 " + d.Name, CallbackData: encodeCallback(actDict, "s", d.ID)}})
		if r.state.Scope.Flavour == models.FlavourShared && r.state.Scope.SharedID == d.ID {
			text += "\n" + b.text(r, "shared_code", d.Code)
			if d.CreatorID != r.user.ID {
				rows = append(rows, []MenuButton{{Text: b.text(r, "btn_leave_shared"), CallbackData: encodeCallback(actDict, "leave", d.ID)}})
			}
		}
	}
	rows = append(rows, []MenuButton{
		{Text: b.text(r, "btn_create_shared"), CallbackData: encodeCallback(actDict, "new")},
		{Text: b.text(r, "btn_join_shared"), CallbackData: encodeCallback(actDict, "join")},
	})

	msg := tgbotapi.NewMessage(r.chatID, text)
	msg.ReplyMarkup = createKeyboard(rows)
	_, err = b.sendTracked(r, msg)
	return err
}

func (b *Bot) handleDictCallback(r *request, c callback) error {
	switch c.arg(0) {
	case "p":
		return b.selectScope(r, models.PersonalScope(r.user.ID))
	case "g":
		return b.selectScope(r, models.GlobalScope(r.user.ID))
	case "s":
		id, ok := c.int64(1)
		if !ok {
			return apperr.New(apperr.Validation, nil, "bad dictionary id %q", c.arg(1))
		}
		return b.selectScope(r, models.SharedScope(r.user.ID, id))
	case "new":
		b.reset(r)
		return b.prompt(r, session.AwaitSharedName, b.text(r, "ask_shared_name"), nil)
	case "join":
		b.reset(r)
		return b.prompt(r, session.AwaitJoinCode, b.text(r, "ask_join_code"), nil)
	case "leave":
		id, ok := c.int64(1)
		if !ok {
			return apperr.New(apperr.Validation, nil, "bad dictionary id %q", c.arg(1))
		}
		return b.leaveShared(r, id)
	}
	return nil
}

func (b *Bot) selectScope(r *request, scope models.Scope) error {
	if err := b.dicts.Select(r.ctx, r.user, scope); err != nil {
		return err
	}
	r.state.Scope = r.user.Scope()
	b.reset(r)

	name, err := b.scopeName(r, r.state.Scope)
	if err != nil {
		return err
	}
	return b.showMainMenu(r, "dictionary_selected", name)
}

func (b *Bot) createShared(r *request, name string) error {
	d, err := b.dicts.CreateShared(r.ctx, r.user.ID, name)
	if err != nil {
		return err
	}
	r.log.InfoContext(r.ctx, "shared dictionary created", slog.Int64("dict_id", d.ID))
	if err := b.dicts.Select(r.ctx, r.user, models.SharedScope(r.user.ID, d.ID)); err != nil {
		return err
	}
	r.state.Scope = r.user.Scope()
	b.reset(r)
	return b.showMainMenu(r, "shared_created", d.Name, d.Code)
}

func (b *Bot) joinShared(r *request, code string) error {
	d, err := b.dicts.JoinShared(r.ctx, r.user.ID, code)
	if err != nil {
		return err
	}
	r.log.InfoContext(r.ctx, "shared dictionary joined", slog.Int64("dict_id", d.ID))
	if err := b.dicts.Select(r.ctx, r.user, models.SharedScope(r.user.ID, d.ID)); err != nil {
		return err
	}
	r.state.Scope = r.user.Scope()
	b.reset(r)
	return b.showMainMenu(r, "shared_joined", d.Name)
}

func (b *Bot) leaveShared(r *request, dictID int64) error {
	d, err := b.dicts.Shared(r.ctx, dictID)
	if err != nil {
		return err
	}
	if err := b.dicts.LeaveShared(r.ctx, r.user.ID, dictID); err != nil {
		return err
	}
	user, err := b.store.Users.GetByID(r.ctx, r.user.ID)
	if err != nil {
		return err
	}
	r.user = user
	r.state.Scope = user.Scope()
	b.reset(r)
	return b.showMainMenu(r, "shared_left", d.Name)
}

func (b *Bot) showWords(r *request, page int) error {
	entries, err := b.dicts.ListWords(r.ctx, r.state.Scope, r.user.Language)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		_, err := b.sendTracked(r, tgbotapi.NewMessage(r.chatID, b.text(r, "words_empty")))
		return err
	}

	pages := (len(entries) + wordsPerPage - 1) / wordsPerPage
	page = max(0, min(page, pages-1))
	name, err := b.scopeName(r, r.state.Scope)
	if err != nil {
		return err
	}

	var rows [][]MenuButton
	for _, e := range entries[page*wordsPerPage : min(len(entries), (page+1)*wordsPerPage)] {
		label := e.Display()
		if e.Translation != "" {
			label += " — " + e.Translation
		}
		rows = append(rows, []MenuButton{{Text: label, CallbackData: encodeCallback(actWord, e.WordID)}})
	}
	var nav []MenuButton
	if page > 0 {
		nav = append(nav, MenuButton{Text: b.text(r, "btn_prev_page"), CallbackData: encodeCallback(actWords, page-1)})
	}
	if page < pages-1 {
		nav = append(nav, MenuButton{Text: b.text(r, "btn_next_page"), CallbackData: encodeCallback(actWords, page+1)})
	}
	if len(nav) > 0 {
		rows = append(rows, nav)
	}

	msg := tgbotapi.NewMessage(r.chatID, b.text(r, "words_header", name, len(entries), page+1, pages))
	msg.ReplyMarkup = createKeyboard(rows)
	_, err = b.sendTracked(r, msg)
	return err
}

func (b *Bot) showWord(r *request, wordID int64) error {
	entries, err := b.dicts.ListWords(r.ctx, r.state.Scope, r.user.Language)
	if err != nil {
		return err
	}
	var entry *models.Entry
	for i := range entries {
		if entries[i].WordID == wordID {
			entry = &entries[i]
			break
		}
	}
	if entry == nil {
		return apperr.New(apperr.NotFound, nil, "word %d not in %s", wordID, r.state.Scope)
	}

	canWrite, err := b.dicts.CanWrite(r.ctx, r.state.Scope)
	if err != nil {
		return err
	}
	var rows [][]MenuButton
	if canWrite {
		rows = append(rows, []MenuButton{
			{Text: b.text(r, "btn_edit_translation"), CallbackData: encodeCallback(actEdit, wordID)},
			{Text: b.text(r, "btn_remove"), CallbackData: encodeCallback(actRemove, wordID)},
		})
	}
	rows = append(rows, []MenuButton{{Text: b.text(r, "btn_back"), CallbackData: encodeCallback(actWords, 0)}})

	msg := tgbotapi.NewMessage(r.chatID, b.text(r, "word_card", entry.Display(), entry.Translation, entry.Rating))
	msg.ReplyMarkup = createKeyboard(rows)
	_, err = b.sendTracked(r, msg)
	return err
}

func (b *Bot) startEditTranslation(r *request, wordID int64) error {
	w, err := b.catalogue.Lookup(r.ctx, wordID)
	if err != nil {
		return err
	}
	r.state.EditWordID = wordID
	return b.prompt(r, session.AwaitTranslation, b.text(r, "ask_new_translation", wordDisplay(w)), nil)
}

func (b *Bot) removeWord(r *request, wordID int64) error {
	w, err := b.catalogue.Lookup(r.ctx, wordID)
	if err != nil {
		return err
	}
	if err := b.dicts.RemoveWord(r.ctx, r.state.Scope, wordID, r.user.Language); err != nil {
		return err
	}
	r.log.InfoContext(r.ctx, "word removed", slog.Int64("word_id", wordID))
	b.reset(r)
	if _, err := b.send(r, tgbotapi.NewMessage(r.chatID, b.text(r, "word_removed", wordDisplay(w)))); err != nil {
		return err
	}
	return b.showWords(r, 0)
}

func (b *Bot) showStats(r *request) error {
	stats, err := b.dicts.Stats(r.ctx, r.state.Scope, r.user.Language)
	if err != nil {
		return err
	}
	name, err := b.scopeName(r, r.state.Scope)
	if err != nil {
		return err
	}
	text := b.text(r, "stats", name, stats.Total, stats.Mastered, stats.AverageRating, r.user.Streak)

	if b.policy.IsAdmin(r.user.ID) {
		sys, err := b.store.Stats.System(r.ctx)
		if err != nil {
			return err
		}
		text += "\n\n" + b.text(r, "stats_system", sys.Users, sys.Words, sys.Shared)
	}
	msg := tgbotapi.NewMessage(r.chatID, text)
	msg.ReplyMarkup = b.mainMenuKeyboard(r.lang())
	_, err = b.send(r, msg)
	return err
}

// handleDocument imports a word list sent by the administrator into the
// catalogue, with translations into the administrator's language.
func (b *Bot) handleDocument(r *request, message *tgbotapi.Message) error {
	if !b.policy.IsAdmin(r.user.ID) {
		return b.showMainMenu(r, "unknown_input")
	}
	doc := message.Document

	rows, err := b.download(r, doc)
	if err != nil {
		r.log.WarnContext(r.ctx, "import failed", slog.String("file", doc.FileName), slog.Any("error", err))
		return b.showMainMenu(r, "import_failed")
	}

	result, err := excel.ImportWords(r.ctx, rows, excel.DefaultImportConfig(), b.catalogue, r.lang())
	if err != nil {
		return err
	}
	r.log.InfoContext(r.ctx, "words imported",
		slog.String("file", doc.FileName),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped))
	for _, e := range result.Errors {
		r.log.DebugContext(r.ctx, "row skipped", slog.String("reason", e))
	}
	return b.showMainMenu(r, "import_done", result.TotalProcessed, result.Imported, result.Skipped)
}

func (b *Bot) download(r *request, doc *tgbotapi.Document) ([][]string, error) {
	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file URL: %w", err)
	}
	req, err := http.NewRequestWithContext(r.ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download file: status %d", resp.StatusCode)
	}
	return excel.ReadRows(resp.Body, doc.FileName, "")
}
