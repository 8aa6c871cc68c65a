package bot

import (
	"log/slog"

	"github.com/example/derbot/internal/apperr"
	"github.com/example/derbot/internal/exercise"
	"github.com/example/derbot/internal/session"
	"github.com/example/derbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallback(r *request, cb *tgbotapi.CallbackQuery) error {
	// Always answer the callback query to remove the loading state
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		r.log.WarnContext(r.ctx, "failed to answer callback", slog.Any("error", err))
	}
	if r.user.Language == "" {
		return b.askLanguage(r)
	}

	c := decodeCallback(cb.Data)
	msgID := cb.Message.MessageID
	switch c.action {
	case actLevel:
		b.reset(r)
		if c.arg(0) == "" {
			return b.showLevels(r)
		}
		return b.selectLevel(r, c.arg(0))
	case actExercise:
		kind, ok := exercise.ParseKind(c.arg(0))
		if !ok || !exercise.Offered(r.state.Level, kind) {
			return apperr.New(apperr.Validation, nil, "exercise %q not offered at %s", c.arg(0), r.state.Level)
		}
		b.reset(r)
		return b.deal(r, kind)
	case actChoose:
		return b.answerChoice(r, c, msgID)
	case actMatch:
		return b.answerMatch(r, c, msgID)
	case actDict:
		return b.handleDictCallback(r, c)
	case actAdd:
		if r.state.Await != session.AwaitTranslation || r.state.Draft == nil || r.state.Draft.Translation == "" {
			return nil
		}
		return b.saveDraft(r, r.state.Draft.Translation)
	case actWords:
		page, _ := c.int(0)
		b.reset(r)
		return b.showWords(r, page)
	case actWord, actEdit, actRemove:
		id, ok := c.int64(0)
		if !ok {
			return nil
		}
		switch c.action {
		case actEdit:
			return b.startEditTranslation(r, id)
		case actRemove:
			return b.removeWord(r, id)
		}
		return b.showWord(r, id)
	}
	return nil
}

func (b *Bot) showLevels(r *request) error {
	msg := tgbotapi.NewMessage(r.chatID, b.text(r, "choose_level"))
	msg.ReplyMarkup = b.levelKeyboard(r.lang())
	_, err := b.sendTracked(r, msg)
	return err
}

func (b *Bot) selectLevel(r *request, s string) error {
	level, err := models.ParseLevel(s)
	if err != nil {
		return apperr.New(apperr.Validation, err, "bad level")
	}
	if level != r.user.Level {
		r.user.Level = level
		if err := b.store.Users.Update(r.ctx, r.user); err != nil {
			return err
		}
	}
	r.state.Level = level

	msg := tgbotapi.NewMessage(r.chatID, b.text(r, "choose_exercise", b.text(r, "level_"+level.String())))
	msg.ReplyMarkup = b.exerciseKeyboard(r.lang(), level)
	_, err = b.sendTracked(r, msg)
	return err
}

// deal starts a new round of kind.
func (b *Bot) deal(r *request, kind exercise.Kind) error {
	round, err := b.engine.Next(r.ctx, exercise.Request{
		Kind:       kind,
		Scope:      r.state.Scope,
		Lang:       r.lang(),
		Level:      r.state.Level,
		LastWordID: r.state.LastWordID,
	})
	if err != nil {
		return err
	}
	r.state.Begin(round)

	msg := tgbotapi.NewMessage(r.chatID, b.roundText(r, round))
	msg.ReplyMarkup = b.roundKeyboard(r.lang(), r.state.Seq, round)
	_, err = b.sendTracked(r, msg)
	return err
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

func (b *Bot) roundText(r *request, round *exercise.Round) string {
	switch round.Kind {
	case exercise.MatchPairs:
		return b.text(r, "prompt_match") + "\n" + b.text(r, "match_progress", round.Board.FoundCount(), len(round.Board.Left))
	case exercise.Choice:
		return b.text(r, "prompt_choice", round.Prompt)
	case exercise.ArticleChoice:
		return b.text(r, "prompt_article", round.Prompt, orDash(round.Hint))
	case exercise.Spelling:
		return b.text(r, "prompt_spelling", round.Prompt)
	case exercise.Blanks:
		return b.text(r, "prompt_blanks", round.Prompt, orDash(round.Hint))
	case exercise.TypedWord:
		return b.text(r, "prompt_typed_word", round.Prompt)
	case exercise.TypedArticle:
		return b.text(r, "prompt_typed_article", round.Prompt, orDash(round.Hint))
	case exercise.Possessive:
		pronoun, caseName := possessiveLabel(round.Possessive)
		return b.text(r, "prompt_possessive", pronoun, caseName, round.Word.Display(), orDash(round.Hint))
	}
	return round.Prompt
}

// current returns the round in flight if seq still names it.
func (r *request) current(seq int, ok bool) *exercise.Round {
	if !ok || r.state.Round == nil || r.state.Round.Done || seq != r.state.Seq {
		return nil
	}
	return r.state.Round
}

func (b *Bot) answerChoice(r *request, c callback, msgID int) error {
	round := r.current(c.int(0))
	option, ok := c.int(1)
	if round == nil || !ok {
		return nil
	}
	res, err := b.engine.Choose(r.ctx, round, option)
	if err != nil {
		return err
	}
	return b.afterGrade(r, round, res, msgID)
}

func (b *Bot) answerTyped(r *request, text string) error {
	round := r.state.Round
	if round == nil {
		return b.showMainMenu(r, "unknown_input")
	}
	res, err := b.engine.Type(r.ctx, round, text)
	if err != nil {
		return err
	}
	return b.afterGrade(r, round, res, 0)
}

// afterGrade reports a graded answer and deals the next round once the
// current one is finished.
func (b *Bot) afterGrade(r *request, round *exercise.Round, res exercise.Result, msgID int) error {
	if res.Outcome == exercise.Ignored {
		return nil
	}
	r.log.DebugContext(r.ctx, "answer graded",
		slog.String("exercise", string(round.Kind)),
		slog.String("outcome", res.Outcome.String()),
		slog.Int64("word_id", res.WordID),
		slog.Float64("rating", res.Rating))
	if err := b.touch(r); err != nil {
		return err
	}

	if res.Outcome == exercise.Retry {
		if msgID != 0 {
			b.edit(r, tgbotapi.NewEditMessageReplyMarkup(r.chatID, msgID, b.roundKeyboard(r.lang(), r.state.Seq, round)))
		}
		_, err := b.sendTracked(r, tgbotapi.NewMessage(r.chatID, b.text(r, "wrong_retry", round.Remaining())))
		return err
	}

	if msgID != 0 {
		b.edit(r, tgbotapi.NewEditMessageReplyMarkup(r.chatID, msgID, emptyKeyboard()))
	}
	text := b.text(r, "correct")
	if res.Outcome == exercise.Revealed {
		text = b.text(r, "revealed", solution(round))
	}
	if _, err := b.sendTracked(r, tgbotapi.NewMessage(r.chatID, text)); err != nil {
		return err
	}
	r.state.Settle()
	return b.deal(r, round.Kind)
}

// solution is what the learner is shown after the last failed attempt.
func solution(round *exercise.Round) string {
	switch round.Kind {
	case exercise.Blanks, exercise.TypedWord, exercise.TypedArticle:
		return round.Word.Display()
	case exercise.Possessive:
		return round.Expected + " " + round.Word.Word
	}
	return round.Expected
}

func (b *Bot) answerMatch(r *request, c callback, msgID int) error {
	round := r.current(c.int(1))
	idx, ok := c.int(2)
	if round == nil || round.Board == nil || !ok {
		return nil
	}

	var (
		res exercise.Result
		err error
	)
	switch c.arg(0) {
	case "l":
		res = b.engine.PickLeft(round, idx)
	case "r":
		res, err = b.engine.PickRight(r.ctx, round, idx)
	}
	if err != nil {
		return err
	}

	switch res.Outcome {
	case exercise.Ignored:
		return nil
	case exercise.Selected:
		b.edit(r, tgbotapi.NewEditMessageReplyMarkup(r.chatID, msgID, b.roundKeyboard(r.lang(), r.state.Seq, round)))
		return nil
	}

	if err := b.touch(r); err != nil {
		return err
	}
	text := b.roundText(r, round)
	switch res.Outcome {
	case exercise.Mismatch:
		text += "\n\n" + b.text(r, "match_mismatch")
	case exercise.Completed:
		b.edit(r, tgbotapi.NewEditMessageTextAndMarkup(r.chatID, msgID, text, emptyKeyboard()))
		if _, err := b.sendTracked(r, tgbotapi.NewMessage(r.chatID, b.text(r, "match_complete"))); err != nil {
			return err
		}
		r.state.Settle()
		return b.deal(r, exercise.MatchPairs)
	}
	b.edit(r, tgbotapi.NewEditMessageTextAndMarkup(r.chatID, msgID, text, b.roundKeyboard(r.lang(), r.state.Seq, round)))
	return nil
}

// edit updates a message in place. Failures only cost the visual update.
func (b *Bot) edit(r *request, c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		r.log.DebugContext(r.ctx, "failed to edit message", slog.Any("error", err))
	}
}
