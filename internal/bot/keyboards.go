package bot

import (
	"github.com/example/derbot/internal/exercise"
	"github.com/example/derbot/internal/grammar"
	"github.com/example/derbot/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// MenuButton represents a button in an inline menu
type MenuButton struct {
	Text         string
	CallbackData string
}

// createKeyboard creates a keyboard from menu buttons
func createKeyboard(buttons [][]MenuButton) tgbotapi.InlineKeyboardMarkup {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, row := range buttons {
		var keyboardRow []tgbotapi.InlineKeyboardButton
		for _, button := range row {
			keyboardRow = append(keyboardRow, tgbotapi.NewInlineKeyboardButtonData(button.Text, button.CallbackData))
		}
		keyboard = append(keyboard, keyboardRow)
	}
	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

// emptyKeyboard removes the inline buttons of an edited message.
func emptyKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
}

func createReplyKeyboard(labels [][]string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(labels))
	for _, row := range labels {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, l := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(l))
		}
		rows = append(rows, buttons)
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

// mainMenuKeys are the reply-keyboard entries of the main menu, by row.
var mainMenuKeys = [][]string{
	{"btn_practice", "btn_add_word"},
	{"btn_dictionary", "btn_my_words"},
	{"btn_stats", "btn_language"},
}

func flatKeys(rows [][]string) []string {
	var out []string
	for _, r := range rows {
		out = append(out, r...)
	}
	return out
}

func languageKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]string
	for i := 0; i < len(models.Languages); i += 2 {
		row := []string{models.Languages[i].Label()}
		if i+1 < len(models.Languages) {
			row = append(row, models.Languages[i+1].Label())
		}
		rows = append(rows, row)
	}
	return createReplyKeyboard(rows)
}

func (b *Bot) mainMenuKeyboard(lang models.Language) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]string, len(mainMenuKeys))
	for i, keys := range mainMenuKeys {
		for _, k := range keys {
			rows[i] = append(rows[i], b.locales.T(lang, k))
		}
	}
	return createReplyKeyboard(rows)
}

func (b *Bot) levelKeyboard(lang models.Language) tgbotapi.InlineKeyboardMarkup {
	row := make([]MenuButton, 0, len(models.Levels))
	for _, l := range models.Levels {
		row = append(row, MenuButton{Text: b.locales.T(lang, "level_"+l.String()), CallbackData: encodeCallback(actLevel, l.String())})
	}
	return createKeyboard([][]MenuButton{row})
}

func (b *Bot) exerciseKeyboard(lang models.Language, level models.Level) tgbotapi.InlineKeyboardMarkup {
	var rows [][]MenuButton
	for _, k := range exercise.KindsFor(level) {
		rows = append(rows, []MenuButton{{Text: b.locales.T(lang, "ex_"+string(k)), CallbackData: encodeCallback(actExercise, string(k))}})
	}
	rows = append(rows, []MenuButton{{Text: b.locales.T(lang, "btn_back"), CallbackData: encodeCallback(actLevel)}})
	return createKeyboard(rows)
}

// roundKeyboard renders the buttons of a tapped exercise. Options already
// tapped wrongly are crossed out but keep their data; the engine ignores
// them.
func (b *Bot) roundKeyboard(lang models.Language, seq int, r *exercise.Round) tgbotapi.InlineKeyboardMarkup {
	var rows [][]MenuButton
	switch {
	case r.Board != nil:
		rows = matchRows(seq, r.Board)
	case len(r.Options) > 0:
		perRow := 1
		switch r.Kind {
		case exercise.ArticleChoice:
			perRow = len(r.Options)
		case exercise.Spelling, exercise.Possessive:
			perRow = 2
		}
		var row []MenuButton
		for i, o := range r.Options {
			text := o
			if r.Wrong[i] {
				text = "❌ " + o
			}
			row = append(row, MenuButton{Text: text, CallbackData: encodeCallback(actChoose, seq, i)})
			if len(row) == perRow {
				rows = append(rows, row)
				row = nil
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	rows = append(rows, []MenuButton{{Text: b.locales.T(lang, "btn_back"), CallbackData: encodeCallback(actLevel, r.Level.String())}})
	return createKeyboard(rows)
}

func matchRows(seq int, board *exercise.MatchBoard) [][]MenuButton {
	noop := encodeCallback(actNoop)
	rows := make([][]MenuButton, 0, len(board.Left))
	for i := range board.Left {
		left := MenuButton{Text: board.Left[i], CallbackData: encodeCallback(actMatch, "l", seq, i)}
		switch {
		case board.Found[i]:
			left = MenuButton{Text: "✅ " + board.Left[i], CallbackData: noop}
		case board.Selected == i:
			left.Text = "👉 " + board.Left[i]
		}
		right := MenuButton{Text: board.Right[i], CallbackData: encodeCallback(actMatch, "r", seq, i)}
		if board.RightFound(i) {
			right = MenuButton{Text: "✅ " + board.Right[i], CallbackData: noop}
		}
		rows = append(rows, []MenuButton{left, right})
	}
	return rows
}

func possessiveLabel(p *exercise.PossessiveTask) (string, string) {
	return p.Pronoun.Label, grammar.CaseName(p.Case)
}
