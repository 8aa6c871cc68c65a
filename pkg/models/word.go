package models

import (
	"database/sql"
	"strings"
	"time"
)

// Article ids match the fixed rows of the articles table.
const (
	ArticleDer   int64 = 1
	ArticleDie   int64 = 2
	ArticleDas   int64 = 3
	ArticleEmpty int64 = 4
)

// Articles lists the three definite articles in the order they are offered.
var Articles = []string{"der", "die", "das"}

// ArticleID maps an article string to its row id; unknown strings map to the
// empty sentinel.
func ArticleID(article string) int64 {
	switch strings.ToLower(strings.TrimSpace(article)) {
	case "der":
		return ArticleDer
	case "die":
		return ArticleDie
	case "das":
		return ArticleDas
	}
	return ArticleEmpty
}

// ArticleName is the inverse of ArticleID.
func ArticleName(id int64) string {
	switch id {
	case ArticleDer:
		return "der"
	case ArticleDie:
		return "die"
	case ArticleDas:
		return "das"
	}
	return ""
}

// Word is a catalogue entry: a German headword with its article and one
// translation column per interface language.
type Word struct {
	ID        int64          `json:"id" db:"id"`
	Word      string         `json:"word" db:"word"`
	Key       string         `json:"-" db:"word_key"`
	ArticleID int64          `json:"article_id" db:"article_id"`
	EN        sql.NullString `json:"en_tran" db:"en_tran"`
	UK        sql.NullString `json:"uk_tran" db:"uk_tran"`
	RU        sql.NullString `json:"ru_tran" db:"ru_tran"`
	TR        sql.NullString `json:"tr_tran" db:"tr_tran"`
	AR        sql.NullString `json:"ar_tran" db:"ar_tran"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// Article returns the article string, empty for non-nouns.
func (w *Word) Article() string {
	return ArticleName(w.ArticleID)
}

// HasArticle reports whether the word carries der/die/das.
func (w *Word) HasArticle() bool {
	return w.ArticleID != ArticleEmpty && w.ArticleID != 0
}

func (w *Word) column(lang Language) *sql.NullString {
	switch lang {
	case English:
		return &w.EN
	case Ukrainian:
		return &w.UK
	case Russian:
		return &w.RU
	case Turkish:
		return &w.TR
	case Arabic:
		return &w.AR
	}
	return nil
}

// Translation returns the translation into lang, or "" when absent.
func (w *Word) Translation(lang Language) string {
	c := w.column(lang)
	if c == nil || !c.Valid {
		return ""
	}
	return c.String
}

// SetTranslation sets the translation into lang; an empty string clears it.
func (w *Word) SetTranslation(lang Language, text string) {
	c := w.column(lang)
	if c == nil {
		return
	}
	*c = sql.NullString{String: text, Valid: text != ""}
}

// TranslationColumn returns the words table column holding translations into
// lang. Callers must only pass supported languages.
func TranslationColumn(lang Language) string {
	if !lang.Valid() {
		return "en_tran"
	}
	return string(lang) + "_tran"
}

// Entry is one row of a dictionary listing: a catalogue word joined with the
// rating it has in that dictionary.
type Entry struct {
	WordID      int64   `json:"word_id" db:"word_id"`
	Word        string  `json:"word" db:"word"`
	ArticleID   int64   `json:"article_id" db:"article_id"`
	Translation string  `json:"translation" db:"translation"`
	Rating      float64 `json:"rating" db:"rating"`
}

// Article returns the entry's article string.
func (e Entry) Article() string {
	return ArticleName(e.ArticleID)
}

// Display returns the headword with its article prefixed when present.
func (e Entry) Display() string {
	if a := e.Article(); a != "" {
		return a + " " + e.Word
	}
	return e.Word
}
