package models

import (
	"database/sql"
	"time"
)

// Language is a supported interface language code.
type Language string

const (
	English   Language = "en"
	Ukrainian Language = "uk"
	Russian   Language = "ru"
	Turkish   Language = "tr"
	Arabic    Language = "ar"
)

// Languages lists the supported interface languages in menu order.
var Languages = []Language{English, Ukrainian, Russian, Turkish, Arabic}

var languageLabels = map[Language]string{
	English:   "🇬🇧 English",
	Ukrainian: "🇺🇦 Українська",
	Russian:   "🇷🇺 Русский",
	Turkish:   "🇹🇷 Türkçe",
	Arabic:    "🇸🇾 العربية",
}

// Label returns the flag-prefixed button label of the language.
func (l Language) Label() string {
	return languageLabels[l]
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	_, ok := languageLabels[l]
	return ok
}

// LanguageByLabel resolves a button label back to its language.
func LanguageByLabel(label string) (Language, bool) {
	for lang, l := range languageLabels {
		if l == label {
			return lang, true
		}
	}
	return "", false
}

// User represents a Telegram user learning with the bot
type User struct {
	ID           int64         `json:"id" db:"id"` // Telegram User ID
	Language     Language      `json:"language" db:"language"`
	Flavour      Flavour       `json:"flavour" db:"flavour"`
	SharedDictID sql.NullInt64 `json:"shared_dict_id" db:"shared_dict_id"`
	Level        Level         `json:"level" db:"level"`
	Streak       int           `json:"streak" db:"streak"`
	LastActive   sql.NullTime  `json:"last_active" db:"last_active"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
}

// Scope returns the dictionary the user currently works with.
func (u *User) Scope() Scope {
	switch u.Flavour {
	case FlavourGlobal:
		return GlobalScope(u.ID)
	case FlavourShared:
		if u.SharedDictID.Valid {
			return SharedScope(u.ID, u.SharedDictID.Int64)
		}
	}
	return PersonalScope(u.ID)
}

// Touch records activity on the given day and maintains the streak counter.
// It reports whether anything changed.
func (u *User) Touch(now time.Time) bool {
	today := truncateDay(now)
	if u.LastActive.Valid {
		last := truncateDay(u.LastActive.Time)
		switch {
		case last.Equal(today):
			return false
		case last.AddDate(0, 0, 1).Equal(today):
			u.Streak++
		default:
			u.Streak = 1
		}
	} else {
		u.Streak = 1
	}
	u.LastActive = sql.NullTime{Time: today, Valid: true}
	return true
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
