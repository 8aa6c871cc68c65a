// Package exercise generates drill rounds from a dictionary and grades the
// learner's answers, feeding the outcome back into the word ratings.
package exercise

import "github.com/example/derbot/pkg/models"

// Kind identifies an exercise type.
type Kind string

const (
	// MatchPairs pairs ten translations with their headwords.
	MatchPairs Kind = "match"
	// Choice asks for the translation of a headword among four options.
	Choice Kind = "choice"
	// ArticleChoice asks for der, die or das.
	ArticleChoice Kind = "article"
	// Spelling asks for the correctly spelled headword among misspellings.
	Spelling Kind = "spelling"
	// Blanks asks for the letters hidden in a headword.
	Blanks Kind = "blanks"
	// TypedWord asks to type the headword of a translation.
	TypedWord Kind = "typed_word"
	// TypedArticle asks to type the article of a headword.
	TypedArticle Kind = "typed_article"
	// Possessive asks for the possessive pronoun form of a pronoun, case and
	// noun.
	Possessive Kind = "possessive"
)

var kindsByLevel = map[models.Level][]Kind{
	models.Easy:   {MatchPairs, Choice, ArticleChoice, Possessive},
	models.Medium: {Spelling, Blanks, Possessive},
	models.Hard:   {TypedWord, TypedArticle, Possessive},
}

// KindsFor returns the exercises offered at a level, in menu order.
func KindsFor(level models.Level) []Kind {
	return kindsByLevel[level]
}

// Offered reports whether k belongs to the menu of level.
func Offered(level models.Level, k Kind) bool {
	for _, kk := range kindsByLevel[level] {
		if kk == k {
			return true
		}
	}
	return false
}

// ParseKind validates a kind received from a callback.
func ParseKind(s string) (Kind, bool) {
	k := Kind(s)
	for _, kinds := range kindsByLevel {
		for _, kk := range kinds {
			if kk == k {
				return k, true
			}
		}
	}
	return "", false
}

// Typed reports whether answers are typed rather than tapped.
func (k Kind) Typed() bool {
	switch k {
	case Blanks, TypedWord, TypedArticle:
		return true
	}
	return false
}

// AttemptLimit is the number of wrong answers after which the solution is
// revealed.
func (k Kind) AttemptLimit() int {
	if k.Typed() || k == Possessive {
		return 2
	}
	return 1
}

// needsTranslation reports whether the translation is part of the question
// itself rather than a hint.
func (k Kind) needsTranslation() bool {
	switch k {
	case MatchPairs, Choice, Spelling, TypedWord:
		return true
	}
	return false
}

// needsArticle reports whether only nouns with a known gender qualify.
func (k Kind) needsArticle() bool {
	switch k {
	case ArticleChoice, TypedArticle, Possessive:
		return true
	}
	return false
}
