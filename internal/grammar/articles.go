package grammar

import "github.com/example/derbot/pkg/models"

// Genders, cases and numbers as stored in the possessive_forms table.
const (
	Masc = "masc"
	Fem  = "fem"
	Neut = "neut"

	Nom = "Nom"
	Akk = "Akk"
	Dat = "Dat"
	Gen = "Gen"

	Singular = "sg"
	Plural   = "pl"
)

var (
	Genders = []string{Masc, Fem, Neut}
	Cases   = []string{Nom, Akk, Dat, Gen}
	Numbers = []string{Singular, Plural}
)

var caseNames = map[string]string{
	Nom: "Nominativ",
	Akk: "Akkusativ",
	Dat: "Dativ",
	Gen: "Genitiv",
}

// CaseName returns the German name of a case abbreviation.
func CaseName(c string) string {
	if n, ok := caseNames[c]; ok {
		return n
	}
	return c
}

// GenderOf maps a singular definite article to its grammatical gender.
func GenderOf(article string) (string, bool) {
	switch models.ArticleID(article) {
	case models.ArticleDer:
		return Masc, true
	case models.ArticleDie:
		return Fem, true
	case models.ArticleDas:
		return Neut, true
	}
	return "", false
}

// ArticleOf is the nominative singular article of a gender; plural nouns
// always take die.
func ArticleOf(gender, number string) string {
	if number == Plural {
		return "die"
	}
	switch gender {
	case Masc:
		return "der"
	case Fem:
		return "die"
	case Neut:
		return "das"
	}
	return ""
}

// CasesFor returns the cases drilled at a difficulty level.
func CasesFor(level models.Level) []string {
	switch level {
	case models.Medium:
		return []string{Nom, Akk}
	case models.Hard:
		return []string{Akk, Dat}
	}
	return []string{Nom}
}
