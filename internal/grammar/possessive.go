package grammar

import (
	"fmt"

	"github.com/example/derbot/pkg/models"
)

// Pronoun is a personal pronoun together with the stem of its possessive.
type Pronoun struct {
	Key   string
	Label string
	Base  string
}

// Pronouns in paradigm order. Keys are unique; labels are what learners see.
var Pronouns = []Pronoun{
	{Key: "ich", Label: "ich", Base: "mein"},
	{Key: "du", Label: "du", Base: "dein"},
	{Key: "er", Label: "er", Base: "sein"},
	{Key: "es", Label: "es", Base: "sein"},
	{Key: "sie_sg", Label: "sie (Sg.)", Base: "ihr"},
	{Key: "wir", Label: "wir", Base: "unser"},
	{Key: "ihr", Label: "ihr", Base: "euer"},
	{Key: "sie_pl", Label: "sie (Pl.)", Base: "ihr"},
	{Key: "Sie", Label: "Sie", Base: "Ihr"},
}

// PronounByKey finds a pronoun by its key.
func PronounByKey(key string) (Pronoun, bool) {
	for _, p := range Pronouns {
		if p.Key == key {
			return p, true
		}
	}
	return Pronoun{}, false
}

func ending(c, gender, number string) string {
	if number == Plural {
		switch c {
		case Nom, Akk:
			return "e"
		case Dat:
			return "en"
		default:
			return "er"
		}
	}
	switch gender {
	case Fem:
		if c == Nom || c == Akk {
			return "e"
		}
		return "er"
	case Masc:
		switch c {
		case Nom:
			return ""
		case Akk:
			return "en"
		case Dat:
			return "em"
		default:
			return "es"
		}
	default:
		switch c {
		case Nom, Akk:
			return ""
		case Dat:
			return "em"
		default:
			return "es"
		}
	}
}

// Inflect builds the possessive form of base for a case, gender and number.
// euer loses its inner e whenever an ending is attached. unser keeps its own
// e and takes n, m and s without one; before r the e stays, since "unserr"
// is not a word.
func Inflect(base, c, gender, number string) string {
	end := ending(c, gender, number)
	if end == "" {
		return base
	}
	stem := base
	switch base {
	case "euer":
		stem = "eur"
	case "unser":
		if len(end) == 2 && end != "er" {
			end = end[1:]
		}
	}
	return stem + end
}

// Generate enumerates the full paradigm: every pronoun, case, gender and
// number, plural rows included for each gender.
func Generate() []models.PossessiveForm {
	forms := make([]models.PossessiveForm, 0, len(Pronouns)*len(Cases)*len(Genders)*len(Numbers))
	for _, p := range Pronouns {
		for _, c := range Cases {
			for _, g := range Genders {
				for _, n := range Numbers {
					forms = append(forms, models.PossessiveForm{
						Pronoun: p.Key,
						Case:    c,
						Gender:  g,
						Number:  n,
						Form:    Inflect(p.Base, c, g, n),
					})
				}
			}
		}
	}
	return forms
}

type cell struct {
	pronoun, c, gender, number string
}

// Tables is the read-only lookup over possessive forms.
type Tables struct {
	forms     map[cell]string
	byPronoun map[string][]models.PossessiveForm
}

// NewTables indexes the given rows, typically read back from the store.
func NewTables(rows []models.PossessiveForm) *Tables {
	t := &Tables{
		forms:     make(map[cell]string, len(rows)),
		byPronoun: make(map[string][]models.PossessiveForm),
	}
	for _, r := range rows {
		t.forms[cell{r.Pronoun, r.Case, r.Gender, r.Number}] = r.Form
		t.byPronoun[r.Pronoun] = append(t.byPronoun[r.Pronoun], r)
	}
	return t
}

// Lookup returns the possessive form for one cell of the paradigm.
func (t *Tables) Lookup(pronoun, c, gender, number string) (string, error) {
	f, ok := t.forms[cell{pronoun, c, gender, number}]
	if !ok {
		return "", fmt.Errorf("no possessive form for %s/%s/%s/%s", pronoun, c, gender, number)
	}
	return f, nil
}

// Len is the number of cells in the table.
func (t *Tables) Len() int {
	return len(t.forms)
}

// FormsOf returns the distinct forms of a pronoun in paradigm order.
func (t *Tables) FormsOf(pronoun string) []string {
	return distinct(t.byPronoun[pronoun])
}

// FormsFor returns the distinct forms every pronoun takes in one cell.
func (t *Tables) FormsFor(c, gender, number string) []string {
	var rows []models.PossessiveForm
	for _, p := range Pronouns {
		if f, ok := t.forms[cell{p.Key, c, gender, number}]; ok {
			rows = append(rows, models.PossessiveForm{Form: f})
		}
	}
	return distinct(rows)
}

func distinct(rows []models.PossessiveForm) []string {
	seen := make(map[string]bool, len(rows))
	var out []string
	for _, r := range rows {
		if !seen[r.Form] {
			seen[r.Form] = true
			out = append(out, r.Form)
		}
	}
	return out
}
