// Package catalogue is the deduplicating registry of German headwords shared
// by every dictionary.
package catalogue

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/example/derbot/internal/apperr"
	"github.com/example/derbot/internal/database"
	"github.com/example/derbot/pkg/models"
	"golang.org/x/text/unicode/norm"
)

// NounLookup resolves the article of a headword from a reference source.
type NounLookup interface {
	Article(headword string) (string, bool)
}

type Catalogue struct {
	store *database.Store
	nouns NounLookup
}

// New creates a catalogue over store. nouns may be nil.
func New(store *database.Store, nouns NounLookup) *Catalogue {
	return &Catalogue{store: store, nouns: nouns}
}

// With returns a catalogue bound to tx so its writes join the caller's
// transaction.
func (c *Catalogue) With(tx *database.Store) *Catalogue {
	return &Catalogue{store: tx, nouns: c.nouns}
}

// Key is the lookup key of a headword: NFC normalised and lowercased.
func Key(headword string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(headword)))
}

// Normalize splits an embedded article off headword and canonicalises the
// rest. The embedded article wins over article. The returned article is
// empty when none is known.
func Normalize(headword, article string) (string, string) {
	word := strings.Join(strings.Fields(norm.NFC.String(headword)), " ")
	if i := strings.IndexByte(word, ' '); i > 0 {
		if id := models.ArticleID(word[:i]); id != models.ArticleEmpty {
			article = models.ArticleName(id)
			word = strings.TrimSpace(word[i+1:])
		}
	}
	article = models.ArticleName(models.ArticleID(article))
	if article != "" && word == strings.ToLower(word) {
		word = capitalize(word)
	}
	return word, article
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// AddOrMerge registers headword and returns the id of its catalogue entry.
// An existing entry with the same key is reused and enriched with the
// article and the translation into lang when it lacks them; further
// duplicates are merged into it.
func (c *Catalogue) AddOrMerge(ctx context.Context, headword, translation string, lang models.Language, article string) (int64, error) {
	word, article := Normalize(headword, article)
	if word == "" {
		return 0, apperr.New(apperr.Validation, nil, "empty headword")
	}
	if article == "" && c.nouns != nil {
		if a, ok := c.nouns.Article(word); ok {
			word, article = Normalize(word, a)
		}
	}
	translation = strings.TrimSpace(translation)

	var id int64
	err := c.store.WithinTx(ctx, func(tx *database.Store) error {
		candidates, err := tx.Words.GetByKey(ctx, Key(word))
		if err != nil {
			return err
		}

		if len(candidates) == 0 {
			w := &models.Word{Word: word, Key: Key(word), ArticleID: models.ArticleID(article)}
			w.SetTranslation(lang, translation)
			if err := tx.Words.Create(ctx, w); err != nil {
				return err
			}
			id = w.ID
			return nil
		}

		survivor := candidates[0]
		changed := false
		if !survivor.HasArticle() && article != "" {
			survivor.ArticleID = models.ArticleID(article)
			survivor.Word = word
			changed = true
		}
		if survivor.Translation(lang) == "" && translation != "" {
			survivor.SetTranslation(lang, translation)
			changed = true
		}
		if len(candidates) > 1 {
			if err := merge(ctx, tx, &survivor, candidates[1:]); err != nil {
				return err
			}
			changed = true
		}
		if changed {
			if err := tx.Words.Update(ctx, &survivor); err != nil {
				return err
			}
		}
		id = survivor.ID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// merge folds shells into survivor: missing translations are copied over,
// every membership and rating row is pointed at survivor and the shells are
// deleted. The caller persists survivor.
func merge(ctx context.Context, tx *database.Store, survivor *models.Word, shells []models.Word) error {
	for _, shell := range shells {
		for _, lang := range models.Languages {
			if survivor.Translation(lang) == "" {
				survivor.SetTranslation(lang, shell.Translation(lang))
			}
		}
		if err := tx.Words.Reassign(ctx, shell.ID, survivor.ID); err != nil {
			return err
		}
		if err := tx.Words.Delete(ctx, shell.ID); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the full catalogue record of a word.
func (c *Catalogue) Lookup(ctx context.Context, id int64) (*models.Word, error) {
	return c.store.Words.GetByID(ctx, id)
}

// ByHeadword returns the id of the entry a headword resolves to, or false.
func (c *Catalogue) ByHeadword(ctx context.Context, headword string) (int64, bool, error) {
	word, _ := Normalize(headword, "")
	words, err := c.store.Words.GetByKey(ctx, Key(word))
	if err != nil {
		return 0, false, err
	}
	if len(words) == 0 {
		return 0, false, nil
	}
	return words[0].ID, true, nil
}

// TranslationFor returns the catalogue translation of a word into lang, or
// "" when there is none.
func (c *Catalogue) TranslationFor(ctx context.Context, id int64, lang models.Language) (string, error) {
	w, err := c.Lookup(ctx, id)
	if err != nil {
		return "", err
	}
	return w.Translation(lang), nil
}

// SetTranslation overwrites the catalogue translation of a word into lang.
func (c *Catalogue) SetTranslation(ctx context.Context, id int64, lang models.Language, translation string) error {
	return c.store.WithinTx(ctx, func(tx *database.Store) error {
		w, err := tx.Words.GetByID(ctx, id)
		if err != nil {
			return err
		}
		w.SetTranslation(lang, strings.TrimSpace(translation))
		return tx.Words.Update(ctx, w)
	})
}

// Deduplicate merges every group of entries sharing a key and returns the
// number of removed shells. Afterwards the store enforces one entry per key.
func (c *Catalogue) Deduplicate(ctx context.Context) (int, error) {
	keys, err := c.store.Words.DuplicateKeys(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, key := range keys {
		err := c.store.WithinTx(ctx, func(tx *database.Store) error {
			group, err := tx.Words.GetByKey(ctx, key)
			if err != nil || len(group) < 2 {
				return err
			}
			survivor := group[0]
			if err := merge(ctx, tx, &survivor, group[1:]); err != nil {
				return err
			}
			removed += len(group) - 1
			return tx.Words.Update(ctx, &survivor)
		})
		if err != nil {
			return removed, err
		}
	}
	return removed, c.store.Words.EnforceUniqueKeys(ctx)
}
