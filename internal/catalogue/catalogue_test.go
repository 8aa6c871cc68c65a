package catalogue

import (
	"context"
	"testing"

	"github.com/example/derbot/internal/apperr"
	"github.com/example/derbot/internal/database"
	"github.com/example/derbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nounMap map[string]string

func (m nounMap) Article(headword string) (string, bool) {
	a, ok := m[Key(headword)]
	return a, ok
}

func setup(t *testing.T, nouns NounLookup) (*Catalogue, *database.Store) {
	t.Helper()
	store, err := database.Open(context.Background(), database.Config{Driver: database.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store, nouns), store
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, article   string
		word, wantArt string
	}{
		{"der Tisch", "", "Tisch", "der"},
		{"  DIE   frau ", "", "Frau", "die"},
		{"haus", "das", "Haus", "das"},
		{"das Haus", "der", "Haus", "das"},
		{"laufen", "", "laufen", ""},
		{"äpfel", "die", "Äpfel", "die"},
		{"Dieb", "", "Dieb", ""},
	}
	for _, tt := range tests {
		word, art := Normalize(tt.in, tt.article)
		assert.Equal(t, tt.word, word, tt.in)
		assert.Equal(t, tt.wantArt, art, tt.in)
	}
}

func TestKeyFoldsCaseAndUmlauts(t *testing.T) {
	// "Ä" written as A + combining diaeresis
	assert.Equal(t, Key("Ärger"), Key("Ärger"))
	assert.Equal(t, "ärger", Key(" ÄRGER "))
}

func TestAddWithEmbeddedArticle(t *testing.T) {
	c, _ := setup(t, nil)
	ctx := context.Background()

	id, err := c.AddOrMerge(ctx, "der Tisch", "стіл", models.Ukrainian, "")
	require.NoError(t, err)

	w, err := c.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Tisch", w.Word)
	assert.Equal(t, "der", w.Article())
	assert.Equal(t, "стіл", w.Translation(models.Ukrainian))
	assert.Empty(t, w.Translation(models.English))
}

func TestAddTwiceKeepsOneRow(t *testing.T) {
	c, store := setup(t, nil)
	ctx := context.Background()

	first, err := c.AddOrMerge(ctx, "Haus", "будинок", models.Ukrainian, "das")
	require.NoError(t, err)
	second, err := c.AddOrMerge(ctx, "haus", "house", models.English, "")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	n, err := store.Words.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	w, err := c.Lookup(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "будинок", w.Translation(models.Ukrainian))
	assert.Equal(t, "house", w.Translation(models.English))
}

func TestAddDoesNotOverwriteTranslation(t *testing.T) {
	c, _ := setup(t, nil)
	ctx := context.Background()

	id, err := c.AddOrMerge(ctx, "der Tisch", "стіл", models.Ukrainian, "")
	require.NoError(t, err)
	_, err = c.AddOrMerge(ctx, "der Tisch", "столик", models.Ukrainian, "")
	require.NoError(t, err)

	tr, err := c.TranslationFor(ctx, id, models.Ukrainian)
	require.NoError(t, err)
	assert.Equal(t, "стіл", tr)
}

func TestAddEnrichesArticle(t *testing.T) {
	c, _ := setup(t, nil)
	ctx := context.Background()

	id, err := c.AddOrMerge(ctx, "tisch", "", models.Ukrainian, "")
	require.NoError(t, err)
	again, err := c.AddOrMerge(ctx, "der tisch", "стіл", models.Ukrainian, "")
	require.NoError(t, err)
	assert.Equal(t, id, again)

	w, err := c.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Tisch", w.Word)
	assert.Equal(t, "der", w.Article())
}

func TestAddConsultsNounIndex(t *testing.T) {
	c, _ := setup(t, nounMap{"buch": "das"})
	ctx := context.Background()

	id, err := c.AddOrMerge(ctx, "buch", "книга", models.Ukrainian, "")
	require.NoError(t, err)
	w, err := c.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Buch", w.Word)
	assert.Equal(t, "das", w.Article())
}

func TestAddRejectsEmpty(t *testing.T) {
	c, _ := setup(t, nil)
	_, err := c.AddOrMerge(context.Background(), "  der ", "", models.English, "")
	assert.True(t, apperr.Is(err, apperr.Validation))
}

func TestAddMergesDuplicates(t *testing.T) {
	c, store := setup(t, nil)
	ctx := context.Background()
	_, err := store.Users.GetOrCreate(ctx, 1)
	require.NoError(t, err)

	// Duplicates inserted behind the catalogue's back, e.g. by an old import.
	bare := &models.Word{Word: "tisch", Key: "tisch"}
	bare.SetTranslation(models.English, "table")
	require.NoError(t, store.Words.Create(ctx, bare))
	withArticle := &models.Word{Word: "Tisch", Key: "tisch", ArticleID: models.ArticleDer}
	require.NoError(t, store.Words.Create(ctx, withArticle))
	_, err = store.Personal.Add(ctx, 1, bare.ID)
	require.NoError(t, err)

	id, err := c.AddOrMerge(ctx, "Tisch", "стіл", models.Ukrainian, "")
	require.NoError(t, err)
	assert.Equal(t, withArticle.ID, id)

	_, err = c.Lookup(ctx, bare.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))

	w, err := c.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "table", w.Translation(models.English))
	assert.Equal(t, "стіл", w.Translation(models.Ukrainian))

	entries, err := store.Personal.List(ctx, 1, models.English)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].WordID)
}

func TestDeduplicate(t *testing.T) {
	c, store := setup(t, nil)
	ctx := context.Background()

	for _, w := range []*models.Word{
		{Word: "Straße", Key: "straße", ArticleID: models.ArticleDie},
		{Word: "straße", Key: "straße"},
		{Word: "Hund", Key: "hund", ArticleID: models.ArticleDer},
	} {
		require.NoError(t, store.Words.Create(ctx, w))
	}

	removed, err := c.Deduplicate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	id, ok, err := c.ByHeadword(ctx, "STRASSE")
	require.NoError(t, err)
	assert.False(t, ok, "ß and ss are different keys")
	assert.Zero(t, id)

	id, ok, err = c.ByHeadword(ctx, "die straße")
	require.NoError(t, err)
	assert.True(t, ok)
	w, err := c.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Straße", w.Word)

	removed, err = c.Deduplicate(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)

	// Once merged, the store itself refuses a second row for a key.
	err = store.Words.Create(ctx, &models.Word{Word: "strasse", Key: "straße"})
	assert.True(t, apperr.Is(err, apperr.Conflict), "got %v", err)

	id, err = c.AddOrMerge(ctx, "Straße", "street", models.English, "")
	require.NoError(t, err)
	assert.Equal(t, w.ID, id)
}

func TestSetTranslation(t *testing.T) {
	c, _ := setup(t, nil)
	ctx := context.Background()

	id, err := c.AddOrMerge(ctx, "das Auto", "", models.Turkish, "")
	require.NoError(t, err)
	require.NoError(t, c.SetTranslation(ctx, id, models.Turkish, " araba "))

	tr, err := c.TranslationFor(ctx, id, models.Turkish)
	require.NoError(t, err)
	assert.Equal(t, "araba", tr)
}
