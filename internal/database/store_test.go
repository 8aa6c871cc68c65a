package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/example/derbot/internal/apperr"
	"github.com/example/derbot/internal/grammar"
	"github.com/example/derbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createWord(t *testing.T, s *Store, word, key string, article int64, uk string) *models.Word {
	t.Helper()
	w := &models.Word{Word: word, Key: key, ArticleID: article}
	w.SetTranslation(models.Ukrainian, uk)
	require.NoError(t, s.Words.Create(context.Background(), w))
	return w
}

func createUser(t *testing.T, s *Store, id int64) *models.User {
	t.Helper()
	u, err := s.Users.GetOrCreate(context.Background(), id)
	require.NoError(t, err)
	return u
}

func TestSchemaIsSeeded(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CheckSchema(ctx))

	n, err := s.Grammar.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(grammar.Generate()), n)

	// Re-running the initializer leaves the seed untouched.
	require.NoError(t, s.initializeSchema(ctx))
	n, err = s.Grammar.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 216, n)
}

func TestCheckSchemaMissingTable(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.ext.ExecContext(ctx, `DROP TABLE possessive_forms`)
	require.NoError(t, err)

	err = s.CheckSchema(ctx)
	assert.True(t, apperr.Is(err, apperr.SchemaMissing))
}

func TestUserGetOrCreate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	u := createUser(t, s, 42)
	assert.Equal(t, int64(42), u.ID)
	assert.Equal(t, models.Language(""), u.Language)

	u.Language = models.Ukrainian
	u.Level = models.Hard
	u.Touch(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, s.Users.Update(ctx, u))

	again := createUser(t, s, 42)
	assert.Equal(t, models.Ukrainian, again.Language)
	assert.Equal(t, models.Hard, again.Level)
	assert.Equal(t, 1, again.Streak)

	_, err := s.Users.GetByID(ctx, 7)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestStreakersInactiveSince(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	for id, last := range map[int64]time.Time{1: day.AddDate(0, 0, -1), 2: day} {
		u := createUser(t, s, id)
		u.Language = models.English
		u.Touch(last)
		require.NoError(t, s.Users.Update(ctx, u))
	}

	users, err := s.Users.GetStreakersInactiveSince(ctx, day)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, int64(1), users[0].ID)
}

func TestWordsByKeyOrdering(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	bare := createWord(t, s, "tisch", "tisch", 0, "")
	withArticle := createWord(t, s, "Tisch", "tisch", models.ArticleDer, "стіл")

	words, err := s.Words.GetByKey(ctx, "tisch")
	require.NoError(t, err)
	require.Len(t, words, 2)
	assert.Equal(t, withArticle.ID, words[0].ID)
	assert.Equal(t, bare.ID, words[1].ID)
	assert.Equal(t, models.ArticleEmpty, words[1].ArticleID)

	keys, err := s.Words.DuplicateKeys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tisch"}, keys)
}

func TestEnforceUniqueKeys(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	createWord(t, s, "Tisch", "tisch", models.ArticleDer, "стіл")
	shell := createWord(t, s, "tisch", "tisch", 0, "")

	err := s.Words.EnforceUniqueKeys(ctx)
	assert.True(t, apperr.Is(err, apperr.Conflict), "got %v", err)

	require.NoError(t, s.Words.Delete(ctx, shell.ID))
	require.NoError(t, s.Words.EnforceUniqueKeys(ctx))
	require.NoError(t, s.Words.EnforceUniqueKeys(ctx))

	err = s.Words.Create(ctx, &models.Word{Word: "TISCH", Key: "tisch"})
	assert.True(t, apperr.Is(err, apperr.Conflict), "got %v", err)
}

func TestPersonalAddIsIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	createUser(t, s, 1)
	w := createWord(t, s, "Haus", "haus", models.ArticleDas, "будинок")

	created, err := s.Personal.Add(ctx, 1, w.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.Personal.Add(ctx, 1, w.ID)
	require.NoError(t, err)
	assert.False(t, created)

	entries, err := s.Personal.List(ctx, 1, models.Ukrainian)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "das Haus", entries[0].Display())
	assert.Equal(t, "будинок", entries[0].Translation)
	assert.Equal(t, 0.0, entries[0].Rating)
}

func TestPersonalListOrderAndOverride(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	createUser(t, s, 1)
	a := createWord(t, s, "Haus", "haus", models.ArticleDas, "будинок")
	b := createWord(t, s, "Frau", "frau", models.ArticleDie, "жінка")

	for _, w := range []*models.Word{a, b} {
		_, err := s.Personal.Add(ctx, 1, w.ID)
		require.NoError(t, err)
	}
	require.NoError(t, s.Personal.SetRating(ctx, 1, a.ID, 2.5))
	require.NoError(t, s.Personal.SetTranslation(ctx, 1, a.ID, "дім"))

	entries, err := s.Personal.List(ctx, 1, models.Ukrainian)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, b.ID, entries[0].WordID)
	assert.Equal(t, "дім", entries[1].Translation)
	assert.Equal(t, 2.5, entries[1].Rating)

	err = s.Personal.Remove(ctx, 1, 999)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestReassignKeepsSurvivorRows(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	createUser(t, s, 1)
	createUser(t, s, 2)
	survivor := createWord(t, s, "Tisch", "tisch", models.ArticleDer, "стіл")
	shell := createWord(t, s, "tisch", "tisch", 0, "")

	// user 1 has both, user 2 only the shell
	for _, p := range []struct{ user, word int64 }{{1, survivor.ID}, {1, shell.ID}, {2, shell.ID}} {
		_, err := s.Personal.Add(ctx, p.user, p.word)
		require.NoError(t, err)
	}
	require.NoError(t, s.Personal.SetRating(ctx, 1, survivor.ID, 1.0))
	require.NoError(t, s.Personal.SetRating(ctx, 1, shell.ID, 3.0))

	require.NoError(t, s.WithinTx(ctx, func(tx *Store) error {
		if err := tx.Words.Reassign(ctx, shell.ID, survivor.ID); err != nil {
			return err
		}
		return tx.Words.Delete(ctx, shell.ID)
	}))

	for _, user := range []int64{1, 2} {
		entries, err := s.Personal.List(ctx, user, models.Ukrainian)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, survivor.ID, entries[0].WordID)
	}
	r, err := s.Personal.Rating(ctx, 1, survivor.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, r)
}

func TestWithinTxRollsBack(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	err := s.WithinTx(ctx, func(tx *Store) error {
		createWord(t, tx, "Baum", "baum", models.ArticleDer, "дерево")
		return apperr.New(apperr.Validation, nil, "abort")
	})
	assert.True(t, apperr.Is(err, apperr.Validation))

	n, err := s.Words.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGlobalRatings(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	createUser(t, s, 1)
	a := createWord(t, s, "Haus", "haus", models.ArticleDas, "будинок")
	createWord(t, s, "Auto", "auto", models.ArticleDas, "")

	r, err := s.Global.Rating(ctx, 1, a.ID)
	require.NoError(t, err)
	assert.Zero(t, r)

	require.NoError(t, s.Global.SetRating(ctx, 1, a.ID, 0.4))
	require.NoError(t, s.Global.SetRating(ctx, 1, a.ID, 0.3))

	entries, err := s.Global.List(ctx, 1, models.Ukrainian)
	require.NoError(t, err)
	require.Len(t, entries, 1, "untranslated words are not listed")
	assert.Equal(t, 0.3, entries[0].Rating)

	// No personal membership was created.
	personal, err := s.Personal.List(ctx, 1, models.Ukrainian)
	require.NoError(t, err)
	assert.Empty(t, personal)
}

func TestSharedDictionary(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	createUser(t, s, 1)
	createUser(t, s, 2)

	d := &models.SharedDictionary{Name: "Reise", Code: "KX9ABP", CreatorID: 1}
	require.NoError(t, s.Shared.Create(ctx, d))
	assert.NotZero(t, d.ID)

	dup := &models.SharedDictionary{Name: "Other", Code: "KX9ABP", CreatorID: 2}
	err := s.Shared.Create(ctx, dup)
	assert.True(t, apperr.Is(err, apperr.Conflict))

	require.NoError(t, s.Shared.AddMember(ctx, models.SharedMembership{UserID: 1, DictID: d.ID, IsAdmin: true}))
	require.NoError(t, s.Shared.AddMember(ctx, models.SharedMembership{UserID: 2, DictID: d.ID}))
	err = s.Shared.AddMember(ctx, models.SharedMembership{UserID: 2, DictID: d.ID})
	assert.True(t, apperr.Is(err, apperr.Conflict))

	m, err := s.Shared.Member(ctx, 1, d.ID)
	require.NoError(t, err)
	assert.True(t, m.IsAdmin)

	members, err := s.Shared.Members(ctx, d.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, int64(1), members[0].UserID)

	byCode, err := s.Shared.GetByCode(ctx, "KX9ABP")
	require.NoError(t, err)
	assert.Equal(t, "Reise", byCode.Name)

	dicts, err := s.Shared.GetAllByUserID(ctx, 2)
	require.NoError(t, err)
	require.Len(t, dicts, 1)

	w := createWord(t, s, "Koffer", "koffer", models.ArticleDer, "валіза")
	created, err := s.Shared.AddWord(ctx, d.ID, w.ID)
	require.NoError(t, err)
	assert.True(t, created)
	require.NoError(t, s.Shared.SetRating(ctx, d.ID, w.ID, 0.2))

	entries, err := s.Shared.ListWords(ctx, d.ID, models.Ukrainian)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0.2, entries[0].Rating)

	require.NoError(t, s.Shared.RemoveMember(ctx, 2, d.ID))
	_, err = s.Shared.Member(ctx, 2, d.ID)
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestStatistics(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	createUser(t, s, 1)
	a := createWord(t, s, "Haus", "haus", models.ArticleDas, "будинок")
	b := createWord(t, s, "Frau", "frau", models.ArticleDie, "жінка")
	for _, w := range []*models.Word{a, b} {
		_, err := s.Personal.Add(ctx, 1, w.ID)
		require.NoError(t, err)
	}
	require.NoError(t, s.Personal.SetRating(ctx, 1, a.ID, 5.0))
	require.NoError(t, s.Personal.SetRating(ctx, 1, b.ID, 1.0))

	stats, err := s.Stats.ForScope(ctx, models.PersonalScope(1), models.Ukrainian)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Mastered)
	assert.InDelta(t, 3.0, stats.AverageRating, 1e-9)

	stats, err = s.Stats.ForScope(ctx, models.GlobalScope(1), models.Ukrainian)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Zero(t, stats.Mastered)

	sys, err := s.Stats.System(ctx)
	require.NoError(t, err)
	assert.Equal(t, SystemStats{Users: 1, Words: 2}, *sys)
}

func TestRandomTranslations(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	a := createWord(t, s, "Haus", "haus", models.ArticleDas, "будинок")
	createWord(t, s, "Frau", "frau", models.ArticleDie, "жінка")
	createWord(t, s, "Auto", "auto", models.ArticleDas, "")

	out, err := s.Words.GetRandomTranslations(ctx, models.Ukrainian, []int64{a.ID}, 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"жінка"}, out)

	missing, err := s.Words.GetMissingTranslation(ctx, models.Ukrainian, 0, 10)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, "Auto", missing[0].Word)
	assert.Equal(t, sql.NullString{}, missing[0].UK)

	missing, err = s.Words.GetMissingTranslation(ctx, models.Ukrainian, missing[0].ID, 10)
	require.NoError(t, err)
	assert.Empty(t, missing)
}
