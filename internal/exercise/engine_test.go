package exercise

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/example/derbot/internal/apperr"
	"github.com/example/derbot/internal/grammar"
	"github.com/example/derbot/internal/rating"
	"github.com/example/derbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	listWords func(ctx context.Context, scope models.Scope, lang models.Language) ([]models.Entry, error)
	fillers   func(ctx context.Context, lang models.Language, exclude []int64, skip []string, n int) ([]string, error)
}

func (f *fakeSource) ListWords(ctx context.Context, scope models.Scope, lang models.Language) ([]models.Entry, error) {
	return f.listWords(ctx, scope, lang)
}

func (f *fakeSource) Fillers(ctx context.Context, lang models.Language, exclude []int64, skip []string, n int) ([]string, error) {
	if f.fillers == nil {
		return nil, nil
	}
	return f.fillers(ctx, lang, exclude, skip, n)
}

// fakeRater keeps ratings in memory and records every delta.
type fakeRater struct {
	ratings map[int64]float64
	deltas  []float64
}

func (f *fakeRater) AdjustRating(_ context.Context, _ models.Scope, wordID int64, delta float64) (float64, error) {
	if f.ratings == nil {
		f.ratings = map[int64]float64{}
	}
	f.deltas = append(f.deltas, delta)
	f.ratings[wordID] = rating.Apply(f.ratings[wordID], delta)
	return f.ratings[wordID], nil
}

func words(entries ...models.Entry) *fakeSource {
	return &fakeSource{listWords: func(context.Context, models.Scope, models.Language) ([]models.Entry, error) {
		return append([]models.Entry(nil), entries...), nil
	}}
}

func newTestEngine(src Source, rater Rater, seed int64) *Engine {
	return NewEngine(src, rater, grammar.NewTables(grammar.Generate()), rand.New(rand.NewSource(seed)))
}

var (
	haus  = models.Entry{WordID: 1, Word: "Haus", ArticleID: models.ArticleDas, Translation: "house"}
	frau  = models.Entry{WordID: 2, Word: "Frau", ArticleID: models.ArticleDie, Translation: "woman"}
	buch  = models.Entry{WordID: 3, Word: "Buch", ArticleID: models.ArticleDas, Translation: "book"}
	tisch = models.Entry{WordID: 4, Word: "Tisch", ArticleID: models.ArticleDer, Translation: "table"}
	gehen = models.Entry{WordID: 5, Word: "gehen", ArticleID: models.ArticleEmpty, Translation: "to go"}
)

func personal(kind Kind, level models.Level) Request {
	return Request{Kind: kind, Scope: models.PersonalScope(1), Lang: models.English, Level: level}
}

func TestEmptyPoolHasNoSideEffects(t *testing.T) {
	for _, level := range models.Levels {
		for _, kind := range KindsFor(level) {
			rater := &fakeRater{}
			e := newTestEngine(words(), rater, 1)
			_, err := e.Next(context.Background(), personal(kind, level))
			assert.True(t, apperr.Is(err, apperr.EmptyPool), kind)
			assert.Empty(t, rater.deltas)
		}
	}
}

func TestArticleExercisesNeedNouns(t *testing.T) {
	e := newTestEngine(words(gehen), &fakeRater{}, 1)
	for _, kind := range []Kind{ArticleChoice, TypedArticle, Possessive} {
		_, err := e.Next(context.Background(), personal(kind, models.Hard))
		assert.True(t, apperr.Is(err, apperr.EmptyPool), kind)
	}
}

func TestArticleChoiceCorrect(t *testing.T) {
	rater := &fakeRater{ratings: map[int64]float64{haus.WordID: 0.5}}
	e := newTestEngine(words(haus), rater, 1)
	ctx := context.Background()

	r, err := e.Next(ctx, personal(ArticleChoice, models.Easy))
	require.NoError(t, err)
	assert.Equal(t, "Haus", r.Prompt)
	assert.Equal(t, []string{"der", "die", "das"}, r.Options)
	assert.Equal(t, 2, r.Answer)

	res, err := e.Choose(ctx, r, 2)
	require.NoError(t, err)
	assert.Equal(t, Correct, res.Outcome)
	assert.Equal(t, 0.4, res.Rating)
	assert.True(t, r.Done)

	res, err = e.Choose(ctx, r, 2)
	require.NoError(t, err)
	assert.Equal(t, Ignored, res.Outcome, "a finished round ignores further taps")
}

func TestArticleChoiceFloorsAtZero(t *testing.T) {
	rater := &fakeRater{}
	e := newTestEngine(words(haus), rater, 1)
	ctx := context.Background()

	r, err := e.Next(ctx, personal(ArticleChoice, models.Easy))
	require.NoError(t, err)
	res, err := e.Choose(ctx, r, r.Answer)
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Rating)
}

func TestChoiceIsFinalAfterOneTap(t *testing.T) {
	rater := &fakeRater{}
	e := newTestEngine(words(haus, frau, buch, tisch), rater, 3)
	ctx := context.Background()

	r, err := e.Next(ctx, personal(Choice, models.Easy))
	require.NoError(t, err)
	require.Len(t, r.Options, 4)
	assert.Equal(t, r.Word.Translation, r.Options[r.Answer])
	assert.Equal(t, r.Word.Display(), r.Prompt)

	wrong := (r.Answer + 1) % len(r.Options)
	res, err := e.Choose(ctx, r, wrong)
	require.NoError(t, err)
	assert.Equal(t, Revealed, res.Outcome)
	assert.Equal(t, r.Word.Translation, res.Expected)
	assert.Equal(t, []float64{0.1}, rater.deltas)
}

func TestChoiceSingleWordPadsFromCatalogue(t *testing.T) {
	src := words(haus)
	var asked int
	src.fillers = func(_ context.Context, _ models.Language, exclude []int64, skip []string, n int) ([]string, error) {
		asked = n
		assert.Equal(t, []int64{haus.WordID}, exclude)
		assert.Equal(t, []string{"house"}, skip)
		return []string{"tree", "cat"}, nil
	}
	e := newTestEngine(src, &fakeRater{}, 1)

	r, err := e.Next(context.Background(), personal(Choice, models.Easy))
	require.NoError(t, err)
	assert.Equal(t, 3, asked)
	assert.ElementsMatch(t, []string{"house", "tree", "cat"}, r.Options)
	assert.Equal(t, "house", r.Options[r.Answer])
}

func TestChoiceSingleWordWithoutCatalogue(t *testing.T) {
	e := newTestEngine(words(haus), &fakeRater{}, 1)
	ctx := context.Background()

	r, err := e.Next(ctx, personal(Choice, models.Easy))
	require.NoError(t, err)
	assert.Equal(t, []string{"house"}, r.Options)

	res, err := e.Choose(ctx, r, 0)
	require.NoError(t, err)
	assert.Equal(t, Correct, res.Outcome)
}

func TestTypedArticleTwoWrongAttempts(t *testing.T) {
	rater := &fakeRater{}
	e := newTestEngine(words(frau), rater, 1)
	ctx := context.Background()

	r, err := e.Next(ctx, personal(TypedArticle, models.Hard))
	require.NoError(t, err)
	assert.Equal(t, "Frau", r.Prompt)

	res, err := e.Type(ctx, r, "der")
	require.NoError(t, err)
	assert.Equal(t, Retry, res.Outcome)
	assert.Equal(t, 0.2, res.Rating)
	assert.Equal(t, 1, r.Remaining())

	res, err = e.Type(ctx, r, " Das ")
	require.NoError(t, err)
	assert.Equal(t, Revealed, res.Outcome)
	assert.Equal(t, "die", res.Expected)
	assert.Equal(t, 0.4, res.Rating)
	assert.True(t, r.Done)
	assert.Equal(t, []float64{0.2, 0.2}, rater.deltas)
}

func TestTypedWordAcceptsArticle(t *testing.T) {
	e := newTestEngine(words(tisch), &fakeRater{}, 1)
	ctx := context.Background()

	for _, answer := range []string{"tisch", "DER Tisch", "  Tisch "} {
		r, err := e.Next(ctx, personal(TypedWord, models.Hard))
		require.NoError(t, err)
		assert.Equal(t, "table", r.Prompt)
		res, err := e.Type(ctx, r, answer)
		require.NoError(t, err)
		assert.Equal(t, Correct, res.Outcome, answer)
	}
}

func TestTypedIgnoresEmptyAnswer(t *testing.T) {
	rater := &fakeRater{}
	e := newTestEngine(words(tisch), rater, 1)
	ctx := context.Background()

	r, err := e.Next(ctx, personal(TypedWord, models.Hard))
	require.NoError(t, err)
	res, err := e.Type(ctx, r, "   ")
	require.NoError(t, err)
	assert.Equal(t, Ignored, res.Outcome)
	assert.Empty(t, rater.deltas)
}

func TestBlanks(t *testing.T) {
	word := models.Entry{WordID: 9, Word: "Schmetterling", ArticleID: models.ArticleDer, Translation: "butterfly"}
	e := newTestEngine(words(word), &fakeRater{}, 5)
	ctx := context.Background()

	r, err := e.Next(ctx, personal(Blanks, models.Medium))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(r.Prompt, "der "))
	assert.Equal(t, "butterfly", r.Hint)
	assert.Len(t, r.Expected, strings.Count(r.Prompt, "_"))

	res, err := e.Type(ctx, r, strings.ToUpper(r.Expected))
	require.NoError(t, err)
	assert.Equal(t, Correct, res.Outcome)
}

func TestBlanksNeedsLongWords(t *testing.T) {
	short := models.Entry{WordID: 9, Word: "Eis", ArticleID: models.ArticleDas, Translation: "ice"}
	e := newTestEngine(words(short), &fakeRater{}, 1)
	_, err := e.Next(context.Background(), personal(Blanks, models.Medium))
	assert.True(t, apperr.Is(err, apperr.EmptyPool))
}

func TestMask(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for _, word := range []string{"Haus", "Tisch", "Schmetterling", "Straße", "Übung"} {
		for i := 0; i < 20; i++ {
			masked, missing, ok := Mask(rnd, word)
			require.True(t, ok, word)

			orig, got := []rune(word), []rune(masked)
			require.Equal(t, len(orig), len(got))
			assert.Equal(t, orig[0], got[0], "first letter stays")
			assert.Equal(t, orig[len(orig)-1], got[len(got)-1], "last letter stays")

			k := strings.Count(masked, "_")
			assert.GreaterOrEqual(t, k, 1)
			assert.LessOrEqual(t, k, 3)
			assert.Equal(t, k, utf8.RuneCountInString(missing))

			// Filling the blanks in order restores the word.
			fill := []rune(missing)
			for j, r := range got {
				if r == '_' {
					got[j], fill = fill[0], fill[1:]
				}
			}
			assert.Equal(t, word, string(got))
		}
	}

	_, _, ok := Mask(rnd, "Eis")
	assert.False(t, ok)
}

func TestMisspell(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	for _, word := range []string{"Haus", "Mädchen", "Straße", "Katze", "Vater", "gehen", "Ei"} {
		variants := Misspell(rnd, word, 3)
		require.Len(t, variants, 3, word)
		seen := map[string]bool{}
		for _, v := range variants {
			assert.NotEqual(t, word, v)
			assert.False(t, seen[v], "duplicate variant %q", v)
			seen[v] = true
		}
	}
}

func TestSpellOutUmlautFollowsSeed(t *testing.T) {
	draw := func() []string {
		rnd := rand.New(rand.NewSource(5))
		var out []string
		for i := 0; i < 8; i++ {
			v, ok := spellOutUmlaut(rnd, []rune("Bäckerbrötchen"))
			require.True(t, ok)
			out = append(out, string(v))
		}
		return out
	}
	first := draw()
	assert.Equal(t, first, draw())
	for _, v := range first {
		assert.Contains(t, []string{"Baeckerbrötchen", "Bäckerbroetchen"}, v)
	}

	v, ok := spellOutUmlaut(rand.New(rand.NewSource(1)), []rune("Schuele"))
	require.True(t, ok)
	assert.Equal(t, "Schüle", string(v))

	_, ok = spellOutUmlaut(rand.New(rand.NewSource(1)), []rune("Haus"))
	assert.False(t, ok)
}

func TestMisspellIsReproducible(t *testing.T) {
	for _, word := range []string{"Mädchen", "Größe", "Tür"} {
		a := Misspell(rand.New(rand.NewSource(3)), word, 3)
		b := Misspell(rand.New(rand.NewSource(3)), word, 3)
		assert.Equal(t, a, b, word)
	}
}

func TestSpellingRound(t *testing.T) {
	e := newTestEngine(words(buch), &fakeRater{}, 2)
	ctx := context.Background()

	r, err := e.Next(ctx, personal(Spelling, models.Medium))
	require.NoError(t, err)
	assert.Equal(t, "book", r.Prompt)
	require.Len(t, r.Options, 4)
	assert.Equal(t, "Buch", r.Options[r.Answer])

	res, err := e.Choose(ctx, r, r.Answer)
	require.NoError(t, err)
	assert.Equal(t, Correct, res.Outcome)
}

func TestPossessiveEasy(t *testing.T) {
	rater := &fakeRater{}
	e := newTestEngine(words(buch), rater, 4)
	ctx := context.Background()
	tables := grammar.NewTables(grammar.Generate())

	var ich *Round
	for i := 0; i < 200; i++ {
		r, err := e.Next(ctx, personal(Possessive, models.Easy))
		require.NoError(t, err)
		task := r.Possessive
		require.NotNil(t, task)
		assert.Equal(t, grammar.Nom, task.Case)
		assert.Equal(t, grammar.Neut, task.Gender)
		assert.Equal(t, grammar.Singular, task.Number)

		want, err := tables.Lookup(task.Pronoun.Key, task.Case, task.Gender, task.Number)
		require.NoError(t, err)
		assert.Equal(t, want, r.Options[r.Answer])
		assert.Len(t, r.Options, 4)
		assert.Len(t, uniq(r.Options), 4)

		if task.Pronoun.Key == "ich" {
			ich = r
			break
		}
	}
	require.NotNil(t, ich)
	assert.Equal(t, "mein", ich.Options[ich.Answer])
	for i, o := range ich.Options {
		if i != ich.Answer {
			assert.True(t, strings.HasPrefix(o, "mein"), "distractor %q should be a form of mein", o)
		}
	}

	rater.deltas = nil
	wrong := (ich.Answer + 1) % 4
	res, err := e.Choose(ctx, ich, wrong)
	require.NoError(t, err)
	assert.Equal(t, Retry, res.Outcome)

	res, err = e.Choose(ctx, ich, wrong)
	require.NoError(t, err)
	assert.Equal(t, Ignored, res.Outcome, "a marked option cannot be tapped again")

	res, err = e.Choose(ctx, ich, ich.Answer)
	require.NoError(t, err)
	assert.Equal(t, Correct, res.Outcome)
	assert.Equal(t, []float64{0.1, -0.1}, rater.deltas)
}

func TestPossessiveCasesByLevel(t *testing.T) {
	e := newTestEngine(words(tisch), &fakeRater{}, 8)
	for i := 0; i < 50; i++ {
		r, err := e.Next(context.Background(), personal(Possessive, models.Hard))
		require.NoError(t, err)
		assert.Contains(t, []string{grammar.Akk, grammar.Dat}, r.Possessive.Case)
	}
}

func uniq(s []string) map[string]bool {
	m := map[string]bool{}
	for _, v := range s {
		m[v] = true
	}
	return m
}

func tenWords() []models.Entry {
	heads := []string{"Haus", "Frau", "Buch", "Tisch", "Auto", "Baum", "Hund", "Katze", "Stadt", "Land", "Brot", "Kind"}
	trs := []string{"house", "woman", "book", "table", "car", "tree", "dog", "cat", "city", "country", "bread", "child"}
	out := make([]models.Entry, len(heads))
	for i := range heads {
		out[i] = models.Entry{WordID: int64(i + 1), Word: heads[i], ArticleID: models.ArticleDer, Translation: trs[i]}
	}
	return out
}

func TestMatchPairsBoard(t *testing.T) {
	rater := &fakeRater{}
	e := newTestEngine(words(tenWords()...), rater, 6)
	ctx := context.Background()

	r, err := e.Next(ctx, personal(MatchPairs, models.Easy))
	require.NoError(t, err)
	b := r.Board
	require.NotNil(t, b)
	require.Len(t, b.Left, rating.DrawSize)
	require.Len(t, b.Right, rating.DrawSize)

	for l, w := range b.Words {
		assert.Equal(t, w.Translation, b.Left[l])
		assert.Equal(t, w.Display(), b.Right[b.Pairs[l]])
	}

	// headword before translation is ignored
	res, err := e.PickRight(ctx, r, 0)
	require.NoError(t, err)
	assert.Equal(t, Ignored, res.Outcome)

	assert.Equal(t, Selected, e.PickLeft(r, 0).Outcome)
	assert.Equal(t, Ignored, e.PickLeft(r, 1).Outcome, "selection is atomic")

	wrong := (b.Pairs[0] + 1) % len(b.Right)
	res, err = e.PickRight(ctx, r, wrong)
	require.NoError(t, err)
	assert.Equal(t, Mismatch, res.Outcome)
	assert.Equal(t, b.Words[0].WordID, res.WordID)
	assert.Equal(t, -1, b.Selected)

	for l := range b.Left {
		assert.Equal(t, Selected, e.PickLeft(r, l).Outcome)
		res, err = e.PickRight(ctx, r, b.Pairs[l])
		require.NoError(t, err)
		if l < len(b.Left)-1 {
			assert.Equal(t, Matched, res.Outcome)
		} else {
			assert.Equal(t, Completed, res.Outcome)
		}
	}
	assert.True(t, r.Done)
	assert.Equal(t, rating.DrawSize, b.FoundCount())
	assert.Len(t, rater.deltas, rating.DrawSize+1)
}

func TestMatchPairsNeedsTwoWords(t *testing.T) {
	e := newTestEngine(words(haus), &fakeRater{}, 1)
	_, err := e.Next(context.Background(), personal(MatchPairs, models.Easy))
	assert.True(t, apperr.Is(err, apperr.EmptyPool))
}

func TestMasteredWordsAreSkipped(t *testing.T) {
	mastered := haus
	mastered.Rating = 4.9
	e := newTestEngine(words(mastered, frau), &fakeRater{}, 1)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		r, err := e.Next(ctx, personal(ArticleChoice, models.Easy))
		require.NoError(t, err)
		assert.Equal(t, frau.WordID, r.Word.WordID)
	}

	sawMastered := false
	for i := 0; i < 1000 && !sawMastered; i++ {
		r, err := e.Next(ctx, personal(TypedArticle, models.Hard))
		require.NoError(t, err)
		sawMastered = r.Word.WordID == mastered.WordID
	}
	assert.True(t, sawMastered, "hard level keeps mastered words")
}

func TestMasteredFilterLiftedWhenPoolEmpties(t *testing.T) {
	mastered := haus
	mastered.Rating = 5
	e := newTestEngine(words(mastered), &fakeRater{}, 1)

	r, err := e.Next(context.Background(), personal(ArticleChoice, models.Easy))
	require.NoError(t, err)
	assert.Equal(t, mastered.WordID, r.Word.WordID)
}

func TestLastWordExcluded(t *testing.T) {
	e := newTestEngine(words(haus, frau), &fakeRater{}, 1)
	ctx := context.Background()

	req := personal(TypedArticle, models.Hard)
	req.LastWordID = haus.WordID
	for i := 0; i < 20; i++ {
		r, err := e.Next(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, frau.WordID, r.Word.WordID)
	}

	e = newTestEngine(words(haus), &fakeRater{}, 1)
	r, err := e.Next(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, haus.WordID, r.Word.WordID, "exclusion is lifted when nothing else is left")
}

func TestKinds(t *testing.T) {
	assert.Equal(t, []Kind{MatchPairs, Choice, ArticleChoice, Possessive}, KindsFor(models.Easy))
	assert.True(t, Offered(models.Hard, TypedWord))
	assert.False(t, Offered(models.Easy, TypedWord))

	k, ok := ParseKind("typed_article")
	assert.True(t, ok)
	assert.Equal(t, TypedArticle, k)
	_, ok = ParseKind("bogus")
	assert.False(t, ok)

	assert.Equal(t, 2, TypedWord.AttemptLimit())
	assert.Equal(t, 2, Possessive.AttemptLimit())
	assert.Equal(t, 1, Choice.AttemptLimit())
}
