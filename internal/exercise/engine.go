package exercise

import (
	"context"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/derbot/internal/apperr"
	"github.com/example/derbot/internal/grammar"
	"github.com/example/derbot/internal/rating"
	"github.com/example/derbot/pkg/models"
)

const (
	// ChoiceOptions is the number of buttons of choice exercises.
	ChoiceOptions = 4
	// MinPairs is the smallest playable match board.
	MinPairs = 2
)

// Source provides the words of a dictionary and filler translations from
// the whole catalogue.
type Source interface {
	ListWords(ctx context.Context, scope models.Scope, lang models.Language) ([]models.Entry, error)
	Fillers(ctx context.Context, lang models.Language, exclude []int64, skip []string, n int) ([]string, error)
}

// Rater records rating changes of graded answers.
type Rater interface {
	AdjustRating(ctx context.Context, scope models.Scope, wordID int64, delta float64) (float64, error)
}

// Request describes the round to deal.
type Request struct {
	Kind  Kind
	Scope models.Scope
	Lang  models.Language
	Level models.Level
	// LastWordID is excluded from the draw where possible.
	LastWordID int64
}

// Engine deals and grades rounds. It is not safe for concurrent use.
type Engine struct {
	source  Source
	rater   Rater
	tables  *grammar.Tables
	rnd     *rand.Rand
	sampler *rating.Sampler
}

// NewEngine creates an engine. rnd may be nil for a time-seeded source.
func NewEngine(source Source, rater Rater, tables *grammar.Tables, rnd *rand.Rand) *Engine {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{
		source:  source,
		rater:   rater,
		tables:  tables,
		rnd:     rnd,
		sampler: rating.NewSampler(rnd),
	}
}

func emptyPool(k Kind) error {
	return apperr.New(apperr.EmptyPool, nil, "no candidate words for %s", k)
}

// pool returns the candidate words for a request after all filters.
func (e *Engine) pool(ctx context.Context, req Request) ([]models.Entry, error) {
	entries, err := e.source.ListWords(ctx, req.Scope, req.Lang)
	if err != nil {
		return nil, err
	}

	k := req.Kind
	entries = rating.Filter(entries, func(en models.Entry) bool {
		if k.needsTranslation() && strings.TrimSpace(en.Translation) == "" {
			return false
		}
		if k.needsArticle() && (en.ArticleID == models.ArticleEmpty || en.ArticleID == 0) {
			return false
		}
		if k == Blanks && utf8.RuneCountInString(en.Word) <= 3 {
			return false
		}
		if k == Spelling && utf8.RuneCountInString(en.Word) < 3 {
			return false
		}
		return true
	})

	if req.Scope.Flavour == models.FlavourPersonal && req.Level != models.Hard {
		if fresh := rating.WithoutMastered(entries); len(fresh) > 0 {
			entries = fresh
		}
	}
	return rating.Excluding(entries, req.LastWordID), nil
}

func weighting(k Kind) rating.Weighting {
	if k == ArticleChoice || k == TypedArticle {
		return rating.Exponential
	}
	return rating.Linear
}

// Next deals a new round. An empty candidate pool yields EmptyPool and has
// no side effects.
func (e *Engine) Next(ctx context.Context, req Request) (*Round, error) {
	pool, err := e.pool(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, emptyPool(req.Kind)
	}

	r := &Round{Kind: req.Kind, Level: req.Level, Scope: req.Scope, Answer: -1}
	if req.Kind == MatchPairs {
		if err := e.dealMatch(r, pool); err != nil {
			return nil, err
		}
		return r, nil
	}

	word, _ := e.sampler.One(pool, weighting(req.Kind))
	r.Word = word

	switch req.Kind {
	case Choice:
		err = e.dealChoice(ctx, r, pool, req.Lang)
	case ArticleChoice:
		r.Prompt, r.Hint = word.Word, word.Translation
		r.setOptions(append([]string(nil), models.Articles...), word.Article())
	case Spelling:
		r.Prompt = word.Translation
		r.setOptions(append(Misspell(e.rnd, word.Word, ChoiceOptions-1), word.Word), word.Word)
		e.shuffleOptions(r)
	case Blanks:
		masked, missing, ok := Mask(e.rnd, word.Word)
		if !ok {
			return nil, emptyPool(req.Kind)
		}
		r.Prompt, r.Hint, r.Expected = masked, word.Translation, missing
		if a := word.Article(); a != "" {
			r.Prompt = a + " " + masked
		}
	case TypedWord:
		r.Prompt, r.Expected = word.Translation, word.Word
	case TypedArticle:
		r.Prompt, r.Hint, r.Expected = word.Word, word.Translation, word.Article()
	case Possessive:
		err = e.dealPossessive(r, req.Level)
	default:
		err = apperr.New(apperr.Validation, nil, "unknown exercise %q", req.Kind)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// setOptions installs the options and marks correct as the answer.
func (r *Round) setOptions(options []string, correct string) {
	r.Options = options
	r.Wrong = make([]bool, len(options))
	r.Expected = correct
	for i, o := range options {
		if o == correct {
			r.Answer = i
			return
		}
	}
}

func (e *Engine) shuffleOptions(r *Round) {
	e.rnd.Shuffle(len(r.Options), func(i, j int) {
		r.Options[i], r.Options[j] = r.Options[j], r.Options[i]
	})
	r.setOptions(r.Options, r.Expected)
}

func (e *Engine) dealChoice(ctx context.Context, r *Round, pool []models.Entry, lang models.Language) error {
	correct := r.Word.Translation
	r.Prompt = r.Word.Display()

	seen := map[string]bool{strings.ToLower(correct): true}
	options := []string{correct}

	others := append([]models.Entry(nil), pool...)
	e.rnd.Shuffle(len(others), func(i, j int) { others[i], others[j] = others[j], others[i] })
	for _, o := range others {
		if len(options) == ChoiceOptions {
			break
		}
		key := strings.ToLower(o.Translation)
		if o.WordID == r.Word.WordID || o.Translation == "" || seen[key] {
			continue
		}
		seen[key] = true
		options = append(options, o.Translation)
	}

	if missing := ChoiceOptions - len(options); missing > 0 {
		fillers, err := e.source.Fillers(ctx, lang, []int64{r.Word.WordID}, options, missing)
		if err != nil {
			return err
		}
		options = append(options, fillers...)
	}

	r.setOptions(options, correct)
	e.shuffleOptions(r)
	return nil
}

func (e *Engine) dealPossessive(r *Round, level models.Level) error {
	gender, ok := grammar.GenderOf(r.Word.Article())
	if !ok {
		return emptyPool(Possessive)
	}
	pronoun := grammar.Pronouns[e.rnd.Intn(len(grammar.Pronouns))]
	cases := grammar.CasesFor(level)
	c := cases[e.rnd.Intn(len(cases))]

	form, err := e.tables.Lookup(pronoun.Key, c, gender, grammar.Singular)
	if err != nil {
		return apperr.New(apperr.Internal, err, "possessive table incomplete")
	}

	seen := map[string]bool{form: true}
	options := []string{form}
	pick := func(candidates []string) {
		e.rnd.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
		for _, f := range candidates {
			if len(options) == ChoiceOptions {
				return
			}
			if !seen[f] {
				seen[f] = true
				options = append(options, f)
			}
		}
	}
	pick(e.tables.FormsOf(pronoun.Key))
	pick(e.tables.FormsFor(c, gender, grammar.Singular))

	r.Possessive = &PossessiveTask{Pronoun: pronoun, Case: c, Gender: gender, Number: grammar.Singular}
	r.Prompt = r.Word.Word
	r.Hint = r.Word.Translation
	r.setOptions(options, form)
	e.shuffleOptions(r)
	return nil
}

func (e *Engine) dealMatch(r *Round, pool []models.Entry) error {
	drawn := e.sampler.Draw(pool, rating.DrawSize, rating.Linear)

	// Identical labels on either side would make the pairing ambiguous.
	seenLeft, seenRight := map[string]bool{}, map[string]bool{}
	words := make([]models.Entry, 0, len(drawn))
	for _, w := range drawn {
		l, rt := strings.ToLower(w.Translation), strings.ToLower(w.Display())
		if seenLeft[l] || seenRight[rt] {
			continue
		}
		seenLeft[l], seenRight[rt] = true, true
		words = append(words, w)
	}
	if len(words) < MinPairs {
		return emptyPool(MatchPairs)
	}

	leftOrder := e.rnd.Perm(len(words))
	rightOrder := e.rnd.Perm(len(words))
	b := &MatchBoard{
		Words:    make([]models.Entry, len(words)),
		Left:     make([]string, len(words)),
		Right:    make([]string, len(words)),
		Pairs:    make([]int, len(words)),
		Found:    make([]bool, len(words)),
		Selected: -1,
	}
	for i, w := range words {
		l, rt := leftOrder[i], rightOrder[i]
		b.Words[l] = w
		b.Left[l] = w.Translation
		b.Right[rt] = w.Display()
		b.Pairs[l] = rt
	}
	r.Board = b
	return nil
}
