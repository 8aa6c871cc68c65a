package exercise

import (
	"context"
	"strings"

	"github.com/example/derbot/internal/rating"
	"golang.org/x/text/unicode/norm"
)

// Outcome classifies a graded answer.
type Outcome int

const (
	// Ignored answers do not fit the round's state and change nothing.
	Ignored Outcome = iota
	Correct
	// Retry is a wrong answer with attempts left.
	Retry
	// Revealed is a wrong answer that used up the last attempt.
	Revealed
	// Selected is a tapped translation on a match board.
	Selected
	// Mismatch is a wrong pairing on a match board.
	Mismatch
	// Matched is a correct pairing on a match board that is not yet complete.
	Matched
	// Completed is the pairing that completed a match board.
	Completed
)

func (o Outcome) String() string {
	return [...]string{"ignored", "correct", "retry", "revealed", "selected", "mismatch", "matched", "completed"}[o]
}

// Result reports the effect of an answer.
type Result struct {
	Outcome Outcome
	// WordID and Rating describe the rating change, if any.
	WordID int64
	Rating float64
	// Expected is the solution when it should be shown.
	Expected string
}

func (e *Engine) rate(ctx context.Context, r *Round, wordID int64, correct bool) (float64, error) {
	return e.rater.AdjustRating(ctx, r.Scope, wordID, rating.Delta(r.Level, correct))
}

// settle applies the rating change of a graded attempt and advances the
// round's state machine.
func (e *Engine) settle(ctx context.Context, r *Round, correct bool) (Result, error) {
	res := Result{WordID: r.Word.WordID}
	if !correct {
		r.Attempts++
	}
	rt, err := e.rate(ctx, r, r.Word.WordID, correct)
	if err != nil {
		return Result{}, err
	}
	res.Rating = rt

	switch {
	case correct:
		res.Outcome = Correct
		r.Done = true
	case r.Attempts >= r.Kind.AttemptLimit():
		res.Outcome = Revealed
		res.Expected = r.Expected
		r.Done = true
	default:
		res.Outcome = Retry
	}
	return res, nil
}

// Choose grades a tapped option.
func (e *Engine) Choose(ctx context.Context, r *Round, option int) (Result, error) {
	if r.Done || r.Kind.Typed() || r.Board != nil || option < 0 || option >= len(r.Options) || r.Wrong[option] {
		return Result{Outcome: Ignored}, nil
	}
	correct := option == r.Answer
	if !correct {
		r.Wrong[option] = true
	}
	return e.settle(ctx, r, correct)
}

// Type grades a typed answer.
func (e *Engine) Type(ctx context.Context, r *Round, text string) (Result, error) {
	answer := normalizeAnswer(text)
	if r.Done || !r.Kind.Typed() || answer == "" {
		return Result{Outcome: Ignored}, nil
	}
	return e.settle(ctx, r, e.accepts(r, answer))
}

func (e *Engine) accepts(r *Round, answer string) bool {
	switch r.Kind {
	case Blanks:
		return strings.ReplaceAll(answer, " ", "") == normalizeAnswer(r.Expected)
	case TypedWord:
		return answer == normalizeAnswer(r.Word.Word) || answer == normalizeAnswer(r.Word.Display())
	}
	return answer == normalizeAnswer(r.Expected)
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(norm.NFC.String(s)), " "))
}

// PickLeft selects a translation cell on a match board.
func (e *Engine) PickLeft(r *Round, left int) Result {
	b := r.Board
	if r.Done || b == nil || left < 0 || left >= len(b.Left) || b.Found[left] || b.Selected >= 0 {
		return Result{Outcome: Ignored}
	}
	b.Selected = left
	return Result{Outcome: Selected}
}

// PickRight pairs the selected translation with a headword cell. Either way
// the selection is reset.
func (e *Engine) PickRight(ctx context.Context, r *Round, right int) (Result, error) {
	b := r.Board
	if r.Done || b == nil || b.Selected < 0 || right < 0 || right >= len(b.Right) || b.RightFound(right) {
		return Result{Outcome: Ignored}, nil
	}
	left := b.Selected
	b.Selected = -1
	word := b.Words[left]

	correct := b.Pairs[left] == right
	rt, err := e.rate(ctx, r, word.WordID, correct)
	if err != nil {
		return Result{}, err
	}
	res := Result{WordID: word.WordID, Rating: rt}

	switch {
	case !correct:
		res.Outcome = Mismatch
	default:
		b.Found[left] = true
		res.Outcome = Matched
		if b.Complete() {
			res.Outcome = Completed
			r.Done = true
		}
	}
	return res, nil
}
