package exercise

import (
	"github.com/example/derbot/internal/grammar"
	"github.com/example/derbot/pkg/models"
)

// Round is one question in flight together with its grading state.
type Round struct {
	Kind  Kind
	Level models.Level
	Scope models.Scope

	// Word is the drilled word; unused by MatchPairs.
	Word models.Entry
	// Prompt is the main text shown to the learner, Hint the secondary line.
	Prompt string
	Hint   string

	// Options are the buttons of tapped exercises and Answer the index of
	// the correct one.
	Options []string
	Answer  int
	// Wrong marks options already tapped incorrectly.
	Wrong []bool

	// Expected is the solution revealed after the last failed attempt and
	// compared against typed answers.
	Expected string

	Attempts int
	Done     bool

	Possessive *PossessiveTask
	Board      *MatchBoard
}

// Remaining returns the wrong attempts left before the solution is shown.
func (r *Round) Remaining() int {
	return r.Kind.AttemptLimit() - r.Attempts
}

// PossessiveTask describes the cell of the paradigm being asked.
type PossessiveTask struct {
	Pronoun grammar.Pronoun
	Case    string
	Gender  string
	Number  string
}

// MatchBoard holds two independently shuffled columns. Pairs[l] is the right
// index matching left index l; grading always goes through Pairs, never
// through the display order.
type MatchBoard struct {
	Words []models.Entry // by left index
	Left  []string       // translations
	Right []string       // headwords
	Pairs []int
	Found []bool // by left index

	// Selected is the tapped left cell awaiting its partner, or -1.
	Selected int
}

// FoundCount returns the number of matched pairs.
func (b *MatchBoard) FoundCount() int {
	n := 0
	for _, f := range b.Found {
		if f {
			n++
		}
	}
	return n
}

// RightFound reports whether the right cell ri is already matched.
func (b *MatchBoard) RightFound(ri int) bool {
	for l, r := range b.Pairs {
		if r == ri {
			return b.Found[l]
		}
	}
	return false
}

// Complete reports whether every pair has been found.
func (b *MatchBoard) Complete() bool {
	return b.FoundCount() == len(b.Pairs)
}
