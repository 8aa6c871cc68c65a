// Package session keeps the per-learner conversation state in memory.
package session

import (
	"sync"

	"github.com/example/derbot/internal/exercise"
	"github.com/example/derbot/pkg/models"
)

// Step is the position of the learner in the exercise state machine.
type Step int

const (
	Idle Step = iota
	Prompted
	Reveal
)

func (s Step) String() string {
	switch s {
	case Prompted:
		return "prompted"
	case Reveal:
		return "reveal"
	}
	return "idle"
}

// Await names the kind of free text the next message is interpreted as.
type Await int

const (
	AwaitNone Await = iota
	// AwaitHeadword expects a German word to add.
	AwaitHeadword
	// AwaitTranslation expects the translation of the drafted word, or a
	// new translation for EditWordID.
	AwaitTranslation
	// AwaitSharedName expects the name of a new shared dictionary.
	AwaitSharedName
	// AwaitJoinCode expects a shared dictionary access code.
	AwaitJoinCode
	// AwaitAnswer expects a typed exercise answer.
	AwaitAnswer
)

func (a Await) String() string {
	return [...]string{"none", "headword", "translation", "shared_name", "join_code", "answer"}[a]
}

// Draft is a word being added across several messages.
type Draft struct {
	Headword    string
	Article     string
	Translation string
}

// State is the transient record of one learner.
type State struct {
	UserID int64
	Scope  models.Scope
	Level  models.Level

	Kind       exercise.Kind
	Step       Step
	Round      *exercise.Round
	LastWordID int64
	// Seq numbers the rounds so buttons of earlier rounds can be told apart.
	Seq int

	Await      Await
	Draft      *Draft
	EditWordID int64

	// Messages are chat messages to delete when the state is cancelled.
	Messages []int
}

// Begin puts a freshly dealt round in flight.
func (s *State) Begin(round *exercise.Round) {
	s.Kind = round.Kind
	s.Round = round
	s.Seq++
	s.Step = Prompted
	s.Await = AwaitNone
	if round.Kind.Typed() {
		s.Await = AwaitAnswer
	}
}

// Settle moves the state machine after a graded answer: finished rounds go
// to Reveal and remember their word for the next draw.
func (s *State) Settle() {
	if s.Round == nil || !s.Round.Done {
		return
	}
	s.Step = Reveal
	s.Await = AwaitNone
	if s.Round.Word.WordID != 0 {
		s.LastWordID = s.Round.Word.WordID
	}
}

// Expect registers the continuation for the next text message.
func (s *State) Expect(a Await) {
	s.Await = a
}

// Track remembers a message for deletion on cancel.
func (s *State) Track(messageID int) {
	if messageID != 0 {
		s.Messages = append(s.Messages, messageID)
	}
}

// Cancel drops the exercise in flight and any continuation while keeping the
// dictionary choice and level. It returns the messages to delete.
func (s *State) Cancel() []int {
	msgs := s.Messages
	s.Messages = nil
	s.Kind = ""
	s.Round = nil
	s.Step = Idle
	s.Await = AwaitNone
	s.Draft = nil
	s.EditWordID = 0
	return msgs
}

// Store maps user ids to their state.
type Store struct {
	mu     sync.Mutex
	states map[int64]*State
}

func NewStore() *Store {
	return &Store{states: make(map[int64]*State)}
}

// Get returns the state of a user, creating an idle one on first use. A new
// state starts from the dictionary and level persisted on user.
func (s *Store) Get(user *models.User) *State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[user.ID]
	if !ok {
		st = &State{UserID: user.ID, Scope: user.Scope(), Level: user.Level}
		s.states[user.ID] = st
	}
	return st
}

// Forget drops the state of a user.
func (s *Store) Forget(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}

// Len returns the number of tracked users.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.states)
}
