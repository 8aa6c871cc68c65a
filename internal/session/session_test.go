package session

import (
	"testing"

	"github.com/example/derbot/internal/exercise"
	"github.com/example/derbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStartsFromUser(t *testing.T) {
	store := NewStore()
	user := &models.User{ID: 5, Level: models.Medium, Flavour: models.FlavourGlobal}

	st := store.Get(user)
	assert.Equal(t, Idle, st.Step)
	assert.Equal(t, models.GlobalScope(5), st.Scope)
	assert.Equal(t, models.Medium, st.Level)

	assert.Same(t, st, store.Get(user))
	assert.Equal(t, 1, store.Len())

	store.Forget(5)
	assert.NotSame(t, st, store.Get(user))
}

func TestBeginAndSettle(t *testing.T) {
	st := &State{}

	st.Begin(&exercise.Round{Kind: exercise.TypedWord, Word: models.Entry{WordID: 3}})
	assert.Equal(t, Prompted, st.Step)
	assert.Equal(t, AwaitAnswer, st.Await)

	st.Settle()
	assert.Equal(t, Prompted, st.Step, "an open round stays prompted")
	assert.Zero(t, st.LastWordID)

	st.Round.Done = true
	st.Settle()
	assert.Equal(t, Reveal, st.Step)
	assert.Equal(t, AwaitNone, st.Await)
	assert.Equal(t, int64(3), st.LastWordID)

	st.Begin(&exercise.Round{Kind: exercise.Choice})
	assert.Equal(t, AwaitNone, st.Await)
	assert.Equal(t, 2, st.Seq)
}

func TestCancelKeepsChoice(t *testing.T) {
	st := &State{Scope: models.SharedScope(1, 9), Level: models.Hard}
	st.Begin(&exercise.Round{Kind: exercise.TypedArticle})
	st.Draft = &Draft{Headword: "Tisch"}
	st.Track(10)
	st.Track(0)
	st.Track(11)

	msgs := st.Cancel()
	require.Equal(t, []int{10, 11}, msgs)
	assert.Equal(t, Idle, st.Step)
	assert.Nil(t, st.Round)
	assert.Nil(t, st.Draft)
	assert.Equal(t, AwaitNone, st.Await)
	assert.Equal(t, models.SharedScope(1, 9), st.Scope)
	assert.Equal(t, models.Hard, st.Level)
	assert.Empty(t, st.Cancel())
}
