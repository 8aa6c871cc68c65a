package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCallbackRoundTrip(t *testing.T) {
	data := encodeCallback(actMatch, "l", 3, int64(7))
	assert.Equal(t, "mt|l|3|7", data)

	c := decodeCallback(data)
	assert.Equal(t, actMatch, c.action)
	assert.Equal(t, "l", c.arg(0))
	seq, ok := c.int(1)
	assert.True(t, ok)
	assert.Equal(t, 3, seq)
	id, ok := c.int64(2)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)
}

func TestCallbackMissingArgs(t *testing.T) {
	c := decodeCallback("dict")
	assert.Equal(t, actDict, c.action)
	assert.Empty(t, c.arg(0))
	_, ok := c.int(0)
	assert.False(t, ok)
	_, ok = c.int64(5)
	assert.False(t, ok)
}

func TestCallbackFitsTelegramLimit(t *testing.T) {
	for _, data := range []string{
		encodeCallback(actMatch, "r", 1<<30, 9),
		encodeCallback(actDict, "leave", int64(1)<<62),
		encodeCallback(actExercise, "typed_article"),
		encodeCallback(actRemove, int64(1)<<62),
	} {
		assert.LessOrEqual(t, len(data), 64, data)
	}
}
