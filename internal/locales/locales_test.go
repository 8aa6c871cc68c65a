package locales

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/example/derbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedLanguagesComplete(t *testing.T) {
	b, err := Load("")
	require.NoError(t, err)

	for _, lang := range models.Languages {
		assert.Empty(t, b.Missing(lang), "language %s", lang)
	}
}

var verbs = regexp.MustCompile(`%[-+# 0-9.]*[a-z]`)

func TestPlaceholdersMatchEnglish(t *testing.T) {
	b, err := Load("")
	require.NoError(t, err)

	for key, en := range b.messages[Fallback] {
		want := verbs.FindAllString(en, -1)
		for _, lang := range models.Languages {
			got := verbs.FindAllString(b.messages[lang][key], -1)
			assert.Equal(t, want, got, "%s/%s", lang, key)
		}
	}
}

func TestT(t *testing.T) {
	b, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "✅ Correct!", b.T(models.English, "correct"))
	assert.Equal(t, b.T(models.English, "correct"), b.T(models.Language("xx"), "correct"))
	assert.Equal(t, "no_such_key", b.T(models.Ukrainian, "no_such_key"))
	assert.Contains(t, b.T(models.English, "word_added", "der Tisch", "table"), "der Tisch")
}

func TestKey(t *testing.T) {
	b, err := Load("")
	require.NoError(t, err)

	label := b.T(models.Ukrainian, "btn_stats")
	key, ok := b.Key(models.Ukrainian, label, "btn_practice", "btn_stats")
	require.True(t, ok)
	assert.Equal(t, "btn_stats", key)

	_, ok = b.Key(models.Ukrainian, label, "btn_practice")
	assert.False(t, ok)
}

func TestLoadOverrideDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "uk.json"), []byte(`{"correct": "Так!"}`), 0o600))

	b, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "Так!", b.T(models.Ukrainian, "correct"))
	assert.NotEqual(t, "btn_stats", b.T(models.Ukrainian, "btn_stats"))
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.json"), []byte(`{`), 0o600))

	_, err := Load(dir)
	assert.Error(t, err)
}
