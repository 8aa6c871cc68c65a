// Package locales loads the per-language message maps shown to learners.
package locales

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/example/derbot/pkg/models"
)

// Fallback is used for languages or keys without a translation.
const Fallback = models.English

//go:embed data/*.json
var embedded embed.FS

// Bundle holds the messages of every supported language.
type Bundle struct {
	messages map[models.Language]map[string]string
}

// Load reads the embedded maps and then merges <lang>.json files from dir
// over them, key by key. An empty dir uses the embedded maps only.
func Load(dir string) (*Bundle, error) {
	b := &Bundle{messages: make(map[models.Language]map[string]string)}
	if err := b.merge(embedded, "data"); err != nil {
		return nil, err
	}
	if dir != "" {
		if err := b.merge(os.DirFS(dir), "."); err != nil {
			return nil, err
		}
	}
	if len(b.messages[Fallback]) == 0 {
		return nil, fmt.Errorf("no messages for fallback language %q", Fallback)
	}
	return b, nil
}

func (b *Bundle) merge(fsys fs.FS, dir string) error {
	for _, lang := range models.Languages {
		data, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, string(lang)+".json")))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read %s messages: %w", lang, err)
		}

		var msgs map[string]string
		if err := json.Unmarshal(data, &msgs); err != nil {
			return fmt.Errorf("failed to parse %s messages: %w", lang, err)
		}
		if b.messages[lang] == nil {
			b.messages[lang] = make(map[string]string, len(msgs))
		}
		for k, v := range msgs {
			b.messages[lang][k] = v
		}
	}
	return nil
}

// T returns the message key in lang formatted with args. Missing messages
// fall back to English and then to the key itself.
func (b *Bundle) T(lang models.Language, key string, args ...any) string {
	msg, ok := b.messages[lang][key]
	if !ok {
		msg, ok = b.messages[Fallback][key]
	}
	if !ok {
		msg = key
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

// Key finds the key whose message in lang is exactly text. It resolves
// reply-keyboard labels back to what they stand for.
func (b *Bundle) Key(lang models.Language, text string, keys ...string) (string, bool) {
	for _, k := range keys {
		if b.T(lang, k) == text {
			return k, true
		}
	}
	return "", false
}

// Missing lists the English keys lang has no message for.
func (b *Bundle) Missing(lang models.Language) []string {
	var out []string
	for k := range b.messages[Fallback] {
		if _, ok := b.messages[lang][k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
