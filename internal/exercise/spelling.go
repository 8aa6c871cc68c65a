package exercise

import (
	"math/rand"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const vowels = "aeiou"

// mutation derives a misspelling from w, or reports that it does not apply.
type mutation func(rnd *rand.Rand, w []rune) ([]rune, bool)

var mutations = []struct {
	apply mutation
	// recase restores the initial letter's case afterwards
	recase bool
}{
	{toggleDouble, true},
	{swapUmlaut, true},
	{spellOutUmlaut, true},
	{toggleCapital, false},
	{swapLookalike, true},
	{dropEdge, true},
	{vowelAtMiddle, true},
}

// Misspell returns up to n distinct plausible misspellings of word.
func Misspell(rnd *rand.Rand, word string, n int) []string {
	orig := []rune(word)
	seen := map[string]bool{word: true}
	out := make([]string, 0, n)
	add := func(v []rune) {
		s := string(v)
		if s == "" || seen[s] || len(out) == n {
			return
		}
		seen[s] = true
		out = append(out, s)
	}

	for tries := 0; len(out) < n && tries < 60; tries++ {
		m := mutations[rnd.Intn(len(mutations))]
		v, ok := m.apply(rnd, append([]rune(nil), orig...))
		if !ok {
			continue
		}
		if m.recase {
			v = matchInitialCase(orig, v)
		}
		add(v)
	}

	// Vowel insertion always yields new strings.
	mid := len(orig) / 2
	for _, r := range vowels {
		if len(out) == n {
			break
		}
		v := append(append(append([]rune(nil), orig[:mid]...), r), orig[mid:]...)
		add(matchInitialCase(orig, v))
	}
	return out
}

func matchInitialCase(orig, v []rune) []rune {
	if len(orig) == 0 || len(v) == 0 {
		return v
	}
	if unicode.IsUpper(orig[0]) {
		v[0] = unicode.ToUpper(v[0])
	} else {
		v[0] = unicode.ToLower(v[0])
	}
	return v
}

func isConsonant(r rune) bool {
	return unicode.IsLetter(r) && !strings.ContainsRune("aeiouäöüyAEIOUÄÖÜY", r)
}

func toggleDouble(rnd *rand.Rand, w []rune) ([]rune, bool) {
	var doubled, single []int
	for i, r := range w {
		if !isConsonant(r) {
			continue
		}
		if i+1 < len(w) && unicode.ToLower(w[i+1]) == unicode.ToLower(r) {
			doubled = append(doubled, i)
		} else if i > 0 {
			single = append(single, i)
		}
	}
	if len(doubled) > 0 {
		i := doubled[rnd.Intn(len(doubled))]
		return append(w[:i], w[i+1:]...), true
	}
	if len(single) > 0 {
		i := single[rnd.Intn(len(single))]
		return append(w[:i+1], append([]rune{w[i]}, w[i+1:]...)...), true
	}
	return nil, false
}

var umlautPairs = map[rune]rune{
	'ä': 'a', 'ö': 'o', 'ü': 'u', 'a': 'ä', 'o': 'ö', 'u': 'ü',
	'Ä': 'A', 'Ö': 'O', 'Ü': 'U', 'A': 'Ä', 'O': 'Ö', 'U': 'Ü',
}

func swapUmlaut(rnd *rand.Rand, w []rune) ([]rune, bool) {
	var at []int
	for i, r := range w {
		if _, ok := umlautPairs[r]; ok {
			at = append(at, i)
		}
	}
	if len(at) == 0 {
		return nil, false
	}
	i := at[rnd.Intn(len(at))]
	w[i] = umlautPairs[w[i]]
	return w, true
}

var digraphs = [][2]string{
	{"ä", "ae"}, {"ö", "oe"}, {"ü", "ue"},
	{"Ä", "Ae"}, {"Ö", "Oe"}, {"Ü", "Ue"},
}

// spellOutUmlaut writes one umlaut out as its digraph, or, in words without
// umlauts, folds one digraph back into an umlaut.
func spellOutUmlaut(rnd *rand.Rand, w []rune) ([]rune, bool) {
	s := string(w)
	var candidates []string
	for _, d := range digraphs {
		if idx := strings.Index(s, d[0]); idx >= 0 {
			candidates = append(candidates, s[:idx]+d[1]+s[idx+len(d[0]):])
		}
	}
	if len(candidates) == 0 {
		for _, d := range digraphs {
			if idx := strings.Index(s, d[1]); idx >= 0 {
				candidates = append(candidates, s[:idx]+d[0]+s[idx+len(d[1]):])
			}
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}
	return []rune(candidates[rnd.Intn(len(candidates))]), true
}

func toggleCapital(_ *rand.Rand, w []rune) ([]rune, bool) {
	if len(w) == 0 || !unicode.IsLetter(w[0]) {
		return nil, false
	}
	if unicode.IsUpper(w[0]) {
		w[0] = unicode.ToLower(w[0])
	} else {
		w[0] = unicode.ToUpper(w[0])
	}
	return w, true
}

var lookalikes = [][2]string{
	{"v", "f"}, {"f", "v"}, {"V", "F"}, {"F", "V"},
	{"tz", "z"}, {"z", "tz"},
	{"ss", "ß"}, {"ß", "ss"},
}

func swapLookalike(rnd *rand.Rand, w []rune) ([]rune, bool) {
	s := string(w)
	var candidates []string
	for _, l := range lookalikes {
		from, to := l[0], l[1]
		idx := strings.Index(s, from)
		if idx < 0 {
			continue
		}
		// z -> tz only where there is no t already
		if from == "z" && idx > 0 && s[idx-1] == 't' {
			continue
		}
		replaced := s[:idx] + to + s[idx+len(from):]
		candidates = append(candidates, replaced)
	}
	if len(candidates) == 0 {
		return nil, false
	}
	return []rune(candidates[rnd.Intn(len(candidates))]), true
}

func dropEdge(rnd *rand.Rand, w []rune) ([]rune, bool) {
	if len(w) < 3 {
		return nil, false
	}
	if rnd.Intn(2) == 0 {
		return w[1:], true
	}
	return w[:len(w)-1], true
}

func vowelAtMiddle(rnd *rand.Rand, w []rune) ([]rune, bool) {
	if len(w) < 2 {
		return nil, false
	}
	mid := len(w) / 2
	v := rune(vowels[rnd.Intn(len(vowels))])
	if rnd.Intn(2) == 0 {
		return append(w[:mid], append([]rune{v}, w[mid:]...)...), true
	}
	w[mid] = v
	return w, true
}

// Mask hides k internal letters of word, k = max(1, min(3, round(f*len)))
// with f drawn from [0.25, 0.35]. It returns the masked word and the hidden
// letters in order, or false when word has no internal letters to hide.
func Mask(rnd *rand.Rand, word string) (string, string, bool) {
	runes := []rune(word)
	var internal []int
	for i := 1; i < len(runes)-1; i++ {
		if unicode.IsLetter(runes[i]) {
			internal = append(internal, i)
		}
	}
	if utf8.RuneCountInString(word) <= 3 || len(internal) == 0 {
		return "", "", false
	}

	f := 0.25 + rnd.Float64()*0.10
	k := int(f*float64(len(runes)) + 0.5)
	k = max(1, min(3, k, len(internal)))

	rnd.Shuffle(len(internal), func(i, j int) { internal[i], internal[j] = internal[j], internal[i] })
	hidden := internal[:k]
	sort.Ints(hidden)

	var missing strings.Builder
	for _, i := range hidden {
		missing.WriteRune(runes[i])
		runes[i] = '_'
	}
	return string(runes), missing.String(), true
}
