// Package nouns is the read-only reference index of German noun genders.
package nouns

import (
	"strconv"
	"strings"

	"github.com/example/derbot/internal/catalogue"
	"github.com/example/derbot/internal/excel"
	"github.com/example/derbot/pkg/models"
)

// Index maps headwords to their article.
type Index struct {
	articles map[string]string
}

// FromRows builds an index from (headword, genus) rows. The genus is 1..3
// for der/die/das or the article itself; other rows are ignored. The first
// row is skipped when its genus column is not a genus.
func FromRows(rows [][]string) *Index {
	idx := &Index{articles: make(map[string]string, len(rows))}
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		article := parseGenus(row[1])
		if article == "" {
			continue
		}
		key := catalogue.Key(row[0])
		if key == "" {
			continue
		}
		if _, ok := idx.articles[key]; !ok {
			idx.articles[key] = article
		}
	}
	return idx
}

func parseGenus(s string) string {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return models.ArticleName(int64(n))
	}
	return models.ArticleName(models.ArticleID(s))
}

// Load reads the index from an .xlsx or .csv file.
func Load(path string) (*Index, error) {
	rows, err := excel.ReadFile(path, "")
	if err != nil {
		return nil, err
	}
	return FromRows(rows), nil
}

// Article returns the article of a headword.
func (i *Index) Article(headword string) (string, bool) {
	if i == nil {
		return "", false
	}
	a, ok := i.articles[catalogue.Key(headword)]
	return a, ok
}

// Len returns the number of indexed nouns.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.articles)
}
