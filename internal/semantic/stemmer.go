package semantic

import (
	"strings"

	"github.com/surgebase/porter2"
)

// stemmer normalizes words via Porter2 stemming so "authenticate" and
// "authentication" can match the same comment/str query. It backs only
// the stemmed-substring fallback for the comment/str predicates; exact
// and wildcard matching never go through it.
type stemmer struct {
	minLength  int
	exclusions map[string]bool
}

// commentStemmer is shared by every Engine; stemming has no per-query
// state, so one instance suffices.
var commentStemmer = &stemmer{
	minLength:  3,
	exclusions: map[string]bool{"api": true, "http": true, "url": true, "uri": true, "db": true},
}

func (s *stemmer) stem(word string) string {
	lower := strings.ToLower(word)
	if len(word) < s.minLength || s.exclusions[lower] {
		return lower
	}
	return porter2.Stem(lower)
}

// stemmedContains reports whether any whitespace-delimited word in text
// shares a stem with value, word-for-word. value itself may be multiple
// words ("null check" matches a comment containing "nulls checking").
func (s *stemmer) stemmedContains(value, text string) bool {
	needle := strings.Fields(value)
	if len(needle) == 0 {
		return false
	}
	hay := strings.Fields(text)
	needleStems := make([]string, len(needle))
	for i, w := range needle {
		needleStems[i] = s.stem(w)
	}
	hayStems := make(map[string]bool, len(hay))
	for _, w := range hay {
		hayStems[s.stem(w)] = true
	}
	for _, ns := range needleStems {
		if !hayStems[ns] {
			return false
		}
	}
	return true
}
