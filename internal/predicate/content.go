package predicate

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/rdump/internal/filectx"
)

// contentPredicates force a read of the file's text (FileContext.Content,
// loaded at most once per file regardless of how many content predicates
// a query has).
func contentPredicates() []*Descriptor {
	return []*Descriptor{
		{
			Key:         "contains",
			Aliases:     []string{"c"},
			Cost:        CostContent,
			Description: "case-sensitive literal substring match",
			Compile: func(value string) (EvalFunc, error) {
				return func(fc *filectx.FileContext, ext string) (bool, error) {
					content, err := fc.Content()
					if err != nil {
						return false, err
					}
					return strings.Contains(content, value), nil
				}, nil
			},
		},
		{
			Key:         "matches",
			Aliases:     []string{"m"},
			Cost:        CostContent,
			Description: "regular expression match against file content; supports (?i) for case-insensitivity",
			Compile: func(value string) (EvalFunc, error) {
				re, err := regexp.Compile(value)
				if err != nil {
					return nil, &InvalidValueError{Key: "matches", Value: value, Err: err}
				}
				return func(fc *filectx.FileContext, ext string) (bool, error) {
					content, err := fc.Content()
					if err != nil {
						return false, err
					}
					loc := re.FindStringIndex(content)
					if loc == nil {
						return false, nil
					}
					line := 1 + strings.Count(content[:loc[0]], "\n")
					col := loc[0] - strings.LastIndex(content[:loc[0]], "\n") - 1
					fc.AddMatch(filectx.Match{
						Line:       line,
						Column:     col,
						ByteOffset: loc[0],
						ByteLength: loc[1] - loc[0],
					})
					return true, nil
				}, nil
			},
		},
	}
}
