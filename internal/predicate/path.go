package predicate

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/rdump/internal/filectx"
)

// pathPredicates are derived purely from the path string the walker
// already produced; they never touch the filesystem again.
func pathPredicates() []*Descriptor {
	return []*Descriptor{
		{
			Key:         "ext",
			Cost:        CostPath,
			Description: "matches the file's extension, without the leading dot",
			Compile: func(value string) (EvalFunc, error) {
				want := strings.ToLower(strings.TrimPrefix(value, "."))
				return func(fc *filectx.FileContext, ext string) (bool, error) {
					return ext == want, nil
				}, nil
			},
		},
		{
			Key:         "name",
			Cost:        CostPath,
			Description: "matches the file's base name against a glob, case-insensitively",
			Compile: func(value string) (EvalFunc, error) {
				pattern := strings.ToLower(value)
				return func(fc *filectx.FileContext, ext string) (bool, error) {
					matched, err := doublestar.Match(pattern, strings.ToLower(filepath.Base(fc.Path)))
					return err == nil && matched, nil
				}, nil
			},
		},
		{
			Key:         "path",
			Cost:        CostPath,
			Description: "matches anywhere in the full path against a glob",
			Compile: func(value string) (EvalFunc, error) {
				return func(fc *filectx.FileContext, ext string) (bool, error) {
					slashed := filepath.ToSlash(fc.Path)
					matched, err := doublestar.Match(value, slashed)
					if err == nil && matched {
						return true, nil
					}
					return strings.Contains(slashed, value), nil
				}, nil
			},
		},
		{
			Key:         "path_exact",
			Cost:        CostPath,
			Description: "matches the full path exactly, no glob expansion",
			Compile: func(value string) (EvalFunc, error) {
				want := filepath.ToSlash(value)
				return func(fc *filectx.FileContext, ext string) (bool, error) {
					return filepath.ToSlash(fc.Path) == want, nil
				}, nil
			},
		},
		{
			Key:         "in",
			Cost:        CostPath,
			Description: "matches files whose parent directory is exactly value, or recursively under it when value contains **",
			Compile: func(value string) (EvalFunc, error) {
				if strings.Contains(value, "**") {
					pattern := value
					return func(fc *filectx.FileContext, ext string) (bool, error) {
						matched, err := doublestar.Match(pattern, filepath.ToSlash(fc.Path))
						return err == nil && matched, nil
					}, nil
				}
				want := filepath.ToSlash(strings.TrimSuffix(value, "/"))
				return func(fc *filectx.FileContext, ext string) (bool, error) {
					parent := filepath.ToSlash(filepath.Dir(fc.Path))
					return parent == want, nil
				}, nil
			},
		},
	}
}
