package predicate

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/standardbeagle/rdump/internal/filectx"
)

// statPredicates read only the Metadata the walker captured from a
// single stat call; they never touch file content.
func statPredicates() []*Descriptor {
	return []*Descriptor{
		{
			Key:         "size",
			Cost:        CostStat,
			Description: "compares file size, e.g. size:>10mb, size:<512kb",
			Compile: func(value string) (EvalFunc, error) {
				cmp, bytes, err := parseSizeValue(value)
				if err != nil {
					return nil, &InvalidValueError{Key: "size", Value: value, Err: err}
				}
				return func(fc *filectx.FileContext, ext string) (bool, error) {
					return compareInt64(cmp, fc.Metadata.Size, bytes), nil
				}, nil
			},
		},
		{
			Key:         "modified",
			Cost:        CostStat,
			Description: "compares modification time, e.g. modified:<7d or an exact modified:2024-01-15",
			Compile: func(value string) (EvalFunc, error) {
				matcher, err := parseModifiedValue(value)
				if err != nil {
					return nil, &InvalidValueError{Key: "modified", Value: value, Err: err}
				}
				return func(fc *filectx.FileContext, ext string) (bool, error) {
					return matcher(fc.Metadata.ModTime), nil
				}, nil
			},
		},
	}
}

func splitComparator(value string) (string, string) {
	for _, cmp := range []string{">=", "<=", ">", "<", "="} {
		if strings.HasPrefix(value, cmp) {
			return cmp, strings.TrimSpace(value[len(cmp):])
		}
	}
	return "=", value
}

func compareInt64(cmp string, got, want int64) bool {
	switch cmp {
	case ">":
		return got > want
	case ">=":
		return got >= want
	case "<":
		return got < want
	case "<=":
		return got <= want
	default:
		return got == want
	}
}

var sizeUnits = map[string]int64{
	"b":  1,
	"kb": 1024,
	"mb": 1024 * 1024,
	"gb": 1024 * 1024 * 1024,
}

func parseSizeValue(value string) (string, int64, error) {
	cmp, rest := splitComparator(value)
	rest = strings.ToLower(strings.TrimSpace(rest))

	unit := "b"
	for u := range sizeUnits {
		if strings.HasSuffix(rest, u) && u != "b" {
			unit = u
			rest = strings.TrimSuffix(rest, u)
			break
		}
	}
	if unit == "b" && strings.HasSuffix(rest, "b") {
		rest = strings.TrimSuffix(rest, "b")
	}
	rest = strings.TrimSpace(rest)

	n, err := strconv.ParseFloat(rest, 64)
	if err != nil {
		return "", 0, fmt.Errorf("unrecognized size %q", value)
	}
	return cmp, int64(n * float64(sizeUnits[unit])), nil
}

var ageUnits = map[string]time.Duration{
	"s": time.Second,
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
	"w": 7 * 24 * time.Hour,
	"y": 365 * 24 * time.Hour,
}

// parseModifiedValue returns a function that, given a file's mtime,
// reports whether it satisfies the query. Relative forms (">7d") compare
// age against now; a bare ISO-8601 date (2024-01-15) matches any mtime
// falling on that calendar day, in UTC.
func parseModifiedValue(value string) (func(time.Time) bool, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		dayStart := t.UTC()
		dayEnd := dayStart.Add(24 * time.Hour)
		return func(mtime time.Time) bool {
			u := mtime.UTC()
			return !u.Before(dayStart) && u.Before(dayEnd)
		}, nil
	}

	cmp, rest := splitComparator(value)
	rest = strings.ToLower(strings.TrimSpace(rest))
	if rest == "" {
		return nil, fmt.Errorf("unrecognized modified value %q", value)
	}
	unitKey := rest[len(rest)-1:]
	dur, ok := ageUnits[unitKey]
	if !ok {
		return nil, fmt.Errorf("unrecognized age unit in %q", value)
	}
	numPart := strings.TrimSpace(rest[:len(rest)-1])
	n, err := strconv.ParseFloat(numPart, 64)
	if err != nil {
		return nil, fmt.Errorf("unrecognized modified value %q", value)
	}
	threshold := time.Duration(n * float64(dur))

	return func(mtime time.Time) bool {
		age := time.Since(mtime)
		// Age and threshold are both durations "how far in the past";
		// a larger age means an older file, so the comparator direction
		// matches the intuitive reading of modified:>7d as "older than
		// a week".
		return compareDuration(cmp, age, threshold)
	}, nil
}

func compareDuration(cmp string, got, want time.Duration) bool {
	switch cmp {
	case ">":
		return got > want
	case ">=":
		return got >= want
	case "<":
		return got < want
	case "<=":
		return got <= want
	default:
		return got == want
	}
}
