// Package rdumpconfig holds the small amount of configuration the query
// core itself reads: preset resolution and per-search defaults. Parsing
// an on-disk config file format is explicitly a host concern, not this
// package's (spec.md Non-goals) — only the in-memory boundary lives
// here, in the same spirit as the teacher's Config type without its KDL
// file loader.
package rdumpconfig

import (
	"strings"
)

// RdumpConfig holds the defaults a search falls back to when SearchOptions
// leaves a field zero-valued.
type RdumpConfig struct {
	DefaultMaxDepth    int
	DefaultThreadCount int
	DefaultSQLDialect  string
}

// Default returns the built-in baseline configuration.
func Default() RdumpConfig {
	return RdumpConfig{
		DefaultMaxDepth:    0,
		DefaultThreadCount: 0, // resolved to logical CPU count by the caller
		DefaultSQLDialect:  "generic",
	}
}

// PresetRegistry resolves a preset name to the RQL fragment it expands
// to. Hosts that want presets loaded from a file implement this
// themselves; the core only ever consumes the interface.
type PresetRegistry interface {
	Resolve(name string) (string, bool)
}

// MapPresetRegistry is the only PresetRegistry this package ships: a
// plain in-memory map, useful for tests and for hosts that build their
// preset table programmatically rather than from a file.
type MapPresetRegistry map[string]string

// Resolve implements PresetRegistry.
func (m MapPresetRegistry) Resolve(name string) (string, bool) {
	frag, ok := m[name]
	return frag, ok
}

// Combine joins resolved preset fragments and any inline query fragment
// with RQL's AND operator. A query naming the same preset twice, or a
// preset that duplicates a clause already present, is not deduplicated —
// spec.md is explicit that preset combination never silently drops a
// clause, even a redundant one, since "redundant" is a property of
// semantics the core doesn't evaluate at combine time.
func Combine(fragments ...string) string {
	var nonEmpty []string
	for _, f := range fragments {
		f = strings.TrimSpace(f)
		if f != "" {
			nonEmpty = append(nonEmpty, "("+f+")")
		}
	}
	return strings.Join(nonEmpty, " & ")
}
