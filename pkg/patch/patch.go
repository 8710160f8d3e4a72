package patch

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Options tune how hunks are relocated when the target text has drifted from
// the text the patch was computed against. The zero value selects the
// defaults, which work well for source trees with light local edits.
type Options struct {
	// MatchThreshold is the similarity a candidate context match must reach
	// before a hunk is placed there, from 0.0 (exact match only) to 1.0
	// (accept anything). Zero selects the default of 0.5.
	MatchThreshold float64
	// MatchDistance bounds, in characters, how far from a hunk's recorded
	// offset the context search may wander. Zero selects the default of 1000.
	MatchDistance int
}

// Patch is an ordered sequence of context-anchored hunks describing the
// transformation of one text into another. The zero value is an empty patch
// that applies cleanly to anything.
type Patch struct {
	hunks []diffmatchpatch.Patch
	opts  Options
}

// Compute derives the patch transforming base into goal using default
// Options. The result is deterministic for a given input pair regardless of
// input size (diffing runs without a time budget) and round-trips: applying
// it to base reproduces goal exactly.
func Compute(base, goal string) Patch {
	return ComputeWith(base, goal, Options{})
}

// ComputeWith is Compute with explicit relocation Options. The options are
// retained by the returned Patch and used again when it is applied.
func ComputeWith(base, goal string, opts Options) Patch {
	m := newMatcher(opts)
	return Patch{hunks: m.PatchMake(base, goal), opts: opts}
}

// Parse reads a patch set from the standard diff-match-patch text format, the
// inverse of String. An empty input yields an empty patch. A malformed input
// is a contract error, not a data error, and is returned as such.
func Parse(text string) (Patch, error) {
	if strings.TrimSpace(text) == "" {
		return Patch{}, nil
	}
	hunks, err := diffmatchpatch.New().PatchFromText(text)
	if err != nil {
		return Patch{}, fmt.Errorf("parse patch: %w", err)
	}
	return Patch{hunks: hunks}, nil
}

// Len returns the number of hunks in the patch.
func (p Patch) Len() int {
	return len(p.hunks)
}

// Empty reports whether the patch describes no edits, which is the case when
// base and goal were identical.
func (p Patch) Empty() bool {
	return len(p.hunks) == 0
}

// String renders the patch in the standard diff-match-patch text format,
// suitable for persisting or inspection. Parse reverses it.
func (p Patch) String() string {
	return diffmatchpatch.New().PatchToText(p.hunks)
}

func newMatcher(opts Options) *diffmatchpatch.DiffMatchPatch {
	m := diffmatchpatch.New()
	// The library's default 1s diff deadline makes large diffs depend on
	// wall clock; identical inputs must always yield identical patch sets.
	m.DiffTimeout = 0
	if opts.MatchThreshold > 0 {
		m.MatchThreshold = opts.MatchThreshold
	}
	if opts.MatchDistance > 0 {
		m.MatchDistance = opts.MatchDistance
	}
	return m
}
