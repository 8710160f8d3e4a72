package patch

import (
	"fmt"
	"strings"
)

// Result describes the outcome of applying a Patch to a target text.
type Result struct {
	// Text is the best-effort patched output. It is valid even when some
	// hunks failed to apply; callers decide whether to keep it.
	Text string
	// Hunks records, in patch order, whether each hunk was located and
	// applied against the target.
	Hunks []bool
}

// Applied reports whether every hunk landed. A caller must treat the apply as
// failed when this is false, even though Text still holds partial output.
func (r Result) Applied() bool {
	for _, ok := range r.Hunks {
		if !ok {
			return false
		}
	}
	return true
}

// Failed returns the 1-based numbers of the hunks that could not be placed.
func (r Result) Failed() []int {
	var failed []int
	for i, ok := range r.Hunks {
		if !ok {
			failed = append(failed, i+1)
		}
	}
	return failed
}

// Describe summarizes the per-hunk flags for diagnostics.
func (r Result) Describe() string {
	if r.Applied() {
		return fmt.Sprintf("%d hunk(s) applied", len(r.Hunks))
	}
	parts := make([]string, len(r.Failed()))
	for i, n := range r.Failed() {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("hunk(s) %s of %d failed to apply", strings.Join(parts, ", "), len(r.Hunks))
}

// Apply applies the patch to target, which may be the patch's own base text
// or a text that has diverged from it. Each hunk is first tried at its
// recorded offset, then relocated nearby by context similarity; hunks with no
// adequately similar context inside the search window are flagged as failed.
// Apply never fails outright on mismatched content.
func (p Patch) Apply(target string) Result {
	if len(p.hunks) == 0 {
		return Result{Text: target}
	}
	text, flags := newMatcher(p.opts).PatchApply(p.hunks, target)
	return Result{Text: text, Hunks: flags}
}
