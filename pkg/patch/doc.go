// Package patch computes fuzzy, position-tolerant text patches and applies
// them with per-hunk success reporting.
//
// The package is extracted from treepatch's internal orchestrator so that it
// can be reused by other tools. A Patch is derived from exactly one
// (base, goal) pair of texts; applying it back to the base reproduces the goal
// exactly, and applying it to a target that has drifted from the base relocates
// each hunk by context similarity within a bounded search window. Hunks that
// cannot be placed are reported in the Result rather than raised as errors,
// so callers can inspect partial output and decide severity themselves.
package patch
