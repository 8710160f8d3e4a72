// Package cli wires flags, environment defaults and exit codes around the
// tree patcher.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/srctree/treepatch/internal/report"
	"github.com/srctree/treepatch/internal/tree"
)

// Run executes treepatch using the provided CLI arguments. It returns a
// POSIX-style exit code: 0 on success, 1 when patching failed, 2 for usage
// errors.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	if err := godotenv.Load(); err != nil {
		// A missing .env file is fine, but other errors should be surfaced to help with debugging.
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(stderr, "failed to load .env: %v\n", err)
			return 1
		}
	}

	flagSet := pflag.NewFlagSet("treepatch", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	infile := flagSet.String("infile", os.Getenv("TREEPATCH_INFILE"), "file containing a list of files to patch, one relative path per line")
	srcDir := flagSet.String("srcdir", os.Getenv("TREEPATCH_SRCDIR"), "path to the top-level src dir holding the goal version of each file")
	dstDir := flagSet.String("dstdir", os.Getenv("TREEPATCH_DSTDIR"), "path to the top-level dst dir, patched in place")
	jobs := flagSet.Int("jobs", defaultJobs(), "number of entries to patch concurrently")
	keepGoing := flagSet.Bool("keep-going", false, "process the full list even after a patch fails to apply cleanly")
	noColor := flagSet.Bool("no-color", false, "disable colored diagnostics")
	flagSet.Usage = func() {
		fmt.Fprintln(stderr, "Usage: treepatch --infile <list> --srcdir <dir> --dstdir <dir> [flags]")
		fmt.Fprintln(stderr, "\nSelectively patch files in the dst tree using diffs against the src tree.")
		fmt.Fprintln(stderr, "An empty src file deletes its dst counterpart.")
		fmt.Fprintln(stderr, "\nFlags:")
		fmt.Fprint(stderr, flagSet.FlagUsages())
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	required := []struct{ name, value string }{
		{"infile", *infile},
		{"srcdir", *srcDir},
		{"dstdir", *dstDir},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			fmt.Fprintf(stderr, "--%s is required\n", f.name)
			flagSet.Usage()
			return 2
		}
	}
	if *jobs < 1 {
		fmt.Fprintln(stderr, "--jobs must be at least 1")
		return 2
	}

	rep := report.New(stdout, !*noColor)
	rep.Info("infile path: %s", *infile)
	rep.Info("srcdir path: %s", tree.NormalizeRoot(*srcDir))
	rep.Info("dstdir path: %s", tree.NormalizeRoot(*dstDir))

	files, dropped, err := tree.Load(*infile)
	if err != nil {
		fmt.Fprintf(stderr, "treepatch: %v\n", err)
		return 1
	}
	for _, d := range dropped {
		rep.Warn("Ignoring duplicate entry: %s", d)
	}
	rep.Info("Files to patch: %s", strings.Join(files, " "))

	patcher := tree.New(files, *srcDir, *dstDir, rep, tree.Options{
		Jobs:      *jobs,
		KeepGoing: *keepGoing,
	})
	sum, err := patcher.PatchAll(ctx)
	if err != nil {
		rep.Error("Run failed (%s): %v", sum, err)
		fmt.Fprintf(stderr, "treepatch: %v\n", err)
		return 1
	}
	rep.Success("Done: %s", sum)
	return 0
}

func defaultJobs() int {
	if v := os.Getenv("TREEPATCH_JOBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 1
}
