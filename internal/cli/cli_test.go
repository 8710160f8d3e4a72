package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = Run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunRequiresFlags(t *testing.T) {
	t.Setenv("TREEPATCH_INFILE", "")
	t.Setenv("TREEPATCH_SRCDIR", "")
	t.Setenv("TREEPATCH_DSTDIR", "")

	code, _, stderr := runCLI(t)
	require.Equal(t, 2, code)
	require.Contains(t, stderr, "--infile is required")
	require.Contains(t, stderr, "Usage: treepatch")
}

func TestRunRejectsBadJobs(t *testing.T) {
	dir := t.TempDir()
	infile := writeFile(t, dir, "files.txt", "a.txt\n")

	code, _, stderr := runCLI(t,
		"--infile", infile, "--srcdir", dir, "--dstdir", dir, "--jobs", "0")
	require.Equal(t, 2, code)
	require.Contains(t, stderr, "--jobs must be at least 1")
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	code, _, _ := runCLI(t, "--bogus")
	require.Equal(t, 2, code)
}

func TestRunFailsOnMissingFileList(t *testing.T) {
	dir := t.TempDir()
	code, _, stderr := runCLI(t,
		"--infile", filepath.Join(dir, "absent.txt"), "--srcdir", dir, "--dstdir", dir)
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "open file list")
}

func TestRunEndToEnd(t *testing.T) {
	srcDir, dstDir, workDir := t.TempDir(), t.TempDir(), t.TempDir()
	writeFile(t, srcDir, "a.txt", "hello world")
	writeFile(t, srcDir, "b.txt", "")
	writeFile(t, dstDir, "a.txt", "hello there")
	writeFile(t, dstDir, "b.txt", "keep me?")
	infile := writeFile(t, workDir, "files.txt", "a.txt\nb.txt\na.txt\n")

	code, stdout, stderr := runCLI(t,
		"--infile", infile, "--srcdir", srcDir, "--dstdir", dstDir, "--no-color")
	require.Equal(t, 0, code, "stderr: %s", stderr)

	content, err := os.ReadFile(filepath.Join(dstDir, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello world", string(content))
	require.NoFileExists(t, filepath.Join(dstDir, "b.txt"))

	require.Contains(t, stdout, "infile path: "+infile)
	require.Contains(t, stdout, "Files to patch: a.txt b.txt")
	require.Contains(t, stdout, "Ignoring duplicate entry: a.txt")
	require.Contains(t, stdout, "Patching: "+filepath.Join(dstDir, "a.txt"))
	require.Contains(t, stdout, "Removed dst due to empty src")
	require.Contains(t, stdout, "Done: patched 1, created 0, deleted 1, skipped 0, failed 0")
}

func TestRunCreatesMissingDestination(t *testing.T) {
	srcDir, dstDir, workDir := t.TempDir(), t.TempDir(), t.TempDir()
	writeFile(t, srcDir, "c.txt", "new content")
	infile := writeFile(t, workDir, "files.txt", "c.txt\n")

	code, stdout, _ := runCLI(t,
		"--infile", infile, "--srcdir", srcDir, "--dstdir", dstDir, "--no-color", "--jobs", "2")
	require.Equal(t, 0, code)

	content, err := os.ReadFile(filepath.Join(dstDir, "c.txt"))
	require.NoError(t, err)
	require.Equal(t, "new content", string(content))
	require.Contains(t, stdout, "Created the missing dst file")
}

func TestRunFailsOnUnreadableDestination(t *testing.T) {
	srcDir, dstDir, workDir := t.TempDir(), t.TempDir(), t.TempDir()
	writeFile(t, srcDir, "a.txt", "goal\n")
	// A directory squatting on the destination path is a contract violation,
	// not a recoverable per-entry condition.
	require.NoError(t, os.MkdirAll(filepath.Join(dstDir, "a.txt"), 0o755))
	infile := writeFile(t, workDir, "files.txt", "a.txt\n")

	code, _, stderr := runCLI(t,
		"--infile", infile, "--srcdir", srcDir, "--dstdir", dstDir, "--no-color")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "treepatch:")
}

func TestDefaultJobsFromEnv(t *testing.T) {
	t.Setenv("TREEPATCH_JOBS", "4")
	require.Equal(t, 4, defaultJobs())

	t.Setenv("TREEPATCH_JOBS", "not-a-number")
	require.Equal(t, 1, defaultJobs())
}
