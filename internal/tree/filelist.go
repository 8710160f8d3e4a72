package tree

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Load reads a file list: one relative path per line. Blank lines and lines
// starting with '#' are skipped, and CRLF endings are tolerated. Duplicate
// entries keep their first occurrence; the dropped repeats are returned so
// the caller can report them (entries must target disjoint paths for a run
// to be well defined).
func Load(path string) (files, dropped []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open file list: %w", err)
	}
	defer f.Close()

	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			dropped = append(dropped, line)
			continue
		}
		seen[line] = struct{}{}
		files = append(files, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("read file list: %w", err)
	}
	return files, dropped, nil
}
