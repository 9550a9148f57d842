package main

import (
	"bufio"
	"os"
	"strings"
)

// readChannelsFile parses a flat channel list: one identifier (canonical ID,
// @handle, or channel URL) per line. Blank lines and # comments are skipped.
// A "Display Name - identifier" line keeps only the identifier, so the file
// doubles as a human-readable roster.
func readChannelsFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var inputs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, after, ok := strings.Cut(line, " - "); ok {
			line = strings.TrimSpace(after)
		}
		inputs = append(inputs, line)
	}
	return inputs, scanner.Err()
}
