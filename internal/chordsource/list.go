// Package chordsource provides the list of chords known to the input hardware.
package chordsource

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadChords reads one chord output per line. Blank lines and lines starting with # are skipped.
func LoadChords(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only chord list.
			_ = cerr
		}
	}()

	var chords []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		chords = append(chords, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(chords) == 0 {
		return nil, fmt.Errorf("chord list %s is empty", path)
	}
	return chords, nil
}
