package moderation

import (
	"bufio"
	"bytes"
	"os"
	"strings"
)

// LoadWords reads a word list from disk: one word per line, blank lines and
// lines starting with '#' ignored, duplicates collapsed. A scanner is used
// instead of strings.Split so \r\n endings are handled correctly.
func LoadWords(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	unique := make(map[string]struct{})
	var words []string

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, seen := unique[line]; seen {
			continue
		}
		unique[line] = struct{}{}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}
