package synthesis

import "strings"

// SplitSentences splits free text into speakable units on sentence-terminal
// periods. Units keep their source order, empty segments are dropped, and the
// terminal period is restored to each unit so the engine keeps its prosody.
func SplitSentences(text string) []string {
	parts := strings.Split(text, ".")
	units := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		units = append(units, part+".")
	}
	return units
}
