// Package chunker cuts long texts into pieces at natural boundaries. The
// cross-check detectors only see a leading excerpt of the input, since remote
// detection requests are size-limited and local detection slows down with
// input length.
package chunker

import (
	"strings"
	"unicode"
)

// DefaultMaxChars is the excerpt length used when none is configured.
const DefaultMaxChars = 5000

// Chunk splits text into trimmed pieces of at most maxChars code points.
// Each cut is made at the last paragraph break in the window, else after the
// last sentence-ending punctuation, else at the last space, else hard at
// maxChars. maxChars <= 0 disables splitting. Blank text yields no chunks.
func Chunk(text string, maxChars int) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if maxChars <= 0 || len(runes) <= maxChars {
		return []string{string(runes)}
	}

	var chunks []string
	for len(runes) > maxChars {
		cut := splitPoint(runes[:maxChars])
		if piece := strings.TrimSpace(string(runes[:cut])); piece != "" {
			chunks = append(chunks, piece)
		}
		runes = trimLeftSpace(runes[cut:])
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

// Head returns the first chunk of text, or "" for blank text.
func Head(text string, maxChars int) string {
	chunks := Chunk(text, maxChars)
	if len(chunks) == 0 {
		return ""
	}
	return chunks[0]
}

// splitPoint returns the rune count to take from window. It is always
// positive.
func splitPoint(window []rune) int {
	for i := len(window) - 1; i > 0; i-- {
		if window[i] != '\n' {
			continue
		}
		j := i - 1
		if window[j] == '\r' {
			j--
		}
		if j >= 0 && window[j] == '\n' {
			return i + 1
		}
	}

	for i := len(window) - 2; i > 0; i-- {
		switch window[i] {
		case '.', '!', '?':
			if unicode.IsSpace(window[i+1]) {
				return i + 1
			}
		}
	}

	for i := len(window) - 1; i > 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i
		}
	}

	return len(window)
}

func trimLeftSpace(r []rune) []rune {
	for len(r) > 0 && unicode.IsSpace(r[0]) {
		r = r[1:]
	}
	return r
}
