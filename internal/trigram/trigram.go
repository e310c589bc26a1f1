// Package trigram builds character-trigram frequency profiles from text and
// compares them by cosine similarity.
//
// A raw Profile holds occurrence counts. Normalize turns it into a Vector of
// unit Euclidean length; only Vectors are scored. Keeping the two as distinct
// types means a raw profile cannot be passed to CosineSimilarity by mistake.
package trigram

import (
	"math"
	"strings"
	"unicode"
)

// Size is the number of consecutive code points in a single trigram.
const Size = 3

// Text is an ordered sequence of input lines. Trigrams never cross lines.
type Text []string

// Profile maps a trigram to its raw occurrence count.
type Profile map[string]float64

// Vector maps a trigram to its weight in a unit-norm profile.
type Vector map[string]float64

// LanguageProfile is a normalized reference profile for one language.
type LanguageProfile struct {
	Code   string `json:"code"`
	Vector Vector `json:"-"`
}

// Build counts every trigram of text.
//
// A single trailing carriage return is stripped from each line. Lines are
// read as code points; invalid UTF-8 bytes decode to U+FFFD. Lines shorter
// than Size code points are skipped, not padded. Code points are lower-cased
// one at a time before windowing, so a line of n code points yields n-2
// trigrams.
func Build(text Text) Profile {
	profile := make(Profile)

	for _, line := range text {
		line = strings.TrimSuffix(line, "\r")

		runes := []rune(line)
		if len(runes) < Size {
			continue
		}

		for i, r := range runes {
			runes[i] = unicode.ToLower(r)
		}

		for i := 0; i+Size <= len(runes); i++ {
			profile[string(runes[i:i+Size])]++
		}
	}

	return profile
}

// Normalize rescales p to unit Euclidean norm and returns the result as a
// new Vector. A profile whose norm is zero (empty, or all weights zero) is
// returned with its weights unchanged.
func Normalize(p Profile) Vector {
	var sumSquares float64
	for _, w := range p {
		sumSquares += w * w
	}

	v := make(Vector, len(p))
	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		for t, w := range p {
			v[t] = w
		}
		return v
	}

	for t, w := range p {
		v[t] = w / norm
	}
	return v
}

// CosineSimilarity returns the dot product of a and b over their shared
// trigrams. It equals the cosine similarity only when both vectors have unit
// norm, which is the caller's responsibility; nothing is re-normalized here.
// With non-negative weights the result lies in [0, 1].
func CosineSimilarity(a, b Vector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}

	var sum float64
	for t, wa := range a {
		if wb, ok := b[t]; ok {
			sum += wa * wb
		}
	}
	return sum
}

// Total returns the sum of all counts in p.
func (p Profile) Total() float64 {
	var total float64
	for _, w := range p {
		total += w
	}
	return total
}

// Norm returns the Euclidean norm of v.
func (v Vector) Norm() float64 {
	var sumSquares float64
	for _, w := range v {
		sumSquares += w * w
	}
	return math.Sqrt(sumSquares)
}
