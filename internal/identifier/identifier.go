// Package identifier picks the reference language whose trigram profile is
// most similar to a text.
package identifier

import (
	"fmt"
	"sort"
	"sync"

	"github.com/valpere/lequel/internal/trigram"
)

// UnknownCode is reported when no candidate language scores above zero.
const UnknownCode = "---"

// Result is the outcome of an identification. Found is false when no
// candidate scored above zero, including when there were no candidates.
type Result struct {
	Code  string  `json:"code"`
	Score float64 `json:"score"`
	Found bool    `json:"found"`
}

// String formats the result as "en (0.873421)", or UnknownCode when nothing
// was identified.
func (r Result) String() string {
	if !r.Found {
		return UnknownCode
	}
	return fmt.Sprintf("%s (%f)", r.Code, r.Score)
}

// Score is the similarity of a text to one candidate language.
type Score struct {
	Code  string  `json:"code"`
	Score float64 `json:"score"`
}

// Observer receives every candidate's score, in candidate order, once the
// text has been scored.
type Observer func(code string, score float64)

// Option configures an Identifier.
type Option func(*Identifier)

// WithObserver registers fn to receive per-candidate scores.
func WithObserver(fn Observer) Option {
	return func(id *Identifier) {
		id.observer = fn
	}
}

// WithWorkers scores candidates on up to n goroutines. Values below 2 keep
// scoring sequential.
func WithWorkers(n int) Option {
	return func(id *Identifier) {
		id.workers = n
	}
}

// Identifier scores texts against a fixed, ordered list of normalized
// language profiles. It is safe for concurrent use.
type Identifier struct {
	languages []trigram.LanguageProfile
	observer  Observer
	workers   int
}

// New returns an Identifier over languages. The order of languages decides
// exact ties: the earlier candidate wins.
func New(languages []trigram.LanguageProfile, opts ...Option) *Identifier {
	id := &Identifier{
		languages: languages,
		workers:   1,
	}
	for _, opt := range opts {
		opt(id)
	}
	return id
}

// Identify is a shorthand for New(languages, opts...).Identify(text).
func Identify(text trigram.Text, languages []trigram.LanguageProfile, opts ...Option) Result {
	return New(languages, opts...).Identify(text)
}

// Languages returns the candidate codes in tie-break order.
func (id *Identifier) Languages() []string {
	codes := make([]string, len(id.languages))
	for i, lang := range id.languages {
		codes[i] = lang.Code
	}
	return codes
}

// Identify returns the candidate with the highest similarity to text.
func (id *Identifier) Identify(text trigram.Text) Result {
	return best(id.Scores(text))
}

// IdentifyWithScores returns the best candidate together with every
// candidate's score, most similar first. Equal scores keep candidate order.
func (id *Identifier) IdentifyWithScores(text trigram.Text) (Result, []Score) {
	scores := id.Scores(text)
	result := best(scores)
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Score > scores[j].Score
	})
	return result, scores
}

// Scores returns the similarity of text to every candidate, in candidate
// order.
func (id *Identifier) Scores(text trigram.Text) []Score {
	v := trigram.Normalize(trigram.Build(text))
	scores := id.score(v)

	if id.observer != nil {
		for _, s := range scores {
			id.observer(s.Code, s.Score)
		}
	}
	return scores
}

// Rank returns every candidate's score sorted from most to least similar.
// Equal scores keep candidate order.
func (id *Identifier) Rank(text trigram.Text) []Score {
	_, scores := id.IdentifyWithScores(text)
	return scores
}

// score fills an index-addressed slice so the result does not depend on
// which goroutine finishes first.
func (id *Identifier) score(v trigram.Vector) []Score {
	scores := make([]Score, len(id.languages))

	if id.workers < 2 || len(id.languages) < 2 {
		for i, lang := range id.languages {
			scores[i] = Score{Code: lang.Code, Score: trigram.CosineSimilarity(v, lang.Vector)}
		}
		return scores
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(id.workers, len(id.languages)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				lang := id.languages[i]
				scores[i] = Score{Code: lang.Code, Score: trigram.CosineSimilarity(v, lang.Vector)}
			}
		}()
	}
	for i := range id.languages {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return scores
}

// best reduces scores in order with a strict comparison, so the first of
// several equal maxima wins and a zero score never counts as a match.
func best(scores []Score) Result {
	result := Result{Code: UnknownCode}
	for _, s := range scores {
		if s.Score > result.Score {
			result = Result{Code: s.Code, Score: s.Score, Found: true}
		}
	}
	return result
}
