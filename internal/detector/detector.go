// Package detector provides third-party language detectors used to
// cross-check trigram identification results.
package detector

import (
	"context"
	"strings"
	"time"

	lingua "github.com/pemistahl/lingua-go"
)

// Guess is one detector's verdict. Code is a lower-case ISO 639-1 code, or
// empty when the detector could not decide.
type Guess struct {
	Service    string        `json:"service"`
	Code       string        `json:"code"`
	Confidence float64       `json:"confidence"`
	Latency    time.Duration `json:"latency"`
	Error      string        `json:"error,omitempty"`
}

type Service interface {
	Name() string
	Detect(ctx context.Context, text string) (*Guess, error)
}

type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a lingua detector restricted to the given ISO 639-1 codes.
// Codes lingua does not know are ignored; with fewer than two known codes the
// detector considers every language lingua supports.
func New(codes ...string) *Detector {
	languages := linguaLanguages(codes)

	builder := lingua.NewLanguageDetectorBuilder()
	var detector lingua.LanguageDetector
	if len(languages) < 2 {
		detector = builder.FromAllLanguages().Build()
	} else {
		detector = builder.FromLanguages(languages...).Build()
	}

	return &Detector{detector: detector}
}

func linguaLanguages(codes []string) []lingua.Language {
	var languages []lingua.Language
	for _, code := range codes {
		for _, lang := range lingua.AllLanguages() {
			if strings.EqualFold(lang.IsoCode639_1().String(), code) {
				languages = append(languages, lang)
				break
			}
		}
	}
	return languages
}

func (d *Detector) Name() string {
	return "lingua"
}

func (d *Detector) DetectLanguage(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

func (d *Detector) Detect(ctx context.Context, text string) (*Guess, error) {
	result := &Guess{Service: d.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	if err := ctx.Err(); err != nil {
		result.Error = err.Error()
		return result, err
	}

	lang, ok := d.DetectLanguage(text)
	if !ok {
		return result, nil
	}

	result.Code = strings.ToLower(lang.IsoCode639_1().String())
	result.Confidence = d.detector.ComputeLanguageConfidence(text, lang)
	return result, nil
}
