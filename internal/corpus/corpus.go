// Package corpus builds reference language profiles from training text.
package corpus

import (
	"context"
	"errors"
	"fmt"

	"github.com/valpere/lequel/internal/profilecsv"
	"github.com/valpere/lequel/internal/textsource"
	"github.com/valpere/lequel/internal/trigram"
)

// ErrEmptyProfile is returned when a corpus yields no trigrams.
var ErrEmptyProfile = errors.New("corpus produced no trigrams")

// BuildLanguageProfile counts the trigrams of corpus. The result is left as
// raw counts so that stored reference data stays readable; profiles are
// normalized when they are loaded for identification.
func BuildLanguageProfile(corpus trigram.Text) trigram.Profile {
	return trigram.Build(corpus)
}

// AddLanguage profiles the corpus file at src and writes the counts to dst.
// Nothing is written when the corpus is empty.
func AddLanguage(ctx context.Context, src, dst string, opts textsource.Options) (trigram.Profile, error) {
	if dst == "" {
		return nil, fmt.Errorf("destination path is required")
	}

	text, err := textsource.ReadFile(src, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := BuildLanguageProfile(text)
	if len(p) == 0 {
		return nil, fmt.Errorf("%s: %w", src, ErrEmptyProfile)
	}

	if err := profilecsv.WriteFile(dst, p); err != nil {
		return nil, fmt.Errorf("failed to write profile: %w", err)
	}
	return p, nil
}
