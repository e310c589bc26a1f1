// Package validator checks identification results against known labels.
package validator

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/valpere/lequel/internal/identifier"
	"github.com/valpere/lequel/internal/trigram"
)

// Validator checks that texts are identified as their expected language.
type Validator struct {
	id *identifier.Identifier
}

func New(id *identifier.Identifier) *Validator {
	return &Validator{id: id}
}

// IsValid returns true when text is identified as expected. When it is not,
// the returned error names both codes.
func (v *Validator) IsValid(text trigram.Text, expected string) (bool, error) {
	if expected == "" {
		return true, nil
	}

	result := v.id.Identify(text)
	if !result.Found {
		return false, fmt.Errorf("expected %s but no language was identified", expected)
	}
	if !strings.EqualFold(result.Code, expected) {
		return false, fmt.Errorf("expected %s but identified %s", expected, result.Code)
	}
	return true, nil
}

// Sample is a text labelled with its language.
type Sample struct {
	Code string
	Text trigram.Text
}

// Report summarises an evaluation run. Confusion counts identified codes per
// expected code; unidentified samples are counted under identifier.UnknownCode.
type Report struct {
	Total     int                       `json:"total"`
	Correct   int                       `json:"correct"`
	Unknown   int                       `json:"unknown"`
	Accuracy  float64                   `json:"accuracy"`
	Confusion map[string]map[string]int `json:"confusion"`
}

// Evaluate identifies every sample and tallies the outcomes.
func (v *Validator) Evaluate(samples []Sample) Report {
	report := Report{Confusion: make(map[string]map[string]int)}

	for _, s := range samples {
		result := v.id.Identify(s.Text)

		got := result.Code
		report.Total++
		switch {
		case !result.Found:
			report.Unknown++
			got = identifier.UnknownCode
		case strings.EqualFold(result.Code, s.Code):
			report.Correct++
		}

		row, ok := report.Confusion[s.Code]
		if !ok {
			row = make(map[string]int)
			report.Confusion[s.Code] = row
		}
		row[got]++
	}

	if report.Total > 0 {
		report.Accuracy = float64(report.Correct) / float64(report.Total)
	}
	return report
}

// Codes returns the expected codes present in the report, sorted.
func (r Report) Codes() []string {
	codes := make([]string, 0, len(r.Confusion))
	for code := range r.Confusion {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// ReadSamples parses "code,text" CSV records. Each text is treated as a
// single line.
func ReadSamples(r io.Reader) ([]Sample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	var samples []Sample
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read samples: %w", err)
		}

		code := strings.TrimSpace(record[0])
		if code == "" {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: empty language code", line)
		}
		samples = append(samples, Sample{Code: code, Text: trigram.Text{record[1]}})
	}
	return samples, nil
}
