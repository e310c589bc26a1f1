package validator

import (
	"strings"
	"testing"

	"github.com/valpere/lequel/internal/identifier"
	"github.com/valpere/lequel/internal/trigram"
)

func newValidator() *Validator {
	languages := []trigram.LanguageProfile{
		{Code: "en", Vector: trigram.Normalize(trigram.Build(trigram.Text{"the cat and the dog are there"}))},
		{Code: "es", Vector: trigram.Normalize(trigram.Build(trigram.Text{"el gato y el perro que están aquí"}))},
	}
	return New(identifier.New(languages))
}

func TestValidator_IsValid(t *testing.T) {
	v := newValidator()

	tests := []struct {
		name     string
		text     string
		expected string
		wantOK   bool
	}{
		{name: "no expectation", text: "anything", expected: "", wantOK: true},
		{name: "english matches", text: "the dog and the cat", expected: "en", wantOK: true},
		{name: "case insensitive code", text: "the dog and the cat", expected: "EN", wantOK: true},
		{name: "spanish mismatch", text: "el perro que está", expected: "en", wantOK: false},
		{name: "unidentified", text: "zzzz", expected: "en", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := v.IsValid(trigram.Text{tt.text}, tt.expected)
			if ok != tt.wantOK {
				t.Errorf("IsValid(%q, %q) = %v, want %v (err: %v)", tt.text, tt.expected, ok, tt.wantOK, err)
			}
			if !tt.wantOK && err == nil {
				t.Error("expected error for invalid result")
			}
		})
	}
}

func TestValidator_IsValid_ErrorNamesCodes(t *testing.T) {
	_, err := newValidator().IsValid(trigram.Text{"el perro que está"}, "en")
	if err == nil || !strings.Contains(err.Error(), "en") || !strings.Contains(err.Error(), "es") {
		t.Errorf("error = %v, want both codes named", err)
	}
}

func TestValidator_Evaluate(t *testing.T) {
	v := newValidator()
	samples := []Sample{
		{Code: "en", Text: trigram.Text{"the dog and the cat"}},
		{Code: "en", Text: trigram.Text{"el perro que está"}},
		{Code: "es", Text: trigram.Text{"el gato que está aquí"}},
		{Code: "es", Text: trigram.Text{"zzzz"}},
	}

	report := v.Evaluate(samples)

	if report.Total != 4 || report.Correct != 2 || report.Unknown != 1 {
		t.Errorf("report = %+v", report)
	}
	if report.Accuracy != 0.5 {
		t.Errorf("Accuracy = %f, want 0.5", report.Accuracy)
	}
	if report.Confusion["en"]["es"] != 1 || report.Confusion["es"][identifier.UnknownCode] != 1 {
		t.Errorf("Confusion = %v", report.Confusion)
	}
	if codes := report.Codes(); len(codes) != 2 || codes[0] != "en" || codes[1] != "es" {
		t.Errorf("Codes() = %v", codes)
	}
}

func TestValidator_Evaluate_Empty(t *testing.T) {
	report := newValidator().Evaluate(nil)
	if report.Total != 0 || report.Accuracy != 0 {
		t.Errorf("report = %+v, want zero", report)
	}
}

func TestReadSamples(t *testing.T) {
	samples, err := ReadSamples(strings.NewReader("en,the cat\nes,\"el gato, el perro\"\n"))
	if err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("ReadSamples() returned %d samples, want 2", len(samples))
	}
	if samples[1].Code != "es" || samples[1].Text[0] != "el gato, el perro" {
		t.Errorf("samples[1] = %+v", samples[1])
	}
}

func TestReadSamples_Invalid(t *testing.T) {
	for _, input := range []string{"en\n", ",text\n", "en,a,b\n"} {
		if _, err := ReadSamples(strings.NewReader(input)); err == nil {
			t.Errorf("ReadSamples(%q) expected error", input)
		}
	}
}
