package identifier

import (
	"math"
	"reflect"
	"testing"

	"github.com/valpere/lequel/internal/trigram"
)

const tolerance = 1e-5

func fromCorpus(code string, lines ...string) trigram.LanguageProfile {
	return trigram.LanguageProfile{
		Code:   code,
		Vector: trigram.Normalize(trigram.Build(trigram.Text(lines))),
	}
}

func sampleLanguages() []trigram.LanguageProfile {
	return []trigram.LanguageProfile{
		fromCorpus("en",
			"the quick brown fox jumps over the lazy dog",
			"this is the house that jack built",
			"there are many things in the world that we do not understand",
		),
		fromCorpus("es",
			"el rápido zorro marrón salta sobre el perro perezoso",
			"esta es la casa que construyó juan",
			"hay muchas cosas en el mundo que no entendemos",
		),
		fromCorpus("de",
			"der schnelle braune fuchs springt über den faulen hund",
			"das ist das haus das jack gebaut hat",
			"es gibt viele dinge auf der welt die wir nicht verstehen",
		),
	}
}

func TestIdentify_Example(t *testing.T) {
	languages := []trigram.LanguageProfile{
		{Code: "en", Vector: trigram.Vector{"the": 0.9}},
		{Code: "es", Vector: trigram.Vector{"que": 0.8}},
	}

	got := Identify(trigram.Text{"the"}, languages)
	if !got.Found || got.Code != "en" || math.Abs(got.Score-0.9) > tolerance {
		t.Errorf("Identify = %+v, want en (0.9)", got)
	}
}

func TestIdentify_Languages(t *testing.T) {
	languages := sampleLanguages()

	tests := []struct {
		name string
		text trigram.Text
		want string
	}{
		{name: "english", text: trigram.Text{"the dog and the fox are there"}, want: "en"},
		{name: "spanish", text: trigram.Text{"el perro que está en la casa"}, want: "es"},
		{name: "german", text: trigram.Text{"der hund ist nicht in dem haus"}, want: "de"},
		{name: "crlf input", text: trigram.Text{"the dog and the fox\r", "are there\r"}, want: "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Identify(tt.text, languages)
			if !got.Found {
				t.Fatalf("Identify(%q) found nothing", tt.text)
			}
			if got.Code != tt.want {
				t.Errorf("Identify(%q) = %s, want %s", tt.text, got.Code, tt.want)
			}
		})
	}
}

func TestIdentify_NoCandidates(t *testing.T) {
	for _, text := range []trigram.Text{nil, {"hello world"}, {"ab"}} {
		got := Identify(text, nil)
		if got.Found || got.Code != UnknownCode || got.Score != 0 {
			t.Errorf("Identify(%q, nil) = %+v, want unidentified", text, got)
		}
	}
}

func TestIdentify_NoOverlap(t *testing.T) {
	got := Identify(trigram.Text{"zzzzzz"}, sampleLanguages())
	if got.Found {
		t.Errorf("Identify(no overlap) = %+v, want unidentified", got)
	}
	if got.String() != UnknownCode {
		t.Errorf("String() = %q, want %q", got.String(), UnknownCode)
	}
}

func TestIdentify_ShortText(t *testing.T) {
	got := Identify(trigram.Text{"ab\r"}, sampleLanguages())
	if got.Found {
		t.Errorf("Identify(short) = %+v, want unidentified", got)
	}
}

func TestIdentify_TieKeepsFirst(t *testing.T) {
	v := trigram.Vector{"abc": 1}
	languages := []trigram.LanguageProfile{
		{Code: "xx", Vector: trigram.Vector{"xyz": 1}},
		{Code: "aa", Vector: v},
		{Code: "bb", Vector: v},
		{Code: "cc", Vector: v},
	}

	for _, workers := range []int{1, 2, 4, 8} {
		got := Identify(trigram.Text{"abc"}, languages, WithWorkers(workers))
		if got.Code != "aa" {
			t.Errorf("workers=%d: Identify = %s, want aa", workers, got.Code)
		}
	}

	languages[1], languages[2] = languages[2], languages[1]
	if got := Identify(trigram.Text{"abc"}, languages); got.Code != "bb" {
		t.Errorf("after reorder Identify = %s, want bb", got.Code)
	}
}

func TestIdentify_ParallelMatchesSequential(t *testing.T) {
	languages := sampleLanguages()
	texts := []trigram.Text{
		{"the dog and the fox are there"},
		{"el perro que está en la casa"},
		{"der hund ist nicht in dem haus"},
		{"zzzz"},
	}

	seq := New(languages)
	par := New(languages, WithWorkers(3))
	for _, text := range texts {
		a, b := seq.Identify(text), par.Identify(text)
		if a.Code != b.Code || a.Found != b.Found || math.Abs(a.Score-b.Score) > tolerance {
			t.Errorf("Identify(%q): sequential %+v, parallel %+v", text, a, b)
		}

		sa, sb := seq.Scores(text), par.Scores(text)
		if len(sa) != len(sb) {
			t.Fatalf("Scores(%q): %d vs %d entries", text, len(sa), len(sb))
		}
		for i := range sa {
			if sa[i].Code != sb[i].Code || math.Abs(sa[i].Score-sb[i].Score) > tolerance {
				t.Errorf("Scores(%q)[%d]: sequential %v, parallel %v", text, i, sa[i], sb[i])
			}
		}
	}
}

func TestIdentify_Observer(t *testing.T) {
	languages := sampleLanguages()

	var codes []string
	id := New(languages, WithObserver(func(code string, score float64) {
		codes = append(codes, code)
		if score < 0 || score > 1+tolerance {
			t.Errorf("observer got score %f for %s", score, code)
		}
	}))

	id.Identify(trigram.Text{"the dog and the fox"})

	if want := []string{"en", "es", "de"}; !reflect.DeepEqual(codes, want) {
		t.Errorf("observer codes = %v, want %v", codes, want)
	}
}

func TestRank(t *testing.T) {
	id := New(sampleLanguages())
	ranked := id.Rank(trigram.Text{"el perro que está en la casa"})

	if len(ranked) != 3 {
		t.Fatalf("Rank returned %d scores, want 3", len(ranked))
	}
	if ranked[0].Code != "es" {
		t.Errorf("Rank()[0] = %s, want es", ranked[0].Code)
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Errorf("Rank not descending at %d: %v", i, ranked)
		}
	}
}

func TestRank_StableOnTies(t *testing.T) {
	languages := []trigram.LanguageProfile{
		{Code: "aa", Vector: trigram.Vector{"xyz": 1}},
		{Code: "bb", Vector: trigram.Vector{"qqq": 1}},
	}
	ranked := New(languages).Rank(trigram.Text{"abc"})
	if ranked[0].Code != "aa" || ranked[1].Code != "bb" {
		t.Errorf("Rank = %v, want candidate order on ties", ranked)
	}
}

func TestResult_String(t *testing.T) {
	tests := []struct {
		r    Result
		want string
	}{
		{Result{Code: "en", Score: 0.873421, Found: true}, "en (0.873421)"},
		{Result{Code: UnknownCode}, UnknownCode},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestLanguages(t *testing.T) {
	id := New(sampleLanguages())
	if got, want := id.Languages(), []string{"en", "es", "de"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Languages() = %v, want %v", got, want)
	}
}

func TestIdentifyWithScores(t *testing.T) {
	id := New(sampleLanguages())
	text := trigram.Text{"der hund ist in dem haus"}

	result, scores := id.IdentifyWithScores(text)
	if want := id.Identify(text); result.Code != want.Code || math.Abs(result.Score-want.Score) > tolerance {
		t.Errorf("IdentifyWithScores result = %+v, want %+v", result, want)
	}
	if len(scores) != 3 || scores[0].Code != "de" {
		t.Fatalf("scores = %v, want de first", scores)
	}
	if scores[0].Code != result.Code {
		t.Errorf("scores[0] = %s, result = %s", scores[0].Code, result.Code)
	}
	for i := 1; i < len(scores); i++ {
		if scores[i].Score > scores[i-1].Score {
			t.Errorf("scores not descending at %d: %v", i, scores)
		}
	}
}
