package store

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/valpere/lequel/internal"
	"github.com/valpere/lequel/internal/identifier"
	"github.com/valpere/lequel/internal/trigram"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_New(t *testing.T) {
	s := newTestStore(t)
	if s == nil {
		t.Fatal("expected non-nil store")
	}
}

func TestStore_New_InvalidPath(t *testing.T) {
	_, err := New("/nonexistent/path/test.db")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestStore_SaveAndLoadProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := trigram.Profile{"abc": 2, "bca": 1, "cab": 1, " th": 7}
	if err := s.SaveProfile(ctx, "xx", "corpus.txt", p); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}

	got, err := s.LoadProfile(ctx, "xx")
	if err != nil {
		t.Fatalf("LoadProfile failed: %v", err)
	}
	if len(got) != len(p) {
		t.Fatalf("LoadProfile returned %d trigrams, want %d", len(got), len(p))
	}
	for k, w := range p {
		if got[k] != w {
			t.Errorf("LoadProfile[%q] = %f, want %f", k, got[k], w)
		}
	}
}

func TestStore_SaveProfile_Replaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveProfile(ctx, "xx", "v1", trigram.Profile{"abc": 1, "def": 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveProfile(ctx, "xx", "v2", trigram.Profile{"ghi": 5}); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadProfile(ctx, "xx")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got["ghi"] != 5 {
		t.Errorf("LoadProfile after replace = %v", got)
	}

	infos, err := s.ListProfiles(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].Source != "v2" || infos[0].TrigramCount != 1 || infos[0].TotalCount != 5 {
		t.Errorf("ListProfiles = %+v", infos)
	}
}

func TestStore_SaveProfile_EmptyCode(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveProfile(context.Background(), "", "", trigram.Profile{"abc": 1}); err == nil {
		t.Error("expected error for empty code")
	}
}

func TestStore_LoadProfile_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.LoadProfile(context.Background(), "zz")
	if !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("LoadProfile error = %v, want ErrProfileNotFound", err)
	}
}

func TestStore_LoadLanguages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for code, p := range map[string]trigram.Profile{
		"es": {"que": 3, "el ": 4},
		"en": {"the": 3, "and": 4},
		"de": {"der": 1},
	} {
		if err := s.SaveProfile(ctx, code, "", p); err != nil {
			t.Fatal(err)
		}
	}

	languages, err := s.LoadLanguages(ctx)
	if err != nil {
		t.Fatalf("LoadLanguages failed: %v", err)
	}
	if len(languages) != 3 {
		t.Fatalf("LoadLanguages returned %d, want 3", len(languages))
	}
	for i, want := range []string{"de", "en", "es"} {
		if languages[i].Code != want {
			t.Errorf("languages[%d] = %s, want %s", i, languages[i].Code, want)
		}
		if math.Abs(languages[i].Vector.Norm()-1) > 1e-9 {
			t.Errorf("%s not normalized", languages[i].Code)
		}
	}
	if math.Abs(languages[1].Vector["the"]-0.6) > 1e-9 {
		t.Errorf("en[the] = %f, want 0.6", languages[1].Vector["the"])
	}
}

func TestStore_DeleteProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SaveProfile(ctx, "xx", "", trigram.Profile{"abc": 1}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteProfile(ctx, "xx"); err != nil {
		t.Fatalf("DeleteProfile failed: %v", err)
	}
	if _, err := s.LoadProfile(ctx, "xx"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("LoadProfile after delete error = %v", err)
	}
	if err := s.DeleteProfile(ctx, "xx"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("second DeleteProfile error = %v, want ErrProfileNotFound", err)
	}
}

func TestStore_History(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	runs := []struct {
		req    internal.IdentificationRequest
		result identifier.Result
		scores []identifier.Score
	}{
		{
			req:    internal.IdentificationRequest{ID: "id-1", Text: "  the cat  ", Source: "args", Timestamp: time.Now().Add(-time.Minute)},
			result: identifier.Result{Code: "en", Score: 0.8, Found: true},
			scores: []identifier.Score{{Code: "en", Score: 0.8}, {Code: "es", Score: 0.1}},
		},
		{
			req:    internal.IdentificationRequest{ID: "id-2", Text: "el gato", Source: "stdin", Timestamp: time.Now()},
			result: identifier.Result{Code: "es", Score: 0.7, Found: true},
			scores: []identifier.Score{{Code: "en", Score: 0.2}, {Code: "es", Score: 0.7}},
		},
		{
			req:    internal.IdentificationRequest{ID: "id-3", Text: "zz", Timestamp: time.Now()},
			result: identifier.Result{Code: identifier.UnknownCode},
		},
	}
	for _, r := range runs {
		if err := s.SaveIdentification(ctx, r.req, r.result, r.scores); err != nil {
			t.Fatalf("SaveIdentification(%s) failed: %v", r.req.ID, err)
		}
	}

	entries, err := s.ListIdentifications(ctx, 0)
	if err != nil {
		t.Fatalf("ListIdentifications failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("ListIdentifications returned %d, want 3", len(entries))
	}

	limited, err := s.ListIdentifications(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("ListIdentifications(1) returned %d", len(limited))
	}

	var first IdentificationEntry
	for _, e := range entries {
		if e.ID == "id-1" {
			first = e
		}
	}
	if first.Text != "the cat" {
		t.Errorf("stored text = %q, want trimmed", first.Text)
	}

	scores, err := s.GetScores(ctx, "id-2")
	if err != nil {
		t.Fatal(err)
	}
	if len(scores) != 2 || scores[0].Code != "es" {
		t.Errorf("GetScores = %v", scores)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 3 || stats.Identified != 2 || stats.Unknown != 1 {
		t.Errorf("Stats = %+v", stats)
	}
	if stats.ByLanguage["en"] != 1 || stats.ByLanguage["es"] != 1 {
		t.Errorf("Stats.ByLanguage = %v", stats.ByLanguage)
	}

	n, err := s.ClearHistory(ctx)
	if err != nil {
		t.Fatalf("ClearHistory failed: %v", err)
	}
	if n != 3 {
		t.Errorf("ClearHistory removed %d, want 3", n)
	}
	if entries, _ := s.ListIdentifications(ctx, 0); len(entries) != 0 {
		t.Errorf("history not empty after clear: %v", entries)
	}
}
