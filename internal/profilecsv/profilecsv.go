// Package profilecsv stores trigram profiles as two-column CSV files of
// trigram and count.
package profilecsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/valpere/lequel/internal/trigram"
)

// Ext is the file extension of profile files.
const Ext = ".csv"

// Write writes p as "trigram,count" records, highest count first and ties
// ordered by trigram, so the same profile always produces the same file.
// Weights use the shortest decimal that reads back exactly, so raw counts
// are written as integers.
func Write(w io.Writer, p trigram.Profile) error {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if p[keys[i]] != p[keys[j]] {
			return p[keys[i]] > p[keys[j]]
		}
		return keys[i] < keys[j]
	})

	records := make([][]string, len(keys))
	for i, k := range keys {
		records[i] = []string{k, strconv.FormatFloat(p[k], 'f', -1, 64)}
	}

	writer := csv.NewWriter(w)
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("failed to write CSV: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// WriteFile writes p to path, creating parent directories. The file is
// written to a temporary sibling first and renamed into place.
func WriteFile(path string, p trigram.Profile) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*"+Ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if err = Write(tmp, p); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpPath, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}
	if err = os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", tmpPath, err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move profile into place: %w", err)
	}
	return nil
}

// Read parses "trigram,weight" records. Weights may be any non-negative
// finite decimal. A repeated trigram adds to the earlier weight.
func Read(r io.Reader) (trigram.Profile, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2
	reader.LazyQuotes = true

	p := make(trigram.Profile)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}

		line, _ := reader.FieldPos(0)
		key, raw := record[0], strings.TrimSpace(record[1])

		if n := utf8.RuneCountInString(key); n != trigram.Size {
			return nil, fmt.Errorf("line %d: trigram %q has %d code points", line, key, n)
		}
		w, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid weight %q: %w", line, raw, err)
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, fmt.Errorf("line %d: invalid weight %q", line, raw)
		}

		p[key] += w
	}
	return p, nil
}

// ReadFile reads the profile stored at path.
func ReadFile(path string) (trigram.Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open profile: %w", err)
	}
	defer f.Close()

	p, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// CodeFromPath returns the language code a profile file is named after,
// e.g. "resources/trigrams/en.csv" -> "en".
func CodeFromPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// Files returns the paths of the *.csv profiles in dir. Files whose names
// start with a dot are ignored.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.EqualFold(filepath.Ext(name), Ext) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}

// LoadDir reads every profile in dir, normalizes it, and returns the
// language profiles ordered by code.
func LoadDir(dir string) ([]trigram.LanguageProfile, error) {
	paths, err := Files(dir)
	if err != nil {
		return nil, err
	}

	languages := make([]trigram.LanguageProfile, 0, len(paths))
	for _, path := range paths {
		p, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		languages = append(languages, trigram.LanguageProfile{
			Code:   CodeFromPath(path),
			Vector: trigram.Normalize(p),
		})
	}

	sort.SliceStable(languages, func(i, j int) bool {
		return languages[i].Code < languages[j].Code
	})
	return languages, nil
}
