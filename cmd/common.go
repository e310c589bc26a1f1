/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/valpere/lequel/internal/config"
	"github.com/valpere/lequel/internal/detector"
	"github.com/valpere/lequel/internal/identifier"
	"github.com/valpere/lequel/internal/markdown"
	"github.com/valpere/lequel/internal/profilecsv"
	"github.com/valpere/lequel/internal/store"
	"github.com/valpere/lequel/internal/trigram"
)

// openStore opens the configured database, creating its directory if needed.
func openStore() (*store.Store, error) {
	if dir := filepath.Dir(cfg.DB); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := store.New(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// checkCode rejects language codes that cannot name a file in the profiles
// directory.
func checkCode(code string) error {
	if code == "" || code == "." || code == ".." || strings.ContainsAny(code, `/\`) {
		return fmt.Errorf("invalid language code %q", code)
	}
	return nil
}

// loadLanguages returns the reference profiles from the configured source.
func loadLanguages(ctx context.Context) ([]trigram.LanguageProfile, error) {
	var (
		languages []trigram.LanguageProfile
		err       error
	)

	switch cfg.ProfilesSource {
	case config.SourceDB:
		var db *store.Store
		db, err = openStore()
		if err != nil {
			return nil, err
		}
		defer db.Close()
		languages, err = db.LoadLanguages(ctx)
	default:
		languages, err = profilecsv.LoadDir(cfg.ProfilesDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}

	logger.Debug("profiles loaded",
		zap.String("source", cfg.ProfilesSource),
		zap.Int("languages", len(languages)))
	if len(languages) == 0 {
		logger.Warn("no reference profiles loaded; every text will be unidentified")
	}
	return languages, nil
}

// newIdentifier builds an identifier over languages that logs every
// candidate's score at debug level.
func newIdentifier(languages []trigram.LanguageProfile) *identifier.Identifier {
	return identifier.New(languages,
		identifier.WithWorkers(cfg.Workers),
		identifier.WithObserver(func(code string, score float64) {
			logger.Debug("candidate score", zap.String("code", code), zap.Float64("score", score))
		}),
	)
}

// prepareText applies the configured clean-up to text before it is scored.
func prepareText(text trigram.Text) trigram.Text {
	if cfg.Text.StripMarkup {
		return markdown.Strip(text)
	}
	return text
}

// buildDetectors constructs the cross-check detectors named in names. codes
// restricts the local detector to the languages that have reference profiles.
func buildDetectors(names, codes []string) ([]detector.Service, error) {
	var list []detector.Service

	for _, name := range names {
		switch name {
		case "lingua":
			list = append(list, detector.New(codes...))
		case "google":
			var opts []option.ClientOption
			if cfg.Google.Project != "" {
				opts = append(opts, option.WithQuotaProject(cfg.Google.Project))
			}
			list = append(list, detector.NewGoogleService(cfg.Google.Credentials, opts...))
		case "ollama":
			list = append(list, detector.NewOllamaService(cfg.Ollama.Model, cfg.Ollama.URL))
		default:
			logger.Warn("unknown detector, skipping", zap.String("detector", name))
		}
	}

	if len(list) == 0 {
		return nil, fmt.Errorf("no valid detectors configured")
	}
	return list, nil
}
