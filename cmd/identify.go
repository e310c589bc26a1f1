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
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valpere/lequel/internal"
	"github.com/valpere/lequel/internal/chunker"
	"github.com/valpere/lequel/internal/detector"
	"github.com/valpere/lequel/internal/identifier"
	"github.com/valpere/lequel/internal/orchestrator"
	"github.com/valpere/lequel/internal/textsource"
	"github.com/valpere/lequel/internal/trigram"
	"github.com/valpere/lequel/internal/validator"
)

var (
	identifyInput  string
	identifyJSON   bool
	identifyScores bool
	identifyExpect string
)

var identifyKeys = map[string]string{
	"crosscheck":         "crosscheck",
	"crosscheck-timeout": "crosscheck_timeout",
	"crosscheck-chars":   "crosscheck_max_chars",
	"history":            "history",
	"google-credentials": "google.credentials",
	"google-project":     "google.project",
	"ollama-url":         "ollama.url",
	"ollama-model":       "ollama.model",
}

// identifyOutput is the --json representation of an identification.
type identifyOutput struct {
	ID         string             `json:"id,omitempty"`
	Code       string             `json:"code"`
	Score      float64            `json:"score"`
	Found      bool               `json:"found"`
	Scores     []identifier.Score `json:"scores,omitempty"`
	Crosscheck []crosscheckOutput `json:"crosscheck,omitempty"`
}

type crosscheckOutput struct {
	Service    string  `json:"service"`
	Code       string  `json:"code,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Agrees     bool    `json:"agrees"`
}

var identifyCmd = &cobra.Command{
	Use:   "identify [text...]",
	Short: "Identify the language of a text",
	Long: `Identify the language of a text by trigram cosine similarity against the
reference profiles.

The text is taken from the arguments (joined into one line), from the file
given with -i, or from standard input. The result is printed as
"code (score)", or "---" when no profile matches at all.

With --expect, the command fails unless the text is identified as the given
language, which makes it usable as a check in scripts.

Cross-check detectors:
  - lingua   Local statistical detector (github.com/pemistahl/lingua-go)
  - google   Google Cloud Translation language detection (requires credentials)
  - ollama   Local LLM served by Ollama

Example:
  lequel identify "the quick brown fox"
  lequel identify -i letter.txt --scores
  cat page.txt | lequel identify --json --crosscheck lingua
  lequel identify -i README.uk.md --strip-markup --expect uk`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		text, source, err := readIdentifyText(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		text = prepareText(text)

		languages, err := loadLanguages(ctx)
		if err != nil {
			return err
		}

		id := newIdentifier(languages)
		result, scores := id.IdentifyWithScores(text)
		logger.Info("identified",
			zap.String("source", source),
			zap.String("code", result.Code),
			zap.Float64("score", result.Score),
			zap.Bool("found", result.Found))

		out := identifyOutput{Code: result.Code, Score: result.Score, Found: result.Found}
		if identifyScores {
			out.Scores = scores
		}

		if len(cfg.Crosscheck) > 0 {
			checks, err := crosscheck(ctx, strings.Join(text, "\n"), result, id.Languages())
			if err != nil {
				return err
			}
			out.Crosscheck = checks
		}

		if cfg.History {
			out.ID, err = saveHistory(ctx, text, source, result, scores)
			if err != nil {
				logger.Warn("failed to save identification", zap.Error(err))
			} else {
				logger.Info("identification saved", zap.String("id", out.ID))
			}
		}

		if identifyJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			err = enc.Encode(out)
		} else {
			err = printIdentification(cmd.OutOrStdout(), out)
		}
		if err != nil || identifyExpect == "" {
			return err
		}

		_, err = validator.New(id).IsValid(text, identifyExpect)
		return err
	},
}

// readIdentifyText returns the text to identify and a label for its origin.
func readIdentifyText(stdin io.Reader, args []string) (trigram.Text, string, error) {
	opts := cfg.Text.Options()

	switch {
	case identifyInput != "" && len(args) > 0:
		return nil, "", fmt.Errorf("use either text arguments or --input, not both")
	case identifyInput != "":
		text, err := textsource.ReadFile(identifyInput, opts)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read input file: %w", err)
		}
		return text, identifyInput, nil
	case len(args) > 0:
		text, err := textsource.FromString(strings.Join(args, " "), opts)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read text: %w", err)
		}
		return text, "args", nil
	default:
		text, err := textsource.Read(stdin, opts)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read standard input: %w", err)
		}
		return text, "stdin", nil
	}
}

func crosscheck(ctx context.Context, text string, result identifier.Result, codes []string) ([]crosscheckOutput, error) {
	services, err := buildDetectors(cfg.Crosscheck, codes)
	if err != nil {
		return nil, err
	}

	excerpt := chunker.Head(text, cfg.CrosscheckMaxChars)
	logger.Debug("cross-check excerpt",
		zap.Int("chars", utf8.RuneCountInString(excerpt)),
		zap.Int("detectors", len(services)))

	orch := orchestrator.New(services, orchestrator.OrchestratorConfig{Timeout: cfg.CrosscheckTimeout})
	res := orch.Execute(ctx, excerpt)

	for _, e := range res.Errors {
		logger.Warn("cross-check failed", zap.Error(e))
	}

	agreed := make(map[string]bool)
	if result.Found {
		for _, name := range res.Agreement(result.Code) {
			agreed[name] = true
		}
	}

	checks := make([]crosscheckOutput, 0, len(res.Guesses))
	for _, g := range res.Guesses {
		logger.Debug("cross-check",
			zap.String("service", g.Service),
			zap.String("code", g.Code),
			zap.Float64("confidence", g.Confidence),
			zap.Duration("latency", g.Latency))
		checks = append(checks, crosscheckOutput{
			Service:    g.Service,
			Code:       g.Code,
			Confidence: g.Confidence,
			Agrees:     agreed[g.Service],
		})
	}
	return checks, nil
}

func saveHistory(ctx context.Context, text trigram.Text, source string, result identifier.Result, scores []identifier.Score) (string, error) {
	db, err := openStore()
	if err != nil {
		return "", err
	}
	defer db.Close()

	req := internal.IdentificationRequest{
		ID:        uuid.New().String(),
		Text:      strings.Join(text, "\n"),
		Source:    source,
		Timestamp: time.Now(),
	}
	if err := db.SaveIdentification(ctx, req, result, scores); err != nil {
		return "", fmt.Errorf("failed to save identification: %w", err)
	}
	return req.ID, nil
}

func printIdentification(w io.Writer, out identifyOutput) error {
	result := identifier.Result{Code: out.Code, Score: out.Score, Found: out.Found}
	fmt.Fprintln(w, result.String())

	if len(out.Scores) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "LANG\tSCORE")
		for _, s := range out.Scores {
			fmt.Fprintf(tw, "%s\t%.6f\n", s.Code, s.Score)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(out.Crosscheck) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DETECTOR\tLANG\tCONFIDENCE\tAGREES")
		for _, c := range out.Crosscheck {
			fmt.Fprintf(tw, "%s\t%s\t%.4f\t%v\n", c.Service, c.Code, c.Confidence, c.Agrees)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(identifyCmd)

	identifyCmd.Flags().StringVarP(&identifyInput, "input", "i", "", "Input text file (default: arguments or standard input)")
	identifyCmd.Flags().BoolVar(&identifyJSON, "json", false, "Print the result as JSON")
	identifyCmd.Flags().BoolVar(&identifyScores, "scores", false, "Print every candidate's score")
	identifyCmd.Flags().StringVar(&identifyExpect, "expect", "", "Fail unless the text is identified as this language code")

	identifyCmd.Flags().StringSlice("crosscheck", nil, "Detectors to compare against (lingua, google, ollama)")
	identifyCmd.Flags().Duration("crosscheck-timeout", 10*time.Second, "Timeout per cross-check detector")
	identifyCmd.Flags().Int("crosscheck-chars", chunker.DefaultMaxChars, "Maximum characters sent to cross-check detectors (0 = all)")
	identifyCmd.Flags().Bool("history", false, "Record the identification in the database")
	identifyCmd.Flags().String("google-credentials", "", "Path to Google Cloud credentials JSON")
	identifyCmd.Flags().String("google-project", "", "Google Cloud quota project")
	identifyCmd.Flags().String("ollama-url", detector.DefaultOllamaURL, "Ollama base URL")
	identifyCmd.Flags().String("ollama-model", detector.DefaultOllamaModel, "Ollama model used for detection")

	bindFlags(identifyCmd.Flags(), identifyKeys)
}
