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
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valpere/lequel/internal/textsource"
	"github.com/valpere/lequel/internal/validator"
)

var (
	evalInputFile string
	evalJSON      bool
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Measure identification accuracy on labelled samples",
	Long: `Identify every sample of a labelled CSV file and report accuracy and a
confusion table.

Each CSV record is "code,text". Quote texts containing commas.

Example:
  lequel eval -i samples.csv
  lequel eval -i samples.csv --profiles-source db --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(evalInputFile)
		if err != nil {
			return fmt.Errorf("failed to open samples: %w", err)
		}
		defer f.Close()

		samples, err := validator.ReadSamples(f)
		if err != nil {
			return err
		}
		if len(samples) == 0 {
			return fmt.Errorf("samples file is empty")
		}
		for i := range samples {
			text, err := textsource.FromString(strings.Join(samples[i].Text, "\n"), cfg.Text.Options())
			if err != nil {
				return fmt.Errorf("sample %d: %w", i+1, err)
			}
			samples[i].Text = prepareText(text)
		}

		languages, err := loadLanguages(context.Background())
		if err != nil {
			return err
		}

		report := validator.New(newIdentifier(languages)).Evaluate(samples)
		logger.Info("evaluation finished",
			zap.Int("samples", report.Total),
			zap.Int("correct", report.Correct),
			zap.Float64("accuracy", report.Accuracy))

		if evalJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		return printReport(cmd.OutOrStdout(), report)
	},
}

func printReport(w io.Writer, report validator.Report) error {
	fmt.Fprintf(w, "Samples:  %d\n", report.Total)
	fmt.Fprintf(w, "Correct:  %d\n", report.Correct)
	fmt.Fprintf(w, "Unknown:  %d\n", report.Unknown)
	fmt.Fprintf(w, "Accuracy: %.2f%%\n\n", report.Accuracy*100)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EXPECTED\tSAMPLES\tCORRECT\tIDENTIFIED AS")
	for _, code := range report.Codes() {
		row := report.Confusion[code]

		got := make([]string, 0, len(row))
		for g := range row {
			got = append(got, g)
		}
		sort.Slice(got, func(i, j int) bool {
			if row[got[i]] != row[got[j]] {
				return row[got[i]] > row[got[j]]
			}
			return got[i] < got[j]
		})

		total := 0
		breakdown := ""
		for i, g := range got {
			total += row[g]
			if i > 0 {
				breakdown += " "
			}
			breakdown += fmt.Sprintf("%s:%d", g, row[g])
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", code, total, row[code], breakdown)
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(evalCmd)

	evalCmd.Flags().StringVarP(&evalInputFile, "input", "i", "", "Labelled samples CSV (required)")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "Print the report as JSON")

	evalCmd.MarkFlagRequired("input")
}
