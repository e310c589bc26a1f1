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
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valpere/lequel/internal/corpus"
	"github.com/valpere/lequel/internal/profilecsv"
)

var (
	addInputFile  string
	addOutputFile string
	addCode       string
	addStore      bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Build a reference profile from a corpus",
	Long: `Count the trigrams of a sample corpus and write them as a reference
profile CSV.

The language code is taken from --code, or from the output file name. When
only --code is given, the profile is written to <profiles>/<code>.csv.

Example:
  lequel add -i corpora/english.txt -o resources/trigrams/en.csv
  lequel add -i corpora/ukrainian.txt --code uk --store`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addOutputFile == "" && addCode == "" {
			return fmt.Errorf("either --output or --code is required")
		}

		code := addCode
		if code == "" {
			code = profilecsv.CodeFromPath(addOutputFile)
		}
		if err := checkCode(code); err != nil {
			return err
		}

		output := addOutputFile
		if output == "" {
			output = filepath.Join(cfg.ProfilesDir, code+profilecsv.Ext)
		}
		if addInputFile == output {
			return fmt.Errorf("input file and output file cannot be the same")
		}

		ctx := context.Background()

		p, err := corpus.AddLanguage(ctx, addInputFile, output, cfg.Text.Options())
		if err != nil {
			return err
		}
		logger.Info("profile written",
			zap.String("code", code),
			zap.String("path", output),
			zap.Int("trigrams", len(p)),
			zap.Float64("total", p.Total()))

		if addStore {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.SaveProfile(ctx, code, addInputFile, p); err != nil {
				return fmt.Errorf("failed to store profile: %w", err)
			}
			logger.Info("profile stored", zap.String("code", code), zap.String("db", cfg.DB))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Profile %s written to %s (%d trigrams)\n", code, output, len(p))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().StringVarP(&addInputFile, "input", "i", "", "Corpus text file (required)")
	addCmd.Flags().StringVarP(&addOutputFile, "output", "o", "", "Output profile CSV")
	addCmd.Flags().StringVar(&addCode, "code", "", "Language code (default: output file name)")
	addCmd.Flags().BoolVar(&addStore, "store", false, "Also save the profile to the database")

	addCmd.MarkFlagRequired("input")
}
