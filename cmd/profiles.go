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
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valpere/lequel/internal/config"
	"github.com/valpere/lequel/internal/profilecsv"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage reference profiles",
	Long: `List reference profiles and move them between the profiles directory and
the SQLite database.`,
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List reference profiles from the configured source",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

		if cfg.ProfilesSource == config.SourceDB {
			db, err := openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			infos, err := db.ListProfiles(context.Background())
			if err != nil {
				return fmt.Errorf("failed to list profiles: %w", err)
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No profiles in database.")
				return nil
			}

			fmt.Fprintln(w, "CODE\tTRIGRAMS\tTOTAL\tUPDATED\tSOURCE")
			for _, p := range infos {
				fmt.Fprintf(w, "%s\t%d\t%.0f\t%s\t%s\n",
					p.Code, p.TrigramCount, p.TotalCount,
					p.UpdatedAt.Format("2006-01-02 15:04"), p.Source)
			}
			return w.Flush()
		}

		paths, err := profilecsv.Files(cfg.ProfilesDir)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No profiles in %s.\n", cfg.ProfilesDir)
			return nil
		}

		fmt.Fprintln(w, "CODE\tTRIGRAMS\tTOTAL\tFILE")
		for _, path := range paths {
			p, err := profilecsv.ReadFile(path)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%d\t%.0f\t%s\n", profilecsv.CodeFromPath(path), len(p), p.Total(), path)
		}
		return w.Flush()
	},
}

var profilesImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the profiles directory into the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := profilecsv.Files(cfg.ProfilesDir)
		if err != nil {
			return err
		}

		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()
		for _, path := range paths {
			p, err := profilecsv.ReadFile(path)
			if err != nil {
				return err
			}
			code := profilecsv.CodeFromPath(path)
			if err := db.SaveProfile(ctx, code, path, p); err != nil {
				return fmt.Errorf("failed to import %s: %w", code, err)
			}
			logger.Debug("profile imported", zap.String("code", code), zap.Int("trigrams", len(p)))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d profiles into %s\n", len(paths), cfg.DB)
		return nil
	},
}

var profilesExportCmd = &cobra.Command{
	Use:   "export [code...]",
	Short: "Export database profiles to the profiles directory",
	Long:  `Write stored profiles as CSV files. With no codes, every stored profile is exported.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()

		for _, code := range args {
			if err := checkCode(code); err != nil {
				return err
			}
		}

		codes := args
		if len(codes) == 0 {
			infos, err := db.ListProfiles(ctx)
			if err != nil {
				return fmt.Errorf("failed to list profiles: %w", err)
			}
			for _, p := range infos {
				codes = append(codes, p.Code)
			}
		}

		if err := os.MkdirAll(cfg.ProfilesDir, 0755); err != nil {
			return fmt.Errorf("failed to create profiles directory: %w", err)
		}

		for _, code := range codes {
			p, err := db.LoadProfile(ctx, code)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", code, err)
			}
			path := filepath.Join(cfg.ProfilesDir, code+profilecsv.Ext)
			if err := profilecsv.WriteFile(path, p); err != nil {
				return fmt.Errorf("failed to export %s: %w", code, err)
			}
			logger.Debug("profile exported", zap.String("code", code), zap.String("path", path))
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d profiles to %s\n", len(codes), cfg.ProfilesDir)
		return nil
	},
}

var profilesDeleteCmd = &cobra.Command{
	Use:   "delete <code>",
	Short: "Delete a profile from the database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteProfile(context.Background(), args[0]); err != nil {
			return fmt.Errorf("failed to delete profile: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile: %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)

	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesImportCmd)
	profilesCmd.AddCommand(profilesExportCmd)
	profilesCmd.AddCommand(profilesDeleteCmd)
}
