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
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/lequel/internal/identifier"
)

var (
	historyLimit  int
	historyScores bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the identification history",
	Long:  `List, summarise, and clear identifications recorded with --history.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded identifications, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := context.Background()

		entries, err := db.ListIdentifications(ctx, historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list identifications: %w", err)
		}

		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No identifications recorded.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWHEN\tRESULT\tSOURCE\tTEXT")
		for _, e := range entries {
			result := identifier.Result{Code: e.LangCode, Score: e.Score, Found: e.Found}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.CreatedAt.Format("2006-01-02 15:04"), result, e.Source, snippet(e.Text, 40))

			if historyScores {
				scores, err := db.GetScores(ctx, e.ID)
				if err != nil {
					return fmt.Errorf("failed to load scores: %w", err)
				}
				for _, s := range scores {
					fmt.Fprintf(w, "\t\t%s\t%.6f\t\n", s.Code, s.Score)
				}
			}
		}
		return w.Flush()
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show identification history statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.Stats(context.Background())
		if err != nil {
			return fmt.Errorf("failed to get stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Total identifications: %d\n", stats.Total)
		fmt.Fprintf(out, "Identified:            %d\n", stats.Identified)
		fmt.Fprintf(out, "Unknown:               %d\n", stats.Unknown)

		codes := make([]string, 0, len(stats.ByLanguage))
		for code := range stats.ByLanguage {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			fmt.Fprintf(out, "  %-8s %d\n", code, stats.ByLanguage[code])
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all recorded identifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearHistory(context.Background())
		if err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d identifications.\n", n)
		return nil
	},
}

// snippet shortens s to at most n runes on a single line.
func snippet(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum entries to show (0 = all)")
	historyListCmd.Flags().BoolVar(&historyScores, "scores", false, "Show every candidate's score")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyClearCmd)
}
