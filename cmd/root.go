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
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/valpere/lequel/internal/config"
	"github.com/valpere/lequel/internal/logging"
)

var version = "0.1.0"

var (
	cfgFile string

	v      = viper.New()
	cfg    *config.Config
	logger = zap.NewNop()
)

// persistentKeys maps root persistent flags to config keys.
var persistentKeys = map[string]string{
	"log-level":       "log.level",
	"log-format":      "log.format",
	"profiles":        "profiles_dir",
	"profiles-source": "profiles_source",
	"db":              "db",
	"workers":         "workers",
	"encoding":        "text.encoding",
	"strict":          "text.strict",
	"nfc":             "text.nfc",
	"strip-markup":    "text.strip_markup",
}

var rootCmd = &cobra.Command{
	Use:   "lequel",
	Short: "Trigram language identifier",
	Long: `Identify the natural language of a text by comparing its letter-trigram
profile with reference profiles built from sample corpora.

Reference profiles are CSV files of "trigram,count" rows, one file per
language, named after the language code (en.csv, es.csv, ...). They can also
be imported into a SQLite database and loaded from there.

Use "lequel identify --help" for identification options.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded

		l, err := logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}
		logger = l
		logger.Debug("configuration loaded",
			zap.String("config", v.ConfigFileUsed()),
			zap.String("profiles_source", cfg.ProfilesSource),
			zap.Int("workers", cfg.Workers))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", name, err))
		}
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default: ./lequel.yaml or $HOME/.config/lequel/lequel.yaml)")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-format", "console", "Log format (console, json)")
	pf.StringP("profiles", "p", "./resources/trigrams", "Directory of reference profiles")
	pf.String("profiles-source", config.SourceDir, "Where to load reference profiles from (dir, db)")
	pf.String("db", "./data/lequel.db", "Database path for stored profiles and history")
	pf.Int("workers", 1, "Number of goroutines scoring candidate languages")
	pf.String("encoding", "utf-8", "Input text encoding")
	pf.Bool("strict", false, "Reject input containing invalid UTF-8")
	pf.Bool("nfc", true, "Normalize input to Unicode NFC")
	pf.Bool("strip-markup", false, "Reduce Markdown and HTML input to its prose before identification")

	bindFlags(pf, persistentKeys)
}
