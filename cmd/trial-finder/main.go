// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the trial-finder CLI: search the
// ClinicalTrials.gov registry, export results, suggest locations and
// serve the same operations over HTTP.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/trial-finder/internal/geocode"
	"github.com/pdiddy/trial-finder/internal/logging"
	"github.com/pdiddy/trial-finder/internal/registry"
	"github.com/pdiddy/trial-finder/internal/secrets"
	"github.com/pdiddy/trial-finder/internal/trials"
	"github.com/pdiddy/trial-finder/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Set by the root command before any subcommand runs.
var (
	loadedSecrets secrets.Store
	logger        *logrus.Logger
	cfg           types.Config
)

// rootCmd is the base command for the trial-finder CLI.
var rootCmd = &cobra.Command{
	Use:   "trial-finder",
	Short: "Search ClinicalTrials.gov and export matching studies",
	Long: `trial-finder queries the public ClinicalTrials.gov registry (API v2) by
condition, terms, location, status, age group, study type and gender, and
shows or exports the matching studies as a table, CSV, JSON, XLSX or SQLite
file. The serve subcommand exposes the same search over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = loadConfig(); err != nil {
			return err
		}
		if logger, err = logging.New(cfg.Log, os.Stderr); err != nil {
			return err
		}

		s, err := secrets.Load(secrets.DefaultDir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.WithField("keys", keys).Debug("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./trial-finder.yaml or ~/.config/trial-finder/trial-finder.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("trial-finder")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "trial-finder"))
		}
	}

	viper.SetEnvPrefix("TRIAL_FINDER")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(types.DefaultConfig())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func setDefaults(d types.Config) {
	viper.SetDefault("registry.base_url", d.Registry.BaseURL)
	viper.SetDefault("registry.timeout", d.Registry.Timeout)
	viper.SetDefault("registry.user_agent", d.Registry.UserAgent)
	viper.SetDefault("registry.page_size", d.Registry.PageSize)
	viper.SetDefault("registry.max_pages", d.Registry.MaxPages)

	viper.SetDefault("geocode.base_url", d.Geocode.BaseURL)
	viper.SetDefault("geocode.timeout", d.Geocode.Timeout)
	viper.SetDefault("geocode.user_agent", d.Geocode.UserAgent)
	viper.SetDefault("geocode.country", d.Geocode.Country)

	viper.SetDefault("server.addr", d.Server.Addr)
	viper.SetDefault("server.request_timeout", d.Server.RequestTimeout)

	viper.SetDefault("log.level", d.Log.Level)
	viper.SetDefault("log.format", d.Log.Format)
}

// loadConfig decodes the merged defaults, config file, environment and
// bound flags.
func loadConfig() (types.Config, error) {
	c := types.DefaultConfig()
	if err := viper.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decoding config: %w", err)
	}
	return c, nil
}

// newGeocoder returns a Mapbox client, or nil when no token is configured.
func newGeocoder() *geocode.Mapbox {
	token := loadedSecrets.Get(secrets.MapboxToken)
	if token == "" {
		return nil
	}
	return geocode.NewMapbox(token, cfg.Geocode)
}

// newSearcher wires a searcher from the loaded config. The geocoder is
// attached only when a token is available.
func newSearcher() *trials.Searcher {
	client := registry.NewClient(&http.Client{}, cfg.Registry, logger)
	var geo trials.Suggester
	if g := newGeocoder(); g != nil {
		geo = g
	}
	return trials.NewSearcher(client, geo, logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
