// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trial-finder/internal/geocode"
	"github.com/pdiddy/trial-finder/internal/secrets"
)

var locationsCmd = &cobra.Command{
	Use:   "locations <query>",
	Short: "Suggest place names for a partial location",
	Long: `Locations asks the Mapbox geocoding API for place names that match a
partial location. Use a suggestion as the --location of a search.

Requires a Mapbox access token in .secrets/` + secrets.MapboxToken + ` or the
TRIAL_FINDER_MAPBOX_TOKEN environment variable.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLocations,
}

func init() {
	rootCmd.AddCommand(locationsCmd)
}

func runLocations(cmd *cobra.Command, args []string) error {
	geo := newGeocoder()
	if geo == nil {
		return geocode.ErrNoToken
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	q := strings.Join(args, " ")
	places, err := geo.Suggest(ctx, q)
	if err != nil {
		logger.WithError(err).Warn("location lookup failed")
		return fmt.Errorf("no location suggestions for %q", q)
	}

	out := cmd.OutOrStdout()
	if len(places) == 0 {
		fmt.Fprintln(out, "No suggestions found.")
		return nil
	}
	for _, p := range places {
		fmt.Fprintln(out, p)
	}
	return nil
}
