// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trial-finder/internal/export"
)

var showCmd = &cobra.Command{
	Use:   "show <saved-search.yaml>",
	Short: "Display or re-export a saved search without querying the registry",
	Long: `Show loads a search saved with "search --save" and prints its table or
exports it in another format. Raw registry JSON is not kept in saved
searches, so raw-json is not available here.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().String("format", formatTable, "table, csv, json, xlsx or sqlite")
	showCmd.Flags().String("out", "", "output file (default stdout for text formats)")

	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	saved, err := export.ReadSavedSearch(args[0])
	if err != nil {
		return err
	}
	formatName, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")

	out := cmd.OutOrStdout()
	if strings.EqualFold(formatName, formatTable) {
		c := saved.Criteria
		fmt.Fprintf(out, "Saved %s  condition=%q location=%q status=%q\n\n",
			saved.Summary.Timestamp.Format("2006-01-02 15:04"), c.Condition, c.Location, c.Status)
		printTable(out, saved.Table)
		fmt.Fprintf(out, "\n%d studies in %d rows\n", saved.Summary.Studies, saved.Table.Len())
		return nil
	}

	format, err := export.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if format == export.FormatRawJSON {
		return fmt.Errorf("saved searches do not keep raw registry JSON")
	}
	return writeExport(cmd, format, outPath, saved.Table, nil)
}
