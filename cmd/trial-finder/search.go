// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/trial-finder/internal/export"
	"github.com/pdiddy/trial-finder/internal/normalize"
	"github.com/pdiddy/trial-finder/internal/query"
	"github.com/pdiddy/trial-finder/internal/registry"
	"github.com/pdiddy/trial-finder/internal/trials"
	"github.com/pdiddy/trial-finder/pkg/types"
)

// formatTable prints results to the terminal instead of exporting them.
const formatTable = "table"

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search ClinicalTrials.gov for matching studies",
	Long: `Search queries the ClinicalTrials.gov API v2 with the given filters and
prints the matching studies as a table or exports them.

Without --paged a single page of 10 to 100 studies is requested. With
--paged continuation tokens are followed for up to 1000 studies.

Binary formats (xlsx, sqlite) are written to --out, or to
clinical_trials.xlsx / clinical_trials.db when --out is not set. Text
formats go to stdout unless --out is given.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("condition", "", "condition or disease (e.g. \"breast cancer\")")
	searchCmd.Flags().String("term", "", "other terms (e.g. drug name or NCT ID)")
	searchCmd.Flags().String("location", "", "city, state or country")
	searchCmd.Flags().String("status", "", "RECRUITING, NOT_YET_RECRUITING, COMPLETED or OTHER (default any)")
	searchCmd.Flags().String("age-group", "", "child, adult or older_adult (default any)")
	searchCmd.Flags().String("study-type", "all", "all, interventional or observational")
	searchCmd.Flags().String("gender", "all", "all, male or female")
	searchCmd.Flags().Int("max-results", types.MinResults, "number of studies to fetch")
	searchCmd.Flags().Bool("paged", false, "follow page tokens for up to 1000 studies")
	searchCmd.Flags().Bool("expand-locations", false, "one row per study location instead of one per study")
	searchCmd.Flags().String("age-filter", "compact", "age filter encoding: compact or extended")
	searchCmd.Flags().Bool("resolve-location", false, "replace --location with the best Mapbox suggestion")
	searchCmd.Flags().String("format", formatTable, "table, csv, json, raw-json, xlsx or sqlite")
	searchCmd.Flags().String("out", "", "output file (default stdout for text formats)")
	searchCmd.Flags().String("save", "", "also save the criteria and result table to this YAML file")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	c, opts, err := searchInputFromFlags(cmd)
	if err != nil {
		return err
	}
	formatName, _ := cmd.Flags().GetString("format")
	outPath, _ := cmd.Flags().GetString("out")
	savePath, _ := cmd.Flags().GetString("save")

	var format export.Format
	if !strings.EqualFold(formatName, formatTable) {
		if format, err = export.ParseFormat(formatName); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := newSearcher().Search(ctx, c, opts)
	if err != nil {
		if !trials.IsNoData(err) {
			return err
		}
		logger.WithError(err).Warn("search failed")
		return errors.New(trials.NoDataMessage)
	}

	out := cmd.OutOrStdout()
	if res.Empty() {
		fmt.Fprintln(out, trials.NoDataMessage)
		return nil
	}

	if savePath != "" {
		if err := export.WriteSavedSearch(savePath, savedSearch(res, opts)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved search to %s\n", savePath)
	}

	if format == "" {
		printTable(out, res.Table)
		printSummary(out, res)
		return nil
	}
	return writeExport(cmd, format, outPath, res.Table, res.Records)
}

// searchInputFromFlags reads the filter and option flags. Every invalid
// filter is reported at once.
func searchInputFromFlags(cmd *cobra.Command) (types.Criteria, trials.Options, error) {
	flags := cmd.Flags()
	condition, _ := flags.GetString("condition")
	term, _ := flags.GetString("term")
	location, _ := flags.GetString("location")
	status, _ := flags.GetString("status")
	ageGroup, _ := flags.GetString("age-group")
	studyType, _ := flags.GetString("study-type")
	gender, _ := flags.GetString("gender")
	maxResults, _ := flags.GetInt("max-results")

	c, err := types.CriteriaInput{
		Condition:  condition,
		Terms:      term,
		Location:   location,
		Status:     status,
		AgeGroup:   ageGroup,
		StudyType:  studyType,
		Gender:     gender,
		MaxResults: maxResults,
	}.Parse()
	if err != nil {
		return c, trials.Options{}, err
	}

	var opts trials.Options
	opts.Paged, _ = flags.GetBool("paged")
	opts.ExpandLocations, _ = flags.GetBool("expand-locations")
	opts.ResolveLocation, _ = flags.GetBool("resolve-location")
	ageFilter, _ := flags.GetString("age-filter")
	if opts.AgeMode, err = query.ParseAgeFilterMode(ageFilter); err != nil {
		return c, opts, err
	}
	return c, opts, nil
}

func savedSearch(res *trials.Result, opts trials.Options) export.SavedSearch {
	ageFilter := "compact"
	if opts.AgeMode == query.AgeFilterExtended {
		ageFilter = "extended"
	}
	return export.SavedSearch{
		Criteria: res.Criteria,
		Options: export.SearchOptions{
			Paged:           opts.Paged,
			ExpandLocations: opts.ExpandLocations,
			AgeFilter:       ageFilter,
		},
		Summary: export.SearchSummary{
			RunID:      res.RunID,
			Studies:    len(res.Studies),
			Pages:      res.Pages,
			TotalCount: res.TotalCount,
			Stopped:    string(res.Stopped),
		},
		Table: res.Table,
	}
}

// writeExport writes t (or records, for raw JSON) in format f. Binary
// formats never go to stdout.
func writeExport(cmd *cobra.Command, f export.Format, outPath string, t normalize.Table, records []normalize.Record) error {
	if outPath == "" && (f == export.FormatXLSX || f == export.FormatSQLite) {
		outPath = f.Filename()
	}

	if f == export.FormatSQLite {
		if err := export.WriteSQLite(outPath, t); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s\n", t.Len(), outPath)
		return nil
	}

	if outPath == "" {
		return export.Write(cmd.OutOrStdout(), f, t, records)
	}

	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	if err := export.Write(file, f, t, records); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", outPath, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s\n", t.Len(), outPath)
	return nil
}

// displayColumns are the columns shown in terminal output, with their
// widths. Columns missing from a table are skipped.
var displayColumns = []struct {
	name  string
	width int
}{
	{"NCT ID", 11},
	{"Title", 50},
	{"Phase", 14},
	{"Primary Location", 30},
	{"Facility", 30},
	{"City", 16},
	{"State", 14},
	{"Link to Study", 0},
}

func printTable(w io.Writer, t normalize.Table) {
	type col struct {
		index, width int
		name         string
	}
	var cols []col
	for _, dc := range displayColumns {
		for j, name := range t.Columns {
			if name == dc.name {
				cols = append(cols, col{index: j, width: dc.width, name: name})
			}
		}
	}

	header := make([]string, len(cols))
	total := 5
	for i, c := range cols {
		header[i] = pad(c.name, c.width)
		total += c.width + 2
	}
	fmt.Fprintf(w, "%-4s  %s\n", "#", strings.Join(header, "  "))
	fmt.Fprintln(w, strings.Repeat("-", max(total, 60)))

	for i, row := range t.Rows {
		cells := make([]string, len(cols))
		for k, c := range cols {
			cells[k] = pad(row[c.index], c.width)
		}
		fmt.Fprintf(w, "%-4d  %s\n", i+1, strings.Join(cells, "  "))
	}
}

// pad truncates s to width runes, marking the cut with "...", and pads it
// to width. A zero width leaves s as is.
func pad(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) > width {
		r = append(r[:width-3], []rune("...")...)
	}
	return fmt.Sprintf("%-*s", width, string(r))
}

func printSummary(w io.Writer, res *trials.Result) {
	fmt.Fprintf(w, "\n%d studies", len(res.Studies))
	if res.Table.Len() != len(res.Studies) {
		fmt.Fprintf(w, " in %d rows", res.Table.Len())
	}
	if res.TotalCount > len(res.Studies) {
		fmt.Fprintf(w, " (of %d matching)", res.TotalCount)
	}
	fmt.Fprintln(w)

	switch res.Stopped {
	case registry.StopNoProgress, registry.StopRepeatedToken, registry.StopMaxPages:
		fmt.Fprintf(w, "Pagination stopped early: %s\n", res.Stopped)
	}
}
