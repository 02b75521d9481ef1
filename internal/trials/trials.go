// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trials runs one search end to end: criteria are turned into
// registry parameters, pages are fetched, and the records are normalized
// into a table ready for display or export.
package trials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/trial-finder/internal/logging"
	"github.com/pdiddy/trial-finder/internal/normalize"
	"github.com/pdiddy/trial-finder/internal/query"
	"github.com/pdiddy/trial-finder/internal/registry"
	"github.com/pdiddy/trial-finder/pkg/types"
)

// NoDataMessage is shown by the CLI and the HTTP API in place of any fetch
// failure or empty result.
const NoDataMessage = "No results found or error fetching data."

// ErrInvalidCriteria marks errors caused by the caller's input rather
// than by the registry.
var ErrInvalidCriteria = errors.New("invalid search criteria")

// IsNoData reports whether err is a fetch failure that surfaces show as
// NoDataMessage. Invalid criteria are reported as they are.
func IsNoData(err error) bool {
	return err != nil && !errors.Is(err, ErrInvalidCriteria)
}

// Suggester resolves a partial location to place names, best first.
type Suggester interface {
	Suggest(ctx context.Context, q string) ([]string, error)
}

// Options control how a search is run and laid out.
type Options struct {
	// Paged follows continuation tokens for up to types.MaxPagedResults
	// studies. Otherwise a single page of at most types.MaxSimpleResults
	// is requested.
	Paged           bool
	ExpandLocations bool
	AgeMode         query.AgeFilterMode
	// ResolveLocation replaces the location with the geocoder's best
	// suggestion before searching.
	ResolveLocation bool
}

// Result is everything one search produced.
type Result struct {
	RunID    string
	Criteria types.Criteria
	Records  []normalize.Record
	Studies  []normalize.Study
	Table    normalize.Table
	Pages    int
	// TotalCount is the registry's match count, or -1 when unknown.
	TotalCount int
	Stopped    registry.StopReason
}

// Empty reports whether the search matched no studies.
func (r *Result) Empty() bool { return len(r.Records) == 0 }

// Searcher wires the query builder, the registry client and the
// normalizer together.
type Searcher struct {
	Registry *registry.Client
	// Geocoder is optional; without it ResolveLocation is ignored.
	Geocoder Suggester
	Logger   *logrus.Logger
}

// NewSearcher returns a searcher over client. geocoder may be nil.
func NewSearcher(client *registry.Client, geocoder Suggester, logger *logrus.Logger) *Searcher {
	return &Searcher{Registry: client, Geocoder: geocoder, Logger: logging.OrDiscard(logger)}
}

// Search validates c, fetches matching studies and builds the table.
// Zero matches is not an error: the result holds a header-only table.
func (s *Searcher) Search(ctx context.Context, c types.Criteria, opts Options) (*Result, error) {
	maxCount := types.MaxSimpleResults
	if opts.Paged {
		maxCount = types.MaxPagedResults
	}
	if err := query.Validate(c, maxCount); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCriteria, err)
	}

	runID := uuid.NewString()
	log := s.Logger.WithField("run_id", runID)
	start := time.Now()

	if opts.ResolveLocation {
		c.Location = s.resolveLocation(ctx, log, c.Location)
	}

	log.WithFields(logrus.Fields{
		"condition":   c.Condition,
		"location":    c.Location,
		"status":      string(c.Status),
		"age_group":   string(c.AgeGroup),
		"study_type":  string(c.StudyType),
		"gender":      string(c.Gender),
		"max_results": c.MaxResults,
		"paged":       opts.Paged,
	}).Info("search started")

	var (
		fetched registry.FetchResult
		err     error
	)
	if opts.Paged {
		fetched, err = s.fetchPaged(ctx, c, opts)
	} else {
		fetched, err = s.fetchSingle(ctx, c, opts)
	}
	if err != nil {
		log.WithError(err).Error("search failed")
		return nil, err
	}

	studies := normalize.Studies(fetched.Records)
	res := &Result{
		RunID:      runID,
		Criteria:   c,
		Records:    fetched.Records,
		Studies:    studies,
		Table:      normalize.BuildTable(studies, opts.ExpandLocations),
		Pages:      fetched.Pages,
		TotalCount: fetched.TotalCount,
		Stopped:    fetched.Stopped,
	}

	log.WithFields(logrus.Fields{
		"studies":     len(res.Studies),
		"rows":        res.Table.Len(),
		"pages":       res.Pages,
		"total_count": res.TotalCount,
		"stopped":     string(res.Stopped),
		"elapsed":     time.Since(start).Round(time.Millisecond).String(),
	}).Info("search finished")
	return res, nil
}

// fetchSingle requests one page sized to the target.
func (s *Searcher) fetchSingle(ctx context.Context, c types.Criteria, opts Options) (registry.FetchResult, error) {
	params := query.Build(c, opts.AgeMode, c.MaxResults)
	params.Set(query.ParamCount, "true")

	page, err := s.Registry.FetchPage(ctx, params)
	if err != nil {
		return registry.FetchResult{}, fmt.Errorf("fetching studies: %w", err)
	}

	records := page.Records
	if len(records) > c.MaxResults {
		records = records[:c.MaxResults]
	}
	stopped := registry.StopTarget
	if page.NextPageToken == "" {
		stopped = registry.StopExhausted
	}
	return registry.FetchResult{
		Records:    records,
		Pages:      1,
		TotalCount: page.TotalCount,
		Stopped:    stopped,
	}, nil
}

// fetchPaged follows continuation tokens using the configured page size,
// never asking for more per page than the target.
func (s *Searcher) fetchPaged(ctx context.Context, c types.Criteria, opts Options) (registry.FetchResult, error) {
	pageSize := s.Registry.Config.PageSize
	if pageSize <= 0 || pageSize > types.MaxSimpleResults {
		pageSize = types.MaxSimpleResults
	}
	pageSize = min(pageSize, c.MaxResults)

	res, err := s.Registry.FetchStudies(ctx, query.Build(c, opts.AgeMode, pageSize), c.MaxResults)
	if err != nil {
		return registry.FetchResult{}, fmt.Errorf("fetching studies: %w", err)
	}
	return res, nil
}

// resolveLocation returns the best suggestion for loc, or loc itself when
// there is no geocoder, no suggestion or the lookup fails.
func (s *Searcher) resolveLocation(ctx context.Context, log *logrus.Entry, loc string) string {
	if s.Geocoder == nil || loc == "" {
		return loc
	}
	places, err := s.Geocoder.Suggest(ctx, loc)
	if err != nil {
		log.WithError(err).Warn("location lookup failed; searching with the location as typed")
		return loc
	}
	if len(places) == 0 {
		return loc
	}
	log.WithFields(logrus.Fields{"location": loc, "resolved": places[0]}).Debug("resolved location")
	return places[0]
}
