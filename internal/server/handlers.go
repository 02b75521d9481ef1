// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/trial-finder/internal/export"
	"github.com/pdiddy/trial-finder/internal/geocode"
	"github.com/pdiddy/trial-finder/internal/query"
	"github.com/pdiddy/trial-finder/internal/trials"
	"github.com/pdiddy/trial-finder/pkg/types"
)

// StudiesResponse is the JSON body of a successful search.
type StudiesResponse struct {
	RunID      string     `json:"run_id"`
	Studies    int        `json:"studies"`
	TotalCount int        `json:"total_count"`
	Pages      int        `json:"pages"`
	Stopped    string     `json:"stopped"`
	Columns    []string   `json:"columns"`
	Rows       [][]string `json:"rows"`
}

func (s *Server) handleStudies(w http.ResponseWriter, r *http.Request) {
	c, opts, format, err := parseStudiesRequest(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid search parameters", err)
		return
	}

	log := s.logger.WithField("request_id", middleware.GetReqID(r.Context()))

	res, err := s.searcher.Search(r.Context(), c, opts)
	if err != nil {
		if !trials.IsNoData(err) {
			respondError(w, http.StatusBadRequest, "invalid search parameters", err)
			return
		}
		log.WithError(err).Warn("search failed")
		respondNoData(w)
		return
	}
	if res.Empty() {
		respondNoData(w)
		return
	}

	if format == "" {
		respondJSON(w, http.StatusOK, StudiesResponse{
			RunID:      res.RunID,
			Studies:    len(res.Studies),
			TotalCount: res.TotalCount,
			Pages:      res.Pages,
			Stopped:    string(res.Stopped),
			Columns:    res.Table.Columns,
			Rows:       res.Table.Rows,
		})
		return
	}

	body, err := encode(format, res)
	if err != nil {
		log.WithError(err).Error("export failed")
		respondError(w, http.StatusInternalServerError, "export failed", nil)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// encode renders res fully before anything is written, so a failed export
// can still answer with an error status.
func encode(format export.Format, res *trials.Result) ([]byte, error) {
	if format == export.FormatSQLite {
		return encodeSQLite(res)
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, format, res.Table, res.Records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeSQLite(res *trials.Result) ([]byte, error) {
	dir, err := os.MkdirTemp("", "trial-finder-")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, export.FormatSQLite.Filename())
	if err := export.WriteSQLite(path, res.Table); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// parseStudiesRequest reads criteria, options and the export format from
// the query string. An empty format means the JSON table response.
func parseStudiesRequest(r *http.Request) (types.Criteria, trials.Options, export.Format, error) {
	q := r.URL.Query()
	var errs []error

	maxResults := types.MinResults
	if v := q.Get("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("max_results: %w", err))
		}
		maxResults = n
	}

	terms := q.Get("terms")
	if terms == "" {
		terms = q.Get("term")
	}
	c, err := types.CriteriaInput{
		Condition:  q.Get("condition"),
		Terms:      terms,
		Location:   q.Get("location"),
		Status:     q.Get("status"),
		AgeGroup:   q.Get("age_group"),
		StudyType:  q.Get("study_type"),
		Gender:     q.Get("gender"),
		MaxResults: maxResults,
	}.Parse()
	if err != nil {
		errs = append(errs, err)
	}

	var opts trials.Options
	for _, flag := range []struct {
		name string
		dst  *bool
	}{
		{"paged", &opts.Paged},
		{"expand_locations", &opts.ExpandLocations},
		{"resolve_location", &opts.ResolveLocation},
	} {
		if v := q.Get(flag.name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", flag.name, err))
			}
			*flag.dst = b
		}
	}
	if opts.AgeMode, err = query.ParseAgeFilterMode(q.Get("age_filter")); err != nil {
		errs = append(errs, err)
	}

	var format export.Format
	if v := strings.TrimSpace(q.Get("format")); v != "" && !strings.EqualFold(v, "table") {
		if format, err = export.ParseFormat(v); err != nil {
			errs = append(errs, err)
		}
	}

	return c, opts, format, errors.Join(errs...)
}

// LocationsResponse is the JSON body of a suggestion lookup.
type LocationsResponse struct {
	Suggestions []string `json:"suggestions"`
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		respondError(w, http.StatusBadRequest, "q is required", nil)
		return
	}
	if s.geocoder == nil {
		respondError(w, http.StatusServiceUnavailable, "location suggestions are not configured", nil)
		return
	}

	places, err := s.geocoder.Suggest(r.Context(), q)
	if err != nil {
		if errors.Is(err, geocode.ErrNoToken) {
			respondError(w, http.StatusServiceUnavailable, "location suggestions are not configured", nil)
			return
		}
		s.logger.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"query":      q,
		}).WithError(err).Warn("location lookup failed")
		respondError(w, http.StatusNotFound, "No location suggestions found.", nil)
		return
	}
	respondJSON(w, http.StatusOK, LocationsResponse{Suggestions: places})
}
