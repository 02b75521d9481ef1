// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query translates filter criteria into ClinicalTrials.gov API v2
// query parameters.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/trial-finder/pkg/types"
)

// Registry parameter names.
const (
	ParamFormat    = "format"
	ParamCondition = "query.cond"
	ParamTerm      = "query.term"
	ParamLocation  = "query.locn"
	ParamStatus    = "filter.overallStatus"
	ParamAdvanced  = "filter.advanced"
	ParamPageSize  = "pageSize"
	ParamPageToken = "pageToken"
	ParamCount     = "countTotal"
)

// AgeFilterMode selects how an age band is encoded in the advanced filter.
type AgeFilterMode int

const (
	// AgeFilterCompact emits a single range predicate on MinimumAge.
	AgeFilterCompact AgeFilterMode = iota
	// AgeFilterExtended emits one predicate on MinimumAge and one on
	// MaximumAge, joined with AND.
	AgeFilterExtended
)

// ParseAgeFilterMode accepts "compact" and "extended".
func ParseAgeFilterMode(s string) (AgeFilterMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "compact":
		return AgeFilterCompact, nil
	case "extended":
		return AgeFilterExtended, nil
	default:
		return AgeFilterCompact, fmt.Errorf("unknown age filter mode %q: use compact or extended", s)
	}
}

// AgeRange is an inclusive age band expressed in the registry's
// "<n> years" notation.
type AgeRange struct {
	Min string
	Max string
}

var ageRanges = map[types.AgeGroup]AgeRange{
	types.AgeChild:      {Min: "0 years", Max: "17 years"},
	types.AgeAdult:      {Min: "18 years", Max: "64 years"},
	types.AgeOlderAdult: {Min: "65 years", Max: "120 years"},
}

// AgeRangeFor returns the band for g. The catch-all group has no band.
func AgeRangeFor(g types.AgeGroup) (AgeRange, bool) {
	r, ok := ageRanges[g]
	return r, ok
}

// otherStatuses are the registry statuses selected by types.StatusOther.
var otherStatuses = []string{
	"ACTIVE_NOT_RECRUITING",
	"ENROLLING_BY_INVITATION",
	"SUSPENDED",
	"TERMINATED",
	"WITHDRAWN",
	"AVAILABLE",
	"NO_LONGER_AVAILABLE",
	"TEMPORARILY_NOT_AVAILABLE",
	"APPROVED_FOR_MARKETING",
	"WITHHELD",
	"UNKNOWN",
}

// Build returns the parameters for the first page of a search. It has no
// side effects: equal criteria always encode to the same string.
//
// Catch-all selections (any status, any age, all study types, all genders)
// and empty text fields are omitted rather than sent as empty values.
func Build(c types.Criteria, mode AgeFilterMode, pageSize int) url.Values {
	params := url.Values{}
	params.Set(ParamFormat, "json")

	setIfNotEmpty(params, ParamCondition, c.Condition)
	setIfNotEmpty(params, ParamTerm, c.Terms)
	setIfNotEmpty(params, ParamLocation, c.Location)

	if status := statusFilter(c.Status); status != "" {
		params.Set(ParamStatus, status)
	}
	if adv := AdvancedFilter(c, mode); adv != "" {
		params.Set(ParamAdvanced, adv)
	}
	if pageSize > 0 {
		params.Set(ParamPageSize, strconv.Itoa(pageSize))
	}
	return params
}

// AdvancedFilter builds the registry's AREA[...] expression for age, study
// type and gender. It returns "" when every one of them is a catch-all.
func AdvancedFilter(c types.Criteria, mode AgeFilterMode) string {
	var clauses []string

	if r, ok := AgeRangeFor(c.AgeGroup); ok {
		switch mode {
		case AgeFilterExtended:
			clauses = append(clauses,
				fmt.Sprintf("AREA[MinimumAge]RANGE[%s, MAX]", r.Min),
				fmt.Sprintf("AREA[MaximumAge]RANGE[MIN, %s]", r.Max))
		default:
			clauses = append(clauses, fmt.Sprintf("AREA[MinimumAge]RANGE[%s, %s]", r.Min, r.Max))
		}
	}

	switch c.StudyType {
	case types.StudyTypeInterventional, types.StudyTypeObservational:
		clauses = append(clauses, "AREA[StudyType]"+strings.ToUpper(string(c.StudyType)))
	}

	switch c.Gender {
	case types.GenderMale, types.GenderFemale:
		clauses = append(clauses, "AREA[Sex]"+strings.ToUpper(string(c.Gender)))
	}

	return strings.Join(clauses, " AND ")
}

// WithPageToken returns a copy of params carrying the continuation token.
// The input is left untouched.
func WithPageToken(params url.Values, token string) url.Values {
	next := make(url.Values, len(params)+1)
	for k, v := range params {
		next[k] = append([]string(nil), v...)
	}
	if token == "" {
		next.Del(ParamPageToken)
	} else {
		next.Set(ParamPageToken, token)
	}
	return next
}

// Validate rejects unknown enum values and a result count outside
// [types.MinResults, maxCount]. Every problem found is reported.
func Validate(c types.Criteria, maxCount int) error {
	var errs []error
	if !c.Status.Valid() {
		errs = append(errs, fmt.Errorf("unknown status %q", c.Status))
	}
	if !c.AgeGroup.Valid() {
		errs = append(errs, fmt.Errorf("unknown age group %q", c.AgeGroup))
	}
	if !c.StudyType.Valid() {
		errs = append(errs, fmt.Errorf("unknown study type %q", c.StudyType))
	}
	if !c.Gender.Valid() {
		errs = append(errs, fmt.Errorf("unknown gender %q", c.Gender))
	}
	if c.MaxResults < types.MinResults || c.MaxResults > maxCount {
		errs = append(errs, fmt.Errorf("result count %d out of range [%d, %d]", c.MaxResults, types.MinResults, maxCount))
	}
	return errors.Join(errs...)
}

func statusFilter(s types.Status) string {
	switch s {
	case types.StatusAny:
		return ""
	case types.StatusOther:
		return strings.Join(otherStatuses, ",")
	default:
		return string(s)
	}
}

func setIfNotEmpty(params url.Values, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		params.Set(key, v)
	}
}
