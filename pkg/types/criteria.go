// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the trial-finder pipeline:
// the user's filter criteria and the configuration of each stage.
package types

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the registry's overall recruitment status filter.
type Status string

const (
	// StatusAny is the catch-all; no status filter is sent.
	StatusAny              Status = ""
	StatusRecruiting       Status = "RECRUITING"
	StatusNotYetRecruiting Status = "NOT_YET_RECRUITING"
	StatusCompleted        Status = "COMPLETED"
	// StatusOther selects every registry status not listed above.
	StatusOther Status = "OTHER"
)

// AgeGroup is a user-facing age band.
type AgeGroup string

const (
	AgeAny        AgeGroup = ""
	AgeChild      AgeGroup = "child"
	AgeAdult      AgeGroup = "adult"
	AgeOlderAdult AgeGroup = "older_adult"
)

// StudyType restricts results to interventional or observational studies.
type StudyType string

const (
	StudyTypeAll            StudyType = "all"
	StudyTypeInterventional StudyType = "interventional"
	StudyTypeObservational  StudyType = "observational"
)

// Gender restricts results by the eligible sex of participants.
type Gender string

const (
	GenderAll    Gender = "all"
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Result-count bounds for the two search flows.
const (
	MinResults       = 10
	MaxSimpleResults = 100
	MaxPagedResults  = 1000
)

// Criteria holds the filter selections of one search.
type Criteria struct {
	Condition  string    `json:"condition,omitempty" yaml:"condition,omitempty"`
	Terms      string    `json:"terms,omitempty" yaml:"terms,omitempty"`
	Location   string    `json:"location,omitempty" yaml:"location,omitempty"`
	Status     Status    `json:"status,omitempty" yaml:"status,omitempty"`
	AgeGroup   AgeGroup  `json:"age_group,omitempty" yaml:"age_group,omitempty"`
	StudyType  StudyType `json:"study_type,omitempty" yaml:"study_type,omitempty"`
	Gender     Gender    `json:"gender,omitempty" yaml:"gender,omitempty"`
	MaxResults int       `json:"max_results" yaml:"max_results"`
}

// ParseStatus accepts a status in any case. "", "any" and "all" map to StatusAny.
func ParseStatus(s string) (Status, error) {
	switch v := strings.ToUpper(strings.TrimSpace(s)); v {
	case "", "ANY", "ALL":
		return StatusAny, nil
	case string(StatusRecruiting), string(StatusNotYetRecruiting), string(StatusCompleted), string(StatusOther):
		return Status(v), nil
	default:
		return StatusAny, fmt.Errorf("unknown status %q: use RECRUITING, NOT_YET_RECRUITING, COMPLETED or OTHER", s)
	}
}

// ParseAgeGroup accepts child, adult, older_adult (or older-adult) and "any".
func ParseAgeGroup(s string) (AgeGroup, error) {
	v := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	switch v {
	case "", "any", "all":
		return AgeAny, nil
	case string(AgeChild), string(AgeAdult), string(AgeOlderAdult):
		return AgeGroup(v), nil
	default:
		return AgeAny, fmt.Errorf("unknown age group %q: use child, adult or older_adult", s)
	}
}

// ParseStudyType accepts all, interventional and observational.
func ParseStudyType(s string) (StudyType, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", string(StudyTypeAll):
		return StudyTypeAll, nil
	case string(StudyTypeInterventional), string(StudyTypeObservational):
		return StudyType(v), nil
	default:
		return StudyTypeAll, fmt.Errorf("unknown study type %q: use all, interventional or observational", s)
	}
}

// ParseGender accepts all, male and female.
func ParseGender(s string) (Gender, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "", string(GenderAll):
		return GenderAll, nil
	case string(GenderMale), string(GenderFemale):
		return Gender(v), nil
	default:
		return GenderAll, fmt.Errorf("unknown gender %q: use all, male or female", s)
	}
}

// Valid reports whether s is one of the known statuses or StatusAny.
func (s Status) Valid() bool {
	switch s {
	case StatusAny, StatusRecruiting, StatusNotYetRecruiting, StatusCompleted, StatusOther:
		return true
	}
	return false
}

// Valid reports whether a is one of the known age groups or AgeAny.
func (a AgeGroup) Valid() bool {
	switch a {
	case AgeAny, AgeChild, AgeAdult, AgeOlderAdult:
		return true
	}
	return false
}

// Valid reports whether s is a known study type. The zero value means all.
func (s StudyType) Valid() bool {
	switch s {
	case "", StudyTypeAll, StudyTypeInterventional, StudyTypeObservational:
		return true
	}
	return false
}

// Valid reports whether g is a known gender. The zero value means all.
func (g Gender) Valid() bool {
	switch g {
	case "", GenderAll, GenderMale, GenderFemale:
		return true
	}
	return false
}

// CriteriaInput holds filter selections as the user typed them, before
// the enum fields are parsed.
type CriteriaInput struct {
	Condition  string
	Terms      string
	Location   string
	Status     string
	AgeGroup   string
	StudyType  string
	Gender     string
	MaxResults int
}

// Parse converts in to Criteria. All invalid fields are reported
// together.
func (in CriteriaInput) Parse() (Criteria, error) {
	c := Criteria{
		Condition:  strings.TrimSpace(in.Condition),
		Terms:      strings.TrimSpace(in.Terms),
		Location:   strings.TrimSpace(in.Location),
		MaxResults: in.MaxResults,
	}
	var errs []error
	var err error
	if c.Status, err = ParseStatus(in.Status); err != nil {
		errs = append(errs, err)
	}
	if c.AgeGroup, err = ParseAgeGroup(in.AgeGroup); err != nil {
		errs = append(errs, err)
	}
	if c.StudyType, err = ParseStudyType(in.StudyType); err != nil {
		errs = append(errs, err)
	}
	if c.Gender, err = ParseGender(in.Gender); err != nil {
		errs = append(errs, err)
	}
	return c, errors.Join(errs...)
}
