// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize flattens nested ClinicalTrials.gov study records into
// fixed-column tables. Every nested lookup falls back to a sentinel; the
// only error this package reports is a page without a studies list.
package normalize

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels substituted for missing data.
const (
	NotAvailable  = "N/A"
	NotSpecified  = "Not Specified"
	StudyLinkBase = "https://clinicaltrials.gov/ct2/show/"
)

// ErrSchema reports a registry payload without a top-level studies list.
var ErrSchema = errors.New("response has no studies list")

// Location is one trial site.
type Location struct {
	Facility string `json:"facility" yaml:"facility"`
	City     string `json:"city" yaml:"city"`
	State    string `json:"state" yaml:"state"`
	Country  string `json:"country" yaml:"country"`
}

// Summary renders the location the way the compact table lists additional sites.
func (l Location) Summary() string {
	return fmt.Sprintf("Facility: %s, City: %s, State: %s, Country: %s", l.Facility, l.City, l.State, l.Country)
}

// Contact is one central contact of a trial.
type Contact struct {
	Name  string `json:"name" yaml:"name"`
	Role  string `json:"role" yaml:"role"`
	Phone string `json:"phone" yaml:"phone"`
	Email string `json:"email" yaml:"email"`
}

// Summary renders the contact as "Name: …, Role: …, Phone: …, Email: …".
func (c Contact) Summary() string {
	return fmt.Sprintf("Name: %s, Role: %s, Phone: %s, Email: %s", c.Name, c.Role, c.Phone, c.Email)
}

// Study is the normalized form of one registry record. Scalar fields are
// never empty: missing values hold NotAvailable or NotSpecified.
type Study struct {
	NCTID       string     `json:"nct_id" yaml:"nct_id"`
	Title       string     `json:"title" yaml:"title"`
	Phase       string     `json:"phase" yaml:"phase"`
	Eligibility string     `json:"eligibility_criteria" yaml:"eligibility_criteria"`
	Link        string     `json:"link" yaml:"link"`
	Status      string     `json:"status" yaml:"status"`
	StudyType   string     `json:"study_type" yaml:"study_type"`
	Locations   []Location `json:"locations" yaml:"locations"`
	Contacts    []Contact  `json:"contacts" yaml:"contacts"`
}

// PrimaryContact returns the first central contact, or an all-N/A contact.
func (s Study) PrimaryContact() Contact {
	if len(s.Contacts) > 0 {
		return s.Contacts[0]
	}
	return Contact{Name: NotAvailable, Role: NotAvailable, Phone: NotAvailable, Email: NotAvailable}
}

// AdditionalContacts joins every contact after the first with " || ".
func (s Study) AdditionalContacts() string {
	if len(s.Contacts) < 2 {
		return ""
	}
	parts := make([]string, 0, len(s.Contacts)-1)
	for _, c := range s.Contacts[1:] {
		parts = append(parts, c.Summary())
	}
	return strings.Join(parts, summarySep)
}

const summarySep = " || "

// Paths under each record. Eligibility text moved between schema versions,
// so both names are tried in order.
var (
	identificationPath = []any{"protocolSection", "identificationModule"}
	statusPath         = []any{"protocolSection", "statusModule"}
	designPath         = []any{"protocolSection", "designModule"}
	eligibilityPath    = []any{"protocolSection", "eligibilityModule"}
	contactsPath       = []any{"protocolSection", "contactsLocationsModule"}

	eligibilityAliases = []string{"eligibilityCriteria", "eligibilityCriteriaText"}
)

func at(base []any, rest ...any) []any {
	out := make([]any, 0, len(base)+len(rest))
	out = append(out, base...)
	return append(out, rest...)
}

// NormalizeStudy maps one raw record to a Study. It never fails.
func NormalizeStudy(rec Record) Study {
	nctID := String(rec, NotAvailable, at(identificationPath, "nctId")...)

	phase := NotSpecified
	if phases := Strings(rec, at(designPath, "phases")...); len(phases) > 0 {
		phase = strings.Join(phases, ", ")
	}

	candidates := make([][]any, len(eligibilityAliases))
	for i, name := range eligibilityAliases {
		candidates[i] = at(eligibilityPath, name)
	}

	s := Study{
		NCTID:       nctID,
		Title:       String(rec, NotAvailable, at(identificationPath, "briefTitle")...),
		Phase:       phase,
		Eligibility: FirstString(rec, NotSpecified, candidates...),
		Link:        StudyLinkBase + nctID,
		Status:      String(rec, NotAvailable, at(statusPath, "overallStatus")...),
		StudyType:   String(rec, NotAvailable, at(designPath, "studyType")...),
	}

	for _, loc := range List(rec, at(contactsPath, "locations")...) {
		s.Locations = append(s.Locations, Location{
			Facility: String(loc, NotAvailable, "facility"),
			City:     String(loc, NotAvailable, "city"),
			State:    String(loc, NotAvailable, "state"),
			Country:  String(loc, NotAvailable, "country"),
		})
	}
	for _, c := range List(rec, at(contactsPath, "centralContacts")...) {
		s.Contacts = append(s.Contacts, Contact{
			Name:  String(c, NotAvailable, "name"),
			Role:  String(c, NotAvailable, "role"),
			Phone: String(c, NotAvailable, "phone"),
			Email: String(c, NotAvailable, "email"),
		})
	}
	return s
}

// Records extracts the studies list from a registry page body. Entries that
// are not objects are skipped; a missing or non-list field is ErrSchema.
func Records(payload map[string]any) ([]Record, error) {
	raw, ok := payload["studies"]
	if !ok || raw == nil {
		return nil, ErrSchema
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: studies is %T", ErrSchema, raw)
	}
	out := make([]Record, 0, len(list))
	for _, item := range list {
		if rec, ok := item.(map[string]any); ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Studies normalizes every record in order.
func Studies(records []Record) []Study {
	out := make([]Study, len(records))
	for i, rec := range records {
		out[i] = NormalizeStudy(rec)
	}
	return out
}
