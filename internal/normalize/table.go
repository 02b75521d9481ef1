// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package normalize

import "strings"

// CompactColumns are the headers of the one-row-per-study table.
var CompactColumns = []string{
	"Title",
	"Phase",
	"Eligibility Criteria",
	"Link to Study",
	"Primary Location",
	"Primary Contact",
	"Additional Locations and Contacts",
}

// ExpandedColumns are the headers of the one-row-per-location table.
var ExpandedColumns = []string{
	"NCT ID",
	"Title",
	"Status",
	"Phase",
	"Study Type",
	"Eligibility Criteria",
	"Link to Study",
	"Facility",
	"City",
	"State",
	"Country",
	"Primary Contact",
	"Additional Contacts",
}

// Table is a rectangular result set. Every row has len(Columns) cells.
type Table struct {
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Record returns row i keyed by column name.
func (t Table) Record(i int) map[string]string {
	m := make(map[string]string, len(t.Columns))
	for j, col := range t.Columns {
		m[col] = t.Rows[i][j]
	}
	return m
}

// Head returns a table holding at most the first n rows.
func (t Table) Head(n int) Table {
	if n < 0 || n >= len(t.Rows) {
		return t
	}
	return Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// BuildTable lays studies out as rows. With expandLocations the table has
// one row per (study, location) pair, and a study without locations still
// gets one row with N/A site fields. Otherwise each study is one row, the
// first site is the primary location and the rest are summarized.
//
// The columns are set even when studies is empty.
func BuildTable(studies []Study, expandLocations bool) Table {
	if expandLocations {
		return expandedTable(studies)
	}
	return compactTable(studies)
}

func compactTable(studies []Study) Table {
	t := Table{Columns: CompactColumns, Rows: make([][]string, 0, len(studies))}
	for _, s := range studies {
		primary := NotSpecified
		var additional []string
		for i, loc := range s.Locations {
			if i == 0 {
				if loc.Facility != NotAvailable {
					primary = loc.Facility
				}
				continue
			}
			additional = append(additional, loc.Summary())
		}
		t.Rows = append(t.Rows, []string{
			s.Title,
			s.Phase,
			s.Eligibility,
			s.Link,
			primary,
			s.PrimaryContact().Summary(),
			strings.Join(additional, summarySep),
		})
	}
	return t
}

func expandedTable(studies []Study) Table {
	t := Table{Columns: ExpandedColumns, Rows: make([][]string, 0, len(studies))}
	for _, s := range studies {
		primary := s.PrimaryContact().Summary()
		others := s.AdditionalContacts()

		locations := s.Locations
		if len(locations) == 0 {
			locations = []Location{{Facility: NotAvailable, City: NotAvailable, State: NotAvailable, Country: NotAvailable}}
		}
		for _, loc := range locations {
			t.Rows = append(t.Rows, []string{
				s.NCTID,
				s.Title,
				s.Status,
				s.Phase,
				s.StudyType,
				s.Eligibility,
				s.Link,
				loc.Facility,
				loc.City,
				loc.State,
				loc.Country,
				primary,
				others,
			})
		}
	}
	return t
}
