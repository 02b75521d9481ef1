// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/trial-finder/internal/normalize"
	"github.com/pdiddy/trial-finder/pkg/types"
)

// SavedSearch is the on-disk form of a search and its result table. A
// saved search can be reviewed or re-exported without querying the
// registry again.
type SavedSearch struct {
	Criteria types.Criteria  `yaml:"criteria"`
	Options  SearchOptions   `yaml:"options"`
	Summary  SearchSummary   `yaml:"summary"`
	Table    normalize.Table `yaml:"table"`
}

// SearchOptions records how the search was run.
type SearchOptions struct {
	Paged           bool   `yaml:"paged"`
	ExpandLocations bool   `yaml:"expand_locations"`
	AgeFilter       string `yaml:"age_filter"`
}

// SearchSummary stores result statistics and a timestamp.
type SearchSummary struct {
	RunID string `yaml:"run_id"`
	// Studies is the number of studies fetched; Rows may be larger when
	// locations were expanded.
	Studies    int       `yaml:"studies"`
	Rows       int       `yaml:"rows"`
	Pages      int       `yaml:"pages"`
	TotalCount int       `yaml:"total_count"`
	Stopped    string    `yaml:"stopped,omitempty"`
	Timestamp  time.Time `yaml:"timestamp"`
}

// WriteSavedSearch saves s to a YAML file at path. A zero timestamp is
// set to the current time.
func WriteSavedSearch(path string, s SavedSearch) error {
	if s.Summary.Timestamp.IsZero() {
		s.Summary.Timestamp = time.Now().UTC()
	}
	s.Summary.Rows = s.Table.Len()

	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("marshaling saved search: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSavedSearch loads a search saved by WriteSavedSearch.
func ReadSavedSearch(path string) (*SavedSearch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading saved search: %w", err)
	}
	var s SavedSearch
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing saved search: %w", err)
	}
	for i, row := range s.Table.Rows {
		if len(row) != len(s.Table.Columns) {
			return nil, fmt.Errorf("parsing saved search: row %d has %d cells, want %d", i+1, len(row), len(s.Table.Columns))
		}
	}
	return &s, nil
}
