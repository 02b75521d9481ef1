// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export encodes a result table as a downloadable artifact: CSV,
// JSON, raw registry JSON, XLSX or a SQLite database. Every encoding keeps
// the table's row order.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/trial-finder/internal/normalize"
)

// Format names an export encoding.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatJSON    Format = "json"
	FormatRawJSON Format = "raw-json"
	FormatXLSX    Format = "xlsx"
	// FormatSQLite writes to a file path, not a stream; see WriteSQLite.
	FormatSQLite Format = "sqlite"
)

// baseName is the stem of download file names.
const baseName = "clinical_trials"

// ParseFormat accepts a format name in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatRawJSON, FormatXLSX, FormatSQLite:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q: use csv, json, raw-json, xlsx or sqlite", s)
	}
}

// Extension returns the file extension for f, with the leading dot.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatXLSX:
		return ".xlsx"
	case FormatSQLite:
		return ".db"
	case FormatRawJSON:
		return ".raw.json"
	default:
		return ".json"
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatSQLite:
		return "application/vnd.sqlite3"
	default:
		return "application/json"
	}
}

// Filename returns the default download name for f.
func (f Format) Filename() string {
	return baseName + f.Extension()
}

// Write encodes t (or, for raw JSON, records) to w in format f. SQLite
// needs a file path and is rejected here.
func Write(w io.Writer, f Format, t normalize.Table, records []normalize.Record) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, t)
	case FormatJSON:
		return WriteJSON(w, t)
	case FormatRawJSON:
		return WriteRawJSON(w, records)
	case FormatXLSX:
		return WriteXLSX(w, t)
	case FormatSQLite:
		return fmt.Errorf("%s export writes a file: use WriteSQLite", f)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}
