// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pdiddy/trial-finder/internal/normalize"
)

// orderedRow marshals as a JSON object whose keys follow the table's
// column order, which a map cannot guarantee.
type orderedRow struct {
	columns []string
	cells   []string
}

func (r orderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, col); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeString(&buf, r.cells[i]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// WriteJSON writes t as an indented array of objects, one per row.
func WriteJSON(w io.Writer, t normalize.Table) error {
	rows := make([]orderedRow, len(t.Rows))
	for i, cells := range t.Rows {
		rows[i] = orderedRow{columns: t.Columns, cells: cells}
	}
	return encodeIndented(w, rows)
}

// WriteRawJSON writes the registry records exactly as they were decoded.
func WriteRawJSON(w io.Writer, records []normalize.Record) error {
	if records == nil {
		records = []normalize.Record{}
	}
	return encodeIndented(w, records)
}

func encodeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}
