// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pdiddy/trial-finder/internal/normalize"
)

// utf8BOM lets spreadsheet programs detect the encoding.
const utf8BOM = "\xEF\xBB\xBF"

// WriteCSV writes a UTF-8 BOM, the header row and then every row, quoted
// and CRLF-terminated per RFC 4180.
func WriteCSV(w io.Writer, t normalize.Table) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("writing CSV: %w", err)
	}
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("writing CSV rows: %w", err)
	}
	return nil
}
