// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/trial-finder/internal/normalize"
)

// TableName is the table that WriteSQLite creates.
const TableName = "trials"

// WriteSQLite writes t to a new SQLite database at path, replacing any
// existing file. The trials table has a row_num key holding the row's
// position (from 1) and one TEXT column per table column, named in
// snake case ("Link to Study" becomes link_to_study).
func WriteSQLite(path string, t normalize.Table) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("replacing %s: %w", path, err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	names := ColumnNames(t.Columns)
	if err := createTrialsTable(db, names); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	if err := insertRows(db, names, t.Rows); err != nil {
		return fmt.Errorf("inserting rows: %w", err)
	}
	return nil
}

// ColumnNames returns the SQL column names for headers. Duplicate names
// get a numeric suffix.
func ColumnNames(headers []string) []string {
	names := make([]string, len(headers))
	seen := map[string]int{"row_num": 1}
	for i, h := range headers {
		name := snakeCase(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[name]++
		names[i] = name
	}
	return names
}

func snakeCase(s string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}

func createTrialsTable(db *sql.DB, names []string) error {
	cols := []string{"row_num INTEGER PRIMARY KEY"}
	for _, n := range names {
		cols = append(cols, n+" TEXT")
	}
	stmt := fmt.Sprintf("CREATE TABLE %s (\n\t%s\n)", TableName, strings.Join(cols, ",\n\t"))
	_, err := db.Exec(stmt)
	return err
}

func insertRows(db *sql.DB, names []string, rows [][]string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)+1), ", ")
	stmt, err := tx.Prepare(fmt.Sprintf("INSERT INTO %s (row_num, %s) VALUES (%s)",
		TableName, strings.Join(names, ", "), placeholders))
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(names)+1)
	for i, row := range rows {
		args[0] = i + 1
		for j, cell := range row {
			args[j+1] = cell
		}
		if _, err := stmt.Exec(args...); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}
