// Package state persists analyzed lineage in a local SQLite database so
// the query commands can answer without re-parsing the dumps.
package state

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/proclens/proclens/internal/lineage"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a routine or table is not in the store.
var ErrNotFound = errors.New("not found")

// TableSummaryRow is one table's aggregated usage, in analysis order.
type TableSummaryRow struct {
	Name      string
	ReadBy    []string
	WrittenBy []string
}

// Store is a SQLite-backed lineage store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new store instance.
func NewStore() *Store {
	return &Store{}
}

// Open opens the SQLite database at path. Use ":memory:" for an in-memory
// database.
func (s *Store) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	} else {
		dsn = ":memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveReport replaces the stored lineage with the given report in a single
// transaction and records a run row. Returns the run ID.
func (s *Store) SaveReport(report *lineage.Report) (string, error) {
	if s.db == nil {
		return "", fmt.Errorf("database not opened")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	started := time.Now().UTC()

	if _, err := tx.Exec("DELETE FROM routine_tables"); err != nil {
		return "", fmt.Errorf("failed to clear routine_tables: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM routines"); err != nil {
		return "", fmt.Errorf("failed to clear routines: %w", err)
	}

	insertRoutine, err := tx.Prepare("INSERT INTO routines (name, analyzed_at) VALUES (?, ?)")
	if err != nil {
		return "", err
	}
	defer func() { _ = insertRoutine.Close() }()

	insertRelation, err := tx.Prepare("INSERT INTO routine_tables (routine, table_name, relation) VALUES (?, ?, ?)")
	if err != nil {
		return "", err
	}
	defer func() { _ = insertRelation.Close() }()

	// Processing order is preserved through insertion order (rowids).
	for _, name := range report.RoutineNames() {
		l := report.Procedures[name]
		if _, err := insertRoutine.Exec(name, started); err != nil {
			return "", fmt.Errorf("failed to insert routine %s: %w", name, err)
		}
		for _, table := range l.Reads {
			if _, err := insertRelation.Exec(name, table, "reads"); err != nil {
				return "", fmt.Errorf("failed to insert read relation %s/%s: %w", name, table, err)
			}
		}
		for _, table := range l.Writes {
			if _, err := insertRelation.Exec(name, table, "writes"); err != nil {
				return "", fmt.Errorf("failed to insert write relation %s/%s: %w", name, table, err)
			}
		}
	}

	runID := uuid.New().String()
	if _, err := tx.Exec(
		"INSERT INTO runs (id, kind, started_at, completed_at, routine_count, table_count) VALUES (?, ?, ?, ?, ?, ?)",
		runID, "parse", started, time.Now().UTC(), len(report.Procedures), len(report.Tables),
	); err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit lineage: %w", err)
	}
	return runID, nil
}

// RoutineLineage returns the stored lineage for one routine.
func (s *Store) RoutineLineage(name string) (*lineage.RoutineLineage, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var exists int
	err := s.db.QueryRow("SELECT COUNT(*) FROM routines WHERE name = ?", name).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("routine %q: %w", name, ErrNotFound)
	}

	rows, err := s.db.Query(
		"SELECT table_name, relation FROM routine_tables WHERE routine = ? ORDER BY id", name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	l := &lineage.RoutineLineage{Reads: []string{}, Writes: []string{}}
	for rows.Next() {
		var table, relation string
		if err := rows.Scan(&table, &relation); err != nil {
			return nil, err
		}
		if relation == "writes" {
			l.Writes = append(l.Writes, table)
		} else {
			l.Reads = append(l.Reads, table)
		}
	}
	return l, rows.Err()
}

// TableUsage returns the stored usage for one table.
func (s *Store) TableUsage(name string) (*lineage.TableUsage, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		"SELECT routine, relation FROM routine_tables WHERE table_name = ? ORDER BY id", name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	usage := &lineage.TableUsage{ReadBy: []string{}, WrittenBy: []string{}}
	found := false
	for rows.Next() {
		found = true
		var routine, relation string
		if err := rows.Scan(&routine, &relation); err != nil {
			return nil, err
		}
		if relation == "writes" {
			usage.WrittenBy = append(usage.WrittenBy, routine)
		} else {
			usage.ReadBy = append(usage.ReadBy, routine)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("table %q: %w", name, ErrNotFound)
	}
	return usage, nil
}

// ListRoutines returns all stored routine names in analysis order.
func (s *Store) ListRoutines() ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query("SELECT name FROM routines ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// TableSummary returns per-table usage for every referenced table, ordered
// by first reference.
func (s *Store) TableSummary() ([]TableSummaryRow, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query("SELECT routine, table_name, relation FROM routine_tables ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	byName := make(map[string]*TableSummaryRow)
	var order []string
	for rows.Next() {
		var routine, table, relation string
		if err := rows.Scan(&routine, &table, &relation); err != nil {
			return nil, err
		}
		row, ok := byName[table]
		if !ok {
			row = &TableSummaryRow{Name: table, ReadBy: []string{}, WrittenBy: []string{}}
			byName[table] = row
			order = append(order, table)
		}
		if relation == "writes" {
			row.WrittenBy = append(row.WrittenBy, routine)
		} else {
			row.ReadBy = append(row.ReadBy, routine)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]TableSummaryRow, 0, len(order))
	for _, name := range order {
		result = append(result, *byName[name])
	}
	return result, nil
}
