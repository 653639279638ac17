// Package adapter provides database access for schema and routine
// extraction behind a registry of adapter factories.
//
// Adapters are read-mostly: they enumerate tables and stored routines and
// fetch their DDL. Exec and Call exist for the view materializer and the
// opt-in routine refresh step.
package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Config holds connection settings for a source database.
type Config struct {
	Type     string
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Options  map[string]string
}

// Routine describes one stored routine row from the source database.
type Routine struct {
	Name string
	// Type is PROCEDURE or FUNCTION.
	Type string
	// Definition is the routine body as reported by
	// information_schema.routines. May be empty when the connected user
	// lacks definition privileges.
	Definition string
}

// Adapter is the interface all source database adapters implement.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// TableNames lists all table names in the configured database.
	TableNames(ctx context.Context) ([]string, error)

	// TableDDL returns the CREATE TABLE statement for a table.
	TableDDL(ctx context.Context, table string) (string, error)

	// Routines lists all stored routines in the configured database.
	Routines(ctx context.Context) ([]Routine, error)

	// RoutineDDL returns the fullest available CREATE statement for a
	// routine, or an error when the engine cannot produce one.
	RoutineDDL(ctx context.Context, name, typ string) (string, error)

	// Call invokes a stored routine. Used only by the opt-in refresh step.
	Call(ctx context.Context, routine Routine) error

	// Exec executes a statement that returns no rows (e.g. CREATE VIEW).
	Exec(ctx context.Context, sqlText string) error

	// DialectName identifies the SQL dialect of this adapter.
	DialectName() string
}

// baseAdapter holds the pieces shared by the SQL-backed adapters.
type baseAdapter struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger
}

func (b *baseAdapter) Close() error {
	if b.DB != nil {
		return b.DB.Close()
	}
	return nil
}

func (b *baseAdapter) Exec(ctx context.Context, sqlText string) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	_, err := b.DB.ExecContext(ctx, sqlText)
	return err
}
