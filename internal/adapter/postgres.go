package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func init() {
	Register("postgres", func(logger *slog.Logger) Adapter {
		return NewPostgres(logger)
	})
}

// PostgresAdapter extracts schema and routines from a PostgreSQL database.
// Postgres has no SHOW CREATE TABLE, so table DDL is reconstructed from
// information_schema.columns; routine DDL comes from pg_get_functiondef.
type PostgresAdapter struct {
	baseAdapter
}

// NewPostgres creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func NewPostgres(logger *slog.Logger) *PostgresAdapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PostgresAdapter{baseAdapter: baseAdapter{Logger: logger}}
}

// DialectName returns the SQL dialect for this adapter.
func (a *PostgresAdapter) DialectName() string {
	return "postgres"
}

// Connect establishes a connection to PostgreSQL.
func (a *PostgresAdapter) Connect(ctx context.Context, cfg Config) error {
	dsn := buildPostgresDSN(cfg)

	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildPostgresDSN constructs a key=value PostgreSQL connection string.
func buildPostgresDSN(cfg Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if cfg.Options != nil {
		if mode, ok := cfg.Options["sslmode"]; ok {
			sslmode = mode
		}
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.User != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.User)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	return dsn
}

// TableNames lists all tables in the public schema.
func (a *PostgresAdapter) TableNames(ctx context.Context) ([]string, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := a.DB.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch table names: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// TableDDL reconstructs a CREATE TABLE statement from
// information_schema.columns. The result is an approximation: constraints
// and indexes are not included.
func (a *PostgresAdapter) TableDDL(ctx context.Context, table string) (string, error) {
	if a.DB == nil {
		return "", fmt.Errorf("database connection not established")
	}

	rows, err := a.DB.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, COALESCE(column_default, '')
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`, table)
	if err != nil {
		return "", fmt.Errorf("failed to query columns for %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	var cols []string
	for rows.Next() {
		var name, dataType, nullable, colDefault string
		if err := rows.Scan(&name, &dataType, &nullable, &colDefault); err != nil {
			return "", fmt.Errorf("failed to scan column for %s: %w", table, err)
		}
		col := fmt.Sprintf("    %s %s", name, dataType)
		if colDefault != "" {
			col += " DEFAULT " + colDefault
		}
		if nullable == "NO" {
			col += " NOT NULL"
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("table %s has no columns (does it exist?)", table)
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", table, strings.Join(cols, ",\n")), nil
}

// Routines lists stored procedures and functions in the public schema.
func (a *PostgresAdapter) Routines(ctx context.Context) ([]Routine, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := a.DB.QueryContext(ctx, `
		SELECT routine_name, routine_type, COALESCE(routine_definition, '')
		FROM information_schema.routines
		WHERE routine_schema = 'public'
		ORDER BY routine_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch routines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var routines []Routine
	for rows.Next() {
		var r Routine
		if err := rows.Scan(&r.Name, &r.Type, &r.Definition); err != nil {
			return nil, fmt.Errorf("failed to scan routine: %w", err)
		}
		routines = append(routines, r)
	}
	return routines, rows.Err()
}

// RoutineDDL fetches the full CREATE statement via pg_get_functiondef.
func (a *PostgresAdapter) RoutineDDL(ctx context.Context, name, _ string) (string, error) {
	if a.DB == nil {
		return "", fmt.Errorf("database connection not established")
	}

	row := a.DB.QueryRowContext(ctx, `
		SELECT pg_get_functiondef(p.oid)
		FROM pg_proc p
		JOIN pg_namespace n ON n.oid = p.pronamespace
		WHERE n.nspname = 'public' AND p.proname = $1
		LIMIT 1`, name)

	var ddl string
	if err := row.Scan(&ddl); err != nil {
		return "", fmt.Errorf("failed to fetch definition for routine %s: %w", name, err)
	}
	return ddl, nil
}

// Call invokes a stored routine. Procedures use CALL; functions are
// evaluated via SELECT.
func (a *PostgresAdapter) Call(ctx context.Context, routine Routine) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	a.Logger.Info("calling routine", slog.String("routine", routine.Name))

	var query string
	if strings.EqualFold(routine.Type, "PROCEDURE") {
		query = fmt.Sprintf("CALL %s()", routine.Name)
	} else {
		query = fmt.Sprintf("SELECT %s()", routine.Name)
	}

	if _, err := a.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to call routine %s: %w", routine.Name, err)
	}
	return nil
}
