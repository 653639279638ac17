package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

func init() {
	Register("mysql", func(logger *slog.Logger) Adapter {
		return NewMySQL(logger)
	})
}

// MySQLAdapter extracts schema and routines from a MySQL database using
// information_schema plus SHOW CREATE statements.
type MySQLAdapter struct {
	baseAdapter
}

// NewMySQL creates a new MySQL adapter instance.
// If logger is nil, a discard logger is used.
func NewMySQL(logger *slog.Logger) *MySQLAdapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &MySQLAdapter{baseAdapter: baseAdapter{Logger: logger}}
}

// DialectName returns the SQL dialect for this adapter.
func (a *MySQLAdapter) DialectName() string {
	return "mysql"
}

// Connect establishes a connection to MySQL.
func (a *MySQLAdapter) Connect(ctx context.Context, cfg Config) error {
	dsn := buildMySQLDSN(cfg)

	a.Logger.Debug("connecting to mysql", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open mysql connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping mysql: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildMySQLDSN constructs a go-sql-driver DSN: user:pass@tcp(host:port)/db.
func buildMySQLDSN(cfg Config) string {
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}

	var b strings.Builder
	if cfg.User != "" {
		b.WriteString(cfg.User)
		if cfg.Password != "" {
			b.WriteString(":")
			b.WriteString(cfg.Password)
		}
		b.WriteString("@")
	}
	fmt.Fprintf(&b, "tcp(%s:%d)/%s", host, port, cfg.Database)

	params := []string{"parseTime=true"}
	for k, v := range cfg.Options {
		params = append(params, k+"="+v)
	}
	b.WriteString("?")
	b.WriteString(strings.Join(params, "&"))
	return b.String()
}

// TableNames lists all tables in the configured database.
func (a *MySQLAdapter) TableNames(ctx context.Context) ([]string, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := a.DB.QueryContext(ctx,
		"SELECT TABLE_NAME FROM information_schema.tables WHERE table_schema = ? ORDER BY TABLE_NAME",
		a.Cfg.Database)
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

// TableDDL runs SHOW CREATE TABLE and returns the CREATE statement.
func (a *MySQLAdapter) TableDDL(ctx context.Context, table string) (string, error) {
	if a.DB == nil {
		return "", fmt.Errorf("database connection not established")
	}

	query := fmt.Sprintf("SHOW CREATE TABLE `%s`.`%s`", a.Cfg.Database, table)
	row := a.DB.QueryRowContext(ctx, query)

	var name, ddl string
	if err := row.Scan(&name, &ddl); err != nil {
		return "", fmt.Errorf("failed to fetch CREATE TABLE for %s: %w", table, err)
	}
	return ddl, nil
}

// Routines lists stored procedures and functions from
// information_schema.routines.
func (a *MySQLAdapter) Routines(ctx context.Context) ([]Routine, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := a.DB.QueryContext(ctx, `
		SELECT ROUTINE_NAME, ROUTINE_TYPE, COALESCE(ROUTINE_DEFINITION, '')
		FROM information_schema.routines
		WHERE ROUTINE_SCHEMA = ?
		ORDER BY ROUTINE_NAME`,
		a.Cfg.Database)
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

// RoutineDDL attempts SHOW CREATE PROCEDURE/FUNCTION for a fuller
// definition than information_schema provides. The statement's column set
// varies across server versions, so the CREATE text is located by scanning
// the row rather than by position.
func (a *MySQLAdapter) RoutineDDL(ctx context.Context, name, typ string) (string, error) {
	if a.DB == nil {
		return "", fmt.Errorf("database connection not established")
	}

	kind := "FUNCTION"
	if strings.EqualFold(typ, "PROCEDURE") {
		kind = "PROCEDURE"
	}
	query := fmt.Sprintf("SHOW CREATE %s `%s`.`%s`", kind, a.Cfg.Database, name)

	rows, err := a.DB.QueryContext(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to fetch CREATE statement for %s %s: %w", kind, name, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("no CREATE statement returned for %s %s", kind, name)
	}

	values := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return "", fmt.Errorf("failed to scan CREATE statement for %s %s: %w", kind, name, err)
	}

	for _, v := range values {
		if v.Valid && strings.HasPrefix(strings.ToUpper(strings.TrimSpace(v.String)), "CREATE") {
			return v.String, nil
		}
	}
	return "", fmt.Errorf("no CREATE statement found in SHOW CREATE %s output for %s", kind, name)
}

// Call invokes a stored procedure. Functions are evaluated via SELECT.
func (a *MySQLAdapter) Call(ctx context.Context, routine Routine) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	a.Logger.Info("calling routine", slog.String("routine", routine.Name))

	var query string
	if strings.EqualFold(routine.Type, "FUNCTION") {
		query = fmt.Sprintf("SELECT `%s`.`%s`()", a.Cfg.Database, routine.Name)
	} else {
		query = fmt.Sprintf("CALL `%s`.`%s`()", a.Cfg.Database, routine.Name)
	}

	if _, err := a.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to call routine %s: %w", routine.Name, err)
	}
	return nil
}
