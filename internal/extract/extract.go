// Package extract dumps database schema and stored routine definitions to
// SQL files on disk, and loads routine dumps back for lineage analysis.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/proclens/proclens/internal/adapter"
)

// MetaFileName is the manifest written alongside the dumped SQL files.
const MetaFileName = "dump_meta.json"

// TableDump records one dumped table in the manifest.
type TableDump struct {
	Table   string `json:"table"`
	DDLFile string `json:"ddl_file"`
}

// RoutineDump records one dumped routine in the manifest.
type RoutineDump struct {
	Name string `json:"name"`
	Type string `json:"type"`
	File string `json:"file"`
}

// Meta describes what a dump produced.
type Meta struct {
	Timestamp time.Time     `json:"timestamp"`
	Tables    []TableDump   `json:"tables"`
	Routines  []RoutineDump `json:"routines"`
}

// Extractor dumps schema and routines through a connected adapter.
// It is read-only: nothing is executed against the source database except
// metadata queries, unless Refresh is explicitly invoked.
type Extractor struct {
	adapter adapter.Adapter
	logger  *slog.Logger
}

// New creates an extractor over a connected adapter.
// If logger is nil, a discard logger is used.
func New(ad adapter.Adapter, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Extractor{adapter: ad, logger: logger}
}

// Dump writes one SQL file per table (table__<name>.sql) and per routine
// (<name>.sql, spaces replaced by underscores) into dir, plus a
// dump_meta.json manifest. Unavailable DDL degrades to a placeholder
// comment rather than failing the whole dump.
func (e *Extractor) Dump(ctx context.Context, dir string) (*Meta, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create dump directory: %w", err)
	}

	meta := &Meta{
		Timestamp: time.Now().UTC(),
		Tables:    []TableDump{},
		Routines:  []RoutineDump{},
	}

	tables, err := e.adapter.TableNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch table names: %w", err)
	}
	e.logger.Info("dumping tables", slog.Int("count", len(tables)))

	for _, table := range tables {
		ddl, err := e.adapter.TableDDL(ctx, table)
		if err != nil {
			e.logger.Warn("no DDL for table", slog.String("table", table), slog.String("error", err.Error()))
			ddl = fmt.Sprintf("-- No DDL for %s", table)
		}
		file, err := saveFile(dir, "table__"+table, ddl)
		if err != nil {
			return nil, err
		}
		meta.Tables = append(meta.Tables, TableDump{Table: table, DDLFile: file})
	}

	routines, err := e.adapter.Routines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch routines: %w", err)
	}
	e.logger.Info("dumping routines", slog.Int("count", len(routines)))

	for _, r := range routines {
		content, err := e.adapter.RoutineDDL(ctx, r.Name, r.Type)
		if err != nil {
			e.logger.Warn("falling back to information_schema definition",
				slog.String("routine", r.Name), slog.String("error", err.Error()))
			content = fmt.Sprintf("-- routine_type: %s\n%s", r.Type, r.Definition)
		}
		file, err := saveFile(dir, r.Name, content)
		if err != nil {
			return nil, err
		}
		meta.Routines = append(meta.Routines, RoutineDump{Name: r.Name, Type: r.Type, File: file})
	}

	if err := writeMeta(dir, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// Refresh calls every discovered routine. Opt-in: it executes user code on
// the source database and is never part of a plain dump.
func (e *Extractor) Refresh(ctx context.Context) error {
	routines, err := e.adapter.Routines(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch routines: %w", err)
	}
	for _, r := range routines {
		if err := e.adapter.Call(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

// saveFile writes content to dir/<name>.sql with spaces replaced by
// underscores, and returns the file name.
func saveFile(dir, name, content string) (string, error) {
	safeName := strings.ReplaceAll(name, " ", "_") + ".sql"
	path := filepath.Join(dir, safeName)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return safeName, nil
}

func writeMeta(dir string, meta *Meta) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode dump metadata: %w", err)
	}
	path := filepath.Join(dir, MetaFileName)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
