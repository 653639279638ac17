// Package config provides configuration management for the ProcLens CLI.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/proclens/proclens/internal/adapter"
)

// Default configuration values.
const (
	DefaultDumpDir     = "outputs/sql_dumps"
	DefaultParsedDir   = "outputs/parsed_sql"
	DefaultGraphDir    = "outputs/graph"
	DefaultStateFile   = ".proclens/state.db"
	DefaultFilePattern = "sp_*.sql"
	DefaultLineageFile = "parsed_lineage.json"
	DefaultGraphFormat = "png"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// Config holds all CLI configuration options.
type Config struct {
	DumpDir      string            `koanf:"dump_dir"`
	ParsedDir    string            `koanf:"parsed_dir"`
	GraphDir     string            `koanf:"graph_dir"`
	StatePath    string            `koanf:"state_path"`
	FilePattern  string            `koanf:"file_pattern"`
	LineageFile  string            `koanf:"lineage_file"`
	GraphFormat  string            `koanf:"graph_format"`
	LogFile      string            `koanf:"log_file"`
	Verbose      bool              `koanf:"verbose"`
	OutputFormat string            `koanf:"output"`
	Source       *SourceConfig     `koanf:"source"`
	Views        map[string]string `koanf:"views"`
}

// SourceConfig holds connection settings for the source database.
type SourceConfig struct {
	Type     string            `koanf:"type"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Database string            `koanf:"database"`
	Options  map[string]string `koanf:"options"`
}

// LineagePath returns the path of the persisted lineage JSON file.
func (c *Config) LineagePath() string {
	return filepath.Join(c.ParsedDir, c.LineageFile)
}

// GraphPath returns the default path of the rendered lineage graph for the
// given format.
func (c *Config) GraphPath(format string) string {
	return filepath.Join(c.GraphDir, "lineage_graph."+format)
}

// AdapterConfig converts the source settings into an adapter config.
func (s *SourceConfig) AdapterConfig() adapter.Config {
	return adapter.Config{
		Type:     s.Type,
		Host:     s.Host,
		Port:     s.Port,
		User:     s.User,
		Password: s.Password,
		Database: s.Database,
		Options:  s.Options,
	}
}

// ApplySourceDefaults fills in per-type defaults for unset source fields.
func ApplySourceDefaults(s *SourceConfig) {
	if s == nil {
		return
	}
	if s.Host == "" {
		s.Host = "127.0.0.1"
	}
	if s.Port == 0 {
		switch s.Type {
		case "postgres":
			s.Port = 5432
		default:
			s.Port = 3306
		}
	}
}

// ValidateSource checks the source settings against the adapter registry.
func ValidateSource(s *SourceConfig) error {
	if s == nil {
		return nil
	}
	if s.Type == "" {
		return fmt.Errorf("source.type is required")
	}
	if !adapter.IsRegistered(s.Type) {
		return &adapter.UnknownAdapterError{Type: s.Type, Available: adapter.ListAdapters()}
	}
	if s.Database == "" {
		return fmt.Errorf("source.database is required")
	}
	return nil
}
