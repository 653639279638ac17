package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/proclens/proclens/internal/adapter"
	"github.com/proclens/proclens/internal/cli/output"
	"github.com/proclens/proclens/internal/config"
	"github.com/proclens/proclens/internal/lineage"
	"github.com/proclens/proclens/internal/state"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext resolves config, logger, and renderer for a command.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to
// environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	return &config.Config{
		DumpDir:      getEnvOrDefault("PROCLENS_DUMP_DIR", config.DefaultDumpDir),
		ParsedDir:    getEnvOrDefault("PROCLENS_PARSED_DIR", config.DefaultParsedDir),
		GraphDir:     getEnvOrDefault("PROCLENS_GRAPH_DIR", config.DefaultGraphDir),
		StatePath:    getEnvOrDefault("PROCLENS_STATE_PATH", config.DefaultStateFile),
		FilePattern:  getEnvOrDefault("PROCLENS_FILE_PATTERN", config.DefaultFilePattern),
		LineageFile:  getEnvOrDefault("PROCLENS_LINEAGE_FILE", config.DefaultLineageFile),
		GraphFormat:  getEnvOrDefault("PROCLENS_GRAPH_FORMAT", config.DefaultGraphFormat),
		Verbose:      os.Getenv("PROCLENS_VERBOSE") == "true",
		OutputFormat: os.Getenv("PROCLENS_OUTPUT"),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// openAdapter connects to the configured source database. The returned
// cleanup function closes the connection.
func openAdapter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (adapter.Adapter, func(), error) {
	if cfg.Source == nil {
		return nil, nil, fmt.Errorf("no source database configured (set source.type and source.database in proclens.yaml)")
	}

	ad, err := adapter.NewAdapter(cfg.Source.AdapterConfig(), logger)
	if err != nil {
		return nil, nil, err
	}
	if err := ad.Connect(ctx, cfg.Source.AdapterConfig()); err != nil {
		return nil, nil, err
	}

	cleanup := func() { _ = ad.Close() }
	return ad, cleanup, nil
}

// openStore opens the lineage state database, creating its directory and
// running migrations as needed. The returned cleanup function closes it.
func openStore(cfg *config.Config) (*state.Store, func(), error) {
	stateDir := filepath.Dir(cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	store := state.NewStore()
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	cleanup := func() { _ = store.Close() }
	return store, cleanup, nil
}

// loadReport reads the persisted lineage JSON.
func loadReport(path string) (*lineage.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lineage file %s (run 'proclens parse' first?): %w", path, err)
	}
	var report lineage.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode lineage file %s: %w", path, err)
	}
	return &report, nil
}
