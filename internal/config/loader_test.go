package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	ResetConfig()
	chdir(t, t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultDumpDir, cfg.DumpDir)
	assert.Equal(t, DefaultParsedDir, cfg.ParsedDir)
	assert.Equal(t, DefaultGraphDir, cfg.GraphDir)
	assert.Equal(t, DefaultStateFile, cfg.StatePath)
	assert.Equal(t, DefaultFilePattern, cfg.FilePattern)
	assert.Equal(t, DefaultGraphFormat, cfg.GraphFormat)
	assert.False(t, cfg.Verbose)
	assert.Nil(t, cfg.Source)
}

func TestLoadConfigFile(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	content := `
dump_dir: dumps
graph_format: svg
source:
  type: mysql
  database: cruises
  user: root
views:
  vw_bookings_summary: SELECT * FROM fact_bookings
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "proclens.yaml"), []byte(content), 0600))
	chdir(t, dir)

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "dumps", cfg.DumpDir)
	assert.Equal(t, "svg", cfg.GraphFormat)
	// Unset keys keep their defaults.
	assert.Equal(t, DefaultParsedDir, cfg.ParsedDir)

	require.NotNil(t, cfg.Source)
	assert.Equal(t, "mysql", cfg.Source.Type)
	assert.Equal(t, "cruises", cfg.Source.Database)
	// Per-type defaults applied.
	assert.Equal(t, "127.0.0.1", cfg.Source.Host)
	assert.Equal(t, 3306, cfg.Source.Port)

	assert.Equal(t, "SELECT * FROM fact_bookings", cfg.Views["vw_bookings_summary"])
	assert.Equal(t, filepath.Join(DefaultParsedDir, DefaultLineageFile), cfg.LineagePath())
	assert.Equal(t, filepath.Join(DefaultGraphDir, "lineage_graph.svg"), cfg.GraphPath("svg"))
}

func TestLoadEnvOverrides(t *testing.T) {
	ResetConfig()
	chdir(t, t.TempDir())
	t.Setenv("PROCLENS_DUMP_DIR", "/srv/dumps")
	t.Setenv("PROCLENS_SOURCE__TYPE", "postgres")
	t.Setenv("PROCLENS_SOURCE__DATABASE", "warehouse")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "/srv/dumps", cfg.DumpDir)
	require.NotNil(t, cfg.Source)
	assert.Equal(t, "postgres", cfg.Source.Type)
	assert.Equal(t, 5432, cfg.Source.Port)
}

func TestLoadFlagOverrides(t *testing.T) {
	ResetConfig()
	chdir(t, t.TempDir())
	t.Setenv("PROCLENS_DUMP_DIR", "/srv/dumps")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("dump-dir", "", "")
	flags.String("state", "", "")
	flags.String("pattern", "", "")
	require.NoError(t, flags.Parse([]string{"--dump-dir", "flag-dumps", "--state", "custom.db", "--pattern", "proc_*.sql"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	// Flags beat env vars; flag spellings map onto config keys.
	assert.Equal(t, "flag-dumps", cfg.DumpDir)
	assert.Equal(t, "custom.db", cfg.StatePath)
	assert.Equal(t, "proc_*.sql", cfg.FilePattern)
}

func TestLoadExpandsCredentialEnvVars(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	content := `
source:
  type: mysql
  database: cruises
  user: root
  password: ${TEST_DB_PASSWORD}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "proclens.yaml"), []byte(content), 0600))
	chdir(t, dir)
	t.Setenv("TEST_DB_PASSWORD", "s3cret")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Source.Password)
}

func TestLoadRejectsUnknownSourceType(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	content := `
source:
  type: sybase
  database: legacy
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "proclens.yaml"), []byte(content), 0600))
	chdir(t, dir)

	_, err := Load("", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sybase")
}

func TestValidateSource(t *testing.T) {
	assert.NoError(t, ValidateSource(nil))
	assert.Error(t, ValidateSource(&SourceConfig{}))
	assert.Error(t, ValidateSource(&SourceConfig{Type: "mysql"}))
	assert.NoError(t, ValidateSource(&SourceConfig{Type: "mysql", Database: "db"}))
}
