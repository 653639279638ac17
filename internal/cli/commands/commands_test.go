// Package commands_test provides tests for CLI command creation and execution.
package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/proclens/proclens/internal/config"
	"github.com/proclens/proclens/internal/lineage"
	"github.com/proclens/proclens/internal/state"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExtractCommand(t *testing.T) {
	cmd := NewExtractCommand()

	assert.Equal(t, "extract", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("refresh"), "flag refresh should exist")
}

func TestNewParseCommand(t *testing.T) {
	cmd := NewParseCommand()

	assert.Equal(t, "parse", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
}

func TestNewGraphCommand(t *testing.T) {
	cmd := NewGraphCommand()

	assert.Equal(t, "graph", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	flags := []string{"format", "out", "input"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewLineageCommand(t *testing.T) {
	cmd := NewLineageCommand()

	assert.Equal(t, "lineage <routine>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
}

func TestNewTablesCommand(t *testing.T) {
	cmd := NewTablesCommand()

	assert.Equal(t, "tables", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
}

func TestNewMaterializeCommand(t *testing.T) {
	cmd := NewMaterializeCommand()

	assert.Equal(t, "materialize", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
}

func TestNewAllCommand(t *testing.T) {
	cmd := NewAllCommand()

	assert.Equal(t, "all", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("refresh"), "flag refresh should exist")
}

// setTestEnv points every output path into dir and clears any config loaded
// by a previous test, so commands fall back to the environment.
func setTestEnv(t *testing.T, dir string) {
	t.Helper()
	config.ResetConfig()
	t.Setenv("PROCLENS_DUMP_DIR", filepath.Join(dir, "sql_dumps"))
	t.Setenv("PROCLENS_PARSED_DIR", filepath.Join(dir, "parsed_sql"))
	t.Setenv("PROCLENS_GRAPH_DIR", filepath.Join(dir, "graph"))
	t.Setenv("PROCLENS_STATE_PATH", filepath.Join(dir, "state.db"))
	t.Setenv("PROCLENS_OUTPUT", "")
}

// execute runs cmd with captured stdout/stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestRunParseEndToEnd(t *testing.T) {
	dir := t.TempDir()
	setTestEnv(t, dir)

	dumpDir := filepath.Join(dir, "sql_dumps")
	require.NoError(t, os.MkdirAll(dumpDir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dumpDir, "sp_refresh_bookings.sql"),
		[]byte("INSERT INTO fact_bookings SELECT * FROM staging_bookings JOIN dim_hotel ON 1=1"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dumpDir, "sp_cleanup.sql"),
		[]byte("UPDATE staging_bookings SET processed = 1"), 0600))
	// Ignored by the sp_*.sql pattern
	require.NoError(t, os.WriteFile(filepath.Join(dumpDir, "table__fact_bookings.sql"),
		[]byte("CREATE TABLE fact_bookings (id INT)"), 0600))

	_, _, err := execute(t, NewParseCommand())
	require.NoError(t, err)

	// Lineage JSON persisted
	data, err := os.ReadFile(filepath.Join(dir, "parsed_sql", "parsed_lineage.json"))
	require.NoError(t, err)

	var report lineage.Report
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Len(t, report.Procedures, 2)
	assert.Equal(t, []string{"fact_bookings"}, report.Procedures["sp_refresh_bookings"].Writes)
	assert.Equal(t, []string{"dim_hotel", "staging_bookings"}, report.Procedures["sp_refresh_bookings"].Reads)
	assert.Equal(t, []string{"staging_bookings"}, report.Procedures["sp_cleanup"].Writes)

	// State persisted alongside
	store := state.NewStore()
	require.NoError(t, store.Open(filepath.Join(dir, "state.db")))
	defer store.Close()

	routines, err := store.ListRoutines()
	require.NoError(t, err)
	assert.Equal(t, []string{"sp_cleanup", "sp_refresh_bookings"}, routines)
}

func TestRunParseEmptyDumpDir(t *testing.T) {
	dir := t.TempDir()
	setTestEnv(t, dir)

	out, errOut, err := execute(t, NewParseCommand())
	require.NoError(t, err)
	assert.Contains(t, errOut, "no routine dumps")
	assert.Contains(t, out, "Analyzed 0 routines")
}

func TestRunGraphDOT(t *testing.T) {
	dir := t.TempDir()
	setTestEnv(t, dir)

	report := lineage.Analyze([]lineage.Routine{
		{Name: "sp_refresh_bookings", SQL: "insert into fact_bookings select * from staging_bookings"},
	})
	data, err := json.Marshal(report)
	require.NoError(t, err)
	input := filepath.Join(dir, "lineage.json")
	require.NoError(t, os.WriteFile(input, data, 0600))

	dotPath := filepath.Join(dir, "graph", "lineage_graph.dot")
	out, _, err := execute(t, NewGraphCommand(),
		"--format", "dot", "--out", dotPath, "--input", input)
	require.NoError(t, err)
	assert.Contains(t, out, "2 edges")

	src, err := os.ReadFile(dotPath)
	require.NoError(t, err)
	assert.Contains(t, string(src), "Stored Procedures")
	assert.Contains(t, string(src), "sp_refresh_bookings")
	assert.Contains(t, string(src), "fact_bookings")
}

func TestRunGraphMissingLineageFile(t *testing.T) {
	dir := t.TempDir()
	setTestEnv(t, dir)

	_, _, err := execute(t, NewGraphCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "proclens parse")
}

// seedStore writes one analyzed routine into a fresh state database.
func seedStore(t *testing.T, path string) {
	t.Helper()
	report := lineage.Analyze([]lineage.Routine{
		{Name: "sp_refresh_bookings", SQL: "insert into fact_bookings select * from staging_bookings"},
		{Name: "sp_cleanup", SQL: "update staging_bookings set processed = 1"},
	})

	store := state.NewStore()
	require.NoError(t, store.Open(path))
	defer store.Close()
	require.NoError(t, store.Migrate())
	_, err := store.SaveReport(report)
	require.NoError(t, err)
}

func TestRunLineageQuery(t *testing.T) {
	dir := t.TempDir()
	setTestEnv(t, dir)
	seedStore(t, filepath.Join(dir, "state.db"))

	out, _, err := execute(t, NewLineageCommand(), "sp_refresh_bookings")
	require.NoError(t, err)
	assert.Contains(t, out, "Lineage for sp_refresh_bookings")
	assert.Contains(t, out, "staging_bookings")
	assert.Contains(t, out, "fact_bookings")
}

func TestRunLineageQueryJSON(t *testing.T) {
	dir := t.TempDir()
	setTestEnv(t, dir)
	t.Setenv("PROCLENS_OUTPUT", "json")
	seedStore(t, filepath.Join(dir, "state.db"))

	out, _, err := execute(t, NewLineageCommand(), "sp_cleanup")
	require.NoError(t, err)

	var payload struct {
		Routine string                 `json:"routine"`
		Lineage lineage.RoutineLineage `json:"lineage"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "sp_cleanup", payload.Routine)
	assert.Equal(t, []string{"staging_bookings"}, payload.Lineage.Writes)
	assert.Empty(t, payload.Lineage.Reads)
}

func TestRunLineageQueryUnknownRoutine(t *testing.T) {
	dir := t.TempDir()
	setTestEnv(t, dir)
	seedStore(t, filepath.Join(dir, "state.db"))

	_, _, err := execute(t, NewLineageCommand(), "sp_missing")
	require.Error(t, err)
}

func TestRunTables(t *testing.T) {
	dir := t.TempDir()
	setTestEnv(t, dir)
	seedStore(t, filepath.Join(dir, "state.db"))

	out, _, err := execute(t, NewTablesCommand())
	require.NoError(t, err)
	assert.Contains(t, out, "fact_bookings")
	assert.Contains(t, out, "staging_bookings")
	assert.Contains(t, out, "sp_refresh_bookings")
	assert.Contains(t, out, "(2 tables)")
}

func TestRunTablesEmptyState(t *testing.T) {
	dir := t.TempDir()
	setTestEnv(t, dir)

	_, errOut, err := execute(t, NewTablesCommand())
	require.NoError(t, err)
	assert.Contains(t, errOut, "no lineage recorded")
}

func TestRunExtractNoSource(t *testing.T) {
	dir := t.TempDir()
	setTestEnv(t, dir)

	_, _, err := execute(t, NewExtractCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no source database configured")
}

func TestRunMaterializeNoViews(t *testing.T) {
	dir := t.TempDir()
	setTestEnv(t, dir)

	_, errOut, err := execute(t, NewMaterializeCommand())
	require.NoError(t, err)
	assert.Contains(t, errOut, "no views configured")
}

func TestFormatTableList(t *testing.T) {
	if got := formatTableList(nil); got != "(none)" {
		t.Errorf("formatTableList(nil) = %q, want %q", got, "(none)")
	}
	if got := formatTableList([]string{"a", "b"}); got != "a, b" {
		t.Errorf("formatTableList = %q, want %q", got, "a, b")
	}
}

func TestFormatRoutineList(t *testing.T) {
	if got := formatRoutineList(nil); got != "-" {
		t.Errorf("formatRoutineList(nil) = %q, want %q", got, "-")
	}
	if got := formatRoutineList([]string{"sp_a"}); got != "sp_a" {
		t.Errorf("formatRoutineList = %q, want %q", got, "sp_a")
	}
}

func TestCommandsHaveRunners(t *testing.T) {
	cmds := []*cobra.Command{
		NewExtractCommand(),
		NewParseCommand(),
		NewGraphCommand(),
		NewLineageCommand(),
		NewTablesCommand(),
		NewMaterializeCommand(),
		NewAllCommand(),
	}
	for _, cmd := range cmds {
		name := strings.Fields(cmd.Use)[0]
		if cmd.RunE == nil {
			t.Errorf("command %s should define RunE", name)
		}
	}
}
