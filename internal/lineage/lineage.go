package lineage

import (
	"regexp"
	"sort"
	"strings"
)

var (
	whitespacePattern  = regexp.MustCompile(`\s+`)
	readTablePattern   = regexp.MustCompile(`(?:from|join)\s+([a-z0-9_]+)`)
	writeTablePatterns = []*regexp.Regexp{
		regexp.MustCompile(`insert\s+into\s+([a-z0-9_]+)`),
		regexp.MustCompile(`update\s+([a-z0-9_]+)`),
		regexp.MustCompile(`delete\s+from\s+([a-z0-9_]+)`),
	}
)

// Routine is a single stored procedure or function to analyze.
// Analysis takes a slice rather than a map because the aggregation's
// read_by/written_by sequences are defined by processing order.
type Routine struct {
	Name string
	SQL  string
}

// RoutineLineage holds the tables one routine reads and writes.
// Both slices are lowercase, deduplicated, and sorted. A table may
// legitimately appear in both.
type RoutineLineage struct {
	Reads  []string `json:"reads"`
	Writes []string `json:"writes"`
}

// TableUsage lists the routines that read and write one table,
// in processing order.
type TableUsage struct {
	ReadBy    []string `json:"read_by"`
	WrittenBy []string `json:"written_by"`
}

// Report is the aggregated lineage for a whole routine corpus.
// Tables holds an entry only for tables referenced by at least one routine.
type Report struct {
	Procedures map[string]RoutineLineage `json:"procedures"`
	Tables     map[string]*TableUsage    `json:"tables"`

	// order preserves the input processing order for iteration/printing.
	// It is not part of the wire format; a Report deserialized from JSON
	// falls back to sorted names.
	order []string
}

// RoutineNames returns routine names in processing order, or sorted
// alphabetically for reports that lost their order (e.g. loaded from JSON).
// Either way the result is deterministic.
func (r *Report) RoutineNames() []string {
	if len(r.order) == len(r.Procedures) && len(r.order) > 0 {
		return append([]string(nil), r.order...)
	}
	names := make([]string, 0, len(r.Procedures))
	for name := range r.Procedures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Normalize lowercases SQL text and collapses whitespace runs (including
// newlines) to single spaces so that single-line patterns match statements
// that were pretty-printed across multiple lines. Empty input yields "".
// Idempotent.
func Normalize(sqlText string) string {
	if sqlText == "" {
		return ""
	}
	s := strings.ToLower(sqlText)
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ExtractReads returns the tables referenced after FROM or JOIN, sorted and
// deduplicated. Total over all string inputs; never fails.
func ExtractReads(sqlText string) []string {
	sql := Normalize(sqlText)
	var tables []string
	for _, m := range readTablePattern.FindAllStringSubmatch(sql, -1) {
		tables = append(tables, m[1])
	}
	return sortedUnique(tables)
}

// ExtractWrites returns the tables referenced by INSERT INTO, UPDATE, or
// DELETE FROM. Matches from all three patterns are merged before
// deduplication. Total over all string inputs; never fails.
func ExtractWrites(sqlText string) []string {
	sql := Normalize(sqlText)
	var tables []string
	for _, pattern := range writeTablePatterns {
		for _, m := range pattern.FindAllStringSubmatch(sql, -1) {
			tables = append(tables, m[1])
		}
	}
	return sortedUnique(tables)
}

// Extract computes the lineage of a single piece of SQL text. A table
// appearing in both read and write contexts is retained in both sets; no
// precedence rule collapses the two.
func Extract(sqlText string) RoutineLineage {
	return RoutineLineage{
		Reads:  ExtractReads(sqlText),
		Writes: ExtractWrites(sqlText),
	}
}

// Analyze computes per-routine lineage for every routine and folds it into
// the per-table aggregation. Table entries are created lazily on first
// reference with explicit empty sequences. A table in both the reads and
// writes of one routine counts as two events: one ReadBy and one WrittenBy
// entry. Deterministic for a fixed input slice.
func Analyze(routines []Routine) *Report {
	report := &Report{
		Procedures: make(map[string]RoutineLineage, len(routines)),
		Tables:     make(map[string]*TableUsage),
		order:      make([]string, 0, len(routines)),
	}

	for _, routine := range routines {
		l := Extract(routine.SQL)
		report.Procedures[routine.Name] = l
		report.order = append(report.order, routine.Name)

		for _, table := range l.Reads {
			usage := report.table(table)
			usage.ReadBy = append(usage.ReadBy, routine.Name)
		}
		for _, table := range l.Writes {
			usage := report.table(table)
			usage.WrittenBy = append(usage.WrittenBy, routine.Name)
		}
	}

	return report
}

// table returns the usage entry for a table, creating it on first reference.
func (r *Report) table(name string) *TableUsage {
	if usage, ok := r.Tables[name]; ok {
		return usage
	}
	usage := &TableUsage{ReadBy: []string{}, WrittenBy: []string{}}
	r.Tables[name] = usage
	return usage
}

// sortedUnique sorts and deduplicates table names. Always returns a
// non-nil slice so empty results marshal as [] rather than null.
func sortedUnique(names []string) []string {
	seen := make(map[string]bool, len(names))
	result := make([]string, 0, len(names))
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result
}
