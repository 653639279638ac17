package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/proclens/proclens/internal/lineage"
)

// LoadDumps reads the dumped routine files matching pattern (a glob such as
// sp_*.sql) from dir, sorted by file name for deterministic processing
// order. The routine name is the file stem. A missing directory or a
// pattern with no matches yields an empty slice, not an error.
func LoadDumps(dir, pattern string) ([]lineage.Routine, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
	}
	sort.Strings(matches)

	routines := make([]lineage.Routine, 0, len(matches))
	for _, path := range matches {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		routines = append(routines, lineage.Routine{Name: name, SQL: string(content)})
	}
	return routines, nil
}
