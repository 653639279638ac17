// Package materialize creates or replaces reporting views from configured
// definitions.
package materialize

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/proclens/proclens/internal/adapter"
)

// Definition is one view to materialize.
type Definition struct {
	Name string
	SQL  string
}

// FromConfig converts the views map from configuration into definitions,
// sorted by name for deterministic application order.
func FromConfig(views map[string]string) []Definition {
	names := make([]string, 0, len(views))
	for name := range views {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		defs = append(defs, Definition{Name: name, SQL: views[name]})
	}
	return defs
}

// Materializer applies view definitions through a connected adapter.
type Materializer struct {
	adapter adapter.Adapter
	logger  *slog.Logger
}

// New creates a materializer over a connected adapter.
// If logger is nil, a discard logger is used.
func New(ad adapter.Adapter, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Materializer{adapter: ad, logger: logger}
}

// Apply issues CREATE OR REPLACE VIEW for every definition. The first
// failure aborts; earlier views stay applied.
func (m *Materializer) Apply(ctx context.Context, defs []Definition) error {
	for _, def := range defs {
		m.logger.Info("creating view", slog.String("view", def.Name))
		stmt := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS %s", def.Name, def.SQL)
		if err := m.adapter.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create view %s: %w", def.Name, err)
		}
	}
	return nil
}
