package graph

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultDotBin is the Graphviz binary used when none is configured.
const DefaultDotBin = "dot"

// RenderBackendError reports a missing or broken Graphviz installation.
// It is an environment failure, distinct from graph construction errors:
// the in-memory graph stays valid and can still be exported as DOT.
type RenderBackendError struct {
	Bin string
	Err error
}

func (e *RenderBackendError) Error() string {
	return fmt.Sprintf("graphviz binary %q not available: %v (install graphviz or export DOT instead)", e.Bin, e.Err)
}

func (e *RenderBackendError) Unwrap() error {
	return e.Err
}

// Renderer renders graphs to image files by piping DOT source into the
// Graphviz dot binary.
type Renderer struct {
	// DotBin is the Graphviz executable name or path.
	DotBin string
	// Format is the Graphviz output format (png, svg, ...).
	Format string
}

// NewRenderer creates a renderer for the given output format using the
// default dot binary.
func NewRenderer(format string) *Renderer {
	return &Renderer{DotBin: DefaultDotBin, Format: format}
}

// Render writes the rendered image for g to path. A missing backend is
// reported as a *RenderBackendError; rendering failures never affect the
// already-built graph.
func (r *Renderer) Render(ctx context.Context, g *Graph, path string) error {
	bin := r.DotBin
	if bin == "" {
		bin = DefaultDotBin
	}

	resolved, err := exec.LookPath(bin)
	if err != nil {
		return &RenderBackendError{Bin: bin, Err: err}
	}

	cmd := exec.CommandContext(ctx, resolved, "-T"+r.Format, "-o", path)
	cmd.Stdin = strings.NewReader(g.DOT())
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("dot rendering failed: %w: %s", err, msg)
		}
		return fmt.Errorf("dot rendering failed: %w", err)
	}
	return nil
}
