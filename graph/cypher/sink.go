package cypher

import (
	"context"
	"os"

	"github.com/threatgraph/sandstix/graph"
)

// FileSink renders bundles as a Cypher script at a fixed path. It satisfies
// graph.Sink so Cypher output plugs into the same persistence flow as the
// database-backed stores.
type FileSink struct {
	path string
}

// NewFileSink creates a sink writing to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

// Upsert renders the statements and writes the script, replacing any
// previous one. The script is MERGE-only, so loading it repeatedly
// converges just like the database sinks.
func (s *FileSink) Upsert(ctx context.Context, nodes []graph.Node, edges []graph.Edge) error {
	if err := ctx.Err(); err != nil {
		return &graph.SinkError{Backend: "cypher", Op: "render", Cause: err}
	}
	script, err := Script(Render(nodes, edges))
	if err != nil {
		return &graph.SinkError{Backend: "cypher", Op: "render", Cause: err}
	}
	if err := os.WriteFile(s.path, []byte(script), 0644); err != nil {
		return &graph.SinkError{Backend: "cypher", Op: "write", Cause: err}
	}
	return nil
}

// Close is a no-op; the file is written whole on each upsert.
func (s *FileSink) Close() error { return nil }
