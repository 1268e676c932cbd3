package graph

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/threatgraph/sandstix/stix"
)

// Node is one STIX object flattened for graph storage. Props holds the
// object's serialized properties, including its embedded references.
type Node struct {
	ID    string         `json:"id"`
	Type  string         `json:"type"`
	Props map[string]any `json:"props"`
}

// Edge is one STIX relationship flattened for graph storage.
type Edge struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	SourceRef string `json:"source_ref"`
	TargetRef string `json:"target_ref"`
}

// Sink persists a flattened bundle. Implementations must be idempotent:
// upserting the same nodes and edges twice is not an error and changes
// nothing.
type Sink interface {
	Upsert(ctx context.Context, nodes []Node, edges []Edge) error
	Close() error
}

// SinkError wraps a persistence failure. It is a distinct category from
// conversion errors: when a sink fails the bundle itself is still good, and
// callers that already wrote it to disk should keep it.
type SinkError struct {
	Backend string
	Op      string
	Cause   error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s sink: %s: %v", e.Backend, e.Op, e.Cause)
}

func (e *SinkError) Unwrap() error { return e.Cause }

// FromBundle flattens a bundle into nodes and edges. Relationships become
// edges; everything else, the bundle's report included, becomes a node.
func FromBundle(b *stix.Bundle) ([]Node, []Edge, error) {
	var nodes []Node
	var edges []Edge
	for _, obj := range b.Objects {
		if rel, ok := obj.(*stix.Relationship); ok {
			edges = append(edges, Edge{
				ID:        string(rel.ID),
				Type:      rel.RelationshipType,
				SourceRef: string(rel.SourceRef),
				TargetRef: string(rel.TargetRef),
			})
			continue
		}
		props, err := flatten(obj)
		if err != nil {
			return nil, nil, fmt.Errorf("flattening %s: %w", obj.ObjectID(), err)
		}
		nodes = append(nodes, Node{
			ID:    string(obj.ObjectID()),
			Type:  obj.ObjectType(),
			Props: props,
		})
	}
	return nodes, edges, nil
}

func flatten(obj stix.Object) (map[string]any, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var props map[string]any
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, err
	}
	return props, nil
}
