package boltstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/threatgraph/sandstix/graph"
)

func testData() ([]graph.Node, []graph.Edge) {
	nodes := []graph.Node{
		{ID: "malware--1", Type: "malware", Props: map[string]any{"name": "sample"}},
		{ID: "ipv4-addr--2", Type: "ipv4-addr", Props: map[string]any{"value": "203.0.113.77"}},
	}
	edges := []graph.Edge{
		{ID: "relationship--3", Type: "communicates-with", SourceRef: "malware--1", TargetRef: "ipv4-addr--2"},
	}
	return nodes, edges
}

func TestUpsertAndRead(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	defer store.Close()

	nodes, edges := testData()
	require.NoError(t, store.Upsert(context.Background(), nodes, edges))

	node, found, err := store.Node("malware--1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "sample", node.Props["name"])

	_, found, err = store.Node("malware--missing")
	require.NoError(t, err)
	require.False(t, found)
}

func TestUpsertIdempotent(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	defer store.Close()

	nodes, edges := testData()
	require.NoError(t, store.Upsert(context.Background(), nodes, edges))
	require.NoError(t, store.Upsert(context.Background(), nodes, edges))

	nodeCount, edgeCount, err := store.Counts()
	require.NoError(t, err)
	require.Equal(t, 2, nodeCount)
	require.Equal(t, 1, edgeCount)
}

func TestUpsertHonorsContext(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "graph.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	nodes, edges := testData()

	err = store.Upsert(ctx, nodes, edges)
	var sinkErr *graph.SinkError
	require.ErrorAs(t, err, &sinkErr)
	require.Equal(t, "bolt", sinkErr.Backend)
}
