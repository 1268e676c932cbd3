package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/threatgraph/sandstix/stix"
)

func testBundle(t *testing.T) *stix.Bundle {
	t.Helper()
	ts := stix.NewTimestamp(time.Date(2023, 4, 1, 12, 10, 41, 0, time.UTC))

	malware := &stix.Malware{
		Common: stix.Common{
			Type:        stix.TypeMalware,
			SpecVersion: stix.SpecVersion,
			ID:          stix.NewIdentifier(stix.TypeMalware, map[string]string{"name": "test-sample"}),
			Created:     ts,
			Modified:    ts,
		},
		Name: "test-sample",
	}
	addr := &stix.IPv4Address{
		SCOCommon: stix.SCOCommon{Type: stix.TypeIPv4Addr, SpecVersion: stix.SpecVersion},
		Value:     "203.0.113.77",
	}
	addr.ID = stix.NewIdentifier(stix.TypeIPv4Addr, map[string]string{"value": addr.Value})
	rel := stix.NewRelationship(malware.ID, addr.ID, stix.RelCommunicatesWith, ts)

	b := stix.NewBundle("test-sample")
	b.Add(malware, addr, rel)
	require.NoError(t, b.Validate())
	return b
}

func TestFromBundle(t *testing.T) {
	b := testBundle(t)
	nodes, edges, err := FromBundle(b)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	require.Len(t, edges, 1)

	require.Equal(t, stix.TypeMalware, nodes[0].Type)
	require.Equal(t, "test-sample", nodes[0].Props["name"])
	require.Equal(t, stix.RelCommunicatesWith, edges[0].Type)
	require.Equal(t, nodes[0].ID, edges[0].SourceRef)
	require.Equal(t, nodes[1].ID, edges[0].TargetRef)
}
