package convert

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/threatgraph/sandstix/report"
	"github.com/threatgraph/sandstix/stix"
)

func mustConvert(t *testing.T, r *report.Report, opts Options) *Result {
	t.Helper()
	c, err := New(opts)
	require.NoError(t, err)
	res, err := c.Convert(context.Background(), r)
	require.NoError(t, err)
	return res
}

func typeCounts(b *stix.Bundle) map[string]int {
	counts := make(map[string]int)
	for _, obj := range b.Objects {
		counts[obj.ObjectType()]++
	}
	return counts
}

func relsOf(b *stix.Bundle) []*stix.Relationship {
	var rels []*stix.Relationship
	for _, obj := range b.Objects {
		if r, ok := obj.(*stix.Relationship); ok {
			rels = append(rels, r)
		}
	}
	return rels
}

func hasEdge(b *stix.Bundle, srcType, relType, targetType string) bool {
	for _, r := range relsOf(b) {
		if r.RelationshipType == relType && r.SourceRef.Type() == srcType && r.TargetRef.Type() == targetType {
			return true
		}
	}
	return false
}

// minimalReport is a report with one sample file, one contacted address, and
// one high-severity signature.
func minimalReport(t *testing.T) *report.Report {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"target": map[string]any{
			"category": "file",
			"file": map[string]any{
				"name":   "dropper.exe",
				"sha256": "aec070645fe53ee3b3763059376134f058cc337247c978add178b6ccdfb0019f",
			},
		},
		"network": map[string]any{
			"hosts": []any{"1.2.3.4"},
		},
		"signatures": []any{
			map[string]any{
				"name":        "ransomware-behavior",
				"description": "Encrypts user documents",
				"severity":    4,
				"confidence":  95,
			},
		},
	})
	require.NoError(t, err)
	r, err := report.Parse(raw)
	require.NoError(t, err)
	return r
}

func TestConvertMinimalReport(t *testing.T) {
	res := mustConvert(t, minimalReport(t), Options{})
	counts := typeCounts(res.Bundle)

	require.Equal(t, 1, counts[stix.TypeReport])
	require.Equal(t, 1, counts[stix.TypeMalware])
	require.Equal(t, 1, counts[stix.TypeIndicator])
	require.Equal(t, 1, counts[stix.TypeFile])
	require.Equal(t, 1, counts[stix.TypeIPv4Addr])
	require.Equal(t, 2, counts[stix.TypeRelationship])

	require.True(t, hasEdge(res.Bundle, stix.TypeMalware, stix.RelCommunicatesWith, stix.TypeIPv4Addr))
	require.True(t, hasEdge(res.Bundle, stix.TypeIndicator, stix.RelIndicates, stix.TypeMalware))

	// The malware is named after the sample's strongest hash.
	for _, obj := range res.Bundle.Objects {
		if m, ok := obj.(*stix.Malware); ok {
			require.Equal(t, "aec070645fe53ee3b3763059376134f058cc337247c978add178b6ccdfb0019f", m.Name)
			require.Len(t, m.SampleRefs, 1)
		}
	}
}

func TestConvertSampleReport(t *testing.T) {
	res := mustConvert(t, report.Sample(), Options{})
	b := res.Bundle
	require.NoError(t, b.Validate())
	counts := typeCounts(b)

	require.Equal(t, 1, counts[stix.TypeReport])
	require.Equal(t, 1, counts[stix.TypeMalware])
	require.Equal(t, 1, counts[stix.TypeMalwareAnalysis])
	require.Equal(t, 1, counts[stix.TypeTool])
	require.Equal(t, 2, counts[stix.TypeIndicator])
	require.Equal(t, 2, counts[stix.TypeAttackPattern])
	require.Equal(t, 1, counts[stix.TypeSandboxSignature])
	require.Equal(t, 2, counts[stix.TypeSoftware])
	require.Equal(t, 1, counts[stix.TypeDomainName])
	require.Equal(t, 2, counts[stix.TypeIPv4Addr])
	require.Equal(t, 1, counts[stix.TypeNetworkTraffic])
	require.Equal(t, 1, counts[stix.TypeURL])
	require.Equal(t, 1, counts[stix.TypeMutex])
	require.Equal(t, 2, counts[stix.TypeWindowsRegistryKey])

	require.True(t, hasEdge(b, stix.TypeMalware, stix.RelDrops, stix.TypeFile))
	require.True(t, hasEdge(b, stix.TypeMalware, stix.RelReads, stix.TypeFile))
	require.True(t, hasEdge(b, stix.TypeMalware, stix.RelDeletes, stix.TypeFile))
	require.True(t, hasEdge(b, stix.TypeMalware, stix.RelModifies, stix.TypeWindowsRegistryKey))
	require.True(t, hasEdge(b, stix.TypeMalware, stix.RelCreates, stix.TypeMutex))
	require.True(t, hasEdge(b, stix.TypeMalware, stix.RelCreates, stix.TypeProcess))
	require.True(t, hasEdge(b, stix.TypeDomainName, stix.RelResolvesTo, stix.TypeIPv4Addr))
	require.True(t, hasEdge(b, stix.TypeMalware, stix.RelUses, stix.TypeAttackPattern))
	require.True(t, hasEdge(b, stix.TypeMalwareAnalysis, stix.RelDynamicAnalysisOf, stix.TypeMalware))
	require.True(t, hasEdge(b, stix.TypeMalware, stix.RelCommunicatesWith, stix.TypeURL))
}

func TestSampleFileNeverDropped(t *testing.T) {
	res := mustConvert(t, report.Sample(), Options{})

	var sampleID stix.Identifier
	for _, obj := range res.Bundle.Objects {
		if m, ok := obj.(*stix.Malware); ok {
			require.Len(t, m.SampleRefs, 1)
			sampleID = m.SampleRefs[0]
		}
	}
	require.NotEmpty(t, sampleID)

	for _, r := range relsOf(res.Bundle) {
		if r.TargetRef == sampleID {
			require.NotEqual(t, stix.RelDrops, r.RelationshipType,
				"the analyzed sample must not be marked as dropped by itself")
		}
	}
}

func TestConvertDeduplicatesByNaturalKey(t *testing.T) {
	// budget.xlsx appears in read_files and delete_files: one node, two
	// edges.
	res := mustConvert(t, report.Sample(), Options{})

	var budgetID stix.Identifier
	files := 0
	for _, obj := range res.Bundle.Objects {
		if f, ok := obj.(*stix.File); ok && f.Name == "budget.xlsx" {
			files++
			budgetID = f.ID
		}
	}
	require.Equal(t, 1, files)

	edges := make(map[string]bool)
	for _, r := range relsOf(res.Bundle) {
		if r.TargetRef == budgetID {
			edges[r.RelationshipType] = true
		}
	}
	require.True(t, edges[stix.RelReads])
	require.True(t, edges[stix.RelDeletes])
}

func TestConvertDeterministic(t *testing.T) {
	first := mustConvert(t, report.Sample(), Options{})
	second := mustConvert(t, report.Sample(), Options{})

	a, err := first.Bundle.Marshal()
	require.NoError(t, err)
	b, err := second.Bundle.Marshal()
	require.NoError(t, err)
	require.Equal(t, string(a), string(b))
}

func TestConvertSmallMode(t *testing.T) {
	full := mustConvert(t, report.Sample(), Options{})
	small := mustConvert(t, report.Sample(), Options{Small: true})
	require.NoError(t, small.Bundle.Validate())

	counts := typeCounts(small.Bundle)
	require.Zero(t, counts[stix.TypeMalwareAnalysis])
	require.Zero(t, counts[stix.TypeTool])
	require.Zero(t, counts[stix.TypeSoftware])

	// Small output is a subset: every retained object also exists in the
	// full bundle with identical identity.
	fullIDs := make(map[stix.Identifier]bool)
	for _, obj := range full.Bundle.Objects {
		fullIDs[obj.ObjectID()] = true
	}
	for _, obj := range small.Bundle.Objects {
		if obj.ObjectType() == stix.TypeReport {
			continue
		}
		require.True(t, fullIDs[obj.ObjectID()], "small bundle invented %s", obj.ObjectID())
	}
	require.Less(t, len(small.Bundle.Objects), len(full.Bundle.Objects))
}

func TestConvertDisallowCustom(t *testing.T) {
	res := mustConvert(t, report.Sample(), Options{DisallowCustom: true})
	require.NoError(t, res.Bundle.Validate())

	raw, err := res.Bundle.Marshal()
	require.NoError(t, err)
	require.NotContains(t, string(raw), `"x-sandstix-signature"`)
	require.NotContains(t, string(raw), `"x_sandstix_families"`)
	require.NotContains(t, string(raw), `"x_sandstix_malscore"`)

	for _, obj := range res.Bundle.Objects {
		require.True(t, stix.IsStandardType(obj.ObjectType()),
			"non-standard type %q survived", obj.ObjectType())
	}
}

func TestReportRefsMatchFilteredContents(t *testing.T) {
	for _, opts := range []Options{{}, {Small: true}, {DisallowCustom: true}} {
		res := mustConvert(t, report.Sample(), opts)

		var rpt *stix.Report
		present := make(map[stix.Identifier]bool)
		for _, obj := range res.Bundle.Objects {
			if r, ok := obj.(*stix.Report); ok {
				rpt = r
				continue
			}
			present[obj.ObjectID()] = true
		}
		require.NotNil(t, rpt)
		require.Len(t, rpt.ObjectRefs, len(present))
		for _, ref := range rpt.ObjectRefs {
			require.True(t, present[ref], "report references filtered object %s", ref)
		}
	}
}

func TestConvertDegenerateReport(t *testing.T) {
	raw, err := json.Marshal(map[string]any{
		"target": map[string]any{
			"category": "file",
			"file":     map[string]any{"name": "empty.bin"},
		},
	})
	require.NoError(t, err)
	r, err := report.Parse(raw)
	require.NoError(t, err)

	res := mustConvert(t, r, Options{})
	counts := typeCounts(res.Bundle)
	require.Equal(t, 1, counts[stix.TypeMalware])
	require.Equal(t, 1, counts[stix.TypeFile])
	require.Zero(t, counts[stix.TypeIndicator])
	require.Zero(t, counts[stix.TypeRelationship])
}

func TestMalwareNameFallsBackToAnalysisTime(t *testing.T) {
	// Neither a usable hash nor a file name: the malware is named after the
	// analysis end time.
	raw, err := json.Marshal(map[string]any{
		"target": map[string]any{
			"category": "file",
			"file":     map[string]any{},
		},
		"info": map[string]any{
			"version": "2.4-CAPE",
			"ended":   "2023-04-01 12:00:05",
		},
	})
	require.NoError(t, err)
	r, err := report.Parse(raw)
	require.NoError(t, err)

	res := mustConvert(t, r, Options{})
	var mal *stix.Malware
	for _, obj := range res.Bundle.Objects {
		if m, ok := obj.(*stix.Malware); ok {
			mal = m
		}
	}
	require.NotNil(t, mal)
	require.Equal(t, "2023-04-01T12:00:05.000Z", mal.Name)
}

func TestConvertBytesRejectsGarbage(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)

	_, err = c.ConvertBytes(context.Background(), []byte("not json"))
	var convErr *Error
	require.ErrorAs(t, err, &convErr)
	require.Equal(t, KindInput, convErr.Kind)

	_, err = c.ConvertBytes(context.Background(), []byte(`{"info": {}}`))
	require.Error(t, err)
	require.True(t, errors.As(err, &convErr))
	require.Equal(t, KindInput, convErr.Kind)
}

func TestNewRejectsBadFilter(t *testing.T) {
	_, err := New(Options{SignatureFilter: "severity +"})
	require.Error(t, err)
	var convErr *Error
	require.ErrorAs(t, err, &convErr)
	require.Equal(t, KindInput, convErr.Kind)
}

func TestSignatureFilterRouting(t *testing.T) {
	// With an impossible threshold every signature lands in the custom
	// extension set and no indicators are produced.
	res := mustConvert(t, report.Sample(), Options{SignatureFilter: "severity >= 100"})
	counts := typeCounts(res.Bundle)
	require.Zero(t, counts[stix.TypeIndicator])
	require.Equal(t, 3, counts[stix.TypeSandboxSignature])
}

func TestIndicatorPatterns(t *testing.T) {
	res := mustConvert(t, report.Sample(), Options{})

	patterns := make(map[string]string)
	for _, obj := range res.Bundle.Objects {
		if ind, ok := obj.(*stix.Indicator); ok {
			patterns[ind.Name] = ind.Pattern
			require.Equal(t, "stix", ind.PatternType)
		}
	}
	require.Equal(t, "[file:name = 'budget.xlsx.locked']", patterns["ransomware_file_modifications"])
	require.Equal(t, "[process:command_line = 'vssadmin.exe delete shadows /all /quiet']", patterns["deletes_shadow_copies"])
}
