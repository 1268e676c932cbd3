package convert

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/threatgraph/sandstix/report"
	"github.com/threatgraph/sandstix/stix"
)

func TestFileDirectoryChain(t *testing.T) {
	diags := &report.Diagnostics{}
	set := buildObservables([]report.Fact{
		{Kind: report.KindFile, Action: report.ActionWrite, Value: `C:\a\b\c.exe`},
	}, diags)

	var file *stix.File
	var dir *stix.Directory
	for _, obj := range set.ordered {
		switch o := obj.(type) {
		case *stix.File:
			file = o
		case *stix.Directory:
			dir = o
		}
	}
	require.NotNil(t, file)
	require.NotNil(t, dir)
	require.Equal(t, "c.exe", file.Name)
	require.Equal(t, `C:\a\b`, dir.Path)
	require.Equal(t, dir.ID, file.ParentDirectoryRef)
}

func TestDirectoriesDeduplicated(t *testing.T) {
	diags := &report.Diagnostics{}
	set := buildObservables([]report.Fact{
		{Kind: report.KindFile, Action: report.ActionWrite, Value: `C:\a\b\one.bin`},
		{Kind: report.KindFile, Action: report.ActionDelete, Value: `C:\a\b\two.bin`},
	}, diags)

	dirs := 0
	for _, obj := range set.ordered {
		if _, ok := obj.(*stix.Directory); ok {
			dirs++
		}
	}
	require.Equal(t, 1, dirs)
}

func TestSameFileTwoSectionsOneNode(t *testing.T) {
	diags := &report.Diagnostics{}
	set := buildObservables([]report.Fact{
		{Kind: report.KindFile, Action: report.ActionRead, Value: `C:\doc\a.xlsx`},
		{Kind: report.KindFile, Action: report.ActionDelete, Value: `C:\doc\a.xlsx`},
	}, diags)

	files := 0
	for _, obj := range set.ordered {
		if _, ok := obj.(*stix.File); ok {
			files++
		}
	}
	require.Equal(t, 1, files)
	require.Len(t, set.evidence, 2)
}

func TestSampleFoldsBehavioralMentions(t *testing.T) {
	diags := &report.Diagnostics{}
	set := buildObservables([]report.Fact{
		{Kind: report.KindSample, Value: "dropper.exe", Attrs: map[string]any{
			"hashes": map[string]string{"SHA-256": "aec070645fe53ee3b3763059376134f058cc337247c978add178b6ccdfb0019f"},
		}},
		{Kind: report.KindFile, Action: report.ActionWrite, Value: `C:\Temp\dropper.exe`},
	}, diags)

	files := 0
	for _, obj := range set.ordered {
		if _, ok := obj.(*stix.File); ok {
			files++
		}
	}
	require.Equal(t, 1, files)
	// The write evidence is attributed to the sample node.
	require.Equal(t, set.sampleID, set.evidence[1].ID)
}

func TestDedupMergesOptionalAttributes(t *testing.T) {
	diags := &report.Diagnostics{}
	set := buildObservables([]report.Fact{
		{Kind: report.KindProcess, Value: "evil.exe", Attrs: map[string]any{
			"pid": int64(4012),
		}},
		{Kind: report.KindProcess, Value: "evil.exe", Attrs: map[string]any{
			"pid":          int64(4012),
			"command_line": "evil.exe /run",
			"environ":      map[string]string{"TEMP": `C:\Temp`},
		}},
	}, diags)

	var procs []*stix.Process
	for _, obj := range set.ordered {
		if p, ok := obj.(*stix.Process); ok {
			procs = append(procs, p)
		}
	}
	require.Len(t, procs, 1)
	require.Equal(t, "evil.exe /run", procs[0].CommandLine)
	require.Equal(t, map[string]string{"TEMP": `C:\Temp`}, procs[0].EnvironmentVariables)
	require.Equal(t, 4012, procs[0].PID)
}

func TestDedupScalarConflictLastWriterWins(t *testing.T) {
	diags := &report.Diagnostics{}
	set := buildObservables([]report.Fact{
		{Kind: report.KindProcess, Value: "evil.exe", Attrs: map[string]any{
			"pid": int64(4012), "command_line": "evil.exe",
		}},
		{Kind: report.KindProcess, Value: "evil.exe", Attrs: map[string]any{
			"pid": int64(4012), "command_line": "evil.exe /run",
		}},
	}, diags)

	var proc *stix.Process
	for _, obj := range set.ordered {
		if p, ok := obj.(*stix.Process); ok {
			proc = p
		}
	}
	require.NotNil(t, proc)
	require.Equal(t, "evil.exe /run", proc.CommandLine)
}

func TestAddressFamilySplit(t *testing.T) {
	diags := &report.Diagnostics{}
	set := buildObservables([]report.Fact{
		{Kind: report.KindHost, Action: report.ActionContact, Value: "203.0.113.77"},
		{Kind: report.KindHost, Action: report.ActionContact, Value: "2001:db8::1"},
	}, diags)

	var v4, v6 int
	for _, obj := range set.ordered {
		switch obj.(type) {
		case *stix.IPv4Address:
			v4++
		case *stix.IPv6Address:
			v6++
		}
	}
	require.Equal(t, 1, v4)
	require.Equal(t, 1, v6)
}

func TestTrafficEndpointsInterned(t *testing.T) {
	diags := &report.Diagnostics{}
	set := buildObservables([]report.Fact{
		{Kind: report.KindTraffic, Action: report.ActionContact, Value: "flow", Attrs: map[string]any{
			"src": "192.168.56.101", "dst": "203.0.113.77",
			"sport": int64(49733), "dport": int64(443),
			"proto": "tcp",
		}},
	}, diags)

	var traffic *stix.NetworkTraffic
	addrs := 0
	for _, obj := range set.ordered {
		switch o := obj.(type) {
		case *stix.NetworkTraffic:
			traffic = o
		case *stix.IPv4Address:
			addrs++
		}
	}
	require.NotNil(t, traffic)
	require.Equal(t, 2, addrs)
	require.Equal(t, []string{"tcp"}, traffic.Protocols)
	require.Equal(t, 443, traffic.DstPort)
	require.NotEmpty(t, traffic.SrcRef)
	require.NotEmpty(t, traffic.DstRef)
}

func TestInvalidFactsSkipped(t *testing.T) {
	diags := &report.Diagnostics{}
	set := buildObservables([]report.Fact{
		{Kind: report.KindMutex, Action: report.ActionCreate, Value: "", Invalid: true, Reason: "empty value"},
		{Kind: report.KindMutex, Action: report.ActionCreate, Value: "Global\\lock"},
	}, diags)

	require.Len(t, set.ordered, 1)
	require.Len(t, set.evidence, 1)
}

func TestFilterMonotonicity(t *testing.T) {
	// Tightening the filter never adds indicators.
	loose := mustConvert(t, report.Sample(), Options{SignatureFilter: "severity >= 1"})
	tight := mustConvert(t, report.Sample(), Options{SignatureFilter: "severity >= 3"})

	looseCount := typeCounts(loose.Bundle)[stix.TypeIndicator]
	tightCount := typeCounts(tight.Bundle)[stix.TypeIndicator]
	require.Equal(t, 3, looseCount)
	require.Equal(t, 2, tightCount)
	require.LessOrEqual(t, tightCount, looseCount)
}
