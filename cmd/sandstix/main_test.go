package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunSelfTest(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bundle.json")

	require.Equal(t, exitOK, run([]string{"-u", "-o", out}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var bundle map[string]any
	require.NoError(t, json.Unmarshal(data, &bundle))
	require.Equal(t, "bundle", bundle["type"])
	require.NotEmpty(t, bundle["objects"])
}

func TestRunRefusesOverwrite(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bundle.json")

	require.Equal(t, exitOK, run([]string{"-u", "-o", out}))
	require.Equal(t, exitUsage, run([]string{"-u", "-o", out}))
	require.Equal(t, exitOK, run([]string{"-u", "-o", out, "--overwrite"}))
}

func TestRunRequiresOneInput(t *testing.T) {
	require.Equal(t, exitUsage, run([]string{}))
	require.Equal(t, exitUsage, run([]string{"-u", "-f", "report.json"}))
}

func TestRunMissingReport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "bundle.json")
	require.Equal(t, exitUsage, run([]string{"-f", filepath.Join(t.TempDir(), "absent.json"), "-o", out}))
}

func TestRunBoltSink(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bundle.json")
	db := filepath.Join(dir, "graph.db")

	require.Equal(t, exitOK, run([]string{"-u", "-o", out, "--graph", "bolt", "--graph-target", db}))
	_, err := os.Stat(db)
	require.NoError(t, err)
}

func TestRunSinkFailureKeepsBundle(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bundle.json")

	// Port 1 is never a Redis server; the sink fails but the bundle file
	// survives.
	code := run([]string{"-u", "-o", out, "--graph", "redis", "--graph-target", "redis://127.0.0.1:1"})
	require.Equal(t, exitSinkError, code)
	_, err := os.Stat(out)
	require.NoError(t, err)
}

func TestRunCypherSink(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bundle.json")
	script := filepath.Join(dir, "load.cypher")

	require.Equal(t, exitOK, run([]string{"-u", "-o", out, "--graph", "cypher", "--graph-target", script}))
	data, err := os.ReadFile(script)
	require.NoError(t, err)
	require.Contains(t, string(data), "MERGE (n:Malware")
}

func TestRunBadLogLevel(t *testing.T) {
	require.Equal(t, exitUsage, run([]string{"-u", "--log_level", "loud"}))
}
