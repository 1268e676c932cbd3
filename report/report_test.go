package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRejectsNonJSON(t *testing.T) {
	_, err := Parse([]byte("not json at all"))
	require.Error(t, err)
}

func TestParseRejectsMissingTarget(t *testing.T) {
	_, err := Parse([]byte(`{"info": {}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid sandbox report")
}

func TestParseRejectsMissingCategory(t *testing.T) {
	_, err := Parse([]byte(`{"target": {}}`))
	require.Error(t, err)
}

func TestParseMinimalReport(t *testing.T) {
	r, err := Parse([]byte(`{"target": {"category": "file"}}`))
	require.NoError(t, err)

	category, ok := r.Str("target", "category")
	assert.True(t, ok)
	assert.Equal(t, "file", category)
}

func TestOptionalAccessorsReturnAbsence(t *testing.T) {
	r, err := Parse([]byte(`{"target": {"category": "file"}, "info": {"version": "2.4", "n": 7}}`))
	require.NoError(t, err)

	_, ok := r.Str("info", "missing")
	assert.False(t, ok)
	_, ok = r.Map("behavior", "summary")
	assert.False(t, ok)
	assert.Nil(t, r.List("network", "hosts"))

	// No silent coercion: a number is not a string.
	_, ok = r.Str("info", "n")
	assert.False(t, ok)
	f, ok := r.Float("info", "n")
	assert.True(t, ok)
	assert.Equal(t, 7.0, f)
}

func TestParseTime(t *testing.T) {
	got, ok := ParseTime("2023-04-01 12:00:05")
	require.True(t, ok)
	assert.Equal(t, 2023, got.Year())

	withMillis, ok := ParseTime("2023-04-01 12:00:19,221")
	require.True(t, ok)
	assert.Equal(t, 221000000, withMillis.Nanosecond())

	_, ok = ParseTime("yesterday-ish")
	assert.False(t, ok)
	_, ok = ParseTime("")
	assert.False(t, ok)
}

func TestSampleParses(t *testing.T) {
	r := Sample()
	category, ok := r.Str("target", "category")
	require.True(t, ok)
	assert.Equal(t, "file", category)
}
