package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threatgraph/sandstix/report"
)

func TestDefaultFilterKeepsHighSeverity(t *testing.T) {
	f, err := NewSignatureFilter("")
	require.NoError(t, err)
	assert.Equal(t, DefaultExpression, f.Expression())

	high := report.Signature{Name: "ransom", Severity: 3, Confidence: 90}
	low := report.Signature{Name: "vm-check", Severity: 1, Confidence: 30}

	matched, err := f.Match(high)
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = f.Match(low)
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestFilterOverFamilies(t *testing.T) {
	f, err := NewSignatureFilter(`severity >= 2 || "emotet" in families`)
	require.NoError(t, err)

	matched, err := f.Match(report.Signature{Name: "loader", Severity: 1, Families: []string{"emotet"}})
	require.NoError(t, err)
	assert.True(t, matched)

	matched, err = f.Match(report.Signature{Name: "loader", Severity: 1})
	require.NoError(t, err)
	assert.False(t, matched)
}

func TestFilterCombinedThreshold(t *testing.T) {
	f, err := NewSignatureFilter("severity >= 3 && confidence >= 50")
	require.NoError(t, err)

	matched, err := f.Match(report.Signature{Severity: 3, Confidence: 40})
	require.NoError(t, err)
	assert.False(t, matched)

	matched, err = f.Match(report.Signature{Severity: 3, Confidence: 95})
	require.NoError(t, err)
	assert.True(t, matched)
}

func TestFilterRejectsBadExpressions(t *testing.T) {
	_, err := NewSignatureFilter("severity >=")
	assert.Error(t, err)

	_, err = NewSignatureFilter(`name + "x"`) // string, not bool
	assert.Error(t, err)

	_, err = NewSignatureFilter("unknown_var > 1")
	assert.Error(t, err)
}
