package stix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentifierDeterministic(t *testing.T) {
	props := map[string]string{"sha256": "aa11", "name": "dropper.exe"}

	first := NewIdentifier(TypeFile, props)
	second := NewIdentifier(TypeFile, props)

	assert.Equal(t, first, second)
	assert.Equal(t, TypeFile, first.Type())
	assert.True(t, first.Valid())
}

func TestNewIdentifierKeyOrderIrrelevant(t *testing.T) {
	a := NewIdentifier(TypeProcess, map[string]string{"pid": "42", "name": "svchost.exe"})
	b := NewIdentifier(TypeProcess, map[string]string{"name": "svchost.exe", "pid": "42"})
	assert.Equal(t, a, b)
}

func TestNewIdentifierDistinguishesContent(t *testing.T) {
	a := NewIdentifier(TypeIPv4Addr, map[string]string{"value": "1.2.3.4"})
	b := NewIdentifier(TypeIPv4Addr, map[string]string{"value": "1.2.3.5"})
	assert.NotEqual(t, a, b)
}

func TestNewIdentifierDistinguishesType(t *testing.T) {
	a := NewIdentifier(TypeIPv4Addr, map[string]string{"value": "1.2.3.4"})
	b := NewIdentifier(TypeIPv6Addr, map[string]string{"value": "1.2.3.4"})
	assert.NotEqual(t, a, b)
}

func TestIdentifierValid(t *testing.T) {
	require.False(t, Identifier("malware--not-a-uuid").Valid())
	assert.False(t, Identifier("no-separator").Valid())
	assert.False(t, Identifier("--d1c61298-2b14-5a08-9fc2-a8376c335dd0").Valid())
	assert.True(t, NewIdentifier(TypeMutex, map[string]string{"name": "Global\\x"}).Valid())
}
