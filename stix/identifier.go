package stix

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// idNamespace is the STIX 2.1 namespace for UUIDv5 identifier generation
// (the OASIS-defined namespace used for cyber-observable IDs). The converter
// applies it to every object so identifiers are content-derived and stable
// across runs.
var idNamespace = uuid.MustParse("00abedb4-aa42-466c-9c01-fed23315a9b7")

// Identifier is a STIX object identifier of the form "{type}--{uuid}".
type Identifier string

// Type returns the object-type prefix of the identifier, or "" if the
// identifier is malformed.
func (i Identifier) Type() string {
	t, _, ok := strings.Cut(string(i), "--")
	if !ok {
		return ""
	}
	return t
}

// Valid reports whether the identifier has the "{type}--{uuid}" form.
func (i Identifier) Valid() bool {
	t, u, ok := strings.Cut(string(i), "--")
	if !ok || t == "" {
		return false
	}
	_, err := uuid.Parse(u)
	return err == nil
}

// NewIdentifier derives a deterministic identifier for an object of the given
// type from its defining properties. The properties are normalized (trimmed,
// values lowercased for case-insensitive kinds are the caller's concern),
// sorted by key, and joined into a canonical string which is hashed into a
// UUIDv5 under the STIX namespace.
//
// The same type and properties always produce the same identifier, which is
// what makes re-conversion idempotent and graph upserts safe.
func NewIdentifier(objType string, props map[string]string) Identifier {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, strings.TrimSpace(props[k])))
	}
	canonical := fmt.Sprintf("%s:%s", objType, strings.Join(pairs, "|"))

	// uuid.NewSHA1 with a namespace is RFC 4122 UUIDv5.
	return Identifier(fmt.Sprintf("%s--%s", objType, uuid.NewSHA1(idNamespace, []byte(canonical))))
}
