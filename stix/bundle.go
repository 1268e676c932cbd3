package stix

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Bundle is the STIX Bundle container: the terminal aggregate of one
// conversion. Objects keeps the order it was assembled in; serialization
// preserves it so repeated conversions diff cleanly.
type Bundle struct {
	Type    string     `json:"type"`
	ID      Identifier `json:"id"`
	Objects []Object   `json:"objects"`
}

// NewBundle creates a bundle whose identifier is derived from seed, so the
// same report always produces the same bundle id.
func NewBundle(seed string) *Bundle {
	return &Bundle{
		Type: TypeBundle,
		ID:   NewIdentifier(TypeBundle, map[string]string{"seed": seed}),
	}
}

// Add appends objects to the bundle.
func (b *Bundle) Add(objs ...Object) {
	b.Objects = append(b.Objects, objs...)
}

// Contains reports whether an object with the given identifier is present.
func (b *Bundle) Contains(id Identifier) bool {
	for _, obj := range b.Objects {
		if obj.ObjectID() == id {
			return true
		}
	}
	return false
}

// Validate enforces the bundle invariants: every embedded reference and every
// relationship endpoint resolves to an object in the bundle, and no two
// objects share an identifier with divergent content. A violation is an
// internal defect of the converter, not a property of the input.
func (b *Bundle) Validate() error {
	present := make(map[Identifier]json.RawMessage, len(b.Objects))
	for _, obj := range b.Objects {
		raw, err := json.Marshal(obj)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", obj.ObjectID(), err)
		}
		if prev, ok := present[obj.ObjectID()]; ok {
			if !bytes.Equal(prev, raw) {
				return fmt.Errorf("duplicate identifier %s with divergent content", obj.ObjectID())
			}
			continue
		}
		present[obj.ObjectID()] = raw
	}

	for _, obj := range b.Objects {
		for _, ref := range referencesOf(obj) {
			if _, ok := present[ref]; !ok {
				return fmt.Errorf("%s references missing object %s", obj.ObjectID(), ref)
			}
		}
	}
	return nil
}

// References returns every identifier an object points at that must resolve
// within the same bundle: relationship endpoints and embedded refs alike.
func References(obj Object) []Identifier {
	return referencesOf(obj)
}

// referencesOf returns every identifier an object points at that must resolve
// within the same bundle.
func referencesOf(obj Object) []Identifier {
	var refs []Identifier
	add := func(ids ...Identifier) {
		for _, id := range ids {
			if id != "" {
				refs = append(refs, id)
			}
		}
	}
	switch o := obj.(type) {
	case *Relationship:
		add(o.SourceRef, o.TargetRef)
	case *Report:
		add(o.ObjectRefs...)
	case *Malware:
		add(o.SampleRefs...)
	case *MalwareAnalysis:
		add(o.HostVMRef, o.OperatingSystemRef, o.SampleRef)
		add(o.AnalysisSCORefs...)
	case *File:
		add(o.ParentDirectoryRef)
	case *Process:
		add(o.ImageRef, o.ParentRef)
	case *NetworkTraffic:
		add(o.SrcRef, o.DstRef)
	}
	return refs
}

// Marshal serializes the bundle as indented JSON, the form written to the
// output file.
func (b *Bundle) Marshal() ([]byte, error) {
	return json.MarshalIndent(b, "", "    ")
}
