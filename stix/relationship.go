package stix

import "fmt"

// Relationship is the STIX Relationship SRO: a directed, typed edge between
// two objects in the same bundle.
type Relationship struct {
	Common
	RelationshipType string     `json:"relationship_type"`
	SourceRef        Identifier `json:"source_ref"`
	TargetRef        Identifier `json:"target_ref"`
	Description      string     `json:"description,omitempty"`
}

// NewRelationship builds a relationship between src and target with a
// deterministic identifier derived from the endpoint identifiers and type.
// The created/modified timestamps are taken from ts so output stays stable.
func NewRelationship(src, target Identifier, relType string, ts Timestamp) *Relationship {
	id := NewIdentifier(TypeRelationship, map[string]string{
		"source_ref":        string(src),
		"target_ref":        string(target),
		"relationship_type": relType,
	})
	return &Relationship{
		Common: Common{
			Type:        TypeRelationship,
			SpecVersion: SpecVersion,
			ID:          id,
			Created:     ts,
			Modified:    ts,
		},
		RelationshipType: relType,
		SourceRef:        src,
		TargetRef:        target,
	}
}

// Validate checks the structural invariants of the relationship: both
// endpoints set and the type drawn from the closed vocabulary.
func (r *Relationship) Validate() error {
	if r.SourceRef == "" {
		return fmt.Errorf("relationship %s: empty source_ref", r.ID)
	}
	if r.TargetRef == "" {
		return fmt.Errorf("relationship %s: empty target_ref", r.ID)
	}
	if !IsVocabularyRelationship(r.RelationshipType) {
		return fmt.Errorf("relationship %s: type %q outside vocabulary", r.ID, r.RelationshipType)
	}
	return nil
}
