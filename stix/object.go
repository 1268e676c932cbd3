package stix

import (
	"encoding/json"
	"time"
)

// Timestamp is a STIX timestamp: UTC, millisecond precision, trailing "Z".
// It marshals to the canonical string form so serialized bundles are stable.
type Timestamp struct {
	time.Time
}

// NewTimestamp converts t to a STIX timestamp, truncating to millisecond
// precision in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Millisecond)}
}

const timestampLayout = "2006-01-02T15:04:05.000Z"

// String renders the timestamp in the STIX canonical form.
func (t Timestamp) String() string {
	return t.UTC().Format(timestampLayout)
}

// MarshalJSON renders the timestamp in the STIX canonical form.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON parses the STIX canonical form, falling back to RFC 3339.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(timestampLayout, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
	}
	t.Time = parsed.UTC()
	return nil
}

// Object is implemented by every STIX object that can appear in a bundle,
// including relationships.
type Object interface {
	// ObjectID returns the object's identifier.
	ObjectID() Identifier

	// ObjectType returns the STIX type string (e.g. "malware").
	ObjectType() string
}

// customCarrier is implemented by objects that carry vendor extension
// ("x_"-prefixed) properties. StripCustom removes them in place.
type customCarrier interface {
	StripCustom()
}

// ExternalReference points an object at a non-STIX source, such as a MITRE
// ATT&CK technique page.
type ExternalReference struct {
	SourceName  string `json:"source_name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
	ExternalID  string `json:"external_id,omitempty"`
}

// KillChainPhase places an attack pattern within a kill chain.
type KillChainPhase struct {
	KillChainName string `json:"kill_chain_name"`
	PhaseName     string `json:"phase_name"`
}

// Common holds the properties shared by STIX Domain Objects and Relationship
// Objects. Cyber-observables use SCOCommon instead (SCOs have no
// created/modified timestamps in STIX 2.1).
type Common struct {
	Type        string     `json:"type"`
	SpecVersion string     `json:"spec_version"`
	ID          Identifier `json:"id"`
	Created     Timestamp  `json:"created"`
	Modified    Timestamp  `json:"modified"`
	Labels      []string   `json:"labels,omitempty"`
	Confidence  int        `json:"confidence,omitempty"`

	ExternalReferences []ExternalReference `json:"external_references,omitempty"`
}

// ObjectID implements Object.
func (c *Common) ObjectID() Identifier { return c.ID }

// ObjectType implements Object.
func (c *Common) ObjectType() string { return c.Type }

// SCOCommon holds the properties shared by Cyber-Observable Objects.
type SCOCommon struct {
	Type        string     `json:"type"`
	SpecVersion string     `json:"spec_version"`
	ID          Identifier `json:"id"`
}

// ObjectID implements Object.
func (c *SCOCommon) ObjectID() Identifier { return c.ID }

// ObjectType implements Object.
func (c *SCOCommon) ObjectType() string { return c.Type }
