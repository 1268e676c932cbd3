// Package announce publishes conversion summaries to NATS so downstream
// consumers learn about fresh bundles without polling the graph store.
package announce

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/threatgraph/sandstix/stix"
)

// DefaultSubject is the subject announcements are published on.
const DefaultSubject = "sandstix.bundles"

// Announcement summarizes one converted bundle.
type Announcement struct {
	BundleID      string         `json:"bundle_id"`
	MalwareName   string         `json:"malware_name,omitempty"`
	Objects       int            `json:"objects"`
	Relationships int            `json:"relationships"`
	TypeCounts    map[string]int `json:"type_counts"`
}

// Summarize builds the announcement for a bundle.
func Summarize(b *stix.Bundle) Announcement {
	a := Announcement{
		BundleID:   string(b.ID),
		Objects:    len(b.Objects),
		TypeCounts: make(map[string]int),
	}
	for _, obj := range b.Objects {
		a.TypeCounts[obj.ObjectType()]++
		switch o := obj.(type) {
		case *stix.Malware:
			a.MalwareName = o.Name
		case *stix.Relationship:
			a.Relationships++
		}
	}
	return a
}

// Publisher announces bundles on a NATS subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
	logger  *slog.Logger
}

// NewPublisher connects to the NATS server at url. An empty subject uses
// DefaultSubject; a nil logger discards.
func NewPublisher(url, subject string, logger *slog.Logger) (*Publisher, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}
	return &Publisher{nc: nc, subject: subject, logger: logger}, nil
}

// Announce publishes the bundle summary.
func (p *Publisher) Announce(b *stix.Bundle) error {
	summary := Summarize(b)
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling announcement: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publishing announcement: %w", err)
	}
	p.logger.Debug("announced bundle",
		"subject", p.subject,
		"bundle_id", summary.BundleID,
		"objects", summary.Objects)
	return nil
}

// Close flushes and closes the connection.
func (p *Publisher) Close() error {
	if err := p.nc.Flush(); err != nil {
		p.nc.Close()
		return err
	}
	p.nc.Close()
	return nil
}
