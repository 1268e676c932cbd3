package attack

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/threatgraph/sandstix/stix"
)

// Technique is one ATT&CK technique known to the catalogue.
type Technique struct {
	ID          string
	Name        string
	Description string
	Tactic      string
	URL         string
}

// patternCacheSize bounds the technique → attack-pattern conversion cache. A
// full enterprise-attack catalogue has ~600 techniques; sandbox corpora hit a
// much smaller working set.
const patternCacheSize = 256

// Catalog maps technique ids (e.g. "T1486") to technique metadata and builds
// attack-pattern SDOs from them.
type Catalog struct {
	techniques map[string]Technique
	cache      *lru.Cache[string, *stix.AttackPattern]
}

// NewCatalog returns a catalogue backed by the built-in technique table.
func NewCatalog() *Catalog {
	return newCatalog(builtinTechniques)
}

// LoadCatalog parses a MITRE enterprise-attack STIX bundle from disk and
// returns a catalogue over its attack-pattern objects, merged over the
// built-in table.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading attack catalogue %s: %w", path, err)
	}

	var bundle struct {
		Objects []struct {
			Type            string `json:"type"`
			Name            string `json:"name"`
			Description     string `json:"description"`
			KillChainPhases []struct {
				KillChainName string `json:"kill_chain_name"`
				PhaseName     string `json:"phase_name"`
			} `json:"kill_chain_phases"`
			ExternalReferences []struct {
				SourceName string `json:"source_name"`
				ExternalID string `json:"external_id"`
				URL        string `json:"url"`
			} `json:"external_references"`
		} `json:"objects"`
	}
	if err := json.Unmarshal(data, &bundle); err != nil {
		return nil, fmt.Errorf("parsing attack catalogue %s: %w", path, err)
	}

	techniques := make(map[string]Technique, len(bundle.Objects))
	for id, t := range builtinTechniques {
		techniques[id] = t
	}
	for _, obj := range bundle.Objects {
		if obj.Type != stix.TypeAttackPattern {
			continue
		}
		var t Technique
		for _, ref := range obj.ExternalReferences {
			if ref.SourceName == "mitre-attack" && strings.HasPrefix(ref.ExternalID, "T") {
				t.ID = ref.ExternalID
				t.URL = ref.URL
				break
			}
		}
		if t.ID == "" {
			continue
		}
		t.Name = obj.Name
		t.Description = obj.Description
		for _, phase := range obj.KillChainPhases {
			if phase.KillChainName == "mitre-attack" {
				t.Tactic = phase.PhaseName
				break
			}
		}
		techniques[t.ID] = t
	}
	return newCatalog(techniques), nil
}

func newCatalog(techniques map[string]Technique) *Catalog {
	cache, err := lru.New[string, *stix.AttackPattern](patternCacheSize)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &Catalog{techniques: techniques, cache: cache}
}

// Technique looks a technique up by id.
func (c *Catalog) Technique(id string) (Technique, bool) {
	t, ok := c.techniques[id]
	return t, ok
}

// Len returns the number of known techniques.
func (c *Catalog) Len() int { return len(c.techniques) }

// Pattern builds the attack-pattern SDO for a technique id, stamped with ts.
// Unknown ids return false; the caller records a diagnostic and moves on.
func (c *Catalog) Pattern(id string, ts stix.Timestamp) (*stix.AttackPattern, bool) {
	cacheKey := id + "@" + ts.Format("2006-01-02T15:04:05.000")
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached, true
	}

	t, ok := c.techniques[id]
	if !ok {
		return nil, false
	}

	ap := &stix.AttackPattern{
		Common: stix.Common{
			Type:        stix.TypeAttackPattern,
			SpecVersion: stix.SpecVersion,
			ID: stix.NewIdentifier(stix.TypeAttackPattern, map[string]string{
				"external_id": t.ID,
				"name":        t.Name,
			}),
			Created:  ts,
			Modified: ts,
			ExternalReferences: []stix.ExternalReference{{
				SourceName: "mitre-attack",
				ExternalID: t.ID,
				URL:        t.URL,
			}},
		},
		Name:        t.Name,
		Description: t.Description,
	}
	if t.Tactic != "" {
		ap.KillChainPhases = []stix.KillChainPhase{{
			KillChainName: "mitre-attack",
			PhaseName:     t.Tactic,
		}}
	}
	c.cache.Add(cacheKey, ap)
	return ap, true
}
