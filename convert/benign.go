package convert

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/threatgraph/sandstix/stix"
)

// BenignSet holds identifiers of objects that also appear when analyzing
// known-benign samples. Identifiers are content-derived, so a set built from
// one run's bundles matches the same artifacts in any later run. Objects
// found in the set are removed from converted bundles, along with every
// relationship touching them.
type BenignSet struct {
	ids map[stix.Identifier]bool
}

// Len reports the number of identifiers in the set.
func (b *BenignSet) Len() int {
	if b == nil {
		return 0
	}
	return len(b.ids)
}

// Has reports whether id belongs to a known-benign object.
func (b *BenignSet) Has(id stix.Identifier) bool {
	if b == nil {
		return false
	}
	return b.ids[id]
}

// LoadBenignSet reads every .json bundle under dir and collects the
// identifiers of its objects. Software observables are skipped: they
// describe the analysis machine and recur in every bundle, benign or not.
// Objects with random identifiers are skipped too, since those can never
// match across runs.
func LoadBenignSet(dir string) (*BenignSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read benign dir: %w", err)
	}

	set := &BenignSet{ids: make(map[stix.Identifier]bool)}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read benign bundle %s: %w", entry.Name(), err)
		}
		var bundle struct {
			Objects []struct {
				Type string          `json:"type"`
				ID   stix.Identifier `json:"id"`
			} `json:"objects"`
		}
		if err := json.Unmarshal(data, &bundle); err != nil {
			return nil, fmt.Errorf("parse benign bundle %s: %w", entry.Name(), err)
		}
		for _, obj := range bundle.Objects {
			if obj.Type == stix.TypeSoftware || !contentDerived(obj.ID) {
				continue
			}
			set.ids[obj.ID] = true
		}
	}
	return set, nil
}

// contentDerived reports whether the identifier's UUID part carries the
// name-based version nibble. Randomly generated v4 identifiers fail this.
func contentDerived(id stix.Identifier) bool {
	_, uuidPart, ok := strings.Cut(string(id), "--")
	if !ok || len(uuidPart) != 36 {
		return false
	}
	return uuidPart[14] == '5'
}

// removeBenign filters out objects whose identifier is in the set, then
// drops the relationships left pointing at removed objects.
func removeBenign(objects []stix.Object, benign *BenignSet) []stix.Object {
	kept := objects[:0]
	for _, obj := range objects {
		if benign.Has(obj.ObjectID()) {
			continue
		}
		kept = append(kept, obj)
	}
	return dropDangling(kept)
}
