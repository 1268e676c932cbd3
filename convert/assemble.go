package convert

import (
	"sort"

	"github.com/threatgraph/sandstix/stix"
)

// assembleInput is everything the assembler needs to produce the final
// bundle.
type assembleInput struct {
	Seed    string
	Name    string
	TS      stix.Timestamp
	Domain  *domainObjects
	Set     *observableSet
	Rels    []*stix.Relationship
	Options Options
}

// assemble applies the output modes, orders objects deterministically, wraps
// them in a report and bundle, and runs the integrity check. A failed check
// is an invariant error.
func assemble(in assembleInput) (*stix.Bundle, error) {
	objects := collect(in)
	objects = applyModes(objects, in.Options)

	ts := in.TS
	rpt := &stix.Report{
		Common: stix.Common{
			Type:        stix.TypeReport,
			SpecVersion: stix.SpecVersion,
			ID:          stix.NewIdentifier(stix.TypeReport, map[string]string{"name": in.Name}),
			Created:     ts,
			Modified:    ts,
		},
		Name:        in.Name,
		ReportTypes: []string{"malware"},
		Published:   ts,
		ObjectRefs:  make([]stix.Identifier, 0, len(objects)),
	}
	// object_refs reflect the post-filter contents, never removed objects.
	for _, obj := range objects {
		rpt.ObjectRefs = append(rpt.ObjectRefs, obj.ObjectID())
	}

	bundle := stix.NewBundle(in.Seed)
	bundle.Add(rpt)
	bundle.Add(objects...)
	if err := bundle.Validate(); err != nil {
		return nil, invariantErr("assemble", "bundle failed integrity check", err)
	}
	return bundle, nil
}

// collect flattens the domain objects, observables, and relationships into
// one slice in deterministic category order.
func collect(in assembleInput) []stix.Object {
	var objects []stix.Object
	dom := in.Domain
	if dom.Malware != nil {
		objects = append(objects, dom.Malware)
	}
	if dom.Analysis != nil {
		objects = append(objects, dom.Analysis)
	}
	if dom.Tool != nil {
		objects = append(objects, dom.Tool)
	}
	for _, ind := range dom.Indicators {
		objects = append(objects, ind)
	}
	for _, pattern := range dom.Patterns {
		objects = append(objects, pattern)
	}
	for _, sig := range dom.Signatures {
		objects = append(objects, sig)
	}
	for _, sw := range dom.VMSoftware {
		objects = append(objects, sw)
	}
	objects = append(objects, in.Set.ordered...)

	rels := make([]*stix.Relationship, len(in.Rels))
	copy(rels, in.Rels)
	sort.Slice(rels, func(i, j int) bool { return rels[i].ID < rels[j].ID })
	for _, r := range rels {
		objects = append(objects, r)
	}
	return objects
}

// applyModes filters the object slice per the configured output modes and
// drops any relationship left pointing at a removed object.
func applyModes(objects []stix.Object, opts Options) []stix.Object {
	if opts.Benign.Len() > 0 {
		objects = removeBenign(objects, opts.Benign)
	}

	if opts.DisallowCustom {
		kept := objects[:0]
		for _, obj := range objects {
			if !stix.IsStandardType(obj.ObjectType()) {
				continue
			}
			if carrier, ok := obj.(interface{ StripCustom() }); ok {
				carrier.StripCustom()
			}
			kept = append(kept, obj)
		}
		objects = kept
	}

	if opts.Small {
		kept := objects[:0]
		for _, obj := range objects {
			switch obj.ObjectType() {
			case stix.TypeMalwareAnalysis, stix.TypeTool, stix.TypeSoftware:
				continue
			}
			kept = append(kept, obj)
		}
		objects = dropDisconnected(dropDangling(kept))
	}
	return dropDangling(objects)
}

// dropDangling removes relationships whose endpoints are no longer in the
// slice. Removing an edge can never orphan another edge, so one pass
// suffices.
func dropDangling(objects []stix.Object) []stix.Object {
	present := make(map[stix.Identifier]bool, len(objects))
	for _, obj := range objects {
		present[obj.ObjectID()] = true
	}
	kept := objects[:0]
	for _, obj := range objects {
		if rel, ok := obj.(*stix.Relationship); ok {
			if !present[rel.SourceRef] || !present[rel.TargetRef] {
				continue
			}
		}
		kept = append(kept, obj)
	}
	return kept
}

// dropDisconnected removes observables that neither participate in a
// relationship nor are referenced by a retained object. Embedded references
// (parent directories, traffic endpoints, sample refs) keep their targets
// alive even without an edge.
func dropDisconnected(objects []stix.Object) []stix.Object {
	connected := make(map[stix.Identifier]bool)
	for _, obj := range objects {
		if rel, ok := obj.(*stix.Relationship); ok {
			connected[rel.SourceRef] = true
			connected[rel.TargetRef] = true
		}
	}
	// Reference closure: an observable kept for any reason keeps what it
	// points at. Iterate until stable; chains are short.
	for changed := true; changed; {
		changed = false
		for _, obj := range objects {
			if !isObservable(obj.ObjectType()) || connected[obj.ObjectID()] {
				for _, ref := range stix.References(obj) {
					if !connected[ref] {
						connected[ref] = true
						changed = true
					}
				}
			}
		}
	}

	kept := objects[:0]
	for _, obj := range objects {
		if isObservable(obj.ObjectType()) && !connected[obj.ObjectID()] {
			continue
		}
		kept = append(kept, obj)
	}
	return kept
}

var observableTypes = map[string]bool{
	stix.TypeFile:               true,
	stix.TypeDirectory:          true,
	stix.TypeIPv4Addr:           true,
	stix.TypeIPv6Addr:           true,
	stix.TypeDomainName:         true,
	stix.TypeURL:                true,
	stix.TypeMutex:              true,
	stix.TypeProcess:            true,
	stix.TypeSoftware:           true,
	stix.TypeWindowsRegistryKey: true,
	stix.TypeNetworkTraffic:     true,
}

func isObservable(objType string) bool { return observableTypes[objType] }
