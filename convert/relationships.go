package convert

import (
	"github.com/threatgraph/sandstix/report"
	"github.com/threatgraph/sandstix/stix"
)

// edgeFor maps a fact kind and behavioral action onto the closed
// relationship vocabulary. The boolean is false when the evidence carries no
// edge, such as a file merely listed without an action.
func edgeFor(kind report.Kind, action report.Action) (string, bool) {
	switch kind {
	case report.KindFile:
		switch action {
		case report.ActionWrite:
			return stix.RelDrops, true
		case report.ActionRead:
			return stix.RelReads, true
		case report.ActionDelete:
			return stix.RelDeletes, true
		}
	case report.KindRegistryKey:
		switch action {
		case report.ActionWrite:
			return stix.RelModifies, true
		case report.ActionRead:
			return stix.RelReads, true
		case report.ActionDelete:
			return stix.RelDeletes, true
		}
	case report.KindMutex:
		if action == report.ActionCreate {
			return stix.RelCreates, true
		}
	case report.KindProcess:
		// Spawned and executed processes alike are creations of the
		// malware.
		if action == report.ActionCreate || action == report.ActionExecute {
			return stix.RelCreates, true
		}
	case report.KindDomain, report.KindHost, report.KindTraffic, report.KindHTTP:
		if action == report.ActionContact {
			return stix.RelCommunicatesWith, true
		}
	}
	return "", false
}

// synthesizeRelationships turns the collected evidence into relationship
// objects: behavioral edges from the malware to each touched observable,
// resolution edges between domains and addresses, and the structural edges
// tying indicators, attack patterns, and the analysis to the malware.
func synthesizeRelationships(malware *stix.Malware, analysis *stix.MalwareAnalysis, dom *domainObjects, set *observableSet, ts stix.Timestamp) []*stix.Relationship {
	var rels []*stix.Relationship
	seen := make(map[stix.Identifier]bool)
	add := func(src, target stix.Identifier, relType string) {
		r := stix.NewRelationship(src, target, relType, ts)
		if seen[r.ID] {
			return
		}
		seen[r.ID] = true
		rels = append(rels, r)
	}

	for _, ev := range set.evidence {
		relType, ok := edgeFor(ev.Kind, ev.Action)
		if !ok {
			continue
		}
		// The sample is what the malware IS, not something it drops.
		if ev.ID == set.sampleID && relType == stix.RelDrops {
			continue
		}
		add(malware.ID, ev.ID, relType)
	}

	for _, res := range set.resolutions {
		add(res.Domain, res.IP, stix.RelResolvesTo)
	}

	for _, ind := range dom.Indicators {
		add(ind.ID, malware.ID, stix.RelIndicates)
	}
	for _, pattern := range dom.Patterns {
		add(malware.ID, pattern.ID, stix.RelUses)
	}
	if analysis != nil {
		add(analysis.ID, malware.ID, stix.RelDynamicAnalysisOf)
	}
	return rels
}
