// Package attack resolves MITRE ATT&CK technique ids referenced by sandbox
// signatures into STIX attack-pattern objects.
//
// A Catalog can be loaded from an enterprise-attack STIX bundle on disk or
// fall back to a built-in table of the techniques sandbox signatures most
// commonly reference. Lookups are cached because the same handful of
// techniques recurs across nearly every report in a corpus.
package attack
