package stix

// SpecVersion is the STIX specification version emitted on every object.
const SpecVersion = "2.1"

// STIX Domain Object (SDO) types emitted or recognized by the converter.
const (
	TypeAttackPattern   = "attack-pattern"
	TypeCampaign        = "campaign"
	TypeCourseOfAction  = "course-of-action"
	TypeGrouping        = "grouping"
	TypeIdentity        = "identity"
	TypeIndicator       = "indicator"
	TypeInfrastructure  = "infrastructure"
	TypeIntrusionSet    = "intrusion-set"
	TypeLocation        = "location"
	TypeMalware         = "malware"
	TypeMalwareAnalysis = "malware-analysis"
	TypeNote            = "note"
	TypeObservedData    = "observed-data"
	TypeOpinion         = "opinion"
	TypeReport          = "report"
	TypeThreatActor     = "threat-actor"
	TypeTool            = "tool"
	TypeVulnerability   = "vulnerability"
)

// STIX Relationship Object (SRO) types.
const (
	TypeRelationship = "relationship"
	TypeSighting     = "sighting"
)

// STIX Cyber-Observable Object (SCO) types.
const (
	TypeArtifact           = "artifact"
	TypeAutonomousSystem   = "autonomous-system"
	TypeDirectory          = "directory"
	TypeDomainName         = "domain-name"
	TypeEmailAddr          = "email-addr"
	TypeEmailMessage       = "email-message"
	TypeFile               = "file"
	TypeIPv4Addr           = "ipv4-addr"
	TypeIPv6Addr           = "ipv6-addr"
	TypeMACAddr            = "mac-addr"
	TypeMutex              = "mutex"
	TypeNetworkTraffic     = "network-traffic"
	TypeProcess            = "process"
	TypeSoftware           = "software"
	TypeURL                = "url"
	TypeUserAccount        = "user-account"
	TypeWindowsRegistryKey = "windows-registry-key"
	TypeX509Certificate    = "x509-certificate"
)

// TypeBundle is the type of the bundle container itself.
const TypeBundle = "bundle"

// standardTypes is the closed catalogue of STIX 2.1 object types. Objects
// whose type is not in this set are vendor extensions and are stripped when
// custom objects are disallowed.
var standardTypes = map[string]struct{}{
	TypeAttackPattern:   {},
	TypeCampaign:        {},
	TypeCourseOfAction:  {},
	TypeGrouping:        {},
	TypeIdentity:        {},
	TypeIndicator:       {},
	TypeInfrastructure:  {},
	TypeIntrusionSet:    {},
	TypeLocation:        {},
	TypeMalware:         {},
	TypeMalwareAnalysis: {},
	TypeNote:            {},
	TypeObservedData:    {},
	TypeOpinion:         {},
	TypeReport:          {},
	TypeThreatActor:     {},
	TypeTool:            {},
	TypeVulnerability:   {},

	TypeRelationship: {},
	TypeSighting:     {},

	TypeArtifact:           {},
	TypeAutonomousSystem:   {},
	TypeDirectory:          {},
	TypeDomainName:         {},
	TypeEmailAddr:          {},
	TypeEmailMessage:       {},
	TypeFile:               {},
	TypeIPv4Addr:           {},
	TypeIPv6Addr:           {},
	TypeMACAddr:            {},
	TypeMutex:              {},
	TypeNetworkTraffic:     {},
	TypeProcess:            {},
	TypeSoftware:           {},
	TypeURL:                {},
	TypeUserAccount:        {},
	TypeWindowsRegistryKey: {},
	TypeX509Certificate:    {},
}

// IsStandardType reports whether objType is part of the STIX 2.1 catalogue.
func IsStandardType(objType string) bool {
	_, ok := standardTypes[objType]
	return ok
}

// Relationship vocabulary used by the converter. The set is closed: the
// relationship synthesizer never emits a type outside this list.
const (
	RelDrops             = "drops"
	RelReads             = "reads"
	RelModifies          = "modifies"
	RelDeletes           = "deletes"
	RelCreates           = "creates"
	RelCommunicatesWith  = "communicates-with"
	RelResolvesTo        = "resolves-to"
	RelUses              = "uses"
	RelIndicates         = "indicates"
	RelDynamicAnalysisOf = "dynamic-analysis-of"
)

var relationshipVocabulary = map[string]struct{}{
	RelDrops:             {},
	RelReads:             {},
	RelModifies:          {},
	RelDeletes:           {},
	RelCreates:           {},
	RelCommunicatesWith:  {},
	RelResolvesTo:        {},
	RelUses:              {},
	RelIndicates:         {},
	RelDynamicAnalysisOf: {},
}

// IsVocabularyRelationship reports whether relType belongs to the closed
// relationship vocabulary.
func IsVocabularyRelationship(relType string) bool {
	_, ok := relationshipVocabulary[relType]
	return ok
}
