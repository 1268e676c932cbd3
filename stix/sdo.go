package stix

// Malware is the STIX Malware SDO. The converter emits exactly one per
// conversion, summarizing the analyzed sample.
type Malware struct {
	Common
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	MalwareTypes []string     `json:"malware_types,omitempty"`
	IsFamily     bool         `json:"is_family"`
	FirstSeen    *Timestamp   `json:"first_seen,omitempty"`
	LastSeen     *Timestamp   `json:"last_seen,omitempty"`
	SampleRefs   []Identifier `json:"sample_refs,omitempty"`

	// Vendor extension properties, stripped when custom output is disallowed.
	XFamilies []string `json:"x_sandstix_families,omitempty"`
	XMalscore *float64 `json:"x_sandstix_malscore,omitempty"`
}

// StripCustom removes vendor extension properties.
func (m *Malware) StripCustom() {
	m.XFamilies = nil
	m.XMalscore = nil
}

// MalwareAnalysis is the STIX Malware-Analysis SDO capturing one sandbox run.
type MalwareAnalysis struct {
	Common
	Product            string       `json:"product"`
	Version            string       `json:"version,omitempty"`
	HostVMRef          Identifier   `json:"host_vm_ref,omitempty"`
	OperatingSystemRef Identifier   `json:"operating_system_ref,omitempty"`
	Modules            []string     `json:"modules,omitempty"`
	Submitted          *Timestamp   `json:"submitted,omitempty"`
	AnalysisStarted    *Timestamp   `json:"analysis_started,omitempty"`
	AnalysisEnded      *Timestamp   `json:"analysis_ended,omitempty"`
	Result             string       `json:"result,omitempty"`
	SampleRef          Identifier   `json:"sample_ref,omitempty"`
	AnalysisSCORefs    []Identifier `json:"analysis_sco_refs,omitempty"`
}

// Indicator is the STIX Indicator SDO. One is emitted per signature match
// that passes the configured filter.
type Indicator struct {
	Common
	Name            string           `json:"name,omitempty"`
	Description     string           `json:"description,omitempty"`
	IndicatorTypes  []string         `json:"indicator_types,omitempty"`
	Pattern         string           `json:"pattern"`
	PatternType     string           `json:"pattern_type"`
	ValidFrom       Timestamp        `json:"valid_from"`
	KillChainPhases []KillChainPhase `json:"kill_chain_phases,omitempty"`
}

// AttackPattern is the STIX Attack-Pattern SDO, emitted for ATT&CK techniques
// referenced by signature matches.
type AttackPattern struct {
	Common
	Name            string           `json:"name"`
	Description     string           `json:"description,omitempty"`
	Aliases         []string         `json:"aliases,omitempty"`
	KillChainPhases []KillChainPhase `json:"kill_chain_phases,omitempty"`
}

// Tool is the STIX Tool SDO. The converter uses it for the sandbox engine
// that produced the analysis.
type Tool struct {
	Common
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ToolTypes   []string `json:"tool_types,omitempty"`
	ToolVersion string   `json:"tool_version,omitempty"`
}

// Report is the STIX Report SDO tying every object produced by one
// conversion together via object_refs.
type Report struct {
	Common
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	ReportTypes []string     `json:"report_types,omitempty"`
	Published   Timestamp    `json:"published"`
	ObjectRefs  []Identifier `json:"object_refs"`
}

// SandboxSignature is a vendor extension SDO ("x-sandstix-signature")
// preserving signature matches that did not clear the indicator filter.
// It is removed entirely when custom objects are disallowed.
type SandboxSignature struct {
	Common
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Severity    int    `json:"severity,omitempty"`
}

// TypeSandboxSignature is the vendor extension type for SandboxSignature.
const TypeSandboxSignature = "x-sandstix-signature"
