package stix

// Hash algorithm names as they appear in STIX "hashes" dictionaries.
const (
	HashMD5     = "MD5"
	HashSHA1    = "SHA-1"
	HashSHA256  = "SHA-256"
	HashSHA3384 = "SHA3-384"
	HashSSDeep  = "SSDEEP"
	HashTLSH    = "TLSH"
)

// File is the STIX File SCO.
type File struct {
	SCOCommon
	Hashes             map[string]string `json:"hashes,omitempty"`
	Size               int64             `json:"size,omitempty"`
	Name               string            `json:"name,omitempty"`
	MimeType           string            `json:"mime_type,omitempty"`
	ParentDirectoryRef Identifier        `json:"parent_directory_ref,omitempty"`
}

// Directory is the STIX Directory SCO.
type Directory struct {
	SCOCommon
	Path string `json:"path"`
}

// IPv4Address is the STIX IPv4-Addr SCO.
type IPv4Address struct {
	SCOCommon
	Value string `json:"value"`
}

// IPv6Address is the STIX IPv6-Addr SCO.
type IPv6Address struct {
	SCOCommon
	Value string `json:"value"`
}

// DomainName is the STIX Domain-Name SCO.
type DomainName struct {
	SCOCommon
	Value string `json:"value"`
}

// URL is the STIX URL SCO.
type URL struct {
	SCOCommon
	Value string `json:"value"`
}

// Mutex is the STIX Mutex SCO.
type Mutex struct {
	SCOCommon
	Name string `json:"name"`
}

// Process is the STIX Process SCO.
type Process struct {
	SCOCommon
	PID                  int               `json:"pid,omitempty"`
	CreatedTime          *Timestamp        `json:"created_time,omitempty"`
	CommandLine          string            `json:"command_line,omitempty"`
	EnvironmentVariables map[string]string `json:"environment_variables,omitempty"`
	ImageRef             Identifier        `json:"image_ref,omitempty"`
	ParentRef            Identifier        `json:"parent_ref,omitempty"`
}

// Software is the STIX Software SCO, used for the analysis VM operating
// system and hypervisor.
type Software struct {
	SCOCommon
	Name    string `json:"name"`
	Vendor  string `json:"vendor,omitempty"`
	Version string `json:"version,omitempty"`
}

// WindowsRegistryKey is the STIX Windows-Registry-Key SCO.
type WindowsRegistryKey struct {
	SCOCommon
	Key string `json:"key"`
}

// NetworkTraffic is the STIX Network-Traffic SCO.
type NetworkTraffic struct {
	SCOCommon
	Protocols []string   `json:"protocols"`
	SrcRef    Identifier `json:"src_ref,omitempty"`
	DstRef    Identifier `json:"dst_ref,omitempty"`
	SrcPort   int        `json:"src_port,omitempty"`
	DstPort   int        `json:"dst_port,omitempty"`
}
