package report

// Kind classifies what real-world entity a fact describes.
type Kind string

const (
	KindSample      Kind = "sample"
	KindFile        Kind = "file"
	KindRegistryKey Kind = "registry-key"
	KindMutex       Kind = "mutex"
	KindProcess     Kind = "process"
	KindDomain      Kind = "domain"
	KindHost        Kind = "host"
	KindTraffic     Kind = "traffic"
	KindHTTP        Kind = "http"
)

// Action is the behavioral verb that produced a fact. It decides which
// relationship the synthesizer emits for the resulting observable.
type Action string

const (
	ActionNone    Action = ""
	ActionRead    Action = "read"
	ActionWrite   Action = "write"
	ActionDelete  Action = "delete"
	ActionCreate  Action = "create"
	ActionExecute Action = "execute"
	ActionContact Action = "contact"
)

// Fact is one normalized observation extracted from a report: what kind of
// entity, its primary value, optional attributes, and where in the report it
// came from. Facts tagged Invalid carry a reason and are filtered by the
// observable builder.
type Fact struct {
	Kind    Kind
	Action  Action
	Value   string
	Attrs   map[string]any
	Path    string
	Invalid bool
	Reason  string
}

// Signature is one behavioral signature match from the report, the raw
// material for indicators and attack patterns.
type Signature struct {
	Name        string
	Description string
	Severity    int
	Confidence  int
	Families    []string
	TTPs        []string
	// IOCs are the concrete values the signature matched on, used to express
	// the indicator pattern against a real observable.
	IOCs []string
}

// Analysis is the sandbox run metadata: which engine, which VM, when.
type Analysis struct {
	Product       string
	Version       string
	Package       string
	MachineName   string
	Manager       string
	Started       string
	Ended         string
	MachineStart  string
	MachineFinish string
}

// Verdict summarizes the sandbox's classification of the sample.
type Verdict struct {
	Malscore   float64
	HasScore   bool
	Families   []string
	Detections []string
}
