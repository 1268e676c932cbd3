package convert

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/threatgraph/sandstix/report"
	"github.com/threatgraph/sandstix/stix"
)

// evidence records that one extracted fact produced or touched one
// observable. The relationship synthesizer turns evidence into edges.
type evidence struct {
	ID     stix.Identifier
	Kind   report.Kind
	Action report.Action
}

// resolution pairs a domain observable with an address it resolved to.
type resolution struct {
	Domain stix.Identifier
	IP     stix.Identifier
}

// observableSet holds every cyber-observable produced for one report,
// deduplicated by natural key. Insertion order is preserved so repeated
// conversions of the same report walk the set identically.
type observableSet struct {
	ordered     []stix.Object
	byKey       map[string]stix.Object
	evidence    []evidence
	seenEdge    map[string]bool
	resolutions []resolution
	byPID       map[int64][]stix.Identifier

	sampleID stix.Identifier
	// Basename of the submitted sample. Behavioral file facts whose
	// basename matches fold into the sample observable instead of
	// producing a second File node.
	sampleName string

	diags *report.Diagnostics
}

func newObservableSet(diags *report.Diagnostics) *observableSet {
	return &observableSet{
		byKey:    make(map[string]stix.Object),
		seenEdge: make(map[string]bool),
		byPID:    make(map[int64][]stix.Identifier),
		diags:    diags,
	}
}

// intern registers obj under key, returning the already-registered object
// when the key was seen before. The boolean reports whether obj was new.
// On a repeat key the optional attributes of obj are folded into the prior
// object instead of being discarded.
func (s *observableSet) intern(key string, obj stix.Object) (stix.Object, bool) {
	if prior, ok := s.byKey[key]; ok {
		mergeObservable(prior, obj)
		return prior, false
	}
	s.byKey[key] = obj
	s.ordered = append(s.ordered, obj)
	return obj, true
}

// mergeObservable folds the optional attributes of next into prior, both
// interned under the same natural key. Map attributes union, scalar
// attributes take the later non-empty value. Only files and processes carry
// attributes beyond their natural key; every other observable type is fully
// determined by it.
func mergeObservable(prior, next stix.Object) {
	switch p := prior.(type) {
	case *stix.File:
		n, ok := next.(*stix.File)
		if !ok {
			return
		}
		if len(n.Hashes) > 0 {
			if p.Hashes == nil {
				p.Hashes = make(map[string]string, len(n.Hashes))
			}
			for algo, digest := range n.Hashes {
				p.Hashes[algo] = digest
			}
		}
		if n.Size > 0 {
			p.Size = n.Size
		}
		if n.ParentDirectoryRef != "" {
			p.ParentDirectoryRef = n.ParentDirectoryRef
		}
	case *stix.Process:
		n, ok := next.(*stix.Process)
		if !ok {
			return
		}
		if n.CommandLine != "" {
			p.CommandLine = n.CommandLine
		}
		if n.PID != 0 {
			p.PID = n.PID
		}
		if n.CreatedTime != nil {
			p.CreatedTime = n.CreatedTime
		}
		if len(n.EnvironmentVariables) > 0 {
			if p.EnvironmentVariables == nil {
				p.EnvironmentVariables = make(map[string]string, len(n.EnvironmentVariables))
			}
			for k, v := range n.EnvironmentVariables {
				p.EnvironmentVariables[k] = v
			}
		}
		if n.ImageRef != "" {
			p.ImageRef = n.ImageRef
		}
		if n.ParentRef != "" {
			p.ParentRef = n.ParentRef
		}
	}
}

func (s *observableSet) record(id stix.Identifier, kind report.Kind, action report.Action) {
	edge := string(id) + "|" + string(kind) + "|" + string(action)
	if s.seenEdge[edge] {
		return
	}
	s.seenEdge[edge] = true
	s.evidence = append(s.evidence, evidence{ID: id, Kind: kind, Action: action})
}

// buildObservables consumes the extracted facts and returns the populated
// set. Facts tagged invalid by the extractor are skipped; their diagnostics
// are already recorded.
func buildObservables(facts []report.Fact, diags *report.Diagnostics) *observableSet {
	set := newObservableSet(diags)

	// The sample is handled first so later file facts can fold into it.
	for _, f := range facts {
		if f.Kind == report.KindSample && !f.Invalid {
			set.addSample(f)
			break
		}
	}

	for _, f := range facts {
		if f.Invalid || f.Kind == report.KindSample {
			continue
		}
		switch f.Kind {
		case report.KindFile:
			set.addFile(f)
		case report.KindRegistryKey:
			set.addRegistryKey(f)
		case report.KindMutex:
			set.addMutex(f)
		case report.KindProcess:
			set.addProcess(f)
		case report.KindDomain:
			set.addDomain(f)
		case report.KindHost:
			set.addHost(f)
		case report.KindTraffic:
			set.addTraffic(f)
		case report.KindHTTP:
			set.addURL(f)
		default:
			diags.Record(f.Path, "unhandled fact kind %q", f.Kind)
		}
	}
	return set
}

func (s *observableSet) addSample(f report.Fact) {
	hashes, _ := f.Attrs["hashes"].(map[string]string)

	key := "file:path:" + f.Value
	if _, digest, ok := report.StrongestHash(hashes); ok {
		key = "file:hash:" + digest
	}

	file := &stix.File{
		SCOCommon: stix.SCOCommon{Type: stix.TypeFile, SpecVersion: stix.SpecVersion},
		Name:      f.Value,
		Hashes:    hashes,
	}
	if size, ok := f.Attrs["size"].(int64); ok {
		file.Size = size
	}
	file.ID = fileIdentifier(hashes, f.Value)

	obj, _ := s.intern(key, file)
	s.sampleID = obj.ObjectID()
	s.sampleName = basenameOf(f.Value)
	s.record(obj.ObjectID(), f.Kind, f.Action)
}

func (s *observableSet) addFile(f report.Fact) {
	if s.sampleName != "" && basenameOf(f.Value) == s.sampleName {
		// Behavioral mention of the sample itself.
		s.record(s.sampleID, f.Kind, f.Action)
		return
	}
	s.record(s.internPathFile(f.Value), f.Kind, f.Action)
}

// internPathFile registers a File observable for an on-disk path, with a
// Directory observable for its parent. The natural key is the full path.
func (s *observableSet) internPathFile(path string) stix.Identifier {
	file := &stix.File{
		SCOCommon: stix.SCOCommon{Type: stix.TypeFile, SpecVersion: stix.SpecVersion},
		Name:      basenameOf(path),
	}
	if dir := parentPath(path); dir != "" {
		file.ParentDirectoryRef = s.internDirectory(dir)
	}
	file.ID = stix.NewIdentifier(stix.TypeFile, map[string]string{"path": path})
	obj, _ := s.intern("file:path:"+path, file)
	return obj.ObjectID()
}

func (s *observableSet) internDirectory(path string) stix.Identifier {
	dir := &stix.Directory{
		SCOCommon: stix.SCOCommon{Type: stix.TypeDirectory, SpecVersion: stix.SpecVersion},
		Path:      path,
	}
	dir.ID = stix.NewIdentifier(stix.TypeDirectory, map[string]string{"path": path})
	obj, _ := s.intern("directory:"+path, dir)
	return obj.ObjectID()
}

func (s *observableSet) addRegistryKey(f report.Fact) {
	key := &stix.WindowsRegistryKey{
		SCOCommon: stix.SCOCommon{Type: stix.TypeWindowsRegistryKey, SpecVersion: stix.SpecVersion},
		Key:       f.Value,
	}
	key.ID = stix.NewIdentifier(stix.TypeWindowsRegistryKey, map[string]string{"key": f.Value})
	obj, _ := s.intern("registry-key:"+f.Value, key)
	s.record(obj.ObjectID(), f.Kind, f.Action)
}

func (s *observableSet) addMutex(f report.Fact) {
	mtx := &stix.Mutex{
		SCOCommon: stix.SCOCommon{Type: stix.TypeMutex, SpecVersion: stix.SpecVersion},
		Name:      f.Value,
	}
	mtx.ID = stix.NewIdentifier(stix.TypeMutex, map[string]string{"name": f.Value})
	obj, _ := s.intern("mutex:"+f.Value, mtx)
	s.record(obj.ObjectID(), f.Kind, f.Action)
}

func (s *observableSet) addProcess(f report.Fact) {
	cmd, _ := f.Attrs["command_line"].(string)
	if f.Action == report.ActionExecute {
		// Executed command with no process record behind it.
		proc := &stix.Process{
			SCOCommon:   stix.SCOCommon{Type: stix.TypeProcess, SpecVersion: stix.SpecVersion},
			CommandLine: f.Value,
		}
		proc.ID = stix.NewIdentifier(stix.TypeProcess, map[string]string{"command_line": f.Value})
		obj, _ := s.intern("process:cmd:"+f.Value, proc)
		s.record(obj.ObjectID(), f.Kind, f.Action)
		return
	}

	pid, hasPID := f.Attrs["pid"].(int64)
	firstSeen, hasStart := f.Attrs["first_seen"].(time.Time)

	idProps := map[string]string{"name": f.Value}
	keyParts := []string{"process", f.Value}
	if hasPID {
		idProps["pid"] = fmt.Sprintf("%d", pid)
		keyParts = append(keyParts, idProps["pid"])
	}
	if hasStart {
		idProps["created"] = firstSeen.UTC().Format(time.RFC3339)
		keyParts = append(keyParts, idProps["created"])
	}

	proc := &stix.Process{
		SCOCommon:   stix.SCOCommon{Type: stix.TypeProcess, SpecVersion: stix.SpecVersion},
		CommandLine: cmd,
	}
	if hasPID {
		proc.PID = int(pid)
	}
	if hasStart {
		created := stix.NewTimestamp(firstSeen)
		proc.CreatedTime = &created
	}
	if env, ok := f.Attrs["environ"].(map[string]string); ok {
		proc.EnvironmentVariables = env
	}
	if path, ok := f.Attrs["module_path"].(string); ok && path != "" {
		if s.sampleName != "" && basenameOf(path) == s.sampleName {
			proc.ImageRef = s.sampleID
		} else {
			proc.ImageRef = s.internPathFile(path)
		}
	}
	if ppid, ok := f.Attrs["ppid"].(int64); ok {
		if parents := s.byPID[ppid]; len(parents) == 1 {
			proc.ParentRef = parents[0]
		}
	}
	proc.ID = stix.NewIdentifier(stix.TypeProcess, idProps)

	obj, created := s.intern(strings.Join(keyParts, "|"), proc)
	if created && hasPID {
		s.byPID[pid] = append(s.byPID[pid], obj.ObjectID())
	}
	s.record(obj.ObjectID(), f.Kind, f.Action)
}

func (s *observableSet) addDomain(f report.Fact) {
	dom := &stix.DomainName{
		SCOCommon: stix.SCOCommon{Type: stix.TypeDomainName, SpecVersion: stix.SpecVersion},
		Value:     f.Value,
	}
	dom.ID = stix.NewIdentifier(stix.TypeDomainName, map[string]string{"value": f.Value})
	obj, _ := s.intern("domain:"+f.Value, dom)
	s.record(obj.ObjectID(), f.Kind, f.Action)

	if ip, ok := f.Attrs["ip"].(string); ok && ip != "" {
		ipID, valid := s.internAddress(ip)
		if !valid {
			s.diags.Record(f.Path, "domain %s resolved to unparsable address %q", f.Value, ip)
			return
		}
		s.resolutions = append(s.resolutions, resolution{Domain: obj.ObjectID(), IP: ipID})
	}
}

func (s *observableSet) addHost(f report.Fact) {
	id, ok := s.internAddress(f.Value)
	if !ok {
		s.diags.Record(f.Path, "unparsable host address %q", f.Value)
		return
	}
	s.record(id, f.Kind, f.Action)
}

// internAddress interns an IPv4 or IPv6 address observable. It reports
// false when the literal parses as neither.
func (s *observableSet) internAddress(literal string) (stix.Identifier, bool) {
	parsed := net.ParseIP(literal)
	if parsed == nil {
		return "", false
	}
	if parsed.To4() != nil {
		addr := &stix.IPv4Address{
			SCOCommon: stix.SCOCommon{Type: stix.TypeIPv4Addr, SpecVersion: stix.SpecVersion},
			Value:     literal,
		}
		addr.ID = stix.NewIdentifier(stix.TypeIPv4Addr, map[string]string{"value": literal})
		obj, _ := s.intern("ipv4:"+literal, addr)
		return obj.ObjectID(), true
	}
	addr := &stix.IPv6Address{
		SCOCommon: stix.SCOCommon{Type: stix.TypeIPv6Addr, SpecVersion: stix.SpecVersion},
		Value:     literal,
	}
	addr.ID = stix.NewIdentifier(stix.TypeIPv6Addr, map[string]string{"value": literal})
	obj, _ := s.intern("ipv6:"+literal, addr)
	return obj.ObjectID(), true
}

func (s *observableSet) addURL(f report.Fact) {
	u := &stix.URL{
		SCOCommon: stix.SCOCommon{Type: stix.TypeURL, SpecVersion: stix.SpecVersion},
		Value:     f.Value,
	}
	u.ID = stix.NewIdentifier(stix.TypeURL, map[string]string{"value": f.Value})
	obj, _ := s.intern("url:"+f.Value, u)
	s.record(obj.ObjectID(), f.Kind, f.Action)
}

func (s *observableSet) addTraffic(f report.Fact) {
	src, _ := f.Attrs["src"].(string)
	dst, _ := f.Attrs["dst"].(string)
	proto, _ := f.Attrs["proto"].(string)
	srcID, srcOK := s.internAddress(src)
	dstID, dstOK := s.internAddress(dst)
	if !srcOK && !dstOK {
		s.diags.Record(f.Path, "network flow with no parsable endpoint")
		return
	}

	idProps := map[string]string{"protocol": proto}
	keyParts := []string{"traffic", proto, src, dst}
	traffic := &stix.NetworkTraffic{
		SCOCommon: stix.SCOCommon{Type: stix.TypeNetworkTraffic, SpecVersion: stix.SpecVersion},
		Protocols: []string{proto},
	}
	if srcOK {
		traffic.SrcRef = srcID
		idProps["src"] = src
	}
	if dstOK {
		traffic.DstRef = dstID
		idProps["dst"] = dst
	}
	if sport, ok := f.Attrs["sport"].(int64); ok {
		traffic.SrcPort = int(sport)
		idProps["sport"] = fmt.Sprintf("%d", sport)
		keyParts = append(keyParts, idProps["sport"])
	}
	if dport, ok := f.Attrs["dport"].(int64); ok {
		traffic.DstPort = int(dport)
		idProps["dport"] = fmt.Sprintf("%d", dport)
		keyParts = append(keyParts, idProps["dport"])
	}
	traffic.ID = stix.NewIdentifier(stix.TypeNetworkTraffic, idProps)

	obj, _ := s.intern(strings.Join(keyParts, "|"), traffic)
	s.record(obj.ObjectID(), f.Kind, f.Action)
}

// find returns the identifier registered under a natural key, if any. The
// indicator builder uses it to anchor patterns on real nodes.
func (s *observableSet) find(key string) (stix.Identifier, bool) {
	obj, ok := s.byKey[key]
	if !ok {
		return "", false
	}
	return obj.ObjectID(), true
}

// fileIdentifier derives a File identifier from the strongest available
// hash, falling back to the name for hashless files.
func fileIdentifier(hashes map[string]string, name string) stix.Identifier {
	if algo, digest, ok := report.StrongestHash(hashes); ok {
		return stix.NewIdentifier(stix.TypeFile, map[string]string{"hash." + algo: digest})
	}
	return stix.NewIdentifier(stix.TypeFile, map[string]string{"name": name})
}

// basenameOf returns the final component of a Windows or POSIX path.
func basenameOf(path string) string {
	if i := strings.LastIndexAny(path, `\/`); i >= 0 {
		return path[i+1:]
	}
	return path
}

// parentPath returns the directory part of a Windows or POSIX path, or ""
// when the path has no separator or only a root one.
func parentPath(path string) string {
	i := strings.LastIndexAny(path, `\/`)
	if i <= 0 {
		return ""
	}
	parent := path[:i]
	if strings.HasSuffix(parent, ":") {
		// Bare drive letters are not useful directory nodes.
		return ""
	}
	return parent
}
