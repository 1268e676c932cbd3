package report

import (
	"fmt"
	"net"
	"sort"
	"strings"
)

// Extractor pulls normalized facts out of one report. Absent sections yield
// zero facts; individually malformed entries yield facts tagged invalid or a
// diagnostic, never an error. The extractor holds no state between calls and
// is safe to reuse across sections of the same report.
type Extractor struct {
	r     *Report
	diags *Diagnostics
}

// NewExtractor creates an extractor over r recording anomalies into diags
// (which may be nil).
func NewExtractor(r *Report, diags *Diagnostics) *Extractor {
	return &Extractor{r: r, diags: diags}
}

// Facts extracts every observable-producing fact from the report: the sample
// file, process activity, file/registry/mutex behavior, and network contact.
func (e *Extractor) Facts() []Fact {
	var facts []Fact
	facts = append(facts, e.sampleFacts()...)
	facts = append(facts, e.processFacts()...)
	facts = append(facts, e.summaryFacts()...)
	facts = append(facts, e.networkFacts()...)
	return facts
}

func (e *Extractor) sampleFacts() []Fact {
	category, _ := e.r.Str("target", "category")
	if category != "file" {
		return nil
	}
	file, ok := e.r.Map("target", "file")
	if !ok {
		e.diags.Record("target.file", "target category is file but file section is missing")
		return nil
	}
	name, _ := Str(file, "name")
	hashes := NormalizeHashes(file, "target.file", e.diags)
	if name == "" && len(hashes) == 0 {
		return []Fact{{Kind: KindSample, Path: "target.file", Invalid: true,
			Reason: "sample has neither name nor usable hash"}}
	}
	attrs := map[string]any{}
	if len(hashes) > 0 {
		attrs["hashes"] = hashes
	}
	if size, ok := Int(file, "size"); ok {
		attrs["size"] = size
	}
	return []Fact{{Kind: KindSample, Value: name, Attrs: attrs, Path: "target.file"}}
}

func (e *Extractor) processFacts() []Fact {
	var facts []Fact
	for i, item := range e.r.List("behavior", "processes") {
		path := fmt.Sprintf("behavior.processes[%d]", i)
		proc, ok := item.(map[string]any)
		if !ok {
			e.diags.Record(path, "process entry is not an object")
			continue
		}
		name, _ := Str(proc, "process_name")
		modulePath, _ := Str(proc, "module_path")
		if name == "" && modulePath == "" {
			facts = append(facts, Fact{Kind: KindProcess, Path: path, Invalid: true,
				Reason: "process has neither name nor module path"})
			continue
		}
		attrs := map[string]any{}
		if pid, ok := Int(proc, "process_id"); ok {
			attrs["pid"] = pid
		}
		if ppid, ok := Int(proc, "parent_id"); ok {
			attrs["ppid"] = ppid
		}
		if modulePath != "" {
			attrs["module_path"] = modulePath
		}
		if first, ok := Str(proc, "first_seen"); ok {
			if t, parsed := ParseTime(first); parsed {
				attrs["first_seen"] = t
			} else {
				e.diags.Record(path+".first_seen", "unparsable timestamp %q", first)
			}
		}
		if environ, ok := proc["environ"].(map[string]any); ok {
			env := make(map[string]string, len(environ))
			for k, v := range environ {
				if s, isStr := v.(string); isStr {
					env[k] = s
				}
			}
			if cmd, ok := env["CommandLine"]; ok {
				attrs["command_line"] = cmd
			}
			if len(env) > 0 {
				attrs["environ"] = env
			}
		}
		facts = append(facts, Fact{Kind: KindProcess, Action: ActionCreate, Value: name, Attrs: attrs, Path: path})
	}

	for i, cmd := range e.r.StringList("behavior", "summary", "executed_commands") {
		if strings.TrimSpace(cmd) == "" {
			continue
		}
		facts = append(facts, Fact{
			Kind:   KindProcess,
			Action: ActionExecute,
			Value:  cmd,
			Attrs:  map[string]any{"command_line": cmd},
			Path:   fmt.Sprintf("behavior.summary.executed_commands[%d]", i),
		})
	}
	return facts
}

// summary list → fact kind and action
var summarySections = []struct {
	key    string
	kind   Kind
	action Action
}{
	{"files", KindFile, ActionNone},
	{"read_files", KindFile, ActionRead},
	{"write_files", KindFile, ActionWrite},
	{"delete_files", KindFile, ActionDelete},
	{"read_keys", KindRegistryKey, ActionRead},
	{"write_keys", KindRegistryKey, ActionWrite},
	{"delete_keys", KindRegistryKey, ActionDelete},
	{"mutexes", KindMutex, ActionCreate},
}

func (e *Extractor) summaryFacts() []Fact {
	var facts []Fact
	for _, section := range summarySections {
		for i, value := range e.r.StringList("behavior", "summary", section.key) {
			path := fmt.Sprintf("behavior.summary.%s[%d]", section.key, i)
			if strings.TrimSpace(value) == "" {
				facts = append(facts, Fact{Kind: section.kind, Action: section.action,
					Path: path, Invalid: true, Reason: "empty value"})
				continue
			}
			facts = append(facts, Fact{Kind: section.kind, Action: section.action, Value: value, Path: path})
		}
	}
	return facts
}

func (e *Extractor) networkFacts() []Fact {
	var facts []Fact

	for i, item := range e.r.List("network", "domains") {
		path := fmt.Sprintf("network.domains[%d]", i)
		entry, ok := item.(map[string]any)
		if !ok {
			e.diags.Record(path, "domain entry is not an object")
			continue
		}
		domain, _ := Str(entry, "domain")
		if domain == "" {
			facts = append(facts, Fact{Kind: KindDomain, Path: path, Invalid: true, Reason: "empty domain"})
			continue
		}
		attrs := map[string]any{}
		if ip, ok := Str(entry, "ip"); ok && ip != "" {
			if parsed := net.ParseIP(ip); parsed != nil {
				attrs["ip"] = ip
				attrs["ipv6"] = parsed.To4() == nil
			} else {
				e.diags.Record(path+".ip", "unparsable address %q", ip)
			}
		}
		facts = append(facts, Fact{Kind: KindDomain, Action: ActionContact,
			Value: strings.ToLower(domain), Attrs: attrs, Path: path})
	}

	for i, item := range e.r.List("network", "hosts") {
		path := fmt.Sprintf("network.hosts[%d]", i)
		var ip, country, hostname string
		switch entry := item.(type) {
		case string:
			ip = entry
		case map[string]any:
			ip, _ = Str(entry, "ip")
			country, _ = Str(entry, "country_name")
			hostname, _ = Str(entry, "hostname")
		default:
			e.diags.Record(path, "host entry is neither address nor object")
			continue
		}
		parsed := net.ParseIP(ip)
		if parsed == nil {
			facts = append(facts, Fact{Kind: KindHost, Path: path, Invalid: true,
				Reason: fmt.Sprintf("unparsable address %q", ip)})
			continue
		}
		attrs := map[string]any{"ipv6": parsed.To4() == nil}
		if country != "" {
			attrs["country"] = country
		}
		if hostname != "" {
			attrs["hostname"] = strings.ToLower(hostname)
		}
		facts = append(facts, Fact{Kind: KindHost, Action: ActionContact, Value: ip, Attrs: attrs, Path: path})
	}

	for _, proto := range []string{"tcp", "udp"} {
		for i, item := range e.r.List("network", proto) {
			path := fmt.Sprintf("network.%s[%d]", proto, i)
			entry, ok := item.(map[string]any)
			if !ok {
				e.diags.Record(path, "traffic entry is not an object")
				continue
			}
			src, _ := Str(entry, "src")
			dst, _ := Str(entry, "dst")
			if net.ParseIP(src) == nil || net.ParseIP(dst) == nil {
				facts = append(facts, Fact{Kind: KindTraffic, Path: path, Invalid: true,
					Reason: "traffic endpoints are not addresses"})
				continue
			}
			sport, _ := Int(entry, "sport")
			dport, _ := Int(entry, "dport")
			facts = append(facts, Fact{
				Kind:   KindTraffic,
				Action: ActionContact,
				Value:  fmt.Sprintf("%s:%d>%s:%d/%s", src, sport, dst, dport, proto),
				Attrs: map[string]any{
					"src": src, "dst": dst,
					"sport": sport, "dport": dport,
					"proto": proto,
				},
				Path: path,
			})
		}
	}

	for i, item := range e.r.List("network", "http") {
		path := fmt.Sprintf("network.http[%d]", i)
		entry, ok := item.(map[string]any)
		if !ok {
			e.diags.Record(path, "http entry is not an object")
			continue
		}
		uri, _ := Str(entry, "uri")
		host, _ := Str(entry, "host")
		if uri == "" {
			facts = append(facts, Fact{Kind: KindHTTP, Path: path, Invalid: true, Reason: "empty uri"})
			continue
		}
		value := uri
		if !strings.Contains(uri, "://") && host != "" {
			value = "http://" + host + uri
		}
		attrs := map[string]any{}
		if method, ok := Str(entry, "method"); ok {
			attrs["method"] = method
		}
		if host != "" {
			attrs["host"] = strings.ToLower(host)
		}
		facts = append(facts, Fact{Kind: KindHTTP, Action: ActionContact, Value: value, Attrs: attrs, Path: path})
	}

	return facts
}

// Signatures extracts behavioral signature matches.
func (e *Extractor) Signatures() []Signature {
	var sigs []Signature
	for i, item := range e.r.List("signatures") {
		path := fmt.Sprintf("signatures[%d]", i)
		entry, ok := item.(map[string]any)
		if !ok {
			e.diags.Record(path, "signature entry is not an object")
			continue
		}
		name, _ := Str(entry, "name")
		if name == "" {
			e.diags.Record(path, "signature without a name")
			continue
		}
		sig := Signature{Name: name}
		sig.Description, _ = Str(entry, "description")
		if sev, ok := Int(entry, "severity"); ok {
			sig.Severity = int(sev)
		}
		if conf, ok := Int(entry, "confidence"); ok {
			sig.Confidence = int(conf)
		}
		if families, ok := entry["families"].([]any); ok {
			for _, f := range families {
				if s, isStr := f.(string); isStr && s != "" {
					sig.Families = append(sig.Families, s)
				}
			}
		}
		sig.TTPs = ttpsOf(entry)
		if marks, ok := entry["marks"].([]any); ok {
			for _, m := range marks {
				mark, isMap := m.(map[string]any)
				if !isMap {
					continue
				}
				if markType, _ := Str(mark, "type"); markType != "ioc" {
					continue
				}
				if ioc, ok := Str(mark, "ioc"); ok && ioc != "" {
					sig.IOCs = append(sig.IOCs, ioc)
				}
			}
		}
		sigs = append(sigs, sig)
	}
	return sigs
}

// ttpsOf reads ATT&CK technique ids off a signature entry, accepting both the
// map form {"T1059": "..."} and the list form ["T1059", ...].
func ttpsOf(entry map[string]any) []string {
	var out []string
	switch v := entry["ttp"].(type) {
	case map[string]any:
		for id := range v {
			out = append(out, id)
		}
		sort.Strings(out)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// TTPs returns the distinct ATT&CK technique ids referenced anywhere in the
// report, sorted. Both the report-level ttps section (old and new shapes) and
// per-signature annotations are consulted.
func (e *Extractor) TTPs() []string {
	seen := make(map[string]struct{})
	consider := func(id string) {
		id = strings.TrimSpace(id)
		if strings.HasPrefix(id, "T") {
			seen[id] = struct{}{}
		}
	}

	for _, item := range e.r.List("ttps") {
		switch entry := item.(type) {
		case string:
			consider(entry)
		case map[string]any:
			if id, ok := Str(entry, "ttp"); ok {
				consider(id)
			}
			if nested, ok := entry["ttps"].([]any); ok {
				for _, n := range nested {
					if s, isStr := n.(string); isStr {
						consider(s)
					}
				}
			}
		}
	}
	for _, sig := range e.Signatures() {
		for _, id := range sig.TTPs {
			consider(id)
		}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Analysis extracts the sandbox run metadata, when present.
func (e *Extractor) Analysis() (Analysis, bool) {
	info, ok := e.r.Map("info")
	if !ok {
		return Analysis{}, false
	}
	var a Analysis
	a.Version, _ = Str(info, "version")
	a.Package, _ = Str(info, "package")
	a.Started, _ = Str(info, "started")
	a.Ended, _ = Str(info, "ended")
	a.Product = "CAPE Sandbox"
	if machine, ok := e.r.Map("info", "machine"); ok {
		a.MachineName, _ = Str(machine, "name")
		a.Manager, _ = Str(machine, "manager")
		a.MachineStart, _ = Str(machine, "started_on")
		a.MachineFinish, _ = Str(machine, "shutdown_on")
	}
	return a, true
}

// Verdict extracts the sandbox's classification of the sample.
func (e *Extractor) Verdict() Verdict {
	var v Verdict
	if score, ok := e.r.Float("malscore"); ok {
		v.Malscore = score
		v.HasScore = true
	}
	switch detections := e.r.root["detections"].(type) {
	case string:
		if detections != "" {
			v.Detections = append(v.Detections, detections)
		}
	case []any:
		for _, item := range detections {
			switch entry := item.(type) {
			case string:
				if entry != "" {
					v.Detections = append(v.Detections, entry)
				}
			case map[string]any:
				if family, ok := Str(entry, "family"); ok && family != "" {
					v.Detections = append(v.Detections, family)
				}
			}
		}
	}
	seen := make(map[string]struct{})
	for _, sig := range e.Signatures() {
		for _, family := range sig.Families {
			if _, dup := seen[family]; !dup {
				seen[family] = struct{}{}
				v.Families = append(v.Families, family)
			}
		}
	}
	sort.Strings(v.Families)
	return v
}
