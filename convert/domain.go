package convert

import (
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/threatgraph/sandstix/attack"
	"github.com/threatgraph/sandstix/policy"
	"github.com/threatgraph/sandstix/report"
	"github.com/threatgraph/sandstix/stix"
)

// domainObjects is everything one conversion produces above the observable
// layer: the single malware object, the run metadata, the indicator and
// attack-pattern sets, and the below-threshold signatures kept as vendor
// extension objects.
type domainObjects struct {
	Malware    *stix.Malware
	Analysis   *stix.MalwareAnalysis
	Tool       *stix.Tool
	VMSoftware []*stix.Software
	Indicators []*stix.Indicator
	Patterns   []*stix.AttackPattern
	Signatures []*stix.SandboxSignature
}

// buildMalware builds the one malware object summarizing the sample. The
// name prefers the sample's strongest hash so distinct submissions of the
// same binary collapse to the same node.
func buildMalware(ex *report.Extractor, facts []report.Fact, set *observableSet, ts stix.Timestamp) *stix.Malware {
	var name string
	var hashes map[string]string
	for _, f := range facts {
		if f.Kind != report.KindSample || f.Invalid {
			continue
		}
		hashes, _ = f.Attrs["hashes"].(map[string]string)
		name = f.Value
		break
	}
	if _, digest, ok := report.StrongestHash(hashes); ok {
		name = digest
	}
	if name == "" {
		// Unnamed, unhashed sample: name it after the analysis timestamp.
		name = ts.String()
	}

	verdict := ex.Verdict()
	m := &stix.Malware{
		Common: stix.Common{
			Type:        stix.TypeMalware,
			SpecVersion: stix.SpecVersion,
			ID:          stix.NewIdentifier(stix.TypeMalware, map[string]string{"name": name}),
			Created:     ts,
			Modified:    ts,
			Labels:      verdict.Detections,
		},
		Name:      name,
		IsFamily:  false,
		XFamilies: verdict.Families,
	}
	if verdict.HasScore {
		score := verdict.Malscore
		m.XMalscore = &score
	}
	if set.sampleID != "" {
		m.SampleRefs = []stix.Identifier{set.sampleID}
	}
	return m
}

// buildAnalysis builds the malware-analysis object and the software
// observables describing the analysis machine. Returns nils when the report
// carries no run metadata.
func buildAnalysis(ex *report.Extractor, malware *stix.Malware, set *observableSet, ts stix.Timestamp) (*stix.MalwareAnalysis, *stix.Tool, []*stix.Software) {
	meta, ok := ex.Analysis()
	if !ok {
		return nil, nil, nil
	}

	var software []*stix.Software
	internSoftware := func(name string) stix.Identifier {
		sw := &stix.Software{
			SCOCommon: stix.SCOCommon{Type: stix.TypeSoftware, SpecVersion: stix.SpecVersion},
			Name:      name,
		}
		sw.ID = stix.NewIdentifier(stix.TypeSoftware, map[string]string{"name": name})
		software = append(software, sw)
		return sw.ID
	}

	analysis := &stix.MalwareAnalysis{
		Common: stix.Common{
			Type:        stix.TypeMalwareAnalysis,
			SpecVersion: stix.SpecVersion,
			Created:     ts,
			Modified:    ts,
		},
		Product: meta.Product,
		Version: meta.Version,
	}
	if meta.Package != "" {
		analysis.Modules = []string{meta.Package}
	}
	if meta.MachineName != "" {
		analysis.HostVMRef = internSoftware(meta.MachineName)
	}
	if meta.Manager != "" {
		analysis.OperatingSystemRef = internSoftware(meta.Manager)
	}
	if t, ok := report.ParseTime(meta.Started); ok {
		started := stix.NewTimestamp(t)
		analysis.AnalysisStarted = &started
	}
	if t, ok := report.ParseTime(meta.Ended); ok {
		ended := stix.NewTimestamp(t)
		analysis.AnalysisEnded = &ended
	}
	analysis.Result = analysisResult(ex.Verdict())
	if set.sampleID != "" {
		analysis.SampleRef = set.sampleID
	}
	analysis.ID = stix.NewIdentifier(stix.TypeMalwareAnalysis, map[string]string{
		"product": meta.Product,
		"sample":  malware.Name,
		"ended":   meta.Ended,
	})

	tool := &stix.Tool{
		Common: stix.Common{
			Type:        stix.TypeTool,
			SpecVersion: stix.SpecVersion,
			ID:          stix.NewIdentifier(stix.TypeTool, map[string]string{"name": meta.Product, "version": meta.Version}),
			Created:     ts,
			Modified:    ts,
		},
		Name:        meta.Product,
		ToolVersion: meta.Version,
		ToolTypes:   []string{"dynamic-analysis"},
	}
	return analysis, tool, software
}

// analysisResult maps the sandbox score to the STIX malware-analysis result
// vocabulary.
func analysisResult(v report.Verdict) string {
	if !v.HasScore {
		return "unknown"
	}
	switch {
	case v.Malscore >= 6:
		return "malicious"
	case v.Malscore >= 3:
		return "suspicious"
	default:
		return "benign"
	}
}

// buildSignatureObjects partitions signature matches by the filter: passing
// ones become indicators, the rest become vendor extension objects so no
// sandbox finding is silently lost.
func buildSignatureObjects(sigs []report.Signature, filter *policy.SignatureFilter, set *observableSet, ts stix.Timestamp, diags *report.Diagnostics) ([]*stix.Indicator, []*stix.SandboxSignature) {
	var indicators []*stix.Indicator
	var kept []*stix.SandboxSignature
	seen := make(map[string]bool)

	for _, sig := range sigs {
		if seen[sig.Name] {
			continue
		}
		seen[sig.Name] = true

		pass, err := filter.Match(sig)
		if err != nil {
			diags.Record("signatures", "filter failed on %q: %v", sig.Name, err)
			continue
		}
		if !pass {
			kept = append(kept, &stix.SandboxSignature{
				Common: stix.Common{
					Type:        stix.TypeSandboxSignature,
					SpecVersion: stix.SpecVersion,
					ID:          stix.NewIdentifier(stix.TypeSandboxSignature, map[string]string{"name": sig.Name}),
					Created:     ts,
					Modified:    ts,
				},
				Name:        sig.Name,
				Description: sig.Description,
				Severity:    sig.Severity,
			})
			continue
		}

		pattern := indicatorPattern(sig, set)
		ind := &stix.Indicator{
			Common: stix.Common{
				Type:        stix.TypeIndicator,
				SpecVersion: stix.SpecVersion,
				ID:          stix.NewIdentifier(stix.TypeIndicator, map[string]string{"name": sig.Name, "pattern": pattern}),
				Created:     ts,
				Modified:    ts,
				Confidence:  sig.Confidence,
			},
			Name:           sig.Name,
			Description:    sig.Description,
			IndicatorTypes: []string{"malicious-activity"},
			Pattern:        pattern,
			PatternType:    "stix",
			ValidFrom:      ts,
		}
		indicators = append(indicators, ind)
	}
	return indicators, kept
}

// indicatorPattern expresses a signature as a STIX pattern anchored on the
// first matched IOC that corresponds to a real observable, falling back to a
// name comparison when the signature matched on behavior alone.
func indicatorPattern(sig report.Signature, set *observableSet) string {
	for _, ioc := range sig.IOCs {
		if comparison, ok := iocComparison(ioc, set); ok {
			return "[" + comparison + "]"
		}
	}
	return fmt.Sprintf("[x-sandstix-signature:name = %s]", patternLiteral(sig.Name))
}

func iocComparison(ioc string, set *observableSet) (string, bool) {
	if ip := net.ParseIP(ioc); ip != nil {
		objType := stix.TypeIPv4Addr
		if ip.To4() == nil {
			objType = stix.TypeIPv6Addr
		}
		return fmt.Sprintf("%s:value = %s", objType, patternLiteral(ioc)), true
	}
	if strings.Contains(ioc, "://") {
		return fmt.Sprintf("url:value = %s", patternLiteral(ioc)), true
	}
	if strings.HasPrefix(ioc, "HK") {
		return fmt.Sprintf("windows-registry-key:key = %s", patternLiteral(ioc)), true
	}
	lowered := strings.ToLower(ioc)
	if _, ok := set.find("domain:" + lowered); ok {
		return fmt.Sprintf("domain-name:value = %s", patternLiteral(lowered)), true
	}
	// Command lines contain slashes too, so they are checked before the
	// path heuristic.
	if _, ok := set.find("process:cmd:" + ioc); ok {
		return fmt.Sprintf("process:command_line = %s", patternLiteral(ioc)), true
	}
	if strings.ContainsAny(ioc, `\/`) {
		return fmt.Sprintf("file:name = %s", patternLiteral(basenameOf(ioc))), true
	}
	if _, ok := set.find("mutex:" + ioc); ok {
		return fmt.Sprintf("mutex:name = %s", patternLiteral(ioc)), true
	}
	return "", false
}

// patternLiteral quotes a value for use in a STIX pattern comparison.
func patternLiteral(v string) string {
	return "'" + strings.ReplaceAll(v, "'", `\'`) + "'"
}

// buildAttackPatterns resolves the report's technique ids against the
// catalog. Unknown ids are diagnostics, not errors.
func buildAttackPatterns(ids []string, catalog *attack.Catalog, ts stix.Timestamp, diags *report.Diagnostics) []*stix.AttackPattern {
	var out []*stix.AttackPattern
	seen := make(map[stix.Identifier]bool)
	for _, id := range ids {
		pattern, ok := catalog.Pattern(id, ts)
		if !ok {
			diags.Record("ttps", "unknown technique %q", id)
			continue
		}
		if seen[pattern.ID] {
			continue
		}
		seen[pattern.ID] = true
		out = append(out, pattern)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
