package report

import "fmt"

// Diagnostic records one value that was dropped or repaired during
// extraction, with the report path it came from.
type Diagnostic struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Diagnostics collects extraction anomalies for one conversion run. They are
// informational: an anomaly never aborts a conversion. A nil *Diagnostics is
// valid and discards everything.
type Diagnostics struct {
	entries []Diagnostic
}

// Record appends a diagnostic for the given report path.
func (d *Diagnostics) Record(path, format string, args ...any) {
	if d == nil {
		return
	}
	d.entries = append(d.entries, Diagnostic{Path: path, Reason: fmt.Sprintf(format, args...)})
}

// Entries returns the collected diagnostics in recording order.
func (d *Diagnostics) Entries() []Diagnostic {
	if d == nil {
		return nil
	}
	return d.entries
}

// Len returns the number of collected diagnostics.
func (d *Diagnostics) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}
