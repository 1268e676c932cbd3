package report

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Report is one parsed sandbox analysis report. It is read-only: accessors
// never mutate the tree, and extraction can run repeatedly over the same
// report with identical results.
type Report struct {
	root map[string]any
	path string
}

// Parse validates and parses a raw JSON report. Structural problems (not
// JSON, missing required sections) are input errors: the caller gets no
// report and nothing downstream runs.
func Parse(data []byte) (*Report, error) {
	if err := validateShape(data); err != nil {
		return nil, err
	}
	var root map[string]any
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	return &Report{root: root}, nil
}

// Load reads and parses the report at path.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", path, err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.path = path
	return r, nil
}

// Path returns the file the report was loaded from, or "" if parsed from
// memory.
func (r *Report) Path() string { return r.path }

// Map walks the tree along path and returns the object found there.
func (r *Report) Map(path ...string) (map[string]any, bool) {
	cur := r.root
	for _, key := range path {
		next, ok := cur[key].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// List walks the tree along path and returns the array found there. A
// missing or mistyped section yields nil, never an error.
func (r *Report) List(path ...string) []any {
	if len(path) == 0 {
		return nil
	}
	parent, ok := r.Map(path[:len(path)-1]...)
	if !ok {
		return nil
	}
	list, _ := parent[path[len(path)-1]].([]any)
	return list
}

// Str walks the tree along path and returns the string found there.
func (r *Report) Str(path ...string) (string, bool) {
	if len(path) == 0 {
		return "", false
	}
	parent, ok := r.Map(path[:len(path)-1]...)
	if !ok {
		return "", false
	}
	return Str(parent, path[len(path)-1])
}

// Float walks the tree along path and returns the number found there.
func (r *Report) Float(path ...string) (float64, bool) {
	if len(path) == 0 {
		return 0, false
	}
	parent, ok := r.Map(path[:len(path)-1]...)
	if !ok {
		return 0, false
	}
	return Float(parent, path[len(path)-1])
}

// StringList walks the tree along path and returns the string array found
// there, skipping non-string entries.
func (r *Report) StringList(path ...string) []string {
	var out []string
	for _, item := range r.List(path...) {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Str reads a string value from a tree node.
func Str(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// Float reads a numeric value from a tree node. JSON numbers decode as
// float64; other types are absent, not coerced.
func Float(m map[string]any, key string) (float64, bool) {
	f, ok := m[key].(float64)
	return f, ok
}

// Int reads a numeric value from a tree node as an integer.
func Int(m map[string]any, key string) (int64, bool) {
	f, ok := m[key].(float64)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// sandbox timestamp layouts, most specific first. CAPE writes
// "2021-06-07 15:21:38,310" for process times and "2021-06-07 15:21:38"
// elsewhere.
var timeLayouts = []string{
	"2006-01-02 15:04:05,000",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseTime parses a sandbox timestamp. Values are interpreted as UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
