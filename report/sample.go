package report

import _ "embed"

// sampleReport is a compact but fully populated report used by the CLI
// self-test mode and the package tests.
//
//go:embed testdata/sample_report.json
var sampleReport []byte

// Sample returns the built-in self-test report. It always parses; a failure
// here means the embedded data was broken at build time.
func Sample() *Report {
	r, err := Parse(sampleReport)
	if err != nil {
		panic("embedded sample report is invalid: " + err.Error())
	}
	return r
}
