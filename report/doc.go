// Package report models a sandbox dynamic-analysis report as a
// semi-structured tree and extracts normalized facts from it.
//
// Reports are irregular: most sections are optional, values can be missing or
// of the wrong type, and hash strings arrive in whatever case and length the
// sandbox produced. The package therefore exposes explicit optional accessors
// that return presence flags instead of coercing, and an Extractor that
// tolerates absent sections (zero facts, not an error) while recording a
// diagnostic for every value it had to drop.
package report
