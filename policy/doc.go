// Package policy decides which signature matches become STIX indicators.
//
// The threshold is not fixed: different signature catalogues score severity
// and confidence differently, so the filter is a CEL expression over the
// signature's fields, configurable per deployment. The default keeps
// high-severity matches only.
package policy
