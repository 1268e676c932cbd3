// Package convert turns one sandbox analysis report into one STIX 2.1
// bundle.
//
// The pipeline runs in fixed stages: extract facts, build deduplicated
// observables, build domain objects, synthesize relationships, assemble and
// validate the bundle. Each invocation carries its own state, with no caches
// that outlive a conversion, so separate conversions are independent and may
// run concurrently in separate goroutines or processes.
//
// Error taxonomy: unreadable or structurally invalid reports are input
// errors; individually bad values inside an otherwise usable report are
// recovered from and surface only as diagnostics; a bundle that would violate
// its own invariants (dangling reference, divergent duplicate) is an
// invariant error, which aborts the conversion because it indicates a defect
// in the converter itself.
package convert
