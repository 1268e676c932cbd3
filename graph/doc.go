// Package graph persists STIX bundles into property-graph stores.
//
// A bundle flattens into nodes (one per object, relationships excluded) and
// edges (one per relationship). Because every identifier in a bundle is
// content-derived, sinks implement persistence as upserts: writing the same
// bundle twice leaves the store unchanged.
package graph
