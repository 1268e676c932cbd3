// Package stix implements the subset of the STIX 2.1 object model emitted by
// the converter: Domain Objects (malware, indicator, report, attack-pattern,
// malware-analysis, tool), Cyber-Observable Objects (file, directory,
// ipv4-addr, ipv6-addr, domain-name, url, process, software, mutex,
// network-traffic, windows-registry-key), the Relationship object, and the
// Bundle container.
//
// Every object carries a deterministic identifier derived from its defining
// properties (see NewIdentifier), so converting the same input twice yields
// byte-identical output. The package also defines the closed relationship
// vocabulary and the standard type catalogue used by bundle filtering.
package stix
