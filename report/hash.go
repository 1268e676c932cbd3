package report

import "strings"

// Expected hex digest lengths per algorithm. A digest with the wrong length
// is dropped with a diagnostic rather than propagated into the graph.
var hashLengths = map[string]int{
	"MD5":      32,
	"SHA-1":    40,
	"SHA-256":  64,
	"SHA3-384": 96,
}

// report field name → STIX hash algorithm name
var hashFields = map[string]string{
	"md5":      "MD5",
	"sha1":     "SHA-1",
	"sha256":   "SHA-256",
	"sha3_384": "SHA3-384",
	"ssdeep":   "SSDEEP",
	"tlsh":     "TLSH",
}

// NormalizeHashes reads the hash fields out of a file node, lowercases and
// validates hex digests, and returns them keyed by STIX algorithm name.
// Invalid digests are dropped and recorded; path names the node for
// diagnostics.
func NormalizeHashes(node map[string]any, path string, diags *Diagnostics) map[string]string {
	out := make(map[string]string)
	for field, algo := range hashFields {
		raw, ok := Str(node, field)
		if !ok || raw == "" {
			continue
		}
		switch algo {
		case "SSDEEP":
			out[algo] = raw
		case "TLSH":
			// CAPE prefixes TLSH digests with a "T1" version marker.
			out[algo] = strings.TrimPrefix(raw, "T1")
		default:
			digest := strings.ToLower(strings.TrimSpace(raw))
			if !validHex(digest) || len(digest) != hashLengths[algo] {
				diags.Record(path+"."+field, "invalid %s digest %q", algo, raw)
				continue
			}
			out[algo] = digest
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// StrongestHash returns the preferred digest for natural-key purposes:
// sha256 over sha1 over md5. The boolean is false when none is present.
func StrongestHash(hashes map[string]string) (algo, digest string, ok bool) {
	for _, algo := range []string{"SHA-256", "SHA-1", "MD5"} {
		if digest, present := hashes[algo]; present {
			return algo, digest, true
		}
	}
	return "", "", false
}

func validHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
