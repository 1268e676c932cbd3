// Package sandstix converts CAPE sandbox dynamic-analysis reports into STIX
// 2.1 bundles with content-derived, stable identifiers.
//
// The top-level functions cover the common one-shot case. Programs that
// convert many reports or need tracing, custom signature filters, or an
// external ATT&CK catalog should construct a convert.Converter directly and
// reuse it.
package sandstix

import (
	"context"

	"github.com/threatgraph/sandstix/convert"
	"github.com/threatgraph/sandstix/stix"
)

// Convert converts raw report JSON with the given options and returns the
// assembled bundle.
func Convert(ctx context.Context, data []byte, opts convert.Options) (*stix.Bundle, error) {
	c, err := convert.New(opts)
	if err != nil {
		return nil, err
	}
	result, err := c.ConvertBytes(ctx, data)
	if err != nil {
		return nil, err
	}
	return result.Bundle, nil
}

// ConvertFile converts the report at path with the given options.
func ConvertFile(ctx context.Context, path string, opts convert.Options) (*stix.Bundle, error) {
	c, err := convert.New(opts)
	if err != nil {
		return nil, err
	}
	result, err := c.ConvertFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return result.Bundle, nil
}
