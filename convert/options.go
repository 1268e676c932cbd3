package convert

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/threatgraph/sandstix/attack"
	"github.com/threatgraph/sandstix/policy"
)

// Options configure a Converter. The zero value is a usable full-fidelity
// configuration.
type Options struct {
	// Small drops the malware-analysis object, software observables, and
	// any observable that ends up with no incident relationship. The
	// retained objects are unchanged.
	Small bool

	// DisallowCustom removes custom object types and strips custom
	// properties from standard objects, leaving a bundle that uses only
	// the standard STIX 2.1 vocabulary.
	DisallowCustom bool

	// SignatureFilter is a CEL expression selecting which signatures
	// become indicators. Empty means policy.DefaultExpression.
	SignatureFilter string

	// Benign removes objects known from benign-sample analyses, and the
	// relationships touching them, from the produced bundle. Nil keeps
	// everything.
	Benign *BenignSet

	// Catalog resolves ATT&CK technique identifiers. Nil means the
	// builtin catalog.
	Catalog *attack.Catalog

	// Logger receives stage progress and recovered anomalies. Nil
	// discards.
	Logger *slog.Logger

	// TracerProvider supplies the tracer for per-stage spans. Nil means
	// no-op tracing.
	TracerProvider trace.TracerProvider
}

func (o Options) normalize() (Options, error) {
	if o.SignatureFilter == "" {
		o.SignatureFilter = policy.DefaultExpression
	}
	if o.Catalog == nil {
		o.Catalog = attack.NewCatalog()
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	if o.TracerProvider == nil {
		o.TracerProvider = noop.NewTracerProvider()
	}
	return o, nil
}
