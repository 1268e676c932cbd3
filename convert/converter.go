package convert

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/threatgraph/sandstix/policy"
	"github.com/threatgraph/sandstix/report"
	"github.com/threatgraph/sandstix/stix"
)

// Converter turns sandbox reports into STIX bundles. A Converter is
// immutable after New and safe for concurrent use; per-run state lives on
// the stack of each Convert call.
type Converter struct {
	opts   Options
	filter *policy.SignatureFilter
	tracer trace.Tracer
	log    *slog.Logger
}

// Result is the outcome of one conversion: the bundle plus the anomalies
// that were recovered from along the way.
type Result struct {
	Bundle      *stix.Bundle
	Diagnostics []report.Diagnostic
}

// New creates a converter. A malformed signature filter expression is
// rejected here, before any report is touched.
func New(opts Options) (*Converter, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	filter, err := policy.NewSignatureFilter(opts.SignatureFilter)
	if err != nil {
		return nil, inputErr("configure", "invalid signature filter", err)
	}
	return &Converter{
		opts:   opts,
		filter: filter,
		tracer: opts.TracerProvider.Tracer("sandstix/convert"),
		log:    opts.Logger,
	}, nil
}

// ConvertFile loads the report at path and converts it.
func (c *Converter) ConvertFile(ctx context.Context, path string) (*Result, error) {
	r, err := report.Load(path)
	if err != nil {
		return nil, inputErr("load", "unusable report", err)
	}
	return c.Convert(ctx, r)
}

// ConvertBytes parses raw report JSON and converts it.
func (c *Converter) ConvertBytes(ctx context.Context, data []byte) (*Result, error) {
	r, err := report.Parse(data)
	if err != nil {
		return nil, inputErr("load", "unusable report", err)
	}
	return c.Convert(ctx, r)
}

// Convert runs the full pipeline over one parsed report. The same report
// and options always produce a byte-identical bundle.
func (c *Converter) Convert(ctx context.Context, r *report.Report) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "convert")
	defer span.End()

	diags := &report.Diagnostics{}
	ex := report.NewExtractor(r, diags)

	var facts []report.Fact
	c.stage(ctx, "extract", func() {
		facts = ex.Facts()
	})

	ts := conversionTimestamp(ex)

	var set *observableSet
	c.stage(ctx, "observables", func() {
		set = buildObservables(facts, diags)
	})

	dom := &domainObjects{}
	c.stage(ctx, "domain", func() {
		dom.Malware = buildMalware(ex, facts, set, ts)
		dom.Analysis, dom.Tool, dom.VMSoftware = buildAnalysis(ex, dom.Malware, set, ts)
		dom.Indicators, dom.Signatures = buildSignatureObjects(ex.Signatures(), c.filter, set, ts, diags)
		dom.Patterns = buildAttackPatterns(ex.TTPs(), c.opts.Catalog, ts, diags)
	})

	var rels []*stix.Relationship
	c.stage(ctx, "relationships", func() {
		rels = synthesizeRelationships(dom.Malware, dom.Analysis, dom, set, ts)
	})

	var bundle *stix.Bundle
	var err error
	c.stage(ctx, "assemble", func() {
		bundle, err = assemble(assembleInput{
			Seed:    dom.Malware.Name,
			Name:    "sandbox-analysis-" + dom.Malware.Name,
			TS:      ts,
			Domain:  dom,
			Set:     set,
			Rels:    rels,
			Options: c.opts,
		})
	})
	if err != nil {
		return nil, err
	}

	for _, d := range diags.Entries() {
		c.log.Debug("extraction anomaly", "path", d.Path, "reason", d.Reason)
	}
	c.log.Info("converted report",
		"objects", len(bundle.Objects),
		"relationships", len(rels),
		"anomalies", diags.Len())

	return &Result{Bundle: bundle, Diagnostics: diags.Entries()}, nil
}

func (c *Converter) stage(ctx context.Context, name string, fn func()) {
	_, span := c.tracer.Start(ctx, name)
	defer span.End()
	fn()
}

// conversionTimestamp derives the created/modified timestamp for every SDO
// from the report itself, so re-conversions of the same report are
// byte-identical. Reports without run metadata fall back to the epoch.
func conversionTimestamp(ex *report.Extractor) stix.Timestamp {
	if meta, ok := ex.Analysis(); ok {
		if t, parsed := report.ParseTime(meta.Ended); parsed {
			return stix.NewTimestamp(t)
		}
		if t, parsed := report.ParseTime(meta.Started); parsed {
			return stix.NewTimestamp(t)
		}
	}
	return stix.NewTimestamp(time.Unix(0, 0))
}
