// Command sandstix converts a CAPE sandbox analysis report into a STIX 2.1
// bundle, optionally persisting the result into a property-graph store and
// announcing it over NATS.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/threatgraph/sandstix/attack"
	"github.com/threatgraph/sandstix/config"
	"github.com/threatgraph/sandstix/convert"
	"github.com/threatgraph/sandstix/graph"
	"github.com/threatgraph/sandstix/graph/announce"
	"github.com/threatgraph/sandstix/graph/boltstore"
	"github.com/threatgraph/sandstix/graph/cypher"
	"github.com/threatgraph/sandstix/graph/redisstore"
	"github.com/threatgraph/sandstix/report"
)

// Exit codes. Sink failures are distinct because the bundle file is already
// written and usable when they occur.
const (
	exitOK        = 0
	exitUsage     = 1
	exitConvert   = 2
	exitSinkError = 3
)

func main() {
	os.Exit(run(os.Args[1:]))
}

type cliOptions struct {
	logLevel       string
	disallowCustom bool
	small          bool
	selfTest       bool
	reportPath     string
	outputPath     string
	overwrite      bool
	configPath     string
	filter         string
	benignDir      string
	graphBackend   string
	graphTarget    string
	announceURL    string
}

func run(args []string) int {
	var opts cliOptions
	fs := flag.NewFlagSet("sandstix", flag.ContinueOnError)
	fs.StringVar(&opts.logLevel, "log_level", "warn", "log level: warn, info, or debug")
	fs.BoolVar(&opts.disallowCustom, "disallow_custom", false, "emit only standard STIX 2.1 types and properties")
	fs.BoolVar(&opts.small, "small", false, "emit the reduced bundle (no analysis metadata, no edge-less observables)")
	fs.BoolVar(&opts.selfTest, "u", false, "convert the embedded sample report (self-test)")
	fs.StringVar(&opts.reportPath, "f", "", "path to the sandbox report to convert")
	fs.StringVar(&opts.outputPath, "o", "", "output path (default output/<input-name>)")
	fs.BoolVar(&opts.overwrite, "overwrite", false, "replace the output file if it exists")
	fs.StringVar(&opts.configPath, "config", "", "path to sandstix.yaml")
	fs.StringVar(&opts.filter, "filter", "", "CEL expression selecting which signatures become indicators")
	fs.StringVar(&opts.benignDir, "benign", "", "directory of benign-sample bundles whose objects are removed from the output")
	fs.StringVar(&opts.graphBackend, "graph", "", "graph sink: bolt, redis, or cypher")
	fs.StringVar(&opts.graphTarget, "graph-target", "", "graph sink target: db path, redis URL, or script path")
	fs.StringVar(&opts.announceURL, "announce", "", "NATS URL to announce the bundle on")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	logger, err := newLogger(opts.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}

	if opts.selfTest == (opts.reportPath != "") {
		logger.Error("exactly one of -u or -f is required")
		return exitUsage
	}

	cfg := config.Default()
	if opts.configPath != "" {
		cfg, err = config.Load(opts.configPath)
		if err != nil {
			logger.Error("unusable configuration", "error", err)
			return exitUsage
		}
	}
	mergeFlags(cfg, &opts)

	catalog, err := loadCatalog(cfg, logger)
	if err != nil {
		logger.Error("unusable ATT&CK catalog", "error", err)
		return exitUsage
	}

	benign, err := loadBenign(cfg, logger)
	if err != nil {
		logger.Error("unusable benign bundle directory", "error", err)
		return exitUsage
	}

	converter, err := convert.New(convert.Options{
		Small:           cfg.Convert.Small,
		DisallowCustom:  cfg.Convert.DisallowCustom,
		SignatureFilter: cfg.Convert.SignatureFilter,
		Benign:          benign,
		Catalog:         catalog,
		Logger:          logger,
	})
	if err != nil {
		logger.Error("converter configuration rejected", "error", err)
		return exitUsage
	}

	ctx := context.Background()
	result, inputName, code := convertInput(ctx, converter, &opts, logger)
	if code != exitOK {
		return code
	}

	outputPath := opts.outputPath
	if outputPath == "" {
		outputPath = filepath.Join("output", inputName)
	}
	if err := writeBundle(result, outputPath, opts.overwrite); err != nil {
		logger.Error("writing bundle failed", "path", outputPath, "error", err)
		return exitUsage
	}
	logger.Info("bundle written", "path", outputPath, "objects", len(result.Bundle.Objects))

	// Everything past this point operates on a bundle that is already on
	// disk; failures report exit code 3 and leave the file in place.
	if cfg.Graph.Backend != "" {
		if err := persist(ctx, cfg, result, logger); err != nil {
			logger.Error("graph persistence failed, bundle file kept",
				"backend", cfg.Graph.Backend, "error", err)
			return exitSinkError
		}
	}
	if cfg.Announce.URL != "" {
		if err := announceBundle(cfg, result, logger); err != nil {
			logger.Error("announcement failed, bundle file kept", "error", err)
			return exitSinkError
		}
	}
	return exitOK
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch level {
	case "warn":
		lvl = slog.LevelWarn
	case "info":
		lvl = slog.LevelInfo
	case "debug":
		lvl = slog.LevelDebug
	default:
		return nil, fmt.Errorf("unknown log level %q (want warn, info, or debug)", level)
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// mergeFlags overlays command-line flags onto the file configuration; flags
// win.
func mergeFlags(cfg *config.Config, opts *cliOptions) {
	if opts.small {
		cfg.Convert.Small = true
	}
	if opts.disallowCustom {
		cfg.Convert.DisallowCustom = true
	}
	if opts.filter != "" {
		cfg.Convert.SignatureFilter = opts.filter
	}
	if opts.benignDir != "" {
		cfg.Convert.BenignDir = opts.benignDir
	}
	if opts.graphBackend != "" {
		cfg.Graph.Backend = opts.graphBackend
	}
	if opts.graphTarget != "" {
		cfg.Graph.Target = opts.graphTarget
	}
	if opts.announceURL != "" {
		cfg.Announce.URL = opts.announceURL
	}
}

func loadCatalog(cfg *config.Config, logger *slog.Logger) (*attack.Catalog, error) {
	if cfg.Attack.CatalogPath == "" {
		return attack.NewCatalog(), nil
	}
	catalog, err := attack.LoadCatalog(cfg.Attack.CatalogPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded ATT&CK catalog", "path", cfg.Attack.CatalogPath, "techniques", catalog.Len())
	return catalog, nil
}

func loadBenign(cfg *config.Config, logger *slog.Logger) (*convert.BenignSet, error) {
	if cfg.Convert.BenignDir == "" {
		return nil, nil
	}
	benign, err := convert.LoadBenignSet(cfg.Convert.BenignDir)
	if err != nil {
		return nil, err
	}
	logger.Debug("loaded benign set", "dir", cfg.Convert.BenignDir, "ids", benign.Len())
	return benign, nil
}

func convertInput(ctx context.Context, converter *convert.Converter, opts *cliOptions, logger *slog.Logger) (*convert.Result, string, int) {
	var result *convert.Result
	var inputName string
	var err error
	if opts.selfTest {
		inputName = "sample_report.json"
		result, err = converter.Convert(ctx, report.Sample())
	} else {
		inputName = filepath.Base(opts.reportPath)
		result, err = converter.ConvertFile(ctx, opts.reportPath)
	}
	if err != nil {
		var convErr *convert.Error
		if errors.As(err, &convErr) {
			logger.Error("conversion failed", "stage", convErr.Stage, "kind", string(convErr.Kind), "error", err)
			if convErr.Kind == convert.KindInvariant {
				return nil, "", exitConvert
			}
			return nil, "", exitUsage
		}
		logger.Error("conversion failed", "error", err)
		return nil, "", exitConvert
	}
	for _, diag := range result.Diagnostics {
		logger.Warn("recovered extraction anomaly", "path", diag.Path, "reason", diag.Reason)
	}
	return result, inputName, exitOK
}

func writeBundle(result *convert.Result, path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --overwrite)", path)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	data, err := result.Bundle.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func persist(ctx context.Context, cfg *config.Config, result *convert.Result, logger *slog.Logger) error {
	sink, err := openSink(cfg)
	if err != nil {
		return err
	}
	defer sink.Close()

	nodes, edges, err := graph.FromBundle(result.Bundle)
	if err != nil {
		return err
	}
	if err := sink.Upsert(ctx, nodes, edges); err != nil {
		return err
	}
	logger.Info("bundle persisted", "backend", cfg.Graph.Backend, "nodes", len(nodes), "edges", len(edges))
	return nil
}

func openSink(cfg *config.Config) (graph.Sink, error) {
	switch cfg.Graph.Backend {
	case "bolt":
		target := cfg.Graph.Target
		if target == "" {
			target = "sandstix.db"
		}
		return boltstore.Open(target)
	case "redis":
		return redisstore.Open(redisstore.Options{URL: cfg.Graph.Target})
	case "cypher":
		target := cfg.Graph.Target
		if target == "" {
			target = "sandstix.cypher"
		}
		return cypher.NewFileSink(target), nil
	default:
		return nil, fmt.Errorf("unknown graph backend %q", cfg.Graph.Backend)
	}
}

func announceBundle(cfg *config.Config, result *convert.Result, logger *slog.Logger) error {
	publisher, err := announce.NewPublisher(cfg.Announce.URL, cfg.Announce.Subject, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()
	return publisher.Announce(result.Bundle)
}
