package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"texmaps/pkg/config"
	"texmaps/pkg/logging"
	"texmaps/pkg/pipeline"
	"texmaps/pkg/preview"
	"texmaps/pkg/progress"
	"texmaps/pkg/telemetry"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "texmaps: %v\n", err)
		os.Exit(1)
	}
}

// cliOptions holds the flags that are not operation options
type cliOptions struct {
	configPath  string
	verbose     bool
	logLevel    string
	logJSON     bool
	metricsFile string

	operations map[string]operationFlag
}

// operationFlag is the option flag registered for one operation
type operationFlag struct {
	name  string
	value *string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	registry := pipeline.DefaultRegistry(pipeline.Params{})
	opts := &cliOptions{operations: make(map[string]operationFlag)}

	cmd := &cobra.Command{
		Use:   "texmaps IN OUT MODULE",
		Short: "Convert texture maps between albedo, normal, curvature and height representations",
		Long: "Reads the image IN, applies the transform MODULE and writes the result to OUT.\n\n" +
			"Modules:\n" + moduleHelp(registry),
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args[0], args[1], args[2], stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.BoolVar(&opts.verbose, "verbose", false, "print progress ticks")
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&opts.logJSON, "log-json", false, "log in JSON format")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "write run metrics to this file in Prometheus text format")

	for _, t := range registry.Transforms() {
		name := string(t.Name)
		usage := fmt.Sprintf("%s for %s %v", t.Flag, name, t.Options)
		if t.Default != "" {
			usage += fmt.Sprintf(" (default %s)", t.Default)
		} else {
			usage += " (required)"
		}
		flagName := name + "-" + t.Flag
		opts.operations[name] = operationFlag{name: flagName, value: flags.String(flagName, "", usage)}
	}

	return cmd
}

func moduleHelp(registry *pipeline.Registry) string {
	var b strings.Builder
	for _, t := range registry.Transforms() {
		fmt.Fprintf(&b, "  %-22s --%s-%s %v\n", t.Name, t.Name, t.Flag, t.Options)
	}
	return b.String()
}

func run(cmd *cobra.Command, opts *cliOptions, inPath, outPath, module string, stdout, stderr io.Writer) error {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Flags override the configuration file
	flags := cmd.Flags()
	if flags.Changed("verbose") {
		cfg.Output.Verbose = opts.verbose
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if flags.Changed("log-json") {
		cfg.Logging.JSON = opts.logJSON
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.Textfile = opts.metricsFile
	}

	logger := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		JSON:   cfg.Logging.JSON,
		Output: stderr,
	})

	option := cfg.Option(module)
	if f, ok := opts.operations[module]; ok && flags.Changed(f.name) {
		option = *f.value
	}

	metrics := telemetry.New()
	dispatcherOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(metrics),
	}
	if cfg.Output.SaveIntermediaryResults {
		dispatcherOpts = append(dispatcherOpts,
			pipeline.WithInspector(preview.Inspector(cfg.Output.IntermediaryDir, logger)))
	}

	registry := pipeline.DefaultRegistry(pipeline.Params{
		TileSize: cfg.Processing.TileSize,
		Workers:  cfg.Processing.Workers,
	})
	dispatcher := pipeline.NewDispatcher(registry, dispatcherOpts...)

	req := pipeline.Request{Operation: module, Option: option}
	if cfg.Output.Verbose {
		req.Progress = progress.To(progress.Printer(stdout))
	}

	logger.WithFields(logrus.Fields{
		"input":     inPath,
		"output":    outPath,
		"operation": module,
		"option":    option,
	}).Debug("starting run")

	start := time.Now()
	runErr := dispatcher.RunFile(inPath, outPath, req)

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.WithError(err).Warn("failed to write metrics textfile")
		}
	}

	if runErr != nil {
		return runErr
	}
	logger.WithField("duration", time.Since(start)).Info("done")
	return nil
}
