package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"NewsAggregator/internal/app"
	"NewsAggregator/internal/config"
	"NewsAggregator/internal/logging"
)

const usageLine = "usage: newsaggregator [flags] [<workers> <articles_list> <inputs_list>]"

var errUsage = errors.New(usageLine)

type options struct {
	configPath string
	workers    int
	articles   string
	inputs     string
	outDir     string
	sink       string
	dsn        string
	logLevel   string
	strict     bool
	stripHTML  bool
}

func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("newsaggregator", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintln(stderr, usageLine)
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.configPath, "config", "", "path to YAML config file")
	fs.StringVar(&opts.outDir, "out", "", "directory for file reports")
	fs.StringVar(&opts.sink, "sink", "", "report sink: file, sqlite or postgres")
	fs.StringVar(&opts.dsn, "dsn", "", "database DSN for sql sinks")
	fs.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	fs.BoolVar(&opts.strict, "strict", false, "abort the run on the first batch decode failure")
	fs.BoolVar(&opts.stripHTML, "strip-html", false, "strip HTML markup from article text")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	switch rest := fs.Args(); len(rest) {
	case 0:
	case 3:
		n, err := strconv.Atoi(rest[0])
		if err != nil || n < 1 {
			return options{}, fmt.Errorf("invalid worker count %q: %w", rest[0], errUsage)
		}
		opts.workers = n
		opts.articles = rest[1]
		opts.inputs = rest[2]
	default:
		return options{}, errUsage
	}
	return opts, nil
}

func (o options) apply(cfg *config.Config) {
	if o.workers > 0 {
		cfg.Workers = o.workers
	}
	if o.articles != "" {
		cfg.Input.Articles = o.articles
	}
	if o.inputs != "" {
		cfg.Input.Inputs = o.inputs
	}
	if o.outDir != "" {
		cfg.Output.Dir = o.outDir
	}
	if o.sink != "" {
		cfg.Output.Sink = o.sink
	}
	if o.dsn != "" {
		cfg.Output.DSN = o.dsn
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.strict {
		cfg.Strict = true
	}
	if o.stripHTML {
		cfg.Input.StripHTML = true
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 1
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	opts.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(stderr, "invalid config:", err)
		return 1
	}

	logger := logging.NewWithWriter(stderr, cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg, logger)
	started := time.Now()

	summary, err := application.Run(ctx)
	if err != nil {
		logger.Error("run failed", "error", err)
		return 1
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	logger.Info("run finished",
		"read", summary.Read,
		"unique", summary.Unique,
		"failed_batches", len(summary.Failed))

	fmt.Fprint(stdout, app.FormatSummary(app.RunReport{
		RunID:     application.RunID(),
		Summary:   summary,
		Elapsed:   time.Since(started),
		HeapBytes: mem.HeapInuse,
	}))
	return 0
}
