// Package main is the entry point for the twinpane extension host.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/twinpane/twinpane/internal/config"
	"github.com/twinpane/twinpane/internal/logger"
	"github.com/twinpane/twinpane/internal/plugin"
	"github.com/twinpane/twinpane/internal/plugin/api"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type options struct {
	ConfigPath string
	Paths      []string
	LogLevel   string
	LogFormat  string
	List       bool
}

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(opts.Paths) > 0 {
		cfg.Extensions.Paths = opts.Paths
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Log.Format = opts.LogFormat
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	bridge, err := api.NewContext(api.ContextConfig{
		Log:       log,
		DataRoot:  cfg.Extensions.DataDir,
		StorePath: cfg.Extensions.StorePath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize bridge: %v\n", err)
		return 1
	}

	mgr, err := plugin.NewManager(plugin.ManagerConfig{
		ExtensionPaths:     cfg.Extensions.Paths,
		AutoEnable:         cfg.Extensions.AutoEnabled(),
		InitConcurrency:    cfg.Extensions.InitConcurrency,
		QuiesceConcurrency: cfg.Extensions.QuiesceConcurrency,
		InstructionLimit:   cfg.Extensions.InstructionLimit,
	}, bridge, plugin.WithManagerLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create manager: %v\n", err)
		return 1
	}

	ctx := context.Background()
	if err := mgr.Sync(ctx); err != nil {
		log.Error("extension sync failed", "error", err)
	}
	for _, fault := range mgr.DiscoveryFaults() {
		log.Warn("discovery fault", "path", fault.Path, "error", fault.Err)
	}
	for _, fault := range mgr.LoadFaults() {
		log.Warn("load fault", "path", fault.Path, "error", fault.Err)
	}

	printRecords(mgr)

	if opts.List {
		if err := mgr.Close(ctx); err != nil {
			log.Error("shutdown error", "error", err)
			return 1
		}
		return 0
	}

	// Stay resident until asked to quiesce.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	if err := mgr.Close(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		return 1
	}
	return 0
}

// printRecords writes the management listing to stdout.
func printRecords(mgr *plugin.Manager) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVERSION\tSTATE\tCAPABILITIES\tFAULT")

	for _, host := range mgr.Records() {
		d := host.Descriptor()

		var kinds []string
		for _, k := range mgr.Registry().Kinds(d.ID) {
			kinds = append(kinds, k.String())
		}
		caps := strings.Join(kinds, ",")
		if caps == "" {
			caps = "-"
		}

		fault := "-"
		if err := host.Fault(); err != nil {
			fault = err.Error()
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.ID, d.Version, host.State(), caps, fault)
	}
	w.Flush()
}

func parseFlags() options {
	var opts options
	var paths string
	var showVersion bool

	flag.StringVar(&opts.ConfigPath, "config", "", "Path to configuration file")
	flag.StringVar(&opts.ConfigPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&paths, "extensions", "", "Extension search paths (colon-separated)")
	flag.StringVar(&paths, "e", "", "Extension search paths (shorthand)")
	flag.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.LogFormat, "log-format", "", "Log format (text, json)")
	flag.BoolVar(&opts.List, "list", false, "List extensions and exit")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "twinpane - dual-pane file manager extension host\n\n")
		fmt.Fprintf(os.Stderr, "Usage: twinpane [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  twinpane                       Run with the default extension paths\n")
		fmt.Fprintf(os.Stderr, "  twinpane -e ./extensions -list List local extensions and exit\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("twinpane %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if paths != "" {
		opts.Paths = strings.Split(paths, ":")
	}
	return opts
}
