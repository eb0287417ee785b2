// Package main is the overlap finder CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dannythedev/file-archive-overlap-finder/internal/cli"
	"github.com/dannythedev/file-archive-overlap-finder/internal/config"
	"github.com/dannythedev/file-archive-overlap-finder/internal/history"
	"github.com/dannythedev/file-archive-overlap-finder/internal/loader"
	"github.com/dannythedev/file-archive-overlap-finder/internal/models"
	"github.com/dannythedev/file-archive-overlap-finder/internal/scan"
	"github.com/dannythedev/file-archive-overlap-finder/internal/server"
	"github.com/dannythedev/file-archive-overlap-finder/internal/structural"
	"github.com/dannythedev/file-archive-overlap-finder/internal/watcher"
	"github.com/dannythedev/file-archive-overlap-finder/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/overlap/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if neither
// exists, built-in defaults are used so the CLI works without a config file.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				return config.Load(fallback)
			}
		}
		if _, statErr := os.Stat(path); statErr != nil {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, nil
		}
	}
	return config.Load(path)
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "scan":
		runScan()
	case "compare":
		runCompare()
	case "server":
		runServer()
	case "history":
		runHistory()
	case "version", "--version", "-v":
		fmt.Printf("overlap version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runScan() {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	threshold := fs.Float64("threshold", 0, "minimum score (percent) to keep a result; 0 = config default")
	workers := fs.Int("workers", 0, "worker pool size; 0 = config default")
	outputFormat := fs.String("output", "text", "output format: text or json")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 2 {
		fmt.Println("Usage: overlap scan [flags] <reference-file> <corpus-root>")
		os.Exit(1)
	}
	reference := fs.Arg(0)
	root := fs.Arg(1)

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	opts := scan.Options{Threshold: cfg.Scan.Threshold, Workers: cfg.Scan.Workers}
	if *threshold != 0 {
		opts.Threshold = *threshold
	}
	if *workers != 0 {
		opts.Workers = *workers
	}

	l := loader.NewLoader()
	sessionOpts := []scan.SessionOption{}
	if debugMode {
		sessionOpts = append(sessionOpts, scan.WithLogger(logger))
	}
	session := scan.NewSession(l, root, reference, opts, sessionOpts...)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nCancelling...")
		session.Cancel()
	}()

	if cfg.Watch.Enabled {
		wctx, wcancel := context.WithCancel(context.Background())
		defer wcancel()
		cw := watcher.New(root, l.Extensions(), session.Index().Invalidate)
		if err := cw.Start(wctx); err != nil {
			logger.Warn("corpus watcher failed to start", zap.Error(err))
		} else {
			defer cw.Stop()
		}
	}

	started := time.Now().UTC()
	sink := scan.ProgressFunc(func(p models.Progress) {
		fmt.Fprintf(os.Stderr, "\r[%d/%d] %3d%% %s\033[K", p.Processed, p.Total, p.Percent(), p.CurrentFile)
	})
	report, err := session.Run(sink)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		os.Exit(1)
	}

	if cfg.History.DatabasePath != "" {
		saveHistory(cfg.History.DatabasePath, session, report, started, logger)
	}
	if err := cli.WriteScanReport(os.Stdout, report, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func saveHistory(dbPath string, session *scan.Session, report *models.ScanReport, started time.Time, logger *zap.Logger) {
	store, err := history.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn("failed to open history database", zap.Error(err))
		return
	}
	defer store.Close()
	rec := &history.ScanRecord{
		ID:         session.ID(),
		Root:       report.Root,
		Reference:  report.Reference,
		Status:     report.Status,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Failures:   len(report.Failures),
		Results:    report.Results,
	}
	if err := store.SaveScan(context.Background(), rec); err != nil {
		logger.Warn("failed to record scan history", zap.Error(err))
	}
}

func runCompare() {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 2 {
		fmt.Println("Usage: overlap compare [flags] <reference-file> <target-file>")
		os.Exit(1)
	}
	reference := fs.Arg(0)
	target := fs.Arg(1)

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug || *debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	aligner := structural.NewAligner(loader.NewLoader(), structural.WithLogger(logger))
	report, err := aligner.Compare(ctx, reference, target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compare failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteStructuralReport(os.Stdout, report, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	var store history.Store
	if cfg.History.DatabasePath != "" {
		sqlStore, err := history.NewSQLiteStore(cfg.History.DatabasePath)
		if err != nil {
			logger.Fatal("Failed to open history database", zap.Error(err))
		}
		defer sqlStore.Close()
		store = sqlStore
		logger.Info("scan history enabled", zap.String("path", cfg.History.DatabasePath))
	}

	l := loader.NewLoader()
	alignerOpts := []structural.AlignerOption{}
	if debugMode {
		alignerOpts = append(alignerOpts, structural.WithLogger(logger))
	}
	srv := server.NewServer(l, structural.NewAligner(l, alignerOpts...), scan.NewManager(), store, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runHistory() {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	limit := fs.Int("limit", 20, "number of scans to list")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.History.DatabasePath == "" {
		fmt.Fprintln(os.Stderr, "History is not enabled; set history.database_path in config")
		os.Exit(1)
	}
	store, err := history.NewSQLiteStore(cfg.History.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open history database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	if fs.NArg() >= 1 {
		rec, err := store.GetScan(ctx, fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Scan not found: %v\n", err)
			os.Exit(1)
		}
		report := &models.ScanReport{
			Root:      rec.Root,
			Reference: rec.Reference,
			Status:    rec.Status,
			Results:   rec.Results,
		}
		if err := cli.WriteScanReport(os.Stdout, report, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	scans, err := store.ListScans(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list scans: %v\n", err)
		os.Exit(1)
	}
	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(scans); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}
	for _, s := range scans {
		fmt.Printf("%s  %s  %-10s  %s -> %s  (%d failure(s))\n",
			s.ID, s.StartedAt.Format(time.RFC3339), s.Status, s.Reference, s.Root, s.Failures)
	}
}

func printUsage() {
	fmt.Println(`overlap - Find file overlap across a document archive

Usage:
  overlap scan [flags] <reference-file> <corpus-root>   Scan a corpus for token overlap with a reference
  overlap compare [flags] <reference-file> <target>     Page-aligned paragraph comparison of two files
  overlap server [flags]                                Start the HTTP API server
  overlap history [flags] [scan-id]                     List recorded scans, or show one
  overlap version                                       Show version
  overlap help                                          Show this help

Scan Flags:
  --config string     Config file path (default: /usr/local/etc/overlap/config.yaml)
  --threshold float   Minimum score (percent) to keep a result (default from config: 5.0)
  --workers int       Worker pool size (default from config: number of CPUs)
  --output string     Output format: text or json (default: text)
  --debug             Enable debug logging

Compare Flags:
  --config string     Config file path
  --output string     Output format: text or json (default: text)
  --debug             Enable debug logging

Server Flags:
  --config string     Config file path
  --debug             Enable debug logging

History Flags:
  --config string     Config file path
  --limit int         Number of scans to list (default: 20)
  --output string     Output format: text or json (default: text)

Examples:
  overlap scan thesis.pdf ~/archive
  overlap scan --threshold 10 --output json thesis.pdf ~/archive
  overlap compare thesis.pdf ~/archive/match.pdf
  overlap server --debug
  overlap history
  overlap history 2f6c0c9e-...`)
}
