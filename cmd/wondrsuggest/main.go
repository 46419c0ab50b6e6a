// Copyright 2025 The WondrSuggest Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the WondrSuggest suggestion server and CLI application.

WondrSuggest serves word-start autocomplete suggestions for the WondrVoices
card gallery: locations, credit names and tags. The suggestion data is
fetched once from a remote endpoint (or a local snapshot), normalized into
deduplicated per-category lists and kept in memory for the life of the
process.

# Usage

Start the IPC server against the suggestions endpoint:

	wondrsuggest -url https://api.example.org/voices/suggestions

Serve HTTP instead of IPC:

	wondrsuggest -file data/suggestions.json -http :8089

Run the interactive CLI, which drives the debounced autocomplete widget:

	wondrsuggest -c -file data/suggestions.json -category tag

Write a msgpack snapshot of the normalized index and exit:

	wondrsuggest -url https://api.example.org/voices/suggestions -dump data/suggestions.msgpack

# Configuration

Runtime configuration lives in a TOML file that is created with defaults
when missing:

	[source]
	url = ""
	file = ""
	timeout_ms = 10000
	retry_max = 0

	[suggest]
	default_limit = 10
	max_limit = 64
	max_query = 120

	[widget]
	debounce_ms = 250
	blur_grace_ms = 120
	limit = 8
	status = ""

	[server]
	http_addr = ""

Flags override the file. A -file source wins over -url.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/wondrvoices/wondrsuggest/internal/cli"
	"github.com/wondrvoices/wondrsuggest/internal/logger"
	"github.com/wondrvoices/wondrsuggest/internal/utils"
	"github.com/wondrvoices/wondrsuggest/pkg/autocomplete"
	"github.com/wondrvoices/wondrsuggest/pkg/config"
	"github.com/wondrvoices/wondrsuggest/pkg/server"
	"github.com/wondrvoices/wondrsuggest/pkg/source"
	"github.com/wondrvoices/wondrsuggest/pkg/suggest"
)

const (
	Version = "0.3.0"
	AppName = "wondrsuggest"
)

// main wires config, source and provider together and hands over to the
// selected surface. It does not implement any of them.
func main() {
	showVersion := flag.Bool("version", false, "Show current version")
	configPath := flag.String("config", "", "Path to config.toml")
	url := flag.String("url", "", "Suggestions endpoint URL")
	file := flag.String("file", "", "Suggestions file (.json or .msgpack)")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing and debugging")
	httpAddr := flag.String("http", "", "Serve HTTP on this address instead of IPC")
	category := flag.String("category", string(suggest.Location), "Category used by the CLI widget")
	limit := flag.Int("limit", 0, "Suggestions per category (0 uses config)")
	dump := flag.String("dump", "", "Write a snapshot of the loaded index to this path and exit")

	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}

	logger.SetupGlobal(*debugMode)

	cfg, usedPath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Debugf("Using config file: (%s)", usedPath)

	if *file != "" {
		cfg.Source.File = *file
	}
	if *url != "" {
		cfg.Source.URL = *url
	}
	if *httpAddr != "" {
		cfg.Server.HTTPAddr = *httpAddr
	}

	src, err := newSource(cfg.Source)
	if err != nil {
		log.Fatalf("%v", err)
	}
	provider := suggest.NewProvider(src)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *dump != "" {
		if err := dumpSnapshot(ctx, provider, utils.ResolvePath(*dump)); err != nil {
			log.Fatalf("Failed to write snapshot: %v", err)
		}
		return
	}

	// Warm the index so the first request does not pay for the fetch. A
	// failure here is not fatal; requests degrade to empty results.
	if _, err := provider.Load(ctx); err != nil {
		log.Warnf("Initial suggestion load failed: %v", err)
	}

	if *cliMode {
		go sigHandler(ctx)
		cat, err := suggest.ParseCategory(*category)
		if err != nil {
			log.Fatalf("%v", err)
		}
		widgetLimit := cfg.Widget.Limit
		if *limit > 0 {
			widgetLimit = *limit
		}
		handler := cli.NewInputHandler(provider, autocomplete.Options{
			Category:  cat,
			Status:    cfg.Widget.Status,
			Limit:     widgetLimit,
			Debounce:  cfg.Widget.Debounce(),
			BlurGrace: cfg.Widget.BlurGrace(),
		}, os.Stdout)
		if err := handler.Start(os.Stdin); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	if *limit > 0 {
		cfg.Suggest.DefaultLimit = min(*limit, cfg.Suggest.MaxLimit)
	}

	if cfg.Server.HTTPAddr != "" {
		if err := serveHTTP(ctx, provider, cfg); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
		return
	}

	log.Debug("spawning IPC")
	go sigHandler(ctx)
	srv := server.NewServer(provider, cfg, os.Stdin, os.Stdout)
	showStartupInfo(cfg)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// newSource picks the file source over the URL source.
func newSource(cfg config.SourceConfig) (suggest.Source, error) {
	switch {
	case cfg.File != "":
		path := utils.ResolvePath(cfg.File)
		log.Debugf("Using suggestions file: %s", path)
		return source.NewFileSource(path), nil
	case cfg.URL != "":
		log.Debugf("Using suggestions endpoint: %s", cfg.URL)
		return source.NewHTTPSource(cfg.URL, source.HTTPOptions{
			Timeout:  cfg.Timeout(),
			RetryMax: cfg.RetryMax,
		}), nil
	}
	return nil, fmt.Errorf("no suggestion source: set -url, -file or [source] in the config")
}

func dumpSnapshot(ctx context.Context, provider *suggest.Provider, path string) error {
	idx, err := provider.Load(ctx)
	if err != nil {
		return err
	}
	if err := source.WriteSnapshot(path, idx.Snapshot()); err != nil {
		return err
	}
	log.Info("Snapshot written", "path", path,
		"location", idx.Len(suggest.Location),
		"creditTo", idx.Len(suggest.CreditTo),
		"tag", idx.Len(suggest.Tag))
	return nil
}

func serveHTTP(ctx context.Context, provider *suggest.Provider, cfg *config.Config) error {
	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           server.NewHTTPHandler(provider, cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Serving HTTP on %s", cfg.Server.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// sigHandler exits once ctx is cancelled by a signal. Stdin reads do not
// observe ctx, so the process is stopped here instead.
func sigHandler(ctx context.Context) {
	<-ctx.Done()
	fmt.Fprintf(os.Stderr, "\nExiting...\n")
	os.Exit(0)
}

func printVersion() {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	l.SetStyles(styles)

	l.Print("")
	l.Print("[ WondrSuggest ] autocomplete for WondrVoices")
	l.Print("", "version", Version)
	l.Print("")
	l.Print("use -h or --help to see available options")
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(cfg *config.Config) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	log.Infof("%s %s", AppName, Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Info("limits", "default", cfg.Suggest.DefaultLimit, "max", cfg.Suggest.MaxLimit)
	log.Info("status: ready")

	log.SetLevel(currentLevel)
}
