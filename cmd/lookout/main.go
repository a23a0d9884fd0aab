// Package main is the entry point for the lookout console.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/dshills/lookout/internal/app"
	"github.com/dshills/lookout/internal/renderer/backend"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	opts, ok := parseFlags(os.Args[1:])
	if !ok {
		return 0
	}

	// Lines piped into stdin are logged into the transcript.
	if fi, err := os.Stdin.Stat(); err == nil && fi.Mode()&os.ModeCharDevice == 0 {
		opts.Input = os.Stdin
	}

	application, err := app.New(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Shutdown()

	term, err := backend.NewTerminal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}
	if err := application.SetBackend(term); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to set backend: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil && !errors.Is(err, app.ErrQuit) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// parseFlags reads the command line. ok is false when the process should
// exit after printing help or the version.
func parseFlags(args []string) (app.Options, bool) {
	var opts app.Options
	var showVersion, noWatch bool

	fs := pflag.NewFlagSet("lookout", pflag.ExitOnError)
	fs.StringVarP(&opts.ConfigPath, "config", "c", "", "Path to configuration file")
	fs.StringVar(&opts.ConfigDir, "config-dir", "", "Directory for configuration and history (default ~/.lookout)")
	fs.StringVarP(&opts.Sandbox, "sandbox", "s", "", "Evaluator: js or lua")
	fs.StringVarP(&opts.Title, "title", "t", "", "Session title; with history.per_title each title keeps its own history")
	fs.BoolVarP(&opts.Debug, "debug", "d", false, "Enable debug logging")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.BoolVar(&noWatch, "no-watch", false, "Do not reload the configuration file when it changes")
	fs.BoolVarP(&showVersion, "version", "v", false, "Show version information")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "lookout - interactive log console\n\n")
		fmt.Fprintf(os.Stderr, "Usage: lookout [options] [program]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  lookout                     Start an empty console\n")
		fmt.Fprintf(os.Stderr, "  lookout main.js             Load a program, then take input\n")
		fmt.Fprintf(os.Stderr, "  lookout -s lua init.lua     Use the Lua evaluator\n")
		fmt.Fprintf(os.Stderr, "  tail -f app.log | lookout   Log piped lines into the transcript\n")
	}

	// ExitOnError handles parse failures and --help.
	_ = fs.Parse(args)

	if showVersion {
		fmt.Printf("lookout %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		return opts, false
	}

	if opts.LogLevel != "" {
		switch opts.LogLevel {
		case "debug", "info", "warn", "error":
		default:
			fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.LogLevel)
			os.Exit(1)
		}
	}

	opts.Watch = !noWatch
	if fs.NArg() > 0 {
		opts.Program = fs.Arg(0)
	}
	return opts, true
}
