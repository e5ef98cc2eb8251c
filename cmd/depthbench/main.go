// Command depthbench runs depth-aware long-context benchmarks.
//
// Usage:
//
//	depthbench test --novel book.txt --data_set questions.jsonl --context-lengths 2000,8000,32000
//	depthbench heatmap results.jsonl --mode depth
//	depthbench report results.jsonl --format markdown
//	depthbench verify --model gpt-4o
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/kadirpekel/depthbench"
	"github.com/kadirpekel/depthbench/pkg/config"
)

// CLI defines the command-line interface.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Test    TestCmd    `cmd:"" help:"Run a benchmark against a model."`
	Heatmap HeatmapCmd `cmd:"" help:"Render coverage and accuracy heatmaps from a result file."`
	Report  ReportCmd  `cmd:"" help:"Summarize a result file."`
	Verify  VerifyCmd  `cmd:"" help:"Check model configuration and connectivity."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	Env       string `help:"Extra env file to load on top of .env/.env.local." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose, or custom)." default:"simple"`
}

// Exit codes for run failures that scripts need to tell apart.
const (
	ExitArgConflict        = 2
	ExitValidationFailure  = 3
	ExitInsufficientSource = 4
)

// ExitError carries a process exit code alongside the failure.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

func exitErrorf(code int, format string, args ...interface{}) *ExitError {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	info := depthbench.GetVersion()
	if build, ok := debug.ReadBuildInfo(); ok {
		if build.Main.Version != "(devel)" && build.Main.Version != "" {
			info.Version = build.Main.Version
		}
	}
	fmt.Println(info.String())
	return nil
}

// signalContext returns a context cancelled on SIGINT/SIGTERM. In-flight
// model calls drain after the cancel; results already written are kept.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		slog.Info("Shutting down...")
		cancel()
	}()

	return ctx, cancel
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("depthbench"),
		kong.Description("depthbench - depth-aware long-context benchmark harness"),
		kong.UsageOnError(),
	)

	cleanup, err := initLoggerFromCLI(cli.LogLevel, cli.LogFile, cli.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	if err := config.LoadEnvFiles(); err != nil {
		slog.Warn("Failed to load env files", "error", err)
	}
	if cli.Env != "" {
		if err := config.LoadEnvFile(cli.Env); err != nil {
			fmt.Fprintf(os.Stderr, "depthbench: %v\n", err)
			os.Exit(1)
		}
	}

	err = ctx.Run(&cli)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "depthbench: %v\n", err)
			os.Exit(exitErr.Code)
		}
		ctx.FatalIfErrorf(err)
	}
}
