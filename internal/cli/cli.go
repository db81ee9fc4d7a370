// Package cli runs one pipeline tool as a process: configuration from the
// environment, flag parsing, metrics setup, stdio buffering, exit codes and
// quiet handling of a closed downstream pipe.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"bsv/internal/config"
	"bsv/internal/metrics"
	"bsv/internal/metrics/datadog"
	"bsv/internal/metrics/prompush"
)

const stdoutBufSize = 1 << 20

// Tool describes one program.
type Tool struct {
	Name  string
	Use   string
	Short string
	Args  cobra.PositionalArgs

	// Setup registers flags on cmd.
	Setup func(cmd *cobra.Command)

	// Run does the work. Output written to env.Stdout is buffered and flushed
	// by the runner.
	Run func(ctx context.Context, env *Env, cmd *cobra.Command, args []string) error
}

// Env is what a running tool sees of its process.
type Env struct {
	Config config.Config
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Stdio carries the process streams and environment into Execute. A nil Env
// reads the process environment.
type Stdio struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
	Env config.Options
}

// Main runs t against the real process and exits.
func Main(t Tool) {
	// With SIGPIPE observed, writes to a closed stdout fail with EPIPE
	// instead of killing the process.
	signal.Notify(make(chan os.Signal, 1), unix.SIGPIPE)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, unix.SIGTERM)
	adviseSequential(os.Stdin)

	code := Execute(ctx, t, os.Args[1:], Stdio{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
	stop()
	os.Exit(code)
}

// Execute runs t with args and returns the process exit code: 0 on success
// or when downstream closed the pipe, 1 on any fatal error.
func Execute(ctx context.Context, t Tool, args []string, stdio Stdio) int {
	opts := stdio.Env
	if opts == nil {
		opts = config.Environ()
	}
	cfg := config.Load(t.Name, opts)

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(stdio.Err, "%s: %s: %s: %s\n", t.Name, iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return 1
	}

	setupLog(t.Name, cfg.Verbose, stdio.Err)

	flushMetrics, err := setupMetrics(cfg)
	if err != nil {
		log.Printf("metrics: %v; metrics disabled", err)
	}

	out := bufio.NewWriterSize(stdio.Out, stdoutBufSize)
	env := &Env{Config: cfg, Stdin: stdio.In, Stdout: out, Stderr: stdio.Err}

	cmd := &cobra.Command{
		Use:           t.Use,
		Short:         t.Short,
		Args:          t.Args,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Past argument parsing, errors are about data, not usage.
			cmd.SilenceUsage = true
			return t.Run(cmd.Context(), env, cmd, args)
		},
	}
	if t.Setup != nil {
		t.Setup(cmd)
	}
	cmd.SetArgs(args)
	cmd.SetIn(stdio.In)
	cmd.SetOut(stdio.Err)
	cmd.SetErr(stdio.Err)

	start := time.Now()
	err = cmd.ExecuteContext(ctx)
	if ferr := out.Flush(); err == nil && ferr != nil {
		err = fmt.Errorf("write output: %w", ferr)
	}

	if IsBrokenPipe(err) {
		log.Printf("downstream closed; stopping")
		err = nil
	}
	metrics.RecordStep(cfg.Job, t.Name, err, time.Since(start))
	flushMetrics()

	if err != nil {
		fatalf(stdio.Err, "%v", err)
		return 1
	}
	log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	return 0
}

// IsBrokenPipe reports whether err comes from writing to a closed pipe.
func IsBrokenPipe(err error) bool {
	return errors.Is(err, unix.EPIPE) || errors.Is(err, io.ErrClosedPipe)
}

func fatalf(w io.Writer, format string, a ...any) {
	fmt.Fprintf(w, "fatal: "+format+"\n", a...)
}

// setupLog routes the standard logger to stderr in verbose mode and silences
// it otherwise.
func setupLog(name string, verbose bool, stderr io.Writer) {
	log.SetPrefix(name + ": ")
	if verbose {
		log.SetOutput(stderr)
		return
	}
	log.SetOutput(io.Discard)
}

// setupMetrics installs the configured backend and returns its flush hook,
// which is never nil.
func setupMetrics(cfg config.Config) (func(), error) {
	var (
		b   metrics.Backend
		err error
	)
	switch cfg.Metrics.Backend {
	case config.BackendPushgateway:
		b, err = prompush.NewBackend(cfg.Job, cfg.Metrics.PushgatewayURL)
	case config.BackendDatadog:
		b, err = datadog.NewBackend(datadog.Config{
			Addr:       cfg.Metrics.StatsdAddr,
			Namespace:  cfg.Metrics.StatsdNamespace,
			GlobalTags: cfg.Metrics.StatsdTags,
		})
	default:
		return func() {}, nil
	}
	if err != nil {
		return func() {}, err
	}

	log.Printf("metrics: backend=%s job=%s", cfg.Metrics.Backend, cfg.Job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}, nil
}

// adviseSequential hints the kernel that a regular-file stdin is read once
// front to back. Pipes and terminals are left alone.
func adviseSequential(f *os.File) {
	fi, err := f.Stat()
	if err != nil || !fi.Mode().IsRegular() {
		return
	}
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_WILLNEED)
}
