// loadtest drives ramping virtual users against the booking site's home
// page and checks every response for HTTP 200 and the site name.  It
// exits 99 when a threshold fails, like k6.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/iliyamo/cinema-seat-booking/internal/config"
	"github.com/iliyamo/cinema-seat-booking/internal/loadtest"
)

// exitThresholds is k6's exit code for failed thresholds.
const exitThresholds = 99

type exitError struct{ code int }

func (e exitError) Error() string  { return fmt.Sprintf("exit %d", e.code) }
func (e exitError) ExitCode() int { return e.code }

func main() {
	if err := run(); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadLoadTest()
	if err != nil {
		return err
	}

	var stages string
	var startVUs int
	var verbose bool
	flagSet := pflag.NewFlagSet("loadtest", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.TargetURL, "url", cfg.TargetURL, "page to request")
	flagSet.StringVar(&cfg.Marker, "marker", cfg.Marker, "text every response must contain")
	flagSet.StringVar(&stages, "stages", cfg.Stages, "comma separated duration:target ramp stages")
	flagSet.IntVar(&startVUs, "start-vus", 1, "virtual users before the first stage")
	flagSet.DurationVar(&cfg.P95Budget, "p95", cfg.P95Budget, "95th percentile latency budget")
	flagSet.DurationVar(&cfg.ThinkTime, "think", cfg.ThinkTime, "pause between iterations of one user")
	flagSet.DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "per request timeout")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	parsed, err := loadtest.ParseStages(stages)
	if err != nil {
		return err
	}
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	runner, err := loadtest.New(loadtest.Options{
		URL:       cfg.TargetURL,
		Marker:    cfg.Marker,
		Stages:    parsed,
		StartVUs:  startVUs,
		P95Budget: cfg.P95Budget,
		ThinkTime: cfg.ThinkTime,
		Client:    &http.Client{Timeout: cfg.HTTPTimeout},
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	report, runErr := runner.Run(ctx)
	if err := report.Write(os.Stdout); err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if !report.Passed() {
		return exitError{code: exitThresholds}
	}
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `loadtest: ramp virtual users against the booking site.

Each user requests the page, checks for HTTP 200 and the site name,
then waits for the think time. The default profile ramps to 20 users
in 10s, holds for 30s and ramps down in 5s. The run fails when the
95th percentile latency reaches the budget.

Usage:
  loadtest [flags]

Examples:
  # Default profile against a local sandbox
  loadtest --url http://127.0.0.1:5000/

  # Short smoke run
  loadtest --stages 2s:5,2s:0 --think 200ms

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
