// salesreport prints the admin sales chart: tickets sold per movie as
// coloured bars in the terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/iliyamo/cinema-seat-booking/internal/chart"
	"github.com/iliyamo/cinema-seat-booking/internal/client"
	"github.com/iliyamo/cinema-seat-booking/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}

	var width int
	var timeout time.Duration
	flagSet := pflag.NewFlagSet("salesreport", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "booking backend")
	flagSet.IntVar(&width, "width", 0, "chart width in cells (default: terminal width)")
	flagSet.DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
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

	if width <= 0 {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			width = w
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	c := client.New(cfg.BaseURL, &http.Client{Timeout: timeout})
	summary, err := c.SalesSummary(ctx)
	if err != nil {
		return err
	}
	out, err := chart.Render(*summary, width)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(os.Stdout, out)
	return err
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `salesreport: tickets sold per movie.

Fetches /admin/summary from the booking backend and draws one bar per
movie.

Usage:
  salesreport [flags]

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
