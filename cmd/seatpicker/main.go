// seatpicker is the terminal booking page: it shows the studio's seat
// grid for one movie, lets the user pick seats, confirms the payment
// summary and posts the booking to the backend.
//
// The booking configuration (price, taken seats, movie) comes from the
// backend (--movie), from a bookingConfig JSON file (--config) or from
// flags (--movie-id, --price, --booked).  Without one the picker does not
// start.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/text/language"

	"github.com/iliyamo/cinema-seat-booking/internal/booking"
	"github.com/iliyamo/cinema-seat-booking/internal/client"
	"github.com/iliyamo/cinema-seat-booking/internal/config"
	"github.com/iliyamo/cinema-seat-booking/internal/model"
	"github.com/iliyamo/cinema-seat-booking/internal/ticket"
	"github.com/iliyamo/cinema-seat-booking/internal/tui"
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

	var (
		configPath string
		movie      string
		movieID    string
		price      int64
		booked     []string
		title      string
		logOutput  string
		timeout    time.Duration
	)
	flagSet := pflag.NewFlagSet("seatpicker", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "booking backend")
	flagSet.StringVar(&movie, "movie", "", "fetch the booking configuration of this movie from the backend")
	flagSet.StringVar(&configPath, "config", "", "read the booking configuration from a bookingConfig JSON file")
	flagSet.StringVar(&movieID, "movie-id", "", "movie id when the configuration is given by flags")
	flagSet.Int64Var(&price, "price", 0, "ticket price when the configuration is given by flags")
	flagSet.StringSliceVar(&booked, "booked", nil, "seats already taken, e.g. A1,B2")
	flagSet.StringVar(&title, "title", "", "movie title shown above the grid")
	flagSet.DurationVar(&cfg.SubmitDelay, "submit-delay", cfg.SubmitDelay, "pause between confirming and sending the booking")
	flagSet.StringVar(&cfg.TicketDir, "ticket-dir", cfg.TicketDir, "save a PDF ticket here after booking")
	flagSet.StringVar(&logOutput, "log-output", "", "write JSON log records to this file (in addition to the status line)")
	flagSet.DurationVar(&timeout, "timeout", 15*time.Second, "booking request timeout")
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

	stderr := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: config.ParseLevel(cfg.LogLevel)}))
	api := client.New(cfg.BaseURL, &http.Client{Timeout: timeout})

	bookingConfig, err := loadBookingConfig(api, configPath, movie, movieID, price, booked)
	if err != nil {
		return err
	}
	if bookingConfig == nil {
		stderr.Error("booking config not found; use --movie, --config or --movie-id")
		return booking.ErrConfigMissing
	}

	grid, err := booking.NewGrid(cfg.Rows, cfg.Columns)
	if err != nil {
		return fmt.Errorf("seat grid: %w", err)
	}

	tuiHandler := tui.NewLogHandler(config.ParseLevel(cfg.LogLevel))
	var handler slog.Handler = tuiHandler
	if logOutput != "" {
		fileHandler, closeFile, err := openFileLogHandler(logOutput)
		if err != nil {
			return fmt.Errorf("cannot open log file %s: %w", logOutput, err)
		}
		defer closeFile()
		handler = fanoutHandler{tuiHandler, fileHandler}
	}
	logger := slog.New(handler)

	var exporter tui.TicketExporter
	if cfg.TicketDir != "" {
		exporter = ticketExporter(api, cfg.TicketDir, title, booking.ParseLocale(cfg.Locale))
	}

	picker, err := tui.New(bookingConfig, tui.Options{
		Title:     title,
		Submitter: api,
		Exporter:  exporter,
		Logger:    logger,
		FlowOptions: []booking.Option{
			booking.WithGrid(grid),
			booking.WithSubmitDelay(cfg.SubmitDelay),
			booking.WithHistoryPath(cfg.HistoryPath),
			booking.WithLocale(booking.ParseLocale(cfg.Locale)),
		},
	})
	if err != nil {
		return err
	}

	program := tea.NewProgram(picker, tea.WithAltScreen())
	tuiHandler.SetProgram(program)
	_, err = program.Run()
	return err
}

// loadBookingConfig resolves the configuration in order of precedence:
// file, backend, flags.  It returns nil when none was given.
func loadBookingConfig(api *client.BookingClient, path, movie, movieID string, price int64, booked []string) (*model.BookingConfig, error) {
	switch {
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return model.DecodeBookingConfig(f)
	case movie != "":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return api.BookingConfig(ctx, model.ParseMovieID(movie))
	case movieID != "":
		return &model.BookingConfig{
			Price:       price,
			BookedSeats: booked,
			MovieID:     model.ParseMovieID(movieID),
		}, nil
	}
	return nil, nil
}

// ticketExporter looks the bookings the backend created up in the booking
// history and saves them as a PDF ticket in dir.
func ticketExporter(api *client.BookingClient, dir, title string, locale language.Tag) tui.TicketExporter {
	return func(ctx context.Context, req model.BookingRequest, bookingIDs []string) (string, error) {
		if len(bookingIDs) == 0 {
			return "", errors.New("booking response named no bookings")
		}
		items, err := api.History(ctx)
		if err != nil {
			return "", fmt.Errorf("load history: %w", err)
		}
		t, ok := ticket.FromHistory(items, bookingIDs)
		if !ok {
			return "", fmt.Errorf("bookings %v not found in booking history", bookingIDs)
		}
		if t.MovieTitle == "" {
			t.MovieTitle = title
		}
		if t.MovieTitle == "" {
			t.MovieTitle = "Film " + req.MovieID.String()
		}
		t.Locale = locale
		return ticket.Export(dir, t)
	}
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `seatpicker: pick seats and book tickets from the terminal.

Keys: arrows or h/j/k/l move, space selects a seat, p opens the payment
summary, y or enter pays, esc goes back, q quits.

Usage:
  seatpicker [flags]

Examples:
  # Movie 1 from a local sandbox backend
  seatpicker --movie 1

  # Offline, against a saved configuration
  seatpicker --config booking.json --base-url http://127.0.0.1:5000

  # Configuration from flags, saving the ticket as PDF
  seatpicker --movie-id 7 --price 50000 --booked A1,C4 --ticket-dir ./tickets

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
