// Package booking implements the seat selection and booking submission
// flow of the booking page: a fixed seat grid built from the page's
// booking configuration, the ordered selection set, the price summary
// shown on every display surface, and the two-step submission that posts
// the selection to the booking endpoint.
//
// A Flow is driven from a single goroutine (the UI event loop).  The
// loading indicator is its only concurrency control: while a submission
// is in flight seat activation and further submissions are refused.
package booking

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

// DefaultSubmitDelay is the pause between showing the loading indicator
// and issuing the booking request, so the indicator renders first.
const DefaultSubmitDelay = time.Second

// DefaultHistoryPath is where a successful booking navigates to.
const DefaultHistoryPath = "/history"

// Host receives the side effects of the submission lifecycle.
type Host interface {
	ShowLoading()
	HideLoading()
	Alert(msg string)
	Navigate(path string)
}

type nopHost struct{}

func (nopHost) ShowLoading()    {}
func (nopHost) HideLoading()    {}
func (nopHost) Alert(string)    {}
func (nopHost) Navigate(string) {}

// Option configures a Flow.
type Option func(*Flow)

// WithGrid replaces the default 5 x 6 grid.
func WithGrid(g *Grid) Option { return func(f *Flow) { f.grid = g } }

// WithSurfaces registers display surfaces; each receives every Summary.
func WithSurfaces(s ...Surface) Option {
	return func(f *Flow) { f.surfaces = append(f.surfaces, s...) }
}

func WithHost(h Host) Option { return func(f *Flow) { f.host = h } }

func WithSubmitter(s Submitter) Option { return func(f *Flow) { f.submitter = s } }

func WithClock(c clockwork.Clock) Option { return func(f *Flow) { f.clock = c } }

// WithSubmitDelay overrides DefaultSubmitDelay.  Zero disables the pause.
func WithSubmitDelay(d time.Duration) Option { return func(f *Flow) { f.delay = d } }

func WithHistoryPath(p string) Option { return func(f *Flow) { f.historyPath = p } }

func WithLocale(t language.Tag) Option { return func(f *Flow) { f.locale = t } }

func WithLogger(l *slog.Logger) Option { return func(f *Flow) { f.logger = l } }

// Flow is the seat booking state machine.
type Flow struct {
	cfg     model.BookingConfig
	grid    *Grid
	seats   []*Seat
	byLabel map[string]*Seat

	selection []string
	summary   Summary
	phase     Phase
	loading   bool
	message   string

	surfaces    []Surface
	host        Host
	submitter   Submitter
	clock       clockwork.Clock
	delay       time.Duration
	historyPath string
	locale      language.Tag
	printer     *message.Printer
	logger      *slog.Logger
}

// New validates cfg and builds the seat grid.  A nil cfg is fatal to
// initialization: the error is logged and ErrConfigMissing returned.
func New(cfg *model.BookingConfig, opts ...Option) (*Flow, error) {
	f := &Flow{
		host:        nopHost{},
		clock:       clockwork.NewRealClock(),
		delay:       DefaultSubmitDelay,
		historyPath: DefaultHistoryPath,
		locale:      language.Indonesian,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if f.grid == nil {
		f.grid = DefaultGrid()
	}
	if f.host == nil {
		f.host = nopHost{}
	}
	f.printer = message.NewPrinter(f.locale)

	if cfg == nil {
		f.logger.Error("booking config not found; seat map not initialised")
		return nil, ErrConfigMissing
	}
	if err := cfg.Validate(); err != nil {
		f.logger.Error("booking config rejected", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrConfigInvalid, err)
	}
	f.cfg = *cfg
	f.cfg.BookedSeats = append([]string(nil), cfg.BookedSeats...)

	booked := make(map[string]bool, len(cfg.BookedSeats))
	for _, label := range cfg.BookedSeats {
		if !f.grid.Contains(label) {
			f.logger.Warn("booked seat outside grid ignored", "seat", label)
			continue
		}
		booked[label] = true
	}

	f.byLabel = make(map[string]*Seat, f.grid.Size())
	for _, label := range f.grid.labels {
		row, col, _ := model.ParseSeatLabel(label)
		seat := &Seat{label: label, row: row, column: col, status: model.SeatAvailable}
		if booked[label] {
			seat.status = model.SeatOccupied
		} else {
			seat.activate = f.toggleHandler(seat)
		}
		f.seats = append(f.seats, seat)
		f.byLabel[label] = seat
	}
	f.refresh()
	f.logger.Debug("seat map ready", "movie_id", f.cfg.MovieID.String(), "seats", len(f.seats), "occupied", len(booked))
	return f, nil
}

// toggleHandler is the activation handler of one available seat.
func (f *Flow) toggleHandler(seat *Seat) func() {
	return func() {
		if seat.status == model.SeatSelected {
			seat.status = model.SeatAvailable
			kept := f.selection[:0]
			for _, l := range f.selection {
				if l != seat.label {
					kept = append(kept, l)
				}
			}
			f.selection = kept
		} else {
			seat.status = model.SeatSelected
			f.selection = append(f.selection, seat.label)
		}
		f.refresh()
	}
}

// refresh recomputes the summary and pushes it to every surface.
func (f *Flow) refresh() {
	f.summary = summarize(f.selection, f.cfg.Price, f.printer)
	for _, s := range f.surfaces {
		s.Render(f.summary)
	}
}

// Click activates the seat named label, as a user click would.
func (f *Flow) Click(label string) error {
	seat, ok := f.byLabel[label]
	if !ok {
		return ErrUnknownSeat
	}
	if f.phase != PhaseIdle {
		return ErrFlowLocked
	}
	if seat.activate == nil {
		return ErrSeatNotInteractive
	}
	seat.activate()
	return nil
}

func (f *Flow) Grid() *Grid { return f.grid }

// Seats returns the seats in row-major order.
func (f *Flow) Seats() []*Seat { return append([]*Seat(nil), f.seats...) }

// Seat looks a seat up by label.
func (f *Flow) Seat(label string) (*Seat, bool) {
	s, ok := f.byLabel[label]
	return s, ok
}

// Selection returns the selected labels in click order.
func (f *Flow) Selection() []string { return append([]string(nil), f.selection...) }

// Summary returns the last computed display state.
func (f *Flow) Summary() Summary { return f.summary }

func (f *Flow) Config() model.BookingConfig { return f.cfg }

func (f *Flow) Phase() Phase { return f.phase }

// Loading reports whether the loading indicator is shown.
func (f *Flow) Loading() bool { return f.loading }

// Message is the last alert shown to the user, if any.
func (f *Flow) Message() string { return f.message }

// Locale is the locale totals are formatted with.
func (f *Flow) Locale() language.Tag { return f.locale }
