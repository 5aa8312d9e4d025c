// Package tui is the terminal seat picker: it renders the booking flow's
// seat grid, moves a cursor over it, shows the running total on the seat
// panel and in the payment summary, and drives the two-step submission
// with a spinner while the request is in flight.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/iliyamo/cinema-seat-booking/internal/booking"
	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

// TicketExporter saves a ticket for a confirmed booking and returns where
// it was written.  bookingIDs are the bookings the backend reported as
// created, which may be fewer than the seats requested.
type TicketExporter func(ctx context.Context, req model.BookingRequest, bookingIDs []string) (string, error)

// Options configures the seat picker.
type Options struct {
	Title     string // movie title shown above the grid
	Submitter booking.Submitter
	Exporter  TicketExporter
	Logger    *slog.Logger
	Keys      *KeyMap
	// FlowOptions are passed to booking.New after the picker's own host
	// and surfaces.
	FlowOptions []booking.Option
}

type outcomeMsg struct {
	outcome booking.Outcome
}

type ticketMsg struct {
	path string
	err  error
}

// surface keeps the last summary pushed to one display location.
type surface struct {
	last booking.Summary
}

func (s *surface) Render(sum booking.Summary) { s.last = sum }

// host records the flow's side effects for the view.
type host struct {
	loading   bool
	alert     string
	navigated string
}

func (h *host) ShowLoading()         { h.loading = true }
func (h *host) HideLoading()         { h.loading = false }
func (h *host) Alert(msg string)     { h.alert = msg }
func (h *host) Navigate(path string) { h.navigated = path }

// Model is the bubbletea model of the seat picker.
type Model struct {
	flow   *booking.Flow
	host   *host
	panel  *surface // total under the seat grid
	modal  *surface // total inside the payment summary
	keys   KeyMap
	title  string
	logger *slog.Logger

	exporter TicketExporter

	row, col    int
	showPayment bool
	spinner     spinner.Model

	status    string
	statusSeq int

	exporting  bool
	ticketPath string
	ticketErr  error

	width  int
	height int
}

// New builds the booking flow for cfg and wraps it in a model.  The
// flow's errors are returned as is, so a missing configuration surfaces
// as booking.ErrConfigMissing.
func New(cfg *model.BookingConfig, opts Options) (*Model, error) {
	m := &Model{
		host:     &host{},
		panel:    &surface{},
		modal:    &surface{},
		keys:     DefaultKeyMap,
		title:    opts.Title,
		logger:   opts.Logger,
		exporter: opts.Exporter,
	}
	if opts.Keys != nil {
		m.keys = *opts.Keys
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	flowOpts := []booking.Option{
		booking.WithHost(m.host),
		booking.WithSurfaces(m.panel, m.modal),
		booking.WithLogger(m.logger),
	}
	if opts.Submitter != nil {
		flowOpts = append(flowOpts, booking.WithSubmitter(opts.Submitter))
	}
	flow, err := booking.New(cfg, append(flowOpts, opts.FlowOptions...)...)
	if err != nil {
		return nil, err
	}
	m.flow = flow

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp
	return m, nil
}

// Flow exposes the underlying booking flow.
func (m *Model) Flow() *booking.Flow { return m.flow }

// Cursor returns the label of the seat under the cursor.
func (m *Model) Cursor() string {
	g := m.flow.Grid()
	return model.SeatLabel(g.Rows()[m.row], m.col+1)
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.flow.Loading() && !m.exporting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case outcomeMsg:
		m.flow.Finish(msg.outcome)
		if msg.outcome.Kind != booking.OutcomeSuccess || m.exporter == nil {
			return m, nil
		}
		m.exporting = true
		return m, m.exportCmd(m.flow.Request(), msg.outcome.BookingIDs)

	case ticketMsg:
		m.exporting = false
		m.ticketPath, m.ticketErr = msg.path, msg.err
		if msg.err != nil {
			m.logger.Error("ticket export failed", "error", msg.err)
		}
		return m, nil

	case logRecordMsg:
		m.status = msg.Summary
		m.statusSeq++
		seq := m.statusSeq
		return m, tea.Tick(logFadeDelay, func(time.Time) tea.Msg { return logFadeMsg{seq: seq} })

	case logFadeMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	// The alert is modal: the next key only dismisses it.
	if m.host.alert != "" {
		m.host.alert = ""
		return m, nil
	}
	if m.flow.Phase() == booking.PhaseNavigating {
		if key.Matches(msg, m.keys.Quit) || key.Matches(msg, m.keys.Confirm) {
			return m, tea.Quit
		}
		return m, nil
	}
	if m.flow.Loading() {
		// Nothing is interactive behind the loading indicator.
		return m, nil
	}

	if m.showPayment {
		switch {
		case key.Matches(msg, m.keys.Confirm):
			return m, m.confirm()
		case key.Matches(msg, m.keys.Cancel):
			m.showPayment = false
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		}
		return m, nil
	}

	g := m.flow.Grid()
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.row = max(0, m.row-1)
	case key.Matches(msg, m.keys.Down):
		m.row = min(len(g.Rows())-1, m.row+1)
	case key.Matches(msg, m.keys.Left):
		m.col = max(0, m.col-1)
	case key.Matches(msg, m.keys.Right):
		m.col = min(g.Columns()-1, m.col+1)
	case key.Matches(msg, m.keys.Toggle):
		err := m.flow.Click(m.Cursor())
		if err != nil && !errors.Is(err, booking.ErrSeatNotInteractive) {
			m.logger.Warn("seat activation refused", "seat", m.Cursor(), "error", err)
		}
	case key.Matches(msg, m.keys.Pay):
		// The payment button is disabled without a selection.
		if m.panel.last.SubmitEnabled {
			m.showPayment = true
		}
	}
	return m, nil
}

// confirm starts the submission: the flow shows the loading indicator at
// once and the request goes out from a command after the submit delay.
func (m *Model) confirm() tea.Cmd {
	req, err := m.flow.BeginSubmit()
	if err != nil {
		m.logger.Warn("submission refused", "error", err)
		return nil
	}
	flow := m.flow
	dispatch := func() tea.Msg {
		return outcomeMsg{outcome: flow.Dispatch(context.Background(), req)}
	}
	return tea.Batch(m.spinner.Tick, dispatch)
}

func (m *Model) exportCmd(req model.BookingRequest, bookingIDs []string) tea.Cmd {
	exporter := m.exporter
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		path, err := exporter(ctx, req, bookingIDs)
		return ticketMsg{path: path, err: err}
	})
}
