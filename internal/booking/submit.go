package booking

import (
	"context"
	"errors"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

// Phase is the submission lifecycle state.
//
//	Idle -> Submitting -> Navigating            (success, terminal)
//	                   -> Idle (message shown)  (rejected or transport error)
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseNavigating
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseNavigating:
		return "navigating"
	}
	return "unknown"
}

// Submitter sends a booking request to the booking endpoint.  A non-nil
// error means the request did not complete; a response with a status
// other than success is a rejection.
type Submitter interface {
	BookTicket(ctx context.Context, req model.BookingRequest) (*model.BookingResponse, error)
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, req model.BookingRequest) (*model.BookingResponse, error)

func (fn SubmitterFunc) BookTicket(ctx context.Context, req model.BookingRequest) (*model.BookingResponse, error) {
	return fn(ctx, req)
}

// OutcomeKind classifies the result of a submission.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRejected
	OutcomeTransportError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRejected:
		return "rejected"
	case OutcomeTransportError:
		return "transport_error"
	}
	return "unknown"
}

// Outcome is the result of one submission.  Redirect and BookingIDs are
// set on success, Message on failure.  Err is a *RejectedError or a
// *TransportError.
type Outcome struct {
	Kind       OutcomeKind
	Redirect   string
	BookingIDs []string
	Message    string
	Err        error
}

// Request builds the booking request from the current selection.
func (f *Flow) Request() model.BookingRequest {
	seats := append(make([]string, 0, len(f.selection)), f.selection...)
	return model.BookingRequest{MovieID: f.cfg.MovieID, Seats: seats}
}

// BeginSubmit is the user's payment confirmation.  It shows the loading
// indicator, locks the flow and returns the request to dispatch.
func (f *Flow) BeginSubmit() (model.BookingRequest, error) {
	if f.phase != PhaseIdle {
		return model.BookingRequest{}, ErrFlowLocked
	}
	if !f.summary.SubmitEnabled {
		return model.BookingRequest{}, ErrEmptySelection
	}
	f.phase = PhaseSubmitting
	f.loading = true
	f.message = ""
	f.host.ShowLoading()
	req := f.Request()
	f.logger.Info("submitting booking", "movie_id", req.MovieID.String(), "seats", req.Seats)
	return req, nil
}

// Dispatch waits for the submit delay and then sends req.  It reads no
// mutable flow state, so it may run off the UI goroutine.  The delay is
// not cancellable; ctx only reaches the transport.
func (f *Flow) Dispatch(ctx context.Context, req model.BookingRequest) Outcome {
	if f.delay > 0 {
		<-f.clock.After(f.delay)
	}
	if f.submitter == nil {
		return classify(nil, errors.New("no booking endpoint configured"), f.historyPath)
	}
	resp, err := f.submitter.BookTicket(ctx, req)
	return classify(resp, err, f.historyPath)
}

func classify(resp *model.BookingResponse, err error, historyPath string) Outcome {
	if err != nil {
		var terr *TransportError
		if !errors.As(err, &terr) {
			terr = &TransportError{Err: err}
		}
		return Outcome{Kind: OutcomeTransportError, Message: ConnectionErrorMessage, Err: terr}
	}
	if resp == nil || resp.Status == "" {
		return Outcome{
			Kind:    OutcomeTransportError,
			Message: ConnectionErrorMessage,
			Err:     &TransportError{Err: errors.New("response has no status")},
		}
	}
	if resp.Succeeded() {
		return Outcome{Kind: OutcomeSuccess, Redirect: historyPath, BookingIDs: resp.BookingIDs}
	}
	msg := resp.Msg
	if msg == "" {
		msg = RejectedFallbackMessage
	}
	return Outcome{Kind: OutcomeRejected, Message: msg, Err: &RejectedError{Msg: resp.Msg}}
}

// Finish applies the outcome of a dispatched request.  Success navigates
// away and leaves the loading indicator up; failures alert, hide the
// indicator and return to Idle with the selection intact.
func (f *Flow) Finish(o Outcome) {
	if f.phase != PhaseSubmitting {
		f.logger.Warn("booking outcome without submission ignored", "outcome", o.Kind.String())
		return
	}
	switch o.Kind {
	case OutcomeSuccess:
		f.phase = PhaseNavigating
		f.logger.Info("booking confirmed", "redirect", o.Redirect)
		f.host.Navigate(o.Redirect)
	default:
		f.phase = PhaseIdle
		f.loading = false
		f.message = o.Message
		if o.Kind == OutcomeTransportError {
			f.logger.Error("booking request failed", "error", o.Err)
		} else {
			f.logger.Warn("booking rejected", "msg", o.Message)
		}
		f.host.Alert(o.Message)
		f.host.HideLoading()
	}
}

// Submit runs a whole submission on the calling goroutine.
func (f *Flow) Submit(ctx context.Context) (Outcome, error) {
	req, err := f.BeginSubmit()
	if err != nil {
		return Outcome{}, err
	}
	o := f.Dispatch(ctx, req)
	f.Finish(o)
	return o, nil
}
