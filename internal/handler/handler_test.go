package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
	"github.com/iliyamo/cinema-seat-booking/internal/queue"
	"github.com/iliyamo/cinema-seat-booking/internal/repository"
)

type recordingPublisher struct {
	events []queue.BookingConfirmedEvent
	err    error
}

func (p *recordingPublisher) PublishBookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

type fixture struct {
	e      *echo.Echo
	repo   *repository.MemoryBookingRepo
	events *recordingPublisher
}

func newFixture(strict bool) *fixture {
	f := &fixture{
		e:      echo.New(),
		repo:   repository.NewMemoryBookingRepo(repository.SeedMovies()),
		events: &recordingPublisher{},
	}
	h := NewBookingHandler(f.repo, f.events, strict, nil)
	f.e.GET("/", h.Home)
	f.e.GET("/healthz", Health)
	f.e.GET("/movie/:id/booking-config", h.BookingConfig)
	f.e.POST("/book_ticket", h.BookTicket)
	f.e.GET("/history", h.History)
	f.e.GET("/admin/summary", h.SalesSummary)
	f.e.GET("/admin/report", h.Report)
	f.e.POST("/admin/reset_seats/:id", h.ResetSeats)
	return f
}

func (f *fixture) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := newFixture(false).do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestHomeCarriesSiteName(t *testing.T) {
	f := newFixture(false)
	rec := f.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, SiteName)
	assert.Contains(t, body, "Avengers: Secret Wars")
	assert.Contains(t, body, "Moana 2")

	rec = f.do(http.MethodGet, "/?q=moana", "")
	body = rec.Body.String()
	assert.Contains(t, body, "Moana 2")
	assert.NotContains(t, body, "Avengers")
}

func TestBookingConfig(t *testing.T) {
	f := newFixture(false)
	_, _, err := f.repo.Book(context.Background(), 1, []string{"A1"})
	require.NoError(t, err)

	rec := f.do(http.MethodGet, "/movie/1/booking-config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"price":50000,"bookedSeats":["A1"],"movieId":1}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/movie/9/booking-config", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/movie/abc/booking-config", "").Code)

	rec = f.do(http.MethodGet, "/movie/2/booking-config", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "belum tayang")
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) model.BookingResponse {
	t.Helper()
	var out model.BookingResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestBookTicketSkipsTakenSeats(t *testing.T) {
	f := newFixture(false)
	_, _, err := f.repo.Book(context.Background(), 1, []string{"A1"})
	require.NoError(t, err)

	rec := f.do(http.MethodPost, "/book_ticket", `{"movie_id":1,"seats":["A1","A2","B3","A2"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, model.StatusSuccess, resp.Status)
	assert.Equal(t, []string{"A1"}, resp.Skipped)
	require.Len(t, resp.BookingIDs, 2)

	seats, err := f.repo.BookedSeats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "A2", "B3"}, seats)

	// The response names this request's bookings only, not A1's.
	history, err := f.repo.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, []string{history[1].ID, history[2].ID}, resp.BookingIDs)
	assert.NotContains(t, resp.BookingIDs, history[0].ID)

	require.Len(t, f.events.events, 1)
	ev := f.events.events[0]
	assert.Equal(t, []string{"A2", "B3"}, ev.Seats)
	assert.Equal(t, []string{"A1"}, ev.Skipped)
	assert.Equal(t, int64(100000), ev.Total)
	assert.Equal(t, resp.BookingIDs, ev.BookingIDs)
}

func TestBookTicketAcceptsStringMovieID(t *testing.T) {
	f := newFixture(false)
	rec := f.do(http.MethodPost, "/book_ticket", `{"movie_id":"1","seats":["C1"]}`)
	assert.Equal(t, model.StatusSuccess, decodeResponse(t, rec).Status)
}

func TestBookTicketStrictRejectsTakenSeat(t *testing.T) {
	f := newFixture(true)
	_, _, err := f.repo.Book(context.Background(), 1, []string{"A1"})
	require.NoError(t, err)

	rec := f.do(http.MethodPost, "/book_ticket", `{"movie_id":1,"seats":["A1","A2"]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, model.BookingResponse{Status: model.StatusError, Msg: MsgSeatTaken}, decodeResponse(t, rec))

	seats, err := f.repo.BookedSeats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, seats, "nothing booked on rejection")
	assert.Empty(t, f.events.events)
}

// staleRepo reports no booked seats, as a strict check racing another
// request would see them.
type staleRepo struct {
	*repository.MemoryBookingRepo
}

func (staleRepo) BookedSeats(context.Context, uint64) ([]string, error) { return nil, nil }

func TestBookTicketStrictRacedSeatBooksNothing(t *testing.T) {
	repo := repository.NewMemoryBookingRepo(repository.SeedMovies())
	_, _, err := repo.Book(context.Background(), 1, []string{"A1"})
	require.NoError(t, err)
	events := &recordingPublisher{}
	e := echo.New()
	e.POST("/book_ticket", NewBookingHandler(staleRepo{repo}, events, true, nil).BookTicket)

	req := httptest.NewRequest(http.MethodPost, "/book_ticket", strings.NewReader(`{"movie_id":1,"seats":["A2","A1","B3"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, model.BookingResponse{Status: model.StatusError, Msg: MsgSeatTaken}, decodeResponse(t, rec))

	seats, err := repo.BookedSeats(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A1"}, seats, "claimed seats are released")
	n, err := repo.CountByMovie(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, events.events)
}

func TestBookTicketRejections(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{"malformed", `{"movie_id":`, http.StatusBadRequest, MsgInvalidRequest},
		{"missing movie", `{"seats":["A1"]}`, http.StatusBadRequest, MsgInvalidRequest},
		{"no seats", `{"movie_id":1,"seats":[]}`, http.StatusBadRequest, MsgNoSeats},
		{"bad seat", `{"movie_id":1,"seats":["a1"]}`, http.StatusBadRequest, MsgInvalidSeat},
		{"unknown movie", `{"movie_id":5,"seats":["A1"]}`, http.StatusNotFound, MsgMovieNotFound},
		{"coming soon", `{"movie_id":2,"seats":["A1"]}`, http.StatusConflict, MsgComingSoon},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := newFixture(false).do(http.MethodPost, "/book_ticket", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, model.BookingResponse{Status: model.StatusError, Msg: tc.msg}, decodeResponse(t, rec))
		})
	}
}

func TestBookTicketPublishFailureStillSucceeds(t *testing.T) {
	f := newFixture(false)
	f.events.err = errors.New("broker down")
	rec := f.do(http.MethodPost, "/book_ticket", `{"movie_id":1,"seats":["D4"]}`)
	assert.Equal(t, model.StatusSuccess, decodeResponse(t, rec).Status)
}

func TestHistoryAndSummary(t *testing.T) {
	f := newFixture(false)
	f.do(http.MethodPost, "/book_ticket", `{"movie_id":1,"seats":["A2","B3"]}`)

	rec := f.do(http.MethodGet, "/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var hist struct {
		Items []model.HistoryEntry `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hist))
	require.Len(t, hist.Items, 2)
	assert.Equal(t, "Avengers: Secret Wars", hist.Items[0].MovieTitle)
	assert.Equal(t, int64(50000), hist.Items[0].Price)
	assert.Equal(t, "A2", hist.Items[0].Seat)

	rec = f.do(http.MethodGet, "/admin/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"labels":["Avengers: Secret Wars","Moana 2"],"values":[2,0]}`, rec.Body.String())
}

func TestResetSeats(t *testing.T) {
	f := newFixture(false)
	f.do(http.MethodPost, "/book_ticket", `{"movie_id":1,"seats":["A2","B3"]}`)

	rec := f.do(http.MethodPost, "/admin/reset_seats/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"released":2,"msg":"2 kursi berhasil di-reset."}`, rec.Body.String())

	rec = f.do(http.MethodPost, "/admin/reset_seats/1", "")
	assert.JSONEq(t, `{"released":0,"msg":"Studio sudah kosong."}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/admin/reset_seats/7", "").Code)

	rec = f.do(http.MethodGet, "/movie/1/booking-config", "")
	assert.JSONEq(t, `{"price":50000,"bookedSeats":[],"movieId":1}`, rec.Body.String())
}

func TestReport(t *testing.T) {
	f := newFixture(false)
	f.do(http.MethodPost, "/book_ticket", `{"movie_id":1,"seats":["A2","B3"]}`)
	today := time.Now().UTC().Format(time.DateOnly)

	rec := f.do(http.MethodGet, "/admin/report?date="+today, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "Laporan_"+today+".csv")
	body := strings.TrimPrefix(rec.Body.String(), "\ufeff")
	lines := strings.Split(strings.TrimSpace(body), "\n")
	assert.Equal(t, "ID Transaksi;Tanggal;Jam;Film;Kursi;Harga;Status", lines[0])
	assert.Contains(t, lines[1], ";Avengers: Secret Wars;A2;50000;booked")
	assert.Contains(t, body, ";;;Avengers: Secret Wars;Total:;100000;")
	assert.Contains(t, body, ";;;GRAND TOTAL HARI INI;;100000;")

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/admin/report", "").Code)
}
