package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-seat-booking/internal/booking"
	"github.com/iliyamo/cinema-seat-booking/internal/handler"
	"github.com/iliyamo/cinema-seat-booking/internal/model"
	"github.com/iliyamo/cinema-seat-booking/internal/repository"
	"github.com/iliyamo/cinema-seat-booking/internal/router"
	"github.com/iliyamo/cinema-seat-booking/internal/ticket"
)

func fakeBackend(t *testing.T, h echo.HandlerFunc) *BookingClient {
	t.Helper()
	e := echo.New()
	e.POST("/book_ticket", h)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", srv.Client())
}

func request() model.BookingRequest {
	return model.BookingRequest{MovieID: model.MovieIDFromInt(7), Seats: []string{"A2", "B3"}}
}

func TestBookTicketSendsRequest(t *testing.T) {
	var got string
	c := fakeBackend(t, func(ec echo.Context) error {
		body, err := io.ReadAll(ec.Request().Body)
		require.NoError(t, err)
		got = string(body)
		return ec.JSON(http.StatusOK, echo.Map{"status": "success"})
	})
	resp, err := c.BookTicket(context.Background(), request())
	require.NoError(t, err)
	assert.True(t, resp.Succeeded())
	assert.JSONEq(t, `{"movie_id":7,"seats":["A2","B3"]}`, got)
}

func TestBookTicketRejectionIsAResponse(t *testing.T) {
	c := fakeBackend(t, func(ec echo.Context) error {
		return ec.JSON(http.StatusConflict, echo.Map{"status": "error", "msg": "Seat taken"})
	})
	resp, err := c.BookTicket(context.Background(), request())
	require.NoError(t, err)
	assert.False(t, resp.Succeeded())
	assert.Equal(t, "Seat taken", resp.Msg)
}

func TestBookTicketMalformedResponses(t *testing.T) {
	cases := map[string]echo.HandlerFunc{
		"html": func(ec echo.Context) error { return ec.HTML(http.StatusOK, "<html>login</html>") },
		"no status": func(ec echo.Context) error {
			return ec.JSON(http.StatusOK, echo.Map{"msg": "?"})
		},
		"server error page": func(ec echo.Context) error {
			return ec.String(http.StatusInternalServerError, "Internal Server Error")
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := fakeBackend(t, h).BookTicket(context.Background(), request())
			var te *booking.TransportError
			assert.ErrorAs(t, err, &te)
		})
	}
}

func TestBookTicketUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, nil).BookTicket(context.Background(), request())
	var te *booking.TransportError
	assert.ErrorAs(t, err, &te)
}

func sandbox(t *testing.T) (*BookingClient, *repository.MemoryBookingRepo) {
	t.Helper()
	repo := repository.NewMemoryBookingRepo(repository.SeedMovies())
	e := echo.New()
	router.RegisterRoutes(e, handler.NewBookingHandler(repo, nil, false, nil), nil)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.Client()), repo
}

func TestAgainstSandbox(t *testing.T) {
	c, repo := sandbox(t)
	ctx := context.Background()
	_, _, err := repo.Book(ctx, 1, []string{"A1"})
	require.NoError(t, err)

	cfg, err := c.BookingConfig(ctx, model.MovieIDFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, int64(50000), cfg.Price)
	assert.Equal(t, []string{"A1"}, cfg.BookedSeats)
	assert.Equal(t, "1", cfg.MovieID.String())

	resp, err := c.BookTicket(ctx, model.BookingRequest{MovieID: cfg.MovieID, Seats: []string{"A2", "B3"}})
	require.NoError(t, err)
	assert.True(t, resp.Succeeded())

	items, err := c.History(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "B3", items[2].Seat)

	sum, err := c.SalesSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Avengers: Secret Wars", "Moana 2"}, sum.Labels)
	assert.Equal(t, []int{3, 0}, sum.Values)
}

func TestTicketFromSandboxBookingSkipsTakenSeats(t *testing.T) {
	c, repo := sandbox(t)
	ctx := context.Background()
	_, _, err := repo.Book(ctx, 1, []string{"B3"})
	require.NoError(t, err)

	resp, err := c.BookTicket(ctx, model.BookingRequest{MovieID: model.MovieIDFromInt(1), Seats: []string{"B3", "C1"}})
	require.NoError(t, err)
	require.True(t, resp.Succeeded())
	assert.Equal(t, []string{"B3"}, resp.Skipped)
	require.Len(t, resp.BookingIDs, 1)

	items, err := c.History(ctx)
	require.NoError(t, err)
	tk, ok := ticket.FromHistory(items, resp.BookingIDs)
	require.True(t, ok)
	assert.Equal(t, []string{"C1"}, tk.Seats)
	assert.Equal(t, int64(50000), tk.Total)
}

func TestBookingConfigErrors(t *testing.T) {
	c, _ := sandbox(t)
	ctx := context.Background()

	_, err := c.BookingConfig(ctx, model.MovieIDFromInt(99))
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = c.BookingConfig(ctx, model.MovieIDFromInt(2))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "belum tayang")
}
