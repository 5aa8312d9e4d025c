// Package handler implements the HTTP endpoints of the sandbox booking
// backend.  The responses follow the contract the seat picker expects:
// POST /book_ticket always answers {"status": ..., "msg": ...}, and the
// read endpoints answer JSON documents or {"error": ...}.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
	"github.com/iliyamo/cinema-seat-booking/internal/queue"
	"github.com/iliyamo/cinema-seat-booking/internal/repository"
)

// User-facing messages of the booking endpoint.
const (
	MsgInvalidRequest = "Permintaan tidak valid."
	MsgNoSeats        = "Pilih minimal satu kursi."
	MsgInvalidSeat    = "Kursi tidak valid."
	MsgMovieNotFound  = "Film tidak ditemukan."
	MsgComingSoon     = "Film ini belum tayang, tiket belum bisa dibeli."
	MsgSeatTaken      = "Seat taken"
	MsgServerError    = "Terjadi kesalahan server."
)

// BookingHandler serves the booking page data, the booking endpoint and
// the history.
type BookingHandler struct {
	Repo   repository.BookingRepo
	Events queue.Publisher
	// Strict rejects a request when any requested seat is already taken,
	// booking none of them.  Otherwise taken seats are skipped and the rest
	// are booked.
	Strict bool
	Logger *slog.Logger
}

// NewBookingHandler wires a handler.  A nil publisher drops events.
func NewBookingHandler(repo repository.BookingRepo, events queue.Publisher, strict bool, logger *slog.Logger) *BookingHandler {
	if repo == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	if events == nil {
		events = queue.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BookingHandler{Repo: repo, Events: events, Strict: strict, Logger: logger}
}

// BookingConfig handles GET /movie/:id/booking-config.  It returns the
// configuration the booking page embeds: the unit price, the seats that
// are already booked and the movie id.  Unknown movies answer 404 and
// movies that are not showing yet answer 409.
func (h *BookingHandler) BookingConfig(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	ctx := c.Request().Context()
	movie, err := h.Repo.Movie(ctx, id)
	if errors.Is(err, repository.ErrMovieNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	}
	if err != nil {
		h.Logger.Error("load movie", "movie_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store error"})
	}
	if movie.Status == model.MovieComingSoon {
		return c.JSON(http.StatusConflict, echo.Map{"error": MsgComingSoon})
	}
	booked, err := h.Repo.BookedSeats(ctx, id)
	if err != nil {
		h.Logger.Error("load booked seats", "movie_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store error"})
	}
	return c.JSON(http.StatusOK, model.BookingConfig{
		Price:       movie.Price,
		BookedSeats: booked,
		MovieID:     model.MovieIDFromInt(movie.ID),
	})
}

// BookTicket handles POST /book_ticket with a {"movie_id", "seats"} body.
// Seats that are already booked are skipped unless the handler is strict,
// in which case the whole request is refused with "Seat taken".
func (h *BookingHandler) BookTicket(c echo.Context) error {
	var req model.BookingRequest
	if err := c.Bind(&req); err != nil {
		return rejected(c, http.StatusBadRequest, MsgInvalidRequest)
	}
	movieID, ok := req.MovieID.Uint64()
	if !ok || movieID == 0 {
		return rejected(c, http.StatusBadRequest, MsgInvalidRequest)
	}
	seats, ok := uniqueSeats(req.Seats)
	if !ok {
		return rejected(c, http.StatusBadRequest, MsgInvalidSeat)
	}
	if len(seats) == 0 {
		return rejected(c, http.StatusBadRequest, MsgNoSeats)
	}

	ctx := c.Request().Context()
	movie, err := h.Repo.Movie(ctx, movieID)
	if errors.Is(err, repository.ErrMovieNotFound) {
		return rejected(c, http.StatusNotFound, MsgMovieNotFound)
	}
	if err != nil {
		h.Logger.Error("load movie", "movie_id", movieID, "error", err)
		return rejected(c, http.StatusInternalServerError, MsgServerError)
	}
	if movie.Status == model.MovieComingSoon {
		return rejected(c, http.StatusConflict, MsgComingSoon)
	}

	if h.Strict {
		taken, err := h.Repo.BookedSeats(ctx, movieID)
		if err != nil {
			h.Logger.Error("load booked seats", "movie_id", movieID, "error", err)
			return rejected(c, http.StatusInternalServerError, MsgServerError)
		}
		if overlaps(taken, seats) {
			return rejected(c, http.StatusConflict, MsgSeatTaken)
		}
	}

	booked, skipped, err := h.Repo.Book(ctx, movieID, seats)
	if err != nil {
		h.Logger.Error("book seats", "movie_id", movieID, "seats", seats, "error", err)
		return rejected(c, http.StatusInternalServerError, MsgServerError)
	}
	// Another request may have won a seat between the strict check and
	// Book.  Strict mode books all or nothing, so the claimed seats go back.
	if h.Strict && len(skipped) > 0 {
		if len(booked) > 0 {
			if err := h.Repo.Cancel(ctx, movieID, booked); err != nil {
				h.Logger.Error("cancel partial booking", "movie_id", movieID, "error", err)
				return rejected(c, http.StatusInternalServerError, MsgServerError)
			}
		}
		return rejected(c, http.StatusConflict, MsgSeatTaken)
	}
	h.Logger.Info("booking accepted", "movie_id", movieID, "booked", len(booked), "skipped", skipped)
	resp := model.BookingResponse{Status: model.StatusSuccess, Skipped: skipped}
	for _, b := range booked {
		resp.BookingIDs = append(resp.BookingIDs, b.ID)
	}
	if len(booked) > 0 {
		h.publish(ctx, movie, booked, skipped)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) publish(ctx context.Context, movie model.Movie, booked []model.Booking, skipped []string) {
	ev := queue.BookingConfirmedEvent{
		MovieID:     movie.ID,
		MovieTitle:  movie.Title,
		Skipped:     skipped,
		UnitPrice:   movie.Price,
		Total:       movie.Price * int64(len(booked)),
		ConfirmedAt: booked[0].BookedAt.Format(time.RFC3339),
	}
	for _, b := range booked {
		ev.BookingIDs = append(ev.BookingIDs, b.ID)
		ev.Seats = append(ev.Seats, b.Seat)
	}
	if err := h.Events.PublishBookingConfirmed(ctx, ev); err != nil {
		h.Logger.Warn("publish booking event", "movie_id", movie.ID, "error", err)
	}
}

// History handles GET /history.  It lists every booking with its movie,
// oldest first, under "items".
func (h *BookingHandler) History(c echo.Context) error {
	ctx := c.Request().Context()
	items, err := historyEntries(ctx, h.Repo)
	if err != nil {
		h.Logger.Error("load history", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func historyEntries(ctx context.Context, repo repository.BookingRepo) ([]model.HistoryEntry, error) {
	bookings, err := repo.History(ctx)
	if err != nil {
		return nil, err
	}
	movies, err := repo.Movies(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint64]model.Movie, len(movies))
	for _, m := range movies {
		byID[m.ID] = m
	}
	items := make([]model.HistoryEntry, 0, len(bookings))
	for _, b := range bookings {
		m := byID[b.MovieID]
		items = append(items, model.HistoryEntry{
			BookingID:  b.ID,
			MovieID:    b.MovieID,
			MovieTitle: m.Title,
			Seat:       b.Seat,
			Price:      m.Price,
			Status:     b.Status,
			BookedAt:   b.BookedAt,
		})
	}
	return items, nil
}

func rejected(c echo.Context, status int, msg string) error {
	return c.JSON(status, model.BookingResponse{Status: model.StatusError, Msg: msg})
}

// uniqueSeats drops duplicate labels, keeping request order.  It reports
// false when a label is not a seat label.
func uniqueSeats(seats []string) ([]string, bool) {
	out := make([]string, 0, len(seats))
	seen := make(map[string]struct{}, len(seats))
	for _, s := range seats {
		if _, _, err := model.ParseSeatLabel(s); err != nil {
			return nil, false
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, true
}

func overlaps(taken, wanted []string) bool {
	set := make(map[string]struct{}, len(taken))
	for _, s := range taken {
		set[s] = struct{}{}
	}
	for _, s := range wanted {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}
