package handler

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
	"github.com/iliyamo/cinema-seat-booking/internal/repository"
)

// SalesSummary handles GET /admin/summary: tickets sold per movie in
// catalogue order, the input of the sales chart.
func (h *BookingHandler) SalesSummary(c echo.Context) error {
	ctx := c.Request().Context()
	movies, err := h.Repo.Movies(ctx)
	if err != nil {
		h.Logger.Error("load movies", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store error"})
	}
	out := model.SalesSummary{Labels: make([]string, 0, len(movies)), Values: make([]int, 0, len(movies))}
	for _, m := range movies {
		n, err := h.Repo.CountByMovie(ctx, m.ID)
		if err != nil {
			h.Logger.Error("count bookings", "movie_id", m.ID, "error", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store error"})
		}
		out.Labels = append(out.Labels, m.Title)
		out.Values = append(out.Values, n)
	}
	return c.JSON(http.StatusOK, out)
}

// ResetSeats handles POST /admin/reset_seats/:id.  It frees every seat of
// the movie; the released bookings stay in the history.
func (h *BookingHandler) ResetSeats(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
	}
	n, err := h.Repo.Reset(c.Request().Context(), id)
	if errors.Is(err, repository.ErrMovieNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
	}
	if err != nil {
		h.Logger.Error("reset seats", "movie_id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store error"})
	}
	msg := "Studio sudah kosong."
	if n > 0 {
		msg = fmt.Sprintf("%d kursi berhasil di-reset.", n)
	}
	h.Logger.Info("seats reset", "movie_id", id, "released", n)
	return c.JSON(http.StatusOK, echo.Map{"released": n, "msg": msg})
}

// Report handles GET /admin/report?date=YYYY-MM-DD.  It answers a
// semicolon separated CSV of the day's bookings followed by per movie
// totals and the grand total, as a download named Laporan_<date>.csv.
func (h *BookingHandler) Report(c echo.Context) error {
	date := c.QueryParam("date")
	if _, err := time.Parse(time.DateOnly, date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	items, err := historyEntries(c.Request().Context(), h.Repo)
	if err != nil {
		h.Logger.Error("load history", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store error"})
	}

	var buf bytes.Buffer
	buf.WriteString("\ufeff") // UTF-8 BOM
	w := csv.NewWriter(&buf)
	w.Comma = ';'
	_ = w.Write([]string{"ID Transaksi", "Tanggal", "Jam", "Film", "Kursi", "Harga", "Status"})

	var grand int64
	var titles []string
	totals := make(map[string]int64)
	for _, it := range items {
		if it.BookedAt.Format(time.DateOnly) != date {
			continue
		}
		_ = w.Write([]string{
			it.BookingID,
			it.BookedAt.Format(time.DateOnly),
			it.BookedAt.Format(time.TimeOnly),
			it.MovieTitle,
			it.Seat,
			strconv.FormatInt(it.Price, 10),
			it.Status,
		})
		if _, seen := totals[it.MovieTitle]; !seen {
			titles = append(titles, it.MovieTitle)
		}
		totals[it.MovieTitle] += it.Price
		grand += it.Price
	}
	_ = w.Write(nil)
	_ = w.Write([]string{"", "", "", "--- RINCIAN PER FILM ---", "", "", ""})
	for _, t := range titles {
		_ = w.Write([]string{"", "", "", t, "Total:", strconv.FormatInt(totals[t], 10), ""})
	}
	_ = w.Write(nil)
	_ = w.Write([]string{"", "", "", "GRAND TOTAL HARI INI", "", strconv.FormatInt(grand, 10), ""})
	w.Flush()
	if err := w.Error(); err != nil {
		h.Logger.Error("write report", "error", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "report error"})
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "Laporan_"+date+".csv"))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
