// Package router registers the sandbox backend's routes on an echo
// instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-seat-booking/internal/handler"
)

// RegisterRoutes maps the booking site's endpoints.  bookLimit, when not
// nil, wraps POST /book_ticket only so the home page stays unthrottled
// for the load test.
func RegisterRoutes(e *echo.Echo, h *handler.BookingHandler, bookLimit echo.MiddlewareFunc) {
	e.GET("/healthz", handler.Health)
	e.GET("/", h.Home)

	e.GET("/movie/:id/booking-config", h.BookingConfig)
	var mw []echo.MiddlewareFunc
	if bookLimit != nil {
		mw = append(mw, bookLimit)
	}
	e.POST("/book_ticket", h.BookTicket, mw...)
	e.GET("/history", h.History)

	admin := e.Group("/admin")
	admin.GET("/summary", h.SalesSummary)
	admin.GET("/report", h.Report)
	admin.POST("/reset_seats/:id", h.ResetSeats)
}
