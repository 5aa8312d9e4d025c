package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers "ok" so load balancers and the load test can tell the
// sandbox is up.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
