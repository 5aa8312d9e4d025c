package handler

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

// SiteName is the brand shown on the home page.  The load test checks
// for it in every response.
const SiteName = "CINEMA X1X"

var homeTemplate = template.Must(template.New("home").Parse(`<!doctype html>
<html lang="id">
<head><meta charset="utf-8"><title>{{.Site}}</title></head>
<body>
<h1>{{.Site}}</h1>
<form action="/" method="get"><input name="q" value="{{.Query}}" placeholder="Cari film"></form>
<h2>Sedang Tayang</h2>
<ul>{{range .NowShowing}}
<li><a href="/movie/{{.ID}}/booking-config">{{.Title}}</a> ({{.Showtime}}, Rp {{.Price}})</li>{{else}}
<li>Tidak ada film.</li>{{end}}
</ul>
<h2>Segera Tayang</h2>
<ul>{{range .ComingSoon}}
<li>{{.Title}}</li>{{else}}
<li>Tidak ada film.</li>{{end}}
</ul>
</body>
</html>
`))

type homePage struct {
	Site       string
	Query      string
	NowShowing []model.Movie
	ComingSoon []model.Movie
}

// Home handles GET /.  It lists the catalogue split into now showing and
// coming soon, filtered by the optional ?q= title search.
func (h *BookingHandler) Home(c echo.Context) error {
	movies, err := h.Repo.Movies(c.Request().Context())
	if err != nil {
		h.Logger.Error("load movies", "error", err)
		return c.String(http.StatusInternalServerError, MsgServerError)
	}
	page := homePage{Site: SiteName, Query: strings.TrimSpace(c.QueryParam("q"))}
	needle := strings.ToLower(page.Query)
	for _, m := range movies {
		if needle != "" && !strings.Contains(strings.ToLower(m.Title), needle) {
			continue
		}
		if m.Status == model.MovieComingSoon {
			page.ComingSoon = append(page.ComingSoon, m)
		} else {
			page.NowShowing = append(page.NowShowing, m)
		}
	}
	var buf bytes.Buffer
	if err := homeTemplate.Execute(&buf, page); err != nil {
		h.Logger.Error("render home", "error", err)
		return c.String(http.StatusInternalServerError, MsgServerError)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
