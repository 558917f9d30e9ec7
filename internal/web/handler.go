// Package web serves the server-rendered UI. Each browser gets its own
// session controller which talks to the JSON API through the HTTP client.
package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/charlie0129/chess-stats-go/internal/charts"
	"github.com/charlie0129/chess-stats-go/internal/format"
	"github.com/charlie0129/chess-stats-go/internal/models"
	"github.com/charlie0129/chess-stats-go/internal/months"
	"github.com/charlie0129/chess-stats-go/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// maxGameRows caps the game table; the charts still use every game.
const maxGameRows = 200

var funcs = template.FuncMap{
	"resultLabel":    format.ResultLabel,
	"colorLabel":     format.ColorLabel,
	"timeClassLabel": format.TimeClassLabel,
	"shortDate":      format.ShortDate,
	"rating":         format.Rating,
	"hour":           format.HourLabel,
	"percent":        format.PercentString,
	"resultColor":    charts.ResultColor,
	"yearLabel": func(year int) string {
		if year == months.UnknownYear {
			return "Other"
		}
		return strconv.Itoa(year)
	},
	"profile": func(p models.Profile, key string) string {
		if v, ok := p[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
		return ""
	},
	"head": func(games []models.Game, n int) []models.Game {
		if len(games) > n {
			return games[:n]
		}
		return games
	},
	"sub": func(a, b int) int { return a - b },
}

type Handler struct {
	sessions *Sessions
	tmpl     *template.Template
}

func NewHandler(sessions *Sessions) *Handler {
	tmpl := template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
	return &Handler{sessions: sessions, tmpl: tmpl}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.index)
	mux.HandleFunc("POST /ui/username", h.submitUsername)
	mux.HandleFunc("POST /ui/months", h.submitMonths)
	mux.HandleFunc("GET /ui/results", h.results)
	mux.HandleFunc("GET /ui/charts/rating.svg", h.chart(ratingChart, "svg"))
	mux.HandleFunc("GET /ui/charts/rating.png", h.chart(ratingChart, "png"))
	mux.HandleFunc("GET /ui/charts/heatmap.svg", h.chart(heatmapChart, "svg"))
	mux.HandleFunc("GET /ui/charts/heatmap.png", h.chart(heatmapChart, "png"))
	mux.HandleFunc("GET /ui/download/{kind}", h.download)
	mux.HandleFunc("POST /ui/banner/dismiss", h.dismissBanner)
}

type pageData struct {
	View      session.View
	State     string
	Matrices  []charts.Matrix
	MaxRows   int
	ChartRev  int // changes whenever a chart is replaced
	HasRating bool
	HasHeat   bool
}

func (h *Handler) render(w http.ResponseWriter, ctrl *session.Controller) {
	v := ctrl.View()
	data := pageData{
		View:      v,
		State:     v.State.String(),
		Matrices:  charts.Matrices,
		MaxRows:   maxGameRows,
		ChartRev:  ctrl.Disposed(),
		HasRating: ctrl.RatingChart() != nil,
		HasHeat:   ctrl.HeatmapChart() != nil,
	}

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "index.html", data); err != nil {
		slog.Error("failed to render page", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	buf.WriteTo(w)
}

func backHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// logAction records controller failures. The banner already carries the
// user-facing message.
func logAction(action string, err error) {
	if err == nil || errors.Is(err, session.ErrSuperseded) {
		return
	}
	slog.Debug("ui action failed", "action", action, "error", err)
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	h.render(w, h.sessions.Get(w, r))
}

func (h *Handler) submitUsername(w http.ResponseWriter, r *http.Request) {
	ctrl := h.sessions.Get(w, r)
	logAction("username", ctrl.SubmitUsername(r.Context(), r.FormValue("username")))
	backHome(w, r)
}

// submitMonths applies the posted checkboxes, then the action. Year
// actions are posted as "select_year:2024" so one form can carry a button
// per year.
func (h *Handler) submitMonths(w http.ResponseWriter, r *http.Request) {
	ctrl := h.sessions.Get(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	action, yearStr, _ := strings.Cut(r.PostForm.Get("action"), ":")
	if yearStr == "" {
		yearStr = r.PostForm.Get("year")
	}
	if action == "" {
		action = "submit"
	}

	ctrl.SetSelected(r.PostForm["month"])

	switch action {
	case "submit":
		logAction(action, ctrl.SubmitMonths(r.Context()))
	case "select_all":
		ctrl.SelectAll()
	case "unselect_all":
		ctrl.UnselectAll()
	case "select_year", "unselect_year", "toggle_year":
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			http.Error(w, "invalid year", http.StatusBadRequest)
			return
		}
		switch action {
		case "select_year":
			ctrl.SelectYear(year)
		case "unselect_year":
			ctrl.UnselectYear(year)
		default:
			ctrl.ToggleYear(year)
		}
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}
	backHome(w, r)
}

// results applies local interactions: tc, start+end, reset and matrix.
func (h *Handler) results(w http.ResponseWriter, r *http.Request) {
	ctrl := h.sessions.Get(w, r)
	q := r.URL.Query()

	if q.Has("tc") {
		logAction("time class", ctrl.SetTimeClass(q.Get("tc")))
	}
	if q.Has("reset") {
		logAction("reset range", ctrl.ResetDateRange())
	} else if q.Has("start") && q.Has("end") {
		start, err1 := strconv.Atoi(q.Get("start"))
		end, err2 := strconv.Atoi(q.Get("end"))
		if err1 != nil || err2 != nil {
			http.Error(w, "invalid range", http.StatusBadRequest)
			return
		}
		logAction("date range", ctrl.SetDateRange(start, end))
	}
	if q.Has("matrix") {
		if err := ctrl.SelectMatrix(q.Get("matrix")); errors.Is(err, charts.ErrUnknownMatrix) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	backHome(w, r)
}

type chartKind int

const (
	ratingChart chartKind = iota
	heatmapChart
)

func (h *Handler) chart(kind chartKind, ext string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctrl := h.sessions.Get(w, r)
		c := ctrl.RatingChart()
		if kind == heatmapChart {
			c = ctrl.HeatmapChart()
		}
		if c == nil {
			http.NotFound(w, r)
			return
		}

		var (
			body []byte
			err  error
		)
		if ext == "png" {
			w.Header().Set("Content-Type", "image/png")
			body, err = c.PNG()
		} else {
			w.Header().Set("Content-Type", "image/svg+xml")
			body, err = c.SVG()
		}
		if errors.Is(err, charts.ErrChartClosed) {
			w.Header().Del("Content-Type")
			http.NotFound(w, r)
			return
		}
		if err != nil {
			slog.Error("failed to render chart", "error", err)
			w.Header().Del("Content-Type")
			http.Error(w, "failed to render chart", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		w.Write(body)
	}
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	ctrl := h.sessions.Get(w, r)
	file, err := ctrl.Download(r.Context(), r.PathValue("kind"))
	if err != nil {
		logAction("download", err)
		backHome(w, r)
		return
	}
	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Content)))
	w.Write(file.Content)
}

func (h *Handler) dismissBanner(w http.ResponseWriter, r *http.Request) {
	h.sessions.Get(w, r).DismissBanner()
	backHome(w, r)
}
