package api

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/charlie0129/chess-stats-go/internal/archive"
	"github.com/charlie0129/chess-stats-go/internal/cache"
	"github.com/charlie0129/chess-stats-go/internal/chesscom"
	"github.com/charlie0129/chess-stats-go/internal/export"
	"github.com/charlie0129/chess-stats-go/internal/format"
	"github.com/charlie0129/chess-stats-go/internal/games"
	"github.com/charlie0129/chess-stats-go/internal/models"
	"github.com/charlie0129/chess-stats-go/internal/stats"
)

const msgNoGames = "no games found for the selected period"

// Upstream is the part of the chess.com client used by the handlers.
type Upstream interface {
	GetPlayer(ctx context.Context, username string) (map[string]any, error)
	GetPlayerStats(ctx context.Context, username string) (map[string]any, error)
	GetArchives(ctx context.Context, username string) ([]string, error)
}

type Fetcher interface {
	Games(ctx context.Context, username string, monthURLs []string) ([]chesscom.Game, models.CacheInfo, error)
}

type Store interface {
	RecordLookup(username string, at time.Time) error
	CountArchives(username string) (int, error)
}

type Handler struct {
	upstream   Upstream
	fetcher    Fetcher
	store      Store
	profiles   cache.Cache
	profileTTL time.Duration
	exports    *export.Writer
	loc        *time.Location
}

type Options struct {
	Upstream   Upstream
	Fetcher    Fetcher
	Store      Store
	Profiles   cache.Cache
	ProfileTTL time.Duration
	Exports    *export.Writer
	Location   *time.Location
}

func NewHandler(opts Options) *Handler {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	profiles := opts.Profiles
	if profiles == nil {
		profiles = cache.NewMemory()
	}
	return &Handler{
		upstream:   opts.Upstream,
		fetcher:    opts.Fetcher,
		store:      opts.Store,
		profiles:   profiles,
		profileTTL: opts.ProfileTTL,
		exports:    opts.Exports,
		loc:        loc,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/check-username/{username}", h.checkUsername)
	mux.HandleFunc("POST /api/download-games", h.downloadGames)
	mux.HandleFunc("POST /api/heatmap-data", h.heatmapData)
	mux.HandleFunc("GET /api/download-file/{filename}", h.downloadFile)
	mux.HandleFunc("GET /api/cache-status/{username}", h.cacheStatus)

	// Health check
	mux.HandleFunc("GET /health", h.healthCheck)
}

// --- Response helpers ---

type APIResponse struct {
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, APIResponse{Error: message})
}

// monthsRequest reads the username and JSON-encoded selected_months form
// fields shared by the games and heatmap endpoints.
func monthsRequest(r *http.Request) (string, []string, error) {
	username := strings.TrimSpace(r.FormValue("username"))
	raw := r.FormValue("selected_months")
	if username == "" || raw == "" {
		return "", nil, errors.New("username and selected_months are required")
	}
	var months []string
	if err := json.Unmarshal([]byte(raw), &months); err != nil {
		return "", nil, errors.New("selected_months must be a JSON array of month urls")
	}
	if len(months) == 0 {
		return "", nil, errors.New("select at least one month")
	}
	return username, months, nil
}

// --- Profile ---

type cachedProfile struct {
	Profile models.Profile `json:"profile"`
}

// profile returns the player document, from the cache when possible.
func (h *Handler) profile(ctx context.Context, username string) (models.Profile, error) {
	key := cache.ProfileKey(username)
	var cp cachedProfile
	ok, err := h.profiles.Get(ctx, key, &cp)
	if err != nil {
		slog.Warn("profile cache read failed", "username", username, "error", err)
	}
	if ok {
		return cp.Profile, nil
	}

	p, err := h.upstream.GetPlayer(ctx, username)
	if err != nil {
		return nil, err
	}
	profile := models.Profile(p)
	if s, err := h.upstream.GetPlayerStats(ctx, username); err == nil {
		profile["stats"] = s
	} else {
		slog.Warn("failed to get player stats", "username", username, "error", err)
	}

	if err := h.profiles.Set(ctx, key, cachedProfile{Profile: profile}, h.profileTTL); err != nil {
		slog.Warn("profile cache write failed", "username", username, "error", err)
	}
	return profile, nil
}

func notFoundMessage(err error) string {
	switch code := chesscom.StatusCode(err); code {
	case http.StatusForbidden:
		return "access limited by the chess.com api, you may have hit the rate limit. wait a few minutes and try again"
	case http.StatusNotFound:
		return "user not found on chess.com"
	case 0:
		return "user not found or error contacting the chess.com api"
	default:
		return fmt.Sprintf("error contacting chess.com (code %d)", code)
	}
}

// --- Handlers ---

// checkUsername reports whether a player exists and lists their months
// GET /api/check-username/{username}
func (h *Handler) checkUsername(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.PathValue("username"))
	if username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}
	ctx := r.Context()

	profile, err := h.profile(ctx, username)
	var archives []string
	if err != nil {
		if chesscom.StatusCode(err) != http.StatusForbidden {
			writeJSON(w, http.StatusOK, models.CheckUsernameResponse{Exists: false, Error: notFoundMessage(err)})
			return
		}
		// the profile endpoint is rate limited more eagerly than archives
		var aerr error
		archives, aerr = h.upstream.GetArchives(ctx, username)
		if aerr != nil {
			writeJSON(w, http.StatusOK, models.CheckUsernameResponse{Exists: false, Error: notFoundMessage(err)})
			return
		}
	} else {
		archives, err = h.upstream.GetArchives(ctx, username)
		if err != nil {
			slog.Error("failed to get archives", "username", username, "error", err)
		}
	}

	// chess.com lists archives oldest first; clients expect newest first
	months := make([]models.MonthRef, 0, len(archives))
	for i := len(archives) - 1; i >= 0; i-- {
		months = append(months, models.MonthRef{URL: archives[i], Label: format.MonthLabel(archives[i])})
	}

	if err := h.store.RecordLookup(strings.ToLower(username), time.Now()); err != nil {
		slog.Error("failed to record lookup", "username", username, "error", err)
	}

	writeJSON(w, http.StatusOK, models.CheckUsernameResponse{
		Exists:  true,
		Months:  months,
		Profile: profile,
	})
}

// loadGames validates the form, confirms the user and returns normalized
// games, newest first. It writes the error response itself and reports
// false when the caller should stop.
func (h *Handler) loadGames(w http.ResponseWriter, r *http.Request) (string, []string, []models.Game, models.CacheInfo, bool) {
	username, months, err := monthsRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", nil, nil, models.CacheInfo{}, false
	}
	ctx := r.Context()

	if _, err := h.profile(ctx, username); err != nil {
		if chesscom.StatusCode(err) == http.StatusNotFound {
			writeError(w, http.StatusNotFound, "user not found on chess.com")
			return "", nil, nil, models.CacheInfo{}, false
		}
		slog.Warn("could not confirm user, fetching anyway", "username", username, "error", err)
	}

	raw, info, err := h.fetcher.Games(ctx, username, months)
	if err != nil && !errors.Is(err, archive.ErrNoMonths) {
		slog.Error("failed to fetch games", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch games")
		return "", nil, nil, models.CacheInfo{}, false
	}
	return username, months, games.NormalizeAll(raw, username, h.loc), info, true
}

// downloadGames fetches the selected months, writes the exports and
// returns the summary with every game
// POST /api/download-games (form: username, selected_months)
func (h *Handler) downloadGames(w http.ResponseWriter, r *http.Request) {
	username, months, played, info, ok := h.loadGames(w, r)
	if !ok {
		return
	}
	if len(played) == 0 {
		writeJSON(w, http.StatusOK, models.DownloadGamesResponse{Success: false, Error: msgNoGames})
		return
	}

	files, err := h.exports.Write(username, played)
	if err != nil {
		slog.Error("failed to write export", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to write export files")
		return
	}

	summary := stats.Summarize(played)
	summary.Period = games.PeriodOf(months)
	summary.CacheInfo = &info
	summary.CSVPath = files.CSV
	summary.JSONPath = files.JSON

	slog.Info("games downloaded", "username", username, "months", len(months), "games", len(played),
		"months_from_cache", info.MonthsFromCache, "months_from_api", info.MonthsFromAPI)

	writeJSON(w, http.StatusOK, models.DownloadGamesResponse{
		Success: true,
		Summary: summary,
		Data:    played,
	})
}

// heatmapData returns weekday x hour counts for the selected months
// POST /api/heatmap-data (form: username, selected_months)
func (h *Handler) heatmapData(w http.ResponseWriter, r *http.Request) {
	_, _, played, _, ok := h.loadGames(w, r)
	if !ok {
		return
	}
	data := games.BuildHeatmap(played, h.loc)
	writeJSON(w, http.StatusOK, models.HeatmapResponse{Success: true, HeatmapData: &data})
}

// downloadFile returns a stored export, hex encoded
// GET /api/download-file/{filename}
func (h *Handler) downloadFile(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	content, err := h.exports.Open(name)
	switch {
	case errors.Is(err, export.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	case errors.Is(err, export.ErrNotFound):
		writeError(w, http.StatusNotFound, "file not found")
		return
	case err != nil:
		slog.Error("failed to read export", "file", name, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	writeJSON(w, http.StatusOK, models.FileResponse{
		FileName:    filepath.Base(name),
		FileContent: hex.EncodeToString(content),
		MimeType:    export.MimeType(name),
	})
}

// cacheStatus returns how many months of a user are cached
// GET /api/cache-status/{username}
func (h *Handler) cacheStatus(w http.ResponseWriter, r *http.Request) {
	username := strings.ToLower(strings.TrimSpace(r.PathValue("username")))
	n, err := h.store.CountArchives(username)
	if err != nil {
		slog.Error("failed to count archives", "username", username, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get cache status")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"username":      username,
		"cached_months": n,
	})
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}
