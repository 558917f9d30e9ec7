// Package export writes game collections to CSV and JSON files in the
// downloads directory and serves them back by name.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charlie0129/chess-stats-go/internal/database"
	"github.com/charlie0129/chess-stats-go/internal/models"
)

const (
	KindCSV  = "csv"
	KindJSON = "json"
)

var (
	ErrInvalidName = errors.New("invalid file name")
	ErrNotFound    = errors.New("file not found")
)

var csvHeader = []string{
	"date", "timestamp", "user_color", "opponent", "result",
	"time_control", "time_class", "variant", "user_rating", "opponent_rating",
	"pgn", "url", "eco", "opening", "moves",
}

// Store records which files were written so old ones can be pruned.
type Store interface {
	RecordExport(e *database.Export) error
	ExpiredExports(before time.Time) ([]database.Export, error)
	DeleteExport(fileName string) error
}

type Writer struct {
	dir   string
	store Store
	now   func() time.Time
}

func NewWriter(dir string, store Store) *Writer {
	return &Writer{dir: dir, store: store, now: time.Now}
}

type Files struct {
	CSV  string
	JSON string
}

// Write stores games as {username}_games_{YYYYMMDD_HHMMSS}.csv and .json.
func (w *Writer) Write(username string, games []models.Game) (Files, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return Files{}, fmt.Errorf("create downloads dir: %w", err)
	}

	now := w.now()
	base := fmt.Sprintf("%s_games_%s", sanitize(username), now.Format("20060102_150405"))
	files := Files{
		CSV:  filepath.Join(w.dir, base+".csv"),
		JSON: filepath.Join(w.dir, base+".json"),
	}

	if err := writeCSV(files.CSV, games); err != nil {
		return Files{}, err
	}
	if err := writeJSON(files.JSON, games); err != nil {
		return Files{}, err
	}

	for kind, path := range map[string]string{KindCSV: files.CSV, KindJSON: files.JSON} {
		err := w.store.RecordExport(&database.Export{
			FileName:  filepath.Base(path),
			Username:  strings.ToLower(username),
			Kind:      kind,
			CreatedAt: now,
		})
		if err != nil {
			slog.Error("failed to record export", "file", path, "error", err)
		}
	}

	slog.Info("export written", "username", username, "games", len(games), "csv", files.CSV, "json", files.JSON)
	return files, nil
}

func sanitize(username string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, username)
}

func writeCSV(path string, games []models.Game) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, g := range games {
		row := []string{
			g.Date, strconv.FormatInt(g.Timestamp, 10), g.UserColor, g.Opponent, g.Result,
			g.TimeControl, g.TimeClass, g.Variant, strconv.Itoa(g.UserRating), strconv.Itoa(g.OpponentRating),
			g.PGN, g.URL, g.ECO, g.Opening, strconv.Itoa(g.Moves),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return f.Close()
}

func writeJSON(path string, games []models.Game) error {
	if games == nil {
		games = []models.Game{}
	}
	data, err := json.Marshal(games)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// MimeType maps an export name to the type served with it.
func MimeType(name string) string {
	if strings.HasSuffix(name, ".csv") {
		return "text/csv"
	}
	return "application/json"
}

// Open reads a previously written file. Only bare names inside the
// downloads directory are accepted.
func (w *Writer) Open(name string) ([]byte, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return nil, ErrInvalidName
	}
	data, err := os.ReadFile(filepath.Join(w.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Prune deletes exports created before the cutoff and returns how many
// were removed.
func (w *Writer) Prune(before time.Time) (int, error) {
	expired, err := w.store.ExpiredExports(before)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, e := range expired {
		err := os.Remove(filepath.Join(w.dir, e.FileName))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Error("failed to remove export", "file", e.FileName, "error", err)
			continue
		}
		if err := w.store.DeleteExport(e.FileName); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
