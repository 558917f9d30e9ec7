package database

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/charlie0129/chess-stats-go/internal/chesscom"
)

type DB struct {
	*sql.DB
}

func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	d := &DB{db}
	if err := d.migrate(); err != nil {
		return nil, err
	}

	slog.Info("database initialized", "path", path)
	return d, nil
}

func (db *DB) migrate() error {
	migrations := []string{
		// One row per fetched monthly archive
		`CREATE TABLE IF NOT EXISTS archives (
			url TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			games TEXT NOT NULL,
			game_count INTEGER NOT NULL,
			fetched_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_archives_username ON archives(username)`,

		// Usernames recently checked, drives the refresh job
		`CREATE TABLE IF NOT EXISTS lookups (
			username TEXT PRIMARY KEY,
			last_checked_at DATETIME NOT NULL
		)`,

		// Export files written to the downloads dir
		`CREATE TABLE IF NOT EXISTS exports (
			file_name TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			kind TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_exports_created_at ON exports(created_at)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}

// --- Archive operations ---

type Archive struct {
	URL       string
	Username  string
	Year      int
	Month     int
	Games     []chesscom.Game
	FetchedAt time.Time
}

// GetArchive returns the cached month, or nil when it has never been fetched.
func (db *DB) GetArchive(url string) (*Archive, error) {
	var a Archive
	var raw string
	err := db.QueryRow(`
		SELECT url, username, year, month, games, fetched_at
		FROM archives WHERE url = ?
	`, url).Scan(&a.URL, &a.Username, &a.Year, &a.Month, &raw, &a.FetchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &a.Games); err != nil {
		return nil, err
	}
	return &a, nil
}

func (db *DB) UpsertArchive(a *Archive) error {
	games := a.Games
	if games == nil {
		games = []chesscom.Game{}
	}
	raw, err := json.Marshal(games)
	if err != nil {
		return err
	}
	fetchedAt := a.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = time.Now()
	}
	_, err = db.Exec(`
		INSERT INTO archives (url, username, year, month, games, game_count, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			games = excluded.games,
			game_count = excluded.game_count,
			fetched_at = excluded.fetched_at
	`, a.URL, a.Username, a.Year, a.Month, string(raw), len(games), fetchedAt.UTC())
	return err
}

func (db *DB) CountArchives(username string) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM archives WHERE username = ?", username).Scan(&count)
	return count, err
}

// --- Lookup operations ---

// Timestamps are stored in UTC so range queries compare as text.
func (db *DB) RecordLookup(username string, at time.Time) error {
	_, err := db.Exec(`
		INSERT INTO lookups (username, last_checked_at)
		VALUES (?, ?)
		ON CONFLICT(username) DO UPDATE SET last_checked_at = excluded.last_checked_at
	`, username, at.UTC())
	return err
}

// RecentLookups lists usernames checked at or after since.
func (db *DB) RecentLookups(since time.Time) ([]string, error) {
	rows, err := db.Query(`
		SELECT username FROM lookups
		WHERE last_checked_at >= ? ORDER BY last_checked_at DESC
	`, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// --- Export operations ---

type Export struct {
	FileName  string
	Username  string
	Kind      string
	CreatedAt time.Time
}

func (db *DB) RecordExport(e *Export) error {
	_, err := db.Exec(`
		INSERT INTO exports (file_name, username, kind, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(file_name) DO UPDATE SET created_at = excluded.created_at
	`, e.FileName, e.Username, e.Kind, e.CreatedAt.UTC())
	return err
}

// ExpiredExports lists exports created before the cutoff, oldest first.
func (db *DB) ExpiredExports(before time.Time) ([]Export, error) {
	rows, err := db.Query(`
		SELECT file_name, username, kind, created_at
		FROM exports WHERE created_at < ? ORDER BY created_at
	`, before.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exports []Export
	for rows.Next() {
		var e Export
		if err := rows.Scan(&e.FileName, &e.Username, &e.Kind, &e.CreatedAt); err != nil {
			return nil, err
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}

func (db *DB) DeleteExport(fileName string) error {
	_, err := db.Exec("DELETE FROM exports WHERE file_name = ?", fileName)
	return err
}
