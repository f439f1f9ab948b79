package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a Store on a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
			player_id TEXT PRIMARY KEY,
			accuracy REAL NOT NULL DEFAULT 0,
			best_level INTEGER NOT NULL DEFAULT 0,
			total_kills INTEGER NOT NULL DEFAULT 0,
			preferences TEXT,
			learning_data TEXT,
			updated_at INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			player_id TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			ended_at INTEGER NOT NULL DEFAULT 0,
			levels INTEGER NOT NULL DEFAULT 0,
			deaths INTEGER NOT NULL DEFAULT 0,
			rage_quit INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS sessions_player ON sessions(player_id, started_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Get returns the stored record or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, playerID string) (Record, error) {
	var (
		r        Record
		prefs    sql.NullString
		learning sql.NullString
		updated  int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT player_id, accuracy, best_level, total_kills, preferences, learning_data, updated_at
		 FROM profiles WHERE player_id = ?`, playerID,
	).Scan(&r.PlayerID, &r.Accuracy, &r.BestLevel, &r.TotalKills, &prefs, &learning, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("loading profile %s: %w", playerID, err)
	}
	if prefs.Valid && prefs.String != "" {
		if err := json.Unmarshal([]byte(prefs.String), &r.Preferences); err != nil {
			// A corrupt preferences blob degrades to defaults.
			r.Preferences = nil
		}
	}
	if learning.Valid && learning.String != "" && json.Valid([]byte(learning.String)) {
		r.LearningData = json.RawMessage(learning.String)
	}
	if updated > 0 {
		r.UpdatedAt = time.UnixMilli(updated)
	}
	return r, nil
}

func (s *SQLiteStore) Load(ctx context.Context, playerID string) (Record, error) {
	r, err := s.Get(ctx, playerID)
	if errors.Is(err, ErrNotFound) {
		return DefaultRecord(playerID), nil
	}
	if err != nil {
		return Record{}, err
	}
	return normalize(r, playerID), nil
}

func (s *SQLiteStore) Save(ctx context.Context, r Record) error {
	if r.PlayerID == "" {
		return errors.New("store: empty player id")
	}
	prefs, err := json.Marshal(clonePrefs(r.Preferences))
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	var learning any
	if len(r.LearningData) > 0 {
		learning = string(r.LearningData)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (player_id, accuracy, best_level, total_kills, preferences, learning_data, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(player_id) DO UPDATE SET
			accuracy = excluded.accuracy,
			best_level = excluded.best_level,
			total_kills = excluded.total_kills,
			preferences = excluded.preferences,
			learning_data = excluded.learning_data,
			updated_at = excluded.updated_at`,
		r.PlayerID, r.Accuracy, r.BestLevel, r.TotalKills, string(prefs), learning, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("saving profile %s: %w", r.PlayerID, err)
	}
	return nil
}

func (s *SQLiteStore) StartSession(ctx context.Context, playerID string, at time.Time) (Session, error) {
	sess := newSession(playerID, at)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, player_id, started_at) VALUES (?, ?, ?)`,
		sess.ID, sess.PlayerID, at.UnixMilli(),
	)
	if err != nil {
		return Session{}, fmt.Errorf("starting session: %w", err)
	}
	return sess, nil
}

func (s *SQLiteStore) EndSession(ctx context.Context, sess Session) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ?, levels = ?, deaths = ?, rage_quit = ? WHERE id = ?`,
		sess.EndedAt.UnixMilli(), sess.Levels, sess.Deaths, boolInt(sess.RageQuit), sess.ID,
	)
	if err != nil {
		return fmt.Errorf("ending session %s: %w", sess.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) RecentSessions(ctx context.Context, playerID string, n int) ([]Session, error) {
	if n <= 0 {
		n = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, player_id, started_at, ended_at, levels, deaths, rage_quit
		 FROM sessions WHERE player_id = ? ORDER BY started_at DESC LIMIT ?`, playerID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var (
			sess           Session
			started, ended int64
			rage           int
		)
		if err := rows.Scan(&sess.ID, &sess.PlayerID, &started, &ended, &sess.Levels, &sess.Deaths, &rage); err != nil {
			return nil, err
		}
		sess.StartedAt = time.UnixMilli(started)
		if ended > 0 {
			sess.EndedAt = time.UnixMilli(ended)
		}
		sess.RageQuit = rage != 0
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
