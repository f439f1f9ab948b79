// Package store persists player profiles and play sessions between runs.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by lookups for unknown ids. Load maps it to a
// default record.
var ErrNotFound = errors.New("store: not found")

// Record is a player's persisted profile.
type Record struct {
	PlayerID     string            `json:"player_id"`
	Accuracy     float64           `json:"accuracy"`
	BestLevel    int               `json:"best_level"`
	TotalKills   int               `json:"total_kills"`
	Preferences  map[string]string `json:"preferences"`
	LearningData json.RawMessage   `json:"learning_data,omitempty"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// DefaultRecord is the profile of a player never seen before.
func DefaultRecord(playerID string) Record {
	return Record{
		PlayerID:    playerID,
		BestLevel:   0,
		Preferences: map[string]string{},
	}
}

// Session is one run of the game.
type Session struct {
	ID        string    `json:"id"`
	PlayerID  string    `json:"player_id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Levels    int       `json:"levels"`
	Deaths    int       `json:"deaths"`
	RageQuit  bool      `json:"rage_quit"`
}

// Duration is the session length, zero while it is open.
func (s Session) Duration() time.Duration {
	if s.EndedAt.IsZero() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// Store is the profile store contract.
type Store interface {
	// Load returns the player's record, or DefaultRecord when none exists.
	Load(ctx context.Context, playerID string) (Record, error)
	// Save inserts or replaces the record.
	Save(ctx context.Context, r Record) error
	StartSession(ctx context.Context, playerID string, at time.Time) (Session, error)
	EndSession(ctx context.Context, s Session) error
	// RecentSessions returns up to n sessions, newest first.
	RecentSessions(ctx context.Context, playerID string, n int) ([]Session, error)
	Close() error
}

func newSession(playerID string, at time.Time) Session {
	return Session{ID: uuid.NewString(), PlayerID: playerID, StartedAt: at}
}

// normalize fills fields a partial or legacy record left empty.
func normalize(r Record, playerID string) Record {
	r.PlayerID = playerID
	if r.Preferences == nil {
		r.Preferences = map[string]string{}
	}
	if r.Accuracy < 0 || r.Accuracy > 1 || r.Accuracy != r.Accuracy {
		r.Accuracy = 0
	}
	if r.BestLevel < 0 {
		r.BestLevel = 0
	}
	if r.TotalKills < 0 {
		r.TotalKills = 0
	}
	return r
}

// MemoryStore keeps everything in process. Used when no database path is
// configured.
type MemoryStore struct {
	mu       sync.Mutex
	records  map[string]Record
	sessions map[string]Session
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]Record{}, sessions: map[string]Session{}}
}

func (m *MemoryStore) Load(_ context.Context, playerID string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[playerID]
	if !ok {
		return DefaultRecord(playerID), nil
	}
	r.Preferences = clonePrefs(r.Preferences)
	r.LearningData = append(json.RawMessage(nil), r.LearningData...)
	return normalize(r, playerID), nil
}

func (m *MemoryStore) Save(_ context.Context, r Record) error {
	if r.PlayerID == "" {
		return errors.New("store: empty player id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r.Preferences = clonePrefs(r.Preferences)
	r.LearningData = append(json.RawMessage(nil), r.LearningData...)
	r.UpdatedAt = time.Now()
	m.records[r.PlayerID] = r
	return nil
}

func (m *MemoryStore) StartSession(_ context.Context, playerID string, at time.Time) (Session, error) {
	s := newSession(playerID, at)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

func (m *MemoryStore) EndSession(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return ErrNotFound
	}
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) RecentSessions(_ context.Context, playerID string, n int) ([]Session, error) {
	m.mu.Lock()
	var out []Session
	for _, s := range m.sessions {
		if s.PlayerID == playerID {
			out = append(out, s)
		}
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

func clonePrefs(p map[string]string) map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
