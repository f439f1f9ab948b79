package game

import (
	"time"

	"github.com/pthm-cable/arena/advisor"
	"github.com/pthm-cable/arena/store"
	"github.com/pthm-cable/arena/telemetry"
)

// DefaultPlayerID is used when Options.PlayerID is empty.
const DefaultPlayerID = "local"

// maxOutcomeHistory bounds the level outcomes fed back into generation.
const maxOutcomeHistory = 20

// maxMessages bounds the on-screen message log.
const maxMessages = 16

// Options holds the session settings and collaborators. Nil collaborators
// get defaults: an in-memory (or configured SQLite) store, log-only effects,
// no metrics and no journal unless the config names a directory.
type Options struct {
	Seed      int64
	PlayerID  string
	MaxLevels int    // stop after this many finished levels (0 = unlimited)
	LogStats  bool   // log level and perf stats via slog
	OutputDir string // CSV, config and snapshot output (empty = disabled)

	Store   store.Store
	Advisor advisor.Service // nil = fallback phrases only
	Metrics *telemetry.Metrics
	Journal *telemetry.Journal
	Effects Effects

	// Clock supplies wall time for frame measurement and session rows.
	Clock func() time.Time
}
