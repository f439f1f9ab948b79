package telemetry

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/pthm-cable/arena/config"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFlawless         BookmarkType = "flawless"
	BookmarkNearDeath        BookmarkType = "near_death"
	BookmarkDifficultySpike  BookmarkType = "difficulty_spike"
	BookmarkFrustrationSpike BookmarkType = "frustration_spike"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Level       int          `csv:"level" json:"level"`
	Seed        int64        `csv:"seed" json:"seed"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"level", b.Level,
		"seed", b.Seed,
		"description", b.Description,
	)
}

// BookmarkDetector flags notable levels against the rolling level history.
type BookmarkDetector struct {
	cfg *config.BookmarksConfig

	// Rolling history (circular buffer)
	history     []LevelStats
	historySize int
	historyIdx  int
	historyFull bool

	last    LevelStats
	hasLast bool
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(cfg *config.BookmarksConfig, historySize int) *BookmarkDetector {
	if historySize < 3 {
		historySize = 3 // minimum for a meaningful difficulty average
	}
	return &BookmarkDetector{
		cfg:         cfg,
		history:     make([]LevelStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes a finished level and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats LevelStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkFlawless(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkNearDeath(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkDifficultySpike(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkFrustrationSpike(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	bd.last = stats
	bd.hasLast = true

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats LevelStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []LevelStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) mark(t BookmarkType, stats LevelStats, format string, args ...any) *Bookmark {
	return &Bookmark{
		Type:        t,
		Level:       stats.Level,
		Seed:        stats.Seed,
		Description: fmt.Sprintf(format, args...),
	}
}

func (bd *BookmarkDetector) checkFlawless(stats LevelStats) *Bookmark {
	if !stats.Completed() || stats.DamageTaken > 0 || stats.Kills < bd.cfg.FlawlessMinKills {
		return nil
	}
	return bd.mark(BookmarkFlawless, stats, "Cleared %d agents without taking damage", stats.Kills)
}

func (bd *BookmarkDetector) checkNearDeath(stats LevelStats) *Bookmark {
	if !stats.Completed() || stats.MinHealth > bd.cfg.NearDeathHealth {
		return nil
	}
	return bd.mark(BookmarkNearDeath, stats, "Cleared the level after dropping to %.0f%% health", stats.MinHealth*100)
}

func (bd *BookmarkDetector) checkDifficultySpike(stats LevelStats) *Bookmark {
	history := bd.getHistory()
	if len(history) < 3 {
		return nil
	}

	var total float64
	for _, h := range history {
		total += h.Difficulty
	}
	avg := total / float64(len(history))

	delta := stats.Difficulty - avg
	if math.Abs(delta) < bd.cfg.DifficultySpike {
		return nil
	}
	return bd.mark(BookmarkDifficultySpike, stats, "Difficulty %.2f is %+.2f from average (%.2f)", stats.Difficulty, delta, avg)
}

func (bd *BookmarkDetector) checkFrustrationSpike(stats LevelStats) *Bookmark {
	if !bd.hasLast {
		return nil
	}
	rise := stats.Frustration - bd.last.Frustration
	if rise < bd.cfg.FrustrationSpike {
		return nil
	}
	return bd.mark(BookmarkFrustrationSpike, stats, "Frustration rose from %.2f to %.2f", bd.last.Frustration, stats.Frustration)
}
