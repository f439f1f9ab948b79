package telemetry

import (
	"testing"

	"github.com/pthm-cable/arena/config"
)

func testBookmarks() *BookmarkDetector {
	cfg := config.Default()
	return NewBookmarkDetector(&cfg.Bookmarks, 10)
}

func hasBookmark(bms []Bookmark, t BookmarkType) bool {
	for _, bm := range bms {
		if bm.Type == t {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_Flawless(t *testing.T) {
	bd := testBookmarks()

	tests := []struct {
		name  string
		stats LevelStats
		want  bool
	}{
		{"flawless", LevelStats{Level: 1, Outcome: OutcomeComplete, Kills: 5, MinHealth: 1}, true},
		{"took damage", LevelStats{Level: 2, Outcome: OutcomeComplete, Kills: 5, DamageTaken: 1, MinHealth: 0.99}, false},
		{"too few kills", LevelStats{Level: 3, Outcome: OutcomeComplete, Kills: 1, MinHealth: 1}, false},
		{"failed", LevelStats{Level: 4, Outcome: OutcomeFailed, Kills: 5, MinHealth: 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hasBookmark(bd.Check(tt.stats), BookmarkFlawless)
			if got != tt.want {
				t.Errorf("flawless = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBookmarkDetector_NearDeath(t *testing.T) {
	bd := testBookmarks()

	if !hasBookmark(bd.Check(LevelStats{Outcome: OutcomeComplete, MinHealth: 0.05, DamageTaken: 95}), BookmarkNearDeath) {
		t.Error("expected near_death bookmark")
	}
	if hasBookmark(bd.Check(LevelStats{Outcome: OutcomeFailed, MinHealth: 0}), BookmarkNearDeath) {
		t.Error("a failed level is not a near death")
	}
}

func TestBookmarkDetector_DifficultySpike(t *testing.T) {
	bd := testBookmarks()

	for i := 0; i < 5; i++ {
		bms := bd.Check(LevelStats{Level: i + 1, Outcome: OutcomeFailed, Difficulty: 0.5})
		if hasBookmark(bms, BookmarkDifficultySpike) {
			t.Fatalf("unexpected spike at steady level %d", i+1)
		}
	}

	bms := bd.Check(LevelStats{Level: 6, Outcome: OutcomeFailed, Difficulty: 0.8})
	if !hasBookmark(bms, BookmarkDifficultySpike) {
		t.Error("expected difficulty_spike bookmark")
	}
}

func TestBookmarkDetector_FrustrationSpike(t *testing.T) {
	bd := testBookmarks()

	if hasBookmark(bd.Check(LevelStats{Level: 1, Frustration: 0.9}), BookmarkFrustrationSpike) {
		t.Error("first level has no baseline to spike from")
	}
	bd.Check(LevelStats{Level: 2, Frustration: 0.1})
	if !hasBookmark(bd.Check(LevelStats{Level: 3, Frustration: 0.5}), BookmarkFrustrationSpike) {
		t.Error("expected frustration_spike bookmark")
	}
}
