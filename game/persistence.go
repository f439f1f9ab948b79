package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/pthm-cable/arena/difficulty"
	"github.com/pthm-cable/arena/player"
	"github.com/pthm-cable/arena/procgen"
)

// Preference keys stored on the player record.
const (
	prefWeapon = "weapon"
	prefStyle  = "style"
	prefMap    = "last_map"
)

// learningData is the opaque blob persisted in store.Record.LearningData.
type learningData struct {
	Learner    player.LearnerState        `json:"learner"`
	Model      json.RawMessage            `json:"model,omitempty"`
	Difficulty difficulty.ControllerState `json:"difficulty"`
	Outcomes   []procgen.Outcome          `json:"outcomes,omitempty"`
}

// loadProfile restores the persisted record into the adaptation systems.
// Malformed learning data falls back to defaults.
func (g *Game) loadProfile(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	rec, err := g.store.Load(ctx, g.opts.PlayerID)
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}
	g.record = rec
	g.profile.Accuracy = float32(rec.Accuracy)

	if len(rec.LearningData) > 0 {
		var ld learningData
		if err := json.Unmarshal(rec.LearningData, &ld); err != nil {
			slog.Warn("ignoring malformed learning data", "player", rec.PlayerID, "error", err)
		} else {
			g.learner.Restore(ld.Learner)
			g.difficulty.Restore(ld.Difficulty)
			if len(ld.Model) > 0 {
				if err := json.Unmarshal(ld.Model, g.model); err != nil {
					slog.Warn("ignoring malformed difficulty model", "player", rec.PlayerID, "error", err)
				}
			}
			g.history = boundOutcomes(ld.Outcomes)
		}
	}

	g.player.Weapon = 0
	if w, err := strconv.Atoi(rec.Preferences[prefWeapon]); err == nil && w >= 0 && w < len(Weapons) {
		g.player.Weapon = w
	}

	recent, err := g.store.RecentSessions(ctx, g.opts.PlayerID, 5)
	if err != nil {
		slog.Warn("failed to read recent sessions", "player", rec.PlayerID, "error", err)
	}
	rageQuits := 0
	for _, s := range recent {
		if s.RageQuit {
			rageQuits++
		}
	}
	slog.Info("profile loaded",
		"player", rec.PlayerID,
		"best_level", rec.BestLevel,
		"total_kills", rec.TotalKills,
		"difficulty", g.difficulty.Value(),
		"recent_sessions", len(recent),
		"recent_rage_quits", rageQuits,
	)
	return nil
}

// saveProfile writes the record at a level boundary. Failures are logged;
// the session carries on with the in-memory state.
func (g *Game) saveProfile(levelCompleted bool, kills int) {
	if g.store == nil {
		return
	}
	rec := g.record
	rec.Accuracy = float64(g.profile.Accuracy)
	rec.TotalKills += kills
	if levelCompleted && g.levelNum > rec.BestLevel {
		rec.BestLevel = g.levelNum
	}
	prefs := make(map[string]string, len(rec.Preferences)+3)
	for k, v := range rec.Preferences {
		prefs[k] = v
	}
	prefs[prefWeapon] = strconv.Itoa(g.preferredWeapon())
	prefs[prefStyle] = g.profile.Style.String()
	prefs[prefMap] = g.level.Map.String()
	rec.Preferences = prefs
	rec.UpdatedAt = g.now()

	model, err := json.Marshal(g.model)
	if err != nil {
		slog.Error("failed to encode difficulty model", "error", err)
	}
	data, err := json.Marshal(learningData{
		Learner:    g.learner.Snapshot(),
		Model:      model,
		Difficulty: g.difficulty.Snapshot(),
		Outcomes:   g.history,
	})
	if err != nil {
		slog.Error("failed to encode learning data", "error", err)
		return
	}
	rec.LearningData = data

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := g.store.Save(ctx, rec); err != nil {
		slog.Error("failed to save profile", "player", rec.PlayerID, "error", err)
		return
	}
	g.record = rec
}

// preferredWeapon is the most used weapon so far, or the current one.
func (g *Game) preferredWeapon() int {
	best, bestUse := g.player.Weapon, 0
	for i := range Weapons {
		if use := g.profile.WeaponUse[i]; use > bestUse {
			best, bestUse = i, use
		}
	}
	return best
}

func boundOutcomes(h []procgen.Outcome) []procgen.Outcome {
	if len(h) > maxOutcomeHistory {
		h = h[len(h)-maxOutcomeHistory:]
	}
	return append([]procgen.Outcome(nil), h...)
}
