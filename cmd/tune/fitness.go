package main

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/arena/config"
	"github.com/pthm-cable/arena/difficulty"
	"github.com/pthm-cable/arena/game"
	"github.com/pthm-cable/arena/procgen"
	"github.com/pthm-cable/arena/store"
)

// warmupLevels are skipped when scoring; the controller starts cold.
const warmupLevels = 2

// FitnessEvaluator runs headless sessions and scores how well difficulty
// tracks the player.
type FitnessEvaluator struct {
	params     *ParamVector
	maxLevels  int
	maxTicks   int64
	seeds      []int64
	baseConfig *config.Config

	mu           sync.Mutex
	lastTracking float64 // mean absolute tracking error from the latest Evaluate
	lastLevels   float64 // mean levels reached from the latest Evaluate
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxLevels int, maxTicks int64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxLevels:  maxLevels,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastStats returns the tracking error and mean level count from the most
// recent evaluation.
func (fe *FitnessEvaluator) LastStats() (tracking, levels float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastTracking, fe.lastLevels
}

// runResult holds the results from a single session.
type runResult struct {
	outcomes []procgen.Outcome
	levels   int
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Every seed runs in its own session; fitness is the mean squared distance
// between each level's performance score and the controller target.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.copyConfig()
	fe.params.ApplyToConfig(cfg, x)

	results := make([]runResult, len(fe.seeds))
	var eg errgroup.Group
	for i, seed := range fe.seeds {
		eg.Go(func() error {
			r, err := fe.runSession(cfg, seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		fmt.Printf("evaluation failed: %v\n", err)
		return math.Inf(1)
	}

	fitness := make([]float64, len(results))
	tracking := make([]float64, len(results))
	levels := make([]float64, len(results))
	for i, r := range results {
		fitness[i], tracking[i] = fe.trackingError(cfg, r.outcomes)
		levels[i] = float64(r.levels)
	}

	fe.mu.Lock()
	fe.lastTracking = stat.Mean(tracking, nil)
	fe.lastLevels = stat.Mean(levels, nil)
	fe.mu.Unlock()

	return stat.Mean(fitness, nil)
}

// runSession plays one autopilot session to maxLevels.
func (fe *FitnessEvaluator) runSession(cfg *config.Config, seed int64) (runResult, error) {
	// Deterministic frame clock: one tick of wall time per reading.
	start := time.Unix(0, 0)
	step := time.Duration(cfg.Sim.DT * float64(time.Second))
	var readings int64
	clock := func() time.Time {
		readings++
		return start.Add(time.Duration(readings) * step)
	}

	ctx := context.Background()
	g, err := game.NewGame(ctx, cfg, game.Options{
		Seed:      seed,
		MaxLevels: fe.maxLevels,
		Store:     store.NewMemoryStore(),
		Clock:     clock,
	})
	if err != nil {
		return runResult{}, err
	}
	if _, err := g.RunHeadless(ctx, game.NewAutopilot(seed), fe.maxTicks); err != nil {
		g.Close()
		return runResult{}, err
	}
	r := runResult{outcomes: g.Outcomes(), levels: g.LevelsDone()}
	return r, g.Close()
}

// copyConfig creates a copy of the base config safe to tune. Maps and
// slices are shared; only scalar fields are written.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	cfg.Store.Path = ""
	cfg.Telemetry.JournalDir = ""
	cfg.Advisor.Enabled = false
	return &cfg
}

// trackingError returns the mean squared and mean absolute distance of
// level scores from the target, skipping warmup levels. A session that
// never gets past warmup scores as maximally off target.
func (fe *FitnessEvaluator) trackingError(cfg *config.Config, outcomes []procgen.Outcome) (mse, mae float64) {
	if len(outcomes) <= warmupLevels {
		return 1, 1
	}
	target := cfg.Difficulty.Target
	var sq, abs float64
	scored := outcomes[warmupLevels:]
	for _, o := range scored {
		s := difficulty.PerformanceSample{
			SurvivalRatio:   o.SurvivalRatio,
			HealthRetention: o.HealthRetention,
			KillEfficiency:  o.KillRatio,
		}.Score(&cfg.Difficulty)
		d := s - target
		sq += d * d
		abs += math.Abs(d)
	}
	n := float64(len(scored))
	return sq / n, abs / n
}
