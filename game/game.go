package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/arena/advisor"
	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/config"
	"github.com/pthm-cable/arena/difficulty"
	"github.com/pthm-cable/arena/player"
	"github.com/pthm-cable/arena/procgen"
	"github.com/pthm-cable/arena/store"
	"github.com/pthm-cable/arena/systems"
	"github.com/pthm-cable/arena/telemetry"
)

// storeTimeout bounds each profile store call made from the frame loop.
const storeTimeout = 2 * time.Second

// Game holds the complete session state. Every subsystem hangs off it.
type Game struct {
	cfg  *config.Config
	opts Options
	rng  *rand.Rand
	now  func() time.Time

	// ECS storage for the current level's agents
	world       *ecs.World
	agentMapper *ecs.Map3[components.Agent, components.Directive, components.Pathing]
	agentFilter *ecs.Filter3[components.Agent, components.Directive, components.Pathing]
	entities    map[uint32]ecs.Entity
	agents      []*components.Agent // live view, regathered after structural changes
	nextID      uint32

	// Current level
	level       *procgen.GeneratedLevel
	levelNum    int
	levelTick   int64
	grid        *systems.NavGrid
	pathfinder  *systems.Pathfinder
	spatial     *systems.SpatialGrid
	executor    *systems.Executor
	coordinator *systems.Coordinator
	bus         *systems.Bus
	events      []activeEvent
	items       []pickup
	mods        modifiers
	spawned     int // agents spawned this level, reinforcements included
	initial     int
	baseSight   map[uint32]float32
	spotted     map[uint32]int64 // last target-spotted broadcast per agent
	calledHelp  map[uint32]bool

	// Player
	player     Player
	profile    components.Profile
	sample     components.PlayerState // accumulated since the last profile update
	lastSample int64
	lastAITick int64

	// Adaptation
	generator  *procgen.Generator
	difficulty *difficulty.Controller
	model      *difficulty.Model
	learner    *player.Learner
	history    []procgen.Outcome

	// Boundaries
	advisor     *advisor.Client
	advDropped  int
	adviceRetry int64 // tick before which no new request is tried
	store       store.Store
	ownStore    bool
	record      store.Record
	session     store.Session
	messages    []Message
	effects     Effects
	lastDeath   int64 // tick of the most recent death, -1 when none
	extended    bool
	levelsDone  int
	advisedLow  bool
	advisedMany bool
	advisedWin  bool

	// Telemetry
	collector  *telemetry.Collector
	perf       *telemetry.PerfCollector
	bookmarks  *telemetry.BookmarkDetector
	output     *telemetry.OutputManager
	metrics    *telemetry.Metrics
	journal    *telemetry.Journal
	pathHits   uint64 // pathfinder counters already reported to metrics
	pathMisses uint64

	// Scheduling
	tick       int64
	aiInterval int
	fpsWindow  []float64
	done       bool
}

// NewGame loads the player's profile, opens the session and generates the
// first level.
func NewGame(ctx context.Context, cfg *config.Config, opts Options) (*Game, error) {
	if opts.PlayerID == "" {
		opts.PlayerID = DefaultPlayerID
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Effects == nil {
		opts.Effects = LogEffects{}
	}

	g := &Game{
		cfg:        cfg,
		opts:       opts,
		rng:        rand.New(rand.NewSource(opts.Seed)),
		now:        opts.Clock,
		effects:    opts.Effects,
		metrics:    opts.Metrics,
		generator:  procgen.NewGenerator(cfg),
		difficulty: difficulty.NewController(&cfg.Difficulty),
		model:      difficulty.NewModel(&cfg.Difficulty),
		learner:    player.NewLearner(&cfg.Learning),
		collector:  telemetry.NewCollector(cfg.Sim.DT),
		perf:       telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		bookmarks:  telemetry.NewBookmarkDetector(&cfg.Bookmarks, cfg.Telemetry.BookmarkHistorySize),
		aiInterval: cfg.Sim.AIIntervalInitial,
		lastDeath:  -1,
	}
	g.perf.SetClock(opts.Clock)

	if err := g.openStore(ctx); err != nil {
		return nil, err
	}
	if err := g.loadProfile(ctx); err != nil {
		g.closeStore()
		return nil, err
	}

	out, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		g.closeStore()
		return nil, fmt.Errorf("output: %w", err)
	}
	g.output = out
	if g.output != nil {
		if err := g.output.WriteConfig(cfg); err != nil {
			slog.Error("failed to write config", "error", err)
		}
	}

	g.journal = opts.Journal
	if g.journal == nil {
		g.journal = telemetry.NewJournal(cfg.Telemetry.JournalDir, "arena")
		g.journal.SetClock(opts.Clock)
	}
	if cfg.Advisor.Enabled {
		g.advisor = advisor.NewClient(opts.Advisor, &cfg.Advisor)
	}
	g.metrics.SetAIInterval(g.aiInterval)
	g.metrics.SetDifficulty(g.difficulty.Value())

	g.startLevel(g.record.BestLevel + 1)
	return g, nil
}

func (g *Game) openStore(ctx context.Context) error {
	switch {
	case g.opts.Store != nil:
		g.store = g.opts.Store
	case g.cfg.Store.Path != "":
		s, err := store.OpenSQLite(g.cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("profile store: %w", err)
		}
		g.store, g.ownStore = s, true
	default:
		g.store, g.ownStore = store.NewMemoryStore(), true
	}

	sess, err := g.store.StartSession(ctx, g.opts.PlayerID, g.now())
	if err != nil {
		g.closeStore()
		return fmt.Errorf("starting session: %w", err)
	}
	g.session = sess
	return nil
}

func (g *Game) closeStore() {
	if g.ownStore && g.store != nil {
		if err := g.store.Close(); err != nil {
			slog.Error("failed to close profile store", "error", err)
		}
	}
	g.store = nil
}

// Close ends the session, waits for in-flight advisory requests and
// releases every output.
func (g *Game) Close() error {
	var errs []error

	if g.advisor != nil {
		g.advisor.Wait()
		g.drainAdvice()
	}

	if g.store != nil {
		g.session.EndedAt = g.now()
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		if err := g.store.EndSession(ctx, g.session); err != nil {
			errs = append(errs, fmt.Errorf("ending session: %w", err))
		}
		cancel()
		if g.ownStore {
			if err := g.store.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing store: %w", err))
			}
		}
		g.store = nil
	}

	if g.output != nil {
		if err := g.output.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing output: %w", err))
		}
	}
	if err := g.journal.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing journal: %w", err))
	}
	return errors.Join(errs...)
}

// Tick returns the session tick.
func (g *Game) Tick() int64 { return g.tick }

// LevelTick returns ticks elapsed in the current level.
func (g *Game) LevelTick() int64 { return g.levelTick }

// LevelNum returns the current level number.
func (g *Game) LevelNum() int { return g.levelNum }

// Level returns the current generated level. It is replaced wholesale on
// every transition and must not be modified.
func (g *Game) Level() *procgen.GeneratedLevel { return g.level }

// LevelsDone returns how many levels have finished this session.
func (g *Game) LevelsDone() int { return g.levelsDone }

// Done reports whether the session has ended.
func (g *Game) Done() bool { return g.done }

// Difficulty returns the current difficulty scalar.
func (g *Game) Difficulty() float64 { return g.difficulty.Value() }

// Profile returns a copy of the player profile.
func (g *Game) Profile() components.Profile { return g.profile }

// Strategy returns the hive-mind's active strategy.
func (g *Game) Strategy() systems.Strategy { return g.coordinator.Strategy() }

// AIInterval returns the current ticks between AI updates.
func (g *Game) AIInterval() int { return g.aiInterval }

// Player returns a copy of the player state.
func (g *Game) Player() Player { return g.player }

// Session returns the current session row.
func (g *Game) Session() store.Session { return g.session }

// Record returns the player's persisted record as last saved.
func (g *Game) Record() store.Record { return g.record }

// Outcomes returns the recent level outcomes fed to generation.
func (g *Game) Outcomes() []procgen.Outcome {
	return append([]procgen.Outcome(nil), g.history...)
}

// Messages returns the on-screen message log, oldest first.
func (g *Game) Messages() []Message {
	return append([]Message(nil), g.messages...)
}

// Agents returns copies of the live agents.
func (g *Game) Agents() []components.Agent {
	out := make([]components.Agent, 0, len(g.agents))
	for _, a := range g.agents {
		if a.Alive() {
			out = append(out, *a)
		}
	}
	return out
}

// LiveAgents returns the number of live agents.
func (g *Game) LiveAgents() int {
	n := 0
	for _, a := range g.agents {
		if a.Alive() {
			n++
		}
	}
	return n
}

// PathTo plans a path across the current level.
func (g *Game) PathTo(from, to components.Position) []components.Position {
	return g.pathfinder.FindPath(from, to)
}

// Visible reports whether the straight line between two points is clear.
func (g *Game) Visible(a, b components.Position) bool {
	clear, _ := g.pathfinder.LineOfSight(a, b)
	return clear
}

// Items returns the pickups still on the map.
func (g *Game) Items() []procgen.Item {
	var out []procgen.Item
	for _, p := range g.items {
		if !p.taken {
			out = append(out, p.Item)
		}
	}
	return out
}

// nowMs returns the simulated session time in milliseconds.
func (g *Game) nowMs() int64 {
	return g.tick * g.cfg.Derived.TickMs
}

// simTime maps the simulated clock onto wall time anchored at session start.
func (g *Game) simTime() time.Time {
	return g.session.StartedAt.Add(time.Duration(float64(g.tick) * g.cfg.Sim.DT * float64(time.Second)))
}
