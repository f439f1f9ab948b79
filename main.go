package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/arena/advisor"
	"github.com/pthm-cable/arena/config"
	"github.com/pthm-cable/arena/game"
	"github.com/pthm-cable/arena/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxLevels := flag.Int("max-levels", 0, "Stop after N levels (0 = unlimited)")
	maxTicks := flag.Int64("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	dbPath := flag.String("db", "", "SQLite profile database (empty = config store.path, then in-memory)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (empty = disabled)")
	playerID := flag.String("player", game.DefaultPlayerID, "Player profile id")
	advisorKey := flag.String("advisor-key", os.Getenv("GEMINI_API_KEY"), "Gemini API key for advisory text (empty = fallback text only)")
	logStats := flag.Bool("log-stats", false, "Output level stats via slog")
	realtime := flag.Bool("realtime", false, "Run at wall-clock speed instead of as fast as possible")
	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(runOptions{
		configPath:  *configPath,
		seed:        *seed,
		maxLevels:   *maxLevels,
		maxTicks:    *maxTicks,
		dbPath:      *dbPath,
		outputDir:   *outputDir,
		metricsAddr: *metricsAddr,
		playerID:    *playerID,
		advisorKey:  *advisorKey,
		logStats:    *logStats,
		realtime:    *realtime,
	}); err != nil {
		slog.Error("session failed", "error", err)
		os.Exit(1)
	}
}

type runOptions struct {
	configPath  string
	seed        int64
	maxLevels   int
	maxTicks    int64
	dbPath      string
	outputDir   string
	metricsAddr string
	playerID    string
	advisorKey  string
	logStats    bool
	realtime    bool
}

func run(ro runOptions) error {
	cfg, err := config.Load(ro.configPath)
	if err != nil {
		return err
	}
	if ro.dbPath != "" {
		cfg.Store.Path = ro.dbPath
	}

	rngSeed := ro.seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := game.Options{
		Seed:      rngSeed,
		PlayerID:  ro.playerID,
		MaxLevels: ro.maxLevels,
		LogStats:  ro.logStats,
		OutputDir: ro.outputDir,
		Metrics:   telemetry.NewMetrics(reg),
	}
	if ro.advisorKey != "" && cfg.Advisor.Enabled {
		svc, err := advisor.NewGeminiService(ctx, ro.advisorKey, cfg.Advisor.Model)
		if err != nil {
			slog.Warn("advisor unavailable, using fallback text", "error", err)
		} else {
			opts.Advisor = svc
		}
	}

	g, err := game.NewGame(ctx, cfg, opts)
	if err != nil {
		return err
	}

	slog.Info("starting session",
		"seed", rngSeed,
		"player", ro.playerID,
		"max_levels", ro.maxLevels,
		"max_ticks", ro.maxTicks,
		"realtime", ro.realtime,
		"advisor", opts.Advisor != nil,
	)

	eg, egCtx := errgroup.WithContext(ctx)
	simCtx, cancelSim := context.WithCancel(egCtx)
	defer cancelSim()

	var srv *http.Server
	if ro.metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv = &http.Server{Addr: ro.metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		eg.Go(func() error {
			slog.Info("serving metrics", "addr", ro.metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	eg.Go(func() error {
		defer func() {
			if srv != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					slog.Error("metrics server shutdown", "error", err)
				}
			}
		}()

		pilot := game.NewAutopilot(rngSeed)
		if ro.realtime {
			if ro.maxTicks > 0 {
				var cancel context.CancelFunc
				simCtx, cancel = context.WithTimeout(simCtx, time.Duration(float64(ro.maxTicks)*cfg.Sim.DT*float64(time.Second)))
				defer cancel()
			}
			err := g.Run(simCtx, pilot)
			if errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		ticks, err := g.RunHeadless(simCtx, pilot, ro.maxTicks)
		slog.Info("session stopped", "ticks", ticks, "levels", g.LevelsDone(), "game", g)
		return err
	})

	runErr := eg.Wait()
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}
	return errors.Join(runErr, g.Close())
}
