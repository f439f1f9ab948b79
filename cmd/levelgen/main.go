// Level generation preview tool. Generates one level for a seed and a
// synthetic player profile, prints the ASCII layout and optionally writes
// the JSON snapshot.
//
// Usage: go run ./cmd/levelgen -seed 7 -level 3 -accuracy 0.6 -style rusher
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/pthm-cable/arena/components"
	"github.com/pthm-cable/arena/config"
	"github.com/pthm-cable/arena/difficulty"
	"github.com/pthm-cable/arena/procgen"
	"github.com/pthm-cable/arena/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Config YAML file (empty = use defaults)")
	seed := flag.Int64("seed", 1, "Generation seed")
	level := flag.Int("level", 1, "Level number")
	accuracy := flag.Float64("accuracy", 0.3, "Synthetic player accuracy [0,1]")
	survival := flag.Float64("survival", 0.5, "Synthetic survival ratio of the previous level [0,1]")
	kills := flag.Float64("kills", 0.5, "Synthetic kill ratio of the previous level [0,1]")
	style := flag.String("style", "tactical", "Play style: tactical, camper or rusher")
	frustration := flag.Float64("frustration", 0, "Synthetic frustration [0,1]")
	engagement := flag.Float64("engagement", 0.5, "Synthetic engagement [0,1]")
	snapshotDir := flag.String("snapshot-dir", "", "Write the level snapshot JSON here (empty = print to stdout)")
	jsonOnly := flag.Bool("json", false, "Print only the JSON snapshot")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ps, ok := components.ParsePlayStyle(*style)
	if !ok {
		log.Fatalf("unknown play style %q", *style)
	}

	profile := components.Profile{
		ShotsFired:  100,
		ShotsHit:    int(*accuracy * 100),
		Accuracy:    float32(*accuracy),
		Style:       ps,
		Frustration: float32(*frustration),
		Engagement:  float32(*engagement),
	}
	var history []procgen.Outcome
	if *level > 1 {
		history = append(history, procgen.Outcome{
			Level:         *level - 1,
			Accuracy:      *accuracy,
			SurvivalRatio: *survival,
			KillRatio:     *kills,
			Died:          *survival < 1,
		})
	}

	gen := procgen.NewGenerator(cfg)
	lvl := gen.Generate(*level, profile, history, difficulty.NewModel(&cfg.Difficulty), *seed)
	snap := telemetry.NewSnapshot(lvl)

	if *snapshotDir != "" {
		path, err := telemetry.SaveSnapshot(snap, *snapshotDir)
		if err != nil {
			log.Fatalf("failed to save snapshot: %v", err)
		}
		fmt.Fprintf(os.Stderr, "snapshot saved to %s\n", path)
	}

	if !*jsonOnly {
		fmt.Printf("Level %d  seed=%d  map=%s  fallback=%v  target=%.2f  skill=%.2f\n",
			lvl.Spec.Level, lvl.Seed, lvl.Map, lvl.Fallback, lvl.Spec.TargetDifficulty, lvl.Spec.Skill)
		fmt.Printf("%s\n%s\n\n", lvl.Narrative.Title, lvl.Narrative.Briefing)
		fmt.Print(lvl.ASCII())
		fmt.Printf("\nagents=%d items=%d events=%d\n", len(lvl.Agents), len(lvl.Items), len(lvl.Events))
		for _, ev := range lvl.Events {
			fmt.Printf("  %-18s at %6.1fs for %5.1fs  x%.2f\n", ev.Kind, ev.DelayS, ev.DurationS, ev.Magnitude)
		}
		for _, f := range lvl.Failures {
			fmt.Printf("  generation: %v\n", f)
		}
		if *snapshotDir != "" {
			return
		}
		fmt.Println()
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		log.Fatalf("failed to marshal snapshot: %v", err)
	}
	fmt.Println(string(data))
}
