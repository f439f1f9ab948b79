// Package config provides configuration loading for the arena simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
// A *Config is passed explicitly to every subsystem constructor.
type Config struct {
	Sim         SimConfig         `yaml:"sim"`
	World       WorldConfig       `yaml:"world"`
	Player      PlayerConfig      `yaml:"player"`
	Pathfinding PathfindingConfig `yaml:"pathfinding"`
	Behavior    BehaviorConfig    `yaml:"behavior"`
	Comms       CommsConfig       `yaml:"comms"`
	Hivemind    HivemindConfig    `yaml:"hivemind"`
	Profile     ProfileConfig     `yaml:"profile"`
	Learning    LearningConfig    `yaml:"learning"`
	Procgen     ProcgenConfig     `yaml:"procgen"`
	Difficulty  DifficultyConfig  `yaml:"difficulty"`
	Archetypes  []ArchetypeConfig `yaml:"archetypes"`
	Advisor     AdvisorConfig     `yaml:"advisor"`
	Store       StoreConfig       `yaml:"store"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Bookmarks   BookmarksConfig   `yaml:"bookmarks"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimConfig holds the fixed-timestep loop and AI throttling parameters.
type SimConfig struct {
	DT                float64 `yaml:"dt"`                  // seconds per tick
	MaxTicksPerLevel  int     `yaml:"max_ticks_per_level"` // level fails when exceeded
	AIIntervalInitial int     `yaml:"ai_interval_initial"` // ticks between AI updates
	AIIntervalMin     int     `yaml:"ai_interval_min"`
	AIIntervalMax     int     `yaml:"ai_interval_max"`
	FPSLowWater       float64 `yaml:"fps_low_water"`  // raise interval below this
	FPSHighWater      float64 `yaml:"fps_high_water"` // lower interval above this
	FPSWindow         int     `yaml:"fps_window"`     // frames averaged per adjustment
	MaxFrameSkip      int     `yaml:"max_frame_skip"` // ticks per wall frame cap in Run
}

// WorldConfig holds arena grid dimensions.
type WorldConfig struct {
	Width    int     `yaml:"width"`     // cells
	Height   int     `yaml:"height"`    // cells
	CellSize float64 `yaml:"cell_size"` // world units per cell
}

// PlayerConfig holds the player's base combat values.
type PlayerConfig struct {
	MaxHealth    float64 `yaml:"max_health"`
	MaxAmmo      int     `yaml:"max_ammo"`
	Speed        float64 `yaml:"speed"`
	Damage       float64 `yaml:"damage"`
	FireInterval float64 `yaml:"fire_interval"`
	Range        float64 `yaml:"range"`
	HitChance    float64 `yaml:"hit_chance"` // autopilot aim quality
	Radius       float64 `yaml:"radius"`
}

// PathfindingConfig holds A* and cache parameters.
type PathfindingConfig struct {
	CacheSize     int `yaml:"cache_size"`
	MaxIterations int `yaml:"max_iterations"` // 0 = grid area
	RepathTicks   int `yaml:"repath_ticks"`
}

// BehaviorConfig holds behavior tree thresholds.
type BehaviorConfig struct {
	PanicHealth           float64 `yaml:"panic_health"`            // fraction of max
	TacticalRetreatThreat float64 `yaml:"tactical_retreat_threat"` // adaptive only
	StalenessMs           int64   `yaml:"staleness_ms"`
	FleeDistance          float64 `yaml:"flee_distance"`
	FleePerturbation      float64 `yaml:"flee_perturbation"` // radians
	WanderRadius          float64 `yaml:"wander_radius"`
	WanderArrive          float64 `yaml:"wander_arrive"`
	FlankOffset           float64 `yaml:"flank_offset"`
	CoverOffset           float64 `yaml:"cover_offset"`
	FastRetreatMs         int64   `yaml:"fast_retreat_ms"`
	ThreatDecay           float64 `yaml:"threat_decay"` // per second
	BaitCommit            float64 `yaml:"bait_commit"`  // player distance at which a bait stops feigning
	BaitSpeed             float64 `yaml:"bait_speed"`   // speed multiplier while feigning
}

// CommsConfig holds communication bus parameters.
type CommsConfig struct {
	TTLMs             int64   `yaml:"ttl_ms"`
	Range             float64 `yaml:"range"`
	UnderAttackThreat float64 `yaml:"under_attack_threat"`
	MaxMessages       int     `yaml:"max_messages"`
}

// HivemindConfig holds coordination controller parameters.
type HivemindConfig struct {
	CooldownTicks   int             `yaml:"cooldown_ticks"`
	AdvantageNorm   float64         `yaml:"advantage_norm"` // live agents at full advantage
	SurroundRadius  float64         `yaml:"surround_radius"`
	AmbushOffset    float64         `yaml:"ambush_offset"`
	RetreatDistance float64         `yaml:"retreat_distance"`
	BaitDistance    float64         `yaml:"bait_distance"`
	Weights         StrategyWeights `yaml:"weights"`
}

// StrategyWeights are the strategy-scoring coefficients.
// They are tuning values without physical meaning.
type StrategyWeights struct {
	HuntAdvantage   float64 `yaml:"hunt_advantage"`
	HuntDeficit     float64 `yaml:"hunt_deficit"`
	HuntOpenPenalty float64 `yaml:"hunt_open_penalty"`

	SurroundBase      float64 `yaml:"surround_base"`
	SurroundAdvantage float64 `yaml:"surround_advantage"`
	SurroundOpen      float64 `yaml:"surround_open"`
	SurroundDeficit   float64 `yaml:"surround_deficit"`

	AmbushBase   float64 `yaml:"ambush_base"`
	AmbushRusher float64 `yaml:"ambush_rusher"`
	AmbushCover  float64 `yaml:"ambush_cover"`

	RetreatAttrition float64 `yaml:"retreat_attrition"`
	RetreatAccuracy  float64 `yaml:"retreat_accuracy"`

	BaitRusher    float64 `yaml:"bait_rusher"`
	BaitAdvantage float64 `yaml:"bait_advantage"`
}

// ProfileConfig holds player profile model parameters.
type ProfileConfig struct {
	CamperStep        float64 `yaml:"camper_step"` // mean displacement below = camper
	RusherStep        float64 `yaml:"rusher_step"` // mean displacement above = rusher
	SampleTicks       int     `yaml:"sample_ticks"`
	StressHealth      float64 `yaml:"stress_health"`
	StressAmmo        float64 `yaml:"stress_ammo"`
	StressHostiles    float64 `yaml:"stress_hostiles"`
	HostileRadius     float64 `yaml:"hostile_radius"`
	HostileSaturation int     `yaml:"hostile_saturation"`
	FrustrationDeath  float64 `yaml:"frustration_death"`
	FrustrationDecay  float64 `yaml:"frustration_decay"`  // per second
	EngagementSession float64 `yaml:"engagement_session"` // seconds to full session term
	EngagementCombat  float64 `yaml:"engagement_combat"`  // weight of combat share
}

// LearningConfig holds adaptive learning parameters.
type LearningConfig struct {
	HistorySize      int     `yaml:"history_size"`
	TurnThreshold    float64 `yaml:"turn_threshold"`   // radians
	PredictableAt    float64 `yaml:"predictable_at"`   // predictability for ambush favor
	CloseRangeDist   float64 `yaml:"close_range_dist"` // kills within this count as close
	MaxMultiplier    float64 `yaml:"max_multiplier"`
	SpreadWeaponBias float64 `yaml:"spread_weapon_bias"`
}

// ProcgenConfig holds procedural generation parameters.
type ProcgenConfig struct {
	MaxPlacementAttempts int                `yaml:"max_placement_attempts"`
	MinFloorRatio        float64            `yaml:"min_floor_ratio"`
	MapWeights           map[string]float64 `yaml:"map_weights"`
	Roster               RosterConfig       `yaml:"roster"`
	Items                ItemsConfig        `yaml:"items"`
	Events               EventsConfig       `yaml:"events"`
	Skill                SkillConfig        `yaml:"skill"`
}

// SkillConfig holds the skill-estimate weights and normalizers.
type SkillConfig struct {
	AccuracyWeight float64 `yaml:"accuracy_weight"`
	SurvivalWeight float64 `yaml:"survival_weight"`
	KillWeight     float64 `yaml:"kill_weight"`
}

// RosterConfig holds agent roster parameters.
type RosterConfig struct {
	BaseCount        float64 `yaml:"base_count"`
	PerLevel         float64 `yaml:"per_level"`
	MaxCount         int     `yaml:"max_count"`
	BaselineWeight   float64 `yaml:"baseline_weight"`
	HeavyWeight      float64 `yaml:"heavy_weight"`
	SpecialistWeight float64 `yaml:"specialist_weight"`
	BossWeight       float64 `yaml:"boss_weight"`
	BossMinLevel     int     `yaml:"boss_min_level"`
	SkillShift       float64 `yaml:"skill_shift"`
	LevelScale       float64 `yaml:"level_scale"` // stat growth per level
	FrustrationEase  float64 `yaml:"frustration_ease"`
	EngagementHarden float64 `yaml:"engagement_harden"`
	BossMultiplier   float64 `yaml:"boss_multiplier"`
}

// ItemsConfig holds item roster parameters.
type ItemsConfig struct {
	HealthBase    int     `yaml:"health_base"`
	AmmoBase      int     `yaml:"ammo_base"`
	UpgradeSkill  float64 `yaml:"upgrade_skill"`
	UpgradeChance float64 `yaml:"upgrade_chance"`
	HealthAmount  float64 `yaml:"health_amount"`
	AmmoAmount    int     `yaml:"ammo_amount"`
}

// EventsConfig holds timed event parameters.
type EventsConfig struct {
	Count      int                `yaml:"count"`
	MinDelayS  float64            `yaml:"min_delay_s"`
	MaxDelayS  float64            `yaml:"max_delay_s"`
	MinDurS    float64            `yaml:"min_duration_s"`
	MaxDurS    float64            `yaml:"max_duration_s"`
	Weights    map[string]float64 `yaml:"weights"`
	WaveSize   int                `yaml:"wave_size"`
	ZoneDamage float64            `yaml:"zone_damage"` // per second
	ZoneRadius float64            `yaml:"zone_radius"`
}

// DifficultyConfig holds difficulty controller parameters.
type DifficultyConfig struct {
	Initial              float64 `yaml:"initial"`
	Window               int     `yaml:"window"`
	Target               float64 `yaml:"target"`
	Step                 float64 `yaml:"step"`
	Min                  float64 `yaml:"min"`
	Max                  float64 `yaml:"max"`
	MultiplierMin        float64 `yaml:"multiplier_min"`
	MultiplierMax        float64 `yaml:"multiplier_max"`
	SurvivalWeight       float64 `yaml:"survival_weight"`
	HealthWeight         float64 `yaml:"health_weight"`
	KillWeight           float64 `yaml:"kill_weight"`
	HistorySize          int     `yaml:"history_size"`
	FrustrationThreshold float64 `yaml:"frustration_threshold"`
	EngagementThreshold  float64 `yaml:"engagement_threshold"`
	ThresholdDrift       float64 `yaml:"threshold_drift"`
}

// ArchetypeConfig defines the base stats of an agent archetype.
type ArchetypeConfig struct {
	Name         string  `yaml:"name"`
	MaxHealth    float64 `yaml:"max_health"`
	Speed        float64 `yaml:"speed"`
	Damage       float64 `yaml:"damage"`
	FireInterval float64 `yaml:"fire_interval"`
	AttackRange  float64 `yaml:"attack_range"`
	SightRange   float64 `yaml:"sight_range"`
	Radius       float64 `yaml:"radius"`
}

// AdvisorConfig holds advisory-text service parameters.
type AdvisorConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Model     string              `yaml:"model"`
	CooldownS float64             `yaml:"cooldown_s"`
	TimeoutS  float64             `yaml:"timeout_s"`
	QueueSize int                 `yaml:"queue_size"`
	Fallbacks map[string][]string `yaml:"fallbacks"`
}

// StoreConfig holds profile store parameters.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfCollectorWindow int    `yaml:"perf_collector_window"`
	BookmarkHistorySize int    `yaml:"bookmark_history_size"`
	JournalDir          string `yaml:"journal_dir"`
}

// BookmarksConfig holds level bookmark thresholds.
type BookmarksConfig struct {
	NearDeathHealth  float64 `yaml:"near_death_health"`
	DifficultySpike  float64 `yaml:"difficulty_spike"`
	FrustrationSpike float64 `yaml:"frustration_spike"`
	FlawlessMinKills int     `yaml:"flawless_min_kills"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32           float32        // Sim.DT as float32
	TickMs         int64          // Sim.DT in milliseconds
	CellSize32     float32        // World.CellSize as float32
	WorldW32       float32        // arena width in world units
	WorldH32       float32        // arena height in world units
	ArchetypeIndex map[string]int // name -> index into Archetypes
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyDefaults()
	cfg.computeDerived()
	return cfg, nil
}

// Default returns the embedded defaults. It panics if they fail to parse,
// which only happens when defaults.yaml itself is broken.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// applyDefaults fills zero values that would break the simulation.
func (c *Config) applyDefaults() {
	if c.Sim.DT <= 0 {
		c.Sim.DT = 1.0 / 60.0
	}
	if c.Sim.AIIntervalMin <= 0 {
		c.Sim.AIIntervalMin = 1
	}
	if c.Sim.AIIntervalMax < c.Sim.AIIntervalMin {
		c.Sim.AIIntervalMax = c.Sim.AIIntervalMin
	}
	if c.Sim.AIIntervalInitial < c.Sim.AIIntervalMin {
		c.Sim.AIIntervalInitial = c.Sim.AIIntervalMin
	}
	if c.Sim.AIIntervalInitial > c.Sim.AIIntervalMax {
		c.Sim.AIIntervalInitial = c.Sim.AIIntervalMax
	}
	if c.Sim.FPSWindow <= 0 {
		c.Sim.FPSWindow = 30
	}
	if c.Sim.MaxFrameSkip <= 0 {
		c.Sim.MaxFrameSkip = 5
	}
	if c.World.Width <= 0 {
		c.World.Width = 40
	}
	if c.World.Height <= 0 {
		c.World.Height = 30
	}
	if c.World.CellSize <= 0 {
		c.World.CellSize = 32
	}
	if c.Pathfinding.CacheSize <= 0 {
		c.Pathfinding.CacheSize = 100
	}
	if c.Comms.TTLMs <= 0 {
		c.Comms.TTLMs = 5000
	}
	if c.Hivemind.CooldownTicks <= 0 {
		c.Hivemind.CooldownTicks = 300
	}
	if c.Hivemind.AdvantageNorm <= 0 {
		c.Hivemind.AdvantageNorm = 6
	}
	if c.Difficulty.Window <= 0 {
		c.Difficulty.Window = 10
	}
	if c.Difficulty.Max <= c.Difficulty.Min {
		c.Difficulty.Min, c.Difficulty.Max = 0.1, 1.0
	}
	if c.Difficulty.HistorySize <= 0 {
		c.Difficulty.HistorySize = 50
	}
	if c.Learning.HistorySize <= 0 {
		c.Learning.HistorySize = 200
	}
	if c.Procgen.MaxPlacementAttempts <= 0 {
		c.Procgen.MaxPlacementAttempts = 50
	}
	if c.Advisor.QueueSize <= 0 {
		c.Advisor.QueueSize = 8
	}
	if c.Telemetry.PerfCollectorWindow <= 0 {
		c.Telemetry.PerfCollectorWindow = 600
	}
	if c.Telemetry.BookmarkHistorySize <= 0 {
		c.Telemetry.BookmarkHistorySize = 20
	}

	// Synthesize default archetypes if none specified
	if len(c.Archetypes) == 0 {
		c.Archetypes = []ArchetypeConfig{
			{Name: "baseline", MaxHealth: 100, Speed: 90, Damage: 8, FireInterval: 1.0, AttackRange: 160, SightRange: 320, Radius: 10},
			{Name: "heavy", MaxHealth: 220, Speed: 55, Damage: 14, FireInterval: 1.6, AttackRange: 140, SightRange: 280, Radius: 14},
			{Name: "fast", MaxHealth: 60, Speed: 150, Damage: 6, FireInterval: 0.6, AttackRange: 60, SightRange: 300, Radius: 8},
			{Name: "adaptive", MaxHealth: 110, Speed: 100, Damage: 9, FireInterval: 0.9, AttackRange: 180, SightRange: 360, Radius: 10},
		}
	}
	for i := range c.Archetypes {
		arch := &c.Archetypes[i]
		if arch.MaxHealth <= 0 {
			arch.MaxHealth = 100
		}
		if arch.FireInterval <= 0 {
			arch.FireInterval = 1
		}
		if arch.Radius <= 0 {
			arch.Radius = 10
		}
	}
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Sim.DT)
	c.Derived.TickMs = int64(c.Sim.DT*1000 + 0.5)
	if c.Derived.TickMs < 1 {
		c.Derived.TickMs = 1
	}
	c.Derived.CellSize32 = float32(c.World.CellSize)
	c.Derived.WorldW32 = float32(float64(c.World.Width) * c.World.CellSize)
	c.Derived.WorldH32 = float32(float64(c.World.Height) * c.World.CellSize)

	c.Derived.ArchetypeIndex = make(map[string]int, len(c.Archetypes))
	for i, arch := range c.Archetypes {
		c.Derived.ArchetypeIndex[arch.Name] = i
	}
}

// Archetype returns the archetype config by name.
func (c *Config) Archetype(name string) (ArchetypeConfig, bool) {
	i, ok := c.Derived.ArchetypeIndex[name]
	if !ok {
		return ArchetypeConfig{}, false
	}
	return c.Archetypes[i], true
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
