package telemetry

// LevelInfo identifies the level a Collector is accumulating for.
type LevelInfo struct {
	Level      int
	Seed       int64
	Map        string
	Fallback   bool
	Agents     int
	Difficulty float64
}

// PlayerModel is the player summary recorded at level end.
type PlayerModel struct {
	Skill       float64
	Style       string
	Frustration float64
	Engagement  float64
}

// Collector accumulates combat events within one level and produces LevelStats.
type Collector struct {
	dt float64

	info       LevelInfo
	startTick  int64
	kills      int
	shotsFired int
	shotsHit   int
	damage     float64
	minHealth  float64
	switches   int
	aiSum      int64
	aiSamples  int64
}

// NewCollector creates a collector. dt is seconds per tick.
func NewCollector(dt float64) *Collector {
	return &Collector{dt: dt, minHealth: 1}
}

// Begin resets counters for a new level starting at tick.
func (c *Collector) Begin(info LevelInfo, tick int64) {
	*c = Collector{dt: c.dt, info: info, startTick: tick, minHealth: 1}
}

// Info returns the current level's identity.
func (c *Collector) Info() LevelInfo { return c.info }

// RecordShots records player shots and hits.
func (c *Collector) RecordShots(fired, hit int) {
	c.shotsFired += fired
	c.shotsHit += hit
}

// RecordKill records an agent killed by the player.
func (c *Collector) RecordKill() {
	c.kills++
}

// RecordDamage records damage to the player and its resulting health fraction.
func (c *Collector) RecordDamage(amount, healthFrac float64) {
	c.damage += amount
	if healthFrac < c.minHealth {
		c.minHealth = healthFrac
	}
}

// RecordSwitch records a hive-mind strategy change.
func (c *Collector) RecordSwitch() {
	c.switches++
}

// RecordAIInterval samples the current AI update interval.
func (c *Collector) RecordAIInterval(n int) {
	c.aiSum += int64(n)
	c.aiSamples++
}

// Kills returns kills recorded so far this level.
func (c *Collector) Kills() int { return c.kills }

// Switches returns strategy changes recorded so far this level.
func (c *Collector) Switches() int { return c.switches }

// LevelEnd carries the values only known when the level finishes.
type LevelEnd struct {
	Tick           int64
	Outcome        string
	EndHealth      float64
	AgentHealth    []float64 // fractions of surviving agents
	FinalStrategy  string
	MessagesSent   uint64
	PathHits       uint64
	PathMisses     uint64
	Player         PlayerModel
	DifficultyNext float64
}

// Flush produces the LevelStats for the current level.
func (c *Collector) Flush(end LevelEnd) LevelStats {
	var accuracy float64
	if c.shotsFired > 0 {
		accuracy = float64(c.shotsHit) / float64(c.shotsFired)
	}
	var meanAI float64
	if c.aiSamples > 0 {
		meanAI = float64(c.aiSum) / float64(c.aiSamples)
	}
	minHealth := c.minHealth
	if end.EndHealth < minHealth {
		minHealth = end.EndHealth
	}
	hMean, hP10, hP50, hP90 := ComputeHealthStats(end.AgentHealth)
	ticks := end.Tick - c.startTick

	return LevelStats{
		Level:    c.info.Level,
		Seed:     c.info.Seed,
		Map:      c.info.Map,
		Fallback: c.info.Fallback,
		Outcome:  end.Outcome,

		Ticks:     ticks,
		DurationS: float64(ticks) * c.dt,

		Agents:      c.info.Agents,
		Kills:       c.kills,
		ShotsFired:  c.shotsFired,
		ShotsHit:    c.shotsHit,
		Accuracy:    accuracy,
		DamageTaken: c.damage,
		MinHealth:   minHealth,
		EndHealth:   end.EndHealth,

		AgentHealthMean: hMean,
		AgentHealthP10:  hP10,
		AgentHealthP50:  hP50,
		AgentHealthP90:  hP90,

		StrategySwitches: c.switches,
		FinalStrategy:    end.FinalStrategy,
		MessagesSent:     end.MessagesSent,
		PathHits:         end.PathHits,
		PathMisses:       end.PathMisses,
		MeanAIInterval:   meanAI,

		Skill:       end.Player.Skill,
		Style:       end.Player.Style,
		Frustration: end.Player.Frustration,
		Engagement:  end.Player.Engagement,

		Difficulty:     c.info.Difficulty,
		DifficultyNext: end.DifficultyNext,
	}
}
