package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"robosoccer/internal/config"
	"robosoccer/internal/planning"
	"robosoccer/internal/shared/logger"
	"robosoccer/internal/shared/rng"
	"robosoccer/internal/shared/types"
	"robosoccer/internal/simulation"
	"robosoccer/internal/strategy"
)

var (
	ErrUnknownControl = errors.New("match: unknown control action")
	ErrInvalidSide    = errors.New("match: invalid side")
)

// Match is one session: a World plus one strategy planner per side, driven
// by a fixed-step Tick. It is safe for concurrent use; every Tick runs both
// decisions and the world update under one write lock.
type Match struct {
	mu sync.RWMutex

	id       string
	cfg      config.Config
	log      *logger.Logger
	world    *simulation.World
	planners [2]*strategy.Planner

	remaining  float64
	inKickoff  float64
	finished   bool
	lastEvents []simulation.Event
	shots      int
	passes     int
	startedAt  time.Time
	endedAt    time.Time
}

// New validates cfg, builds the world and lines the teams up for a left
// kickoff. A nil log discards output.
func New(cfg config.Config, log *logger.Logger) (*Match, error) {
	w, err := simulation.NewWorld(cfg)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	if log == nil {
		log = logger.Discard()
	}
	seed := cfg.Match.Seed
	m := &Match{
		id:    uuid.NewString(),
		cfg:   cfg,
		log:   log,
		world: w,
		planners: [2]*strategy.Planner{
			strategy.NewPlanner(simulation.SideLeft, cfg, rng.New(seed+1)),
			strategy.NewPlanner(simulation.SideRight, cfg, rng.New(seed+2)),
		},
		remaining: cfg.Match.DurationSec,
		startedAt: time.Now().UTC(),
	}
	w.SetKickoff(simulation.SideLeft)
	m.lastEvents = w.DrainEvents()
	return m, nil
}

func (m *Match) ID() string { return m.id }

func (m *Match) Config() config.Config { return m.cfg }

// Finished reports whether the match clock ran out.
func (m *Match) Finished() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.finished
}

// Tick advances the session by dt: both planners decide, the world updates,
// then the clock and kickoff timer run. It returns the events of this tick.
func (m *Match) Tick(dt float64) []simulation.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if dt <= 0 {
		return nil
	}

	w := m.world
	switch st := w.State(); {
	case st == simulation.StatePlaying || st.IsKickoff():
		for _, p := range m.planners {
			p.Decide(w)
		}
	case st == simulation.StateStopped || st == simulation.StateGoal:
		for _, r := range w.AllRobots() {
			r.Stop()
		}
	}

	w.Update(dt)
	m.runKickoffTimer(dt)
	m.runClock(dt)

	events := w.DrainEvents()
	m.account(events)
	m.lastEvents = events
	out := make([]simulation.Event, len(events))
	copy(out, events)
	return out
}

// runKickoffTimer starts play once a kickoff has lasted the configured delay.
// A zero delay leaves the start to the caller.
func (m *Match) runKickoffTimer(dt float64) {
	delay := m.cfg.Match.KickoffDelaySec
	if !m.world.State().IsKickoff() || delay <= 0 {
		m.inKickoff = 0
		return
	}
	m.inKickoff += dt
	if m.inKickoff >= delay {
		m.inKickoff = 0
		m.world.Start()
	}
}

func (m *Match) runClock(dt float64) {
	if m.cfg.Match.DurationSec <= 0 || m.finished || m.world.State() != simulation.StatePlaying {
		return
	}
	m.remaining -= dt
	if m.remaining > 0 {
		return
	}
	m.remaining = 0
	m.finished = true
	m.endedAt = time.Now().UTC()
	m.world.Stop()
	m.world.Emit(simulation.EventFullTime, "")
}

func (m *Match) account(events []simulation.Event) {
	for _, e := range events {
		switch e.Type {
		case simulation.EventShot:
			m.shots++
		case simulation.EventPass:
			m.passes++
		case simulation.EventGoal:
			sc := m.world.Score()
			m.log.Info("goal", "match", m.id, "side", e.Side, "left", sc.Left, "right", sc.Right, "sim_time", e.SimTime)
		case simulation.EventFullTime:
			sc := m.world.Score()
			m.log.Info("full time", "match", m.id, "left", sc.Left, "right", sc.Right, "ticks", m.world.Tick())
		}
	}
}

// Run ticks at the configured dt until the clock runs out, maxTicks is
// reached (0 means no limit) or ctx is cancelled. onTick, when set, receives
// the snapshot after every tick.
func (m *Match) Run(ctx context.Context, maxTicks uint64, onTick func(types.WorldSnapshot)) error {
	dt := m.cfg.Match.Dt
	for n := uint64(0); maxTicks == 0 || n < maxTicks; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.Tick(dt)
		if onTick != nil {
			onTick(m.Snapshot())
		}
		if m.Finished() {
			return nil
		}
	}
	return nil
}

// Snapshot returns a deep copy of the session for replication. Events are
// those of the last tick.
func (m *Match) Snapshot() types.WorldSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.world.Snapshot()
	s.MatchID = m.id
	for i := range s.Robots {
		r := &s.Robots[i]
		p, err := m.planner(simulation.Side(r.Side))
		if err != nil {
			continue
		}
		if gk, ok := p.Goalie(); ok {
			r.IsGoalie = r.ID == gk
		}
	}
	s.Score.TimeRemainingMS = int(m.remaining * 1000)
	s.Events = simulation.EventsToWire(m.lastEvents)
	return s
}

// Summary reports the outcome so far.
func (m *Match) Summary() types.MatchSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sc := m.world.Score()
	ended := m.endedAt
	if ended.IsZero() {
		ended = time.Now().UTC()
	}
	return types.MatchSummary{
		MatchID:    m.id,
		Seed:       m.cfg.Match.Seed,
		ScoreLeft:  sc.Left,
		ScoreRight: sc.Right,
		Ticks:      m.world.Tick(),
		SimSeconds: m.world.Time(),
		Shots:      m.shots,
		Passes:     m.passes,
		StartedAt:  m.startedAt,
		EndedAt:    ended,
	}
}

// Control applies a client command to the state machine.
func (m *Match) Control(cmd types.ControlCommand) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	side := simulation.Side(cmd.Side)
	needSide := cmd.Action == "kickoff" || cmd.Action == "goal"
	if needSide && !side.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSide, cmd.Side)
	}

	w := m.world
	switch cmd.Action {
	case "kickoff":
		w.SetKickoff(side)
	case "start":
		w.Start()
	case "stop":
		w.Stop()
	case "halt":
		w.Halt()
	case "goal":
		w.GoalScored(side)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownControl, cmd.Action)
	}
	m.log.Info("control", "match", m.id, "action", cmd.Action, "side", cmd.Side, "state", w.State())
	return nil
}

// SetAllowedActions limits the instant actions robot id of side may plan.
func (m *Match) SetAllowedActions(side simulation.Side, id int, kinds ...planning.ActionKind) error {
	p, err := m.planner(side)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p.Allowed[id] = planning.NewActionSet(kinds...)
	return nil
}

func (m *Match) planner(side simulation.Side) (*strategy.Planner, error) {
	switch side {
	case simulation.SideLeft:
		return m.planners[0], nil
	case simulation.SideRight:
		return m.planners[1], nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidSide, side)
}

// WithWorld runs fn with exclusive access to the world, for setup and
// inspection outside the tick.
func (m *Match) WithWorld(fn func(w *simulation.World)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.world)
}
