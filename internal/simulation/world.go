package simulation

import (
	"fmt"
	"math"
	"math/rand"

	"robosoccer/internal/config"
	"robosoccer/internal/geom"
	"robosoccer/internal/shared/rng"
	"robosoccer/internal/shared/types"
)

// MatchState is the phase of the match state machine.
type MatchState string

const (
	StateStopped      MatchState = "stopped"
	StatePlaying      MatchState = "playing"
	StateKickoffLeft  MatchState = "kickoff_left"
	StateKickoffRight MatchState = "kickoff_right"
	StateGoal         MatchState = "goal"
	StateHalt         MatchState = "halt"
)

// IsKickoff reports whether s is one of the two kickoff phases.
func (s MatchState) IsKickoff() bool {
	return s == StateKickoffLeft || s == StateKickoffRight
}

// EventType names a gameplay event.
type EventType string

const (
	EventKickoff    EventType = "kickoff"
	EventStart      EventType = "start"
	EventStop       EventType = "stop"
	EventHalt       EventType = "halt"
	EventGoal       EventType = "goal"
	EventShot       EventType = "shot"
	EventPass       EventType = "pass"
	EventPossession EventType = "possession"
	EventFullTime   EventType = "full_time"
)

// Event is a state change worth reporting to viewers and recorders.
type Event struct {
	Type    EventType
	Side    Side
	RobotID int
	SimTime float64
}

type Score struct {
	Left  int
	Right int
}

// releaseGap separates a kicked ball from the robot nose.
const releaseGap = 0.02

// World is the authoritative simulation state. It owns the ball and both
// teams and is not safe for concurrent use.
type World struct {
	FieldW    float64
	FieldH    float64
	GoalWidth float64

	Ball  Ball
	Left  *Team
	Right *Team

	Boundary   BoundaryMode
	Collision  CollisionParams
	Possession PossessionParams
	AutoGoal   bool

	t            float64
	tick         uint64
	state        MatchState
	score        Score
	kickCooldown float64
	lastHolder   holderRef
	events       []Event
	rng          *rand.Rand
}

// NewWorld validates cfg and builds a world with both teams at their kickoff
// formation and the ball on the centre spot. The match starts stopped.
func NewWorld(cfg config.Config) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("simulation: invalid config: %w", err)
	}

	w := &World{
		FieldW:    cfg.Field.Width,
		FieldH:    cfg.Field.Height,
		GoalWidth: cfg.Field.GoalWidth,
		Ball: Ball{
			Radius:      cfg.Ball.Radius,
			Drag:        cfg.Ball.Drag,
			MinSpeed:    cfg.Ball.MinSpeed,
			Restitution: cfg.Ball.Restitution,
		},
		Left:     NewTeam(0, "Blue", SideLeft, cfg.Match.TeamSize, cfg.Robot),
		Right:    NewTeam(1, "Red", SideRight, cfg.Match.TeamSize, cfg.Robot),
		Boundary: BoundaryMode(cfg.Ball.Boundary),
		Collision: CollisionParams{
			Iterations:  cfg.Collision.Iterations,
			Clearance:   cfg.Collision.Clearance,
			Restitution: cfg.Collision.Restitution,
			MaxPush:     cfg.Collision.MaxPush,
		},
		Possession: PossessionParams{
			ConeDistOn:      cfg.Possession.ConeDistOn,
			ConeAngleOnDeg:  cfg.Possession.ConeAngleOnDeg,
			ConeDistOff:     cfg.Possession.ConeDistOff,
			ConeAngleOffDeg: cfg.Possession.ConeAngleOffDeg,
			Sticky:          cfg.Possession.Sticky,
			StickyGap:       cfg.Possession.StickyGap,
			ClipAnchor:      cfg.Possession.ClipAnchor,
			KickCooldown:    cfg.Possession.KickCooldown,
		},
		AutoGoal: cfg.Match.AutoGoal,
		state:    StateStopped,
		rng:      rng.New(cfg.Match.Seed),
	}
	w.EnsureSizes(cfg.Match.TeamSize, cfg.Match.TeamSize)
	w.AutoPositionKickoff()
	return w, nil
}

func (w *World) HalfW() float64 { return 0.5 * w.FieldW }
func (w *World) HalfH() float64 { return 0.5 * w.FieldH }

func (w *World) Time() float64          { return w.t }
func (w *World) Tick() uint64           { return w.tick }
func (w *World) State() MatchState      { return w.state }
func (w *World) Score() Score           { return w.score }
func (w *World) KickCooldown() float64  { return w.kickCooldown }
func (w *World) Teams() [2]*Team        { return [2]*Team{w.Left, w.Right} }
func (w *World) TeamOf(side Side) *Team { return w.teamFor(side) }

// Opponents returns the team playing against side.
func (w *World) Opponents(side Side) *Team { return w.teamFor(side.Opposite()) }

func (w *World) teamFor(side Side) *Team {
	if side == SideRight {
		return w.Right
	}
	return w.Left
}

// AllRobots lists the left roster then the right roster, each in id order.
func (w *World) AllRobots() []*Robot {
	out := make([]*Robot, 0, w.Left.Len()+w.Right.Len())
	out = append(out, w.Left.Robots()...)
	return append(out, w.Right.Robots()...)
}

func (w *World) sideOf(r *Robot) Side {
	if r.TeamID == w.Right.ID {
		return SideRight
	}
	return SideLeft
}

// Update advances the world by dt in the fixed order: robot kinematics,
// collision resolution, possession and anchoring, ball flight. It is a no-op
// for dt <= 0 and while halted.
func (w *World) Update(dt float64) {
	if dt <= 0 || w.state == StateHalt {
		return
	}

	w.Left.Update(dt)
	w.Right.Update(dt)

	ResolveCollisions(w.AllRobots(), w.HalfW(), w.HalfH(), w.Collision, w.rng)

	w.updatePossession(dt)

	w.Ball.Integrate(dt, w.HalfW(), w.HalfH(), w.Boundary)

	w.t += dt
	w.tick++

	if w.AutoGoal && w.state == StatePlaying {
		w.detectGoal()
	}
}

// detectGoal credits a goal when the ball sits on an end line inside the
// goal mouth.
func (w *World) detectGoal() {
	if math.Abs(w.Ball.Y) > w.GoalWidth/2 {
		return
	}
	line := w.HalfW() - w.Ball.Radius - 1e-6
	switch {
	case w.Ball.X >= line:
		w.GoalScored(SideLeft)
	case w.Ball.X <= -line:
		w.GoalScored(SideRight)
	}
}

// SetKickoff awards the kickoff to side and resets the formation.
func (w *World) SetKickoff(side Side) {
	if side == SideRight {
		w.state = StateKickoffRight
	} else {
		side = SideLeft
		w.state = StateKickoffLeft
	}
	w.AutoPositionKickoff()
	w.emit(EventKickoff, side, 0)
}

func (w *World) Start() {
	w.state = StatePlaying
	w.emit(EventStart, "", 0)
}

func (w *World) Stop() {
	w.state = StateStopped
	w.emit(EventStop, "", 0)
}

// Halt freezes the match logic. Geometry stays where it is.
func (w *World) Halt() {
	w.state = StateHalt
	w.emit(EventHalt, "", 0)
}

// GoalScored credits by and gives the kickoff to the conceding side.
func (w *World) GoalScored(by Side) {
	if by == SideRight {
		w.score.Right++
	} else {
		by = SideLeft
		w.score.Left++
	}
	w.emit(EventGoal, by, 0)
	w.SetKickoff(by.Opposite())
}

// ReleaseBall detaches the ball from r, places it just ahead of r's nose and
// launches it toward target. Capture is locked out for the kick cooldown.
func (w *World) ReleaseBall(r *Robot, target geom.Vec2, speed float64, kind EventType) {
	front := r.FrontOffset(w.Ball.Radius, releaseGap)
	pos := r.Pos().Add(geom.Polar(front, r.Theta))
	w.Ball.SetPosition(pos.X, pos.Y)
	w.Ball.Kick(speed, pos.AngleTo(target))

	w.clearPossession()
	w.kickCooldown = w.Possession.KickCooldown
	w.emit(kind, w.sideOf(r), r.ID)
}

// WhoHasBall returns the flagged holder, if any.
func (w *World) WhoHasBall() (Side, *Robot, bool) {
	for _, tm := range w.Teams() {
		for _, r := range tm.Robots() {
			if r.HasBall {
				return tm.Side, r, true
			}
		}
	}
	return "", nil, false
}

func (w *World) EnsureSizes(left, right int) {
	w.Left.EnsureSize(left)
	w.Right.EnsureSize(right)
}

func (w *World) ResetBallCenter() {
	w.Ball.SetPosition(0, 0)
	w.Ball.SetVelocity(0, 0)
}

// AutoPositionKickoff lines both teams up and resets the ball.
func (w *World) AutoPositionKickoff() {
	w.Left.AutoPositionKickoff(w.FieldW, w.FieldH)
	w.Right.AutoPositionKickoff(w.FieldW, w.FieldH)
	w.ResetBallCenter()
	w.clearPossession()
	w.kickCooldown = 0
}

// clearPossession drops every holder flag. The ball is free afterwards.
func (w *World) clearPossession() {
	for _, r := range w.AllRobots() {
		r.HasBall = false
	}
	w.lastHolder = holderRef{}
}

// PlaceRobot puts robot id of side at the pose, creating it when missing.
// Velocity and command are zeroed.
func (w *World) PlaceRobot(side Side, id int, x, y, theta float64) *Robot {
	tm := w.teamFor(side)
	r := tm.Get(id)
	if r == nil {
		r = tm.AddRobotWithID(id)
	}
	r.SetPose(x, y, theta)
	r.SetVel(0, 0, 0)
	r.Stop()
	return r
}

func (w *World) PlaceBall(x, y, vx, vy float64) {
	w.Ball.SetPosition(x, y)
	w.Ball.SetVelocity(vx, vy)
}

// Emit records an event raised by a collaborator such as the match clock.
func (w *World) Emit(kind EventType, side Side) {
	w.emit(kind, side, 0)
}

func (w *World) emit(kind EventType, side Side, robotID int) {
	w.events = append(w.events, Event{Type: kind, Side: side, RobotID: robotID, SimTime: w.t})
}

// DrainEvents returns the events recorded since the previous drain.
func (w *World) DrainEvents() []Event {
	out := w.events
	w.events = nil
	return out
}

// Snapshot returns a deep copy of the world for rendering and replication.
// Pending events are included without being drained.
func (w *World) Snapshot() types.WorldSnapshot {
	snap := types.WorldSnapshot{
		Tick:    w.tick,
		SimTime: w.t,
		State:   string(w.state),
		Field:   types.FieldState{Width: w.FieldW, Height: w.FieldH, GoalWidth: w.GoalWidth},
		Score:   types.ScoreState{Left: w.score.Left, Right: w.score.Right},
		Ball: types.BallState{
			Position: types.Vec2{X: w.Ball.X, Y: w.Ball.Y},
			Velocity: types.Vec2{X: w.Ball.VX, Y: w.Ball.VY},
			Radius:   w.Ball.Radius,
		},
		Robots:       make([]types.RobotState, 0, w.Left.Len()+w.Right.Len()),
		KickCooldown: w.kickCooldown,
		Events:       EventsToWire(w.events),
	}

	for _, tm := range w.Teams() {
		gk, hasGK := tm.GoalieID()
		for _, r := range tm.Robots() {
			snap.Robots = append(snap.Robots, types.RobotState{
				ID:       r.ID,
				Side:     string(tm.Side),
				Position: types.Vec2{X: r.X, Y: r.Y},
				Theta:    r.Theta,
				Velocity: types.Vec2{X: r.VX, Y: r.VY},
				Omega:    r.Omega,
				SideLen:  r.SideLen,
				Active:   r.Active,
				HasBall:  r.HasBall,
				IsGoalie: hasGK && gk == r.ID,
				Action:   r.Action,
			})
			if r.HasBall {
				snap.Possession = &types.PossessionState{Side: string(tm.Side), RobotID: r.ID}
			}
		}
	}
	return snap
}

// EventsToWire converts events to their replicated form. It never returns nil.
func EventsToWire(events []Event) []types.GameplayEvent {
	out := make([]types.GameplayEvent, 0, len(events))
	for _, e := range events {
		out = append(out, types.GameplayEvent{
			Type:       string(e.Type),
			Side:       string(e.Side),
			RobotID:    e.RobotID,
			SimTime:    e.SimTime,
			OccurredMS: int64(math.Round(e.SimTime * 1000)),
		})
	}
	return out
}
