package strategy

import (
	"math"
	"math/rand"

	"robosoccer/internal/config"
	"robosoccer/internal/geom"
	"robosoccer/internal/planning"
	"robosoccer/internal/simulation"
)

const (
	fallbackSpeed  = 1.5
	shootMoveSpeed = 1.6
	passMoveSpeed  = 1.4
	dribbleSpeed   = 1.6
	maxAssists     = 2
	defenseDepth   = 2.5
	looseBallDepth = 2.0
	// Role behaviors are re-issued every decision, so they never accumulate
	// elapsed time.
	roleTickDt = 0.0
)

type roleState struct {
	seek    Behavior
	playing Behavior
	assist  Behavior
	defense Behavior
	keeper  Behavior
}

func newRoleState() *roleState {
	return &roleState{
		seek:    SeekBallBehavior(),
		playing: PlayingBallBehavior(),
		assist:  AssistBehavior(),
		defense: DefenseBehavior(defenseDepth),
		keeper:  GoalKeepingBehavior(),
	}
}

// Planner decides command intents for every robot of one team. It owns the
// sticky action memory and per-robot role state; neither outlives a robot's
// removal from the roster.
type Planner struct {
	Side simulation.Side
	// Allowed limits the holder subtypes per robot id. Missing ids may use
	// every subtype.
	Allowed map[int]planning.ActionSet

	pipeline *planning.Pipeline
	memory   *planning.Memory
	roles    map[int]*roleState

	goalie    int
	hasGoalie bool
}

func NewPlanner(side simulation.Side, cfg config.Config, rng *rand.Rand) *Planner {
	return &Planner{
		Side:     side,
		Allowed:  make(map[int]planning.ActionSet),
		pipeline: planning.NewPipeline(cfg, rng),
		memory:   planning.NewMemory(),
		roles:    make(map[int]*roleState),
	}
}

func (p *Planner) Memory() *planning.Memory     { return p.memory }

// Goalie reports the goalkeeper chosen by the last Decide. The team roster is
// left untouched.
func (p *Planner) Goalie() (int, bool) { return p.goalie, p.hasGoalie }
func (p *Planner) Pipeline() *planning.Pipeline { return p.pipeline }

func (p *Planner) role(id int) *roleState {
	rs, ok := p.roles[id]
	if !ok {
		rs = newRoleState()
		p.roles[id] = rs
	}
	return rs
}

// prune drops state of robots no longer on the roster.
func (p *Planner) prune(tm *simulation.Team) {
	ids := tm.IDs()
	p.memory.Retain(ids)
	for id := range p.roles {
		if tm.Get(id) == nil {
			delete(p.roles, id)
		}
	}
}

// Decide writes command intents for the team and nothing else. It must run
// before the World.Update of the same tick.
func (p *Planner) Decide(w *simulation.World) {
	p.goalie, p.hasGoalie = 0, false
	tm := w.TeamOf(p.Side)
	if tm == nil || tm.Len() == 0 {
		return
	}
	p.prune(tm)

	gk, hasGK := p.selectGoalkeeper(w, tm)
	p.goalie, p.hasGoalie = gk, hasGK
	holder := findHolder(tm)
	if holder != nil {
		p.attack(w, tm, holder, gk, hasGK)
		return
	}
	p.defend(w, tm, gk, hasGK, findHolder(w.Opponents(p.Side)) != nil)
}

func (p *Planner) attack(w *simulation.World, tm *simulation.Team, holder *simulation.Robot, gk int, hasGK bool) {
	p.actWithBall(w, tm, holder)

	var others []*simulation.Robot
	for _, r := range tm.ActiveRobots() {
		if r.ID == holder.ID {
			continue
		}
		if hasGK && r.ID == gk {
			p.keepGoal(w, tm, r)
			continue
		}
		others = append(others, r)
	}
	for i, r := range others {
		rs := p.role(r.ID)
		switch {
		case i == 0:
			p.run(w, tm, r, &rs.playing)
		case i <= maxAssists:
			p.run(w, tm, r, &rs.assist)
		default:
			rs.defense.Depth = defenseDepth
			p.run(w, tm, r, &rs.defense)
		}
	}
}

func (p *Planner) defend(w *simulation.World, tm *simulation.Team, gk int, hasGK bool, opponentHolds bool) {
	if hasGK {
		if r := tm.Get(gk); r != nil && r.Active {
			p.keepGoal(w, tm, r)
		}
	}

	ball := w.Ball.Pos()
	var chaser *simulation.Robot
	best := math.Inf(1)
	for _, r := range tm.ActiveRobots() {
		if hasGK && r.ID == gk {
			continue
		}
		if d := r.Pos().Dist(ball); d < best {
			chaser, best = r, d
		}
	}
	if chaser != nil {
		p.run(w, tm, chaser, &p.role(chaser.ID).seek)
	}

	depth := looseBallDepth
	if opponentHolds {
		depth = defenseDepth
	}
	for _, r := range tm.ActiveRobots() {
		if (hasGK && r.ID == gk) || (chaser != nil && r.ID == chaser.ID) {
			continue
		}
		rs := p.role(r.ID)
		rs.defense.Depth = depth
		p.run(w, tm, r, &rs.defense)
	}
}

func (p *Planner) keepGoal(w *simulation.World, tm *simulation.Team, r *simulation.Robot) {
	p.run(w, tm, r, &p.role(r.ID).keeper)
}

func (p *Planner) run(w *simulation.World, tm *simulation.Team, r *simulation.Robot, b *Behavior) Status {
	r.Action = b.Kind.String()
	return b.Tick(w, tm, r, roleTickDt)
}

// actWithBall picks the holder's best instant action, steers toward its
// location and fires the executor once in tolerance.
func (p *Planner) actWithBall(w *simulation.World, tm *simulation.Team, r *simulation.Robot) {
	allowed, ok := p.Allowed[r.ID]
	if !ok {
		allowed = planning.AllInstantActions
	}
	goal := geom.Vec2{X: tm.OpponentGoalX(w.HalfW())}

	actions := p.pipeline.BuildMoveWithBallActions(w, p.Side, r, allowed, p.memory)
	best, ok := planning.ChooseBest(actions)
	if !ok {
		r.Action = "FallbackDribble"
		r.CommandFacePoint(goal, 0, 0)
		r.CommandMoveTowards(goal, fallbackSpeed)
		return
	}
	p.memory.Set(best)
	r.Action = best.Subtype.String()

	loc := best.Location
	params := p.pipeline.Params
	switch best.Subtype {
	case planning.TryToShoot:
		r.CommandMoveTowards(loc.Pos(), shootMoveSpeed)
		r.CommandFacePoint(goal, 0, 0)
		if r.HasBall && params.CanExecuteAt(r, loc) {
			params.ExecShoot(w, p.Side, r)
		}
	case planning.TryToPass, planning.TryToDeepPass:
		if best.Target == nil {
			return
		}
		to := best.Target.Pos()
		r.CommandMoveTowards(loc.Pos(), passMoveSpeed)
		r.CommandFacePoint(to, 0, 0)
		if r.HasBall && params.CanExecuteAt(r, loc) {
			params.ExecPass(w, r, to)
		}
	case planning.TryToDribble:
		r.CommandFacePoint(loc.Pos(), 0, 0)
		r.CommandMoveTowards(loc.Pos(), dribbleSpeed)
	}
}

// selectGoalkeeper picks the active robot closest to the own goal line. Equal
// distances keep the lowest id.
func (p *Planner) selectGoalkeeper(w *simulation.World, tm *simulation.Team) (int, bool) {
	ownX := tm.OwnGoalX(w.HalfW())
	bestID, best, found := 0, math.Inf(1), false
	for _, r := range tm.ActiveRobots() {
		if d := math.Abs(r.X - ownX); d < best {
			bestID, best, found = r.ID, d, true
		}
	}
	return bestID, found
}

// findHolder returns the first active flagged robot in id order.
func findHolder(tm *simulation.Team) *simulation.Robot {
	for _, r := range tm.ActiveRobots() {
		if r.HasBall {
			return r
		}
	}
	return nil
}
