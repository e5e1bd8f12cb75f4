package planning

import (
	"math"
	"math/rand"

	"robosoccer/internal/config"
	"robosoccer/internal/geom"
	"robosoccer/internal/simulation"
)

const (
	// radiusExtended bounds pass and deep-pass exploration around the holder.
	radiusExtended = 11.0
	goalYStep      = 0.25
	goalYSteps     = 4
)

// Pipeline samples candidate locations for a ball holder and scores them
// with the evaluators.
type Pipeline struct {
	Params  Params
	Sampler *Sampler
}

func NewPipeline(cfg config.Config, rng *rand.Rand) *Pipeline {
	return &Pipeline{
		Params:  ParamsFromConfig(cfg.Evaluator),
		Sampler: NewSampler(cfg.Sampler, rng),
	}
}

func inField(w *simulation.World, p geom.Pose) bool {
	return math.Abs(p.X) <= w.HalfW() && math.Abs(p.Y) <= w.HalfH()
}

// goalYs sweeps aim points across the goal mouth.
func goalYs() []float64 {
	out := make([]float64, 0, 2*goalYSteps+1)
	for i := -goalYSteps; i <= goalYSteps; i++ {
		out = append(out, float64(i)*goalYStep)
	}
	return out
}

// BuildMoveWithBallActions scores every allowed subtype for robot r of side.
// Memory supplies the tracked point of each subtype's previous winner.
func (pl *Pipeline) BuildMoveWithBallActions(w *simulation.World, side simulation.Side, r *simulation.Robot, allowed ActionSet, mem *Memory) []ActionQValue {
	var out []ActionQValue
	if allowed == 0 {
		allowed = AllInstantActions
	}
	tm := w.TeamOf(side)
	gx := tm.OpponentGoalX(w.HalfW())
	start := r.Pos()

	newAction := func(sub ActionKind, reward, prob float64, loc geom.Pose, tracked bool) ActionQValue {
		return ActionQValue{
			RobotID:     r.ID,
			Kind:        MovingWithBall,
			Subtype:     sub,
			Reward:      reward,
			Probability: prob,
			Location:    loc,
			IsTracked:   tracked,
		}
	}

	if allowed.Has(TryToShoot) {
		tracked := trackedLocation(mem, r.ID, TryToShoot)
		base := geom.Pose{X: tm.AttackSign() * w.FieldW / 4}
		cands := pl.Sampler.SampleN(base, tracked, 10, 4, 4)
		cands = append(cands, pl.Sampler.SampleN(r.Pose(), nil, 2, 3, 0)...)
		for _, c := range cands {
			if !inField(w, c.Pose) {
				continue
			}
			loc := c.Pose.Pos()
			bestR, bestP, bestY := 0.0, 0.0, 0.0
			for _, gy := range goalYs() {
				rw, p := pl.Params.EvaluateShoot(w, side, loc, gy, true, start)
				if rw > bestR {
					bestR, bestP, bestY = rw, p, gy
				}
			}
			if bestR <= 0 {
				continue
			}
			face := loc.AngleTo(geom.Vec2{X: gx, Y: bestY})
			out = append(out, newAction(TryToShoot, bestR, bestP, geom.Pose{X: loc.X, Y: loc.Y, Theta: face}, c.IsTracked))
		}
	}

	if allowed.Has(TryToDribble) {
		tracked := trackedLocation(mem, r.ID, TryToDribble)
		for _, c := range pl.Sampler.SampleN(r.Pose(), tracked, 10, 4, 5) {
			if !inField(w, c.Pose) {
				continue
			}
			loc := c.Pose.Pos()
			rw, p := pl.Params.EvaluateDribble(w, side, start, loc)
			if rw <= 0 {
				continue
			}
			out = append(out, newAction(TryToDribble, rw, p, geom.Pose{X: loc.X, Y: loc.Y, Theta: start.AngleTo(loc)}, c.IsTracked))
		}
	}

	if allowed.Has(TryToPass) {
		tracked := trackedLocation(mem, r.ID, TryToPass)
		cands := pl.Sampler.Sample(r.Pose(), tracked, radiusExtended)
		for _, mate := range tm.ActiveRobots() {
			if mate.ID == r.ID {
				continue
			}
			target := mate.Pos()
			for _, c := range cands {
				if !inField(w, c.Pose) {
					continue
				}
				loc := c.Pose.Pos()
				rw, p := pl.Params.EvaluatePass(w, side, loc, target)
				if rw <= 0 {
					continue
				}
				a := newAction(TryToPass, rw, p, geom.Pose{X: loc.X, Y: loc.Y, Theta: loc.AngleTo(target)}, c.IsTracked)
				a.Target = &geom.Pose{X: target.X, Y: target.Y}
				out = append(out, a)
			}
		}
	}

	if allowed.Has(TryToDeepPass) {
		var tracked *geom.Pose
		if prev, ok := mem.Get(r.ID, TryToDeepPass); ok && prev.Target != nil {
			t := *prev.Target
			tracked = &t
		}
		for _, c := range pl.Sampler.Sample(r.Pose(), tracked, radiusExtended) {
			if !inField(w, c.Pose) {
				continue
			}
			loc := c.Pose.Pos()
			bestR, bestP := 0.0, 0.0
			for _, gy := range goalYs() {
				rw, p := pl.Params.EvaluateDeepPass(w, side, start, loc, gy)
				if rw > bestR {
					bestR, bestP = rw, p
				}
			}
			if bestR <= 0 {
				continue
			}
			a := newAction(TryToDeepPass, bestR, bestP, geom.Pose{X: start.X, Y: start.Y, Theta: start.AngleTo(loc)}, c.IsTracked)
			a.Target = &geom.Pose{X: loc.X, Y: loc.Y}
			out = append(out, a)
		}
	}
	return out
}

func trackedLocation(mem *Memory, robotID int, sub ActionKind) *geom.Pose {
	if mem == nil {
		return nil
	}
	prev, ok := mem.Get(robotID, sub)
	if !ok {
		return nil
	}
	loc := prev.Location
	return &loc
}

// CanExecuteAt reports whether r stands close enough to target, and faces
// its heading closely enough, to fire the action.
func (p Params) CanExecuteAt(r *simulation.Robot, target geom.Pose) bool {
	if r.Pos().Dist(target.Pos()) > p.ExecDist {
		return false
	}
	return math.Abs(geom.AngleDiff(target.Theta, r.Theta)) <= geom.Deg2Rad(p.ExecAngleDeg)
}

// ExecShoot kicks the ball from r toward the centre of the goal it attacks.
func (p Params) ExecShoot(w *simulation.World, side simulation.Side, r *simulation.Robot) {
	gx := w.TeamOf(side).OpponentGoalX(w.HalfW())
	w.ReleaseBall(r, geom.Vec2{X: gx}, p.ShotSpeed, simulation.EventShot)
}

// ExecPass kicks the ball from r toward to at pass speed.
func (p Params) ExecPass(w *simulation.World, r *simulation.Robot, to geom.Vec2) {
	w.ReleaseBall(r, to, p.PassSpeed, simulation.EventPass)
}
