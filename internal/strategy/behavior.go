package strategy

import (
	"math"

	"robosoccer/internal/geom"
	"robosoccer/internal/planning"
	"robosoccer/internal/simulation"
)

type Status int

const (
	Running Status = iota
	Success
	Failure
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "running"
	}
}

// Behavior is a role step function. Kind selects the step; the remaining
// fields are the parameters of that kind and are ignored by the others.
type Behavior struct {
	Kind planning.ActionKind
	// MaxTime fails the behavior once elapsed exceeds it. Zero means no limit.
	MaxTime float64

	Speed    float64
	StopDist float64

	OffsetBack float64 // PositioningPlayingBall
	OffsetSide float64

	Radial   float64 // PositioningAssist
	AngleDeg float64

	Depth float64 // PositioningDefense

	LineDepth float64 // GoalKeeping
	TolY      float64

	CaptureDist  float64 // SeekBall
	FrontConeDeg float64

	Target geom.Vec2 // Goto

	started bool
	elapsed float64
}

func SeekBallBehavior() Behavior {
	return Behavior{Kind: planning.SeekBall, Speed: 1.8, CaptureDist: 0.35, FrontConeDeg: 45}
}

func PlayingBallBehavior() Behavior {
	return Behavior{Kind: planning.PositioningPlayingBall, OffsetBack: 1.2, OffsetSide: 0.8, Speed: 1.6, StopDist: 0.15}
}

func AssistBehavior() Behavior {
	return Behavior{Kind: planning.PositioningAssist, Radial: 2.5, AngleDeg: 35, Speed: 1.6, StopDist: 0.2}
}

func DefenseBehavior(depth float64) Behavior {
	return Behavior{Kind: planning.PositioningDefense, Depth: depth, Speed: 1.6, StopDist: 0.2}
}

func GoalKeepingBehavior() Behavior {
	return Behavior{Kind: planning.GoalKeeping, LineDepth: 0.4, Speed: 1.8, TolY: 0.12}
}

func GotoBehavior(target geom.Vec2, speed float64) Behavior {
	return Behavior{Kind: planning.Goto, Target: target, Speed: speed, StopDist: 0.1}
}

func (b *Behavior) Elapsed() float64 { return b.elapsed }

// Reset makes the next Tick start the behavior over.
func (b *Behavior) Reset() {
	b.started = false
	b.elapsed = 0
}

// Tick advances the timeout bookkeeping by dt and runs one step, which only
// writes r's command intents.
func (b *Behavior) Tick(w *simulation.World, tm *simulation.Team, r *simulation.Robot, dt float64) Status {
	if !b.started {
		b.started = true
		b.elapsed = 0
	}
	b.elapsed += dt
	if b.MaxTime > 0 && b.elapsed > b.MaxTime {
		return Failure
	}
	return b.step(w, tm, r)
}

func (b *Behavior) step(w *simulation.World, tm *simulation.Team, r *simulation.Robot) Status {
	ball := w.Ball.Pos()
	switch b.Kind {
	case planning.SeekBall:
		r.CommandFacePoint(ball, 0, 0)
		r.CommandMoveTowards(ball, b.Speed)
		if r.SeesBallFront(ball, b.CaptureDist, b.FrontConeDeg) {
			return Success
		}
		return Running

	case planning.GoalKeeping:
		hw := w.HalfW()
		xg := -hw + b.LineDepth
		if tm.AttackSign() < 0 {
			xg = hw - b.LineDepth
		}
		yg := geom.Clamp(ball.Y, -0.5*w.GoalWidth, 0.5*w.GoalWidth)
		r.CommandFacePoint(ball, 0, 0)
		r.CommandMoveTowards(geom.Vec2{X: xg, Y: yg}, b.Speed)
		if math.Abs(r.Y-yg) <= b.TolY && math.Abs(r.X-xg) <= 0.1 {
			return Success
		}
		return Running

	case planning.Goto:
		r.CommandMoveTowards(b.Target, b.Speed)
		if r.Pos().Dist(b.Target) <= b.StopDist {
			return Success
		}
		return Running
	}

	target, ok := b.positioningTarget(w, tm, r, ball)
	if !ok {
		return Failure
	}
	target = KickoffRestricted(w, tm, DistortedTheoreticalXY(w, tm, target))
	r.CommandFacePoint(ball, 0, 0)
	r.CommandMoveTowards(target, b.Speed)
	if r.Pos().Dist(target) <= b.StopDist {
		return Success
	}
	return Running
}

// positioningTarget is the raw target of the ball-relative positioning kinds.
func (b *Behavior) positioningTarget(w *simulation.World, tm *simulation.Team, r *simulation.Robot, ball geom.Vec2) (geom.Vec2, bool) {
	switch b.Kind {
	case planning.PositioningPlayingBall:
		side := b.OffsetSide
		if ball.Y > 0 {
			side = -side
		}
		return geom.Vec2{X: ball.X - tm.AttackSign()*b.OffsetBack, Y: ball.Y + side}, true

	case planning.PositioningAssist:
		goal := geom.Vec2{X: tm.OpponentGoalX(w.HalfW())}
		ang := ball.AngleTo(goal)
		if r.ID%2 == 0 {
			ang += geom.Deg2Rad(b.AngleDeg)
		} else {
			ang -= geom.Deg2Rad(b.AngleDeg)
		}
		return ball.Add(geom.Polar(b.Radial, ang)), true

	case planning.PositioningDefense:
		ang := geom.Vec2{X: tm.OwnGoalX(w.HalfW())}.AngleTo(ball)
		return ball.Sub(geom.Polar(b.Depth, ang)), true
	}
	return geom.Vec2{}, false
}
