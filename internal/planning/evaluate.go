package planning

import (
	"math"

	"robosoccer/internal/config"
	"robosoccer/internal/geom"
	"robosoccer/internal/simulation"
)

// Params are the evaluator constants.
type Params struct {
	PassSpeed      float64
	ShotSpeed      float64
	OppMaxSpeed    float64
	SafetyRadius   float64
	GoalHalfHeight float64
	ExecDist       float64
	ExecAngleDeg   float64
}

func ParamsFromConfig(c config.Evaluator) Params {
	return Params{
		PassSpeed:      c.PassSpeed,
		ShotSpeed:      c.ShotSpeed,
		OppMaxSpeed:    c.OppMaxSpeed,
		SafetyRadius:   c.SafetyRadius,
		GoalHalfHeight: c.GoalHalfHeight,
		ExecDist:       c.ExecDist,
		ExecAngleDeg:   c.ExecAngleDeg,
	}
}

// opponentPositions lists the active robots of the other side.
func opponentPositions(w *simulation.World, side simulation.Side) []geom.Vec2 {
	opp := w.Opponents(side).ActiveRobots()
	out := make([]geom.Vec2, 0, len(opp))
	for _, r := range opp {
		out = append(out, r.Pos())
	}
	return out
}

// GoalOpeningAngle is the angle subtended at pos by the two posts of the
// goal side is attacking.
func (p Params) GoalOpeningAngle(w *simulation.World, side simulation.Side, pos geom.Vec2) float64 {
	gx := w.TeamOf(side).OpponentGoalX(w.HalfW())
	a1 := pos.AngleTo(geom.Vec2{X: gx, Y: p.GoalHalfHeight})
	a2 := pos.AngleTo(geom.Vec2{X: gx, Y: -p.GoalHalfHeight})
	return math.Abs(geom.WrapAngle(a1 - a2))
}

// EvaluateShoot scores carrying the ball from start to shootPos and shooting
// at (goalX, goalY). Positions on the own half score zero. With
// respectCarry the reward fades out for carries between 2.5 and 3 m, the
// dribble-length rule.
func (p Params) EvaluateShoot(w *simulation.World, side simulation.Side, shootPos geom.Vec2, goalY float64, respectCarry bool, start geom.Vec2) (reward, prob float64) {
	tm := w.TeamOf(side)
	sign := tm.AttackSign()
	goal := geom.Vec2{X: tm.OpponentGoalX(w.HalfW()), Y: goalY}
	opps := opponentPositions(w, side)

	pMove := InterceptionProbability(start, shootPos, opps, carryModel)
	pShot := InterceptionProbability(shootPos, goal, opps, shotModel)
	prob = pMove * pShot

	carry := start.Dist(shootPos)
	reward = 1.0
	if respectCarry {
		reward *= geom.LinearInInterval(carry, 2.5, 3.0, 1, 0)
	}
	reward *= geom.LinearInInterval(carry, 0, 3.0, 1, 0.8)
	reward *= geom.LinearInInterval(p.GoalOpeningAngle(w, side, shootPos), 0, math.Pi/3, 0.2, 1)
	if shootPos.X*sign <= 0 {
		reward = 0
	}
	return math.Max(0, reward), geom.Clamp(prob, 0, 1)
}

// EvaluatePass scores a pass from → receiver on range, free space around the
// receiver and how exposed the lane is to interception.
func (p Params) EvaluatePass(w *simulation.World, side simulation.Side, from, receiver geom.Vec2) (reward, prob float64) {
	opps := opponentPositions(w, side)
	d := from.Dist(receiver)
	space := NearestDistance(receiver, opps)
	minD, cover := RayClearance(from, receiver, opps, p.SafetyRadius)

	tBall := d / math.Max(1e-6, p.PassSpeed)
	tOpp := minD / math.Max(1e-6, p.OppMaxSpeed)
	cut := math.Max(0, 1-tOpp/(tBall+1e-6))

	rangeScore := math.Max(0, 1-d/10)
	spaceScore := math.Min(space/2, 1)

	prob = (0.5*rangeScore + 0.5*spaceScore) * (1 - 0.9*cover) * (1 - 0.8*cut)
	prob = math.Max(0.05, prob)
	reward = 2.2*rangeScore + 2.8*spaceScore - 1.5*(1-math.Min(1, minD/0.6))
	return math.Max(0, reward), geom.Clamp(prob, 0, 1)
}

// EvaluateDeepPass chains a pass into space at receiveAt with a shot from
// there. The shot leg ignores the carry rule.
func (p Params) EvaluateDeepPass(w *simulation.World, side simulation.Side, from, receiveAt geom.Vec2, goalY float64) (reward, prob float64) {
	rp, pp := p.EvaluatePass(w, side, from, receiveAt)
	rs, ps := p.EvaluateShoot(w, side, receiveAt, goalY, false, from)
	return 0.5*rp + 0.8*rs, geom.Clamp(pp*ps, 0, 1)
}

// EvaluateDribble rewards forward progress and free space at the end point.
func (p Params) EvaluateDribble(w *simulation.World, side simulation.Side, from, to geom.Vec2) (reward, prob float64) {
	sign := w.TeamOf(side).AttackSign()
	space := NearestDistance(to, opponentPositions(w, side))
	progress := sign * (to.X - from.X)
	reward = 0.8*progress + 1.2*math.Min(space, 2)
	prob = math.Max(0.1, math.Min(1, space/2))
	return reward, prob
}
