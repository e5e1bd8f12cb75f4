package planning

import (
	"math"

	"robosoccer/internal/geom"
)

// MoveModel describes a mover racing opponents along a straight segment.
type MoveModel struct {
	Speed         float64 // mover (robot or ball) speed
	OpponentSpeed float64
	// InterCentre is subtracted from the lateral distance: an opponent this
	// close to the path already blocks it.
	InterCentre float64
	Reaction    float64
}

var (
	carryModel = MoveModel{Speed: 3.0, OpponentSpeed: 3.0, InterCentre: 0.55, Reaction: 0.1}
	shotModel  = MoveModel{Speed: 15.0, OpponentSpeed: 3.0, InterCentre: 0.40, Reaction: 0.1}
)

// InterceptionProbability estimates how likely the trip start→target is
// uncontested. For every opponent the time it needs to reach the path is
// compared with the time the mover needs to reach the same point; the
// smallest ratio is ramped from 0.8 (probability 0) to 1.0 (probability 1).
func InterceptionProbability(start, target geom.Vec2, opponents []geom.Vec2, m MoveModel) float64 {
	l := start.Dist(target)
	if l <= geom.Eps || len(opponents) == 0 {
		return 1
	}

	minRatio := math.Inf(1)
	for _, o := range opponents {
		d, t := geom.SegmentPointDistance(start, target, o)
		dEff := math.Max(0, d-m.InterCentre)
		reaction := 0.0
		if dEff != 0 {
			reaction = m.Reaction
		}
		tOpp := dEff/math.Max(1e-6, m.OpponentSpeed) + reaction
		tMover := t * l / math.Max(1e-6, m.Speed)
		if r := tOpp / math.Max(1e-6, tMover); r < minRatio {
			minRatio = r
		}
	}
	return geom.LinearInInterval(minRatio, 0.8, 1.0, 0, 1)
}

// RayClearance returns the closest opponent distance to the segment p0→p1
// (the segment length when there are no opponents) and a coverage fraction
// that grows with the number of opponents within safety of the lane.
func RayClearance(p0, p1 geom.Vec2, opponents []geom.Vec2, safety float64) (minD, cover float64) {
	l := math.Max(1e-6, p0.Dist(p1))
	minD = math.Inf(1)
	covered := 0
	for _, o := range opponents {
		d, _ := geom.SegmentPointDistance(p0, p1, o)
		minD = math.Min(minD, d)
		if d <= safety {
			covered++
		}
	}
	cover = math.Min(1, float64(covered)*(0.6/(l+0.1)))
	if math.IsInf(minD, 1) {
		minD = l
	}
	return minD, cover
}

// NearestDistance is the distance from p to the closest point in others, or
// +Inf when others is empty.
func NearestDistance(p geom.Vec2, others []geom.Vec2) float64 {
	best := math.Inf(1)
	for _, o := range others {
		best = math.Min(best, p.Dist(o))
	}
	return best
}
