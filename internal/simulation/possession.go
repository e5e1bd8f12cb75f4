package simulation

import "math"

// PossessionParams configures holder detection and the sticky anchor.
type PossessionParams struct {
	ConeDistOn      float64
	ConeAngleOnDeg  float64
	ConeDistOff     float64
	ConeAngleOffDeg float64

	Sticky     bool
	StickyGap  float64
	ClipAnchor bool

	// KickCooldown is the capture lockout started by every shot or pass.
	KickCooldown float64
}

// holderRef identifies a robot by side and id rather than by pointer.
type holderRef struct {
	side Side
	id   int
	ok   bool
}

// updatePossession runs before ball integration. It is the only writer of
// the HasBall flags during Update.
func (w *World) updatePossession(dt float64) {
	if w.kickCooldown > 0 {
		w.kickCooldown = math.Max(0, w.kickCooldown-dt)
	}
	if w.kickCooldown > 0 {
		for _, r := range w.AllRobots() {
			r.HasBall = false
		}
		w.lastHolder = holderRef{}
		return
	}

	holder := w.findHolder()

	for _, r := range w.AllRobots() {
		r.HasBall = r == holder
	}
	ref := holderRef{}
	if holder != nil {
		ref = holderRef{side: w.sideOf(holder), id: holder.ID, ok: true}
		if ref != w.lastHolder {
			w.emit(EventPossession, ref.side, ref.id)
		}
	}
	w.lastHolder = ref

	if w.Possession.Sticky && holder != nil {
		pos, vel := holder.DribbleAnchor(w.Ball.Radius, w.Possession.StickyGap)
		if w.Possession.ClipAnchor {
			pos.X = clampSym(pos.X, w.HalfW()-w.Ball.Radius)
			pos.Y = clampSym(pos.Y, w.HalfH()-w.Ball.Radius)
		}
		w.Ball.SetPosition(pos.X, pos.Y)
		w.Ball.SetVelocity(vel.X, vel.Y)
	}
}

// findHolder keeps a flagged holder that is still inside the wide cone,
// otherwise picks the nearest robot inside the narrow cone. Candidates are
// visited left team first, ascending id, and only a strictly nearer robot
// displaces the current best.
func (w *World) findHolder() *Robot {
	ball := w.Ball.Pos()
	p := w.Possession
	robots := w.AllRobots()

	for _, r := range robots {
		if r.Active && r.HasBall && r.SeesBallFront(ball, p.ConeDistOff, p.ConeAngleOffDeg) {
			return r
		}
	}

	var best *Robot
	bestD2 := math.Inf(1)
	for _, r := range robots {
		if !r.Active || !r.SeesBallFront(ball, p.ConeDistOn, p.ConeAngleOnDeg) {
			continue
		}
		d := r.Pos().Sub(ball)
		if d2 := d.Dot(d); d2 < bestD2 {
			bestD2 = d2
			best = r
		}
	}
	return best
}

func clampSym(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
