package strategy

import (
	"math"

	"robosoccer/internal/geom"
	"robosoccer/internal/simulation"
)

const (
	fieldMargin   = 0.5
	distortK      = 0.35
	centreCircleR = 1.0
)

// DistortedTheoreticalXY keeps a positioning target away from the lines. The
// allowed |y| shrinks linearly as the point moves toward the opponent end,
// down to (1-distortK) of the margin-reduced half height.
func DistortedTheoreticalXY(w *simulation.World, tm *simulation.Team, p geom.Vec2) geom.Vec2 {
	hw, hh := w.HalfW(), w.HalfH()
	t := (p.X*tm.AttackSign() + hw) / (2 * hw)
	maxY := (1 - distortK*t) * (hh - fieldMargin)
	return geom.Vec2{
		X: geom.Clamp(p.X, -hw+fieldMargin, hw-fieldMargin),
		Y: geom.Clamp(p.Y, -maxY, maxY),
	}
}

// KickoffRestricted holds targets in the team's own half until play starts,
// and outside the centre circle during either kickoff.
func KickoffRestricted(w *simulation.World, tm *simulation.Team, p geom.Vec2) geom.Vec2 {
	st := w.State()
	if st != simulation.StatePlaying {
		if tm.AttackSign() > 0 {
			p.X = math.Min(p.X, 0)
		} else {
			p.X = math.Max(p.X, 0)
		}
	}
	if st.IsKickoff() && p.Len() < centreCircleR {
		p = geom.Polar(centreCircleR, p.Angle())
	}
	return p
}
