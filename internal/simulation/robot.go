package simulation

import (
	"math"

	"robosoccer/internal/geom"
)

// stopSnap is the speed under which an uncommanded robot is considered at rest.
const stopSnap = 1e-3

// Robot is a square holonomic agent tracking its commanded velocity with a
// first-order lag and bounded acceleration. Its Team owns it.
type Robot struct {
	ID     int
	TeamID int

	X, Y, Theta float64
	VX, VY      float64
	Omega       float64

	// Command intents written by planners and consumed by Update.
	DesiredVX, DesiredVY float64
	DesiredOmega         float64

	SideLen  float64
	MaxSpeed float64
	MaxOmega float64
	MaxAccel float64
	MaxAlpha float64
	TauV     float64
	TauW     float64

	Active  bool
	HasBall bool

	// Action is the debug label of the behavior currently driving the robot.
	Action string
}

func (r *Robot) Pos() geom.Vec2    { return geom.Vec2{X: r.X, Y: r.Y} }
func (r *Robot) Pose() geom.Pose   { return geom.Pose{X: r.X, Y: r.Y, Theta: r.Theta} }
func (r *Robot) Speed() float64    { return math.Hypot(r.VX, r.VY) }
func (r *Robot) HalfSide() float64 { return 0.5 * r.SideLen }

// OuterRadius is the half diagonal of the footprint.
func (r *Robot) OuterRadius() float64 {
	h := r.HalfSide()
	return math.Hypot(h, h)
}

// Corners returns the footprint vertices counter-clockwise in world frame.
func (r *Robot) Corners() [4]geom.Vec2 {
	h := r.HalfSide()
	local := [4]geom.Vec2{{X: -h, Y: -h}, {X: h, Y: -h}, {X: h, Y: h}, {X: -h, Y: h}}
	var out [4]geom.Vec2
	for i, l := range local {
		out[i] = l.Rotate(r.Theta).Add(r.Pos())
	}
	return out
}

// HalfExtents is the axis-aligned half width of the rotated square. It is the
// same on both axes.
func (r *Robot) HalfExtents() (float64, float64) {
	e := r.HalfSide() * (math.Abs(math.Cos(r.Theta)) + math.Abs(math.Sin(r.Theta)))
	return e, e
}

func (r *Robot) SetPose(x, y, theta float64) {
	r.X, r.Y, r.Theta = x, y, geom.WrapAngle(theta)
}

func (r *Robot) SetVel(vx, vy, omega float64) {
	r.VX, r.VY, r.Omega = vx, vy, omega
}

// Stop zeroes the command intents. The robot still decelerates under the
// acceleration limit.
func (r *Robot) Stop() {
	r.DesiredVX, r.DesiredVY, r.DesiredOmega = 0, 0, 0
}

// CommandVelocity stores a velocity intent clamped to the robot limits.
func (r *Robot) CommandVelocity(vx, vy, omega float64) {
	sp := math.Hypot(vx, vy)
	if sp > geom.Eps && sp > r.MaxSpeed {
		k := r.MaxSpeed / sp
		vx *= k
		vy *= k
	}
	r.DesiredVX = vx
	r.DesiredVY = vy
	r.DesiredOmega = geom.Clamp(omega, -r.MaxOmega, r.MaxOmega)
}

// CommandMoveTowards drives straight at target. A non-positive speed means
// full speed. The angular intent is preserved.
func (r *Robot) CommandMoveTowards(target geom.Vec2, speed float64) {
	if speed <= 0 {
		speed = r.MaxSpeed
	}
	d := target.Sub(r.Pos())
	if d.Len() < 1e-6 {
		r.CommandVelocity(0, 0, r.DesiredOmega)
		return
	}
	u := d.Norm()
	r.CommandVelocity(u.X*speed, u.Y*speed, r.DesiredOmega)
}

// CommandFacePoint sets a proportional heading intent toward target. Zero
// gain defaults to 3 and zero maxRate to the robot's MaxOmega.
func (r *Robot) CommandFacePoint(target geom.Vec2, gain, maxRate float64) {
	if gain == 0 {
		gain = 3.0
	}
	if maxRate <= 0 {
		maxRate = r.MaxOmega
	}
	err := geom.WrapAngle(r.Pos().AngleTo(target) - r.Theta)
	r.DesiredOmega = geom.Clamp(gain*err, -maxRate, maxRate)
}

func lagFactor(tau, dt float64) float64 {
	if tau <= 0 {
		return 1
	}
	return 1 - math.Exp(-dt/tau)
}

// Update integrates one kinematic step. Inactive robots and non-positive dt
// are skipped.
func (r *Robot) Update(dt float64) {
	if !r.Active || dt <= 0 {
		return
	}

	av := lagFactor(r.TauV, dt)
	aw := lagFactor(r.TauW, dt)
	vxT := r.VX + av*(r.DesiredVX-r.VX)
	vyT := r.VY + av*(r.DesiredVY-r.VY)
	wT := r.Omega + aw*(r.DesiredOmega-r.Omega)

	if sp := math.Hypot(vxT, vyT); r.MaxSpeed > 0 && sp > r.MaxSpeed {
		s := r.MaxSpeed / sp
		vxT *= s
		vyT *= s
	}
	wT = geom.Clamp(wT, -r.MaxOmega, r.MaxOmega)

	dvx, dvy := vxT-r.VX, vyT-r.VY
	maxDv := r.MaxAccel * dt
	if dv := math.Hypot(dvx, dvy); maxDv > 0 && dv > maxDv {
		s := maxDv / dv
		dvx *= s
		dvy *= s
	}
	r.VX += dvx
	r.VY += dvy
	maxDw := r.MaxAlpha * dt
	r.Omega += geom.Clamp(wT-r.Omega, -maxDw, maxDw)

	if r.DesiredVX == 0 && r.DesiredVY == 0 && math.Hypot(r.VX, r.VY) < stopSnap {
		r.VX, r.VY = 0, 0
	}
	if r.DesiredOmega == 0 && math.Abs(r.Omega) < stopSnap {
		r.Omega = 0
	}

	r.X += r.VX * dt
	r.Y += r.VY * dt
	r.Theta = geom.WrapAngle(r.Theta + r.Omega*dt)
}

// BallRelative returns the distance to the ball and its bearing relative to
// the heading.
func (r *Robot) BallRelative(ball geom.Vec2) (float64, float64) {
	d := ball.Sub(r.Pos())
	return d.Len(), geom.WrapAngle(d.Angle() - r.Theta)
}

// SeesBallFront reports whether ball is within maxDist and inside the
// ±halfAngleDeg cone around the heading.
func (r *Robot) SeesBallFront(ball geom.Vec2, maxDist, halfAngleDeg float64) bool {
	dist, bearing := r.BallRelative(ball)
	return dist <= maxDist && math.Abs(bearing) <= geom.Deg2Rad(halfAngleDeg)
}

// FrontOffset is the distance from the robot centre to a ball pinned at its nose.
func (r *Robot) FrontOffset(ballRadius, gap float64) float64 {
	return r.HalfSide() + ballRadius + gap
}

// DribbleAnchor returns where a held ball sits and the velocity of that
// point, including the rotational sweep ω × offset.
func (r *Robot) DribbleAnchor(ballRadius, gap float64) (pos, vel geom.Vec2) {
	off := geom.Polar(r.FrontOffset(ballRadius, gap), r.Theta)
	pos = r.Pos().Add(off)
	vel = geom.Vec2{X: r.VX - r.Omega*off.Y, Y: r.VY + r.Omega*off.X}
	return pos, vel
}
