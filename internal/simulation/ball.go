package simulation

import (
	"math"

	"robosoccer/internal/geom"
)

// BoundaryMode selects how the ball reacts to the field edge.
type BoundaryMode string

const (
	BoundaryClip   BoundaryMode = "clip"
	BoundaryBounce BoundaryMode = "bounce"
)

// Ball is a point mass with linear drag. The World owns the only instance.
type Ball struct {
	X, Y   float64
	VX, VY float64

	Radius      float64
	Drag        float64
	MinSpeed    float64
	Restitution float64
}

func (b *Ball) Pos() geom.Vec2 { return geom.Vec2{X: b.X, Y: b.Y} }
func (b *Ball) Vel() geom.Vec2 { return geom.Vec2{X: b.VX, Y: b.VY} }
func (b *Ball) Speed() float64 { return math.Hypot(b.VX, b.VY) }

func (b *Ball) SetPosition(x, y float64) {
	b.X, b.Y = x, y
}

func (b *Ball) SetVelocity(vx, vy float64) {
	b.VX, b.VY = vx, vy
}

// Kick replaces the velocity with speed along heading.
func (b *Ball) Kick(speed, heading float64) {
	v := geom.Polar(speed, heading)
	b.VX, b.VY = v.X, v.Y
}

// Integrate advances the ball by dt: Euler position step, exponential drag,
// min-speed snap, then boundary handling against the field minus the radius.
func (b *Ball) Integrate(dt, halfW, halfH float64, mode BoundaryMode) {
	if dt <= 0 {
		return
	}

	b.X += b.VX * dt
	b.Y += b.VY * dt

	damp := math.Exp(-math.Max(0, b.Drag) * dt)
	b.VX *= damp
	b.VY *= damp

	if b.VX*b.VX+b.VY*b.VY < b.MinSpeed*b.MinSpeed {
		b.VX, b.VY = 0, 0
	}

	maxX := halfW - b.Radius
	maxY := halfH - b.Radius
	switch mode {
	case BoundaryBounce:
		b.X, b.VX = bounceAxis(b.X, b.VX, maxX, b.Restitution)
		b.Y, b.VY = bounceAxis(b.Y, b.VY, maxY, b.Restitution)
	default:
		b.X, b.VX = clipAxis(b.X, b.VX, maxX)
		b.Y, b.VY = clipAxis(b.Y, b.VY, maxY)
	}
}

func clipAxis(p, v, limit float64) (float64, float64) {
	if p > limit {
		return limit, 0
	}
	if p < -limit {
		return -limit, 0
	}
	return p, v
}

func bounceAxis(p, v, limit, restitution float64) (float64, float64) {
	if p > limit {
		return limit, -v * restitution
	}
	if p < -limit {
		return -limit, -v * restitution
	}
	return p, v
}
