package simulation

import (
	"math"
	"math/rand"

	"robosoccer/internal/geom"
)

// CollisionParams tunes the positional overlap solver.
type CollisionParams struct {
	Iterations  int
	Clearance   float64
	Restitution float64
	MaxPush     float64
}

const coincidentNudge = 1e-3

// ResolveCollisions separates overlapping active robots with a few relaxation
// passes over their bounding circles, then clamps each robot into the field.
// Teams are not distinguished.
func ResolveCollisions(robots []*Robot, halfW, halfH float64, p CollisionParams, rng *rand.Rand) {
	active := make([]*Robot, 0, len(robots))
	for _, r := range robots {
		if r.Active {
			active = append(active, r)
		}
	}
	n := len(active)
	if n <= 1 {
		for _, r := range active {
			clampIntoField(r, halfW, halfH)
		}
		return
	}

	radii := make([]float64, n)
	for i, r := range active {
		radii[i] = r.OuterRadius() + p.Clearance*0.5
	}

	iterations := max(1, p.Iterations)
	order := make([]int, n)
	for iter := 0; iter < iterations; iter++ {
		for i := range order {
			order[i] = i
		}
		rng.Shuffle(n, func(a, b int) { order[a], order[b] = order[b], order[a] })

		for _, i := range order {
			for j := i + 1; j < n; j++ {
				separatePair(active[i], active[j], radii[i]+radii[j], p, rng)
			}
		}
		for _, r := range active {
			clampIntoField(r, halfW, halfH)
		}
	}
}

func separatePair(a, b *Robot, minD float64, p CollisionParams, rng *rand.Rand) {
	dx, dy := b.X-a.X, b.Y-a.Y
	d2 := dx*dx + dy*dy
	if d2 < 1e-12 {
		ang := rng.Float64() * 2 * math.Pi
		c, s := math.Cos(ang), math.Sin(ang)
		a.X -= coincidentNudge * c
		a.Y -= coincidentNudge * s
		b.X += coincidentNudge * c
		b.Y += coincidentNudge * s
		dx, dy = b.X-a.X, b.Y-a.Y
		d2 = dx*dx + dy*dy
	}

	d := math.Sqrt(d2)
	if d >= minD {
		return
	}
	nx, ny := 1.0, 0.0
	if d > geom.Eps {
		nx, ny = dx/d, dy/d
	}

	push := math.Min(0.5*(minD-d), p.MaxPush)
	a.X -= nx * push
	a.Y -= ny * push
	b.X += nx * push
	b.Y += ny * push

	vn := (b.VX-a.VX)*nx + (b.VY-a.VY)*ny
	if vn < 0 {
		j := -(1 + p.Restitution) * vn * 0.5
		a.VX -= nx * j
		a.VY -= ny * j
		b.VX += nx * j
		b.VY += ny * j
	}
}

func clampIntoField(r *Robot, halfW, halfH float64) {
	ex, ey := r.HalfExtents()
	r.X = geom.Clamp(r.X, -halfW+ex, halfW-ex)
	r.Y = geom.Clamp(r.Y, -halfH+ey, halfH-ey)
}
