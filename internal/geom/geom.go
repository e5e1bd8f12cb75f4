package geom

import "math"

// Eps is the distance below which two points are treated as coincident.
const Eps = 1e-9

// Vec2 is a 2D vector in field coordinates (metres, origin at centre spot).
type Vec2 struct {
	X float64
	Y float64
}

func (a Vec2) Add(b Vec2) Vec2         { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2         { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(s float64) Vec2    { return Vec2{a.X * s, a.Y * s} }
func (a Vec2) Dot(b Vec2) float64      { return a.X*b.X + a.Y*b.Y }
func (a Vec2) Cross(b Vec2) float64    { return a.X*b.Y - a.Y*b.X }
func (a Vec2) Len() float64            { return math.Hypot(a.X, a.Y) }
func (a Vec2) Dist(b Vec2) float64     { return math.Hypot(a.X-b.X, a.Y-b.Y) }
func (a Vec2) Angle() float64          { return math.Atan2(a.Y, a.X) }
func (a Vec2) AngleTo(b Vec2) float64  { return math.Atan2(b.Y-a.Y, b.X-a.X) }
func (a Vec2) Rotate(theta float64) Vec2 {
	c, s := math.Cos(theta), math.Sin(theta)
	return Vec2{c*a.X - s*a.Y, s*a.X + c*a.Y}
}

// Norm returns the unit vector of a, or the zero vector when a is degenerate.
func (a Vec2) Norm() Vec2 {
	l := a.Len()
	if l < Eps {
		return Vec2{}
	}
	return Vec2{a.X / l, a.Y / l}
}

// Polar builds a vector of length r pointing along theta.
func Polar(r, theta float64) Vec2 {
	return Vec2{r * math.Cos(theta), r * math.Sin(theta)}
}

// Pose is a position plus heading. Planners call it a location.
type Pose struct {
	X     float64
	Y     float64
	Theta float64
}

func (p Pose) Pos() Vec2 { return Vec2{p.X, p.Y} }

// WrapAngle normalizes an angle to (-π, π]. NaN and Inf collapse to 0.
func WrapAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	a = math.Mod(a, 2*math.Pi)
	if a > math.Pi {
		a -= 2 * math.Pi
	} else if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// AngleDiff is the absolute wrapped difference between two headings.
func AngleDiff(a, b float64) float64 {
	return math.Abs(WrapAngle(a - b))
}

// SegmentPointDistance returns the distance from p to the segment a→b and the
// clamped projection parameter t ∈ [0,1]. A zero-length segment yields t = 0.
func SegmentPointDistance(a, b, p Vec2) (float64, float64) {
	v := b.Sub(a)
	l2 := v.Dot(v)
	if l2 <= 1e-12 {
		return p.Dist(a), 0
	}
	t := Clamp(p.Sub(a).Dot(v)/l2, 0, 1)
	proj := a.Add(v.Scale(t))
	return p.Dist(proj), t
}

// LinearInInterval maps x from [x0,x1] onto [y0,y1], saturating outside.
func LinearInInterval(x, x0, x1, y0, y1 float64) float64 {
	if x <= x0 {
		return y0
	}
	if x >= x1 {
		return y1
	}
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

func Lerp(a, b, t float64) float64 { return a + (b-a)*t }

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Deg2Rad(d float64) float64 { return d * math.Pi / 180 }
func Rad2Deg(r float64) float64 { return r * 180 / math.Pi }
