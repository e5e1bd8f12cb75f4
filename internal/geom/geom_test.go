package geom

import (
	"math"
	"testing"
)

const tol = 1e-9

func TestWrapAngleRangeAndIdempotence(t *testing.T) {
	inputs := []float64{0, math.Pi, -math.Pi, 3 * math.Pi, -3 * math.Pi, 7.5, -7.5, 1e6, -1e6, 2 * math.Pi, 0.1}
	for _, in := range inputs {
		w := WrapAngle(in)
		if w <= -math.Pi || w > math.Pi {
			t.Fatalf("WrapAngle(%v)=%v outside (-pi, pi]", in, w)
		}
		if again := WrapAngle(w); math.Abs(again-w) > tol {
			t.Fatalf("WrapAngle not idempotent for %v: %v then %v", in, w, again)
		}
		if math.Abs(math.Sin(w)-math.Sin(in)) > 1e-6 || math.Abs(math.Cos(w)-math.Cos(in)) > 1e-6 {
			t.Fatalf("WrapAngle(%v)=%v changed direction", in, w)
		}
	}
	if got := WrapAngle(-math.Pi); got != math.Pi {
		t.Fatalf("expected -pi to map to pi, got=%v", got)
	}
	if got := WrapAngle(math.NaN()); got != 0 {
		t.Fatalf("expected NaN to collapse to 0, got=%v", got)
	}
}

func TestSegmentPointDistance(t *testing.T) {
	cases := []struct {
		name  string
		a, b  Vec2
		p     Vec2
		wantD float64
		wantT float64
	}{
		{"perpendicular middle", Vec2{0, 0}, Vec2{4, 0}, Vec2{2, 1}, 1, 0.5},
		{"behind start clamps", Vec2{0, 0}, Vec2{4, 0}, Vec2{-3, 4}, 5, 0},
		{"past end clamps", Vec2{0, 0}, Vec2{4, 0}, Vec2{7, 4}, 5, 1},
		{"degenerate segment", Vec2{1, 1}, Vec2{1, 1}, Vec2{4, 5}, 5, 0},
	}
	for _, tc := range cases {
		d, tt := SegmentPointDistance(tc.a, tc.b, tc.p)
		if math.Abs(d-tc.wantD) > tol || math.Abs(tt-tc.wantT) > tol {
			t.Fatalf("%s: got d=%v t=%v want d=%v t=%v", tc.name, d, tt, tc.wantD, tc.wantT)
		}
	}
}

func TestLinearInInterval(t *testing.T) {
	if got := LinearInInterval(0.7, 0.8, 1.0, 0, 1); got != 0 {
		t.Fatalf("below range: got=%v", got)
	}
	if got := LinearInInterval(1.3, 0.8, 1.0, 0, 1); got != 1 {
		t.Fatalf("above range: got=%v", got)
	}
	if got := LinearInInterval(0.9, 0.8, 1.0, 0, 1); math.Abs(got-0.5) > tol {
		t.Fatalf("midpoint: got=%v", got)
	}
	if got := LinearInInterval(1.5, 0, 3, 1.0, 0.8); math.Abs(got-0.9) > tol {
		t.Fatalf("decreasing ramp: got=%v", got)
	}
}

func TestNormDegenerate(t *testing.T) {
	if n := (Vec2{}).Norm(); n != (Vec2{}) {
		t.Fatalf("expected zero vector, got=%+v", n)
	}
	n := Vec2{3, 4}.Norm()
	if math.Abs(n.Len()-1) > tol {
		t.Fatalf("expected unit length, got=%v", n.Len())
	}
}
