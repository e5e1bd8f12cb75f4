package planning

import (
	"math"
	"math/rand"

	"robosoccer/internal/config"
	"robosoccer/internal/geom"
)

// Sampler is the rosace generator: jittered exploration points around a base
// location plus a small ring around the tracked point of the previous tick.
type Sampler struct {
	BasePoints int
	RingPoints int
	RingRadii  []float64

	rng *rand.Rand
}

func NewSampler(cfg config.Sampler, rng *rand.Rand) *Sampler {
	radii := append([]float64(nil), cfg.RingRadii...)
	if len(radii) == 0 {
		radii = []float64{0.2}
	}
	return &Sampler{BasePoints: cfg.BasePoints, RingPoints: cfg.RingPoints, RingRadii: radii, rng: rng}
}

// Sample uses the configured point counts.
func (s *Sampler) Sample(base geom.Pose, tracked *geom.Pose, radius float64) []Candidate {
	return s.SampleN(base, tracked, radius, s.BasePoints, s.RingPoints)
}

// SampleN emits nBase points uniform in a square of side radius centred on
// base. When tracked is set it adds the tracked point itself and, for each
// ring radius, max(1, nRing) points around it with jittered angle and
// distance. Out-of-field points are left to the caller.
func (s *Sampler) SampleN(base geom.Pose, tracked *geom.Pose, radius float64, nBase, nRing int) []Candidate {
	out := make([]Candidate, 0, nBase+1+len(s.RingRadii)*max(1, nRing))
	for i := 0; i < nBase; i++ {
		out = append(out, Candidate{Pose: geom.Pose{
			X: base.X + (s.rng.Float64()-0.5)*radius,
			Y: base.Y + (s.rng.Float64()-0.5)*radius,
		}})
	}
	if tracked == nil {
		return out
	}

	out = append(out, Candidate{Pose: *tracked, IsTracked: true})
	n := max(1, nRing)
	for _, rs := range s.RingRadii {
		for k := 0; k < n; k++ {
			ang := 2*math.Pi*float64(k)/float64(n) + (s.rng.Float64()-0.5)*(math.Pi/float64(n))
			dist := rs + (s.rng.Float64()-0.5)*rs
			out = append(out, Candidate{Pose: geom.Pose{
				X:     tracked.X + dist*math.Cos(ang),
				Y:     tracked.Y + dist*math.Sin(ang),
				Theta: tracked.Theta,
			}})
		}
	}
	return out
}
